// Package export serializes the full entity graph for exporters. The
// traversal is read-only; nothing here mutates the ledger.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"soldi/internal/core"
	"soldi/internal/ledger"
	"soldi/internal/rates"
)

// TransactionView couples a transaction with its components for export.
type TransactionView struct {
	core.Transaction
	Components []core.Component `json:"components"`
}

// Document is the export wire shape. Amounts stay integer minor units so a
// re-import never passes through floating point.
type Document struct {
	ExportedAt   time.Time         `json:"exported_at"`
	Accounts     []core.Account    `json:"accounts"`
	Transactions []TransactionView `json:"transactions"`
	Rates        []rates.Rate      `json:"rates"`
}

// Snapshot builds the export document from the current graph.
func Snapshot(book *ledger.Book, table *rates.Table) Document {
	doc := Document{
		ExportedAt: time.Now().UTC(),
		Accounts:   book.Accounts(),
		Rates:      table.Rates(),
	}
	for _, transaction := range book.Transactions() {
		doc.Transactions = append(doc.Transactions, TransactionView{
			Transaction: transaction,
			Components:  book.ComponentsOf(transaction.ID),
		})
	}
	return doc
}

// WriteJSON writes the indented JSON document to w.
func WriteJSON(w io.Writer, book *ledger.Book, table *rates.Table) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(Snapshot(book, table)); err != nil {
		return fmt.Errorf("encode export document: %w", err)
	}
	return nil
}
