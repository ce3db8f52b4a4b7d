// Package importer bulk-loads transactions from CSV. Rows only name
// accounts; de-duplication by account name happens here, the ledger core
// never sees the names twice.
package importer

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"soldi/internal/core"
	"soldi/internal/log"
)

// Ledger is the slice of the write path the importer needs. LedgerService
// satisfies it.
type Ledger interface {
	CreateAccount(ctx context.Context, owner, name, currency string) (core.Account, error)
	CreateTransaction(ctx context.Context, owner string, kind core.TransactionKind, description string, tags []string, date core.Date) (core.Transaction, error)
	AddComponent(ctx context.Context, transactionID, accountID, rawAmount int64) (core.Component, error)
	Accounts() []core.Account
}

// Result counts what one import created.
type Result struct {
	Accounts     int `json:"accounts"`
	Transactions int `json:"transactions"`
	Components   int `json:"components"`
}

// FormatError reports a row that could not be parsed at all.
type FormatError struct {
	Line int
	Err  error
}

func (e *FormatError) Error() string { return fmt.Sprintf("import line %d: %v", e.Line, e.Err) }
func (e *FormatError) Unwrap() error { return e.Err }

// LogicalError reports a row that parsed but names something the ledger
// rejects, an unknown kind or an invalid currency.
type LogicalError struct {
	Line int
	Err  error
}

func (e *LogicalError) Error() string { return fmt.Sprintf("import line %d: %v", e.Line, e.Err) }
func (e *LogicalError) Unwrap() error { return e.Err }

// Importer parses CSV rows of the form
//
//	date,kind,description,tags,account,currency,amount
//	2024-01-05,expense,Groceries,food;home,Cash,EUR,-12.50
//
// and applies each row as one transaction with one component. Tags are
// semicolon separated. The header row is required.
type Importer struct {
	ledger Ledger
	logger *log.Logger
}

const columns = 7

func New(ledger Ledger, logger *log.Logger) *Importer {
	return &Importer{ledger: ledger, logger: logger.WithComponent("importer")}
}

// Import reads all rows for one owner. The first error stops the import;
// rows already applied stay applied, imports are not transactional across
// rows.
func (i *Importer) Import(ctx context.Context, owner string, r io.Reader) (Result, error) {
	var result Result

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = columns

	header, err := reader.Read()
	if err == io.EOF {
		return result, &FormatError{Line: 1, Err: fmt.Errorf("empty input")}
	}
	if err != nil {
		return result, &FormatError{Line: 1, Err: err}
	}
	if !strings.EqualFold(header[0], "date") {
		return result, &FormatError{Line: 1, Err: fmt.Errorf("missing header row")}
	}

	// Accounts created before or during this import, by name.
	known := make(map[string]core.Account)
	for _, account := range i.ledger.Accounts() {
		if account.Owner == owner {
			known[account.Name] = account
		}
	}

	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return result, &FormatError{Line: line, Err: err}
		}
		if err := i.applyRow(ctx, owner, row, line, known, &result); err != nil {
			return result, err
		}
	}

	i.logger.InfoContext(ctx, "Import finished",
		log.FieldOwner, owner,
		"accounts", result.Accounts,
		"transactions", result.Transactions,
		"components", result.Components)
	return result, nil
}

func (i *Importer) applyRow(ctx context.Context, owner string, row []string, line int, known map[string]core.Account, result *Result) error {
	date, err := core.ParseDate(strings.TrimSpace(row[0]))
	if err != nil {
		return &FormatError{Line: line, Err: err}
	}
	kind := core.TransactionKind(strings.ToLower(strings.TrimSpace(row[1])))
	if !kind.Valid() {
		return &LogicalError{Line: line, Err: fmt.Errorf("kind %q: %w", row[1], core.ErrInvalidKind)}
	}
	description := strings.TrimSpace(row[2])
	tags := splitTags(row[3])
	accountName := strings.TrimSpace(row[4])
	currency := strings.ToUpper(strings.TrimSpace(row[5]))
	if accountName == "" {
		return &FormatError{Line: line, Err: fmt.Errorf("empty account name")}
	}
	cents, err := core.ParseDecimalToCents(strings.TrimSpace(row[6]))
	if err != nil {
		return &FormatError{Line: line, Err: err}
	}

	account, ok := known[accountName]
	if !ok {
		account, err = i.ledger.CreateAccount(ctx, owner, accountName, currency)
		if err != nil {
			return &LogicalError{Line: line, Err: err}
		}
		known[accountName] = account
		result.Accounts++
	}

	transaction, err := i.ledger.CreateTransaction(ctx, owner, kind, description, tags, date)
	if err != nil {
		return &LogicalError{Line: line, Err: err}
	}
	result.Transactions++

	if _, err := i.ledger.AddComponent(ctx, transaction.ID, account.ID, cents); err != nil {
		return &LogicalError{Line: line, Err: err}
	}
	result.Components++
	return nil
}

func splitTags(field string) []string {
	parts := strings.Split(field, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
