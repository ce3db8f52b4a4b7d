// Package report implements the read-only filtering, sorting and
// aggregation queries over a ledger Book, converting amounts across
// currencies through the exchange-rate table.
package report

import (
	"errors"
	"log/slog"
	"slices"
	"sort"
	"strings"

	"soldi/internal/core"
	"soldi/internal/ledger"
	"soldi/internal/rates"
)

// SortKey selects the primary ordering of a transaction query. Entity
// handles break ties so the order is stable.
type SortKey string

const (
	SortByDate        SortKey = "date"
	SortByDescription SortKey = "description"
	SortByAmount      SortKey = "amount"
)

// Engine answers report queries. It never mutates the Book and may run
// concurrently with other readers.
type Engine struct {
	book   *ledger.Book
	rates  *rates.Table
	refCur string
	logger *slog.Logger
}

// New creates an engine reporting in the given reference currency.
func New(book *ledger.Book, table *rates.Table, referenceCurrency string) *Engine {
	return &Engine{
		book:   book,
		rates:  table,
		refCur: strings.ToUpper(referenceCurrency),
		logger: slog.Default(),
	}
}

// ReferenceCurrency returns the currency every aggregate is converted into.
func (e *Engine) ReferenceCurrency() string { return e.refCur }

// matching returns the transactions selected by the criteria in handle order.
func (e *Engine) matching(c Criteria) []core.Transaction {
	var out []core.Transaction
	for _, t := range e.book.Transactions() {
		if !t.Date.Between(c.Earliest, c.Latest) {
			continue
		}
		if !c.kindMatch(t) {
			continue
		}
		if !c.tagsMatch(t) {
			continue
		}
		if !e.accountMatch(c, t.ID) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// accountMatch reports whether the transaction has at least one component on
// a selected account. With no accounts selected every transaction passes,
// even one with no components at all.
func (e *Engine) accountMatch(c Criteria, transactionID int64) bool {
	if len(c.Accounts) == 0 {
		return true
	}
	for _, component := range e.book.ComponentsOf(transactionID) {
		if _, ok := c.Accounts[component.AccountID]; ok {
			return true
		}
	}
	return false
}

// Transactions returns the filtered transactions ordered by the sort key,
// ascending or descending, with the entity handle as a stable tie-break.
// With useAbsolute the amount key compares magnitudes instead of signed
// values.
func (e *Engine) Transactions(c Criteria, key SortKey, ascending, useAbsolute bool) []core.Transaction {
	out := e.matching(c)

	less := func(a, b core.Transaction) bool {
		switch key {
		case SortByDescription:
			if a.Description != b.Description {
				return a.Description < b.Description
			}
		case SortByAmount:
			x, y := a.Amount, b.Amount
			if useAbsolute {
				x, y = abs64(x), abs64(y)
			}
			if x != y {
				return x < y
			}
		default: // SortByDate
			if !a.Date.Equal(b.Date) {
				return a.Date.Before(b.Date)
			}
		}
		return a.ID < b.ID
	}

	sort.SliceStable(out, func(i, j int) bool {
		if ascending {
			return less(out[i], out[j])
		}
		return less(out[j], out[i])
	})
	return out
}

// AllTags returns every distinct tag across the book's transactions, sorted.
// A transaction created with no tags contributes the empty-string
// placeholder, kept for compatibility with existing consumers.
func (e *Engine) AllTags() []string {
	seen := make(map[string]struct{})
	for _, t := range e.book.Transactions() {
		for _, tag := range t.EffectiveTags() {
			seen[tag] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for tag := range seen {
		out = append(out, tag)
	}
	slices.Sort(out)
	return out
}

// AccountBalanceAsOf sums the raw amounts of the account's components in
// transactions dated strictly before the given day.
func (e *Engine) AccountBalanceAsOf(accountID int64, date core.Date) (int64, error) {
	if _, ok := e.book.Account(accountID); !ok {
		return 0, core.ErrNotFound
	}
	var sum int64
	for _, component := range e.book.ComponentsOfAccount(accountID) {
		t, ok := e.book.Transaction(component.TransactionID)
		if !ok {
			continue
		}
		if t.Date.Before(date) {
			sum += component.RawAmount
		}
	}
	return sum, nil
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// convertBuckets re-sums per-currency running totals into the reference
// currency. Conversion happens once per currency bucket, not per component,
// so rounding error does not compound. An unconvertible currency is excluded
// from the total and logged once per call site generation.
func (e *Engine) convertBuckets(buckets map[string]int64) int64 {
	var total int64
	for currency, cents := range buckets {
		converted, err := e.rates.Convert(cents, currency, e.refCur)
		if err != nil {
			if errors.Is(err, core.ErrUndefinedConversion) {
				e.logger.Warn("excluding unconvertible currency from aggregate",
					"currency", currency, "reference_currency", e.refCur)
				continue
			}
			continue
		}
		total += converted
	}
	return total
}
