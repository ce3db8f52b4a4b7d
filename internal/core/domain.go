package core

import (
	"slices"
	"strings"
)

// TransactionKind distinguishes the two transaction variants. An Expense also
// represents income; the sign of its derived amount decides which.
type TransactionKind string

const (
	KindUndefined TransactionKind = ""
	KindExpense   TransactionKind = "expense"
	KindTransfer  TransactionKind = "transfer"
)

// Valid reports whether the kind is one of the two defined variants.
func (k TransactionKind) Valid() bool {
	return k == KindExpense || k == KindTransfer
}

// Account is a single financial account. Balance is derived: it always equals
// the sum of raw amounts of the components currently linked to the account
// and is only ever written by the ledger mutation operations.
type Account struct {
	ID             int64  `json:"id"`
	Owner          string `json:"owner"`
	Name           string `json:"name"`
	Currency       string `json:"currency"`
	IncludeInTotal bool   `json:"includeInTotal"`
	ShowInList     bool   `json:"showInList"`
	Balance        int64  `json:"balance"`
	Version        int64  `json:"version"`
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Owner) == "" {
		return ErrEmptyOwner
	}
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	if len(a.Currency) != 3 {
		return ErrInvalidCurrency
	}
	return nil
}

// Transaction is an expense/income or transfer with a set of components.
// Amount is derived from the components per the kind's rule and never stored
// independently of them.
type Transaction struct {
	ID          int64           `json:"id"`
	Owner       string          `json:"owner"`
	Kind        TransactionKind `json:"kind"`
	Description string          `json:"description"`
	Tags        []string        `json:"tags"`
	Date        Date            `json:"date"`
	Amount      int64           `json:"amount"`
	Version     int64           `json:"version"`
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.Owner) == "" {
		return ErrEmptyOwner
	}
	if !t.Kind.Valid() {
		return ErrInvalidKind
	}
	return t.Date.Validate()
}

// HasTag reports whether the transaction carries the given tag. A transaction
// created with zero tags carries the empty-string placeholder tag.
func (t Transaction) HasTag(tag string) bool {
	if len(t.Tags) == 0 {
		return tag == ""
	}
	return slices.Contains(t.Tags, tag)
}

// EffectiveTags returns the transaction's tags, substituting the empty-string
// placeholder for a transaction created with no tags.
func (t Transaction) EffectiveTags() []string {
	if len(t.Tags) == 0 {
		return []string{""}
	}
	return t.Tags
}

// NormalizeTags trims, de-duplicates and sorts a tag list. The result is nil
// for an empty input so that "no tags" has a single canonical form.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	if len(out) == 0 {
		return nil
	}
	slices.Sort(out)
	return out
}

// Component is one (account, signed amount) leg of a transaction. It belongs
// to exactly one transaction for its entire lifetime and to at most one
// account; AccountID zero means unassigned. RawAmount is the only place a
// money amount is stored.
type Component struct {
	ID            int64 `json:"id"`
	TransactionID int64 `json:"transactionId"`
	AccountID     int64 `json:"accountId"`
	RawAmount     int64 `json:"rawAmount"`
	Version       int64 `json:"version"`
}
