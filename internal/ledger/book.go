// Package ledger implements the consistency engine that keeps account
// balances, multi-component transactions and derived transaction amounts
// mutually consistent under arbitrary edits.
//
// The Book is an in-memory arena of entities keyed by int64 handles. Every
// public operation validates its inputs before touching any state, so a
// failed operation never leaves a partial mutation behind. Within a mutation
// the component is finalized first, account balances second and the owning
// transaction's derived amount last.
package ledger

import (
	"slices"
	"sync"

	"soldi/internal/core"
)

// Book holds the full entity graph of one ledger. It is safe for concurrent
// use: mutations take the exclusive lock, reads the shared one. There is no
// internal retry; conflicting external edits are detected through the
// per-entity version tokens.
type Book struct {
	mu           sync.RWMutex
	accounts     map[int64]*core.Account
	transactions map[int64]*core.Transaction
	components   map[int64]*core.Component
	nextID       int64
	generation   uint64
}

// NewBook returns an empty Book.
func NewBook() *Book {
	return &Book{
		accounts:     make(map[int64]*core.Account),
		transactions: make(map[int64]*core.Transaction),
		components:   make(map[int64]*core.Component),
		nextID:       1,
	}
}

// Seed loads a persisted entity graph into an empty Book. Entities are taken
// as-is; RefreshAccountBalance and Cleanup exist to self-heal data that was
// corrupted outside the ledger.
func (b *Book) Seed(accounts []core.Account, transactions []core.Transaction, components []core.Component) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, a := range accounts {
		a := a
		b.accounts[a.ID] = &a
		b.reserveID(a.ID)
	}
	for _, t := range transactions {
		t := t
		t.Tags = slices.Clone(t.Tags)
		b.transactions[t.ID] = &t
		b.reserveID(t.ID)
	}
	for _, c := range components {
		c := c
		b.components[c.ID] = &c
		b.reserveID(c.ID)
	}
	b.generation++
}

func (b *Book) reserveID(id int64) {
	if id >= b.nextID {
		b.nextID = id + 1
	}
}

func (b *Book) allocID() int64 {
	id := b.nextID
	b.nextID++
	return id
}

// Generation returns a counter that increases on every successful mutation.
// Read-side caches use it to detect staleness cheaply.
func (b *Book) Generation() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.generation
}

// Account returns a copy of the account with the given handle.
func (b *Book) Account(id int64) (core.Account, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	a, ok := b.accounts[id]
	if !ok {
		return core.Account{}, false
	}
	return *a, true
}

// Accounts returns copies of all accounts ordered by handle.
func (b *Book) Accounts() []core.Account {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]core.Account, 0, len(b.accounts))
	for _, a := range b.accounts {
		out = append(out, *a)
	}
	slices.SortFunc(out, func(x, y core.Account) int { return int(x.ID - y.ID) })
	return out
}

// Transaction returns a copy of the transaction with the given handle.
func (b *Book) Transaction(id int64) (core.Transaction, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	t, ok := b.transactions[id]
	if !ok {
		return core.Transaction{}, false
	}
	return copyTransaction(t), true
}

// Transactions returns copies of all transactions ordered by handle.
func (b *Book) Transactions() []core.Transaction {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]core.Transaction, 0, len(b.transactions))
	for _, t := range b.transactions {
		out = append(out, copyTransaction(t))
	}
	slices.SortFunc(out, func(x, y core.Transaction) int { return int(x.ID - y.ID) })
	return out
}

// Component returns a copy of the component with the given handle.
func (b *Book) Component(id int64) (core.Component, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	c, ok := b.components[id]
	if !ok {
		return core.Component{}, false
	}
	return *c, true
}

// ComponentsOf returns copies of the components of one transaction, ordered
// by handle.
func (b *Book) ComponentsOf(transactionID int64) []core.Component {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.componentsOfLocked(transactionID)
}

// ComponentsOfAccount returns copies of every component currently linked to
// the account, ordered by handle.
func (b *Book) ComponentsOfAccount(accountID int64) []core.Component {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]core.Component, 0)
	for _, c := range b.components {
		if c.AccountID == accountID {
			out = append(out, *c)
		}
	}
	slices.SortFunc(out, func(x, y core.Component) int { return int(x.ID - y.ID) })
	return out
}

// Components returns copies of every component in the book, ordered by handle.
func (b *Book) Components() []core.Component {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]core.Component, 0, len(b.components))
	for _, c := range b.components {
		out = append(out, *c)
	}
	slices.SortFunc(out, func(x, y core.Component) int { return int(x.ID - y.ID) })
	return out
}

func (b *Book) componentsOfLocked(transactionID int64) []core.Component {
	out := make([]core.Component, 0)
	for _, c := range b.components {
		if c.TransactionID == transactionID {
			out = append(out, *c)
		}
	}
	slices.SortFunc(out, func(x, y core.Component) int { return int(x.ID - y.ID) })
	return out
}

func copyTransaction(t *core.Transaction) core.Transaction {
	out := *t
	out.Tags = slices.Clone(t.Tags)
	return out
}
