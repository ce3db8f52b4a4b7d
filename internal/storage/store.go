// Package storage persists the ledger entity graph. The Book stays the
// in-memory source of truth; a Store mirrors each committed mutation into
// durable storage inside a single storage transaction, giving the atomic
// unit the ledger's contract requires from its persistence layer.
package storage

import (
	"context"

	"soldi/internal/core"
	"soldi/internal/rates"
)

// TransactionRecord couples a transaction with its current component set.
// Components are never persisted apart from their owning transaction.
type TransactionRecord struct {
	Transaction core.Transaction
	Components  []core.Component
}

// Snapshot is the full persisted state loaded at startup.
type Snapshot struct {
	Accounts     []core.Account
	Transactions []TransactionRecord
	Rates        []rates.Rate
}

// Store mirrors ledger mutations. Every method is atomic: either the whole
// change is durable or none of it is.
type Store interface {
	// Load reads the complete persisted graph.
	Load(ctx context.Context) (*Snapshot, error)

	// SaveAccount inserts or updates one account row.
	SaveAccount(ctx context.Context, account core.Account) error

	// DeleteAccount removes the account and persists the cascade: the
	// affected records carry the transactions whose components were removed
	// with the account.
	DeleteAccount(ctx context.Context, id int64, affected []TransactionRecord) error

	// SaveTransaction upserts a transaction with its full component set and
	// the accounts whose balances the mutation touched.
	SaveTransaction(ctx context.Context, record TransactionRecord, touched []core.Account) error

	// DeleteTransaction removes the transaction, its components, and
	// persists the touched accounts' reversed balances.
	DeleteTransaction(ctx context.Context, id int64, touched []core.Account) error

	// SaveRate upserts one directed exchange-rate pair.
	SaveRate(ctx context.Context, rate rates.Rate) error

	// DeleteRate removes one directed pair.
	DeleteRate(ctx context.Context, from, to string) error

	Close() error
}
