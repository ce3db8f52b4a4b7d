package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"soldi/internal/core"
	"soldi/internal/rates"
)

// storeUnderTest runs the same contract against both implementations.
func storeUnderTest(t *testing.T) map[string]Store {
	t.Helper()

	sqlite, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "soldi.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": sqlite,
	}
}

func TestStoreRoundTrip(t *testing.T) {
	for name, store := range storeUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			account := core.Account{
				ID: 1, Owner: "alice", Name: "Cash", Currency: "EUR",
				IncludeInTotal: true, ShowInList: true, Balance: -1500, Version: 2,
			}
			if err := store.SaveAccount(ctx, account); err != nil {
				t.Fatalf("SaveAccount: %v", err)
			}

			record := TransactionRecord{
				Transaction: core.Transaction{
					ID: 2, Owner: "alice", Kind: core.KindExpense,
					Description: "lunch", Tags: []string{"food", "work"},
					Date: core.MustParseDate("2024-02-17"), Amount: -1500, Version: 3,
				},
				Components: []core.Component{
					{ID: 3, TransactionID: 2, AccountID: 1, RawAmount: -1500, Version: 1},
				},
			}
			if err := store.SaveTransaction(ctx, record, []core.Account{account}); err != nil {
				t.Fatalf("SaveTransaction: %v", err)
			}

			rate := rates.Rate{From: "RUB", To: "USD", Rate: decimal.RequireFromString("0.013")}
			if err := store.SaveRate(ctx, rate); err != nil {
				t.Fatalf("SaveRate: %v", err)
			}

			snapshot, err := store.Load(ctx)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}

			if len(snapshot.Accounts) != 1 || snapshot.Accounts[0] != account {
				t.Errorf("accounts = %+v, want [%+v]", snapshot.Accounts, account)
			}
			if len(snapshot.Transactions) != 1 {
				t.Fatalf("transactions = %d, want 1", len(snapshot.Transactions))
			}
			got := snapshot.Transactions[0]
			if got.Transaction.Description != "lunch" || got.Transaction.Amount != -1500 {
				t.Errorf("transaction = %+v", got.Transaction)
			}
			if !got.Transaction.Date.Equal(core.MustParseDate("2024-02-17")) {
				t.Errorf("date = %s, want 2024-02-17", got.Transaction.Date)
			}
			if len(got.Transaction.Tags) != 2 || got.Transaction.Tags[0] != "food" {
				t.Errorf("tags = %v", got.Transaction.Tags)
			}
			if len(got.Components) != 1 || got.Components[0].RawAmount != -1500 {
				t.Errorf("components = %+v", got.Components)
			}
			if len(snapshot.Rates) != 1 || !snapshot.Rates[0].Rate.Equal(rate.Rate) {
				t.Errorf("rates = %+v", snapshot.Rates)
			}
		})
	}
}

func TestStoreReplaceComponents(t *testing.T) {
	for name, store := range storeUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			record := TransactionRecord{
				Transaction: core.Transaction{
					ID: 1, Owner: "alice", Kind: core.KindTransfer,
					Date: core.MustParseDate("2024-03-01"), Amount: 1000, Version: 1,
				},
				Components: []core.Component{
					{ID: 2, TransactionID: 1, RawAmount: -1000, Version: 1},
					{ID: 3, TransactionID: 1, RawAmount: 1000, Version: 1},
				},
			}
			if err := store.SaveTransaction(ctx, record, nil); err != nil {
				t.Fatalf("SaveTransaction: %v", err)
			}

			// One leg removed: the persisted set must shrink, not merge.
			record.Components = record.Components[1:]
			record.Transaction.Version = 2
			if err := store.SaveTransaction(ctx, record, nil); err != nil {
				t.Fatalf("second SaveTransaction: %v", err)
			}

			snapshot, err := store.Load(ctx)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if len(snapshot.Transactions) != 1 {
				t.Fatalf("transactions = %d, want 1", len(snapshot.Transactions))
			}
			if got := snapshot.Transactions[0]; len(got.Components) != 1 || got.Components[0].ID != 3 {
				t.Errorf("components after replace = %+v, want only id 3", got.Components)
			}
		})
	}
}

func TestStoreDeleteCascades(t *testing.T) {
	for name, store := range storeUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			account := core.Account{ID: 1, Owner: "alice", Name: "Cash", Currency: "EUR", Version: 1}
			if err := store.SaveAccount(ctx, account); err != nil {
				t.Fatal(err)
			}
			record := TransactionRecord{
				Transaction: core.Transaction{ID: 2, Owner: "alice", Kind: core.KindExpense,
					Date: core.MustParseDate("2024-03-02"), Amount: -300, Version: 1},
				Components: []core.Component{{ID: 3, TransactionID: 2, AccountID: 1, RawAmount: -300, Version: 1}},
			}
			if err := store.SaveTransaction(ctx, record, []core.Account{account}); err != nil {
				t.Fatal(err)
			}

			// Account cascade: transaction survives with an emptied component set.
			record.Transaction.Amount = 0
			record.Transaction.Version = 2
			record.Components = nil
			if err := store.DeleteAccount(ctx, 1, []TransactionRecord{record}); err != nil {
				t.Fatalf("DeleteAccount: %v", err)
			}

			snapshot, err := store.Load(ctx)
			if err != nil {
				t.Fatal(err)
			}
			if len(snapshot.Accounts) != 0 {
				t.Errorf("accounts = %+v, want none", snapshot.Accounts)
			}
			if len(snapshot.Transactions) != 1 || len(snapshot.Transactions[0].Components) != 0 {
				t.Errorf("transactions = %+v, want one with no components", snapshot.Transactions)
			}

			if err := store.DeleteTransaction(ctx, 2, nil); err != nil {
				t.Fatalf("DeleteTransaction: %v", err)
			}
			snapshot, err = store.Load(ctx)
			if err != nil {
				t.Fatal(err)
			}
			if len(snapshot.Transactions) != 0 {
				t.Errorf("transactions = %+v, want none", snapshot.Transactions)
			}
		})
	}
}
