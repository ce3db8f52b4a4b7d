package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"

	"soldi/internal/core"
	"soldi/internal/log"
	"soldi/internal/storage"
)

func testLogger() *log.Logger {
	return log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
}

func newService(t *testing.T, store storage.Store) *LedgerService {
	t.Helper()
	svc := NewLedgerService(store, nil, testLogger())
	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return svc
}

// reload simulates a restart against the same store.
func reload(t *testing.T, store storage.Store) *LedgerService {
	t.Helper()
	return newService(t, store)
}

func TestServiceMirrorsMutations(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	svc := newService(t, store)

	account, err := svc.CreateAccount(ctx, "alice", "Cash", "EUR")
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	transaction, err := svc.CreateTransaction(ctx, "alice", core.KindExpense, "lunch", []string{"food"}, core.MustParseDate("2024-02-17"))
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	if _, err := svc.AddComponent(ctx, transaction.ID, account.ID, -1500); err != nil {
		t.Fatalf("AddComponent: %v", err)
	}
	if err := svc.SetRate(ctx, "EUR", "USD", decimal.RequireFromString("1.08")); err != nil {
		t.Fatalf("SetRate: %v", err)
	}

	restarted := reload(t, store)

	got, ok := restarted.Book().Account(account.ID)
	if !ok {
		t.Fatal("account missing after reload")
	}
	if got.Balance != -1500 {
		t.Errorf("balance after reload = %d, want -1500", got.Balance)
	}
	// AddComponent bumped both versions past their initial 1.
	if got.Version != 2 {
		t.Errorf("account version after reload = %d, want 2", got.Version)
	}

	gotTx, ok := restarted.Book().Transaction(transaction.ID)
	if !ok {
		t.Fatal("transaction missing after reload")
	}
	if gotTx.Amount != -1500 || gotTx.Version != 2 {
		t.Errorf("transaction after reload = %+v", gotTx)
	}
	if components := restarted.Book().ComponentsOf(transaction.ID); len(components) != 1 {
		t.Errorf("components after reload = %+v", components)
	}

	rate, err := restarted.Rates().GetRate("EUR", "USD")
	if err != nil {
		t.Fatalf("GetRate after reload: %v", err)
	}
	if !rate.Equal(decimal.RequireFromString("1.08")) {
		t.Errorf("rate after reload = %s, want 1.08", rate)
	}
}

func TestServiceDeleteCascadesPersist(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	svc := newService(t, store)

	cash, _ := svc.CreateAccount(ctx, "alice", "Cash", "EUR")
	bank, _ := svc.CreateAccount(ctx, "alice", "Bank", "EUR")
	transaction, _ := svc.CreateTransaction(ctx, "alice", core.KindTransfer, "move", nil, core.MustParseDate("2024-03-01"))
	if _, err := svc.AddComponent(ctx, transaction.ID, cash.ID, -5000); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.AddComponent(ctx, transaction.ID, bank.ID, 5000); err != nil {
		t.Fatal(err)
	}

	// Deleting the cash account must leave the transfer with one leg and a
	// recomputed amount, durably.
	if err := svc.DeleteAccount(ctx, cash.ID); err != nil {
		t.Fatalf("DeleteAccount: %v", err)
	}

	restarted := reload(t, store)
	if _, ok := restarted.Book().Account(cash.ID); ok {
		t.Error("deleted account present after reload")
	}
	gotTx, ok := restarted.Book().Transaction(transaction.ID)
	if !ok {
		t.Fatal("transaction missing after reload")
	}
	if gotTx.Amount != 5000 {
		t.Errorf("amount after cascade reload = %d, want 5000", gotTx.Amount)
	}
	if components := restarted.Book().ComponentsOf(transaction.ID); len(components) != 1 {
		t.Errorf("components after cascade reload = %+v", components)
	}

	// Deleting the transaction reverses the remaining leg on Bank.
	if err := svc.DeleteTransaction(ctx, transaction.ID); err != nil {
		t.Fatalf("DeleteTransaction: %v", err)
	}
	restarted = reload(t, store)
	gotBank, ok := restarted.Book().Account(bank.ID)
	if !ok {
		t.Fatal("bank account missing after reload")
	}
	if gotBank.Balance != 0 {
		t.Errorf("bank balance after reload = %d, want 0", gotBank.Balance)
	}
}

func TestServiceComponentEditsPersist(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	svc := newService(t, store)

	cash, _ := svc.CreateAccount(ctx, "alice", "Cash", "EUR")
	bank, _ := svc.CreateAccount(ctx, "alice", "Bank", "EUR")
	transaction, _ := svc.CreateTransaction(ctx, "alice", core.KindExpense, "groceries", nil, core.MustParseDate("2024-03-02"))
	component, err := svc.AddComponent(ctx, transaction.ID, cash.ID, -1000)
	if err != nil {
		t.Fatal(err)
	}

	if _, changed, err := svc.UpdateComponentAmount(ctx, component.ID, -2500); err != nil || !changed {
		t.Fatalf("UpdateComponentAmount: changed=%v err=%v", changed, err)
	}
	if _, changed, err := svc.UpdateComponentAccount(ctx, component.ID, bank.ID); err != nil || !changed {
		t.Fatalf("UpdateComponentAccount: changed=%v err=%v", changed, err)
	}

	restarted := reload(t, store)
	gotCash, _ := restarted.Book().Account(cash.ID)
	gotBank, _ := restarted.Book().Account(bank.ID)
	if gotCash.Balance != 0 || gotBank.Balance != -2500 {
		t.Errorf("balances after reload = %d/%d, want 0/-2500", gotCash.Balance, gotBank.Balance)
	}

	if removed, changed, err := svc.RemoveComponent(ctx, component.ID); err != nil || !changed || removed.ID != component.ID {
		t.Fatalf("RemoveComponent: changed=%v err=%v", changed, err)
	}
	// Second removal is idempotent and must not write anything.
	if _, changed, err := svc.RemoveComponent(ctx, component.ID); err != nil || changed {
		t.Fatalf("second RemoveComponent: changed=%v err=%v", changed, err)
	}

	restarted = reload(t, store)
	if components := restarted.Book().ComponentsOf(transaction.ID); len(components) != 0 {
		t.Errorf("components after remove reload = %+v", components)
	}
}

func TestServiceStaleVersionDoesNotPersist(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	svc := newService(t, store)

	account, _ := svc.CreateAccount(ctx, "alice", "Cash", "EUR")

	_, err := svc.UpdateAccount(ctx, account.ID, account.Version+7, "Wallet", "EUR", true, true)
	if !errors.Is(err, core.ErrConcurrentModification) {
		t.Fatalf("err = %v, want ErrConcurrentModification", err)
	}

	restarted := reload(t, store)
	got, _ := restarted.Book().Account(account.ID)
	if got.Name != "Cash" || got.Version != account.Version {
		t.Errorf("account after failed update = %+v, want unchanged", got)
	}
}

func TestServiceEnqueueImportWithoutBroker(t *testing.T) {
	svc := newService(t, storage.NewMemoryStore())

	err := svc.EnqueueImport(context.Background(), nil)
	if err == nil {
		t.Fatal("EnqueueImport without broker should fail")
	}
}

func TestServiceDeleteRatePersists(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	svc := newService(t, store)

	if err := svc.SetRate(ctx, "RUB", "USD", decimal.RequireFromString("0.013")); err != nil {
		t.Fatal(err)
	}
	if err := svc.DeleteRate(ctx, "RUB", "USD"); err != nil {
		t.Fatal(err)
	}

	restarted := reload(t, store)
	if _, err := restarted.Rates().GetRate("RUB", "USD"); !errors.Is(err, core.ErrUndefinedConversion) {
		t.Errorf("rate should be gone after reload, got err = %v", err)
	}
}
