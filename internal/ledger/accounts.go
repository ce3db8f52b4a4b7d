package ledger

import (
	"fmt"

	"soldi/internal/core"
)

// CreateAccount adds a new account with zero balance. IncludeInTotal and
// ShowInList default to true.
func (b *Book) CreateAccount(owner, name, currency string) (core.Account, error) {
	account := core.Account{
		Owner:          owner,
		Name:           name,
		Currency:       currency,
		IncludeInTotal: true,
		ShowInList:     true,
		Version:        1,
	}
	if err := account.Validate(); err != nil {
		return core.Account{}, fmt.Errorf("create account: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	account.ID = b.allocID()
	b.accounts[account.ID] = &account
	b.generation++
	return account, nil
}

// UpdateAccount applies an external edit to an account's settable fields.
// The caller supplies the version it last read; a mismatch fails with
// core.ErrConcurrentModification and changes nothing. Balance is not settable
// here, it is derived from components.
func (b *Book) UpdateAccount(id, expectedVersion int64, name, currency string, includeInTotal, showInList bool) (core.Account, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	account, ok := b.accounts[id]
	if !ok {
		return core.Account{}, fmt.Errorf("update account %d: %w", id, core.ErrNotFound)
	}
	if account.Version != expectedVersion {
		return core.Account{}, fmt.Errorf("update account %d: %w", id, core.ErrConcurrentModification)
	}

	updated := *account
	updated.Name = name
	updated.Currency = currency
	updated.IncludeInTotal = includeInTotal
	updated.ShowInList = showInList
	if err := updated.Validate(); err != nil {
		return core.Account{}, fmt.Errorf("update account %d: %w", id, err)
	}

	updated.Version++
	*account = updated
	b.generation++
	return updated, nil
}

// DeleteAccount removes an account. Every component referencing it, across
// all transactions, is removed and destroyed first, reversing its balance
// effect and recomputing the affected transactions' derived amounts. Copies
// of the affected transactions are returned so callers can mirror the
// cascade to durable storage.
func (b *Book) DeleteAccount(id int64) ([]core.Transaction, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.accounts[id]; !ok {
		return nil, fmt.Errorf("delete account %d: %w", id, core.ErrNotFound)
	}

	affectedTx := make(map[int64]struct{})
	for componentID, c := range b.components {
		if c.AccountID != id {
			continue
		}
		delete(b.components, componentID)
		affectedTx[c.TransactionID] = struct{}{}
	}

	affected := make([]core.Transaction, 0, len(affectedTx))
	for transactionID := range affectedTx {
		t, ok := b.transactions[transactionID]
		if !ok {
			continue
		}
		b.recomputeAmountLocked(t)
		t.Version++
		affected = append(affected, copyTransaction(t))
	}

	delete(b.accounts, id)
	b.generation++
	return affected, nil
}

// RefreshAccountBalance recomputes the balance from scratch by summing every
// component that references the account. It self-heals after external data
// corruption; the version is only bumped when the stored balance was wrong.
func (b *Book) RefreshAccountBalance(id int64) (core.Account, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	account, ok := b.accounts[id]
	if !ok {
		return core.Account{}, fmt.Errorf("refresh account %d: %w", id, core.ErrNotFound)
	}

	balance := b.balanceOfLocked(id)
	if balance != account.Balance {
		account.Balance = balance
		account.Version++
		b.generation++
	}
	return *account, nil
}
