package ledger

import (
	"fmt"

	"soldi/internal/core"
)

// AddComponent attaches a new component to a transaction. accountID zero
// leaves the component unassigned. A linked account's balance grows by the
// raw amount and the transaction's derived amount is recomputed last.
func (b *Book) AddComponent(transactionID, accountID, rawAmount int64) (core.Component, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	transaction, ok := b.transactions[transactionID]
	if !ok {
		return core.Component{}, fmt.Errorf("add component: transaction %d: %w", transactionID, core.ErrNotFound)
	}
	var account *core.Account
	if accountID != 0 {
		account, ok = b.accounts[accountID]
		if !ok {
			return core.Component{}, fmt.Errorf("add component: account %d: %w", accountID, core.ErrNotFound)
		}
	}

	component := core.Component{
		ID:            b.allocID(),
		TransactionID: transactionID,
		AccountID:     accountID,
		RawAmount:     rawAmount,
		Version:       1,
	}
	b.components[component.ID] = &component

	if account != nil {
		account.Balance += rawAmount
		account.Version++
	}
	b.recomputeAmountLocked(transaction)
	transaction.Version++
	b.generation++
	return component, nil
}

// RemoveComponent detaches a component from its transaction and account and
// destroys it, reversing the account balance effect. Removing a component
// that is no longer attached is a no-op, so callers can retry safely; the
// second return value reports whether anything changed.
func (b *Book) RemoveComponent(componentID int64) (core.Component, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	component, ok := b.components[componentID]
	if !ok {
		return core.Component{}, false
	}
	removed := *component
	delete(b.components, componentID)

	if account, ok := b.accounts[component.AccountID]; ok {
		account.Balance -= component.RawAmount
		account.Version++
	}
	if transaction, ok := b.transactions[component.TransactionID]; ok {
		b.recomputeAmountLocked(transaction)
		transaction.Version++
	}
	b.generation++
	return removed, true
}

// UpdateComponentAmount sets a new raw amount, applying the delta to the
// linked account's balance and recomputing the transaction's derived amount.
// A stale handle (component already detached by a concurrent edit) is a
// silent no-op: the second return value is false and no state changes.
func (b *Book) UpdateComponentAmount(componentID, newRawAmount int64) (core.Component, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	component, ok := b.components[componentID]
	if !ok {
		return core.Component{}, false
	}
	if _, ok := b.transactions[component.TransactionID]; !ok {
		// Orphaned component, left for Cleanup. Do not touch it here.
		return core.Component{}, false
	}

	delta := newRawAmount - component.RawAmount
	component.RawAmount = newRawAmount
	component.Version++

	if account, ok := b.accounts[component.AccountID]; ok {
		account.Balance += delta
		account.Version++
	}
	transaction := b.transactions[component.TransactionID]
	b.recomputeAmountLocked(transaction)
	transaction.Version++
	b.generation++
	return *component, true
}

// UpdateComponentAccount reassigns a component to a different account, or to
// none (newAccountID zero). The old account's balance loses the raw amount,
// the new one gains it. A stale component handle is a silent no-op; an
// unknown target account is an error and changes nothing.
func (b *Book) UpdateComponentAccount(componentID, newAccountID int64) (core.Component, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	component, ok := b.components[componentID]
	if !ok {
		return core.Component{}, false, nil
	}
	var newAccount *core.Account
	if newAccountID != 0 {
		newAccount, ok = b.accounts[newAccountID]
		if !ok {
			return core.Component{}, false, fmt.Errorf("reassign component %d: account %d: %w", componentID, newAccountID, core.ErrNotFound)
		}
	}
	if component.AccountID == newAccountID {
		return *component, false, nil
	}

	if old, ok := b.accounts[component.AccountID]; ok {
		old.Balance -= component.RawAmount
		old.Version++
	}
	component.AccountID = newAccountID
	component.Version++
	if newAccount != nil {
		newAccount.Balance += component.RawAmount
		newAccount.Version++
	}
	b.generation++
	return *component, true, nil
}
