package ledger

import (
	"fmt"

	"soldi/internal/core"
)

// CreateTransaction adds a new transaction with no components and a derived
// amount of zero. Tags are trimmed, de-duplicated and sorted.
func (b *Book) CreateTransaction(owner string, kind core.TransactionKind, description string, tags []string, date core.Date) (core.Transaction, error) {
	transaction := core.Transaction{
		Owner:       owner,
		Kind:        kind,
		Description: description,
		Tags:        core.NormalizeTags(tags),
		Date:        date,
		Version:     1,
	}
	if err := transaction.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	transaction.ID = b.allocID()
	stored := copyTransaction(&transaction)
	b.transactions[transaction.ID] = &stored
	b.generation++
	return transaction, nil
}

// UpdateTransaction applies an external edit to description, tags and date.
// The caller supplies the version it last read; a mismatch fails with
// core.ErrConcurrentModification and changes nothing. Kind and amount are
// not settable: the kind is fixed at creation and the amount is derived.
func (b *Book) UpdateTransaction(id, expectedVersion int64, description string, tags []string, date core.Date) (core.Transaction, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	transaction, ok := b.transactions[id]
	if !ok {
		return core.Transaction{}, fmt.Errorf("update transaction %d: %w", id, core.ErrNotFound)
	}
	if transaction.Version != expectedVersion {
		return core.Transaction{}, fmt.Errorf("update transaction %d: %w", id, core.ErrConcurrentModification)
	}

	updated := copyTransaction(transaction)
	updated.Description = description
	updated.Tags = core.NormalizeTags(tags)
	updated.Date = date
	if err := updated.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction %d: %w", id, err)
	}

	updated.Version++
	*transaction = updated
	b.generation++
	return copyTransaction(transaction), nil
}

// DeleteTransaction removes a transaction and destroys all of its
// components, reversing any account balance effects. Copies of the touched
// accounts are returned for storage mirroring.
func (b *Book) DeleteTransaction(id int64) ([]core.Account, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.transactions[id]; !ok {
		return nil, fmt.Errorf("delete transaction %d: %w", id, core.ErrNotFound)
	}

	touched := make(map[int64]struct{})
	for componentID, c := range b.components {
		if c.TransactionID != id {
			continue
		}
		delete(b.components, componentID)
		if account, ok := b.accounts[c.AccountID]; ok {
			account.Balance -= c.RawAmount
			touched[account.ID] = struct{}{}
		}
	}
	for accountID := range touched {
		b.accounts[accountID].Version++
	}

	delete(b.transactions, id)
	b.generation++

	accounts := make([]core.Account, 0, len(touched))
	for accountID := range touched {
		accounts = append(accounts, *b.accounts[accountID])
	}
	return accounts, nil
}

// IsAmountOk reports whether a transaction's component amounts are valid for
// its kind. A transfer is OK when its signed component sum is zero, or when
// its components span more than one currency: cross-currency transfers are
// allowed to be unbalanced because no conversion is applied at entry time.
// An expense/income transaction is always OK. An unknown handle or an
// undefined kind is never OK.
func (b *Book) IsAmountOk(id int64) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	transaction, ok := b.transactions[id]
	if !ok {
		return false
	}
	switch transaction.Kind {
	case core.KindExpense:
		return true
	case core.KindTransfer:
		var sum int64
		currencies := make(map[string]struct{})
		for _, c := range b.components {
			if c.TransactionID != id {
				continue
			}
			sum += c.RawAmount
			if account, ok := b.accounts[c.AccountID]; ok {
				currencies[account.Currency] = struct{}{}
			}
		}
		return sum == 0 || len(currencies) > 1
	default:
		return false
	}
}
