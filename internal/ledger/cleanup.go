package ledger

// CleanupReport counts what a Cleanup pass removed.
type CleanupReport struct {
	Components   int
	Transactions int
	Accounts     int
}

// Changed reports whether the pass removed anything.
func (r CleanupReport) Changed() bool {
	return r.Components > 0 || r.Transactions > 0 || r.Accounts > 0
}

// Cleanup is a garbage-collection pass over a graph that is otherwise
// maintained incrementally. It removes components whose transaction no
// longer exists (reversing residual balance effects), detaches components
// from accounts that no longer exist, and removes ownerless transactions
// and accounts. Orphans only appear after seeding externally corrupted
// data; a healthy Book is unchanged.
func (b *Book) Cleanup() CleanupReport {
	b.mu.Lock()
	defer b.mu.Unlock()

	var report CleanupReport

	// Ownerless roots first, through the same cascade rules as explicit
	// deletes so no balance reversal is ever skipped.
	for id, account := range b.accounts {
		if account.Owner == "" {
			b.dropAccountLocked(id)
			report.Accounts++
		}
	}
	for id, transaction := range b.transactions {
		if transaction.Owner == "" {
			b.dropTransactionLocked(id)
			report.Transactions++
		}
	}

	for id, c := range b.components {
		if _, ok := b.transactions[c.TransactionID]; !ok {
			delete(b.components, id)
			if account, ok := b.accounts[c.AccountID]; ok {
				account.Balance -= c.RawAmount
				account.Version++
			}
			report.Components++
			continue
		}
		if c.AccountID != 0 {
			if _, ok := b.accounts[c.AccountID]; !ok {
				c.AccountID = 0
				c.Version++
			}
		}
	}

	if report.Changed() {
		b.generation++
	}
	return report
}

func (b *Book) dropAccountLocked(id int64) {
	for componentID, c := range b.components {
		if c.AccountID != id {
			continue
		}
		delete(b.components, componentID)
		if transaction, ok := b.transactions[c.TransactionID]; ok {
			b.recomputeAmountLocked(transaction)
			transaction.Version++
		}
	}
	delete(b.accounts, id)
}

func (b *Book) dropTransactionLocked(id int64) {
	for componentID, c := range b.components {
		if c.TransactionID != id {
			continue
		}
		delete(b.components, componentID)
		if account, ok := b.accounts[c.AccountID]; ok {
			account.Balance -= c.RawAmount
			account.Version++
		}
	}
	delete(b.transactions, id)
}

// CheckBalances verifies the balance invariant for every account and returns
// the handles of accounts whose stored balance differs from the component
// sum. Used by tests and by operators investigating corruption.
func (b *Book) CheckBalances() []int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var broken []int64
	for id, account := range b.accounts {
		if account.Balance != b.balanceOfLocked(id) {
			broken = append(broken, id)
		}
	}
	return broken
}
