package ledger

import "soldi/internal/core"

// deriveAmount computes a transaction's display amount from its current
// component set. An expense/income amount is the signed sum; a transfer's is
// the larger side of the transfer, used for display magnitude.
func deriveAmount(kind core.TransactionKind, components []core.Component) int64 {
	if kind == core.KindTransfer {
		var positive, negative int64
		for _, c := range components {
			if c.RawAmount > 0 {
				positive += c.RawAmount
			} else {
				negative += c.RawAmount
			}
		}
		if positive >= -negative {
			return positive
		}
		return -negative
	}

	var sum int64
	for _, c := range components {
		sum += c.RawAmount
	}
	return sum
}

// recomputeAmountLocked refreshes the stored derived amount of a transaction
// from its component set. It is the final step of every mutation that touches
// the transaction's components, so a committed state never carries a stale
// derived field. The transaction's version is bumped by the caller.
func (b *Book) recomputeAmountLocked(t *core.Transaction) {
	t.Amount = deriveAmount(t.Kind, b.componentsOfLocked(t.ID))
}

// balanceOfLocked sums the raw amounts of every component currently linked
// to the account. O(components); used by refresh and invariant checks.
func (b *Book) balanceOfLocked(accountID int64) int64 {
	var sum int64
	for _, c := range b.components {
		if c.AccountID == accountID {
			sum += c.RawAmount
		}
	}
	return sum
}
