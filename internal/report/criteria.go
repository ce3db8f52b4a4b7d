package report

import "soldi/internal/core"

// Criteria selects the transactions a report runs over: an inclusive date
// range, tag and account selections and per-kind toggles. An empty tag set
// matches every tag and an empty account set matches every account.
type Criteria struct {
	Earliest core.Date
	Latest   core.Date

	Tags     map[string]struct{}
	Accounts map[int64]struct{}

	WithExpenses  bool
	WithIncome    bool
	WithTransfers bool
}

// NewCriteria returns criteria spanning the given range with all kinds
// enabled and no tag or account restriction.
func NewCriteria(earliest, latest core.Date) Criteria {
	return Criteria{
		Earliest:      earliest,
		Latest:        latest,
		WithExpenses:  true,
		WithIncome:    true,
		WithTransfers: true,
	}
}

// SelectTags restricts the criteria to the given tags.
func (c Criteria) SelectTags(tags ...string) Criteria {
	c.Tags = make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		c.Tags[tag] = struct{}{}
	}
	return c
}

// SelectAccounts restricts the criteria to the given account handles.
func (c Criteria) SelectAccounts(ids ...int64) Criteria {
	c.Accounts = make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		c.Accounts[id] = struct{}{}
	}
	return c
}

func (c Criteria) accountSelected(id int64) bool {
	if len(c.Accounts) == 0 {
		return true
	}
	_, ok := c.Accounts[id]
	return ok
}

func (c Criteria) tagsMatch(t core.Transaction) bool {
	if len(c.Tags) == 0 {
		// No tags selected means no tag restriction.
		return true
	}
	for _, tag := range t.EffectiveTags() {
		if _, ok := c.Tags[tag]; ok {
			return true
		}
	}
	return false
}

// kindMatch applies the three toggles. An expense transaction is "expense"
// when its derived amount is <= 0 and "income" when >= 0, evaluated
// independently, so an amount of exactly zero satisfies both.
func (c Criteria) kindMatch(t core.Transaction) bool {
	switch t.Kind {
	case core.KindTransfer:
		return c.WithTransfers
	case core.KindExpense:
		if c.WithExpenses && t.Amount <= 0 {
			return true
		}
		if c.WithIncome && t.Amount >= 0 {
			return true
		}
		return false
	default:
		return false
	}
}
