package report

import (
	"sort"

	"soldi/internal/core"
)

// GraphPoint is one point of the running-balance graph: the matching
// transaction's date and the selected accounts' combined balance converted
// into the reference currency, in minor units.
type GraphPoint struct {
	Date  core.Date `json:"date"`
	Total int64     `json:"total"`
}

// BalanceGraph computes the running balance of the selected accounts over
// the criteria's date range. The starting total is each selected account's
// balance as of the earliest date; every matching transaction then adds its
// selected components to that account's currency bucket and emits one point.
// Points sharing a date are not merged: every matching transaction produces
// its own point in chronological order.
func (e *Engine) BalanceGraph(c Criteria) ([]GraphPoint, error) {
	selected := make(map[int64]core.Account)
	for _, account := range e.book.Accounts() {
		if c.accountSelected(account.ID) {
			selected[account.ID] = account
		}
	}

	buckets := make(map[string]int64)
	for id, account := range selected {
		opening, err := e.AccountBalanceAsOf(id, c.Earliest)
		if err != nil {
			return nil, err
		}
		buckets[account.Currency] += opening
	}

	matched := e.matching(c)
	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].Date.Equal(matched[j].Date) {
			return matched[i].Date.Before(matched[j].Date)
		}
		return matched[i].ID < matched[j].ID
	})

	points := make([]GraphPoint, 0, len(matched))
	for _, t := range matched {
		for _, component := range e.book.ComponentsOf(t.ID) {
			account, ok := selected[component.AccountID]
			if !ok {
				continue
			}
			buckets[account.Currency] += component.RawAmount
		}
		points = append(points, GraphPoint{Date: t.Date, Total: e.convertBuckets(buckets)})
	}
	return points, nil
}

// TagExpenses sums the filtered transactions' component amounts per tag,
// converted into the reference currency. Sums are grouped by currency first
// and converted once per (currency, tag) group so rounding error does not
// compound per component; a transaction with several tags contributes its
// components to each of them.
func (e *Engine) TagExpenses(c Criteria) (map[string]int64, error) {
	accounts := make(map[int64]core.Account)
	for _, account := range e.book.Accounts() {
		if c.accountSelected(account.ID) {
			accounts[account.ID] = account
		}
	}

	// currency -> tag -> minor-unit sum
	groups := make(map[string]map[string]int64)
	for _, t := range e.matching(c) {
		for _, component := range e.book.ComponentsOf(t.ID) {
			account, ok := accounts[component.AccountID]
			if !ok {
				continue
			}
			perTag := groups[account.Currency]
			if perTag == nil {
				perTag = make(map[string]int64)
				groups[account.Currency] = perTag
			}
			for _, tag := range t.EffectiveTags() {
				perTag[tag] += component.RawAmount
			}
		}
	}

	totals := make(map[string]int64)
	for currency, perTag := range groups {
		for tag, cents := range perTag {
			converted, err := e.rates.Convert(cents, currency, e.refCur)
			if err != nil {
				e.logger.Warn("excluding unconvertible currency from tag totals",
					"currency", currency, "tag", tag, "reference_currency", e.refCur)
				continue
			}
			totals[tag] += converted
		}
	}
	return totals, nil
}
