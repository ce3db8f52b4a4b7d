// Package rates implements the directed exchange-rate table used by the
// report engine to convert amounts between currencies.
package rates

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"soldi/internal/core"
)

// Rate is one directed source->destination conversion pair. Pairs are
// directional; a reverse pair may or may not exist.
type Rate struct {
	From string          `json:"from"`
	To   string          `json:"to"`
	Rate decimal.Decimal `json:"rate"`
}

type pair struct {
	from, to string
}

// Table is a mutable set of directed rate pairs. Lookups fall back to the
// reciprocal of the inverse pair; a pair that exists in neither direction is
// an undefined conversion, never an implicit 1.0.
type Table struct {
	mu    sync.RWMutex
	rates map[pair]decimal.Decimal
}

// NewTable returns an empty rate table.
func NewTable() *Table {
	return &Table{rates: make(map[pair]decimal.Decimal)}
}

// Set stores or replaces the rate for a directed currency pair. The rate
// must be positive.
func (t *Table) Set(from, to string, rate decimal.Decimal) error {
	from, to = normalize(from), normalize(to)
	if len(from) != 3 || len(to) != 3 {
		return fmt.Errorf("set rate %s->%s: %w", from, to, core.ErrInvalidCurrency)
	}
	if from == to {
		return fmt.Errorf("set rate %s->%s: identical currencies", from, to)
	}
	if !rate.IsPositive() {
		return fmt.Errorf("set rate %s->%s: %w: rate must be positive", from, to, core.ErrInvalidAmount)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.rates[pair{from, to}] = rate
	return nil
}

// Delete removes a directed pair. Removing an absent pair is a no-op.
func (t *Table) Delete(from, to string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.rates, pair{normalize(from), normalize(to)})
}

// GetRate resolves the multiplier from one currency to another. Identical
// currencies convert at 1. A missing direct pair falls back to the
// reciprocal of the inverse pair; when neither exists the conversion is
// undefined and core.ErrUndefinedConversion is returned.
func (t *Table) GetRate(from, to string) (decimal.Decimal, error) {
	from, to = normalize(from), normalize(to)
	if from == to {
		return decimal.NewFromInt(1), nil
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	if rate, ok := t.rates[pair{from, to}]; ok {
		return rate, nil
	}
	if inverse, ok := t.rates[pair{to, from}]; ok {
		return decimal.NewFromInt(1).Div(inverse), nil
	}
	return decimal.Decimal{}, fmt.Errorf("rate %s->%s: %w", from, to, core.ErrUndefinedConversion)
}

// Convert translates a minor-unit amount between currencies, rounding half
// up at the minor-unit boundary to match money-amount displays.
func (t *Table) Convert(amount int64, from, to string) (int64, error) {
	rate, err := t.GetRate(from, to)
	if err != nil {
		return 0, err
	}
	// Round(0) is half-away-from-zero, which is half-up on the magnitudes
	// money displays carry.
	return decimal.NewFromInt(amount).Mul(rate).Round(0).IntPart(), nil
}

// Rates returns all stored pairs ordered by source then destination.
func (t *Table) Rates() []Rate {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Rate, 0, len(t.rates))
	for p, rate := range t.rates {
		out = append(out, Rate{From: p.from, To: p.to, Rate: rate})
	}
	slices.SortFunc(out, func(a, b Rate) int {
		if c := strings.Compare(a.From, b.From); c != 0 {
			return c
		}
		return strings.Compare(a.To, b.To)
	})
	return out
}

func normalize(currency string) string {
	return strings.ToUpper(strings.TrimSpace(currency))
}
