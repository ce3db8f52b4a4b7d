// Package core holds the domain types shared by the ledger, the report
// engine and every adapter: money in integer minor units, day-granularity
// dates, the Account/Transaction/Component entities and the error taxonomy.
package core

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// MinorUnitsPerMajor is the fixed multiplier between a display amount and its
// stored minor-unit form (cents).
const MinorUnitsPerMajor = 100

// Money is an amount in integer minor units of a single currency. All ledger
// arithmetic stays in minor units; only display values may become floats.
type Money struct {
	Cents    int64
	Currency string
}

// Major returns the major-unit value as a float64 for display purposes only.
// Never feed the result back into calculations.
func (m Money) Major() float64 {
	return float64(m.Cents) / MinorUnitsPerMajor
}

func (m Money) String() string {
	sign := ""
	cents := m.Cents
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	s := fmt.Sprintf("%s%d.%02d", sign, cents/MinorUnitsPerMajor, cents%MinorUnitsPerMajor)
	if m.Currency != "" {
		return s + " " + m.Currency
	}
	return s
}

// ParseDecimalToCents converts a signed decimal string to minor units with
// half-up rounding on the third decimal place. Both dot and comma decimal
// separators are accepted.
//
//	ParseDecimalToCents("12.34")  -> 1234
//	ParseDecimalToCents("-12,34") -> -1234
//	ParseDecimalToCents("12.346") -> 1235
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")

	negative := false
	switch {
	case strings.HasPrefix(s, "-"):
		negative = true
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}
	if s == "" || s == "." {
		return 0, ErrInvalidAmount
	}

	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}

	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	const maxSafeInt64 = (1<<63 - 1) / MinorUnitsPerMajor
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}

	// First two fractional digits are cents; the third decides half-up rounding.
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}

	cents := iv*MinorUnitsPerMajor + fracCents
	if negative {
		cents = -cents
	}
	return cents, nil
}

// FormatCents renders a minor-unit amount as a plain decimal string without a
// currency suffix, e.g. -1234 -> "-12.34".
func FormatCents(cents int64) string {
	return Money{Cents: cents}.String()
}
