// Package core holds the domain model of pennywise: budgets, expenses,
// projects, users and the value types they share.
package core

import (
	"strconv"
	"strings"
)

// Money is an amount in minor currency units. All arithmetic in the system
// happens on cents; floating point never touches stored amounts.
type Money struct {
	Cents int64
}

// MaxAmountCents caps any single amount the API accepts, budget or expense.
// Ten million in major units sits far above any personal budget and far
// below where cents arithmetic could overflow.
const MaxAmountCents int64 = 1_000_000_000

func (m Money) Validate() error {
	if m.Cents <= 0 || m.Cents > MaxAmountCents {
		return ErrInvalidAmount
	}
	return nil
}

// Units returns the major-unit value as a float64 for display purposes only.
func (m Money) Units() float64 {
	return float64(m.Cents) / 100.0
}

// ParseDecimalToCents converts a decimal amount string, as it arrives on the
// API's "amount" field, to cents. Dot and comma separators are both accepted;
// anything past the second decimal place rounds half-up. Malformed strings
// and amounts outside (0, MaxAmountCents] fail with ErrInvalidAmount.
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	units, frac, _ := strings.Cut(s, ".")
	if units == "" {
		units = "0"
	}
	if !isDigits(units) || !isDigits(frac) {
		return 0, ErrInvalidAmount
	}

	major, err := strconv.ParseInt(units, 10, 64)
	if err != nil || major > MaxAmountCents/100 {
		return 0, ErrInvalidAmount
	}

	var minor int64
	if len(frac) > 0 {
		minor = int64(frac[0]-'0') * 10
	}
	if len(frac) > 1 {
		minor += int64(frac[1] - '0')
	}
	if len(frac) > 2 && frac[2] >= '5' {
		minor++
	}

	cents := major*100 + minor
	if cents <= 0 || cents > MaxAmountCents {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// isDigits reports whether s contains only ASCII digits. The empty string
// counts as all digits so a bare integer or a trailing separator parse.
func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
