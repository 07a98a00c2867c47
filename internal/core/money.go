// Package core provides money parsing and handling utilities.
//
// Amounts are exact decimals with two fractional digits. They are persisted
// as integer cents and only converted to float64 at the presentation edge.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an exact monetary amount rounded to cents.
type Money struct {
	Amount decimal.Decimal
}

// Zero is the additive identity returned by empty ledger sums.
var Zero = Money{Amount: decimal.Zero}

// MaxAmount is the largest amount a single movement, goal or payment may carry.
var MaxAmount = MoneyFromCents(9_999_999_999)

// MoneyFromCents builds a Money from an integer number of cents.
func MoneyFromCents(cents int64) Money {
	return Money{Amount: decimal.New(cents, -2)}
}

// MoneyFromInt builds a Money from a whole number of currency units.
func MoneyFromInt(units int64) Money {
	return Money{Amount: decimal.NewFromInt(units)}
}

// ParseMoney converts a decimal string to Money with half-up rounding to cents.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. Only
// strictly positive amounts up to MaxAmount are accepted.
//
// Examples:
//
//	ParseMoney("12.34")  -> 12.34
//	ParseMoney("12,345") -> 12.35
//	ParseMoney("-1")     -> ErrInvalidAmount
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	m := Money{Amount: d.Round(2)}
	if err := m.Validate(); err != nil {
		return Money{}, err
	}
	return m, nil
}

// Cents returns the amount as integer cents, rounding half away from zero.
func (m Money) Cents() int64 {
	return m.Amount.Round(2).Shift(2).IntPart()
}

func (m Money) Add(o Money) Money { return Money{Amount: m.Amount.Add(o.Amount)} }

func (m Money) Sub(o Money) Money { return Money{Amount: m.Amount.Sub(o.Amount)} }

func (m Money) Neg() Money { return Money{Amount: m.Amount.Neg()} }

func (m Money) IsPositive() bool { return m.Amount.IsPositive() }

func (m Money) IsZero() bool { return m.Amount.IsZero() }

func (m Money) Cmp(o Money) int { return m.Amount.Cmp(o.Amount) }

// GreaterThanOrEqual reports whether m >= o.
func (m Money) GreaterThanOrEqual(o Money) bool { return m.Amount.GreaterThanOrEqual(o.Amount) }

// Equal compares amounts by value, so 1.5 equals 1.50.
func (m Money) Equal(o Money) bool { return m.Amount.Equal(o.Amount) }

// Validate rejects zero, negative and oversized amounts.
func (m Money) Validate() error {
	if !m.IsPositive() || m.Amount.GreaterThan(MaxAmount.Amount) {
		return ErrInvalidAmount
	}
	return nil
}

// String formats the amount with exactly two decimals.
func (m Money) String() string {
	return m.Amount.StringFixed(2)
}

// Float64 returns the amount for charting and other display purposes.
// Note: never feed the result back into calculations.
func (m Money) Float64() float64 {
	f, _ := m.Amount.Float64()
	return f
}

// MarshalJSON encodes the amount as a quoted fixed-point string ("12.30").
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// UnmarshalJSON accepts both quoted strings and bare JSON numbers whose
// magnitude does not exceed MaxAmount.
func (m *Money) UnmarshalJSON(b []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return ErrInvalidAmount
	}
	d = d.Round(2)
	if d.Abs().GreaterThan(MaxAmount.Amount) {
		return ErrInvalidAmount
	}
	m.Amount = d
	return nil
}
