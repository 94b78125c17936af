// Package core holds the domain model and validation rules for the tracker.
package core

import (
	"github.com/shopspring/decimal"
)

// Money is an amount stored as integer cents to keep arithmetic exact.
// Amounts on transactions and subscriptions are always non-negative; the
// direction of a transaction is carried by its type.
type Money struct {
	Cents int64
}

// maxAmount is the upper bound accepted for income amounts (10,000,000
// currency units).
var maxAmount = decimal.NewFromInt(10_000_000)

// ParseAmount converts a decimal string (e.g. "12.34") to Money, rounding
// half-up on the third decimal place. Negative values are rejected; zero is
// allowed here and gated per transaction type by the validators.
func ParseAmount(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	return FromDecimal(d)
}

// FromDecimal converts a decimal amount to Money with half-up cent rounding.
func FromDecimal(d decimal.Decimal) (Money, error) {
	if d.IsNegative() {
		return Money{}, ErrInvalidAmount
	}
	cents := d.Shift(2).Round(0)
	if !cents.IsInteger() || !cents.BigInt().IsInt64() {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: cents.BigInt().Int64()}, nil
}

// Decimal returns the amount as an exact decimal in currency units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.NewFromInt(m.Cents).Shift(-2)
}

// String formats the amount with two decimal places, e.g. "12.34".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool {
	return m.Cents == 0
}

// exceedsMax reports whether the amount is above the accepted income bound.
func (m Money) exceedsMax() bool {
	return m.Decimal().GreaterThan(maxAmount)
}
