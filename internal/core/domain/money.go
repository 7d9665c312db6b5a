package domain

import (
	"errors"
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// Money is an amount in whole naira. The platform deals in whole currency
// units only; wire values with fractional digits that do not resolve to a
// whole unit are rejected at the boundary.
type Money int64

// ErrInvalidAmount reports a wire amount that cannot become Money.
var ErrInvalidAmount = errors.New("invalid amount")

// ParseAmount converts a decimal wire string into Money. It rejects
// negatives, more than two fractional digits, non-whole values and
// anything outside the int64 range.
func ParseAmount(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if d.IsNegative() {
		return 0, ErrInvalidAmount
	}
	if d.Exponent() < -2 {
		return 0, ErrInvalidAmount
	}
	if !d.Equal(d.Truncate(0)) {
		return 0, ErrInvalidAmount
	}
	if d.Cmp(decimal.NewFromInt(math.MaxInt64)) > 0 {
		return 0, ErrInvalidAmount
	}
	return Money(d.IntPart()), nil
}

// Add returns m + other.
func (m Money) Add(other Money) Money {
	return m + other
}

// Sub returns m - other.
func (m Money) Sub(other Money) Money {
	return m - other
}

// IsPositive reports whether m is strictly greater than zero.
func (m Money) IsPositive() bool {
	return m > 0
}

// PercentOf returns rate% of m, rounded half-up to a whole unit. Used for
// merchant commissions (1.5% of 1500 is 22.5, charged as 23).
func (m Money) PercentOf(rate decimal.Decimal) Money {
	cut := m.Decimal().Mul(rate).Div(decimal.NewFromInt(100)).Round(0)
	return Money(cut.IntPart())
}

// Decimal returns m as a decimal for arithmetic at the boundary.
func (m Money) Decimal() decimal.Decimal {
	return decimal.NewFromInt(int64(m))
}

func (m Money) String() string {
	return strconv.FormatInt(int64(m), 10)
}
