package valueobject

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// CurrencyPlaces is the number of decimal places monetary amounts are rounded to
const CurrencyPlaces int32 = 2

var hundred = decimal.NewFromInt(100)

// RoundCurrency rounds an amount to currency precision, half away from zero
func RoundCurrency(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(CurrencyPlaces)
}

// Percentage is an immutable percentage value (e.g. 5 means 5%)
type Percentage struct {
	value decimal.Decimal
}

// NewPercentage creates a percentage, rejecting values outside [0, 100]
func NewPercentage(value decimal.Decimal) (Percentage, error) {
	if value.IsNegative() || value.GreaterThan(hundred) {
		return Percentage{}, fmt.Errorf("percentage %s is outside [0, 100]", value.String())
	}
	return Percentage{value: value}, nil
}

// MustPercentage creates a percentage and panics on an invalid value
func MustPercentage(value string) Percentage {
	p, err := NewPercentage(decimal.RequireFromString(value))
	if err != nil {
		panic(err)
	}
	return p
}

// Value returns the percentage as a decimal
func (p Percentage) Value() decimal.Decimal {
	return p.value
}

// IsZero reports whether the percentage is 0
func (p Percentage) IsZero() bool {
	return p.value.IsZero()
}

// Of returns p percent of basis, rounded to currency precision
func (p Percentage) Of(basis decimal.Decimal) decimal.Decimal {
	return RoundCurrency(basis.Mul(p.value).Div(hundred))
}

// String returns the percentage formatted as "5%"
func (p Percentage) String() string {
	return p.value.String() + "%"
}

// MarshalText implements encoding.TextMarshaler
func (p Percentage) MarshalText() ([]byte, error) {
	return []byte(p.value.String()), nil
}
