// Package money converts between decimal amounts and integer minor units
// using ISO-4217 currency metadata from go-money.
package money

import (
	"errors"
	"math"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Common currency codes (ISO-4217)
const (
	CNY = "CNY" // Chinese Yuan
	USD = "USD" // US Dollar
	EUR = "EUR" // Euro
	JPY = "JPY" // Japanese Yen (no decimal places)
)

var (
	// ErrOutOfRange is returned when the amount does not fit in int64 minor units.
	ErrOutOfRange = errors.New("amount out of range")
	// ErrBelowMinorUnit is returned for a non-zero amount that rounds to zero minor units.
	ErrBelowMinorUnit = errors.New("amount smaller than the currency's minor unit")
)

var (
	maxMinor = decimal.NewFromInt(math.MaxInt64)
	minMinor = decimal.NewFromInt(math.MinInt64)
)

// Money is an amount in minor units of a single currency.
type Money struct {
	m *money.Money
}

// New creates a new Money value from minor units and currency code.
// For JPY and other zero-decimal currencies, amount is the actual value.
func New(amountMinor int64, currencyCode string) *Money {
	return &Money{m: money.New(amountMinor, normalize(currencyCode))}
}

// ToMinor converts amount to minor units of the currency, rounding half away
// from zero. Amounts outside int64 and non-zero amounts that would round to
// zero are rejected.
func ToMinor(amount decimal.Decimal, currencyCode string) (int64, error) {
	minor := amount.Shift(Fraction(currencyCode)).Round(0)
	if minor.GreaterThan(maxMinor) || minor.LessThan(minMinor) {
		return 0, ErrOutOfRange
	}
	if minor.IsZero() && !amount.IsZero() {
		return 0, ErrBelowMinorUnit
	}
	return minor.IntPart(), nil
}

// Supported reports whether go-money knows the currency.
func Supported(currencyCode string) bool {
	return money.GetCurrency(normalize(currencyCode)) != nil
}

// Fraction is the number of decimal places of the currency's minor unit.
func Fraction(currencyCode string) int32 {
	c := money.GetCurrency(normalize(currencyCode))
	if c == nil {
		return 2
	}
	return int32(c.Fraction)
}

// Currency returns the ISO-4217 currency code
func (m *Money) Currency() string {
	if m == nil || m.m == nil {
		return ""
	}
	return m.m.Currency().Code
}

// ToDecimal converts back to a decimal in major units
func (m *Money) ToDecimal() decimal.Decimal {
	if m == nil || m.m == nil {
		return decimal.Zero
	}
	return decimal.NewFromInt(m.m.Amount()).Shift(-Fraction(m.Currency()))
}

func normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
