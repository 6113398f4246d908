package money

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToMinor(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		currency string
		want     int64
	}{
		{"whole yuan", "50", CNY, 5000},
		{"fen", "8000.05", CNY, 800005},
		{"rounds half away from zero", "12.345", CNY, 1235},
		{"negative", "-50.99", CNY, -5099},
		{"yen has no minor unit", "1234.5", JPY, 1235},
		{"lowercase code", "1.50", "eur", 150},
		{"unknown currency uses two places", "1.00", "XYZ", 100},
		{"zero", "0", CNY, 0},
		{"exponent notation", "1.5e3", CNY, 150000},
		{"largest amount", "92233720368547758.07", CNY, math.MaxInt64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToMinor(decimal.RequireFromString(tt.amount), tt.currency)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToMinor_Rejects(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		currency string
		want     error
	}{
		{"huge exponent", "1e30", CNY, ErrOutOfRange},
		{"past int64", "99999999999999999999", CNY, ErrOutOfRange},
		{"one fen past int64", "92233720368547758.08", CNY, ErrOutOfRange},
		{"negative past int64", "-1e30", CNY, ErrOutOfRange},
		{"below a fen", "0.004", CNY, ErrBelowMinorUnit},
		{"negative below a fen", "-0.001", CNY, ErrBelowMinorUnit},
		{"below a yen", "0.4", JPY, ErrBelowMinorUnit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ToMinor(decimal.RequireFromString(tt.amount), tt.currency)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestToDecimal(t *testing.T) {
	tests := []struct {
		minor    int64
		currency string
		want     string
	}{
		{123456, CNY, "1234.56"},
		{-5099, CNY, "-50.99"},
		{0, CNY, "0"},
		{1235, JPY, "1235"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := New(tt.minor, tt.currency).ToDecimal()
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestRoundTrip(t *testing.T) {
	for _, s := range []string{"0.01", "50.00", "8000", "-1234.56", "99999999.99"} {
		d := decimal.RequireFromString(s)
		minor, err := ToMinor(d, CNY)
		require.NoError(t, err)
		assert.True(t, d.Equal(New(minor, CNY).ToDecimal()), s)
	}
}

func TestNilMoney(t *testing.T) {
	var nilMoney *Money
	assert.True(t, nilMoney.ToDecimal().IsZero())
	assert.Equal(t, "", nilMoney.Currency())
	assert.Equal(t, JPY, New(1, "jpy").Currency())
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported("CNY"))
	assert.True(t, Supported(" usd "))
	assert.False(t, Supported("RMB"))
	assert.Equal(t, int32(2), Fraction(CNY))
	assert.Equal(t, int32(0), Fraction(JPY))
	assert.Equal(t, int32(2), Fraction("RMB"))
}
