package normalizer

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrEmptyAmount is returned for a blank amount cell.
var ErrEmptyAmount = errors.New("empty amount")

// currencyMarks are stripped before the number is parsed.
var currencyMarks = []string{"¥", "￥", "$", "元", "RMB", "CNY"}

// ParseAmount parses a decimal amount as written in a spreadsheet cell.
// Currency marks, thousands separators and inner spaces are removed, and an
// accounting-style "(12.50)" is read as negative.
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, ErrEmptyAmount
	}

	for _, mark := range currencyMarks {
		s = strings.ReplaceAll(s, mark, "")
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, "，", "")
	s = strings.Join(strings.Fields(s), "")

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}
