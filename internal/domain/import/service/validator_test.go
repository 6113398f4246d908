package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/household-ledger/internal/domain/import/normalizer"
	"github.com/FACorreiaa/household-ledger/internal/domain/import/parser"
	"github.com/FACorreiaa/household-ledger/internal/domain/import/repository"
	"github.com/FACorreiaa/household-ledger/pkg/money"
)

func TestRowValidator_Validate(t *testing.T) {
	validator := NewRowValidator(normalizer.NewDateParser(time.UTC), money.CNY)

	t.Run("projects the example row", func(t *testing.T) {
		row, err := validator.Validate(rawRow(0, exampleCells()))
		require.NoError(t, err)

		assert.Equal(t, 2, row.Line)
		assert.Equal(t, time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), row.Date)
		assert.Equal(t, repository.TransactionTypeExpense, row.Type)
		assert.True(t, decimal.NewFromInt(50).Equal(row.Amount))
		assert.Equal(t, "餐饮", row.CategoryName)
		assert.Equal(t, "微信", row.AccountName)
		assert.Equal(t, "午餐", row.Description)
		assert.Equal(t, "张三", row.OwnerName)
	})

	t.Run("english aliases in any case", func(t *testing.T) {
		row, err := validator.Validate(rawRow(0, map[string]string{
			"Date":        "2024-02-03",
			"TYPE":        "Income",
			"amount":      "$12.30",
			"Account":     "Checking",
			"description": "  salary   march ",
			"Owner":       "ann@example.com",
		}))
		require.NoError(t, err)

		assert.Equal(t, repository.TransactionTypeIncome, row.Type)
		assert.True(t, decimal.RequireFromString("12.3").Equal(row.Amount))
		assert.Equal(t, "salary march", row.Description)
		assert.Equal(t, "", row.CategoryName)
		assert.Equal(t, "ann@example.com", row.OwnerName)
	})

	t.Run("recorder column is used when owner is blank", func(t *testing.T) {
		cells := withCell(exampleCells(), ColumnOwner, " ")
		cells[ColumnRecorder] = "李四"

		row, err := validator.Validate(rawRow(0, cells))
		require.NoError(t, err)
		assert.Equal(t, "李四", row.OwnerName)
	})

	missing := []struct {
		label string
		field string
	}{
		{ColumnDate, "date"},
		{ColumnType, "type"},
		{ColumnAmount, "amount"},
		{ColumnAccount, "account"},
	}
	for _, tc := range missing {
		t.Run("missing "+tc.field, func(t *testing.T) {
			cells := exampleCells()
			delete(cells, tc.label)

			_, err := validator.Validate(rawRow(0, cells))

			var missingErr *MissingFieldError
			require.ErrorAs(t, err, &missingErr)
			assert.Equal(t, tc.field, missingErr.Field)
		})
	}

	t.Run("invalid amount", func(t *testing.T) {
		_, err := validator.Validate(rawRow(0, withCell(exampleCells(), ColumnAmount, "fifty")))

		var amountErr *InvalidAmountError
		require.ErrorAs(t, err, &amountErr)
		assert.Equal(t, "fifty", amountErr.Raw)
	})

	unstorable := []struct {
		raw  string
		want error
	}{
		{"1e30", money.ErrOutOfRange},
		{"-99999999999999999999", money.ErrOutOfRange},
		{"0.004", money.ErrBelowMinorUnit},
	}
	for _, tc := range unstorable {
		t.Run("unstorable amount "+tc.raw, func(t *testing.T) {
			_, err := validator.Validate(rawRow(0, withCell(exampleCells(), ColumnAmount, tc.raw)))

			var amountErr *InvalidAmountError
			require.ErrorAs(t, err, &amountErr)
			assert.Equal(t, tc.raw, amountErr.Raw)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	t.Run("extra fraction digits round to the minor unit", func(t *testing.T) {
		row, err := validator.Validate(rawRow(0, withCell(exampleCells(), ColumnAmount, "0.005")))
		require.NoError(t, err)
		assert.True(t, decimal.RequireFromString("0.005").Equal(row.Amount))
	})

	t.Run("yen has no minor unit", func(t *testing.T) {
		yen := NewRowValidator(normalizer.NewDateParser(time.UTC), money.JPY)
		_, err := yen.Validate(rawRow(0, withCell(exampleCells(), ColumnAmount, "0.4")))
		assert.ErrorIs(t, err, money.ErrBelowMinorUnit)
	})

	t.Run("invalid date", func(t *testing.T) {
		_, err := validator.Validate(rawRow(0, withCell(exampleCells(), ColumnDate, "01/02/2024")))

		var dateErr *normalizer.InvalidDateError
		require.ErrorAs(t, err, &dateErr)
		assert.Equal(t, `invalid date "01/02/2024"`, err.Error())
	})

	t.Run("extra columns are ignored", func(t *testing.T) {
		cells := withCell(exampleCells(), "备注", "whatever")
		_, err := validator.Validate(parser.RawRow{Line: 9, Cells: cells})
		assert.NoError(t, err)
	})
}

func TestParseTransactionType(t *testing.T) {
	tests := map[string]repository.TransactionType{
		"收入":      repository.TransactionTypeIncome,
		" 收入 ":    repository.TransactionTypeIncome,
		"income":  repository.TransactionTypeIncome,
		"INCOME":  repository.TransactionTypeIncome,
		"支出":      repository.TransactionTypeExpense,
		"转账":      repository.TransactionTypeExpense,
		"expense": repository.TransactionTypeExpense,
	}
	for input, expected := range tests {
		t.Run(input, func(t *testing.T) {
			assert.Equal(t, expected, ParseTransactionType(input))
		})
	}

	assert.Equal(t, LabelIncome, TransactionTypeLabel(repository.TransactionTypeIncome))
	assert.Equal(t, LabelExpense, TransactionTypeLabel(repository.TransactionTypeExpense))
}
