package service

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/household-ledger/internal/domain/import/normalizer"
	"github.com/FACorreiaa/household-ledger/internal/domain/import/parser"
	"github.com/FACorreiaa/household-ledger/internal/domain/import/repository"
	"github.com/FACorreiaa/household-ledger/pkg/money"
)

// ParsedRow is a validated row. CategoryName and OwnerName are empty when absent.
type ParsedRow struct {
	Line         int
	Date         time.Time
	Type         repository.TransactionType
	Amount       decimal.Decimal
	Description  string
	CategoryName string
	AccountName  string
	OwnerName    string
}

// RowValidator projects a RawRow onto the fixed ParsedRow shape.
type RowValidator struct {
	dates    normalizer.DateParser
	currency string
}

// NewRowValidator creates a validator parsing dates with the given parser.
// Amounts must be storable as minor units of currency.
func NewRowValidator(dates normalizer.DateParser, currency string) *RowValidator {
	return &RowValidator{dates: dates, currency: currency}
}

// Validate checks the required cells in order date, type, amount, account and
// returns the first failure.
func (v *RowValidator) Validate(raw parser.RawRow) (ParsedRow, error) {
	dateText := cell(raw, dateLabels)
	typeText := cell(raw, typeLabels)
	amountText := cell(raw, amountLabels)
	accountName := normalizer.CleanName(cell(raw, accountLabels))

	switch {
	case dateText == "":
		return ParsedRow{}, &MissingFieldError{Field: "date"}
	case typeText == "":
		return ParsedRow{}, &MissingFieldError{Field: "type"}
	case amountText == "":
		return ParsedRow{}, &MissingFieldError{Field: "amount"}
	}

	amount, err := normalizer.ParseAmount(amountText)
	if err != nil {
		return ParsedRow{}, &InvalidAmountError{Raw: amountText}
	}
	if _, err := money.ToMinor(amount, v.currency); err != nil {
		return ParsedRow{}, &InvalidAmountError{Raw: amountText, Err: err}
	}

	date, err := v.dates.Parse(dateText)
	if err != nil {
		return ParsedRow{}, err
	}

	if accountName == "" {
		return ParsedRow{}, &MissingFieldError{Field: "account"}
	}

	return ParsedRow{
		Line:         raw.Line,
		Date:         date,
		Type:         ParseTransactionType(typeText),
		Amount:       amount,
		Description:  normalizer.CleanDescription(cell(raw, descriptionLabels)),
		CategoryName: normalizer.CleanName(cell(raw, categoryLabels)),
		AccountName:  accountName,
		OwnerName:    normalizer.CleanName(cell(raw, ownerLabels)),
	}, nil
}

// ParseTransactionType maps "收入" or "income" to INCOME and any other text to EXPENSE.
func ParseTransactionType(text string) repository.TransactionType {
	text = strings.TrimSpace(text)
	if text == LabelIncome || strings.EqualFold(text, "income") {
		return repository.TransactionTypeIncome
	}
	return repository.TransactionTypeExpense
}

// TransactionTypeLabel is the inverse of ParseTransactionType for the template and exports.
func TransactionTypeLabel(t repository.TransactionType) string {
	if t == repository.TransactionTypeIncome {
		return LabelIncome
	}
	return LabelExpense
}
