package service

import (
	"strings"

	"github.com/FACorreiaa/household-ledger/internal/domain/import/parser"
)

// Column labels. The Chinese label is the one written by the template and the
// export; the English alias is accepted on import.
const (
	ColumnDate        = "日期"
	ColumnType        = "类型"
	ColumnAmount      = "金额"
	ColumnCategory    = "分类"
	ColumnAccount     = "账户"
	ColumnDescription = "描述"
	ColumnOwner       = "归属人"
	ColumnRecorder    = "记账人"
)

const (
	// NoCategory is the placeholder meaning the row has no category.
	NoCategory = "无分类"

	LabelIncome  = "收入"
	LabelExpense = "支出"
)

var (
	dateLabels        = []string{ColumnDate, "date"}
	typeLabels        = []string{ColumnType, "type"}
	amountLabels      = []string{ColumnAmount, "amount"}
	categoryLabels    = []string{ColumnCategory, "category"}
	accountLabels     = []string{ColumnAccount, "account"}
	descriptionLabels = []string{ColumnDescription, "description"}
	ownerLabels       = []string{ColumnOwner, ColumnRecorder, "owner"}
)

// TemplateHeaders is the column layout of the import template and of exports.
var TemplateHeaders = []string{
	ColumnDate,
	ColumnType,
	ColumnAmount,
	ColumnCategory,
	ColumnAccount,
	ColumnDescription,
	ColumnOwner,
}

// cell returns the first non-empty cell among labels. Exact labels are tried
// first, then a case-insensitive match so "Date" and "AMOUNT" are accepted.
func cell(raw parser.RawRow, labels []string) string {
	if v := raw.Coalesce(labels...); v != "" {
		return v
	}
	for _, label := range labels {
		for key, value := range raw.Cells {
			if strings.EqualFold(strings.TrimSpace(key), label) {
				if v := strings.TrimSpace(value); v != "" {
					return v
				}
			}
		}
	}
	return ""
}
