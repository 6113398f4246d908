package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/FACorreiaa/household-ledger/internal/domain/import/normalizer"
	"github.com/FACorreiaa/household-ledger/internal/domain/import/parser"
	"github.com/FACorreiaa/household-ledger/pkg/money"
)

// SheetName is the worksheet name used by the template and exports.
const SheetName = "交易明细"

// WriteTemplate writes an XLSX holding the import header row and one sample row.
func (s *ImportService) WriteTemplate(w io.Writer) error {
	sample := []any{
		time.Date(2024, 1, 1, 12, 0, 0, 0, s.location()).Format(normalizer.StrictLayout),
		LabelExpense,
		"50.00",
		"餐饮",
		"微信",
		"午餐",
		"",
	}
	return parser.WriteWorkbook(w, SheetName, TemplateHeaders, [][]any{sample})
}

// Export writes the household's transactions dated in [from, to) as an XLSX in
// the import layout, so the file can be imported again.
func (s *ImportService) Export(ctx context.Context, actorID uuid.UUID, from, to time.Time, w io.Writer) (int, error) {
	ctx, span := tracer.Start(ctx, "ImportService.Export")
	defer span.End()

	actor, err := s.gateway.GetUser(ctx, actorID)
	if err != nil {
		return 0, fmt.Errorf("failed to load acting user: %w", err)
	}

	views, err := s.gateway.ListTransactions(ctx, actor.Household(), from, to)
	if err != nil {
		return 0, fmt.Errorf("failed to list transactions: %w", err)
	}

	loc := s.location()
	rows := make([][]any, 0, len(views))
	for _, v := range views {
		category := v.CategoryName
		if category == "" {
			category = NoCategory
		}
		rows = append(rows, []any{
			v.Date.In(loc).Format(normalizer.StrictLayout),
			TransactionTypeLabel(v.Type),
			v.Amount.StringFixed(money.Fraction(v.CurrencyCode)),
			category,
			v.AccountName,
			v.Description,
			v.UserName,
		})
	}

	if err := parser.WriteWorkbook(w, SheetName, TemplateHeaders, rows); err != nil {
		return 0, fmt.Errorf("failed to write export: %w", err)
	}

	s.logger.Info("transactions exported", "user_id", actor.ID, "count", len(rows))
	return len(rows), nil
}

// ExportFileName is the download name of an export created at t.
func ExportFileName(t time.Time) string {
	return fmt.Sprintf("交易明细_%s.xlsx", t.Format("2006-01-02"))
}

func (s *ImportService) location() *time.Location {
	return s.dates.Location
}
