// Package service provides the import orchestration logic.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/FACorreiaa/household-ledger/internal/domain/import/normalizer"
	"github.com/FACorreiaa/household-ledger/internal/domain/import/parser"
	"github.com/FACorreiaa/household-ledger/internal/domain/import/repository"
	"github.com/FACorreiaa/household-ledger/pkg/money"
	"github.com/FACorreiaa/household-ledger/pkg/storage"
)

var tracer = otel.Tracer("household-ledger/import/service")

// UploadArchive keeps a copy of every uploaded file. storage.Storage satisfies it.
type UploadArchive interface {
	Upload(ctx context.Context, userID uuid.UUID, filename string, contentType string, r io.Reader) (*storage.FileInfo, error)
}

// ImportRequest is one uploaded file to import on behalf of ActorID.
type ImportRequest struct {
	ActorID     uuid.UUID
	FileName    string
	ContentType string
	Data        []byte
	Policy      Policy
}

// ImportService orchestrates decoding, validation, resolution and persistence
type ImportService struct {
	gateway  repository.Gateway
	dates    normalizer.DateParser
	currency string
	archive  UploadArchive // Optional: nil disables archiving
	logger   *slog.Logger
}

// NewImportService creates a new import service reading dates in UTC and
// amounts in CNY
func NewImportService(gateway repository.Gateway, logger *slog.Logger) *ImportService {
	return &ImportService{
		gateway:  gateway,
		dates:    normalizer.NewDateParser(time.UTC),
		currency: money.CNY,
		logger:   logger,
	}
}

// WithCurrency sets the ledger currency amounts are validated against
func (s *ImportService) WithCurrency(code string) *ImportService {
	if code != "" {
		s.currency = code
	}
	return s
}

// WithLocation sets the time zone for dates without an explicit offset
func (s *ImportService) WithLocation(loc *time.Location) *ImportService {
	s.dates = normalizer.NewDateParser(loc)
	return s
}

// WithArchive stores a copy of each uploaded file before it is imported
func (s *ImportService) WithArchive(archive UploadArchive) *ImportService {
	s.archive = archive
	return s
}

// Import loads the acting user, archives the upload and runs the import.
// A *parser.DecodeError means the file could not be read and nothing was imported.
func (s *ImportService) Import(ctx context.Context, req ImportRequest) (*ImportReport, error) {
	actor, err := s.gateway.GetUser(ctx, req.ActorID)
	if err != nil {
		return nil, fmt.Errorf("failed to load acting user: %w", err)
	}

	if s.archive != nil {
		info, err := s.archive.Upload(ctx, actor.ID, req.FileName, req.ContentType, bytes.NewReader(req.Data))
		if err != nil {
			s.logger.Warn("failed to archive upload", "user_id", actor.ID, "file", req.FileName, slog.Any("error", err))
		} else {
			s.logger.Debug("upload archived", "user_id", actor.ID, "file_id", info.ID, "size", info.Size)
		}
	}

	rows, err := parser.Decode(req.Data, parser.FormatFromFilename(req.FileName))
	if err != nil {
		importRuns.WithLabelValues("decode_error").Inc()
		return nil, err
	}
	defer rows.Close()

	return s.Run(ctx, *actor, rows, req.Policy)
}

// Run processes rows one at a time in source order. Row failures are recorded
// in the report and never abort the run. The context is checked between rows;
// on cancellation the partial report is returned with the context error.
func (s *ImportService) Run(ctx context.Context, actor repository.User, rows parser.RowReader, policy Policy) (*ImportReport, error) {
	ctx, span := tracer.Start(ctx, "ImportService.Run")
	defer span.End()
	span.SetAttributes(
		attribute.String("actor.id", actor.ID.String()),
		attribute.Bool("policy.auto_create_account", policy.AutoCreateAccount),
		attribute.Bool("policy.auto_create_category", policy.AutoCreateCategory),
	)

	start := time.Now()
	defer func() { importDuration.Observe(time.Since(start).Seconds()) }()

	cache, err := LoadReferenceCache(ctx, s.gateway, actor)
	if err != nil {
		importRuns.WithLabelValues("failed").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	validator := NewRowValidator(s.dates, s.currency)
	resolver := NewEntityResolver(s.gateway, actor)
	builder := newReportBuilder()

	for {
		if err := ctx.Err(); err != nil {
			importRuns.WithLabelValues("cancelled").Inc()
			s.logger.Warn("import cancelled", "user_id", actor.ID, "rows_saved", builder.successCount, slog.Any("error", err))
			return builder.build(false), err
		}
		if !rows.Next() {
			break
		}

		outcome := s.processRow(ctx, rows.Row(), validator, resolver, cache, policy)
		recordOutcome(outcome)
		builder.add(outcome)
	}

	if err := rows.Err(); err != nil {
		importRuns.WithLabelValues("decode_error").Inc()
		var decodeErr *parser.DecodeError
		if !errors.As(err, &decodeErr) {
			err = &parser.DecodeError{Err: err}
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return builder.build(false), err
	}

	report := builder.build(true)
	importRuns.WithLabelValues("completed").Inc()
	span.SetAttributes(
		attribute.Int("import.success_count", report.SuccessCount),
		attribute.Int("import.error_count", report.ErrorCount),
	)
	s.logger.Info("import summary",
		"user_id", actor.ID,
		"success_count", report.SuccessCount,
		"error_count", report.ErrorCount,
		"warnings_count", report.TotalWarnings,
		"created_accounts_count", len(report.CreatedAccounts),
		"created_categories_count", len(report.CreatedCategories),
		"duration", time.Since(start),
	)
	return report, nil
}

// processRow validates, resolves and persists one row.
func (s *ImportService) processRow(
	ctx context.Context,
	raw parser.RawRow,
	validator *RowValidator,
	resolver *EntityResolver,
	cache *ReferenceCache,
	policy Policy,
) RowOutcome {
	outcome := RowOutcome{Line: raw.Line}

	row, err := validator.Validate(raw)
	if err != nil {
		return skip(outcome, err)
	}

	res, err := resolver.Resolve(ctx, row, cache, policy)
	outcome.CreatedCategory = res.CreatedCategory
	outcome.CreatedAccount = res.CreatedAccount
	if err != nil {
		return skip(outcome, err)
	}
	outcome.Warnings = res.Warnings

	if err := s.gateway.CreateTransaction(ctx, res.Transaction); err != nil {
		s.logger.Warn("failed to save imported row", "line", raw.Line, slog.Any("error", err))
		return skip(outcome, err)
	}

	outcome.Status = RowSaved
	return outcome
}

func skip(o RowOutcome, err error) RowOutcome {
	o.Status = RowSkipped
	o.Err = err
	return o
}
