package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/FACorreiaa/household-ledger/internal/domain/import/parser"
	"github.com/FACorreiaa/household-ledger/internal/domain/import/repository"
	importservice "github.com/FACorreiaa/household-ledger/internal/domain/import/service"
	"github.com/FACorreiaa/household-ledger/pkg/interceptors"
)

const (
	xlsxContentType       = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	templateFileName      = "交易导入模板.xlsx"
	defaultMaxUploadBytes = 10 << 20
	queryDateLayout       = "2006-01-02"
)

// Importer is the part of the import service the HTTP layer drives.
type Importer interface {
	Import(ctx context.Context, req importservice.ImportRequest) (*importservice.ImportReport, error)
	WriteTemplate(w io.Writer) error
	Export(ctx context.Context, actorID uuid.UUID, from, to time.Time, w io.Writer) (int, error)
}

var _ Importer = (*importservice.ImportService)(nil)

// ImportHandler serves the transaction import, template and export endpoints
type ImportHandler struct {
	importSvc      Importer
	logger         *slog.Logger
	maxUploadBytes int64
	timeout        time.Duration
	location       *time.Location
	defaults       importservice.Policy
	now            func() time.Time
}

// NewImportHandler creates a new import handler
func NewImportHandler(importSvc Importer, logger *slog.Logger) *ImportHandler {
	return &ImportHandler{
		importSvc:      importSvc,
		logger:         logger,
		maxUploadBytes: defaultMaxUploadBytes,
		location:       time.UTC,
		now:            time.Now,
	}
}

// WithMaxUploadBytes caps the request body of an import
func (h *ImportHandler) WithMaxUploadBytes(n int64) *ImportHandler {
	if n > 0 {
		h.maxUploadBytes = n
	}
	return h
}

// WithTimeout bounds how long a single import may run. Zero means no limit.
func (h *ImportHandler) WithTimeout(d time.Duration) *ImportHandler {
	h.timeout = d
	return h
}

// WithDefaultPolicy sets the policy used for flags the form leaves out
func (h *ImportHandler) WithDefaultPolicy(p importservice.Policy) *ImportHandler {
	h.defaults = p
	return h
}

// WithLocation sets the zone export date filters are read in
func (h *ImportHandler) WithLocation(loc *time.Location) *ImportHandler {
	if loc != nil {
		h.location = loc
	}
	return h
}

// Routes mounts the endpoints under /transactions.
func (h *ImportHandler) Routes(r chi.Router) {
	r.Route("/transactions", func(r chi.Router) {
		r.Post("/import", h.HandleImport)
		r.Get("/import/template", h.HandleTemplate)
		r.Get("/export", h.HandleExport)
	})
}

// HandleImport imports an uploaded spreadsheet and answers with the import report.
func (h *ImportHandler) HandleImport(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.actorID(w, r)
	if !ok {
		return
	}

	if r.ContentLength > h.maxUploadBytes {
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("file exceeds %d bytes", h.maxUploadBytes))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("file exceeds %d bytes", h.maxUploadBytes))
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file provided")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.logger.Error("failed to read upload", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "failed to read file")
		return
	}

	policy, err := policyFromForm(r, h.defaults)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	report, err := h.importSvc.Import(ctx, importservice.ImportRequest{
		ActorID:     actorID,
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
		Policy:      policy,
	})
	if err != nil {
		h.handleImportError(w, r, report, err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

func (h *ImportHandler) handleImportError(w http.ResponseWriter, r *http.Request, report *importservice.ImportReport, err error) {
	logger := h.logger.With("request_id", middleware.GetReqID(r.Context()))

	var decodeErr *parser.DecodeError
	switch {
	case errors.As(err, &decodeErr) && report == nil:
		writeError(w, http.StatusBadRequest, decodeErr.Error())
	case errors.Is(err, repository.ErrNotFound) && report == nil:
		writeError(w, http.StatusUnauthorized, "unknown user")
	case report == nil:
		logger.Error("import failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "import failed")
	default:
		// The rows saved before the failure stay saved; the caller gets the partial report.
		status := http.StatusInternalServerError
		switch {
		case errors.As(err, &decodeErr):
			status = http.StatusBadRequest
		case errors.Is(err, context.DeadlineExceeded):
			status = http.StatusGatewayTimeout
		}
		logger.Warn("import stopped early",
			"saved", report.SuccessCount,
			"failed", report.ErrorCount,
			slog.Any("error", err))
		writeJSON(w, status, report)
	}
}

// HandleTemplate downloads an empty import workbook with one sample row.
func (h *ImportHandler) HandleTemplate(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.importSvc.WriteTemplate(&buf); err != nil {
		h.logger.Error("failed to write template", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "failed to build template")
		return
	}
	writeWorkbook(w, templateFileName, buf.Bytes())
}

// HandleExport downloads the household's transactions between the optional
// from and to dates, both inclusive.
func (h *ImportHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.actorID(w, r)
	if !ok {
		return
	}

	from, to, err := h.exportRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var buf bytes.Buffer
	count, err := h.importSvc.Export(r.Context(), actorID, from, to, &buf)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "unknown user")
			return
		}
		h.logger.Error("failed to export transactions", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "failed to export transactions")
		return
	}

	w.Header().Set("X-Total-Count", strconv.Itoa(count))
	writeWorkbook(w, importservice.ExportFileName(h.now().In(h.location)), buf.Bytes())
}

func (h *ImportHandler) exportRange(r *http.Request) (time.Time, time.Time, error) {
	var from, to time.Time
	q := r.URL.Query()

	if raw := strings.TrimSpace(q.Get("from")); raw != "" {
		t, err := time.ParseInLocation(queryDateLayout, raw, h.location)
		if err != nil {
			return from, to, fmt.Errorf("invalid from date %q, expected YYYY-MM-DD", raw)
		}
		from = t
	}
	if raw := strings.TrimSpace(q.Get("to")); raw != "" {
		t, err := time.ParseInLocation(queryDateLayout, raw, h.location)
		if err != nil {
			return from, to, fmt.Errorf("invalid to date %q, expected YYYY-MM-DD", raw)
		}
		to = t.AddDate(0, 0, 1)
	}
	if !from.IsZero() && !to.IsZero() && !from.Before(to) {
		return from, to, errors.New("from must not be after to")
	}
	return from, to, nil
}

func (h *ImportHandler) actorID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userIDStr, ok := interceptors.GetUserIDFromContext(r.Context())
	if !ok || userIDStr == "" {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return uuid.Nil, false
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid user id in token")
		return uuid.Nil, false
	}
	return userID, true
}

func policyFromForm(r *http.Request, defaults importservice.Policy) (importservice.Policy, error) {
	policy := defaults
	var err error
	if policy.AutoCreateAccount, err = formBool(r, "autoCreateAccount", defaults.AutoCreateAccount); err != nil {
		return policy, err
	}
	if policy.AutoCreateCategory, err = formBool(r, "autoCreateCategory", defaults.AutoCreateCategory); err != nil {
		return policy, err
	}
	return policy, nil
}

// formBool reads an optional boolean field. HTML checkboxes submit "on".
func formBool(r *http.Request, key string, fallback bool) (bool, error) {
	raw := strings.TrimSpace(r.FormValue(key))
	switch strings.ToLower(raw) {
	case "":
		return fallback, nil
	case "on", "yes":
		return true, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q", key, raw)
	}
	return v, nil
}

func writeWorkbook(w http.ResponseWriter, fileName string, data []byte) {
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": fileName}))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", slog.Any("error", err))
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
