package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	importhandler "github.com/FACorreiaa/household-ledger/internal/domain/import/handler"
	importservice "github.com/FACorreiaa/household-ledger/internal/domain/import/service"
	"github.com/FACorreiaa/household-ledger/pkg/interceptors"
)

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

type stubImporter struct{}

func (stubImporter) Import(context.Context, importservice.ImportRequest) (*importservice.ImportReport, error) {
	return &importservice.ImportReport{Success: true}, nil
}

func (stubImporter) WriteTemplate(w io.Writer) error {
	_, err := w.Write([]byte("xlsx"))
	return err
}

func (stubImporter) Export(context.Context, uuid.UUID, time.Time, time.Time, io.Writer) (int, error) {
	return 0, nil
}

func testRouter(health Pinger) (http.Handler, *interceptors.TokenVerifier) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	verifier := interceptors.NewTokenVerifier([]byte("secret"), "household-ledger")
	return newRouter(routerConfig{
		CORSOrigins:   []string{"https://app.example"},
		Logger:        logger,
		Health:        health,
		TokenVerifier: verifier,
		RateLimiter:   interceptors.NewRateLimiter(600, 50),
		ImportHandler: importhandler.NewImportHandler(stubImporter{}, logger),
	}), verifier
}

func TestHealthz(t *testing.T) {
	router, _ := testRouter(stubPinger{})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	router, _ = testRouter(stubPinger{err: errors.New("down")})
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAPIRequiresToken(t *testing.T) {
	router, verifier := testRouter(stubPinger{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/transactions/import/template", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := verifier.Issue(uuid.NewString(), time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions/import/template", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "xlsx", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("Content-Disposition"))
}

func TestCORSPreflight(t *testing.T) {
	router, _ := testRouter(stubPinger{})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/transactions/import", bytes.NewReader(nil))
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "https://app.example", rec.Header().Get("Access-Control-Allow-Origin"))
}
