package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	importhandler "github.com/FACorreiaa/household-ledger/internal/domain/import/handler"
	"github.com/FACorreiaa/household-ledger/pkg/interceptors"
)

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type routerConfig struct {
	CORSOrigins   []string
	Logger        *slog.Logger
	Health        Pinger
	TokenVerifier *interceptors.TokenVerifier
	RateLimiter   *interceptors.RateLimiter
	ImportHandler *importhandler.ImportHandler
}

func newRouter(cfg routerConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(interceptors.RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition", "X-Total-Count"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler)

	r.Get("/healthz", healthz(cfg.Health))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(interceptors.Authenticate(cfg.TokenVerifier, cfg.Logger))
		r.Use(cfg.RateLimiter.Middleware)
		cfg.ImportHandler.Routes(r)
	})

	return r
}

func healthz(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		if err := db.Ping(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}
