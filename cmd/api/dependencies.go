package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	importhandler "github.com/FACorreiaa/household-ledger/internal/domain/import/handler"
	importrepo "github.com/FACorreiaa/household-ledger/internal/domain/import/repository"
	importservice "github.com/FACorreiaa/household-ledger/internal/domain/import/service"

	"github.com/FACorreiaa/household-ledger/pkg/config"
	"github.com/FACorreiaa/household-ledger/pkg/cron"
	"github.com/FACorreiaa/household-ledger/pkg/db"
	"github.com/FACorreiaa/household-ledger/pkg/interceptors"
	"github.com/FACorreiaa/household-ledger/pkg/storage"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config *config.Config
	DB     *db.DB
	Logger *slog.Logger

	// Repositories
	Gateway importrepo.Gateway

	// Services
	ImportService *importservice.ImportService
	FileStorage   storage.Storage
	TokenVerifier *interceptors.TokenVerifier
	RateLimiter   *interceptors.RateLimiter
	Scheduler     *cron.Scheduler

	// Handlers
	ImportHandler *importhandler.ImportHandler
}

// InitDependencies initializes all application dependencies
func InitDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initDatabase(ctx); err != nil {
		return nil, fmt.Errorf("failed to init database: %w", err)
	}

	if err := deps.initRepositories(); err != nil {
		return nil, fmt.Errorf("failed to init repositories: %w", err)
	}

	if err := deps.initServices(); err != nil {
		deps.Cleanup()
		return nil, fmt.Errorf("failed to init services: %w", err)
	}

	if err := deps.initHandlers(); err != nil {
		deps.Cleanup()
		return nil, fmt.Errorf("failed to init handlers: %w", err)
	}

	logger.Info("all dependencies initialized successfully")

	return deps, nil
}

// initDatabase initializes the database connection and runs migrations
func (d *Dependencies) initDatabase(ctx context.Context) error {
	database, err := db.New(db.Config{
		DSN:             d.Config.Database.DSN(),
		MaxConns:        25,
		MinConns:        5,
		MaxConnLifetime: 5 * time.Minute,
		MaxConnIdleTime: 10 * time.Minute,
	}, d.Logger)
	if err != nil {
		return err
	}

	d.DB = database

	if err := d.DB.RunMigrations(ctx); err != nil {
		d.DB.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	d.Logger.Info("database connected and migrations completed successfully")
	return nil
}

// initRepositories initializes all repository layer dependencies
func (d *Dependencies) initRepositories() error {
	d.Gateway = importrepo.NewPostgresGateway(d.DB.Pool, d.Config.Import.Currency)

	d.Logger.Info("repositories initialized", "currency", d.Config.Import.Currency)
	return nil
}

// initServices initializes all service layer dependencies
func (d *Dependencies) initServices() error {
	jwtSecret := []byte(d.Config.Auth.JWTSecret)
	if len(jwtSecret) == 0 {
		return fmt.Errorf("jwt secret is required")
	}
	d.TokenVerifier = interceptors.NewTokenVerifier(jwtSecret, d.Config.Auth.JWTIssuer)
	d.RateLimiter = interceptors.NewRateLimiter(d.Config.Server.RateLimitPerMinute, d.Config.Server.RateLimitBurst)

	// File storage for archived uploads
	fileStorage, err := storage.New(&storage.Config{
		Type:      storage.StorageTypeLocal,
		LocalPath: d.Config.Import.UploadDir,
	})
	if err != nil {
		return fmt.Errorf("failed to init file storage: %w", err)
	}
	d.FileStorage = fileStorage

	loc, err := d.Config.Import.Location()
	if err != nil {
		return err
	}
	d.ImportService = importservice.NewImportService(d.Gateway, d.Logger).
		WithLocation(loc).
		WithCurrency(d.Config.Import.Currency).
		WithArchive(d.FileStorage)

	d.Scheduler = cron.NewScheduler(cron.Config{
		Retention:         d.Config.Import.Retention(),
		RetentionSchedule: d.Config.Import.RetentionSchedule,
	}, d.FileStorage, d.RateLimiter, d.Logger)

	d.Logger.Info("services initialized")
	return nil
}

// initHandlers initializes all handler dependencies
func (d *Dependencies) initHandlers() error {
	loc, err := d.Config.Import.Location()
	if err != nil {
		return err
	}
	d.ImportHandler = importhandler.NewImportHandler(d.ImportService, d.Logger).
		WithMaxUploadBytes(d.Config.Import.MaxUploadBytes).
		WithTimeout(d.Config.Import.Timeout).
		WithLocation(loc).
		WithDefaultPolicy(importservice.Policy{
			AutoCreateAccount:  d.Config.Import.AutoCreateAccount,
			AutoCreateCategory: d.Config.Import.AutoCreateCategory,
		})

	d.Logger.Info("handlers initialized")
	return nil
}

// Cleanup closes all resources
func (d *Dependencies) Cleanup() {
	if d.DB != nil {
		d.DB.Close()
	}
	d.Logger.Info("cleanup completed")
}
