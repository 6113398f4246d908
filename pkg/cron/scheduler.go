// Package cron provides scheduled background jobs using robfig/cron.
package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// UploadPurger removes archived uploads older than a cutoff.
type UploadPurger interface {
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

// Sweeper drops idle in-memory state, such as rate limiter buckets.
type Sweeper interface {
	Sweep()
}

// Config selects which jobs run and when. Specs use the standard 5-field format.
type Config struct {
	Retention         time.Duration // zero disables the upload purge
	RetentionSchedule string
	SweepSchedule     string
}

// Scheduler manages background scheduled jobs using robfig/cron.
type Scheduler struct {
	cron    *cron.Cron
	cfg     Config
	uploads UploadPurger
	sweeper Sweeper
	logger  *slog.Logger
	now     func() time.Time
}

// NewScheduler creates a new job scheduler. uploads and sweeper may be nil.
func NewScheduler(cfg Config, uploads UploadPurger, sweeper Sweeper, logger *slog.Logger) *Scheduler {
	if cfg.RetentionSchedule == "" {
		cfg.RetentionSchedule = "0 3 * * *"
	}
	if cfg.SweepSchedule == "" {
		cfg.SweepSchedule = "@every 10m"
	}

	c := cron.New(
		cron.WithLogger(cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)

	return &Scheduler{
		cron:    c,
		cfg:     cfg,
		uploads: uploads,
		sweeper: sweeper,
		logger:  logger,
		now:     time.Now,
	}
}

// Start registers the enabled jobs and begins running them.
func (s *Scheduler) Start() error {
	if s.uploads != nil && s.cfg.Retention > 0 {
		if _, err := s.cron.AddFunc(s.cfg.RetentionSchedule, s.purgeExpiredUploads); err != nil {
			return fmt.Errorf("failed to schedule upload purge: %w", err)
		}
	}
	if s.sweeper != nil {
		if _, err := s.cron.AddFunc(s.cfg.SweepSchedule, s.sweeper.Sweep); err != nil {
			return fmt.Errorf("failed to schedule rate limiter sweep: %w", err)
		}
	}

	s.cron.Start()
	s.logger.Info("cron scheduler started",
		slog.Int("jobs", len(s.cron.Entries())),
	)
	return nil
}

// Stop gracefully stops all scheduled jobs.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("cron scheduler stopping")
	return s.cron.Stop()
}

// Entries exposes the registered jobs.
func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}

// RunNow triggers the upload purge in the background.
func (s *Scheduler) RunNow() {
	go s.purgeExpiredUploads()
}

func (s *Scheduler) purgeExpiredUploads() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	cutoff := s.now().Add(-s.cfg.Retention)
	s.logger.Info("starting upload retention purge", slog.Time("cutoff", cutoff))

	purged, err := s.uploads.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		s.logger.Error("upload retention purge failed",
			slog.Int("files_purged", purged),
			slog.Any("error", err),
		)
		return
	}

	s.logger.Info("upload retention purge completed",
		slog.Int("files_purged", purged),
	)
}
