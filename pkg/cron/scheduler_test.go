package cron

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePurger struct {
	cutoffs []time.Time
	err     error
}

func (f *fakePurger) PurgeOlderThan(_ context.Context, cutoff time.Time) (int, error) {
	f.cutoffs = append(f.cutoffs, cutoff)
	return 3, f.err
}

type countingSweeper struct{ calls int }

func (c *countingSweeper) Sweep() { c.calls++ }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestScheduler_Start(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		purger  UploadPurger
		sweeper Sweeper
		jobs    int
	}{
		{"purge and sweep", Config{Retention: 24 * time.Hour}, &fakePurger{}, &countingSweeper{}, 2},
		{"retention disabled", Config{}, &fakePurger{}, &countingSweeper{}, 1},
		{"nothing to run", Config{Retention: time.Hour}, nil, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScheduler(tt.cfg, tt.purger, tt.sweeper, testLogger())
			require.NoError(t, s.Start())
			defer s.Stop()

			assert.Len(t, s.Entries(), tt.jobs)
		})
	}

	t.Run("invalid schedule", func(t *testing.T) {
		s := NewScheduler(Config{Retention: time.Hour, RetentionSchedule: "every day"}, &fakePurger{}, nil, testLogger())
		assert.Error(t, s.Start())
	})
}

func TestScheduler_PurgeExpiredUploads(t *testing.T) {
	now := time.Date(2024, 6, 30, 3, 0, 0, 0, time.UTC)

	t.Run("cutoff is now minus retention", func(t *testing.T) {
		purger := &fakePurger{}
		s := NewScheduler(Config{Retention: 30 * 24 * time.Hour}, purger, nil, testLogger())
		s.now = func() time.Time { return now }

		s.purgeExpiredUploads()

		require.Len(t, purger.cutoffs, 1)
		assert.Equal(t, time.Date(2024, 5, 31, 3, 0, 0, 0, time.UTC), purger.cutoffs[0])
	})

	t.Run("failure is logged, not raised", func(t *testing.T) {
		purger := &fakePurger{err: errors.New("disk gone")}
		s := NewScheduler(Config{Retention: time.Hour}, purger, nil, testLogger())

		assert.NotPanics(t, s.purgeExpiredUploads)
		assert.Len(t, purger.cutoffs, 1)
	})
}
