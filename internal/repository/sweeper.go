package repository

import (
	"context"
	"log/slog"
	"time"

	"gigster_auth/internal/config"
)

// Sweeper periodically removes expired records from a ChallengeStore.
type Sweeper struct {
	store    ChallengeStore
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewSweeper falls back to config.DefaultSweepInterval when interval is not positive.
func NewSweeper(store ChallengeStore, interval time.Duration, logger *slog.Logger) *Sweeper {
	if interval <= 0 {
		interval = config.DefaultSweepInterval
	}
	return &Sweeper{store: store, interval: interval, logger: logger, now: time.Now}
}

// Run sweeps every interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("Challenge sweeper started", "interval", s.interval)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Challenge sweeper stopped")
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce deletes everything expired as of now. Failures are logged and
// retried on the next tick.
func (s *Sweeper) SweepOnce(ctx context.Context) int64 {
	n, err := s.store.DeleteExpired(ctx, s.now().UTC())
	if err != nil {
		s.logger.Error("Failed to delete expired challenges", "error", err)
		return 0
	}
	if n > 0 {
		s.logger.Debug("Deleted expired challenges", "count", n)
	}
	return n
}
