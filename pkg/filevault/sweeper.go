package filevault

import (
	"context"
	"log/slog"
	"time"
)

// DefaultRetention is how long soft-deleted objects stay recoverable before
// the sweep erases them.
const DefaultRetention = 30 * 24 * time.Hour

// Sweeper periodically purges soft-deleted objects past the retention
// window. Scheduling lives here; the erase logic is the service's
// PurgeDeletedOlderThan.
type Sweeper struct {
	service   Service
	retention time.Duration
	interval  time.Duration
	logger    *slog.Logger
}

// NewSweeper creates a sweeper. Zero retention or interval fall back to the
// defaults (30 days, hourly).
func NewSweeper(svc Service, retention, interval time.Duration, logger *slog.Logger) *Sweeper {
	if retention <= 0 {
		retention = DefaultRetention
	}
	if interval <= 0 {
		interval = time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{service: svc, retention: retention, interval: interval, logger: logger}
}

// Run sweeps until ctx is cancelled. Sweep failures are logged and retried
// on the next tick; they never stop the loop.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			purged, err := s.service.PurgeDeletedOlderThan(ctx, s.retention)
			if err != nil {
				s.logger.Error("purge sweep finished with errors", "purged", purged, "err", err)
				continue
			}
			if purged > 0 {
				s.logger.Info("purge sweep completed", "purged", purged)
			}
		}
	}
}
