// Package cleanup runs the periodic sweeps that keep in-memory state bounded:
// the revoked-token denylist and the per-client rate limit buckets.
package cleanup

import (
	"context"
	"time"

	"github.com/AlibekovAA/dining-quiz/backend/internal/common/logger"
	"github.com/AlibekovAA/dining-quiz/backend/internal/observability/metrics"
)

type ExpiredDeleter interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// StartCleanup calls DeleteExpired every interval until ctx is done.
func StartCleanup(ctx context.Context, target ExpiredDeleter, interval time.Duration, log *logger.Logger, name string) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.WithFields(ctx, logger.Fields{
		"sweeper":  name,
		"interval": interval.String(),
		"action":   "sweeper_started",
	}).Debug("sweeper started")

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			RunOnce(ctx, target, log, name)
		}
	}
}

func RunOnce(ctx context.Context, target ExpiredDeleter, log *logger.Logger, name string) int64 {
	deleted, err := target.DeleteExpired(ctx)
	if deleted > 0 {
		metrics.SweptEntriesTotal.WithLabelValues(name).Add(float64(deleted))
	}
	if err != nil {
		if ctx.Err() == nil {
			log.WithFields(ctx, logger.Fields{
				"sweeper": name,
				"action":  "sweep_failed",
			}).Errorf("sweep failed: %v", err)
		}
		return deleted
	}
	if deleted > 0 {
		log.WithFields(ctx, logger.Fields{
			"sweeper": name,
			"deleted": deleted,
			"action":  "sweep_done",
		}).Debug("expired entries removed")
	}
	return deleted
}
