package catalog

import (
	"context"
	"log/slog"
	"time"
)

// Refresher keeps a cache eventually consistent by refreshing it on a fixed
// interval. Refresh failures are logged and retried on the next tick; the
// cache keeps serving its prior snapshot in between.
type Refresher struct {
	cache    *Cache
	logger   *slog.Logger
	interval time.Duration
}

// NewRefresher creates a Refresher that refreshes cache every interval.
func NewRefresher(cache *Cache, logger *slog.Logger, interval time.Duration) *Refresher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Refresher{cache: cache, logger: logger, interval: interval}
}

// Start runs refreshes every interval until ctx is cancelled. It does not
// perform an immediate refresh; the caller does the initial one so startup
// failures are visible.
func (r *Refresher) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.cache.Refresh(ctx); err != nil {
				r.logger.Warn("periodic catalog refresh failed, serving stale snapshot", "error", err)
			}
		}
	}
}
