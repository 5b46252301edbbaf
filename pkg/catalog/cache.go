package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/linkflyer/venued/pkg/venue"
)

// ErrSourceUnavailable marks a refresh that could not reach the catalog
// store; the previously-served snapshot stays in effect.
var ErrSourceUnavailable = errors.New("catalog source unavailable")

// Source supplies the full active-venue set for a snapshot.
type Source interface {
	ListActive(ctx context.Context) ([]venue.Record, error)
}

// Cache serves an immutable snapshot of the catalog. Refresh builds the new
// snapshot fully off to the side and swaps it under the lock, so concurrent
// readers observe either the old or the new set, never a mix.
type Cache struct {
	mu      sync.RWMutex
	records []venue.Record
	ready   bool

	source Source
	logger *slog.Logger
}

// NewCache creates an empty, not-ready cache over the given source. Callers
// perform the initial Refresh themselves; if it fails, the cache stays empty
// and not-ready so the resolver short-circuits to "no match".
func NewCache(source Source, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{source: source, logger: logger}
}

// Refresh queries the source for the full active set and atomically replaces
// the served snapshot. On failure the prior snapshot remains in effect
// (fail-open, stale-but-available).
func (c *Cache) Refresh(ctx context.Context) error {
	records, err := c.source.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}

	c.mu.Lock()
	c.records = records
	c.ready = true
	c.mu.Unlock()

	c.logger.Info("catalog snapshot refreshed", "venues", len(records))
	return nil
}

// Records returns the currently-served snapshot. It never blocks on I/O.
// Callers must not mutate the returned slice.
func (c *Cache) Records() []venue.Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.records
}

// Ready reports whether at least one refresh has succeeded.
func (c *Cache) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ready
}

// Size returns the number of records in the current snapshot.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}
