// Package enrich grows the venue catalog on demand. When the resolver
// cannot match a query against the current snapshot, the enricher asks
// the place lookup service, persists whatever it finds, and refreshes
// the catalog so the next query hits the new record.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/linkflyer/venued/pkg/catalog"
	"github.com/linkflyer/venued/pkg/places"
	"github.com/linkflyer/venued/pkg/venue"
)

var (
	// ErrUnavailable reports that the lookup service could not be
	// reached or answered with an error.
	ErrUnavailable = errors.New("enrichment service unavailable")

	// ErrNoPlace reports that the lookup service found nothing for
	// the query.
	ErrNoPlace = errors.New("no place found for query")
)

// Lookup is the slice of the places client the enricher uses.
type Lookup interface {
	SearchText(ctx context.Context, query string) (places.Match, error)
	Details(ctx context.Context, placeID string) (venue.Record, error)
}

// Writer persists new venue records.
type Writer interface {
	Insert(ctx context.Context, rec venue.Record) error
}

// Refresher reloads the catalog snapshot after a write.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Enricher runs the lookup-persist-refresh fallback.
type Enricher struct {
	lookup    Lookup
	writer    Writer
	refresher Refresher
	cache     *catalog.LookupCache
	logger    *slog.Logger
}

// New builds an Enricher. cache may be nil to disable result caching.
func New(lookup Lookup, writer Writer, refresher Refresher, cache *catalog.LookupCache, logger *slog.Logger) *Enricher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Enricher{
		lookup:    lookup,
		writer:    writer,
		refresher: refresher,
		cache:     cache,
		logger:    logger,
	}
}

// Enrich looks up the query with the external service, stores the
// resulting record, and refreshes the catalog. Negative lookups are
// cached so repeated unresolvable queries stay cheap.
func (e *Enricher) Enrich(ctx context.Context, q venue.Query) (*venue.Record, error) {
	var cacheKey string
	if e.cache != nil {
		cacheKey = e.cache.Key(q.Name, q.Locality)
		rec, found, err := e.cache.Get(ctx, cacheKey)
		if err != nil {
			e.logger.Warn("lookup cache read failed", "error", err)
		} else if found {
			if rec == nil {
				return nil, fmt.Errorf("%q: %w (cached)", q.Name, ErrNoPlace)
			}
			e.logger.Debug("lookup cache hit", "query", q.Name, "place_id", rec.ID)
			return rec, nil
		}
	}

	query := strings.TrimSpace(q.Name + " " + q.Locality)
	match, err := e.lookup.SearchText(ctx, query)
	if err != nil {
		if errors.Is(err, places.ErrNoResult) {
			if e.cache != nil {
				if cerr := e.cache.Put(ctx, cacheKey, nil); cerr != nil {
					e.logger.Warn("lookup cache write failed", "error", cerr)
				}
			}
			return nil, fmt.Errorf("%q: %w", q.Name, ErrNoPlace)
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if match.PlaceID == "" {
		// The service occasionally returns a hit without an ID.
		// Mint one so the record can still be stored and matched.
		match.PlaceID = uuid.NewString()
	}

	rec, err := e.lookup.Details(ctx, match.PlaceID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if rec.Name == "" {
		rec.Name = match.Name
	}

	if err := e.writer.Insert(ctx, rec); err != nil {
		return nil, fmt.Errorf("persist enriched venue %s: %w", rec.ID, err)
	}
	if err := e.refresher.Refresh(ctx); err != nil {
		// The record is stored; the periodic refresher will pick it up.
		e.logger.Warn("catalog refresh after enrichment failed", "place_id", rec.ID, "error", err)
	}

	if e.cache != nil {
		if cerr := e.cache.Put(ctx, cacheKey, &rec); cerr != nil {
			e.logger.Warn("lookup cache write failed", "error", cerr)
		}
	}

	e.logger.Info("venue enriched", "query", q.Name, "place_id", rec.ID, "name", rec.Name)
	return &rec, nil
}
