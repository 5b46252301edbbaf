// Package pipeline turns raw event rows into resolved venues. It wires
// the catalog resolver and the enrichment fallback together and fills
// in the defaults a scraped event row tends to be missing.
package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/linkflyer/venued/pkg/enrich"
	"github.com/linkflyer/venued/pkg/venue"
)

// Event is one raw row to resolve. VenueName and Locality may be empty;
// the pipeline falls back to the event name and the default locality.
type Event struct {
	Date      string `json:"date,omitempty"`
	Name      string `json:"event_name"`
	VenueName string `json:"venue_name,omitempty"`
	Locality  string `json:"locality,omitempty"`
}

// Match sources reported in Outcome.
const (
	SourceCatalog = "catalog"
	SourceLookup  = "lookup"
)

// Outcome is the result of resolving one event.
type Outcome struct {
	Event   Event                 `json:"event"`
	Matched bool                  `json:"matched"`
	Source  string                `json:"source,omitempty"`
	Record  *venue.Record         `json:"venue,omitempty"`
	Score   float64               `json:"score,omitempty"`
	Scores  *venue.StrategyScores `json:"scores,omitempty"`
	Error   string                `json:"error,omitempty"`
}

// Enricher is the fallback used when the catalog has no confident match.
type Enricher interface {
	Enrich(ctx context.Context, q venue.Query) (*venue.Record, error)
}

// Pipeline resolves events against the catalog with an optional
// enrichment fallback.
type Pipeline struct {
	resolver        *venue.Resolver
	enricher        Enricher
	defaultLocality string
	logger          *slog.Logger
}

// New builds a Pipeline. enricher may be nil to resolve catalog-only;
// defaultLocality seeds events that carry no locality of their own.
func New(resolver *venue.Resolver, enricher Enricher, defaultLocality string, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		resolver:        resolver,
		enricher:        enricher,
		defaultLocality: defaultLocality,
		logger:          logger,
	}
}

// Resolve resolves a single event. A failed enrichment yields an
// unmatched outcome with the error recorded, never a hard failure.
func (p *Pipeline) Resolve(ctx context.Context, ev Event) Outcome {
	q := venue.Query{Name: ev.VenueName, Locality: ev.Locality}
	if q.Name == "" {
		// Club listings often put the venue in the event title.
		q.Name = ev.Name
	}
	if q.Locality == "" {
		q.Locality = p.defaultLocality
	}

	if best, ok := p.resolver.Search(q); ok {
		return Outcome{
			Event:   ev,
			Matched: true,
			Source:  SourceCatalog,
			Record:  &best.Record,
			Score:   best.Combined,
			Scores:  &best.Components,
		}
	}

	if p.enricher == nil {
		return Outcome{Event: ev}
	}

	rec, err := p.enricher.Enrich(ctx, q)
	if err != nil {
		if !errors.Is(err, enrich.ErrNoPlace) {
			p.logger.Warn("enrichment failed", "venue", q.Name, "error", err)
		}
		return Outcome{Event: ev, Error: err.Error()}
	}

	// The catalog now holds the record; rescore so the outcome carries
	// the same confidence a repeat query would get.
	if best, ok := p.resolver.Search(q); ok {
		return Outcome{
			Event:   ev,
			Matched: true,
			Source:  SourceLookup,
			Record:  &best.Record,
			Score:   best.Combined,
			Scores:  &best.Components,
		}
	}
	// The lookup hit does not clear the confidence threshold against
	// the query. Surface it anyway, unscored, and let the caller judge.
	return Outcome{Event: ev, Matched: true, Source: SourceLookup, Record: rec}
}

// ResolveBatch resolves events in order. One bad row never aborts the
// batch; its outcome carries the error instead.
func (p *Pipeline) ResolveBatch(ctx context.Context, events []Event) []Outcome {
	outcomes := make([]Outcome, 0, len(events))
	for _, ev := range events {
		if err := ctx.Err(); err != nil {
			outcomes = append(outcomes, Outcome{Event: ev, Error: err.Error()})
			continue
		}
		outcomes = append(outcomes, p.Resolve(ctx, ev))
	}
	return outcomes
}
