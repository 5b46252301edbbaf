package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/linkflyer/venued/pkg/enrich"
	"github.com/linkflyer/venued/pkg/venue"
)

type memSource struct {
	mu      sync.Mutex
	records []venue.Record
	ready   bool
}

func (m *memSource) Records() []venue.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records
}

func (m *memSource) Ready() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ready
}

func (m *memSource) add(rec venue.Record) {
	m.mu.Lock()
	m.records = append(m.records, rec)
	m.ready = true
	m.mu.Unlock()
}

type fakeEnricher struct {
	calls  []venue.Query
	rec    *venue.Record
	err    error
	onCall func(*venue.Record)
}

func (f *fakeEnricher) Enrich(_ context.Context, q venue.Query) (*venue.Record, error) {
	f.calls = append(f.calls, q)
	if f.err != nil {
		return nil, f.err
	}
	if f.onCall != nil {
		f.onCall(f.rec)
	}
	return f.rec, nil
}

func catalogSource() *memSource {
	src := &memSource{}
	src.add(venue.Record{ID: "p1", Name: "Liquid Room", Address: "Shibuya, Tokyo"})
	src.add(venue.Record{ID: "p2", Name: "Unit", Address: "Daikanyama, Tokyo"})
	return src
}

func TestResolveFromCatalog(t *testing.T) {
	src := catalogSource()
	enricher := &fakeEnricher{}
	p := New(venue.NewResolver(src, venue.Options{}), enricher, "", nil)

	out := p.Resolve(context.Background(), Event{
		Name:      "Friday Night",
		VenueName: "Liquid Room",
		Locality:  "Shibuya",
	})
	if !out.Matched || out.Source != SourceCatalog {
		t.Fatalf("outcome = %+v", out)
	}
	if out.Record.ID != "p1" {
		t.Errorf("record = %+v", out.Record)
	}
	if out.Score < 0.6 {
		t.Errorf("score = %v", out.Score)
	}
	if len(enricher.calls) != 0 {
		t.Error("enricher must not run on a catalog match")
	}
}

func TestResolveVenueNameDefaultsToEventName(t *testing.T) {
	p := New(venue.NewResolver(catalogSource(), venue.Options{}), nil, "", nil)

	out := p.Resolve(context.Background(), Event{Name: "Liquid Room", Locality: "Shibuya"})
	if !out.Matched || out.Record.ID != "p1" {
		t.Errorf("outcome = %+v", out)
	}
}

func TestResolveDefaultLocality(t *testing.T) {
	p := New(venue.NewResolver(catalogSource(), venue.Options{}), nil, "Shibuya", nil)

	out := p.Resolve(context.Background(), Event{Name: "x", VenueName: "Liquid Room"})
	if !out.Matched {
		t.Fatalf("outcome = %+v", out)
	}
	if out.Scores == nil || out.Scores.Locality == 0 {
		t.Errorf("default locality should contribute to the score: %+v", out.Scores)
	}
}

func TestResolveEnrichmentFallback(t *testing.T) {
	src := catalogSource()
	rec := &venue.Record{ID: "p9", Name: "Womb", Address: "Maruyamacho, Shibuya, Tokyo"}
	enricher := &fakeEnricher{rec: rec}
	// Simulate the catalog refresh that follows a successful enrichment.
	enricher.onCall = func(r *venue.Record) { src.add(*r) }
	p := New(venue.NewResolver(src, venue.Options{}), enricher, "", nil)

	out := p.Resolve(context.Background(), Event{Name: "x", VenueName: "Womb", Locality: "Shibuya"})
	if !out.Matched || out.Source != SourceLookup {
		t.Fatalf("outcome = %+v", out)
	}
	if out.Record.ID != "p9" || out.Score < 0.6 {
		t.Errorf("record = %+v score = %v", out.Record, out.Score)
	}
}

func TestResolveEnrichmentNoPlace(t *testing.T) {
	enricher := &fakeEnricher{err: enrich.ErrNoPlace}
	p := New(venue.NewResolver(catalogSource(), venue.Options{}), enricher, "", nil)

	out := p.Resolve(context.Background(), Event{Name: "x", VenueName: "Nowhere Club"})
	if out.Matched {
		t.Fatalf("outcome = %+v", out)
	}
	if out.Error == "" {
		t.Error("outcome should carry the enrichment error")
	}
}

func TestResolveBatchNeverAborts(t *testing.T) {
	enricher := &fakeEnricher{err: errors.New("service down")}
	p := New(venue.NewResolver(catalogSource(), venue.Options{}), enricher, "", nil)

	events := []Event{
		{Name: "a", VenueName: "Nowhere Club"},
		{Name: "b", VenueName: "Liquid Room", Locality: "Shibuya"},
		{Name: "c", VenueName: ""},
	}
	outcomes := p.ResolveBatch(context.Background(), events)
	if len(outcomes) != 3 {
		t.Fatalf("got %d outcomes, want 3", len(outcomes))
	}
	if outcomes[0].Matched || outcomes[0].Error == "" {
		t.Errorf("outcome[0] = %+v", outcomes[0])
	}
	if !outcomes[1].Matched {
		t.Errorf("outcome[1] = %+v", outcomes[1])
	}
}

func TestResolveBatchHonorsCancellation(t *testing.T) {
	p := New(venue.NewResolver(catalogSource(), venue.Options{}), nil, "", nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcomes := p.ResolveBatch(ctx, []Event{{Name: "a", VenueName: "Liquid Room"}})
	if len(outcomes) != 1 {
		t.Fatalf("got %d outcomes, want 1", len(outcomes))
	}
	if outcomes[0].Matched || outcomes[0].Error == "" {
		t.Errorf("outcome = %+v", outcomes[0])
	}
}
