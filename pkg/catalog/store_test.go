package catalog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/linkflyer/venued/pkg/venue"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "venues.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreInsertAndList(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()

	lat, lng := 35.6595, 139.7005
	recs := []venue.Record{
		{ID: "p2", Name: "WWW X", Address: "Shibuya, Tokyo", BusinessStatus: "OPERATIONAL",
			Categories: []string{"night_club"}, Latitude: &lat, Longitude: &lng},
		{ID: "p1", Name: "Liquid Room", Address: "Shibuya, Tokyo", BusinessStatus: "OPERATIONAL"},
	}
	for _, rec := range recs {
		if err := s.Insert(ctx, rec); err != nil {
			t.Fatalf("Insert(%s): %v", rec.ID, err)
		}
	}

	got, err := s.ListActive(ctx)
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListActive = %d records, want 2", len(got))
	}
	// Ordered by place_id.
	if got[0].ID != "p1" || got[1].ID != "p2" {
		t.Errorf("order = %s, %s; want p1, p2", got[0].ID, got[1].ID)
	}
	// Missing coordinates survive the round trip as nil.
	if got[0].Latitude != nil {
		t.Error("p1 latitude should be nil")
	}
	if got[1].Latitude == nil || *got[1].Latitude != lat {
		t.Errorf("p2 latitude = %v, want %v", got[1].Latitude, lat)
	}
	if len(got[1].Categories) != 1 || got[1].Categories[0] != "night_club" {
		t.Errorf("p2 categories = %v", got[1].Categories)
	}
}

func TestStoreInsertDuplicateIgnored(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()

	rec := venue.Record{ID: "p1", Name: "Liquid Room"}
	if err := s.Insert(ctx, rec); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	rec.Name = "Liquid Room Renamed"
	if err := s.Insert(ctx, rec); err != nil {
		t.Fatalf("duplicate insert: %v", err)
	}

	got, err := s.ListActive(ctx)
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d records, want 1", len(got))
	}
	if got[0].Name != "Liquid Room" {
		t.Errorf("duplicate insert overwrote the original: %q", got[0].Name)
	}
}

func TestStoreInsertEmptyID(t *testing.T) {
	s := tempStore(t)
	if err := s.Insert(context.Background(), venue.Record{Name: "nameless"}); err == nil {
		t.Error("expected an error for empty place_id")
	}
}

func TestStoreListActiveExcludesClosed(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()

	if err := s.Insert(ctx, venue.Record{ID: "p1", Name: "Open Club", BusinessStatus: "OPERATIONAL"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Insert(ctx, venue.Record{ID: "p2", Name: "Gone Club", BusinessStatus: "CLOSED_PERMANENTLY"}); err != nil {
		t.Fatal(err)
	}

	got, err := s.ListActive(ctx)
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(got) != 1 || got[0].ID != "p1" {
		t.Errorf("ListActive = %v, want only p1", got)
	}

	n, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 2 {
		t.Errorf("Count = %d, want 2 (closed venues still stored)", n)
	}
}
