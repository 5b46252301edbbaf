package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/linkflyer/venued/pkg/venue"
)

// fakeSource serves a settable record set and can be told to fail.
type fakeSource struct {
	mu      sync.Mutex
	records []venue.Record
	fail    bool
}

func (f *fakeSource) set(records []venue.Record, fail bool) {
	f.mu.Lock()
	f.records = records
	f.fail = fail
	f.mu.Unlock()
}

func (f *fakeSource) ListActive(context.Context) ([]venue.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, errors.New("connection refused")
	}
	out := make([]venue.Record, len(f.records))
	copy(out, f.records)
	return out, nil
}

func TestCacheStartsNotReady(t *testing.T) {
	c := NewCache(&fakeSource{}, nil)
	if c.Ready() {
		t.Error("cache must not be ready before the first successful refresh")
	}
	if got := c.Records(); len(got) != 0 {
		t.Errorf("Records = %v, want empty", got)
	}
}

func TestCacheRefresh(t *testing.T) {
	src := &fakeSource{}
	src.set([]venue.Record{{ID: "p1", Name: "Liquid Room"}}, false)
	c := NewCache(src, nil)

	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if !c.Ready() {
		t.Error("cache should be ready after a successful refresh")
	}
	if c.Size() != 1 {
		t.Errorf("Size = %d, want 1", c.Size())
	}
}

func TestCacheRefreshFailureKeepsSnapshot(t *testing.T) {
	src := &fakeSource{}
	src.set([]venue.Record{{ID: "p1", Name: "Liquid Room"}}, false)
	c := NewCache(src, nil)

	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("initial refresh: %v", err)
	}

	src.set(nil, true)
	err := c.Refresh(context.Background())
	if err == nil {
		t.Fatal("expected refresh failure")
	}
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Errorf("error = %v, want ErrSourceUnavailable", err)
	}

	// Fail-open: the prior snapshot stays in effect.
	if !c.Ready() {
		t.Error("cache must stay ready after a failed refresh")
	}
	if c.Size() != 1 {
		t.Errorf("Size = %d, want 1 (stale snapshot preserved)", c.Size())
	}
}

func TestCacheFailedInitialRefreshStaysNotReady(t *testing.T) {
	src := &fakeSource{}
	src.set(nil, true)
	c := NewCache(src, nil)

	if err := c.Refresh(context.Background()); err == nil {
		t.Fatal("expected refresh failure")
	}
	if c.Ready() {
		t.Error("cache must stay not-ready when the initial refresh fails")
	}
}

func TestCacheSnapshotAtomicity(t *testing.T) {
	src := &fakeSource{}
	snapA := []venue.Record{{ID: "a1"}, {ID: "a2"}}
	snapB := []venue.Record{{ID: "b1"}, {ID: "b2"}, {ID: "b3"}}
	src.set(snapA, false)

	c := NewCache(src, nil)
	if err := c.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	var writer sync.WaitGroup

	// Writer: alternate between the two snapshots until the readers finish.
	writer.Add(1)
	go func() {
		defer writer.Done()
		for i := 0; ; i++ {
			select {
			case <-done:
				return
			default:
			}
			if i%2 == 0 {
				src.set(snapB, false)
			} else {
				src.set(snapA, false)
			}
			if err := c.Refresh(context.Background()); err != nil {
				t.Errorf("Refresh: %v", err)
				return
			}
		}
	}()

	// Readers: every observed snapshot must be fully A or fully B.
	var readers sync.WaitGroup
	for r := 0; r < 4; r++ {
		readers.Add(1)
		go func() {
			defer readers.Done()
			for i := 0; i < 500; i++ {
				got := c.Records()
				switch len(got) {
				case len(snapA):
					if got[0].ID != "a1" || got[1].ID != "a2" {
						t.Errorf("mixed snapshot observed: %v", got)
						return
					}
				case len(snapB):
					if got[0].ID != "b1" || got[2].ID != "b3" {
						t.Errorf("mixed snapshot observed: %v", got)
						return
					}
				default:
					t.Errorf("snapshot of unexpected size: %v", got)
					return
				}
			}
		}()
	}

	readers.Wait()
	close(done)
	writer.Wait()
}
