package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/linkflyer/venued/pkg/catalog"
	"github.com/linkflyer/venued/pkg/pipeline"
	"github.com/linkflyer/venued/pkg/venue"
)

type fakeSource struct {
	mu      sync.Mutex
	records []venue.Record
	fail    bool
}

func (f *fakeSource) ListActive(context.Context) ([]venue.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, errors.New("source down")
	}
	return f.records, nil
}

func testRouter(t *testing.T, src *fakeSource, refreshed bool) (http.Handler, *catalog.Cache) {
	t.Helper()
	cache := catalog.NewCache(src, nil)
	if refreshed {
		if err := cache.Refresh(context.Background()); err != nil {
			t.Fatalf("Refresh: %v", err)
		}
	}
	resolver := venue.NewResolver(cache, venue.Options{})
	p := pipeline.New(resolver, nil, "", nil)
	return NewRouter(Deps{Pipeline: p, Cache: cache, Resolver: resolver}), cache
}

func seededSource() *fakeSource {
	return &fakeSource{records: []venue.Record{
		{ID: "p1", Name: "Liquid Room", Address: "Shibuya, Tokyo"},
		{ID: "p2", Name: "Unit", Address: "Daikanyama, Tokyo"},
	}}
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestResolveEndpoint(t *testing.T) {
	h, _ := testRouter(t, seededSource(), true)

	rr := doJSON(t, h, http.MethodPost, "/v1/resolve",
		`{"event_name":"Friday Night","venue_name":"Liquid Room","locality":"Shibuya"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}

	var out pipeline.Outcome
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !out.Matched || out.Record == nil || out.Record.ID != "p1" {
		t.Errorf("outcome = %+v", out)
	}
}

func TestResolveNotReady(t *testing.T) {
	h, _ := testRouter(t, seededSource(), false)

	rr := doJSON(t, h, http.MethodPost, "/v1/resolve", `{"venue_name":"Liquid Room"}`)
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rr.Code)
	}
}

func TestResolveBadRequests(t *testing.T) {
	h, _ := testRouter(t, seededSource(), true)

	if rr := doJSON(t, h, http.MethodPost, "/v1/resolve", `{not json`); rr.Code != http.StatusBadRequest {
		t.Errorf("invalid JSON: status = %d, want 400", rr.Code)
	}
	if rr := doJSON(t, h, http.MethodPost, "/v1/resolve", `{}`); rr.Code != http.StatusBadRequest {
		t.Errorf("empty event: status = %d, want 400", rr.Code)
	}
	if rr := doJSON(t, h, http.MethodGet, "/v1/resolve", ""); rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET resolve: status = %d, want 405", rr.Code)
	}
}

func TestResolveBatchEndpoint(t *testing.T) {
	h, _ := testRouter(t, seededSource(), true)

	rr := doJSON(t, h, http.MethodPost, "/v1/resolve/batch",
		`{"events":[{"venue_name":"Liquid Room","locality":"Shibuya"},{"venue_name":"Nowhere Club"}]}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Results []pipeline.Outcome `json:"results"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("got %d results, want 2", len(resp.Results))
	}
	if !resp.Results[0].Matched || resp.Results[1].Matched {
		t.Errorf("results = %+v", resp.Results)
	}
}

func TestResolveBatchEmpty(t *testing.T) {
	h, _ := testRouter(t, seededSource(), true)

	rr := doJSON(t, h, http.MethodPost, "/v1/resolve/batch", `{"events":[]}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestRefreshEndpoint(t *testing.T) {
	src := seededSource()
	h, cache := testRouter(t, src, true)

	src.mu.Lock()
	src.records = append(src.records, venue.Record{ID: "p3", Name: "Womb"})
	src.mu.Unlock()

	rr := doJSON(t, h, http.MethodPost, "/v1/catalog/refresh", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	if cache.Size() != 3 {
		t.Errorf("cache size = %d, want 3", cache.Size())
	}
}

func TestRefreshEndpointSourceDown(t *testing.T) {
	src := seededSource()
	h, _ := testRouter(t, src, true)

	src.mu.Lock()
	src.fail = true
	src.mu.Unlock()

	rr := doJSON(t, h, http.MethodPost, "/v1/catalog/refresh", "")
	if rr.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rr.Code)
	}
}

func TestStatsEndpoint(t *testing.T) {
	h, _ := testRouter(t, seededSource(), true)

	rr := doJSON(t, h, http.MethodGet, "/v1/catalog/stats", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	var resp statsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Ready || resp.Venues != 2 {
		t.Errorf("stats = %+v", resp)
	}
	if resp.MinScore != 0.6 || resp.PreFilter != 0.3 {
		t.Errorf("thresholds = %+v", resp)
	}
}

func TestHealthEndpoint(t *testing.T) {
	h, _ := testRouter(t, seededSource(), false)

	rr := doJSON(t, h, http.MethodGet, "/v1/health", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp healthResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "starting" || resp.Ready {
		t.Errorf("health = %+v", resp)
	}
}

func TestRequestIDHeader(t *testing.T) {
	h, _ := testRouter(t, seededSource(), true)

	rr := doJSON(t, h, http.MethodGet, "/v1/health", "")
	if rr.Header().Get("X-Request-Id") == "" {
		t.Error("response should carry a generated request ID")
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
	req.Header.Set("X-Request-Id", "req-42")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if got := rr.Header().Get("X-Request-Id"); got != "req-42" {
		t.Errorf("request ID = %q, want echoed req-42", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	h, _ := testRouter(t, seededSource(), true)

	rr := doJSON(t, h, http.MethodOptions, "/v1/resolve", "")
	if rr.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rr.Code)
	}
	if rr.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS header")
	}
}
