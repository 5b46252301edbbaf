package api

import (
	"encoding/json"
	"net"
	"net/http"

	"github.com/google/uuid"

	"github.com/linkflyer/venued/pkg/catalog"
	"github.com/linkflyer/venued/pkg/kit"
	"github.com/linkflyer/venued/pkg/pipeline"
	"github.com/linkflyer/venued/pkg/venue"
)

// Deps are the shared backends the API serves from.
type Deps struct {
	Pipeline *pipeline.Pipeline
	Cache    *catalog.Cache
	Resolver *venue.Resolver
}

// NewRouter returns an http.Handler with all venued API routes.
func NewRouter(deps Deps) http.Handler {
	mux := http.NewServeMux()
	h := &handler{
		resolve:      resolveEndpoint(deps.Pipeline),
		resolveBatch: resolveBatchEndpoint(deps.Pipeline),
		refresh:      refreshEndpoint(deps.Cache),
		stats:        statsEndpoint(deps.Cache, deps.Resolver),
		cache:        deps.Cache,
	}

	mux.HandleFunc("GET /v1/resolve", methodNotAllowed) // resolution is POST-only
	mux.HandleFunc("POST /v1/resolve", h.handleResolve)
	mux.HandleFunc("POST /v1/resolve/batch", h.handleResolveBatch)
	mux.HandleFunc("POST /v1/catalog/refresh", h.handleRefresh)
	mux.HandleFunc("GET /v1/catalog/stats", h.handleStats)
	mux.HandleFunc("GET /v1/health", h.handleHealth)

	return cors(requestContext(mux))
}

type handler struct {
	resolve      kit.Endpoint
	resolveBatch kit.Endpoint
	refresh      kit.Endpoint
	stats        kit.Endpoint
	cache        *catalog.Cache
}

// --- resolve single event ---

func (h *handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	if !h.cache.Ready() {
		writeError(w, http.StatusServiceUnavailable, "catalog not ready")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 64*1024) // 64 KiB max
	var ev pipeline.Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	resp, err := h.resolve(r.Context(), &resolveReq{Event: ev})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- resolve batch ---

type httpBatchRequest struct {
	Events []pipeline.Event `json:"events"`
}

func (h *handler) handleResolveBatch(w http.ResponseWriter, r *http.Request) {
	if !h.cache.Ready() {
		writeError(w, http.StatusServiceUnavailable, "catalog not ready")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MiB max
	var req httpBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	resp, err := h.resolveBatch(r.Context(), &resolveBatchReq{Events: req.Events})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- catalog refresh ---

func (h *handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	resp, err := h.refresh(r.Context(), nil)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- catalog stats ---

func (h *handler) handleStats(w http.ResponseWriter, r *http.Request) {
	resp, err := h.stats(r.Context(), nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- health ---

type healthResponse struct {
	Status string `json:"status"`
	Ready  bool   `json:"ready"`
	Venues int    `json:"venues"`
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if !h.cache.Ready() {
		status = "starting"
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status: status,
		Ready:  h.cache.Ready(),
		Venues: h.cache.Size(),
	})
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

// requestContext tags each request with an ID and the caller's address,
// echoing the ID back for log correlation.
func requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		ctx := kit.WithRequestID(r.Context(), id)
		ctx = kit.WithTransport(ctx, "http")
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			ctx = kit.WithClientIP(ctx, host)
		}
		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// cors is a simple CORS middleware for browser-based clients.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
