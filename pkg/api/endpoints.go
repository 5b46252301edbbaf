package api

import (
	"context"
	"fmt"

	"github.com/linkflyer/venued/pkg/catalog"
	"github.com/linkflyer/venued/pkg/kit"
	"github.com/linkflyer/venued/pkg/pipeline"
	"github.com/linkflyer/venued/pkg/venue"
)

// Shared request/response types used by both HTTP and MCP transports.

type resolveReq struct {
	Event pipeline.Event
}

type resolveBatchReq struct {
	Events []pipeline.Event
}

type batchResponse struct {
	Results []pipeline.Outcome `json:"results"`
}

type refreshResponse struct {
	Venues int `json:"venues"`
}

type statsResponse struct {
	Ready     bool          `json:"ready"`
	Venues    int           `json:"venues"`
	MinScore  float64       `json:"min_score"`
	PreFilter float64       `json:"pre_filter"`
	Weights   venue.Weights `json:"weights"`
}

// Endpoints returns the core kit.Endpoints backed by the pipeline and cache.

func resolveEndpoint(p *pipeline.Pipeline) kit.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req := request.(*resolveReq)
		if req.Event.Name == "" && req.Event.VenueName == "" {
			return nil, fmt.Errorf("event_name or venue_name is required")
		}
		return p.Resolve(ctx, req.Event), nil
	}
}

func resolveBatchEndpoint(p *pipeline.Pipeline) kit.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req := request.(*resolveBatchReq)
		if len(req.Events) == 0 {
			return nil, fmt.Errorf("events array is empty")
		}
		if len(req.Events) > 100 {
			return nil, fmt.Errorf("too many events (max 100, got %d)", len(req.Events))
		}
		return batchResponse{Results: p.ResolveBatch(ctx, req.Events)}, nil
	}
}

func refreshEndpoint(c *catalog.Cache) kit.Endpoint {
	return func(ctx context.Context, _ any) (any, error) {
		if err := c.Refresh(ctx); err != nil {
			return nil, err
		}
		return refreshResponse{Venues: c.Size()}, nil
	}
}

func statsEndpoint(c *catalog.Cache, r *venue.Resolver) kit.Endpoint {
	return func(_ context.Context, _ any) (any, error) {
		opts := r.Options()
		return statsResponse{
			Ready:     c.Ready(),
			Venues:    c.Size(),
			MinScore:  opts.MinScore,
			PreFilter: opts.PreFilter,
			Weights:   opts.Weights,
		}, nil
	}
}
