package venue

import (
	"sort"
)

// SnapshotSource supplies the current catalog snapshot. Records must never
// block on I/O; the resolver only ever reads an already-materialized set.
type SnapshotSource interface {
	Records() []Record
	Ready() bool
}

// Options control the resolver's thresholds and weights.
type Options struct {
	Weights Weights `yaml:"weights" json:"weights"`
	// PreFilter is the fixed cutoff below which a candidate is discarded
	// before ranking, independent of MinScore.
	PreFilter float64 `yaml:"pre_filter" json:"pre_filter"`
	// MinScore is the confidence threshold the top candidate must meet to
	// be returned as a match.
	MinScore float64 `yaml:"min_score" json:"min_score"`
}

// DefaultOptions returns the production thresholds.
func DefaultOptions() Options {
	return Options{Weights: DefaultWeights(), PreFilter: 0.3, MinScore: 0.6}
}

// Resolver ranks catalog records against a noisy query using the five
// strategy scorers combined with fixed weights. Search is a pure, read-only
// pass over the snapshot and is safe for unbounded concurrent use.
type Resolver struct {
	src  SnapshotSource
	opts Options
}

// NewResolver builds a resolver over the given snapshot source. Zero-valued
// options fields fall back to defaults.
func NewResolver(src SnapshotSource, opts Options) *Resolver {
	def := DefaultOptions()
	if opts.Weights == (Weights{}) {
		opts.Weights = def.Weights
	}
	if opts.PreFilter == 0 {
		opts.PreFilter = def.PreFilter
	}
	if opts.MinScore == 0 {
		opts.MinScore = def.MinScore
	}
	return &Resolver{src: src, opts: opts}
}

// Options returns the resolver's effective options.
func (r *Resolver) Options() Options { return r.opts }

// Search resolves a query against the current snapshot using the configured
// confidence threshold. The boolean is false when no candidate clears it.
func (r *Resolver) Search(q Query) (*ScoredCandidate, bool) {
	return r.SearchMinScore(q, r.opts.MinScore)
}

// SearchMinScore is Search with a per-call confidence threshold.
//
// Every record is scored by all five strategies against the normalized query;
// candidates at or below the pre-filter cutoff are discarded, the rest are
// ranked by combined score with ties broken by ascending record ID so results
// never depend on catalog iteration order.
func (r *Resolver) SearchMinScore(q Query, minScore float64) (*ScoredCandidate, bool) {
	if !r.src.Ready() {
		return nil, false
	}

	queryName := Normalize(q.Name)
	if queryName == "" {
		// Locality alone can never produce a match.
		return nil, false
	}
	queryLocality := Normalize(q.Locality)

	var candidates []ScoredCandidate
	for _, rec := range r.src.Records() {
		if !rec.Active() {
			continue
		}
		components := scoreCandidate(queryName, queryLocality, Normalize(rec.Name), Normalize(rec.Address))
		combined := r.opts.Weights.Combine(components)
		if combined <= r.opts.PreFilter {
			continue
		}
		candidates = append(candidates, ScoredCandidate{
			Record:     rec,
			Combined:   combined,
			Components: components,
		})
	}
	if len(candidates) == 0 {
		return nil, false
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Combined != candidates[j].Combined {
			return candidates[i].Combined > candidates[j].Combined
		}
		return candidates[i].Record.ID < candidates[j].Record.ID
	})

	best := candidates[0]
	if best.Combined < minScore {
		return nil, false
	}
	return &best, true
}
