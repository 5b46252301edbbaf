// Package venue holds the core venue resolution domain: the catalog record
// model, text normalization, the five strategy scorers, and the weighted
// Resolver that combines them.
package venue

// Record is one catalog entry. Records are immutable once loaded into a
// cache snapshot; a refresh replaces the whole snapshot, it never mutates
// records in place.
type Record struct {
	ID             string   `json:"place_id"`
	Name           string   `json:"display_name"`
	Address        string   `json:"formatted_address"`
	BusinessStatus string   `json:"business_status,omitempty"`
	Categories     []string `json:"categories,omitempty"`
	Latitude       *float64 `json:"latitude,omitempty"`
	Longitude      *float64 `json:"longitude,omitempty"`
	Country        string   `json:"country,omitempty"`
	Region         string   `json:"region,omitempty"`
	Locality       string   `json:"locality,omitempty"`
}

// Active reports whether the venue is still operating. Unknown status counts
// as active so that records with missing metadata remain searchable.
func (r Record) Active() bool {
	return r.BusinessStatus != "CLOSED_PERMANENTLY"
}

// Query is one resolution request: a venue name and an optional locality
// hint, both arbitrary extraction-supplied text.
type Query struct {
	Name     string `json:"venue_name"`
	Locality string `json:"locality,omitempty"`
}

// StrategyScores is the per-strategy breakdown for one query-candidate pair,
// kept on the result for observability.
type StrategyScores struct {
	Exact    float64 `json:"exact"`
	Partial  float64 `json:"partial"`
	Fuzzy    float64 `json:"fuzzy"`
	Keyword  float64 `json:"keyword"`
	Locality float64 `json:"locality"`
}

// ScoredCandidate pairs a catalog record with its combined score and the
// component scores that produced it.
type ScoredCandidate struct {
	Record     Record         `json:"venue"`
	Combined   float64        `json:"score"`
	Components StrategyScores `json:"components"`
}
