package venue

import (
	"strings"
	"unicode/utf8"

	"github.com/hbollon/go-edlib"
)

// The five strategy scorers. Every scorer takes normalized strings and
// returns a score in [0,1]. They are pure functions, independently testable.

// exactScore rewards a perfect normalized match and nothing else.
func exactScore(query, name string) float64 {
	if query != "" && query == name {
		return 1.0
	}
	return 0.0
}

// partialScore handles truncated or padded names: if one string contains the
// other, the score is the length ratio of the shorter to the longer.
func partialScore(query, name string) float64 {
	if query == "" || name == "" {
		return 0.0
	}
	switch {
	case strings.Contains(name, query):
		return float64(utf8.RuneCountInString(query)) / float64(utf8.RuneCountInString(name))
	case strings.Contains(query, name):
		return float64(utf8.RuneCountInString(name)) / float64(utf8.RuneCountInString(query))
	}
	return 0.0
}

// fuzzyScore is a Levenshtein-based similarity ratio, tolerant of typos and
// romanization drift.
func fuzzyScore(query, name string) float64 {
	if query == "" || name == "" {
		return 0.0
	}
	sim, err := edlib.StringsSimilarity(query, name, edlib.Levenshtein)
	if err != nil {
		return 0.0
	}
	return float64(sim)
}

// keywordScore is the fraction of the query's tokens that also appear in the
// candidate's token set, regardless of order.
func keywordScore(query, name string) float64 {
	queryTokens := Tokens(query)
	if len(queryTokens) == 0 {
		return 0.0
	}
	nameTokens := make(map[string]struct{})
	for _, t := range Tokens(name) {
		nameTokens[t] = struct{}{}
	}
	var hits int
	for _, t := range queryTokens {
		if _, ok := nameTokens[t]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(queryTokens))
}

// localityBoost adds geographic corroboration: 0.2 when any locality token
// longer than one character appears inside the candidate's address.
func localityBoost(locality, address string) float64 {
	if locality == "" || address == "" {
		return 0.0
	}
	for _, t := range Tokens(locality) {
		if utf8.RuneCountInString(t) > 1 && strings.Contains(address, t) {
			return 0.2
		}
	}
	return 0.0
}

// scoreCandidate computes all five strategy scores for one normalized
// query/candidate pair.
func scoreCandidate(queryName, queryLocality, candName, candAddr string) StrategyScores {
	return StrategyScores{
		Exact:    exactScore(queryName, candName),
		Partial:  partialScore(queryName, candName),
		Fuzzy:    fuzzyScore(queryName, candName),
		Keyword:  keywordScore(queryName, candName),
		Locality: localityBoost(queryLocality, candAddr),
	}
}

// Weights are the fixed linear-combination weights for the five strategies.
// They are explicit configuration so deployments can tune them without
// touching scoring logic.
type Weights struct {
	Exact    float64 `yaml:"exact" json:"exact"`
	Partial  float64 `yaml:"partial" json:"partial"`
	Fuzzy    float64 `yaml:"fuzzy" json:"fuzzy"`
	Keyword  float64 `yaml:"keyword" json:"keyword"`
	Locality float64 `yaml:"locality" json:"locality"`
}

// DefaultWeights returns the hand-tuned production weights.
func DefaultWeights() Weights {
	return Weights{Exact: 0.4, Partial: 0.2, Fuzzy: 0.2, Keyword: 0.1, Locality: 0.1}
}

// Combine collapses component scores into one combined score in [0,1].
func (w Weights) Combine(s StrategyScores) float64 {
	return w.Exact*s.Exact +
		w.Partial*s.Partial +
		w.Fuzzy*s.Fuzzy +
		w.Keyword*s.Keyword +
		w.Locality*s.Locality
}
