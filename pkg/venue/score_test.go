package venue

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestExactScore(t *testing.T) {
	tests := []struct {
		query, name string
		want        float64
	}{
		{"liquid room", "liquid room", 1.0},
		{"liquid room", "liquid rooms", 0.0},
		{"", "", 0.0},
		{"", "liquid room", 0.0},
	}
	for _, tt := range tests {
		if got := exactScore(tt.query, tt.name); got != tt.want {
			t.Errorf("exactScore(%q, %q) = %v, want %v", tt.query, tt.name, got, tt.want)
		}
	}
}

func TestPartialScore(t *testing.T) {
	tests := []struct {
		query, name string
		want        float64
	}{
		{"www", "www x", 3.0 / 5.0},
		{"studio x", "live studio x tokyo", 8.0 / 19.0},
		{"live studio x tokyo", "studio x", 8.0 / 19.0},
		{"abc", "xyz", 0.0},
		{"", "www x", 0.0},
		{"www", "", 0.0},
	}
	for _, tt := range tests {
		if got := partialScore(tt.query, tt.name); !almostEqual(got, tt.want) {
			t.Errorf("partialScore(%q, %q) = %v, want %v", tt.query, tt.name, got, tt.want)
		}
	}
}

func TestFuzzyScore(t *testing.T) {
	if got := fuzzyScore("liquid room", "liquid room"); got != 1.0 {
		t.Errorf("identical strings: fuzzy = %v, want 1.0", got)
	}
	if got := fuzzyScore("liqiud room", "liquid room"); got < 0.7 {
		t.Errorf("transposition typo: fuzzy = %v, want > 0.7", got)
	}
	if got := fuzzyScore("completely different", "liquid room"); got > 0.5 {
		t.Errorf("unrelated strings: fuzzy = %v, want < 0.5", got)
	}
	if got := fuzzyScore("", "liquid room"); got != 0.0 {
		t.Errorf("empty query: fuzzy = %v, want 0.0", got)
	}
}

func TestKeywordScore(t *testing.T) {
	tests := []struct {
		query, name string
		want        float64
	}{
		{"liquid room", "liquid room tokyo", 1.0},
		{"room liquid", "liquid room", 1.0},
		{"liquid room east", "liquid room", 2.0 / 3.0},
		{"basement club", "liquid room", 0.0},
		{"", "liquid room", 0.0},
	}
	for _, tt := range tests {
		if got := keywordScore(tt.query, tt.name); !almostEqual(got, tt.want) {
			t.Errorf("keywordScore(%q, %q) = %v, want %v", tt.query, tt.name, got, tt.want)
		}
	}
}

func TestLocalityBoost(t *testing.T) {
	tests := []struct {
		locality, address string
		want              float64
	}{
		{"shibuya", "shibuya tokyo", 0.2},
		{"shibuya tokyo", "1 chome shibuya", 0.2},
		{"osaka", "shibuya tokyo", 0.0},
		// Single-character tokens carry no signal.
		{"a", "shibuya tokyo a", 0.0},
		{"", "shibuya tokyo", 0.0},
		{"shibuya", "", 0.0},
	}
	for _, tt := range tests {
		if got := localityBoost(tt.locality, tt.address); got != tt.want {
			t.Errorf("localityBoost(%q, %q) = %v, want %v", tt.locality, tt.address, got, tt.want)
		}
	}
}

func TestWeightsCombine(t *testing.T) {
	w := DefaultWeights()

	// Perfect name match without locality corroboration.
	full := w.Combine(StrategyScores{Exact: 1, Partial: 1, Fuzzy: 1, Keyword: 1})
	if !almostEqual(full, 0.9) {
		t.Errorf("full name match combined = %v, want 0.9", full)
	}

	// An exact match alone contributes at least its 0.4 weight.
	exactOnly := w.Combine(StrategyScores{Exact: 1})
	if exactOnly < 0.4 {
		t.Errorf("exact-only combined = %v, want >= 0.4", exactOnly)
	}

	if got := w.Combine(StrategyScores{}); got != 0.0 {
		t.Errorf("zero scores combined = %v, want 0.0", got)
	}
}
