package textmatch

import (
	"math"
	"testing"
)

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 0.01
}

func TestScoreKnownPairs(t *testing.T) {
	tests := []struct {
		a, b      string
		partial   int
		tokenSet  int
		tokenSort int
		score     float64
	}{
		{"Divine Revelation Podcast", "Divine Revelation - Special Session", 100, 100, 68, 90.4},
		{"Sermon Part 2", "Sermon Teaching Part 2", 62, 100, 74, 80.8},
		{"Sermon Part 2", "Sermons Part 2", 92, 96, 96, 94.8},
		{"Grace Part 1", "Grace Part 2", 92, 92, 92, 92},
		{"Kingdom Authority", "Authority Kingdom", 53, 100, 100, 85.9},
		{"Walking in Faith", "Kingdom Authority", 62, 53, 53, 55.7},
		{"Sermon Teaching Part 2", "Sermon Teaching Part 2 12 04 24", 100, 100, 83, 94.9},
		{"Abc", "Xyz", 0, 0, 0, 0},
	}
	scorer := NewScorer()
	for _, tt := range tests {
		t.Run(tt.a+" vs "+tt.b, func(t *testing.T) {
			got := scorer.Explain(tt.a, tt.b)
			if got.Partial != tt.partial || got.TokenSet != tt.tokenSet || got.TokenSort != tt.tokenSort {
				t.Errorf("metrics = (%d, %d, %d), want (%d, %d, %d)", got.Partial, got.TokenSet, got.TokenSort, tt.partial, tt.tokenSet, tt.tokenSort)
			}
			if !approxEqual(got.Score, tt.score) {
				t.Errorf("Score = %.3f, want %.3f", got.Score, tt.score)
			}
		})
	}
}

func TestScoreProperties(t *testing.T) {
	titles := []string{
		"Divine Revelation Podcast",
		"Divine Revelation - Special Session",
		"The Power of Grace (Live)",
		"Sermon_Part_2_12-04-24",
		"Kingdom Authority Part 3",
		"Q&A Session #4",
		"Ünïcödé Tïtlé",
		"",
		"the of and",
	}
	for _, a := range titles {
		for _, b := range titles {
			ab := Score(a, b)
			ba := Score(b, a)
			if ab != ba {
				t.Errorf("Score(%q, %q) = %v but reversed = %v", a, b, ab, ba)
			}
			if ab < 0 || ab > 100 {
				t.Errorf("Score(%q, %q) = %v out of range", a, b, ab)
			}
		}
		if Normalize(a) != "" && Score(a, a) != 100 {
			t.Errorf("Score(%q, itself) = %v, want 100", a, Score(a, a))
		}
	}
}

func TestScoreEmpty(t *testing.T) {
	if got := Score("", ""); got != 0 {
		t.Errorf("Score(empty, empty) = %v, want 0", got)
	}
	if got := Score("Grace", "The Podcast"); got != 0 {
		t.Errorf("Score against stop-word title = %v, want 0", got)
	}
}

func TestScoreStopWordAndParenInvariance(t *testing.T) {
	if got := Score("The Power of Grace (Live)", "Power Grace"); got != 100 {
		t.Errorf("Score = %v, want 100", got)
	}
	if got := Score("Walking in Faith", "Walking By Faith"); got != 100 {
		t.Errorf("Score = %v, want 100", got)
	}
}

func TestWithWeights(t *testing.T) {
	tokenSetOnly := NewScorer(WithWeights(Weights{TokenSet: 1}))
	if got := tokenSetOnly.Score("Sermon Part 2", "Sermon Teaching Part 2"); got != 100 {
		t.Errorf("token-set only score = %v, want 100", got)
	}
	// Invalid weights leave the defaults in place.
	invalid := NewScorer(WithWeights(Weights{Partial: -1, TokenSet: 1}))
	if invalid.Weights() != DefaultWeights {
		t.Errorf("Weights() = %+v, want defaults", invalid.Weights())
	}
	scaled := NewScorer(WithWeights(Weights{Partial: 3, TokenSet: 4, TokenSort: 3}))
	if got := scaled.Score("Divine Revelation Podcast", "Divine Revelation - Special Session"); !approxEqual(got, 90.4) {
		t.Errorf("scaled weights score = %v, want 90.4", got)
	}
}

func TestNormalizationCache(t *testing.T) {
	cached := NewScorer(WithNormalizationCache())
	for range 2 {
		if got := cached.Score("Sermon Part 2", "Sermons Part 2"); !approxEqual(got, 94.8) {
			t.Errorf("cached score = %v, want 94.8", got)
		}
	}
}
