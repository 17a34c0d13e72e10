package textmatch

import (
	"math"
	"slices"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/hbollon/go-edlib"
)

// Weights blends the three similarity metrics into one score. The blend is
// divided by the weight sum, so the values need not add up to one.
type Weights struct {
	Partial   float64
	TokenSet  float64
	TokenSort float64
}

// DefaultWeights favours token-set similarity, which is robust to extra words
// on either side.
var DefaultWeights = Weights{Partial: 0.3, TokenSet: 0.4, TokenSort: 0.3}

func (w Weights) sum() float64 {
	return w.Partial + w.TokenSet + w.TokenSort
}

// Valid reports whether the weights are non-negative with a positive sum.
func (w Weights) Valid() bool {
	return w.Partial >= 0 && w.TokenSet >= 0 && w.TokenSort >= 0 && w.sum() > 0
}

// Breakdown exposes the individual metrics behind a score.
type Breakdown struct {
	Left      string
	Right     string
	Partial   int
	TokenSet  int
	TokenSort int
	Score     float64
}

// Scorer computes title similarity in [0, 100].
type Scorer struct {
	weights Weights
	memo    *sync.Map
}

// ScorerOption customises a Scorer.
type ScorerOption func(*Scorer)

// WithWeights overrides the metric weights. Invalid weights are ignored.
func WithWeights(w Weights) ScorerOption {
	return func(s *Scorer) {
		if w.Valid() {
			s.weights = w
		}
	}
}

// WithNormalizationCache memoises Normalize results. Useful when one
// candidate list is scored against many queries.
func WithNormalizationCache() ScorerOption {
	return func(s *Scorer) {
		s.memo = &sync.Map{}
	}
}

// NewScorer builds a Scorer using DefaultWeights unless overridden.
func NewScorer(opts ...ScorerOption) *Scorer {
	s := &Scorer{weights: DefaultWeights}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

var defaultScorer = NewScorer()

// Score compares two raw titles with the default weights.
func Score(a, b string) float64 {
	return defaultScorer.Score(a, b)
}

// Weights returns the active weights.
func (s *Scorer) Weights() Weights {
	if s == nil {
		return DefaultWeights
	}
	return s.weights
}

// Score normalizes both titles and returns their weighted similarity. Titles
// that normalize to nothing score 0.
func (s *Scorer) Score(a, b string) float64 {
	return s.Explain(a, b).Score
}

// Explain is Score with the per-metric breakdown.
func (s *Scorer) Explain(a, b string) Breakdown {
	if s == nil {
		s = defaultScorer
	}
	left, right := s.normalize(a), s.normalize(b)
	out := Breakdown{Left: left, Right: right}
	if left == "" || right == "" {
		return out
	}
	if left == right {
		out.Partial, out.TokenSet, out.TokenSort, out.Score = 100, 100, 100, 100
		return out
	}
	out.Partial = partialRatio(left, right)
	out.TokenSet = tokenSetRatio(left, right)
	out.TokenSort = tokenSortRatio(left, right)

	w := s.weights
	blended := (w.Partial*float64(out.Partial) + w.TokenSet*float64(out.TokenSet) + w.TokenSort*float64(out.TokenSort)) / w.sum()
	out.Score = math.Max(0, math.Min(100, blended))
	return out
}

func (s *Scorer) normalize(title string) string {
	if s.memo == nil {
		return Normalize(title)
	}
	if cached, ok := s.memo.Load(title); ok {
		return cached.(string)
	}
	normalized := Normalize(title)
	s.memo.Store(title, normalized)
	return normalized
}

// ratio is the indel similarity 2*LCS/(len(a)+len(b)) scaled to 0..100 and
// rounded to an integer.
func ratio(a, b string) int {
	if a == b {
		return 100
	}
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	if la == 0 || lb == 0 {
		return 0
	}
	lcs := edlib.LCS(a, b)
	return int(math.Round(200 * float64(lcs) / float64(la+lb)))
}

// partialRatio slides the shorter string across the longer one and keeps the
// best window ratio.
func partialRatio(a, b string) int {
	shorter, longer := []rune(a), []rune(b)
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	if len(shorter) == 0 {
		return 0
	}
	if len(shorter) == len(longer) {
		return ratio(a, b)
	}
	needle := string(shorter)
	best := 0
	for start := 0; start+len(shorter) <= len(longer); start++ {
		r := ratio(needle, string(longer[start:start+len(shorter)]))
		if r > best {
			best = r
			if best == 100 {
				break
			}
		}
	}
	return best
}

func tokenSetRatio(a, b string) int {
	setA, setB := tokenSet(a), tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	var shared, onlyA, onlyB []string
	for token := range setA {
		if _, ok := setB[token]; ok {
			shared = append(shared, token)
		} else {
			onlyA = append(onlyA, token)
		}
	}
	for token := range setB {
		if _, ok := setA[token]; !ok {
			onlyB = append(onlyB, token)
		}
	}
	slices.Sort(shared)
	slices.Sort(onlyA)
	slices.Sort(onlyB)

	sect := strings.Join(shared, " ")
	combinedA := strings.TrimSpace(sect + " " + strings.Join(onlyA, " "))
	combinedB := strings.TrimSpace(sect + " " + strings.Join(onlyB, " "))
	return max(ratio(sect, combinedA), ratio(sect, combinedB), ratio(combinedA, combinedB))
}

func tokenSortRatio(a, b string) int {
	return ratio(sortedTokens(a), sortedTokens(b))
}

func tokenSet(s string) map[string]struct{} {
	fields := strings.Fields(s)
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

func sortedTokens(s string) string {
	fields := strings.Fields(s)
	slices.Sort(fields)
	return strings.Join(fields, " ")
}
