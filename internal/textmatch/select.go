package textmatch

// Matching thresholds, on the 0..100 score scale.
const (
	// DefaultThreshold accepts subscription titles against platform metadata.
	DefaultThreshold = 70.0
	// PartThreshold gates part-numbered schedule entries against the catalog.
	PartThreshold = 90.0
	// FileThreshold gates catalog titles against audio filenames.
	FileThreshold = 90.0
)

// Candidate is one title that a query may be matched against. Payload is
// carried through untouched.
type Candidate[T any] struct {
	Title   string
	Payload T
}

// MatchResult is the outcome of a selection. Match is nil when nothing reached
// the threshold, in which case Score is 0 and Index is -1.
type MatchResult[T any] struct {
	Query string
	Match *Candidate[T]
	Index int
	Score float64
}

// Matched reports whether a candidate was accepted.
func (r MatchResult[T]) Matched() bool {
	return r.Match != nil
}

func noMatch[T any](query string) MatchResult[T] {
	return MatchResult[T]{Query: query, Index: -1}
}

// Selector picks the best candidate for a query.
type Selector struct {
	Scorer    *Scorer
	Threshold float64
	// RequirePart restricts scoring to candidates whose part number equals the
	// query's. Queries without a part number never match.
	RequirePart bool
}

// SelectBest scores every candidate with the default scorer and returns the
// best one if it reaches threshold. The first candidate wins ties.
func SelectBest[T any](query string, candidates []Candidate[T], threshold float64) MatchResult[T] {
	return Select(Selector{Threshold: threshold}, query, candidates)
}

// Select runs sel over candidates.
func Select[T any](sel Selector, query string, candidates []Candidate[T]) MatchResult[T] {
	if len(candidates) == 0 {
		return noMatch[T](query)
	}
	scorer := sel.Scorer
	if scorer == nil {
		scorer = defaultScorer
	}

	queryPart, hasPart := 0, false
	if sel.RequirePart {
		queryPart, hasPart = ExtractPart(query)
		if !hasPart {
			return noMatch[T](query)
		}
	}

	bestIdx := -1
	bestScore := -1.0
	for i := range candidates {
		if sel.RequirePart {
			part, ok := ExtractPart(candidates[i].Title)
			if !ok || part != queryPart {
				continue
			}
		}
		score := scorer.Score(query, candidates[i].Title)
		if score > bestScore {
			bestIdx, bestScore = i, score
		}
	}
	if bestIdx < 0 || bestScore < sel.Threshold {
		return noMatch[T](query)
	}
	return MatchResult[T]{
		Query: query,
		Match: &candidates[bestIdx],
		Index: bestIdx,
		Score: bestScore,
	}
}
