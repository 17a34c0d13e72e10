package textmatch

import (
	"context"
	"errors"
	"testing"
)

func candidates(titles ...string) []Candidate[int] {
	out := make([]Candidate[int], len(titles))
	for i, title := range titles {
		out[i] = Candidate[int]{Title: title, Payload: i * 10}
	}
	return out
}

func TestSelectBestDivineRevelation(t *testing.T) {
	result := SelectBest("Divine Revelation Podcast", candidates(
		"Kingdom Authority",
		"Divine Revelation - Special Session",
		"Walking in Faith",
	), DefaultThreshold)
	if !result.Matched() {
		t.Fatal("expected a match")
	}
	if result.Index != 1 || result.Match.Payload != 10 {
		t.Errorf("matched index %d payload %d, want 1/10", result.Index, result.Match.Payload)
	}
	if !approxEqual(result.Score, 90.4) {
		t.Errorf("score = %v, want 90.4", result.Score)
	}
}

func TestSelectBestNoMatch(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		candidates []Candidate[int]
		threshold  float64
	}{
		{"empty", "Walking in Faith", nil, DefaultThreshold},
		{"below threshold", "Walking in Faith", candidates("Kingdom Authority"), DefaultThreshold},
		{"part gate threshold", "Sermon Part 2", candidates("Sermon Teaching Part 2"), PartThreshold},
		{"empty query", "", candidates("Kingdom Authority"), DefaultThreshold},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SelectBest(tt.query, tt.candidates, tt.threshold)
			if result.Matched() || result.Score != 0 || result.Index != -1 {
				t.Errorf("expected no match, got %+v", result)
			}
		})
	}
}

func TestSelectBestThresholdInclusive(t *testing.T) {
	result := SelectBest("Grace Part 1", candidates("Grace Part 2"), 92)
	if !result.Matched() {
		t.Fatalf("score %v should meet an inclusive threshold of 92", Score("Grace Part 1", "Grace Part 2"))
	}
}

func TestSelectBestFirstWinsTies(t *testing.T) {
	result := SelectBest("Power of Grace", candidates(
		"The Power of Grace",
		"Power of Grace (Live)",
		"power grace",
	), DefaultThreshold)
	if result.Index != 0 {
		t.Errorf("tie resolved to index %d, want 0", result.Index)
	}
}

func TestSelectRequirePart(t *testing.T) {
	sel := Selector{Threshold: PartThreshold, RequirePart: true}
	cands := candidates("Sermons Part 1", "Sermon Part 2 Extended Edition", "Sermons Part 2")

	result := Select(sel, "Sermon Part 2", cands)
	if !result.Matched() || result.Index != 2 {
		t.Fatalf("expected index 2, got %+v", result)
	}
	if !approxEqual(result.Score, 94.8) {
		t.Errorf("score = %v, want 94.8", result.Score)
	}

	if got := Select(sel, "Sermon", cands); got.Matched() {
		t.Errorf("query without a part matched %+v", got)
	}
	if got := Select(sel, "Sermon Part 7", cands); got.Matched() {
		t.Errorf("unknown part matched %+v", got)
	}
}

func TestSelectAllPreservesOrder(t *testing.T) {
	cands := candidates("Divine Revelation - Special Session", "Kingdom Authority", "Walking By Faith")
	queries := []string{"Walking in Faith", "Unrelated Title", "Divine Revelation Podcast", "Kingdom Authority"}

	results, err := SelectAll(context.Background(), Selector{Threshold: DefaultThreshold}, queries, cands, 2)
	if err != nil {
		t.Fatalf("SelectAll: %v", err)
	}
	wantIdx := []int{2, -1, 0, 1}
	for i, result := range results {
		if result.Query != queries[i] {
			t.Errorf("result %d query = %q, want %q", i, result.Query, queries[i])
		}
		if result.Index != wantIdx[i] {
			t.Errorf("result %d index = %d, want %d", i, result.Index, wantIdx[i])
		}
	}
}

func TestSelectAllCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := SelectAll(ctx, Selector{}, []string{"a", "b"}, candidates("a"), 1)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
