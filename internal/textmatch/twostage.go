package textmatch

import (
	"path/filepath"
	"strings"
)

// Stage identifies where a two-stage match stopped.
type Stage int

const (
	StageNone Stage = iota
	StageCatalog
	StageFile
)

func (s Stage) String() string {
	switch s {
	case StageCatalog:
		return "catalog"
	case StageFile:
		return "file"
	default:
		return "none"
	}
}

// TwoStage resolves a loosely written query (a schedule message entry) to a
// catalog record, then resolves that record's clean title to a file.
type TwoStage struct {
	Scorer           *Scorer
	CatalogThreshold float64
	FileThreshold    float64
}

// NewTwoStage returns a matcher with PartThreshold and FileThreshold.
func NewTwoStage(scorer *Scorer) TwoStage {
	return TwoStage{Scorer: scorer, CatalogThreshold: PartThreshold, FileThreshold: FileThreshold}
}

// TwoStageResult describes both hops. FailedAt is StageNone on success.
type TwoStageResult[M, F any] struct {
	Query    string
	Record   MatchResult[M]
	Exact    bool
	File     MatchResult[F]
	FailedAt Stage
}

// Matched reports whether both stages succeeded.
func (r TwoStageResult[M, F]) Matched() bool {
	return r.FailedAt == StageNone && r.Record.Matched() && r.File.Matched()
}

// MatchTwoStage resolves query against catalog, then the chosen record
// against files.
//
// An exact normalized title match short-circuits the catalog stage and the
// first such record in catalog order wins. Otherwise only records with the
// same part number as the query are scored, against CatalogThreshold. There
// is deliberately no fallback to a looser threshold.
func MatchTwoStage[M, F any](m TwoStage, query string, catalog []Candidate[M], files []Candidate[F]) TwoStageResult[M, F] {
	out := TwoStageResult[M, F]{Query: query, File: noMatch[F]("")}

	out.Record, out.Exact = matchCatalog(m, query, catalog)
	if !out.Record.Matched() {
		out.FailedAt = StageCatalog
		return out
	}

	recordTitle := out.Record.Match.Title
	out.File = Select(Selector{Scorer: m.Scorer, Threshold: m.FileThreshold}, recordTitle, files)
	if !out.File.Matched() {
		out.FailedAt = StageFile
	}
	return out
}

func matchCatalog[M any](m TwoStage, query string, catalog []Candidate[M]) (MatchResult[M], bool) {
	scorer := m.Scorer
	if scorer == nil {
		scorer = defaultScorer
	}
	if normalizedQuery := scorer.normalize(query); normalizedQuery != "" {
		for i := range catalog {
			if scorer.normalize(catalog[i].Title) == normalizedQuery {
				return MatchResult[M]{Query: query, Match: &catalog[i], Index: i, Score: 100}, true
			}
		}
	}
	sel := Selector{Scorer: scorer, Threshold: m.CatalogThreshold, RequirePart: true}
	return Select(sel, query, catalog), false
}

// FileTitle derives a comparable title from an audio filename: directory and
// extension removed, underscores and hyphens turned into spaces.
func FileTitle(name string) string {
	base := filepath.Base(name)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.NewReplacer("_", " ", "-", " ").Replace(base)
	return collapseSpaces(base)
}
