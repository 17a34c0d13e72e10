package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"podpipe/internal/audio"
	"podpipe/internal/catalog"
	"podpipe/internal/config"
	"podpipe/internal/logging"
	"podpipe/internal/services"
	"podpipe/internal/store"
	"podpipe/internal/textmatch"
)

// CatalogSource lists a channel's videos.
type CatalogSource interface {
	FetchCatalog(ctx context.Context, channel string, limit int) ([]catalog.Video, error)
}

// Converter turns a video URL into an audio file.
type Converter interface {
	Convert(ctx context.Context, url, date string) (audio.Result, error)
}

// Summary counts the outcome of one run.
type Summary struct {
	Subscriptions int
	Matched       int
	Unmatched     int
	Converted     int
	Skipped       int
	Failed        int
	Elapsed       time.Duration
}

// String renders the summary on one line for the runs table.
func (s Summary) String() string {
	return fmt.Sprintf("%d subscriptions, %d matched, %d converted, %d skipped, %d failed",
		s.Subscriptions, s.Matched, s.Converted, s.Skipped, s.Failed)
}

// Runner wires the pipeline stages together.
type Runner struct {
	cfg       *config.Config
	store     *store.Store
	source    CatalogSource
	converter Converter
	scorer    *textmatch.Scorer
	logger    *slog.Logger
}

// NewRunner builds a Runner. st may be nil, in which case nothing is recorded.
func NewRunner(cfg *config.Config, st *store.Store, source CatalogSource, converter Converter, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{
		cfg:       cfg,
		store:     st,
		source:    source,
		converter: converter,
		scorer:    NewScorer(cfg.Matching),
		logger:    logging.NewComponentLogger(logger, "pipeline"),
	}
}

// NewScorer builds the title scorer from matching config.
func NewScorer(m config.Matching) *textmatch.Scorer {
	return textmatch.NewScorer(
		textmatch.WithWeights(textmatch.Weights{
			Partial:   m.WeightPartial,
			TokenSet:  m.WeightTokenSet,
			TokenSort: m.WeightTokenSort,
		}),
		textmatch.WithNormalizationCache(),
	)
}

// Run executes the whole flow and returns what happened. It fails when there
// are no subscription titles or none of them matched.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	started := time.Now()
	matches, summary, err := r.match(ctx)
	if err != nil {
		return summary, err
	}

	ctx = services.WithStage(ctx, "convert")
	for i, m := range matches {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		r.logger.Info("converting episode",
			logging.String(logging.FieldEventType, "convert_started"),
			logging.String(logging.FieldTitle, m.VideoTitle),
			logging.Int("index", i+1),
			logging.Int("total", len(matches)),
		)
		switch status := r.convert(ctx, m); status {
		case store.StatusConverted:
			summary.Converted++
		case store.StatusSkipped:
			summary.Skipped++
		default:
			summary.Failed++
		}
	}

	summary.Elapsed = time.Since(started)
	r.logger.Info("pipeline complete",
		logging.String(logging.FieldEventType, "pipeline_complete"),
		logging.Int("converted", summary.Converted),
		logging.Int("skipped", summary.Skipped),
		logging.Int("failed", summary.Failed),
		logging.Duration("elapsed", summary.Elapsed),
	)
	return summary, nil
}

// Match runs every stage except conversion and returns the matches written
// to the matches CSV.
func (r *Runner) Match(ctx context.Context) ([]catalog.Match, Summary, error) {
	return r.match(ctx)
}

func (r *Runner) match(ctx context.Context) ([]catalog.Match, Summary, error) {
	var summary Summary
	videos, err := r.EnsureCatalog(services.WithStage(ctx, "catalog"))
	if err != nil {
		return nil, summary, err
	}
	titles, err := catalog.LoadTitles(r.cfg.SubscriptionsPath())
	if err != nil {
		return nil, summary, services.Wrap(services.ErrValidation, "match", "load subscriptions", r.cfg.SubscriptionsPath(), err)
	}
	summary.Subscriptions = len(titles)
	if len(titles) == 0 {
		return nil, summary, services.Wrap(services.ErrValidation, "match", "load subscriptions", "no subscription titles to match", nil)
	}

	matches, err := r.MatchURLs(services.WithStage(ctx, "match"), titles, videos)
	if err != nil {
		return nil, summary, err
	}
	summary.Matched = len(matches)
	summary.Unmatched = len(titles) - len(matches)
	if len(matches) == 0 {
		return nil, summary, services.Wrap(services.ErrNotFound, "match", "match urls", "no matches found", nil)
	}
	if err := catalog.WriteMatches(r.cfg.MatchesPath(), matches); err != nil {
		return nil, summary, fmt.Errorf("write matches: %w", err)
	}
	r.logger.Info("matches saved",
		logging.String(logging.FieldEventType, "matches_saved"),
		logging.Int("matched", summary.Matched),
		logging.Int("unmatched", summary.Unmatched),
		logging.String("path", r.cfg.MatchesPath()),
	)
	return matches, summary, nil
}

// EnsureCatalog loads the catalog CSV, fetching it from YouTube when the
// file is missing or empty.
func (r *Runner) EnsureCatalog(ctx context.Context) ([]catalog.Video, error) {
	path := r.cfg.CatalogPath()
	if info, err := os.Stat(path); err == nil && info.Size() > 0 {
		videos, err := catalog.LoadVideos(path)
		if err != nil {
			return nil, fmt.Errorf("load catalog: %w", err)
		}
		r.logger.Info("catalog loaded",
			logging.String(logging.FieldEventType, "catalog_loaded"),
			logging.Int("videos", len(videos)),
		)
		return videos, nil
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("stat catalog: %w", err)
	}
	return r.FetchCatalog(ctx)
}

// FetchCatalog pulls the channel listing and overwrites the catalog CSV.
func (r *Runner) FetchCatalog(ctx context.Context) ([]catalog.Video, error) {
	if r.source == nil {
		return nil, services.Wrap(services.ErrConfiguration, "catalog", "fetch", "no catalog source configured", nil)
	}
	videos, err := r.source.FetchCatalog(ctx, r.cfg.YouTube.Channel, r.cfg.YouTube.MaxResults)
	if err != nil {
		return nil, err
	}
	if len(videos) == 0 {
		return nil, services.Wrap(services.ErrNotFound, "catalog", "fetch", "channel has no videos", nil)
	}
	if err := catalog.WriteVideos(r.cfg.CatalogPath(), videos); err != nil {
		return nil, fmt.Errorf("write catalog: %w", err)
	}
	r.logger.Info("catalog fetched",
		logging.String(logging.FieldEventType, "catalog_fetched"),
		logging.Int("videos", len(videos)),
		logging.String("path", r.cfg.CatalogPath()),
	)
	return videos, nil
}

// MatchURLs picks the best video for every title, concurrently. Titles with
// no video at or above the threshold are logged and left out.
func (r *Runner) MatchURLs(ctx context.Context, titles []string, videos []catalog.Video) ([]catalog.Match, error) {
	sel := textmatch.Selector{Scorer: r.scorer, Threshold: r.cfg.Matching.Threshold}
	results, err := textmatch.SelectAll(ctx, sel, titles, catalog.Candidates(videos), r.cfg.Matching.Workers)
	if err != nil {
		return nil, err
	}

	matches := make([]catalog.Match, 0, len(results))
	for _, res := range results {
		if !res.Matched() {
			logging.WarnWithContext(r.logger, "no video matched subscription", "match_missing",
				logging.String(logging.FieldTitle, res.Query),
				logging.Float64("threshold", sel.Threshold),
				logging.String(logging.FieldErrorHint, "check the title spelling or lower matching.threshold"),
			)
			continue
		}
		video := res.Match.Payload
		r.logger.Debug("subscription matched",
			logging.Args(append(logging.DecisionAttrs("title_match", "matched", video.Title),
				logging.String(logging.FieldTitle, res.Query),
				logging.Float64("confidence", res.Score),
			)...)...,
		)
		matches = append(matches, catalog.Match{
			SubscriptionTitle: res.Query,
			VideoURL:          video.URL,
			VideoTitle:        video.Title,
			UploadDate:        video.UploadDate,
			Confidence:        res.Score,
		})
	}
	return matches, nil
}

// convert runs one conversion and records it. The returned status is what
// was stored for the episode.
func (r *Runner) convert(ctx context.Context, m catalog.Match) store.Status {
	runID, _ := services.RunIDFromContext(ctx)
	var id int64
	if r.store != nil {
		var err error
		id, err = r.store.UpsertEpisode(ctx, store.Episode{
			RunID:             runID,
			SubscriptionTitle: m.SubscriptionTitle,
			VideoTitle:        m.VideoTitle,
			VideoURL:          m.VideoURL,
			UploadDate:        m.UploadDate,
			Confidence:        m.Confidence,
			Status:            store.StatusMatched,
		})
		if err != nil {
			logging.WarnWithContext(r.logger, "failed to record episode", "store_write_failed",
				logging.String(logging.FieldTitle, m.VideoTitle),
				logging.Error(err),
				logging.String(logging.FieldImpact, "episode history incomplete"),
			)
		}
		ctx = services.WithItemID(ctx, id)
	}

	res, err := r.converter.Convert(ctx, m.VideoURL, m.UploadDate)
	status := store.StatusConverted
	errMsg := ""
	switch {
	case err != nil:
		status = services.FailureStatus(err)
		errMsg = err.Error()
		logging.ErrorWithContext(logging.WithContext(ctx, r.logger), "conversion failed", "convert_failed",
			logging.String(logging.FieldTitle, m.VideoTitle),
			logging.String("url", m.VideoURL),
			logging.Error(err),
			logging.String(logging.FieldImpact, "episode not converted"),
		)
	case res.Skipped:
		status = store.StatusSkipped
	}

	if r.store != nil && id != 0 {
		if err := r.store.UpdateEpisodeStatus(ctx, id, status, res.Path, errMsg); err != nil {
			logging.WarnWithContext(r.logger, "failed to record conversion outcome", "store_write_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "episode history incomplete"),
			)
		}
	}
	return status
}
