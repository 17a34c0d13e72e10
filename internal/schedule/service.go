package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"podpipe/internal/catalog"
	"podpipe/internal/config"
	"podpipe/internal/logging"
	"podpipe/internal/pipeline"
	"podpipe/internal/services"
	"podpipe/internal/services/llm"
	"podpipe/internal/services/podbean"
	"podpipe/internal/store"
	"podpipe/internal/textmatch"
)

const stageName = "schedule"

// MessageParser turns a message into dated entries, typically an LLM.
type MessageParser interface {
	ParseSchedule(ctx context.Context, message string, referenceYear int) ([]llm.ScheduleEntry, error)
}

// Publisher uploads audio and creates scheduled episodes.
type Publisher interface {
	UploadAudio(ctx context.Context, path string) (string, error)
	ScheduleEpisode(ctx context.Context, title, description, mediaKey string, publishAt time.Time) (podbean.Episode, error)
}

// Item is an entry resolved to a catalog record and an audio file.
type Item struct {
	Entry
	CatalogTitle string
	Description  string
	AudioPath    string
	Exact        bool
	Confidence   float64
	FileScore    float64
	PublishAt    time.Time
}

// Miss is an entry that could not be resolved.
type Miss struct {
	Entry
	FailedAt textmatch.Stage

	// Closest is the catalog title that reached the file stage, if any.
	Closest string
}

// Plan is the outcome of parsing and matching a message.
type Plan struct {
	Entries []Entry
	Items   []Item
	Misses  []Miss

	// Parser is "llm" or "regex".
	Parser string
}

// Result is the publishing outcome for one item.
type Result struct {
	Item
	Status       store.Status
	PodbeanID    string
	PermalinkURL string
	Err          error
}

// Service plans and publishes schedules.
type Service struct {
	cfg       *config.Config
	store     *store.Store
	parser    MessageParser
	publisher Publisher
	matcher   textmatch.TwoStage
	logger    *slog.Logger
	now       func() time.Time
}

// NewService builds a Service. parser, publisher and st may be nil: without
// a parser the regex parser is used, without a publisher only planning works
// and without a store nothing is recorded.
func NewService(cfg *config.Config, st *store.Store, parser MessageParser, publisher Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	matcher := textmatch.NewTwoStage(pipeline.NewScorer(cfg.Matching))
	matcher.CatalogThreshold = cfg.Matching.PartThreshold
	matcher.FileThreshold = cfg.Matching.FileThreshold
	return &Service{
		cfg:       cfg,
		store:     st,
		parser:    parser,
		publisher: publisher,
		matcher:   matcher,
		logger:    logging.NewComponentLogger(logger, "schedule"),
		now:       time.Now,
	}
}

// Parse extracts entries from message. The LLM is tried first when useLLM is
// set and a parser is configured; any LLM failure or an empty answer falls
// back to ParseMessage. The second return value names the parser used.
func (s *Service) Parse(ctx context.Context, message string, useLLM bool) ([]Entry, string, error) {
	year := s.now().Year()
	if useLLM && s.parser != nil {
		parsed, err := s.parser.ParseSchedule(ctx, message, year)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return nil, "", ctx.Err()
			}
			logging.WarnWithContext(s.logger, "llm parsing failed, using regex parser", "llm_parse_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check llm.api_key and llm.model"),
				logging.String(logging.FieldImpact, "falling back to regex parser"),
			)
		case len(parsed) == 0:
			logging.WarnWithContext(s.logger, "llm returned no entries, using regex parser", "llm_parse_empty",
				logging.String(logging.FieldImpact, "falling back to regex parser"),
			)
		default:
			entries := make([]Entry, 0, len(parsed))
			for _, p := range parsed {
				entries = append(entries, Entry{Title: p.Title, Date: p.Date})
			}
			return entries, "llm", nil
		}
	}

	entries := ParseMessage(message, year)
	if len(entries) == 0 {
		return nil, "regex", services.Wrap(services.ErrValidation, stageName, "parse", "no dated entries found in message", nil)
	}
	return entries, "regex", nil
}

// MatchFiles resolves each entry to a catalog record and then to an audio
// file.
func (s *Service) MatchFiles(entries []Entry, videos []catalog.Video, files []textmatch.Candidate[string]) ([]Item, []Miss) {
	records := catalog.Candidates(videos)
	var (
		items  []Item
		misses []Miss
	)
	for _, entry := range entries {
		res := textmatch.MatchTwoStage(s.matcher, entry.Title, records, files)
		if !res.Matched() {
			miss := Miss{Entry: entry, FailedAt: res.FailedAt}
			if res.Record.Matched() {
				miss.Closest = res.Record.Match.Title
			}
			logging.WarnWithContext(s.logger, "schedule entry not matched", "schedule_unmatched",
				logging.String(logging.FieldTitle, entry.Title),
				logging.String("failed_at", res.FailedAt.String()),
				logging.String("catalog_title", miss.Closest),
				logging.String(logging.FieldErrorHint, "convert the episode first or fix the title in the message"),
			)
			misses = append(misses, miss)
			continue
		}
		video := res.Record.Match.Payload
		items = append(items, Item{
			Entry:        entry,
			CatalogTitle: video.Title,
			Description:  video.Description,
			AudioPath:    res.File.Match.Payload,
			Exact:        res.Exact,
			Confidence:   res.Record.Score,
			FileScore:    res.File.Score,
		})
	}
	return items, misses
}

// Prepare pins every item's publish time to the configured clock on its
// entry date, in the configured timezone.
func (s *Service) Prepare(items []Item) ([]Item, error) {
	loc, err := s.cfg.Location()
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, stageName, "prepare", "", err)
	}
	hour, minute, err := s.cfg.PublishClock()
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, stageName, "prepare", "", err)
	}
	out := make([]Item, len(items))
	for i, item := range items {
		y, m, d := item.Date.Date()
		item.PublishAt = time.Date(y, m, d, hour, minute, 0, 0, loc)
		out[i] = item
	}
	return out, nil
}

// Plan parses message and resolves it against the catalog CSV and the
// podcasts directory.
func (s *Service) Plan(ctx context.Context, message string, useLLM bool) (Plan, error) {
	entries, parser, err := s.Parse(ctx, message, useLLM)
	if err != nil {
		return Plan{}, err
	}
	videos, err := catalog.LoadVideos(s.cfg.CatalogPath())
	if err != nil {
		return Plan{}, services.Wrap(services.ErrValidation, stageName, "load catalog", "run \"podpipe catalog fetch\" first", err)
	}
	files, err := catalog.ListAudio(s.cfg.Paths.PodcastsDir)
	if err != nil {
		return Plan{}, services.Wrap(services.ErrValidation, stageName, "list audio", s.cfg.Paths.PodcastsDir, err)
	}

	items, misses := s.MatchFiles(entries, videos, files)
	items, err = s.Prepare(items)
	if err != nil {
		return Plan{}, err
	}
	s.logger.Info("schedule planned",
		logging.String(logging.FieldEventType, "schedule_planned"),
		logging.String("parser", parser),
		logging.Int("entries", len(entries)),
		logging.Int("matched", len(items)),
		logging.Int("unmatched", len(misses)),
	)
	return Plan{Entries: entries, Items: items, Misses: misses, Parser: parser}, nil
}

// Publish uploads and schedules every item, collecting one result per item.
// A failure on one item does not stop the others.
func (s *Service) Publish(ctx context.Context, items []Item) ([]Result, error) {
	if s.publisher == nil {
		return nil, services.Wrap(services.ErrConfiguration, stageName, "publish", "no publisher configured", nil)
	}
	ctx = services.WithStage(ctx, stageName)
	results := make([]Result, 0, len(items))
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res := s.publishOne(ctx, item)
		s.record(ctx, res)
		results = append(results, res)
	}
	return results, nil
}

func (s *Service) publishOne(ctx context.Context, item Item) Result {
	res := Result{Item: item}
	if s.store != nil {
		done, err := s.store.AlreadyScheduled(ctx, item.AudioPath)
		if err != nil {
			res.Status, res.Err = store.StatusFailed, err
			return res
		}
		if done {
			s.logger.Info("audio already scheduled",
				logging.Args(append(logging.DecisionAttrs("schedule_dedupe", "skipped", "already scheduled"),
					logging.String(logging.FieldTitle, item.CatalogTitle),
				)...)...,
			)
			res.Status = store.StatusSkipped
			return res
		}
	}

	mediaKey, err := s.publisher.UploadAudio(ctx, item.AudioPath)
	if err == nil {
		var ep podbean.Episode
		ep, err = s.publisher.ScheduleEpisode(ctx, item.CatalogTitle, item.Description, mediaKey, item.PublishAt)
		res.PodbeanID, res.PermalinkURL = ep.ID, ep.PermalinkURL
	}
	if err != nil {
		res.Status, res.Err = services.FailureStatus(err), err
		logging.ErrorWithContext(logging.WithContext(ctx, s.logger), "scheduling failed", "schedule_failed",
			logging.String(logging.FieldTitle, item.CatalogTitle),
			logging.Error(err),
			logging.String(logging.FieldImpact, "episode not scheduled"),
		)
		return res
	}
	res.Status = store.StatusScheduled
	s.logger.Info("episode scheduled",
		logging.String(logging.FieldEventType, "episode_scheduled"),
		logging.String(logging.FieldTitle, item.CatalogTitle),
		logging.String("publish_at", item.PublishAt.Format(time.RFC3339)),
		logging.String("podbean_id", res.PodbeanID),
	)
	return res
}

func (s *Service) record(ctx context.Context, res Result) {
	if s.store == nil || res.Status == store.StatusSkipped {
		return
	}
	runID, _ := services.RunIDFromContext(ctx)
	row := store.Schedule{
		RunID:        runID,
		EntryTitle:   res.Title,
		CatalogTitle: res.CatalogTitle,
		AudioPath:    res.AudioPath,
		PublishAt:    res.PublishAt,
		Status:       res.Status,
		PodbeanID:    res.PodbeanID,
		PermalinkURL: res.PermalinkURL,
	}
	if res.Err != nil {
		row.ErrorMessage = res.Err.Error()
	}
	if _, err := s.store.RecordSchedule(ctx, row); err != nil {
		logging.WarnWithContext(s.logger, "failed to record schedule", "store_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "schedule history incomplete"),
		)
	}
}

// Failed reports whether any result failed.
func Failed(results []Result) bool {
	for _, r := range results {
		if r.Err != nil {
			return true
		}
	}
	return false
}

// ErrNothingMatched is returned by callers when a plan has no items.
var ErrNothingMatched = errors.New("no schedule entries matched an audio file")

// CheckPlan returns ErrNothingMatched when plan has no publishable items.
func CheckPlan(plan Plan) error {
	if len(plan.Items) == 0 {
		return fmt.Errorf("%w (%d entries parsed)", ErrNothingMatched, len(plan.Entries))
	}
	return nil
}
