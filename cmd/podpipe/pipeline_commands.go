package main

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"podpipe/internal/audio"
	"podpipe/internal/config"
	"podpipe/internal/pipeline"
	"podpipe/internal/preflight"
	"podpipe/internal/services/youtube"
)

// newCatalogSource returns nil when no API key is configured so the runner
// reports a configuration error only if it actually has to fetch.
func newCatalogSource(cfg *config.Config, logger *slog.Logger) pipeline.CatalogSource {
	if cfg.YouTube.APIKey == "" {
		return nil
	}
	return youtube.NewClient(cfg.YouTube.APIKey,
		youtube.WithBaseURL(cfg.YouTube.BaseURL),
		youtube.WithRateLimit(cfg.YouTube.RequestsPerSecond),
		youtube.WithLogger(logger),
	)
}

func newConverter(cfg *config.Config, logger *slog.Logger) *audio.Converter {
	return audio.NewConverter(cfg.Audio, cfg.Paths.PodcastsDir, audio.WithLogger(logger))
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Fetch the catalog if needed, match subscriptions and convert the matches",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ctx.begin(cmd, "run", true)
			if err != nil {
				return err
			}
			if err := preflight.Err(preflight.RunAll(s.ctx, s.cfg, preflight.Scope{Convert: true})); err != nil {
				return s.finish(err, "")
			}

			runner := pipeline.NewRunner(s.cfg, s.store, newCatalogSource(s.cfg, s.logger), newConverter(s.cfg, s.logger), s.logger)
			summary, err := runner.Run(s.ctx)
			if err != nil {
				return s.finish(err, summary.String())
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, summary.String())
			fmt.Fprintf(out, "Elapsed: %s\n", summary.Elapsed.Round(time.Millisecond))
			if summary.Failed > 0 {
				return s.finish(fmt.Errorf("%d conversions failed", summary.Failed), summary.String())
			}
			return s.finish(nil, summary.String())
		},
	}
}

func newCatalogCommand(ctx *commandContext) *cobra.Command {
	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Channel catalog utilities",
	}
	catalogCmd.AddCommand(&cobra.Command{
		Use:   "fetch",
		Short: "Download the channel listing into the catalog CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ctx.begin(cmd, "catalog fetch", false)
			if err != nil {
				return err
			}
			if err := s.cfg.RequireYouTube(); err != nil {
				return s.finish(err, "")
			}
			runner := pipeline.NewRunner(s.cfg, s.store, newCatalogSource(s.cfg, s.logger), nil, s.logger)
			videos, err := runner.FetchCatalog(s.ctx)
			if err != nil {
				return s.finish(err, "")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %d videos to %s\n", len(videos), s.cfg.CatalogPath())
			return s.finish(nil, fmt.Sprintf("%d videos", len(videos)))
		},
	})
	return catalogCmd
}

func newMatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "match",
		Short: "Match subscription titles to catalog videos without converting",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ctx.begin(cmd, "match", false)
			if err != nil {
				return err
			}
			runner := pipeline.NewRunner(s.cfg, s.store, newCatalogSource(s.cfg, s.logger), nil, s.logger)
			matches, summary, err := runner.Match(s.ctx)
			if err != nil {
				return s.finish(err, "")
			}

			rows := make([][]string, 0, len(matches))
			for _, m := range matches {
				rows = append(rows, []string{m.SubscriptionTitle, m.VideoTitle, m.UploadDate, formatScore(m.Confidence)})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"Subscription", "Video", "Uploaded", "Score"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight},
			))
			fmt.Fprintf(out, "%d of %d subscriptions matched; saved to %s\n", summary.Matched, summary.Subscriptions, s.cfg.MatchesPath())
			return s.finish(nil, fmt.Sprintf("%d matched, %d unmatched", summary.Matched, summary.Unmatched))
		},
	}
}

func newConvertCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "convert <url> <date>",
		Short: "Convert one video to podcast audio",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ctx.begin(cmd, "convert", false)
			if err != nil {
				return err
			}
			if err := preflight.Err(preflight.CheckAudioBinaries(s.ctx, s.cfg.Audio)); err != nil {
				return s.finish(err, "")
			}
			res, err := newConverter(s.cfg, s.logger).Convert(s.ctx, args[0], args[1])
			if err != nil {
				return s.finish(err, "")
			}
			out := cmd.OutOrStdout()
			if res.Skipped {
				fmt.Fprintf(out, "Already converted: %s\n", res.Path)
				return s.finish(nil, "skipped "+res.Title)
			}
			fmt.Fprintf(out, "Converted %q to %s\n", res.Title, res.Path)
			return s.finish(nil, "converted "+res.Title)
		},
	}
}

func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', 1, 64)
}
