package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"podpipe/internal/config"
	"podpipe/internal/preflight"
	"podpipe/internal/schedule"
	"podpipe/internal/services/llm"
	"podpipe/internal/services/podbean"
)

const publishLayout = "2006-01-02 15:04 MST"

func newScheduleCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool
	var noLLM bool

	cmd := &cobra.Command{
		Use:   "schedule <message-file>",
		Short: "Schedule Podbean episodes from a free-text publishing message",
		Long: "Parse a message such as \"Grace Abounds part 1 & 2 December 4th, 2024\", match every\n" +
			"entry to the catalog and to a converted file, and schedule the episodes on Podbean.\n" +
			"Use \"-\" to read the message from stdin.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			message, err := readMessage(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			s, err := ctx.begin(cmd, "schedule", !dryRun)
			if err != nil {
				return err
			}

			if !dryRun {
				if err := preflight.Err(preflight.RunAll(s.ctx, s.cfg, preflight.Scope{Publish: true})); err != nil {
					return s.finish(err, "")
				}
			}

			var parser schedule.MessageParser
			if !noLLM && s.cfg.LLM.APIKey != "" {
				parser = newLLMClient(s.cfg)
			}
			var publisher schedule.Publisher
			if !dryRun {
				if err := s.cfg.RequirePodbean(); err != nil {
					return s.finish(err, "")
				}
				publisher = podbean.NewClient(podbean.Config{
					ClientID:     s.cfg.Podbean.ClientID,
					ClientSecret: s.cfg.Podbean.ClientSecret,
					BaseURL:      s.cfg.Podbean.BaseURL,
					UserAgent:    s.cfg.Podbean.UserAgent,
				}, podbean.WithLogger(s.logger))
			}

			svc := schedule.NewService(s.cfg, s.store, parser, publisher, s.logger)
			plan, err := svc.Plan(s.ctx, message, !noLLM)
			if err != nil {
				return s.finish(err, "")
			}
			out := cmd.OutOrStdout()
			renderPlan(out, plan)
			if err := schedule.CheckPlan(plan); err != nil {
				return s.finish(err, "")
			}
			if dryRun {
				fmt.Fprintln(out, "Dry run: nothing was uploaded")
				return s.finish(nil, fmt.Sprintf("dry run, %d planned", len(plan.Items)))
			}

			published, err := svc.Publish(s.ctx, plan.Items)
			renderResults(out, published)
			summary := summarizeResults(published, len(plan.Misses))
			if err != nil {
				return s.finish(err, summary)
			}
			if schedule.Failed(published) {
				return s.finish(fmt.Errorf("schedule: %s", summary), summary)
			}
			return s.finish(nil, summary)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Parse and match only; do not upload or schedule")
	cmd.Flags().BoolVar(&noLLM, "no-llm", false, "Use the built-in parser instead of the LLM")
	return cmd
}

func newLLMClient(cfg *config.Config) *llm.Client {
	return llm.NewClient(llm.Config{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		Referer:        cfg.LLM.Referer,
		Title:          cfg.LLM.Title,
		TimeoutSeconds: cfg.LLM.TimeoutSeconds,
	})
}

func readMessage(stdin io.Reader, arg string) (string, error) {
	if arg == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read message from stdin: %w", err)
		}
		return string(data), nil
	}
	path, err := config.ExpandPath(arg)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read message: %w", err)
	}
	return string(data), nil
}

func renderPlan(out io.Writer, plan schedule.Plan) {
	fmt.Fprintf(out, "Parsed %d entries (%s parser)\n", len(plan.Entries), plan.Parser)
	if len(plan.Items) > 0 {
		rows := make([][]string, 0, len(plan.Items))
		for _, item := range plan.Items {
			match := formatScore(item.Confidence)
			if item.Exact {
				match = "exact"
			}
			rows = append(rows, []string{
				item.Title,
				item.CatalogTitle,
				filepath.Base(item.AudioPath),
				item.PublishAt.Format(publishLayout),
				match,
			})
		}
		fmt.Fprintln(out, renderTable(
			[]string{"Entry", "Catalog title", "File", "Publish at", "Match"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
		))
	}
	if len(plan.Misses) > 0 {
		rows := make([][]string, 0, len(plan.Misses))
		for _, miss := range plan.Misses {
			rows = append(rows, []string{miss.Title, miss.Date.Format(time.DateOnly), miss.FailedAt.String(), miss.Closest})
		}
		fmt.Fprintln(out, "Unmatched entries:")
		fmt.Fprintln(out, renderTable([]string{"Entry", "Date", "Failed at", "Catalog title"}, rows, nil))
	}
}

func renderResults(out io.Writer, results []schedule.Result) {
	if len(results) == 0 {
		return
	}
	color := shouldColorize(out)
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		detail := r.PermalinkURL
		if r.Err != nil {
			detail = r.Err.Error()
		}
		rows = append(rows, []string{r.CatalogTitle, colorStatus(string(r.Status), color), r.PublishAt.Format(publishLayout), detail})
	}
	fmt.Fprintln(out, renderTable([]string{"Episode", "Status", "Publish at", "Detail"}, rows, nil))
}

func summarizeResults(results []schedule.Result, unmatched int) string {
	counts := map[string]int{}
	for _, r := range results {
		counts[string(r.Status)]++
	}
	return fmt.Sprintf("%d scheduled, %d skipped, %d failed, %d unmatched",
		counts["scheduled"], counts["skipped"], counts["failed"]+counts["review"], unmatched)
}
