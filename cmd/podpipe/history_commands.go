package main

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"podpipe/internal/preflight"
	"podpipe/internal/store"
)

const historyTimeLayout = "2006-01-02 15:04"

func (c *commandContext) openStore(cmd *cobra.Command) (*store.Store, context.Context, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := store.Open(ctx, cfg.StorePath())
	if err != nil {
		return nil, nil, fmt.Errorf("open state store: %w", err)
	}
	return st, ctx, nil
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var showEpisodes bool
	var showSchedules bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent runs, episodes or schedules",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, c, err := ctx.openStore(cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			out := cmd.OutOrStdout()
			color := shouldColorize(out)
			switch {
			case showEpisodes:
				episodes, err := st.ListEpisodes(c, "", limit)
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(episodes))
				for _, ep := range episodes {
					rows = append(rows, []string{
						ep.SubscriptionTitle,
						ep.VideoTitle,
						colorStatus(string(ep.Status), color),
						filepath.Base(ep.AudioPath),
						ep.UpdatedAt.Local().Format(historyTimeLayout),
					})
				}
				fmt.Fprintln(out, renderTable([]string{"Subscription", "Video", "Status", "Audio", "Updated"}, rows, nil))
			case showSchedules:
				schedules, err := st.ListSchedules(c, limit)
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(schedules))
				for _, sch := range schedules {
					rows = append(rows, []string{
						sch.CatalogTitle,
						colorStatus(string(sch.Status), color),
						sch.PublishAt.Format(publishLayout),
						firstNonEmpty(sch.PermalinkURL, sch.ErrorMessage),
					})
				}
				fmt.Fprintln(out, renderTable([]string{"Episode", "Status", "Publish at", "Detail"}, rows, nil))
			default:
				runs, err := st.ListRuns(c, limit)
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(runs))
				for _, run := range runs {
					rows = append(rows, []string{
						run.StartedAt.Local().Format(historyTimeLayout),
						run.Command,
						colorStatus(string(run.Status), color),
						runDuration(run),
						run.Summary,
					})
				}
				fmt.Fprintln(out, renderTable([]string{"Started", "Command", "Status", "Took", "Summary"}, rows, nil))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum rows to show")
	cmd.Flags().BoolVar(&showEpisodes, "episodes", false, "List converted episodes instead of runs")
	cmd.Flags().BoolVar(&showSchedules, "schedules", false, "List Podbean schedules instead of runs")
	cmd.MarkFlagsMutuallyExclusive("episodes", "schedules")
	return cmd
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check configuration, tools and stored state",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			st, c, err := ctx.openStore(cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			out := cmd.OutOrStdout()
			color := shouldColorize(out)
			checks := preflight.RunAll(c, cfg, preflight.Everything)
			rows := make([][]string, 0, len(checks))
			for _, r := range checks {
				state := "ok"
				if !r.Passed {
					state = "failed"
				}
				rows = append(rows, []string{r.Name, colorStatus(state, color), r.Detail})
			}
			fmt.Fprintln(out, renderTable([]string{"Check", "Result", "Detail"}, rows, nil))

			episodes, err := st.ListEpisodes(c, "", 10000)
			if err != nil {
				return err
			}
			counts := map[store.Status]int{}
			for _, ep := range episodes {
				counts[ep.Status]++
			}
			statuses := make([]string, 0, len(counts))
			for status := range counts {
				statuses = append(statuses, string(status))
			}
			slices.Sort(statuses)
			countRows := make([][]string, 0, len(statuses))
			for _, status := range statuses {
				countRows = append(countRows, []string{colorStatus(status, color), fmt.Sprint(counts[store.Status(status)])})
			}
			if len(countRows) > 0 {
				fmt.Fprintln(out, renderTable([]string{"Episode status", "Count"}, countRows, []columnAlignment{alignLeft, alignRight}))
			} else {
				fmt.Fprintln(out, "No episodes recorded yet")
			}

			if runs, err := st.ListRuns(c, 1); err == nil && len(runs) > 0 {
				last := runs[0]
				fmt.Fprintf(out, "Last run: %s %s (%s)\n", last.Command, last.Status, last.StartedAt.Local().Format(historyTimeLayout))
			}
			if failed := preflight.Failed(checks); len(failed) > 0 {
				return fmt.Errorf("%d checks failed", len(failed))
			}
			return nil
		},
	}
}

func runDuration(run store.Run) string {
	if run.FinishedAt.IsZero() {
		return "-"
	}
	return run.FinishedAt.Sub(run.StartedAt).Round(time.Second).String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
