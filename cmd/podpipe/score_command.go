package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"podpipe/internal/pipeline"
	"podpipe/internal/textmatch"
)

func newScoreCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "score <a> <b>",
		Short: "Show how two titles normalize and score",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			b := pipeline.NewScorer(cfg.Matching).Explain(args[0], args[1])
			partA, okA := textmatch.ExtractPart(args[0])
			partB, okB := textmatch.ExtractPart(args[1])

			rows := [][]string{
				{"normalized a", b.Left},
				{"normalized b", b.Right},
				{"part a", partLabel(partA, okA)},
				{"part b", partLabel(partB, okB)},
				{"partial", strconv.Itoa(b.Partial)},
				{"token set", strconv.Itoa(b.TokenSet)},
				{"token sort", strconv.Itoa(b.TokenSort)},
				{"score", formatScore(b.Score)},
				{"match (>= " + formatScore(cfg.Matching.Threshold) + ")", yesNo(b.Score >= cfg.Matching.Threshold)},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Metric", "Value"}, rows, nil))
			return nil
		},
	}
}

func partLabel(n int, ok bool) string {
	if !ok {
		return "-"
	}
	return strconv.Itoa(n)
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
