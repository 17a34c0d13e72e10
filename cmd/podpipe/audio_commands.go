package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"podpipe/internal/audio"
	"podpipe/internal/config"
	"podpipe/internal/preflight"
)

type batchOp func(b *audio.Batch, ctx context.Context, src, dst string) ([]audio.FileResult, error)

func newCutCommand(ctx *commandContext) *cobra.Command {
	return newBatchCommand(ctx, "cut", "Drop the intro of every audio file in a directory", "cut",
		func(b *audio.Batch, c context.Context, src, dst string) ([]audio.FileResult, error) {
			return b.Cut(c, src, dst)
		})
}

func newTranscodeCommand(ctx *commandContext) *cobra.Command {
	return newBatchCommand(ctx, "transcode", "Re-encode every audio file in a directory", "transcoded",
		func(b *audio.Batch, c context.Context, src, dst string) ([]audio.FileResult, error) {
			return b.Transcode(c, src, dst)
		})
}

func newBatchCommand(ctx *commandContext, name, short, defaultSubdir string, op batchOp) *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   name + " <dir>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ctx.begin(cmd, name, false)
			if err != nil {
				return err
			}
			src, err := config.ExpandPath(args[0])
			if err != nil {
				return s.finish(err, "")
			}
			dst := filepath.Join(src, defaultSubdir)
			if outDir != "" {
				if dst, err = config.ExpandPath(outDir); err != nil {
					return s.finish(err, "")
				}
			}
			if err := preflight.Err(preflight.CheckAudioBinaries(s.ctx, s.cfg.Audio)); err != nil {
				return s.finish(err, "")
			}

			results, err := op(audio.NewBatch(s.cfg.Audio, audio.WithLogger(s.logger)), s.ctx, src, dst)
			if err != nil {
				return s.finish(err, "")
			}
			rows := make([][]string, 0, len(results))
			for _, r := range results {
				outcome := "ok"
				if r.Err != nil {
					outcome = r.Err.Error()
				}
				rows = append(rows, []string{filepath.Base(r.Source), outcome})
			}
			sum := audio.Summarize(results)
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable([]string{"File", "Result"}, rows, nil))
			summary := fmt.Sprintf("%d files, %d ok, %d failed", sum.Total, sum.Succeeded, sum.Failed)
			fmt.Fprintf(out, "%s; output in %s\n", summary, dst)
			if sum.Failed > 0 {
				return s.finish(fmt.Errorf("%s: %d of %d files failed", name, sum.Failed, sum.Total), summary)
			}
			return s.finish(nil, summary)
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Output directory (default <dir>/"+defaultSubdir+")")
	return cmd
}
