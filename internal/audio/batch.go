package audio

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"podpipe/internal/config"
	"podpipe/internal/logging"
	"podpipe/internal/services"
)

// SourceExtensions are the audio formats picked up by batch jobs.
var SourceExtensions = []string{".wav", ".m4a", ".aac", ".wma", ".ogg", ".flac", ".mp3", ".webm"}

// FileResult is the outcome for one file of a batch.
type FileResult struct {
	Source string
	Output string
	Err    error
}

// BatchSummary counts batch outcomes.
type BatchSummary struct {
	Total     int
	Succeeded int
	Failed    int
}

// Summarize counts the results.
func Summarize(results []FileResult) BatchSummary {
	s := BatchSummary{Total: len(results)}
	for _, r := range results {
		if r.Err != nil {
			s.Failed++
		} else {
			s.Succeeded++
		}
	}
	return s
}

// Batch re-encodes directories of audio with a bounded worker pool.
type Batch struct {
	cfg    config.Audio
	exec   Executor
	logger *slog.Logger
}

// NewBatch builds a Batch. Options shared with Converter apply.
func NewBatch(cfg config.Audio, opts ...Option) *Batch {
	conv := NewConverter(cfg, "", opts...)
	return &Batch{cfg: cfg, exec: conv.exec, logger: conv.logger}
}

// Cut drops the first CutSeconds of every file in srcDir and writes MP3s to
// dstDir.
func (b *Batch) Cut(ctx context.Context, srcDir, dstDir string) ([]FileResult, error) {
	return b.run(ctx, "cut", srcDir, dstDir, func(src, dst string) []string {
		return []string{
			"-y", "-hide_banner", "-loglevel", "error",
			"-ss", strconv.Itoa(b.cfg.CutSeconds),
			"-i", src,
			"-vn",
			"-codec:a", "libmp3lame",
			"-b:a", b.cfg.CutBitrate,
			"-f", "mp3",
			dst,
		}
	})
}

// Transcode re-encodes every file in srcDir to MP3 at the transcode sample
// rate and bitrate.
func (b *Batch) Transcode(ctx context.Context, srcDir, dstDir string) ([]FileResult, error) {
	return b.run(ctx, "transcode", srcDir, dstDir, func(src, dst string) []string {
		return []string{
			"-y", "-hide_banner", "-loglevel", "error",
			"-i", src,
			"-vn",
			"-ar", strconv.Itoa(b.cfg.TranscodeSampleRate),
			"-codec:a", "libmp3lame",
			"-b:a", b.cfg.TranscodeBitrate,
			"-f", "mp3",
			dst,
		}
	})
}

func (b *Batch) run(ctx context.Context, op, srcDir, dstDir string, args func(src, dst string) []string) ([]FileResult, error) {
	sources, err := ListSources(srcDir)
	if err != nil {
		return nil, err
	}
	if filepath.Clean(srcDir) == filepath.Clean(dstDir) {
		return nil, services.Wrap(services.ErrValidation, op, "batch", "destination must differ from source", nil)
	}
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return nil, fmt.Errorf("create destination: %w", err)
	}

	workers := max(1, b.cfg.Workers)
	b.logger.Info("batch started",
		logging.String(logging.FieldEventType, op+"_started"),
		logging.Int("files", len(sources)),
		logging.Int("workers", workers),
	)

	results := make([]FileResult, len(sources))
	var done atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, src := range sources {
		dst := filepath.Join(dstDir, strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))+".mp3")
		g.Go(func() error {
			results[i] = FileResult{Source: src, Output: dst}
			if err := gctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			partial := dst + ".part"
			_, err := b.exec.Run(gctx, b.cfg.FFmpegBinary, args(src, partial)...)
			if err == nil {
				err = os.Rename(partial, dst)
			}
			if err != nil {
				_ = os.Remove(partial)
				results[i].Err = services.Wrap(services.ErrExternalTool, op, "ffmpeg", filepath.Base(src), err)
				logging.WarnWithContext(b.logger, op+" failed", op+"_failed",
					logging.String("file", filepath.Base(src)),
					logging.Error(err),
					logging.String(logging.FieldImpact, "file skipped"),
				)
				return nil
			}
			b.logger.Debug(op+" complete",
				logging.String("file", filepath.Base(src)),
				logging.Int("done", int(done.Add(1))),
			)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}

// ListSources returns the audio files directly inside dir, sorted by name.
func ListSources(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "batch", "list sources", dir, err)
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if slices.Contains(SourceExtensions, strings.ToLower(filepath.Ext(entry.Name()))) {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	slices.Sort(files)
	return files, nil
}
