package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"podpipe/internal/config"
	"podpipe/internal/logging"
	"podpipe/internal/services"
	"podpipe/internal/textutil"
)

const stageConvert = "convert"

// Result describes one conversion.
type Result struct {
	Title   string
	Path    string
	Skipped bool
}

// Converter downloads a video's best audio stream and encodes it to the
// podcast format.
type Converter struct {
	cfg       config.Audio
	outputDir string
	exec      Executor
	logger    *slog.Logger
	sleep     func(context.Context, time.Duration) error
}

// Option configures a Converter.
type Option func(*Converter)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Converter) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Converter) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewConverter writes finished files into outputDir.
func NewConverter(cfg config.Audio, outputDir string, opts ...Option) *Converter {
	c := &Converter{
		cfg:       cfg,
		outputDir: outputDir,
		exec:      commandExecutor{},
		logger:    logging.NewNop(),
		sleep:     sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.NewComponentLogger(c.logger, "audio")
	return c
}

// Convert fetches the title for url, derives the output file name from it and
// date, and produces the MP3. An existing non-empty output is left alone.
func (c *Converter) Convert(ctx context.Context, url, date string) (Result, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return Result{}, services.Wrap(services.ErrValidation, stageConvert, "convert", "video url required", nil)
	}
	if c.cfg.CommandTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(c.cfg.CommandTimeout)*time.Second)
		defer cancel()
	}

	rawTitle, err := c.fetchTitle(ctx, url)
	if err != nil {
		return Result{}, err
	}
	display, filename := textutil.CleanTitle(rawTitle, date)
	if filename == "" {
		return Result{}, services.Wrap(services.ErrValidation, stageConvert, "title", "title is empty after cleaning: "+rawTitle, nil)
	}
	result := Result{Title: display, Path: filepath.Join(c.outputDir, filename+".mp3")}
	logger := c.logger.With(logging.String(logging.FieldTitle, display))

	if info, err := os.Stat(result.Path); err == nil && info.Size() > 0 {
		logger.Info("audio already exists",
			logging.String(logging.FieldEventType, "convert_skipped"),
			logging.String("path", result.Path),
		)
		result.Skipped = true
		return result, nil
	}
	if err := os.MkdirAll(c.outputDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("create output dir: %w", err)
	}

	download := result.Path + ".download"
	partial := result.Path + ".part"
	defer func() {
		_ = os.Remove(download)
		_ = os.Remove(partial)
	}()

	started := time.Now()
	if err := c.downloadWithRetry(ctx, logger, url, download); err != nil {
		return Result{}, err
	}
	if err := c.encode(ctx, download, partial); err != nil {
		return Result{}, err
	}
	if err := c.verify(partial); err != nil {
		return Result{}, err
	}
	if err := os.Rename(partial, result.Path); err != nil {
		return Result{}, fmt.Errorf("finalize output: %w", err)
	}

	logger.Info("audio converted",
		logging.String(logging.FieldEventType, "convert_complete"),
		logging.String("path", result.Path),
		logging.Duration("elapsed", time.Since(started)),
	)
	return result, nil
}

func (c *Converter) fetchTitle(ctx context.Context, url string) (string, error) {
	out, err := c.exec.Run(ctx, c.cfg.YTDLPBinary, "--print", "title", "--skip-download", "--no-playlist", "--no-warnings", url)
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, stageConvert, "yt-dlp title", url, err)
	}
	title := strings.TrimSpace(string(out))
	if i := strings.IndexByte(title, '\n'); i >= 0 {
		title = strings.TrimSpace(title[:i])
	}
	if title == "" {
		return "", services.Wrap(services.ErrExternalTool, stageConvert, "yt-dlp title", "empty title for "+url, nil)
	}
	return title, nil
}

func (c *Converter) downloadWithRetry(ctx context.Context, logger *slog.Logger, url, target string) error {
	attempts := max(1, c.cfg.MaxRetries)
	delay := time.Duration(c.cfg.RetryDelaySeconds) * time.Second

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		_ = os.Remove(target)
		_, err := c.exec.Run(ctx, c.cfg.YTDLPBinary,
			"-f", "bestaudio/best",
			"--no-playlist",
			"--no-warnings",
			"--retries", "10",
			"-o", target,
			url,
		)
		if err == nil {
			if _, statErr := os.Stat(target); statErr == nil {
				return nil
			}
			err = errors.New("download produced no file")
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		if attempt < attempts {
			logging.WarnWithContext(logger, "download failed, retrying", "download_retry",
				logging.Int("attempt", attempt),
				logging.Int("max_attempts", attempts),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check network access and that yt-dlp is current"),
				logging.String(logging.FieldImpact, "retrying after delay"),
			)
			if err := c.sleep(ctx, delay); err != nil {
				return err
			}
		}
	}
	return services.Wrap(services.ErrExternalTool, stageConvert, "download", fmt.Sprintf("failed after %d attempts", attempts), lastErr)
}

// FilterChain is the ffmpeg -af graph applied to every converted episode.
func FilterChain(loudnessTarget float64) string {
	return strings.Join([]string{
		"highpass=f=50",
		"lowpass=f=15000",
		"afftdn=nf=-25",
		"acompressor=threshold=-20dB:ratio=3:attack=5:release=50",
		"dynaudnorm=f=150:g=15",
		"loudnorm=I=" + strconv.FormatFloat(loudnessTarget, 'f', -1, 64) + ":TP=-1.5:LRA=11",
	}, ",")
}

func (c *Converter) encode(ctx context.Context, input, output string) error {
	args := []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-i", input,
		"-vn",
		"-ac", strconv.Itoa(max(1, c.cfg.Channels)),
		"-ar", strconv.Itoa(c.cfg.SampleRate),
		"-af", FilterChain(c.cfg.LoudnessTarget),
		"-codec:a", "libmp3lame",
		"-b:a", c.cfg.Bitrate,
		"-f", "mp3",
		output,
	}
	if _, err := c.exec.Run(ctx, c.cfg.FFmpegBinary, args...); err != nil {
		return services.Wrap(services.ErrExternalTool, stageConvert, "ffmpeg", "encode failed", err)
	}
	return nil
}

func (c *Converter) verify(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, stageConvert, "verify", "output file not created", err)
	}
	if info.Size() < c.cfg.MinOutputBytes {
		return services.Wrap(services.ErrExternalTool, stageConvert, "verify",
			fmt.Sprintf("output file too small (%d bytes)", info.Size()), nil)
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
