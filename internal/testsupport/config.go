// Package testsupport builds configs, stores and fixture files for tests.
package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"podpipe/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config whose directories all live under a fresh temp
// dir. Credentials are blank unless an option sets them.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths = config.Paths{
		InputDir:    filepath.Join(base, "input"),
		OutputDir:   filepath.Join(base, "output"),
		PodcastsDir: filepath.Join(base, "output", "podcasts"),
		LogDir:      filepath.Join(base, "logs"),
		StateDir:    filepath.Join(base, "state"),
	}
	cfgVal.Audio.RetryDelaySeconds = 0
	cfgVal.Audio.Workers = 2
	cfgVal.YouTube.RequestsPerSecond = 0

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithYouTube sets the API key and points the client at baseURL.
func WithYouTube(key, baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.YouTube.APIKey = key
		b.cfg.YouTube.BaseURL = baseURL
	}
}

// WithLLM sets the LLM key and endpoint.
func WithLLM(key, baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.LLM.APIKey = key
		b.cfg.LLM.BaseURL = baseURL
	}
}

// WithPodbean sets Podbean credentials and endpoint.
func WithPodbean(id, secret, baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Podbean.ClientID = id
		b.cfg.Podbean.ClientSecret = secret
		b.cfg.Podbean.BaseURL = baseURL
	}
}

// WithStubbedBinaries writes stub executables that exit 0 and prepends them
// to PATH. If names is empty, yt-dlp and ffmpeg are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"yt-dlp", "ffmpeg"}
		}
		binDir := b.binDir()
		for _, name := range names {
			writeScript(b.t, filepath.Join(binDir, name), "exit 0\n")
		}
		b.t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
}

// WithYTDLPScript installs a shell script body as the yt-dlp binary.
func WithYTDLPScript(body string) ConfigOption {
	return func(b *configBuilder) {
		path := filepath.Join(b.binDir(), "yt-dlp")
		writeScript(b.t, path, body)
		b.cfg.Audio.YTDLPBinary = path
	}
}

// WithFFmpegScript installs a shell script body as the ffmpeg binary.
func WithFFmpegScript(body string) ConfigOption {
	return func(b *configBuilder) {
		path := filepath.Join(b.binDir(), "ffmpeg")
		writeScript(b.t, path, body)
		b.cfg.Audio.FFmpegBinary = path
	}
}

func (b *configBuilder) binDir() string {
	dir := filepath.Join(b.baseDir, "bin")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		b.t.Fatalf("mkdir bin dir: %v", err)
	}
	return dir
}

func writeScript(t testing.TB, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", path, err)
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.InputDir)
}
