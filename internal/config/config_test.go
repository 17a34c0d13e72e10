package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"podpipe/internal/config"
)

func clearCredentialEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"YOUTUBE_API_KEY", "GROQ_API_KEY", "LLM_API_KEY", "PODBEAN_CLIENT_ID", "PODBEAN_CLIENT_SECRET"} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaultConfigExpandsPathsAndReadsEnv(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv("YOUTUBE_API_KEY", "yt-key")
	t.Setenv("GROQ_API_KEY", "groq-key")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if want := filepath.Join(tempHome, ".config", "podpipe", "config.toml"); resolved != want {
		t.Fatalf("resolved = %q, want %q", resolved, want)
	}
	if want := filepath.Join(tempHome, ".local", "share", "podpipe", "output", "podcasts"); cfg.Paths.PodcastsDir != want {
		t.Fatalf("podcasts dir = %q, want %q", cfg.Paths.PodcastsDir, want)
	}
	if cfg.YouTube.APIKey != "yt-key" || cfg.LLM.APIKey != "groq-key" {
		t.Fatalf("expected env credentials, got youtube=%q llm=%q", cfg.YouTube.APIKey, cfg.LLM.APIKey)
	}
	if cfg.Matching.Threshold != 70 || cfg.Matching.PartThreshold != 90 || cfg.Matching.FileThreshold != 90 {
		t.Fatalf("unexpected thresholds: %+v", cfg.Matching)
	}
	if cfg.Audio.Workers < 1 {
		t.Fatalf("expected at least one audio worker, got %d", cfg.Audio.Workers)
	}
	if err := cfg.RequirePodbean(); err == nil || !strings.Contains(err.Error(), "PODBEAN_CLIENT_ID") {
		t.Fatalf("expected podbean credential error, got %v", err)
	}
	if err := cfg.RequireYouTube(); err != nil {
		t.Fatalf("RequireYouTube: %v", err)
	}
}

func TestLoadCustomFile(t *testing.T) {
	clearCredentialEnv(t)
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	path := filepath.Join(t.TempDir(), "podpipe.toml")
	content := `
[paths]
output_dir = "~/out"

[matching]
threshold = 75.5
weight_partial = 1
weight_token_set = 1
weight_token_sort = 1

[podbean]
client_id = "id"
client_secret = "secret"
timezone = "UTC"
publish_time = "06:30"

[logging]
format = "JSON"
level = "DEBUG"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected existing config at %q, got %q (exists=%v)", path, resolved, exists)
	}
	if cfg.Paths.OutputDir != filepath.Join(tempHome, "out") {
		t.Fatalf("output dir = %q", cfg.Paths.OutputDir)
	}
	if cfg.Matching.Threshold != 75.5 {
		t.Fatalf("threshold = %v", cfg.Matching.Threshold)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("logging not normalized: %+v", cfg.Logging)
	}
	hour, minute, err := cfg.PublishClock()
	if err != nil || hour != 6 || minute != 30 {
		t.Fatalf("PublishClock = %d:%d, %v", hour, minute, err)
	}
	if err := cfg.RequirePodbean(); err != nil {
		t.Fatalf("RequirePodbean: %v", err)
	}
	if cfg.MatchesPath() != filepath.Join(tempHome, "out", "matched_urls.csv") {
		t.Fatalf("matches path = %q", cfg.MatchesPath())
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"threshold range", func(c *config.Config) { c.Matching.Threshold = 101 }, "matching.threshold"},
		{"negative weight", func(c *config.Config) { c.Matching.WeightTokenSet = -1 }, "weights must not be negative"},
		{"zero weights", func(c *config.Config) {
			c.Matching.WeightPartial, c.Matching.WeightTokenSet, c.Matching.WeightTokenSort = 0, 0, 0
		}, "sum to a positive"},
		{"timezone", func(c *config.Config) { c.Podbean.Timezone = "Mars/Olympus" }, "podbean.timezone"},
		{"publish time", func(c *config.Config) { c.Podbean.PublishTime = "noon" }, "podbean.publish_time"},
		{"channels", func(c *config.Config) { c.Audio.Channels = 6 }, "audio.channels"},
		{"log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"youtube url", func(c *config.Config) { c.YouTube.BaseURL = "ftp://example" }, "youtube.base_url"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Validate() = %v, want error containing %q", err, tt.want)
			}
		})
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[matching]\nthreshhold = 80\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected unknown key to be rejected")
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var decoded config.Config
	if err := toml.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("sample config does not parse: %v", err)
	}
	if decoded.Matching.Threshold != 70 || decoded.Podbean.Timezone != "America/Los_Angeles" {
		t.Fatalf("unexpected sample values: %+v %+v", decoded.Matching, decoded.Podbean)
	}

	clearCredentialEnv(t)
	t.Setenv("HOME", t.TempDir())
	if _, _, _, err := config.Load(path); err != nil {
		t.Fatalf("sample config fails to load: %v", err)
	}
}

func TestDumpMasksCredentials(t *testing.T) {
	cfg := config.Default()
	cfg.YouTube.APIKey = "yt-secret"
	cfg.Podbean.ClientSecret = "pb-secret"

	data, err := cfg.Dump()
	if err != nil {
		t.Fatalf("Dump: %v", err)
	}
	text := string(data)
	for _, secret := range []string{"yt-secret", "pb-secret"} {
		if strings.Contains(text, secret) {
			t.Fatalf("dump leaks %q:\n%s", secret, text)
		}
	}
	var decoded config.Config
	if err := toml.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("dump does not parse: %v", err)
	}
	if decoded.Podbean.ClientID != "" {
		t.Fatalf("empty credential should stay empty, got %q", decoded.Podbean.ClientID)
	}
	if decoded.Matching.Threshold != cfg.Matching.Threshold {
		t.Fatalf("threshold = %v, want %v", decoded.Matching.Threshold, cfg.Matching.Threshold)
	}
	if cfg.YouTube.APIKey != "yt-secret" {
		t.Fatal("Dump mutated the receiver")
	}
}
