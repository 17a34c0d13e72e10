package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"podpipe/internal/catalog"
	"podpipe/internal/config"
	"podpipe/internal/testsupport"
)

const ffmpegStub = `if [ "$1" = "-version" ]; then echo "ffmpeg version 7.0"; exit 0; fi
for last; do :; done
head -c 2048 /dev/zero > "$last"
`

const ytdlpStub = `if [ "$1" = "--version" ]; then echo "2025.01.01"; exit 0; fi
exit 1
`

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	for _, key := range []string{"YOUTUBE_API_KEY", "GROQ_API_KEY", "LLM_API_KEY", "PODBEAN_CLIENT_ID", "PODBEAN_CLIENT_SECRET"} {
		t.Setenv(key, "")
	}
	cfg := testsupport.NewConfig(t,
		testsupport.WithFFmpegScript(ffmpegStub),
		testsupport.WithYTDLPScript(ytdlpStub),
	)
	home := filepath.Join(testsupport.BaseDir(cfg), "home")
	t.Setenv("HOME", home)

	configPath := filepath.Join(testsupport.BaseDir(cfg), "podpipe.toml")
	writeTestConfig(t, configPath, cfg)
	return &cliTestEnv{cfg: cfg, configPath: configPath}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
input_dir = %q
output_dir = %q
podcasts_dir = %q
log_dir = %q
state_dir = %q

[audio]
ytdlp_binary = %q
ffmpeg_binary = %q
workers = 2

[logging]
level = "error"
`,
		cfg.Paths.InputDir,
		cfg.Paths.OutputDir,
		cfg.Paths.PodcastsDir,
		cfg.Paths.LogDir,
		cfg.Paths.StateDir,
		cfg.Audio.YTDLPBinary,
		cfg.Audio.FFmpegBinary,
	)
	testsupport.WriteText(t, path, content)
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func seedCatalog(t *testing.T, cfg *config.Config) {
	t.Helper()
	videos := []catalog.Video{
		{Title: "Grace Abounds Part 1", URL: "https://youtu.be/g1", UploadDate: "12-01-24"},
		{Title: "Grace Abounds Part 2", URL: "https://youtu.be/g2", UploadDate: "12-02-24"},
		{Title: "Walking in Faith", URL: "https://youtu.be/w1", UploadDate: "12-04-24"},
	}
	if err := catalog.WriteVideos(cfg.CatalogPath(), videos); err != nil {
		t.Fatalf("WriteVideos: %v", err)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, "missing")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected init to refuse overwriting without --overwrite")
	}
}

func TestConfigShowMasksCredentials(t *testing.T) {
	env := setupCLITestEnv(t)
	t.Setenv("PODBEAN_CLIENT_SECRET", "pb-secret")

	out, _, err := runCLI(t, []string{"config", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "[matching]")
	requireContains(t, out, "********")
	if strings.Contains(out, "pb-secret") {
		t.Fatalf("config show leaked a credential:\n%s", out)
	}
}

func TestScoreCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"score", "The Grace Abounds Podcast Part 2", "grace abounds part 2"}, env.configPath)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	requireContains(t, out, "grace abounds part 2")
	requireContains(t, out, "100.0")
	requireContains(t, out, "yes")
}

func TestMatchCommandWritesMatches(t *testing.T) {
	env := setupCLITestEnv(t)
	seedCatalog(t, env.cfg)
	testsupport.WriteLines(t, env.cfg.SubscriptionsPath(), "title", "Walking in Faith", "Completely Unrelated Title")

	out, _, err := runCLI(t, []string{"match"}, env.configPath)
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	requireContains(t, out, "1 of 2 subscriptions matched")
	matches, err := catalog.LoadMatches(env.cfg.MatchesPath())
	if err != nil {
		t.Fatalf("LoadMatches: %v", err)
	}
	if len(matches) != 1 || matches[0].VideoURL != "https://youtu.be/w1" {
		t.Fatalf("unexpected matches %+v", matches)
	}

	out, _, err = runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "match")
	requireContains(t, out, "completed")
}

func TestMatchCommandWithoutCatalogSource(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteLines(t, env.cfg.SubscriptionsPath(), "title", "Walking in Faith")

	_, _, err := runCLI(t, []string{"match"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "no catalog source configured") {
		t.Fatalf("expected missing catalog source error, got %v", err)
	}
}

func TestScheduleDryRun(t *testing.T) {
	env := setupCLITestEnv(t)
	seedCatalog(t, env.cfg)
	testsupport.WriteFile(t, filepath.Join(env.cfg.Paths.PodcastsDir, "Grace_Abounds_Part_1_12-01-24.mp3"), 64)
	testsupport.WriteFile(t, filepath.Join(env.cfg.Paths.PodcastsDir, "Grace_Abounds_Part_2_12-02-24.mp3"), 64)

	messagePath := filepath.Join(t.TempDir(), "message.txt")
	testsupport.WriteText(t, messagePath, "Grace Abounds part 1 & 2 December 8th, 2024\nMystery Talk December 9, 2024\n")

	out, _, err := runCLI(t, []string{"schedule", messagePath, "--dry-run", "--no-llm"}, env.configPath)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	requireContains(t, out, "Parsed 3 entries (regex parser)")
	requireContains(t, out, "Grace_Abounds_Part_2_12-02-24.mp3")
	requireContains(t, out, "2024-12-08 00:01")
	requireContains(t, out, "Mystery Talk")
	requireContains(t, out, "Dry run")
}

func TestScheduleRequiresPodbeanCredentials(t *testing.T) {
	env := setupCLITestEnv(t)
	seedCatalog(t, env.cfg)

	messagePath := filepath.Join(t.TempDir(), "message.txt")
	testsupport.WriteText(t, messagePath, "Walking in Faith December 8, 2024\n")

	_, _, err := runCLI(t, []string{"schedule", messagePath, "--no-llm"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "Podbean client id") {
		t.Fatalf("expected podbean credential error, got %v", err)
	}
}

func TestCutCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	src := filepath.Join(testsupport.BaseDir(env.cfg), "raw")
	testsupport.WriteFile(t, filepath.Join(src, "one.wav"), 10)
	testsupport.WriteFile(t, filepath.Join(src, "two.m4a"), 10)
	testsupport.WriteFile(t, filepath.Join(src, "notes.txt"), 10)

	out, _, err := runCLI(t, []string{"cut", src}, env.configPath)
	if err != nil {
		t.Fatalf("cut: %v", err)
	}
	requireContains(t, out, "2 files, 2 ok, 0 failed")
	for _, name := range []string{"one.mp3", "two.mp3"} {
		if _, err := os.Stat(filepath.Join(src, "cut", name)); err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
	}
}

func TestStatusReportsFailedChecks(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status"}, env.configPath)
	if err == nil {
		t.Fatal("expected status to fail without credentials")
	}
	requireContains(t, out, "YouTube API key")
	requireContains(t, out, "No episodes recorded yet")
}
