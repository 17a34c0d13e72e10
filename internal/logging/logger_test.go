package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"podpipe/internal/config"
	"podpipe/internal/logging"
	"podpipe/internal/services"
)

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Format: "console", Console: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger = logging.NewComponentLogger(logger, "matcher")
	logger.Info("selected candidate", logging.String("title", "Walking in Faith"), logging.Float64("score", 94.8))
	logger.Debug("hidden")

	out := buf.String()
	for _, fragment := range []string{" INFO matcher: selected candidate", `title="Walking in Faith"`, "score=94.8"} {
		if !strings.Contains(out, fragment) {
			t.Fatalf("expected %q in %q", fragment, out)
		}
	}
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug line leaked at info level: %q", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("unexpected colour codes: %q", out)
	}
	if strings.Contains(out, "component=") {
		t.Fatalf("component should be rendered as a prefix: %q", out)
	}
}

func TestConsoleColor(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Console: &buf, Color: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Warn("careful")
	if !strings.Contains(buf.String(), "\x1b[33mWARN\x1b[0m") {
		t.Fatalf("expected coloured level, got %q", buf.String())
	}
}

func TestJSONFormatTeesToFile(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "podpipe.log")
	logger, err := logging.New(logging.Options{Level: "debug", Format: "json", Console: &buf, Color: true, FilePath: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Error("convert failed", logging.Error(errors.New("exit status 1")))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("console output is not JSON: %v (%q)", err, buf.String())
	}
	if record["level"] != "error" || record["msg"] != "convert failed" || record["error"] != "exit status 1" {
		t.Fatalf("unexpected record: %v", record)
	}
	if _, ok := record["ts"]; !ok {
		t.Fatalf("expected ts key: %v", record)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "convert failed") {
		t.Fatalf("log file missing record: %q", data)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()
	var console bytes.Buffer
	logger, err := logging.NewFromConfig(&cfg, &console)
	if err != nil {
		t.Fatalf("NewFromConfig: %v", err)
	}
	logger.Info("hello")
	if _, err := os.Stat(filepath.Join(cfg.Paths.LogDir, logging.LogFileName)); err != nil {
		t.Fatalf("expected log file: %v", err)
	}
	if !strings.Contains(console.String(), "hello") {
		t.Fatalf("expected console output, got %q", console.String())
	}
}

func TestWithContextAddsRunFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Console: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := services.WithStage(services.WithRunID(context.Background(), "run-1"), "schedule")
	logging.WithContext(ctx, logger).Info("tick")
	for _, fragment := range []string{"run_id=run-1", "stage=schedule"} {
		if !strings.Contains(buf.String(), fragment) {
			t.Fatalf("expected %q in %q", fragment, buf.String())
		}
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Console: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logging.WarnWithContext(logger, "no match", "match_skipped", logging.String(logging.FieldImpact, "episode not converted"))
	out := buf.String()
	for _, fragment := range []string{"event_type=match_skipped", `error_hint="check logs for details"`, `impact="episode not converted"`} {
		if !strings.Contains(out, fragment) {
			t.Fatalf("expected %q in %q", fragment, out)
		}
	}
}

func TestNopLogger(t *testing.T) {
	logger := logging.NewComponentLogger(nil, "x")
	logger.Info("discarded")
	if logger.Enabled(context.Background(), 8) {
		t.Fatal("nop logger should never be enabled")
	}
}

func TestErrorWithContextAddsServiceStage(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Console: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	cause := services.Wrap(services.ErrExternalTool, "convert", "ffmpeg", "exit 1", errors.New("boom"))
	logging.ErrorWithContext(logger, "conversion failed", "convert_failed", logging.Error(cause))
	out := buf.String()
	for _, fragment := range []string{"event_type=convert_failed", "stage=convert", "operation=ffmpeg"} {
		if !strings.Contains(out, fragment) {
			t.Fatalf("expected %q in %q", fragment, out)
		}
	}
}
