package preflight

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"podpipe/internal/config"
	"podpipe/internal/services"
	"podpipe/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	result := CheckDirectoryAccess("test", t.TempDir())
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if !strings.Contains(result.Detail, "does not exist") {
		t.Fatalf("unexpected detail %q", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if CheckDirectoryAccess("test", f).Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckLLM(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"ok\":true}"}}]}`))
	}))
	defer srv.Close()

	if r := CheckLLM(context.Background(), "LLM", config.LLM{APIKey: "good", BaseURL: srv.URL}); !r.Passed {
		t.Fatalf("expected pass, got %s", r.Detail)
	}
	if r := CheckLLM(context.Background(), "LLM", config.LLM{APIKey: "bad", BaseURL: srv.URL}); r.Passed {
		t.Fatal("expected failure for bad key")
	}
	if r := CheckLLM(context.Background(), "LLM", config.LLM{}); r.Passed || r.Detail != "API key missing" {
		t.Fatalf("unexpected result for missing key: %+v", r)
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil, Everything); results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_DirectoriesOnly(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	results := RunAll(context.Background(), cfg, Scope{})
	if len(results) != 4 {
		t.Fatalf("expected 4 directory results, got %d", len(results))
	}
	if err := Err(results); err != nil {
		t.Fatalf("unexpected failure: %v", err)
	}
}

func TestRunAll_ConvertScope(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())

	results := RunAll(context.Background(), cfg, Scope{Convert: true})
	names := make([]string, 0, len(results))
	for _, r := range results {
		names = append(names, r.Name)
		if !r.Passed {
			t.Errorf("check %q failed: %s", r.Name, r.Detail)
		}
	}
	if !strings.Contains(strings.Join(names, ","), "yt-dlp") {
		t.Fatalf("expected yt-dlp check, got %v", names)
	}
}

func TestRunAll_PublishScopeReportsMissingCredentials(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	results := RunAll(context.Background(), cfg, Scope{Publish: true})
	failed := Failed(results)
	if len(failed) != 2 {
		t.Fatalf("expected 2 failed credential checks, got %+v", failed)
	}
	err := Err(results)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if !strings.Contains(err.Error(), "Podbean client id") {
		t.Fatalf("error should name the failed check: %v", err)
	}
}

func TestRunAll_SkipsLLMWithoutKey(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	for _, r := range RunAll(context.Background(), cfg, Scope{LLM: true}) {
		if r.Name == "Schedule LLM" {
			t.Fatal("LLM check should be skipped when no key is configured")
		}
	}
}
