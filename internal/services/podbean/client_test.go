package podbean

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"podpipe/internal/services"
)

type fakePodbean struct {
	server      *httptest.Server
	tokenCalls  atomic.Int32
	uploaded    []byte
	episodeForm map[string]string
}

func newFakePodbean(t *testing.T) *fakePodbean {
	t.Helper()
	f := &fakePodbean{}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /oauth/token", func(w http.ResponseWriter, r *http.Request) {
		f.tokenCalls.Add(1)
		user, pass, ok := r.BasicAuth()
		if !ok || user != "id" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid_client"}`))
			return
		}
		if err := r.ParseForm(); err != nil || r.PostForm.Get("grant_type") != "client_credentials" {
			t.Errorf("unexpected grant: %v %v", err, r.PostForm)
		}
		_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("GET /files/uploadAuthorize", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("filename") != "Grace_Part_1.mp3" || q.Get("content_type") != "audio/mpeg" || q.Get("filesize") != "5" {
			t.Errorf("unexpected authorize params: %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"presigned_url":"` + f.server.URL + `/upload/abc","file_key":"key-abc"}`))
	})
	mux.HandleFunc("PUT /upload/abc", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		f.uploaded = body
	})
	mux.HandleFunc("POST /episodes", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("missing bearer token")
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		f.episodeForm = map[string]string{}
		for k := range r.PostForm {
			f.episodeForm[k] = r.PostForm.Get(k)
		}
		_, _ = w.Write([]byte(`{"episode":{"id":"EP1","permalink_url":"https://example.podbean.com/e/grace","status":"future"}}`))
	})
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func TestUploadAndSchedule(t *testing.T) {
	fake := newFakePodbean(t)
	client := NewClient(Config{ClientID: "id", ClientSecret: "secret", BaseURL: fake.server.URL})

	path := filepath.Join(t.TempDir(), "Grace_Part_1.mp3")
	if err := os.WriteFile(path, []byte("audio"), 0o644); err != nil {
		t.Fatal(err)
	}
	key, err := client.UploadAudio(context.Background(), path)
	if err != nil {
		t.Fatalf("UploadAudio: %v", err)
	}
	if key != "key-abc" || string(fake.uploaded) != "audio" {
		t.Fatalf("upload mismatch: key=%q body=%q", key, fake.uploaded)
	}

	publishAt := time.Date(2024, 12, 4, 0, 1, 0, 0, time.UTC)
	ep, err := client.ScheduleEpisode(context.Background(), "Grace Part 1", "Episode: Grace Part 1", key, publishAt)
	if err != nil {
		t.Fatalf("ScheduleEpisode: %v", err)
	}
	if ep.ID != "EP1" || ep.PermalinkURL == "" {
		t.Fatalf("unexpected episode: %+v", ep)
	}
	want := map[string]string{
		"title":             "Grace Part 1",
		"status":            "future",
		"type":              "public",
		"media_key":         "key-abc",
		"publish_timestamp": strconv.FormatInt(publishAt.Unix(), 10),
	}
	for k, v := range want {
		if fake.episodeForm[k] != v {
			t.Errorf("form[%s] = %q, want %q", k, fake.episodeForm[k], v)
		}
	}
	if got := fake.tokenCalls.Load(); got != 1 {
		t.Fatalf("token should be cached, fetched %d times", got)
	}
}

func TestTokenRefreshAfterExpiry(t *testing.T) {
	fake := newFakePodbean(t)
	client := NewClient(Config{ClientID: "id", ClientSecret: "secret", BaseURL: fake.server.URL})
	now := time.Now()
	client.now = func() time.Time { return now }

	if _, err := client.accessToken(context.Background()); err != nil {
		t.Fatal(err)
	}
	now = now.Add(2 * time.Hour)
	if _, err := client.accessToken(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := fake.tokenCalls.Load(); got != 2 {
		t.Fatalf("expected refresh after expiry, token calls = %d", got)
	}
}

func TestBadCredentials(t *testing.T) {
	fake := newFakePodbean(t)
	client := NewClient(Config{ClientID: "id", ClientSecret: "wrong", BaseURL: fake.server.URL})
	_, err := client.ScheduleEpisode(context.Background(), "t", "d", "k", time.Now())
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestMissingCredentials(t *testing.T) {
	client := NewClient(Config{})
	_, err := client.accessToken(context.Background())
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestUploadMissingFile(t *testing.T) {
	client := NewClient(Config{ClientID: "id", ClientSecret: "secret"})
	_, err := client.UploadAudio(context.Background(), filepath.Join(t.TempDir(), "missing.mp3"))
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
