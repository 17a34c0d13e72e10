package store_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"podpipe/internal/store"
)

func openStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "state", "podpipe.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestRunLifecycle(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()

	if err := st.StartRun(ctx, "run-1", "run"); err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	if err := st.FinishRun(ctx, "run-1", store.StatusCompleted, "3 matched, 2 converted"); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}
	run, err := st.GetRun(ctx, "run-1")
	if err != nil || run == nil {
		t.Fatalf("GetRun = %v, %v", run, err)
	}
	if run.Status != store.StatusCompleted || run.Summary != "3 matched, 2 converted" || run.FinishedAt.IsZero() {
		t.Fatalf("unexpected run: %+v", run)
	}
	if missing, err := st.GetRun(ctx, "nope"); err != nil || missing != nil {
		t.Fatalf("GetRun(missing) = %v, %v", missing, err)
	}
	if err := st.FinishRun(ctx, "nope", store.StatusFailed, ""); err == nil {
		t.Fatal("expected error finishing unknown run")
	}
}

func TestUpsertEpisodeKeepsAudioPath(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()
	if err := st.StartRun(ctx, "run-1", "run"); err != nil {
		t.Fatalf("StartRun: %v", err)
	}

	ep := store.Episode{
		RunID:             "run-1",
		SubscriptionTitle: "Walking in Faith",
		VideoTitle:        "Walking By Faith",
		VideoURL:          "https://www.youtube.com/watch?v=abc",
		UploadDate:        "12-04-24",
		Confidence:        100,
	}
	id, err := st.UpsertEpisode(ctx, ep)
	if err != nil {
		t.Fatalf("UpsertEpisode: %v", err)
	}
	if err := st.UpdateEpisodeStatus(ctx, id, store.StatusConverted, "/podcasts/Walking_By_Faith_12-04-24.mp3", ""); err != nil {
		t.Fatalf("UpdateEpisodeStatus: %v", err)
	}

	ep.Confidence = 95
	again, err := st.UpsertEpisode(ctx, ep)
	if err != nil {
		t.Fatalf("second UpsertEpisode: %v", err)
	}
	if again != id {
		t.Fatalf("upsert created a new row: %d != %d", again, id)
	}

	got, err := st.GetEpisodeByURL(ctx, ep.VideoURL)
	if err != nil || got == nil {
		t.Fatalf("GetEpisodeByURL = %v, %v", got, err)
	}
	if got.AudioPath != "/podcasts/Walking_By_Faith_12-04-24.mp3" {
		t.Fatalf("audio path lost on upsert: %+v", got)
	}
	if got.Confidence != 95 || got.Status != store.StatusMatched {
		t.Fatalf("unexpected episode: %+v", got)
	}

	matched, err := st.ListEpisodes(ctx, store.StatusMatched, 10)
	if err != nil || len(matched) != 1 {
		t.Fatalf("ListEpisodes(matched) = %d, %v", len(matched), err)
	}
	failed, err := st.ListEpisodes(ctx, store.StatusFailed, 10)
	if err != nil || len(failed) != 0 {
		t.Fatalf("ListEpisodes(failed) = %d, %v", len(failed), err)
	}
}

func TestUpsertEpisodeRequiresURL(t *testing.T) {
	st := openStore(t)
	if _, err := st.UpsertEpisode(context.Background(), store.Episode{SubscriptionTitle: "x"}); err == nil {
		t.Fatal("expected error without video url")
	}
}

func TestSchedules(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()
	publishAt := time.Date(2024, 12, 4, 8, 1, 0, 0, time.UTC)

	if _, err := st.RecordSchedule(ctx, store.Schedule{
		EntryTitle:   "Sermon part 1",
		AudioPath:    "/podcasts/Sermon_Part_1.mp3",
		PublishAt:    publishAt,
		Status:       store.StatusFailed,
		ErrorMessage: "upload failed",
	}); err != nil {
		t.Fatalf("RecordSchedule: %v", err)
	}
	done, err := st.AlreadyScheduled(ctx, "/podcasts/Sermon_Part_1.mp3")
	if err != nil || done {
		t.Fatalf("AlreadyScheduled after failure = %v, %v", done, err)
	}

	if _, err := st.RecordSchedule(ctx, store.Schedule{
		EntryTitle:   "Sermon part 1",
		CatalogTitle: "Sermon Part 1",
		AudioPath:    "/podcasts/Sermon_Part_1.mp3",
		PublishAt:    publishAt,
		Status:       store.StatusScheduled,
		PodbeanID:    "ep-1",
		PermalinkURL: "https://example.podbean.com/e/sermon-part-1",
	}); err != nil {
		t.Fatalf("RecordSchedule: %v", err)
	}
	done, err = st.AlreadyScheduled(ctx, "/podcasts/Sermon_Part_1.mp3")
	if err != nil || !done {
		t.Fatalf("AlreadyScheduled = %v, %v", done, err)
	}

	list, err := st.ListSchedules(ctx, 0)
	if err != nil {
		t.Fatalf("ListSchedules: %v", err)
	}
	if len(list) != 2 || list[0].PodbeanID != "ep-1" || !list[0].PublishAt.Equal(publishAt) {
		t.Fatalf("unexpected schedules: %+v", list)
	}
}

func TestReopenKeepsSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "podpipe.db")
	ctx := context.Background()
	st, err := store.Open(ctx, path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := st.StartRun(ctx, "run-1", "match"); err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	_ = st.Close()

	reopened, err := store.Open(ctx, path)
	if err != nil {
		if errors.Is(err, store.ErrSchemaMismatch) {
			t.Fatalf("unexpected schema mismatch: %v", err)
		}
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	runs, err := reopened.ListRuns(ctx, 5)
	if err != nil || len(runs) != 1 || runs[0].Command != "match" {
		t.Fatalf("ListRuns = %+v, %v", runs, err)
	}
}

func TestOpenRejectsNewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "podpipe.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := db.Exec("PRAGMA user_version = 99"); err != nil {
		t.Fatalf("set user_version: %v", err)
	}
	_ = db.Close()

	st, err := store.Open(context.Background(), path)
	if err == nil {
		_ = st.Close()
		t.Fatal("expected schema mismatch")
	}
	if !errors.Is(err, store.ErrSchemaMismatch) {
		t.Fatalf("err = %v, want ErrSchemaMismatch", err)
	}
}
