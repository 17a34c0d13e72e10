package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const episodeColumns = `id, run_id, subscription_title, video_title, video_url, upload_date,
    confidence, audio_path, status, error_message, created_at, updated_at`

// UpsertEpisode records a subscription-to-video match. A video URL seen in an
// earlier run is updated in place and keeps its converted audio path.
func (s *Store) UpsertEpisode(ctx context.Context, ep Episode) (int64, error) {
	if ep.VideoURL == "" {
		return 0, errors.New("upsert episode: video url is required")
	}
	if ep.Status == "" {
		ep.Status = StatusMatched
	}
	now := timestamp(time.Now())
	_, err := s.execWithRetry(ctx,
		`INSERT INTO episodes (
            run_id, subscription_title, video_title, video_url, upload_date,
            confidence, audio_path, status, error_message, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(video_url) DO UPDATE SET
            run_id = excluded.run_id,
            subscription_title = excluded.subscription_title,
            video_title = excluded.video_title,
            upload_date = excluded.upload_date,
            confidence = excluded.confidence,
            audio_path = COALESCE(excluded.audio_path, episodes.audio_path),
            status = excluded.status,
            error_message = excluded.error_message,
            updated_at = excluded.updated_at`,
		nullableString(ep.RunID), ep.SubscriptionTitle, ep.VideoTitle, ep.VideoURL, nullableString(ep.UploadDate),
		ep.Confidence, nullableString(ep.AudioPath), ep.Status, nullableString(ep.ErrorMessage), now, now,
	)
	if err != nil {
		return 0, fmt.Errorf("upsert episode: %w", err)
	}

	var id int64
	if err := s.db.QueryRowContext(ctx, `SELECT id FROM episodes WHERE video_url = ?`, ep.VideoURL).Scan(&id); err != nil {
		return 0, fmt.Errorf("lookup episode id: %w", err)
	}
	return id, nil
}

// UpdateEpisodeStatus records a conversion outcome.
func (s *Store) UpdateEpisodeStatus(ctx context.Context, id int64, status Status, audioPath, errMsg string) error {
	res, err := s.execWithRetry(ctx,
		`UPDATE episodes SET status = ?, audio_path = COALESCE(?, audio_path), error_message = ?, updated_at = ? WHERE id = ?`,
		status, nullableString(audioPath), nullableString(errMsg), timestamp(time.Now()), id,
	)
	if err != nil {
		return fmt.Errorf("update episode %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update episode %d: %w", id, sql.ErrNoRows)
	}
	return nil
}

// GetEpisodeByURL returns nil when the video has never been matched.
func (s *Store) GetEpisodeByURL(ctx context.Context, url string) (*Episode, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+episodeColumns+` FROM episodes WHERE video_url = ?`, url)
	ep, err := scanEpisode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return ep, err
}

// ListEpisodes returns episodes, most recently updated first. An empty status
// matches every row.
func (s *Store) ListEpisodes(ctx context.Context, status Status, limit int) ([]Episode, error) {
	query := `SELECT ` + episodeColumns + ` FROM episodes`
	args := []any{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY updated_at DESC, id DESC LIMIT ?`
	args = append(args, normalizeLimit(limit))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list episodes: %w", err)
	}
	defer rows.Close()

	var out []Episode
	for rows.Next() {
		ep, err := scanEpisode(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *ep)
	}
	return out, rows.Err()
}

func scanEpisode(row scanner) (*Episode, error) {
	var (
		ep                                   Episode
		runID, uploadDate, audioPath, errMsg sql.NullString
		status                               string
		created, updated                     sql.NullString
	)
	if err := row.Scan(&ep.ID, &runID, &ep.SubscriptionTitle, &ep.VideoTitle, &ep.VideoURL, &uploadDate,
		&ep.Confidence, &audioPath, &status, &errMsg, &created, &updated); err != nil {
		return nil, err
	}
	ep.RunID = runID.String
	ep.UploadDate = uploadDate.String
	ep.AudioPath = audioPath.String
	ep.Status = Status(status)
	ep.ErrorMessage = errMsg.String
	ep.CreatedAt = parseTimestamp(created)
	ep.UpdatedAt = parseTimestamp(updated)
	return &ep, nil
}
