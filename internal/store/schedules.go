package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// RecordSchedule stores one publishing attempt and returns its row ID.
func (s *Store) RecordSchedule(ctx context.Context, sch Schedule) (int64, error) {
	var publishAt sql.NullString
	if !sch.PublishAt.IsZero() {
		publishAt = sql.NullString{String: timestamp(sch.PublishAt), Valid: true}
	}
	res, err := s.execWithRetry(ctx,
		`INSERT INTO schedules (
            run_id, entry_title, catalog_title, audio_path, publish_at, status,
            podbean_id, permalink_url, error_message, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		nullableString(sch.RunID), sch.EntryTitle, nullableString(sch.CatalogTitle), nullableString(sch.AudioPath),
		publishAt, sch.Status, nullableString(sch.PodbeanID), nullableString(sch.PermalinkURL),
		nullableString(sch.ErrorMessage), timestamp(time.Now()),
	)
	if err != nil {
		return 0, fmt.Errorf("insert schedule: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// AlreadyScheduled reports whether audioPath was successfully scheduled
// before.
func (s *Store) AlreadyScheduled(ctx context.Context, audioPath string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM schedules WHERE audio_path = ? AND status = ?`, audioPath, StatusScheduled,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check schedule history: %w", err)
	}
	return count > 0, nil
}

// ListSchedules returns the most recent publishing attempts first.
func (s *Store) ListSchedules(ctx context.Context, limit int) ([]Schedule, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, entry_title, catalog_title, audio_path, publish_at, status,
            podbean_id, permalink_url, error_message, created_at
        FROM schedules ORDER BY created_at DESC, id DESC LIMIT ?`, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	defer rows.Close()

	var out []Schedule
	for rows.Next() {
		var (
			sch                                       Schedule
			runID, catalogTitle, audioPath, publishAt sql.NullString
			status                                    string
			podbeanID, permalink, errMsg, created     sql.NullString
		)
		if err := rows.Scan(&sch.ID, &runID, &sch.EntryTitle, &catalogTitle, &audioPath, &publishAt, &status,
			&podbeanID, &permalink, &errMsg, &created); err != nil {
			return nil, err
		}
		sch.RunID = runID.String
		sch.CatalogTitle = catalogTitle.String
		sch.AudioPath = audioPath.String
		sch.PublishAt = parseTimestamp(publishAt)
		sch.Status = Status(status)
		sch.PodbeanID = podbeanID.String
		sch.PermalinkURL = permalink.String
		sch.ErrorMessage = errMsg.String
		sch.CreatedAt = parseTimestamp(created)
		out = append(out, sch)
	}
	return out, rows.Err()
}
