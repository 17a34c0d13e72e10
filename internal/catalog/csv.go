package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/renameio/v2"
)

var (
	videoHeader = []string{"title", "video_id", "url", "description", "duration", "view_count", "upload_date"}
	matchHeader = []string{"subscription_title", "video_url", "video_title", "upload_date", "confidence"}
)

// ErrMissingColumn is returned when a CSV lacks a required header.
var ErrMissingColumn = errors.New("missing column")

// LoadVideos reads a catalog written by WriteVideos. Unknown columns are
// ignored; title and url are required.
func LoadVideos(path string) ([]Video, error) {
	rows, index, err := readCSV(path, "title", "url")
	if err != nil {
		return nil, err
	}
	videos := make([]Video, 0, len(rows))
	for _, row := range rows {
		get := func(col string) string { return cell(row, index, col) }
		if get("title") == "" && get("url") == "" {
			continue
		}
		videos = append(videos, Video{
			Title:       get("title"),
			VideoID:     get("video_id"),
			URL:         get("url"),
			Description: get("description"),
			Duration:    get("duration"),
			ViewCount:   get("view_count"),
			UploadDate:  get("upload_date"),
		})
	}
	return videos, nil
}

// WriteVideos atomically replaces path with the catalog.
func WriteVideos(path string, videos []Video) error {
	return writeCSV(path, videoHeader, func(w *csv.Writer) error {
		for _, v := range videos {
			if err := w.Write([]string{v.Title, v.VideoID, v.URL, v.Description, v.Duration, v.ViewCount, v.UploadDate}); err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadTitles reads the "title" column of a subscription export, skipping
// blank rows.
func LoadTitles(path string) ([]string, error) {
	rows, index, err := readCSV(path, "title")
	if err != nil {
		return nil, err
	}
	titles := make([]string, 0, len(rows))
	for _, row := range rows {
		if title := cell(row, index, "title"); title != "" {
			titles = append(titles, title)
		}
	}
	return titles, nil
}

// WriteMatches atomically replaces path with the match export.
func WriteMatches(path string, matches []Match) error {
	return writeCSV(path, matchHeader, func(w *csv.Writer) error {
		for _, m := range matches {
			record := []string{m.SubscriptionTitle, m.VideoURL, m.VideoTitle, m.UploadDate, strconv.FormatFloat(m.Confidence, 'f', 1, 64)}
			if err := w.Write(record); err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadMatches reads a file written by WriteMatches.
func LoadMatches(path string) ([]Match, error) {
	rows, index, err := readCSV(path, "subscription_title", "video_url")
	if err != nil {
		return nil, err
	}
	matches := make([]Match, 0, len(rows))
	for _, row := range rows {
		confidence, _ := strconv.ParseFloat(cell(row, index, "confidence"), 64)
		matches = append(matches, Match{
			SubscriptionTitle: cell(row, index, "subscription_title"),
			VideoURL:          cell(row, index, "video_url"),
			VideoTitle:        cell(row, index, "video_title"),
			UploadDate:        cell(row, index, "upload_date"),
			Confidence:        confidence,
		})
	}
	return matches, nil
}

func readCSV(path string, required ...string) ([][]string, map[string]int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("%s: empty file", path)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read header %s: %w", path, err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, seen := index[name]; !seen {
			index[name] = i
		}
	}
	for _, col := range required {
		if _, ok := index[col]; !ok {
			return nil, nil, fmt.Errorf("%s: %w %q", path, ErrMissingColumn, col)
		}
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rows, index, nil
}

func cell(row []string, index map[string]int, col string) string {
	i, ok := index[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func writeCSV(path string, header []string, body func(*csv.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure directory for %s: %w", path, err)
	}
	pending, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o644))
	if err != nil {
		return fmt.Errorf("create pending %s: %w", path, err)
	}
	defer func() { _ = pending.Cleanup() }()

	w := csv.NewWriter(pending)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := body(w); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
