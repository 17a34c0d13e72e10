// Package catalog reads and writes the pipeline's CSV interchange files and
// turns their rows into match candidates.
package catalog

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"podpipe/internal/textmatch"
)

// Video is one published video on the channel. UploadDate is MM-DD-YY.
type Video struct {
	Title       string
	VideoID     string
	URL         string
	Description string
	Duration    string
	ViewCount   string
	UploadDate  string
}

// Match pairs a subscription title with the video chosen for it.
type Match struct {
	SubscriptionTitle string
	VideoURL          string
	VideoTitle        string
	UploadDate        string
	Confidence        float64
}

// Candidates exposes videos to the matcher in catalog order.
func Candidates(videos []Video) []textmatch.Candidate[Video] {
	out := make([]textmatch.Candidate[Video], len(videos))
	for i, v := range videos {
		out[i] = textmatch.Candidate[Video]{Title: v.Title, Payload: v}
	}
	return out
}

// ListAudio returns the .mp3 files directly inside dir, sorted by name, as
// match candidates titled with textmatch.FileTitle. The payload is the full
// path.
func ListAudio(dir string) ([]textmatch.Candidate[string], error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".mp3") {
			continue
		}
		names = append(names, entry.Name())
	}
	slices.Sort(names)

	out := make([]textmatch.Candidate[string], len(names))
	for i, name := range names {
		out[i] = textmatch.Candidate[string]{Title: textmatch.FileTitle(name), Payload: filepath.Join(dir, name)}
	}
	return out, nil
}
