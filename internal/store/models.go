package store

import "time"

// Status is the lifecycle state of an episode or schedule row.
type Status string

const (
	StatusPending   Status = "pending"
	StatusMatched   Status = "matched"
	StatusConverted Status = "converted"
	StatusScheduled Status = "scheduled"
	StatusSkipped   Status = "skipped"
	StatusReview    Status = "review"
	StatusFailed    Status = "failed"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
)

// Run is one CLI invocation.
type Run struct {
	ID         string
	Command    string
	Status     Status
	Summary    string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Episode is a subscription title matched to a channel video.
type Episode struct {
	ID                int64
	RunID             string
	SubscriptionTitle string
	VideoTitle        string
	VideoURL          string
	UploadDate        string
	Confidence        float64
	AudioPath         string
	Status            Status
	ErrorMessage      string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Schedule is one attempt to publish an episode on Podbean.
type Schedule struct {
	ID           int64
	RunID        string
	EntryTitle   string
	CatalogTitle string
	AudioPath    string
	PublishAt    time.Time
	Status       Status
	PodbeanID    string
	PermalinkURL string
	ErrorMessage string
	CreatedAt    time.Time
}
