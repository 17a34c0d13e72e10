package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"podpipe/internal/services"
)

// ScheduleEntry is one episode the message asks to publish on Date.
type ScheduleEntry struct {
	Title string
	Date  time.Time
}

const scheduleSystemPrompt = `You are a message parser that outputs JSON.
If a title contains multiple parts (e.g. "part 1 & 2"), create a separate entry for each part.
The JSON schema must be:
{"entries": [{"title": "string", "schedule_date": "string (YYYY-MM-DD)"}]}`

const scheduleUserPrompt = `Parse the following message into structured data. Each line contains a podcast title and a date.
If a title contains multiple parts (e.g. "part 1 & 2"), create separate entries for each part.
Return objects with "title" and "schedule_date" fields. Convert dates without a year to YYYY-MM-DD assuming year %d.

Example message:
*Title One part 1 & 2 12/23
*Title Two 12/24

Example output:
{"entries": [
  {"title": "Title One part 1", "schedule_date": "%[1]d-12-23"},
  {"title": "Title One part 2", "schedule_date": "%[1]d-12-23"},
  {"title": "Title Two", "schedule_date": "%[1]d-12-24"}
]}

Message to parse:
%[2]s`

type scheduleEntryPayload struct {
	Title        string `json:"title"`
	ScheduleDate string `json:"schedule_date"`
}

// ParseSchedule asks the model to split message into dated entries.
// Entries with a blank title or an unparseable date are an error rather than
// silently dropped.
func (c *Client) ParseSchedule(ctx context.Context, message string, referenceYear int) ([]ScheduleEntry, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, services.Wrap(services.ErrValidation, "llm", "parse schedule", "empty message", nil)
	}
	if referenceYear <= 0 {
		referenceYear = time.Now().Year()
	}
	content, err := c.CompleteJSON(ctx, scheduleSystemPrompt, fmt.Sprintf(scheduleUserPrompt, referenceYear, message))
	if err != nil {
		return nil, err
	}
	payload, err := decodeEntries(content)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "llm", "parse schedule", "undecodable reply", err)
	}

	entries := make([]ScheduleEntry, 0, len(payload))
	for i, p := range payload {
		title := strings.TrimSpace(p.Title)
		if title == "" {
			return nil, services.Wrap(services.ErrExternalTool, "llm", "parse schedule", fmt.Sprintf("entry %d has no title", i), nil)
		}
		date, err := time.Parse(time.DateOnly, strings.TrimSpace(p.ScheduleDate))
		if err != nil {
			return nil, services.Wrap(services.ErrExternalTool, "llm", "parse schedule", fmt.Sprintf("entry %d (%s)", i, title), err)
		}
		entries = append(entries, ScheduleEntry{Title: title, Date: date})
	}
	return entries, nil
}

// decodeEntries accepts {"entries": [...]} and a bare array.
func decodeEntries(content string) ([]scheduleEntryPayload, error) {
	var wrapped struct {
		Entries []scheduleEntryPayload `json:"entries"`
	}
	if err := DecodeJSON(content, &wrapped); err == nil {
		return wrapped.Entries, nil
	}
	var bare []scheduleEntryPayload
	if err := DecodeJSON(content, &bare); err != nil {
		return nil, fmt.Errorf("decode entries: %w", err)
	}
	return bare, nil
}
