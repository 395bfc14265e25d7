package storage

import (
	"time"
)

// Run is one journal entry: what a digest run saw and how delivery ended.
type Run struct {
	ID         string        `json:"id"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
	FeedURL    string        `json:"feed_url"`
	FeedStatus string        `json:"feed_status"`
	Entries    int           `json:"entries"`
	Stories    int           `json:"stories"`
	Title      string        `json:"title"`
	Outcome    string        `json:"outcome"`
	Delivered  bool          `json:"delivered"`
	HTTPStatus int           `json:"http_status,omitempty"`
	Code       int           `json:"code,omitempty"`
	Message    string        `json:"message,omitempty"`
	Error      string        `json:"error,omitempty"`
}

// Summary aggregates the journal for the history command.
type Summary struct {
	Runs      int       `json:"runs"`
	Delivered int       `json:"delivered"`
	Failed    int       `json:"failed"`
	LastRun   time.Time `json:"last_run"`
}
