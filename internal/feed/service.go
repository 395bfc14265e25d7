package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/pders01/newsdigest/internal/config"
	"github.com/pders01/newsdigest/internal/debuglog"
)

// Status distinguishes a quiet feed from an unreachable one.
type Status int

const (
	// StatusEmpty means the feed was read but nothing qualified.
	StatusEmpty Status = iota
	// StatusFailed means the feed could not be fetched or parsed.
	StatusFailed
	// StatusStories means at least one recent entry was found.
	StatusStories
)

func (s Status) String() string {
	switch s {
	case StatusEmpty:
		return "empty"
	case StatusFailed:
		return "failed"
	case StatusStories:
		return "stories"
	default:
		return "unknown"
	}
}

// Result of FetchRecent. Stories is never nil.
type Result struct {
	Status  Status
	Stories []string
	// Entries is the number of items in the parsed feed.
	Entries   int
	Selection Selection
	// Err is set when Status is StatusFailed.
	Err error
}

// Service fetches the feed and selects recent entries.
type Service struct {
	fetcher *Fetcher
	parser  *Parser
	opts    SelectOptions
}

func NewService(cfg config.FeedConfig) *Service {
	return &Service{
		fetcher: NewFetcher(cfg),
		parser:  NewParser(),
		opts:    OptionsFrom(cfg),
	}
}

// FetchRecent never returns an error: fetch and parse failures are logged and
// reported as StatusFailed with no stories, so the caller can still send the
// fallback digest.
func (s *Service) FetchRecent(ctx context.Context, feedURL string, now time.Time) Result {
	log := debuglog.WithFields(map[string]any{"feed": feedURL})

	entries, err := s.load(ctx, feedURL)
	if err != nil {
		log.Warnf("feed unavailable, treating as no news: %v", err)
		return Result{Status: StatusFailed, Stories: []string{}, Err: err}
	}

	if len(entries) == 0 {
		log.Infof("feed has no entries")
		return Result{Status: StatusEmpty, Stories: []string{}}
	}

	sel := Select(entries, now, s.opts)
	res := Result{
		Status:    StatusEmpty,
		Stories:   sel.Stories,
		Entries:   len(entries),
		Selection: sel,
	}
	if len(sel.Stories) > 0 {
		res.Status = StatusStories
	}

	log.With("entries", len(entries)).
		With("scanned", sel.Scanned).
		With("undated", sel.Undated).
		Infof("selected %d recent stories", len(sel.Stories))
	return res
}

func (s *Service) load(ctx context.Context, feedURL string) ([]Entry, error) {
	resp, err := s.fetcher.Fetch(ctx, feedURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	entries, err := s.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", feedURL, err)
	}
	return entries, nil
}
