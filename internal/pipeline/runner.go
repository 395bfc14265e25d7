// Package pipeline runs one digest: fetch the feed, compose the message,
// deliver it and record the outcome.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pders01/newsdigest/internal/config"
	"github.com/pders01/newsdigest/internal/debuglog"
	"github.com/pders01/newsdigest/internal/digest"
	"github.com/pders01/newsdigest/internal/feed"
	"github.com/pders01/newsdigest/internal/notify"
	"github.com/pders01/newsdigest/internal/storage"
)

// ErrDeliveryFailed is returned by Run when the digest was not accepted.
var ErrDeliveryFailed = errors.New("digest delivery failed")

type StoryFetcher interface {
	FetchRecent(ctx context.Context, feedURL string, now time.Time) feed.Result
}

type Notifier interface {
	Send(ctx context.Context, msg digest.Message) notify.Delivery
}

// Journal receives a record of every completed run.
type Journal interface {
	AppendRun(run *storage.Run) error
}

// Report describes one run.
type Report struct {
	ID        string
	StartedAt time.Time
	Duration  time.Duration
	FeedURL   string
	Feed      feed.Result
	Message   digest.Message
	Delivery  notify.Delivery
	// Sent is false for previews.
	Sent bool
}

// Record converts the report into a journal entry.
func (r Report) Record() *storage.Run {
	run := &storage.Run{
		ID:         r.ID,
		StartedAt:  r.StartedAt,
		Duration:   r.Duration,
		FeedURL:    r.FeedURL,
		FeedStatus: r.Feed.Status.String(),
		Entries:    r.Feed.Entries,
		Stories:    r.Message.Stories,
		Title:      r.Message.Title,
		Outcome:    r.Delivery.Outcome.String(),
		Delivered:  r.Delivery.OK,
		HTTPStatus: r.Delivery.HTTPStatus,
		Code:       r.Delivery.Code,
		Message:    r.Delivery.Message,
	}
	if r.Delivery.Err != nil {
		run.Error = r.Delivery.Err.Error()
	}
	return run
}

type Runner struct {
	cfg     *config.Config
	feeds   StoryFetcher
	sender  Notifier
	journal Journal
	now     func() time.Time
}

type Option func(*Runner)

func WithFetcher(f StoryFetcher) Option {
	return func(r *Runner) { r.feeds = f }
}

func WithNotifier(n Notifier) Option {
	return func(r *Runner) { r.sender = n }
}

func WithJournal(j Journal) Option {
	return func(r *Runner) { r.journal = j }
}

func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// NewRunner wires the feed service and gateway sender from cfg. Options
// replace individual collaborators.
func NewRunner(cfg *config.Config, opts ...Option) *Runner {
	r := &Runner{
		cfg:    cfg,
		feeds:  feed.NewService(cfg.Feed),
		sender: notify.NewSender(cfg.Gateway, cfg.Digest.Fallback),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Compose fetches the feed and builds the message without sending it.
func (r *Runner) Compose(ctx context.Context) Report {
	start := r.now()
	res := r.feeds.FetchRecent(ctx, r.cfg.Feed.URL, start)
	return Report{
		ID:        uuid.NewString(),
		StartedAt: start,
		FeedURL:   r.cfg.Feed.URL,
		Feed:      res,
		Message:   digest.New(res.Stories, start, r.cfg.Digest),
	}
}

// Run performs one full digest run. The returned error wraps
// ErrDeliveryFailed and the delivery error when the gateway did not accept
// the message.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	report := r.Compose(ctx)
	log := debuglog.WithFields(map[string]any{"run": report.ID})
	if report.Message.IsFallback() {
		log.With("feed_status", report.Feed.Status.String()).Infof("no recent stories, sending fallback notice")
	}

	report.Delivery = r.sender.Send(ctx, report.Message)
	report.Sent = true
	report.Duration = r.now().Sub(report.StartedAt)

	r.record(report, log)

	log = log.With("feed_status", report.Feed.Status.String()).
		With("stories", report.Message.Stories).
		With("fallback", report.Message.IsFallback()).
		With("outcome", report.Delivery.Outcome.String()).
		With("elapsed", debuglog.Duration(report.Duration))

	if !report.Delivery.OK {
		log.Errorf("digest run failed: %v", report.Delivery.Err)
		return report, fmt.Errorf("%w: %w", ErrDeliveryFailed, report.Delivery.Err)
	}

	log.Infof("digest sent: %s", report.Message.Title)
	return report, nil
}

func (r *Runner) record(report Report, log *debuglog.FieldLogger) {
	if r.journal == nil {
		return
	}
	if err := r.journal.AppendRun(report.Record()); err != nil {
		log.Warnf("recording run in journal: %v", err)
	}
}
