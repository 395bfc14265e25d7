// Package schedule repeats the digest run on a cron expression.
package schedule

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/pders01/newsdigest/internal/config"
	"github.com/pders01/newsdigest/internal/debuglog"
)

// Job is one scheduled unit of work. Its error is logged; it never stops the
// schedule.
type Job func(ctx context.Context) error

var parser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

type Scheduler struct {
	spec     string
	loc      *time.Location
	schedule cron.Schedule
	job      Job
	runNow   bool
}

type Option func(*Scheduler)

// WithImmediateRun fires the job once at start, in addition to the schedule.
func WithImmediateRun() Option {
	return func(s *Scheduler) { s.runNow = true }
}

func New(cfg config.ScheduleConfig, job Job, opts ...Option) (*Scheduler, error) {
	loc, err := LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, err
	}

	spec := strings.TrimSpace(cfg.Cron)
	sched, err := parser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("parsing schedule %q: %w", spec, err)
	}

	s := &Scheduler{spec: spec, loc: loc, schedule: sched, job: job}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// LoadLocation resolves a timezone name. Empty and "Local" mean the system zone.
func LoadLocation(tz string) (*time.Location, error) {
	tz = strings.TrimSpace(tz)
	if tz == "" || strings.EqualFold(tz, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", tz, err)
	}
	return loc, nil
}

// Location is the zone activations are computed in.
func (s *Scheduler) Location() *time.Location {
	return s.loc
}

// Next returns the next n activation times after from.
func (s *Scheduler) Next(from time.Time, n int) []time.Time {
	times := make([]time.Time, 0, n)
	t := from.In(s.loc)
	for i := 0; i < n; i++ {
		t = s.schedule.Next(t)
		if t.IsZero() {
			break
		}
		times = append(times, t)
	}
	return times
}

// Run blocks until ctx is cancelled, then waits for an in-flight job to
// return. Overlapping activations are skipped.
func (s *Scheduler) Run(ctx context.Context) error {
	log := debuglog.WithFields(map[string]any{"schedule": s.spec, "tz": s.loc.String()})
	cl := cronLogger{log: log}

	wrapped := cron.NewChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)).Then(cron.FuncJob(func() {
		start := time.Now()
		if err := s.job(ctx); err != nil {
			log.With("elapsed", debuglog.Duration(time.Since(start))).Errorf("scheduled run failed: %v", err)
			return
		}
		log.With("elapsed", debuglog.Duration(time.Since(start))).Debugf("scheduled run finished")
	}))

	c := cron.New(cron.WithParser(parser), cron.WithLocation(s.loc), cron.WithLogger(cl))
	c.Schedule(s.schedule, wrapped)
	c.Start()

	if next := s.Next(time.Now(), 1); len(next) > 0 {
		log.Infof("scheduler started, next run at %s", next[0].Format(time.RFC3339))
	}

	var immediate sync.WaitGroup
	if s.runNow {
		immediate.Add(1)
		go func() {
			defer immediate.Done()
			wrapped.Run()
		}()
	}

	<-ctx.Done()
	log.Infof("scheduler stopping")
	<-c.Stop().Done()
	immediate.Wait()
	return nil
}

// cronLogger adapts cron's logger interface to debuglog.
type cronLogger struct {
	log *debuglog.FieldLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.with(keysAndValues).Debugf("%s", msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.with(keysAndValues).Errorf("%s: %v", msg, err)
}

func (l cronLogger) with(kv []any) *debuglog.FieldLogger {
	fl := l.log
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		fl = fl.With(key, kv[i+1])
	}
	return fl
}
