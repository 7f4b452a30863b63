// Package monitor runs the fixed set of periodic collection jobs: Reddit and
// news keyword polls, trend analysis and the daily report.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/robfig/cron/v3"

	"misinfo/internal/record"
)

const (
	DefaultTick  = 60 * time.Second
	DefaultPause = 5 * time.Minute
)

var DefaultKeywords = []string{
	"misinformation", "fake news", "conspiracy", "hoax",
	"debunked", "fact check", "misleading", "false claim",
	"disinformation", "propaganda", "rumor", "unverified",
}

type Searcher interface {
	SearchReddit(ctx context.Context, terms string, sendToBackend bool) ([]*record.Record, error)
	SearchNews(ctx context.Context, terms string, sendToBackend bool) ([]*record.Record, error)
}

// Job is a named task with its schedule. Next is computed in memory only.
type Job struct {
	Name     string
	Schedule cron.Schedule
	Run      func(ctx context.Context) error

	next time.Time
}

type Monitor struct {
	search    Searcher
	keywords  []string
	send      bool
	reportDir string
	tick      time.Duration
	pause     time.Duration
	now       func() time.Time

	tally *Tally
	jobs  []*Job
}

type Option func(*Monitor)

func WithKeywords(k []string) Option { return func(m *Monitor) { m.keywords = k } }

func WithReportDir(dir string) Option { return func(m *Monitor) { m.reportDir = dir } }

func WithBackend(send bool) Option { return func(m *Monitor) { m.send = send } }

func WithClock(now func() time.Time) Option { return func(m *Monitor) { m.now = now } }

// WithIntervals overrides the polling tick and the pause after a failed job.
func WithIntervals(tick, pause time.Duration) Option {
	return func(m *Monitor) {
		m.tick = tick
		m.pause = pause
	}
}

func New(search Searcher, opts ...Option) *Monitor {
	m := &Monitor{
		search:    search,
		keywords:  DefaultKeywords,
		send:      true,
		reportDir: "reports",
		tick:      DefaultTick,
		pause:     DefaultPause,
		now:       time.Now,
		tally:     NewTally(),
	}
	for _, opt := range opts {
		opt(m)
	}

	daily, _ := cron.ParseStandard("0 9 * * *")
	m.jobs = []*Job{
		{Name: "reddit", Schedule: cron.Every(30 * time.Minute), Run: m.monitorReddit},
		{Name: "news", Schedule: cron.Every(time.Hour), Run: m.monitorNews},
		{Name: "trends", Schedule: cron.Every(6 * time.Hour), Run: m.analyzeTrends},
		{Name: "daily_report", Schedule: daily, Run: m.dailyReport},
	}
	return m
}

func (m *Monitor) Jobs() []*Job { return m.jobs }

func (m *Monitor) Tally() *Tally { return m.tally }

// Next reports when job name is due, zero if unknown or not yet scheduled.
func (m *Monitor) Next(name string) time.Time {
	for _, j := range m.jobs {
		if j.Name == name {
			return j.next
		}
	}
	return time.Time{}
}

// Run schedules every job from now and polls once per tick until ctx is
// cancelled. A failing job pauses the loop before the next tick.
func (m *Monitor) Run(ctx context.Context) error {
	m.Schedule(m.now())
	slog.InfoContext(ctx, "monitoring system started", "jobs", len(m.jobs), "keywords", len(m.keywords))

	ticker := time.NewTicker(m.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "monitoring system stopped")
			return nil
		case <-ticker.C:
		}

		if err := m.RunPending(ctx); err != nil {
			slog.ErrorContext(ctx, "error in monitoring system", "error", err, "pause", m.pause)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(m.pause):
			}
		}
	}
}

// Schedule sets every job's next run relative to from.
func (m *Monitor) Schedule(from time.Time) {
	for _, j := range m.jobs {
		j.next = j.Schedule.Next(from)
	}
}

// RunPending runs the due jobs one after another. The next run is set before
// the job starts, so a failure is not retried early. The first failure stops
// the pass.
func (m *Monitor) RunPending(ctx context.Context) error {
	now := m.now()
	for _, j := range m.jobs {
		if j.next.IsZero() || now.Before(j.next) {
			continue
		}
		j.next = j.Schedule.Next(now)

		slog.InfoContext(ctx, "running job", "job", j.Name, "next", j.next)
		if err := runSafely(ctx, j); err != nil {
			return fmt.Errorf("job %s: %w", j.Name, err)
		}
	}
	return nil
}

func runSafely(ctx context.Context, j *Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
			slog.ErrorContext(ctx, "job panicked", "job", j.Name, "stack", string(debug.Stack()))
		}
	}()
	return j.Run(ctx)
}

func (m *Monitor) monitorReddit(ctx context.Context) error {
	slog.InfoContext(ctx, "starting reddit monitoring")
	return m.poll(ctx, "reddit", m.search.SearchReddit)
}

func (m *Monitor) monitorNews(ctx context.Context) error {
	slog.InfoContext(ctx, "starting news site monitoring")
	return m.poll(ctx, "news", m.search.SearchNews)
}

// poll runs one search per keyword. Failed searches are logged, only
// cancellation aborts the job.
func (m *Monitor) poll(ctx context.Context, platform string, search func(context.Context, string, bool) ([]*record.Record, error)) error {
	for _, kw := range m.keywords {
		if err := ctx.Err(); err != nil {
			return err
		}
		recs, err := search(ctx, kw, m.send)
		if err != nil {
			slog.ErrorContext(ctx, "keyword poll failed", "platform", platform, "keyword", kw, "error", err)
			continue
		}
		m.tally.Add(kw, recs)
		if len(recs) > 0 {
			slog.InfoContext(ctx, "collected items for keyword", "platform", platform, "keyword", kw, "count", len(recs))
		}
	}
	return nil
}

func (m *Monitor) analyzeTrends(ctx context.Context) error {
	slog.InfoContext(ctx, "analyzing trends in collected data")
	snap := m.tally.Snapshot(5)
	slog.InfoContext(ctx, "trend analysis",
		"total_items", snap.Total,
		"top_keywords", snap.TopKeywords,
		"top_platforms", snap.TopPlatforms,
		"by_type", snap.ByType,
	)
	return nil
}

func (m *Monitor) dailyReport(ctx context.Context) error {
	slog.InfoContext(ctx, "generating daily report")
	path, err := WriteDailyReport(m.reportDir, m.tally, m.now())
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "daily report written", "path", path)
	return nil
}
