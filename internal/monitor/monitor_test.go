package monitor_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"misinfo/internal/monitor"
	"misinfo/internal/record"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type stubSearcher struct {
	mu        sync.Mutex
	reddit    []string
	news      []string
	panicOn   string
	failOn    string
	redditOut []*record.Record
}

func (s *stubSearcher) SearchReddit(ctx context.Context, terms string, send bool) ([]*record.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if terms == s.panicOn {
		panic("boom")
	}
	s.reddit = append(s.reddit, terms)
	if terms == s.failOn {
		return nil, errors.New("blocked")
	}
	return s.redditOut, nil
}

func (s *stubSearcher) SearchNews(ctx context.Context, terms string, send bool) ([]*record.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.news = append(s.news, terms)
	return nil, nil
}

func redditPost(subreddit string, score int) *record.Record {
	r := record.New("reddit_scraper", record.TypeRedditPost, "post in "+subreddit)
	r.Set("subreddit", subreddit)
	r.Set("score", score)
	r.Set("url", "https://reddit.com/r/"+subreddit+"/x")
	return r
}

func start() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)}
}

func TestSchedule_FixedIntervals(t *testing.T) {
	clock := start()
	m := monitor.New(&stubSearcher{}, monitor.WithClock(clock.Now))
	m.Schedule(clock.Now())

	base := clock.Now()
	assert.Equal(t, base.Add(30*time.Minute), m.Next("reddit"))
	assert.Equal(t, base.Add(time.Hour), m.Next("news"))
	assert.Equal(t, base.Add(6*time.Hour), m.Next("trends"))
	assert.Equal(t, time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC), m.Next("daily_report"))
	assert.True(t, m.Next("nope").IsZero())
	assert.Len(t, m.Jobs(), 4)
}

func TestRunPending_OnlyDueJobs(t *testing.T) {
	clock := start()
	search := &stubSearcher{redditOut: []*record.Record{redditPost("conspiracy", 10)}}
	m := monitor.New(search,
		monitor.WithClock(clock.Now),
		monitor.WithKeywords([]string{"hoax", "rumor"}),
		monitor.WithReportDir(t.TempDir()),
	)
	m.Schedule(clock.Now())

	// nothing due yet
	require.NoError(t, m.RunPending(context.Background()))
	assert.Empty(t, search.reddit)

	clock.Advance(30 * time.Minute)
	require.NoError(t, m.RunPending(context.Background()))
	assert.Equal(t, []string{"hoax", "rumor"}, search.reddit)
	assert.Empty(t, search.news)
	assert.Equal(t, clock.Now().Add(30*time.Minute), m.Next("reddit"))

	// same tick again does not re-run
	require.NoError(t, m.RunPending(context.Background()))
	assert.Len(t, search.reddit, 2)

	clock.Advance(30 * time.Minute)
	require.NoError(t, m.RunPending(context.Background()))
	assert.Len(t, search.reddit, 4)
	assert.Equal(t, []string{"hoax", "rumor"}, search.news)

	assert.Equal(t, 4, m.Tally().Snapshot(5).Total)
}

func TestRunPending_FailedSearchIsSkipped(t *testing.T) {
	clock := start()
	search := &stubSearcher{failOn: "hoax"}
	m := monitor.New(search, monitor.WithClock(clock.Now), monitor.WithKeywords([]string{"hoax", "rumor"}))
	m.Schedule(clock.Now())

	clock.Advance(30 * time.Minute)
	assert.NoError(t, m.RunPending(context.Background()))
	assert.Equal(t, []string{"hoax", "rumor"}, search.reddit)
}

func TestRunPending_PanicBecomesError(t *testing.T) {
	clock := start()
	search := &stubSearcher{panicOn: "hoax"}
	m := monitor.New(search, monitor.WithClock(clock.Now), monitor.WithKeywords([]string{"hoax"}))
	m.Schedule(clock.Now())

	clock.Advance(30 * time.Minute)
	err := m.RunPending(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "job reddit")
	assert.Contains(t, err.Error(), "panic: boom")

	// the failed job is not retried before its next slot
	assert.Equal(t, clock.Now().Add(30*time.Minute), m.Next("reddit"))
}

func TestDailyReport_WrittenAtNine(t *testing.T) {
	clock := start()
	dir := t.TempDir()
	search := &stubSearcher{redditOut: []*record.Record{redditPost("conspiracy", 5), redditPost("news", 50)}}
	m := monitor.New(search,
		monitor.WithClock(clock.Now),
		monitor.WithKeywords([]string{"hoax"}),
		monitor.WithReportDir(dir),
	)
	m.Schedule(clock.Now())

	clock.Advance(30 * time.Minute)
	require.NoError(t, m.RunPending(context.Background()))

	clock.Advance(30 * time.Minute) // 09:00
	require.NoError(t, m.RunPending(context.Background()))

	data, err := os.ReadFile(filepath.Join(dir, "daily_report_2024-05-01.json"))
	require.NoError(t, err)

	var report monitor.DailyReport
	require.NoError(t, json.Unmarshal(data, &report))
	assert.Equal(t, "2024-05-01", report.Date)
	assert.Equal(t, 4, report.TotalItemsCollected)
	assert.Equal(t, []monitor.Count{{Name: "reddit", Count: 4}}, report.TopPlatforms)
	assert.Equal(t, []monitor.Count{{Name: "hoax", Count: 4}}, report.TrendingTopics)
	assert.Equal(t, []string{"r/conspiracy", "r/news"}, report.NewSourcesDetected)
	require.NotEmpty(t, report.FactCheckOpportunities)
	assert.Equal(t, 50, report.FactCheckOpportunities[0].Score)

	// next day the daily lists start over
	assert.Empty(t, m.Tally().Snapshot(5).NewSources)
	assert.Equal(t, time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC), m.Next("daily_report"))
}

func TestBuildDailyReport_EmptyTally(t *testing.T) {
	r := monitor.BuildDailyReport(monitor.NewTally(), time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"date": "2024-01-02",
		"total_items_collected": 0,
		"top_platforms": [],
		"trending_topics": [],
		"new_sources_detected": [],
		"fact_check_opportunities": []
	}`, string(data))
}

func TestRun_StopsOnCancel(t *testing.T) {
	m := monitor.New(&stubSearcher{}, monitor.WithIntervals(5*time.Millisecond, time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not stop")
	}
}

func TestRun_PausesAfterFailure(t *testing.T) {
	clock := start()
	search := &stubSearcher{panicOn: "hoax"}
	m := monitor.New(search,
		monitor.WithClock(clock.Now),
		monitor.WithKeywords([]string{"hoax"}),
		monitor.WithIntervals(5*time.Millisecond, time.Hour),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	// let Run schedule, then make reddit due so the next tick panics
	time.Sleep(20 * time.Millisecond)
	clock.Advance(31 * time.Minute)
	time.Sleep(30 * time.Millisecond)

	// while paused the loop still honours cancellation
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not stop while paused")
	}
}
