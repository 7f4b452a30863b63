// Package web collects public web content: news articles, Reddit search
// results and RSS headlines.
package web

import (
	"net/http"
	"time"

	"misinfo/internal/collector"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

const (
	SourceArticle = "web_scraper"
	SourceReddit  = "reddit_scraper"
	SourceNews    = "news_aggregator"
)

// Feed is one RSS source of the news aggregator.
type Feed struct {
	Name string
	URL  string
}

var DefaultFeeds = []Feed{
	{Name: "BBC", URL: "http://feeds.bbci.co.uk/news/rss.xml"},
	{Name: "Reuters", URL: "http://feeds.reuters.com/reuters/topNews"},
	{Name: "AP News", URL: "https://rsshub.app/apnews/topics/apf-topnews"},
	{Name: "NPR", URL: "https://feeds.npr.org/1001/rss.xml"},
}

// entriesPerFeed caps how many entries of each feed are considered.
const entriesPerFeed = 3

type Collector struct {
	client        *http.Client
	sink          collector.Sink
	redditBaseURL string
	feeds         []Feed
	now           func() time.Time
}

type Option func(*Collector)

func WithHTTPClient(c *http.Client) Option {
	return func(col *Collector) { col.client = c }
}

func WithRedditBaseURL(u string) Option {
	return func(col *Collector) { col.redditBaseURL = u }
}

func WithFeeds(feeds []Feed) Option {
	return func(col *Collector) { col.feeds = feeds }
}

func WithClock(now func() time.Time) Option {
	return func(col *Collector) { col.now = now }
}

func New(sink collector.Sink, opts ...Option) *Collector {
	c := &Collector{
		client:        &http.Client{Timeout: 30 * time.Second},
		sink:          sink,
		redditBaseURL: "https://www.reddit.com",
		feeds:         DefaultFeeds,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
