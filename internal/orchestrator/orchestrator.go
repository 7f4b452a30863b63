// Package orchestrator dispatches collection requests to the platform
// collectors and shapes their records into report items.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"misinfo/internal/collector"
	"misinfo/internal/collector/twitter"
	"misinfo/internal/collector/youtube"
	"misinfo/internal/record"
)

var (
	ErrMissingTarget     = errors.New("either an id or a url is required")
	ErrUnsupportedSource = errors.New("unsupported source")
	ErrBadVideoURL       = errors.New("could not extract video ID from URL")
)

// Item types of enhanced-mode results.
const (
	ItemYouTubeVideo = "youtube_video"
	ItemNewsArticle  = "news_article"
	ItemWebContent   = "web_content"
	ItemDocument     = "document"
	ItemRedditPost   = "reddit_post"
)

// Record sources used for local files.
const (
	SourceFileUpload  = "file_upload"
	SourceBatchUpload = "batch_upload"
)

// Platforms accepted with keyword searches.
const (
	PlatformReddit         = "reddit"
	PlatformNewsAggregator = "news_aggregator"
)

// Item is one collected record tagged with how it was collected.
type Item struct {
	Type string         `json:"type"`
	Data *record.Record `json:"data"`
}

type VideoCollector interface {
	CollectVideo(ctx context.Context, videoID string, sendToBackend bool) (*record.Record, error)
}

type TweetCollector interface {
	CollectTweet(ctx context.Context, tweetID string, sendToBackend bool) (*record.Record, error)
}

type WebCollector interface {
	CollectArticle(ctx context.Context, pageURL, recordType string, sendToBackend bool) (*record.Record, error)
	SearchReddit(ctx context.Context, terms string, sendToBackend bool) ([]*record.Record, error)
	SearchNews(ctx context.Context, terms string, sendToBackend bool) ([]*record.Record, error)
}

type DocumentProcessor interface {
	ProcessFile(ctx context.Context, path, source string, sendToBackend bool) (*record.Record, error)
	ProcessDirectory(ctx context.Context, dir, source string, sendToBackend bool) ([]*record.Record, error)
}

type Orchestrator struct {
	videos VideoCollector
	tweets TweetCollector
	web    WebCollector
	docs   DocumentProcessor
	send   bool
}

type Option func(*Orchestrator)

func WithYouTube(v VideoCollector) Option { return func(o *Orchestrator) { o.videos = v } }

func WithTwitter(t TweetCollector) Option { return func(o *Orchestrator) { o.tweets = t } }

func WithWeb(w WebCollector) Option { return func(o *Orchestrator) { o.web = w } }

func WithDocuments(d DocumentProcessor) Option { return func(o *Orchestrator) { o.docs = d } }

// WithBackend controls whether collectors push records to the backend.
func WithBackend(send bool) Option { return func(o *Orchestrator) { o.send = send } }

func New(opts ...Option) *Orchestrator {
	o := &Orchestrator{send: true}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// CollectBasic fetches a single tweet or video. An explicit id wins over url.
func (o *Orchestrator) CollectBasic(ctx context.Context, source, id, rawURL string) (*record.Record, error) {
	if id == "" && rawURL == "" {
		return nil, fmt.Errorf("%s: %w", source, ErrMissingTarget)
	}

	switch source {
	case twitter.Source:
		if o.tweets == nil {
			return nil, fmt.Errorf("twitter: %w", collector.ErrNotConfigured)
		}
		if id == "" {
			id = twitter.TweetIDFromURL(rawURL)
		}
		slog.InfoContext(ctx, "collecting tweet", "tweet_id", id)
		return o.tweets.CollectTweet(ctx, id, o.send)

	case youtube.Source:
		if o.videos == nil {
			return nil, fmt.Errorf("youtube: %w", collector.ErrNotConfigured)
		}
		if id == "" {
			var ok bool
			if id, ok = youtube.ExtractVideoID(rawURL); !ok {
				return nil, ErrBadVideoURL
			}
		}
		slog.InfoContext(ctx, "collecting video", "video_id", id)
		return o.videos.CollectVideo(ctx, id, o.send)
	}

	return nil, fmt.Errorf("%q: %w", source, ErrUnsupportedSource)
}

// CollectURL sniffs the URL and runs the matching collector. Reddit URLs are
// recognised but yield nothing.
func (o *Orchestrator) CollectURL(ctx context.Context, rawURL string) ([]Item, error) {
	slog.InfoContext(ctx, "analyzing url", "url", rawURL)

	switch DetectURL(rawURL) {
	case KindYouTube:
		id, ok := youtube.ExtractVideoID(rawURL)
		if !ok {
			return nil, nil
		}
		if o.videos == nil {
			return nil, fmt.Errorf("youtube: %w", collector.ErrNotConfigured)
		}
		rec, err := o.videos.CollectVideo(ctx, id, o.send)
		if err != nil {
			return nil, err
		}
		return []Item{{Type: ItemYouTubeVideo, Data: rec}}, nil

	case KindNews:
		return o.article(ctx, rawURL, record.TypeNewsArticle, ItemNewsArticle)

	case KindReddit:
		slog.InfoContext(ctx, "reddit post urls are not collected, use keyword search", "url", rawURL)
		return nil, nil

	default:
		return o.article(ctx, rawURL, record.TypeWebContent, ItemWebContent)
	}
}

func (o *Orchestrator) article(ctx context.Context, rawURL, recordType, itemType string) ([]Item, error) {
	if o.web == nil {
		return nil, fmt.Errorf("web: %w", collector.ErrNotConfigured)
	}
	rec, err := o.web.CollectArticle(ctx, rawURL, recordType, o.send)
	if err != nil {
		return nil, err
	}
	return []Item{{Type: itemType, Data: rec}}, nil
}

func (o *Orchestrator) CollectFile(ctx context.Context, path string) ([]Item, error) {
	if o.docs == nil {
		return nil, fmt.Errorf("documents: %w", collector.ErrNotConfigured)
	}
	rec, err := o.docs.ProcessFile(ctx, path, SourceFileUpload, o.send)
	if err != nil {
		return nil, err
	}
	return []Item{{Type: ItemDocument, Data: rec}}, nil
}

func (o *Orchestrator) CollectDirectory(ctx context.Context, dir string) ([]Item, error) {
	if o.docs == nil {
		return nil, fmt.Errorf("documents: %w", collector.ErrNotConfigured)
	}
	recs, err := o.docs.ProcessDirectory(ctx, dir, SourceBatchUpload, o.send)
	return wrap(ItemDocument, recs), err
}

// CollectKeywords searches every platform for every keyword. A failing search
// is logged and skipped; only cancellation stops the loop.
func (o *Orchestrator) CollectKeywords(ctx context.Context, keywords, platforms []string) ([]Item, error) {
	if len(platforms) == 0 {
		platforms = []string{PlatformReddit}
	}
	slog.InfoContext(ctx, "monitoring keywords", "keywords", keywords, "platforms", platforms)

	var items []Item
	for _, platform := range platforms {
		search, itemType := o.searcher(platform)
		if search == nil {
			slog.WarnContext(ctx, "platform not implemented", "platform", platform)
			continue
		}
		for _, kw := range keywords {
			if err := ctx.Err(); err != nil {
				return items, err
			}
			recs, err := search(ctx, kw, o.send)
			if err != nil {
				slog.ErrorContext(ctx, "keyword search failed", "platform", platform, "keyword", kw, "error", err)
				continue
			}
			items = append(items, wrap(itemType, recs)...)
		}
	}
	return items, nil
}

type searchFunc func(ctx context.Context, terms string, sendToBackend bool) ([]*record.Record, error)

func (o *Orchestrator) searcher(platform string) (searchFunc, string) {
	if o.web == nil {
		return nil, ""
	}
	switch strings.ToLower(platform) {
	case PlatformReddit:
		return o.web.SearchReddit, ItemRedditPost
	case PlatformNewsAggregator:
		return o.web.SearchNews, ItemNewsArticle
	}
	return nil, ""
}

func wrap(itemType string, recs []*record.Record) []Item {
	items := make([]Item, 0, len(recs))
	for _, r := range recs {
		items = append(items, Item{Type: itemType, Data: r})
	}
	return items
}
