// Package twitter collects single tweets through the Twitter API v2.
package twitter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"misinfo/internal/collector"
	"misinfo/internal/record"
)

const Source = "twitter"

const tweetFields = "author_id,created_at,text,public_metrics,context_annotations"

type Collector struct {
	baseURL string
	client  *http.Client
	sink    collector.Sink
}

// New returns a collector authenticating with an app-only bearer token.
// An empty token yields a collector whose calls fail with ErrNotConfigured.
func New(baseURL, bearerToken string, sink collector.Sink) *Collector {
	c := &Collector{baseURL: strings.TrimRight(baseURL, "/"), sink: sink}
	if bearerToken == "" {
		slog.Warn("TWITTER_BEARER_TOKEN not set, twitter collection disabled")
		return c
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: bearerToken, TokenType: "Bearer"})
	c.client = &http.Client{
		Timeout:   30 * time.Second,
		Transport: &oauth2.Transport{Source: ts, Base: http.DefaultTransport},
	}
	return c
}

type tweetResponse struct {
	Data *struct {
		ID                 string           `json:"id"`
		Text               string           `json:"text"`
		AuthorID           string           `json:"author_id"`
		CreatedAt          string           `json:"created_at"`
		PublicMetrics      map[string]any   `json:"public_metrics"`
		ContextAnnotations []map[string]any `json:"context_annotations"`
	} `json:"data"`
	Errors []struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
	} `json:"errors"`
}

// CollectTweet fetches one tweet by id.
func (c *Collector) CollectTweet(ctx context.Context, tweetID string, sendToBackend bool) (*record.Record, error) {
	if c.client == nil {
		return nil, fmt.Errorf("%w: TWITTER_BEARER_TOKEN", collector.ErrNotConfigured)
	}

	endpoint := fmt.Sprintf("%s/2/tweets/%s?%s", c.baseURL, url.PathEscape(tweetID),
		url.Values{"tweet.fields": {tweetFields}}.Encode())
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		slog.ErrorContext(ctx, "error retrieving tweet", "tweet_id", tweetID, "error", err)
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests:
		slog.ErrorContext(ctx, "twitter api rate limit exceeded")
		return nil, collector.ErrRateLimited
	case http.StatusUnauthorized, http.StatusForbidden:
		slog.ErrorContext(ctx, "twitter api unauthorized, check the bearer token")
		return nil, collector.ErrUnauthorized
	case http.StatusNotFound:
		return nil, fmt.Errorf("tweet %s: %w", tweetID, collector.ErrNotFound)
	default:
		return nil, fmt.Errorf("twitter api error: %d", resp.StatusCode)
	}

	var body tweetResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode tweet: %w", err)
	}
	if body.Data == nil {
		slog.WarnContext(ctx, "no data found for tweet", "tweet_id", tweetID)
		return nil, fmt.Errorf("tweet %s: %w", tweetID, collector.ErrNotFound)
	}

	d := body.Data
	metrics := d.PublicMetrics
	if metrics == nil {
		metrics = map[string]any{}
	}
	annotations := d.ContextAnnotations
	if annotations == nil {
		annotations = []map[string]any{}
	}

	rec := &record.Record{
		Source:      Source,
		Type:        record.TypeTweet,
		ContentText: d.Text,
		Metadata: map[string]any{
			"tweet_id":            tweetID,
			"author_id":           d.AuthorID,
			"created_at":          d.CreatedAt,
			"public_metrics":      metrics,
			"context_annotations": annotations,
		},
	}
	slog.InfoContext(ctx, "retrieved tweet", "tweet_id", tweetID)

	if sendToBackend {
		collector.Push(ctx, c.sink, rec)
	}
	return rec, nil
}

// TweetIDFromURL takes the last path segment of a status URL, dropping any query.
func TweetIDFromURL(raw string) string {
	raw, _, _ = strings.Cut(raw, "?")
	raw = strings.TrimRight(raw, "/")
	if i := strings.LastIndex(raw, "/"); i >= 0 {
		return raw[i+1:]
	}
	return raw
}
