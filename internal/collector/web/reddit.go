package web

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"misinfo/internal/collector"
	"misinfo/internal/record"
)

type redditListing struct {
	Data struct {
		Children []struct {
			Data struct {
				ID          string  `json:"id"`
				Title       string  `json:"title"`
				Selftext    string  `json:"selftext"`
				Subreddit   string  `json:"subreddit"`
				Author      string  `json:"author"`
				Score       int     `json:"score"`
				NumComments int     `json:"num_comments"`
				CreatedUTC  float64 `json:"created_utc"`
				Permalink   string  `json:"permalink"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// SearchReddit runs a public Reddit search and returns one record per post.
// A 403 from Reddit is reported as ErrBlocked.
func (c *Collector) SearchReddit(ctx context.Context, terms string, sendToBackend bool) ([]*record.Record, error) {
	q := url.Values{"q": {terms}, "sort": {"relevance"}, "limit": {"25"}}
	endpoint := strings.TrimRight(c.redditBaseURL, "/") + "/search.json?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json, text/javascript, */*; q=0.01")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Referer", "https://www.reddit.com/")

	resp, err := c.client.Do(req)
	if err != nil {
		slog.ErrorContext(ctx, "error collecting reddit content", "terms", terms, "error", err)
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden:
		slog.WarnContext(ctx, "reddit json api blocked", "terms", terms)
		return nil, collector.ErrBlocked
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, collector.ErrRateLimited
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("reddit search: status %d", resp.StatusCode)
	}

	var listing redditListing
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, fmt.Errorf("decode reddit listing: %w", err)
	}

	now := record.Timestamp(c.now())
	posts := make([]*record.Record, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		p := child.Data
		rec := record.New(SourceReddit, record.TypeRedditPost, p.Title+" "+p.Selftext)
		rec.Set("platform", "reddit")
		rec.Set("post_id", p.ID)
		rec.Set("subreddit", p.Subreddit)
		rec.Set("author", p.Author)
		rec.Set("score", p.Score)
		rec.Set("num_comments", p.NumComments)
		rec.Set("created_utc", p.CreatedUTC)
		rec.Set("url", "https://reddit.com"+p.Permalink)
		rec.Set("timestamp", now)

		if sendToBackend {
			collector.Push(ctx, c.sink, rec)
		}
		posts = append(posts, rec)
	}

	slog.InfoContext(ctx, "collected reddit posts", "terms", terms, "count", len(posts))
	return posts, nil
}
