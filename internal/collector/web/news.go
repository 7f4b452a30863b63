package web

import (
	"context"
	"log/slog"
	"strings"

	"github.com/mmcdole/gofeed"

	"misinfo/internal/collector"
	"misinfo/internal/record"
)

// SearchNews scans the first entries of every configured feed and keeps those
// mentioning any whitespace-separated term. A failing feed is skipped.
func (c *Collector) SearchNews(ctx context.Context, terms string, sendToBackend bool) ([]*record.Record, error) {
	words := strings.Fields(strings.ToLower(terms))

	parser := gofeed.NewParser()
	parser.Client = c.client
	parser.UserAgent = userAgent

	var articles []*record.Record
	for _, src := range c.feeds {
		feed, err := parser.ParseURLWithContext(src.URL, ctx)
		if err != nil {
			slog.WarnContext(ctx, "failed to fetch feed", "feed", src.Name, "error", err)
			continue
		}

		items := feed.Items
		if len(items) > entriesPerFeed {
			items = items[:entriesPerFeed]
		}

		for _, item := range items {
			content := item.Title + " " + item.Description
			if !mentionsAny(strings.ToLower(content), words) {
				continue
			}

			rec := record.New(SourceNews, record.TypeNewsArticle, content)
			rec.Set("platform", "news")
			rec.Set("source", src.Name)
			rec.Set("title", item.Title)
			rec.Set("link", item.Link)
			rec.Set("published", item.Published)
			rec.Set("timestamp", record.Timestamp(c.now()))
			rec.Set("search_term", terms)

			if sendToBackend {
				collector.Push(ctx, c.sink, rec)
			}
			articles = append(articles, rec)
		}
	}

	slog.InfoContext(ctx, "collected news articles", "terms", terms, "count", len(articles))
	return articles, nil
}

func mentionsAny(content string, words []string) bool {
	for _, w := range words {
		if strings.Contains(content, w) {
			return true
		}
	}
	return false
}
