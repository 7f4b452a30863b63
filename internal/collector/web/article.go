package web

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"misinfo/internal/collector"
	"misinfo/internal/record"
)

// Selector lists are tried in order; the first one that matches wins.
var (
	titleSelectors   = []string{"h1", ".headline", ".article-title", `[data-testid="headline"]`}
	contentSelectors = []string{"article", ".article-content", ".post-content", ".entry-content", "main"}
	authorSelectors  = []string{".author", ".byline", `[rel="author"]`, ".article-author"}
	dateSelectors    = []string{"time", ".date", ".publish-date", "[datetime]"}
)

// CollectArticle scrapes one page. recordType is news_article for known news
// domains and web_content for anything else.
func (c *Collector) CollectArticle(ctx context.Context, pageURL, recordType string, sendToBackend bool) (*record.Record, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := c.client.Do(req)
	if err != nil {
		slog.ErrorContext(ctx, "error collecting article", "url", pageURL, "error", err)
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("article %s: %w", pageURL, collector.ErrNotFound)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("article %s: %w", pageURL, collector.ErrRateLimited)
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("fetch %s: status %d", pageURL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	rec := ParseArticle(doc, pageURL, recordType)
	rec.Set("timestamp", record.Timestamp(c.now()))
	slog.InfoContext(ctx, "collected article", "url", pageURL, "title", rec.MetaString("title"))

	if sendToBackend {
		collector.Push(ctx, c.sink, rec)
	}
	return rec, nil
}

// ParseArticle extracts title, body, author and date from a parsed page.
func ParseArticle(doc *goquery.Document, pageURL, recordType string) *record.Record {
	rec := record.New(SourceArticle, recordType, firstText(doc, contentSelectors))
	rec.Set("url", pageURL)
	rec.Set("title", firstText(doc, titleSelectors))
	rec.Set("author", firstText(doc, authorSelectors))
	rec.Set("publication_date", publicationDate(doc))
	rec.Set("source_domain", domainOf(pageURL))
	return rec
}

func firstText(doc *goquery.Document, selectors []string) string {
	for _, sel := range selectors {
		if s := doc.Find(sel).First(); s.Length() > 0 {
			return strings.TrimSpace(s.Text())
		}
	}
	return ""
}

func publicationDate(doc *goquery.Document) string {
	for _, sel := range dateSelectors {
		s := doc.Find(sel).First()
		if s.Length() == 0 {
			continue
		}
		if dt, ok := s.Attr("datetime"); ok && dt != "" {
			return dt
		}
		return strings.TrimSpace(s.Text())
	}
	return ""
}

func domainOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Host
}
