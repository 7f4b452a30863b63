package orchestrator

import (
	"time"

	"misinfo/internal/record"
)

const previewLength = 100

type Report struct {
	Timestamp  string         `json:"timestamp"`
	TotalItems int            `json:"total_items"`
	ByType     map[string]int `json:"by_type"`
	ByPlatform map[string]int `json:"by_platform"`
	Summary    []SummaryEntry `json:"summary"`
}

type SummaryEntry struct {
	Type           string `json:"type"`
	Platform       string `json:"platform"`
	ContentPreview string `json:"content_preview"`
}

func BuildReport(items []Item, now time.Time) Report {
	r := Report{
		Timestamp:  now.Format(time.RFC3339),
		TotalItems: len(items),
		ByType:     map[string]int{},
		ByPlatform: map[string]int{},
		Summary:    make([]SummaryEntry, 0, len(items)),
	}

	for _, item := range items {
		itemType := item.Type
		if itemType == "" {
			itemType = "unknown"
		}
		platform := ItemPlatform(item)

		r.ByType[itemType]++
		r.ByPlatform[platform]++

		preview := ""
		if item.Data != nil {
			preview = record.Preview(item.Data.ContentText, previewLength)
		}
		r.Summary = append(r.Summary, SummaryEntry{Type: itemType, Platform: platform, ContentPreview: preview})
	}
	return r
}

// ItemPlatform derives the report platform from the item type alone, except
// for news articles which report their source domain.
func ItemPlatform(item Item) string {
	switch item.Type {
	case ItemYouTubeVideo:
		return "youtube"
	case ItemRedditPost:
		return "reddit"
	case ItemNewsArticle:
		if item.Data != nil {
			if d := item.Data.MetaString("source_domain"); d != "" {
				return d
			}
		}
		return "news"
	default:
		return "unknown"
	}
}

// CountByType is the per-type tally printed after every enhanced run.
func CountByType(items []Item) map[string]int {
	counts := map[string]int{}
	for _, item := range items {
		counts[item.Type]++
	}
	return counts
}
