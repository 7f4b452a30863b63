package monitor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

type DailyReport struct {
	Date                   string        `json:"date"`
	TotalItemsCollected    int           `json:"total_items_collected"`
	TopPlatforms           []Count       `json:"top_platforms"`
	TrendingTopics         []Count       `json:"trending_topics"`
	NewSourcesDetected     []string      `json:"new_sources_detected"`
	FactCheckOpportunities []Opportunity `json:"fact_check_opportunities"`
}

func BuildDailyReport(t *Tally, now time.Time) DailyReport {
	snap := t.Snapshot(5)
	r := DailyReport{
		Date:                   now.Format("2006-01-02"),
		TotalItemsCollected:    snap.Total,
		TopPlatforms:           snap.TopPlatforms,
		TrendingTopics:         snap.TopKeywords,
		NewSourcesDetected:     snap.NewSources,
		FactCheckOpportunities: snap.Opportunities,
	}
	if r.NewSourcesDetected == nil {
		r.NewSourcesDetected = []string{}
	}
	if r.FactCheckOpportunities == nil {
		r.FactCheckOpportunities = []Opportunity{}
	}
	return r
}

// WriteDailyReport writes dir/daily_report_YYYY-MM-DD.json and starts a new
// reporting day on the tally.
func WriteDailyReport(dir string, t *Tally, now time.Time) (string, error) {
	report := BuildDailyReport(t, now)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, fmt.Sprintf("daily_report_%s.json", report.Date))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write daily report: %w", err)
	}

	t.ResetDaily()
	return path, nil
}
