package monitor

import (
	"cmp"
	"slices"
	"sync"

	"misinfo/internal/record"
)

const maxOpportunities = 10

// Tally counts what this process collected since it started.
type Tally struct {
	mu sync.Mutex

	total      int
	byType     map[string]int
	byPlatform map[string]int
	byKeyword  map[string]int
	sources    map[string]bool
	newSources []string
	candidates []Opportunity
}

// Opportunity is a collected item worth a fact-check, ranked by engagement.
type Opportunity struct {
	Platform string `json:"platform"`
	Keyword  string `json:"keyword"`
	Preview  string `json:"preview"`
	URL      string `json:"url,omitempty"`
	Score    int    `json:"score"`
}

type Count struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type Snapshot struct {
	Total         int            `json:"total"`
	ByType        map[string]int `json:"by_type"`
	TopPlatforms  []Count        `json:"top_platforms"`
	TopKeywords   []Count        `json:"top_keywords"`
	NewSources    []string       `json:"new_sources"`
	Opportunities []Opportunity  `json:"opportunities"`
}

func NewTally() *Tally {
	return &Tally{
		byType:     map[string]int{},
		byPlatform: map[string]int{},
		byKeyword:  map[string]int{},
		sources:    map[string]bool{},
	}
}

func (t *Tally) Add(keyword string, recs []*record.Record) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, r := range recs {
		platform := record.Platform(r)

		t.total++
		t.byType[r.Type]++
		t.byPlatform[platform]++
		t.byKeyword[keyword]++

		if src := originOf(r); src != "" && !t.sources[src] {
			t.sources[src] = true
			t.newSources = append(t.newSources, src)
		}

		t.candidates = append(t.candidates, Opportunity{
			Platform: platform,
			Keyword:  keyword,
			Preview:  record.Preview(r.ContentText, 100),
			URL:      firstNonEmpty(r.MetaString("url"), r.MetaString("link")),
			Score:    intMeta(r, "score"),
		})
	}

	slices.SortStableFunc(t.candidates, func(a, b Opportunity) int { return cmp.Compare(b.Score, a.Score) })
	if len(t.candidates) > maxOpportunities {
		t.candidates = t.candidates[:maxOpportunities]
	}
}

// Snapshot returns the current counts with the top n platforms and keywords.
func (t *Tally) Snapshot(n int) Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	byType := make(map[string]int, len(t.byType))
	for k, v := range t.byType {
		byType[k] = v
	}
	return Snapshot{
		Total:         t.total,
		ByType:        byType,
		TopPlatforms:  top(t.byPlatform, n),
		TopKeywords:   top(t.byKeyword, n),
		NewSources:    slices.Clone(t.newSources),
		Opportunities: slices.Clone(t.candidates),
	}
}

// ResetDaily forgets the sources and candidates already reported. Counts keep
// accumulating for the life of the process.
func (t *Tally) ResetDaily() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.newSources = nil
	t.candidates = nil
}

func top(m map[string]int, n int) []Count {
	out := make([]Count, 0, len(m))
	for k, v := range m {
		out = append(out, Count{Name: k, Count: v})
	}
	slices.SortFunc(out, func(a, b Count) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// originOf names where a record came from: a subreddit, a feed or a domain.
func originOf(r *record.Record) string {
	if s := r.MetaString("subreddit"); s != "" {
		return "r/" + s
	}
	if s := r.MetaString("source_domain"); s != "" {
		return s
	}
	return r.MetaString("source")
}

func intMeta(r *record.Record, key string) int {
	switch v := r.Metadata[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
