package evidence

import (
	"context"
	"time"
)

// Evidence is one fact-check source row imported from the embedding export.
type Evidence struct {
	ID            string    `json:"id"`
	Text          string    `json:"text"`
	Description   string    `json:"description"`
	Source        string    `json:"source"`
	GUID          string    `json:"guid"`
	PublishedDate string    `json:"publishedDate"`
	ImportedAt    time.Time `json:"imported_at"`
}

type Repository interface {
	UpsertBatch(ctx context.Context, items []Evidence) (int, error)
	Get(ctx context.Context, id string) (*Evidence, error)
}
