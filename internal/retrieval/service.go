package retrieval

import (
	"context"
	"errors"
	"strings"
	"time"

	"misinfo/internal/middleware"
)

const DefaultLimit = 10

var ErrEmptyClaim = errors.New("claim is required")

// Evidence is a fact-check item returned by a nearest-neighbour query.
type Evidence struct {
	ID            string  `json:"id"`
	Text          string  `json:"text"`
	Description   string  `json:"description,omitempty"`
	Source        string  `json:"source,omitempty"`
	GUID          string  `json:"guid,omitempty"`
	PublishedDate string  `json:"publishedDate,omitempty"`
	Distance      float32 `json:"distance"`
}

type Verification struct {
	Claim    string     `json:"claim"`
	Evidence []Evidence `json:"evidence"`
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type VectorStore interface {
	Search(ctx context.Context, vector []float32, limit int) ([]Evidence, error)
}

type Service struct {
	embedder Embedder
	store    VectorStore
	audit    *AuditLog
	limit    int
}

// NewService builds the claim verifier. audit may be nil.
func NewService(e Embedder, s VectorStore, audit *AuditLog) *Service {
	return &Service{embedder: e, store: s, audit: audit, limit: DefaultLimit}
}

// VerifyClaim embeds the claim as a retrieval query and returns the nearest
// evidence from the index.
func (s *Service) VerifyClaim(ctx context.Context, claim string) (*Verification, error) {
	claim = strings.TrimSpace(claim)
	if claim == "" {
		return nil, ErrEmptyClaim
	}

	start := time.Now()

	vec, err := s.embedder.Embed(ctx, claim)
	if err != nil {
		return nil, err
	}

	found, err := s.store.Search(ctx, vec, s.limit)
	if err != nil {
		return nil, err
	}
	if found == nil {
		found = []Evidence{}
	}

	if s.audit != nil {
		s.audit.Record(claim, found, time.Since(start), middleware.GetCorrelationID(ctx))
	}

	return &Verification{Claim: claim, Evidence: found}, nil
}
