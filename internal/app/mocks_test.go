package app

import (
	"context"

	"misinfo/internal/retrieval"
)

// MockVectorStore is shared with the external app_test package.
type MockVectorStore struct {
	EnsureSchemaErr error
	Results         []retrieval.Evidence
	CountValue      int
}

func (m *MockVectorStore) EnsureSchema(ctx context.Context) error {
	return m.EnsureSchemaErr
}

func (m *MockVectorStore) Search(ctx context.Context, vec []float32, limit int) ([]retrieval.Evidence, error) {
	return m.Results, nil
}

func (m *MockVectorStore) Count(ctx context.Context) (int, error) {
	return m.CountValue, nil
}
