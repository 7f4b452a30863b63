package weaviate

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"misinfo/internal/embedding"
	"misinfo/internal/retrieval"
	"misinfo/internal/vector"
)

const defaultBatchSize = 100

type Store struct {
	client    *weaviate.Client
	class     string
	batchSize int
}

func NewStore(client *weaviate.Client, class string) *Store {
	if class == "" {
		class = vector.DefaultClass
	}
	return &Store{client: client, class: class, batchSize: defaultBatchSize}
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	return vector.EnsureSchema(ctx, vector.NewWeaviateSchema(s.client), s.class)
}

// Overwrite replaces the whole index with records. It returns once every
// batch has been acknowledged.
func (s *Store) Overwrite(ctx context.Context, records []embedding.Record) (int, error) {
	if err := vector.Reset(ctx, vector.NewWeaviateSchema(s.client), s.class); err != nil {
		return 0, fmt.Errorf("reset index: %w", err)
	}

	written := 0
	for start := 0; start < len(records); start += s.batchSize {
		end := min(start+s.batchSize, len(records))

		objs := make([]*models.Object, 0, end-start)
		for _, r := range records[start:end] {
			objs = append(objs, s.object(r))
		}

		resp, err := s.client.Batch().ObjectsBatcher().WithObjects(objs...).Do(ctx)
		if err != nil {
			return written, fmt.Errorf("batch import: %w", err)
		}
		for _, item := range resp {
			if item.Result != nil && item.Result.Errors != nil && len(item.Result.Errors.Error) > 0 {
				msgs := make([]string, 0, len(item.Result.Errors.Error))
				for _, e := range item.Result.Errors.Error {
					msgs = append(msgs, e.Message)
				}
				return written, fmt.Errorf("batch object %s: %s", item.ID, strings.Join(msgs, "; "))
			}
		}
		written += len(objs)
	}
	return written, nil
}

func (s *Store) object(r embedding.Record) *models.Object {
	return &models.Object{
		Class: s.class,
		ID:    strfmt.UUID(ObjectID(r.ID).String()),
		Properties: map[string]interface{}{
			"evidenceId":    r.ID,
			"text":          r.Metadata.Text,
			"description":   r.Metadata.Description,
			"source":        r.Metadata.Source,
			"guid":          r.Metadata.GUID,
			"publishedDate": r.Metadata.PublishedDate,
		},
		Vector: r.Embedding,
	}
}

// ObjectID maps an evidence id onto a stable Weaviate object UUID.
func ObjectID(evidenceID string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("evidence:"+evidenceID))
}

func (s *Store) Search(ctx context.Context, vec []float32, limit int) ([]retrieval.Evidence, error) {
	nearVector := s.client.GraphQL().NearVectorArgBuilder().WithVector(vec)

	fields := []graphql.Field{
		{Name: "evidenceId"},
		{Name: "text"},
		{Name: "description"},
		{Name: "source"},
		{Name: "guid"},
		{Name: "publishedDate"},
		{Name: "_additional", Fields: []graphql.Field{{Name: "distance"}}},
	}

	res, err := s.client.GraphQL().Get().
		WithClassName(s.class).
		WithNearVector(nearVector).
		WithLimit(limit).
		WithFields(fields...).
		Do(ctx)
	if err != nil {
		return nil, err
	}
	if len(res.Errors) > 0 {
		return nil, fmt.Errorf("graphql error: %v", res.Errors[0].Message)
	}

	var results []retrieval.Evidence
	data, ok := res.Data["Get"].(map[string]interface{})
	if !ok {
		return results, nil
	}
	items, ok := data[s.class].([]interface{})
	if !ok {
		return results, nil
	}
	for _, it := range items {
		props, ok := it.(map[string]interface{})
		if !ok {
			continue
		}
		e := retrieval.Evidence{
			ID:            str(props["evidenceId"]),
			Text:          str(props["text"]),
			Description:   str(props["description"]),
			Source:        str(props["source"]),
			GUID:          str(props["guid"]),
			PublishedDate: str(props["publishedDate"]),
		}
		if additional, ok := props["_additional"].(map[string]interface{}); ok {
			switch d := additional["distance"].(type) {
			case float64:
				e.Distance = float32(d)
			case string:
				if f, err := strconv.ParseFloat(d, 32); err == nil {
					e.Distance = float32(f)
				}
			}
		}
		results = append(results, e)
	}
	return results, nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	res, err := s.client.GraphQL().Aggregate().
		WithClassName(s.class).
		WithFields(graphql.Field{Name: "meta", Fields: []graphql.Field{{Name: "count"}}}).
		Do(ctx)
	if err != nil {
		return 0, err
	}
	if len(res.Errors) > 0 {
		// A missing class means nothing has been imported yet.
		if strings.Contains(res.Errors[0].Message, "Cannot query field") {
			return 0, nil
		}
		return 0, fmt.Errorf("graphql error: %v", res.Errors[0].Message)
	}

	agg, ok := res.Data["Aggregate"].(map[string]interface{})
	if !ok {
		return 0, nil
	}
	rows, ok := agg[s.class].([]interface{})
	if !ok || len(rows) == 0 {
		return 0, nil
	}
	row, _ := rows[0].(map[string]interface{})
	meta, _ := row["meta"].(map[string]interface{})
	count, _ := meta["count"].(float64)
	return int(count), nil
}

func str(v interface{}) string {
	s, _ := v.(string)
	return s
}
