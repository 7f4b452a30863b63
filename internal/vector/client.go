package vector

import (
	"context"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate/entities/models"
)

// WeaviateSchema is the SchemaClient backed by a live Weaviate.
type WeaviateSchema struct {
	schema *weaviate.Client
}

func NewWeaviateSchema(c *weaviate.Client) *WeaviateSchema {
	return &WeaviateSchema{schema: c}
}

func (w *WeaviateSchema) ClassExists(ctx context.Context, class string) (bool, error) {
	return w.schema.Schema().ClassExistenceChecker().WithClassName(class).Do(ctx)
}

func (w *WeaviateSchema) CreateClass(ctx context.Context, class *models.Class) error {
	return w.schema.Schema().ClassCreator().WithClass(class).Do(ctx)
}

func (w *WeaviateSchema) GetClass(ctx context.Context, class string) (*models.Class, error) {
	return w.schema.Schema().ClassGetter().WithClassName(class).Do(ctx)
}

func (w *WeaviateSchema) AddProperty(ctx context.Context, class string, p *models.Property) error {
	return w.schema.Schema().PropertyCreator().WithClassName(class).WithProperty(p).Do(ctx)
}

func (w *WeaviateSchema) DeleteClass(ctx context.Context, class string) error {
	return w.schema.Schema().ClassDeleter().WithClassName(class).Do(ctx)
}
