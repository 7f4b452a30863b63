package vector

import (
	"context"
	"fmt"

	"github.com/weaviate/weaviate/entities/models"
)

const DefaultClass = "Evidence"

// SchemaClient defines the interface for Weaviate schema operations
type SchemaClient interface {
	ClassExists(ctx context.Context, className string) (bool, error)
	CreateClass(ctx context.Context, class *models.Class) error
	GetClass(ctx context.Context, className string) (*models.Class, error)
	AddProperty(ctx context.Context, className string, property *models.Property) error
	DeleteClass(ctx context.Context, className string) error
}

func evidenceProperties() []*models.Property {
	return []*models.Property{
		{Name: "evidenceId", DataType: []string{"string"}},
		{Name: "text", DataType: []string{"text"}},
		{Name: "description", DataType: []string{"text"}},
		{Name: "source", DataType: []string{"string"}},
		{Name: "guid", DataType: []string{"string"}},
		{Name: "publishedDate", DataType: []string{"string"}},
	}
}

// EnsureSchema creates the evidence class when missing and adds any
// properties an older class lacks. Vectors are always supplied by the caller.
func EnsureSchema(ctx context.Context, client SchemaClient, className string) error {
	if className == "" {
		className = DefaultClass
	}
	exists, err := client.ClassExists(ctx, className)
	if err != nil {
		return err
	}

	properties := evidenceProperties()

	if !exists {
		class := &models.Class{
			Class:       className,
			Description: "Fact-check evidence embedded for claim lookup",
			Vectorizer:  "none",
			Properties:  properties,
		}
		return client.CreateClass(ctx, class)
	}

	class, err := client.GetClass(ctx, className)
	if err != nil {
		return err
	}

	existingProps := make(map[string]bool)
	for _, p := range class.Properties {
		existingProps[p.Name] = true
	}

	for _, p := range properties {
		if !existingProps[p.Name] {
			if err := client.AddProperty(ctx, className, p); err != nil {
				return err
			}
		}
	}

	return nil
}

// Reset drops the class and all its objects, then recreates it empty.
func Reset(ctx context.Context, client SchemaClient, className string) error {
	if className == "" {
		className = DefaultClass
	}
	exists, err := client.ClassExists(ctx, className)
	if err != nil {
		return err
	}
	if exists {
		if err := client.DeleteClass(ctx, className); err != nil {
			return fmt.Errorf("delete class %s: %w", className, err)
		}
	}
	return EnsureSchema(ctx, client, className)
}
