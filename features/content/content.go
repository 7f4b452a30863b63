package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"misinfo/internal/config"
	"misinfo/internal/middleware"
	"misinfo/internal/record"
)

var ErrInvalidMetadata = errors.New("invalid JSON in metadata")

// Content is a stored Content Record plus the server-side fields.
type Content struct {
	ID          string         `json:"id"`
	Source      string         `json:"source"`
	Type        string         `json:"type"`
	ContentText string         `json:"content_text"`
	Metadata    map[string]any `json:"metadata"`
	FileURL     string         `json:"file_url,omitempty"`
	Status      string         `json:"status"`
	Analysis    string         `json:"analysis,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

type Repository interface {
	Save(ctx context.Context, c *Content) error
	Get(ctx context.Context, id string) (*Content, error)
	GetText(ctx context.Context, id string) (string, error)
	SaveAnalysis(ctx context.Context, id, analysis string) error
	CountByType(ctx context.Context) (map[string]int, error)
	Count(ctx context.Context) (int, error)
}

type BlobStore interface {
	Put(ctx context.Context, name, contentType string, r io.Reader, public bool) (string, error)
}

type EventPublisher interface {
	Publish(topic string, body []byte) error
}

type Recorder interface {
	ObserveCollected(source, recordType string)
	ObserveUpload(status string)
}

type Service struct {
	repo          Repository
	blobs         BlobStore
	pub           EventPublisher
	rec           Recorder
	publicUploads bool
}

func NewService(repo Repository, blobs BlobStore, pub EventPublisher, rec Recorder, publicUploads bool) *Service {
	return &Service{repo: repo, blobs: blobs, pub: pub, rec: rec, publicUploads: publicUploads}
}

// ParseMetadata decodes the metadata form field. Empty means an empty object;
// anything that is not a JSON object is rejected.
func ParseMetadata(raw string) (map[string]any, error) {
	if raw == "" {
		return map[string]any{}, nil
	}
	var meta map[string]any
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMetadata, err)
	}
	if meta == nil {
		meta = map[string]any{}
	}
	return meta, nil
}

// Collect stores rec with status pending and announces it to the checker.
func (s *Service) Collect(ctx context.Context, rec *record.Record) (string, error) {
	if err := rec.Validate(); err != nil {
		return "", err
	}

	c := &Content{
		Source:      rec.Source,
		Type:        rec.Type,
		ContentText: rec.ContentText,
		Metadata:    rec.Metadata,
		Status:      record.StatusPending,
	}
	if c.Metadata == nil {
		c.Metadata = map[string]any{}
	}

	if err := s.repo.Save(ctx, c); err != nil {
		return "", fmt.Errorf("save content: %w", err)
	}

	if s.rec != nil {
		s.rec.ObserveCollected(c.Source, c.Type)
	}
	s.announce(ctx, c.ID)

	return c.ID, nil
}

// Upload puts the file in object storage and records a type=file entry
// pointing at it.
func (s *Service) Upload(ctx context.Context, source, filename, contentType string, r io.Reader) (*Content, error) {
	if source == "" {
		return nil, record.ErrMissingSourceOrType
	}

	base := filepath.Base(filename)
	name := fmt.Sprintf("%s_%s", uuid.New().String(), base)

	url, err := s.blobs.Put(ctx, name, contentType, r, s.publicUploads)
	if err != nil {
		s.observeUpload("error")
		return nil, fmt.Errorf("store file: %w", err)
	}

	c := &Content{
		Source:  source,
		Type:    record.TypeFile,
		FileURL: url,
		Metadata: map[string]any{
			"filename":     base,
			"content_type": contentType,
		},
		Status: record.StatusPending,
	}
	if err := s.repo.Save(ctx, c); err != nil {
		s.observeUpload("error")
		return nil, fmt.Errorf("save upload record: %w", err)
	}

	s.observeUpload("success")
	slog.InfoContext(ctx, "file uploaded", "doc_id", c.ID, "file_url", url)
	return c, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Content, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) announce(ctx context.Context, docID string) {
	if s.pub == nil {
		return
	}
	payload, _ := json.Marshal(map[string]string{
		"doc_id":         docID,
		"correlation_id": middleware.GetCorrelationID(ctx),
	})
	if err := s.pub.Publish(config.TopicContentCollected, payload); err != nil {
		slog.ErrorContext(ctx, "failed to publish content event", "error", err, "doc_id", docID)
		return
	}
	slog.InfoContext(ctx, "published content event", "doc_id", docID)
}

func (s *Service) observeUpload(status string) {
	if s.rec != nil {
		s.rec.ObserveUpload(status)
	}
}
