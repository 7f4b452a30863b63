package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"misinfo/internal/config"
)

var (
	ErrTimeout        = errors.New("timeout waiting for NSQ publish")
	ErrInvalidPayload = errors.New("invalid job payload")
)

type EventPublisher interface {
	Publish(topic string, body []byte) error
}

type Service struct {
	repo           Repository
	pub            EventPublisher
	logger         *slog.Logger
	publishTimeout time.Duration
}

func NewService(repo Repository, pub EventPublisher, logger *slog.Logger) *Service {
	return &Service{repo: repo, pub: pub, logger: logger, publishTimeout: 5 * time.Second}
}

func (s *Service) List(ctx context.Context, f Filter) ([]Job, error) {
	return s.repo.List(ctx, f)
}

// Retry puts the parked message back on content.collected and drops the job.
// The job is kept when the publish fails. It returns the content doc id.
func (s *Service) Retry(ctx context.Context, id string) (string, error) {
	job, err := s.repo.Get(ctx, id)
	if err != nil {
		return "", err
	}

	var payload struct {
		DocID string `json:"doc_id"`
	}
	if err := json.Unmarshal(job.Payload, &payload); err != nil || payload.DocID == "" {
		return "", fmt.Errorf("%w: job %s", ErrInvalidPayload, id)
	}

	done := make(chan error, 1)
	go func() {
		done <- s.pub.Publish(config.TopicContentCollected, job.Payload)
	}()

	select {
	case err := <-done:
		if err != nil {
			return "", fmt.Errorf("republish job %s: %w", id, err)
		}
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(s.publishTimeout):
		return "", ErrTimeout
	}

	s.logger.InfoContext(ctx, "failed check republished", "job_id", id, "doc_id", payload.DocID, "attempts", job.Attempts)
	if err := s.repo.Delete(ctx, id); err != nil {
		return "", err
	}
	return payload.DocID, nil
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}
