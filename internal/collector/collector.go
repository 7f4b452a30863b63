// Package collector holds what every platform collector shares: the error
// taxonomy and the optional push of a finished record to the backend.
package collector

import (
	"context"
	"errors"
	"log/slog"

	"misinfo/internal/record"
)

var (
	ErrNotFound      = errors.New("content not found")
	ErrRateLimited   = errors.New("platform rate limit reached")
	ErrUnauthorized  = errors.New("platform rejected credentials")
	ErrBlocked       = errors.New("platform blocked the request")
	ErrNotConfigured = errors.New("collector not configured")
)

// Sink accepts a record and returns the backend document id.
type Sink interface {
	Send(ctx context.Context, rec *record.Record) (string, error)
}

// Push sends rec when sink is non-nil and stores the returned doc id on it.
// A failed push is logged and leaves BackendDocID empty.
func Push(ctx context.Context, sink Sink, rec *record.Record) {
	if sink == nil {
		return
	}
	id, err := sink.Send(ctx, rec)
	if err != nil {
		slog.ErrorContext(ctx, "failed to send record to backend", "source", rec.Source, "type", rec.Type, "error", err)
		return
	}
	rec.BackendDocID = id
	slog.InfoContext(ctx, "record sent to backend", "source", rec.Source, "type", rec.Type, "doc_id", id)
}
