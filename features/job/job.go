// Package job keeps the content.collected messages the checker gave up on so
// they can be inspected and sent through the checker again.
package job

import (
	"encoding/json"
	"errors"
	"time"
)

var ErrNotFound = errors.New("failed job not found")

// Job is a checker message parked after its last NSQ attempt. Payload is the
// original message body, republished verbatim on retry.
type Job struct {
	ID        string          `json:"id"`
	ContentID string          `json:"content_id"`
	Handler   string          `json:"handler"`
	Payload   json.RawMessage `json:"payload"`
	Error     string          `json:"error"`
	Attempts  int             `json:"attempts"`
	CreatedAt time.Time       `json:"created_at"`
}

// Filter narrows a listing. Zero values mean no restriction, except Limit
// which falls back to DefaultLimit.
type Filter struct {
	ContentID string
	Limit     int
}

const (
	DefaultLimit = 50
	MaxLimit     = 500
)

func (f Filter) limit() int {
	switch {
	case f.Limit <= 0:
		return DefaultLimit
	case f.Limit > MaxLimit:
		return MaxLimit
	}
	return f.Limit
}
