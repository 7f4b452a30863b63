package retrieval

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// AuditEntry is one line of the claim verification audit log.
type AuditEntry struct {
	Timestamp     time.Time `json:"timestamp"`
	Claim         string    `json:"claim"`
	NumResults    int       `json:"num_results"`
	TopEvidenceID string    `json:"top_evidence_id,omitempty"`
	TopDistance   *float32  `json:"top_distance,omitempty"`
	LatencyMs     int64     `json:"latency_ms"`
	CorrelationID string    `json:"correlation_id"`
}

// AuditLog appends one JSON line per verified claim.
type AuditLog struct {
	mu     sync.Mutex
	w      io.Writer
	closer io.Closer
	now    func() time.Time
}

func NewAuditLog(w io.Writer) *AuditLog {
	return &AuditLog{w: w, now: time.Now}
}

// OpenAuditLog appends to the file at path, creating it and its directory.
func OpenAuditLog(path string) (*AuditLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(filepath.Clean(path), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600) // #nosec G304 -- path comes from CLAIM_LOG_PATH
	if err != nil {
		return nil, err
	}
	l := NewAuditLog(f)
	l.closer = f
	return l, nil
}

// Record stamps and writes the entry for a finished verification.
func (l *AuditLog) Record(claim string, found []Evidence, took time.Duration, correlationID string) {
	entry := AuditEntry{
		Timestamp:     l.now().UTC(),
		Claim:         claim,
		NumResults:    len(found),
		LatencyMs:     took.Milliseconds(),
		CorrelationID: correlationID,
	}
	if len(found) > 0 {
		entry.TopEvidenceID = found[0].ID
		d := found[0].Distance
		entry.TopDistance = &d
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if err := json.NewEncoder(l.w).Encode(entry); err != nil {
		slog.Error("failed to write claim audit entry", "error", err)
	}
}

func (l *AuditLog) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}
