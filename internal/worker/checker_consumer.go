package worker

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/nsqio/go-nsq"

	"misinfo/features/job"
	"misinfo/internal/middleware"
)

const checkerHandlerName = "content-checker"

type CheckerConsumer struct {
	checker     Checker
	store       ContentStore
	jobs        FailedJobSaver
	metrics     CheckRecorder
	maxAttempts uint16
}

func NewCheckerConsumer(c Checker, s ContentStore, j FailedJobSaver, m CheckRecorder, maxAttempts uint16) *CheckerConsumer {
	if maxAttempts == 0 {
		maxAttempts = 5
	}
	return &CheckerConsumer{checker: c, store: s, jobs: j, metrics: m, maxAttempts: maxAttempts}
}

func (h *CheckerConsumer) HandleMessage(m *nsq.Message) error {
	if len(m.Body) == 0 {
		return nil
	}

	var payload ContentCollectedPayload
	if err := json.Unmarshal(m.Body, &payload); err != nil || payload.DocID == "" {
		// Poison Pill: don't retry
		slog.Error("poison pill: invalid content event", "error", err)
		return nil
	}

	ctx := context.Background()
	if payload.CorrelationID != "" {
		ctx = middleware.WithCorrelationID(ctx, payload.CorrelationID)
	}

	text, err := h.store.GetText(ctx, payload.DocID)
	if errors.Is(err, sql.ErrNoRows) {
		slog.WarnContext(ctx, "content vanished before check", "doc_id", payload.DocID)
		return nil
	}
	if err != nil {
		return h.retryOrPark(ctx, m, payload, err)
	}
	if strings.TrimSpace(text) == "" {
		h.observe("skipped")
		return nil
	}

	checkCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	analysis, err := h.checker.Check(checkCtx, text)
	if err != nil {
		slog.ErrorContext(ctx, "misinformation check failed", "doc_id", payload.DocID, "error", err)
		return h.retryOrPark(ctx, m, payload, err)
	}
	if analysis == "" {
		h.observe("empty")
		return nil
	}

	if err := h.store.SaveAnalysis(ctx, payload.DocID, analysis); err != nil {
		slog.ErrorContext(ctx, "failed to save analysis", "doc_id", payload.DocID, "error", err)
		return h.retryOrPark(ctx, m, payload, err)
	}

	h.observe("checked")
	slog.InfoContext(ctx, "content checked", "doc_id", payload.DocID)
	return nil
}

// retryOrPark hands the error back to NSQ for a requeue until the attempt
// budget is spent, then stores the message as a failed job.
func (h *CheckerConsumer) retryOrPark(ctx context.Context, m *nsq.Message, payload ContentCollectedPayload, cause error) error {
	if m.Attempts < h.maxAttempts {
		return cause
	}

	h.observe("failed")
	failed := &job.Job{
		ContentID: payload.DocID,
		Handler:   checkerHandlerName,
		Payload:   json.RawMessage(m.Body),
		Error:     cause.Error(),
		Attempts:  int(m.Attempts),
	}
	if err := h.jobs.Save(ctx, failed); err != nil {
		slog.ErrorContext(ctx, "failed to save failed job", "doc_id", payload.DocID, "error", err)
		return nil
	}
	slog.InfoContext(ctx, "saved failed job for retry", "job_id", failed.ID, "doc_id", payload.DocID)
	return nil
}

func (h *CheckerConsumer) observe(status string) {
	if h.metrics != nil {
		h.metrics.ObserveCheck(status)
	}
}
