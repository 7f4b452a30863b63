package stats

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"misinfo/internal/middleware"
)

type ContentRepo interface {
	Count(ctx context.Context) (int, error)
	CountByType(ctx context.Context) (map[string]int, error)
}

type JobRepo interface {
	Count(ctx context.Context) (int, error)
}

type EvidenceIndex interface {
	Count(ctx context.Context) (int, error)
}

type Handler struct {
	contentRepo ContentRepo
	jobRepo     JobRepo
	evidence    EvidenceIndex
}

// NewHandler builds the stats handler. A nil evidence index leaves the
// evidence count at zero.
func NewHandler(c ContentRepo, j JobRepo, e EvidenceIndex) *Handler {
	return &Handler{contentRepo: c, jobRepo: j, evidence: e}
}

type StatsResponse struct {
	TotalItems int            `json:"total_items"`
	ByType     map[string]int `json:"by_type"`
	FailedJobs int            `json:"failed_jobs"`
	Evidence   int            `json:"evidence"`
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	correlationID := middleware.GetCorrelationID(ctx)

	slog.InfoContext(ctx, "getting stats", "correlationId", correlationID)

	total, err := h.contentRepo.Count(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to count content", "error", err, "correlationId", correlationID)
		h.writeError(ctx, w, "INTERNAL_ERROR", "failed to count content", http.StatusInternalServerError)
		return
	}

	byType, err := h.contentRepo.CountByType(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to count content by type", "error", err, "correlationId", correlationID)
		h.writeError(ctx, w, "INTERNAL_ERROR", "failed to count content", http.StatusInternalServerError)
		return
	}
	if byType == nil {
		byType = map[string]int{}
	}

	jCount, err := h.jobRepo.Count(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to count jobs", "error", err, "correlationId", correlationID)
		h.writeError(ctx, w, "INTERNAL_ERROR", "failed to count jobs", http.StatusInternalServerError)
		return
	}

	eCount := 0
	if h.evidence != nil {
		eCount, err = h.evidence.Count(ctx)
		if err != nil {
			slog.ErrorContext(ctx, "failed to count evidence", "error", err, "correlationId", correlationID)
			h.writeError(ctx, w, "INTERNAL_ERROR", "failed to count evidence", http.StatusInternalServerError)
			return
		}
	}

	resp := StatsResponse{
		TotalItems: total,
		ByType:     byType,
		FailedJobs: jCount,
		Evidence:   eCount,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"data": resp}); err != nil {
		slog.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, code, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
		"correlationId": middleware.GetCorrelationID(ctx),
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}
