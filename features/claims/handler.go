package claims

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"misinfo/internal/middleware"
	"misinfo/internal/retrieval"
)

type Verifier interface {
	VerifyClaim(ctx context.Context, claim string) (*retrieval.Verification, error)
}

type Handler struct {
	verifier Verifier
}

func NewHandler(v Verifier) *Handler {
	return &Handler{verifier: v}
}

type verifyRequest struct {
	Claim string `json:"claim"`
}

func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(ctx, w, "BAD_REQUEST", "Invalid request body", http.StatusBadRequest)
		return
	}

	v, err := h.verifier.VerifyClaim(ctx, req.Claim)
	if err != nil {
		if errors.Is(err, retrieval.ErrEmptyClaim) {
			h.writeError(ctx, w, "BAD_REQUEST", err.Error(), http.StatusBadRequest)
			return
		}
		slog.ErrorContext(ctx, "claim verification failed", "error", err)
		h.writeError(ctx, w, "INTERNAL_ERROR", "Failed to verify claim", http.StatusInternalServerError)
		return
	}

	slog.InfoContext(ctx, "claim verified", "evidence", len(v.Evidence))
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
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
