package content

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"

	"github.com/google/uuid"

	"misinfo/internal/middleware"
	"misinfo/internal/record"
)

type Handler struct {
	service        *Service
	maxUploadBytes int64
}

func NewHandler(service *Service, maxUploadMB int64) *Handler {
	if maxUploadMB <= 0 {
		maxUploadMB = 50
	}
	return &Handler{service: service, maxUploadBytes: maxUploadMB << 20}
}

type collectRequest struct {
	Source      string          `json:"source"`
	Type        string          `json:"type"`
	ContentText string          `json:"content_text"`
	Metadata    json.RawMessage `json:"metadata"`
}

func (h *Handler) Collect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, err := h.readCollect(r)
	if err != nil {
		h.writeError(ctx, w, "BAD_REQUEST", "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Source == "" || req.Type == "" {
		h.writeError(ctx, w, "BAD_REQUEST", record.ErrMissingSourceOrType.Error(), http.StatusBadRequest)
		return
	}

	meta, err := ParseMetadata(string(req.Metadata))
	if err != nil {
		slog.WarnContext(ctx, "rejected metadata", "error", err)
		h.writeError(ctx, w, "BAD_REQUEST", ErrInvalidMetadata.Error(), http.StatusBadRequest)
		return
	}

	rec := &record.Record{Source: req.Source, Type: req.Type, ContentText: req.ContentText, Metadata: meta}
	docID, err := h.service.Collect(ctx, rec)
	if err != nil {
		slog.ErrorContext(ctx, "collect failed", "error", err, "source", req.Source, "type", req.Type)
		h.writeError(ctx, w, "INTERNAL_ERROR", "Failed to collect data", http.StatusInternalServerError)
		return
	}

	slog.InfoContext(ctx, "content collected", "doc_id", docID, "source", req.Source, "type", req.Type)
	h.writeJSON(ctx, w, map[string]string{"status": "success", "doc_id": docID})
}

// readCollect accepts url-encoded or multipart forms, and JSON bodies.
func (h *Handler) readCollect(r *http.Request) (*collectRequest, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var req collectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, err
		}
		return &req, nil
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return nil, err
	}
	return &collectRequest{
		Source:      r.FormValue("source"),
		Type:        r.FormValue("type"),
		ContentText: r.FormValue("content_text"),
		Metadata:    json.RawMessage(r.FormValue("metadata")),
	}, nil
}

func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(ctx, w, "BAD_REQUEST", "File too large", http.StatusRequestEntityTooLarge)
			return
		}
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(ctx, w, "BAD_REQUEST", "No file provided", http.StatusBadRequest)
		return
	}
	defer file.Close()

	source := r.FormValue("source")
	if source == "" {
		h.writeError(ctx, w, "BAD_REQUEST", "Source is required", http.StatusBadRequest)
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	c, err := h.service.Upload(ctx, source, header.Filename, contentType, file)
	if err != nil {
		slog.ErrorContext(ctx, "upload failed", "error", err, "filename", header.Filename)
		h.writeError(ctx, w, "INTERNAL_ERROR", "Failed to upload file", http.StatusInternalServerError)
		return
	}

	h.writeJSON(ctx, w, map[string]string{"status": "success", "file_url": c.FileURL, "doc_id": c.ID})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	if _, err := uuid.Parse(id); err != nil {
		h.writeError(ctx, w, "NOT_FOUND", "Content not found", http.StatusNotFound)
		return
	}

	c, err := h.service.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			h.writeError(ctx, w, "NOT_FOUND", "Content not found", http.StatusNotFound)
			return
		}
		slog.ErrorContext(ctx, "failed to get content", "id", id, "error", err)
		h.writeError(ctx, w, "INTERNAL_ERROR", "Failed to get content", http.StatusInternalServerError)
		return
	}

	h.writeJSON(ctx, w, map[string]interface{}{"data": c})
}

func (h *Handler) writeJSON(ctx context.Context, w http.ResponseWriter, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(body); err != nil {
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
