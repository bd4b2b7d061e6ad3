package indexer

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"lusso/backend/internal/middleware"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Index handles the indexing trigger surface: a content type plus an optional
// entity id. With an id it re-indexes that entity; without one it bulk-runs
// the whole type.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ContentType string `json:"contentType"`
		ContentID   string `json:"contentId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		return
	}

	if req.ContentType == "" {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "contentType is required", http.StatusBadRequest)
		return
	}

	if req.ContentID != "" {
		if err := h.service.IndexOne(r.Context(), req.ContentType, req.ContentID); err != nil {
			if errors.Is(err, ErrUnknownContentType) {
				h.writeError(r.Context(), w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
				return
			}
			slog.ErrorContext(r.Context(), "incremental index failed", "error", err, "content_type", req.ContentType, "content_id", req.ContentID)
			h.writeError(r.Context(), w, "INDEXING_ERROR", "indexing failed", http.StatusBadGateway)
			return
		}

		h.writeData(r.Context(), w, map[string]string{
			"contentType": req.ContentType,
			"contentId":   req.ContentID,
		})
		return
	}

	report, err := h.service.Run(r.Context(), req.ContentType)
	if err != nil {
		if errors.Is(err, ErrUnknownContentType) {
			h.writeError(r.Context(), w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
			return
		}
		slog.ErrorContext(r.Context(), "bulk index failed", "error", err, "content_type", req.ContentType)
		h.writeError(r.Context(), w, "INTERNAL_ERROR", "bulk indexing failed", http.StatusInternalServerError)
		return
	}

	h.writeData(r.Context(), w, report)
}

// ReindexAll handles the administrative "reindex everything" action.
func (h *Handler) ReindexAll(w http.ResponseWriter, r *http.Request) {
	reports, err := h.service.ReindexAll(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "reindex all finished with errors", "error", err)
	}
	// Per-type outcomes are in the reports either way.
	h.writeData(r.Context(), w, map[string]interface{}{"reports": reports})
}

func (h *Handler) writeData(ctx context.Context, w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"data": data}); err != nil {
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
