package searchapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"lusso/backend/internal/middleware"
	"lusso/backend/internal/search"
)

type Searcher interface {
	Search(ctx context.Context, query, contentType string, limit int) ([]search.ScoredResult, error)
}

type Handler struct {
	searcher Searcher
}

func NewHandler(searcher Searcher) *Handler {
	return &Handler{searcher: searcher}
}

// Search serves the admin UI's semantic search box. A gateway failure comes
// back as an explicit error payload, never as an empty result list: the UI
// must be able to tell "no matches" from "search is down".
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query       string `json:"query"`
		ContentType string `json:"contentType"`
		Limit       int    `json:"limit"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		return
	}

	if req.Query == "" {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "query is required", http.StatusBadRequest)
		return
	}

	results, err := h.searcher.Search(r.Context(), req.Query, req.ContentType, req.Limit)
	if err != nil {
		slog.ErrorContext(r.Context(), "search failed", "error", err, "query", req.Query)
		if errors.Is(err, search.ErrSearch) {
			h.writeError(r.Context(), w, "UPSTREAM_ERROR", "search is temporarily unavailable", http.StatusBadGateway)
			return
		}
		h.writeError(r.Context(), w, "INTERNAL_ERROR", "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if results == nil {
		results = []search.ScoredResult{}
	}

	w.Header().Set("Content-Type", "application/json")
	resp := map[string]interface{}{
		"data": map[string]interface{}{
			"results": results,
			"count":   len(results),
		},
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.ErrorContext(r.Context(), "failed to encode response", "error", err)
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
