package stats

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"lusso/backend/internal/adapter/ollama"
	"lusso/backend/internal/middleware"
)

type Counter interface {
	CountByType(ctx context.Context) (map[string]int, error)
}

type ConnectionChecker interface {
	CheckConnection(ctx context.Context) ollama.ConnectionStatus
}

// Handler reports index health for the admin dashboard: how many records are
// indexed per content type and whether the inference service answers.
type Handler struct {
	counter Counter
	checker ConnectionChecker
}

func NewHandler(counter Counter, checker ConnectionChecker) *Handler {
	return &Handler{counter: counter, checker: checker}
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	counts, err := h.counter.CountByType(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to count embeddings", "error", err)
		h.writeError(r.Context(), w, "INTERNAL_ERROR", "Internal Server Error", http.StatusInternalServerError)
		return
	}

	total := 0
	for _, n := range counts {
		total += n
	}

	status := h.checker.CheckConnection(r.Context())

	w.Header().Set("Content-Type", "application/json")
	resp := map[string]interface{}{
		"data": map[string]interface{}{
			"total":            total,
			"byType":           counts,
			"inferenceService": status,
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
