package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"lusso/backend/internal/adapter/ollama"
	"lusso/backend/internal/middleware"
)

type Gateway interface {
	Chat(ctx context.Context, messages []ollama.Message) (string, error)
	Generate(ctx context.Context, prompt string) (string, error)
}

// Handler exposes the content-drafting assistant used by the admin UI. It is
// a thin pass-through over the inference gateway; prompt construction lives
// in the UI, not here.
type Handler struct {
	gateway Gateway
}

func NewHandler(gateway Gateway) *Handler {
	return &Handler{gateway: gateway}
}

func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Messages []ollama.Message `json:"messages"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		return
	}

	if len(req.Messages) == 0 {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "messages is required", http.StatusBadRequest)
		return
	}

	reply, err := h.gateway.Chat(r.Context(), req.Messages)
	if err != nil {
		h.writeGatewayError(r.Context(), w, "chat failed", err)
		return
	}

	h.writeData(r.Context(), w, map[string]string{"reply": reply})
}

func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		return
	}

	if req.Prompt == "" {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "prompt is required", http.StatusBadRequest)
		return
	}

	response, err := h.gateway.Generate(r.Context(), req.Prompt)
	if err != nil {
		h.writeGatewayError(r.Context(), w, "generate failed", err)
		return
	}

	h.writeData(r.Context(), w, map[string]string{"response": response})
}

func (h *Handler) writeGatewayError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	slog.ErrorContext(ctx, msg, "error", err)
	if errors.Is(err, ollama.ErrUnreachable) || errors.Is(err, ollama.ErrMalformedResponse) {
		h.writeError(ctx, w, "UPSTREAM_ERROR", "inference service unavailable", http.StatusBadGateway)
		return
	}
	h.writeError(ctx, w, "INTERNAL_ERROR", "Internal Server Error", http.StatusInternalServerError)
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
