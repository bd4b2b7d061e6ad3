package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

var (
	// ErrUnreachable covers transport failures and non-2xx responses.
	ErrUnreachable = errors.New("inference service unreachable")

	// ErrMalformedResponse covers 2xx responses missing expected fields.
	ErrMalformedResponse = errors.New("malformed inference service response")
)

// Models is the fixed model table for the inference service. Every call picks
// its model from here; callers never pass model names per request.
type Models struct {
	Chat   string
	Embed  string
	Vision string
	Code   string
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ConnectionStatus struct {
	Connected bool     `json:"connected"`
	Models    []string `json:"models"`
}

// Client is a pass-through gateway to an Ollama-compatible HTTP API. It does
// not retry, cache, batch or rate-limit; resilience beyond a request timeout
// is the caller's concern.
type Client struct {
	baseURL string
	models  Models
	client  *http.Client
}

func NewClient(baseURL string, models Models, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		models:  models,
		client:  &http.Client{Timeout: timeout},
	}
}

// CheckConnection probes the model-listing endpoint. It never returns an
// error: any failure reports as disconnected. Diagnostics only, not part of
// the request-serving path.
func (c *Client) CheckConnection(ctx context.Context) ConnectionStatus {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return ConnectionStatus{}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		slog.DebugContext(ctx, "inference service probe failed", "error", err)
		return ConnectionStatus{}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ConnectionStatus{}
	}

	var body struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return ConnectionStatus{}
	}

	names := make([]string, 0, len(body.Models))
	for _, m := range body.Models {
		names = append(names, m.Name)
	}
	return ConnectionStatus{Connected: true, Models: names}
}

// Embed turns text into a fixed-length vector using the embedding model.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	payload := map[string]interface{}{
		"model":  c.models.Embed,
		"prompt": text,
	}

	var body struct {
		Embedding []float32 `json:"embedding"`
	}
	if err := c.post(ctx, "/api/embeddings", payload, &body); err != nil {
		return nil, err
	}
	if len(body.Embedding) == 0 {
		return nil, fmt.Errorf("%w: embeddings response missing embedding", ErrMalformedResponse)
	}
	return body.Embedding, nil
}

// Chat sends a structured conversation to the chat model in non-streaming
// mode and returns the full reply in one shot.
func (c *Client) Chat(ctx context.Context, messages []Message) (string, error) {
	payload := map[string]interface{}{
		"model":    c.models.Chat,
		"messages": messages,
		"stream":   false,
	}

	var body struct {
		Message *struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	if err := c.post(ctx, "/api/chat", payload, &body); err != nil {
		return "", err
	}
	if body.Message == nil {
		return "", fmt.Errorf("%w: chat response missing message", ErrMalformedResponse)
	}
	return body.Message.Content, nil
}

// Generate is the single-turn variant of Chat.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	payload := map[string]interface{}{
		"model":  c.models.Chat,
		"prompt": prompt,
		"stream": false,
	}

	var body struct {
		Response *string `json:"response"`
	}
	if err := c.post(ctx, "/api/generate", payload, &body); err != nil {
		return "", err
	}
	if body.Response == nil {
		return "", fmt.Errorf("%w: generate response missing response", ErrMalformedResponse)
	}
	return *body.Response, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out interface{}) error {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: encode %s request: %v", ErrMalformedResponse, path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(jsonBody))
	if err != nil {
		return fmt.Errorf("%w: build %s request: %v", ErrUnreachable, path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUnreachable, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s returned %d: %s", ErrUnreachable, path, resp.StatusCode, string(detail))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s response: %v", ErrMalformedResponse, path, err)
	}
	return nil
}
