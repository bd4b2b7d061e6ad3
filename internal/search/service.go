package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"lusso/backend/features/embedding"
)

var (
	// ErrIndexing wraps any failure during Index; the store is left untouched.
	ErrIndexing = errors.New("indexing failed")

	// ErrSearch wraps a failure to embed the query; no degraded result set is
	// ever returned in its place.
	ErrSearch = errors.New("search failed")

	// ErrDimensionMismatch means two vectors of different length were scored
	// against each other, which would make cosine similarity meaningless.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrDegenerateVector means a zero-norm vector reached the scorer.
	ErrDegenerateVector = errors.New("degenerate zero-norm embedding")
)

// previewRunes is how much of the stored content a search result carries.
// Presentational only; the stored content is never mutated.
const previewRunes = 200

type ScoredResult struct {
	ID          string                 `json:"id"`
	ContentType string                 `json:"contentType"`
	ContentID   string                 `json:"contentId"`
	Title       string                 `json:"title"`
	Content     string                 `json:"content"`
	Metadata    map[string]interface{} `json:"metadata"`
	Similarity  float64                `json:"similarity"`
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type Repository interface {
	Upsert(ctx context.Context, rec *embedding.Record) error
	List(ctx context.Context, model string) ([]embedding.Record, error)
	ListByType(ctx context.Context, model, contentType string) ([]embedding.Record, error)
	DeleteByContentKey(ctx context.Context, contentType, contentID string) error
	DeleteStale(ctx context.Context, contentType, model string, liveIDs []string) (int64, error)
}

type Options struct {
	// Model names the embedding model; it is stored on every record and only
	// same-model records are ever compared.
	Model         string
	MinSimilarity float64
	DefaultLimit  int
	MaxLimit      int
}

type Service struct {
	embedder Embedder
	repo     Repository
	opts     Options
	logger   *QueryLogger
}

func NewService(e Embedder, r Repository, opts Options, l *QueryLogger) *Service {
	return &Service{embedder: e, repo: r, opts: opts, logger: l}
}

// Index embeds the entity and upserts its record. Titles participate in the
// embedded text, which affects recall. On embedding failure nothing is
// written.
func (s *Service) Index(ctx context.Context, contentType, contentID, title, content string, metadata map[string]interface{}) error {
	vec, err := s.embedder.Embed(ctx, title+" "+content)
	if err != nil {
		return fmt.Errorf("%w: embed %s/%s: %v", ErrIndexing, contentType, contentID, err)
	}

	rec := &embedding.Record{
		ContentType: contentType,
		ContentID:   contentID,
		Title:       title,
		Content:     content,
		Embedding:   vec,
		Model:       s.opts.Model,
		Metadata:    metadata,
	}
	if err := s.repo.Upsert(ctx, rec); err != nil {
		return fmt.Errorf("%w: store %s/%s: %v", ErrIndexing, contentType, contentID, err)
	}

	slog.InfoContext(ctx, "content indexed", "content_type", contentType, "content_id", contentID, "dimensions", len(vec))
	return nil
}

// Search embeds the query and ranks stored records by cosine similarity.
// contentType narrows the candidate set when non-empty; limit <= 0 falls back
// to the configured default. The scan is brute force over the candidate set.
func (s *Service) Search(ctx context.Context, query, contentType string, limit int) ([]ScoredResult, error) {
	start := time.Now()

	if limit <= 0 {
		limit = s.opts.DefaultLimit
	}
	if limit > s.opts.MaxLimit {
		limit = s.opts.MaxLimit
	}

	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %v", ErrSearch, err)
	}

	var candidates []embedding.Record
	if contentType != "" {
		candidates, err = s.repo.ListByType(ctx, s.opts.Model, contentType)
	} else {
		candidates, err = s.repo.List(ctx, s.opts.Model)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load candidates: %v", ErrSearch, err)
	}

	results := make([]ScoredResult, 0, len(candidates))
	for _, rec := range candidates {
		sim, err := CosineSimilarity(queryVec, rec.Embedding)
		if err != nil {
			return nil, fmt.Errorf("score %s/%s: %w", rec.ContentType, rec.ContentID, err)
		}
		if sim < s.opts.MinSimilarity {
			continue
		}
		results = append(results, ScoredResult{
			ID:          rec.ID,
			ContentType: rec.ContentType,
			ContentID:   rec.ContentID,
			Title:       rec.Title,
			Content:     truncate(rec.Content, previewRunes),
			Metadata:    rec.Metadata,
			Similarity:  sim,
		})
	}

	// Similarity descending; contentID ascending keeps ties deterministic.
	sort.Slice(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].ContentID < results[j].ContentID
	})

	if len(results) > limit {
		results = results[:limit]
	}

	if s.logger != nil {
		s.logger.Log(ctx, QueryLogEntry{
			Query:       query,
			ContentType: contentType,
			NumResults:  len(results),
			Duration:    time.Since(start),
		})
	}

	return results, nil
}

// Remove deletes the embedding record for a content entity. Called when the
// source entity is deleted or unpublished.
func (s *Service) Remove(ctx context.Context, contentType, contentID string) error {
	return s.repo.DeleteByContentKey(ctx, contentType, contentID)
}

// Prune drops records of the given type whose source entity is not in the
// live set, plus records produced by a previously configured model.
func (s *Service) Prune(ctx context.Context, contentType string, liveIDs []string) (int64, error) {
	return s.repo.DeleteStale(ctx, contentType, s.opts.Model, liveIDs)
}

// CosineSimilarity returns the cosine of the angle between two vectors: dot
// product over the product of their Euclidean norms, in [-1, 1]. Mismatched
// lengths and zero-norm vectors are precondition violations and fail loudly
// rather than produce NaN or a silent zero.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0, ErrDegenerateVector
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
