package indexer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"lusso/backend/internal/config"
	"lusso/backend/internal/middleware"
)

var ErrUnknownContentType = errors.New("unknown content type")

// Indexer is the slice of the search service the jobs need.
type Indexer interface {
	Index(ctx context.Context, contentType, contentID, title, content string, metadata map[string]interface{}) error
	Remove(ctx context.Context, contentType, contentID string) error
	Prune(ctx context.Context, contentType string, liveIDs []string) (int64, error)
}

type EventPublisher interface {
	Publish(topic string, body []byte) error
}

// EntityError is one failed entity within a bulk run.
type EntityError struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// Report summarizes one per-type bulk run. A failed entity does not abort the
// batch; it lands in Failed and the loop moves on.
type Report struct {
	ContentType string        `json:"content_type"`
	Processed   int           `json:"processed"`
	Failed      []EntityError `json:"failed,omitempty"`
	Pruned      int64         `json:"pruned"`
}

type Service struct {
	indexer Indexer
	sources []ContentSource
	byType  map[string]ContentSource
	pub     EventPublisher
}

func NewService(indexer Indexer, sources []ContentSource, pub EventPublisher) *Service {
	byType := make(map[string]ContentSource, len(sources))
	for _, src := range sources {
		byType[src.Type()] = src
	}
	return &Service{indexer: indexer, sources: sources, byType: byType, pub: pub}
}

// IndexOne re-indexes a single entity, the incremental path behind CMS save
// actions. An entity that is gone or unpublished has its embedding removed
// instead, so unpublishing doesn't leave stale search results.
func (s *Service) IndexOne(ctx context.Context, contentType, id string) error {
	src, ok := s.byType[contentType]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownContentType, contentType)
	}

	item, err := src.GetPublished(ctx, id)
	if err != nil {
		return fmt.Errorf("load %s/%s: %w", contentType, id, err)
	}
	if item == nil {
		slog.InfoContext(ctx, "entity not published, removing embedding", "content_type", contentType, "content_id", id)
		return s.indexer.Remove(ctx, contentType, id)
	}

	return s.indexer.Index(ctx, contentType, item.ID, item.Title, item.Text, item.Metadata)
}

// Remove drops the embedding for a deleted entity. Safe to call for entities
// that were never indexed.
func (s *Service) Remove(ctx context.Context, contentType, id string) error {
	if _, ok := s.byType[contentType]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownContentType, contentType)
	}
	return s.indexer.Remove(ctx, contentType, id)
}

// Run bulk-indexes every published entity of one content type, then prunes
// embedding records whose source row is no longer published.
func (s *Service) Run(ctx context.Context, contentType string) (*Report, error) {
	src, ok := s.byType[contentType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownContentType, contentType)
	}

	items, err := src.ListPublished(ctx)
	if err != nil {
		return nil, fmt.Errorf("list published %s: %w", contentType, err)
	}

	report := &Report{ContentType: contentType}
	liveIDs := make([]string, 0, len(items))
	for _, item := range items {
		liveIDs = append(liveIDs, item.ID)
		if err := s.indexer.Index(ctx, contentType, item.ID, item.Title, item.Text, item.Metadata); err != nil {
			slog.ErrorContext(ctx, "entity indexing failed", "content_type", contentType, "content_id", item.ID, "error", err)
			report.Failed = append(report.Failed, EntityError{ID: item.ID, Error: err.Error()})
			continue
		}
		report.Processed++
	}

	pruned, err := s.indexer.Prune(ctx, contentType, liveIDs)
	if err != nil {
		slog.WarnContext(ctx, "pruning stale embeddings failed", "content_type", contentType, "error", err)
	} else {
		report.Pruned = pruned
	}

	slog.InfoContext(ctx, "bulk reindex finished", "content_type", contentType,
		"processed", report.Processed, "failed", len(report.Failed), "pruned", report.Pruned)
	return report, nil
}

// ReindexAll runs the project, service and gallery jobs sequentially and
// reports aggregate counts. It is not transactional across types: a type
// that fails to even list its rows is reported and the rest still run.
func (s *Service) ReindexAll(ctx context.Context) ([]Report, error) {
	var reports []Report
	var firstErr error

	for _, contentType := range []string{"project", "service", "gallery"} {
		report, err := s.Run(ctx, contentType)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			reports = append(reports, Report{ContentType: contentType, Failed: []EntityError{{Error: err.Error()}}})
			continue
		}
		reports = append(reports, *report)
	}

	s.publishDone(ctx, reports)
	return reports, firstErr
}

func (s *Service) publishDone(ctx context.Context, reports []Report) {
	if s.pub == nil {
		return
	}

	payload, _ := json.Marshal(map[string]interface{}{
		"reports":        reports,
		"correlation_id": middleware.GetCorrelationID(ctx),
	})
	if err := s.pub.Publish(config.TopicReindexDone, payload); err != nil {
		slog.ErrorContext(ctx, "failed to publish reindex completion event", "error", err)
	} else {
		slog.InfoContext(ctx, "published reindex completion event", "types", len(reports))
	}
}

// ContentTypes lists the registered source types, in registration order.
func (s *Service) ContentTypes() []string {
	types := make([]string, 0, len(s.sources))
	for _, src := range s.sources {
		types = append(types, src.Type())
	}
	return types
}
