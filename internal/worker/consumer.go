package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/nsqio/go-nsq"
	"lusso/backend/features/indexer"
	"lusso/backend/internal/middleware"
)

const handleTimeout = 90 * time.Second

// ChangedConsumer re-indexes an entity whenever the CMS saves it. The indexer
// removes the embedding itself when the saved entity is unpublished, so this
// single handler covers publish, update and unpublish.
type ChangedConsumer struct {
	indexer ContentIndexer
}

func NewChangedConsumer(i ContentIndexer) *ChangedConsumer {
	return &ChangedConsumer{indexer: i}
}

func (h *ChangedConsumer) HandleMessage(m *nsq.Message) error {
	event, ctx, ok := decodeEvent(m)
	if !ok {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, handleTimeout)
	defer cancel()

	if err := h.indexer.IndexOne(ctx, event.ContentType, event.ContentID); err != nil {
		if errors.Is(err, indexer.ErrUnknownContentType) {
			// Poison pill: redelivery can never succeed.
			slog.ErrorContext(ctx, "dropping event for unknown content type", "content_type", event.ContentType)
			return nil
		}
		slog.ErrorContext(ctx, "re-indexing failed", "error", err,
			"content_type", event.ContentType, "content_id", event.ContentID)
		return err // Retry
	}

	slog.InfoContext(ctx, "entity re-indexed", "content_type", event.ContentType, "content_id", event.ContentID)
	return nil
}

// DeletedConsumer drops the embedding for entities the CMS hard-deletes.
type DeletedConsumer struct {
	indexer ContentIndexer
}

func NewDeletedConsumer(i ContentIndexer) *DeletedConsumer {
	return &DeletedConsumer{indexer: i}
}

func (h *DeletedConsumer) HandleMessage(m *nsq.Message) error {
	event, ctx, ok := decodeEvent(m)
	if !ok {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, handleTimeout)
	defer cancel()

	if err := h.indexer.Remove(ctx, event.ContentType, event.ContentID); err != nil {
		if errors.Is(err, indexer.ErrUnknownContentType) {
			slog.ErrorContext(ctx, "dropping delete event for unknown content type", "content_type", event.ContentType)
			return nil
		}
		slog.ErrorContext(ctx, "embedding removal failed", "error", err,
			"content_type", event.ContentType, "content_id", event.ContentID)
		return err // Retry
	}

	slog.InfoContext(ctx, "embedding removed", "content_type", event.ContentType, "content_id", event.ContentID)
	return nil
}

func decodeEvent(m *nsq.Message) (ContentEvent, context.Context, bool) {
	ctx := context.Background()

	if len(m.Body) == 0 {
		return ContentEvent{}, ctx, false
	}

	var event ContentEvent
	if err := json.Unmarshal(m.Body, &event); err != nil {
		// Poison pill: invalid JSON, don't retry
		slog.Error("poison pill: invalid json", "error", err)
		return ContentEvent{}, ctx, false
	}

	if event.ContentType == "" || event.ContentID == "" {
		slog.Error("poison pill: event missing content key", "content_type", event.ContentType, "content_id", event.ContentID)
		return ContentEvent{}, ctx, false
	}

	if event.CorrelationID != "" {
		ctx = middleware.WithCorrelationID(ctx, event.CorrelationID)
	}
	return event, ctx, true
}
