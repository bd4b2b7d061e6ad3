package worker

import "context"

// ContentEvent is the payload the CMS publishes when a piece of content is
// saved, published, unpublished or deleted.
type ContentEvent struct {
	ContentType   string `json:"content_type"`
	ContentID     string `json:"content_id"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// ContentIndexer is implemented by the indexer service.
type ContentIndexer interface {
	IndexOne(ctx context.Context, contentType, contentID string) error
	Remove(ctx context.Context, contentType, contentID string) error
}
