package embedding

import "time"

// Record is one indexed content unit. Title and content are denormalized
// copies captured at index time, not live references into the CMS tables.
// The vector is opaque: nothing outside similarity scoring interprets it.
type Record struct {
	ID          string                 `json:"id"`
	ContentType string                 `json:"content_type"`
	ContentID   string                 `json:"content_id"`
	Title       string                 `json:"title"`
	Content     string                 `json:"content"`
	Embedding   []float32              `json:"embedding"`
	Model       string                 `json:"model"`
	Metadata    map[string]interface{} `json:"metadata"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}
