package search

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"lusso/backend/internal/middleware"
)

func TestQueryLogger_Log(t *testing.T) {
	var buf bytes.Buffer
	l := NewQueryLogger(&buf)

	ctx := middleware.WithCorrelationID(context.Background(), "corr-1")
	l.Log(ctx, QueryLogEntry{
		Query:       "marble island",
		ContentType: "project",
		NumResults:  3,
		Duration:    42 * time.Millisecond,
	})

	var entry map[string]interface{}
	assert.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "marble island", entry["query"])
	assert.Equal(t, "project", entry["content_type"])
	assert.Equal(t, float64(3), entry["num_results"])
	assert.Equal(t, float64(42), entry["latency_ms"])
	assert.Equal(t, "corr-1", entry["correlation_id"])
	assert.NotEmpty(t, entry["timestamp"])
}
