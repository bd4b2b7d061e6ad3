package embedding_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lusso/backend/features/embedding"
	"lusso/backend/internal/testutils"
)

func TestPostgresRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	suite := testutils.NewIntegrationSuite(t)
	suite.Setup()
	defer suite.Teardown()

	ctx := context.Background()
	repo := embedding.NewPostgresRepo(suite.DB)

	rec := &embedding.Record{
		ContentType: "project",
		ContentID:   "p1",
		Title:       "Marina Penthouse Kitchen",
		Content:     "Modern aluminum kitchen with quartz countertop",
		Embedding:   []float32{0.1, 0.2, 0.3},
		Model:       "nomic-embed-text",
		Metadata:    map[string]interface{}{"slug": "marina-penthouse", "location": "Dubai"},
	}

	// Insert
	require.NoError(t, repo.Upsert(ctx, rec))
	assert.NotEmpty(t, rec.ID)
	firstID := rec.ID

	// Upsert for the same content key updates in place, no duplicate row.
	rec.Title = "Marina Penthouse Kitchen (Renovated)"
	rec.Embedding = []float32{0.4, 0.5, 0.6}
	require.NoError(t, repo.Upsert(ctx, rec))
	assert.Equal(t, firstID, rec.ID)

	records, err := repo.List(ctx, "nomic-embed-text")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Marina Penthouse Kitchen (Renovated)", records[0].Title)
	assert.Equal(t, []float32{0.4, 0.5, 0.6}, records[0].Embedding)
	assert.Equal(t, "Dubai", records[0].Metadata["location"])

	// Records from other models are invisible to List.
	other := &embedding.Record{
		ContentType: "project", ContentID: "p2", Title: "Old", Content: "old",
		Embedding: []float32{1, 0, 0}, Model: "legacy-model",
	}
	require.NoError(t, repo.Upsert(ctx, other))

	records, err = repo.List(ctx, "nomic-embed-text")
	require.NoError(t, err)
	assert.Len(t, records, 1)

	// ListByType filters within the model.
	svc := &embedding.Record{
		ContentType: "service", ContentID: "s1", Title: "Cabinetry", Content: "walnut",
		Embedding: []float32{0, 1, 0}, Model: "nomic-embed-text",
	}
	require.NoError(t, repo.Upsert(ctx, svc))

	records, err = repo.ListByType(ctx, "nomic-embed-text", "project")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "p1", records[0].ContentID)

	counts, err := repo.CountByType(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, counts["project"])
	assert.Equal(t, 1, counts["service"])

	// DeleteStale drops the legacy-model row and anything not in the live set.
	pruned, err := repo.DeleteStale(ctx, "project", "nomic-embed-text", []string{"p1"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), pruned)

	// Delete by content key.
	require.NoError(t, repo.DeleteByContentKey(ctx, "project", "p1"))
	records, err = repo.List(ctx, "nomic-embed-text")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "service", records[0].ContentType)
}
