package embedding

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"
)

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

// Upsert inserts the record or, when one exists for the same
// (content_type, content_id), replaces its title, content, vector, model and
// metadata in place. The unique index on the content key makes this atomic,
// so two concurrent upserts for the same entity cannot produce duplicates.
func (r *PostgresRepo) Upsert(ctx context.Context, rec *Record) error {
	meta, err := json.Marshal(rec.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	if rec.Metadata == nil {
		meta = []byte(`{}`)
	}

	query := `
		INSERT INTO embedding_records (content_type, content_id, title, content, embedding, model, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (content_type, content_id) DO UPDATE SET
			title = EXCLUDED.title,
			content = EXCLUDED.content,
			embedding = EXCLUDED.embedding,
			model = EXCLUDED.model,
			metadata = EXCLUDED.metadata,
			updated_at = NOW()
		RETURNING id, created_at, updated_at`
	return r.db.QueryRowContext(ctx, query,
		rec.ContentType, rec.ContentID, rec.Title, rec.Content,
		pq.Array(rec.Embedding), rec.Model, meta,
	).Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
}

// List returns every record produced by the given embedding model. Records
// embedded under a different model are never candidates for scoring.
func (r *PostgresRepo) List(ctx context.Context, model string) ([]Record, error) {
	query := `
		SELECT id, content_type, content_id, title, content, embedding, model, metadata, created_at, updated_at
		FROM embedding_records WHERE model = $1
		ORDER BY content_type, content_id`
	rows, err := r.db.QueryContext(ctx, query, model)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRecords(rows)
}

func (r *PostgresRepo) ListByType(ctx context.Context, model, contentType string) ([]Record, error) {
	query := `
		SELECT id, content_type, content_id, title, content, embedding, model, metadata, created_at, updated_at
		FROM embedding_records WHERE model = $1 AND content_type = $2
		ORDER BY content_id`
	rows, err := r.db.QueryContext(ctx, query, model, contentType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRecords(rows)
}

func (r *PostgresRepo) DeleteByContentKey(ctx context.Context, contentType, contentID string) error {
	query := `DELETE FROM embedding_records WHERE content_type = $1 AND content_id = $2`
	_, err := r.db.ExecContext(ctx, query, contentType, contentID)
	return err
}

// DeleteStale removes records of the given type whose source entity is no
// longer in the published set, and records left behind by a previous
// embedding model. Used as the reconciliation pass after a bulk reindex.
func (r *PostgresRepo) DeleteStale(ctx context.Context, contentType, model string, liveIDs []string) (int64, error) {
	query := `
		DELETE FROM embedding_records
		WHERE content_type = $1 AND (model <> $2 OR NOT (content_id = ANY($3)))`
	res, err := r.db.ExecContext(ctx, query, contentType, model, pq.Array(liveIDs))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *PostgresRepo) CountByType(ctx context.Context) (map[string]int, error) {
	query := `SELECT content_type, COUNT(*) FROM embedding_records GROUP BY content_type`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var contentType string
		var count int
		if err := rows.Scan(&contentType, &count); err != nil {
			return nil, err
		}
		counts[contentType] = count
	}
	return counts, rows.Err()
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	var records []Record
	for rows.Next() {
		var rec Record
		var vec pq.Float32Array
		var meta []byte
		if err := rows.Scan(&rec.ID, &rec.ContentType, &rec.ContentID, &rec.Title, &rec.Content,
			&vec, &rec.Model, &meta, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		rec.Embedding = []float32(vec)
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &rec.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal metadata for %s/%s: %w", rec.ContentType, rec.ContentID, err)
			}
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
