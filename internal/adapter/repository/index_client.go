package repository

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"docqa/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// Fused hybrid score: vector similarity dominates, the lexical rank
// (capped at 1) nudges exact keyword hits upward.
const (
	hybridVectorWeight  = 0.8
	hybridKeywordWeight = 0.2
)

type indexClient struct {
	pool   *pgxpool.Pool
	schema domain.IndexSchema
	logger *slog.Logger
}

// NewIndexClient creates the PostgreSQL-backed chunk index. The schema
// drives table creation and in-place upgrades; queries assume pgvector
// types are registered on the pool.
func NewIndexClient(pool *pgxpool.Pool, schema domain.IndexSchema, logger *slog.Logger) domain.IndexClient {
	return &indexClient{pool: pool, schema: schema, logger: logger}
}

func (c *indexClient) table() string {
	return c.schema.Name
}

func columnType(f domain.FieldSpec) string {
	switch f.Kind {
	case domain.FieldInt:
		return "INTEGER"
	case domain.FieldInt64:
		return "BIGINT"
	case domain.FieldTimestamp:
		return "TIMESTAMPTZ"
	case domain.FieldVector:
		return fmt.Sprintf("vector(%d)", f.Vector.Dim)
	default:
		return "TEXT"
	}
}

func (c *indexClient) Initialize(ctx context.Context) error {
	if _, err := c.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("failed to ensure vector extension: %w", err)
	}

	columns := make([]string, 0, len(c.schema.Fields))
	for _, f := range c.schema.Fields {
		col := fmt.Sprintf("%s %s", f.Name, columnType(f))
		if f.Key {
			col += " PRIMARY KEY"
		}
		columns = append(columns, col)
	}
	createTable := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", c.table(), strings.Join(columns, ",\n\t"))
	if _, err := c.pool.Exec(ctx, createTable); err != nil {
		return fmt.Errorf("failed to create index table: %w", err)
	}

	// Upgrade an existing table in place: fields added to the schema
	// after the table was created become nullable columns.
	for _, f := range c.schema.Fields {
		if f.Key {
			continue
		}
		alter := fmt.Sprintf("ALTER TABLE %s ADD COLUMN IF NOT EXISTS %s %s", c.table(), f.Name, columnType(f))
		if _, err := c.pool.Exec(ctx, alter); err != nil {
			return fmt.Errorf("failed to upgrade index schema (%s): %w", f.Name, err)
		}
	}

	indexes := []string{
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s_document_id_idx ON %s (document_id)", c.table(), c.table()),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s_content_fts_idx ON %s USING GIN (to_tsvector('simple', content))", c.table(), c.table()),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s_embedding_hnsw_idx ON %s USING hnsw (embedding vector_cosine_ops) WITH (m = %d, ef_construction = %d)",
			c.table(), c.table(), c.schema.HNSW.M, c.schema.HNSW.EfConstruction),
	}
	for _, stmt := range indexes {
		if _, err := c.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	c.logger.Info("index_initialized", slog.String("table", c.table()))
	return nil
}

func (c *indexClient) IndexChunks(ctx context.Context, chunks []domain.DocumentChunk) (int, int, error) {
	if len(chunks) == 0 {
		return 0, 0, nil
	}

	upsert := fmt.Sprintf(`
		INSERT INTO %s (
			id, document_id, chunk_index, content, embedding, metadata, created_at,
			original_file_name, content_type, file_size_bytes, blob_path, blob_container, text_content_blob_path
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			document_id = EXCLUDED.document_id,
			chunk_index = EXCLUDED.chunk_index,
			content = EXCLUDED.content,
			embedding = EXCLUDED.embedding,
			metadata = EXCLUDED.metadata,
			created_at = EXCLUDED.created_at,
			original_file_name = EXCLUDED.original_file_name,
			content_type = EXCLUDED.content_type,
			file_size_bytes = EXCLUDED.file_size_bytes,
			blob_path = EXCLUDED.blob_path,
			blob_container = EXCLUDED.blob_container,
			text_content_blob_path = EXCLUDED.text_content_blob_path
	`, c.table())

	batch := &pgx.Batch{}
	for _, chunk := range chunks {
		batch.Queue(upsert,
			chunk.ID,
			chunk.DocumentID,
			chunk.ChunkIndex,
			chunk.Content,
			pgvector.NewVector(chunk.Embedding),
			chunk.Metadata,
			chunk.CreatedAt,
			chunk.OriginalFileName,
			chunk.ContentType,
			chunk.FileSizeBytes,
			chunk.BlobPath,
			chunk.BlobContainer,
			chunk.TextContentBlobPath,
		)
	}

	results := c.pool.SendBatch(ctx, batch)
	defer results.Close()

	succeeded, failed := 0, 0
	for _, chunk := range chunks {
		if _, err := results.Exec(); err != nil {
			failed++
			c.logger.Error("index_chunk_upsert_failed",
				slog.String("chunk_id", chunk.ID),
				slog.String("error", err.Error()))
			continue
		}
		succeeded++
	}
	return succeeded, failed, nil
}

const hitColumns = "id, document_id, chunk_index, content, COALESCE(metadata, ''), created_at"

func (c *indexClient) KeywordSearch(ctx context.Context, query string, top int) ([]domain.IndexHit, error) {
	sql := fmt.Sprintf(`
		SELECT %s, LEAST(ts_rank_cd(to_tsvector('simple', content), q), 1.0) AS score
		FROM %s, websearch_to_tsquery('simple', $1) q
		WHERE to_tsvector('simple', content) @@ q
		ORDER BY score DESC
		LIMIT $2
	`, hitColumns, c.table())

	rows, err := c.pool.Query(ctx, sql, query, top)
	if err != nil {
		return nil, fmt.Errorf("keyword search failed: %w", err)
	}
	defer rows.Close()
	return scanHits(rows)
}

func (c *indexClient) VectorSearch(ctx context.Context, vector []float32, top int) ([]domain.IndexHit, error) {
	sql := fmt.Sprintf(`
		SELECT %s, GREATEST(1 - (embedding <=> $1), 0) AS score
		FROM %s
		WHERE embedding IS NOT NULL
		ORDER BY embedding <=> $1
		LIMIT $2
	`, hitColumns, c.table())

	var hits []domain.IndexHit
	err := c.withSearchTx(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, sql, pgvector.NewVector(vector), top)
		if err != nil {
			return err
		}
		defer rows.Close()
		hits, err = scanHits(rows)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	return hits, nil
}

func (c *indexClient) HybridSearch(ctx context.Context, query string, vector []float32, top int, filterDocumentID string) ([]domain.IndexHit, error) {
	fetch := top * 3
	if fetch > 100 {
		fetch = 100
	}
	if fetch < top {
		fetch = top
	}

	filter := ""
	args := []interface{}{pgvector.NewVector(vector), query, fetch}
	if filterDocumentID != "" {
		args = append(args, filterDocumentID)
		filter = "AND document_id = $4"
	}

	sql := fmt.Sprintf(`
		WITH ann AS (
			SELECT id, GREATEST(1 - (embedding <=> $1), 0) AS vscore
			FROM %[1]s
			WHERE embedding IS NOT NULL %[2]s
			ORDER BY embedding <=> $1
			LIMIT $3
		),
		lex AS (
			SELECT id, LEAST(ts_rank_cd(to_tsvector('simple', content), websearch_to_tsquery('simple', $2)), 1.0) AS tscore
			FROM %[1]s
			WHERE to_tsvector('simple', content) @@ websearch_to_tsquery('simple', $2) %[2]s
			ORDER BY tscore DESC
			LIMIT $3
		),
		fused AS (
			SELECT COALESCE(ann.id, lex.id) AS id,
			       %[3]f * COALESCE(ann.vscore, 0) + %[4]f * COALESCE(lex.tscore, 0) AS score
			FROM ann FULL OUTER JOIN lex ON ann.id = lex.id
		)
		SELECT c.id, c.document_id, c.chunk_index, c.content, COALESCE(c.metadata, ''), c.created_at, fused.score
		FROM fused
		JOIN %[1]s c ON c.id = fused.id
		ORDER BY fused.score DESC
		LIMIT $3
	`, c.table(), filter, hybridVectorWeight, hybridKeywordWeight)

	var hits []domain.IndexHit
	err := c.withSearchTx(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, sql, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		hits, err = scanHits(rows)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("hybrid search failed: %w", err)
	}
	return hits, nil
}

// withSearchTx wraps an ANN query in a transaction so ef_search applies
// only to that query.
func (c *indexClient) withSearchTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if c.schema.HNSW.EfSearch > 0 {
		if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL hnsw.ef_search = %d", c.schema.HNSW.EfSearch)); err != nil {
			return fmt.Errorf("failed to set ef_search: %w", err)
		}
	}
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func scanHits(rows pgx.Rows) ([]domain.IndexHit, error) {
	var hits []domain.IndexHit
	for rows.Next() {
		var h domain.IndexHit
		if err := rows.Scan(
			&h.Chunk.ID,
			&h.Chunk.DocumentID,
			&h.Chunk.ChunkIndex,
			&h.Chunk.Content,
			&h.Chunk.Metadata,
			&h.Chunk.CreatedAt,
			&h.Score,
		); err != nil {
			return nil, fmt.Errorf("failed to scan hit: %w", err)
		}
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return hits, nil
}

func (c *indexClient) GetChunk0s(ctx context.Context, documentIDs []string) (map[string]domain.DocumentChunk, error) {
	if len(documentIDs) == 0 {
		return map[string]domain.DocumentChunk{}, nil
	}

	sql := fmt.Sprintf(`
		SELECT id, document_id, chunk_index, content, COALESCE(metadata, ''), created_at,
		       COALESCE(original_file_name, ''), COALESCE(content_type, ''), COALESCE(file_size_bytes, 0),
		       COALESCE(blob_path, ''), COALESCE(blob_container, ''), COALESCE(text_content_blob_path, '')
		FROM %s
		WHERE document_id = ANY($1) AND chunk_index = 0
	`, c.table())

	rows, err := c.pool.Query(ctx, sql, documentIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunk 0s: %w", err)
	}
	defer rows.Close()

	chunk0s := make(map[string]domain.DocumentChunk, len(documentIDs))
	for rows.Next() {
		var chunk domain.DocumentChunk
		if err := rows.Scan(
			&chunk.ID,
			&chunk.DocumentID,
			&chunk.ChunkIndex,
			&chunk.Content,
			&chunk.Metadata,
			&chunk.CreatedAt,
			&chunk.OriginalFileName,
			&chunk.ContentType,
			&chunk.FileSizeBytes,
			&chunk.BlobPath,
			&chunk.BlobContainer,
			&chunk.TextContentBlobPath,
		); err != nil {
			return nil, fmt.Errorf("failed to scan chunk 0: %w", err)
		}
		chunk0s[chunk.DocumentID] = chunk
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return chunk0s, nil
}

func (c *indexClient) DocumentExists(ctx context.Context, documentID string) (bool, error) {
	sql := fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s WHERE document_id = $1)", c.table())
	var exists bool
	if err := c.pool.QueryRow(ctx, sql, documentID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check document: %w", err)
	}
	return exists, nil
}

func (c *indexClient) DeleteDocument(ctx context.Context, documentID string) (bool, error) {
	sql := fmt.Sprintf("DELETE FROM %s WHERE document_id = $1", c.table())
	tag, err := c.pool.Exec(ctx, sql, documentID)
	if err != nil {
		return false, fmt.Errorf("failed to delete document: %w", err)
	}
	c.logger.Info("document_chunks_deleted",
		slog.String("document_id", documentID),
		slog.Int64("chunk_count", tag.RowsAffected()))
	return true, nil
}

func (c *indexClient) GetChunkCount(ctx context.Context, documentID string) (int, error) {
	sql := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE document_id = $1", c.table())
	var count int
	if err := c.pool.QueryRow(ctx, sql, documentID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return count, nil
}

func (c *indexClient) GetLastUpdated(ctx context.Context, documentID string) (time.Time, error) {
	sql := fmt.Sprintf("SELECT MAX(created_at) FROM %s WHERE document_id = $1", c.table())
	var last *time.Time
	if err := c.pool.QueryRow(ctx, sql, documentID).Scan(&last); err != nil {
		return time.Time{}, fmt.Errorf("failed to read last update: %w", err)
	}
	if last == nil {
		return time.Time{}, nil
	}
	return *last, nil
}

func (c *indexClient) GetTopChunks(ctx context.Context, documentID string, n int) ([]domain.DocumentChunk, error) {
	sql := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE document_id = $1
		ORDER BY chunk_index ASC
		LIMIT $2
	`, hitColumns, c.table())
	return c.queryChunks(ctx, sql, documentID, n)
}

func (c *indexClient) GetAdjacentChunks(ctx context.Context, documentID string, chunkIndex, k int) ([]domain.DocumentChunk, error) {
	sql := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE document_id = $1 AND chunk_index BETWEEN $2 AND $3
		ORDER BY chunk_index ASC
	`, hitColumns, c.table())
	return c.queryChunks(ctx, sql, documentID, chunkIndex-k, chunkIndex+k)
}

func (c *indexClient) queryChunks(ctx context.Context, sql string, args ...interface{}) ([]domain.DocumentChunk, error) {
	rows, err := c.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.DocumentChunk
	for rows.Next() {
		var chunk domain.DocumentChunk
		if err := rows.Scan(
			&chunk.ID,
			&chunk.DocumentID,
			&chunk.ChunkIndex,
			&chunk.Content,
			&chunk.Metadata,
			&chunk.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		chunks = append(chunks, chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return chunks, nil
}

func (c *indexClient) FindDocumentsByFileName(ctx context.Context, fileName string) ([]string, error) {
	sql := fmt.Sprintf(`
		SELECT document_id
		FROM %s
		WHERE chunk_index = 0 AND original_file_name ILIKE '%%' || $1 || '%%'
		ORDER BY created_at DESC
	`, c.table())

	rows, err := c.pool.Query(ctx, sql, fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve file name: %w", err)
	}
	defer rows.Close()
	return scanIDs(rows)
}

func (c *indexClient) ListDocumentIDs(ctx context.Context, maxResults, skip int) ([]string, error) {
	sql := fmt.Sprintf(`
		SELECT document_id
		FROM %s
		WHERE chunk_index = 0
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, c.table())

	rows, err := c.pool.Query(ctx, sql, maxResults, skip)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()
	return scanIDs(rows)
}

func scanIDs(rows pgx.Rows) ([]string, error) {
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan document id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return ids, nil
}
