package domain

import (
	"context"
	"time"
)

// IndexHit is a single ranked hit from the index backend. Score is the
// raw backend score (cosine similarity for ANN, a fused value for
// hybrid queries), normalized into [0,1].
type IndexHit struct {
	Chunk DocumentChunk
	Score float64
}

// IndexClient defines the contract with the hybrid search backend.
// Implementations must not partially succeed silently: IndexChunks
// reports per-chunk success/failure counts.
type IndexClient interface {
	// Initialize ensures the index exists with the expected schema.
	// An existing index missing a per-document metadata field is
	// upgraded in place without data loss.
	Initialize(ctx context.Context) error

	// IndexChunks uploads or replaces chunks by id.
	IndexChunks(ctx context.Context, chunks []DocumentChunk) (succeeded, failed int, err error)

	// KeywordSearch runs a lexical query over chunk content.
	KeywordSearch(ctx context.Context, query string, top int) ([]IndexHit, error)

	// VectorSearch runs an ANN query over the embedding field.
	VectorSearch(ctx context.Context, vector []float32, top int) ([]IndexHit, error)

	// HybridSearch fuses lexical and ANN retrieval in the backend. The
	// backend may return up to min(top*3, 100) hits to allow
	// client-side reranking. filterDocumentID restricts hits to one
	// document when non-empty.
	HybridSearch(ctx context.Context, query string, vector []float32, top int, filterDocumentID string) ([]IndexHit, error)

	// GetChunk0s fetches chunk 0 of each present document in one call,
	// keyed by documentId. Absent documents are simply missing from
	// the map.
	GetChunk0s(ctx context.Context, documentIDs []string) (map[string]DocumentChunk, error)

	// DocumentExists is a single-row existence probe.
	DocumentExists(ctx context.Context, documentID string) (bool, error)

	// DeleteDocument removes all chunks of a document. Deleting an
	// absent document is a no-op. Returns true iff all deletes
	// succeeded.
	DeleteDocument(ctx context.Context, documentID string) (bool, error)

	// Minimal-field reads for overviews and context expansion.
	GetChunkCount(ctx context.Context, documentID string) (int, error)
	GetLastUpdated(ctx context.Context, documentID string) (time.Time, error)
	GetTopChunks(ctx context.Context, documentID string, n int) ([]DocumentChunk, error)
	GetAdjacentChunks(ctx context.Context, documentID string, chunkIndex, k int) ([]DocumentChunk, error)

	// FindDocumentsByFileName resolves a referenced file name to the
	// ids of documents whose chunk-0 original_file_name matches it
	// (case-insensitive substring).
	FindDocumentsByFileName(ctx context.Context, fileName string) ([]string, error)

	// ListDocumentIDs pages over documents, newest first.
	ListDocumentIDs(ctx context.Context, maxResults, skip int) ([]string, error)
}
