package domain

import (
	"fmt"
	"time"
)

// DocumentChunk is the unit of embedding and retrieval. Chunks of a
// document carry dense 0-based indexes; chunk 0 is the sole carrier of
// per-document metadata (file name, content type, blob paths).
type DocumentChunk struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"documentId"`
	ChunkIndex int       `json:"chunkIndex"`
	Content    string    `json:"content"`
	Embedding  []float32 `json:"embedding,omitempty"`
	Metadata   string    `json:"metadata,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`

	// Per-document metadata, set only on chunk 0.
	OriginalFileName    string `json:"originalFileName,omitempty"`
	ContentType         string `json:"contentType,omitempty"`
	FileSizeBytes       int64  `json:"fileSizeBytes,omitempty"`
	BlobPath            string `json:"blobPath,omitempty"`
	BlobContainer       string `json:"blobContainer,omitempty"`
	TextContentBlobPath string `json:"textContentBlobPath,omitempty"`
}

// ChunkID builds the stable chunk identifier `<documentId>_<chunkIndex>`.
func ChunkID(documentID string, chunkIndex int) string {
	return fmt.Sprintf("%s_%d", documentID, chunkIndex)
}

// SearchResult is the transient projection returned from a search. It
// carries the chunk plus the combined score and the raw backend score,
// with chunk-0 metadata hydrated by bulk lookup.
type SearchResult struct {
	DocumentChunk
	Score       float64 `json:"score"`
	VectorScore float64 `json:"vectorScore"`
}

// ChatHistoryEntry is a single prior conversation turn, oldest first.
type ChatHistoryEntry struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// SearchRequest is the input to the search orchestrator.
type SearchRequest struct {
	Query                string             `json:"query"`
	MaxResults           int                `json:"maxResults"`
	UseSemanticSearch    bool               `json:"useSemanticSearch"`
	DocumentID           string             `json:"documentId,omitempty"`
	EnableQueryExpansion bool               `json:"enableQueryExpansion"`
	IncludeAnswer        bool               `json:"includeAnswer"`
	ChatHistory          []ChatHistoryEntry `json:"chatHistory,omitempty"`
}

// SearchResponse is the output of the search orchestrator. Failures are
// reported via Success=false and a short Message; partial results are
// never exposed.
type SearchResponse struct {
	Query           string         `json:"query"`
	ExpandedQuery   string         `json:"expandedQuery,omitempty"`
	Results         []SearchResult `json:"results"`
	GeneratedAnswer string         `json:"generatedAnswer,omitempty"`
	TotalResults    int            `json:"totalResults"`
	Success         bool           `json:"success"`
	Message         string         `json:"message,omitempty"`
}

// UploadResponse is the outcome of a document ingest.
type UploadResponse struct {
	DocumentID    string `json:"documentId"`
	ChunksCreated int    `json:"chunksCreated"`
	Success       bool   `json:"success"`
	Message       string `json:"message,omitempty"`
}

// DocumentSummary is the per-document overview returned by the
// documents listing endpoint.
type DocumentSummary struct {
	DocumentID       string    `json:"documentId"`
	OriginalFileName string    `json:"originalFileName,omitempty"`
	ContentType      string    `json:"contentType,omitempty"`
	FileSizeBytes    int64     `json:"fileSizeBytes,omitempty"`
	ChunkCount       int       `json:"chunkCount"`
	LastUpdated      time.Time `json:"lastUpdated"`
	SampleChunks     []string  `json:"sampleChunks,omitempty"`
}
