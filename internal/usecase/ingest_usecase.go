package usecase

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"docqa/internal/domain"
)

// UploadConfig bounds what the ingest pipeline accepts.
type UploadConfig struct {
	MaxFileSizeMB     int
	AllowedExtensions []string
	BlobContainer     string
	// ChunkSize and ChunkOverlap are the defaults applied when a
	// request does not set its own.
	ChunkSize    int
	ChunkOverlap int
}

// DefaultUploadConfig returns the documented defaults.
func DefaultUploadConfig() UploadConfig {
	return UploadConfig{
		MaxFileSizeMB:     20,
		AllowedExtensions: []string{".pdf", ".docx", ".doc", ".txt", ".md", ".json", ".xml", ".csv", ".log"},
		BlobContainer:     "documents",
		ChunkSize:         domain.DefaultChunkSize,
		ChunkOverlap:      domain.DefaultChunkOverlap,
	}
}

const (
	idGenerationAttempts = 5
	embedBatchSize       = 10
)

// IngestInput carries one file into the pipeline.
type IngestInput struct {
	FileName     string
	ContentType  string
	Data         []byte
	DocumentID   string // optional; generated when empty
	Metadata  string
	ChunkSize int
	// ChunkOverlap nil means the configured default; an explicit 0
	// disables overlap.
	ChunkOverlap *int
}

// IngestUsecase validates a file, persists the original and extracted
// text, chunks, embeds and indexes it. Any failure after the first
// blob write rolls back everything already persisted.
type IngestUsecase interface {
	Execute(ctx context.Context, input IngestInput) (*domain.UploadResponse, error)
}

type ingestUsecase struct {
	index     domain.IndexClient
	blobs     domain.BlobStore
	encoder   domain.VectorEncoder
	chunker   domain.Chunker
	extractor domain.TextExtractor
	cfg       UploadConfig
	logger    *slog.Logger
}

// NewIngestUsecase creates the ingest pipeline.
func NewIngestUsecase(
	index domain.IndexClient,
	blobs domain.BlobStore,
	encoder domain.VectorEncoder,
	chunker domain.Chunker,
	extractor domain.TextExtractor,
	cfg UploadConfig,
	logger *slog.Logger,
) IngestUsecase {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = domain.DefaultChunkSize
	}
	if cfg.ChunkOverlap < 0 {
		cfg.ChunkOverlap = domain.DefaultChunkOverlap
	}
	return &ingestUsecase{
		index:     index,
		blobs:     blobs,
		encoder:   encoder,
		chunker:   chunker,
		extractor: extractor,
		cfg:       cfg,
		logger:    logger,
	}
}

func (u *ingestUsecase) Execute(ctx context.Context, input IngestInput) (*domain.UploadResponse, error) {
	// (a) Validate type and size.
	if err := u.validate(input); err != nil {
		return nil, err
	}

	documentID, err := u.resolveDocumentID(ctx, input.DocumentID)
	if err != nil {
		return nil, err
	}

	chunkSize := input.ChunkSize
	if chunkSize <= 0 {
		chunkSize = u.cfg.ChunkSize
	}
	chunkOverlap := u.cfg.ChunkOverlap
	if input.ChunkOverlap != nil && *input.ChunkOverlap >= 0 {
		chunkOverlap = *input.ChunkOverlap
	}

	contentType := domain.ContentTypeForFileName(input.FileName, input.ContentType)
	sanitized := domain.SanitizeFileName(input.FileName)
	blobPath := fmt.Sprintf("%s_%s", uuid.NewString(), sanitized)

	// (b) Upload the original.
	metadata := map[string]string{
		"documentId":             documentID,
		"originalFileName":       sanitized,
		"originalFileNameBase64": domain.EncodeFileName(input.FileName),
		"uploadedAt":             time.Now().UTC().Format(time.RFC3339),
		"fileSize":               fmt.Sprintf("%d", len(input.Data)),
	}
	if err := u.blobs.Upload(ctx, blobPath, bytes.NewReader(input.Data), contentType, metadata); err != nil {
		return nil, fmt.Errorf("failed to upload original: %w", err)
	}
	uploadedBlobs := []string{blobPath}

	rollbackBlobs := func() {
		for _, key := range uploadedBlobs {
			if derr := u.blobs.Delete(context.WithoutCancel(ctx), key); derr != nil {
				u.logger.Error("ingest_rollback_blob_delete_failed",
					slog.String("blob_path", key),
					slog.String("error", derr.Error()))
			}
		}
	}

	// (c) Extract text.
	text, nativeText, err := u.extractor.Extract(ctx, input.FileName, contentType, input.Data)
	if err != nil {
		rollbackBlobs()
		return nil, fmt.Errorf("text extraction failed: %w", err)
	}

	// (d) Persist extracted text for non-native-text originals.
	textContentBlobPath := ""
	if !nativeText {
		textContentBlobPath = blobPath + "_content.txt"
		if err := u.blobs.Upload(ctx, textContentBlobPath, strings.NewReader(text), "text/plain", metadata); err != nil {
			rollbackBlobs()
			return nil, fmt.Errorf("failed to upload extracted text: %w", err)
		}
		uploadedBlobs = append(uploadedBlobs, textContentBlobPath)
	}

	// (e) Chunk.
	pieces, err := u.chunker.Chunk(text, chunkSize, chunkOverlap)
	if err != nil {
		rollbackBlobs()
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if len(pieces) == 0 {
		rollbackBlobs()
		return nil, fmt.Errorf("%w: file contains no extractable text", domain.ErrValidation)
	}

	// (f) Embed every chunk in bounded batches.
	embeddings, err := u.embedAll(ctx, pieces)
	if err != nil {
		rollbackBlobs()
		return nil, err
	}

	// (g) Upload the chunk batch to the index.
	now := time.Now().UTC()
	chunks := make([]domain.DocumentChunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = domain.DocumentChunk{
			ID:         domain.ChunkID(documentID, i),
			DocumentID: documentID,
			ChunkIndex: i,
			Content:    piece,
			Embedding:  embeddings[i],
			Metadata:   input.Metadata,
			CreatedAt:  now,
		}
	}
	// Per-document metadata lives on chunk 0 only.
	chunks[0].OriginalFileName = input.FileName
	chunks[0].ContentType = contentType
	chunks[0].FileSizeBytes = int64(len(input.Data))
	chunks[0].BlobPath = blobPath
	chunks[0].BlobContainer = u.cfg.BlobContainer
	chunks[0].TextContentBlobPath = textContentBlobPath

	succeeded, failed, err := u.index.IndexChunks(ctx, chunks)
	if err != nil || failed > 0 {
		rollbackBlobs()
		if _, derr := u.index.DeleteDocument(context.WithoutCancel(ctx), documentID); derr != nil {
			u.logger.Error("ingest_rollback_index_delete_failed",
				slog.String("document_id", documentID),
				slog.String("error", derr.Error()))
		}
		if err != nil {
			return nil, fmt.Errorf("failed to index chunks: %w", err)
		}
		return nil, fmt.Errorf("failed to index chunks: %d of %d failed", failed, len(chunks))
	}

	// (h) Verify the required blobs still exist; otherwise undo the
	// indexing so the index never references missing objects.
	if err := u.verifyBlobs(ctx, uploadedBlobs); err != nil {
		if _, derr := u.index.DeleteDocument(context.WithoutCancel(ctx), documentID); derr != nil {
			u.logger.Error("ingest_rollback_index_delete_failed",
				slog.String("document_id", documentID),
				slog.String("error", derr.Error()))
		}
		return nil, err
	}

	u.logger.Info("ingest_completed",
		slog.String("document_id", documentID),
		slog.String("file_name", input.FileName),
		slog.Int("chunk_count", succeeded))

	return &domain.UploadResponse{
		DocumentID:    documentID,
		ChunksCreated: succeeded,
		Success:       true,
		Message:       fmt.Sprintf("document ingested with %d chunks", succeeded),
	}, nil
}

func (u *ingestUsecase) validate(input IngestInput) error {
	if len(input.Data) == 0 {
		return fmt.Errorf("%w: file is empty", domain.ErrValidation)
	}
	maxBytes := int64(u.cfg.MaxFileSizeMB) * 1024 * 1024
	if int64(len(input.Data)) > maxBytes {
		return fmt.Errorf("%w: file exceeds %d MB", domain.ErrValidation, u.cfg.MaxFileSizeMB)
	}
	ext := strings.ToLower(extOf(input.FileName))
	for _, allowed := range u.cfg.AllowedExtensions {
		if ext == allowed {
			return nil
		}
	}
	return fmt.Errorf("%w: file type %q is not allowed", domain.ErrValidation, ext)
}

func extOf(fileName string) string {
	if idx := strings.LastIndexByte(fileName, '.'); idx >= 0 {
		return fileName[idx:]
	}
	return ""
}

// resolveDocumentID enforces uniqueness: a caller-supplied id must not
// exist yet, a generated one is verified unique with bounded retries.
func (u *ingestUsecase) resolveDocumentID(ctx context.Context, requested string) (string, error) {
	if requested != "" {
		exists, err := u.index.DocumentExists(ctx, requested)
		if err != nil {
			return "", fmt.Errorf("failed to check document id: %w", err)
		}
		if exists {
			return "", fmt.Errorf("%w: %s", domain.ErrConflict, requested)
		}
		return requested, nil
	}

	for attempt := 0; attempt < idGenerationAttempts; attempt++ {
		candidate := uuid.NewString()
		exists, err := u.index.DocumentExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("failed to check document id: %w", err)
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", domain.ErrGenerationFailed
}

// embedAll embeds chunks in batches of embedBatchSize, batches running
// in parallel to bound fan-out.
func (u *ingestUsecase) embedAll(ctx context.Context, pieces []string) ([][]float32, error) {
	embeddings := make([][]float32, len(pieces))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for start := 0; start < len(pieces); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(pieces) {
			end = len(pieces)
		}
		g.Go(func() error {
			batch, err := u.encoder.Encode(gctx, pieces[start:end])
			if err != nil {
				return fmt.Errorf("failed to embed chunks %d..%d: %w", start, end-1, err)
			}
			if len(batch) != end-start {
				return fmt.Errorf("expected %d embeddings, got %d", end-start, len(batch))
			}
			copy(embeddings[start:end], batch)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return embeddings, nil
}

func (u *ingestUsecase) verifyBlobs(ctx context.Context, keys []string) error {
	for _, key := range keys {
		exists, err := u.blobs.Exists(ctx, key)
		if err != nil {
			return fmt.Errorf("failed to verify blob %s: %w", key, err)
		}
		if !exists {
			return fmt.Errorf("blob %s vanished during ingest", key)
		}
	}
	return nil
}
