package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"docqa/internal/domain"
)

const sampleChunkCount = 3

// DocumentsUsecase lists per-document overviews and deletes documents
// with their blobs.
type DocumentsUsecase interface {
	List(ctx context.Context, maxResults, skip int, documentID string) ([]domain.DocumentSummary, error)
	Delete(ctx context.Context, documentID string) error
}

type documentsUsecase struct {
	index  domain.IndexClient
	blobs  domain.BlobStore
	logger *slog.Logger
}

// NewDocumentsUsecase creates the documents usecase.
func NewDocumentsUsecase(index domain.IndexClient, blobs domain.BlobStore, logger *slog.Logger) DocumentsUsecase {
	return &documentsUsecase{index: index, blobs: blobs, logger: logger}
}

func (u *documentsUsecase) List(ctx context.Context, maxResults, skip int, documentID string) ([]domain.DocumentSummary, error) {
	if maxResults <= 0 {
		maxResults = 20
	}
	if skip < 0 {
		skip = 0
	}

	var documentIDs []string
	if documentID != "" {
		exists, err := u.index.DocumentExists(ctx, documentID)
		if err != nil {
			return nil, fmt.Errorf("failed to check document: %w", err)
		}
		if !exists {
			return nil, fmt.Errorf("%w: document %s", domain.ErrNotFound, documentID)
		}
		documentIDs = []string{documentID}
	} else {
		ids, err := u.index.ListDocumentIDs(ctx, maxResults, skip)
		if err != nil {
			return nil, fmt.Errorf("failed to list documents: %w", err)
		}
		documentIDs = ids
	}

	chunk0s, err := u.index.GetChunk0s(ctx, documentIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load document metadata: %w", err)
	}

	summaries := make([]domain.DocumentSummary, 0, len(documentIDs))
	for _, id := range documentIDs {
		summary := domain.DocumentSummary{DocumentID: id}
		if c0, ok := chunk0s[id]; ok {
			summary.OriginalFileName = c0.OriginalFileName
			summary.ContentType = c0.ContentType
			summary.FileSizeBytes = c0.FileSizeBytes
		}

		count, err := u.index.GetChunkCount(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to count chunks of %s: %w", id, err)
		}
		summary.ChunkCount = count

		lastUpdated, err := u.index.GetLastUpdated(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to read last update of %s: %w", id, err)
		}
		summary.LastUpdated = lastUpdated

		top, err := u.index.GetTopChunks(ctx, id, sampleChunkCount)
		if err != nil {
			return nil, fmt.Errorf("failed to read sample chunks of %s: %w", id, err)
		}
		for _, chunk := range top {
			summary.SampleChunks = append(summary.SampleChunks, chunk.Content)
		}

		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// Delete removes all chunks of a document from the index and cleans up
// its blobs best-effort. A missing document is reported as NotFound.
func (u *documentsUsecase) Delete(ctx context.Context, documentID string) error {
	exists, err := u.index.DocumentExists(ctx, documentID)
	if err != nil {
		return fmt.Errorf("failed to check document: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: document %s", domain.ErrNotFound, documentID)
	}

	// Collect blob paths before the chunks disappear.
	chunk0s, err := u.index.GetChunk0s(ctx, []string{documentID})
	if err != nil {
		return fmt.Errorf("failed to load document metadata: %w", err)
	}

	ok, err := u.index.DeleteDocument(ctx, documentID)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if !ok {
		return fmt.Errorf("failed to delete all chunks of %s", documentID)
	}

	if c0, found := chunk0s[documentID]; found {
		for _, key := range []string{c0.BlobPath, c0.TextContentBlobPath} {
			if key == "" {
				continue
			}
			if derr := u.blobs.Delete(ctx, key); derr != nil {
				u.logger.Warn("document_blob_cleanup_failed",
					slog.String("document_id", documentID),
					slog.String("blob_path", key),
					slog.String("error", derr.Error()))
			}
		}
	}

	u.logger.Info("document_deleted", slog.String("document_id", documentID))
	return nil
}
