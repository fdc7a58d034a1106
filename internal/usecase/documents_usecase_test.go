package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"docqa/internal/domain"
	"docqa/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestDocumentsList_ReturnsSummaries(t *testing.T) {
	index := new(MockIndexClient)
	blobs := new(MockBlobStore)
	updated := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	index.On("ListDocumentIDs", mock.Anything, 20, 0).Return([]string{"doc-a", "doc-b"}, nil)
	index.On("GetChunk0s", mock.Anything, []string{"doc-a", "doc-b"}).Return(map[string]domain.DocumentChunk{
		"doc-a": {DocumentID: "doc-a", OriginalFileName: "report.pdf", ContentType: "application/pdf", FileSizeBytes: 1024},
	}, nil)
	index.On("GetChunkCount", mock.Anything, "doc-a").Return(4, nil)
	index.On("GetChunkCount", mock.Anything, "doc-b").Return(2, nil)
	index.On("GetLastUpdated", mock.Anything, mock.Anything).Return(updated, nil)
	index.On("GetTopChunks", mock.Anything, "doc-a", 3).Return([]domain.DocumentChunk{
		{Content: "first"}, {Content: "second"},
	}, nil)
	index.On("GetTopChunks", mock.Anything, "doc-b", 3).Return([]domain.DocumentChunk{}, nil)

	summaries, err := usecase.NewDocumentsUsecase(index, blobs, discardLogger()).
		List(context.Background(), 0, -1, "")

	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "doc-a", summaries[0].DocumentID)
	assert.Equal(t, "report.pdf", summaries[0].OriginalFileName)
	assert.Equal(t, int64(1024), summaries[0].FileSizeBytes)
	assert.Equal(t, 4, summaries[0].ChunkCount)
	assert.Equal(t, updated, summaries[0].LastUpdated)
	assert.Equal(t, []string{"first", "second"}, summaries[0].SampleChunks)
	// A document without chunk-0 metadata still lists with bare stats.
	assert.Equal(t, "doc-b", summaries[1].DocumentID)
	assert.Empty(t, summaries[1].OriginalFileName)
	assert.Equal(t, 2, summaries[1].ChunkCount)
}

func TestDocumentsList_SingleUnknownDocument(t *testing.T) {
	index := new(MockIndexClient)
	index.On("DocumentExists", mock.Anything, "ghost").Return(false, nil)

	_, err := usecase.NewDocumentsUsecase(index, new(MockBlobStore), discardLogger()).
		List(context.Background(), 10, 0, "ghost")

	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentsDelete_RemovesChunksAndBlobs(t *testing.T) {
	index := new(MockIndexClient)
	blobs := new(MockBlobStore)

	index.On("DocumentExists", mock.Anything, "doc-a").Return(true, nil)
	index.On("GetChunk0s", mock.Anything, []string{"doc-a"}).Return(map[string]domain.DocumentChunk{
		"doc-a": {DocumentID: "doc-a", BlobPath: "uuid_report.pdf", TextContentBlobPath: "uuid_report.pdf_content.txt"},
	}, nil)
	index.On("DeleteDocument", mock.Anything, "doc-a").Return(true, nil)
	blobs.On("Delete", mock.Anything, "uuid_report.pdf").Return(nil)
	blobs.On("Delete", mock.Anything, "uuid_report.pdf_content.txt").Return(nil)

	err := usecase.NewDocumentsUsecase(index, blobs, discardLogger()).
		Delete(context.Background(), "doc-a")

	require.NoError(t, err)
	blobs.AssertNumberOfCalls(t, "Delete", 2)
}

func TestDocumentsDelete_UnknownDocument(t *testing.T) {
	index := new(MockIndexClient)
	index.On("DocumentExists", mock.Anything, "ghost").Return(false, nil)

	err := usecase.NewDocumentsUsecase(index, new(MockBlobStore), discardLogger()).
		Delete(context.Background(), "ghost")

	require.ErrorIs(t, err, domain.ErrNotFound)
	index.AssertNumberOfCalls(t, "DeleteDocument", 0)
}

func TestDocumentsDelete_BlobCleanupFailureIsNotFatal(t *testing.T) {
	index := new(MockIndexClient)
	blobs := new(MockBlobStore)

	index.On("DocumentExists", mock.Anything, "doc-a").Return(true, nil)
	index.On("GetChunk0s", mock.Anything, mock.Anything).Return(map[string]domain.DocumentChunk{
		"doc-a": {DocumentID: "doc-a", BlobPath: "uuid_report.pdf"},
	}, nil)
	index.On("DeleteDocument", mock.Anything, "doc-a").Return(true, nil)
	blobs.On("Delete", mock.Anything, mock.Anything).Return(errors.New("container gone"))

	err := usecase.NewDocumentsUsecase(index, blobs, discardLogger()).
		Delete(context.Background(), "doc-a")

	require.NoError(t, err, "chunk deletion succeeded, blob cleanup is best-effort")
}
