package search_test

import (
	"context"
	"time"

	"docqa/internal/domain"

	"github.com/stretchr/testify/mock"
)

// MockIndexClient is a test double for domain.IndexClient.
type MockIndexClient struct {
	mock.Mock
}

func (m *MockIndexClient) Initialize(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockIndexClient) IndexChunks(ctx context.Context, chunks []domain.DocumentChunk) (int, int, error) {
	args := m.Called(ctx, chunks)
	return args.Int(0), args.Int(1), args.Error(2)
}

func (m *MockIndexClient) KeywordSearch(ctx context.Context, query string, top int) ([]domain.IndexHit, error) {
	args := m.Called(ctx, query, top)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.IndexHit), args.Error(1)
}

func (m *MockIndexClient) VectorSearch(ctx context.Context, vector []float32, top int) ([]domain.IndexHit, error) {
	args := m.Called(ctx, vector, top)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.IndexHit), args.Error(1)
}

func (m *MockIndexClient) HybridSearch(ctx context.Context, query string, vector []float32, top int, filterDocumentID string) ([]domain.IndexHit, error) {
	args := m.Called(ctx, query, vector, top, filterDocumentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.IndexHit), args.Error(1)
}

func (m *MockIndexClient) GetChunk0s(ctx context.Context, documentIDs []string) (map[string]domain.DocumentChunk, error) {
	args := m.Called(ctx, documentIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.DocumentChunk), args.Error(1)
}

func (m *MockIndexClient) DocumentExists(ctx context.Context, documentID string) (bool, error) {
	args := m.Called(ctx, documentID)
	return args.Bool(0), args.Error(1)
}

func (m *MockIndexClient) DeleteDocument(ctx context.Context, documentID string) (bool, error) {
	args := m.Called(ctx, documentID)
	return args.Bool(0), args.Error(1)
}

func (m *MockIndexClient) GetChunkCount(ctx context.Context, documentID string) (int, error) {
	args := m.Called(ctx, documentID)
	return args.Int(0), args.Error(1)
}

func (m *MockIndexClient) GetLastUpdated(ctx context.Context, documentID string) (time.Time, error) {
	args := m.Called(ctx, documentID)
	return args.Get(0).(time.Time), args.Error(1)
}

func (m *MockIndexClient) GetTopChunks(ctx context.Context, documentID string, n int) ([]domain.DocumentChunk, error) {
	args := m.Called(ctx, documentID, n)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DocumentChunk), args.Error(1)
}

func (m *MockIndexClient) GetAdjacentChunks(ctx context.Context, documentID string, chunkIndex, k int) ([]domain.DocumentChunk, error) {
	args := m.Called(ctx, documentID, chunkIndex, k)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DocumentChunk), args.Error(1)
}

func (m *MockIndexClient) FindDocumentsByFileName(ctx context.Context, fileName string) ([]string, error) {
	args := m.Called(ctx, fileName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockIndexClient) ListDocumentIDs(ctx context.Context, maxResults, skip int) ([]string, error) {
	args := m.Called(ctx, maxResults, skip)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

var _ domain.IndexClient = (*MockIndexClient)(nil)
