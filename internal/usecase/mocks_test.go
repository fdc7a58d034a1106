package usecase_test

import (
	"context"
	"io"
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

// MockBlobStore is a test double for domain.BlobStore.
type MockBlobStore struct {
	mock.Mock
}

func (m *MockBlobStore) Upload(ctx context.Context, key string, data io.Reader, contentType string, metadata map[string]string) error {
	args := m.Called(ctx, key, data, contentType, metadata)
	return args.Error(0)
}

func (m *MockBlobStore) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

func (m *MockBlobStore) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockBlobStore) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

var _ domain.BlobStore = (*MockBlobStore)(nil)

// MockVectorEncoder is a test double for domain.VectorEncoder.
type MockVectorEncoder struct {
	mock.Mock
}

func (m *MockVectorEncoder) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	args := m.Called(ctx, texts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]float32), args.Error(1)
}

func (m *MockVectorEncoder) Version() string {
	return "mock"
}

var _ domain.VectorEncoder = (*MockVectorEncoder)(nil)

// MockChatClient is a test double for domain.ChatClient.
type MockChatClient struct {
	mock.Mock
}

func (m *MockChatClient) Complete(ctx context.Context, messages []domain.ChatMessage) (string, error) {
	args := m.Called(ctx, messages)
	return args.String(0), args.Error(1)
}

func (m *MockChatClient) Version() string {
	return "mock"
}

var _ domain.ChatClient = (*MockChatClient)(nil)

// MockTextExtractor is a test double for domain.TextExtractor.
type MockTextExtractor struct {
	mock.Mock
}

func (m *MockTextExtractor) Extract(ctx context.Context, fileName, contentType string, data []byte) (string, bool, error) {
	args := m.Called(ctx, fileName, contentType, data)
	return args.String(0), args.Bool(1), args.Error(2)
}

var _ domain.TextExtractor = (*MockTextExtractor)(nil)

// MockAnswerUsecase is a test double for usecase.AnswerUsecase.
type MockAnswerUsecase struct {
	mock.Mock
}

func (m *MockAnswerUsecase) Answer(ctx context.Context, query string, results []domain.SearchResult) (string, error) {
	args := m.Called(ctx, query, results)
	return args.String(0), args.Error(1)
}

func (m *MockAnswerUsecase) AnswerWithHistory(ctx context.Context, query string, results []domain.SearchResult, history []domain.ChatHistoryEntry) (string, error) {
	args := m.Called(ctx, query, results, history)
	return args.String(0), args.Error(1)
}

func (m *MockAnswerUsecase) AnswerFromHistoryOnly(ctx context.Context, query string, history []domain.ChatHistoryEntry) (string, error) {
	args := m.Called(ctx, query, history)
	return args.String(0), args.Error(1)
}

func (m *MockAnswerUsecase) ExpandQuery(ctx context.Context, query string, history []domain.ChatHistoryEntry) (string, error) {
	args := m.Called(ctx, query, history)
	return args.String(0), args.Error(1)
}

func (m *MockAnswerUsecase) NoInformationMessage() string {
	return "no information found"
}
