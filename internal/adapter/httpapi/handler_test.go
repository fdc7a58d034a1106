package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docqa/internal/domain"
	"docqa/internal/usecase"
)

type mockSearchUsecase struct{ mock.Mock }

func (m *mockSearchUsecase) Execute(ctx context.Context, req domain.SearchRequest) (*domain.SearchResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SearchResponse), args.Error(1)
}

type mockIngestUsecase struct{ mock.Mock }

func (m *mockIngestUsecase) Execute(ctx context.Context, input usecase.IngestInput) (*domain.UploadResponse, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UploadResponse), args.Error(1)
}

type mockDocumentsUsecase struct{ mock.Mock }

func (m *mockDocumentsUsecase) List(ctx context.Context, maxResults, skip int, documentID string) ([]domain.DocumentSummary, error) {
	args := m.Called(ctx, maxResults, skip, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DocumentSummary), args.Error(1)
}

func (m *mockDocumentsUsecase) Delete(ctx context.Context, documentID string) error {
	args := m.Called(ctx, documentID)
	return args.Error(0)
}

type mockDownloadUsecase struct{ mock.Mock }

func (m *mockDownloadUsecase) Mint(ctx context.Context, documentID string, expirationMinutes int) (*usecase.DownloadToken, error) {
	args := m.Called(ctx, documentID, expirationMinutes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.DownloadToken), args.Error(1)
}

func (m *mockDownloadUsecase) Verify(token string) (string, error) {
	args := m.Called(token)
	return args.String(0), args.Error(1)
}

func (m *mockDownloadUsecase) Download(ctx context.Context, token string) (*usecase.DownloadFile, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.DownloadFile), args.Error(1)
}

type fixture struct {
	search    *mockSearchUsecase
	ingest    *mockIngestUsecase
	documents *mockDocumentsUsecase
	download  *mockDownloadUsecase
	echo      *echo.Echo
}

func newFixture() *fixture {
	f := &fixture{
		search:    new(mockSearchUsecase),
		ingest:    new(mockIngestUsecase),
		documents: new(mockDocumentsUsecase),
		download:  new(mockDownloadUsecase),
		echo:      echo.New(),
	}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	NewHandler(f.search, f.ingest, f.documents, f.download, nil, logger).RegisterRoutes(f.echo)
	return f
}

func (f *fixture) do(method, path, contentType string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	rec := httptest.NewRecorder()
	f.echo.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) doJSON(method, path, body string) *httptest.ResponseRecorder {
	return f.do(method, path, echo.MIMEApplicationJSON, strings.NewReader(body))
}

func TestHealthz(t *testing.T) {
	f := newFixture()
	rec := f.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyz_NotReady(t *testing.T) {
	f := newFixture()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	e := echo.New()
	NewHandler(f.search, f.ingest, f.documents, f.download, func(echo.Context) error {
		return fmt.Errorf("db unreachable")
	}, logger).RegisterRoutes(e)

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSearch_OK(t *testing.T) {
	f := newFixture()
	f.search.On("Execute", mock.Anything, mock.Anything).Return(&domain.SearchResponse{
		Query:        "what is a blob",
		Success:      true,
		TotalResults: 1,
		Results: []domain.SearchResult{
			{DocumentChunk: domain.DocumentChunk{DocumentID: "doc-a", Content: "blobs"}, Score: 0.7},
		},
	}, nil)

	rec := f.doJSON(http.MethodPost, "/search", `{"query":"what is a blob","maxResults":5}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp domain.SearchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.TotalResults)

	captured := f.search.Calls[0].Arguments.Get(1).(domain.SearchRequest)
	assert.Equal(t, "what is a blob", captured.Query)
	assert.Equal(t, 5, captured.MaxResults)
}

func TestSearch_ValidationMapsTo400(t *testing.T) {
	f := newFixture()
	f.search.On("Execute", mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("%w: query must not be empty", domain.ErrValidation))

	rec := f.doJSON(http.MethodPost, "/search", `{"query":""}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearch_PipelineFailureMapsTo500(t *testing.T) {
	f := newFixture()
	f.search.On("Execute", mock.Anything, mock.Anything).Return(&domain.SearchResponse{
		Query:   "query",
		Success: false,
		Message: "embedding failed",
	}, nil)

	rec := f.doJSON(http.MethodPost, "/search", `{"query":"query","maxResults":5}`)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var resp domain.SearchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "embedding failed", resp.Message)
}

func multipartUpload(t *testing.T, fields map[string]string, fileName string, content []byte) (io.Reader, string) {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	require.NoError(t, writer.Close())
	return &body, writer.FormDataContentType()
}

func TestUpload_OK(t *testing.T) {
	f := newFixture()
	f.ingest.On("Execute", mock.Anything, mock.Anything).Return(&domain.UploadResponse{
		DocumentID:    "doc-a",
		ChunksCreated: 3,
		Success:       true,
	}, nil)

	body, contentType := multipartUpload(t, map[string]string{
		"documentId":   "doc-a",
		"chunkSize":    "200",
		"chunkOverlap": "0",
	}, "notes.txt", []byte("some text"))
	rec := f.do(http.MethodPost, "/upload", contentType, body)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp domain.UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.ChunksCreated)

	input := f.ingest.Calls[0].Arguments.Get(1).(usecase.IngestInput)
	assert.Equal(t, "notes.txt", input.FileName)
	assert.Equal(t, []byte("some text"), input.Data)
	assert.Equal(t, "doc-a", input.DocumentID)
	assert.Equal(t, 200, input.ChunkSize)
	// An explicit 0 must stay distinguishable from an absent field.
	require.NotNil(t, input.ChunkOverlap)
	assert.Equal(t, 0, *input.ChunkOverlap)
}

func TestUpload_OmittedChunkParams(t *testing.T) {
	f := newFixture()
	f.ingest.On("Execute", mock.Anything, mock.Anything).Return(&domain.UploadResponse{
		DocumentID: "doc-b",
		Success:    true,
	}, nil)

	body, contentType := multipartUpload(t, map[string]string{}, "notes.txt", []byte("some text"))
	rec := f.do(http.MethodPost, "/upload", contentType, body)

	require.Equal(t, http.StatusOK, rec.Code)
	input := f.ingest.Calls[0].Arguments.Get(1).(usecase.IngestInput)
	assert.Equal(t, 0, input.ChunkSize)
	assert.Nil(t, input.ChunkOverlap)
}

func TestUpload_MissingFile(t *testing.T) {
	f := newFixture()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	require.NoError(t, writer.WriteField("documentId", "doc-a"))
	require.NoError(t, writer.Close())

	rec := f.do(http.MethodPost, "/upload", writer.FormDataContentType(), &body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	f.ingest.AssertNumberOfCalls(t, "Execute", 0)
}

func TestUpload_ConflictMapsTo409(t *testing.T) {
	f := newFixture()
	f.ingest.On("Execute", mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("%w: doc-a", domain.ErrConflict))

	body, contentType := multipartUpload(t, nil, "notes.txt", []byte("text"))
	rec := f.do(http.MethodPost, "/upload", contentType, body)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestListDocuments_QueryParams(t *testing.T) {
	f := newFixture()
	f.documents.On("List", mock.Anything, 7, 2, "").Return([]domain.DocumentSummary{
		{DocumentID: "doc-a", ChunkCount: 3},
	}, nil)

	rec := f.do(http.MethodGet, "/documents?maxResults=7&skip=2", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Documents []domain.DocumentSummary `json:"documents"`
		Count     int                      `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, "doc-a", resp.Documents[0].DocumentID)
}

func TestListDocuments_UnknownDocumentMapsTo404(t *testing.T) {
	f := newFixture()
	f.documents.On("List", mock.Anything, 0, 0, "ghost").
		Return(nil, fmt.Errorf("%w: document ghost", domain.ErrNotFound))

	rec := f.do(http.MethodGet, "/documents?documentId=ghost", "", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteDocument_ByPath(t *testing.T) {
	f := newFixture()
	f.documents.On("Delete", mock.Anything, "doc-a").Return(nil)

	rec := f.do(http.MethodDelete, "/documents/doc-a", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDeleteDocument_ByBodyNotFound(t *testing.T) {
	f := newFixture()
	f.documents.On("Delete", mock.Anything, "ghost").
		Return(fmt.Errorf("%w: document ghost", domain.ErrNotFound))

	rec := f.doJSON(http.MethodPost, "/documents/delete", `{"documentId":"ghost"}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMintDownloadToken_OK(t *testing.T) {
	f := newFixture()
	f.download.On("Mint", mock.Anything, "doc-a", 15).
		Return(&usecase.DownloadToken{Token: "signed"}, nil)

	rec := f.doJSON(http.MethodPost, "/download/token", `{"documentId":"doc-a","expirationMinutes":15}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "signed")
}

func TestMintDownloadToken_OutOfRangeMapsTo400(t *testing.T) {
	f := newFixture()
	f.download.On("Mint", mock.Anything, "doc-a", 90).
		Return(nil, fmt.Errorf("%w: expirationMinutes out of range", domain.ErrValidation))

	rec := f.doJSON(http.MethodPost, "/download/token", `{"documentId":"doc-a","expirationMinutes":90}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDownloadFile_StreamsContent(t *testing.T) {
	f := newFixture()
	f.download.On("Download", mock.Anything, "signed").Return(&usecase.DownloadFile{
		FileName:    "report.pdf",
		ContentType: "application/pdf",
		Size:        11,
		Body:        io.NopCloser(strings.NewReader("pdf content")),
	}, nil)

	rec := f.doJSON(http.MethodPost, "/download/file", `{"token":"signed"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pdf content", rec.Body.String())
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "report.pdf")
	assert.Equal(t, "application/pdf", rec.Header().Get(echo.HeaderContentType))
}

func TestDownloadFile_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"invalid token", domain.ErrTokenInvalid, http.StatusUnauthorized},
		{"expired token", domain.ErrTokenExpired, http.StatusGone},
		{"missing file", fmt.Errorf("%w: original gone", domain.ErrNotFound), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.download.On("Download", mock.Anything, "token").Return(nil, tt.err)

			rec := f.doJSON(http.MethodPost, "/download/file", `{"token":"token"}`)

			assert.Equal(t, tt.status, rec.Code)
		})
	}
}
