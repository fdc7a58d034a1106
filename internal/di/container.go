package di

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"

	"docqa/internal/adapter/blobstore"
	"docqa/internal/adapter/extract"
	"docqa/internal/adapter/httpapi"
	"docqa/internal/adapter/llm"
	"docqa/internal/adapter/repository"
	"docqa/internal/domain"
	"docqa/internal/infra/config"
	"docqa/internal/infra/httpclient"
	"docqa/internal/usecase"
)

// ApplicationComponents holds all wired dependencies for the application.
type ApplicationComponents struct {
	Index domain.IndexClient
	Blobs domain.BlobStore

	SearchUsecase    usecase.SearchUsecase
	IngestUsecase    usecase.IngestUsecase
	DocumentsUsecase usecase.DocumentsUsecase
	DownloadUsecase  usecase.DownloadTokenUsecase

	Handler *httpapi.Handler
}

// NewApplicationComponents wires all dependencies from config and database pool.
func NewApplicationComponents(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, log *slog.Logger) (*ApplicationComponents, error) {
	schema := domain.ChunkIndexSchema(cfg.Index.Name, cfg.Index.EmbeddingDim, domain.HNSWParams{
		M:              cfg.Index.HNSWM,
		EfConstruction: cfg.Index.EfConstruction,
		EfSearch:       cfg.Index.EfSearch,
	})
	index := repository.NewIndexClient(pool, schema, log)

	blobs, err := blobstore.NewGCSStore(ctx, cfg.Blob.Bucket, log)
	if err != nil {
		return nil, fmt.Errorf("failed to init blob store: %w", err)
	}

	// Shared HTTP clients with connection pooling
	embedderHTTP := httpclient.NewPooledClient(time.Duration(cfg.Embedder.TimeoutSeconds) * time.Second)
	chatHTTP := httpclient.NewPooledClient(time.Duration(cfg.Chat.TimeoutSeconds) * time.Second)
	extractorHTTP := httpclient.NewPooledClient(2 * time.Minute)

	encoder := llm.NewEmbedder(llm.EmbedderConfig{
		BaseURL:           cfg.Embedder.BaseURL,
		APIKey:            cfg.Embedder.APIKey,
		Model:             cfg.Embedder.Model,
		Dimensions:        cfg.Embedder.Dimensions,
		RequestsPerSecond: cfg.Embedder.RequestsPerSecond,
	}, embedderHTTP, log)

	chat := llm.NewChatClient(llm.ChatClientConfig{
		BaseURL:     cfg.Chat.BaseURL,
		APIKey:      cfg.Chat.APIKey,
		Model:       cfg.Chat.Model,
		Temperature: cfg.Chat.Temperature,
		MaxTokens:   cfg.Chat.MaxTokens,
	}, chatHTTP, log)

	extractor := extract.NewExtractor(extract.Config{BaseURL: cfg.Upload.ExtractorURL}, extractorHTTP, log)

	answer := usecase.NewAnswerUsecase(chat, blobs, usecase.ChatConfig{
		Language:             cfg.Chat.Language,
		MaxHistoryMessages:   10,
		BlobFetchTimeout:     15 * time.Second,
		MaxFullDocumentChars: 8000,
	}, log)

	search := usecase.NewSearchUsecase(index, encoder, answer, usecase.SearchConfig{
		MinScoreForAnswer:          cfg.Search.MinScoreForAnswer,
		FollowUpMinScore:           cfg.Search.FollowUpMinScore,
		MaxSourcesForAnswer:        cfg.Search.MaxSourcesForAnswer,
		RelatedTopicSimilarity:     0.75,
		RelatedTopicWeakSimilarity: 0.65,
	}, log)

	ingest := usecase.NewIngestUsecase(index, blobs, encoder, domain.NewChunker(), extractor, usecase.UploadConfig{
		MaxFileSizeMB:     cfg.Upload.MaxFileSizeMB,
		AllowedExtensions: cfg.Upload.AllowedExtensions,
		BlobContainer:     cfg.Blob.Container,
		ChunkSize:         cfg.Upload.ChunkSize,
		ChunkOverlap:      cfg.Upload.ChunkOverlap,
	}, log)

	documents := usecase.NewDocumentsUsecase(index, blobs, log)

	download := usecase.NewDownloadTokenUsecase(index, blobs, usecase.TokenConfig{
		Secret: cfg.Download.TokenSecret,
		Issuer: cfg.Download.TokenIssuer,
		MaxTTL: time.Duration(cfg.Download.MaxTTLMinutes) * time.Minute,
	}, log)

	ready := func(c echo.Context) error {
		return pool.Ping(c.Request().Context())
	}
	handler := httpapi.NewHandler(search, ingest, documents, download, ready, log)

	return &ApplicationComponents{
		Index:            index,
		Blobs:            blobs,
		SearchUsecase:    search,
		IngestUsecase:    ingest,
		DocumentsUsecase: documents,
		DownloadUsecase:  download,
		Handler:          handler,
	}, nil
}
