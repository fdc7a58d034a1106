// Package llm talks to an OpenAI-compatible inference endpoint for
// embeddings and chat completions.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"docqa/internal/domain"
)

const (
	embedBatchSize  = 10
	cacheEntries    = 2048
	cacheSlidingTTL = 30 * time.Minute
	cacheMaxAge     = 2 * time.Hour
)

// EmbedderConfig configures the embeddings client.
type EmbedderConfig struct {
	BaseURL           string
	APIKey            string
	Model             string
	Dimensions        int
	RequestsPerSecond float64
}

type cachedVector struct {
	vector   []float32
	storedAt time.Time
}

// Embedder encodes text via the /v1/embeddings endpoint. Repeated
// encodes of the same normalized text are served from an in-memory
// cache with a sliding expiry; concurrent encodes of one text collapse
// into a single upstream call.
type Embedder struct {
	cfg     EmbedderConfig
	client  *http.Client
	cache   *expirable.LRU[string, cachedVector]
	flight  singleflight.Group
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewEmbedder creates the embeddings client.
func NewEmbedder(cfg EmbedderConfig, client *http.Client, logger *slog.Logger) *Embedder {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 10
	}
	return &Embedder{
		cfg:     cfg,
		client:  client,
		cache:   expirable.NewLRU[string, cachedVector](cacheEntries, nil, cacheSlidingTTL),
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		logger:  logger,
	}
}

// normalizeCacheKey collapses whitespace so trivially reformatted text
// hits the same cache entry.
func normalizeCacheKey(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

func (e *Embedder) cacheGet(key string) ([]float32, bool) {
	entry, ok := e.cache.Get(key)
	if !ok {
		return nil, false
	}
	if time.Since(entry.storedAt) > cacheMaxAge {
		e.cache.Remove(key)
		return nil, false
	}
	// Re-adding refreshes the sliding expiry without resetting the
	// absolute age.
	e.cache.Add(key, entry)
	return entry.vector, true
}

func (e *Embedder) cachePut(key string, vector []float32) {
	e.cache.Add(key, cachedVector{vector: vector, storedAt: time.Now()})
}

func (e *Embedder) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	var missKeys []string
	var missIdx []int
	for i, text := range texts {
		key := normalizeCacheKey(text)
		if vector, ok := e.cacheGet(key); ok {
			vectors[i] = vector
			continue
		}
		missKeys = append(missKeys, key)
		missIdx = append(missIdx, i)
	}
	if len(missKeys) == 0 {
		return vectors, nil
	}

	if len(missKeys) == 1 {
		vector, err := e.encodeOne(ctx, texts[missIdx[0]], missKeys[0])
		if err != nil {
			return nil, err
		}
		vectors[missIdx[0]] = vector
		return vectors, nil
	}

	for start := 0; start < len(missKeys); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(missKeys) {
			end = len(missKeys)
		}
		batch := make([]string, end-start)
		for j := start; j < end; j++ {
			batch[j-start] = texts[missIdx[j]]
		}
		embedded, err := e.request(ctx, batch)
		if err != nil {
			return nil, err
		}
		for j, vector := range embedded {
			vectors[missIdx[start+j]] = vector
			e.cachePut(missKeys[start+j], vector)
		}
	}
	return vectors, nil
}

// encodeOne funnels concurrent encodes of the same text through one
// upstream request.
func (e *Embedder) encodeOne(ctx context.Context, text, key string) ([]float32, error) {
	result, err, _ := e.flight.Do(key, func() (interface{}, error) {
		if vector, ok := e.cacheGet(key); ok {
			return vector, nil
		}
		embedded, err := e.request(ctx, []string{text})
		if err != nil {
			return nil, err
		}
		e.cachePut(key, embedded[0])
		return embedded[0], nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]float32), nil
}

type embeddingsRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type embeddingsResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

func (e *Embedder) request(ctx context.Context, texts []string) ([][]float32, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait aborted: %w", err)
	}
	start := time.Now()

	payload, err := json.Marshal(embeddingsRequest{
		Model:      e.cfg.Model,
		Input:      texts,
		Dimensions: e.cfg.Dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embeddings request: %w", err)
	}

	url := strings.TrimRight(e.cfg.BaseURL, "/") + "/v1/embeddings"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.cfg.APIKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		e.logger.Error("embed_request_failed",
			slog.String("error", err.Error()),
			slog.Duration("elapsed", time.Since(start)))
		return nil, fmt.Errorf("failed to call embeddings endpoint: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		e.logger.Error("embed_bad_status",
			slog.Int("status", resp.StatusCode),
			slog.Duration("elapsed", time.Since(start)))
		return nil, fmt.Errorf("embeddings endpoint returned %d: %s", resp.StatusCode, truncate(string(body), 500))
	}

	var decoded embeddingsResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode embeddings response: %w", err)
	}
	if len(decoded.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(decoded.Data))
	}

	vectors := make([][]float32, len(texts))
	for _, item := range decoded.Data {
		if item.Index < 0 || item.Index >= len(vectors) {
			return nil, fmt.Errorf("embedding index %d out of range", item.Index)
		}
		vectors[item.Index] = item.Embedding
	}

	e.logger.Info("embed_completed",
		slog.Int("text_count", len(texts)),
		slog.Duration("elapsed", time.Since(start)))
	return vectors, nil
}

func (e *Embedder) Version() string {
	return e.cfg.Model
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

var _ domain.VectorEncoder = (*Embedder)(nil)
