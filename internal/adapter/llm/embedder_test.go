package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// newEmbedServer serves /v1/embeddings with a deterministic vector per
// input and counts requests and per-request batch sizes.
func newEmbedServer(t *testing.T, calls *atomic.Int64, batchSizes *[]int) *httptest.Server {
	t.Helper()
	var mu sync.Mutex
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var req embeddingsRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if batchSizes != nil {
			mu.Lock()
			*batchSizes = append(*batchSizes, len(req.Input))
			mu.Unlock()
		}

		var resp embeddingsResponse
		for i := range req.Input {
			resp.Data = append(resp.Data, struct {
				Index     int       `json:"index"`
				Embedding []float32 `json:"embedding"`
			}{Index: i, Embedding: []float32{float32(len(req.Input[i])), 1}})
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func newTestEmbedder(baseURL string) *Embedder {
	return NewEmbedder(EmbedderConfig{
		BaseURL:           baseURL,
		Model:             "text-embedding-3-small",
		RequestsPerSecond: 1000,
	}, http.DefaultClient, discardLogger())
}

func TestEmbedder_EncodeAndCache(t *testing.T) {
	var calls atomic.Int64
	server := newEmbedServer(t, &calls, nil)
	defer server.Close()
	e := newTestEmbedder(server.URL)

	first, err := e.Encode(context.Background(), []string{"hello world"})
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, []float32{11, 1}, first[0])

	second, err := e.Encode(context.Background(), []string{"hello world"})
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), calls.Load(), "second encode must come from the cache")
}

func TestEmbedder_CacheKeyNormalizesWhitespaceAndCase(t *testing.T) {
	var calls atomic.Int64
	server := newEmbedServer(t, &calls, nil)
	defer server.Close()
	e := newTestEmbedder(server.URL)

	_, err := e.Encode(context.Background(), []string{"Hello   World"})
	require.NoError(t, err)
	_, err = e.Encode(context.Background(), []string{"hello world"})
	require.NoError(t, err)

	assert.Equal(t, int64(1), calls.Load())
}

func TestEmbedder_ConcurrentEncodesCollapse(t *testing.T) {
	var calls atomic.Int64
	server := newEmbedServer(t, &calls, nil)
	defer server.Close()
	e := newTestEmbedder(server.URL)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.Encode(context.Background(), []string{"same text"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), calls.Load(), "concurrent encodes of one text share a single upstream call")
}

func TestEmbedder_BatchesOfAtMostTen(t *testing.T) {
	var calls atomic.Int64
	var batchSizes []int
	server := newEmbedServer(t, &calls, &batchSizes)
	defer server.Close()
	e := newTestEmbedder(server.URL)

	texts := make([]string, 12)
	for i := range texts {
		texts[i] = fmt.Sprintf("chunk number %d", i)
	}

	vectors, err := e.Encode(context.Background(), texts)

	require.NoError(t, err)
	require.Len(t, vectors, 12)
	for i, v := range vectors {
		require.NotNil(t, v, "vector %d missing", i)
	}
	assert.Equal(t, []int{10, 2}, batchSizes)
}

func TestEmbedder_UpstreamErrorPropagates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()
	e := newTestEmbedder(server.URL)

	_, err := e.Encode(context.Background(), []string{"text"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestEmbedder_Version(t *testing.T) {
	e := newTestEmbedder("http://localhost")
	assert.Equal(t, "text-embedding-3-small", e.Version())
}
