package domain_test

import (
	"strings"
	"testing"

	"docqa/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunk_ShortTextSingleChunk(t *testing.T) {
	c := domain.NewChunker()

	chunks, err := c.Chunk("Azure Blob stores files. Containers group blobs. Keys are unique.", 1000, 0)

	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Azure Blob stores files. Containers group blobs. Keys are unique.", chunks[0])
}

func TestChunk_EmptyInput(t *testing.T) {
	c := domain.NewChunker()

	chunks, err := c.Chunk("   \n\n  ", 300, 20)

	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestChunk_SentenceBoundariesRespected(t *testing.T) {
	c := domain.NewChunker()
	text := "The first sentence talks about storage. The second sentence talks about retrieval. The third sentence talks about indexing."

	chunks, err := c.Chunk(text, 60, 0)

	require.NoError(t, err)
	require.GreaterOrEqual(t, len(chunks), 2)
	for _, chunk := range chunks {
		assert.False(t, strings.HasPrefix(chunk, " "))
		assert.LessOrEqual(t, len(chunk), 60)
	}
	assert.Equal(t, "The first sentence talks about storage.", chunks[0])
}

func TestChunk_OverlapCarriesTail(t *testing.T) {
	c := domain.NewChunker()
	text := "Alpha bravo charlie delta. Echo foxtrot golf hotel. India juliet kilo lima."

	chunks, err := c.Chunk(text, 30, 10)

	require.NoError(t, err)
	require.GreaterOrEqual(t, len(chunks), 2)
	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1]
		firstWord := strings.Fields(chunks[i])[0]
		assert.Contains(t, prev, firstWord, "chunk %d should start with text carried from its predecessor", i)
	}
}

func TestChunk_OversizeSentenceSplitAtWords(t *testing.T) {
	c := domain.NewChunker()
	text := strings.Repeat("word ", 100)

	chunks, err := c.Chunk(text, 100, 0)

	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), 100)
		assert.NotContains(t, chunk, "  ")
	}
}

func TestChunk_InvalidParameters(t *testing.T) {
	c := domain.NewChunker()

	tests := []struct {
		name    string
		size    int
		overlap int
	}{
		{"zero size", 0, 0},
		{"negative size", -1, 0},
		{"negative overlap", 100, -1},
		{"overlap equals size", 100, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Chunk("some text", tt.size, tt.overlap)
			assert.Error(t, err)
		})
	}
}
