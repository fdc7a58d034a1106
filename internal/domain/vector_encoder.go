package domain

import (
	"context"
)

// VectorEncoder turns text into embedding vectors.
type VectorEncoder interface {
	// Encode embeds every text, preserving input order. All vectors
	// share the index's configured dimensionality.
	Encode(ctx context.Context, texts []string) ([][]float32, error)
	// Version identifies the embedding model; chunks indexed with a
	// different version are not comparable.
	Version() string
}
