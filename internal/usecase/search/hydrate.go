package search

import (
	"context"
	"fmt"

	"docqa/internal/domain"
)

// HydrateResults turns index hits into search results, filling the
// per-document metadata from chunk 0 of each distinct document in one
// bulk call. A hit whose chunk 0 is missing keeps its own fields.
func HydrateResults(ctx context.Context, index domain.IndexClient, hits []domain.IndexHit) ([]domain.SearchResult, error) {
	if len(hits) == 0 {
		return nil, nil
	}

	var documentIDs []string
	seen := make(map[string]struct{})
	for _, hit := range hits {
		if _, dup := seen[hit.Chunk.DocumentID]; dup {
			continue
		}
		seen[hit.Chunk.DocumentID] = struct{}{}
		documentIDs = append(documentIDs, hit.Chunk.DocumentID)
	}

	chunk0s, err := index.GetChunk0s(ctx, documentIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to hydrate chunk-0 metadata: %w", err)
	}

	results := make([]domain.SearchResult, 0, len(hits))
	for _, hit := range hits {
		result := domain.SearchResult{
			DocumentChunk: hit.Chunk,
			VectorScore:   hit.Score,
		}
		if c0, ok := chunk0s[hit.Chunk.DocumentID]; ok {
			result.OriginalFileName = c0.OriginalFileName
			result.ContentType = c0.ContentType
			result.FileSizeBytes = c0.FileSizeBytes
			result.BlobPath = c0.BlobPath
			result.BlobContainer = c0.BlobContainer
			result.TextContentBlobPath = c0.TextContentBlobPath
		}
		results = append(results, result)
	}
	return results, nil
}

// ScoreResults computes the combined score of each result against the
// query from its backend score and text relevance.
func ScoreResults(results []domain.SearchResult, query string) {
	for i := range results {
		results[i].Score = CombinedScore(results[i].VectorScore, TextRelevance(results[i].Content, query))
	}
}
