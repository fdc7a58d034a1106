package search

import (
	"sort"

	"docqa/internal/domain"
)

// SortByScore orders results by combined score descending, stable so
// backend order breaks ties.
func SortByScore(results []domain.SearchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
}

// FilterByScore keeps results at or above minScore, ordered by score
// descending and truncated to maxResults.
func FilterByScore(results []domain.SearchResult, minScore float64, maxResults int) []domain.SearchResult {
	filtered := make([]domain.SearchResult, 0, len(results))
	for _, r := range results {
		if r.Score >= minScore {
			filtered = append(filtered, r)
		}
	}
	SortByScore(filtered)
	if len(filtered) > maxResults {
		filtered = filtered[:maxResults]
	}
	return filtered
}

// Diversify keeps the single best chunk per document, ordered by score
// descending and truncated to take.
func Diversify(results []domain.SearchResult, take int) []domain.SearchResult {
	bestPerDoc := make(map[string]domain.SearchResult)
	var docOrder []string
	for _, r := range results {
		best, seen := bestPerDoc[r.DocumentID]
		if !seen {
			docOrder = append(docOrder, r.DocumentID)
		}
		if !seen || r.Score > best.Score {
			bestPerDoc[r.DocumentID] = r
		}
	}

	diversified := make([]domain.SearchResult, 0, len(docOrder))
	for _, id := range docOrder {
		diversified = append(diversified, bestPerDoc[id])
	}
	SortByScore(diversified)
	if len(diversified) > take {
		diversified = diversified[:take]
	}
	return diversified
}

// DistinctDocuments counts the distinct document ids in a result set.
func DistinctDocuments(results []domain.SearchResult) int {
	seen := make(map[string]struct{}, len(results))
	for _, r := range results {
		seen[r.DocumentID] = struct{}{}
	}
	return len(seen)
}

// MergePreferring adds the primary set first, fills with secondary
// results whose documents are not already present, truncates to max
// and re-sorts by score.
func MergePreferring(primary, secondary []domain.SearchResult, max int) []domain.SearchResult {
	merged := make([]domain.SearchResult, 0, max)
	seen := make(map[string]struct{})
	for _, r := range primary {
		if len(merged) >= max {
			break
		}
		if _, dup := seen[r.DocumentID]; dup {
			continue
		}
		seen[r.DocumentID] = struct{}{}
		merged = append(merged, r)
	}
	for _, r := range secondary {
		if len(merged) >= max {
			break
		}
		if _, dup := seen[r.DocumentID]; dup {
			continue
		}
		seen[r.DocumentID] = struct{}{}
		merged = append(merged, r)
	}
	SortByScore(merged)
	return merged
}
