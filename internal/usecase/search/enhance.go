package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"docqa/internal/domain"
)

// Boost multipliers for the history-enhanced pass, applied at most
// once each, reference match first.
const (
	referenceBoost    = 1.8
	keywordBoost      = 1.3
	sameDocumentBoost = 2.5
)

const (
	enhancedFetchTop  = 20
	enhancedResultCap = 15
	followUpSatisfied = 0.15
)

// EnhanceInput carries the state of the retrieval pipeline into the
// history-enhanced second pass.
type EnhanceInput struct {
	Query      string
	Vector     []float32
	History    []domain.ChatHistoryEntry
	ContextSet []domain.SearchResult
	MaxResults int
	MaxSources int
}

// Enhance runs the history-enhanced retrieval: a fresh hybrid fetch
// rescored with boosts for documents the conversation already
// referenced and for content matching history keywords.
func Enhance(ctx context.Context, in EnhanceInput, index domain.IndexClient, logger *slog.Logger) ([]domain.SearchResult, error) {
	keywords := ExtractKeywords(in.History)
	references := ExtractDocumentReferences(in.History)

	hits, err := index.HybridSearch(ctx, in.Query, in.Vector, enhancedFetchTop, "")
	if err != nil {
		return nil, fmt.Errorf("history-enhanced search failed: %w", err)
	}

	results, err := HydrateResults(ctx, index, hits)
	if err != nil {
		return nil, err
	}
	ScoreResults(results, in.Query)

	for i := range results {
		switch {
		case matchesReference(results[i], references):
			results[i].Score *= referenceBoost
		case containsKeyword(results[i].Content, keywords):
			results[i].Score *= keywordBoost
		}
	}

	SortByScore(results)
	if len(results) > enhancedResultCap {
		results = results[:enhancedResultCap]
	}

	logger.Info("history_enhanced_retrieval_completed",
		slog.Int("keyword_count", len(keywords)),
		slog.Int("reference_count", len(references)),
		slog.Int("result_count", len(results)))
	return results, nil
}

// ScopedFollowUp restricts the hybrid query to the documents of the
// context set and boosts same-document hits. satisfied reports whether
// at least one hit cleared the follow-up threshold; if so the results
// are merged with the context set, best chunk per document.
func ScopedFollowUp(ctx context.Context, in EnhanceInput, index domain.IndexClient, logger *slog.Logger) (results []domain.SearchResult, satisfied bool, err error) {
	documentIDs := make([]string, 0, len(in.ContextSet))
	seen := make(map[string]struct{})
	for _, r := range in.ContextSet {
		if _, dup := seen[r.DocumentID]; dup {
			continue
		}
		seen[r.DocumentID] = struct{}{}
		documentIDs = append(documentIDs, r.DocumentID)
	}

	var scoped []domain.SearchResult
	for _, documentID := range documentIDs {
		hits, err := index.HybridSearch(ctx, in.Query, in.Vector, in.MaxResults, documentID)
		if err != nil {
			return nil, false, fmt.Errorf("scoped follow-up search failed for %s: %w", documentID, err)
		}
		hydrated, err := HydrateResults(ctx, index, hits)
		if err != nil {
			return nil, false, err
		}
		ScoreResults(hydrated, in.Query)
		for i := range hydrated {
			hydrated[i].Score *= sameDocumentBoost
		}
		scoped = append(scoped, hydrated...)
	}

	for _, r := range scoped {
		if r.Score > followUpSatisfied {
			satisfied = true
			break
		}
	}
	if !satisfied {
		logger.Info("scoped_follow_up_unsatisfied",
			slog.Int("document_count", len(documentIDs)))
		return nil, false, nil
	}

	take := in.MaxResults
	if in.MaxSources < take {
		take = in.MaxSources
	}
	merged := MergePreferring(Diversify(scoped, take), in.ContextSet, take)

	logger.Info("scoped_follow_up_satisfied",
		slog.Int("document_count", len(documentIDs)),
		slog.Int("result_count", len(merged)))
	return merged, true, nil
}

func matchesReference(result domain.SearchResult, references []string) bool {
	if len(references) == 0 {
		return false
	}
	candidates := []string{result.DocumentID, result.OriginalFileName, result.Metadata}
	for _, ref := range references {
		lowerRef := strings.ToLower(ref)
		for _, c := range candidates {
			if c == "" {
				continue
			}
			lowerC := strings.ToLower(c)
			if strings.Contains(lowerC, lowerRef) || strings.Contains(lowerRef, lowerC) {
				return true
			}
		}
	}
	return false
}

func containsKeyword(content string, keywords []string) bool {
	lower := strings.ToLower(content)
	for _, k := range keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}
