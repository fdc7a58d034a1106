package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"docqa/internal/domain"
	"docqa/internal/usecase/search"
)

// SearchConfig tunes the retrieval pipeline.
type SearchConfig struct {
	// MinScoreForAnswer is the combined-score floor for regular
	// queries; follow-ups use FollowUpMinScore.
	MinScoreForAnswer   float64
	FollowUpMinScore    float64
	MaxSourcesForAnswer int
	// Related-topic detection thresholds against recent user turns.
	RelatedTopicSimilarity     float64
	RelatedTopicWeakSimilarity float64
}

// DefaultSearchConfig returns the documented defaults.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		MinScoreForAnswer:          0.15,
		FollowUpMinScore:           0.05,
		MaxSourcesForAnswer:        5,
		RelatedTopicSimilarity:     0.75,
		RelatedTopicWeakSimilarity: 0.65,
	}
}

// SearchUsecase is the end-to-end query orchestrator: expansion,
// hybrid search, scoring, filtering, diversification, history-aware
// enhancement and answer generation.
type SearchUsecase interface {
	Execute(ctx context.Context, req domain.SearchRequest) (*domain.SearchResponse, error)
}

type searchUsecase struct {
	index   domain.IndexClient
	encoder domain.VectorEncoder
	answer  AnswerUsecase
	cfg     SearchConfig
	logger  *slog.Logger
}

// NewSearchUsecase creates the search orchestrator.
func NewSearchUsecase(
	index domain.IndexClient,
	encoder domain.VectorEncoder,
	answer AnswerUsecase,
	cfg SearchConfig,
	logger *slog.Logger,
) SearchUsecase {
	return &searchUsecase{
		index:   index,
		encoder: encoder,
		answer:  answer,
		cfg:     cfg,
		logger:  logger,
	}
}

// Execute validates the request and runs the pipeline. Validation
// failures are returned as errors for the transport layer to map to
// 4xx; every other failure becomes a response with Success=false and
// no partial results.
func (u *searchUsecase) Execute(ctx context.Context, req domain.SearchRequest) (*domain.SearchResponse, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, fmt.Errorf("%w: query must not be empty", domain.ErrValidation)
	}
	if req.MaxResults < 1 || req.MaxResults > 50 {
		return nil, fmt.Errorf("%w: maxResults must be in [1,50], got %d", domain.ErrValidation, req.MaxResults)
	}

	start := time.Now()
	resp, err := u.run(ctx, req)
	if err != nil {
		u.logger.Error("search_failed",
			slog.String("query", req.Query),
			slog.String("error", err.Error()),
			slog.Duration("elapsed", time.Since(start)))
		return &domain.SearchResponse{
			Query:   req.Query,
			Results: []domain.SearchResult{},
			Success: false,
			Message: err.Error(),
		}, nil
	}

	u.logger.Info("search_completed",
		slog.String("query", req.Query),
		slog.Int("result_count", resp.TotalResults),
		slog.Duration("elapsed", time.Since(start)))
	return resp, nil
}

func (u *searchUsecase) run(ctx context.Context, req domain.SearchRequest) (*domain.SearchResponse, error) {
	isFollowUp := search.IsFollowUp(req.Query)

	// 1. Follow-up shortcut: a follow-up question whose previous
	// answer cited documents is searched within those documents only.
	if isFollowUp && len(req.ChatHistory) > 0 {
		resp, handled, err := u.followUpShortcut(ctx, req)
		if err != nil {
			return nil, err
		}
		if handled {
			return resp, nil
		}
	}

	// 2. Query expansion. A failed expansion is logged and the
	// original query is used; the search itself still proceeds.
	searchQuery := req.Query
	expandedQuery := ""
	if req.EnableQueryExpansion {
		expanded, err := u.answer.ExpandQuery(ctx, req.Query, req.ChatHistory)
		if err != nil {
			u.logger.Warn("query_expansion_failed",
				slog.String("query", req.Query),
				slog.String("error", err.Error()))
		} else if expanded != "" && !strings.EqualFold(expanded, req.Query) {
			expandedQuery = expanded
			searchQuery = expanded
			u.logger.Info("query_expanded",
				slog.String("original", req.Query),
				slog.String("expanded", expanded))
		}
	}

	// 3. Embed the search query.
	queryVector, err := u.embed(ctx, searchQuery)
	if err != nil {
		return nil, err
	}

	// 4. Hybrid (or keyword-only) fetch with headroom for reranking.
	hits, err := u.fetch(ctx, req, searchQuery, queryVector)
	if err != nil {
		return nil, err
	}

	// 5.+6. Bulk metadata hydration and scoring.
	results, err := search.HydrateResults(ctx, u.index, hits)
	if err != nil {
		return nil, err
	}
	search.ScoreResults(results, searchQuery)

	// 7. Score filter. Follow-ups use the lowered floor.
	minScore := u.cfg.MinScoreForAnswer
	if isFollowUp {
		minScore = u.cfg.FollowUpMinScore
	}
	filtered := search.FilterByScore(results, minScore, req.MaxResults)

	// 8. Diversify to one chunk per document. The source budget is
	// raised on the first question of a conversation, and when several
	// documents survive, to preserve follow-up candidates.
	maxSources := u.cfg.MaxSourcesForAnswer
	distinct := search.DistinctDocuments(filtered)
	if len(req.ChatHistory) == 0 || distinct > 1 {
		raised := distinct
		if raised > 10 {
			raised = 10
		}
		if raised > maxSources {
			maxSources = raised
		}
	}
	take := req.MaxResults
	if maxSources < take {
		take = maxSources
	}
	final := search.Diversify(filtered, take)

	// 9. History-enhanced second pass for follow-up or related topics.
	if len(req.ChatHistory) > 0 {
		related := u.isRelatedTopic(ctx, req.Query, queryVector, req.ChatHistory)
		if isFollowUp || related {
			contextSet := final
			if isFollowUp && len(final) == 0 {
				contextSet = u.contextFromHistory(ctx, req.ChatHistory)
			}
			enhanced, err := search.Enhance(ctx, search.EnhanceInput{
				Query:      req.Query,
				Vector:     queryVector,
				History:    req.ChatHistory,
				ContextSet: contextSet,
				MaxResults: req.MaxResults,
				MaxSources: maxSources,
			}, u.index, u.logger)
			if err != nil {
				return nil, err
			}
			if len(enhanced) > 0 {
				final = search.MergePreferring(enhanced, final, take)
			}
		}
	}

	resp := &domain.SearchResponse{
		Query:         req.Query,
		ExpandedQuery: expandedQuery,
		Results:       final,
		TotalResults:  len(final),
		Success:       true,
	}

	// 10. Answer generation.
	if req.IncludeAnswer {
		if err := u.generateAnswer(ctx, req, resp); err != nil {
			return nil, err
		}
	}
	return resp, nil
}

// followUpShortcut resolves the documents cited in the last assistant
// answer and runs the scoped follow-up search against them. handled is
// false when no citations resolve or the scoped search stays below the
// follow-up threshold, in which case the regular pipeline continues.
func (u *searchUsecase) followUpShortcut(ctx context.Context, req domain.SearchRequest) (*domain.SearchResponse, bool, error) {
	last := search.LastAssistantMessage(req.ChatHistory)
	if last == "" {
		return nil, false, nil
	}
	refs := search.ExtractDocumentReferences([]domain.ChatHistoryEntry{{Role: "assistant", Content: last}})
	if len(refs) == 0 {
		return nil, false, nil
	}

	var contextSet []domain.SearchResult
	seen := make(map[string]struct{})
	for _, ref := range refs {
		documentIDs, err := u.index.FindDocumentsByFileName(ctx, ref)
		if err != nil {
			return nil, false, fmt.Errorf("failed to resolve referenced document %q: %w", ref, err)
		}
		for _, id := range documentIDs {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			contextSet = append(contextSet, domain.SearchResult{
				DocumentChunk: domain.DocumentChunk{DocumentID: id, OriginalFileName: ref},
			})
		}
	}
	if len(contextSet) == 0 {
		return nil, false, nil
	}

	queryVector, err := u.embed(ctx, req.Query)
	if err != nil {
		return nil, false, err
	}

	maxSources := u.cfg.MaxSourcesForAnswer
	results, satisfied, err := search.ScopedFollowUp(ctx, search.EnhanceInput{
		Query:      req.Query,
		Vector:     queryVector,
		History:    req.ChatHistory,
		ContextSet: contextSet,
		MaxResults: req.MaxResults,
		MaxSources: maxSources,
	}, u.index, u.logger)
	if err != nil {
		return nil, false, err
	}
	if !satisfied {
		return nil, false, nil
	}

	resp := &domain.SearchResponse{
		Query:        req.Query,
		Results:      results,
		TotalResults: len(results),
		Success:      true,
	}
	if req.IncludeAnswer {
		if err := u.generateAnswer(ctx, req, resp); err != nil {
			return nil, false, err
		}
	}
	u.logger.Info("follow_up_shortcut_taken",
		slog.Int("reference_count", len(refs)),
		slog.Int("result_count", len(results)))
	return resp, true, nil
}

func (u *searchUsecase) fetch(ctx context.Context, req domain.SearchRequest, searchQuery string, queryVector []float32) ([]domain.IndexHit, error) {
	if req.UseSemanticSearch {
		multiplier := 3
		if len(searchQuery) < 20 {
			multiplier = 4
		}
		hits, err := u.index.HybridSearch(ctx, searchQuery, queryVector, req.MaxResults*multiplier, req.DocumentID)
		if err != nil {
			return nil, fmt.Errorf("hybrid search failed: %w", err)
		}
		return hits, nil
	}

	top := req.MaxResults * 2
	if top > 50 {
		top = 50
	}
	hits, err := u.index.KeywordSearch(ctx, searchQuery, top)
	if err != nil {
		return nil, fmt.Errorf("keyword search failed: %w", err)
	}
	return hits, nil
}

func (u *searchUsecase) embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := u.encoder.Encode(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("expected 1 embedding, got %d", len(vectors))
	}
	return vectors[0], nil
}

// isRelatedTopic compares the query embedding against the last user
// turns. Encoding failures only disable the enhancement pass, so they
// are logged and swallowed here.
func (u *searchUsecase) isRelatedTopic(ctx context.Context, query string, queryVector []float32, history []domain.ChatHistoryEntry) bool {
	turns := search.LastUserMessages(history, 3)
	if len(turns) == 0 {
		return false
	}
	vectors, err := u.encoder.Encode(ctx, turns)
	if err != nil {
		u.logger.Warn("related_topic_encoding_failed", slog.String("error", err.Error()))
		return false
	}
	for i, v := range vectors {
		sim := search.CosineSimilarity(queryVector, v)
		if sim >= u.cfg.RelatedTopicSimilarity {
			return true
		}
		if sim >= u.cfg.RelatedTopicWeakSimilarity && search.SharesQuestionStructure(query, turns[i]) {
			return true
		}
	}
	return false
}

// contextFromHistory rebuilds a context set from documents the
// conversation already cited, for follow-ups whose fresh search came
// back empty.
func (u *searchUsecase) contextFromHistory(ctx context.Context, history []domain.ChatHistoryEntry) []domain.SearchResult {
	refs := search.ExtractDocumentReferences(history)
	var contextSet []domain.SearchResult
	seen := make(map[string]struct{})
	for _, ref := range refs {
		documentIDs, err := u.index.FindDocumentsByFileName(ctx, ref)
		if err != nil {
			u.logger.Warn("history_reference_lookup_failed",
				slog.String("reference", ref),
				slog.String("error", err.Error()))
			continue
		}
		for _, id := range documentIDs {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			contextSet = append(contextSet, domain.SearchResult{
				DocumentChunk: domain.DocumentChunk{DocumentID: id, OriginalFileName: ref},
			})
		}
	}
	return contextSet
}

func (u *searchUsecase) generateAnswer(ctx context.Context, req domain.SearchRequest, resp *domain.SearchResponse) error {
	if len(resp.Results) > 0 {
		var answer string
		var err error
		if len(req.ChatHistory) > 0 {
			answer, err = u.answer.AnswerWithHistory(ctx, req.Query, resp.Results, req.ChatHistory)
		} else {
			answer, err = u.answer.Answer(ctx, req.Query, resp.Results)
		}
		if err != nil {
			return fmt.Errorf("answer generation failed: %w", err)
		}
		resp.GeneratedAnswer = answer
		return nil
	}

	// No retrieval results. A conversation with enough substance can
	// still ground an answer; otherwise the fixed message is returned.
	if keywords := search.ExtractKeywords(req.ChatHistory); len(keywords) >= 2 {
		queryVector, err := u.embed(ctx, req.Query)
		if err != nil {
			return err
		}
		enhanced, err := search.Enhance(ctx, search.EnhanceInput{
			Query:      req.Query,
			Vector:     queryVector,
			History:    req.ChatHistory,
			MaxResults: req.MaxResults,
			MaxSources: u.cfg.MaxSourcesForAnswer,
		}, u.index, u.logger)
		if err != nil {
			return err
		}
		if len(enhanced) > 0 {
			take := req.MaxResults
			if u.cfg.MaxSourcesForAnswer < take {
				take = u.cfg.MaxSourcesForAnswer
			}
			resp.Results = search.Diversify(enhanced, take)
			resp.TotalResults = len(resp.Results)
			answer, err := u.answer.AnswerWithHistory(ctx, req.Query, resp.Results, req.ChatHistory)
			if err != nil {
				return fmt.Errorf("answer generation failed: %w", err)
			}
			resp.GeneratedAnswer = answer
			return nil
		}
		answer, err := u.answer.AnswerFromHistoryOnly(ctx, req.Query, req.ChatHistory)
		if err != nil {
			return fmt.Errorf("history-only answer failed: %w", err)
		}
		resp.GeneratedAnswer = answer
		return nil
	}

	resp.GeneratedAnswer = u.answer.NoInformationMessage()
	return nil
}
