package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"docqa/internal/adapter/llm"
	"docqa/internal/domain"
	"docqa/internal/infra/httpclient"
)

var probeCmd = &cobra.Command{
	Use:   "probe <query>",
	Short: "Search the index directly",
	Long: `Runs a query against the chunk index and prints the top hits with
their scores. The default lexical mode needs no embedding service,
which makes it useful for checking that ingestion produced searchable
content. With --semantic, the query is embedded and matched by ANN
instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runProbe,
}

func init() {
	rootCmd.AddCommand(probeCmd)

	probeCmd.Flags().Int("top", 10, "maximum hits to print")
	probeCmd.Flags().Int("snippet", 120, "snippet length per hit")
	probeCmd.Flags().Bool("semantic", false, "embed the query and search by vector similarity")
}

func runProbe(cmd *cobra.Command, args []string) error {
	top, _ := cmd.Flags().GetInt("top")
	snippet, _ := cmd.Flags().GetInt("snippet")
	semantic, _ := cmd.Flags().GetBool("semantic")

	return withIndex(func(ctx context.Context, pool *pgxpool.Pool, index domain.IndexClient) error {
		var hits []domain.IndexHit
		var err error
		if semantic {
			hits, err = vectorProbe(ctx, index, args[0], top)
		} else {
			hits, err = index.KeywordSearch(ctx, args[0], top)
		}
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
		if len(hits) == 0 {
			fmt.Println("No hits")
			return nil
		}
		for i, hit := range hits {
			content := hit.Chunk.Content
			if len(content) > snippet {
				content = content[:snippet] + "..."
			}
			fmt.Printf("%2d. [%.3f] %s#%d\n    %s\n",
				i+1, hit.Score, hit.Chunk.DocumentID, hit.Chunk.ChunkIndex, content)
		}
		return nil
	})
}

func vectorProbe(ctx context.Context, index domain.IndexClient, query string, top int) ([]domain.IndexHit, error) {
	encoder := llm.NewEmbedder(llm.EmbedderConfig{
		BaseURL:           cfg.Embedder.BaseURL,
		APIKey:            cfg.Embedder.APIKey,
		Model:             cfg.Embedder.Model,
		Dimensions:        cfg.Embedder.Dimensions,
		RequestsPerSecond: cfg.Embedder.RequestsPerSecond,
	}, httpclient.NewPooledClient(time.Duration(cfg.Embedder.TimeoutSeconds)*time.Second), logger)

	vectors, err := encoder.Encode(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	return index.VectorSearch(ctx, vectors[0], top)
}
