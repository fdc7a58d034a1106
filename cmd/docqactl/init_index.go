package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"docqa/internal/domain"
)

var initIndexCmd = &cobra.Command{
	Use:   "init-index",
	Short: "Create or upgrade the index schema",
	Long: `Creates the chunk table, the pgvector extension and all indexes if
they do not exist yet. An existing table missing newer metadata
columns is upgraded in place without data loss.`,
	Args: cobra.NoArgs,
	RunE: runInitIndex,
}

func init() {
	rootCmd.AddCommand(initIndexCmd)
}

func runInitIndex(cmd *cobra.Command, args []string) error {
	return withIndex(func(ctx context.Context, pool *pgxpool.Pool, index domain.IndexClient) error {
		if err := index.Initialize(ctx); err != nil {
			return fmt.Errorf("failed to initialize index: %w", err)
		}
		fmt.Printf("Index %q ready (dim=%d, hnsw m=%d ef_construction=%d)\n",
			cfg.Index.Name, cfg.Index.EmbeddingDim, cfg.Index.HNSWM, cfg.Index.EfConstruction)
		return nil
	})
}
