// Package main is the docqactl admin CLI for the document QA service.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"docqa/internal/adapter/repository"
	"docqa/internal/domain"
	"docqa/internal/infra"
	"docqa/internal/infra/config"
)

var (
	verbose bool
	cfg     *config.Config
	logger  *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "docqactl",
	Short: "Admin CLI for the document QA index",
	Long: `docqactl manages the document QA service's search index directly,
without going through the HTTP API.

Example usage:
  docqactl init-index              # Create or upgrade the index schema
  docqactl stats                   # Per-document chunk counts
  docqactl stats <document-id>     # Stats for one document
  docqactl delete <document-id>    # Remove a document and its blobs
  docqactl probe "error handling"  # Keyword-search the index`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		cfg = config.Load()
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// withIndex connects to the database, builds the index client and runs fn.
func withIndex(fn func(ctx context.Context, pool *pgxpool.Pool, index domain.IndexClient) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	pool, err := infra.NewPostgresDB(ctx, cfg.DB.DSN(), infra.PoolConfig{
		MaxConns: cfg.DB.MaxConns,
		MinConns: cfg.DB.MinConns,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to db: %w", err)
	}
	defer pool.Close()

	schema := domain.ChunkIndexSchema(cfg.Index.Name, cfg.Index.EmbeddingDim, domain.HNSWParams{
		M:              cfg.Index.HNSWM,
		EfConstruction: cfg.Index.EfConstruction,
		EfSearch:       cfg.Index.EfSearch,
	})
	return fn(ctx, pool, repository.NewIndexClient(pool, schema, logger))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Stderr.WriteString("Error: " + err.Error() + "\n")
		os.Exit(1)
	}
}
