package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"docqa/internal/domain"
)

var statsCmd = &cobra.Command{
	Use:   "stats [document-id]",
	Short: "Show per-document chunk counts",
	Long: `Without arguments, lists indexed documents newest first with their
chunk counts. With a document ID, shows that document only.

Examples:
  docqactl stats                 # All documents
  docqactl stats --limit 50      # More documents per page
  docqactl stats doc-1234        # One document
  docqactl stats --json          # Output as JSON`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().Bool("json", false, "output as JSON")
	statsCmd.Flags().Int("limit", 20, "maximum documents to list")
	statsCmd.Flags().Int("skip", 0, "documents to skip")
}

type documentStats struct {
	DocumentID  string `json:"documentId"`
	ChunkCount  int    `json:"chunkCount"`
	LastUpdated string `json:"lastUpdated,omitempty"`
}

func runStats(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	limit, _ := cmd.Flags().GetInt("limit")
	skip, _ := cmd.Flags().GetInt("skip")

	return withIndex(func(ctx context.Context, pool *pgxpool.Pool, index domain.IndexClient) error {
		var ids []string
		if len(args) == 1 {
			ids = []string{args[0]}
		} else {
			var err error
			ids, err = index.ListDocumentIDs(ctx, limit, skip)
			if err != nil {
				return fmt.Errorf("failed to list documents: %w", err)
			}
		}

		stats := make([]documentStats, 0, len(ids))
		for _, id := range ids {
			count, err := index.GetChunkCount(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to count chunks of %s: %w", id, err)
			}
			s := documentStats{DocumentID: id, ChunkCount: count}
			if updated, err := index.GetLastUpdated(ctx, id); err == nil && !updated.IsZero() {
				s.LastUpdated = updated.Format("2006-01-02 15:04:05")
			}
			stats = append(stats, s)
		}

		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(stats)
		}

		if len(stats) == 0 {
			fmt.Println("No documents found")
			return nil
		}
		fmt.Printf("%-40s %8s  %s\n", "DOCUMENT", "CHUNKS", "LAST UPDATED")
		for _, s := range stats {
			fmt.Printf("%-40s %8d  %s\n", s.DocumentID, s.ChunkCount, s.LastUpdated)
		}
		return nil
	})
}
