package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"docqa/internal/domain"
)

var showCmd = &cobra.Command{
	Use:   "show <document-id> <chunk-index>",
	Short: "Print a chunk with its neighbors",
	Long: `Prints the given chunk together with the chunks around it, in index
order. Useful for checking how a passage was split across chunk
boundaries.`,
	Args: cobra.ExactArgs(2),
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)

	showCmd.Flags().Int("radius", 1, "neighbors on each side")
}

func runShow(cmd *cobra.Command, args []string) error {
	radius, _ := cmd.Flags().GetInt("radius")
	chunkIndex, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("chunk-index must be a number: %w", err)
	}

	return withIndex(func(ctx context.Context, pool *pgxpool.Pool, index domain.IndexClient) error {
		chunks, err := index.GetAdjacentChunks(ctx, args[0], chunkIndex, radius)
		if err != nil {
			return fmt.Errorf("failed to fetch chunks: %w", err)
		}
		if len(chunks) == 0 {
			fmt.Printf("No chunks around %s#%d\n", args[0], chunkIndex)
			return nil
		}
		for _, chunk := range chunks {
			marker := " "
			if chunk.ChunkIndex == chunkIndex {
				marker = "*"
			}
			fmt.Printf("%s %s#%d\n%s\n\n", marker, chunk.DocumentID, chunk.ChunkIndex, chunk.Content)
		}
		return nil
	})
}
