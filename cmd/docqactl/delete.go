package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"docqa/internal/adapter/blobstore"
	"docqa/internal/domain"
	"docqa/internal/usecase"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <document-id>",
	Short: "Remove a document's chunks and stored files",
	Long: `Deletes all indexed chunks of a document and its blobs (the stored
original and, for binary uploads, the extracted text).

With --chunks-only, blobs are left in place and only the index rows
are removed.`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)

	deleteCmd.Flags().Bool("chunks-only", false, "delete index rows but keep blobs")
}

func runDelete(cmd *cobra.Command, args []string) error {
	chunksOnly, _ := cmd.Flags().GetBool("chunks-only")
	documentID := args[0]

	return withIndex(func(ctx context.Context, pool *pgxpool.Pool, index domain.IndexClient) error {
		if chunksOnly {
			removed, err := index.DeleteDocument(ctx, documentID)
			if err != nil {
				return fmt.Errorf("failed to delete document: %w", err)
			}
			if !removed {
				fmt.Printf("Document %s not found\n", documentID)
				return nil
			}
			fmt.Printf("Deleted chunks of %s (blobs kept)\n", documentID)
			return nil
		}

		blobs, err := blobstore.NewGCSStore(ctx, cfg.Blob.Bucket, logger)
		if err != nil {
			return fmt.Errorf("failed to init blob store: %w", err)
		}
		documents := usecase.NewDocumentsUsecase(index, blobs, logger)
		if err := documents.Delete(ctx, documentID); err != nil {
			return err
		}
		fmt.Printf("Deleted %s\n", documentID)
		return nil
	})
}
