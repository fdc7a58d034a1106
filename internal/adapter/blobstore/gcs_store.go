// Package blobstore persists original documents and extracted text in
// Google Cloud Storage.
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"cloud.google.com/go/storage"

	"docqa/internal/domain"
)

const (
	uploadTimeout = 2 * time.Minute
	probeTimeout  = 30 * time.Second
)

type gcsStore struct {
	client *storage.Client
	bucket string
	logger *slog.Logger
}

// NewGCSStore creates a blob store on the given bucket. Credentials
// come from the ambient environment; STORAGE_EMULATOR_HOST is honored
// by the client library.
func NewGCSStore(ctx context.Context, bucket string, logger *slog.Logger) (domain.BlobStore, error) {
	if bucket == "" {
		return nil, fmt.Errorf("bucket name must not be empty")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	logger.Info("blob_store_initialized", slog.String("bucket", bucket))
	return &gcsStore{client: client, bucket: bucket, logger: logger}, nil
}

func (s *gcsStore) Upload(ctx context.Context, key string, data io.Reader, contentType string, metadata map[string]string) error {
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	w.Metadata = metadata
	if _, err := io.Copy(w, data); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write object %q: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finish upload of %q: %w", key, err)
	}
	return nil
}

func (s *gcsStore) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	reader, err := s.client.Bucket(s.bucket).Object(key).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("%w: object %s", domain.ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open object %q: %w", key, err)
	}
	return reader, nil
}

func (s *gcsStore) Exists(ctx context.Context, key string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	_, err := s.client.Bucket(s.bucket).Object(key).Attrs(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat object %q: %w", key, err)
	}
	return true, nil
}

// Delete removes an object; deleting an absent object is a no-op.
func (s *gcsStore) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	err := s.client.Bucket(s.bucket).Object(key).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete object %q: %w", key, err)
	}
	return nil
}
