package domain

import (
	"context"
	"io"
)

// BlobStore defines the contract with the object storage backend.
// Originals and extracted text live in a single flat container; object
// keys are `<uuid>_<sanitized-filename>` and
// `<uuid>_<sanitized-filename>_content.txt`.
type BlobStore interface {
	// Upload writes an object. Metadata keys must be ASCII-safe; the
	// original file name round-trips via its base64 metadata entry.
	Upload(ctx context.Context, key string, data io.Reader, contentType string, metadata map[string]string) error

	// Download opens the object for reading. Returns ErrNotFound if
	// the key is absent.
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// Exists probes for the key without reading the payload.
	Exists(ctx context.Context, key string) (bool, error)

	// Delete removes the object. Deleting an absent key is a no-op.
	Delete(ctx context.Context, key string) error
}
