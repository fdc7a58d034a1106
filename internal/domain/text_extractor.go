package domain

import "context"

// TextExtractor extracts plain text from an uploaded file. nativeText
// reports whether the original already is plain text (in which case no
// separate extracted-text blob is stored).
type TextExtractor interface {
	Extract(ctx context.Context, fileName, contentType string, data []byte) (text string, nativeText bool, err error)
}
