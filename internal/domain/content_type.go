package domain

import (
	"path/filepath"
	"strings"
)

// textExtensions are file extensions treated as native plain text.
var textExtensions = map[string]struct{}{
	".txt": {}, ".md": {}, ".json": {}, ".xml": {}, ".csv": {}, ".log": {},
}

// IsTextContent reports whether a stored original can be read back as
// plain text, judged by content type first and file extension second.
func IsTextContent(contentType, fileName string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if strings.HasPrefix(ct, "text/") || ct == "application/json" || ct == "application/xml" {
		return true
	}
	_, ok := textExtensions[strings.ToLower(filepath.Ext(fileName))]
	return ok
}

// ContentTypeForFileName corrects a client-supplied content type from
// the file extension. Unknown extensions fall back to the supplied
// type, or application/octet-stream.
func ContentTypeForFileName(fileName, fallback string) string {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".txt", ".log":
		return "text/plain"
	case ".md":
		return "text/markdown"
	case ".csv":
		return "text/csv"
	case ".json":
		return "application/json"
	case ".xml":
		return "application/xml"
	case ".pdf":
		return "application/pdf"
	case ".doc":
		return "application/msword"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".html", ".htm":
		return "text/html"
	}
	if fallback != "" {
		return fallback
	}
	return "application/octet-stream"
}
