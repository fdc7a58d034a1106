// Package extract turns uploaded files into plain text. Text formats
// pass through directly; binary formats (PDF, Word) are sent to an
// external extraction service when one is configured.
package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"docqa/internal/domain"
)

// Config points at the optional extraction service. With an empty
// BaseURL only native text formats are accepted.
type Config struct {
	BaseURL string
}

type extractor struct {
	cfg    Config
	client *http.Client
	logger *slog.Logger
}

// NewExtractor creates the text extractor.
func NewExtractor(cfg Config, client *http.Client, logger *slog.Logger) domain.TextExtractor {
	return &extractor{cfg: cfg, client: client, logger: logger}
}

func (e *extractor) Extract(ctx context.Context, fileName, contentType string, data []byte) (string, bool, error) {
	if domain.IsTextContent(contentType, fileName) {
		text := string(bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF}))
		if !utf8.ValidString(text) {
			return "", false, fmt.Errorf("%w: file %s is not valid UTF-8 text", domain.ErrValidation, fileName)
		}
		return text, true, nil
	}

	if e.cfg.BaseURL == "" {
		return "", false, fmt.Errorf("%w: no text extractor configured for %s", domain.ErrValidation, contentType)
	}
	text, err := e.extractRemote(ctx, fileName, contentType, data)
	if err != nil {
		return "", false, err
	}
	return text, false, nil
}

type extractResponse struct {
	Text string `json:"text"`
}

func (e *extractor) extractRemote(ctx context.Context, fileName, contentType string, data []byte) (string, error) {
	start := time.Now()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return "", fmt.Errorf("failed to build extract request: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("failed to build extract request: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to build extract request: %w", err)
	}

	url := strings.TrimRight(e.cfg.BaseURL, "/") + "/extract"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return "", fmt.Errorf("failed to create extract request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("X-Source-Content-Type", contentType)

	resp, err := e.client.Do(req)
	if err != nil {
		e.logger.Error("extract_request_failed",
			slog.String("file_name", fileName),
			slog.String("error", err.Error()),
			slog.Duration("elapsed", time.Since(start)))
		return "", fmt.Errorf("failed to call extractor: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnprocessableEntity {
		return "", fmt.Errorf("%w: extractor cannot read %s", domain.ErrValidation, fileName)
	}
	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("extractor returned %d: %s", resp.StatusCode, truncate(string(payload), 300))
	}

	var decoded extractResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("failed to decode extract response: %w", err)
	}

	e.logger.Info("extract_completed",
		slog.String("file_name", fileName),
		slog.Int("text_length", len(decoded.Text)),
		slog.Duration("elapsed", time.Since(start)))
	return decoded.Text, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
