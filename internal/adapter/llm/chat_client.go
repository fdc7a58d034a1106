package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"docqa/internal/domain"
)

// ChatClientConfig configures the chat completions client.
type ChatClientConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
}

// ChatClient calls the /v1/chat/completions endpoint.
type ChatClient struct {
	cfg    ChatClientConfig
	client *http.Client
	logger *slog.Logger
}

// NewChatClient creates the chat completions client.
func NewChatClient(cfg ChatClientConfig, client *http.Client, logger *slog.Logger) *ChatClient {
	return &ChatClient{cfg: cfg, client: client, logger: logger}
}

type chatCompletionRequest struct {
	Model       string               `json:"model"`
	Messages    []domain.ChatMessage `json:"messages"`
	Temperature float64              `json:"temperature"`
	MaxTokens   int                  `json:"max_tokens,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

func (c *ChatClient) Complete(ctx context.Context, messages []domain.ChatMessage) (string, error) {
	start := time.Now()
	c.logger.Info("chat_completion_started",
		slog.Int("message_count", len(messages)),
		slog.String("model", c.cfg.Model))

	payload, err := json.Marshal(chatCompletionRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat request: %w", err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/v1/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("chat_completion_failed",
			slog.String("error", err.Error()),
			slog.Duration("elapsed", time.Since(start)))
		return "", fmt.Errorf("failed to call chat endpoint: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.logger.Error("chat_completion_bad_status",
			slog.Int("status", resp.StatusCode),
			slog.Duration("elapsed", time.Since(start)))
		return "", fmt.Errorf("chat endpoint returned %d: %s", resp.StatusCode, truncate(string(body), 500))
	}

	var decoded chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("failed to decode chat response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return "", fmt.Errorf("chat endpoint returned no choices")
	}

	c.logger.Info("chat_completion_done",
		slog.String("finish_reason", decoded.Choices[0].FinishReason),
		slog.Duration("elapsed", time.Since(start)))
	return decoded.Choices[0].Message.Content, nil
}

func (c *ChatClient) Version() string {
	return c.cfg.Model
}

var _ domain.ChatClient = (*ChatClient)(nil)
