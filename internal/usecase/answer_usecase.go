package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"docqa/internal/domain"
)

// ChatConfig tunes answer generation.
type ChatConfig struct {
	// Language of the UI; prompts and the no-information message are
	// emitted in it. "de" or "en".
	Language string
	// MaxHistoryMessages caps how many prior turns are replayed.
	MaxHistoryMessages int
	// BlobFetchTimeout bounds each full-document fetch during context
	// assembly. Fetch failures are non-fatal.
	BlobFetchTimeout time.Duration
	// MaxFullDocumentChars truncates embedded full documents.
	MaxFullDocumentChars int
}

// DefaultChatConfig returns the documented defaults.
func DefaultChatConfig() ChatConfig {
	return ChatConfig{
		Language:             "en",
		MaxHistoryMessages:   10,
		BlobFetchTimeout:     15 * time.Second,
		MaxFullDocumentChars: 8000,
	}
}

// AnswerUsecase composes grounded prompts and calls the chat model.
type AnswerUsecase interface {
	Answer(ctx context.Context, query string, results []domain.SearchResult) (string, error)
	AnswerWithHistory(ctx context.Context, query string, results []domain.SearchResult, history []domain.ChatHistoryEntry) (string, error)
	AnswerFromHistoryOnly(ctx context.Context, query string, history []domain.ChatHistoryEntry) (string, error)
	ExpandQuery(ctx context.Context, query string, history []domain.ChatHistoryEntry) (string, error)
	NoInformationMessage() string
}

type answerUsecase struct {
	chat   domain.ChatClient
	blobs  domain.BlobStore
	cfg    ChatConfig
	logger *slog.Logger
}

// NewAnswerUsecase creates the chat gateway.
func NewAnswerUsecase(chat domain.ChatClient, blobs domain.BlobStore, cfg ChatConfig, logger *slog.Logger) AnswerUsecase {
	if cfg.MaxHistoryMessages <= 0 {
		cfg.MaxHistoryMessages = 10
	}
	if cfg.BlobFetchTimeout <= 0 {
		cfg.BlobFetchTimeout = 15 * time.Second
	}
	return &answerUsecase{chat: chat, blobs: blobs, cfg: cfg, logger: logger}
}

const (
	groundedSystemPromptEN = `You are a document assistant. Answer ONLY from the sources provided below. ` +
		`Cite every statement with its source number, e.g. (Source 1). ` +
		`If the sources do not contain the answer, say so and do not invent one. ` +
		`Answer in English.`
	groundedSystemPromptDE = `Du bist ein Dokumenten-Assistent. Antworte AUSSCHLIESSLICH auf Basis der unten angegebenen Quellen. ` +
		`Belege jede Aussage mit der Quellennummer, z.B. (Quelle 1). ` +
		`Wenn die Quellen die Antwort nicht enthalten, sage das und erfinde keine Antwort. ` +
		`Antworte auf Deutsch.`

	historyOnlySystemPromptEN = `You are a document assistant. No document sources are available for this question. ` +
		`Answer ONLY from the prior conversation below; do not draw on general knowledge. ` +
		`If the conversation does not contain the answer, say so. Answer in English.`
	historyOnlySystemPromptDE = `Du bist ein Dokumenten-Assistent. Für diese Frage sind keine Dokumentquellen verfügbar. ` +
		`Antworte AUSSCHLIESSLICH auf Basis des bisherigen Gesprächs; nutze kein Allgemeinwissen. ` +
		`Wenn das Gespräch die Antwort nicht enthält, sage das. Antworte auf Deutsch.`

	noInformationMessageEN = "I could not find any relevant information in your documents for this question. Please try rephrasing it or ask about a different topic."
	noInformationMessageDE = "Ich konnte in Ihren Dokumenten keine relevanten Informationen zu dieser Frage finden. Bitte formulieren Sie die Frage um oder stellen Sie eine Frage zu einem anderen Thema."

	expandSystemPrompt = `Reformulate the user's question into a single self-contained search query, ` +
		`resolving pronouns and references from the conversation. ` +
		`Respond with the query only, no explanations.`
)

func (u *answerUsecase) NoInformationMessage() string {
	if u.cfg.Language == "de" {
		return noInformationMessageDE
	}
	return noInformationMessageEN
}

func (u *answerUsecase) Answer(ctx context.Context, query string, results []domain.SearchResult) (string, error) {
	contextBlock := u.buildContext(ctx, results)
	messages := []domain.ChatMessage{
		{Role: "system", Content: u.groundedPrompt()},
		{Role: "user", Content: contextBlock + "\n\nQuestion: " + query},
	}
	return u.complete(ctx, messages)
}

func (u *answerUsecase) AnswerWithHistory(ctx context.Context, query string, results []domain.SearchResult, history []domain.ChatHistoryEntry) (string, error) {
	if len(results) == 0 && len(history) > 0 {
		return u.AnswerFromHistoryOnly(ctx, query, history)
	}
	contextBlock := u.buildContext(ctx, results)
	messages := make([]domain.ChatMessage, 0, u.cfg.MaxHistoryMessages+2)
	messages = append(messages, domain.ChatMessage{Role: "system", Content: u.groundedPrompt()})
	messages = append(messages, u.historyMessages(history)...)
	messages = append(messages, domain.ChatMessage{Role: "user", Content: contextBlock + "\n\nQuestion: " + query})
	return u.complete(ctx, messages)
}

func (u *answerUsecase) AnswerFromHistoryOnly(ctx context.Context, query string, history []domain.ChatHistoryEntry) (string, error) {
	prompt := historyOnlySystemPromptEN
	if u.cfg.Language == "de" {
		prompt = historyOnlySystemPromptDE
	}
	messages := make([]domain.ChatMessage, 0, u.cfg.MaxHistoryMessages+2)
	messages = append(messages, domain.ChatMessage{Role: "system", Content: prompt})
	messages = append(messages, u.historyMessages(history)...)
	messages = append(messages, domain.ChatMessage{Role: "user", Content: query})
	return u.complete(ctx, messages)
}

func (u *answerUsecase) ExpandQuery(ctx context.Context, query string, history []domain.ChatHistoryEntry) (string, error) {
	messages := make([]domain.ChatMessage, 0, u.cfg.MaxHistoryMessages+2)
	messages = append(messages, domain.ChatMessage{Role: "system", Content: expandSystemPrompt})
	messages = append(messages, u.historyMessages(history)...)
	messages = append(messages, domain.ChatMessage{Role: "user", Content: query})
	expanded, err := u.complete(ctx, messages)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(expanded), `"`)), nil
}

func (u *answerUsecase) complete(ctx context.Context, messages []domain.ChatMessage) (string, error) {
	answer, err := u.chat.Complete(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	return strings.TrimSpace(answer), nil
}

func (u *answerUsecase) groundedPrompt() string {
	if u.cfg.Language == "de" {
		return groundedSystemPromptDE
	}
	return groundedSystemPromptEN
}

func (u *answerUsecase) historyMessages(history []domain.ChatHistoryEntry) []domain.ChatMessage {
	if len(history) > u.cfg.MaxHistoryMessages {
		history = history[len(history)-u.cfg.MaxHistoryMessages:]
	}
	messages := make([]domain.ChatMessage, 0, len(history))
	for _, h := range history {
		role := h.Role
		if role != "assistant" {
			role = "user"
		}
		messages = append(messages, domain.ChatMessage{Role: role, Content: h.Content})
	}
	return messages
}

// buildContext renders the numbered source block. For text originals
// and extracted-text blobs the full document is fetched once per
// distinct blob path and embedded after the matching chunk; fetch
// failures fall back to the chunk content alone.
func (u *answerUsecase) buildContext(ctx context.Context, results []domain.SearchResult) string {
	fullTexts := u.fetchFullTexts(ctx, results)

	var b strings.Builder
	embedded := make(map[string]struct{})
	for i, r := range results {
		name := r.OriginalFileName
		if name == "" {
			name = r.DocumentID
		}
		fmt.Fprintf(&b, "Source %d: %s\n%s\n", i+1, name, strings.TrimSpace(r.Content))

		path := fullTextPath(r)
		if path == "" {
			b.WriteString("\n")
			continue
		}
		if _, done := embedded[path]; done {
			b.WriteString("\n")
			continue
		}
		if text, ok := fullTexts[path]; ok {
			embedded[path] = struct{}{}
			fmt.Fprintf(&b, "Full document %s:\n%s\n", name, text)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// fetchFullTexts downloads each distinct referenced blob concurrently.
// Every fetch carries its own deadline; a failure is logged and the
// path simply stays absent from the map.
func (u *answerUsecase) fetchFullTexts(ctx context.Context, results []domain.SearchResult) map[string]string {
	var paths []string
	seen := make(map[string]struct{})
	for _, r := range results {
		path := fullTextPath(r)
		if path == "" {
			continue
		}
		if _, dup := seen[path]; dup {
			continue
		}
		seen[path] = struct{}{}
		paths = append(paths, path)
	}
	if len(paths) == 0 {
		return nil
	}

	fullTexts := make(map[string]string, len(paths))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, path := range paths {
		g.Go(func() error {
			fetchCtx, cancel := context.WithTimeout(gctx, u.cfg.BlobFetchTimeout)
			defer cancel()

			reader, err := u.blobs.Download(fetchCtx, path)
			if err != nil {
				u.logger.Warn("context_blob_fetch_failed",
					slog.String("blob_path", path),
					slog.String("error", err.Error()))
				return nil
			}
			defer func() { _ = reader.Close() }()

			data, err := io.ReadAll(reader)
			if err != nil {
				u.logger.Warn("context_blob_read_failed",
					slog.String("blob_path", path),
					slog.String("error", err.Error()))
				return nil
			}

			text := string(data)
			if u.cfg.MaxFullDocumentChars > 0 && len(text) > u.cfg.MaxFullDocumentChars {
				text = text[:u.cfg.MaxFullDocumentChars]
			}
			mu.Lock()
			fullTexts[path] = text
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return fullTexts
}

// fullTextPath picks the blob to embed for a result: the extracted
// text when present, otherwise the original if it is itself text.
func fullTextPath(r domain.SearchResult) string {
	if r.TextContentBlobPath != "" {
		return r.TextContentBlobPath
	}
	if r.BlobPath != "" && domain.IsTextContent(r.ContentType, r.OriginalFileName) {
		return r.BlobPath
	}
	return ""
}
