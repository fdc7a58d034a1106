package domain

import "context"

// ChatMessage is one turn of a chat completion request.
type ChatMessage struct {
	Role    string `json:"role"` // "system", "user" or "assistant"
	Content string `json:"content"`
}

// ChatClient defines the capability to run a chat completion and
// return the assistant's text.
type ChatClient interface {
	Complete(ctx context.Context, messages []ChatMessage) (string, error)
	Version() string
}
