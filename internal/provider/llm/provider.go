// Package llm defines the Provider interface for the annotation model.
//
// A provider wraps a remote chat-style model API and exposes a single
// blocking completion call so the extractor is not coupled to any SDK.
// Implementations must be safe for concurrent use and honour ctx
// cancellation.
package llm

import "context"

// Message is one turn of the conversation sent to the model.
type Message struct {
	// Role is "user" or "assistant".
	Role    string
	Content string
}

// UserMessage returns a user-role message.
func UserMessage(content string) Message {
	return Message{Role: "user", Content: content}
}

// Usage holds token accounting returned by the backend.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// CompletionRequest carries everything the model needs to produce a reply.
type CompletionRequest struct {
	// SystemPrompt is sent through the provider's dedicated system channel.
	SystemPrompt string

	// Messages is the ordered conversation; the last entry drives the reply.
	Messages []Message

	// MaxTokens caps the reply length. Zero means the provider default.
	MaxTokens int

	// Temperature controls randomness. Zero leaves the provider default.
	Temperature float64
}

// CompletionResponse is the model's full text reply.
type CompletionResponse struct {
	Content string
	Usage   Usage
}

// Provider is the abstraction over any annotation model backend.
type Provider interface {
	// Complete sends req and waits for the full reply. Any failure to
	// obtain a reply (network, status, empty content) is returned as an
	// error.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}
