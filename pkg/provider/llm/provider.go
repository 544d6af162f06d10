// Package llm defines a small text-completion interface for background
// language tasks. The realtime session handles the conversational path;
// this interface serves offline work such as daily summarisation, where any
// chat-capable backend will do.
//
// Implementations must be safe for concurrent use.
package llm

import "context"

// Message is a single chat message.
type Message struct {
	// Role is "system", "user" or "assistant".
	Role string

	// Content is the message text.
	Content string
}

// CompletionRequest describes a single completion call.
type CompletionRequest struct {
	// SystemPrompt, when non-empty, is prepended as a system message.
	SystemPrompt string

	// Messages is the conversation to complete.
	Messages []Message

	// Temperature controls sampling randomness. Zero means provider default.
	Temperature float64

	// MaxTokens caps the response length. Zero means provider default.
	MaxTokens int
}

// CompletionResponse is the model's reply.
type CompletionResponse struct {
	// Content is the response text.
	Content string
}

// Provider is the abstraction over a chat-completion backend.
type Provider interface {
	// Complete performs a single blocking completion call.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}
