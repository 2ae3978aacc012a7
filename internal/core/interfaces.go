package core

import "context"

// Provider defines the interface for a single upstream LLM provider bound to
// one credential.
type Provider interface {
	// ChatCompletion executes a chat completion request
	ChatCompletion(ctx context.Context, req *ChatRequest) (*ChatResponse, error)
}

// CompletionRequest carries everything the gateway needs for one call.
// Credential travels out-of-band from the messages and is never embedded in
// the prompt text.
type CompletionRequest struct {
	Provider    string
	Model       string
	Messages    []Message
	Temperature float64
	MaxTokens   int
	Credential  string
}

// Completer is the single capability the enhancement pipeline depends on:
// given a provider, model and messages, return a normalized completion or a
// typed *Error.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (*ChatResponse, error)
}
