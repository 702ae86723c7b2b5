package llm

import "context"

// Provider defines the interface for LLM providers. Card generation uses
// Complete (single-turn, request/response); the interactive chat path uses
// Stream. Cancelling the context aborts the underlying transport in both
// modes.
type Provider interface {
	// Complete sends a completion request and returns the full response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	// Stream sends a completion request and returns a channel of chunks.
	// The channel is closed after a Done or Err chunk; it is not
	// restartable.
	Stream(ctx context.Context, req CompletionRequest) (<-chan Chunk, error)
	// Name returns the name of this provider.
	Name() string
}
