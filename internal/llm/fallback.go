package llm

import "context"

// FallbackClient implements Client for sessions without a backend. Every
// call fails with ErrNoAPIKey so callers switch to local content.
type FallbackClient struct{}

// NewFallbackClient creates a new FallbackClient.
func NewFallbackClient() *FallbackClient {
	return &FallbackClient{}
}

// Complete always returns ErrNoAPIKey.
func (c *FallbackClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	return "", ErrNoAPIKey
}

// Available returns false because this is a fallback client.
// This signals to selection logic that an LLM provider should be preferred.
func (c *FallbackClient) Available() bool {
	return false
}
