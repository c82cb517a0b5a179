//go:build !llamacpp

package llm

import (
	"context"
	"errors"
)

// ErrLocalUnavailable is returned by the stub LocalClient.
var ErrLocalUnavailable = errors.New("local model not available: build with -tags llamacpp")

// LocalClient is the stub used when the llamacpp build tag is not set. It
// reports Available()=false so callers fall back to built-in content.
type LocalClient struct {
	cfg LocalConfig
}

// NewLocalClient creates a LocalClient. In the stub build it is never
// available.
func NewLocalClient(cfg LocalConfig) *LocalClient {
	return &LocalClient{cfg: cfg}
}

// Available returns false because the local model is not compiled in.
func (c *LocalClient) Available() bool { return false }

// Complete always returns ErrLocalUnavailable.
func (c *LocalClient) Complete(context.Context, CompletionRequest) (string, error) {
	return "", ErrLocalUnavailable
}

// Close is a no-op for the stub client.
func (c *LocalClient) Close() error { return nil }
