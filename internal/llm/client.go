// Package llm is the transport to an OpenAI-compatible chat completions
// backend. It knows how to phrase prompts for request, persona and narrative
// generation and how to talk to OpenRouter; it does not validate what comes
// back. That is the job of the provider package.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Role is the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one chat message.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is one chat completion call.
type CompletionRequest struct {
	Messages    []Message
	MaxTokens   int
	Temperature float64

	// JSONMode asks the backend for a JSON object response.
	JSONMode bool
}

var (
	// ErrNoAPIKey means the client has no credentials configured.
	ErrNoAPIKey = errors.New("no API key configured")

	// ErrEmptyResponse means the backend answered without any content.
	ErrEmptyResponse = errors.New("empty response from model")
)

// StatusError is a non-200 answer from the backend.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API returned status %d: %s", e.Code, e.Body)
}

// Permanent reports whether retrying the backend this session is pointless:
// bad or missing credentials, or the service reporting itself unavailable.
func (e *StatusError) Permanent() bool {
	return e.Code == 401 || e.Code == 403 || e.Code == 503
}

// ClientConfig configures a client.
type ClientConfig struct {
	// Provider identifies the backend: "openrouter", "local" or "fallback".
	Provider string `json:"provider" yaml:"provider"`

	// APIKey is the bearer token sent to the backend.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// BaseURL is the API root, without the /chat/completions suffix.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// Model is the model identifier sent with every request.
	Model string `json:"model,omitempty" yaml:"model,omitempty"`

	// Timeout bounds a single HTTP exchange. Callers usually pass a tighter
	// context deadline per call.
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`

	// Local configures the in-process model used by the "local" provider.
	Local LocalConfig `json:"local,omitempty" yaml:"local,omitempty"`
}

// DefaultConfig returns a ClientConfig with sensible defaults.
func DefaultConfig() ClientConfig {
	return ClientConfig{
		Provider: "openrouter",
		BaseURL:  OpenRouterBaseURL,
		Model:    OpenRouterDefaultModel,
		Timeout:  30 * time.Second,
	}
}

// Client is a chat completions backend.
type Client interface {
	// Complete sends the request and returns the text of the first choice.
	Complete(ctx context.Context, req CompletionRequest) (string, error)

	// Available returns true if the client is configured and ready to handle
	// requests. For API-based clients, this checks that credentials are present.
	Available() bool
}

// NewClient picks a backend for cfg. The "local" provider gets a
// LocalClient. Otherwise, without an API key or when the provider is
// "fallback", it returns a FallbackClient.
func NewClient(cfg ClientConfig) Client {
	switch {
	case cfg.Provider == "local":
		return NewLocalClient(cfg.Local)
	case cfg.Provider == "fallback" || cfg.APIKey == "":
		return NewFallbackClient()
	default:
		return NewOpenRouterClient(cfg)
	}
}
