package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	// OpenRouterBaseURL is the default API root.
	OpenRouterBaseURL = "https://openrouter.ai/api/v1"

	// OpenRouterDefaultModel is used when no model is configured.
	OpenRouterDefaultModel = "deepseek/deepseek-chat-v3-0324"

	refererHeader = "https://clawback.dev"
	titleHeader   = "Clawback"
	maxErrorBody  = 512
)

// OpenRouterClient implements Client against the OpenRouter chat completions
// endpoint, or any OpenAI-compatible endpoint at BaseURL.
type OpenRouterClient struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// NewOpenRouterClient creates a new OpenRouterClient with the given
// configuration. Empty fields fall back to DefaultConfig values.
func NewOpenRouterClient(config ClientConfig) *OpenRouterClient {
	defaults := DefaultConfig()

	model := config.Model
	if model == "" {
		model = defaults.Model
	}
	base := config.BaseURL
	if base == "" {
		base = defaults.BaseURL
	}
	timeout := config.Timeout
	if timeout == 0 {
		timeout = defaults.Timeout
	}

	return &OpenRouterClient{
		apiKey:   config.APIKey,
		model:    model,
		endpoint: strings.TrimRight(base, "/") + "/chat/completions",
		client:   &http.Client{Timeout: timeout},
	}
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Code    any    `json:"code"`
	} `json:"error,omitempty"`
}

// Available returns true if an API key is present.
func (c *OpenRouterClient) Available() bool {
	return c.apiKey != ""
}

// Model returns the configured model identifier.
func (c *OpenRouterClient) Model() string { return c.model }

// Complete makes a request to the chat completions API.
func (c *OpenRouterClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if !c.Available() {
		return "", ErrNoAPIKey
	}

	body := chatRequest{
		Model:       c.model,
		Messages:    req.Messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	if req.JSONMode {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("HTTP-Referer", refererHeader)
	httpReq.Header.Set("X-Title", titleHeader)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := string(data)
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody]
		}
		return "", &StatusError{Code: resp.StatusCode, Body: msg}
	}

	var chatResp chatResponse
	if err := json.Unmarshal(data, &chatResp); err != nil {
		return "", fmt.Errorf("parsing API response: %w", err)
	}
	if chatResp.Error != nil {
		return "", fmt.Errorf("API error: %s", chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no choices in API response: %w", ErrEmptyResponse)
	}

	text := strings.TrimSpace(chatResp.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
