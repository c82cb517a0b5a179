package llm

import (
	"context"
	"errors"
	"testing"
)

func TestNewFallbackClient(t *testing.T) {
	client := NewFallbackClient()
	if client == nil {
		t.Error("NewFallbackClient() returned nil")
	}
}

func TestFallbackClient_Available(t *testing.T) {
	client := NewFallbackClient()
	if client.Available() {
		t.Error("FallbackClient.Available() should return false")
	}
}

func TestFallbackClient_Complete(t *testing.T) {
	_, err := NewFallbackClient().Complete(context.Background(), CompletionRequest{})
	if !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("Complete() error = %v, want ErrNoAPIKey", err)
	}
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name     string
		cfg      ClientConfig
		wantType string
	}{
		{"no key", ClientConfig{Provider: "openrouter"}, "fallback"},
		{"forced fallback", ClientConfig{Provider: "fallback", APIKey: "k"}, "fallback"},
		{"openrouter", ClientConfig{Provider: "openrouter", APIKey: "k"}, "openrouter"},
		{"local without key", ClientConfig{Provider: "local"}, "local"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := "other"
			switch NewClient(tt.cfg).(type) {
			case *FallbackClient:
				got = "fallback"
			case *OpenRouterClient:
				got = "openrouter"
			case *LocalClient:
				got = "local"
			}
			if got != tt.wantType {
				t.Errorf("NewClient() = %s, want %s", got, tt.wantType)
			}
		})
	}
}
