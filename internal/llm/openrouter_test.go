package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *OpenRouterClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewOpenRouterClient(ClientConfig{APIKey: "test-key", BaseURL: srv.URL + "/"})
}

func TestOpenRouterClient_Complete(t *testing.T) {
	var got chatRequest
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("Authorization = %q", auth)
		}
		if r.Header.Get("X-Title") != "Clawback" {
			t.Errorf("X-Title = %q", r.Header.Get("X-Title"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decoding body: %v", err)
		}
		w.Write([]byte(`{"choices":[{"message":{"content":"  hello there  "}}]}`))
	})

	text, err := client.Complete(context.Background(), CompletionRequest{
		Messages:    []Message{{Role: RoleUser, Content: "hi"}},
		MaxTokens:   80,
		Temperature: 0.9,
		JSONMode:    true,
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if text != "hello there" {
		t.Errorf("text = %q", text)
	}
	if got.Model != OpenRouterDefaultModel || got.MaxTokens != 80 {
		t.Errorf("request = %+v", got)
	}
	if got.ResponseFormat == nil || got.ResponseFormat.Type != "json_object" {
		t.Errorf("response_format = %+v", got.ResponseFormat)
	}
}

func TestOpenRouterClient_Errors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		permanent bool
		empty     bool
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":{"message":"bad key"}}`, true, false},
		{"unavailable", http.StatusServiceUnavailable, `down`, true, false},
		{"server error", http.StatusInternalServerError, `oops`, false, false},
		{"no choices", http.StatusOK, `{"choices":[]}`, false, true},
		{"blank content", http.StatusOK, `{"choices":[{"message":{"content":"   "}}]}`, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			_, err := client.Complete(context.Background(), CompletionRequest{})
			if err == nil {
				t.Fatal("expected an error")
			}
			var se *StatusError
			if errors.As(err, &se) {
				if se.Permanent() != tt.permanent {
					t.Errorf("Permanent() = %v, want %v", se.Permanent(), tt.permanent)
				}
			} else if tt.permanent {
				t.Errorf("error %v is not a StatusError", err)
			}
			if errors.Is(err, ErrEmptyResponse) != tt.empty {
				t.Errorf("ErrEmptyResponse = %v, want %v (err %v)", !tt.empty, tt.empty, err)
			}
		})
	}
}

func TestOpenRouterClient_ContextTimeout(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.Complete(ctx, CompletionRequest{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want deadline exceeded", err)
	}
}

func TestOpenRouterClient_NoKey(t *testing.T) {
	client := NewOpenRouterClient(ClientConfig{})
	if client.Available() {
		t.Error("client without key reports available")
	}
	if _, err := client.Complete(context.Background(), CompletionRequest{}); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("error = %v, want ErrNoAPIKey", err)
	}
}
