package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nvandessel/clawback/internal/llm"
	"github.com/nvandessel/clawback/internal/models"
	"github.com/nvandessel/clawback/internal/ratelimit"
)

const validRequest = `{"title": "Read the todo", "tier": 1, "deadlineTicks": 60, "basePoints": 50,
	"objectives": [{"validator": "file_read", "params": {"path": "/home/user/documents/todo.md"}}]}`

const validPersonas = `{"npcs": [{"name": "A", "role": "R1"}, {"name": "B", "role": "R2"}, {"name": "C", "role": "R3"}]}`

// unlimited returns limiters that never block.
func unlimited() ratelimit.Set {
	return ratelimit.Set{}
}

func TestGateway_GenerateRequest(t *testing.T) {
	mock := llm.NewMockClient().WithResponses(validRequest)
	g := New(mock, Options{Limiters: unlimited()})

	r, err := g.GenerateRequest(context.Background(), testBrief())
	if err != nil {
		t.Fatalf("GenerateRequest() error = %v", err)
	}
	if r.Title != "Read the todo" || r.NPCID != "sarah" {
		t.Errorf("request = %+v", r)
	}
	if mock.CallCount() != 1 {
		t.Errorf("calls = %d", mock.CallCount())
	}
	if !mock.Calls[0].JSONMode {
		t.Error("request generation should ask for JSON")
	}
}

func TestGateway_Unavailable(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"no key", llm.ErrNoAPIKey},
		{"unauthorized", &llm.StatusError{Code: 401}},
		{"forbidden", &llm.StatusError{Code: 403}},
		{"service unavailable", &llm.StatusError{Code: 503}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := llm.NewMockClient().WithError(tt.err)
			g := New(mock, Options{Limiters: unlimited()})

			_, err := g.GenerateRequest(context.Background(), testBrief())
			if !errors.Is(err, ErrUnavailable) {
				t.Fatalf("error = %v, want ErrUnavailable", err)
			}
			if g.Available() {
				t.Fatal("gateway still available after permanent failure")
			}

			// No further calls reach the client.
			_, err = g.GenerateRequest(context.Background(), testBrief())
			if !errors.Is(err, ErrUnavailable) {
				t.Errorf("second error = %v", err)
			}
			if mock.CallCount() != 1 {
				t.Errorf("calls = %d, want 1", mock.CallCount())
			}
		})
	}
}

func TestGateway_TransientFailuresStayAvailable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"server error", &llm.StatusError{Code: 500}, ErrTransport},
		{"rate limited upstream", &llm.StatusError{Code: 429}, ErrTransport},
		{"empty", llm.ErrEmptyResponse, ErrMalformed},
		{"network", errors.New("connection reset"), ErrTransport},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(llm.NewMockClient().WithError(tt.err), Options{Limiters: unlimited()})
			_, err := g.GenerateRequest(context.Background(), testBrief())
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
			if !g.Available() {
				t.Error("transient failure made the gateway unavailable")
			}
		})
	}
}

func TestGateway_Timeout(t *testing.T) {
	mock := llm.NewMockClient().WithDelay(time.Second).WithDefault(validRequest)
	g := New(mock, Options{RequestTimeout: 20 * time.Millisecond, Limiters: unlimited()})

	start := time.Now()
	_, err := g.GenerateRequest(context.Background(), testBrief())
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("error = %v, want ErrTimeout", err)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Errorf("timeout not enforced, took %v", time.Since(start))
	}
	if !g.Available() {
		t.Error("timeout made the gateway unavailable")
	}
}

func TestGateway_RateLimited(t *testing.T) {
	mock := llm.NewMockClient().WithDefault(validRequest)
	g := New(mock, Options{Limiters: ratelimit.Set{KindRequest: ratelimit.PerMinute(1, 1)}})

	if _, err := g.GenerateRequest(context.Background(), testBrief()); err != nil {
		t.Fatalf("first call error = %v", err)
	}
	_, err := g.GenerateRequest(context.Background(), testBrief())
	if !errors.Is(err, ratelimit.ErrLimited) {
		t.Errorf("error = %v, want ErrLimited", err)
	}
	if mock.CallCount() != 1 {
		t.Errorf("calls = %d, limited call reached the client", mock.CallCount())
	}
}

func TestGateway_NilOrUnavailableClient(t *testing.T) {
	if New(nil, Options{}).Available() {
		t.Error("nil client should start unavailable")
	}
	if New(llm.NewFallbackClient(), Options{}).Available() {
		t.Error("fallback client should start unavailable")
	}
	var g *Gateway
	if g.Available() {
		t.Error("nil gateway should be unavailable")
	}
}

func TestGateway_Personas(t *testing.T) {
	g := New(llm.NewMockClient().WithResponses(validPersonas), Options{Limiters: unlimited()})
	personas, src := g.Personas(context.Background(), models.DifficultyNormal, 3)
	if src != models.SourceGenerated || len(personas) != 3 {
		t.Errorf("got %d personas from %s", len(personas), src)
	}

	g = New(llm.NewMockClient().WithResponses(`{"npcs": [{"name": "solo", "role": "r"}]}`), Options{Limiters: unlimited()})
	personas, src = g.Personas(context.Background(), models.DifficultyNormal, 4)
	if src != models.SourceFallback || len(personas) != 4 {
		t.Errorf("got %d personas from %s, want 4 fallback", len(personas), src)
	}

	g = New(nil, Options{})
	personas, src = g.Personas(context.Background(), models.DifficultyEasy, 0)
	if src != models.SourceFallback || len(personas) == 0 {
		t.Errorf("got %d personas from %s", len(personas), src)
	}
}

func TestGateway_Line(t *testing.T) {
	brief := llm.LineBrief{NPC: models.Persona{ID: "sarah", Name: "Sarah"}, Kind: llm.LineInitial}

	g := New(llm.NewMockClient().WithResponses(`"Hey, got a sec?"`+"\n"), Options{Limiters: unlimited()})
	if got := g.Line(context.Background(), brief, "fallback"); got != "Hey, got a sec?" {
		t.Errorf("Line() = %q", got)
	}

	g = New(llm.NewMockClient().WithResponses("   "), Options{Limiters: unlimited()})
	if got := g.Line(context.Background(), brief, "fallback"); got != "fallback" {
		t.Errorf("blank line = %q, want fallback", got)
	}

	g = New(llm.NewMockClient().WithError(&llm.StatusError{Code: 500}), Options{Limiters: unlimited()})
	if got := g.Line(context.Background(), brief, "fallback"); got != "fallback" {
		t.Errorf("failed line = %q, want fallback", got)
	}

	if got := New(nil, Options{}).Line(context.Background(), brief, "offline"); got != "offline" {
		t.Errorf("unavailable line = %q", got)
	}
}
