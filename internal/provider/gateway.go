// Package provider is the boundary between the simulation and the remote
// narrative provider. It generates requests, personas and chat lines with
// per-kind timeouts and rate limits, validates everything that comes back and
// switches to fallback content permanently once the provider is unavailable.
package provider

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/nvandessel/clawback/internal/config"
	"github.com/nvandessel/clawback/internal/constants"
	"github.com/nvandessel/clawback/internal/content"
	"github.com/nvandessel/clawback/internal/llm"
	"github.com/nvandessel/clawback/internal/logging"
	"github.com/nvandessel/clawback/internal/models"
	"github.com/nvandessel/clawback/internal/ratelimit"
	"github.com/nvandessel/clawback/internal/sanitize"
)

// Call kinds, used as rate limiter keys and in decision traces.
const (
	KindRequest  = "request"
	KindPersonas = "personas"
	KindLine     = "line"
)

// Options configures a Gateway. Zero timeouts use config defaults.
type Options struct {
	RequestTimeout time.Duration
	PersonaTimeout time.Duration
	LineTimeout    time.Duration

	// Limiters gates outbound calls per kind. Nil uses ratelimit.NewProviderLimiters.
	Limiters ratelimit.Set

	Logger    *slog.Logger
	Decisions *logging.DecisionLogger
}

// OptionsFrom builds Options from the provider config section.
func OptionsFrom(cfg config.ProviderConfig) Options {
	return Options{
		RequestTimeout: cfg.RequestTimeout,
		PersonaTimeout: cfg.PersonaTimeout,
		LineTimeout:    cfg.LineTimeout,
	}
}

// Gateway wraps an llm.Client with the provider contract. It is safe for
// concurrent use: generation and line delivery run off the tick path.
type Gateway struct {
	client    llm.Client
	opts      Options
	limiters  ratelimit.Set
	logger    *slog.Logger
	decisions *logging.DecisionLogger

	unavailable atomic.Bool
}

// New creates a Gateway around client. A nil client, or one that reports
// itself unavailable, puts the gateway in fallback-only mode from the start.
func New(client llm.Client, opts Options) *Gateway {
	defaults := config.Default().Provider
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaults.RequestTimeout
	}
	if opts.PersonaTimeout <= 0 {
		opts.PersonaTimeout = defaults.PersonaTimeout
	}
	if opts.LineTimeout <= 0 {
		opts.LineTimeout = defaults.LineTimeout
	}
	limiters := opts.Limiters
	if limiters == nil {
		limiters = ratelimit.NewProviderLimiters()
	}

	g := &Gateway{
		client:    client,
		opts:      opts,
		limiters:  limiters,
		logger:    logging.OrDiscard(opts.Logger),
		decisions: opts.Decisions,
	}
	if client == nil || !client.Available() {
		g.unavailable.Store(true)
	}
	return g
}

// Available reports whether calls still go to the provider.
func (g *Gateway) Available() bool {
	return g != nil && !g.unavailable.Load()
}

// complete runs one bounded provider call and classifies its failure.
func (g *Gateway) complete(ctx context.Context, kind string, timeout time.Duration, req llm.CompletionRequest) (string, error) {
	if !g.Available() {
		return "", ErrUnavailable
	}
	if err := g.limiters.Check(kind); err != nil {
		return "", classify(err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	text, err := g.client.Complete(ctx, req)
	if err != nil {
		err = classify(err)
		if Permanent(err) && g.unavailable.CompareAndSwap(false, true) {
			g.logger.Warn("narrative provider unavailable, using fallback content", "kind", kind, "error", err)
			g.decisions.Decide("provider", "unavailable", map[string]any{"kind": kind, "error": err.Error()})
		}
		return "", err
	}
	g.logger.Debug("provider call", "kind", kind, "duration_ms", time.Since(start).Milliseconds())
	g.logger.Log(ctx, logging.LevelTrace, "provider response", "kind", kind, "content", text)
	return text, nil
}

// GenerateRequest asks the provider for a request matching brief and
// validates it. Objectives dropped during validation are logged.
func (g *Gateway) GenerateRequest(ctx context.Context, brief llm.RequestBrief) (models.Request, error) {
	text, err := g.complete(ctx, KindRequest, g.opts.RequestTimeout, llm.RequestPrompt(brief))
	if err != nil {
		return models.Request{}, fmt.Errorf("generating request: %w", err)
	}
	r, dropped, err := ValidateRequest(text, brief)
	for _, reason := range dropped {
		g.logger.Debug("dropped generated objective", "reason", reason)
	}
	if err != nil {
		g.decisions.Decide("provider", "request_rejected", map[string]any{"error": err.Error(), "dropped": dropped})
		return models.Request{}, fmt.Errorf("generating request: %w", err)
	}
	return r, nil
}

// GeneratePersonas asks the provider for count personas.
func (g *Gateway) GeneratePersonas(ctx context.Context, d models.Difficulty, count int) ([]models.Persona, error) {
	text, err := g.complete(ctx, KindPersonas, g.opts.PersonaTimeout, llm.PersonaPrompt(d, count))
	if err != nil {
		return nil, fmt.Errorf("generating personas: %w", err)
	}
	personas, err := ValidatePersonas(text)
	if err != nil {
		return nil, fmt.Errorf("generating personas: %w", err)
	}
	return personas, nil
}

// Personas returns a persona roster, generated when possible and otherwise
// the built-in personas. The second result records which one was used.
func (g *Gateway) Personas(ctx context.Context, d models.Difficulty, count int) ([]models.Persona, models.RequestSource) {
	if count <= 0 {
		count = constants.DefaultPersonaCount
	}
	if g.Available() {
		personas, err := g.GeneratePersonas(ctx, d, count)
		if err == nil {
			return personas, models.SourceGenerated
		}
		g.logger.Info("persona generation failed, using built-in personas", "error", err)
		g.decisions.Decide("provider", "persona_fallback", map[string]any{"error": err.Error()})
	}
	return FallbackPersonas(count), models.SourceFallback
}

// FallbackPersonas returns up to count built-in personas.
func FallbackPersonas(count int) []models.Persona {
	all := content.MustPersonas()
	if count <= 0 || count > len(all) {
		count = len(all)
	}
	return all[:count]
}

// Line asks the provider for one chat line and returns fallback when the
// provider is unavailable, fails or returns nothing usable.
func (g *Gateway) Line(ctx context.Context, brief llm.LineBrief, fallback string) string {
	if !g.Available() {
		return fallback
	}
	text, err := g.complete(ctx, KindLine, g.opts.LineTimeout, llm.LinePrompt(brief))
	if err != nil {
		g.logger.Debug("line generation failed, using fallback", "kind", brief.Kind, "error", err)
		return fallback
	}
	line := sanitize.Line(text)
	if line == "" {
		return fallback
	}
	return line
}
