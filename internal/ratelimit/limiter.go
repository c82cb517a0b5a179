// Package ratelimit provides per-key token bucket rate limiting for the MCP
// office tools and the narrative provider.
package ratelimit

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrLimited is returned by Set.Check when a key's bucket is empty.
var ErrLimited = errors.New("rate limit exceeded")

// Limiter implements a per-key token bucket rate limiter.
// Each key gets its own bucket with the configured rate and burst.
// It is safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    float64          // tokens per second
	burst   int              // max burst size (also initial token count)
	nowFunc func() time.Time // injectable clock for testing
}

type bucket struct {
	tokens    float64
	lastCheck time.Time
}

// NewLimiter creates a rate limiter with the given rate (tokens/sec) and burst size.
func NewLimiter(rate float64, burst int) *Limiter {
	return &Limiter{
		buckets: make(map[string]*bucket),
		rate:    rate,
		burst:   burst,
		nowFunc: time.Now,
	}
}

// PerMinute creates a limiter allowing n events per minute with the given burst.
func PerMinute(n float64, burst int) *Limiter {
	return NewLimiter(n/60.0, burst)
}

// Allow reports whether an event for key may happen now, consuming a token if so.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowFunc()
	b := l.refill(key, now)
	if b.tokens < 1.0 {
		return false
	}
	b.tokens--
	return true
}

// Tokens returns the tokens currently available for key without consuming any.
func (l *Limiter) Tokens(key string) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.refill(key, l.nowFunc()).tokens
}

// refill returns key's bucket topped up for the time elapsed since its last check.
// Callers must hold l.mu.
func (l *Limiter) refill(key string, now time.Time) *bucket {
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(l.burst), lastCheck: now}
		l.buckets[key] = b
		return b
	}

	elapsed := now.Sub(b.lastCheck).Seconds()
	if elapsed > 0 {
		b.tokens += l.rate * elapsed
		if b.tokens > float64(l.burst) {
			b.tokens = float64(l.burst)
		}
		b.lastCheck = now
	}
	return b
}

// Set maps names (MCP tools, provider call kinds) to their limiters.
type Set map[string]*Limiter

// NewToolLimiters creates the default limits for the MCP office tools.
// Read-only tools are generous; tools that advance or reset the shift are not.
func NewToolLimiters() Set {
	return Set{
		"office_exec":      PerMinute(120, 20),
		"office_chat":      PerMinute(60, 10),
		"office_email":     PerMinute(30, 5),
		"office_search":    PerMinute(60, 10),
		"office_calendar":  PerMinute(30, 5),
		"office_open":      PerMinute(60, 10),
		"office_tool":      PerMinute(120, 20),
		"office_status":    PerMinute(240, 30),
		"office_wait":      PerMinute(60, 10),
		"office_new_shift": PerMinute(5, 2),
	}
}

// NewProviderLimiters creates the limits for outbound provider calls, keyed by
// call kind. A limited call is treated like a provider failure and falls back.
func NewProviderLimiters() Set {
	return Set{
		"request":  PerMinute(20, 3),
		"personas": PerMinute(2, 1),
		"line":     PerMinute(60, 6),
	}
}

// Check returns nil if an event for name is allowed, or an error wrapping
// ErrLimited. Names without a configured limiter are always allowed.
func (s Set) Check(name string) error {
	limiter, ok := s[name]
	if !ok {
		return nil
	}
	if !limiter.Allow(name) {
		return fmt.Errorf("%w for %s, please try again shortly", ErrLimited, name)
	}
	return nil
}
