package ratelimit

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestAllow_WithinBurst(t *testing.T) {
	l := NewLimiter(1.0, 3)
	for i := 0; i < 3; i++ {
		if !l.Allow("key1") {
			t.Errorf("request %d should be allowed (within burst)", i+1)
		}
	}
	if l.Allow("key1") {
		t.Error("request after burst exhaustion should be rejected")
	}
}

func TestAllow_RefillAfterWait(t *testing.T) {
	now := time.Now()
	l := NewLimiter(10.0, 2)
	l.nowFunc = func() time.Time { return now }

	l.Allow("key1")
	l.Allow("key1")
	if l.Allow("key1") {
		t.Error("expected rejection after burst")
	}

	// 10 tokens/sec * 200ms = 2 tokens
	now = now.Add(200 * time.Millisecond)
	if !l.Allow("key1") {
		t.Error("expected allow after token refill")
	}
}

func TestAllow_IndependentKeys(t *testing.T) {
	l := NewLimiter(1.0, 1)
	l.Allow("key1")
	if l.Allow("key1") {
		t.Error("key1 should be exhausted")
	}
	if !l.Allow("key2") {
		t.Error("key2 should be allowed (independent bucket)")
	}
}

func TestAllow_BurstCap(t *testing.T) {
	now := time.Now()
	l := NewLimiter(100.0, 3)
	l.nowFunc = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		l.Allow("key1")
	}
	now = now.Add(10 * time.Second)

	if got := l.Tokens("key1"); got != 3 {
		t.Errorf("Tokens() = %v, want 3 (capped at burst)", got)
	}
}

func TestAllow_ZeroRate(t *testing.T) {
	l := NewLimiter(0.0, 2)
	if !l.Allow("key1") || !l.Allow("key1") {
		t.Fatal("initial burst should be available")
	}
	if l.Allow("key1") {
		t.Error("should be rejected with zero rate")
	}
}

func TestAllow_ConcurrentAccess(t *testing.T) {
	now := time.Now()
	l := NewLimiter(1000.0, 100)
	l.nowFunc = func() time.Time { return now }

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow("concurrent-key") {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowed != 100 {
		t.Errorf("allowed %d requests, want 100 (burst limit with frozen clock)", allowed)
	}
}

func TestPerMinute(t *testing.T) {
	l := PerMinute(30, 5)
	if l.rate != 0.5 {
		t.Errorf("rate = %v, want 0.5", l.rate)
	}
	if l.burst != 5 {
		t.Errorf("burst = %d, want 5", l.burst)
	}
}

func TestNewToolLimiters(t *testing.T) {
	limiters := NewToolLimiters()
	for _, tool := range []string{"office_exec", "office_chat", "office_email", "office_search", "office_status", "office_wait", "office_new_shift"} {
		if _, ok := limiters[tool]; !ok {
			t.Errorf("missing rate limiter for tool: %s", tool)
		}
	}
}

func TestSetCheck(t *testing.T) {
	limiters := NewProviderLimiters()

	if err := limiters.Check("line"); err != nil {
		t.Errorf("unexpected error for line: %v", err)
	}
	if err := limiters.Check("unknown"); err != nil {
		t.Errorf("unconfigured names should pass: %v", err)
	}

	// personas has burst 1
	if err := limiters.Check("personas"); err != nil {
		t.Fatalf("first personas call: %v", err)
	}
	err := limiters.Check("personas")
	if !errors.Is(err, ErrLimited) {
		t.Errorf("Check() error = %v, want ErrLimited", err)
	}
}
