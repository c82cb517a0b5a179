package llm

import (
	"context"
	"sync"
	"time"
)

// MockClient implements Client for testing purposes.
// It returns queued responses in order, then the default response,
// and records every call for verification.
type MockClient struct {
	mu sync.Mutex

	// Configured responses
	responses []string
	fallback  string
	err       error
	available bool
	delay     time.Duration

	// Call tracking
	Calls []CompletionRequest
}

// NewMockClient creates a new MockClient with default settings.
// By default, it is available and returns an empty JSON object.
func NewMockClient() *MockClient {
	return &MockClient{
		available: true,
		fallback:  "{}",
	}
}

// WithResponses queues responses returned by successive calls.
func (m *MockClient) WithResponses(responses ...string) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, responses...)
	return m
}

// WithDefault configures the response returned once the queue is empty.
func (m *MockClient) WithDefault(response string) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallback = response
	return m
}

// WithError configures the error returned by every call.
func (m *MockClient) WithError(err error) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// WithAvailable configures whether Available() returns true or false.
func (m *MockClient) WithAvailable(available bool) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.available = available
	return m
}

// WithDelay makes every call block for d or until its context is done.
func (m *MockClient) WithDelay(d time.Duration) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
	return m
}

// Complete implements Client.Complete.
// It records the call and returns the next configured response or error.
func (m *MockClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, req)
	delay := m.delay
	m.mu.Unlock()

	if delay > 0 {
		t := time.NewTimer(delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-t.C:
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	if len(m.responses) > 0 {
		r := m.responses[0]
		m.responses = m.responses[1:]
		return r, nil
	}
	return m.fallback, nil
}

// Available implements Client.Available.
// Returns the configured availability status.
func (m *MockClient) Available() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.available
}

// Reset clears all call tracking and resets configured responses.
func (m *MockClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = nil
	m.fallback = "{}"
	m.err = nil
	m.available = true
	m.delay = 0
	m.Calls = nil
}

// CallCount returns the number of times Complete was called.
func (m *MockClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
