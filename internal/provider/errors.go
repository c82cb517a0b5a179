package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/nvandessel/clawback/internal/llm"
	"github.com/nvandessel/clawback/internal/ratelimit"
)

// Failure categories. ErrUnavailable switches the gateway into fallback-only
// mode for the rest of the session; every other category costs one call.
var (
	ErrUnavailable = errors.New("provider unavailable")
	ErrTimeout     = errors.New("provider timed out")
	ErrMalformed   = errors.New("malformed provider response")
	ErrRejected    = errors.New("provider response rejected")
	ErrTransport   = errors.New("provider call failed")
)

// Permanent reports whether err means the provider should not be called again.
func Permanent(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// classify maps a client error onto a failure category.
func classify(err error) error {
	var se *llm.StatusError
	switch {
	case err == nil:
		return nil
	case errors.Is(err, llm.ErrNoAPIKey):
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	case errors.As(err, &se) && se.Permanent():
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	case errors.Is(err, llm.ErrEmptyResponse):
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	case errors.Is(err, ratelimit.ErrLimited):
		return fmt.Errorf("%w: %w", ErrRejected, err)
	default:
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
}
