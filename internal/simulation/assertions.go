package simulation

import (
	"testing"

	"github.com/nvandessel/clawback/internal/models"
	"github.com/nvandessel/clawback/internal/session"
)

// AssertCompletedAtLeast asserts the run completed at least n requests.
func AssertCompletedAtLeast(t *testing.T, res Result, n int) {
	t.Helper()
	if got := res.Summary.RequestsCompleted; got < n {
		t.Errorf("AssertCompletedAtLeast: completed %d requests, want at least %d (events: %d arrived, %d expired)",
			got, n, res.Count(models.EventRequestArrived), res.Count(models.EventRequestExpired))
	}
}

// AssertNoViolations asserts the run kept a perfect security score.
func AssertNoViolations(t *testing.T, res Result) {
	t.Helper()
	if len(res.Violations) > 0 {
		t.Errorf("AssertNoViolations: %d violations, first %+v", len(res.Violations), res.Violations[0])
	}
	if res.Summary.SecurityScore != models.MaxSecurity {
		t.Errorf("AssertNoViolations: security score %d, want %d", res.Summary.SecurityScore, models.MaxSecurity)
	}
}

// AssertViolation asserts at least one violation of kind occurred.
func AssertViolation(t *testing.T, res Result, kind models.ViolationKind) {
	t.Helper()
	for _, v := range res.Violations {
		if v.Kind == kind {
			return
		}
	}
	t.Errorf("AssertViolation: no %s violation in %+v", kind, res.Violations)
}

// AssertPhase asserts the phase the run ended in.
func AssertPhase(t *testing.T, res Result, want session.Phase) {
	t.Helper()
	if res.Phase != want {
		t.Errorf("AssertPhase: ended %s at tick %d, want %s", res.Phase, res.Ticks, want)
	}
}

// AssertEventCount asserts the number of events of kind.
func AssertEventCount(t *testing.T, res Result, kind models.EventKind, want int) {
	t.Helper()
	if got := res.Count(kind); got != want {
		t.Errorf("AssertEventCount: %d %s events, want %d", got, kind, want)
	}
}

// AssertTerminalRequests asserts that when the shift is over every request
// has been resolved one way or another: completed, expired or failed at
// shift end.
func AssertTerminalRequests(t *testing.T, res Result) {
	t.Helper()
	s := res.Summary
	resolved := s.RequestsCompleted + s.RequestsExpired + s.RequestsFailed
	if resolved != len(res.Requests) {
		t.Errorf("AssertTerminalRequests: %d requests, %d resolved (completed %d, expired %d, failed %d)",
			len(res.Requests), resolved, s.RequestsCompleted, s.RequestsExpired, s.RequestsFailed)
	}
}

// AssertMonotonicTicks asserts events were recorded in tick order.
func AssertMonotonicTicks(t *testing.T, res Result) {
	t.Helper()
	for i := 1; i < len(res.Events); i++ {
		if res.Events[i].Tick < res.Events[i-1].Tick {
			t.Errorf("AssertMonotonicTicks: event %d at tick %d follows tick %d", i, res.Events[i].Tick, res.Events[i-1].Tick)
			return
		}
	}
}
