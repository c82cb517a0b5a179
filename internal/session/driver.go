package session

import (
	"context"
	"sync"
	"time"

	"github.com/nvandessel/clawback/internal/models"
)

// pausedPoll is how often a paused driver checks whether it may tick again.
const pausedPoll = 100 * time.Millisecond

// Driver serialises ticks and player actions on a Session. Every access to
// the session goes through Do, Step or Run.
type Driver struct {
	mu sync.Mutex
	s  *Session

	// OnEvents, when set, receives the events of every tick run by Run.
	// It is called with the driver lock held.
	OnEvents func([]models.Event)
}

// NewDriver wraps s.
func NewDriver(s *Session) *Driver {
	return &Driver{s: s}
}

// Do runs fn with exclusive access to the session.
func (d *Driver) Do(fn func(*Session) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return fn(d.s)
}

// Step advances the session by up to n ticks, stopping early when the shift
// ends. Background work finished in the meantime is picked up on each tick.
func (d *Driver) Step(ctx context.Context, n int) []models.Event {
	d.mu.Lock()
	defer d.mu.Unlock()

	var out []models.Event
	for i := 0; i < n && d.s.Phase() == PhasePlaying; i++ {
		if ctx.Err() != nil {
			break
		}
		out = append(out, d.s.Tick(ctx)...)
	}
	return out
}

// Run ticks the session in real time at the clock's speed until the shift
// is over or ctx is done. A paused session or clock keeps Run waiting.
func (d *Driver) Run(ctx context.Context) error {
	timer := time.NewTimer(d.interval())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}

		d.mu.Lock()
		if d.s.Phase().IsOver() {
			d.mu.Unlock()
			return nil
		}
		if d.s.TickInterval() <= 0 || d.s.Phase() != PhasePlaying {
			d.mu.Unlock()
			timer.Reset(pausedPoll)
			continue
		}
		events := d.s.Tick(ctx)
		if len(events) > 0 && d.OnEvents != nil {
			d.OnEvents(events)
		}
		over := d.s.Phase().IsOver()
		d.mu.Unlock()

		if over {
			return nil
		}
		timer.Reset(d.interval())
	}
}

func (d *Driver) interval() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	iv := d.s.TickInterval()
	if iv <= 0 || d.s.Phase() == PhasePaused {
		return pausedPoll
	}
	return iv
}

// WaitIdle waits for the session's background work without holding the lock.
func (d *Driver) WaitIdle() {
	d.s.WaitIdle()
}
