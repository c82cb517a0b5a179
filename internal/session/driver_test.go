package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nvandessel/clawback/internal/clock"
	"github.com/nvandessel/clawback/internal/models"
)

func TestDriver_Run(t *testing.T) {
	s := newTestSession(t, Options{TickInterval: time.Millisecond})
	s.SetSpeed(clock.SpeedNormal)
	d := NewDriver(s)

	var mu sync.Mutex
	var seen int
	d.OnEvents = func(evs []models.Event) {
		mu.Lock()
		seen += len(evs)
		mu.Unlock()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := d.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Run() error = %v", err)
	}

	var ticks int
	d.Do(func(s *Session) error {
		ticks = s.Clock().Tick
		return nil
	})
	if ticks == 0 {
		t.Error("driver never ticked")
	}
}

func TestDriver_RunStopsAtGameOver(t *testing.T) {
	s := newTestSession(t, Options{TickInterval: time.Millisecond})
	d := NewDriver(s)
	d.Do(func(s *Session) error {
		s.Exec("rm -rf /")
		s.Exec("rm -rf /")
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := d.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if s.Phase() != PhaseGameOver {
		t.Errorf("phase = %s", s.Phase())
	}
}

func TestDriver_PausedDoesNotTick(t *testing.T) {
	s := newTestSession(t, Options{TickInterval: time.Millisecond})
	s.SetSpeed(clock.SpeedPaused)
	d := NewDriver(s)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	d.Run(ctx)
	if s.Clock().Tick != 0 {
		t.Errorf("paused clock ticked to %d", s.Clock().Tick)
	}

	s.SetSpeed(clock.SpeedNormal)
	if err := s.Pause(); err != nil {
		t.Fatal(err)
	}
	ctx2, cancel2 := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel2()
	d.Run(ctx2)
	if s.Clock().Tick != 0 {
		t.Errorf("paused session ticked to %d", s.Clock().Tick)
	}
}

func TestDriver_Step(t *testing.T) {
	s := newTestSession(t, Options{})
	d := NewDriver(s)
	d.Step(context.Background(), 5)
	if s.Clock().Tick != 5 {
		t.Errorf("tick = %d", s.Clock().Tick)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Step(ctx, 5)
	if s.Clock().Tick != 5 {
		t.Errorf("cancelled step ticked to %d", s.Clock().Tick)
	}
}
