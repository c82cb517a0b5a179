package simulation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nvandessel/clawback/internal/logging"
	"github.com/nvandessel/clawback/internal/models"
	"github.com/nvandessel/clawback/internal/scoring"
	"github.com/nvandessel/clawback/internal/session"
)

// DefaultMaxTicks bounds a run that sets neither Ticks nor a shift length.
const DefaultMaxTicks = 5 * 540

// Config describes one headless run.
type Config struct {
	Session   session.Options
	Script    *Script
	Autopilot Autopilot

	// Ticks stops the run after this many ticks. Zero runs until the shift ends.
	Ticks int

	Logger *slog.Logger
}

// ActionError records a player action that failed.
type ActionError struct {
	Tick   int    `json:"tick"`
	Action string `json:"action"`
	Error  string `json:"error"`
}

// Result is everything a run produced.
type Result struct {
	SessionID    string             `json:"session_id"`
	Phase        session.Phase      `json:"phase"`
	Ticks        int                `json:"ticks"`
	Summary      scoring.Summary    `json:"summary"`
	Events       []models.Event     `json:"events"`
	Requests     []models.Request   `json:"requests"`
	Violations   []models.Violation `json:"violations"`
	Actions      int                `json:"actions"`
	ActionErrors []ActionError      `json:"action_errors,omitempty"`
	Report       session.Report     `json:"-"`
}

// Count returns how many events of kind the run produced.
func (r Result) Count(kind models.EventKind) int {
	n := 0
	for _, e := range r.Events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// Run plays a shift to completion, or for cfg.Ticks ticks, and returns the
// outcome. Scripted actions for a tick run before the autopilot's.
func Run(ctx context.Context, cfg Config) (Result, error) {
	logger := logging.OrDiscard(cfg.Logger)
	maxTicks := cfg.Ticks
	if maxTicks <= 0 {
		maxTicks = DefaultMaxTicks
	}

	sess := session.New(cfg.Session)
	defer sess.Close()
	if err := sess.Start(ctx); err != nil {
		return Result{}, fmt.Errorf("simulation: %w", err)
	}

	driver := session.NewDriver(sess)
	autopilot := newPilot(cfg.Autopilot)
	var res Result

	for tick := 0; tick < maxTicks; tick++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		driver.WaitIdle()

		_ = driver.Do(func(s *session.Session) error {
			now := s.Clock().Tick
			actions := append(cfg.Script.Due(now), autopilot.plan(s)...)
			for _, a := range actions {
				res.Actions++
				if err := a.Apply(s); err != nil {
					logger.Debug("action failed", "tick", now, "action", a.String(), "error", err)
					res.ActionErrors = append(res.ActionErrors, ActionError{Tick: now, Action: a.String(), Error: err.Error()})
				}
			}
			return nil
		})

		driver.Step(ctx, 1)

		over := false
		_ = driver.Do(func(s *session.Session) error {
			over = s.Phase().IsOver()
			return nil
		})
		if over {
			break
		}
	}
	driver.WaitIdle()

	_ = driver.Do(func(s *session.Session) error {
		res.SessionID = s.ID()
		res.Phase = s.Phase()
		res.Ticks = s.Clock().Tick
		res.Summary = s.Summary()
		res.Events = s.Events()
		res.Requests = s.Requests()
		res.Violations = s.Violations()
		res.Report = s.NewReport()
		return nil
	})

	logger.Info("simulation finished",
		"session", res.SessionID, "phase", res.Phase, "ticks", res.Ticks,
		"score", res.Summary.TotalScore, "grade", res.Summary.Grade)
	return res, nil
}
