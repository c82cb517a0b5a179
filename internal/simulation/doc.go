// Package simulation runs headless shifts for tests and for the simulate
// command.
//
// A run exercises the real Session, Scheduler, RequestManager and virtual
// office with no mocks. Player behaviour comes from a Script (actions keyed
// by tick, loaded from YAML) and an optional Autopilot that works the open
// requests the way a careful or reckless assistant would. Background work
// settles before every tick, so a run is fully determined by its seed and
// script when no remote provider is configured.
//
// Usage:
//
//	func TestCarefulShift(t *testing.T) {
//	    res, err := simulation.Run(ctx, simulation.Config{
//	        Session:   session.Options{Difficulty: models.DifficultyEasy, Seed: 3, ShiftDays: 1},
//	        Autopilot: simulation.Careful,
//	    })
//	    simulation.AssertCompletedAtLeast(t, res, 3)
//	    simulation.AssertNoViolations(t, res)
//	}
package simulation
