package scheduler

import (
	"github.com/nvandessel/clawback/internal/constants"
	"github.com/nvandessel/clawback/internal/models"
)

// MaxOpen returns how many open requests a difficulty allows at once.
func MaxOpen(d models.Difficulty) int {
	switch d {
	case models.DifficultyEasy:
		return 1
	case models.DifficultyHard:
		return 3
	default:
		return 2
	}
}

// IntervalRange returns the inclusive bounds of the spawn interval in ticks.
func IntervalRange(d models.Difficulty) (min, max int) {
	switch d {
	case models.DifficultyEasy:
		return 25, 45
	case models.DifficultyHard:
		return 8, 20
	default:
		return 15, 30
	}
}

// RollTier picks the tier of the next request from the number of requests
// spawned so far. roll returns uniform values in [0, 1).
func RollTier(spawned int, roll func() float64) int {
	switch {
	case spawned < 3:
		return 1
	case spawned < 6:
		if roll() < 0.7 {
			return 1
		}
		return 2
	case spawned < 10:
		if roll() < 0.5 {
			return 2
		}
		if roll() < 0.7 {
			return 3
		}
		return 1
	case spawned < 15:
		return weighted(roll(), 0.2, 0.5, 0.8)
	default:
		return weighted(roll(), 0.1, 0.35, 0.7)
	}
}

// weighted maps r onto tiers 1-4 using cumulative bounds for tiers 1-3.
func weighted(r float64, bounds ...float64) int {
	for i, b := range bounds {
		if r < b {
			return i + 1
		}
	}
	return len(bounds) + 1
}

// RollTrap decides whether the next request is a security trap. A trap is
// forced once TrapGuaranteeSpawn requests have spawned without one.
func RollTrap(spawned, traps int, roll func() float64) bool {
	if spawned >= constants.TrapGuaranteeSpawn && traps == 0 {
		return true
	}
	return roll() < constants.TrapChance
}
