// Package scoring computes request points and the end-of-session grade.
package scoring

import (
	"math"

	"github.com/nvandessel/clawback/internal/clock"
	"github.com/nvandessel/clawback/internal/models"
)

// MaxStreakBonus caps the streak multiplier.
const MaxStreakBonus = 2.0

// SpeedMultiplier rewards finishing early relative to the deadline.
func SpeedMultiplier(ratio float64) float64 {
	switch {
	case ratio < 0.25:
		return 2.0
	case ratio < 0.5:
		return 1.5
	case ratio < 0.75:
		return 1.2
	case ratio < 1.0:
		return 1.0
	default:
		return 0.5
	}
}

// StreakBonus is 1 + 0.1 per consecutive completion, capped at 2.
func StreakBonus(streak int) float64 {
	return math.Min(1+float64(streak)*0.1, MaxStreakBonus)
}

// TierMultiplier weights harder requests. Tier 4 jumps to 5.
func TierMultiplier(tier int) float64 {
	switch tier {
	case 1:
		return 1
	case 2:
		return 2
	case 3:
		return 3
	case 4:
		return 5
	default:
		return 1
	}
}

// Points scores a completed request. streak is the streak before this
// completion is counted.
func Points(basePoints, tier, elapsed, deadline, streak int) int {
	ratio := 1.0
	if deadline > 0 {
		ratio = float64(elapsed) / float64(deadline)
	}
	return int(math.Round(float64(basePoints) * SpeedMultiplier(ratio) * StreakBonus(streak) * TierMultiplier(tier)))
}

// RequestPoints scores r completed at tick.
func RequestPoints(r *models.Request, tick, streak int) int {
	return Points(r.BasePoints, r.Tier, r.Elapsed(tick), r.DeadlineTicks, streak)
}

// Grade is the letter grade of a session.
type Grade string

const (
	GradeS Grade = "S"
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeF Grade = "F"
)

var thresholds = []struct {
	min   int
	grade Grade
}{
	{5000, GradeS},
	{3000, GradeA},
	{2000, GradeB},
	{1000, GradeC},
	{500, GradeD},
}

// GradeFor grades total + security*10.
func GradeFor(total, security int) Grade {
	combined := total + security*10
	for _, t := range thresholds {
		if combined >= t.min {
			return t.grade
		}
	}
	return GradeF
}

// Summary is the end-of-session report.
type Summary struct {
	TotalScore        int   `json:"total_score"`
	RequestsCompleted int   `json:"requests_completed"`
	RequestsFailed    int   `json:"requests_failed"`
	RequestsExpired   int   `json:"requests_expired"`
	MaxStreak         int   `json:"max_streak"`
	SecurityScore     int   `json:"security_score"`
	DaysPlayed        int   `json:"days_played"`
	TotalTicks        int   `json:"total_ticks"`
	Grade             Grade `json:"grade"`
	Compromised       bool  `json:"compromised"`
}

// Summarize builds the report from the final score and clock.
func Summarize(score models.Score, snap clock.Snapshot) Summary {
	return Summary{
		TotalScore:        score.Total,
		RequestsCompleted: score.RequestsCompleted,
		RequestsFailed:    score.RequestsFailed,
		RequestsExpired:   score.RequestsExpired,
		MaxStreak:         score.MaxStreak,
		SecurityScore:     score.Security,
		DaysPlayed:        snap.Day,
		TotalTicks:        snap.Tick,
		Grade:             GradeFor(score.Total, score.Security),
		Compromised:       score.Compromised(),
	}
}
