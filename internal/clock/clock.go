// Package clock implements the simulation's discrete time. One tick is one
// in-game minute; the real-time pacing of ticks is a property of the speed
// mode and only matters to drivers.
package clock

import (
	"fmt"
	"time"

	"github.com/nvandessel/clawback/internal/constants"
)

// Speed is a clock speed mode.
type Speed string

const (
	SpeedPaused Speed = "paused"
	SpeedNormal Speed = "normal"
	SpeedFast   Speed = "fast"
	SpeedTurbo  Speed = "turbo"
)

// ParseSpeed maps a name to a Speed. Empty means normal.
func ParseSpeed(s string) (Speed, error) {
	switch Speed(s) {
	case SpeedPaused, SpeedNormal, SpeedFast, SpeedTurbo:
		return Speed(s), nil
	case "":
		return SpeedNormal, nil
	default:
		return "", fmt.Errorf("invalid speed %q (valid: paused, normal, fast, turbo)", s)
	}
}

// DefaultInterval is the real-time interval of one tick at normal speed.
const DefaultInterval = time.Second

// Snapshot is an immutable copy of the clock state.
type Snapshot struct {
	Tick   int   `json:"tick"`
	Hour   int   `json:"hour"`
	Minute int   `json:"minute"`
	Day    int   `json:"day"`
	Speed  Speed `json:"speed"`
}

// TimeString renders the snapshot as "h:MM AM/PM".
func (s Snapshot) TimeString() string {
	return formatTime(s.Hour, s.Minute)
}

// Clock is the simulation clock. It is not safe for concurrent use; the
// session driver serialises access.
type Clock struct {
	tick   int
	hour   int
	minute int
	day    int
	speed  Speed

	// base is the real-time interval at normal speed.
	base time.Duration
}

// New returns a clock at tick 0, 9:00 on day 1, normal speed.
func New() *Clock {
	c := &Clock{base: DefaultInterval}
	c.Reset()
	return c
}

// Reset returns the clock to its starting state, keeping the base interval.
func (c *Clock) Reset() {
	c.tick = 0
	c.hour = constants.WorkdayStartHour
	c.minute = 0
	c.day = 1
	c.speed = SpeedNormal
}

// Advance moves the clock forward by one tick (one minute). Minute overflow
// increments the hour; hour 24 wraps to the start of the next workday.
func (c *Clock) Advance() {
	c.tick++
	c.minute++
	if c.minute >= 60 {
		c.minute = 0
		c.hour++
	}
	if c.hour >= 24 {
		c.hour = constants.WorkdayStartHour
		c.day++
	}
}

// Tick returns the number of ticks since start.
func (c *Clock) Tick() int { return c.tick }

// Hour returns the current hour (9-23).
func (c *Clock) Hour() int { return c.hour }

// Minute returns the current minute (0-59).
func (c *Clock) Minute() int { return c.minute }

// Day returns the current day, starting at 1.
func (c *Clock) Day() int { return c.day }

// Speed returns the current speed mode.
func (c *Clock) Speed() Speed { return c.speed }

// SetSpeed changes the speed mode.
func (c *Clock) SetSpeed(s Speed) { c.speed = s }

// SetBaseInterval overrides the real-time interval at normal speed.
// Non-positive values restore the default.
func (c *Clock) SetBaseInterval(d time.Duration) {
	if d <= 0 {
		d = DefaultInterval
	}
	c.base = d
}

// TickInterval returns the real-time interval between ticks for the current
// speed, or 0 when paused.
func (c *Clock) TickInterval() time.Duration {
	switch c.speed {
	case SpeedPaused:
		return 0
	case SpeedFast:
		return c.base / 4
	case SpeedTurbo:
		return c.base / 20
	default:
		return c.base
	}
}

// IsWorkHours reports whether the clock is within 9 <= hour < 18.
func (c *Clock) IsWorkHours() bool {
	return c.hour >= constants.WorkdayStartHour && c.hour < constants.WorkdayEndHour
}

// IsEndOfDay reports whether the workday is over.
func (c *Clock) IsEndOfDay() bool {
	return c.hour >= constants.WorkdayEndHour
}

// TimeString renders the current time as "h:MM AM/PM".
func (c *Clock) TimeString() string {
	return formatTime(c.hour, c.minute)
}

// Snapshot returns a copy of the clock state.
func (c *Clock) Snapshot() Snapshot {
	return Snapshot{Tick: c.tick, Hour: c.hour, Minute: c.minute, Day: c.day, Speed: c.speed}
}

func formatTime(hour, minute int) string {
	period := "AM"
	if hour >= 12 {
		period = "PM"
	}
	h := hour % 12
	if h == 0 {
		h = 12
	}
	return fmt.Sprintf("%d:%02d %s", h, minute, period)
}
