package clock

import (
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	c := New()
	s := c.Snapshot()
	if s.Tick != 0 || s.Hour != 9 || s.Minute != 0 || s.Day != 1 || s.Speed != SpeedNormal {
		t.Errorf("New() snapshot = %+v", s)
	}
	if c.TimeString() != "9:00 AM" {
		t.Errorf("TimeString() = %q, want 9:00 AM", c.TimeString())
	}
}

func TestAdvance_MinuteOverflow(t *testing.T) {
	c := New()
	for i := 0; i < 60; i++ {
		c.Advance()
	}
	if c.Hour() != 10 || c.Minute() != 0 || c.Tick() != 60 {
		t.Errorf("after 60 ticks: %+v", c.Snapshot())
	}
}

func TestAdvance_DayRollover(t *testing.T) {
	c := New()
	// 9:00 -> 24:00 is 15 hours.
	for i := 0; i < 15*60; i++ {
		c.Advance()
	}
	s := c.Snapshot()
	if s.Hour != 9 || s.Minute != 0 || s.Day != 2 {
		t.Errorf("after rollover: %+v, want 9:00 day 2", s)
	}
	if s.Tick != 900 {
		t.Errorf("Tick = %d, want 900", s.Tick)
	}
}

func TestWorkHours(t *testing.T) {
	c := New()
	if !c.IsWorkHours() || c.IsEndOfDay() {
		t.Fatal("9:00 should be work hours")
	}
	for i := 0; i < 540; i++ {
		c.Advance()
	}
	if c.Hour() != 18 {
		t.Fatalf("hour = %d after a workday, want 18", c.Hour())
	}
	if c.IsWorkHours() {
		t.Error("18:00 should be outside work hours")
	}
	if !c.IsEndOfDay() {
		t.Error("18:00 should be end of day")
	}
}

func TestTimeString(t *testing.T) {
	tests := []struct {
		hour, minute int
		want         string
	}{
		{9, 5, "9:05 AM"},
		{11, 59, "11:59 AM"},
		{12, 0, "12:00 PM"},
		{13, 30, "1:30 PM"},
		{23, 1, "11:01 PM"},
	}
	for _, tt := range tests {
		s := Snapshot{Hour: tt.hour, Minute: tt.minute}
		if got := s.TimeString(); got != tt.want {
			t.Errorf("TimeString(%d:%d) = %q, want %q", tt.hour, tt.minute, got, tt.want)
		}
	}
}

func TestTickInterval(t *testing.T) {
	c := New()
	tests := []struct {
		speed Speed
		want  time.Duration
	}{
		{SpeedPaused, 0},
		{SpeedNormal, time.Second},
		{SpeedFast, 250 * time.Millisecond},
		{SpeedTurbo, 50 * time.Millisecond},
	}
	for _, tt := range tests {
		c.SetSpeed(tt.speed)
		if got := c.TickInterval(); got != tt.want {
			t.Errorf("TickInterval(%s) = %v, want %v", tt.speed, got, tt.want)
		}
	}

	c.SetSpeed(SpeedNormal)
	c.SetBaseInterval(100 * time.Millisecond)
	if got := c.TickInterval(); got != 100*time.Millisecond {
		t.Errorf("TickInterval with override = %v", got)
	}
	c.SetBaseInterval(0)
	if got := c.TickInterval(); got != time.Second {
		t.Errorf("SetBaseInterval(0) should restore default, got %v", got)
	}
}

func TestReset(t *testing.T) {
	c := New()
	c.SetSpeed(SpeedTurbo)
	for i := 0; i < 100; i++ {
		c.Advance()
	}
	c.Reset()
	if s := c.Snapshot(); s != (Snapshot{Tick: 0, Hour: 9, Minute: 0, Day: 1, Speed: SpeedNormal}) {
		t.Errorf("after Reset: %+v", s)
	}
}

func TestParseSpeed(t *testing.T) {
	if s, err := ParseSpeed(""); err != nil || s != SpeedNormal {
		t.Errorf("ParseSpeed(\"\") = %v, %v", s, err)
	}
	if s, err := ParseSpeed("turbo"); err != nil || s != SpeedTurbo {
		t.Errorf("ParseSpeed(turbo) = %v, %v", s, err)
	}
	if _, err := ParseSpeed("warp"); err == nil {
		t.Error("expected error for unknown speed")
	}
}
