package models

// MaxSecurity is the starting and maximum security score.
const MaxSecurity = 100

// Score is the running score state of a session.
type Score struct {
	Total             int `json:"total"`
	Streak            int `json:"streak"`
	MaxStreak         int `json:"max_streak"`
	Security          int `json:"security"`
	RequestsCompleted int `json:"requests_completed"`
	RequestsFailed    int `json:"requests_failed"`
	RequestsExpired   int `json:"requests_expired"`
}

// NewScore returns the score state at session start.
func NewScore() *Score {
	return &Score{Security: MaxSecurity}
}

// Add adds points (which may be negative) to the running total.
func (s *Score) Add(points int) {
	s.Total += points
}

// IncrementStreak extends the current streak and tracks the maximum.
func (s *Score) IncrementStreak() {
	s.Streak++
	if s.Streak > s.MaxStreak {
		s.MaxStreak = s.Streak
	}
}

// ResetStreak breaks the current streak.
func (s *Score) ResetStreak() {
	s.Streak = 0
}

// PenalizeSecurity lowers the security score by amount, clamped at zero.
// Security only ever decreases: non-positive amounts are ignored.
// It returns the score after the deduction.
func (s *Score) PenalizeSecurity(amount int) int {
	if amount <= 0 {
		return s.Security
	}
	s.Security -= amount
	if s.Security < 0 {
		s.Security = 0
	}
	return s.Security
}

// Compromised reports whether the security score has reached zero.
func (s *Score) Compromised() bool {
	return s.Security <= 0
}
