// Package models defines the shared data types of a simulated office shift:
// requests and their objectives, NPC personas and runtime state, tool state,
// office data, score state and security violations.
package models

import "fmt"

// RequestStatus is a position in the request lifecycle.
type RequestStatus string

const (
	StatusIncoming   RequestStatus = "incoming"    // Just arrived, grace period running
	StatusActive     RequestStatus = "active"      // Visible, no objective completed yet
	StatusInProgress RequestStatus = "in_progress" // At least one objective completed
	StatusCompleted  RequestStatus = "completed"   // Terminal: every objective completed
	StatusExpired    RequestStatus = "expired"     // Terminal: deadline reached
)

// IsTerminal reports whether the status can never change again.
func (s RequestStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusExpired
}

// IsOpen reports whether the request still counts against the active-request cap.
func (s RequestStatus) IsOpen() bool {
	return s == StatusIncoming || s == StatusActive || s == StatusInProgress
}

// RequestSource records where a request's content came from.
type RequestSource string

const (
	SourceGenerated RequestSource = "generated"
	SourceFallback  RequestSource = "fallback"
)

// Params is the validator-specific parameter bag of an objective.
type Params map[string]any

// String returns the string value stored under key, or "" when missing or
// not a string.
func (p Params) String(key string) string {
	if p == nil {
		return ""
	}
	v, ok := p[key]
	if !ok || v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	case fmt.Stringer:
		return s.String()
	default:
		return ""
	}
}

// Clone returns a shallow copy of the parameter bag.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Objective is a single measurable condition within a request.
type Objective struct {
	ID          string `json:"id" yaml:"id"`
	Description string `json:"description" yaml:"description"`
	Validator   string `json:"validator" yaml:"validator"`
	Params      Params `json:"params,omitempty" yaml:"params,omitempty"`

	// Completed is set exactly once and never unset.
	Completed bool `json:"completed" yaml:"completed"`
}

// Request is a time-boxed task from an NPC.
type Request struct {
	ID          string        `json:"id" yaml:"id"`
	NPCID       string        `json:"npc_id" yaml:"npc_id"`
	Title       string        `json:"title" yaml:"title"`
	Description string        `json:"description" yaml:"description"`
	Tier        int           `json:"tier" yaml:"tier"`
	Status      RequestStatus `json:"status" yaml:"status"`
	Objectives  []Objective   `json:"objectives" yaml:"objectives"`

	// ArrivalTick anchors the deadline. Deadlines are never wall-clock based.
	ArrivalTick   int `json:"arrival_tick" yaml:"arrival_tick"`
	DeadlineTicks int `json:"deadline_ticks" yaml:"deadline_ticks"`
	BasePoints    int `json:"base_points" yaml:"base_points"`

	InitialMessage    string `json:"initial_message" yaml:"initial_message"`
	CompletionMessage string `json:"completion_message" yaml:"completion_message"`
	FailureMessage    string `json:"failure_message" yaml:"failure_message"`

	IsSecurityTrap bool          `json:"is_security_trap" yaml:"is_security_trap"`
	Source         RequestSource `json:"source,omitempty" yaml:"source,omitempty"`

	// Set when the request reaches a terminal status.
	ResolvedTick  int `json:"resolved_tick,omitempty" yaml:"resolved_tick,omitempty"`
	AwardedPoints int `json:"awarded_points,omitempty" yaml:"awarded_points,omitempty"`

	// Frustrated is set once the NPC has grown impatient about this request.
	Frustrated bool `json:"-" yaml:"-"`
}

// Elapsed returns the number of ticks since arrival.
func (r *Request) Elapsed(tick int) int {
	return tick - r.ArrivalTick
}

// AllObjectivesComplete reports whether every objective is completed.
// A request without objectives is never complete.
func (r *Request) AllObjectivesComplete() bool {
	if len(r.Objectives) == 0 {
		return false
	}
	for _, o := range r.Objectives {
		if !o.Completed {
			return false
		}
	}
	return true
}

// CompletedCount returns how many objectives are completed.
func (r *Request) CompletedCount() int {
	n := 0
	for _, o := range r.Objectives {
		if o.Completed {
			n++
		}
	}
	return n
}
