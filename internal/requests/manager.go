// Package requests owns the request lifecycle. The Manager advances every
// open request once per tick and returns what happened as Outcome values;
// it applies score, streak, reputation and mood changes through Session.
package requests

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/nvandessel/clawback/internal/constants"
	"github.com/nvandessel/clawback/internal/models"
	"github.com/nvandessel/clawback/internal/scoring"
	"github.com/nvandessel/clawback/internal/validators"
)

// OutcomeKind names a lifecycle event.
type OutcomeKind string

const (
	OutcomeArrived    OutcomeKind = "arrived"
	OutcomeActivated  OutcomeKind = "activated"
	OutcomeProgressed OutcomeKind = "progressed"
	OutcomeFrustrated OutcomeKind = "frustrated"
	OutcomeCompleted  OutcomeKind = "completed"
	OutcomeExpired    OutcomeKind = "expired"
	OutcomeNPCLeft    OutcomeKind = "npc_left"
	OutcomeFailed     OutcomeKind = "failed"
)

// Outcome is one lifecycle event produced by Add, Tick or FailOpen.
type Outcome struct {
	Kind           OutcomeKind `json:"kind"`
	RequestID      string      `json:"request_id"`
	NPCID          string      `json:"npc_id"`
	Title          string      `json:"title"`
	Tick           int         `json:"tick"`
	Points         int         `json:"points,omitempty"`
	Objectives     []string    `json:"objectives,omitempty"`
	Message        string      `json:"message,omitempty"`
	IsSecurityTrap bool        `json:"is_security_trap,omitempty"`
}

// Session is what the manager reads and mutates while advancing requests.
type Session interface {
	validators.State
	Score() *models.Score
	NPC(id string) *models.NPCState
}

// Manager holds every request of a session in arrival order.
type Manager struct {
	requests []*models.Request
	newID    func() string
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{newID: uuid.NewString}
}

// Reset drops every request.
func (m *Manager) Reset() {
	m.requests = nil
}

// Add registers an arriving request: it starts incoming, the NPC starts
// waiting and typing, and the returned outcome carries the initial message.
func (m *Manager) Add(r models.Request, s Session) Outcome {
	if r.ID == "" {
		r.ID = m.newID()
	}
	for i := range r.Objectives {
		if r.Objectives[i].ID == "" {
			r.Objectives[i].ID = fmt.Sprintf("obj-%d", i+1)
		}
	}
	r.Status = models.StatusIncoming
	c := clone(&r)
	req := &c
	m.requests = append(m.requests, req)

	if npc := s.NPC(r.NPCID); npc != nil {
		npc.Mood = models.MoodWaiting
		npc.Typing = true
	}
	return outcome(OutcomeArrived, req, r.ArrivalTick, r.InitialMessage)
}

func outcome(kind OutcomeKind, r *models.Request, tick int, message string) Outcome {
	return Outcome{
		Kind:           kind,
		RequestID:      r.ID,
		NPCID:          r.NPCID,
		Title:          r.Title,
		Tick:           tick,
		Message:        message,
		IsSecurityTrap: r.IsSecurityTrap,
	}
}

// Tick advances every open request. Expiry is checked before objectives, so
// a request whose deadline has passed cannot complete on the same tick.
func (m *Manager) Tick(tick int, s Session) []Outcome {
	var out []Outcome
	for _, r := range m.requests {
		switch {
		case r.Status == models.StatusIncoming:
			if tick-r.ArrivalTick > constants.IncomingGraceTicks {
				r.Status = models.StatusActive
				out = append(out, outcome(OutcomeActivated, r, tick, ""))
			}
			continue
		case !r.Status.IsOpen():
			continue
		}

		elapsed := r.Elapsed(tick)
		if elapsed >= r.DeadlineTicks {
			out = append(out, m.expire(r, tick, s)...)
			continue
		}

		if !r.Frustrated && float64(elapsed) >= float64(r.DeadlineTicks)*constants.FrustrationRatio {
			r.Frustrated = true
			if npc := s.NPC(r.NPCID); npc != nil && npc.Mood != models.MoodGone {
				npc.Mood = models.MoodFrustrated
			}
			out = append(out, outcome(OutcomeFrustrated, r, tick, ""))
		}

		var done []string
		for i := range r.Objectives {
			o := &r.Objectives[i]
			if o.Completed {
				continue
			}
			if validators.Evaluate(o.Validator, s, o.Params) {
				o.Completed = true
				done = append(done, o.ID)
			}
		}
		if len(done) > 0 {
			r.Status = models.StatusInProgress
			o := outcome(OutcomeProgressed, r, tick, "")
			o.Objectives = done
			out = append(out, o)
		}

		if r.AllObjectivesComplete() {
			out = append(out, m.complete(r, tick, s))
		}
	}
	return out
}

func (m *Manager) complete(r *models.Request, tick int, s Session) Outcome {
	score := s.Score()
	points := scoring.RequestPoints(r, tick, score.Streak)

	r.Status = models.StatusCompleted
	r.ResolvedTick = tick
	r.AwardedPoints = points

	score.Add(points)
	score.IncrementStreak()
	score.RequestsCompleted++

	if npc := s.NPC(r.NPCID); npc != nil {
		gain := constants.CompletionReputation
		if r.IsSecurityTrap {
			gain = constants.TrapCompletionReputation
		}
		adjustReputation(npc, gain)
		if npc.Mood != models.MoodGone {
			npc.Mood = models.MoodHappy
		}
		npc.Typing = true
	}

	o := outcome(OutcomeCompleted, r, tick, r.CompletionMessage)
	o.Points = points
	return o
}

func (m *Manager) expire(r *models.Request, tick int, s Session) []Outcome {
	score := s.Score()

	r.Status = models.StatusExpired
	r.ResolvedTick = tick
	r.AwardedPoints = -constants.ExpiryPenalty

	score.ResetStreak()
	score.RequestsExpired++
	score.Add(-constants.ExpiryPenalty)

	out := []Outcome{outcome(OutcomeExpired, r, tick, r.FailureMessage)}
	out[0].Points = -constants.ExpiryPenalty

	npc := s.NPC(r.NPCID)
	if npc == nil || npc.Mood == models.MoodGone {
		return out
	}
	adjustReputation(npc, -constants.ExpiryReputation)
	npc.Mood = models.MoodAngry
	npc.Typing = true
	if npc.Reputation <= 0 {
		npc.Mood = models.MoodGone
		out = append(out, outcome(OutcomeNPCLeft, r, tick, ""))
	}
	return out
}

func adjustReputation(npc *models.NPCState, delta int) {
	npc.Reputation += delta
	if npc.Reputation < 0 {
		npc.Reputation = 0
	}
	if npc.Reputation > constants.MaxReputation {
		npc.Reputation = constants.MaxReputation
	}
}

// FailOpen resolves the shift end: every request still open counts as failed.
// Statuses are left untouched.
func (m *Manager) FailOpen(tick int, s Session) []Outcome {
	var out []Outcome
	for _, r := range m.requests {
		if !r.Status.IsOpen() {
			continue
		}
		s.Score().RequestsFailed++
		out = append(out, outcome(OutcomeFailed, r, tick, ""))
	}
	return out
}

// Requests returns copies of every request in arrival order.
func (m *Manager) Requests() []models.Request {
	out := make([]models.Request, len(m.requests))
	for i, r := range m.requests {
		out[i] = clone(r)
	}
	return out
}

// Open returns copies of the requests that are not yet resolved.
func (m *Manager) Open() []models.Request {
	var out []models.Request
	for _, r := range m.requests {
		if r.Status.IsOpen() {
			out = append(out, clone(r))
		}
	}
	return out
}

// OpenCount returns how many requests are not yet resolved.
func (m *Manager) OpenCount() int {
	n := 0
	for _, r := range m.requests {
		if r.Status.IsOpen() {
			n++
		}
	}
	return n
}

// HasOpen reports whether npcID has an unresolved request.
func (m *Manager) HasOpen(npcID string) bool {
	for _, r := range m.requests {
		if r.NPCID == npcID && r.Status.IsOpen() {
			return true
		}
	}
	return false
}

// Get returns a copy of the request with id.
func (m *Manager) Get(id string) (models.Request, bool) {
	for _, r := range m.requests {
		if r.ID == id {
			return clone(r), true
		}
	}
	return models.Request{}, false
}

// Titles returns every request title in arrival order.
func (m *Manager) Titles() []string {
	out := make([]string, len(m.requests))
	for i, r := range m.requests {
		out[i] = r.Title
	}
	return out
}

func clone(r *models.Request) models.Request {
	c := *r
	c.Objectives = make([]models.Objective, len(r.Objectives))
	for i, o := range r.Objectives {
		o.Params = o.Params.Clone()
		c.Objectives[i] = o
	}
	return c
}
