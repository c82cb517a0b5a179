package session

import (
	"context"
	"fmt"

	"github.com/nvandessel/clawback/internal/constants"
	"github.com/nvandessel/clawback/internal/llm"
	"github.com/nvandessel/clawback/internal/models"
	"github.com/nvandessel/clawback/internal/requests"
	"github.com/nvandessel/clawback/internal/scheduler"
	"github.com/nvandessel/clawback/internal/scoring"
	"github.com/nvandessel/clawback/internal/security"
)

// Tick advances the shift by one tick and returns the events it produced.
// A paused or finished session does not advance.
//
// Order within a tick: clock, resources, narrative delivery, violations
// (which may end the shift), new requests, request lifecycle, shift end.
func (s *Session) Tick(ctx context.Context) []models.Event {
	if s.phase != PhasePlaying {
		return nil
	}
	start := len(s.events)

	s.clock.Advance()
	tick := s.clock.Tick()
	s.fs.SetTick(tick)

	s.tickResources(ctx)
	s.deliverLines(ctx)

	s.applyViolations(ctx)
	if s.phase.IsOver() {
		return s.events[start:]
	}

	for _, r := range s.sched.Tick(scheduler.Input{
		Tick:         tick,
		WorkHours:    s.clock.IsWorkHours(),
		OpenRequests: s.requests.OpenCount(),
		NPC:          s.npc,
		Files:        s.fs.AllFilePaths,
	}) {
		out := s.requests.Add(r, s)
		s.journalRequest(ctx, r.ID)
		s.handle(ctx, out)
	}

	for _, out := range s.requests.Tick(tick, s) {
		s.handle(ctx, out)
	}

	if s.opts.ShiftDays > 0 && s.clock.Day() >= s.opts.ShiftDays && s.clock.Hour() >= constants.WorkdayEndHour {
		s.endShift(ctx)
	}
	return s.events[start:]
}

func (s *Session) tickResources(ctx context.Context) {
	s.resources.Recover()
	active := make(map[Warning]bool)
	for _, w := range s.resources.Warnings() {
		active[w] = true
		if !s.warned[w] {
			s.emit(ctx, models.Event{Kind: models.EventResourceWarning, Message: string(w)})
		}
	}
	s.warned = active
}

func (s *Session) deliverLines(ctx context.Context) {
	tick := s.clock.Tick()
	for _, d := range s.narrator.drain() {
		if npc, ok := s.npcs[d.npcID]; ok {
			npc.Typing = false
		}
		s.chat.Receive(d.npcID, d.text, tick)
		s.emit(ctx, models.Event{Kind: models.EventNPCMessage, NPCID: d.npcID, Message: d.text})
	}
	if !s.narrator.typing() {
		for _, npc := range s.npcs {
			npc.Typing = false
		}
	}
}

// applyViolations drains the filesystem queue and the classifier results of
// actions since the last tick and applies their consequences. Trap nodes
// and the classifier may both report the same action.
func (s *Session) applyViolations(ctx context.Context) {
	queued := append(s.fs.DrainViolations(), s.pending...)
	s.pending = nil

	for _, v := range queued {
		c := security.ConsequenceFor(v)
		remaining := s.score.PenalizeSecurity(c.SecurityPenalty)
		s.score.Add(-c.ScorePenalty)
		s.violations = append(s.violations, v)

		s.logger.Warn("security violation", "kind", v.Kind, "source", v.Source, "path", v.Path, "security", remaining)
		s.decisions.Decide("session", "violation", map[string]any{
			"kind": string(v.Kind), "source": string(v.Source), "path": v.Path, "detail": v.Detail,
			"security_penalty": c.SecurityPenalty, "score_penalty": c.ScorePenalty, "security": remaining,
		})
		s.emit(ctx, models.Event{Kind: models.EventSecurity, Message: "SECURITY ALERT: " + c.Message, Points: -c.ScorePenalty})

		if s.score.Compromised() {
			s.gameOver(ctx)
			return
		}
	}
}

// handle turns a request outcome into events, narrative lines and notices.
func (s *Session) handle(ctx context.Context, out requests.Outcome) {
	e := models.Event{RequestID: out.RequestID, NPCID: out.NPCID, Points: out.Points}
	switch out.Kind {
	case requests.OutcomeArrived:
		e.Kind = models.EventRequestArrived
		e.Message = fmt.Sprintf("New request: %s", out.Title)
		s.narrate(out, llm.LineInitial)
	case requests.OutcomeActivated:
		e.Kind = models.EventRequestActive
		e.Message = out.Title
	case requests.OutcomeProgressed:
		e.Kind = models.EventRequestProgress
		e.Message = fmt.Sprintf("%s: %d objective(s) completed", out.Title, len(out.Objectives))
	case requests.OutcomeFrustrated:
		e.Kind = models.EventNPCFrustrated
		e.Message = fmt.Sprintf("%s is getting impatient about %s", s.persona(out.NPCID).Name, out.Title)
	case requests.OutcomeCompleted:
		e.Kind = models.EventRequestCompleted
		e.Message = fmt.Sprintf("Request complete: %s (+%d)", out.Title, out.Points)
		s.narrate(out, llm.LineCompletion)
		s.journalRequest(ctx, out.RequestID)
	case requests.OutcomeExpired:
		e.Kind = models.EventRequestExpired
		e.Message = fmt.Sprintf("Request expired: %s", out.Title)
		s.narrate(out, llm.LineFailure)
		s.journalRequest(ctx, out.RequestID)
	case requests.OutcomeNPCLeft:
		e.Kind = models.EventNPCLeft
		e.Message = fmt.Sprintf("%s has given up and left", s.persona(out.NPCID).Name)
		s.chat.Notice(out.NPCID, e.Message, s.clock.Tick())
	case requests.OutcomeFailed:
		e.Kind = models.EventRequestFailed
		e.Message = fmt.Sprintf("Request unfinished at end of shift: %s", out.Title)
		s.journalRequest(ctx, out.RequestID)
	default:
		return
	}
	s.emit(ctx, e)
}

// narrate schedules the NPC line for an outcome. The outcome message is the
// fallback when the provider is unavailable.
func (s *Session) narrate(out requests.Outcome, kind llm.LineKind) {
	npc, ok := s.npcs[out.NPCID]
	if !ok || (npc.Mood == models.MoodGone && kind != llm.LineFailure) {
		return
	}
	r, _ := s.requests.Get(out.RequestID)
	npc.Typing = true
	s.narrator.say(llm.LineBrief{NPC: s.persona(out.NPCID), Kind: kind, Request: r}, out.Message)
}

func (s *Session) gameOver(ctx context.Context) {
	s.phase = PhaseGameOver
	sum := scoring.Summarize(*s.score, s.clock.Snapshot())
	s.summary = &sum
	s.logger.Info("game over", "session", s.id, "tick", s.clock.Tick(), "score", s.score.Total)
	s.emit(ctx, models.Event{Kind: models.EventGameOver, Message: GameOverMessage})
}

func (s *Session) endShift(ctx context.Context) {
	for _, out := range s.requests.FailOpen(s.clock.Tick(), s) {
		s.handle(ctx, out)
	}
	s.phase = PhaseEnded
	sum := scoring.Summarize(*s.score, s.clock.Snapshot())
	s.summary = &sum
	s.logger.Info("shift ended", "session", s.id, "grade", sum.Grade, "score", sum.TotalScore)
	s.emit(ctx, models.Event{
		Kind:    models.EventShiftEnded,
		Message: fmt.Sprintf("Shift over. Grade %s, %d points.", sum.Grade, sum.TotalScore),
		Points:  sum.TotalScore,
	})
}

// End finishes the shift now, counting open requests as failed.
func (s *Session) End(ctx context.Context) scoring.Summary {
	if !s.phase.IsOver() && s.phase != PhaseSetup {
		s.endShift(ctx)
	}
	return s.Summary()
}

func (s *Session) emit(ctx context.Context, e models.Event) {
	e.Tick = s.clock.Tick()
	e.Day = s.clock.Day()
	s.events = append(s.events, e)
	if s.opts.Journal == nil {
		return
	}
	if err := s.opts.Journal.RecordEvent(ctx, s.id, e); err != nil {
		s.logger.Warn("journal event failed", "kind", e.Kind, "error", err)
	}
}

func (s *Session) journalRequest(ctx context.Context, id string) {
	if s.opts.Journal == nil {
		return
	}
	r, ok := s.requests.Get(id)
	if !ok {
		return
	}
	if err := s.opts.Journal.RecordRequest(ctx, s.id, r); err != nil {
		s.logger.Warn("journal request failed", "request", id, "error", err)
	}
}
