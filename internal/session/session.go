// Package session holds the complete state of one shift and orchestrates it.
// A Session owns the clock, filesystem, terminal, office tools, request
// manager, scheduler and score; Tick advances all of them by one tick and
// player actions mutate them in between. A Session is not safe for
// concurrent use; Driver serialises ticks and actions.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nvandessel/clawback/internal/clock"
	"github.com/nvandessel/clawback/internal/constants"
	"github.com/nvandessel/clawback/internal/content"
	"github.com/nvandessel/clawback/internal/logging"
	"github.com/nvandessel/clawback/internal/models"
	"github.com/nvandessel/clawback/internal/office"
	"github.com/nvandessel/clawback/internal/provider"
	"github.com/nvandessel/clawback/internal/requests"
	"github.com/nvandessel/clawback/internal/scheduler"
	"github.com/nvandessel/clawback/internal/scoring"
	"github.com/nvandessel/clawback/internal/terminal"
	"github.com/nvandessel/clawback/internal/vfs"
)

// Phase is the session lifecycle position.
type Phase string

const (
	PhaseSetup    Phase = "setup"
	PhasePlaying  Phase = "playing"
	PhasePaused   Phase = "paused"
	PhaseGameOver Phase = "gameover"
	PhaseEnded    Phase = "ended"
)

// IsOver reports whether the session has finished.
func (p Phase) IsOver() bool {
	return p == PhaseGameOver || p == PhaseEnded
}

// Errors returned by player actions.
var (
	ErrNotPlaying  = errors.New("shift is not running")
	ErrUnknownNPC  = errors.New("unknown coworker")
	ErrNoActiveNPC = errors.New("no coworker selected")
)

// GameOverMessage is the notice shown when security reaches zero.
const GameOverMessage = "Security score reached 0. System compromised!"

// Journal receives session events and request snapshots. store.Journal
// implements it.
type Journal interface {
	RecordEvent(ctx context.Context, sessionID string, e models.Event) error
	RecordRequest(ctx context.Context, sessionID string, r models.Request) error
}

// Options configures a Session.
type Options struct {
	Difficulty models.Difficulty

	// Seed seeds the scheduler and typing delays. 0 picks a random seed.
	Seed uint64

	// ShiftDays ends the shift at the end of that workday. 0 runs until
	// game over.
	ShiftDays int

	// NPC selects the coworker by persona id. Empty picks the first persona.
	NPC string

	// Personas overrides the roster. Nil asks the gateway, which falls back
	// to the built-in personas.
	Personas []models.Persona

	// Gateway reaches the narrative provider. Nil uses fallback content only.
	Gateway *provider.Gateway

	TickInterval   time.Duration
	TypingDelayMin time.Duration
	TypingDelayMax time.Duration

	Journal   Journal
	Logger    *slog.Logger
	Decisions *logging.DecisionLogger
}

// Session is one shift.
type Session struct {
	opts      Options
	id        string
	logger    *slog.Logger
	decisions *logging.DecisionLogger

	phase Phase
	clock *clock.Clock
	fs    *vfs.FS
	term  *terminal.Interpreter
	tools models.ToolState

	mail   *office.Mailbox
	cal    *office.Calendar
	search *office.SearchEngine
	chat   *office.Chat

	requests *requests.Manager
	sched    *scheduler.Scheduler
	narrator *narrator

	score     *models.Score
	resources Resources
	warned    map[Warning]bool

	personas []models.Persona
	npc      models.Persona
	npcs     map[string]*models.NPCState

	// pending holds classifier violations raised by actions since the last
	// tick. They are applied together with the filesystem's queue.
	pending    []models.Violation
	violations []models.Violation
	events     []models.Event
	cursor     int
	summary    *scoring.Summary
}

// New creates a session in the setup phase. Start begins the shift.
func New(opts Options) *Session {
	if opts.Difficulty == "" {
		opts.Difficulty = models.DifficultyNormal
	}
	s := &Session{
		opts:      opts,
		logger:    logging.OrDiscard(opts.Logger),
		decisions: opts.Decisions,
		clock:     clock.New(),
		fs:        vfs.NewFromSeed(content.MustFilesystem()),
		mail:      office.NewMailbox(content.MustEmails()),
		cal:       office.NewCalendar(content.MustCalendarEvents()),
		search:    office.NewSearchEngine(content.MustSearchIndex()),
		chat:      office.NewChat(),
		requests:  requests.NewManager(),
	}
	s.clock.SetBaseInterval(opts.TickInterval)
	s.term = terminal.New(s.fs, terminal.WithHistory(s.commandLines))

	var gen scheduler.Generator
	var lines LineSource
	if opts.Gateway != nil {
		gen = opts.Gateway
		lines = opts.Gateway
	}
	s.sched = scheduler.New(gen, scheduler.Options{
		Difficulty: opts.Difficulty,
		Seed:       opts.Seed,
		Logger:     opts.Logger,
		Decisions:  opts.Decisions,
	})
	s.narrator = newNarrator(lines, opts.TypingDelayMin, opts.TypingDelayMax, opts.Seed)
	s.resetState()
	return s
}

func (s *Session) resetState() {
	s.id = newSessionID()
	s.phase = PhaseSetup
	s.tools = models.NewToolState(constants.HomeDir)
	s.score = models.NewScore()
	s.resources = NewResources()
	s.warned = make(map[Warning]bool)
	s.npcs = make(map[string]*models.NPCState)
	s.pending = nil
	s.violations = nil
	s.events = nil
	s.cursor = 0
	s.summary = nil
}

// Start loads the roster, selects the coworker and begins the shift.
func (s *Session) Start(ctx context.Context) error {
	if s.phase != PhaseSetup {
		return fmt.Errorf("starting shift: already %s", s.phase)
	}

	personas := s.opts.Personas
	if len(personas) == 0 {
		var src models.RequestSource
		personas, src = s.opts.Gateway.Personas(ctx, s.opts.Difficulty, constants.DefaultPersonaCount)
		s.logger.Debug("loaded personas", "count", len(personas), "source", src)
	}
	if len(personas) == 0 {
		return fmt.Errorf("starting shift: %w", ErrNoActiveNPC)
	}

	npc := personas[0]
	if s.opts.NPC != "" {
		found := false
		for _, p := range personas {
			if p.ID == s.opts.NPC {
				npc, found = p, true
				break
			}
		}
		if !found {
			return fmt.Errorf("starting shift: %w: %s", ErrUnknownNPC, s.opts.NPC)
		}
	}

	s.personas = personas
	s.npc = npc
	for _, p := range personas {
		s.npcs[p.ID] = models.NewNPCState(p.ID, constants.StartingReputation)
	}
	s.phase = PhasePlaying
	s.logger.Info("shift started", "session", s.id, "difficulty", s.opts.Difficulty, "npc", npc.ID)
	return nil
}

// Reset discards the shift and returns to the setup phase. In-flight
// generation and undelivered lines are dropped.
func (s *Session) Reset() {
	s.sched.Reset()
	s.narrator.reset()
	s.clock.Reset()
	s.fs.Reset()
	s.mail.Reset(content.MustEmails())
	s.cal.Reset(content.MustCalendarEvents())
	s.search.Reset()
	s.chat.Reset()
	s.requests.Reset()
	s.resetState()
}

// Close stops background work.
func (s *Session) Close() {
	s.sched.Close()
	s.narrator.close()
}

// WaitIdle blocks until no generation or line delivery is running.
func (s *Session) WaitIdle() {
	s.sched.WaitIdle()
	s.narrator.wait()
}

// Pause stops the clock without ending the shift.
func (s *Session) Pause() error {
	if s.phase != PhasePlaying {
		return ErrNotPlaying
	}
	s.phase = PhasePaused
	return nil
}

// Resume restarts a paused shift.
func (s *Session) Resume() error {
	if s.phase != PhasePaused {
		return fmt.Errorf("resuming shift: %s", s.phase)
	}
	s.phase = PhasePlaying
	return nil
}

// SetSpeed changes the clock speed.
func (s *Session) SetSpeed(sp clock.Speed) { s.clock.SetSpeed(sp) }

// TickInterval returns the real-time interval between ticks, 0 when paused.
func (s *Session) TickInterval() time.Duration { return s.clock.TickInterval() }

// ID returns the session id used in the journal.
func (s *Session) ID() string { return s.id }

// Phase returns the lifecycle phase.
func (s *Session) Phase() Phase { return s.phase }

// Clock returns a snapshot of the clock.
func (s *Session) Clock() clock.Snapshot { return s.clock.Snapshot() }

// Resources returns the current gauges.
func (s *Session) Resources() Resources { return s.resources }

// Personas returns the roster.
func (s *Session) Personas() []models.Persona {
	return append([]models.Persona(nil), s.personas...)
}

// ActiveNPC returns the selected coworker.
func (s *Session) ActiveNPC() models.Persona { return s.npc }

// NPCState returns a copy of an NPC's runtime state.
func (s *Session) NPCState(id string) (models.NPCState, bool) {
	n, ok := s.npcs[id]
	if !ok {
		return models.NPCState{}, false
	}
	return *n, true
}

// Requests returns every request of the shift in arrival order.
func (s *Session) Requests() []models.Request { return s.requests.Requests() }

// OpenRequests returns the requests still waiting on the player.
func (s *Session) OpenRequests() []models.Request { return s.requests.Open() }

// Violations returns every violation applied so far.
func (s *Session) Violations() []models.Violation {
	return append([]models.Violation(nil), s.violations...)
}

// Events returns every event of the shift.
func (s *Session) Events() []models.Event {
	return append([]models.Event(nil), s.events...)
}

// NewEvents returns the events recorded since the previous call.
func (s *Session) NewEvents() []models.Event {
	out := append([]models.Event(nil), s.events[s.cursor:]...)
	s.cursor = len(s.events)
	return out
}

// Mailbox, Calendar and Chat expose the office tools for reading.
func (s *Session) Mailbox() *office.Mailbox { return s.mail }
func (s *Session) Calendar() *office.Calendar { return s.cal }
func (s *Session) Chat() *office.Chat { return s.chat }

// Summary returns the end-of-session summary. Before the shift ends it
// summarises the shift so far.
func (s *Session) Summary() scoring.Summary {
	if s.summary != nil {
		return *s.summary
	}
	return scoring.Summarize(*s.score, s.clock.Snapshot())
}

// Status is a point-in-time view of the session for player surfaces.
type Status struct {
	SessionID    string           `json:"session_id"`
	Phase        Phase            `json:"phase"`
	Time         string           `json:"time"`
	Clock        clock.Snapshot   `json:"clock"`
	Score        models.Score     `json:"score"`
	Resources    Resources        `json:"resources"`
	NPC          models.Persona   `json:"npc"`
	NPCState     models.NPCState  `json:"npc_state"`
	Open         []models.Request `json:"open_requests"`
	UnreadEmails int              `json:"unread_emails"`
	Cwd          string           `json:"cwd"`
	ActiveTool   models.ToolID    `json:"active_tool"`
	Typing       bool             `json:"typing"`
}

// Status returns the current view of the session.
func (s *Session) Status() Status {
	st := Status{
		SessionID:    s.id,
		Phase:        s.phase,
		Time:         s.clock.TimeString(),
		Clock:        s.clock.Snapshot(),
		Score:        *s.score,
		Resources:    s.resources,
		NPC:          s.npc,
		Open:         s.requests.Open(),
		UnreadEmails: s.mail.UnreadCount(),
		Cwd:          s.tools.Cwd,
		ActiveTool:   s.tools.ActiveTool,
		Typing:       s.narrator.typing(),
	}
	if n, ok := s.npcs[s.npc.ID]; ok {
		st.NPCState = *n
	}
	return st
}

// persona returns the roster entry for id, or a bare persona.
func (s *Session) persona(id string) models.Persona {
	for _, p := range s.personas {
		if p.ID == id {
			return p
		}
	}
	return models.Persona{ID: id, Name: id}
}

// Score implements requests.Session.
func (s *Session) Score() *models.Score { return s.score }

// NPC implements requests.Session.
func (s *Session) NPC(id string) *models.NPCState { return s.npcs[id] }

// TerminalHistory implements validators.State. It includes entries hidden
// by clear.
func (s *Session) TerminalHistory() []models.TerminalEntry { return s.tools.History }

// VisibleHistory returns the terminal history after the last clear.
func (s *Session) VisibleHistory() []models.TerminalEntry {
	return s.tools.History[s.tools.ClearedAt:]
}

// OpenFiles implements validators.State.
func (s *Session) OpenFiles() []string { return s.tools.OpenFiles }

// Conversation implements validators.State.
func (s *Session) Conversation(npcID string) []models.ChatMessage {
	return s.chat.Conversation(npcID)
}

// ActiveTool implements validators.State.
func (s *Session) ActiveTool() models.ToolID { return s.tools.ActiveTool }

// SearchQuery implements validators.State.
func (s *Session) SearchQuery() string { return s.search.Query() }

// SearchResultCount implements validators.State.
func (s *Session) SearchResultCount() int { return len(s.search.Results()) }

// Emails implements validators.State.
func (s *Session) Emails() []models.Email { return s.mail.List() }

// CalendarEvents implements validators.State.
func (s *Session) CalendarEvents() []models.CalendarEvent { return s.cal.All() }

// SecurityScore implements validators.State.
func (s *Session) SecurityScore() int { return s.score.Security }

func (s *Session) commandLines() []string {
	out := make([]string, len(s.tools.History))
	for i, e := range s.tools.History {
		out[i] = e.Command
	}
	return out
}
