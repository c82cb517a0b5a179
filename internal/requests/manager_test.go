package requests

import (
	"testing"

	"github.com/nvandessel/clawback/internal/constants"
	"github.com/nvandessel/clawback/internal/models"
)

type fakeSession struct {
	history []models.TerminalEntry
	score   *models.Score
	npcs    map[string]*models.NPCState
}

func newSession() *fakeSession {
	return &fakeSession{
		score: models.NewScore(),
		npcs: map[string]*models.NPCState{
			"sarah": models.NewNPCState("sarah", constants.StartingReputation),
		},
	}
}

func (f *fakeSession) TerminalHistory() []models.TerminalEntry { return f.history }
func (f *fakeSession) OpenFiles() []string { return nil }
func (f *fakeSession) Conversation(string) []models.ChatMessage { return nil }
func (f *fakeSession) ActiveTool() models.ToolID { return models.ToolTerminal }
func (f *fakeSession) SearchQuery() string { return "" }
func (f *fakeSession) SearchResultCount() int { return 0 }
func (f *fakeSession) Emails() []models.Email { return nil }
func (f *fakeSession) CalendarEvents() []models.CalendarEvent { return nil }
func (f *fakeSession) SecurityScore() int { return f.score.Security }
func (f *fakeSession) Score() *models.Score { return f.score }
func (f *fakeSession) NPC(id string) *models.NPCState { return f.npcs[id] }

func (f *fakeSession) run(cmd string) {
	f.history = append(f.history, models.TerminalEntry{Command: cmd})
}

func gitRequest(arrival int) models.Request {
	return models.Request{
		NPCID:         "sarah",
		Title:         "Check git status",
		Tier:          1,
		ArrivalTick:   arrival,
		DeadlineTicks: 40,
		BasePoints:    100,
		Objectives: []models.Objective{
			{Description: "Run git status", Validator: "command_executed", Params: models.Params{"command": "git status"}},
			{Description: "Run ls", Validator: "command_executed", Params: models.Params{"command": "ls"}},
		},
		InitialMessage:    "hey",
		CompletionMessage: "thanks",
		FailureMessage:    "ugh",
	}
}

func kinds(out []Outcome) []OutcomeKind {
	k := make([]OutcomeKind, len(out))
	for i, o := range out {
		k[i] = o.Kind
	}
	return k
}

func TestAdd(t *testing.T) {
	m := NewManager()
	s := newSession()

	o := m.Add(gitRequest(0), s)
	if o.Kind != OutcomeArrived || o.Message != "hey" || o.RequestID == "" {
		t.Fatalf("Add outcome = %+v", o)
	}
	npc := s.NPC("sarah")
	if npc.Mood != models.MoodWaiting || !npc.Typing {
		t.Errorf("npc = %+v, want waiting and typing", npc)
	}
	r, ok := m.Get(o.RequestID)
	if !ok || r.Status != models.StatusIncoming {
		t.Fatalf("Get = %+v, %v", r, ok)
	}
	if r.Objectives[0].ID != "obj-1" || r.Objectives[1].ID != "obj-2" {
		t.Errorf("objective ids = %q, %q", r.Objectives[0].ID, r.Objectives[1].ID)
	}
}

func TestTick_Lifecycle(t *testing.T) {
	m := NewManager()
	s := newSession()
	id := m.Add(gitRequest(0), s).RequestID

	if out := m.Tick(2, s); len(out) != 0 {
		t.Fatalf("tick 2 = %v, want nothing during grace", kinds(out))
	}
	out := m.Tick(3, s)
	if len(out) != 1 || out[0].Kind != OutcomeActivated {
		t.Fatalf("tick 3 = %v", kinds(out))
	}

	s.run("git status")
	out = m.Tick(4, s)
	if len(out) != 1 || out[0].Kind != OutcomeProgressed || len(out[0].Objectives) != 1 {
		t.Fatalf("tick 4 = %+v", out)
	}
	if r, _ := m.Get(id); r.Status != models.StatusInProgress {
		t.Errorf("status = %s, want in_progress", r.Status)
	}

	s.run("ls -la")
	out = m.Tick(5, s)
	if got := kinds(out); len(got) != 2 || got[1] != OutcomeCompleted {
		t.Fatalf("tick 5 = %v", got)
	}
	// ratio 5/40 -> 2.0 speed, no streak, tier 1
	if out[1].Points != 200 || out[1].Message != "thanks" {
		t.Errorf("completion = %+v", out[1])
	}
	if s.score.Total != 200 || s.score.Streak != 1 || s.score.RequestsCompleted != 1 {
		t.Errorf("score = %+v", s.score)
	}
	npc := s.NPC("sarah")
	if npc.Reputation != constants.StartingReputation+constants.CompletionReputation || npc.Mood != models.MoodHappy {
		t.Errorf("npc = %+v", npc)
	}

	if out := m.Tick(100, s); len(out) != 0 {
		t.Errorf("completed request produced %v", kinds(out))
	}
}

func TestTick_ExpiryBeforeObjectives(t *testing.T) {
	m := NewManager()
	s := newSession()
	s.score.Streak = 3
	id := m.Add(gitRequest(0), s).RequestID
	m.Tick(3, s)

	s.run("git status")
	s.run("ls")
	out := m.Tick(40, s)
	if got := kinds(out); len(got) != 1 || got[0] != OutcomeExpired {
		t.Fatalf("tick 40 = %v, want only expired", got)
	}
	r, _ := m.Get(id)
	if r.Status != models.StatusExpired || r.CompletedCount() != 0 {
		t.Errorf("request = %s with %d objectives", r.Status, r.CompletedCount())
	}
	if s.score.Total != -constants.ExpiryPenalty || s.score.Streak != 0 || s.score.RequestsExpired != 1 {
		t.Errorf("score = %+v", s.score)
	}
	if npc := s.NPC("sarah"); npc.Mood != models.MoodAngry || npc.Reputation != 35 {
		t.Errorf("npc = %+v", npc)
	}
}

func TestTick_Frustration(t *testing.T) {
	m := NewManager()
	s := newSession()
	m.Add(gitRequest(0), s)
	m.Tick(3, s)

	out := m.Tick(30, s)
	if got := kinds(out); len(got) != 1 || got[0] != OutcomeFrustrated {
		t.Fatalf("tick 30 = %v", got)
	}
	if s.NPC("sarah").Mood != models.MoodFrustrated {
		t.Errorf("mood = %s", s.NPC("sarah").Mood)
	}
	if out := m.Tick(31, s); len(out) != 0 {
		t.Errorf("frustration repeated: %v", kinds(out))
	}
}

func TestTick_NPCLeaves(t *testing.T) {
	m := NewManager()
	s := newSession()
	s.NPC("sarah").Reputation = 10
	m.Add(gitRequest(0), s)
	m.Tick(3, s)

	out := m.Tick(40, s)
	got := kinds(out)
	if len(got) != 2 || got[0] != OutcomeExpired || got[1] != OutcomeNPCLeft {
		t.Fatalf("outcomes = %v", got)
	}
	npc := s.NPC("sarah")
	if npc.Mood != models.MoodGone || npc.Reputation != 0 {
		t.Errorf("npc = %+v", npc)
	}
}

func TestRequestWithoutObjectivesNeverCompletes(t *testing.T) {
	m := NewManager()
	s := newSession()
	r := gitRequest(0)
	r.Objectives = nil
	m.Add(r, s)
	m.Tick(3, s)
	for _, o := range m.Tick(4, s) {
		if o.Kind == OutcomeCompleted {
			t.Fatal("empty request completed")
		}
	}
}

func TestFailOpen(t *testing.T) {
	m := NewManager()
	s := newSession()
	m.Add(gitRequest(0), s)
	done := gitRequest(0)
	done.Objectives = done.Objectives[:1]
	m.Add(done, s)
	s.run("git status")
	m.Tick(3, s)
	m.Tick(4, s)

	if m.OpenCount() != 1 || !m.HasOpen("sarah") {
		t.Fatalf("OpenCount = %d", m.OpenCount())
	}
	out := m.FailOpen(10, s)
	if len(out) != 1 || out[0].Kind != OutcomeFailed || s.score.RequestsFailed != 1 {
		t.Errorf("FailOpen = %v, failed = %d", kinds(out), s.score.RequestsFailed)
	}
}

func TestRequestsAreCopies(t *testing.T) {
	m := NewManager()
	s := newSession()
	id := m.Add(gitRequest(0), s).RequestID

	rs := m.Requests()
	rs[0].Status = models.StatusCompleted
	rs[0].Objectives[0].Params["command"] = "rm"
	r, _ := m.Get(id)
	if r.Status != models.StatusIncoming || r.Objectives[0].Params.String("command") != "git status" {
		t.Error("mutating a copy changed the manager")
	}
}
