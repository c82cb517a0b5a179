package session

import (
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/nvandessel/clawback/internal/llm"
	"github.com/nvandessel/clawback/internal/models"
	"github.com/nvandessel/clawback/internal/sanitize"
	"github.com/nvandessel/clawback/internal/security"
	"github.com/nvandessel/clawback/internal/terminal"
)

// Costs of tool actions outside the terminal.
var (
	costOpenFile = terminal.Cost{Memory: 2}
	costEmail    = terminal.Cost{Network: 5, CPU: 1}
	costSearch   = terminal.Cost{Network: 3, CPU: 1}
)

func newSessionID() string { return uuid.NewString() }

func (s *Session) playing() error {
	if s.phase != PhasePlaying && s.phase != PhasePaused {
		return fmt.Errorf("%w (%s)", ErrNotPlaying, s.phase)
	}
	return nil
}

// Exec runs a terminal command line in the current directory. The line is
// recorded in the history, its resource cost applied and the classifier run
// on it. Output and errors are returned as the terminal would show them.
func (s *Session) Exec(line string) (models.TerminalEntry, error) {
	if err := s.playing(); err != nil {
		return models.TerminalEntry{}, err
	}
	line = sanitize.Input(line)
	s.tools.ActiveTool = models.ToolTerminal
	if line == "" {
		return models.TerminalEntry{Cwd: s.tools.Cwd, Tick: s.clock.Tick()}, nil
	}

	cwd := s.tools.Cwd
	res := s.term.Execute(line, cwd)
	entry := models.TerminalEntry{
		ID:      uuid.NewString(),
		Command: line,
		Output:  res.Output,
		Cwd:     cwd,
		Tick:    s.clock.Tick(),
		IsError: res.IsError,
	}
	s.tools.History = append(s.tools.History, entry)
	if res.NewCwd != "" {
		s.tools.Cwd = res.NewCwd
	}
	if res.Clear {
		s.tools.ClearedAt = len(s.tools.History)
	}
	s.resources.Apply(res.Cost)

	if v, ok := security.ClassifyCommand(line); ok {
		s.pending = append(s.pending, v)
	}
	return entry, nil
}

// Cwd returns the terminal's working directory.
func (s *Session) Cwd() string { return s.tools.Cwd }

// OpenFile opens a file in the file viewer and returns its content.
func (s *Session) OpenFile(path string) (string, error) {
	if err := s.playing(); err != nil {
		return "", err
	}
	s.tools.ActiveTool = models.ToolFiles
	data, err := s.fs.ReadFile(path, s.tools.Cwd)
	if err != nil {
		return "", fmt.Errorf("opening file: %w", err)
	}
	abs := s.fs.Resolve(path, s.tools.Cwd)
	if !slices.Contains(s.tools.OpenFiles, abs) {
		s.tools.OpenFiles = append(s.tools.OpenFiles, abs)
		s.resources.Apply(costOpenFile)
	}
	s.tools.ActiveFile = abs
	return data, nil
}

// CloseFile closes an open file. Closing frees the memory it held.
func (s *Session) CloseFile(path string) error {
	if err := s.playing(); err != nil {
		return err
	}
	abs := s.fs.Resolve(path, s.tools.Cwd)
	i := slices.Index(s.tools.OpenFiles, abs)
	if i < 0 {
		return fmt.Errorf("closing file: %s is not open", abs)
	}
	s.tools.OpenFiles = slices.Delete(s.tools.OpenFiles, i, i+1)
	s.resources.Apply(terminal.Cost{Memory: -costOpenFile.Memory})
	if s.tools.ActiveFile == abs {
		s.tools.ActiveFile = ""
	}
	return nil
}

// OpenTool switches the active tool panel.
func (s *Session) OpenTool(tool models.ToolID) error {
	if err := s.playing(); err != nil {
		return err
	}
	if !models.IsValidTool(string(tool)) {
		return fmt.Errorf("opening tool: unknown tool %q", tool)
	}
	s.tools.ActiveTool = tool
	return nil
}

// SendChat posts a player message to a coworker. When the coworker is
// waiting on a request, they answer asynchronously.
func (s *Session) SendChat(npcID, text string) (models.ChatMessage, error) {
	if err := s.playing(); err != nil {
		return models.ChatMessage{}, err
	}
	if npcID == "" {
		npcID = s.npc.ID
	}
	npc, ok := s.npcs[npcID]
	if !ok {
		return models.ChatMessage{}, fmt.Errorf("chat: %w: %s", ErrUnknownNPC, npcID)
	}
	s.tools.ActiveTool = models.ToolChat

	msg, err := s.chat.Reply(npcID, sanitize.Input(text), s.clock.Tick())
	if err != nil {
		return models.ChatMessage{}, fmt.Errorf("chat: %w", err)
	}
	if npc.Mood == models.MoodGone {
		return msg, nil
	}
	for _, r := range s.requests.Open() {
		if r.NPCID != npcID {
			continue
		}
		// Without a provider there is no canned reply; the line is dropped.
		npc.Typing = true
		s.narrator.say(llm.LineBrief{
			NPC:        s.persona(npcID),
			Kind:       llm.LineReply,
			Request:    r,
			PlayerText: msg.Text,
		}, "")
		break
	}
	return msg, nil
}

// SendEmail sends mail from the assistant. Messages carrying credentials to
// an outside address raise a violation; the mail is sent regardless.
func (s *Session) SendEmail(to, subject, body string) (models.Email, error) {
	if err := s.playing(); err != nil {
		return models.Email{}, err
	}
	s.tools.ActiveTool = models.ToolEmail
	e, err := s.mail.Send(sanitize.Field(to), sanitize.Field(subject), sanitize.Message(body), s.clock.Tick())
	if err != nil {
		return models.Email{}, fmt.Errorf("sending email: %w", err)
	}
	s.resources.Apply(costEmail)
	if v, ok := security.ClassifyMessage(e.To, e.Body); ok {
		s.pending = append(s.pending, v)
	}
	return e, nil
}

// ReadEmail opens an email and marks it read.
func (s *Session) ReadEmail(id string) (models.Email, error) {
	if err := s.playing(); err != nil {
		return models.Email{}, err
	}
	s.tools.ActiveTool = models.ToolEmail
	e, err := s.mail.Open(id)
	if err != nil {
		return models.Email{}, fmt.Errorf("reading email: %w", err)
	}
	return e, nil
}

// Search runs a web search.
func (s *Session) Search(query string) ([]models.SearchResult, error) {
	if err := s.playing(); err != nil {
		return nil, err
	}
	s.tools.ActiveTool = models.ToolSearch
	results := s.search.Search(sanitize.Field(query))
	s.resources.Apply(costSearch)
	return results, nil
}

// AddEvent schedules a calendar event. conflict reports an overlap with an
// existing event; the event is added either way.
func (s *Session) AddEvent(title string, day, startHour, endHour int) (e models.CalendarEvent, conflict bool, err error) {
	if err := s.playing(); err != nil {
		return models.CalendarEvent{}, false, err
	}
	s.tools.ActiveTool = models.ToolCalendar
	if day == 0 {
		day = s.clock.Day()
	}
	conflict = s.cal.HasConflict(day, startHour, endHour)
	e, err = s.cal.Add(sanitize.Field(title), day, startHour, endHour)
	if err != nil {
		return models.CalendarEvent{}, false, fmt.Errorf("adding event: %w", err)
	}
	return e, conflict, nil
}
