package models

// ToolID names a tool panel of the virtual desktop.
type ToolID string

const (
	ToolTerminal ToolID = "terminal"
	ToolFiles    ToolID = "files"
	ToolEmail    ToolID = "email"
	ToolCalendar ToolID = "calendar"
	ToolSearch   ToolID = "search"
	ToolChat     ToolID = "chat"
)

// ValidTools lists every tool panel.
var ValidTools = []ToolID{ToolTerminal, ToolFiles, ToolEmail, ToolCalendar, ToolSearch, ToolChat}

// IsValidTool reports whether id names a known tool panel.
func IsValidTool(id string) bool {
	for _, t := range ValidTools {
		if string(t) == id {
			return true
		}
	}
	return false
}

// TerminalEntry records one executed command line.
type TerminalEntry struct {
	ID      string `json:"id"`
	Command string `json:"command"`
	Output  string `json:"output"`
	Cwd     string `json:"cwd"`
	Tick    int    `json:"tick"`
	IsError bool   `json:"is_error,omitempty"`
}

// ToolState is the state of the player's tool panels.
type ToolState struct {
	ActiveTool ToolID          `json:"active_tool"`
	History    []TerminalEntry `json:"history"`
	Cwd        string          `json:"cwd"`
	OpenFiles  []string        `json:"open_files"`
	ActiveFile string          `json:"active_file,omitempty"`

	// ClearedAt hides history entries before this index from display.
	// Validators always see the full history.
	ClearedAt int `json:"cleared_at,omitempty"`
}

// NewToolState returns the tool state at session start.
func NewToolState(homeDir string) ToolState {
	return ToolState{
		ActiveTool: ToolTerminal,
		History:    []TerminalEntry{},
		Cwd:        homeDir,
		OpenFiles:  []string{},
	}
}

// Email is a message in the mailbox.
type Email struct {
	ID        string `json:"id" yaml:"id"`
	From      string `json:"from" yaml:"from"`
	To        string `json:"to" yaml:"to"`
	Subject   string `json:"subject" yaml:"subject"`
	Body      string `json:"body" yaml:"body"`
	Tick      int    `json:"tick" yaml:"tick"`
	IsRead    bool   `json:"is_read" yaml:"is_read"`
	IsStarred bool   `json:"is_starred" yaml:"is_starred"`
}

// CalendarEvent is an entry in the calendar.
type CalendarEvent struct {
	ID        string `json:"id" yaml:"id"`
	Title     string `json:"title" yaml:"title"`
	Day       int    `json:"day" yaml:"day"`
	StartHour int    `json:"start_hour" yaml:"start_hour"`
	EndHour   int    `json:"end_hour" yaml:"end_hour"`
	Seeded    bool   `json:"seeded,omitempty" yaml:"-"`
}

// SearchResult is an entry of the simulated web search index.
type SearchResult struct {
	ID       string   `json:"id" yaml:"id"`
	Title    string   `json:"title" yaml:"title"`
	URL      string   `json:"url" yaml:"url"`
	Snippet  string   `json:"snippet" yaml:"snippet"`
	Category string   `json:"category" yaml:"category"`
	Tags     []string `json:"tags,omitempty" yaml:"tags"`
}

// ChatMessage is a line in a conversation with an NPC.
type ChatMessage struct {
	ID         string `json:"id"`
	NPCID      string `json:"npc_id"`
	Text       string `json:"text"`
	FromPlayer bool   `json:"from_player"`
	System     bool   `json:"system,omitempty"`
	Tick       int    `json:"tick"`
}
