package mcp

import (
	"github.com/nvandessel/clawback/internal/models"
	"github.com/nvandessel/clawback/internal/scoring"
	"github.com/nvandessel/clawback/internal/session"
)

// ExecInput defines the input for the office_exec tool.
type ExecInput struct {
	Command string `json:"command" jsonschema:"Shell command line to run in the office terminal"`
}

// ExecOutput defines the output for the office_exec tool.
type ExecOutput struct {
	Command string `json:"command" jsonschema:"The command as it was recorded"`
	Output  string `json:"output" jsonschema:"Terminal output"`
	IsError bool   `json:"is_error" jsonschema:"Whether the command failed"`
	Cwd     string `json:"cwd" jsonschema:"Working directory after the command"`
	Tick    int    `json:"tick" jsonschema:"Simulation tick the command ran at"`
}

// ChatInput defines the input for the office_chat tool.
type ChatInput struct {
	NPCID string `json:"npc_id,omitempty" jsonschema:"Coworker id (default: the coworker you are helping)"`
	Text  string `json:"text,omitempty" jsonschema:"Message to send; omit to only read the conversation"`
}

// ChatOutput defines the output for the office_chat tool.
type ChatOutput struct {
	NPC          models.Persona       `json:"npc" jsonschema:"The coworker"`
	State        models.NPCState      `json:"state" jsonschema:"Coworker mood and reputation"`
	Conversation []models.ChatMessage `json:"conversation" jsonschema:"Most recent messages, oldest first"`
}

// EmailInput defines the input for the office_email tool.
type EmailInput struct {
	Action  string `json:"action" jsonschema:"One of: list, read, send"`
	ID      string `json:"id,omitempty" jsonschema:"Email id (read)"`
	To      string `json:"to,omitempty" jsonschema:"Recipient address (send)"`
	Subject string `json:"subject,omitempty" jsonschema:"Subject line (send)"`
	Body    string `json:"body,omitempty" jsonschema:"Message body (send)"`
}

// EmailSummary is the inbox view of an email.
type EmailSummary struct {
	ID      string `json:"id"`
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Tick    int    `json:"tick"`
	IsRead  bool   `json:"is_read"`
}

// EmailOutput defines the output for the office_email tool.
type EmailOutput struct {
	Emails []EmailSummary `json:"emails,omitempty" jsonschema:"Inbox and sent mail (list)"`
	Email  *models.Email  `json:"email,omitempty" jsonschema:"The email read or sent"`
	Count  int            `json:"count" jsonschema:"Number of emails listed"`
}

// SearchInput defines the input for the office_search tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"Search terms"`
}

// SearchOutput defines the output for the office_search tool.
type SearchOutput struct {
	Query   string                `json:"query"`
	Results []models.SearchResult `json:"results"`
	Count   int                   `json:"count"`
}

// CalendarInput defines the input for the office_calendar tool.
type CalendarInput struct {
	Action    string `json:"action" jsonschema:"One of: list, add"`
	Title     string `json:"title,omitempty" jsonschema:"Event title (add)"`
	Day       int    `json:"day,omitempty" jsonschema:"Shift day (add, default: today)"`
	StartHour int    `json:"start_hour,omitempty" jsonschema:"Start hour 9-17 (add)"`
	EndHour   int    `json:"end_hour,omitempty" jsonschema:"End hour 10-18 (add)"`
}

// CalendarOutput defines the output for the office_calendar tool.
type CalendarOutput struct {
	Events   []models.CalendarEvent `json:"events,omitempty"`
	Added    *models.CalendarEvent  `json:"added,omitempty"`
	Conflict bool                   `json:"conflict,omitempty" jsonschema:"Whether the added event overlaps another"`
}

// OpenInput defines the input for the office_open tool.
type OpenInput struct {
	Path  string `json:"path" jsonschema:"File path, absolute or relative to the terminal directory"`
	Close bool   `json:"close,omitempty" jsonschema:"Close the file instead of opening it"`
}

// OpenOutput defines the output for the office_open tool.
type OpenOutput struct {
	Path      string   `json:"path"`
	Content   string   `json:"content,omitempty"`
	OpenFiles []string `json:"open_files"`
}

// ToolInput defines the input for the office_tool tool.
type ToolInput struct {
	Tool string `json:"tool" jsonschema:"One of: terminal, files, email, calendar, search, chat"`
}

// ToolOutput defines the output for the office_tool tool.
type ToolOutput struct {
	ActiveTool models.ToolID `json:"active_tool"`
}

// StatusInput defines the input for the office_status tool.
type StatusInput struct{}

// StatusOutput defines the output for the office_status tool.
type StatusOutput struct {
	Status  session.Status   `json:"status"`
	Events  []models.Event   `json:"events,omitempty" jsonschema:"Events since the previous status or wait call"`
	Summary *scoring.Summary `json:"summary,omitempty" jsonschema:"End-of-shift summary once the shift is over"`
}

// WaitInput defines the input for the office_wait tool.
type WaitInput struct {
	Ticks int `json:"ticks,omitempty" jsonschema:"Minutes of office time to let pass (default 1)"`
}

// WaitOutput defines the output for the office_wait tool.
type WaitOutput struct {
	Ticked  int              `json:"ticked" jsonschema:"Ticks actually advanced"`
	Time    string           `json:"time"`
	Day     int              `json:"day"`
	Phase   session.Phase    `json:"phase"`
	Events  []models.Event   `json:"events,omitempty"`
	Summary *scoring.Summary `json:"summary,omitempty"`
}

// NewShiftInput defines the input for the office_new_shift tool.
type NewShiftInput struct{}

// NewShiftOutput defines the output for the office_new_shift tool.
type NewShiftOutput struct {
	SessionID string          `json:"session_id"`
	NPC       models.Persona  `json:"npc"`
	Previous  scoring.Summary `json:"previous" jsonschema:"Summary of the shift that was discarded"`
}
