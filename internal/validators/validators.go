// Package validators holds the registry of objective predicates. Each
// predicate reads session state through State and never mutates it. Names
// travel as strings at the wire boundary and are translated to Name here;
// an unknown name always evaluates false.
package validators

import (
	"path"
	"strings"

	"github.com/nvandessel/clawback/internal/constants"
	"github.com/nvandessel/clawback/internal/models"
	"github.com/nvandessel/clawback/internal/security"
)

// Name identifies a registered validator.
type Name int

const (
	Unknown Name = iota
	FileRead
	ChatReply
	ChatContains
	CommandExecuted
	SearchPerformed
	EmailSent
	FileCreated
	ToolUsed
	CalendarEventAdded
	NoSecurityViolation
	NoDangerousCommand
	NoCredentialForward
)

var names = [...]string{
	Unknown:             "unknown",
	FileRead:            "file_read",
	ChatReply:           "chat_reply",
	ChatContains:        "chat_contains",
	CommandExecuted:     "command_executed",
	SearchPerformed:     "search_performed",
	EmailSent:           "email_sent",
	FileCreated:         "file_created",
	ToolUsed:            "tool_used",
	CalendarEventAdded:  "calendar_event_added",
	NoSecurityViolation: "no_security_violation",
	NoDangerousCommand:  "no_dangerous_command",
	NoCredentialForward: "no_credential_forward",
}

func (n Name) String() string {
	if n < 0 || int(n) >= len(names) {
		return names[Unknown]
	}
	return names[n]
}

// Parse translates a wire name. Unrecognized names return Unknown and false.
func Parse(s string) (Name, bool) {
	for i, v := range names {
		if Name(i) != Unknown && v == s {
			return Name(i), true
		}
	}
	return Unknown, false
}

// IsKnown reports whether s names a registered validator.
func IsKnown(s string) bool {
	_, ok := Parse(s)
	return ok
}

// All returns every registered validator in declaration order.
func All() []Name {
	out := make([]Name, 0, len(names)-1)
	for i := range names {
		if Name(i) != Unknown {
			out = append(out, Name(i))
		}
	}
	return out
}

// Required lists the params each validator reads. Validators missing from
// the map need none.
var Required = map[Name][]string{
	FileRead:        {"path"},
	ChatReply:       {"npcId"},
	ChatContains:    {"npcId", "text"},
	CommandExecuted: {"command"},
	SearchPerformed: {"query"},
	EmailSent:       {"to"},
	FileCreated:     {"pathContains"},
	ToolUsed:        {"tool"},
}

// NeedsNPC reports whether the validator is scoped to one NPC conversation.
func (n Name) NeedsNPC() bool { return n == ChatReply || n == ChatContains }

// State is the read-only view of the session validators evaluate against.
type State interface {
	TerminalHistory() []models.TerminalEntry
	OpenFiles() []string
	Conversation(npcID string) []models.ChatMessage
	ActiveTool() models.ToolID
	SearchQuery() string
	SearchResultCount() int
	Emails() []models.Email
	CalendarEvents() []models.CalendarEvent
	SecurityScore() int
}

// Func is a validator predicate.
type Func func(State, models.Params) bool

var registry = map[Name]Func{
	FileRead:            fileRead,
	ChatReply:           chatReply,
	ChatContains:        chatContains,
	CommandExecuted:     commandExecuted,
	SearchPerformed:     searchPerformed,
	EmailSent:           emailSent,
	FileCreated:         fileCreated,
	ToolUsed:            toolUsed,
	CalendarEventAdded:  calendarEventAdded,
	NoSecurityViolation: noSecurityViolation,
	NoDangerousCommand:  noDangerousCommand,
	NoCredentialForward: noCredentialForward,
}

// Evaluate runs the named validator. Unknown names are false.
func Evaluate(name string, s State, params models.Params) bool {
	n, ok := Parse(name)
	if !ok {
		return false
	}
	return EvaluateName(n, s, params)
}

// EvaluateName runs a validator by Name.
func EvaluateName(n Name, s State, params models.Params) bool {
	fn, ok := registry[n]
	if !ok || s == nil {
		return false
	}
	return fn(s, params)
}

func fileRead(s State, p models.Params) bool {
	target := p.String("path")
	if target == "" {
		return false
	}
	base := path.Base(target)
	for _, e := range s.TerminalHistory() {
		if hasAnyPrefix(e.Command, "cat ", "head ", "tail ") &&
			(strings.Contains(e.Command, target) || strings.Contains(e.Command, base)) {
			return true
		}
	}
	for _, f := range s.OpenFiles() {
		if f == target || strings.HasSuffix(f, base) {
			return true
		}
	}
	return false
}

func chatReply(s State, p models.Params) bool {
	for _, m := range s.Conversation(p.String("npcId")) {
		if m.FromPlayer {
			return true
		}
	}
	return false
}

func chatContains(s State, p models.Params) bool {
	needle := strings.ToLower(p.String("text"))
	for _, m := range s.Conversation(p.String("npcId")) {
		if m.FromPlayer && strings.Contains(strings.ToLower(m.Text), needle) {
			return true
		}
	}
	return false
}

func commandExecuted(s State, p models.Params) bool {
	prefix := p.String("command")
	if prefix == "" {
		return false
	}
	for _, e := range s.TerminalHistory() {
		if strings.HasPrefix(e.Command, prefix) {
			return true
		}
	}
	return false
}

func searchPerformed(s State, p models.Params) bool {
	query := strings.ToLower(p.String("query"))
	return strings.Contains(strings.ToLower(s.SearchQuery()), query) && s.SearchResultCount() > 0
}

func emailSent(s State, p models.Params) bool {
	to := strings.ToLower(p.String("to"))
	if to == "" {
		return false
	}
	for _, e := range s.Emails() {
		if e.From == constants.AssistantAddress && strings.Contains(strings.ToLower(e.To), to) {
			return true
		}
	}
	return false
}

func fileCreated(s State, p models.Params) bool {
	fragment := p.String("pathContains")
	if fragment == "" {
		return false
	}
	for _, e := range s.TerminalHistory() {
		if !strings.Contains(e.Command, fragment) {
			continue
		}
		if strings.Contains(e.Command, ">") || hasAnyPrefix(e.Command, "touch ", "mkdir ", "cp ") {
			return true
		}
	}
	return false
}

func toolUsed(s State, p models.Params) bool {
	return string(s.ActiveTool()) == p.String("tool")
}

func calendarEventAdded(s State, _ models.Params) bool {
	for _, e := range s.CalendarEvents() {
		if !e.Seeded {
			return true
		}
	}
	return false
}

func noSecurityViolation(s State, _ models.Params) bool {
	return s.SecurityScore() >= models.MaxSecurity
}

func noDangerousCommand(s State, _ models.Params) bool {
	for _, e := range s.TerminalHistory() {
		c := e.Command
		if strings.Contains(c, "rm -rf") || strings.Contains(c, "rm -fr") ||
			(strings.HasPrefix(c, "rm ") && strings.Contains(c, "/")) ||
			security.IsDangerous(c) {
			return false
		}
	}
	return true
}

func noCredentialForward(s State, _ models.Params) bool {
	for _, e := range s.Emails() {
		if e.From != constants.AssistantAddress {
			continue
		}
		if security.IsExternal(e.To) && security.IsSensitiveMessage(e.Body) {
			return false
		}
	}
	return true
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
