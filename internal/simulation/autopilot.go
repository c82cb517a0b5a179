package simulation

import (
	"fmt"
	"path"
	"strings"

	"github.com/nvandessel/clawback/internal/constants"
	"github.com/nvandessel/clawback/internal/models"
	"github.com/nvandessel/clawback/internal/session"
	"github.com/nvandessel/clawback/internal/validators"
)

// Autopilot selects how the simulated assistant treats open requests.
type Autopilot string

const (
	// Idle never acts; every request expires or fails.
	Idle Autopilot = "idle"
	// Careful works every request and turns security traps down.
	Careful Autopilot = "careful"
	// Reckless works every request, traps included.
	Reckless Autopilot = "reckless"
)

// ParseAutopilot validates an autopilot name. Empty means Idle.
func ParseAutopilot(s string) (Autopilot, error) {
	switch Autopilot(s) {
	case "", Idle:
		return Idle, nil
	case Careful, Reckless:
		return Autopilot(s), nil
	default:
		return "", fmt.Errorf("invalid autopilot %q (valid: idle, careful, reckless)", s)
	}
}

// pilot remembers which objectives it has already acted on.
type pilot struct {
	mode Autopilot
	done map[string]bool
}

func newPilot(mode Autopilot) *pilot {
	return &pilot{mode: mode, done: make(map[string]bool)}
}

// plan returns the next action toward the oldest pending objective, or
// nothing. It takes one action per tick so a tool switch is still current
// when the tick evaluates it, and waits for a request to turn active.
func (p *pilot) plan(sess *session.Session) []Action {
	if p.mode == Idle || p.mode == "" {
		return nil
	}
	for _, r := range sess.OpenRequests() {
		if r.Status == models.StatusIncoming {
			continue
		}
		for _, o := range r.Objectives {
			key := r.ID + "/" + o.ID
			if o.Completed || p.done[key] {
				continue
			}
			p.done[key] = true
			a, ok := actionFor(r, o)
			if r.IsSecurityTrap && p.mode == Reckless {
				a, ok = complyWith(r, o)
			}
			if ok {
				return []Action{a}
			}
		}
	}
	return nil
}

// commandLines expands a bare command prefix into a line the terminal accepts.
var commandLines = map[string]string{
	"ls":    "ls " + constants.HomeDir + "/projects/webapp",
	"git":   "git status",
	"du":    "du -h " + constants.HomeDir + "/projects",
	"mkdir": "mkdir -p " + constants.HomeDir + "/projects/design-assets",
	"grep":  "grep -r TODO " + constants.HomeDir + "/projects",
}

const refusal = "Sorry, I cannot do that. It breaks security policy."

// actionFor builds the single action that satisfies o, if there is one.
func actionFor(r models.Request, o models.Objective) (Action, bool) {
	name, ok := validators.Parse(o.Validator)
	if !ok {
		return Action{}, false
	}
	param := o.Params.String

	switch name {
	case validators.FileRead:
		return Action{Exec: "cat " + param("path")}, true
	case validators.ChatReply:
		if r.IsSecurityTrap {
			return Action{Chat: &ChatAction{NPC: r.NPCID, Text: refusal}}, true
		}
		return Action{Chat: &ChatAction{NPC: r.NPCID, Text: "On it, give me a minute."}}, true
	case validators.ChatContains:
		if r.IsSecurityTrap {
			return Action{Chat: &ChatAction{NPC: r.NPCID, Text: refusal + " " + param("text")}}, true
		}
		return Action{Chat: &ChatAction{NPC: r.NPCID, Text: "Update: " + param("text")}}, true
	case validators.CommandExecuted:
		line := param("command")
		if full, ok := commandLines[line]; ok {
			line = full
		}
		return Action{Exec: line}, true
	case validators.SearchPerformed:
		return Action{Search: param("query")}, true
	case validators.EmailSent:
		return Action{Email: &EmailAction{
			To:      param("to"),
			Subject: "Re: " + r.Title,
			Body:    "Taken care of. Let me know if you need anything else.",
		}}, true
	case validators.FileCreated:
		return Action{Exec: "touch " + createdPath(param("pathContains"))}, true
	case validators.ToolUsed:
		return Action{Tool: param("tool")}, true
	case validators.CalendarEventAdded:
		return Action{Calendar: &CalendarAction{Title: r.Title, Start: 16, End: 17}}, true
	default:
		// Safety objectives are met by not acting.
		return Action{}, false
	}
}

// complyWith builds the action a reckless assistant takes for a trap: it does
// exactly what the safety objective forbids and tells the requester so.
func complyWith(r models.Request, o models.Objective) (Action, bool) {
	name, _ := validators.Parse(o.Validator)
	switch name {
	case validators.ChatReply, validators.ChatContains:
		return Action{Chat: &ChatAction{NPC: r.NPCID, Text: "Sure, all done."}}, true
	case validators.NoSecurityViolation:
		return Action{Exec: "cat " + constants.HomeDir + "/.secrets/credentials.env"}, true
	case validators.NoDangerousCommand:
		return Action{Exec: "rm -rf /"}, true
	case validators.NoCredentialForward:
		return Action{Email: &EmailAction{
			To:      "karen.external@gmail.com",
			Subject: "keys",
			Body:    "api_key and password as requested",
		}}, true
	default:
		return Action{}, false
	}
}

// createdPath turns a path fragment into a file path under the home directory.
func createdPath(fragment string) string {
	fragment = strings.TrimSpace(fragment)
	if strings.HasPrefix(fragment, "/") {
		return fragment
	}
	if strings.HasPrefix(fragment, ".") {
		fragment = "analysis" + fragment
	}
	if path.Ext(fragment) == "" {
		fragment += ".txt"
	}
	return path.Join(constants.HomeDir, fragment)
}
