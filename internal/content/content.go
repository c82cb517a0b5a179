// Package content holds the embedded seed data of a shift: the filesystem
// tree, the fallback scenario pool, built-in personas, the mailbox, the
// calendar and the search index. Everything is parsed once and handed out
// as fresh copies, so callers may mutate what they receive.
package content

import (
	"embed"
	"fmt"
	"sync"

	"github.com/nvandessel/clawback/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed data/*.yaml
var data embed.FS

// Node kinds in the filesystem seed.
const (
	KindFile      = "file"
	KindDirectory = "directory"
)

// Node is a filesystem seed entry.
type Node struct {
	Name     string  `yaml:"name"`
	Type     string  `yaml:"type"`
	Size     int     `yaml:"size,omitempty"`
	Hidden   bool    `yaml:"hidden,omitempty"`
	Trap     bool    `yaml:"trap,omitempty"`
	Content  string  `yaml:"content,omitempty"`
	Children []*Node `yaml:"children,omitempty"`
}

// IsDir reports whether the node is a directory.
func (n *Node) IsDir() bool { return n.Type == KindDirectory }

// ObjectiveTemplate is an objective of a scenario before instantiation.
type ObjectiveTemplate struct {
	Description string        `yaml:"description"`
	Validator   string        `yaml:"validator"`
	Params      models.Params `yaml:"params,omitempty"`
}

// Scenario is a fallback request template.
type Scenario struct {
	ID                string              `yaml:"id"`
	NPCID             string              `yaml:"npc_id"`
	Title             string              `yaml:"title"`
	Description       string              `yaml:"description"`
	Tier              int                 `yaml:"tier"`
	DeadlineTicks     int                 `yaml:"deadline_ticks"`
	BasePoints        int                 `yaml:"base_points"`
	IsSecurityTrap    bool                `yaml:"is_security_trap,omitempty"`
	Objectives        []ObjectiveTemplate `yaml:"objectives"`
	InitialMessage    string              `yaml:"initial_message"`
	CompletionMessage string              `yaml:"completion_message"`
	FailureMessage    string              `yaml:"failure_message"`
}

// Request instantiates the scenario as an incoming request arriving at
// arrivalTick. newID supplies the request and objective ids.
func (s Scenario) Request(arrivalTick int, newID func() string) models.Request {
	objectives := make([]models.Objective, len(s.Objectives))
	for i, o := range s.Objectives {
		objectives[i] = models.Objective{
			ID:          newID(),
			Description: o.Description,
			Validator:   o.Validator,
			Params:      o.Params.Clone(),
		}
	}
	return models.Request{
		ID:                newID(),
		NPCID:             s.NPCID,
		Title:             s.Title,
		Description:       s.Description,
		Tier:              s.Tier,
		Status:            models.StatusIncoming,
		Objectives:        objectives,
		ArrivalTick:       arrivalTick,
		DeadlineTicks:     s.DeadlineTicks,
		BasePoints:        s.BasePoints,
		InitialMessage:    s.InitialMessage,
		CompletionMessage: s.CompletionMessage,
		FailureMessage:    s.FailureMessage,
		IsSecurityTrap:    s.IsSecurityTrap,
		Source:            models.SourceFallback,
	}
}

type scenarioFile struct {
	Scenarios []Scenario `yaml:"scenarios"`
}

type personaFile struct {
	Personas []models.Persona `yaml:"personas"`
}

type emailFile struct {
	Emails []models.Email `yaml:"emails"`
}

type calendarFile struct {
	Events []models.CalendarEvent `yaml:"events"`
}

type searchFile struct {
	Results []models.SearchResult `yaml:"results"`
}

func load[T any](name string) (T, error) {
	var out T
	raw, err := data.ReadFile("data/" + name)
	if err != nil {
		return out, fmt.Errorf("reading seed %s: %w", name, err)
	}
	if err := yaml.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("parsing seed %s: %w", name, err)
	}
	return out, nil
}

var (
	loadFilesystem = sync.OnceValues(func() (*Node, error) {
		root, err := load[*Node]("filesystem.yaml")
		if err != nil {
			return nil, err
		}
		if root == nil || !root.IsDir() || root.Name != "/" {
			return nil, fmt.Errorf("filesystem seed must have a root directory named /")
		}
		return root, nil
	})
	loadScenarios = sync.OnceValues(func() ([]Scenario, error) {
		f, err := load[scenarioFile]("scenarios.yaml")
		return f.Scenarios, err
	})
	loadPersonas = sync.OnceValues(func() ([]models.Persona, error) {
		f, err := load[personaFile]("personas.yaml")
		return f.Personas, err
	})
	loadEmails = sync.OnceValues(func() ([]models.Email, error) {
		f, err := load[emailFile]("emails.yaml")
		return f.Emails, err
	})
	loadCalendar = sync.OnceValues(func() ([]models.CalendarEvent, error) {
		f, err := load[calendarFile]("calendar.yaml")
		return f.Events, err
	})
	loadSearch = sync.OnceValues(func() ([]models.SearchResult, error) {
		f, err := load[searchFile]("search.yaml")
		return f.Results, err
	})
)

// Filesystem returns a deep copy of the filesystem seed tree.
func Filesystem() (*Node, error) {
	root, err := loadFilesystem()
	if err != nil {
		return nil, err
	}
	return copyNode(root), nil
}

func copyNode(n *Node) *Node {
	c := *n
	if n.Children != nil {
		c.Children = make([]*Node, len(n.Children))
		for i, child := range n.Children {
			c.Children[i] = copyNode(child)
		}
	}
	return &c
}

// Scenarios returns the fallback scenario pool in seed order.
func Scenarios() ([]Scenario, error) {
	s, err := loadScenarios()
	if err != nil {
		return nil, err
	}
	out := make([]Scenario, len(s))
	for i, sc := range s {
		sc.Objectives = append([]ObjectiveTemplate(nil), sc.Objectives...)
		for j := range sc.Objectives {
			sc.Objectives[j].Params = sc.Objectives[j].Params.Clone()
		}
		out[i] = sc
	}
	return out, nil
}

// Personas returns the built-in personas.
func Personas() ([]models.Persona, error) {
	p, err := loadPersonas()
	return append([]models.Persona(nil), p...), err
}

// Emails returns the seed mailbox. Ids are assigned by the mailbox.
func Emails() ([]models.Email, error) {
	e, err := loadEmails()
	return append([]models.Email(nil), e...), err
}

// CalendarEvents returns the seed calendar, marked as seeded.
func CalendarEvents() ([]models.CalendarEvent, error) {
	ev, err := loadCalendar()
	if err != nil {
		return nil, err
	}
	out := make([]models.CalendarEvent, len(ev))
	for i, e := range ev {
		e.Seeded = true
		out[i] = e
	}
	return out, nil
}

// SearchIndex returns the simulated web search index.
func SearchIndex() ([]models.SearchResult, error) {
	r, err := loadSearch()
	if err != nil {
		return nil, err
	}
	out := make([]models.SearchResult, len(r))
	for i, res := range r {
		res.Tags = append([]string(nil), res.Tags...)
		out[i] = res
	}
	return out, nil
}

// must panics on seed errors. Seeds are embedded, so this only fires on a
// malformed build.
func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

// MustFilesystem is Filesystem for callers that cannot proceed without it.
func MustFilesystem() *Node { return must(Filesystem()) }

// MustScenarios is Scenarios for callers that cannot proceed without it.
func MustScenarios() []Scenario { return must(Scenarios()) }

// MustPersonas is Personas for callers that cannot proceed without it.
func MustPersonas() []models.Persona { return must(Personas()) }

// MustEmails is Emails for callers that cannot proceed without it.
func MustEmails() []models.Email { return must(Emails()) }

// MustCalendarEvents is CalendarEvents for callers that cannot proceed without it.
func MustCalendarEvents() []models.CalendarEvent { return must(CalendarEvents()) }

// MustSearchIndex is SearchIndex for callers that cannot proceed without it.
func MustSearchIndex() []models.SearchResult { return must(SearchIndex()) }
