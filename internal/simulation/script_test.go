package simulation

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseScript(t *testing.T) {
	data := []byte(`
name: mixed
actions:
  - at: 10
    search: react
  - at: 2
    exec: ls
  - at: 2
    chat: {npc: sarah, text: hello}
  - at: 5
    calendar: {title: Retro, day: 1, start: 14, end: 15}
`)
	s, err := ParseScript(data)
	if err != nil {
		t.Fatalf("ParseScript() error = %v", err)
	}
	if s.Name != "mixed" {
		t.Errorf("Name = %q, want mixed", s.Name)
	}
	var got []string
	for _, a := range s.Actions {
		got = append(got, a.String())
	}
	want := []string{"exec ls", "chat hello", "calendar Retro", "search react"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("actions = %v, want %v", got, want)
	}
	if c := s.Actions[2].Calendar; c.Day != 1 || c.Start != 14 || c.End != 15 {
		t.Errorf("calendar = %+v", c)
	}
}

func TestParseScript_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"bad yaml", "actions: [", "parsing script"},
		{"negative tick", "actions:\n  - at: -1\n    exec: ls\n", "negative tick"},
		{"two operations", "actions:\n  - at: 1\n    exec: ls\n    search: x\n", "more than one operation"},
		{"no operation", "actions:\n  - at: 1\n", ErrEmptyAction.Error()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScript([]byte(tt.data))
			if err == nil {
				t.Fatal("ParseScript() error = nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want it to mention %q", err, tt.want)
			}
		})
	}

	_, err := ParseScript([]byte("actions:\n  - at: 3\n"))
	if !errors.Is(err, ErrEmptyAction) {
		t.Errorf("errors.Is(err, ErrEmptyAction) = false for %v", err)
	}
}

func TestLoadScript(t *testing.T) {
	path := filepath.Join(t.TempDir(), "script.yaml")
	if err := os.WriteFile(path, []byte("actions:\n  - at: 0\n    exec: pwd\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	s, err := LoadScript(path)
	if err != nil {
		t.Fatalf("LoadScript() error = %v", err)
	}
	if len(s.Actions) != 1 || s.Actions[0].Exec != "pwd" {
		t.Errorf("actions = %+v", s.Actions)
	}

	if _, err := LoadScript(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadScript(missing) error = nil")
	}
}

func TestScript_Due(t *testing.T) {
	var nilScript *Script
	if got := nilScript.Due(0); got != nil {
		t.Errorf("nil Due() = %v", got)
	}

	s := &Script{Actions: []Action{{At: 1, Exec: "a"}, {At: 2, Exec: "b"}, {At: 2, Exec: "c"}}}
	if got := s.Due(2); len(got) != 2 || got[0].Exec != "b" || got[1].Exec != "c" {
		t.Errorf("Due(2) = %+v", got)
	}
	if got := s.Due(3); len(got) != 0 {
		t.Errorf("Due(3) = %+v", got)
	}
}
