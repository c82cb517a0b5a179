package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/nvandessel/clawback/internal/models"
	"github.com/nvandessel/clawback/internal/session"
)

func newTestPlayer(t *testing.T) (*player, *bytes.Buffer) {
	t.Helper()
	sess := session.New(session.Options{Difficulty: models.DifficultyEasy, Seed: 5, ShiftDays: 1})
	t.Cleanup(sess.Close)
	if err := sess.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	var out bytes.Buffer
	return newPlayer(session.NewDriver(sess), &out), &out
}

func TestPlayer_Handle(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"pwd", "/home/user"},
		{"/wait 2", "9:02 AM"},
		{"/chat hello there", "you -> "},
		{"/search react", "- "},
		{"/email", "@"},
		{"/calendar add Retro 1 16 17", `Added "Retro" on day 1`},
		{"/tool calendar", "Switched to calendar."},
		{"/open /home/user/documents/todo.md", "TODO"},
		{"/status", "security 100/100"},
		{"/wait x", "positive tick count"},
		{"/bogus", "unknown command /bogus"},
		{`/chat "unterminated`, "error:"},
		{"/help", "/quit"},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			p, out := newTestPlayer(t)
			if quit := p.handle(context.Background(), tt.line); quit {
				t.Fatal("handle() quit = true")
			}
			if !strings.Contains(out.String(), tt.want) {
				t.Errorf("handle(%q) output = %q, want it to contain %q", tt.line, out.String(), tt.want)
			}
		})
	}
}

func TestPlayer_Quit(t *testing.T) {
	p, _ := newTestPlayer(t)
	for _, line := range []string{"/quit", "/exit"} {
		if !p.handle(context.Background(), line) {
			t.Errorf("handle(%q) quit = false", line)
		}
	}
	if p.handle(context.Background(), "   ") {
		t.Error("blank line quit = true")
	}
}

func TestPlayer_PlayEndsOnEOF(t *testing.T) {
	p, out := newTestPlayer(t)
	_ = p.driver.Do(func(s *session.Session) error {
		s.SetSpeed("paused")
		return nil
	})

	if err := p.play(context.Background(), strings.NewReader("ls\n/quit\n")); err != nil {
		t.Fatalf("play() error = %v", err)
	}
	text := out.String()
	for _, want := range []string{"Type /help", "documents", "Shift ended", "Grade:"} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
}
