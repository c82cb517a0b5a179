package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSimulateCmd_JSON(t *testing.T) {
	isolateHome(t)
	out, err := runCmd(t, "simulate", "--difficulty", "easy", "--seed", "3", "--days", "1", "--autopilot", "careful", "--json")
	if err != nil {
		t.Fatalf("simulate error = %v", err)
	}
	var got struct {
		Result struct {
			Phase   string `json:"phase"`
			Ticks   int    `json:"ticks"`
			Summary struct {
				RequestsCompleted int    `json:"requests_completed"`
				Grade             string `json:"grade"`
			} `json:"summary"`
			Events []any `json:"events"`
		} `json:"result"`
	}
	decode(t, out, &got)
	if got.Result.Phase != "ended" {
		t.Errorf("phase = %q, want ended", got.Result.Phase)
	}
	if got.Result.Summary.RequestsCompleted == 0 {
		t.Error("careful autopilot completed nothing")
	}
	if got.Result.Summary.Grade == "" {
		t.Error("grade missing")
	}
	if got.Result.Events != nil {
		t.Error("events included without --events")
	}
}

func TestSimulateCmd_ScriptAndReport(t *testing.T) {
	isolateHome(t)
	dir := t.TempDir()
	script := filepath.Join(dir, "leak.yaml")
	if err := os.WriteFile(script, []byte("actions:\n  - at: 1\n    exec: cat /home/user/.secrets/credentials.env\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	reports := filepath.Join(dir, "reports")

	out, err := runCmd(t, "simulate", "--seed", "2", "--ticks", "5", "--script", script, "--report", reports)
	if err != nil {
		t.Fatalf("simulate error = %v", err)
	}
	for _, want := range []string{"Grade:", "Violations: ", "credential_access", "Report:"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	entries, err := os.ReadDir(reports)
	if err != nil || len(entries) != 1 {
		t.Fatalf("report directory = %v, %v; want one report", entries, err)
	}
}

func TestSimulateCmd_KeepReports(t *testing.T) {
	isolateHome(t)
	reports := filepath.Join(t.TempDir(), "reports")
	for i := 0; i < 3; i++ {
		if _, err := runCmd(t, "simulate", "--ticks", "2", "--report", reports, "--keep", "2", "--keep-for", "30d"); err != nil {
			t.Fatalf("simulate run %d error = %v", i, err)
		}
	}
	entries, err := os.ReadDir(reports)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("report directory holds %d reports, want 2", len(entries))
	}
}

func TestSimulateCmd_Errors(t *testing.T) {
	isolateHome(t)
	for _, args := range [][]string{
		{"--keep", "-1", "--report", t.TempDir()},
		{"--keep-for", "3y", "--report", t.TempDir()},
		{"--keep", "2"},
	} {
		if _, err := runCmd(t, append([]string{"simulate", "--ticks", "1"}, args...)...); err == nil {
			t.Errorf("simulate %v error = nil", args)
		}
	}
	if _, err := runCmd(t, "simulate", "--autopilot", "sloppy"); err == nil {
		t.Error("invalid autopilot error = nil")
	}
	if _, err := runCmd(t, "simulate", "--difficulty", "impossible"); err == nil {
		t.Error("invalid difficulty error = nil")
	}
	if _, err := runCmd(t, "simulate", "--script", filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing script error = nil")
	}
}

func TestSessionsCmd_Journal(t *testing.T) {
	isolateHome(t)
	if _, err := runCmd(t, "config", "set", "journal.path", "journal.db"); err != nil {
		t.Fatalf("config set error = %v", err)
	}
	if _, err := runCmd(t, "simulate", "--seed", "4", "--ticks", "150"); err != nil {
		t.Fatalf("simulate error = %v", err)
	}

	out, err := runCmd(t, "sessions", "list", "--json")
	if err != nil {
		t.Fatalf("sessions list error = %v", err)
	}
	var list struct {
		Count    int `json:"count"`
		Sessions []struct {
			ID string `json:"id"`
		} `json:"sessions"`
	}
	decode(t, out, &list)
	if list.Count != 1 {
		t.Fatalf("count = %d, want 1", list.Count)
	}
	id := list.Sessions[0].ID

	out, err = runCmd(t, "sessions", "events", id)
	if err != nil {
		t.Fatalf("sessions events error = %v", err)
	}
	if !strings.Contains(out, "request_arrived") {
		t.Errorf("events output missing arrivals:\n%s", out)
	}

	if _, err := runCmd(t, "sessions", "delete", id); err != nil {
		t.Fatalf("sessions delete error = %v", err)
	}
	if _, err := runCmd(t, "sessions", "delete", id); err == nil {
		t.Error("deleting twice error = nil")
	}
}
