package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nvandessel/clawback/internal/models"
	"github.com/nvandessel/clawback/internal/scoring"
)

// reportFile is the filename pattern of a shift report.
const reportFile = "shift-%s.json"

// Report is the on-disk record of a finished shift. It is an export for the
// player, not a save game: a shift cannot be resumed from it.
type Report struct {
	SessionID  string             `json:"session_id"`
	Difficulty models.Difficulty  `json:"difficulty"`
	NPC        string             `json:"npc"`
	Phase      Phase              `json:"phase"`
	Summary    scoring.Summary    `json:"summary"`
	Requests   []models.Request   `json:"requests"`
	Violations []models.Violation `json:"violations"`
	WrittenAt  time.Time          `json:"written_at"`
}

// NewReport captures the session's current outcome.
func (s *Session) NewReport() Report {
	return Report{
		SessionID:  s.id,
		Difficulty: s.opts.Difficulty,
		NPC:        s.npc.ID,
		Phase:      s.phase,
		Summary:    s.Summary(),
		Requests:   s.requests.Requests(),
		Violations: s.Violations(),
		WrittenAt:  time.Now().UTC(),
	}
}

// SaveReport writes r as JSON into dir and returns the file path.
// The directory must already exist.
func SaveReport(r Report, dir string) (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling shift report: %w", err)
	}

	path := ReportPath(dir, r.SessionID)

	// Write atomically via temp file + rename.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return "", fmt.Errorf("writing shift report temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("renaming shift report file: %w", err)
	}
	return path, nil
}

// LoadReport reads a report written by SaveReport.
func LoadReport(path string) (Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Report{}, fmt.Errorf("reading shift report: %w", err)
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return Report{}, fmt.Errorf("unmarshaling shift report: %w", err)
	}
	return r, nil
}

// ReportPath returns the report file path for a session in dir.
func ReportPath(dir, sessionID string) string {
	return filepath.Join(dir, fmt.Sprintf(reportFile, sessionID))
}
