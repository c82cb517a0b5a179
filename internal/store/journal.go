// Package store provides the SQLite session journal.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/nvandessel/clawback/internal/models"

	_ "modernc.org/sqlite" // SQLite driver
)

// MemoryPath opens a journal that lives only as long as the process.
const MemoryPath = ":memory:"

// Journal records session events and request snapshots in SQLite.
// It satisfies session.Journal.
type Journal struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

// SessionSummary aggregates what the journal holds for one session.
type SessionSummary struct {
	ID        string    `json:"id"`
	Events    int       `json:"events"`
	Requests  int       `json:"requests"`
	Completed int       `json:"completed"`
	Expired   int       `json:"expired"`
	Failed    int       `json:"failed"`
	Points    int       `json:"points"`
	LastTick  int       `json:"last_tick"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Open opens (or creates) the journal at path. MemoryPath keeps it in memory.
func Open(ctx context.Context, path string) (*Journal, error) {
	if path == "" {
		path = MemoryPath
	}

	dsn := path + "?_pragma=foreign_keys(1)"
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create journal directory: %w", err)
		}
		dsn += "&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	// A single connection keeps one writer and one shared in-memory database.
	db.SetMaxOpenConns(1)

	if err := InitSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Journal{db: db, path: path}, nil
}

// Path returns the path the journal was opened with.
func (j *Journal) Path() string { return j.path }

// Close closes the database.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.db.Close()
}

// touchSession inserts or refreshes the sessions row inside tx.
func touchSession(ctx context.Context, tx *sql.Tx, sessionID, now string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO sessions (id, created_at, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET updated_at = excluded.updated_at`,
		sessionID, now, now)
	if err != nil {
		return fmt.Errorf("failed to record session: %w", err)
	}
	return nil
}

// RecordEvent appends e to the session's event log.
func (j *Journal) RecordEvent(ctx context.Context, sessionID string, e models.Event) error {
	if sessionID == "" {
		return fmt.Errorf("session id is required")
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	if err := touchSession(ctx, tx, sessionID, now); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO events (session_id, tick, day, kind, request_id, npc_id, message, points)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID, e.Tick, e.Day, string(e.Kind), nullString(e.RequestID), nullString(e.NPCID),
		nullString(e.Message), e.Points)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}

	return tx.Commit()
}

// RecordRequest stores the latest snapshot of r, replacing any earlier one.
func (j *Journal) RecordRequest(ctx context.Context, sessionID string, r models.Request) error {
	if sessionID == "" {
		return fmt.Errorf("session id is required")
	}
	if r.ID == "" {
		return fmt.Errorf("request id is required")
	}

	body, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	if err := touchSession(ctx, tx, sessionID, now); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO requests (
			session_id, id, npc_id, title, tier, status, source, is_security_trap,
			arrival_tick, deadline_ticks, base_points, resolved_tick, awarded_points,
			body, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id, id) DO UPDATE SET
			status = excluded.status,
			resolved_tick = excluded.resolved_tick,
			awarded_points = excluded.awarded_points,
			body = excluded.body,
			updated_at = excluded.updated_at`,
		sessionID, r.ID, r.NPCID, r.Title, r.Tier, string(r.Status), string(r.Source), boolToInt(r.IsSecurityTrap),
		r.ArrivalTick, r.DeadlineTicks, r.BasePoints, r.ResolvedTick, r.AwardedPoints,
		string(body), now)
	if err != nil {
		return fmt.Errorf("failed to upsert request: %w", err)
	}

	return tx.Commit()
}

// Events returns the session's events in the order they were recorded,
// optionally filtered to the given kinds.
func (j *Journal) Events(ctx context.Context, sessionID string, kinds ...models.EventKind) ([]models.Event, error) {
	query := `SELECT tick, day, kind, request_id, npc_id, message, points FROM events WHERE session_id = ?`
	args := []any{sessionID}
	if len(kinds) > 0 {
		placeholders := make([]string, len(kinds))
		for i, k := range kinds {
			placeholders[i] = "?"
			args = append(args, string(k))
		}
		query += " AND kind IN (" + strings.Join(placeholders, ", ") + ")"
	}
	query += " ORDER BY seq"

	j.mu.Lock()
	defer j.mu.Unlock()

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var (
			e                         models.Event
			kind                      string
			requestID, npcID, message sql.NullString
		)
		if err := rows.Scan(&e.Tick, &e.Day, &kind, &requestID, &npcID, &message, &e.Points); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		e.Kind = models.EventKind(kind)
		e.RequestID = requestID.String
		e.NPCID = npcID.String
		e.Message = message.String
		events = append(events, e)
	}
	return events, rows.Err()
}

// Requests returns the latest snapshot of every request in the session,
// ordered by arrival.
func (j *Journal) Requests(ctx context.Context, sessionID string) ([]models.Request, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	rows, err := j.db.QueryContext(ctx, `
		SELECT body FROM requests WHERE session_id = ? ORDER BY arrival_tick, id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query requests: %w", err)
	}
	defer rows.Close()

	var requests []models.Request
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		var r models.Request
		if err := json.Unmarshal([]byte(body), &r); err != nil {
			return nil, fmt.Errorf("failed to unmarshal request: %w", err)
		}
		requests = append(requests, r)
	}
	return requests, rows.Err()
}

// Sessions summarizes every session in the journal, most recently updated first.
func (j *Journal) Sessions(ctx context.Context) ([]SessionSummary, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	rows, err := j.db.QueryContext(ctx, `
		SELECT s.id, s.created_at, s.updated_at,
			(SELECT COUNT(*) FROM events e WHERE e.session_id = s.id),
			(SELECT COALESCE(MAX(e.tick), 0) FROM events e WHERE e.session_id = s.id),
			(SELECT COUNT(*) FROM requests r WHERE r.session_id = s.id),
			(SELECT COUNT(*) FROM requests r WHERE r.session_id = s.id AND r.status = ?),
			(SELECT COUNT(*) FROM requests r WHERE r.session_id = s.id AND r.status = ?),
			(SELECT COUNT(*) FROM events e WHERE e.session_id = s.id AND e.kind = ?),
			(SELECT COALESCE(SUM(r.awarded_points), 0) FROM requests r WHERE r.session_id = s.id)
		FROM sessions s
		ORDER BY s.updated_at DESC, s.id`,
		string(models.StatusCompleted), string(models.StatusExpired), string(models.EventRequestFailed))
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionSummary
	for rows.Next() {
		var (
			s                SessionSummary
			created, updated string
		)
		if err := rows.Scan(&s.ID, &created, &updated, &s.Events, &s.LastTick, &s.Requests,
			&s.Completed, &s.Expired, &s.Failed, &s.Points); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		s.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		s.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
		out = append(out, s)
	}
	return out, rows.Err()
}

// DeleteSession removes a session with all of its events and requests.
func (j *Journal) DeleteSession(ctx context.Context, sessionID string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	res, err := j.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("session not found: %s", sessionID)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
