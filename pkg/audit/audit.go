// Package audit persists membership transitions to a local SQLite file so
// declined and withdrawn requests keep a reviewable history.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// Action names a membership transition.
type Action string

const (
	ActionRequested Action = "requested"
	ActionApproved  Action = "approved"
	ActionDeclined  Action = "declined"
	ActionWithdrawn Action = "withdrawn"
)

// Event is one recorded transition. ActorID is the user who caused it: the
// requester for joins and withdrawals, the owner for decisions.
type Event struct {
	ID         string    `json:"id"`
	RequestID  string    `json:"requestId"`
	ResourceID string    `json:"resourceId"`
	UserID     string    `json:"userId"`
	ActorID    string    `json:"actorId"`
	Action     Action    `json:"action"`
	RecordedAt time.Time `json:"recordedAt"`
}

// Trail is a nil-safe append-only audit store. A nil Trail ignores writes, so
// callers never guard on configuration.
type Trail struct {
	db  *sql.DB
	log zerolog.Logger
}

// Open creates or opens the audit database at path. An empty path disables
// auditing and returns a nil Trail.
func Open(path string, log zerolog.Logger) (*Trail, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		return nil, nil
	}
	// Same pragmas the rest of the stack uses for local sqlite files: WAL plus
	// a generous busy timeout to ride out concurrent writers.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(30000)&_pragma=journal_mode(WAL)&_txlock=immediate", p)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open audit store: %w", err)
	}
	t := &Trail{db: db, log: log}
	if err := t.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("prepare audit schema: %w", err)
	}
	return t, nil
}

func (t *Trail) ensureSchema() error {
	const createTable = `
        CREATE TABLE IF NOT EXISTS audit_events (
            id TEXT PRIMARY KEY,
            request_id TEXT NOT NULL,
            resource_id TEXT NOT NULL,
            user_id TEXT NOT NULL,
            actor_id TEXT NOT NULL,
            action TEXT NOT NULL,
            recorded_at TIMESTAMP NOT NULL
        )`
	if _, err := t.db.Exec(createTable); err != nil {
		return err
	}
	_, err := t.db.Exec(`CREATE INDEX IF NOT EXISTS idx_audit_events_recorded ON audit_events (recorded_at)`)
	return err
}

// Enabled reports whether events are being persisted.
func (t *Trail) Enabled() bool {
	return t != nil && t.db != nil
}

// Record appends one event. Best effort from the caller's perspective: the
// membership operation has already committed by the time this runs.
func (t *Trail) Record(ctx context.Context, e Event) error {
	if !t.Enabled() {
		return nil
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.RecordedAt.IsZero() {
		e.RecordedAt = time.Now().UTC()
	}
	_, err := t.db.ExecContext(ctx, `
        INSERT INTO audit_events (id, request_id, resource_id, user_id, actor_id, action, recorded_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.RequestID, e.ResourceID, e.UserID, e.ActorID, string(e.Action), e.RecordedAt.UTC())
	if err != nil {
		t.log.Warn().Err(err).Str("request_id", e.RequestID).Msg("failed to record audit event")
	}
	return err
}

// Recent returns up to limit events, newest first.
func (t *Trail) Recent(ctx context.Context, limit int) ([]Event, error) {
	if !t.Enabled() {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := t.db.QueryContext(ctx, `
        SELECT id, request_id, resource_id, user_id, actor_id, action, recorded_at
        FROM audit_events
        ORDER BY recorded_at DESC, id DESC
        LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var (
			e      Event
			action string
		)
		if err := rows.Scan(&e.ID, &e.RequestID, &e.ResourceID, &e.UserID, &e.ActorID, &action, &e.RecordedAt); err != nil {
			return nil, err
		}
		e.Action = Action(action)
		e.RecordedAt = e.RecordedAt.UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close releases the underlying database handle.
func (t *Trail) Close() error {
	if t == nil || t.db == nil {
		return nil
	}
	return t.db.Close()
}
