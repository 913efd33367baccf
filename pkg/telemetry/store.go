// Package telemetry provides the append-only coordination event table.
//
// The table is a plain audit log: both coordination components write rows for
// every decision they make, and nothing in the pipeline ever reads them back
// at runtime. Operator tooling and tests query by session.
package telemetry

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// Row kinds written by the coordination components.
const (
	KindDelegation = "delegation"
	KindEscalation = "escalation"
	KindReset      = "reset"
	KindInjection  = "injection"
	KindExhausted  = "exhausted"
)

// Event is one appended telemetry row.
type Event struct {
	Timestamp time.Time
	SessionID string
	Agent     string
	Kind      string
	Detail    string
}

// Sink receives telemetry rows. Implementations must be safe for concurrent
// use. Components treat a nil Sink as telemetry disabled.
type Sink interface {
	Append(ctx context.Context, ev Event) error
}

const schema = `
CREATE TABLE IF NOT EXISTS coordination_events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	ts TEXT NOT NULL,
	session_id TEXT NOT NULL,
	agent TEXT NOT NULL,
	kind TEXT NOT NULL,
	detail TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_coordination_events_session
	ON coordination_events(session_id);
`

// Store is a SQLite-backed Sink.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the telemetry database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf(
		"file:%s?_journal_mode=WAL&_busy_timeout=5000", path,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to open telemetry database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping telemetry database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize telemetry schema: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return &Store{db: db}, nil
}

// Append writes one row.
func (s *Store) Append(ctx context.Context, ev Event) error {
	ts := ev.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO coordination_events (ts, session_id, agent, kind, detail) VALUES (?, ?, ?, ?, ?)`,
		ts.Format(time.RFC3339Nano), ev.SessionID, ev.Agent, ev.Kind, ev.Detail,
	)
	if err != nil {
		return fmt.Errorf("failed to append telemetry event: %w", err)
	}
	return nil
}

// ReadSession returns all rows for a session in insertion order.
func (s *Store) ReadSession(ctx context.Context, sessionID string) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT ts, session_id, agent, kind, detail FROM coordination_events WHERE session_id = ? ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query telemetry events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []Event
	for rows.Next() {
		var ev Event
		var ts string
		if err := rows.Scan(&ts, &ev.SessionID, &ev.Agent, &ev.Kind, &ev.Detail); err != nil {
			return nil, fmt.Errorf("failed to scan telemetry event: %w", err)
		}
		if parsed, perr := time.Parse(time.RFC3339Nano, ts); perr == nil {
			ev.Timestamp = parsed
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate telemetry events: %w", err)
	}

	return events, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close telemetry database: %w", err)
	}
	return nil
}
