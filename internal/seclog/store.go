package seclog

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// Store is the durable audit sink: an append-only SQLite table of
// security events. It implements Sink, so it plugs directly into the
// Log. The server treats it as optional: if it cannot be opened the
// pipeline still runs with the zap sink alone.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS security_events (
	id          TEXT PRIMARY KEY,
	event_type  TEXT NOT NULL,
	severity    TEXT NOT NULL,
	detail      TEXT NOT NULL DEFAULT '{}',
	created_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_type ON security_events(event_type);
CREATE INDEX IF NOT EXISTS idx_events_created ON security_events(created_at);
`

// OpenStore opens (creating if needed) the audit database at path.
func OpenStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating audit directory: %w", err)
	}

	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening audit database: %w", err)
	}

	// Single writer keeps the append path simple; events are low volume.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing audit schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Write appends one event. Events are already redacted by the Log.
func (s *Store) Write(e Event) error {
	detail, err := json.Marshal(e.Detail)
	if err != nil {
		detail = []byte("{}")
	}
	_, err = s.db.Exec(
		`INSERT OR IGNORE INTO security_events (id, event_type, severity, detail, created_at) VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.Type, string(e.Severity), string(detail), e.Time.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("appending security event: %w", err)
	}
	return nil
}

// Recent returns up to limit events, newest first.
func (s *Store) Recent(limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT id, event_type, severity, detail, created_at FROM security_events ORDER BY created_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying security events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var severity, detail, createdAt string
		if err := rows.Scan(&e.ID, &e.Type, &severity, &detail, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning security event: %w", err)
		}
		e.Severity = Severity(severity)
		if t, perr := time.Parse(time.RFC3339Nano, createdAt); perr == nil {
			e.Time = t
		}
		_ = json.Unmarshal([]byte(detail), &e.Detail)
		events = append(events, e)
	}
	return events, rows.Err()
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
