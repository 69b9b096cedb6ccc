// Package sqlite implements audit.Store over a local SQLite database.
// Adapted from the teacher's pkg/persistence/sqlite/store.go (same
// database/sql + modernc.org/sqlite pure-Go driver pairing, same
// init-schema-on-open idiom), with the messages table replaced by a
// single append-only events table.
package sqlite

import (
	"database/sql"

	"github.com/jzachmann/wifi-commissioning/pkg/audit"
	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// Store implements audit.Store over a SQLite database file.
type Store struct {
	db *sql.DB
}

// NewStore opens (creating if necessary) a SQLite database at path and
// ensures the events table exists.
func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	const query = `
	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME NOT NULL,
		kind TEXT NOT NULL,
		detail TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_events_timestamp ON events(timestamp);
	`
	_, err := s.db.Exec(query)
	return err
}

// Record appends evt to the events table.
func (s *Store) Record(evt audit.Event) error {
	const query = `INSERT INTO events (timestamp, kind, detail) VALUES (?, ?, ?)`
	_, err := s.db.Exec(query, evt.Timestamp, string(evt.Kind), evt.Detail)
	return err
}

// Recent returns the most recent limit events, newest first.
func (s *Store) Recent(limit int) ([]audit.Event, error) {
	const query = `SELECT id, timestamp, kind, detail FROM events ORDER BY timestamp DESC LIMIT ?`
	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var evt audit.Event
		var kind string
		if err := rows.Scan(&evt.ID, &evt.Timestamp, &kind, &evt.Detail); err != nil {
			return nil, err
		}
		evt.Kind = audit.Kind(kind)
		events = append(events, evt)
	}
	return events, rows.Err()
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
