package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Outcome classifies how an update attempt ended.
type Outcome string

const (
	OutcomeInstalled Outcome = "installed"
	OutcomeFailed    Outcome = "failed"
	OutcomeCancelled Outcome = "cancelled"
)

// Attempt is one row in the update log.
type Attempt struct {
	ID          int64
	StartedAt   time.Time
	FromVersion string
	ToVersion   string
	Outcome     Outcome
	Message     string
	Bytes       int64
}

// Store persists update attempts in a local sqlite database.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS update_attempts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	started_at TEXT NOT NULL,
	from_version TEXT NOT NULL,
	to_version TEXT NOT NULL,
	outcome TEXT NOT NULL,
	message TEXT NOT NULL DEFAULT '',
	bytes_downloaded INTEGER NOT NULL DEFAULT 0
);`

// Open opens (creating if needed) the update log at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening update log: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing update log schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Record appends one attempt to the log.
func (s *Store) Record(ctx context.Context, a Attempt) error {
	started := a.StartedAt
	if started.IsZero() {
		started = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO update_attempts (started_at, from_version, to_version, outcome, message, bytes_downloaded)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		started.UTC().Format(time.RFC3339), a.FromVersion, a.ToVersion, string(a.Outcome), a.Message, a.Bytes)
	if err != nil {
		return fmt.Errorf("recording update attempt: %w", err)
	}
	return nil
}

// List returns the most recent attempts, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Attempt, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, from_version, to_version, outcome, message, bytes_downloaded
		 FROM update_attempts ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing update attempts: %w", err)
	}
	defer rows.Close()

	var attempts []Attempt
	for rows.Next() {
		var a Attempt
		var started string
		if err := rows.Scan(&a.ID, &started, &a.FromVersion, &a.ToVersion, (*string)(&a.Outcome), &a.Message, &a.Bytes); err != nil {
			return nil, fmt.Errorf("scanning update attempt: %w", err)
		}
		if ts, err := time.Parse(time.RFC3339, started); err == nil {
			a.StartedAt = ts
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
