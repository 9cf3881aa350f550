// Package sqlite stores session records and events in an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/AaronLay10/DecisionSim/internal/events"
	"github.com/AaronLay10/DecisionSim/internal/storage"
)

// timeLayout is fixed width so that text comparison in ORDER BY matches
// chronological order. Parsing uses RFC3339Nano, which also accepts rows
// written before the width was fixed.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS sessions (
		session_id  TEXT PRIMARY KEY,
		scenario_id TEXT NOT NULL,
		snapshot    TEXT NOT NULL,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS events (
		event_id   INTEGER PRIMARY KEY AUTOINCREMENT,
		ts         TEXT NOT NULL,
		level      TEXT NOT NULL,
		event      TEXT NOT NULL,
		session_id TEXT,
		msg        TEXT,
		fields     TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_events_session_id ON events(session_id)`,
}

// Store is a SQLite-backed storage.Store and storage.EventLog.
type Store struct {
	db *sql.DB
}

// Open opens the database at path, or an in-memory database for ":memory:",
// and applies migrations.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if path == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return &Store{db: db}, nil
}

func migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

func (s *Store) Save(ctx context.Context, r storage.Record) error {
	snap, err := json.Marshal(r.Snapshot)
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (session_id, scenario_id, snapshot, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			scenario_id = excluded.scenario_id,
			snapshot    = excluded.snapshot,
			updated_at  = excluded.updated_at`,
		r.SessionID, r.ScenarioID, string(snap),
		r.CreatedAt.UTC().Format(timeLayout), r.UpdatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("saving session %s: %w", r.SessionID, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (storage.Record, error) {
	var r storage.Record
	var snap, created, updated string
	if err := row.Scan(&r.SessionID, &r.ScenarioID, &snap, &created, &updated); err != nil {
		return storage.Record{}, err
	}
	if err := json.Unmarshal([]byte(snap), &r.Snapshot); err != nil {
		return storage.Record{}, fmt.Errorf("unmarshaling snapshot for %s: %w", r.SessionID, err)
	}
	var err error
	if r.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return storage.Record{}, fmt.Errorf("parsing created_at: %w", err)
	}
	if r.UpdatedAt, err = time.Parse(time.RFC3339Nano, updated); err != nil {
		return storage.Record{}, fmt.Errorf("parsing updated_at: %w", err)
	}
	return r, nil
}

const selectRecord = `SELECT session_id, scenario_id, snapshot, created_at, updated_at FROM sessions`

func (s *Store) Load(ctx context.Context, sessionID string) (storage.Record, error) {
	r, err := scanRecord(s.db.QueryRowContext(ctx, selectRecord+` WHERE session_id = ?`, sessionID))
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Record{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.Record{}, fmt.Errorf("loading session %s: %w", sessionID, err)
	}
	return r, nil
}

func (s *Store) List(ctx context.Context) ([]storage.Record, error) {
	rows, err := s.db.QueryContext(ctx, selectRecord+` ORDER BY created_at, session_id`)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	var out []storage.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("deleting session %s: %w", sessionID, err)
	}
	return nil
}

// AppendEvent implements events.Sink.
func (s *Store) AppendEvent(e events.Event) error {
	var fields sql.NullString
	if e.Fields != nil {
		b, err := json.Marshal(e.Fields)
		if err != nil {
			return fmt.Errorf("failed to marshal fields: %w", err)
		}
		fields = sql.NullString{String: string(b), Valid: true}
	}
	_, err := s.db.Exec(`INSERT INTO events (ts, level, event, session_id, msg, fields) VALUES (?, ?, ?, ?, ?, ?)`,
		e.Timestamp.UTC().Format(timeLayout), e.Level, e.Name, nullString(e.SessionID), nullString(e.Message), fields)
	return err
}

// QueryEvents implements storage.EventLog.
func (s *Store) QueryEvents(ctx context.Context, limit int) ([]events.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ts, level, event, session_id, msg, fields
		FROM events ORDER BY event_id DESC LIMIT ?`, storage.ClampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []events.Event
	for rows.Next() {
		var e events.Event
		var ts string
		var sessionID, msg, fields sql.NullString
		if err := rows.Scan(&ts, &e.Level, &e.Name, &sessionID, &msg, &fields); err != nil {
			return nil, err
		}
		if e.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("parsing event timestamp: %w", err)
		}
		e.SessionID = sessionID.String
		e.Message = msg.String
		if fields.Valid {
			if err := json.Unmarshal([]byte(fields.String), &e.Fields); err != nil {
				return nil, fmt.Errorf("failed to unmarshal fields: %w", err)
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
