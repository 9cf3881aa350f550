// Package postgres stores session records and events in PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	_ "github.com/lib/pq"

	"github.com/AaronLay10/DecisionSim/internal/events"
	"github.com/AaronLay10/DecisionSim/internal/storage"
)

const schema = `
	CREATE TABLE IF NOT EXISTS sessions (
		session_id  TEXT PRIMARY KEY,
		scenario_id TEXT NOT NULL,
		snapshot    JSONB NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL,
		updated_at  TIMESTAMPTZ NOT NULL
	);
	CREATE TABLE IF NOT EXISTS events (
		event_id   BIGSERIAL PRIMARY KEY,
		ts         TIMESTAMPTZ NOT NULL,
		level      TEXT NOT NULL,
		event      TEXT NOT NULL,
		session_id TEXT,
		msg        TEXT,
		fields     JSONB
	);
	CREATE INDEX IF NOT EXISTS idx_events_ts ON events(ts DESC);
	CREATE INDEX IF NOT EXISTS idx_events_session_id ON events(session_id);
`

// Client is a PostgreSQL-backed storage.Store and storage.EventLog.
type Client struct {
	db *sql.DB
}

// New connects using dsn. An empty dsn is built from the standard PG*
// environment variables.
func New(ctx context.Context, dsn string) (*Client, error) {
	if dsn == "" {
		dsn = DSNFromEnv()
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return &Client{db: db}, nil
}

// DSNFromEnv builds a connection string from PGHOST, PGPORT, PGUSER,
// PGDATABASE and PGPASSWORD.
func DSNFromEnv() string {
	host := getEnv("PGHOST", "127.0.0.1")
	port := getEnv("PGPORT", "5432")
	user := getEnv("PGUSER", "decisionsim")
	dbname := getEnv("PGDATABASE", "decisionsim")

	dsn := fmt.Sprintf("host=%s port=%s user=%s dbname=%s sslmode=disable", host, port, user, dbname)
	if password := os.Getenv("PGPASSWORD"); password != "" {
		dsn += " password=" + password
	}
	return dsn
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func (c *Client) Save(ctx context.Context, r storage.Record) error {
	snap, err := json.Marshal(r.Snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	_, err = c.db.ExecContext(ctx, `
		INSERT INTO sessions (session_id, scenario_id, snapshot, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (session_id) DO UPDATE SET
			scenario_id = EXCLUDED.scenario_id,
			snapshot    = EXCLUDED.snapshot,
			updated_at  = EXCLUDED.updated_at`,
		r.SessionID, r.ScenarioID, string(snap), r.CreatedAt, r.UpdatedAt)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (storage.Record, error) {
	var r storage.Record
	var snap []byte
	if err := row.Scan(&r.SessionID, &r.ScenarioID, &snap, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return storage.Record{}, err
	}
	if err := json.Unmarshal(snap, &r.Snapshot); err != nil {
		return storage.Record{}, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return r, nil
}

const selectRecord = `SELECT session_id, scenario_id, snapshot, created_at, updated_at FROM sessions`

func (c *Client) Load(ctx context.Context, sessionID string) (storage.Record, error) {
	r, err := scanRecord(c.db.QueryRowContext(ctx, selectRecord+` WHERE session_id = $1`, sessionID))
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Record{}, storage.ErrNotFound
	}
	return r, err
}

func (c *Client) List(ctx context.Context) ([]storage.Record, error) {
	rows, err := c.db.QueryContext(ctx, selectRecord+` ORDER BY created_at, session_id`)
	if err != nil {
		return nil, err
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

func (c *Client) Delete(ctx context.Context, sessionID string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM sessions WHERE session_id = $1`, sessionID)
	return err
}

// AppendEvent implements events.Sink.
func (c *Client) AppendEvent(e events.Event) error {
	var fieldsJSON *string
	if e.Fields != nil {
		b, err := json.Marshal(e.Fields)
		if err != nil {
			return fmt.Errorf("failed to marshal fields: %w", err)
		}
		fieldsJSON = nullable(string(b))
	}

	_, err := c.db.Exec(`
		INSERT INTO events (ts, level, event, session_id, msg, fields)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		e.Timestamp, e.Level, e.Name, nullable(e.SessionID), nullable(e.Message), fieldsJSON)
	return err
}

// QueryEvents returns the last N events, newest first.
func (c *Client) QueryEvents(ctx context.Context, limit int) ([]events.Event, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT ts, level, event, session_id, msg, fields
		FROM events
		ORDER BY ts DESC, event_id DESC
		LIMIT $1`, storage.ClampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []events.Event
	for rows.Next() {
		var e events.Event
		var sessionID, msg sql.NullString
		var fieldsJSON []byte

		if err := rows.Scan(&e.Timestamp, &e.Level, &e.Name, &sessionID, &msg, &fieldsJSON); err != nil {
			return nil, err
		}
		e.SessionID = sessionID.String
		e.Message = msg.String
		if len(fieldsJSON) > 0 {
			if err := json.Unmarshal(fieldsJSON, &e.Fields); err != nil {
				return nil, fmt.Errorf("failed to unmarshal fields: %w", err)
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close closes the database connection.
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
