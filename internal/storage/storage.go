// Package storage defines how session snapshots are persisted between restarts.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/AaronLay10/DecisionSim/internal/events"
	"github.com/AaronLay10/DecisionSim/internal/simulation"
)

// ErrNotFound is returned when no record exists for a session id.
var ErrNotFound = errors.New("session record not found")

// Record is the persisted form of one live session.
type Record struct {
	SessionID  string              `json:"session_id"`
	ScenarioID string              `json:"scenario_id"`
	Snapshot   simulation.Snapshot `json:"snapshot"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

// Store saves and loads session records. Implementations must be safe for
// concurrent use.
type Store interface {
	// Save inserts or replaces the record for r.SessionID.
	Save(ctx context.Context, r Record) error
	Load(ctx context.Context, sessionID string) (Record, error)
	// List returns every record ordered by creation time, then id.
	List(ctx context.Context) ([]Record, error)
	// Delete removes a record. Deleting a missing record is not an error.
	Delete(ctx context.Context, sessionID string) error
	Close() error
}

// EventLog is implemented by stores that also persist the event stream.
type EventLog interface {
	events.Sink
	// QueryEvents returns up to limit events, newest first.
	QueryEvents(ctx context.Context, limit int) ([]events.Event, error)
}

// ClampLimit bounds an event query limit to 1..10000, defaulting to 200.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return 200
	}
	return min(limit, 10000)
}
