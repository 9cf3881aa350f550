package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/AaronLay10/DecisionSim/internal/events"
	"github.com/AaronLay10/DecisionSim/internal/storage"
)

// Restore reloads persisted sessions into memory. Records whose scenario is no
// longer in the catalog, or whose snapshot no longer fits the graph, are
// skipped and reported. It returns the number of sessions restored.
func (m *Manager) Restore(ctx context.Context) (int, error) {
	records, err := m.store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list session records: %w", err)
	}

	restored := 0
	for _, rec := range records {
		ls, err := m.rehydrate(rec)
		if err != nil {
			m.skipRestore(rec.SessionID, err)
			continue
		}
		if _, added := m.adopt(ls); added {
			restored++
		}
	}

	m.logger.Info("sessions restored", "restored", restored, "records", len(records))
	return restored, nil
}

// load brings one persisted session into memory. An unusable record is
// reported like a skipped restore and treated as missing.
func (m *Manager) load(ctx context.Context, id string) (*liveSession, error) {
	rec, err := m.store.Load(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, &SessionNotFoundError{ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session record: %w", err)
	}

	ls, err := m.rehydrate(rec)
	if err != nil {
		m.skipRestore(id, err)
		return nil, &SessionNotFoundError{ID: id}
	}
	ls, _ = m.adopt(ls)
	return ls, nil
}

func (m *Manager) rehydrate(rec storage.Record) (*liveSession, error) {
	def, err := m.definition(rec.ScenarioID)
	if err != nil {
		return nil, err
	}
	session, err := def.Restore(rec.Snapshot)
	if err != nil {
		return nil, err
	}
	return &liveSession{
		id:        rec.SessionID,
		def:       def,
		session:   session,
		createdAt: rec.CreatedAt,
		updatedAt: rec.UpdatedAt,
	}, nil
}

// adopt registers ls unless a session with the same id is already live, in
// which case the live one wins.
func (m *Manager) adopt(ls *liveSession) (*liveSession, bool) {
	m.mu.Lock()
	if live, exists := m.sessions[ls.id]; exists {
		m.mu.Unlock()
		return live, false
	}
	m.sessions[ls.id] = ls
	m.mu.Unlock()

	m.emit(ls.id, "info", events.SessionRestored, map[string]interface{}{
		"scenario_id": ls.def.ID,
		"node_id":     ls.session.CurrentNodeID(),
		"score":       ls.session.Score(),
	})
	return ls, true
}

func (m *Manager) skipRestore(sessionID string, err error) {
	m.logger.Warn("skipping session record", "session_id", sessionID, "error", err)
	events.EmitSession(sessionID, "error", events.SystemError, "failed to restore session", map[string]interface{}{
		"error": err.Error(),
	})
}
