// Package orchestrator hosts live simulation sessions. It serializes access to
// each session, emits events for every state change and persists snapshots.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AaronLay10/DecisionSim/internal/catalog"
	"github.com/AaronLay10/DecisionSim/internal/events"
	"github.com/AaronLay10/DecisionSim/internal/simulation"
	"github.com/AaronLay10/DecisionSim/internal/storage"
)

// DefaultMaxDecisions caps play-throughs of scenarios that set no limit.
const DefaultMaxDecisions = 50

// storeTimeout bounds a store write once the in-memory transition is applied.
const storeTimeout = 5 * time.Second

// SessionNotFoundError indicates an unknown live session id.
type SessionNotFoundError struct {
	ID string
}

func (e *SessionNotFoundError) Error() string {
	return "session not found: " + e.ID
}

type liveSession struct {
	mu        sync.Mutex
	id        string
	def       catalog.Definition
	session   *simulation.Session
	createdAt time.Time
	updatedAt time.Time
}

// Manager owns every live session.
type Manager struct {
	catalog      *catalog.Catalog
	store        storage.Store
	logger       *slog.Logger
	newID        func() string
	now          func() time.Time
	maxDecisions int

	mu       sync.RWMutex
	sessions map[string]*liveSession
}

// Option configures a Manager.
type Option func(*Manager)

// WithStore persists snapshots to s. The default store is in memory.
func WithStore(s storage.Store) Option {
	return func(m *Manager) { m.store = s }
}

func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithIDGenerator replaces the UUID session id generator.
func WithIDGenerator(f func() string) Option {
	return func(m *Manager) { m.newID = f }
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithDefaultMaxDecisions sets the cap applied to scenarios without one.
// Zero disables the cap.
func WithDefaultMaxDecisions(n int) Option {
	return func(m *Manager) { m.maxDecisions = n }
}

func NewManager(cat *catalog.Catalog, opts ...Option) *Manager {
	m := &Manager{
		catalog:      cat,
		store:        storage.NewMemoryStore(),
		logger:       slog.Default(),
		newID:        uuid.NewString,
		now:          func() time.Time { return time.Now().UTC() },
		maxDecisions: DefaultMaxDecisions,
		sessions:     make(map[string]*liveSession),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Catalog returns the scenarios sessions are started from.
func (m *Manager) Catalog() *catalog.Catalog {
	return m.catalog
}

func (m *Manager) definition(scenarioID string) (catalog.Definition, error) {
	def, err := m.catalog.Get(scenarioID)
	if err != nil {
		return catalog.Definition{}, err
	}
	if def.MaxDecisions == 0 {
		def.MaxDecisions = m.maxDecisions
	}
	return def, nil
}

// Start begins a new play-through of a scenario.
func (m *Manager) Start(ctx context.Context, scenarioID string) (View, error) {
	def, err := m.definition(scenarioID)
	if err != nil {
		return View{}, err
	}

	now := m.now()
	ls := &liveSession{
		id:        m.newID(),
		def:       def,
		session:   def.NewSession(),
		createdAt: now,
		updatedAt: now,
	}

	m.mu.Lock()
	if _, dup := m.sessions[ls.id]; dup {
		m.mu.Unlock()
		return View{}, fmt.Errorf("session id collision: %s", ls.id)
	}
	m.sessions[ls.id] = ls
	m.mu.Unlock()

	ls.mu.Lock()
	defer ls.mu.Unlock()

	m.persist(ctx, ls)
	m.emit(ls.id, "info", events.SessionStarted, map[string]interface{}{
		"scenario_id": def.ID,
		"node_id":     ls.session.CurrentNodeID(),
	})
	m.logger.Info("session started", "session_id", ls.id, "scenario_id", def.ID)
	if ls.session.IsTerminated() {
		m.emitCompleted(ls)
	}
	return newView(ls), nil
}

// lookup returns the live session for id, loading it from the store when
// another process sharing the store created it or restore was disabled.
func (m *Manager) lookup(ctx context.Context, id string) (*liveSession, error) {
	m.mu.RLock()
	ls, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		return ls, nil
	}
	return m.load(ctx, id)
}

// Advance applies one decision to a live session. Engine errors are returned
// unchanged so callers can match them with errors.As.
func (m *Manager) Advance(ctx context.Context, id string, optionIndex int) (View, error) {
	ls, err := m.lookup(ctx, id)
	if err != nil {
		return View{}, err
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()

	from := ls.session.CurrentNode()
	if err := ls.session.Advance(optionIndex); err != nil {
		m.emit(id, "warning", events.SessionRejected, map[string]interface{}{
			"node_id": from.ID,
			"option":  optionIndex,
			"error":   err.Error(),
		})
		return View{}, err
	}

	chosen := from.Options[optionIndex]
	ls.updatedAt = m.now()
	m.persist(ctx, ls)
	m.emit(id, "info", events.SessionDecision, map[string]interface{}{
		"node_id":  from.ID,
		"option":   optionIndex,
		"label":    chosen.Label,
		"impact":   chosen.Impact,
		"next":     chosen.Next,
		"score":    ls.session.Score(),
		"progress": ls.session.Progress(),
	})
	if ls.session.IsTerminated() {
		m.emitCompleted(ls)
	}
	return newView(ls), nil
}

// Reset returns a live session to the scenario root.
func (m *Manager) Reset(ctx context.Context, id string) (View, error) {
	ls, err := m.lookup(ctx, id)
	if err != nil {
		return View{}, err
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()

	ls.session.Reset()
	ls.updatedAt = m.now()
	m.persist(ctx, ls)
	m.emit(id, "info", events.SessionReset, map[string]interface{}{"scenario_id": ls.def.ID})
	return newView(ls), nil
}

// Get returns the current state of a live session.
func (m *Manager) Get(ctx context.Context, id string) (View, error) {
	ls, err := m.lookup(ctx, id)
	if err != nil {
		return View{}, err
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return newView(ls), nil
}

// List returns every live session ordered by creation time, then id.
func (m *Manager) List() []View {
	m.mu.RLock()
	all := make([]*liveSession, 0, len(m.sessions))
	for _, ls := range m.sessions {
		all = append(all, ls)
	}
	m.mu.RUnlock()

	views := make([]View, 0, len(all))
	for _, ls := range all {
		ls.mu.Lock()
		views = append(views, newView(ls))
		ls.mu.Unlock()
	}
	sort.Slice(views, func(i, j int) bool {
		if !views[i].CreatedAt.Equal(views[j].CreatedAt) {
			return views[i].CreatedAt.Before(views[j].CreatedAt)
		}
		return views[i].ID < views[j].ID
	})
	return views
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Delete ends a live session and removes its persisted record.
func (m *Manager) Delete(ctx context.Context, id string) error {
	if _, err := m.lookup(ctx, id); err != nil {
		return err
	}
	m.mu.Lock()
	ls, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()
	if !ok {
		return &SessionNotFoundError{ID: id}
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()

	storeCtx, cancel := m.storeContext(ctx)
	defer cancel()
	if err := m.store.Delete(storeCtx, id); err != nil {
		m.logger.Error("failed to delete session record", "session_id", id, "error", err)
	}
	m.emit(id, "info", events.SessionDeleted, map[string]interface{}{"scenario_id": ls.def.ID})
	return nil
}

func (m *Manager) emitCompleted(ls *liveSession) {
	fields := map[string]interface{}{
		"scenario_id": ls.def.ID,
		"node_id":     ls.session.CurrentNodeID(),
		"score":       ls.session.Score(),
	}
	if oc, ok := ls.session.Outcome(); ok {
		fields["success"] = oc.Success
		fields["outcome_score"] = oc.Score
	}
	m.emit(ls.id, "info", events.SessionCompleted, fields)
}

func (m *Manager) emit(sessionID, level, name string, fields map[string]interface{}) {
	if _, err := events.EmitSession(sessionID, level, name, "", fields); err != nil {
		m.logger.Error("failed to emit event", "event", name, "error", err)
	}
}

// storeContext detaches store writes from the caller's cancellation. A client
// that disconnects after a transition was applied must not leave the
// persisted snapshot behind the live session.
func (m *Manager) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), storeTimeout)
}

// persist keeps the in-memory transition even when the store fails; the
// failure is logged and surfaced as a system.error event.
func (m *Manager) persist(ctx context.Context, ls *liveSession) {
	rec := storage.Record{
		SessionID:  ls.id,
		ScenarioID: ls.def.ID,
		Snapshot:   ls.session.Snapshot(),
		CreatedAt:  ls.createdAt,
		UpdatedAt:  ls.updatedAt,
	}
	storeCtx, cancel := m.storeContext(ctx)
	defer cancel()
	if err := m.store.Save(storeCtx, rec); err != nil {
		m.logger.Error("failed to persist session", "session_id", ls.id, "error", err)
		events.EmitSession(ls.id, "error", events.SystemError, "failed to persist session", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
