package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/AaronLay10/DecisionSim/internal/catalog"
	"github.com/AaronLay10/DecisionSim/internal/events"
	"github.com/AaronLay10/DecisionSim/internal/logging"
	"github.com/AaronLay10/DecisionSim/internal/simulation"
	"github.com/AaronLay10/DecisionSim/internal/storage"
)

func builtinCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.Load("", true)
	if err != nil {
		t.Fatalf("failed to load builtin catalog: %v", err)
	}
	return c
}

func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("sess-%d", n)
	}
}

func newTestManager(t *testing.T, opts ...Option) *Manager {
	t.Helper()
	base := []Option{
		WithLogger(logging.Discard()),
		WithIDGenerator(sequentialIDs()),
	}
	return NewManager(builtinCatalog(t), append(base, opts...)...)
}

func eventNames(evs []events.Event) []string {
	names := make([]string, len(evs))
	for i, e := range evs {
		names[i] = e.Name
	}
	return names
}

func TestStartAndPlayReferenceScenario(t *testing.T) {
	events.Clear()
	ctx := context.Background()
	m := newTestManager(t)

	v, err := m.Start(ctx, "startup-pivot")
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if v.ID != "sess-1" || v.CurrentNode.ID != "start" || v.Terminated {
		t.Fatalf("unexpected initial view %+v", v)
	}
	if v.MaxDecisions != 20 {
		t.Errorf("expected scenario max_decisions 20, got %d", v.MaxDecisions)
	}
	if v.ExpectedPathLength != 2 {
		t.Errorf("expected scenario expected_path_length 2, got %d", v.ExpectedPathLength)
	}

	v, err = m.Advance(ctx, v.ID, 2)
	if err != nil {
		t.Fatalf("advance failed: %v", err)
	}
	if v.CurrentNode.ID != "pivot" || v.Score != 15 || len(v.History) != 1 {
		t.Errorf("unexpected view after pivot: %+v", v)
	}
	if v.History[0].Label != "Pivot to differentiate our product" {
		t.Errorf("unexpected decision %+v", v.History[0])
	}

	v, err = m.Advance(ctx, v.ID, 1)
	if err != nil {
		t.Fatalf("advance failed: %v", err)
	}
	if !v.Terminated || v.Outcome == nil || v.Outcome.Score != 95 || !v.Outcome.Success {
		t.Errorf("expected successful terminal view, got %+v", v)
	}

	want := []string{events.SessionStarted, events.SessionDecision, events.SessionDecision, events.SessionCompleted}
	got := eventNames(events.ForSession(v.ID))
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("events = %v, want %v", got, want)
	}
}

func TestStartUnknownScenario(t *testing.T) {
	m := newTestManager(t)
	_, err := m.Start(context.Background(), "missing")
	var nf *catalog.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected catalog.NotFoundError, got %v", err)
	}
	if m.Len() != 0 {
		t.Error("failed start must not create a session")
	}
}

func TestAdvanceErrors(t *testing.T) {
	events.Clear()
	ctx := context.Background()
	m := newTestManager(t)

	var snf *SessionNotFoundError
	if _, err := m.Advance(ctx, "nope", 0); !errors.As(err, &snf) {
		t.Errorf("expected SessionNotFoundError, got %v", err)
	}

	v, _ := m.Start(ctx, "startup-pivot")
	var oor *simulation.IndexOutOfRangeError
	if _, err := m.Advance(ctx, v.ID, 9); !errors.As(err, &oor) {
		t.Errorf("expected IndexOutOfRangeError, got %v", err)
	}

	if _, err := m.Advance(ctx, v.ID, 3); err != nil {
		t.Fatalf("advance failed: %v", err)
	}
	var ite *simulation.InvalidTransitionError
	if _, err := m.Advance(ctx, v.ID, 0); !errors.As(err, &ite) {
		t.Errorf("expected InvalidTransitionError, got %v", err)
	}

	rejected := 0
	for _, e := range events.ForSession(v.ID) {
		if e.Name == events.SessionRejected {
			rejected++
		}
	}
	if rejected != 2 {
		t.Errorf("expected 2 rejected events, got %d", rejected)
	}
}

func TestResetAndDelete(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	m := newTestManager(t, WithStore(store))

	v, _ := m.Start(ctx, "startup-pivot")
	if _, err := m.Advance(ctx, v.ID, 0); err != nil {
		t.Fatalf("advance failed: %v", err)
	}

	v, err := m.Reset(ctx, v.ID)
	if err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	if v.Score != 0 || v.Steps != 0 || v.CurrentNode.ID != "start" {
		t.Errorf("expected fresh session after reset, got %+v", v)
	}
	rec, err := store.Load(ctx, v.ID)
	if err != nil {
		t.Fatalf("expected persisted record: %v", err)
	}
	if rec.Snapshot.CurrentNodeID != "start" || len(rec.Snapshot.DecisionLog) != 0 {
		t.Errorf("expected reset snapshot, got %+v", rec.Snapshot)
	}

	if err := m.Delete(ctx, v.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := store.Load(ctx, v.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected record to be deleted, got %v", err)
	}
	var snf *SessionNotFoundError
	if err := m.Delete(ctx, v.ID); !errors.As(err, &snf) {
		t.Errorf("expected SessionNotFoundError on second delete, got %v", err)
	}
	if _, err := m.Get(ctx, v.ID); !errors.As(err, &snf) {
		t.Errorf("expected SessionNotFoundError on get, got %v", err)
	}
}

func TestListOrdering(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	tick := 0
	clock := func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	m := newTestManager(t, WithClock(clock))

	for _, id := range []string{"startup-pivot", "incident-response", "startup-pivot"} {
		if _, err := m.Start(ctx, id); err != nil {
			t.Fatalf("start failed: %v", err)
		}
	}

	list := m.List()
	if len(list) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(list))
	}
	for i, want := range []string{"sess-1", "sess-2", "sess-3"} {
		if list[i].ID != want {
			t.Errorf("list[%d] = %s, want %s", i, list[i].ID, want)
		}
	}
}

func TestDefaultMaxDecisionsApplied(t *testing.T) {
	g, err := simulation.Build(map[string]simulation.Node{
		"start": {Prompt: "loop", Options: []simulation.Option{{Label: "again", Next: "start", Impact: "safe"}}},
		"end":   {Prompt: "end", Outcome: &simulation.Outcome{Success: true}},
	}, "")
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	cat, err := catalog.New(catalog.Definition{ID: "loop", Title: "Loop", Difficulty: catalog.Beginner, Graph: g})
	if err != nil {
		t.Fatalf("catalog failed: %v", err)
	}

	ctx := context.Background()
	m := NewManager(cat, WithLogger(logging.Discard()), WithDefaultMaxDecisions(2))
	v, _ := m.Start(ctx, "loop")
	for i := 0; i < 2; i++ {
		if _, err := m.Advance(ctx, v.ID, 0); err != nil {
			t.Fatalf("advance %d failed: %v", i, err)
		}
	}
	var dle *simulation.DecisionLimitError
	if _, err := m.Advance(ctx, v.ID, 0); !errors.As(err, &dle) {
		t.Errorf("expected DecisionLimitError, got %v", err)
	}
}

func TestConcurrentAdvanceIsSerialized(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)
	v, _ := m.Start(ctx, "startup-pivot")

	// Option 1 alternates start <-> stay_course, so every advance succeeds
	// until the decision cap.
	var wg sync.WaitGroup
	var mu sync.Mutex
	ok := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.Advance(ctx, v.ID, 1); err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	got, err := m.Get(ctx, v.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Steps != ok || ok != 10 {
		t.Errorf("expected 10 serialized steps, got steps=%d ok=%d", got.Steps, ok)
	}
}

type failingStore struct {
	*storage.MemoryStore
}

func (failingStore) Save(context.Context, storage.Record) error {
	return errors.New("disk full")
}

func TestPersistFailureDoesNotFailTransition(t *testing.T) {
	events.Clear()
	ctx := context.Background()
	m := newTestManager(t, WithStore(failingStore{storage.NewMemoryStore()}))

	v, err := m.Start(ctx, "startup-pivot")
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	v, err = m.Advance(ctx, v.ID, 2)
	if err != nil {
		t.Fatalf("advance failed: %v", err)
	}
	if v.CurrentNode.ID != "pivot" {
		t.Errorf("expected transition to apply, got %s", v.CurrentNode.ID)
	}

	found := false
	for _, e := range events.ForSession(v.ID) {
		if e.Name == events.SystemError {
			found = true
		}
	}
	if !found {
		t.Error("expected system.error for persist failure")
	}
}

// ctxStore fails writes whose context is already done, like a database driver.
type ctxStore struct {
	*storage.MemoryStore
}

func (s ctxStore) Save(ctx context.Context, r storage.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.MemoryStore.Save(ctx, r)
}

func (s ctxStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.MemoryStore.Delete(ctx, id)
}

func TestPersistSurvivesCancelledCaller(t *testing.T) {
	store := ctxStore{storage.NewMemoryStore()}
	m := newTestManager(t, WithStore(store))

	v, err := m.Start(context.Background(), "startup-pivot")
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	v, err = m.Advance(cancelled, v.ID, 2)
	if err != nil {
		t.Fatalf("advance failed: %v", err)
	}
	rec, err := store.Load(context.Background(), v.ID)
	if err != nil {
		t.Fatalf("expected persisted record: %v", err)
	}
	if rec.Snapshot.CurrentNodeID != "pivot" || rec.Snapshot.CumulativeScore != 15 {
		t.Errorf("persisted snapshot is behind the live session: %+v", rec.Snapshot)
	}

	if err := m.Delete(cancelled, v.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := store.Load(context.Background(), v.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected record to be deleted, got %v", err)
	}
}
