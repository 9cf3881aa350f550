package postgres

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/AaronLay10/DecisionSim/internal/events"
	"github.com/AaronLay10/DecisionSim/internal/simulation"
	"github.com/AaronLay10/DecisionSim/internal/storage"
)

func TestDSNFromEnv(t *testing.T) {
	t.Setenv("PGHOST", "db.internal")
	t.Setenv("PGPORT", "6543")
	t.Setenv("PGUSER", "sim")
	t.Setenv("PGDATABASE", "simdb")
	t.Setenv("PGPASSWORD", "")

	dsn := DSNFromEnv()
	for _, part := range []string{"host=db.internal", "port=6543", "user=sim", "dbname=simdb", "sslmode=disable"} {
		if !strings.Contains(dsn, part) {
			t.Errorf("expected %q in %q", part, dsn)
		}
	}
	if strings.Contains(dsn, "password=") {
		t.Errorf("expected no password in %q", dsn)
	}

	t.Setenv("PGPASSWORD", "secret")
	if !strings.Contains(DSNFromEnv(), "password=secret") {
		t.Error("expected password in DSN")
	}
}

// TestClientRoundTrip runs against a real database when DECISIONSIM_TEST_PG_DSN is set.
func TestClientRoundTrip(t *testing.T) {
	dsn := os.Getenv("DECISIONSIM_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("DECISIONSIM_TEST_PG_DSN not set")
	}

	ctx := context.Background()
	c, err := New(ctx, dsn)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	defer c.Close()

	id := "test-" + time.Now().Format("150405.000000")
	now := time.Now().UTC().Truncate(time.Microsecond)
	rec := storage.Record{
		SessionID:  id,
		ScenarioID: "startup-pivot",
		Snapshot:   simulation.Snapshot{CurrentNodeID: "pivot", CumulativeScore: 15},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := c.Save(ctx, rec); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	defer c.Delete(ctx, id)

	got, err := c.Load(ctx, id)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if got.Snapshot.CurrentNodeID != "pivot" || got.Snapshot.CumulativeScore != 15 {
		t.Errorf("unexpected snapshot %+v", got.Snapshot)
	}

	if err := c.AppendEvent(events.Event{Timestamp: now, Level: "info", Name: events.SessionStarted, SessionID: id}); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	evs, err := c.QueryEvents(ctx, 10)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(evs) == 0 {
		t.Error("expected at least one event")
	}
}
