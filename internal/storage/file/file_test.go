package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AaronLay10/DecisionSim/internal/simulation"
	"github.com/AaronLay10/DecisionSim/internal/storage"
)

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "sessions")
	s, err := Open(dir)
	require.NoError(t, err)

	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	rec := storage.Record{
		SessionID:  "6f1c",
		ScenarioID: "startup-pivot",
		Snapshot: simulation.Snapshot{
			CurrentNodeID:   "pivot",
			CumulativeScore: 15,
			DecisionLog:     []simulation.Decision{{Prompt: "p", Label: "Pivot", Impact: "strategic"}},
		},
		CreatedAt: created,
		UpdatedAt: created,
	}
	require.NoError(t, s.Save(ctx, rec))

	_, err = os.Stat(filepath.Join(dir, "6f1c.json.tmp"))
	assert.True(t, os.IsNotExist(err), "temp file should be renamed away")

	got, err := s.Load(ctx, "6f1c")
	require.NoError(t, err)
	assert.Equal(t, rec.Snapshot, got.Snapshot)
	assert.True(t, created.Equal(got.CreatedAt))

	// A second store over the same directory sees the record.
	reopened, err := Open(dir)
	require.NoError(t, err)
	list, err := reopened.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "startup-pivot", list[0].ScenarioID)

	require.NoError(t, s.Delete(ctx, "6f1c"))
	require.NoError(t, s.Delete(ctx, "6f1c"))
	_, err = s.Load(ctx, "6f1c")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestFileStoreRejectsUnsafeIDs(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	for _, id := range []string{"", "../escape", `a\b`, ".hidden"} {
		assert.Error(t, s.Save(context.Background(), storage.Record{SessionID: id}), "id %q", id)
	}
}

func TestFileStoreCorruptRecord(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{"), 0o644))

	_, err = s.Load(context.Background(), "bad")
	assert.ErrorContains(t, err, "unmarshaling session record")
}
