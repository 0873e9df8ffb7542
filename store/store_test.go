package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brensch/snekworld/game"
	"github.com/brensch/snekworld/rules"
)

func recordGame(t *testing.T, gameID string, seed int64) *Recorder {
	t.Helper()
	w, err := game.New(5, 12, game.WithSeed(seed))
	require.NoError(t, err)

	rec := NewRecorder(gameID)
	rec.Record(w)
	require.NoError(t, w.StartGame())
	rec.Record(w)
	_, err = rules.Play(w, 50, rec.Record)
	require.NoError(t, err)
	return rec
}

func TestRecorder_WriteAndReadBack(t *testing.T) {
	dir := t.TempDir()
	rec := recordGame(t, "game-1", 7)
	want := append([]TurnRow(nil), rec.Rows()...)
	require.GreaterOrEqual(t, len(want), 3)
	assert.Equal(t, "none", want[0].Status)
	assert.Equal(t, "played", want[1].Status)
	assert.Equal(t, int32(-1), want[0].Reward)

	path, err := rec.Flush(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "game-1.parquet"), path)
	assert.Zero(t, rec.Len())

	entries, err := os.ReadDir(filepath.Join(dir, "tmp"))
	require.NoError(t, err)
	assert.Empty(t, entries, "tmp file should have been renamed")

	got, err := ReadParquet(path)
	require.NoError(t, err)
	require.Len(t, got, len(want))
	assert.Equal(t, want[len(want)-1], got[len(got)-1])

	snap, err := got[len(got)-1].Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 5, snap.Width)
	assert.Equal(t, int(want[len(want)-1].Body[0]), snap.Head())
	assert.Equal(t, snap.Status.Text(), snap.StatusText)
}

func TestWriteGameParquet_Rejects(t *testing.T) {
	_, err := WriteGameParquet(t.TempDir(), "", []TurnRow{{GameID: "x"}})
	assert.Error(t, err)
	_, err = WriteGameParquet(t.TempDir(), "x", nil)
	assert.Error(t, err)
}

func TestIndex_BatchLookupAndReopen(t *testing.T) {
	dir := t.TempDir()
	a := recordGame(t, "a", 1)
	b := recordGame(t, "b", 2)
	rows := append(append([]TurnRow(nil), a.Rows()...), b.Rows()...)

	path, err := WriteBatchParquet(dir, rows)
	require.NoError(t, err)

	indexPath := filepath.Join(dir, "index", "games.log")
	idx, err := OpenIndex(indexPath)
	require.NoError(t, err)
	require.NoError(t, idx.AddMany([]string{"a", "b", ""}, path))
	assert.Equal(t, 2, idx.Count())

	gotB, err := idx.Load("b")
	require.NoError(t, err)
	assert.Len(t, gotB, b.Len())
	for _, r := range gotB {
		assert.Equal(t, "b", r.GameID)
	}

	_, err = idx.Load("missing")
	assert.ErrorIs(t, err, os.ErrNotExist)
	require.NoError(t, idx.Close())

	// Partial trailing line from a crash is ignored.
	f, err := os.OpenFile(indexPath, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, _ = f.WriteString("c")
	require.NoError(t, f.Close())

	reopened, err := OpenIndex(indexPath)
	require.NoError(t, err)
	defer reopened.Close()
	assert.Equal(t, 2, reopened.Count())
	p, ok := reopened.Lookup("a")
	assert.True(t, ok)
	assert.Equal(t, path, p)
}
