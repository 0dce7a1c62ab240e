package status

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileRepository_LoadMissing(t *testing.T) {
	repo := NewFileRepository(t.TempDir())

	snap, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, snap.IsEmpty())
}

func TestFileRepository_SaveLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	repo := NewFileRepository(dir)
	saved := Snapshot{
		Script:     "scenes/intro.toml",
		Scene:      "intro",
		State:      "hall",
		Finished:   true,
		Ticks:      5,
		Elapsed:    2500 * time.Millisecond,
		Vars:       map[string]string{"door": "open"},
		Transcript: []string{"Knock knock.", "Come in."},
		SavedAt:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	require.NoError(t, repo.Save(context.Background(), saved))
	assert.Equal(t, filepath.Join(dir, FileName), repo.Path())
	_, err := os.Stat(repo.Path() + ".tmp")
	assert.True(t, os.IsNotExist(err))

	got, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, saved, got)
	assert.False(t, got.IsEmpty())
}

func TestFileRepository_Corrupt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("{"), 0o600))

	_, err := NewFileRepository(dir).Load(context.Background())
	assert.Error(t, err)
}

func TestFileRepository_SaveCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewFileRepository(t.TempDir()).Save(ctx, Snapshot{Script: "x"})
	assert.ErrorIs(t, err, context.Canceled)
}
