package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStoreSaveAndRead(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Save("film-1/recap.csv", []byte("member,score\n")))
	data, err := store.Read("film-1/recap.csv")
	require.NoError(t, err)
	assert.Equal(t, "member,score\n", string(data))
}

func TestLocalStoreRefusesEscapingNames(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{
		"/etc/passwd",
		"../outside.csv",
		"../../outside.csv",
		"film-1/../../outside.csv",
	} {
		require.Error(t, store.Save(name, []byte("x")), name)
		_, err := store.Read(name)
		require.Error(t, err, name)
	}

	// Dot segments that stay inside the store are fine.
	require.NoError(t, store.Save("film-1/../film-2/recap.csv", []byte("ok")))
	data, err := store.Read("film-2/recap.csv")
	require.NoError(t, err)
	assert.Equal(t, "ok", string(data))
}

func TestCleanupOlderThanRemovesStaleFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Save("film-1/recap.csv", []byte("old")))
	require.NoError(t, store.Save("film-2/recap.csv", []byte("fresh")))

	stale := filepath.Join(dir, "film-1", "recap.csv")
	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(stale, past, past))

	deleted, err := store.CleanupOlderThan(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join("film-1", "recap.csv")}, deleted)

	_, err = store.Read("film-2/recap.csv")
	assert.NoError(t, err)
	_, err = store.Read("film-1/recap.csv")
	assert.Error(t, err)
}
