package skipstore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bencan1a/calendarlite/internal/clock"
)

func TestStore_AddClearIsSkippedRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "skipped.json")
	c := clock.Fixed{At: time.Date(2026, 8, 1, 8, 0, 0, 0, time.UTC)}
	store := New(path, c)
	require.NoError(t, store.Load())

	assert.False(t, store.IsSkipped("meeting-1"))

	expiry, err := store.AddSkip("meeting-1")
	require.NoError(t, err)
	assert.Equal(t, "2026-08-02T08:00:00Z", expiry)
	assert.True(t, store.IsSkipped("meeting-1"))

	count, err := store.ClearAll()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.False(t, store.IsSkipped("meeting-1"))
}

func TestStore_ExpiredEntryIsNotSkipped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "skipped.json")
	c := &movableClock{at: time.Date(2026, 8, 1, 8, 0, 0, 0, time.UTC)}
	store := New(path, c)
	require.NoError(t, store.Load())

	_, err := store.AddSkip("meeting-1")
	require.NoError(t, err)
	assert.True(t, store.IsSkipped("meeting-1"))

	c.at = c.at.Add(25 * time.Hour)
	assert.False(t, store.IsSkipped("meeting-1"))
}

func TestStore_LoadPurgesExpiredEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "skipped.json")
	c := &movableClock{at: time.Date(2026, 8, 1, 8, 0, 0, 0, time.UTC)}

	store := New(path, c)
	require.NoError(t, store.Load())
	_, err := store.AddSkip("stale")
	require.NoError(t, err)

	c.at = c.at.Add(48 * time.Hour)
	reloaded := New(path, c)
	require.NoError(t, reloaded.Load())
	assert.False(t, reloaded.IsSkipped("stale"))
	assert.Empty(t, reloaded.ActiveList())
}

func TestStore_LoadMissingFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.json")
	store := New(path, clock.Real{})
	require.NoError(t, store.Load())
	assert.False(t, store.IsSkipped("anything"))
}

type movableClock struct {
	at time.Time
}

func (m *movableClock) Now() time.Time { return m.at }
