package state

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	require.NoError(t, store.InitSchema())
	t.Cleanup(func() { store.Close() })
	return store
}

func TestLoadFreshStore(t *testing.T) {
	store := newTestStore(t)

	state, err := store.Load()
	require.NoError(t, err)

	assert.Empty(t, state.APIKey)
	assert.Empty(t, state.UserUUID)
	assert.False(t, state.Connected)
	assert.Nil(t, state.LastSyncedAt)
}

func TestMarkConnected(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.MarkConnected("key-1", "user-1"))

	state, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "key-1", state.APIKey)
	assert.Equal(t, "user-1", state.UserUUID)
	assert.True(t, state.Connected)
}

func TestMarkDisconnectedPreservesSyncHistory(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.MarkConnected("key-1", "user-1"))
	require.NoError(t, store.MarkSyncedNow())
	require.NoError(t, store.MarkDisconnected())

	state, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, state.APIKey)
	assert.Empty(t, state.UserUUID)
	assert.False(t, state.Connected)
	assert.NotNil(t, state.LastSyncedAt, "disconnect must preserve last_synced_at")
}

func TestMarkSyncedNowPreservesCredentials(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.MarkConnected("key-1", "user-1"))
	before := time.Now().UTC().Add(-time.Second)
	require.NoError(t, store.MarkSyncedNow())

	state, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, state.LastSyncedAt)
	assert.True(t, state.LastSyncedAt.After(before))
	assert.Equal(t, "key-1", state.APIKey)
	assert.True(t, state.Connected)
}

func TestPersistFullOverwrite(t *testing.T) {
	store := newTestStore(t)

	synced := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)
	want := State{
		APIKey:       "key-2",
		UserUUID:     "user-2",
		DeviceID:     "device-2",
		Connected:    true,
		LastSyncedAt: &synced,
	}
	require.NoError(t, store.Persist(want))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, want.APIKey, got.APIKey)
	assert.Equal(t, want.UserUUID, got.UserUUID)
	assert.Equal(t, want.DeviceID, got.DeviceID)
	assert.True(t, got.Connected)
	require.NotNil(t, got.LastSyncedAt)
	assert.True(t, got.LastSyncedAt.Equal(synced))
}

func TestDeviceIDStable(t *testing.T) {
	store := newTestStore(t)

	id1, err := store.DeviceID()
	require.NoError(t, err)
	require.NotEmpty(t, id1)

	id2, err := store.DeviceID()
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	// Connection churn must not rotate the device identity.
	require.NoError(t, store.MarkConnected("key", "user"))
	require.NoError(t, store.MarkDisconnected())
	id3, err := store.DeviceID()
	require.NoError(t, err)
	assert.Equal(t, id1, id3)
}

// TestDurableAcrossReopen verifies state survives a process restart.
func TestDurableAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")

	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.InitSchema())
	require.NoError(t, store.MarkConnected("key-1", "user-1"))
	require.NoError(t, store.MarkSyncedNow())
	require.NoError(t, store.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()
	require.NoError(t, reopened.InitSchema())

	state, err := reopened.Load()
	require.NoError(t, err)
	assert.True(t, state.Connected)
	assert.Equal(t, "key-1", state.APIKey)
	assert.NotNil(t, state.LastSyncedAt)
}
