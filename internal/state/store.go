// Package state persists the SDK's connection and sync state: server
// credentials, the connected flag, a stable device identifier, and the
// timestamp of the last successful upload.
//
// The store is the injected replacement for what mobile SDKs keep in a
// keychain singleton: a single durable record, mutated atomically via
// read-modify-write so concurrent fields are never clobbered. All
// mutations are serialized by one mutex; persistence failures are always
// returned, never swallowed.
package state

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// State is the persisted sync-state record. The zero value is the state of
// a fresh install: no credentials, not connected, never synced.
type State struct {
	APIKey       string
	UserUUID     string
	DeviceID     string
	Connected    bool
	LastSyncedAt *time.Time
}

// Store is the durable single-record state store over embedded sqlite.
type Store struct {
	conn *sql.DB
	path string
	mu   sync.Mutex
}

// Open creates a state store at the given database path. The parent
// directory is created if missing. The caller must call Close when done.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping state database: %w", err)
	}

	store := &Store{conn: conn, path: path}

	// WAL keeps a reader (status command) from blocking the daemon's
	// writes.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return store, nil
}

// InitSchema creates the sync_state table if it doesn't exist.
func (s *Store) InitSchema() error {
	const schema = `
CREATE TABLE IF NOT EXISTS sync_state (
	id             INTEGER PRIMARY KEY CHECK (id = 1),
	api_key        TEXT NOT NULL DEFAULT '',
	user_uuid      TEXT NOT NULL DEFAULT '',
	device_id      TEXT NOT NULL DEFAULT '',
	connected      INTEGER NOT NULL DEFAULT 0,
	last_synced_at TEXT
)`
	if _, err := s.conn.Exec(schema); err != nil {
		return fmt.Errorf("failed to create sync_state schema: %w", err)
	}
	return nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("failed to close state database: %w", err)
	}
	return nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Load returns the persisted state, or the zero state when none has been
// written yet.
func (s *Store) Load() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

// Persist overwrites the full persisted record in one statement.
func (s *Store) Persist(state State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked(state)
}

// MarkConnected stores server credentials and sets the connected flag,
// preserving the rest of the record.
func (s *Store) MarkConnected(apiKey, userUUID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.loadLocked()
	if err != nil {
		return err
	}
	state.APIKey = apiKey
	state.UserUUID = userUUID
	state.Connected = true
	return s.persistLocked(state)
}

// MarkDisconnected clears credentials and the connected flag. The last
// successful sync timestamp is preserved so a reconnect resumes
// incrementally instead of re-running the full backfill.
func (s *Store) MarkDisconnected() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.loadLocked()
	if err != nil {
		return err
	}
	state.APIKey = ""
	state.UserUUID = ""
	state.Connected = false
	return s.persistLocked(state)
}

// MarkSyncedNow records the current instant as the last successful upload,
// preserving other fields. Called only after the server confirms an
// upload.
func (s *Store) MarkSyncedNow() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.loadLocked()
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	state.LastSyncedAt = &now
	return s.persistLocked(state)
}

// DeviceID returns the stable device identifier, generating and persisting
// one on first use.
func (s *Store) DeviceID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.loadLocked()
	if err != nil {
		return "", err
	}
	if state.DeviceID != "" {
		return state.DeviceID, nil
	}

	state.DeviceID = uuid.NewString()
	if err := s.persistLocked(state); err != nil {
		return "", err
	}
	return state.DeviceID, nil
}

func (s *Store) loadLocked() (State, error) {
	row := s.conn.QueryRow(
		"SELECT api_key, user_uuid, device_id, connected, last_synced_at FROM sync_state WHERE id = 1")

	var state State
	var lastSynced sql.NullString
	err := row.Scan(&state.APIKey, &state.UserUUID, &state.DeviceID, &state.Connected, &lastSynced)
	if err == sql.ErrNoRows {
		return State{}, nil
	}
	if err != nil {
		return State{}, fmt.Errorf("failed to load sync state: %w", err)
	}

	if lastSynced.Valid {
		t, err := time.Parse(time.RFC3339Nano, lastSynced.String)
		if err != nil {
			return State{}, fmt.Errorf("failed to parse last_synced_at: %w", err)
		}
		state.LastSyncedAt = &t
	}
	return state, nil
}

func (s *Store) persistLocked(state State) error {
	var lastSynced any
	if state.LastSyncedAt != nil {
		lastSynced = state.LastSyncedAt.UTC().Format(time.RFC3339Nano)
	}

	_, err := s.conn.Exec(`
INSERT INTO sync_state (id, api_key, user_uuid, device_id, connected, last_synced_at)
VALUES (1, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	api_key = excluded.api_key,
	user_uuid = excluded.user_uuid,
	device_id = excluded.device_id,
	connected = excluded.connected,
	last_synced_at = excluded.last_synced_at`,
		state.APIKey, state.UserUUID, state.DeviceID, state.Connected, lastSynced)
	if err != nil {
		return fmt.Errorf("failed to persist sync state: %w", err)
	}
	return nil
}
