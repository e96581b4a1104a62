package syncer

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/vitalbridge/vitalbridge/internal/catalog"
	"github.com/vitalbridge/vitalbridge/internal/fetch"
	"github.com/vitalbridge/vitalbridge/internal/healthstore"
	"github.com/vitalbridge/vitalbridge/internal/sample"
	"github.com/vitalbridge/vitalbridge/internal/state"
	"github.com/vitalbridge/vitalbridge/internal/uploader"
	"github.com/vitalbridge/vitalbridge/internal/window"
)

// blockingClient lets a test hold an upload open while probing for
// concurrent sync attempts.
type blockingClient struct {
	mu      sync.Mutex
	calls   int
	err     error
	started chan struct{}
	release chan struct{}
}

func (c *blockingClient) UploadFile(ctx context.Context, path, dataSource string) error {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()

	if c.started != nil {
		close(c.started)
		<-c.release
	}
	return c.err
}

func (c *blockingClient) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func newTestState(t *testing.T) *state.Store {
	t.Helper()

	store, err := state.Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("failed to open state store: %v", err)
	}
	if err := store.InitSchema(); err != nil {
		t.Fatalf("failed to init schema: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func newTestSyncer(t *testing.T, stateStore *state.Store, health *healthstore.FakeStore, client uploader.Client) *Syncer {
	t.Helper()

	up := uploader.New(client, stateStore, "sdk_healthkit", t.TempDir(), quietLogger())
	s, err := New(Config{
		State:    stateStore,
		Fetcher:  fetch.New(health, quietLogger()),
		Uploader: up,
		Policy:   window.Policy{BackfillDays: window.DefaultBackfillDays},
		Keys:     []catalog.Key{catalog.Steps},
		Logger:   quietLogger(),
	})
	if err != nil {
		t.Fatalf("failed to create syncer: %v", err)
	}
	return s
}

func stepSample(start time.Time, value float64) sample.Raw {
	return sample.Raw{
		UUID:      "s-" + start.Format(time.RFC3339Nano),
		Type:      catalog.TypeStepCount,
		Kind:      catalog.KindQuantity,
		Start:     start,
		End:       start.Add(time.Minute),
		Magnitude: value,
	}
}

func TestSyncIgnoredWhenNotConnected(t *testing.T) {
	stateStore := newTestState(t)
	health := healthstore.NewFakeStore()
	health.AddSamples(catalog.TypeStepCount, stepSample(time.Now().Add(-time.Hour), 100))
	client := &blockingClient{}

	s := newTestSyncer(t, stateStore, health, client)
	if err := s.Sync(context.Background()); err != nil {
		t.Fatalf("Sync should be a clean no-op when not connected: %v", err)
	}

	if client.callCount() != 0 {
		t.Errorf("upload calls = %d, want 0", client.callCount())
	}
	if len(health.QueriedTypes) != 0 {
		t.Errorf("queried %d types while disconnected, want 0", len(health.QueriedTypes))
	}
}

func TestSyncUploadsAndMarksSynced(t *testing.T) {
	stateStore := newTestState(t)
	if err := stateStore.MarkConnected("key-1", "user-1"); err != nil {
		t.Fatalf("MarkConnected failed: %v", err)
	}
	health := healthstore.NewFakeStore()
	health.AddSamples(catalog.TypeStepCount, stepSample(time.Now().Add(-time.Hour), 250))
	client := &blockingClient{}

	s := newTestSyncer(t, stateStore, health, client)
	if err := s.Sync(context.Background()); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}

	if client.callCount() != 1 {
		t.Fatalf("upload calls = %d, want 1", client.callCount())
	}
	got, err := stateStore.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.LastSyncedAt == nil {
		t.Fatal("last_synced_at not set after a successful sync")
	}
}

func TestSyncSkipsUploadOnEmptyBatch(t *testing.T) {
	stateStore := newTestState(t)
	if err := stateStore.MarkConnected("key-1", "user-1"); err != nil {
		t.Fatalf("MarkConnected failed: %v", err)
	}
	client := &blockingClient{}

	s := newTestSyncer(t, stateStore, healthstore.NewFakeStore(), client)
	if err := s.Sync(context.Background()); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}

	if client.callCount() != 0 {
		t.Errorf("upload calls = %d for empty batch, want 0", client.callCount())
	}
	got, err := stateStore.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.LastSyncedAt != nil {
		t.Error("last_synced_at must stay unset when nothing was uploaded")
	}
}

func TestSyncFailureKeepsWindowOpen(t *testing.T) {
	stateStore := newTestState(t)
	if err := stateStore.MarkConnected("key-1", "user-1"); err != nil {
		t.Fatalf("MarkConnected failed: %v", err)
	}
	health := healthstore.NewFakeStore()
	health.AddSamples(catalog.TypeStepCount, stepSample(time.Now().Add(-time.Hour), 250))
	client := &blockingClient{err: errors.New("server unreachable")}

	s := newTestSyncer(t, stateStore, health, client)
	if err := s.Sync(context.Background()); err == nil {
		t.Fatal("Sync should surface an upload failure")
	}

	got, err := stateStore.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.LastSyncedAt != nil {
		t.Error("a failed upload must not advance last_synced_at")
	}
}

// TestTrySyncDropsConcurrentTrigger pins the single-flight contract: a
// trigger landing mid-sync is dropped, not queued behind the running one.
func TestTrySyncDropsConcurrentTrigger(t *testing.T) {
	stateStore := newTestState(t)
	if err := stateStore.MarkConnected("key-1", "user-1"); err != nil {
		t.Fatalf("MarkConnected failed: %v", err)
	}
	health := healthstore.NewFakeStore()
	health.AddSamples(catalog.TypeStepCount, stepSample(time.Now().Add(-time.Hour), 250))
	client := &blockingClient{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}

	s := newTestSyncer(t, stateStore, health, client)

	done := make(chan error, 1)
	go func() {
		done <- s.Sync(context.Background())
	}()

	select {
	case <-client.started:
	case <-time.After(5 * time.Second):
		t.Fatal("first sync never reached the upload")
	}

	ran, err := s.TrySync(context.Background())
	if err != nil {
		t.Fatalf("TrySync returned error: %v", err)
	}
	if ran {
		t.Error("TrySync must drop the trigger while a sync is in flight")
	}

	close(client.release)
	if err := <-done; err != nil {
		t.Fatalf("first sync failed: %v", err)
	}
	if client.callCount() != 1 {
		t.Errorf("upload calls = %d, want 1", client.callCount())
	}
}

func TestNewValidatesConfig(t *testing.T) {
	stateStore := newTestState(t)
	up := uploader.New(&blockingClient{}, stateStore, "sdk_healthkit", os.TempDir(), quietLogger())

	_, err := New(Config{
		State:    stateStore,
		Fetcher:  fetch.New(healthstore.NewFakeStore(), quietLogger()),
		Uploader: up,
	})
	if err == nil {
		t.Fatal("New should reject an empty key set")
	}
}
