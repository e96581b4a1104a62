// Package syncer drives one logical sync operation: gate on the persisted
// connected flag, compute the query window, fan out the fetch, and upload
// the resulting batch.
//
// Sync operations are serialized: persisted sync-state mutations happen
// under a single in-flight sync, so a fast retry can never race a slow
// upload into a lost update. A trigger arriving while a sync is in flight
// is dropped, not queued.
package syncer

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/vitalbridge/vitalbridge/internal/catalog"
	"github.com/vitalbridge/vitalbridge/internal/fetch"
	"github.com/vitalbridge/vitalbridge/internal/state"
	"github.com/vitalbridge/vitalbridge/internal/uploader"
	"github.com/vitalbridge/vitalbridge/internal/window"
)

// Syncer runs sync operations against a fixed set of data types.
type Syncer struct {
	state    *state.Store
	fetcher  *fetch.Fetcher
	uploader *uploader.Uploader
	policy   window.Policy
	keys     []catalog.Key
	logger   *log.Logger

	mu sync.Mutex
}

// Config holds the syncer's collaborators.
type Config struct {
	State    *state.Store
	Fetcher  *fetch.Fetcher
	Uploader *uploader.Uploader
	Policy   window.Policy
	// Keys are the data types fetched on every sync.
	Keys []catalog.Key
	// Logger for sync activity. If nil, a default logger writing to
	// stderr is used.
	Logger *log.Logger
}

// New creates a Syncer from cfg.
func New(cfg Config) (*Syncer, error) {
	if cfg.State == nil {
		return nil, fmt.Errorf("state store cannot be nil")
	}
	if cfg.Fetcher == nil {
		return nil, fmt.Errorf("fetcher cannot be nil")
	}
	if cfg.Uploader == nil {
		return nil, fmt.Errorf("uploader cannot be nil")
	}
	if len(cfg.Keys) == 0 {
		return nil, fmt.Errorf("at least one data type key is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "[syncer] ", log.LstdFlags)
	}

	return &Syncer{
		state:    cfg.State,
		fetcher:  cfg.Fetcher,
		uploader: cfg.Uploader,
		policy:   cfg.Policy,
		keys:     cfg.Keys,
		logger:   logger,
	}, nil
}

// Sync runs one sync operation, blocking until any in-flight sync
// finishes first.
func (s *Syncer) Sync(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sync(ctx)
}

// TrySync runs one sync operation unless another is already in flight, in
// which case the trigger is dropped and (false, nil) is returned.
func (s *Syncer) TrySync(ctx context.Context) (bool, error) {
	if !s.mu.TryLock() {
		s.logger.Println("Sync already in flight, dropping trigger")
		return false, nil
	}
	defer s.mu.Unlock()
	return true, s.sync(ctx)
}

func (s *Syncer) sync(ctx context.Context) error {
	current, err := s.state.Load()
	if err != nil {
		return fmt.Errorf("failed to load sync state: %w", err)
	}

	// Stale observer registrations can outlive a disconnect; their
	// triggers are acknowledged and ignored.
	if !current.Connected {
		s.logger.Println("Not connected, ignoring sync trigger")
		return nil
	}

	win := s.policy.Compute(current.LastSyncedAt, time.Now())
	s.logger.Printf("Syncing %d data types over [%s, %s)",
		len(s.keys), win.Start.Format(time.RFC3339), win.End.Format(time.RFC3339))

	batch := s.fetcher.Fetch(ctx, s.keys, win)
	if len(batch) == 0 {
		s.logger.Println("No new samples, skipping upload")
		return nil
	}

	if err := s.uploader.Upload(ctx, batch); err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	s.logger.Printf("Sync complete: %d samples across %d types", batch.Total(), len(batch))
	return nil
}
