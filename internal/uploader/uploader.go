// Package uploader serializes a batch to a scratch file, uploads it, and
// records the successful sync. A failed upload mutates nothing, so the next
// sync recomputes its window from the last success and retries the same
// range.
package uploader

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/vitalbridge/vitalbridge/internal/fetch"
)

// Client is the slice of the server API the uploader needs.
type Client interface {
	UploadFile(ctx context.Context, path, dataSource string) error
}

// StateStore is the slice of the state store the uploader needs.
type StateStore interface {
	MarkSyncedNow() error
}

// Uploader coordinates batch serialization, upload, and sync-state update.
type Uploader struct {
	client     Client
	state      StateStore
	dataSource string
	scratchDir string
	logger     *log.Logger
}

// New creates an Uploader. scratchDir is where temporary upload files are
// written; empty means the OS temp dir. If logger is nil, a default logger
// writing to stderr is used.
func New(client Client, state StateStore, dataSource, scratchDir string, logger *log.Logger) *Uploader {
	if logger == nil {
		logger = log.New(os.Stderr, "[uploader] ", log.LstdFlags)
	}
	return &Uploader{
		client:     client,
		state:      state,
		dataSource: dataSource,
		scratchDir: scratchDir,
		logger:     logger,
	}
}

// Upload ships one batch to the server. The scratch file is removed on
// every exit path, success or failure. The last-synced timestamp is
// updated only after the server confirms the upload; a failure of that
// final persist is returned as an error so the inconsistency is visible,
// even though the data itself landed.
func (u *Uploader) Upload(ctx context.Context, batch fetch.Batch) error {
	path, err := u.writeScratchFile(batch)
	if err != nil {
		return err
	}
	defer func() {
		if err := os.Remove(path); err != nil {
			u.logger.Printf("WARNING: failed to remove scratch file %s: %v", path, err)
		}
	}()

	if err := u.client.UploadFile(ctx, path, u.dataSource); err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}

	u.logger.Printf("Uploaded batch: %d keys, %d samples", len(batch), batch.Total())

	if err := u.state.MarkSyncedNow(); err != nil {
		return fmt.Errorf("upload succeeded but sync state update failed: %w", err)
	}
	return nil
}

// writeScratchFile marshals the batch into a temp JSON file.
func (u *Uploader) writeScratchFile(batch fetch.Batch) (string, error) {
	data, err := json.Marshal(batch)
	if err != nil {
		return "", fmt.Errorf("failed to marshal batch: %w", err)
	}

	f, err := os.CreateTemp(u.scratchDir, "healthdata-*.json")
	if err != nil {
		return "", fmt.Errorf("failed to create scratch file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write scratch file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to close scratch file: %w", err)
	}
	return f.Name(), nil
}
