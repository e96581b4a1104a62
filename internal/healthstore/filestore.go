package healthstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/vitalbridge/vitalbridge/internal/catalog"
	"github.com/vitalbridge/vitalbridge/internal/sample"
)

// Record is the on-disk JSON shape of one sample in a FileStore directory.
// Exactly one of the payload groups is meaningful depending on Kind.
type Record struct {
	UUID       string    `json:"uuid"`
	Type       string    `json:"type"`
	Kind       string    `json:"kind"` // quantity, category, workout
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	SourceID   string    `json:"source_id,omitempty"`
	SourceName string    `json:"source_name,omitempty"`

	Value          float64  `json:"value,omitempty"`
	Code           int      `json:"code,omitempty"`
	Activity       int      `json:"activity,omitempty"`
	EnergyKcal     *float64 `json:"energy_kcal,omitempty"`
	DistanceMeters *float64 `json:"distance_meters,omitempty"`
}

// FileStore is a health-store binding backed by a directory of sample JSON
// files. New files dropped into the directory produce data-change
// notifications for observers registered on the matching platform type, so
// the full observer → sync pipeline can run against local data.
type FileStore struct {
	dir    string
	logger *log.Logger

	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	watching bool
	done     chan struct{}
	// stopped is closed by the event goroutine on exit. Each watcher
	// generation gets a fresh channel, so a registration racing into a
	// shutdown wait starts an independent generation.
	stopped   chan struct{}
	observers map[catalog.PlatformType]*observer
}

type observer struct {
	reg       Registration
	onTrigger func()
}

// NewFileStore creates a file-backed store over dir. The directory is
// created if missing. If logger is nil, a default logger writing to stderr
// is used.
func NewFileStore(dir string, logger *log.Logger) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("dir cannot be empty")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create samples directory: %w", err)
	}
	if logger == nil {
		logger = log.New(os.Stderr, "[healthstore] ", log.LstdFlags)
	}

	return &FileStore{
		dir:       dir,
		logger:    logger,
		observers: make(map[catalog.PlatformType]*observer),
	}, nil
}

// Available implements Store.Available.
func (fs *FileStore) Available() bool {
	info, err := os.Stat(fs.dir)
	return err == nil && info.IsDir()
}

// RequestAuthorization implements Store.RequestAuthorization. A local file
// store has no permission prompt; access is granted as long as the
// directory is readable.
func (fs *FileStore) RequestAuthorization(ctx context.Context, types []catalog.PlatformType) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return fs.Available(), nil
}

// RegisterObserver implements Store.RegisterObserver. The first
// registration starts the directory watcher; re-registering a type that is
// already observed returns the existing registration unchanged.
func (fs *FileStore) RegisterObserver(typ catalog.PlatformType, onTrigger func()) (Registration, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if existing, ok := fs.observers[typ]; ok {
		return existing.reg, nil
	}

	if !fs.watching {
		if err := fs.startWatcherLocked(); err != nil {
			return Registration{}, err
		}
	}

	reg := Registration{ID: uuid.NewString(), Type: typ}
	fs.observers[typ] = &observer{reg: reg, onTrigger: onTrigger}
	fs.logger.Printf("Registered observer for %s (%s)", typ, reg.ID)
	return reg, nil
}

// Unregister implements Store.Unregister. The watcher is stopped when the
// last observer goes away.
func (fs *FileStore) Unregister(reg Registration) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	existing, ok := fs.observers[reg.Type]
	if !ok || existing.reg.ID != reg.ID {
		return nil
	}

	delete(fs.observers, reg.Type)
	fs.logger.Printf("Unregistered observer for %s", reg.Type)

	if len(fs.observers) == 0 && fs.watching {
		fs.stopWatcherLocked()
	}
	return nil
}

// EnableBackgroundDelivery implements Store.EnableBackgroundDelivery. The
// file watcher always delivers immediately, so this only records intent.
func (fs *FileStore) EnableBackgroundDelivery(typ catalog.PlatformType, freq Frequency) error {
	fs.logger.Printf("Background delivery for %s: %s (file store delivers immediately)", typ, freq)
	return nil
}

// Query implements Store.Query. It scans every sample file in the
// directory, keeping records of the requested platform type whose start
// falls in [start, end). Unreadable or malformed files are logged and
// skipped.
func (fs *FileStore) Query(ctx context.Context, typ catalog.PlatformType, start, end time.Time) ([]sample.Raw, error) {
	entries, err := os.ReadDir(fs.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read samples directory: %w", err)
	}

	var raws []sample.Raw
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		path := filepath.Join(fs.dir, entry.Name())
		rec, err := ReadRecord(path)
		if err != nil {
			fs.logger.Printf("WARNING: skipping unreadable sample %s: %v", entry.Name(), err)
			continue
		}

		raw, err := rec.toRaw()
		if err != nil {
			fs.logger.Printf("WARNING: skipping malformed sample %s: %v", entry.Name(), err)
			continue
		}

		if raw.Type != typ {
			continue
		}
		if raw.Start.Before(start) || !raw.Start.Before(end) {
			continue
		}
		raws = append(raws, raw)
	}

	return raws, nil
}

// Close stops the watcher and releases resources. Registered observers are
// discarded.
func (fs *FileStore) Close() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	fs.observers = make(map[catalog.PlatformType]*observer)
	if fs.watching {
		fs.stopWatcherLocked()
	}
	return nil
}

// startWatcherLocked starts the fsnotify watcher. Caller holds fs.mu.
func (fs *FileStore) startWatcherLocked() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := watcher.Add(fs.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch samples directory %s: %w", fs.dir, err)
	}

	fs.watcher = watcher
	fs.done = make(chan struct{})
	fs.stopped = make(chan struct{})
	fs.watching = true
	go fs.processEvents(watcher, fs.done, fs.stopped)

	return nil
}

// stopWatcherLocked shuts the watcher down and waits for its event
// goroutine to exit. Caller holds fs.mu; the lock is dropped during the
// wait because the goroutine takes it to dispatch triggers.
func (fs *FileStore) stopWatcherLocked() {
	stopped := fs.stopped
	close(fs.done)
	if err := fs.watcher.Close(); err != nil {
		fs.logger.Printf("Error closing watcher: %v", err)
	}
	fs.watching = false
	fs.watcher = nil
	fs.stopped = nil

	fs.mu.Unlock()
	<-stopped
	fs.mu.Lock()
}

// processEvents converts file events on sample files into observer
// triggers for the matching platform type.
func (fs *FileStore) processEvents(watcher *fsnotify.Watcher, done, stopped chan struct{}) {
	defer close(stopped)

	for {
		select {
		case <-done:
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if filepath.Ext(event.Name) != ".json" {
				continue
			}
			fs.dispatch(event.Name)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			fs.logger.Printf("Watcher error: %v", err)
		}
	}
}

// dispatch reads the changed file and fires the observer registered for
// its platform type, if any.
func (fs *FileStore) dispatch(path string) {
	rec, err := ReadRecord(path)
	if err != nil {
		// Create events often race the writer; the Write event retries.
		return
	}

	fs.mu.Lock()
	obs, ok := fs.observers[catalog.PlatformType(rec.Type)]
	fs.mu.Unlock()

	if !ok {
		return
	}

	fs.logger.Printf("Data change: %s (%s)", rec.Type, filepath.Base(path))
	obs.onTrigger()
}

// toRaw converts an on-disk record into the sample variant.
func (r Record) toRaw() (sample.Raw, error) {
	raw := sample.Raw{
		UUID:       r.UUID,
		Type:       catalog.PlatformType(r.Type),
		Start:      r.Start,
		End:        r.End,
		SourceID:   r.SourceID,
		SourceName: r.SourceName,
	}

	switch r.Kind {
	case "quantity":
		raw.Kind = catalog.KindQuantity
		raw.Magnitude = r.Value
	case "category":
		raw.Kind = catalog.KindCategory
		raw.CategoryCode = r.Code
	case "workout":
		raw.Kind = catalog.KindWorkout
		raw.ActivityCode = r.Activity
		raw.TotalEnergyKcal = r.EnergyKcal
		raw.TotalDistanceMeters = r.DistanceMeters
	default:
		return sample.Raw{}, fmt.Errorf("unknown sample kind: %q", r.Kind)
	}

	if raw.UUID == "" {
		return sample.Raw{}, fmt.Errorf("sample has no uuid")
	}
	return raw, nil
}

// ReadRecord reads and parses one sample file.
func ReadRecord(path string) (Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Record{}, fmt.Errorf("failed to read sample file: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("failed to parse sample file: %w", err)
	}
	return rec, nil
}

// WriteRecord writes one sample file into dir, named by the record UUID.
// Used by tooling and tests to seed a FileStore.
func WriteRecord(dir string, rec Record) (string, error) {
	if rec.UUID == "" {
		rec.UUID = uuid.NewString()
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal sample: %w", err)
	}
	path := filepath.Join(dir, rec.UUID+".json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write sample file: %w", err)
	}
	return path, nil
}
