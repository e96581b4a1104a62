// Package fetch assembles one atomic batch of normalized samples across
// multiple data types from a single fetch operation.
package fetch

import (
	"context"
	"log"
	"os"
	"sync"

	"github.com/vitalbridge/vitalbridge/internal/catalog"
	"github.com/vitalbridge/vitalbridge/internal/healthstore"
	"github.com/vitalbridge/vitalbridge/internal/sample"
	"github.com/vitalbridge/vitalbridge/internal/window"
)

// Batch maps the lowercase data-type key to its normalized samples. A key
// is present only when its sample slice is non-empty.
type Batch map[string][]sample.Normalized

// Total returns the number of samples across all keys.
func (b Batch) Total() int {
	n := 0
	for _, samples := range b {
		n += len(samples)
	}
	return n
}

// Fetcher issues one range query per requested data type and merges the
// normalized results into a batch.
type Fetcher struct {
	store  healthstore.Store
	logger *log.Logger
}

// New creates a Fetcher reading from store. If logger is nil, a default
// logger writing to stderr is used.
func New(store healthstore.Store, logger *log.Logger) *Fetcher {
	if logger == nil {
		logger = log.New(os.Stderr, "[fetch] ", log.LstdFlags)
	}
	return &Fetcher{store: store, logger: logger}
}

// Fetch queries every key concurrently over the same window and joins the
// results into one batch. Latency is bounded by the slowest single query
// rather than the sum.
//
// Failure semantics: a type whose query fails is treated as empty and the
// rest of the batch proceeds; partial data beats no data. All branches
// settle before the batch is returned.
func (f *Fetcher) Fetch(ctx context.Context, keys []catalog.Key, win window.Window) Batch {
	results := make([][]sample.Normalized, len(keys))

	var wg sync.WaitGroup
	for i, key := range keys {
		wg.Add(1)
		go func(i int, key catalog.Key) {
			defer wg.Done()
			results[i] = f.fetchOne(ctx, key, win)
		}(i, key)
	}
	wg.Wait()

	batch := make(Batch)
	for i, key := range keys {
		if len(results[i]) == 0 {
			continue
		}
		batch[key.BatchKey()] = results[i]
	}
	return batch
}

// fetchOne runs the range query for one key and normalizes its results.
func (f *Fetcher) fetchOne(ctx context.Context, key catalog.Key, win window.Window) []sample.Normalized {
	entry, err := catalog.Lookup(key)
	if err != nil {
		f.logger.Printf("WARNING: skipping unknown data type %s", key)
		return nil
	}

	raws, err := f.store.Query(ctx, entry.PlatformType, win.Start, win.End)
	if err != nil {
		f.logger.Printf("WARNING: query for %s failed, treating as empty: %v", key, err)
		return nil
	}

	normalized := sample.NormalizeAll(raws, key)
	if dropped := len(raws) - len(normalized); dropped > 0 {
		f.logger.Printf("Dropped %d of %d raw samples for %s", dropped, len(raws), key)
	}
	return normalized
}
