package healthstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vitalbridge/vitalbridge/internal/catalog"
	"github.com/vitalbridge/vitalbridge/internal/sample"
)

// FakeStore is an in-memory Store for tests. Samples are served per
// platform type, authorization outcome and per-type query errors are
// controllable, and observer triggers can be fired manually.
type FakeStore struct {
	mu sync.Mutex

	// AuthGranted is the answer RequestAuthorization returns. Defaults to
	// granted.
	AuthGranted bool
	// AuthErr, when set, fails RequestAuthorization itself.
	AuthErr error
	// Unavailable makes Available report false.
	Unavailable bool

	samples   map[catalog.PlatformType][]sample.Raw
	queryErrs map[catalog.PlatformType]error
	observers map[catalog.PlatformType]*observer

	// QueriedTypes records every Query call in order.
	QueriedTypes []catalog.PlatformType
	// AuthRequests records the type sets passed to RequestAuthorization.
	AuthRequests [][]catalog.PlatformType
}

// NewFakeStore returns an empty fake with authorization granted.
func NewFakeStore() *FakeStore {
	return &FakeStore{
		AuthGranted: true,
		samples:     make(map[catalog.PlatformType][]sample.Raw),
		queryErrs:   make(map[catalog.PlatformType]error),
		observers:   make(map[catalog.PlatformType]*observer),
	}
}

// AddSamples appends raw samples served for one platform type.
func (f *FakeStore) AddSamples(typ catalog.PlatformType, raws ...sample.Raw) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.samples[typ] = append(f.samples[typ], raws...)
}

// FailQueries makes Query return err for one platform type.
func (f *FakeStore) FailQueries(typ catalog.PlatformType, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queryErrs[typ] = err
}

// Available implements Store.Available.
func (f *FakeStore) Available() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.Unavailable
}

// RequestAuthorization implements Store.RequestAuthorization.
func (f *FakeStore) RequestAuthorization(ctx context.Context, types []catalog.PlatformType) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.AuthRequests = append(f.AuthRequests, types)
	if f.AuthErr != nil {
		return false, f.AuthErr
	}
	return f.AuthGranted, nil
}

// RegisterObserver implements Store.RegisterObserver with the same
// idempotence contract as the real bindings.
func (f *FakeStore) RegisterObserver(typ catalog.PlatformType, onTrigger func()) (Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if existing, ok := f.observers[typ]; ok {
		return existing.reg, nil
	}
	reg := Registration{ID: uuid.NewString(), Type: typ}
	f.observers[typ] = &observer{reg: reg, onTrigger: onTrigger}
	return reg, nil
}

// Unregister implements Store.Unregister.
func (f *FakeStore) Unregister(reg Registration) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	existing, ok := f.observers[reg.Type]
	if ok && existing.reg.ID == reg.ID {
		delete(f.observers, reg.Type)
	}
	return nil
}

// Query implements Store.Query, filtering stored samples to [start, end).
func (f *FakeStore) Query(ctx context.Context, typ catalog.PlatformType, start, end time.Time) ([]sample.Raw, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.QueriedTypes = append(f.QueriedTypes, typ)
	if err := f.queryErrs[typ]; err != nil {
		return nil, err
	}

	var out []sample.Raw
	for _, raw := range f.samples[typ] {
		if raw.Start.Before(start) || !raw.Start.Before(end) {
			continue
		}
		out = append(out, raw)
	}
	return out, nil
}

// EnableBackgroundDelivery implements Store.EnableBackgroundDelivery.
func (f *FakeStore) EnableBackgroundDelivery(typ catalog.PlatformType, freq Frequency) error {
	return nil
}

// Trigger fires the observer registered for typ, simulating a platform
// data-change notification. Returns an error if no observer is registered.
func (f *FakeStore) Trigger(typ catalog.PlatformType) error {
	f.mu.Lock()
	obs, ok := f.observers[typ]
	f.mu.Unlock()

	if !ok {
		return fmt.Errorf("no observer registered for %s", typ)
	}
	obs.onTrigger()
	return nil
}

// ObserverCount returns the number of active registrations.
func (f *FakeStore) ObserverCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.observers)
}
