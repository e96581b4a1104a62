// Package healthstore defines the platform health-store collaborator the
// SDK reads from, plus two bindings: a file-backed store whose data-change
// observer is driven by fsnotify, and an in-memory fake for tests.
package healthstore

import (
	"context"
	"time"

	"github.com/vitalbridge/vitalbridge/internal/catalog"
	"github.com/vitalbridge/vitalbridge/internal/sample"
)

// Frequency controls how eagerly background delivery fires.
type Frequency int

const (
	// FrequencyImmediate delivers a trigger as soon as new data lands.
	FrequencyImmediate Frequency = iota
	// FrequencyHourly batches triggers to at most one per hour.
	FrequencyHourly
	// FrequencyDaily batches triggers to at most one per day.
	FrequencyDaily
)

// String returns a human-readable representation of the frequency.
func (f Frequency) String() string {
	switch f {
	case FrequencyImmediate:
		return "immediate"
	case FrequencyHourly:
		return "hourly"
	case FrequencyDaily:
		return "daily"
	default:
		return "unknown"
	}
}

// Registration identifies one active observer registration.
type Registration struct {
	ID   string
	Type catalog.PlatformType
}

// Store is the platform health-store capability the SDK consumes. The
// concrete binding (OS bridge, file store, fake) is injected into every
// component that needs it; there is no ambient global.
type Store interface {
	// Available reports whether health data can be read at all on this
	// host.
	Available() bool

	// RequestAuthorization asks the platform for read access to the given
	// sample types. The boolean is the user's decision; an error means the
	// request itself could not be made.
	RequestAuthorization(ctx context.Context, types []catalog.PlatformType) (bool, error)

	// RegisterObserver subscribes to data-change notifications for one
	// platform type. Registration is idempotent per type: registering
	// while already registered returns the existing registration and does
	// not duplicate callback delivery.
	RegisterObserver(typ catalog.PlatformType, onTrigger func()) (Registration, error)

	// Unregister removes an observer registration. Unknown registrations
	// are a no-op.
	Unregister(reg Registration) error

	// Query returns raw samples of one platform type whose start time
	// falls in [start, end). Magnitudes are expressed in the catalog unit
	// of the platform type.
	Query(ctx context.Context, typ catalog.PlatformType, start, end time.Time) ([]sample.Raw, error)

	// EnableBackgroundDelivery asks the platform to keep delivering
	// observer triggers while the host app is backgrounded. Best effort:
	// callers log failures and continue.
	EnableBackgroundDelivery(typ catalog.PlatformType, freq Frequency) error
}
