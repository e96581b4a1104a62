// Package sample defines the raw platform sample variant and the normalizer
// that converts raw samples into the canonical upload record.
package sample

import (
	"time"

	"github.com/vitalbridge/vitalbridge/internal/catalog"
)

// Raw is one platform-native sample, expressed as a tagged variant: Kind
// selects which payload fields are meaningful. The health-store binding is
// responsible for expressing Magnitude in the catalog unit of the sample's
// platform type before handing the sample over.
type Raw struct {
	UUID       string
	Type       catalog.PlatformType
	Kind       catalog.Kind
	Start      time.Time
	End        time.Time
	SourceID   string
	SourceName string

	// Quantity payload.
	Magnitude float64

	// Category payload.
	CategoryCode int

	// Workout payload.
	ActivityCode        int
	TotalEnergyKcal     *float64
	TotalDistanceMeters *float64
}

// Normalized is the canonical cross-platform record shape uploaded to the
// server. Field names match the wire format exactly.
type Normalized struct {
	UUID       string `json:"uuid"`
	Value      any    `json:"value,omitempty"`
	DateFrom   int64  `json:"date_from"`
	DateTo     int64  `json:"date_to"`
	SourceID   string `json:"source_id"`
	SourceName string `json:"source_name"`

	// Workout-only fields.
	ActivityType          string   `json:"workoutActivityType,omitempty"`
	TotalEnergyBurned     *float64 `json:"totalEnergyBurned,omitempty"`
	TotalEnergyBurnedUnit string   `json:"totalEnergyBurnedUnit,omitempty"`
	TotalDistance         *float64 `json:"totalDistance,omitempty"`
	TotalDistanceUnit     string   `json:"totalDistanceUnit,omitempty"`
}

// Units reported for workout totals.
const (
	workoutEnergyUnit   = string(catalog.UnitKilocalorie)
	workoutDistanceUnit = string(catalog.UnitMeter)
)

// Normalize converts one raw sample into the canonical record for the given
// key. The second return value is false when the sample must be dropped:
// the raw shape doesn't match the key's expected kind or platform type, the
// interval is inverted, or a category code fails the key's exact-match
// filter. Dropping is silent; callers log at their own granularity.
func Normalize(raw Raw, key catalog.Key) (Normalized, bool) {
	entry, err := catalog.Lookup(key)
	if err != nil {
		return Normalized{}, false
	}
	if raw.Kind != entry.Kind || raw.Type != entry.PlatformType {
		return Normalized{}, false
	}
	if raw.Start.After(raw.End) {
		return Normalized{}, false
	}

	out := Normalized{
		UUID:       raw.UUID,
		DateFrom:   raw.Start.UnixMilli(),
		DateTo:     raw.End.UnixMilli(),
		SourceID:   raw.SourceID,
		SourceName: raw.SourceName,
	}

	switch entry.Kind {
	case catalog.KindQuantity:
		out.Value = raw.Magnitude

	case catalog.KindCategory:
		// Keys aliasing a shared platform type select only their own
		// raw code; everything else belongs to a sibling key's batch.
		if entry.HasCode && raw.CategoryCode != entry.Code {
			return Normalized{}, false
		}
		out.Value = raw.CategoryCode

	case catalog.KindWorkout:
		if label, ok := catalog.ActivityLabel(raw.ActivityCode); ok {
			out.ActivityType = label
		}
		if raw.TotalEnergyKcal != nil {
			out.TotalEnergyBurned = raw.TotalEnergyKcal
			out.TotalEnergyBurnedUnit = workoutEnergyUnit
		}
		if raw.TotalDistanceMeters != nil {
			out.TotalDistance = raw.TotalDistanceMeters
			out.TotalDistanceUnit = workoutDistanceUnit
		}

	default:
		return Normalized{}, false
	}

	return out, true
}

// NormalizeAll filters and converts a raw result set for one key, preserving
// input order. Samples that fail normalization are dropped.
func NormalizeAll(raws []Raw, key catalog.Key) []Normalized {
	var out []Normalized
	for _, raw := range raws {
		if n, ok := Normalize(raw, key); ok {
			out = append(out, n)
		}
	}
	return out
}
