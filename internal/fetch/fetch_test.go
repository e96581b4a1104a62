package fetch

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/vitalbridge/vitalbridge/internal/catalog"
	"github.com/vitalbridge/vitalbridge/internal/healthstore"
	"github.com/vitalbridge/vitalbridge/internal/sample"
	"github.com/vitalbridge/vitalbridge/internal/window"
)

var testWindow = window.Window{
	Start: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
	End:   time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC),
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func rawQuantity(id string, typ catalog.PlatformType, value float64) sample.Raw {
	start := testWindow.Start.Add(time.Hour)
	return sample.Raw{
		UUID:      id,
		Type:      typ,
		Kind:      catalog.KindQuantity,
		Start:     start,
		End:       start.Add(time.Minute),
		Magnitude: value,
	}
}

// TestFetchStepsAndEmptyHeartRate is the canonical scenario: STEPS returns
// three raw samples, HEART_RATE returns none, and the batch carries exactly
// one key.
func TestFetchStepsAndEmptyHeartRate(t *testing.T) {
	store := healthstore.NewFakeStore()
	store.AddSamples(catalog.TypeStepCount,
		rawQuantity("s1", catalog.TypeStepCount, 100),
		rawQuantity("s2", catalog.TypeStepCount, 200),
		rawQuantity("s3", catalog.TypeStepCount, 300),
	)

	f := New(store, quietLogger())
	batch := f.Fetch(context.Background(), []catalog.Key{catalog.Steps, catalog.HeartRate}, testWindow)

	if len(batch) != 1 {
		t.Fatalf("batch has %d keys, want 1: %v", len(batch), batch)
	}
	steps, ok := batch["steps"]
	if !ok {
		t.Fatal("batch missing key \"steps\"")
	}
	if len(steps) != 3 {
		t.Errorf("steps has %d samples, want 3", len(steps))
	}
}

// TestFetchNeverIncludesEmptyKeys covers the batch invariant directly.
func TestFetchNeverIncludesEmptyKeys(t *testing.T) {
	store := healthstore.NewFakeStore()

	f := New(store, quietLogger())
	batch := f.Fetch(context.Background(), []catalog.Key{catalog.Steps, catalog.Weight, catalog.Workout}, testWindow)

	if len(batch) != 0 {
		t.Errorf("batch should be empty, got %v", batch)
	}
	if batch.Total() != 0 {
		t.Errorf("Total = %d, want 0", batch.Total())
	}
}

// TestFetchFailedTypeDegradesToEmpty verifies that one failing query drops
// only that type while the others still land.
func TestFetchFailedTypeDegradesToEmpty(t *testing.T) {
	store := healthstore.NewFakeStore()
	store.AddSamples(catalog.TypeStepCount, rawQuantity("s1", catalog.TypeStepCount, 50))
	store.FailQueries(catalog.TypeHeartRate, errors.New("store unavailable"))

	f := New(store, quietLogger())
	batch := f.Fetch(context.Background(), []catalog.Key{catalog.Steps, catalog.HeartRate}, testWindow)

	if len(batch) != 1 {
		t.Fatalf("batch has %d keys, want 1", len(batch))
	}
	if _, ok := batch["heart_rate"]; ok {
		t.Error("failed type must not appear in the batch")
	}
	if _, ok := batch["steps"]; !ok {
		t.Error("healthy type should survive a sibling failure")
	}
}

// TestFetchSharedPlatformTypeSplitsPerKey verifies one query per key with
// per-key category filtering, not a single multiplexed fetch.
func TestFetchSharedPlatformTypeSplitsPerKey(t *testing.T) {
	start := testWindow.Start.Add(time.Hour)
	mkSleep := func(id string, code int) sample.Raw {
		return sample.Raw{
			UUID:         id,
			Type:         catalog.TypeSleepAnalysis,
			Kind:         catalog.KindCategory,
			Start:        start,
			End:          start.Add(time.Hour),
			CategoryCode: code,
		}
	}

	store := healthstore.NewFakeStore()
	store.AddSamples(catalog.TypeSleepAnalysis,
		mkSleep("in-bed", 0), mkSleep("asleep-1", 1), mkSleep("asleep-2", 1), mkSleep("awake", 2))

	f := New(store, quietLogger())
	keys := []catalog.Key{catalog.SleepInBed, catalog.SleepAsleep, catalog.SleepAwake}
	batch := f.Fetch(context.Background(), keys, testWindow)

	if len(store.QueriedTypes) != 3 {
		t.Errorf("expected one query per key, got %d", len(store.QueriedTypes))
	}
	if len(batch["sleep_in_bed"]) != 1 || len(batch["sleep_asleep"]) != 2 || len(batch["sleep_awake"]) != 1 {
		t.Errorf("per-key filtering wrong: %v", batch)
	}
}

func TestFetchSingleWindowSnapshot(t *testing.T) {
	store := healthstore.NewFakeStore()
	// A sample on the window end boundary must be excluded for every key.
	boundary := sample.Raw{
		UUID:      "boundary",
		Type:      catalog.TypeStepCount,
		Kind:      catalog.KindQuantity,
		Start:     testWindow.End,
		End:       testWindow.End.Add(time.Minute),
		Magnitude: 1,
	}
	store.AddSamples(catalog.TypeStepCount, boundary)

	f := New(store, quietLogger())
	batch := f.Fetch(context.Background(), []catalog.Key{catalog.Steps}, testWindow)
	if len(batch) != 0 {
		t.Errorf("boundary sample leaked into the batch: %v", batch)
	}
}
