// Package catalog defines the closed set of canonical health data types the
// SDK can read, together with the measurement unit each type is reported in
// and the platform-native sample type it is backed by.
//
// The catalog is a build-time registry: every Key must have an Entry, and a
// missing entry is a programming error, not a runtime condition. Several
// keys alias a single platform type (the three sleep substates share
// "sleepAnalysis", the five headache severities share "headache"); those
// entries carry the raw category code that distinguishes them so the
// normalizer can filter a shared query result per key.
package catalog

import (
	"fmt"
	"strings"
)

// Key identifies a canonical health measurement.
type Key string

// Unit is the physical unit a normalized value is expressed in.
type Unit string

// PlatformType is the opaque identifier of the platform-native sample type
// backing one or more keys. The health-store collaborator resolves it to
// whatever descriptor its backend needs.
type PlatformType string

// Kind discriminates the record shape a platform type produces.
type Kind int

const (
	// KindQuantity is a numeric measurement (steps, heart rate, weight).
	KindQuantity Kind = iota
	// KindCategory is a coded observation (sleep stage, headache severity).
	KindCategory
	// KindWorkout is a workout session with energy and distance totals.
	KindWorkout
)

// String returns a human-readable representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindQuantity:
		return "quantity"
	case KindCategory:
		return "category"
	case KindWorkout:
		return "workout"
	default:
		return "unknown"
	}
}

// Units used by catalog entries.
const (
	UnitCount          Unit = "COUNT"
	UnitCountPerMinute Unit = "BEATS_PER_MINUTE"
	UnitKilocalorie    Unit = "KILOCALORIE"
	UnitGram           Unit = "GRAM"
	UnitKilogram       Unit = "KILOGRAM"
	UnitMeter          Unit = "METER"
	UnitLiter          Unit = "LITER"
	UnitMinute         Unit = "MINUTE"
	UnitMillisecond    Unit = "MILLISECOND"
	UnitPercent        Unit = "PERCENT"
	UnitCelsius        Unit = "DEGREE_CELSIUS"
	UnitMmHg           Unit = "MILLIMETER_OF_MERCURY"
	UnitMgPerDl        Unit = "MILLIGRAM_PER_DECILITER"
	UnitSiemen         Unit = "SIEMEN"
	UnitNone           Unit = "NO_UNIT"
)

// Canonical data type keys. The set is closed; adding a key requires adding
// a catalog entry in the same change.
const (
	ActiveEnergyBurned       Key = "ACTIVE_ENERGY_BURNED"
	BasalEnergyBurned        Key = "BASAL_ENERGY_BURNED"
	BloodGlucose             Key = "BLOOD_GLUCOSE"
	BloodOxygen              Key = "BLOOD_OXYGEN"
	BloodPressureDiastolic   Key = "BLOOD_PRESSURE_DIASTOLIC"
	BloodPressureSystolic    Key = "BLOOD_PRESSURE_SYSTOLIC"
	BodyFatPercentage        Key = "BODY_FAT_PERCENTAGE"
	BodyMassIndex            Key = "BODY_MASS_INDEX"
	BodyTemperature          Key = "BODY_TEMPERATURE"
	DietaryCarbsConsumed     Key = "DIETARY_CARBS_CONSUMED"
	DietaryEnergyConsumed    Key = "DIETARY_ENERGY_CONSUMED"
	DietaryFatsConsumed      Key = "DIETARY_FATS_CONSUMED"
	DietaryProteinConsumed   Key = "DIETARY_PROTEIN_CONSUMED"
	DistanceWalkingRunning   Key = "DISTANCE_WALKING_RUNNING"
	ElectrodermalActivity    Key = "ELECTRODERMAL_ACTIVITY"
	ExerciseTime             Key = "EXERCISE_TIME"
	FlightsClimbed           Key = "FLIGHTS_CLIMBED"
	ForcedExpiratoryVolume   Key = "FORCED_EXPIRATORY_VOLUME"
	HeartRate                Key = "HEART_RATE"
	HeartRateVariabilitySDNN Key = "HEART_RATE_VARIABILITY_SDNN"
	Height                   Key = "HEIGHT"
	RestingHeartRate         Key = "RESTING_HEART_RATE"
	Steps                    Key = "STEPS"
	WaistCircumference       Key = "WAIST_CIRCUMFERENCE"
	WalkingHeartRate         Key = "WALKING_HEART_RATE"
	Water                    Key = "WATER"
	Weight                   Key = "WEIGHT"

	Mindfulness             Key = "MINDFULNESS"
	SleepInBed              Key = "SLEEP_IN_BED"
	SleepAsleep             Key = "SLEEP_ASLEEP"
	SleepAwake              Key = "SLEEP_AWAKE"
	HeadacheUnspecified     Key = "HEADACHE_UNSPECIFIED"
	HeadacheNotPresent      Key = "HEADACHE_NOT_PRESENT"
	HeadacheMild            Key = "HEADACHE_MILD"
	HeadacheModerate        Key = "HEADACHE_MODERATE"
	HeadacheSevere          Key = "HEADACHE_SEVERE"
	HighHeartRateEvent      Key = "HIGH_HEART_RATE_EVENT"
	LowHeartRateEvent       Key = "LOW_HEART_RATE_EVENT"
	IrregularHeartRateEvent Key = "IRREGULAR_HEART_RATE_EVENT"

	Workout Key = "WORKOUT"
)

// Platform sample type identifiers.
const (
	TypeStepCount          PlatformType = "stepCount"
	TypeHeartRate          PlatformType = "heartRate"
	TypeSleepAnalysis      PlatformType = "sleepAnalysis"
	TypeHeadache           PlatformType = "headache"
	TypeMindfulSession     PlatformType = "mindfulSession"
	TypeWorkout            PlatformType = "workoutType"
	TypeActiveEnergy       PlatformType = "activeEnergyBurned"
	TypeBasalEnergy        PlatformType = "basalEnergyBurned"
	TypeBloodGlucose       PlatformType = "bloodGlucose"
	TypeOxygenSaturation   PlatformType = "oxygenSaturation"
	TypeBPDiastolic        PlatformType = "bloodPressureDiastolic"
	TypeBPSystolic         PlatformType = "bloodPressureSystolic"
	TypeBodyFat            PlatformType = "bodyFatPercentage"
	TypeBodyMassIndex      PlatformType = "bodyMassIndex"
	TypeBodyTemperature    PlatformType = "bodyTemperature"
	TypeDietaryCarbs       PlatformType = "dietaryCarbohydrates"
	TypeDietaryEnergy      PlatformType = "dietaryEnergyConsumed"
	TypeDietaryFat         PlatformType = "dietaryFatTotal"
	TypeDietaryProtein     PlatformType = "dietaryProtein"
	TypeDietaryWater       PlatformType = "dietaryWater"
	TypeDistanceWalkRun    PlatformType = "distanceWalkingRunning"
	TypeElectrodermal      PlatformType = "electrodermalActivity"
	TypeExerciseTime       PlatformType = "exerciseTime"
	TypeFEV1               PlatformType = "forcedExpiratoryVolume1"
	TypeFlightsClimbed     PlatformType = "flightsClimbed"
	TypeHeight             PlatformType = "height"
	TypeHRVSDNN            PlatformType = "heartRateVariabilitySDNN"
	TypeRestingHeartRate   PlatformType = "restingHeartRate"
	TypeWaist              PlatformType = "waistCircumference"
	TypeWalkingHeartRate   PlatformType = "walkingHeartRateAverage"
	TypeBodyMass           PlatformType = "bodyMass"
	TypeHighHeartRateEvent PlatformType = "highHeartRateEvent"
	TypeLowHeartRateEvent  PlatformType = "lowHeartRateEvent"
	TypeIrregularRhythm    PlatformType = "irregularHeartRhythmEvent"
)

// Entry describes one canonical data type: the unit its values are reported
// in, the platform type it reads from, and the record kind it expects.
// Category keys that alias a shared platform type set HasCode/Code to the
// raw category value that selects them.
type Entry struct {
	Key          Key
	Unit         Unit
	PlatformType PlatformType
	Kind         Kind

	// HasCode marks category keys that must filter the shared platform
	// type on an exact raw code match.
	HasCode bool
	Code    int
}

var entries = map[Key]Entry{
	ActiveEnergyBurned:       {ActiveEnergyBurned, UnitKilocalorie, TypeActiveEnergy, KindQuantity, false, 0},
	BasalEnergyBurned:        {BasalEnergyBurned, UnitKilocalorie, TypeBasalEnergy, KindQuantity, false, 0},
	BloodGlucose:             {BloodGlucose, UnitMgPerDl, TypeBloodGlucose, KindQuantity, false, 0},
	BloodOxygen:              {BloodOxygen, UnitPercent, TypeOxygenSaturation, KindQuantity, false, 0},
	BloodPressureDiastolic:   {BloodPressureDiastolic, UnitMmHg, TypeBPDiastolic, KindQuantity, false, 0},
	BloodPressureSystolic:    {BloodPressureSystolic, UnitMmHg, TypeBPSystolic, KindQuantity, false, 0},
	BodyFatPercentage:        {BodyFatPercentage, UnitPercent, TypeBodyFat, KindQuantity, false, 0},
	BodyMassIndex:            {BodyMassIndex, UnitNone, TypeBodyMassIndex, KindQuantity, false, 0},
	BodyTemperature:          {BodyTemperature, UnitCelsius, TypeBodyTemperature, KindQuantity, false, 0},
	DietaryCarbsConsumed:     {DietaryCarbsConsumed, UnitGram, TypeDietaryCarbs, KindQuantity, false, 0},
	DietaryEnergyConsumed:    {DietaryEnergyConsumed, UnitKilocalorie, TypeDietaryEnergy, KindQuantity, false, 0},
	DietaryFatsConsumed:      {DietaryFatsConsumed, UnitGram, TypeDietaryFat, KindQuantity, false, 0},
	DietaryProteinConsumed:   {DietaryProteinConsumed, UnitGram, TypeDietaryProtein, KindQuantity, false, 0},
	DistanceWalkingRunning:   {DistanceWalkingRunning, UnitMeter, TypeDistanceWalkRun, KindQuantity, false, 0},
	ElectrodermalActivity:    {ElectrodermalActivity, UnitSiemen, TypeElectrodermal, KindQuantity, false, 0},
	ExerciseTime:             {ExerciseTime, UnitMinute, TypeExerciseTime, KindQuantity, false, 0},
	FlightsClimbed:           {FlightsClimbed, UnitCount, TypeFlightsClimbed, KindQuantity, false, 0},
	ForcedExpiratoryVolume:   {ForcedExpiratoryVolume, UnitLiter, TypeFEV1, KindQuantity, false, 0},
	HeartRate:                {HeartRate, UnitCountPerMinute, TypeHeartRate, KindQuantity, false, 0},
	HeartRateVariabilitySDNN: {HeartRateVariabilitySDNN, UnitMillisecond, TypeHRVSDNN, KindQuantity, false, 0},
	Height:                   {Height, UnitMeter, TypeHeight, KindQuantity, false, 0},
	RestingHeartRate:         {RestingHeartRate, UnitCountPerMinute, TypeRestingHeartRate, KindQuantity, false, 0},
	Steps:                    {Steps, UnitCount, TypeStepCount, KindQuantity, false, 0},
	WaistCircumference:       {WaistCircumference, UnitMeter, TypeWaist, KindQuantity, false, 0},
	WalkingHeartRate:         {WalkingHeartRate, UnitCountPerMinute, TypeWalkingHeartRate, KindQuantity, false, 0},
	Water:                    {Water, UnitLiter, TypeDietaryWater, KindQuantity, false, 0},
	Weight:                   {Weight, UnitKilogram, TypeBodyMass, KindQuantity, false, 0},

	Mindfulness:             {Mindfulness, UnitMinute, TypeMindfulSession, KindCategory, false, 0},
	SleepInBed:              {SleepInBed, UnitMinute, TypeSleepAnalysis, KindCategory, true, 0},
	SleepAsleep:             {SleepAsleep, UnitMinute, TypeSleepAnalysis, KindCategory, true, 1},
	SleepAwake:              {SleepAwake, UnitMinute, TypeSleepAnalysis, KindCategory, true, 2},
	HeadacheUnspecified:     {HeadacheUnspecified, UnitMinute, TypeHeadache, KindCategory, true, 0},
	HeadacheNotPresent:      {HeadacheNotPresent, UnitMinute, TypeHeadache, KindCategory, true, 1},
	HeadacheMild:            {HeadacheMild, UnitMinute, TypeHeadache, KindCategory, true, 2},
	HeadacheModerate:        {HeadacheModerate, UnitMinute, TypeHeadache, KindCategory, true, 3},
	HeadacheSevere:          {HeadacheSevere, UnitMinute, TypeHeadache, KindCategory, true, 4},
	HighHeartRateEvent:      {HighHeartRateEvent, UnitNone, TypeHighHeartRateEvent, KindCategory, false, 0},
	LowHeartRateEvent:       {LowHeartRateEvent, UnitNone, TypeLowHeartRateEvent, KindCategory, false, 0},
	IrregularHeartRateEvent: {IrregularHeartRateEvent, UnitNone, TypeIrregularRhythm, KindCategory, false, 0},

	Workout: {Workout, UnitNone, TypeWorkout, KindWorkout, false, 0},
}

// Lookup returns the catalog entry for key.
func Lookup(key Key) (Entry, error) {
	entry, ok := entries[key]
	if !ok {
		return Entry{}, fmt.Errorf("unknown data type key: %s", key)
	}
	return entry, nil
}

// MustLookup is like Lookup but panics on an unknown key. Use it only where
// the key is a compile-time constant.
func MustLookup(key Key) Entry {
	entry, err := Lookup(key)
	if err != nil {
		panic(err)
	}
	return entry
}

// Keys returns every key in the catalog. Order is unspecified.
func Keys() []Key {
	keys := make([]Key, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	return keys
}

// ParseKey validates a canonical key string (case-insensitive).
func ParseKey(s string) (Key, error) {
	key := Key(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := entries[key]; !ok {
		return "", fmt.Errorf("unknown data type key: %s", s)
	}
	return key, nil
}

// BatchKey returns the lowercase form used as the batch map key and in the
// uploaded JSON document.
func (k Key) BatchKey() string {
	return strings.ToLower(string(k))
}

// ReadTypes returns the deduplicated platform types backing the given keys,
// suitable for an authorization request. Keys sharing a platform type
// contribute it once.
func ReadTypes(keys []Key) []PlatformType {
	seen := make(map[PlatformType]bool, len(keys))
	var types []PlatformType
	for _, k := range keys {
		entry, err := Lookup(k)
		if err != nil {
			continue
		}
		if seen[entry.PlatformType] {
			continue
		}
		seen[entry.PlatformType] = true
		types = append(types, entry.PlatformType)
	}
	return types
}
