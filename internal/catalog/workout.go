package catalog

// ActivityMapping associates a canonical workout activity label with the
// platform's numeric activity code. The table is ordered: several labels
// map to the same code (Android-compatible aliases such as RUNNING_JOGGING),
// and reverse lookup returns the first entry that matches.
type ActivityMapping struct {
	Label string
	Code  int
}

var activityTable = []ActivityMapping{
	{"ARCHERY", 2},
	{"BOWLING", 7},
	{"FENCING", 18},
	{"GYMNASTICS", 22},
	{"TRACK_AND_FIELD", 49},
	{"AMERICAN_FOOTBALL", 1},
	{"AUSTRALIAN_FOOTBALL", 3},
	{"BASEBALL", 5},
	{"BASKETBALL", 6},
	{"CRICKET", 10},
	{"HANDBALL", 23},
	{"HOCKEY", 25},
	{"LACROSSE", 27},
	{"RUGBY", 36},
	{"SOCCER", 41},
	{"SOFTBALL", 42},
	{"VOLLEYBALL", 51},
	{"PREPARATION_AND_RECOVERY", 33},
	{"FLEXIBILITY", 62},
	{"WALKING", 52},
	{"RUNNING", 37},
	{"RUNNING_JOGGING", 37},
	{"RUNNING_SAND", 37},
	{"RUNNING_TREADMILL", 37},
	{"WHEELCHAIR_WALK_PACE", 70},
	{"WHEELCHAIR_RUN_PACE", 71},
	{"BIKING", 13},
	{"HAND_CYCLING", 74},
	{"CORE_TRAINING", 59},
	{"ELLIPTICAL", 16},
	{"FUNCTIONAL_STRENGTH_TRAINING", 20},
	{"TRADITIONAL_STRENGTH_TRAINING", 50},
	{"CROSS_TRAINING", 11},
	{"MIXED_CARDIO", 73},
	{"HIGH_INTENSITY_INTERVAL_TRAINING", 63},
	{"JUMP_ROPE", 64},
	{"STAIR_CLIMBING", 44},
	{"STAIRS", 68},
	{"STEP_TRAINING", 69},
	{"BARRE", 58},
	{"YOGA", 57},
	{"MIND_AND_BODY", 29},
	{"PILATES", 66},
	{"BADMINTON", 4},
	{"RACQUETBALL", 34},
	{"SQUASH", 43},
	{"TABLE_TENNIS", 47},
	{"TENNIS", 48},
	{"CLIMBING", 9},
	{"ROCK_CLIMBING", 9},
	{"EQUESTRIAN_SPORTS", 17},
	{"FISHING", 19},
	{"GOLF", 21},
	{"HIKING", 24},
	{"HUNTING", 26},
	{"PLAY", 32},
	{"CROSS_COUNTRY_SKIING", 60},
	{"CURLING", 12},
	{"DOWNHILL_SKIING", 61},
	{"SNOW_SPORTS", 40},
	{"SNOWBOARDING", 67},
	{"SKATING", 39},
	{"SKATING_CROSS", 39},
	{"SKATING_INDOOR", 39},
	{"SKATING_INLINE", 39},
	{"PADDLE_SPORTS", 31},
	{"ROWING", 35},
	{"SAILING", 38},
	{"SURFING_SPORTS", 45},
	{"SWIMMING", 46},
	{"WATER_FITNESS", 53},
	{"WATER_POLO", 54},
	{"WATER_SPORTS", 55},
	{"BOXING", 8},
	{"KICKBOXING", 65},
	{"MARTIAL_ARTS", 28},
	{"TAI_CHI", 72},
	{"WRESTLING", 56},
	{"DISC_SPORTS", 75},
	{"FITNESS_GAMING", 76},
	{"OTHER", 3000},
}

// ActivityLabel resolves a platform activity code to its canonical label.
// When multiple labels share a code the first table entry wins, so aliases
// never shadow the primary label. Returns false for unknown codes.
func ActivityLabel(code int) (string, bool) {
	for _, m := range activityTable {
		if m.Code == code {
			return m.Label, true
		}
	}
	return "", false
}

// ActivityCode resolves a canonical label to the platform activity code.
// Returns false for unknown labels.
func ActivityCode(label string) (int, bool) {
	for _, m := range activityTable {
		if m.Label == label {
			return m.Code, true
		}
	}
	return 0, false
}
