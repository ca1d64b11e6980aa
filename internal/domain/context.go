package domain

import "sync"

// ProfileKey names one of the fixed life-situation profiles.
type ProfileKey string

const (
	ProfileSick         ProfileKey = "sick"
	ProfileTravel       ProfileKey = "travel"
	ProfileHighStress   ProfileKey = "highStress"
	ProfilePeriod       ProfileKey = "period"
	ProfileBigEvent     ProfileKey = "bigEvent"
	ProfileHighActivity ProfileKey = "highActivity"
)

// ProfileKeys lists every profile in evaluation order.
var ProfileKeys = []ProfileKey{
	ProfileSick,
	ProfileTravel,
	ProfileHighStress,
	ProfilePeriod,
	ProfileBigEvent,
	ProfileHighActivity,
}

// Priority and severity tags.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// Insight is one piece of displayed guidance derived from a check-in.
type Insight struct {
	Key      string `json:"key"`
	Priority string `json:"priority"`
	Icon     string `json:"icon"`
	Title    string `json:"title"`
	Message  string `json:"message"`
	Action   string `json:"action"`
}

// DailyContext is the classification of one check-in.
type DailyContext struct {
	Day             string             `json:"day"`
	Responses       DailyCheckIn       `json:"responses"`
	ActiveProfiles  []ProfileKey       `json:"activeProfiles"`
	Adjustments     map[string]float64 `json:"adjustments"`
	WorkoutOverride string             `json:"workoutOverride,omitempty"`
	Recommendations []string           `json:"recommendations"`
	Insights        []Insight          `json:"insights"`
}

// IsActive reports whether the profile is active for the day.
func (c DailyContext) IsActive(k ProfileKey) bool {
	for _, a := range c.ActiveProfiles {
		if a == k {
			return true
		}
	}
	return false
}

// Pattern is a multi-day observation from the weekly detector.
type Pattern struct {
	Key      string  `json:"key"`
	Severity string  `json:"severity"`
	Value    float64 `json:"value"`
	Message  string  `json:"message"`
	Action   string  `json:"action"`
}

// Macros are daily macronutrient targets in grams (iron in mg).
type Macros struct {
	ProteinG float64 `json:"proteinG"`
	CarbsG   float64 `json:"carbsG"`
	FatG     float64 `json:"fatG"`
	IronMG   float64 `json:"ironMg,omitempty"`
}

// Workout intensities.
const (
	IntensityRest     = "rest"
	IntensityLight    = "light"
	IntensityModerate = "moderate"
	IntensityHigh     = "high"
)

// Workout is a planned session.
type Workout struct {
	Type        string   `json:"type"`
	Intensity   string   `json:"intensity"`
	DurationMin float64  `json:"durationMin"`
	Activities  []string `json:"activities,omitempty"`
	Note        string   `json:"note,omitempty"`
}

// DailyPlan merges the calorie goal with the day's context.
type DailyPlan struct {
	Day             string       `json:"day"`
	Min             int          `json:"min"`
	Target          int          `json:"target"`
	Max             int          `json:"max"`
	Macros          Macros       `json:"macros"`
	Workout         Workout      `json:"workout"`
	ActiveProfiles  []ProfileKey `json:"activeProfiles"`
	Recommendations []string     `json:"recommendations"`
	Insights        []Insight    `json:"insights"`
	Message         string       `json:"message"`
}

// ContextHistory is the caller-owned, append-only record of classified days
// used for weekly pattern detection.
type ContextHistory struct {
	mu      sync.Mutex
	entries []DailyContext
}

// NewContextHistory returns a history seeded with prior entries, oldest first.
func NewContextHistory(entries ...DailyContext) *ContextHistory {
	return &ContextHistory{entries: append([]DailyContext(nil), entries...)}
}

// Append adds a day to the end of the history.
func (h *ContextHistory) Append(c DailyContext) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, c)
}

// Entries returns a copy of the history, oldest first.
func (h *ContextHistory) Entries() []DailyContext {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]DailyContext, len(h.entries))
	copy(out, h.entries)
	return out
}

// Len returns the number of recorded days.
func (h *ContextHistory) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}
