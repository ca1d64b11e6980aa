package domain

// Breakdown itemises every term that went into a CalorieGoal's target.
type Breakdown struct {
	BMR                  float64 `json:"bmr"`
	TDEE                 float64 `json:"tdee"`
	GoalAdjustment       float64 `json:"goalAdjustment"`
	BiologicalAdjustment float64 `json:"biologicalAdjustment"`
	ContextAdjustment    float64 `json:"contextAdjustment"`
	AdherenceAdjustment  float64 `json:"adherenceAdjustment"`
	TrendAdjustment      float64 `json:"trendAdjustment"`
}

// Adjustment is one labelled calorie delta.
type Adjustment struct {
	Amount float64 `json:"amount"`
	Reason string  `json:"reason"`
}

// Adherence statuses.
const (
	AdherenceNewUser        = "new_user"
	AdherenceTooAggressive  = "too_aggressive"
	AdherenceConsistentOver = "consistent_over"
	AdherenceBingePattern   = "binge_pattern"
	AdherenceOnTrack        = "on_track"
	AdherenceMixed          = "mixed"
)

// Adherence is the result of the trailing-window adherence check.
type Adherence struct {
	Status        string  `json:"status"`
	DaysLogged    int     `json:"daysLogged"`
	UnderFraction float64 `json:"underFraction"`
	OverFraction  float64 `json:"overFraction"`
	Rate          float64 `json:"rate"`
	Adjustment    float64 `json:"adjustment"`
	Message       string  `json:"message"`
}

// Trend statuses.
const (
	TrendInsufficientData = "insufficient_data"
	TrendTooSlow          = "too_slow"
	TrendTooFast          = "too_fast"
	TrendOnPace           = "on_pace"
	TrendNotApplicable    = "not_applicable"
)

// Trend is the result of the weight regression.
type Trend struct {
	Status       string  `json:"status"`
	Points       int     `json:"points"`
	WeeklyRateKG float64 `json:"weeklyRateKg"`
	Adjustment   float64 `json:"adjustment"`
	Message      string  `json:"message"`
}

// CalorieGoal is the day's derived calorie range. It is recomputed every day
// and never mutated after construction.
type CalorieGoal struct {
	Min       int       `json:"min"`
	Target    int       `json:"target"`
	Max       int       `json:"max"`
	Breakdown Breakdown `json:"breakdown"`
	Reasons   []string  `json:"reasons"`
	Adherence Adherence `json:"adherence"`
	Trend     Trend     `json:"trend"`
	Message   string    `json:"message"`
}
