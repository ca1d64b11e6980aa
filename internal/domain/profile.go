// Package domain contains the core business entities, the constant tables the
// engines read, and the repository ports the adapters implement.
package domain

import (
	"context"
	"time"
)

// DayLayout is the calendar-day format used for every Day field.
const DayLayout = "2006-01-02"

// ParseDay parses a YYYY-MM-DD day in the local time zone.
func ParseDay(day string) (time.Time, error) {
	return time.ParseInLocation(DayLayout, day, time.Local)
}

// Gender selects the Mifflin-St Jeor offset.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// ActivityLevel selects the expenditure multiplier.
type ActivityLevel string

const (
	ActivitySedentary  ActivityLevel = "sedentary"
	ActivityLight      ActivityLevel = "light"
	ActivityModerate   ActivityLevel = "moderate"
	ActivityActive     ActivityLevel = "active"
	ActivityVeryActive ActivityLevel = "veryActive"
)

// Goal is the direction the user wants their weight to move.
type Goal string

const (
	GoalWeightLoss Goal = "weightLoss"
	GoalWeightGain Goal = "weightGain"
	GoalMaintain   Goal = "maintain"
)

// CyclePhase is the menstrual-cycle phase reported by the user.
type CyclePhase string

const (
	PhaseMenstruation CyclePhase = "menstruation"
	PhaseFollicular   CyclePhase = "follicular"
	PhaseOvulation    CyclePhase = "ovulation"
	PhaseLuteal       CyclePhase = "luteal"
)

// LogEntry is one day of the user's calorie log history.
type LogEntry struct {
	Day      string `json:"day"`
	Logged   bool   `json:"logged"`
	Calories int    `json:"calories"`
	Target   int    `json:"target"`
}

// WeightPoint is one weigh-in used by the trend regression.
type WeightPoint struct {
	Day      string  `json:"day"`
	WeightKG float64 `json:"weightKg"`
}

// UserProfile is the biometric and preference snapshot the goal calculator
// works from. The BMR fields are pointers so a half-finished onboarding can be
// stored and rejected at computation time.
type UserProfile struct {
	UserID            int64         `json:"userId"`
	WeightKG          *float64      `json:"weightKg"`
	HeightCM          *float64      `json:"heightCm"`
	Age               *int          `json:"age"`
	Gender            *Gender       `json:"gender"`
	ActivityLevel     ActivityLevel `json:"activityLevel"`
	Goal              Goal          `json:"goal"`
	MedicalConditions []string      `json:"medicalConditions,omitempty"`
	Medications       []string      `json:"medications,omitempty"`
	Breastfeeding     bool          `json:"breastfeeding"`
	CyclePhase        *CyclePhase   `json:"cyclePhase,omitempty"`
	LogHistory        []LogEntry    `json:"logHistory,omitempty"`
	WeightHistory     []WeightPoint `json:"weightHistory,omitempty"`
	CreatedAt         time.Time     `json:"createdAt"`
	UpdatedAt         time.Time     `json:"updatedAt"`
}

// ProfileRepository is the port for profile persistence. GetProfile returns
// nil, nil when the user has no profile yet.
type ProfileRepository interface {
	GetProfile(ctx context.Context, userID int64) (*UserProfile, error)
	SaveProfile(ctx context.Context, p *UserProfile) error
}

// LogRepository is the port for the per-day calorie log history.
// ListLogEntries returns the most recent limit entries, oldest first.
type LogRepository interface {
	UpsertLogEntry(ctx context.Context, userID int64, e LogEntry) error
	ListLogEntries(ctx context.Context, userID int64, limit int) ([]LogEntry, error)
}
