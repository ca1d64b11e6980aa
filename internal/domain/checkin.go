package domain

import (
	"context"
	"slices"
)

// Level is a three-step rating collapsed from the check-in's 5-point scale.
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// CollapseFivePoint maps a 1-5 rating onto low/medium/high: 1-2 low, 3 medium,
// 4-5 high. Out-of-range values clamp to the nearest end.
func CollapseFivePoint(v int) Level {
	switch {
	case v <= 2:
		return LevelLow
	case v == 3:
		return LevelMedium
	default:
		return LevelHigh
	}
}

// Situation is a free-form life-situation tag chosen during the check-in.
type Situation string

const (
	SituationSick         Situation = "sick"
	SituationTravel       Situation = "travel"
	SituationHighStress   Situation = "high-stress"
	SituationPeriod       Situation = "period"
	SituationEvent        Situation = "event"
	SituationHighActivity Situation = "high-activity"
	SituationWorkingLate  Situation = "working-late"
	SituationNormal       Situation = "normal"
)

// DailyCheckIn is the once-a-day self report. It is immutable once saved.
type DailyCheckIn struct {
	UserID     int64       `json:"userId"`
	Day        string      `json:"day"`
	SleepHours float64     `json:"sleepHours"`
	Stress     Level       `json:"stress"`
	Energy     Level       `json:"energy"`
	Mood       int         `json:"mood"`
	Situations []Situation `json:"situations"`
	Hunger     int         `json:"hunger"`
}

// Has reports whether the check-in carries the given situation tag.
func (c DailyCheckIn) Has(s Situation) bool {
	return slices.Contains(c.Situations, s)
}

// CheckInRepository is the port for check-in persistence. SaveCheckIn returns
// ErrCheckInExists when the user already checked in for that day.
type CheckInRepository interface {
	SaveCheckIn(ctx context.Context, c DailyCheckIn) error
	GetCheckIn(ctx context.Context, userID int64, day string) (*DailyCheckIn, error)
	ListCheckIns(ctx context.Context, userID int64, limit int) ([]DailyCheckIn, error)
}
