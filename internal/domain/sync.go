package domain

import (
	"context"
	"encoding/json"
	"time"
)

// SyncStatus is the lifecycle state of a queued remote write.
type SyncStatus string

const (
	SyncPending SyncStatus = "pending"
	SyncSynced  SyncStatus = "synced"
	SyncFailed  SyncStatus = "failed"
)

// SyncQueueItem is one pending write of a local draft to the remote backend.
type SyncQueueItem struct {
	ID           string          `json:"id"`
	Payload      json.RawMessage `json:"payload"`
	StorageKey   string          `json:"storageKey"`
	Timestamp    time.Time       `json:"timestamp"`
	AttemptCount int             `json:"attemptCount"`
	Status       SyncStatus      `json:"status"`
	LastError    string          `json:"lastError,omitempty"`
}

// Draft is a local snapshot of unsynced data.
type Draft struct {
	Key     string          `json:"key"`
	Payload json.RawMessage `json:"payload"`
	SavedAt time.Time       `json:"savedAt"`
}

// DraftState tracks one key through the auto-save state machine.
type DraftState string

const (
	DraftIdle      DraftState = "idle"
	DraftSaving    DraftState = "pending_local_write"
	DraftDebounced DraftState = "debounced"
	DraftQueued    DraftState = "queued"
	DraftInFlight  DraftState = "in_flight"
	DraftSynced    DraftState = "synced"
	DraftFailed    DraftState = "failed"
)

// DraftStore is the port for the local key-value draft store.
type DraftStore interface {
	PutDraft(ctx context.Context, d Draft) error
	GetDraft(ctx context.Context, key string) (*Draft, error)
	DeleteDraft(ctx context.Context, key string) error
	ListDrafts(ctx context.Context) ([]Draft, error)
}

// RemoteWriter is the port for the hosted backend a queue item is written to.
type RemoteWriter interface {
	WriteDraft(ctx context.Context, key string, payload json.RawMessage) error
}

// SourceType identifies where a calorie value came from.
type SourceType string

const (
	SourceUserManual      SourceType = "user_manual"
	SourceVerifiedDB      SourceType = "verified_database"
	SourceUserContributed SourceType = "user_contributed"
	SourceEstimated       SourceType = "estimated"
	SourceGenericDB       SourceType = "generic_database"
)

// CalorieSource is one candidate value for the same food.
type CalorieSource struct {
	Type     SourceType `json:"type"`
	Calories float64    `json:"calories"`
	Label    string     `json:"label,omitempty"`
}

// Resolution is the outcome of reconciling conflicting calorie sources.
type Resolution struct {
	PrimaryValue    float64         `json:"primaryValue"`
	DisplayValue    string          `json:"displayValue"`
	IsRange         bool            `json:"isRange"`
	Min             float64         `json:"min"`
	Max             float64         `json:"max"`
	SpreadPct       float64         `json:"spreadPct"`
	NeedsUserChoice bool            `json:"needsUserChoice"`
	Prompt          string          `json:"prompt,omitempty"`
	Sources         []CalorieSource `json:"sources"`
}

// Exercise is a workout to estimate energy expenditure for. Heart-rate fields
// are zero when no monitor data is available.
type Exercise struct {
	Type         string  `json:"type"`
	AvgHeartRate float64 `json:"avgHeartRate,omitempty"`
	MaxHeartRate float64 `json:"maxHeartRate,omitempty"`
}

// Confidence levels for exercise estimates.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
)

// ExerciseEstimate is the calorie burn estimate with its uncertainty band.
type ExerciseEstimate struct {
	Calories   int     `json:"calories"`
	Low        int     `json:"low"`
	High       int     `json:"high"`
	MET        float64 `json:"met"`
	Confidence string  `json:"confidence"`
}

// BudgetPolicy selects how burned calories feed back into the daily budget.
type BudgetPolicy string

const (
	BudgetNone BudgetPolicy = "none"
	BudgetHalf BudgetPolicy = "half"
	BudgetFull BudgetPolicy = "full"
)
