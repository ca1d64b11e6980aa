// Package memory implements in-memory repositories for development and testing.
package memory

import (
	"context"
	"encoding/json"
	"slices"
	"sort"
	"sync"
	"time"

	"wellness/internal/domain"
)

type checkInKey struct {
	userID int64
	day    string
}

// DB implements every repository port in memory.
type DB struct {
	mu       sync.Mutex
	weights  []domain.WeightEntry
	profiles map[int64]domain.UserProfile
	checkIns map[checkInKey]domain.DailyCheckIn
	logs     map[int64]map[string]domain.LogEntry
	drafts   map[string]domain.Draft

	weightIDCounter int64
}

// New creates a new in-memory database.
func New() *DB {
	return &DB{
		profiles: make(map[int64]domain.UserProfile),
		checkIns: make(map[checkInKey]domain.DailyCheckIn),
		logs:     make(map[int64]map[string]domain.LogEntry),
		drafts:   make(map[string]domain.Draft),
	}
}

// Ensure interfaces are met.
var _ domain.WeightRepository = (*DB)(nil)
var _ domain.ProfileRepository = (*DB)(nil)
var _ domain.CheckInRepository = (*DB)(nil)
var _ domain.LogRepository = (*DB)(nil)
var _ domain.DraftStore = (*DB)(nil)
var _ domain.RemoteWriter = (*Outbox)(nil)

// --- WeightRepository ---

// AddWeightEvent adds a weight event.
func (db *DB) AddWeightEvent(ctx context.Context, userID int64, value float64, unit string, createdAt time.Time) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.weightIDCounter++
	id := db.weightIDCounter

	db.weights = append(db.weights, domain.WeightEntry{
		ID:        id,
		UserID:    userID,
		Value:     value,
		Unit:      unit,
		CreatedAt: createdAt.UTC(),
	})
	return id, nil
}

// DeleteLatestWeightEvent deletes the user's most recent weight event.
func (db *DB) DeleteLatestWeightEvent(ctx context.Context, userID int64) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	lastIdx := -1
	for i, w := range db.weights {
		if w.UserID != userID {
			continue
		}
		if lastIdx == -1 || w.CreatedAt.After(db.weights[lastIdx].CreatedAt) {
			lastIdx = i
		}
	}
	if lastIdx == -1 {
		return false, nil
	}
	db.weights = slices.Delete(db.weights, lastIdx, lastIdx+1)
	return true, nil
}

// LatestWeightForLocalDay returns the latest weight for the given day.
func (db *DB) LatestWeightForLocalDay(ctx context.Context, userID int64, localDay string) (*domain.WeightEntry, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	dayStart, err := domain.ParseDay(localDay)
	if err != nil {
		return nil, err
	}
	dayEnd := dayStart.AddDate(0, 0, 1)

	var latest *domain.WeightEntry
	for i := range db.weights {
		w := &db.weights[i]
		if w.UserID != userID {
			continue
		}
		// Stored as UTC, the same way Postgres compares.
		if !w.CreatedAt.Before(dayStart.UTC()) && w.CreatedAt.Before(dayEnd.UTC()) {
			if latest == nil || w.CreatedAt.After(latest.CreatedAt) {
				latest = w
			}
		}
	}
	if latest == nil {
		return nil, nil
	}
	ret := *latest
	ret.Day = localDay
	return &ret, nil
}

// ListRecentWeightEvents lists the user's most recent weight events, newest first.
func (db *DB) ListRecentWeightEvents(ctx context.Context, userID int64, limit int) ([]domain.WeightEntry, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var result []domain.WeightEntry
	for _, w := range db.weights {
		if w.UserID == userID {
			result = append(result, w)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if len(result) > limit {
		result = result[:limit]
	}
	for i := range result {
		result[i].Day = result[i].CreatedAt.In(time.Local).Format(domain.DayLayout)
	}
	return result, nil
}

// --- ProfileRepository ---

// GetProfile returns a copy of the stored profile, or nil.
func (db *DB) GetProfile(ctx context.Context, userID int64) (*domain.UserProfile, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	p, ok := db.profiles[userID]
	if !ok {
		return nil, nil
	}
	return cloneProfile(&p), nil
}

// SaveProfile inserts or replaces the profile.
func (db *DB) SaveProfile(ctx context.Context, p *domain.UserProfile) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	cp := cloneProfile(p)
	cp.LogHistory, cp.WeightHistory = nil, nil
	db.profiles[p.UserID] = *cp
	return nil
}

func cloneProfile(p *domain.UserProfile) *domain.UserProfile {
	cp := *p
	cp.WeightKG = clonePtr(p.WeightKG)
	cp.HeightCM = clonePtr(p.HeightCM)
	cp.Age = clonePtr(p.Age)
	cp.Gender = clonePtr(p.Gender)
	cp.CyclePhase = clonePtr(p.CyclePhase)
	cp.MedicalConditions = slices.Clone(p.MedicalConditions)
	cp.Medications = slices.Clone(p.Medications)
	return &cp
}

func clonePtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// --- CheckInRepository ---

// SaveCheckIn stores c unless the user already checked in that day.
func (db *DB) SaveCheckIn(ctx context.Context, c domain.DailyCheckIn) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	k := checkInKey{c.UserID, c.Day}
	if _, ok := db.checkIns[k]; ok {
		return domain.ErrCheckInExists
	}
	c.Situations = slices.Clone(c.Situations)
	db.checkIns[k] = c
	return nil
}

// GetCheckIn returns the check-in for day, or nil.
func (db *DB) GetCheckIn(ctx context.Context, userID int64, day string) (*domain.DailyCheckIn, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	c, ok := db.checkIns[checkInKey{userID, day}]
	if !ok {
		return nil, nil
	}
	c.Situations = slices.Clone(c.Situations)
	return &c, nil
}

// ListCheckIns returns the user's most recent check-ins, oldest first.
func (db *DB) ListCheckIns(ctx context.Context, userID int64, limit int) ([]domain.DailyCheckIn, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var result []domain.DailyCheckIn
	for k, c := range db.checkIns {
		if k.userID == userID {
			c.Situations = slices.Clone(c.Situations)
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Day < result[j].Day })
	if len(result) > limit {
		result = result[len(result)-limit:]
	}
	return result, nil
}

// --- LogRepository ---

// UpsertLogEntry stores e, replacing any entry for the same day.
func (db *DB) UpsertLogEntry(ctx context.Context, userID int64, e domain.LogEntry) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	days, ok := db.logs[userID]
	if !ok {
		days = make(map[string]domain.LogEntry)
		db.logs[userID] = days
	}
	days[e.Day] = e
	return nil
}

// ListLogEntries returns the user's most recent entries, oldest first.
func (db *DB) ListLogEntries(ctx context.Context, userID int64, limit int) ([]domain.LogEntry, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	result := make([]domain.LogEntry, 0, len(db.logs[userID]))
	for _, e := range db.logs[userID] {
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Day < result[j].Day })
	if len(result) > limit {
		result = result[len(result)-limit:]
	}
	return result, nil
}

// --- DraftStore ---

// PutDraft stores d under its key.
func (db *DB) PutDraft(ctx context.Context, d domain.Draft) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	d.Payload = slices.Clone(d.Payload)
	db.drafts[d.Key] = d
	return nil
}

// GetDraft returns the draft for key, or nil.
func (db *DB) GetDraft(ctx context.Context, key string) (*domain.Draft, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	d, ok := db.drafts[key]
	if !ok {
		return nil, nil
	}
	d.Payload = slices.Clone(d.Payload)
	return &d, nil
}

// DeleteDraft removes the draft for key. Missing keys are ignored.
func (db *DB) DeleteDraft(ctx context.Context, key string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	delete(db.drafts, key)
	return nil
}

// ListDrafts returns every draft ordered by key.
func (db *DB) ListDrafts(ctx context.Context) ([]domain.Draft, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	result := make([]domain.Draft, 0, len(db.drafts))
	for _, d := range db.drafts {
		d.Payload = slices.Clone(d.Payload)
		result = append(result, d)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Key < result[j].Key })
	return result, nil
}

// --- RemoteWriter ---

// Outbox is an in-memory remote store. It keeps the last payload written per
// key and can be told to fail.
type Outbox struct {
	mu     sync.Mutex
	writes map[string]json.RawMessage
	calls  int
	err    error
}

// NewOutbox creates an empty Outbox.
func NewOutbox() *Outbox {
	return &Outbox{writes: make(map[string]json.RawMessage)}
}

// WriteDraft records payload under key, or returns the configured error.
func (o *Outbox) WriteDraft(ctx context.Context, key string, payload json.RawMessage) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls++
	if o.err != nil {
		return o.err
	}
	o.writes[key] = slices.Clone(payload)
	return nil
}

// SetError makes every following write fail with err. nil restores success.
func (o *Outbox) SetError(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.err = err
}

// Get returns the last payload written for key.
func (o *Outbox) Get(key string) (json.RawMessage, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	p, ok := o.writes[key]
	return slices.Clone(p), ok
}

// Calls returns how many writes were attempted.
func (o *Outbox) Calls() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.calls
}
