package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"wellness/internal/domain"
)

const (
	logHistoryDays    = 90
	streakHistoryDays = 365
	reviewDays        = 7
)

// ErrNoActiveDay is returned when logging before the day's check-in.
var ErrNoActiveDay = errors.New("no active day, submit a check-in first")

// DayState is the in-memory state of a user's current day.
type DayState struct {
	UserID    int64               `json:"userId"`
	Day       string              `json:"day"`
	CheckIn   domain.DailyCheckIn `json:"checkIn"`
	Context   domain.DailyContext `json:"context"`
	Goal      domain.CalorieGoal  `json:"goal"`
	Plan      domain.DailyPlan    `json:"plan"`
	Foods     []domain.Food       `json:"foods"`
	Exercises []ExerciseLog       `json:"exercises"`
	Consumed  int                 `json:"consumed"`
	Burned    int                 `json:"burned"`
	Budget    int                 `json:"budget"`
	Closed    bool                `json:"closed"`
}

// ExerciseLog is one logged exercise with its estimate.
type ExerciseLog struct {
	Exercise domain.Exercise         `json:"exercise"`
	Minutes  float64                 `json:"minutes"`
	Estimate domain.ExerciseEstimate `json:"estimate"`
}

// FoodResult is returned by LogFood.
type FoodResult struct {
	Feedback  domain.FoodFeedback `json:"feedback"`
	Validated bool                `json:"validated"`
	Consumed  int                 `json:"consumed"`
	Remaining int                 `json:"remaining"`
	DraftKey  string              `json:"draftKey"`
}

// ExerciseResult is returned by LogExercise.
type ExerciseResult struct {
	Estimate domain.ExerciseEstimate `json:"estimate"`
	Burned   int                     `json:"burned"`
	Budget   int                     `json:"budget"`
	Policy   domain.BudgetPolicy     `json:"policy"`
	DraftKey string                  `json:"draftKey"`
}

// DaySummary is returned by EndDay.
type DaySummary struct {
	Day          string           `json:"day"`
	Consumed     int              `json:"consumed"`
	Budget       int              `json:"budget"`
	Feedback     *domain.Feedback `json:"feedback"`
	Validated    bool             `json:"validated"`
	Streak       domain.Streak    `json:"streak"`
	Notification string           `json:"notification"`
}

// WeeklyReview is returned by WeeklyReview.
type WeeklyReview struct {
	PatternsReady bool             `json:"patternsReady"`
	Patterns      []domain.Pattern `json:"patterns"`
	Message       string           `json:"message"`
	Days          []DayPoint       `json:"days"`
	Adherence     domain.Adherence `json:"adherence"`
	Streak        domain.Streak    `json:"streak"`
}

// CoachDeps wires a CoachService.
type CoachDeps struct {
	Profiles      domain.ProfileRepository
	CheckIns      domain.CheckInRepository
	Logs          domain.LogRepository
	Weights       *WeightService
	Review        *ReviewService
	Goals         *GoalCalculator
	Contexts      *ContextEngine
	Feedback      *FeedbackGenerator
	Resolver      *CalorieResolver
	Notifications *NotificationPicker
	Sync          *SyncManager
	Policy        domain.BudgetPolicy
	Clock         func() time.Time
}

// CoachService sequences a user's day: check-in, goal and plan, logging,
// end-of-day summary and weekly review.
type CoachService struct {
	d   CoachDeps
	now func() time.Time

	mu        sync.Mutex
	days      map[int64]*DayState
	histories map[int64]*domain.ContextHistory
}

// NewCoachService creates a CoachService.
func NewCoachService(d CoachDeps) *CoachService {
	now := d.Clock
	if now == nil {
		now = time.Now
	}
	return &CoachService{
		d:         d,
		now:       now,
		days:      map[int64]*DayState{},
		histories: map[int64]*domain.ContextHistory{},
	}
}

// History returns the user's context history handle, creating it on first use.
func (s *CoachService) History(userID int64) *domain.ContextHistory {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.histories[userID]
	if !ok {
		h = domain.NewContextHistory()
		s.histories[userID] = h
	}
	return h
}

// StartDay stores the check-in and builds the day's goal and plan.
func (s *CoachService) StartDay(ctx context.Context, userID int64, ci domain.DailyCheckIn, base domain.Workout) (*DayState, error) {
	ci.UserID = userID
	if ci.Day == "" {
		ci.Day = localDay(s.now())
	}
	if err := ValidateCheckIn(ci); err != nil {
		return nil, err
	}

	profile, err := s.loadProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	goal, err := s.d.Goals.ComputeDailyGoal(profile, ci)
	if err != nil {
		return nil, err
	}
	if err := s.d.CheckIns.SaveCheckIn(ctx, ci); err != nil {
		return nil, err
	}

	var yesterday *domain.LogEntry
	prev := dayBefore(ci.Day)
	for i := range profile.LogHistory {
		if profile.LogHistory[i].Day == prev {
			yesterday = &profile.LogHistory[i]
		}
	}
	dc := s.d.Contexts.Classify(ci, yesterday)
	s.History(userID).Append(dc)
	plan := s.d.Contexts.BuildDailyPlan(goal, dc, base)

	st := &DayState{
		UserID:    userID,
		Day:       ci.Day,
		CheckIn:   ci,
		Context:   dc,
		Goal:      *goal,
		Plan:      plan,
		Foods:     []domain.Food{},
		Exercises: []ExerciseLog{},
		Budget:    plan.Target,
	}
	s.mu.Lock()
	s.days[userID] = st
	snap := cloneDay(st)
	s.mu.Unlock()

	if err := s.queue(ctx, dayKey(userID, ci.Day), snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// loadProfile returns the profile with its log and weight histories attached.
func (s *CoachService) loadProfile(ctx context.Context, userID int64) (*domain.UserProfile, error) {
	p, err := s.d.Profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("profile %d: %w", userID, domain.ErrNotFound)
	}
	logs, err := s.d.Logs.ListLogEntries(ctx, userID, logHistoryDays)
	if err != nil {
		return nil, fmt.Errorf("log history: %w", err)
	}
	weights, err := s.d.Weights.History(ctx, userID, trendWindow)
	if err != nil {
		return nil, fmt.Errorf("weight history: %w", err)
	}
	out := *p
	out.LogHistory = logs
	out.WeightHistory = weights
	return &out, nil
}

// LogFood records a food for the active day.
func (s *CoachService) LogFood(ctx context.Context, userID int64, f domain.Food) (*FoodResult, error) {
	if f.Name == "" {
		return nil, errors.New("food name is required")
	}
	if f.Calories < 0 {
		return nil, errors.New("calories must be >= 0")
	}
	fb := s.d.Feedback.DescribeFood(f)
	ok := s.d.Feedback.Validate(fb.Message)

	s.mu.Lock()
	st, err := s.activeDay(userID)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	st.Foods = append(st.Foods, f)
	st.Consumed += f.Calories
	res := &FoodResult{
		Feedback:  fb,
		Validated: ok,
		Consumed:  st.Consumed,
		Remaining: st.Budget - st.Consumed,
		DraftKey:  "food:" + uuid.NewString(),
	}
	day := st.Day
	s.mu.Unlock()

	entry := struct {
		UserID int64       `json:"userId"`
		Day    string      `json:"day"`
		Food   domain.Food `json:"food"`
	}{userID, day, f}
	if err := s.queue(ctx, res.DraftKey, entry); err != nil {
		return nil, err
	}
	return res, nil
}

// LogExercise estimates burn for the active day and credits it to the budget
// under the configured policy.
func (s *CoachService) LogExercise(ctx context.Context, userID int64, ex domain.Exercise, minutes float64) (*ExerciseResult, error) {
	p, err := s.d.Profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("profile %d: %w", userID, domain.ErrNotFound)
	}
	if p.WeightKG == nil {
		return nil, &domain.MissingProfileFieldError{Fields: []string{"weight"}, HeightCM: p.HeightCM, Age: p.Age, Gender: p.Gender}
	}
	est, err := s.d.Resolver.EstimateExerciseCalories(ex, *p.WeightKG, minutes)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	st, err := s.activeDay(userID)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	st.Exercises = append(st.Exercises, ExerciseLog{Exercise: ex, Minutes: minutes, Estimate: *est})
	st.Burned += est.Calories
	st.Budget = ApplyExerciseCalories(st.Plan.Target, st.Burned, s.d.Policy)
	res := &ExerciseResult{
		Estimate: *est,
		Burned:   st.Burned,
		Budget:   st.Budget,
		Policy:   s.d.Policy,
		DraftKey: "exercise:" + uuid.NewString(),
	}
	day := st.Day
	s.mu.Unlock()

	entry := struct {
		UserID   int64           `json:"userId"`
		Day      string          `json:"day"`
		Exercise domain.Exercise `json:"exercise"`
		Minutes  float64         `json:"minutes"`
		Calories int             `json:"calories"`
	}{userID, day, ex, minutes, est.Calories}
	if err := s.queue(ctx, res.DraftKey, entry); err != nil {
		return nil, err
	}
	return res, nil
}

// EndDay closes the active day, appends it to the log history and returns
// the summary.
func (s *CoachService) EndDay(ctx context.Context, userID int64) (*DaySummary, error) {
	s.mu.Lock()
	st, err := s.activeDay(userID)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	snap := cloneDay(st)
	s.mu.Unlock()

	sum := &DaySummary{Day: snap.Day, Consumed: snap.Consumed, Budget: snap.Budget, Validated: true}
	logged := len(snap.Foods) > 0
	if logged && snap.Budget > 0 {
		var fb domain.Feedback
		if snap.Consumed > snap.Budget {
			fb, err = s.d.Feedback.DescribeOverGoal(snap.Consumed, snap.Budget)
		} else {
			fb, err = s.d.Feedback.DescribeUnderGoal(snap.Consumed, snap.Budget)
		}
		if err != nil {
			return nil, err
		}
		sum.Feedback = &fb
		sum.Validated = s.d.Feedback.Validate(fb.Message)
	}

	entry := domain.LogEntry{Day: snap.Day, Logged: logged, Calories: snap.Consumed, Target: snap.Budget}
	if err := s.d.Logs.UpsertLogEntry(ctx, userID, entry); err != nil {
		return nil, fmt.Errorf("save log entry: %w", err)
	}
	// The day stays open until its log entry is stored, so a failed save can be retried.
	s.mu.Lock()
	st.Closed = true
	s.mu.Unlock()
	snap.Closed = true

	streak, err := s.Streak(ctx, userID)
	if err != nil {
		return nil, err
	}
	sum.Streak = *streak
	kind := NotifyEncouragement
	if streak.CurrentStreak > 1 {
		kind = NotifyStreak
	}
	if sum.Notification, err = s.d.Notifications.Pick(kind); err != nil {
		return nil, err
	}

	if err := s.queue(ctx, dayKey(userID, snap.Day), snap); err != nil {
		return nil, err
	}
	return sum, nil
}

// Streak computes the user's logging streak through the last closed day.
func (s *CoachService) Streak(ctx context.Context, userID int64) (*domain.Streak, error) {
	entries, err := s.d.Logs.ListLogEntries(ctx, userID, streakHistoryDays)
	if err != nil {
		return nil, err
	}
	st := s.d.Feedback.Streak(dailySeries(entries, localDay(s.now())))
	return &st, nil
}

// dailySeries fills calendar gaps between the first entry and today with
// missed days. Today is included only if it already has an entry.
func dailySeries(entries []domain.LogEntry, today string) []domain.LogEntry {
	if len(entries) == 0 {
		return nil
	}
	byDay := make(map[string]domain.LogEntry, len(entries))
	first := ""
	for _, e := range entries {
		byDay[e.Day] = e
		if first == "" || e.Day < first {
			first = e.Day
		}
	}
	start, err := domain.ParseDay(first)
	if err != nil {
		return entries
	}
	end, err := domain.ParseDay(today)
	if err != nil {
		return entries
	}
	if _, ok := byDay[today]; !ok {
		end = end.AddDate(0, 0, -1)
	}
	var out []domain.LogEntry
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		key := d.Format(domain.DayLayout)
		if e, ok := byDay[key]; ok {
			out = append(out, e)
			continue
		}
		out = append(out, domain.LogEntry{Day: key})
	}
	return out
}

// WeeklyReview summarizes the last seven days.
func (s *CoachService) WeeklyReview(ctx context.Context, userID int64) (*WeeklyReview, error) {
	days, err := s.d.Review.GetDaily(ctx, userID, reviewDays, domain.UnitKG)
	if err != nil {
		return nil, err
	}
	entries, err := s.d.Logs.ListLogEntries(ctx, userID, logHistoryDays)
	if err != nil {
		return nil, err
	}
	streak, err := s.Streak(ctx, userID)
	if err != nil {
		return nil, err
	}

	today := localDay(s.now())
	next, _ := domain.ParseDay(today)
	rv := &WeeklyReview{
		Days: days,
		// Include today in the adherence window.
		Adherence: s.d.Goals.Adherence(entries, next.AddDate(0, 0, 1).Format(domain.DayLayout)),
		Streak:    *streak,
	}
	rv.Patterns, rv.PatternsReady = s.d.Contexts.DetectPatterns(s.History(userID))
	switch {
	case !rv.PatternsReady:
		rv.Patterns = []domain.Pattern{}
		rv.Message = fmt.Sprintf("Weekly patterns appear after 7 check-ins. You have %d so far.", s.History(userID).Len())
	case len(rv.Patterns) == 0:
		rv.Message = "No patterns to watch this week. Nice and steady!"
	default:
		rv.Message = fmt.Sprintf("%d pattern(s) worth a look this week.", len(rv.Patterns))
	}
	return rv, nil
}

// Today returns a copy of the user's active day.
func (s *CoachService) Today(_ context.Context, userID int64) (*DayState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.days[userID]
	if !ok {
		return nil, ErrNoActiveDay
	}
	return cloneDay(st), nil
}

// activeDay must be called with s.mu held.
func (s *CoachService) activeDay(userID int64) (*DayState, error) {
	st, ok := s.days[userID]
	if !ok || st.Closed {
		return nil, ErrNoActiveDay
	}
	return st, nil
}

func (s *CoachService) queue(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.d.Sync.QueueWrite(ctx, key, raw)
}

func dayKey(userID int64, day string) string {
	return fmt.Sprintf("day:%d:%s", userID, day)
}

func cloneDay(st *DayState) *DayState {
	out := *st
	out.Foods = slices.Clone(st.Foods)
	out.Exercises = slices.Clone(st.Exercises)
	return &out
}
