package app

import (
	"fmt"
	"math"

	"wellness/internal/domain"
)

const (
	patternWindow     = 7
	stressDaysPattern = 5
	ironTargetMG      = 18
)

// ContextEngine classifies check-ins into life-situation profiles and merges
// them with the calorie goal into a daily plan.
type ContextEngine struct {
	tables domain.Tables
}

// NewContextEngine creates a ContextEngine over a private copy of t.
func NewContextEngine(t domain.Tables) *ContextEngine {
	return &ContextEngine{tables: t.Clone()}
}

// Classify derives the day's context. yesterday may be nil.
func (e *ContextEngine) Classify(ci domain.DailyCheckIn, yesterday *domain.LogEntry) domain.DailyContext {
	dc := domain.DailyContext{
		Day:             ci.Day,
		Responses:       ci,
		ActiveProfiles:  []domain.ProfileKey{},
		Adjustments:     map[string]float64{},
		Recommendations: []string{},
		Insights:        []domain.Insight{},
	}

	for _, key := range domain.ProfileKeys {
		if !profileTriggered(key, ci) {
			continue
		}
		dc.ActiveProfiles = append(dc.ActiveProfiles, key)
		rule := e.tables.Profiles[key]
		for k, v := range rule.Adjustments {
			dc.Adjustments[k] += v
		}
		if rule.WorkoutOverride != "" {
			dc.WorkoutOverride = rule.WorkoutOverride
		}
		dc.Recommendations = append(dc.Recommendations, rule.Recommendations...)
	}

	dc.Insights = e.insights(ci, yesterday)
	return dc
}

func profileTriggered(key domain.ProfileKey, ci domain.DailyCheckIn) bool {
	switch key {
	case domain.ProfileSick:
		return ci.Has(domain.SituationSick)
	case domain.ProfileTravel:
		return ci.Has(domain.SituationTravel)
	case domain.ProfileHighStress:
		return ci.Stress == domain.LevelHigh || ci.Has(domain.SituationHighStress)
	case domain.ProfilePeriod:
		return ci.Has(domain.SituationPeriod)
	case domain.ProfileBigEvent:
		return ci.Has(domain.SituationEvent)
	case domain.ProfileHighActivity:
		return ci.Has(domain.SituationHighActivity)
	}
	return false
}

func (e *ContextEngine) insights(ci domain.DailyCheckIn, yesterday *domain.LogEntry) []domain.Insight {
	short := ci.SleepHours < e.tables.Context.SleepTargetHours
	out := []domain.Insight{}

	if short {
		out = append(out, domain.Insight{
			Key:      "sleep",
			Priority: domain.PriorityHigh,
			Icon:     "😴",
			Title:    "Short night",
			Message:  fmt.Sprintf("You slept %.1f hours. Cravings often run higher after a short night.", ci.SleepHours),
			Action:   "Aim for an earlier wind-down tonight",
		})
	}
	if ci.Stress == domain.LevelHigh {
		out = append(out, domain.Insight{
			Key:      "stress",
			Priority: domain.PriorityMedium,
			Icon:     "🧘",
			Title:    "Stress is high",
			Message:  "Stress can change appetite in both directions.",
			Action:   "Take five minutes for slow breathing before meals",
		})
	}
	if ci.Energy == domain.LevelLow && yesterday != nil && yesterday.Logged && yesterday.Calories < yesterday.Target {
		out = append(out, domain.Insight{
			Key:      "fuel",
			Priority: domain.PriorityHigh,
			Icon:     "⚡",
			Title:    "Running low",
			Message:  fmt.Sprintf("Yesterday you ate %d of %d kcal, which may explain the low energy.", yesterday.Calories, yesterday.Target),
			Action:   "Start with a breakfast that includes protein",
		})
	}
	if ci.Mood <= 5 {
		out = append(out, domain.Insight{
			Key:      "mood",
			Priority: domain.PriorityMedium,
			Icon:     "💙",
			Title:    "Go easy on yourself",
			Message:  "Lower mood days happen. Small wins still count.",
			Action:   "Get outside for a short walk",
		})
	}
	if ci.Hunger >= 7 && short {
		out = append(out, domain.Insight{
			Key:      "hunger",
			Priority: domain.PriorityLow,
			Icon:     "🍽",
			Title:    "Sleep and hunger",
			Message:  "Short sleep raises hunger hormones, so today's appetite makes sense.",
			Action:   "Keep high-fiber snacks within reach",
		})
	}
	return out
}

// BuildDailyPlan merges goal and context. base is the workout the user had
// planned before any profile overrides it.
func (e *ContextEngine) BuildDailyPlan(goal *domain.CalorieGoal, dc domain.DailyContext, base domain.Workout) domain.DailyPlan {
	var extra float64
	for _, v := range dc.Adjustments {
		extra += v
	}
	delta := int(math.Round(extra))
	target := goal.Target + delta

	plan := domain.DailyPlan{
		Day:             dc.Day,
		Min:             goal.Min + delta,
		Target:          target,
		Max:             goal.Max + delta,
		Macros:          macros(target, dc),
		Workout:         e.workout(dc, base),
		ActiveProfiles:  dc.ActiveProfiles,
		Recommendations: dc.Recommendations,
		Insights:        dc.Insights,
		Message:         goal.Message,
	}
	return plan
}

func macros(target int, dc domain.DailyContext) domain.Macros {
	kcal := float64(target)
	m := domain.Macros{
		ProteinG: math.Round(kcal * 0.30 / 4),
		CarbsG:   math.Round(kcal * 0.40 / 4),
		FatG:     math.Round(kcal * 0.30 / 9),
	}
	if dc.IsActive(domain.ProfileSick) {
		m.ProteinG += 10
	}
	if dc.IsActive(domain.ProfileHighActivity) {
		m.ProteinG += 20
		m.CarbsG += 50
	}
	if dc.IsActive(domain.ProfilePeriod) {
		m.IronMG = ironTargetMG
	}
	return m
}

func (e *ContextEngine) workout(dc domain.DailyContext, base domain.Workout) domain.Workout {
	switch {
	case dc.IsActive(domain.ProfileSick):
		return domain.Workout{Type: "rest", Intensity: domain.IntensityRest, Note: "Recovery is the workout today"}
	case dc.IsActive(domain.ProfileTravel):
		return domain.Workout{
			Type:        "bodyweight",
			Intensity:   domain.IntensityModerate,
			DurationMin: 20,
			Activities:  []string{"squats", "push-ups", "lunges", "plank", "jumping jacks"},
			Note:        "Three rounds, no equipment needed",
		}
	case dc.IsActive(domain.ProfileHighStress):
		return domain.Workout{
			Type:        "stress-relief",
			Intensity:   domain.IntensityLight,
			DurationMin: 30,
			Activities:  []string{"yoga", "walking", "stretching", "tai chi"},
			Note:        "Pick whatever feels calming",
		}
	}

	w := base
	w.Activities = append([]string(nil), base.Activities...)
	if w.Intensity == "" {
		w.Intensity = domain.IntensityModerate
	}
	switch dc.Responses.Energy {
	case domain.LevelLow:
		w.DurationMin = math.Round(w.DurationMin*0.7*10) / 10
		w.Intensity = domain.IntensityLight
	case domain.LevelHigh:
		w.Intensity = domain.IntensityHigh
	}
	if dc.WorkoutOverride == "recovery" && w.Intensity == domain.IntensityHigh {
		w.Intensity = domain.IntensityModerate
		w.Note = "You already trained hard, keep this one easy"
	}
	return w
}

// DetectPatterns looks at the last seven entries of h. ok is false until h
// holds at least seven days.
func (e *ContextEngine) DetectPatterns(h *domain.ContextHistory) (patterns []domain.Pattern, ok bool) {
	entries := h.Entries()
	if len(entries) < patternWindow {
		return nil, false
	}
	week := entries[len(entries)-patternWindow:]

	var sleep float64
	var stressed int
	for _, dc := range week {
		sleep += dc.Responses.SleepHours
		if dc.Responses.Stress == domain.LevelHigh {
			stressed++
		}
	}
	avg := sleep / patternWindow

	patterns = []domain.Pattern{}
	if avg < e.tables.Context.SleepTargetHours {
		sev := domain.PriorityMedium
		if avg < e.tables.Context.SleepTargetHours-1 {
			sev = domain.PriorityHigh
		}
		patterns = append(patterns, domain.Pattern{
			Key:      "sleep_debt",
			Severity: sev,
			Value:    math.Round(avg*10) / 10,
			Message:  fmt.Sprintf("You averaged %.1f hours of sleep this week.", avg),
			Action:   "Try a consistent bedtime for the next few nights",
		})
	}
	if stressed >= stressDaysPattern {
		patterns = append(patterns, domain.Pattern{
			Key:      "chronic_stress",
			Severity: domain.PriorityHigh,
			Value:    float64(stressed),
			Message:  fmt.Sprintf("Stress was high on %d of the last %d days.", stressed, patternWindow),
			Action:   "Block out a short daily break just for yourself",
		})
	}
	return patterns, true
}
