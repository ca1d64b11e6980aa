package app

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"wellness/internal/domain"
	"wellness/internal/logger"
)

const (
	closeDeviation = 10.0
	overModerate   = 25.0
	underModerate  = 30.0
	proteinFact    = 15.0
	fiberFact      = 5.0
	consistentWeek = 70.0
)

var streakMilestones = map[int]string{
	7:  "One full week in a row! You are building a real habit.",
	30: "30 days in a row! Logging is part of your routine now.",
	90: "90 days in a row! That is a remarkable commitment to yourself.",
}

// FeedbackGenerator turns logged data into user-facing messages.
type FeedbackGenerator struct {
	tables  domain.Tables
	freezes int
}

// NewFeedbackGenerator creates a FeedbackGenerator. freezes is the number of
// missed days a streak may absorb.
func NewFeedbackGenerator(t domain.Tables, freezes int) *FeedbackGenerator {
	if freezes < 0 {
		freezes = 0
	}
	return &FeedbackGenerator{tables: t.Clone(), freezes: freezes}
}

// DescribeFood leads with positive nutrient facts.
func (g *FeedbackGenerator) DescribeFood(f domain.Food) domain.FoodFeedback {
	var facts []string
	if f.ProteinG > proteinFact {
		facts = append(facts, fmt.Sprintf("%.0fg of protein to keep you full", f.ProteinG))
	}
	if f.FiberG > fiberFact {
		facts = append(facts, fmt.Sprintf("%.0fg of fiber for digestion", f.FiberG))
	}
	for _, m := range f.Micronutrients {
		if hasTag(g.tables.HighlightMicronutrients, m) {
			facts = append(facts, "a source of "+strings.ToLower(strings.TrimSpace(m)))
		}
	}
	if len(facts) > 0 {
		return domain.FoodFeedback{
			Message: fmt.Sprintf("Nice choice! %s has %s.", displayName(f), strings.Join(facts, ", ")),
			Tone:    domain.TonePositive,
			Facts:   facts,
		}
	}

	if hasTag(f.Tags, "treat") {
		return domain.FoodFeedback{
			Message: "Enjoy it! Treats are part of a balanced week.",
			Tone:    domain.ToneNeutral,
		}
	}

	switch {
	case f.CarbsG > 0 && f.CarbsG >= 2*f.FatG:
		return domain.FoodFeedback{
			Message: fmt.Sprintf("%s gives you quick energy from carbohydrates. Pairing it with protein keeps you satisfied longer.", displayName(f)),
			Tone:    domain.ToneInformative,
		}
	case f.FatG > 0:
		return domain.FoodFeedback{
			Message: fmt.Sprintf("%s provides fats that help your body absorb vitamins. Adding vegetables rounds out the meal.", displayName(f)),
			Tone:    domain.ToneInformative,
		}
	}
	return domain.FoodFeedback{
		Message: "Logged. Every entry helps you see the bigger picture.",
		Tone:    domain.ToneInformative,
	}
}

func displayName(f domain.Food) string {
	if n := strings.TrimSpace(f.Name); n != "" {
		return n
	}
	return "This food"
}

// DescribeOverGoal explains a day that went past its target.
func (g *FeedbackGenerator) DescribeOverGoal(actual, target int) (domain.Feedback, error) {
	if target <= 0 {
		return domain.Feedback{}, errors.New("target must be > 0")
	}
	dev := deviation(actual, target)
	fb := domain.Feedback{DeviationPct: dev}
	switch {
	case dev < closeDeviation:
		fb.Tone = domain.TonePositive
		fb.Message = "Right around your target today. Nice work!"
	case dev <= overModerate:
		fb.Tone = domain.ToneNeutral
		fb.Message = fmt.Sprintf("You were about %.0f%% above your target today.", dev)
		fb.EducationalNote = "Daily intake naturally varies. One higher day has little effect on your weekly trend."
		fb.Question = "Was today more active or social than usual?"
	default:
		fb.Tone = domain.ToneCompassionate
		fb.Message = "Some days are bigger than others, and that is okay. Tomorrow is a fresh start."
		fb.EducationalNote = "Looking at the whole week gives a truer picture than any single day."
		fb.Question = "Would it help to plan a protein-rich breakfast tomorrow?"
	}
	return fb, nil
}

// DescribeUnderGoal explains a day that came in below its target. Severe
// undereating sets FlagForReview.
func (g *FeedbackGenerator) DescribeUnderGoal(actual, target int) (domain.Feedback, error) {
	if target <= 0 {
		return domain.Feedback{}, errors.New("target must be > 0")
	}
	dev := -deviation(actual, target)
	fb := domain.Feedback{DeviationPct: dev}
	switch {
	case dev < closeDeviation:
		fb.Tone = domain.TonePositive
		fb.Message = "Right on track today. Nice work!"
	case dev <= underModerate:
		fb.Tone = domain.ToneNeutral
		fb.Message = fmt.Sprintf("You were about %.0f%% below your target today.", dev)
		fb.EducationalNote = "Eating well below your target can leave you low on energy and more hungry tomorrow."
		fb.Question = "Did anything go unlogged today?"
	default:
		fb.Tone = domain.ToneConcerned
		fb.Message = "You ate a lot less than your body needs today. Fueling well helps you feel your best."
		fb.EducationalNote = "Very low intake can slow your metabolism and make progress harder."
		fb.Question = "How are you feeling today?"
		fb.FlagForReview = true
	}
	return fb, nil
}

func deviation(actual, target int) float64 {
	return math.Round(float64(actual-target)/float64(target)*1000) / 10
}

// Streak walks history from the newest day back. history is oldest first with
// one entry per calendar day.
func (g *FeedbackGenerator) Streak(history []domain.LogEntry) domain.Streak {
	freezes := g.freezes
	var run, longest, pending, misses int
	current, remaining := -1, 0

	closeRun := func() {
		if pending > 0 {
			freezes += pending
			pending = 0
		}
		if current < 0 {
			current, remaining = run, freezes
		}
		run = 0
	}

	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Logged {
			run += 1 + pending
			pending, misses = 0, 0
			longest = max(longest, run)
			continue
		}
		misses++
		if misses == 1 && freezes > 0 {
			freezes--
			pending++
			continue
		}
		closeRun()
	}
	closeRun()

	var logged int
	start := max(0, len(history)-7)
	for _, e := range history[start:] {
		if e.Logged {
			logged++
		}
	}
	weekly := math.Round(float64(logged)/7*1000) / 10

	s := domain.Streak{
		CurrentStreak:     current,
		LongestStreak:     longest,
		FreezesRemaining:  remaining,
		WeeklyConsistency: weekly,
	}
	switch msg, ok := streakMilestones[current]; {
	case ok:
		s.Message = msg
	case current < 3 && weekly >= consistentWeek:
		s.Message = fmt.Sprintf("You logged %d of the last 7 days. That consistency is what counts.", logged)
	case current == 0:
		s.Message = "Every day is a fresh start. Log a meal to begin a new streak."
	case current == 1:
		s.Message = "Day one of a new streak. Keep it going!"
	default:
		s.Message = fmt.Sprintf("%d days in a row. Keep it going!", current)
	}
	return s
}

// Validate reports whether msg is free of banned words. A hit is logged and
// the message is still returned to the caller unchanged.
func (g *FeedbackGenerator) Validate(msg string) bool {
	lower := strings.ToLower(msg)
	for _, w := range g.tables.BannedWords {
		if w != "" && strings.Contains(lower, strings.ToLower(w)) {
			logger.Warning("feedback message contains banned term %q", w)
			return false
		}
	}
	return true
}
