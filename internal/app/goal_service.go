package app

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"wellness/internal/domain"
)

const (
	adherenceWindowDays = 14
	trendWindow         = 28
	trendMinPoints      = 14
	underRatio          = 0.8
	overRatio           = 1.2
	patternShare        = 0.6
	steadyDelta         = 300
	onTrackRate         = 0.8
)

// GoalCalculator computes a daily calorie range from a profile and the day's
// check-in.
type GoalCalculator struct {
	tables domain.Tables
}

// NewGoalCalculator creates a GoalCalculator over a private copy of t.
func NewGoalCalculator(t domain.Tables) *GoalCalculator {
	return &GoalCalculator{tables: t.Clone()}
}

// BMR returns the Mifflin-St Jeor baseline for the profile.
func (c *GoalCalculator) BMR(p *domain.UserProfile) (float64, error) {
	if err := requireBiometrics(p); err != nil {
		return 0, err
	}
	base := 10*(*p.WeightKG) + 6.25*(*p.HeightCM) - 5*float64(*p.Age)
	switch *p.Gender {
	case domain.GenderMale:
		return base + 5, nil
	case domain.GenderFemale:
		return base - 161, nil
	default:
		return 0, fmt.Errorf("%w: %q", domain.ErrUnsupportedGender, *p.Gender)
	}
}

// ComputeDailyGoal runs every adjustment step and assembles the range.
func (c *GoalCalculator) ComputeDailyGoal(p *domain.UserProfile, checkIn domain.DailyCheckIn) (*domain.CalorieGoal, error) {
	bmr, err := c.BMR(p)
	if err != nil {
		return nil, err
	}

	mult, ok := c.tables.ActivityMultipliers[p.ActivityLevel]
	if !ok {
		mult = c.tables.DefaultActivityMultiplier
	}
	tdee := bmr * mult
	goalAdj := c.tables.GoalOffsets[p.Goal]

	var reasons []string
	bio := c.biological(p)
	ctx := c.contextual(checkIn)
	for _, a := range append(bio, ctx...) {
		reasons = append(reasons, a.Reason)
	}

	adherence := c.Adherence(p.LogHistory, checkIn.Day)
	trend := c.Trend(p.WeightHistory, p.Goal)
	reasons = append(reasons, adherence.Message, trend.Message)
	reasons = slices.DeleteFunc(reasons, func(s string) bool { return s == "" })

	b := domain.Breakdown{
		BMR:                  bmr,
		TDEE:                 tdee,
		GoalAdjustment:       goalAdj,
		BiologicalAdjustment: sumAdjustments(bio),
		ContextAdjustment:    sumAdjustments(ctx),
		AdherenceAdjustment:  adherence.Adjustment,
		TrendAdjustment:      trend.Adjustment,
	}
	total := tdee + b.GoalAdjustment + b.BiologicalAdjustment + b.ContextAdjustment +
		b.AdherenceAdjustment + b.TrendAdjustment

	target := int(math.Round(total))
	band := int(math.Round(c.tables.FlexBand))
	g := &domain.CalorieGoal{
		Min:       target - band,
		Target:    target,
		Max:       target + band,
		Breakdown: b,
		Reasons:   reasons,
		Adherence: adherence,
		Trend:     trend,
	}
	if g.Reasons == nil {
		g.Reasons = []string{}
	}
	g.Message = c.message(g, checkIn)
	return g, nil
}

func requireBiometrics(p *domain.UserProfile) error {
	if p == nil {
		return &domain.MissingProfileFieldError{Fields: []string{"weight", "height", "age", "gender"}}
	}
	var missing []string
	if p.WeightKG == nil {
		missing = append(missing, "weight")
	}
	if p.HeightCM == nil {
		missing = append(missing, "height")
	}
	if p.Age == nil {
		missing = append(missing, "age")
	}
	if p.Gender == nil {
		missing = append(missing, "gender")
	}
	if len(missing) == 0 {
		return nil
	}
	return &domain.MissingProfileFieldError{
		Fields:   missing,
		WeightKG: p.WeightKG,
		HeightCM: p.HeightCM,
		Age:      p.Age,
		Gender:   p.Gender,
	}
}

func (c *GoalCalculator) biological(p *domain.UserProfile) []domain.Adjustment {
	t := c.tables.Biological
	var out []domain.Adjustment

	if p.CyclePhase != nil && (*p.CyclePhase == domain.PhaseLuteal || *p.CyclePhase == domain.PhaseMenstruation) {
		out = append(out, domain.Adjustment{Amount: t.CyclePhase,
			Reason: fmt.Sprintf("%s phase: %+.0f kcal for higher energy needs", *p.CyclePhase, t.CyclePhase)})
	}
	if p.Breastfeeding {
		out = append(out, domain.Adjustment{Amount: t.Breastfeeding,
			Reason: fmt.Sprintf("Breastfeeding: %+.0f kcal to support milk production", t.Breastfeeding)})
	}
	if hasTag(p.MedicalConditions, "hypothyroidism") {
		out = append(out, domain.Adjustment{Amount: t.Hypothyroidism,
			Reason: fmt.Sprintf("Hypothyroidism: %+.0f kcal for a slower metabolism", t.Hypothyroidism)})
	}
	if hasTag(p.MedicalConditions, "pcos") {
		out = append(out, domain.Adjustment{Amount: t.PCOS,
			Reason: fmt.Sprintf("PCOS: %+.0f kcal for insulin sensitivity", t.PCOS)})
	}
	if age := *p.Age; age > t.AgeDeclineFrom {
		if decades := (age - t.AgeDeclineFrom) / 10; decades > 0 {
			amt := t.AgeDeclinePerDecade * float64(decades)
			out = append(out, domain.Adjustment{Amount: amt,
				Reason: fmt.Sprintf("Age %d: %+.0f kcal for metabolic change over time", age, amt)})
		}
	}
	for _, m := range p.Medications {
		if hasTag(c.tables.AffectingMedications, m) {
			out = append(out, domain.Adjustment{Amount: t.Medication,
				Reason: fmt.Sprintf("Medication (%s): %+.0f kcal", m, t.Medication)})
			break
		}
	}
	return out
}

// contextual stacks every same-day adjustment that applies.
func (c *GoalCalculator) contextual(ci domain.DailyCheckIn) []domain.Adjustment {
	t := c.tables.Context
	var out []domain.Adjustment

	if ci.SleepHours < t.SleepTargetHours {
		amt := (t.SleepTargetHours - ci.SleepHours) * t.SleepDeficitPerHour
		out = append(out, domain.Adjustment{Amount: amt,
			Reason: fmt.Sprintf("Short sleep (%.1fh): %+.0f kcal to steady energy", ci.SleepHours, amt)})
	}
	if ci.Stress == domain.LevelHigh {
		out = append(out, domain.Adjustment{Amount: t.HighStress,
			Reason: fmt.Sprintf("High stress: %+.0f kcal so you are not running on empty", t.HighStress)})
	}
	if ci.Has(domain.SituationSick) {
		out = append(out, domain.Adjustment{Amount: t.Sick,
			Reason: fmt.Sprintf("Feeling sick: %+.0f kcal for recovery", t.Sick)})
	}
	if ci.Has(domain.SituationTravel) {
		out = append(out, domain.Adjustment{Amount: t.Travel,
			Reason: fmt.Sprintf("Travel day: %+.0f kcal of flexibility", t.Travel)})
	}
	if ci.Has(domain.SituationHighActivity) {
		out = append(out, domain.Adjustment{Amount: t.HighActivity,
			Reason: fmt.Sprintf("High activity: %+.0f kcal to fuel training", t.HighActivity)})
	}
	if ci.Energy == domain.LevelLow {
		out = append(out, domain.Adjustment{Amount: t.LowEnergy,
			Reason: fmt.Sprintf("Low energy: %+.0f kcal", t.LowEnergy)})
	}
	return out
}

// Adherence scores the logged days in the 14 days before day. When day is
// empty or unparseable the last 14 entries are used.
func (c *GoalCalculator) Adherence(history []domain.LogEntry, day string) domain.Adherence {
	var logged []domain.LogEntry
	for _, e := range adherenceWindow(history, day) {
		if e.Logged && e.Target > 0 {
			logged = append(logged, e)
		}
	}
	if len(logged) == 0 {
		return domain.Adherence{
			Status:  domain.AdherenceNewUser,
			Message: "Welcome! Log a few days and your range will adapt to you.",
		}
	}

	var under, over, onTarget int
	for _, e := range logged {
		ratio := float64(e.Calories) / float64(e.Target)
		switch {
		case ratio < underRatio:
			under++
		case ratio > overRatio:
			over++
		default:
			onTarget++
		}
	}
	n := float64(len(logged))
	a := domain.Adherence{
		Status:        domain.AdherenceMixed,
		DaysLogged:    len(logged),
		UnderFraction: float64(under) / n,
		OverFraction:  float64(over) / n,
		Rate:          float64(onTarget) / n,
	}

	switch {
	case a.UnderFraction > patternShare:
		a.Status = domain.AdherenceTooAggressive
		a.Adjustment = 150
		a.Message = "Your target looks too aggressive, so we added 150 kcal to make it sustainable."
	case a.OverFraction > patternShare:
		if steadyIntake(logged) {
			a.Status = domain.AdherenceConsistentOver
			a.Adjustment = -100
			a.Message = "You have been a little over most days, so your range moved down 100 kcal to meet you halfway."
		} else {
			a.Status = domain.AdherenceBingePattern
			a.Message = "Some days run bigger than others. That is normal, and your range stays the same."
		}
	}
	if a.Rate > onTrackRate {
		if a.Status == domain.AdherenceMixed {
			a.Status = domain.AdherenceOnTrack
		}
		a.Message = fmt.Sprintf("You hit your range on %d of %d logged days. Great consistency!", onTarget, len(logged))
	}
	return a
}

func adherenceWindow(history []domain.LogEntry, day string) []domain.LogEntry {
	end, err := domain.ParseDay(day)
	if err != nil {
		if len(history) > adherenceWindowDays {
			return history[len(history)-adherenceWindowDays:]
		}
		return history
	}
	start := end.AddDate(0, 0, -adherenceWindowDays)
	var out []domain.LogEntry
	for _, e := range history {
		d, err := domain.ParseDay(e.Day)
		if err != nil {
			continue
		}
		if !d.Before(start) && d.Before(end) {
			out = append(out, e)
		}
	}
	return out
}

func steadyIntake(entries []domain.LogEntry) bool {
	for i := 1; i < len(entries); i++ {
		d := entries[i].Calories - entries[i-1].Calories
		if d < 0 {
			d = -d
		}
		if d >= steadyDelta {
			return false
		}
	}
	return true
}

// Trend fits a least-squares line over the last 28 weight points.
func (c *GoalCalculator) Trend(history []domain.WeightPoint, goal domain.Goal) domain.Trend {
	if len(history) > trendWindow {
		history = history[len(history)-trendWindow:]
	}
	tr := domain.Trend{Points: len(history)}
	if len(history) < trendMinPoints {
		tr.Status = domain.TrendInsufficientData
		tr.Message = fmt.Sprintf("Still building your baseline: %d of %d weigh-ins so far.", len(history), trendMinPoints)
		return tr
	}

	ys := make([]float64, len(history))
	for i, p := range history {
		ys[i] = p.WeightKG
	}
	tr.WeeklyRateKG = slope(ys) * 7

	if goal != domain.GoalWeightLoss {
		tr.Status = domain.TrendNotApplicable
		return tr
	}
	switch {
	case tr.WeeklyRateKG > -0.25:
		tr.Status = domain.TrendTooSlow
		tr.Adjustment = -50
		tr.Message = fmt.Sprintf("Progress has slowed (%.2f kg/week), so your range tightened by 50 kcal.", tr.WeeklyRateKG)
	case tr.WeeklyRateKG < -1.2:
		tr.Status = domain.TrendTooFast
		tr.Adjustment = 100
		tr.Message = fmt.Sprintf("You are losing %.2f kg/week, which is hard to sustain. We added 100 kcal.", -tr.WeeklyRateKG)
	default:
		tr.Status = domain.TrendOnPace
		tr.Message = fmt.Sprintf("Perfect pace at %.2f kg/week. Keep doing what you are doing!", -tr.WeeklyRateKG)
	}
	return tr
}

// slope is the OLS slope of ys against their index.
func slope(ys []float64) float64 {
	n := float64(len(ys))
	var sx, sy, sxy, sxx float64
	for i, y := range ys {
		x := float64(i)
		sx += x
		sy += y
		sxy += x * y
		sxx += x * x
	}
	den := n*sxx - sx*sx
	if den == 0 {
		return 0
	}
	return (n*sxy - sx*sy) / den
}

func (c *GoalCalculator) message(g *domain.CalorieGoal, ci domain.DailyCheckIn) string {
	rng := fmt.Sprintf("%d-%d kcal", g.Min, g.Max)
	switch {
	case ci.Has(domain.SituationSick):
		return "Rest up and focus on recovery. Today's range is " + rng + "."
	case ci.SleepHours < c.tables.Context.SleepTargetHours:
		return "Short night? Your range has a little extra room today: " + rng + "."
	case ci.Stress == domain.LevelHigh:
		return "Stressful day ahead. Regular meals will help, aim for " + rng + "."
	default:
		return "Your range for today is " + rng + "."
	}
}

func sumAdjustments(as []domain.Adjustment) float64 {
	var sum float64
	for _, a := range as {
		sum += a.Amount
	}
	return sum
}

func hasTag(tags []string, want string) bool {
	for _, t := range tags {
		if strings.EqualFold(strings.TrimSpace(t), want) {
			return true
		}
	}
	return false
}

// dayBefore returns the YYYY-MM-DD string for the day before day.
func dayBefore(day string) string {
	d, err := domain.ParseDay(day)
	if err != nil {
		return ""
	}
	return d.AddDate(0, 0, -1).Format(domain.DayLayout)
}

func localDay(t time.Time) string {
	return t.In(time.Local).Format(domain.DayLayout)
}
