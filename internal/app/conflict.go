package app

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"wellness/internal/domain"
)

const rangeSpreadPct = 20.0

// CalorieResolver reconciles calorie values from several sources and
// estimates exercise burn from the MET table.
type CalorieResolver struct {
	rank       map[domain.SourceType]int
	mets       map[string]float64
	defaultMET float64
}

// NewCalorieResolver creates a CalorieResolver from the source priority and MET tables.
func NewCalorieResolver(t domain.Tables) *CalorieResolver {
	t = t.Clone()
	rank := make(map[domain.SourceType]int, len(t.SourcePriority))
	for i, s := range t.SourcePriority {
		rank[s] = i
	}
	return &CalorieResolver{rank: rank, mets: t.METs, defaultMET: t.DefaultMET}
}

func (r *CalorieResolver) trust(s domain.SourceType) int {
	if i, ok := r.rank[s]; ok {
		return i
	}
	return len(r.rank)
}

// ResolveConflict orders sources by trust and decides whether the values are
// close enough to show one number.
func (r *CalorieResolver) ResolveConflict(sources []domain.CalorieSource) (*domain.Resolution, error) {
	if len(sources) == 0 {
		return nil, errors.New("at least one calorie source is required")
	}
	sorted := slices.Clone(sources)
	slices.SortStableFunc(sorted, func(a, b domain.CalorieSource) int {
		return r.trust(a.Type) - r.trust(b.Type)
	})

	lo, hi, sum := math.Inf(1), math.Inf(-1), 0.0
	for _, s := range sorted {
		if s.Calories < 0 {
			return nil, fmt.Errorf("source %s: calories must be >= 0", s.Type)
		}
		lo = math.Min(lo, s.Calories)
		hi = math.Max(hi, s.Calories)
		sum += s.Calories
	}
	mean := sum / float64(len(sorted))
	var spread float64
	if mean > 0 {
		spread = (hi - lo) / mean * 100
	}

	res := &domain.Resolution{
		PrimaryValue: sorted[0].Calories,
		Min:          lo,
		Max:          hi,
		SpreadPct:    math.Round(spread*10) / 10,
		Sources:      sorted,
	}
	if spread <= rangeSpreadPct {
		res.DisplayValue = fmt.Sprintf("%.0f cal", res.PrimaryValue)
		return res, nil
	}

	res.IsRange = true
	res.NeedsUserChoice = true
	res.DisplayValue = fmt.Sprintf("%.0f-%.0f cal", lo, hi)
	parts := make([]string, len(sorted))
	for i, s := range sorted {
		label := s.Label
		if label == "" {
			label = string(s.Type)
		}
		parts[i] = fmt.Sprintf("%s: %.0f cal", label, s.Calories)
	}
	res.Prompt = "These sources disagree (" + strings.Join(parts, ", ") + "). Which one matches what you ate?"
	return res, nil
}

// EstimateExerciseCalories multiplies MET by body weight and hours. Heart
// rate data, when both values are present, narrows the range.
func (r *CalorieResolver) EstimateExerciseCalories(ex domain.Exercise, weightKG, minutes float64) (*domain.ExerciseEstimate, error) {
	if weightKG <= 0 {
		return nil, errors.New("weight must be > 0")
	}
	if minutes <= 0 {
		return nil, errors.New("duration must be > 0")
	}
	met, ok := r.mets[ex.Type]
	if !ok {
		met = r.defaultMET
	}
	kcal := met * weightKG * (minutes / 60)

	spread, confidence := 0.25, domain.ConfidenceMedium
	if ex.AvgHeartRate > 0 && ex.MaxHeartRate > 0 {
		kcal *= 0.8 + 0.4*ex.AvgHeartRate/ex.MaxHeartRate
		spread, confidence = 0.15, domain.ConfidenceHigh
	}
	return &domain.ExerciseEstimate{
		Calories:   int(math.Round(kcal)),
		Low:        int(math.Floor(kcal * (1 - spread))),
		High:       int(math.Ceil(kcal * (1 + spread))),
		MET:        met,
		Confidence: confidence,
	}, nil
}

// ApplyExerciseCalories returns the calorie budget after crediting burned
// calories under policy. Unknown policies credit nothing.
func ApplyExerciseCalories(budget, burned int, policy domain.BudgetPolicy) int {
	switch policy {
	case domain.BudgetHalf:
		return budget + int(math.Round(float64(burned)/2))
	case domain.BudgetFull:
		return budget + burned
	default:
		return budget
	}
}
