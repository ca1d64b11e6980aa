package domain

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

// BiologicalTable holds the fixed biological adjustment amounts in kcal.
type BiologicalTable struct {
	CyclePhase          float64 `yaml:"cycle_phase"`
	Breastfeeding       float64 `yaml:"breastfeeding"`
	Hypothyroidism      float64 `yaml:"hypothyroidism"`
	PCOS                float64 `yaml:"pcos"`
	AgeDeclinePerDecade float64 `yaml:"age_decline_per_decade"`
	AgeDeclineFrom      int     `yaml:"age_decline_from"`
	Medication          float64 `yaml:"medication"`
}

// ContextTable holds the fixed same-day context adjustment amounts in kcal.
type ContextTable struct {
	SleepTargetHours    float64 `yaml:"sleep_target_hours"`
	SleepDeficitPerHour float64 `yaml:"sleep_deficit_per_hour"`
	HighStress          float64 `yaml:"high_stress"`
	Sick                float64 `yaml:"sick"`
	Travel              float64 `yaml:"travel"`
	HighActivity        float64 `yaml:"high_activity"`
	LowEnergy           float64 `yaml:"low_energy"`
}

// ProfileRule is what an active life-situation profile contributes.
type ProfileRule struct {
	Adjustments     map[string]float64 `yaml:"adjustments"`
	WorkoutOverride string             `yaml:"workout_override"`
	Recommendations []string           `yaml:"recommendations"`
}

// Tables is the immutable configuration every engine is constructed with.
// Use Clone before handing a copy to code that may outlive the caller's.
type Tables struct {
	ActivityMultipliers       map[ActivityLevel]float64  `yaml:"activity_multipliers"`
	DefaultActivityMultiplier float64                    `yaml:"default_activity_multiplier"`
	GoalOffsets               map[Goal]float64           `yaml:"goal_offsets"`
	Biological                BiologicalTable            `yaml:"biological"`
	AffectingMedications      []string                   `yaml:"affecting_medications"`
	Context                   ContextTable               `yaml:"context"`
	FlexBand                  float64                    `yaml:"flex_band"`
	Profiles                  map[ProfileKey]ProfileRule `yaml:"profiles"`
	METs                      map[string]float64         `yaml:"mets"`
	DefaultMET                float64                    `yaml:"default_met"`
	BannedWords               []string                   `yaml:"banned_words"`
	SourcePriority            []SourceType               `yaml:"source_priority"`
	HighlightMicronutrients   []string                   `yaml:"highlight_micronutrients"`
}

// DefaultTables returns the built-in constant tables.
func DefaultTables() Tables {
	return Tables{
		ActivityMultipliers: map[ActivityLevel]float64{
			ActivitySedentary:  1.2,
			ActivityLight:      1.375,
			ActivityModerate:   1.55,
			ActivityActive:     1.725,
			ActivityVeryActive: 1.9,
		},
		DefaultActivityMultiplier: 1.55,
		GoalOffsets: map[Goal]float64{
			GoalWeightLoss: -500,
			GoalWeightGain: 300,
			GoalMaintain:   0,
		},
		Biological: BiologicalTable{
			CyclePhase:          150,
			Breastfeeding:       500,
			Hypothyroidism:      -100,
			PCOS:                -50,
			AgeDeclinePerDecade: -25,
			AgeDeclineFrom:      30,
			Medication:          100,
		},
		AffectingMedications: []string{"antidepressants", "corticosteroids", "beta-blockers"},
		Context: ContextTable{
			SleepTargetHours:    7,
			SleepDeficitPerHour: 50,
			HighStress:          100,
			Sick:                150,
			Travel:              75,
			HighActivity:        200,
			LowEnergy:           50,
		},
		FlexBand: 150,
		Profiles: map[ProfileKey]ProfileRule{
			ProfileSick: {
				Adjustments:     map[string]float64{"recovery": 100},
				WorkoutOverride: "rest",
				Recommendations: []string{
					"Focus on fluids and warm, easy-to-digest meals",
					"Rest is productive today, skip the workout",
				},
			},
			ProfileTravel: {
				Adjustments:     map[string]float64{"travelBuffer": 100},
				WorkoutOverride: "bodyweight",
				Recommendations: []string{
					"Pack protein-rich snacks for the road",
					"A short bodyweight circuit in your room counts",
				},
			},
			ProfileHighStress: {
				Adjustments:     map[string]float64{"stressBuffer": 50},
				WorkoutOverride: "stress-relief",
				Recommendations: []string{
					"Choose calming movement like yoga or a walk",
					"Regular meals help keep energy steady under stress",
				},
			},
			ProfilePeriod: {
				Adjustments: map[string]float64{"cycleSupport": 100},
				Recommendations: []string{
					"Iron-rich foods like lentils and leafy greens help today",
					"Cravings are normal, listen to your body",
				},
			},
			ProfileBigEvent: {
				Adjustments: map[string]float64{"eventFlex": 200},
				Recommendations: []string{
					"Enjoy the event, one day does not define your progress",
					"A protein-rich breakfast makes the day easier",
				},
			},
			ProfileHighActivity: {
				Adjustments:     map[string]float64{"activityFuel": 200},
				WorkoutOverride: "recovery",
				Recommendations: []string{
					"Refuel with carbs and protein after training",
					"Keep a water bottle close all day",
				},
			},
		},
		METs: map[string]float64{
			"walking_3mph":     3.5,
			"walking_4mph":     5.0,
			"running_5mph":     8.3,
			"running_6mph":     9.8,
			"running_7mph":     11.0,
			"running_8mph":     11.8,
			"cycling_leisure":  4.0,
			"cycling_moderate": 8.0,
			"cycling_vigorous": 10.0,
			"swimming_leisure": 6.0,
			"swimming_laps":    8.0,
			"weight_training":  5.0,
			"yoga":             2.5,
			"hiit":             8.0,
			"rowing":           7.0,
			"elliptical":       5.0,
			"hiking":           6.0,
			"dancing":          4.5,
		},
		DefaultMET: 5.0,
		BannedWords: []string{
			"fail", "failed", "failure",
			"bad", "wrong",
			"warning", "danger", "dangerous",
			"cheat", "cheating",
			"unhealthy", "junk",
			"punish", "punishment",
			"guilt", "guilty",
		},
		SourcePriority: []SourceType{
			SourceUserManual,
			SourceVerifiedDB,
			SourceUserContributed,
			SourceEstimated,
			SourceGenericDB,
		},
		HighlightMicronutrients: []string{"vitamin c", "vitamin d", "iron", "calcium", "potassium", "magnesium", "omega-3"},
	}
}

// Validate reports every value that would break an engine's invariants, such
// as the flexibility band that keeps min < target < max.
func (t Tables) Validate() error {
	var errs []error
	if t.FlexBand <= 0 {
		errs = append(errs, fmt.Errorf("flex_band must be > 0, got %v", t.FlexBand))
	}
	if t.DefaultActivityMultiplier <= 0 {
		errs = append(errs, fmt.Errorf("default_activity_multiplier must be > 0, got %v", t.DefaultActivityMultiplier))
	}
	for _, level := range slices.Sorted(maps.Keys(t.ActivityMultipliers)) {
		if m := t.ActivityMultipliers[level]; m <= 0 {
			errs = append(errs, fmt.Errorf("activity_multipliers[%s] must be > 0, got %v", level, m))
		}
	}
	if t.DefaultMET <= 0 {
		errs = append(errs, fmt.Errorf("default_met must be > 0, got %v", t.DefaultMET))
	}
	for _, name := range slices.Sorted(maps.Keys(t.METs)) {
		if v := t.METs[name]; v <= 0 {
			errs = append(errs, fmt.Errorf("mets[%s] must be > 0, got %v", name, v))
		}
	}
	if len(t.SourcePriority) == 0 {
		errs = append(errs, errors.New("source_priority must not be empty"))
	}
	if len(t.BannedWords) == 0 {
		errs = append(errs, errors.New("banned_words must not be empty"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidTables, errors.Join(errs...))
	}
	return nil
}

// Clone returns a deep copy so engines never share mutable state with the caller.
func (t Tables) Clone() Tables {
	out := t
	out.ActivityMultipliers = maps.Clone(t.ActivityMultipliers)
	out.GoalOffsets = maps.Clone(t.GoalOffsets)
	out.METs = maps.Clone(t.METs)
	out.AffectingMedications = slices.Clone(t.AffectingMedications)
	out.BannedWords = slices.Clone(t.BannedWords)
	out.SourcePriority = slices.Clone(t.SourcePriority)
	out.HighlightMicronutrients = slices.Clone(t.HighlightMicronutrients)
	if t.Profiles != nil {
		out.Profiles = make(map[ProfileKey]ProfileRule, len(t.Profiles))
		for k, r := range t.Profiles {
			out.Profiles[k] = ProfileRule{
				Adjustments:     maps.Clone(r.Adjustments),
				WorkoutOverride: r.WorkoutOverride,
				Recommendations: slices.Clone(r.Recommendations),
			}
		}
	}
	return out
}
