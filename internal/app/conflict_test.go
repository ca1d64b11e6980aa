package app_test

import (
	"strings"
	"testing"

	"wellness/internal/app"
	"wellness/internal/domain"
)

func newResolver() *app.CalorieResolver {
	return app.NewCalorieResolver(domain.DefaultTables())
}

func TestResolveConflict_WideSpreadShowsRange(t *testing.T) {
	res, err := newResolver().ResolveConflict([]domain.CalorieSource{
		{Type: domain.SourceEstimated, Calories: 800},
		{Type: domain.SourceUserManual, Calories: 500},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.IsRange || !res.NeedsUserChoice {
		t.Errorf("expected a range with a user choice, got %+v", res)
	}
	if res.PrimaryValue != 500 {
		t.Errorf("primary = %v; want the user_manual value 500", res.PrimaryValue)
	}
	if res.DisplayValue != "500-800 cal" {
		t.Errorf("display = %q", res.DisplayValue)
	}
	if res.Sources[0].Type != domain.SourceUserManual {
		t.Errorf("sources should be trust ordered, got %v", res.Sources)
	}
	if !strings.Contains(res.Prompt, "estimated: 800 cal") {
		t.Errorf("prompt should list every source, got %q", res.Prompt)
	}
}

func TestResolveConflict_NarrowSpreadPicksMostTrusted(t *testing.T) {
	r := newResolver()
	for range 3 {
		res, err := r.ResolveConflict([]domain.CalorieSource{
			{Type: domain.SourceUserManual, Calories: 500},
			{Type: domain.SourceEstimated, Calories: 510},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.DisplayValue != "500 cal" || res.IsRange || res.NeedsUserChoice {
			t.Errorf("unexpected resolution: %+v", res)
		}
	}
}

func TestResolveConflict_TrustOrder(t *testing.T) {
	res, err := newResolver().ResolveConflict([]domain.CalorieSource{
		{Type: "scanner", Calories: 300},
		{Type: domain.SourceGenericDB, Calories: 300},
		{Type: domain.SourceUserContributed, Calories: 300},
		{Type: domain.SourceVerifiedDB, Calories: 300},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got []string
	for _, s := range res.Sources {
		got = append(got, string(s.Type))
	}
	want := "verified_database,user_contributed,generic_database,scanner"
	if strings.Join(got, ",") != want {
		t.Errorf("order = %v; want %s", got, want)
	}
	if res.SpreadPct != 0 {
		t.Errorf("spread = %v; want 0", res.SpreadPct)
	}
}

func TestResolveConflict_Errors(t *testing.T) {
	r := newResolver()
	if _, err := r.ResolveConflict(nil); err == nil {
		t.Error("expected error for no sources")
	}
	if _, err := r.ResolveConflict([]domain.CalorieSource{{Type: domain.SourceUserManual, Calories: -5}}); err == nil {
		t.Error("expected error for negative calories")
	}
}

func TestEstimateExerciseCalories(t *testing.T) {
	tests := []struct {
		name       string
		ex         domain.Exercise
		weight     float64
		minutes    float64
		calories   int
		low, high  int
		confidence string
	}{
		{"running without heart rate", domain.Exercise{Type: "running_6mph"}, 70, 60, 686, 514, 858, domain.ConfidenceMedium},
		{"unknown type uses default MET", domain.Exercise{Type: "trampoline"}, 80, 30, 200, 150, 250, domain.ConfidenceMedium},
		// 686 * (0.8 + 0.4*150/200) = 754.6
		{"heart rate blend", domain.Exercise{Type: "running_6mph", AvgHeartRate: 150, MaxHeartRate: 200}, 70, 60, 755, 641, 868, domain.ConfidenceHigh},
	}
	r := newResolver()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			est, err := r.EstimateExerciseCalories(tc.ex, tc.weight, tc.minutes)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if est.Calories != tc.calories || est.Low != tc.low || est.High != tc.high || est.Confidence != tc.confidence {
				t.Errorf("got %d [%d,%d] %s; want %d [%d,%d] %s",
					est.Calories, est.Low, est.High, est.Confidence, tc.calories, tc.low, tc.high, tc.confidence)
			}
		})
	}

	if _, err := r.EstimateExerciseCalories(domain.Exercise{Type: "yoga"}, 0, 30); err == nil {
		t.Error("expected error for zero weight")
	}
	if _, err := r.EstimateExerciseCalories(domain.Exercise{Type: "yoga"}, 70, 0); err == nil {
		t.Error("expected error for zero duration")
	}
}

func TestApplyExerciseCalories(t *testing.T) {
	tests := []struct {
		policy domain.BudgetPolicy
		want   int
	}{
		{domain.BudgetNone, 2000},
		{domain.BudgetHalf, 2151},
		{domain.BudgetFull, 2301},
		{"unknown", 2000},
	}
	for _, tc := range tests {
		if got := app.ApplyExerciseCalories(2000, 301, tc.policy); got != tc.want {
			t.Errorf("%s: got %d; want %d", tc.policy, got, tc.want)
		}
	}
}
