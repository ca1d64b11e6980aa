package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"wellness/internal/domain"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, k := range []string{"ADDR", "DATABASE_URL", "CLOUD_DATABASE_URL", "TABLES_FILE", "STREAK_FREEZES",
		"EXERCISE_BUDGET_POLICY", "SYNC_DEBOUNCE", "SYNC_RETRY_DELAY", "SYNC_MAX_ATTEMPTS", "DRAFT_MAX_AGE"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Errorf("Addr = %q", cfg.Addr)
	}
	if cfg.StreakFreezes != 3 || cfg.SyncMaxAttempts != 3 {
		t.Errorf("unexpected counts: %+v", cfg)
	}
	if cfg.SyncDebounce != 500*time.Millisecond || cfg.SyncRetryDelay != 5*time.Second || cfg.DraftMaxAge != 24*time.Hour {
		t.Errorf("unexpected durations: %+v", cfg)
	}
	if cfg.BudgetPolicy != domain.BudgetHalf {
		t.Errorf("BudgetPolicy = %q", cfg.BudgetPolicy)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("ADDR", "")
	t.Setenv("SYNC_MAX_ATTEMPTS", "")
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("ADDR=:9999\nSYNC_MAX_ATTEMPTS=5\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	// godotenv never overrides variables already present, so unset them.
	os.Unsetenv("ADDR")
	os.Unsetenv("SYNC_MAX_ATTEMPTS")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":9999" || cfg.SyncMaxAttempts != 5 {
		t.Errorf("expected .env values, got %+v", cfg)
	}
}

func TestLoad_Invalid(t *testing.T) {
	t.Chdir(t.TempDir())
	tests := []struct {
		name, key, value string
	}{
		{"bad policy", "EXERCISE_BUDGET_POLICY", "double"},
		{"bad int", "STREAK_FREEZES", "three"},
		{"bad duration", "SYNC_DEBOUNCE", "soon"},
		{"zero attempts", "SYNC_MAX_ATTEMPTS", "0"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%s", tc.key, tc.value)
			}
		})
	}
}

func TestDecodeTables_Overlay(t *testing.T) {
	raw := []byte(`
activity_multipliers:
  sedentary: 1.25
mets:
  pickleball: 4.1
flex_band: 200
banned_words: [nope]
`)
	tb, err := DecodeTables(raw)
	if err != nil {
		t.Fatalf("DecodeTables: %v", err)
	}
	if tb.ActivityMultipliers[domain.ActivitySedentary] != 1.25 {
		t.Errorf("sedentary = %v", tb.ActivityMultipliers[domain.ActivitySedentary])
	}
	if tb.ActivityMultipliers[domain.ActivityActive] != 1.725 {
		t.Error("untouched multiplier lost its default")
	}
	if tb.METs["pickleball"] != 4.1 || tb.METs["running_6mph"] != 9.8 {
		t.Errorf("unexpected METs merge: %v", tb.METs)
	}
	if tb.FlexBand != 200 {
		t.Errorf("FlexBand = %v", tb.FlexBand)
	}
	if len(tb.BannedWords) != 1 || tb.BannedWords[0] != "nope" {
		t.Errorf("BannedWords = %v", tb.BannedWords)
	}
	if tb.DefaultMET != 5.0 {
		t.Error("absent scalar lost its default")
	}
}

func TestDecodeTables_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"zero flex band", "flex_band: 0\n"},
		{"negative flex band", "flex_band: -150\n"},
		{"zero default MET", "default_met: 0\n"},
		{"negative MET", "mets:\n  yoga: -2\n"},
		{"zero multiplier", "activity_multipliers:\n  active: 0\n"},
		{"empty source priority", "source_priority: []\n"},
		{"empty banned words", "banned_words: []\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tb, err := DecodeTables([]byte(tc.raw))
			if !errors.Is(err, domain.ErrInvalidTables) {
				t.Fatalf("expected ErrInvalidTables, got %v", err)
			}
			if tb.FlexBand != 150 {
				t.Errorf("invalid input should fall back to defaults, FlexBand = %v", tb.FlexBand)
			}
		})
	}
}

func TestLoadTables(t *testing.T) {
	tb, err := LoadTables("")
	if err != nil || tb.FlexBand != 150 {
		t.Fatalf("empty path should give defaults: %v %v", tb.FlexBand, err)
	}

	path := filepath.Join(t.TempDir(), "tables.yaml")
	if err := os.WriteFile(path, []byte("default_met: 6\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	tb, err = LoadTables(path)
	if err != nil {
		t.Fatalf("LoadTables: %v", err)
	}
	if tb.DefaultMET != 6 {
		t.Errorf("DefaultMET = %v", tb.DefaultMET)
	}

	if _, err := LoadTables(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := DecodeTables([]byte("flex_band: [")); err == nil {
		t.Error("expected decode error")
	}
}
