// Package config loads process configuration from the environment and the
// optional constant-tables file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"wellness/internal/domain"
)

// Config holds every runtime setting.
type Config struct {
	Addr             string
	DatabaseURL      string
	CloudDatabaseURL string
	TablesFile       string
	StreakFreezes    int
	BudgetPolicy     domain.BudgetPolicy
	SyncDebounce     time.Duration
	SyncRetryDelay   time.Duration
	SyncMaxAttempts  int
	DraftMaxAge      time.Duration
}

// Load reads .env when present, then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		Addr:             env("ADDR", ":8080"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		CloudDatabaseURL: os.Getenv("CLOUD_DATABASE_URL"),
		TablesFile:       os.Getenv("TABLES_FILE"),
		BudgetPolicy:     domain.BudgetPolicy(env("EXERCISE_BUDGET_POLICY", string(domain.BudgetHalf))),
	}

	var err error
	if cfg.StreakFreezes, err = intEnv("STREAK_FREEZES", 3); err != nil {
		return nil, err
	}
	if cfg.SyncMaxAttempts, err = intEnv("SYNC_MAX_ATTEMPTS", 3); err != nil {
		return nil, err
	}
	if cfg.SyncDebounce, err = durationEnv("SYNC_DEBOUNCE", 500*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.SyncRetryDelay, err = durationEnv("SYNC_RETRY_DELAY", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.DraftMaxAge, err = durationEnv("DRAFT_MAX_AGE", 24*time.Hour); err != nil {
		return nil, err
	}

	switch cfg.BudgetPolicy {
	case domain.BudgetNone, domain.BudgetHalf, domain.BudgetFull:
	default:
		return nil, fmt.Errorf("EXERCISE_BUDGET_POLICY must be none, half or full, got %q", cfg.BudgetPolicy)
	}
	if cfg.SyncMaxAttempts < 1 {
		return nil, errors.New("SYNC_MAX_ATTEMPTS must be >= 1")
	}
	return cfg, nil
}

// LoadTables returns the default tables overlaid with the YAML file at path.
// An empty path returns the defaults.
func LoadTables(path string) (domain.Tables, error) {
	tables := domain.DefaultTables()
	if path == "" {
		return tables, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return tables, fmt.Errorf("read tables: %w", err)
	}
	return DecodeTables(raw)
}

// DecodeTables overlays YAML onto the default tables. Maps merge key by key;
// lists and scalars present in the document replace the default. The result
// must pass Tables.Validate.
func DecodeTables(raw []byte) (domain.Tables, error) {
	tables := domain.DefaultTables()
	if err := yaml.Unmarshal(raw, &tables); err != nil {
		return tables, fmt.Errorf("decode tables: %w", err)
	}
	if err := tables.Validate(); err != nil {
		return domain.DefaultTables(), fmt.Errorf("decode tables: %w", err)
	}
	return tables, nil
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
