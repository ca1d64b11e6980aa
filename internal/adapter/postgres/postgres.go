// Package postgres implements the durable local store on PostgreSQL through
// database/sql and lib/pq.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"wellness/internal/domain"
)

// DB wraps a *sql.DB and implements domain repository interfaces.
type DB struct {
	sql *sql.DB
}

var _ domain.WeightRepository = (*DB)(nil)
var _ domain.ProfileRepository = (*DB)(nil)
var _ domain.CheckInRepository = (*DB)(nil)
var _ domain.LogRepository = (*DB)(nil)
var _ domain.DraftStore = (*DB)(nil)

// Open connects to PostgreSQL, pings, and runs migrations.
func Open(connStr string) (*DB, error) {
	s, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	s.SetMaxOpenConns(10)
	s.SetMaxIdleConns(5)
	s.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.PingContext(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}

	d := &DB{sql: s}
	if err := d.migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return d, nil
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	return d.sql.Close()
}

func (d *DB) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS user_profiles (
			user_id BIGINT PRIMARY KEY,
			weight_kg DOUBLE PRECISION,
			height_cm DOUBLE PRECISION,
			age INTEGER,
			gender TEXT CHECK(gender IN ('male','female')),
			activity_level TEXT NOT NULL DEFAULT '',
			goal TEXT NOT NULL DEFAULT '',
			medical_conditions TEXT[] NOT NULL DEFAULT '{}',
			medications TEXT[] NOT NULL DEFAULT '{}',
			breastfeeding BOOLEAN NOT NULL DEFAULT FALSE,
			cycle_phase TEXT,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL);`,
		"CREATE TABLE IF NOT EXISTS weight_events (id BIGSERIAL PRIMARY KEY, user_id BIGINT NOT NULL, value DOUBLE PRECISION NOT NULL, unit TEXT NOT NULL CHECK(unit IN ('kg','lb')), created_at TIMESTAMPTZ NOT NULL);",
		"CREATE INDEX IF NOT EXISTS idx_weight_events_user_created ON weight_events(user_id, created_at);",
		"CREATE TABLE IF NOT EXISTS log_entries (user_id BIGINT NOT NULL, day DATE NOT NULL, logged BOOLEAN NOT NULL, calories INTEGER NOT NULL, target INTEGER NOT NULL, PRIMARY KEY (user_id, day));",
		`CREATE TABLE IF NOT EXISTS checkins (
			user_id BIGINT NOT NULL,
			day DATE NOT NULL,
			sleep_hours DOUBLE PRECISION NOT NULL CHECK(sleep_hours BETWEEN 0 AND 12),
			stress TEXT NOT NULL,
			energy TEXT NOT NULL,
			mood INTEGER NOT NULL CHECK(mood BETWEEN 1 AND 10),
			situations TEXT[] NOT NULL DEFAULT '{}',
			hunger INTEGER NOT NULL CHECK(hunger BETWEEN 1 AND 10),
			PRIMARY KEY (user_id, day));`,
		"CREATE TABLE IF NOT EXISTS local_drafts (key TEXT PRIMARY KEY, payload JSONB NOT NULL, saved_at TIMESTAMPTZ NOT NULL);",
		"CREATE INDEX IF NOT EXISTS idx_local_drafts_saved_at ON local_drafts(saved_at);",
	}

	for _, stmt := range stmts {
		if _, err := d.sql.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique_violation.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
