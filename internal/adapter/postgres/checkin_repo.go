package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"wellness/internal/domain"
)

const checkInColumns = "user_id, to_char(day, 'YYYY-MM-DD'), sleep_hours, stress, energy, mood, situations, hunger"

// SaveCheckIn stores a check-in. A second check-in for the same day is
// rejected with domain.ErrCheckInExists.
func (d *DB) SaveCheckIn(ctx context.Context, c domain.DailyCheckIn) error {
	situations := make([]string, len(c.Situations))
	for i, s := range c.Situations {
		situations[i] = string(s)
	}
	_, err := d.sql.ExecContext(ctx,
		"INSERT INTO checkins(user_id, day, sleep_hours, stress, energy, mood, situations, hunger) VALUES($1, $2, $3, $4, $5, $6, $7, $8);",
		c.UserID, c.Day, c.SleepHours, string(c.Stress), string(c.Energy), c.Mood, pq.Array(situations), c.Hunger,
	)
	if isUniqueViolation(err) {
		return domain.ErrCheckInExists
	}
	return err
}

// GetCheckIn returns the check-in for a day, or nil when there is none.
func (d *DB) GetCheckIn(ctx context.Context, userID int64, day string) (*domain.DailyCheckIn, error) {
	row := d.sql.QueryRowContext(ctx,
		"SELECT "+checkInColumns+" FROM checkins WHERE user_id=$1 AND day=$2;", userID, day)
	c, err := scanCheckIn(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

// ListCheckIns returns the user's most recent check-ins up to limit, oldest first.
func (d *DB) ListCheckIns(ctx context.Context, userID int64, limit int) ([]domain.DailyCheckIn, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT * FROM (SELECT "+checkInColumns+" FROM checkins WHERE user_id=$1 ORDER BY day DESC LIMIT $2) recent ORDER BY 2 ASC;",
		userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.DailyCheckIn
	for rows.Next() {
		c, err := scanCheckIn(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCheckIn(s scanner) (*domain.DailyCheckIn, error) {
	var (
		c              domain.DailyCheckIn
		stress, energy string
		situations     []string
	)
	if err := s.Scan(&c.UserID, &c.Day, &c.SleepHours, &stress, &energy, &c.Mood, pq.Array(&situations), &c.Hunger); err != nil {
		return nil, err
	}
	c.Stress = domain.Level(stress)
	c.Energy = domain.Level(energy)
	c.Situations = make([]domain.Situation, len(situations))
	for i, s := range situations {
		c.Situations[i] = domain.Situation(s)
	}
	return &c, nil
}
