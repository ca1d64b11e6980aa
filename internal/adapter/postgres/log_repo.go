package postgres

import (
	"context"

	"wellness/internal/domain"
)

// UpsertLogEntry writes the day's log summary, replacing an earlier one.
func (d *DB) UpsertLogEntry(ctx context.Context, userID int64, e domain.LogEntry) error {
	_, err := d.sql.ExecContext(ctx,
		`INSERT INTO log_entries(user_id, day, logged, calories, target) VALUES($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, day) DO UPDATE SET logged=EXCLUDED.logged, calories=EXCLUDED.calories, target=EXCLUDED.target;`,
		userID, e.Day, e.Logged, e.Calories, e.Target)
	return err
}

// ListLogEntries returns the most recent limit entries, oldest first.
func (d *DB) ListLogEntries(ctx context.Context, userID int64, limit int) ([]domain.LogEntry, error) {
	rows, err := d.sql.QueryContext(ctx,
		`SELECT day, logged, calories, target FROM (
			SELECT to_char(day, 'YYYY-MM-DD') AS day, logged, calories, target
			FROM log_entries WHERE user_id=$1 ORDER BY log_entries.day DESC LIMIT $2
		) recent ORDER BY day ASC;`,
		userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.LogEntry
	for rows.Next() {
		var e domain.LogEntry
		if err := rows.Scan(&e.Day, &e.Logged, &e.Calories, &e.Target); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
