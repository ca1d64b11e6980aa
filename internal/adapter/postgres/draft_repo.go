package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"wellness/internal/domain"
)

// PutDraft stores or replaces the draft under its key.
func (d *DB) PutDraft(ctx context.Context, dr domain.Draft) error {
	_, err := d.sql.ExecContext(ctx,
		`INSERT INTO local_drafts(key, payload, saved_at) VALUES($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET payload=EXCLUDED.payload, saved_at=EXCLUDED.saved_at;`,
		dr.Key, []byte(dr.Payload), dr.SavedAt.UTC())
	return err
}

// GetDraft returns the draft for key, or nil when none is stored.
func (d *DB) GetDraft(ctx context.Context, key string) (*domain.Draft, error) {
	var (
		dr      domain.Draft
		payload []byte
	)
	err := d.sql.QueryRowContext(ctx,
		"SELECT key, payload, saved_at FROM local_drafts WHERE key=$1;", key,
	).Scan(&dr.Key, &payload, &dr.SavedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	dr.Payload = json.RawMessage(payload)
	return &dr, nil
}

// DeleteDraft removes the draft for key. Missing keys are not an error.
func (d *DB) DeleteDraft(ctx context.Context, key string) error {
	_, err := d.sql.ExecContext(ctx, "DELETE FROM local_drafts WHERE key=$1;", key)
	return err
}

// ListDrafts returns every stored draft ordered by key.
func (d *DB) ListDrafts(ctx context.Context) ([]domain.Draft, error) {
	rows, err := d.sql.QueryContext(ctx, "SELECT key, payload, saved_at FROM local_drafts ORDER BY key;")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Draft
	for rows.Next() {
		var (
			dr      domain.Draft
			payload []byte
		)
		if err := rows.Scan(&dr.Key, &payload, &dr.SavedAt); err != nil {
			return nil, err
		}
		dr.Payload = json.RawMessage(payload)
		out = append(out, dr)
	}
	return out, rows.Err()
}
