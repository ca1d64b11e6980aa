// Package cloud writes synced drafts to the hosted backend database through a
// pgx connection pool.
package cloud

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"wellness/internal/domain"
)

// Backend is the hosted backend. It implements domain.RemoteWriter.
type Backend struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

var _ domain.RemoteWriter = (*Backend)(nil)

// Open creates the pool and makes sure the synced_drafts table exists.
func Open(ctx context.Context, connStr string) (*Backend, error) {
	cfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parse cloud url: %w", err)
	}
	// Simple protocol keeps pooled servers from rejecting cached plans after schema changes.
	cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, err
	}

	b := &Backend{pool: pool, now: time.Now}
	if err := b.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return b, nil
}

// Close releases the pool.
func (b *Backend) Close() {
	b.pool.Close()
}

func (b *Backend) migrate(ctx context.Context) error {
	_, err := b.pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS synced_drafts (
		key TEXT PRIMARY KEY,
		payload JSONB NOT NULL,
		revision BIGINT NOT NULL DEFAULT 1,
		synced_at TIMESTAMPTZ NOT NULL)`)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// WriteDraft upserts the payload under key and bumps its revision.
func (b *Backend) WriteDraft(ctx context.Context, key string, payload json.RawMessage) error {
	if !json.Valid(payload) {
		return fmt.Errorf("write draft %q: invalid JSON payload", key)
	}
	_, err := b.pool.Exec(ctx, `
		INSERT INTO synced_drafts (key, payload, synced_at)
		VALUES (@key, @payload, @syncedAt)
		ON CONFLICT (key) DO UPDATE
		SET payload = EXCLUDED.payload,
			synced_at = EXCLUDED.synced_at,
			revision = synced_drafts.revision + 1`,
		pgx.NamedArgs{"key": key, "payload": string(payload), "syncedAt": b.now().UTC()})
	if err != nil {
		return fmt.Errorf("write draft %q: %w", key, err)
	}
	return nil
}
