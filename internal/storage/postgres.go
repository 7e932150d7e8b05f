package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/abduss/assethost/internal/config"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	defaultDBTimeout = 5 * time.Second
	migrateTimeout   = 30 * time.Second
)

// schema is applied idempotently at startup. Encodings are stored as a JSON
// document keyed by encoding label; chunk bytes live in the object store.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS assets (
    full_path   TEXT PRIMARY KEY,
    collection  TEXT NOT NULL,
    owner       TEXT NOT NULL,
    token       TEXT,
    name        TEXT NOT NULL,
    description TEXT,
    headers     JSONB NOT NULL DEFAULT '[]'::jsonb,
    encodings   JSONB NOT NULL DEFAULT '{}'::jsonb,
    created_at  TIMESTAMPTZ NOT NULL,
    updated_at  TIMESTAMPTZ NOT NULL
);`,
	`CREATE INDEX IF NOT EXISTS assets_collection_idx ON assets (collection);`,
}

// NewPostgresPool connects to PostgreSQL using pgx.
func NewPostgresPool(ctx context.Context, cfg config.PostgresConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultDBTimeout)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return pool, nil
}

// Migrate creates the asset tables if they do not exist yet.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(ctx, migrateTimeout)
	defer cancel()

	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
