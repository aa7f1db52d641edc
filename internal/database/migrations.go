package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type migration struct {
	version int
	name    string
	sql     string
}

// migrations применяются по порядку; версии идут подряд начиная с 1.
var migrations = []migration{
	{
		version: 1,
		name:    "users",
		sql: `
CREATE EXTENSION IF NOT EXISTS pgcrypto;

CREATE TABLE IF NOT EXISTS users (
	id            UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	name          TEXT,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`,
	},
	{
		version: 2,
		name:    "refresh_tokens",
		sql: `
CREATE TABLE IF NOT EXISTS refresh_tokens (
	id          UUID PRIMARY KEY,
	user_id     UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	token_hash  TEXT NOT NULL,
	expires_at  TIMESTAMPTZ NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	revoked_at  TIMESTAMPTZ,
	replaced_by UUID
);

CREATE INDEX IF NOT EXISTS refresh_tokens_user_id_idx ON refresh_tokens (user_id);`,
	},
	{
		version: 3,
		name:    "todo_lists",
		sql: `
CREATE TABLE IF NOT EXISTS todo_lists (
	user_id     UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	storage_key TEXT NOT NULL,
	payload     JSONB NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (user_id, storage_key)
);`,
	},
	{
		version: 4,
		name:    "ai_requests",
		sql: `
CREATE TABLE IF NOT EXISTS ai_requests (
	id               UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	user_id          UUID REFERENCES users(id) ON DELETE SET NULL,
	request_type     TEXT NOT NULL,
	provider         TEXT NOT NULL,
	model            TEXT NOT NULL,
	prompt           TEXT NOT NULL,
	request_payload  JSONB,
	response_payload JSONB,
	raw_response     TEXT NOT NULL DEFAULT '',
	success          BOOLEAN NOT NULL,
	error_message    TEXT,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS ai_requests_created_at_idx ON ai_requests (created_at DESC);`,
	},
}

// Migrate применяет недостающие миграции, каждую в своей транзакции.
func Migrate(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	if _, err := pool.Exec(ctx,
		`CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			name       TEXT NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	var current int
	if err := pool.QueryRow(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}

		err := pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, m.sql); err != nil {
				return err
			}
			_, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`, m.version, m.name)
			return err
		})
		if err != nil {
			return fmt.Errorf("apply migration v%d %s: %w", m.version, m.name, err)
		}

		logger.Info("migration applied", slog.Int("version", m.version), slog.String("name", m.name))
	}

	return nil
}
