package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// migrations are applied in order, each in its own transaction.
var migrations = []struct {
	Version string
	SQL     string
}{
	{
		Version: "000001_create_sessions",
		SQL: `
			CREATE TABLE IF NOT EXISTS sessions (
				id           VARCHAR(32)  PRIMARY KEY,
				created_at   TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
				expires_at   TIMESTAMPTZ  NOT NULL,
				closed_at    TIMESTAMPTZ,
				close_reason VARCHAR(16)
			);
			CREATE INDEX IF NOT EXISTS idx_sessions_closed_at ON sessions(closed_at);
		`,
	},
	{
		Version: "000002_create_commands",
		SQL: `
			CREATE TABLE IF NOT EXISTS commands (
				id           BIGSERIAL    PRIMARY KEY,
				session_id   VARCHAR(32)  NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
				line         TEXT         NOT NULL,
				command      VARCHAR(64)  NOT NULL,
				output       TEXT         NOT NULL DEFAULT '',
				error        TEXT,
				duration_us  BIGINT       NOT NULL DEFAULT 0,
				executed_at  TIMESTAMPTZ  NOT NULL DEFAULT NOW()
			);
			CREATE INDEX IF NOT EXISTS idx_commands_session_id ON commands(session_id, id);
		`,
	},
}

// DB wraps a pgxpool connection pool and provides health checks and migrations.
type DB struct {
	Pool *pgxpool.Pool
}

// New creates a new database connection pool.
func New(ctx context.Context, databaseURL string) (*DB, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	slog.Info("connected to database")
	return &DB{Pool: pool}, nil
}

// RunMigrations applies all pending database migrations in order.
func (db *DB) RunMigrations(ctx context.Context) error {
	_, err := db.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version VARCHAR(255) PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	for _, m := range migrations {
		applied, err := db.isApplied(ctx, m.Version)
		if err != nil {
			return err
		}
		if applied {
			continue
		}

		err = pgx.BeginFunc(ctx, db.Pool, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, m.SQL); err != nil {
				return fmt.Errorf("failed to execute migration %s: %w", m.Version, err)
			}
			if _, err := tx.Exec(ctx, "INSERT INTO schema_migrations (version) VALUES ($1)", m.Version); err != nil {
				return fmt.Errorf("failed to record migration %s: %w", m.Version, err)
			}
			return nil
		})
		if err != nil {
			return err
		}

		slog.Info("applied migration", "version", m.Version)
	}

	return nil
}

func (db *DB) isApplied(ctx context.Context, version string) (bool, error) {
	var exists bool
	err := db.Pool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)",
		version,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check migration status for %s: %w", version, err)
	}
	return exists, nil
}

// HealthCheck verifies the database connection is alive.
func (db *DB) HealthCheck(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

// Close shuts down the connection pool.
func (db *DB) Close() {
	db.Pool.Close()
}
