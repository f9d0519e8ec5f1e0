// Package postgres contains Postgres implementations of repository interfaces
// for stores shared by several machines.
package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ChangeChannel is the LISTEN/NOTIFY channel signalled on every write.
const ChangeChannel = "taskly_changes"

// schemaStatements mirror the SQLite schema. Membership is a BIGINT[] and the
// revision trigger also notifies ChangeChannel.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS sprints (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		goal TEXT NOT NULL DEFAULT '',
		start_date TIMESTAMPTZ NOT NULL,
		end_date TIMESTAMPTZ NOT NULL,
		item_ids BIGINT[] NOT NULL DEFAULT '{}',
		is_archived BOOLEAN NOT NULL DEFAULT FALSE,
		is_tutorial BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sprints_partition ON sprints(is_tutorial, is_archived)`,
	`CREATE TABLE IF NOT EXISTS backlog_items (
		id BIGSERIAL PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		story_points INTEGER NOT NULL DEFAULT 0 CHECK (story_points >= 0),
		priority INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'backlog' CHECK (status IN ('backlog', 'todo', 'in_progress', 'review', 'done')),
		type TEXT NOT NULL CHECK (type IN ('epic', 'story', 'task', 'bug')),
		sprint_id BIGINT REFERENCES sprints(id) ON DELETE SET NULL,
		parent_id BIGINT REFERENCES backlog_items(id) ON DELETE SET NULL,
		is_tutorial BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_backlog_items_partition ON backlog_items(is_tutorial)`,
	`CREATE INDEX IF NOT EXISTS idx_backlog_items_parent ON backlog_items(parent_id)`,
	`CREATE INDEX IF NOT EXISTS idx_backlog_items_sprint ON backlog_items(sprint_id)`,
	`CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS store_revision (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		revision BIGINT NOT NULL DEFAULT 0
	)`,
	`INSERT INTO store_revision (id, revision) VALUES (1, 0) ON CONFLICT (id) DO NOTHING`,
	`CREATE OR REPLACE FUNCTION bump_store_revision() RETURNS trigger AS $$
	BEGIN
		UPDATE store_revision SET revision = revision + 1 WHERE id = 1;
		PERFORM pg_notify('` + ChangeChannel + `', '');
		RETURN NULL;
	END;
	$$ LANGUAGE plpgsql`,
	`DROP TRIGGER IF EXISTS trg_sprints_revision ON sprints`,
	`CREATE TRIGGER trg_sprints_revision AFTER INSERT OR UPDATE OR DELETE ON sprints
		FOR EACH STATEMENT EXECUTE FUNCTION bump_store_revision()`,
	`DROP TRIGGER IF EXISTS trg_items_revision ON backlog_items`,
	`CREATE TRIGGER trg_items_revision AFTER INSERT OR UPDATE OR DELETE ON backlog_items
		FOR EACH STATEMENT EXECUTE FUNCTION bump_store_revision()`,
	`DROP TRIGGER IF EXISTS trg_settings_revision ON settings`,
	`CREATE TRIGGER trg_settings_revision AFTER INSERT OR UPDATE OR DELETE ON settings
		FOR EACH STATEMENT EXECUTE FUNCTION bump_store_revision()`,
}

type migration struct {
	version    int
	name       string
	statements []string
}

var migrations = []migration{
	{version: 1, name: "create_backlog_sprints_settings", statements: schemaStatements},
	{version: 2, name: "seed_introduction_flag", statements: []string{
		`INSERT INTO settings (key, value) VALUES ('introduction_completed', 'false') ON CONFLICT (key) DO NOTHING`,
	}},
}

// Open connects a pool to dsn and migrates the schema.
func Open(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return pool, nil
}

// Migrate applies pending migrations, each in its own transaction.
// Concurrent migrators are serialized by an advisory lock.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`); err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	for _, m := range migrations {
		if err := applyMigration(ctx, pool, m); err != nil {
			return err
		}
	}
	return nil
}

func applyMigration(ctx context.Context, pool *pgxpool.Pool, m migration) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for migration %d: %w", m.version, err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", migrationLockKey); err != nil {
		return fmt.Errorf("failed to lock schema: %w", err)
	}

	var applied bool
	err = tx.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM schema_version WHERE version = $1)", m.version).Scan(&applied)
	if err != nil {
		return fmt.Errorf("failed to get current schema version: %w", err)
	}
	if applied {
		return nil
	}

	slog.InfoContext(ctx, "running migration", "version", m.version, "name", m.name)
	for _, stmt := range m.statements {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", m.version, err)
		}
	}
	if _, err := tx.Exec(ctx, "INSERT INTO schema_version (version) VALUES ($1)", m.version); err != nil {
		return fmt.Errorf("failed to record migration %d: %w", m.version, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit migration %d: %w", m.version, err)
	}
	return nil
}

// CurrentVersion returns the highest applied migration, 0 for a fresh store.
func CurrentVersion(ctx context.Context, pool *pgxpool.Pool) (int, error) {
	var version int
	err := pool.QueryRow(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to get current schema version: %w", err)
	}
	return version, nil
}

// LatestVersion is the schema version a fully migrated store reports.
func LatestVersion() int {
	return migrations[len(migrations)-1].version
}

const (
	migrationLockKey int64 = 0x7461736b6c79 // "taskly"
	writerLockKey    int64 = 0x7461736b6c7a
)
