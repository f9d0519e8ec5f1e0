package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/example/taskly/internal/errs"
	"github.com/example/taskly/internal/ports/secondary"
)

// SettingsRepository implements secondary.SettingsRepository with Postgres.
type SettingsRepository struct {
	pool *pgxpool.Pool
}

// NewSettingsRepository creates a new Postgres settings repository.
func NewSettingsRepository(pool *pgxpool.Pool) *SettingsRepository {
	return &SettingsRepository{pool: pool}
}

// Get returns the value stored under key and whether it was set.
func (r *SettingsRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := conn(ctx, r.pool).QueryRow(ctx, "SELECT value FROM settings WHERE key = $1", key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errs.Store("get setting", err)
	}
	return value, true, nil
}

// Set stores value under key, replacing any previous value.
func (r *SettingsRepository) Set(ctx context.Context, key, value string) error {
	_, err := conn(ctx, r.pool).Exec(ctx,
		`INSERT INTO settings (key, value) VALUES ($1, $2)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		key, value,
	)
	if err != nil {
		return errs.Store("set setting", err)
	}
	return nil
}

// Delete removes key. Missing keys are not an error.
func (r *SettingsRepository) Delete(ctx context.Context, key string) error {
	if _, err := conn(ctx, r.pool).Exec(ctx, "DELETE FROM settings WHERE key = $1", key); err != nil {
		return errs.Store("delete setting", err)
	}
	return nil
}

var _ secondary.SettingsRepository = (*SettingsRepository)(nil)
