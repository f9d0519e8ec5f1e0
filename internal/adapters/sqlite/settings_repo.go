package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/example/taskly/internal/errs"
	"github.com/example/taskly/internal/ports/secondary"
)

// SettingsRepository implements secondary.SettingsRepository with SQLite.
type SettingsRepository struct {
	db *sql.DB
}

// NewSettingsRepository creates a new SQLite settings repository.
func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get returns the value stored under key and whether it was set.
func (r *SettingsRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := conn(ctx, r.db).QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errs.Store("get setting", err)
	}
	return value, true, nil
}

// Set stores value under key, replacing any previous value.
func (r *SettingsRepository) Set(ctx context.Context, key, value string) error {
	_, err := conn(ctx, r.db).ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, value,
	)
	if err != nil {
		return errs.Store("set setting", err)
	}
	return nil
}

// Delete removes key. Missing keys are not an error.
func (r *SettingsRepository) Delete(ctx context.Context, key string) error {
	if _, err := conn(ctx, r.db).ExecContext(ctx, "DELETE FROM settings WHERE key = ?", key); err != nil {
		return errs.Store("delete setting", err)
	}
	return nil
}

var _ secondary.SettingsRepository = (*SettingsRepository)(nil)
