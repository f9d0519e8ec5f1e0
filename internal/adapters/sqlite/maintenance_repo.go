package sqlite

import (
	"context"
	"database/sql"

	"github.com/example/taskly/internal/errs"
	"github.com/example/taskly/internal/ports/secondary"
)

// MaintenanceRepository implements secondary.MaintenanceRepository with SQLite.
type MaintenanceRepository struct {
	db *sql.DB
}

// NewMaintenanceRepository creates a new SQLite maintenance repository.
func NewMaintenanceRepository(db *sql.DB) *MaintenanceRepository {
	return &MaintenanceRepository{db: db}
}

// DeleteAll removes items and sprints, optionally only from the tutorial partition.
// Items go first so no row is left pointing at a removed sprint.
func (r *MaintenanceRepository) DeleteAll(ctx context.Context, tutorialOnly bool) error {
	q := conn(ctx, r.db)
	if tutorialOnly {
		if _, err := q.ExecContext(ctx, "DELETE FROM backlog_items WHERE is_tutorial = 1"); err != nil {
			return errs.Store("delete tutorial items", err)
		}
		if _, err := q.ExecContext(ctx, "DELETE FROM sprints WHERE is_tutorial = 1"); err != nil {
			return errs.Store("delete tutorial sprints", err)
		}
		return nil
	}

	if _, err := q.ExecContext(ctx, "DELETE FROM backlog_items"); err != nil {
		return errs.Store("delete items", err)
	}
	if _, err := q.ExecContext(ctx, "DELETE FROM sprints"); err != nil {
		return errs.Store("delete sprints", err)
	}
	return nil
}

// Revision returns the write counter maintained by the schema triggers.
func (r *MaintenanceRepository) Revision(ctx context.Context) (int64, error) {
	var revision int64
	err := conn(ctx, r.db).QueryRowContext(ctx, "SELECT revision FROM store_revision WHERE id = 1").Scan(&revision)
	if err != nil {
		return 0, errs.Store("read store revision", err)
	}
	return revision, nil
}

var _ secondary.MaintenanceRepository = (*MaintenanceRepository)(nil)
