package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/example/taskly/internal/errs"
	"github.com/example/taskly/internal/ports/secondary"
)

// MaintenanceRepository implements secondary.MaintenanceRepository with Postgres.
type MaintenanceRepository struct {
	pool *pgxpool.Pool
}

// NewMaintenanceRepository creates a new Postgres maintenance repository.
func NewMaintenanceRepository(pool *pgxpool.Pool) *MaintenanceRepository {
	return &MaintenanceRepository{pool: pool}
}

// DeleteAll removes items and sprints, optionally only from the tutorial partition.
func (r *MaintenanceRepository) DeleteAll(ctx context.Context, tutorialOnly bool) error {
	q := conn(ctx, r.pool)
	if tutorialOnly {
		if _, err := q.Exec(ctx, "DELETE FROM backlog_items WHERE is_tutorial"); err != nil {
			return errs.Store("delete tutorial items", err)
		}
		if _, err := q.Exec(ctx, "DELETE FROM sprints WHERE is_tutorial"); err != nil {
			return errs.Store("delete tutorial sprints", err)
		}
		return nil
	}

	if _, err := q.Exec(ctx, "DELETE FROM backlog_items"); err != nil {
		return errs.Store("delete items", err)
	}
	if _, err := q.Exec(ctx, "DELETE FROM sprints"); err != nil {
		return errs.Store("delete sprints", err)
	}
	return nil
}

// Revision returns the write counter maintained by the schema triggers.
func (r *MaintenanceRepository) Revision(ctx context.Context) (int64, error) {
	var revision int64
	err := conn(ctx, r.pool).QueryRow(ctx, "SELECT revision FROM store_revision WHERE id = 1").Scan(&revision)
	if err != nil {
		return 0, errs.Store("read store revision", err)
	}
	return revision, nil
}

var _ secondary.MaintenanceRepository = (*MaintenanceRepository)(nil)
