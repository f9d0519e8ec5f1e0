package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	coresprint "github.com/example/taskly/internal/core/sprint"
	"github.com/example/taskly/internal/errs"
	"github.com/example/taskly/internal/ports/secondary"
)

const sprintColumns = "id, name, goal, start_date, end_date, item_ids, is_archived, is_tutorial, created_at, updated_at"

// SprintRepository implements secondary.SprintRepository with Postgres.
// Member ids are kept in a BIGINT[] column.
type SprintRepository struct {
	pool *pgxpool.Pool
}

// NewSprintRepository creates a new Postgres sprint repository.
func NewSprintRepository(pool *pgxpool.Pool) *SprintRepository {
	return &SprintRepository{pool: pool}
}

// Create persists a new sprint and sets its ID.
func (r *SprintRepository) Create(ctx context.Context, sprint *secondary.SprintRecord) error {
	err := conn(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO sprints (name, goal, start_date, end_date, item_ids, is_archived, is_tutorial)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		sprint.Name, sprint.Goal, sprint.StartDate, sprint.EndDate,
		coresprint.NormalizeItemIDs(sprint.ItemIDs), sprint.IsArchived, sprint.IsTutorial,
	).Scan(&sprint.ID)
	if err != nil {
		return errs.Store("create sprint", err)
	}
	return nil
}

// GetByID retrieves a sprint by its ID.
func (r *SprintRepository) GetByID(ctx context.Context, id int64) (*secondary.SprintRecord, error) {
	row := conn(ctx, r.pool).QueryRow(ctx,
		"SELECT "+sprintColumns+" FROM sprints WHERE id = $1", id)

	record, err := scanSprint(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.NotFound("sprint", id)
	}
	if err != nil {
		return nil, errs.Store("get sprint", err)
	}
	return record, nil
}

// GetActive retrieves the non-archived sprint of a partition, or nil.
func (r *SprintRepository) GetActive(ctx context.Context, isTutorial bool) (*secondary.SprintRecord, error) {
	row := conn(ctx, r.pool).QueryRow(ctx,
		"SELECT "+sprintColumns+" FROM sprints WHERE is_tutorial = $1 AND NOT is_archived ORDER BY id DESC LIMIT 1",
		isTutorial)

	record, err := scanSprint(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Store("get active sprint", err)
	}
	return record, nil
}

// List retrieves sprints of a partition ordered by ID.
func (r *SprintRepository) List(ctx context.Context, filters secondary.SprintFilters) ([]*secondary.SprintRecord, error) {
	query := "SELECT " + sprintColumns + " FROM sprints WHERE is_tutorial = $1"
	args := []any{filters.IsTutorial}
	if filters.Archived != nil {
		query += " AND is_archived = $2"
		args = append(args, *filters.Archived)
	}
	query += " ORDER BY id ASC"

	rows, err := conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, errs.Store("list sprints", err)
	}
	defer rows.Close()

	var sprints []*secondary.SprintRecord
	for rows.Next() {
		record, err := scanSprint(rows)
		if err != nil {
			return nil, errs.Store("scan sprint", err)
		}
		sprints = append(sprints, record)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Store("list sprints", err)
	}
	return sprints, nil
}

// Update writes every mutable field of an existing sprint.
func (r *SprintRepository) Update(ctx context.Context, sprint *secondary.SprintRecord) error {
	tag, err := conn(ctx, r.pool).Exec(ctx,
		`UPDATE sprints SET name = $1, goal = $2, start_date = $3, end_date = $4, item_ids = $5, is_archived = $6,
		 updated_at = now() WHERE id = $7`,
		sprint.Name, sprint.Goal, sprint.StartDate, sprint.EndDate,
		coresprint.NormalizeItemIDs(sprint.ItemIDs), sprint.IsArchived, sprint.ID,
	)
	if err != nil {
		return errs.Store("update sprint", err)
	}
	return requireAffected(tag, "sprint", sprint.ID)
}

// Delete removes a sprint from persistence.
func (r *SprintRepository) Delete(ctx context.Context, id int64) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, "DELETE FROM sprints WHERE id = $1", id)
	if err != nil {
		return errs.Store("delete sprint", err)
	}
	return requireAffected(tag, "sprint", id)
}

func scanSprint(row pgx.Row) (*secondary.SprintRecord, error) {
	var (
		record    secondary.SprintRecord
		itemIDs   []int64
		createdAt time.Time
		updatedAt time.Time
	)
	err := row.Scan(&record.ID, &record.Name, &record.Goal, &record.StartDate, &record.EndDate, &itemIDs,
		&record.IsArchived, &record.IsTutorial, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	record.ItemIDs = coresprint.NormalizeItemIDs(itemIDs)
	record.CreatedAt = createdAt.UTC().Format(time.RFC3339)
	record.UpdatedAt = updatedAt.UTC().Format(time.RFC3339)
	return &record, nil
}

var _ secondary.SprintRepository = (*SprintRepository)(nil)
