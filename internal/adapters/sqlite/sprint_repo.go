package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	coresprint "github.com/example/taskly/internal/core/sprint"
	"github.com/example/taskly/internal/errs"
	"github.com/example/taskly/internal/ports/secondary"
)

const sprintColumns = "id, name, goal, start_date, end_date, item_ids, is_archived, is_tutorial, created_at, updated_at"

// SprintRepository implements secondary.SprintRepository with SQLite.
// Member ids are kept as a JSON array in item_ids.
type SprintRepository struct {
	db *sql.DB
}

// NewSprintRepository creates a new SQLite sprint repository.
func NewSprintRepository(db *sql.DB) *SprintRepository {
	return &SprintRepository{db: db}
}

// Create persists a new sprint and sets its ID.
func (r *SprintRepository) Create(ctx context.Context, sprint *secondary.SprintRecord) error {
	itemIDs, err := encodeItemIDs(sprint.ItemIDs)
	if err != nil {
		return errs.Store("encode sprint items", err)
	}

	result, err := conn(ctx, r.db).ExecContext(ctx,
		`INSERT INTO sprints (name, goal, start_date, end_date, item_ids, is_archived, is_tutorial)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sprint.Name, sprint.Goal, sprint.StartDate, sprint.EndDate, itemIDs, sprint.IsArchived, sprint.IsTutorial,
	)
	if err != nil {
		return errs.Store("create sprint", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return errs.Store("read new sprint id", err)
	}
	sprint.ID = id
	return nil
}

// GetByID retrieves a sprint by its ID.
func (r *SprintRepository) GetByID(ctx context.Context, id int64) (*secondary.SprintRecord, error) {
	row := conn(ctx, r.db).QueryRowContext(ctx,
		"SELECT "+sprintColumns+" FROM sprints WHERE id = ?", id)

	record, err := scanSprint(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.NotFound("sprint", id)
	}
	if err != nil {
		return nil, errs.Store("get sprint", err)
	}
	return record, nil
}

// GetActive retrieves the non-archived sprint of a partition, or nil.
func (r *SprintRepository) GetActive(ctx context.Context, isTutorial bool) (*secondary.SprintRecord, error) {
	row := conn(ctx, r.db).QueryRowContext(ctx,
		"SELECT "+sprintColumns+" FROM sprints WHERE is_tutorial = ? AND is_archived = 0 ORDER BY id DESC LIMIT 1",
		isTutorial)

	record, err := scanSprint(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Store("get active sprint", err)
	}
	return record, nil
}

// List retrieves sprints of a partition ordered by ID.
func (r *SprintRepository) List(ctx context.Context, filters secondary.SprintFilters) ([]*secondary.SprintRecord, error) {
	query := "SELECT " + sprintColumns + " FROM sprints WHERE is_tutorial = ?"
	args := []any{filters.IsTutorial}
	if filters.Archived != nil {
		query += " AND is_archived = ?"
		args = append(args, *filters.Archived)
	}
	query += " ORDER BY id ASC"

	rows, err := conn(ctx, r.db).QueryContext(ctx, query, args...)
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
	itemIDs, err := encodeItemIDs(sprint.ItemIDs)
	if err != nil {
		return errs.Store("encode sprint items", err)
	}

	result, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE sprints SET name = ?, goal = ?, start_date = ?, end_date = ?, item_ids = ?, is_archived = ?,
		 updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		sprint.Name, sprint.Goal, sprint.StartDate, sprint.EndDate, itemIDs, sprint.IsArchived, sprint.ID,
	)
	if err != nil {
		return errs.Store("update sprint", err)
	}
	return requireAffected(result, "sprint", sprint.ID)
}

// Delete removes a sprint from persistence.
func (r *SprintRepository) Delete(ctx context.Context, id int64) error {
	result, err := conn(ctx, r.db).ExecContext(ctx, "DELETE FROM sprints WHERE id = ?", id)
	if err != nil {
		return errs.Store("delete sprint", err)
	}
	return requireAffected(result, "sprint", id)
}

func scanSprint(s rowScanner) (*secondary.SprintRecord, error) {
	var (
		record    secondary.SprintRecord
		itemIDs   string
		createdAt time.Time
		updatedAt time.Time
	)
	err := s.Scan(&record.ID, &record.Name, &record.Goal, &record.StartDate, &record.EndDate, &itemIDs,
		&record.IsArchived, &record.IsTutorial, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	ids, err := decodeItemIDs(itemIDs)
	if err != nil {
		return nil, err
	}
	record.ItemIDs = ids
	record.CreatedAt = createdAt.Format(time.RFC3339)
	record.UpdatedAt = updatedAt.Format(time.RFC3339)
	return &record, nil
}

// encodeItemIDs stores the member set sorted and without duplicates.
func encodeItemIDs(ids []int64) (string, error) {
	b, err := json.Marshal(coresprint.NormalizeItemIDs(ids))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeItemIDs(raw string) ([]int64, error) {
	if raw == "" || raw == "null" {
		return []int64{}, nil
	}
	var ids []int64
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, err
	}
	return coresprint.NormalizeItemIDs(ids), nil
}

var _ secondary.SprintRepository = (*SprintRepository)(nil)
