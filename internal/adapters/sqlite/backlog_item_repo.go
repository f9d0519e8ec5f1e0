package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/example/taskly/internal/errs"
	"github.com/example/taskly/internal/ports/secondary"
)

const itemColumns = "id, title, description, story_points, priority, status, type, sprint_id, parent_id, is_tutorial, created_at, updated_at"

// BacklogItemRepository implements secondary.BacklogItemRepository with SQLite.
type BacklogItemRepository struct {
	db *sql.DB
}

// NewBacklogItemRepository creates a new SQLite backlog item repository.
func NewBacklogItemRepository(db *sql.DB) *BacklogItemRepository {
	return &BacklogItemRepository{db: db}
}

// Create persists a new item and sets its ID.
func (r *BacklogItemRepository) Create(ctx context.Context, item *secondary.BacklogItemRecord) error {
	result, err := conn(ctx, r.db).ExecContext(ctx,
		`INSERT INTO backlog_items (title, description, story_points, priority, status, type, sprint_id, parent_id, is_tutorial)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.Title, item.Description, item.StoryPoints, item.Priority, item.Status, item.Type,
		nullID(item.SprintID), nullID(item.ParentID), item.IsTutorial,
	)
	if err != nil {
		return errs.Store("create item", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return errs.Store("read new item id", err)
	}
	item.ID = id
	return nil
}

// GetByID retrieves an item by its ID.
func (r *BacklogItemRepository) GetByID(ctx context.Context, id int64) (*secondary.BacklogItemRecord, error) {
	row := conn(ctx, r.db).QueryRowContext(ctx,
		"SELECT "+itemColumns+" FROM backlog_items WHERE id = ?", id)

	record, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.NotFound("item", id)
	}
	if err != nil {
		return nil, errs.Store("get item", err)
	}
	return record, nil
}

// List retrieves items matching the filters, ordered by ID.
func (r *BacklogItemRepository) List(ctx context.Context, filters secondary.BacklogItemFilters) ([]*secondary.BacklogItemRecord, error) {
	where := []string{"is_tutorial = ?"}
	args := []any{filters.IsTutorial}

	if filters.Type != "" {
		where = append(where, "type = ?")
		args = append(args, filters.Type)
	}
	if filters.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filters.Status)
	}
	if filters.ParentID != nil {
		where = append(where, "parent_id = ?")
		args = append(args, *filters.ParentID)
	}
	if filters.SprintID != nil {
		where = append(where, "sprint_id = ?")
		args = append(args, *filters.SprintID)
	}

	query := "SELECT " + itemColumns + " FROM backlog_items WHERE " + strings.Join(where, " AND ") + " ORDER BY id ASC"
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errs.Store("list items", err)
	}
	defer rows.Close()

	var items []*secondary.BacklogItemRecord
	for rows.Next() {
		record, err := scanItem(rows)
		if err != nil {
			return nil, errs.Store("scan item", err)
		}
		items = append(items, record)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Store("list items", err)
	}
	return items, nil
}

// Update writes every mutable field of an existing item.
func (r *BacklogItemRepository) Update(ctx context.Context, item *secondary.BacklogItemRecord) error {
	result, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE backlog_items SET title = ?, description = ?, story_points = ?, priority = ?, status = ?, type = ?,
		 sprint_id = ?, parent_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		item.Title, item.Description, item.StoryPoints, item.Priority, item.Status, item.Type,
		nullID(item.SprintID), nullID(item.ParentID), item.ID,
	)
	if err != nil {
		return errs.Store("update item", err)
	}
	return requireAffected(result, "item", item.ID)
}

// Delete removes an item from persistence.
func (r *BacklogItemRepository) Delete(ctx context.Context, id int64) error {
	result, err := conn(ctx, r.db).ExecContext(ctx, "DELETE FROM backlog_items WHERE id = ?", id)
	if err != nil {
		return errs.Store("delete item", err)
	}
	return requireAffected(result, "item", id)
}

// Count returns the number of items in a partition.
func (r *BacklogItemRepository) Count(ctx context.Context, isTutorial bool) (int, error) {
	var count int
	err := conn(ctx, r.db).QueryRowContext(ctx,
		"SELECT COUNT(*) FROM backlog_items WHERE is_tutorial = ?", isTutorial,
	).Scan(&count)
	if err != nil {
		return 0, errs.Store("count items", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(s rowScanner) (*secondary.BacklogItemRecord, error) {
	var (
		record    secondary.BacklogItemRecord
		sprintID  sql.NullInt64
		parentID  sql.NullInt64
		createdAt time.Time
		updatedAt time.Time
	)
	err := s.Scan(&record.ID, &record.Title, &record.Description, &record.StoryPoints, &record.Priority,
		&record.Status, &record.Type, &sprintID, &parentID, &record.IsTutorial, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	record.SprintID = idFromNull(sprintID)
	record.ParentID = idFromNull(parentID)
	record.CreatedAt = createdAt.Format(time.RFC3339)
	record.UpdatedAt = updatedAt.Format(time.RFC3339)
	return &record, nil
}

func nullID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

func idFromNull(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func requireAffected(result sql.Result, entity string, id int64) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errs.Store("read affected rows", err)
	}
	if rowsAffected == 0 {
		return errs.NotFound(entity, id)
	}
	return nil
}

var _ secondary.BacklogItemRepository = (*BacklogItemRepository)(nil)
