package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/example/taskly/internal/errs"
	"github.com/example/taskly/internal/ports/secondary"
)

const itemColumns = "id, title, description, story_points, priority, status, type, sprint_id, parent_id, is_tutorial, created_at, updated_at"

// BacklogItemRepository implements secondary.BacklogItemRepository with Postgres.
type BacklogItemRepository struct {
	pool *pgxpool.Pool
}

// NewBacklogItemRepository creates a new Postgres backlog item repository.
func NewBacklogItemRepository(pool *pgxpool.Pool) *BacklogItemRepository {
	return &BacklogItemRepository{pool: pool}
}

// Create persists a new item and sets its ID.
func (r *BacklogItemRepository) Create(ctx context.Context, item *secondary.BacklogItemRecord) error {
	err := conn(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO backlog_items (title, description, story_points, priority, status, type, sprint_id, parent_id, is_tutorial)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`,
		item.Title, item.Description, item.StoryPoints, item.Priority, item.Status, item.Type,
		item.SprintID, item.ParentID, item.IsTutorial,
	).Scan(&item.ID)
	if err != nil {
		return errs.Store("create item", err)
	}
	return nil
}

// GetByID retrieves an item by its ID.
func (r *BacklogItemRepository) GetByID(ctx context.Context, id int64) (*secondary.BacklogItemRecord, error) {
	row := conn(ctx, r.pool).QueryRow(ctx,
		"SELECT "+itemColumns+" FROM backlog_items WHERE id = $1", id)

	record, err := scanItem(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.NotFound("item", id)
	}
	if err != nil {
		return nil, errs.Store("get item", err)
	}
	return record, nil
}

// List retrieves items matching the filters, ordered by ID.
func (r *BacklogItemRepository) List(ctx context.Context, filters secondary.BacklogItemFilters) ([]*secondary.BacklogItemRecord, error) {
	where := []string{"is_tutorial = $1"}
	args := []any{filters.IsTutorial}
	add := func(clause string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf("%s = $%d", clause, len(args)))
	}

	if filters.Type != "" {
		add("type", filters.Type)
	}
	if filters.Status != "" {
		add("status", filters.Status)
	}
	if filters.ParentID != nil {
		add("parent_id", *filters.ParentID)
	}
	if filters.SprintID != nil {
		add("sprint_id", *filters.SprintID)
	}

	query := "SELECT " + itemColumns + " FROM backlog_items WHERE " + strings.Join(where, " AND ") + " ORDER BY id ASC"
	rows, err := conn(ctx, r.pool).Query(ctx, query, args...)
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
	tag, err := conn(ctx, r.pool).Exec(ctx,
		`UPDATE backlog_items SET title = $1, description = $2, story_points = $3, priority = $4, status = $5, type = $6,
		 sprint_id = $7, parent_id = $8, updated_at = now() WHERE id = $9`,
		item.Title, item.Description, item.StoryPoints, item.Priority, item.Status, item.Type,
		item.SprintID, item.ParentID, item.ID,
	)
	if err != nil {
		return errs.Store("update item", err)
	}
	return requireAffected(tag, "item", item.ID)
}

// Delete removes an item from persistence.
func (r *BacklogItemRepository) Delete(ctx context.Context, id int64) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, "DELETE FROM backlog_items WHERE id = $1", id)
	if err != nil {
		return errs.Store("delete item", err)
	}
	return requireAffected(tag, "item", id)
}

// Count returns the number of items in a partition.
func (r *BacklogItemRepository) Count(ctx context.Context, isTutorial bool) (int, error) {
	var count int
	err := conn(ctx, r.pool).QueryRow(ctx,
		"SELECT COUNT(*) FROM backlog_items WHERE is_tutorial = $1", isTutorial,
	).Scan(&count)
	if err != nil {
		return 0, errs.Store("count items", err)
	}
	return count, nil
}

func scanItem(row pgx.Row) (*secondary.BacklogItemRecord, error) {
	var (
		record    secondary.BacklogItemRecord
		createdAt time.Time
		updatedAt time.Time
	)
	err := row.Scan(&record.ID, &record.Title, &record.Description, &record.StoryPoints, &record.Priority,
		&record.Status, &record.Type, &record.SprintID, &record.ParentID, &record.IsTutorial, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	record.CreatedAt = createdAt.UTC().Format(time.RFC3339)
	record.UpdatedAt = updatedAt.UTC().Format(time.RFC3339)
	return &record, nil
}

func requireAffected(tag pgconn.CommandTag, entity string, id int64) error {
	if tag.RowsAffected() == 0 {
		return errs.NotFound(entity, id)
	}
	return nil
}

var _ secondary.BacklogItemRepository = (*BacklogItemRepository)(nil)
