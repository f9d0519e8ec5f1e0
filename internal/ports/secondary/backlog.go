// Package secondary defines the secondary ports (driven adapters) for the application.
// These are the interfaces through which the application drives the store.
package secondary

import (
	"context"
	"time"
)

// BacklogItemRecord represents a backlog item as stored in persistence.
type BacklogItemRecord struct {
	ID          int64
	Title       string
	Description string // Empty string means null
	StoryPoints int
	Priority    int
	Status      string
	Type        string
	SprintID    *int64
	ParentID    *int64
	IsTutorial  bool
	CreatedAt   string
	UpdatedAt   string
}

// BacklogItemFilters contains filter options for listing items.
// The partition filter is always applied.
type BacklogItemFilters struct {
	IsTutorial bool
	Type       string
	Status     string
	ParentID   *int64
	SprintID   *int64
}

// BacklogItemRepository defines the secondary port for backlog item persistence.
type BacklogItemRepository interface {
	// Create persists a new item and sets its ID.
	Create(ctx context.Context, item *BacklogItemRecord) error

	// GetByID retrieves an item by its ID.
	GetByID(ctx context.Context, id int64) (*BacklogItemRecord, error)

	// List retrieves items matching the filters, ordered by ID.
	List(ctx context.Context, filters BacklogItemFilters) ([]*BacklogItemRecord, error)

	// Update writes every mutable field of an existing item.
	Update(ctx context.Context, item *BacklogItemRecord) error

	// Delete removes an item from persistence.
	Delete(ctx context.Context, id int64) error

	// Count returns the number of items in a partition.
	Count(ctx context.Context, isTutorial bool) (int, error)
}

// SprintRecord represents a sprint as stored in persistence.
type SprintRecord struct {
	ID         int64
	Name       string
	Goal       string
	StartDate  time.Time
	EndDate    time.Time
	ItemIDs    []int64
	IsArchived bool
	IsTutorial bool
	CreatedAt  string
	UpdatedAt  string
}

// SprintFilters contains filter options for listing sprints.
type SprintFilters struct {
	IsTutorial bool
	Archived   *bool // nil lists both
}

// SprintRepository defines the secondary port for sprint persistence.
type SprintRepository interface {
	// Create persists a new sprint and sets its ID.
	Create(ctx context.Context, sprint *SprintRecord) error

	// GetByID retrieves a sprint by its ID.
	GetByID(ctx context.Context, id int64) (*SprintRecord, error)

	// GetActive retrieves the non-archived sprint of a partition (nil if none).
	GetActive(ctx context.Context, isTutorial bool) (*SprintRecord, error)

	// List retrieves sprints matching the filters, ordered by ID.
	List(ctx context.Context, filters SprintFilters) ([]*SprintRecord, error)

	// Update writes every mutable field of an existing sprint, including
	// the item set and the archive flag.
	Update(ctx context.Context, sprint *SprintRecord) error

	// Delete removes a sprint from persistence.
	Delete(ctx context.Context, id int64) error
}
