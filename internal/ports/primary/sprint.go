package primary

import (
	"context"
	"time"
)

// SprintService defines the primary port for the sprint lifecycle.
type SprintService interface {
	// CreateSprint creates the partition's active sprint. Fails with a
	// ConflictError when one is already active.
	CreateSprint(ctx context.Context, req CreateSprintRequest) (*Sprint, error)

	// GetSprint retrieves a sprint by ID.
	GetSprint(ctx context.Context, sprintID int64) (*Sprint, error)

	// GetActiveSprint returns the partition's active sprint, or nil.
	GetActiveSprint(ctx context.Context, isTutorial bool) (*Sprint, error)

	// ListSprints lists sprints of one partition.
	ListSprints(ctx context.Context, filters SprintFilters) ([]*Sprint, error)

	// UpdateSprint edits name, goal and dates.
	UpdateSprint(ctx context.Context, req UpdateSprintRequest) (*Sprint, error)

	// ArchiveCurrentSprint archives the partition's active sprint.
	ArchiveCurrentSprint(ctx context.Context, isTutorial bool) (*Sprint, error)

	// RestoreSprint makes an archived sprint active again, archiving the
	// current one in the same transaction.
	RestoreSprint(ctx context.Context, sprintID int64) (*Sprint, error)

	// DeleteSprint deletes a sprint and returns its items to the backlog.
	DeleteSprint(ctx context.Context, sprintID int64) error

	// AddItemToSprint adds an item (and a story's children) to the active sprint.
	AddItemToSprint(ctx context.Context, itemID int64) (*Sprint, error)

	// RemoveItemFromSprint removes an item (and a story's children) from the active sprint.
	RemoveItemFromSprint(ctx context.Context, itemID int64) (*Sprint, error)
}

// CreateSprintRequest contains parameters for creating a sprint.
// Zero dates take the configured defaults.
type CreateSprintRequest struct {
	Name       string
	Goal       string
	StartDate  time.Time
	EndDate    time.Time
	IsTutorial bool
}

// UpdateSprintRequest contains parameters for editing a sprint.
// Nil fields are left unchanged.
type UpdateSprintRequest struct {
	SprintID  int64
	Name      *string
	Goal      *string
	StartDate *time.Time
	EndDate   *time.Time
}

// SprintFilters contains filter options for listing sprints.
type SprintFilters struct {
	IsTutorial bool
	Archived   *bool
}

// Sprint represents a sprint at the port boundary. ItemIDs is sorted.
type Sprint struct {
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
