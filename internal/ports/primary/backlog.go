// Package primary defines the primary ports (driving adapters) for the application.
// The CLI and the views talk to the application only through these interfaces.
package primary

import (
	"context"

	"github.com/example/taskly/internal/core/backlog"
)

// BacklogService defines the primary port for backlog item operations.
type BacklogService interface {
	// CreateItem creates an item. Children of sprint members join the sprint.
	CreateItem(ctx context.Context, req CreateItemRequest) (*CreateItemResponse, error)

	// GetItem retrieves an item by ID.
	GetItem(ctx context.Context, itemID int64) (*BacklogItem, error)

	// ListItems lists items of one partition, ordered by ID.
	ListItems(ctx context.Context, filters ItemFilters) ([]*BacklogItem, error)

	// UpdateItem edits fields in place. Sprint membership is not editable here.
	UpdateItem(ctx context.Context, req UpdateItemRequest) (*BacklogItem, error)

	// SetItemStatus sets any status directly.
	SetItemStatus(ctx context.Context, itemID int64, status backlog.Status) (*BacklogItem, error)

	// AdvanceItem moves a sprint item one step along the workflow.
	AdvanceItem(ctx context.Context, itemID int64) (*BacklogItem, error)

	// ReverseItem moves a sprint item one step back.
	ReverseItem(ctx context.Context, itemID int64) (*BacklogItem, error)

	// DeleteItem deletes an item, orphaning its children.
	DeleteItem(ctx context.Context, itemID int64) error
}

// CreateItemRequest contains parameters for creating an item.
type CreateItemRequest struct {
	Title       string
	Description string
	Type        backlog.ItemType
	StoryPoints int
	Priority    int // 0 appends after the last item
	ParentID    *int64
	IsTutorial  bool
}

// CreateItemResponse contains the result of creating an item.
type CreateItemResponse struct {
	ItemID int64
	Item   *BacklogItem
}

// UpdateItemRequest contains parameters for editing an item.
// Nil fields are left unchanged.
type UpdateItemRequest struct {
	ItemID      int64
	Title       *string
	Description *string
	Type        *backlog.ItemType
	StoryPoints *int
	Priority    *int
	ParentID    *int64
	ClearParent bool
}

// ItemFilters contains filter options for listing items.
type ItemFilters struct {
	IsTutorial bool
	Type       backlog.ItemType
	Status     backlog.Status
	ParentID   *int64
	SprintID   *int64
}

// BacklogItem represents a backlog item at the port boundary.
type BacklogItem struct {
	ID          int64
	Title       string
	Description string
	StoryPoints int
	Priority    int
	Status      backlog.Status
	Type        backlog.ItemType
	SprintID    *int64
	ParentID    *int64
	IsTutorial  bool
	CreatedAt   string
	UpdatedAt   string
}

// Node returns the core view of the item.
func (i *BacklogItem) Node() backlog.Node {
	return backlog.Node{
		ID:         i.ID,
		Type:       i.Type,
		Status:     i.Status,
		ParentID:   i.ParentID,
		SprintID:   i.SprintID,
		IsTutorial: i.IsTutorial,
		Points:     i.StoryPoints,
	}
}
