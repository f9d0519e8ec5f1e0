// Package cli provides thin CLI adapters that translate between CLI concerns
// and application services. Adapters handle output formatting but delegate
// business logic to services.
package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/example/taskly/internal/core/backlog"
	"github.com/example/taskly/internal/ports/primary"
	"github.com/example/taskly/internal/view"
)

// ItemAdapter translates item commands to BacklogService calls.
type ItemAdapter struct {
	service primary.BacklogService
	out     io.Writer
}

// NewItemAdapter creates a new ItemAdapter.
func NewItemAdapter(service primary.BacklogService, out io.Writer) *ItemAdapter {
	return &ItemAdapter{service: service, out: out}
}

// Create creates an item.
func (a *ItemAdapter) Create(ctx context.Context, req primary.CreateItemRequest) (*primary.BacklogItem, error) {
	resp, err := a.service.CreateItem(ctx, req)
	if err != nil {
		return nil, err
	}
	fmt.Fprintln(a.out, success("Created %s #%d: %s", resp.Item.Type, resp.ItemID, resp.Item.Title))
	if resp.Item.SprintID != nil {
		fmt.Fprintf(a.out, "  joined sprint %s with its parent\n", idRef(resp.Item.SprintID))
	}
	return resp.Item, nil
}

// List prints a table of items.
func (a *ItemAdapter) List(ctx context.Context, filters primary.ItemFilters) error {
	items, err := a.service.ListItems(ctx, filters)
	if err != nil {
		return fmt.Errorf("failed to list items: %w", err)
	}
	if len(items) == 0 {
		fmt.Fprintln(a.out, "No items found")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tSTATUS\tPTS\tPARENT\tSPRINT\tTITLE")
	for _, it := range items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%s\t%s\n",
			it.ID, it.Type.Label(), it.Status.Label(), it.StoryPoints, idRef(it.ParentID), idRef(it.SprintID), it.Title)
	}
	return tw.Flush()
}

// Show prints one item.
func (a *ItemAdapter) Show(ctx context.Context, itemID int64) (*primary.BacklogItem, error) {
	it, err := a.service.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(a.out, "\n%s #%d %s\n", typeBadge(it.Type), it.ID, statusBadge(it.Status))
	fmt.Fprintf(a.out, "Title:    %s\n", it.Title)
	if it.Description != "" {
		fmt.Fprintf(a.out, "Description: %s\n", it.Description)
	}
	fmt.Fprintf(a.out, "Points:   %d\n", it.StoryPoints)
	fmt.Fprintf(a.out, "Priority: %d\n", it.Priority)
	fmt.Fprintf(a.out, "Parent:   %s\n", idRef(it.ParentID))
	fmt.Fprintf(a.out, "Sprint:   %s\n", idRef(it.SprintID))
	if it.IsTutorial {
		fmt.Fprintln(a.out, "Tutorial: yes")
	}
	fmt.Fprintf(a.out, "Created:  %s\n", it.CreatedAt)
	fmt.Fprintf(a.out, "Updated:  %s\n", it.UpdatedAt)
	fmt.Fprintln(a.out)
	return it, nil
}

// Edit applies an update request.
func (a *ItemAdapter) Edit(ctx context.Context, req primary.UpdateItemRequest) error {
	if req.Title == nil && req.Description == nil && req.Type == nil && req.StoryPoints == nil &&
		req.Priority == nil && req.ParentID == nil && !req.ClearParent {
		return fmt.Errorf("nothing to change: pass at least one field flag")
	}
	it, err := a.service.UpdateItem(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, success("Item #%d updated", it.ID))
	return nil
}

// SetStatus sets an item's status directly.
func (a *ItemAdapter) SetStatus(ctx context.Context, itemID int64, status backlog.Status) error {
	it, err := a.service.SetItemStatus(ctx, itemID, status)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, success("Item #%d is now %s", it.ID, statusBadge(it.Status)))
	return nil
}

// Advance moves an item one column right.
func (a *ItemAdapter) Advance(ctx context.Context, itemID int64) error {
	it, err := a.service.AdvanceItem(ctx, itemID)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, success("Item #%d moved to %s", it.ID, statusBadge(it.Status)))
	return nil
}

// Reverse moves an item one column left.
func (a *ItemAdapter) Reverse(ctx context.Context, itemID int64) error {
	it, err := a.service.ReverseItem(ctx, itemID)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, success("Item #%d moved back to %s", it.ID, statusBadge(it.Status)))
	return nil
}

// Delete deletes an item.
func (a *ItemAdapter) Delete(ctx context.Context, itemID int64) error {
	it, err := a.service.GetItem(ctx, itemID)
	if err != nil {
		return err
	}
	if err := a.service.DeleteItem(ctx, itemID); err != nil {
		return err
	}
	fmt.Fprintln(a.out, success("Deleted %s #%d: %s", it.Type, it.ID, it.Title))
	return nil
}

// Tree prints the epic > story > task hierarchy of one partition.
func (a *ItemAdapter) Tree(ctx context.Context, isTutorial bool) error {
	items, err := a.service.ListItems(ctx, primary.ItemFilters{IsTutorial: isTutorial})
	if err != nil {
		return fmt.Errorf("failed to list items: %w", err)
	}
	if len(items) == 0 {
		fmt.Fprintln(a.out, "No items found")
		return nil
	}
	RenderTree(a.out, view.BuildPlanning(view.Snapshot{Items: items}))
	return nil
}
