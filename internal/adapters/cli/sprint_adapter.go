package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/example/taskly/internal/ports/primary"
)

const dateLayout = "2006-01-02"

// SprintAdapter translates sprint commands to SprintService calls.
type SprintAdapter struct {
	service primary.SprintService
	items   primary.BacklogService
	out     io.Writer
}

// NewSprintAdapter creates a new SprintAdapter. items is used to show member titles.
func NewSprintAdapter(service primary.SprintService, items primary.BacklogService, out io.Writer) *SprintAdapter {
	return &SprintAdapter{service: service, items: items, out: out}
}

// Create creates the active sprint.
func (a *SprintAdapter) Create(ctx context.Context, req primary.CreateSprintRequest) (*primary.Sprint, error) {
	sp, err := a.service.CreateSprint(ctx, req)
	if err != nil {
		return nil, err
	}
	fmt.Fprintln(a.out, success("Created sprint #%d: %s (%s → %s)",
		sp.ID, sp.Name, sp.StartDate.Format(dateLayout), sp.EndDate.Format(dateLayout)))
	return sp, nil
}

// Show prints the active sprint and its listed members.
func (a *SprintAdapter) Show(ctx context.Context, isTutorial bool) error {
	sp, err := a.service.GetActiveSprint(ctx, isTutorial)
	if err != nil {
		return err
	}
	if sp == nil {
		fmt.Fprintln(a.out, "No active sprint")
		return nil
	}
	a.printSprint(sp)

	if len(sp.ItemIDs) == 0 {
		fmt.Fprintln(a.out, muted("  no items yet; add one with `taskly sprint add <id>`"))
		return nil
	}
	fmt.Fprintln(a.out, "Items:")
	for _, id := range sp.ItemIDs {
		it, err := a.items.GetItem(ctx, id)
		if err != nil {
			fmt.Fprintf(a.out, "  #%d %s\n", id, muted("(missing)"))
			continue
		}
		fmt.Fprintf(a.out, "  #%d %s %s %s\n", it.ID, typeBadge(it.Type), statusBadge(it.Status), it.Title)
	}
	fmt.Fprintln(a.out)
	return nil
}

func (a *SprintAdapter) printSprint(sp *primary.Sprint) {
	state := "active"
	if sp.IsArchived {
		state = "archived"
	}
	fmt.Fprintf(a.out, "\nSprint #%d: %s [%s]\n", sp.ID, headerStyle.Render(sp.Name), state)
	if sp.Goal != "" {
		fmt.Fprintf(a.out, "Goal:  %s\n", sp.Goal)
	}
	fmt.Fprintf(a.out, "Dates: %s → %s\n", sp.StartDate.Format(dateLayout), sp.EndDate.Format(dateLayout))
}

// List prints a table of sprints.
func (a *SprintAdapter) List(ctx context.Context, filters primary.SprintFilters) error {
	sprints, err := a.service.ListSprints(ctx, filters)
	if err != nil {
		return fmt.Errorf("failed to list sprints: %w", err)
	}
	if len(sprints) == 0 {
		fmt.Fprintln(a.out, "No sprints found")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATE\tSTART\tEND\tITEMS\tNAME")
	for _, sp := range sprints {
		state := "active"
		if sp.IsArchived {
			state = "archived"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\n",
			sp.ID, state, sp.StartDate.Format(dateLayout), sp.EndDate.Format(dateLayout), len(sp.ItemIDs), sp.Name)
	}
	return tw.Flush()
}

// Edit applies an update request.
func (a *SprintAdapter) Edit(ctx context.Context, req primary.UpdateSprintRequest) error {
	if req.Name == nil && req.Goal == nil && req.StartDate == nil && req.EndDate == nil {
		return fmt.Errorf("nothing to change: pass at least one field flag")
	}
	sp, err := a.service.UpdateSprint(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, success("Sprint #%d updated", sp.ID))
	return nil
}

// Archive archives the active sprint.
func (a *SprintAdapter) Archive(ctx context.Context, isTutorial bool) error {
	sp, err := a.service.ArchiveCurrentSprint(ctx, isTutorial)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, success("Archived sprint #%d: %s", sp.ID, sp.Name))
	return nil
}

// Restore makes an archived sprint active.
func (a *SprintAdapter) Restore(ctx context.Context, sprintID int64) error {
	sp, err := a.service.RestoreSprint(ctx, sprintID)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, success("Sprint #%d is active again", sp.ID))
	return nil
}

// Delete deletes a sprint, returning its items to the backlog.
func (a *SprintAdapter) Delete(ctx context.Context, sprintID int64) error {
	if err := a.service.DeleteSprint(ctx, sprintID); err != nil {
		return err
	}
	fmt.Fprintln(a.out, success("Deleted sprint #%d; its items are back in the backlog", sprintID))
	return nil
}

// Add adds an item to the active sprint.
func (a *SprintAdapter) Add(ctx context.Context, itemID int64) error {
	sp, err := a.service.AddItemToSprint(ctx, itemID)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, success("Item #%d added to sprint #%d", itemID, sp.ID))
	return nil
}

// Remove removes an item from the active sprint.
func (a *SprintAdapter) Remove(ctx context.Context, itemID int64) error {
	sp, err := a.service.RemoveItemFromSprint(ctx, itemID)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, success("Item #%d removed from sprint #%d", itemID, sp.ID))
	return nil
}
