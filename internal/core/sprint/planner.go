package sprint

import (
	"sort"

	"github.com/example/taskly/internal/core/backlog"
	"github.com/example/taskly/internal/core/effects"
)

// NormalizeItemIDs returns ids as a sorted set.
func NormalizeItemIDs(ids []int64) []int64 {
	out := make([]int64, 0, len(ids))
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Contains reports whether id is in ids.
func Contains(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// WithMember adds id to the set. The bool is false when id was already present.
func WithMember(ids []int64, id int64) ([]int64, bool) {
	if Contains(ids, id) {
		return NormalizeItemIDs(ids), false
	}
	return NormalizeItemIDs(append(append([]int64(nil), ids...), id)), true
}

// WithoutMember removes id from the set. The bool is false when id was absent.
func WithoutMember(ids []int64, id int64) ([]int64, bool) {
	out := make([]int64, 0, len(ids))
	removed := false
	for _, v := range ids {
		if v == id {
			removed = true
			continue
		}
		out = append(out, v)
	}
	return NormalizeItemIDs(out), removed
}

// AssignmentInput contains pre-fetched data for adding or removing an item.
type AssignmentInput struct {
	SprintID      int64
	SprintItemIDs []int64
	Item          backlog.Node
	Children      []backlog.Node
	Assign        bool // true adds to the sprint, false removes
}

// AssignmentPlan represents the planned effects for a membership change.
type AssignmentPlan struct {
	SprintID   int64
	ItemID     int64
	Membership []effects.PersistEffect
	Item       []effects.PersistEffect
	Cascade    []effects.PersistEffect
}

// Effects returns all effects as a flat slice for execution.
func (p AssignmentPlan) Effects() []effects.Effect {
	result := make([]effects.Effect, 0, len(p.Membership)+len(p.Item)+len(p.Cascade))
	for _, e := range p.Membership {
		result = append(result, e)
	}
	for _, e := range p.Item {
		result = append(result, e)
	}
	for _, e := range p.Cascade {
		result = append(result, e)
	}
	return result
}

// Empty reports whether the plan changes nothing.
func (p AssignmentPlan) Empty() bool {
	return len(p.Membership)+len(p.Item)+len(p.Cascade) == 0
}

// GenerateAssignmentPlan plans adding an item to, or removing it from, the active sprint.
// Adding a new member sets it and all its children to Todo in the sprint. Adding a
// current member only repairs children that drifted out of the sprint.
// Removing clears the sprint and resets to Backlog. Items that are not members of
// this sprint are left alone.
// This is a pure function; running its output twice converges.
func GenerateAssignmentPlan(input AssignmentInput) AssignmentPlan {
	if input.Assign {
		return planAdd(input)
	}
	return planRemove(input)
}

func planAdd(input AssignmentInput) AssignmentPlan {
	plan := AssignmentPlan{SprintID: input.SprintID, ItemID: input.Item.ID}
	sprintID := input.SprintID

	listed := Contains(input.SprintItemIDs, input.Item.ID)
	if !listed {
		plan.Membership = append(plan.Membership, effects.AddMember(sprintID, input.Item.ID))
	}

	alreadyMember := listed && input.Item.SprintID != nil && *input.Item.SprintID == sprintID
	if !alreadyMember {
		plan.Item = append(plan.Item, joinPatch(input.Item.ID, sprintID))
	}

	for _, child := range input.Children {
		inSprint := child.SprintID != nil && *child.SprintID == sprintID
		if alreadyMember && inSprint {
			continue
		}
		if inSprint && child.Status == backlog.StatusTodo {
			continue
		}
		plan.Cascade = append(plan.Cascade, joinPatch(child.ID, sprintID))
	}

	return plan
}

func planRemove(input AssignmentInput) AssignmentPlan {
	plan := AssignmentPlan{SprintID: input.SprintID, ItemID: input.Item.ID}

	listed := Contains(input.SprintItemIDs, input.Item.ID)
	pointsHere := input.Item.SprintID != nil && *input.Item.SprintID == input.SprintID
	if !listed && !pointsHere {
		return plan
	}

	if listed {
		plan.Membership = append(plan.Membership, effects.RemoveMember(input.SprintID, input.Item.ID))
	}
	if input.Item.SprintID != nil || input.Item.Status != backlog.StatusBacklog {
		plan.Item = append(plan.Item, leavePatch(input.Item.ID))
	}
	for _, child := range input.Children {
		if child.SprintID == nil && child.Status == backlog.StatusBacklog {
			continue
		}
		plan.Cascade = append(plan.Cascade, leavePatch(child.ID))
	}

	return plan
}

func joinPatch(itemID, sprintID int64) effects.PersistEffect {
	return effects.PatchItem(effects.ItemPatch{
		ItemID:    itemID,
		SetSprint: true,
		SprintID:  backlog.IDPtr(sprintID),
		SetStatus: true,
		Status:    string(backlog.StatusTodo),
	})
}

func leavePatch(itemID int64) effects.PersistEffect {
	return effects.PatchItem(effects.ItemPatch{
		ItemID:    itemID,
		SetSprint: true,
		SprintID:  nil,
		SetStatus: true,
		Status:    string(backlog.StatusBacklog),
	})
}

// GenerateRestorePlan plans making targetID the active sprint.
// The currently active sprint, if different, is archived first so no reader
// inside the transaction can observe two active sprints.
func GenerateRestorePlan(targetID, activeID int64) []effects.Effect {
	if targetID == activeID {
		return []effects.Effect{effects.NoEffect{}}
	}
	var out []effects.Effect
	if activeID != 0 {
		out = append(out, effects.CompositeEffect{Effects: []effects.Effect{
			effects.ArchiveSprint(activeID),
			effects.LogEffect{
				Level:   "info",
				Message: "sprint auto-archived for restore",
				Fields:  map[string]any{"archived_id": activeID, "restored_id": targetID},
			},
		}})
	}
	return append(out, effects.UnarchiveSprint(targetID))
}

// GenerateDeleteSprintPlan resets every item that references the sprint and
// then removes the sprint row.
func GenerateDeleteSprintPlan(sprintID int64, items []backlog.Node) []effects.Effect {
	var out []effects.Effect
	for _, item := range items {
		if item.SprintID != nil && *item.SprintID == sprintID {
			out = append(out, leavePatch(item.ID))
		}
	}
	return append(out, effects.DeleteSprint(sprintID))
}
