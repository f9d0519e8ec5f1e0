package backlog

import (
	"github.com/example/taskly/internal/core/effects"
)

// InitialState is the status and sprint a new item starts with.
type InitialState struct {
	Status   Status
	SprintID *int64
}

// OnItemCreated derives a new item's starting state from its parent.
// A child created under a sprint member joins the same sprint as Todo.
func OnItemCreated(parent *Node) InitialState {
	if parent != nil && parent.SprintID != nil {
		return InitialState{Status: StatusTodo, SprintID: IDPtr(*parent.SprintID)}
	}
	return InitialState{Status: StatusBacklog}
}

// SprintSummary lists which items a sprint holds directly.
type SprintSummary struct {
	ID      int64
	ItemIDs []int64
}

// DeletePlanInput contains pre-fetched data for item deletion.
type DeletePlanInput struct {
	Item     Node
	Children []Node
	Sprints  []SprintSummary // every sprint in the item's partition
}

// DeletePlan represents the planned effects for deleting an item.
// Cleanup runs before the row itself is removed.
type DeletePlan struct {
	ItemID      int64
	Memberships []effects.PersistEffect
	Orphans     []effects.PersistEffect
	Remove      effects.PersistEffect
}

// Effects returns all effects as a flat slice for execution.
func (p DeletePlan) Effects() []effects.Effect {
	result := make([]effects.Effect, 0, len(p.Memberships)+len(p.Orphans)+1)
	for _, e := range p.Memberships {
		result = append(result, e)
	}
	for _, e := range p.Orphans {
		result = append(result, e)
	}
	return append(result, p.Remove)
}

// GenerateDeletePlan plans the cleanup for deleting an item.
// Rules:
// - The item leaves every sprint that lists it
// - Children are orphaned, never deleted
// - Children of a Story also lose sprint membership and fall back to Backlog
func GenerateDeletePlan(input DeletePlanInput) DeletePlan {
	plan := DeletePlan{ItemID: input.Item.ID, Remove: effects.DeleteItem(input.Item.ID)}

	for _, s := range input.Sprints {
		for _, id := range s.ItemIDs {
			if id == input.Item.ID {
				plan.Memberships = append(plan.Memberships, effects.RemoveMember(s.ID, id))
				break
			}
		}
	}

	for _, child := range input.Children {
		patch := effects.ItemPatch{ItemID: child.ID, SetParent: true, ParentID: nil}
		if input.Item.Type == TypeStory && (child.SprintID != nil || child.Status != StatusBacklog) {
			patch.SetSprint = true
			patch.SetStatus = true
			patch.Status = string(StatusBacklog)
		}
		plan.Orphans = append(plan.Orphans, effects.PatchItem(patch))
	}

	return plan
}

// AlignInput contains pre-fetched data for re-deriving an edited item's membership.
type AlignInput struct {
	Item     Node
	Parent   *Node   // parent after the edit, nil for none
	ListedIn []int64 // sprints whose item set contains the item
}

// GenerateAlignPlan keeps an edited item's sprint membership consistent with
// its new type and parent.
// Rules:
// - Only Stories and parentless Tasks/Bugs may be listed in a sprint directly
// - A Task/Bug under a Story takes the Story's sprint (Todo) or leaves (Backlog)
// - An Epic leaves its sprint
// - A Story or parentless Task/Bug whose sprint does not list it falls back
//   to Backlog (e.g. a planned task promoted to a story)
// Items already in the target state produce no effects.
func GenerateAlignPlan(input AlignInput) []effects.Effect {
	item := input.Item
	underStory := input.Parent != nil && input.Parent.Type == TypeStory

	var out []effects.Effect
	direct := item.Type == TypeStory || (item.Type.IsWorkItem() && !underStory)
	if !direct {
		for _, sprintID := range input.ListedIn {
			out = append(out, effects.RemoveMember(sprintID, item.ID))
		}
	}

	switch {
	case item.Type.IsWorkItem() && underStory:
		target := OnItemCreated(input.Parent)
		if !SameID(item.SprintID, target.SprintID) {
			out = append(out, leaveOrJoin(item.ID, target))
		}
	case item.Type == TypeEpic && item.SprintID != nil:
		out = append(out, leaveOrJoin(item.ID, InitialState{Status: StatusBacklog}))
	case direct && item.SprintID != nil && !listedIn(input.ListedIn, *item.SprintID):
		out = append(out, leaveOrJoin(item.ID, InitialState{Status: StatusBacklog}))
	}

	return out
}

func listedIn(sprintIDs []int64, sprintID int64) bool {
	for _, id := range sprintIDs {
		if id == sprintID {
			return true
		}
	}
	return false
}

func leaveOrJoin(itemID int64, target InitialState) effects.PersistEffect {
	return effects.PatchItem(effects.ItemPatch{
		ItemID:    itemID,
		SetSprint: true,
		SprintID:  target.SprintID,
		SetStatus: true,
		Status:    string(target.Status),
	})
}
