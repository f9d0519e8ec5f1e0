package backlog

import (
	"fmt"
	"strings"

	"github.com/example/taskly/internal/errs"
)

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string
}

// Error converts the guard result to a ValidationError if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return errs.FromKind(errs.KindValidation, r.Reason)
}

func deny(format string, args ...any) GuardResult {
	return GuardResult{Allowed: false, Reason: fmt.Sprintf(format, args...)}
}

// ParentSummary describes a prospective parent, fetched by the caller.
type ParentSummary struct {
	ID         int64
	Type       ItemType
	IsTutorial bool
	Exists     bool
}

// CreateItemContext provides context for item creation guards.
type CreateItemContext struct {
	Title      string
	Type       ItemType
	Points     int
	IsTutorial bool
	Parent     *ParentSummary // nil when no parent was requested
}

// UpdateItemContext provides context for item update guards.
type UpdateItemContext struct {
	ItemID     int64
	Title      string
	Type       ItemType // type after the update
	Points     int
	IsTutorial bool
	Parent     *ParentSummary // parent after the update, nil for none
	ChildTypes []ItemType     // types of the item's current children
}

// StatusMoveContext provides context for one-step board moves.
type StatusMoveContext struct {
	ItemID      int64
	Status      Status
	InSprint    bool
	ReviewStage bool
}

// CanCreateItem evaluates whether an item can be created.
// Rules:
// - Title must not be empty
// - Story points must not be negative
// - Parent must exist, live in the same partition and sit one level up
func CanCreateItem(ctx CreateItemContext) GuardResult {
	if r := checkFields(ctx.Title, ctx.Type, ctx.Points); !r.Allowed {
		return r
	}
	return checkParent(ctx.Type, ctx.IsTutorial, ctx.Parent)
}

// CanUpdateItem evaluates whether an item can take its new shape.
// Rules:
// - Same field and parent rules as creation
// - An item cannot be its own parent
// - Existing children must remain valid under the new type
func CanUpdateItem(ctx UpdateItemContext) GuardResult {
	if r := checkFields(ctx.Title, ctx.Type, ctx.Points); !r.Allowed {
		return r
	}
	if ctx.Parent != nil && ctx.Parent.ID == ctx.ItemID {
		return deny("item %d cannot be its own parent", ctx.ItemID)
	}
	if r := checkParent(ctx.Type, ctx.IsTutorial, ctx.Parent); !r.Allowed {
		return r
	}
	for _, ct := range ctx.ChildTypes {
		if !ValidParent(ct, ctx.Type) {
			return deny("cannot change item %d to %s: it has %s children", ctx.ItemID, ctx.Type.Label(), ct.Label())
		}
	}
	return GuardResult{Allowed: true}
}

// CanAdvanceStatus evaluates a one-step forward move on the board.
func CanAdvanceStatus(ctx StatusMoveContext) GuardResult {
	if !ctx.InSprint {
		return deny("item %d is not in a sprint", ctx.ItemID)
	}
	if _, ok := NextStatus(ctx.Status, ctx.ReviewStage); !ok {
		return deny("item %d cannot advance from %s", ctx.ItemID, ctx.Status.Label())
	}
	return GuardResult{Allowed: true}
}

// CanReverseStatus evaluates a one-step backward move on the board.
func CanReverseStatus(ctx StatusMoveContext) GuardResult {
	if !ctx.InSprint {
		return deny("item %d is not in a sprint", ctx.ItemID)
	}
	if _, ok := PrevStatus(ctx.Status, ctx.ReviewStage); !ok {
		return deny("item %d cannot move back from %s", ctx.ItemID, ctx.Status.Label())
	}
	return GuardResult{Allowed: true}
}

func checkFields(title string, t ItemType, points int) GuardResult {
	if strings.TrimSpace(title) == "" {
		return deny("title must not be empty")
	}
	if _, err := ParseType(string(t)); err != nil {
		return deny("%v", err)
	}
	if points < 0 {
		return deny("story points must not be negative (got %d)", points)
	}
	return GuardResult{Allowed: true}
}

func checkParent(t ItemType, tutorial bool, parent *ParentSummary) GuardResult {
	if parent == nil {
		return GuardResult{Allowed: true}
	}
	if !parent.Exists {
		return deny("parent item %d not found", parent.ID)
	}
	if t == TypeEpic {
		return deny("an Epic cannot have a parent")
	}
	if parent.IsTutorial != tutorial {
		return deny("parent item %d belongs to another partition", parent.ID)
	}
	if !ValidParent(t, parent.Type) {
		return deny("a %s cannot be a child of a %s", t.Label(), parent.Type.Label())
	}
	return GuardResult{Allowed: true}
}
