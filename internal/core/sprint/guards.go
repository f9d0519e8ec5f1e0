// Package sprint contains the pure business logic for the sprint lifecycle.
// Guards are pure functions that evaluate preconditions without side effects.
package sprint

import (
	"fmt"
	"strings"
	"time"

	"github.com/example/taskly/internal/core/backlog"
	"github.com/example/taskly/internal/errs"
)

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string
	Kind    errs.Kind
}

// Error converts the guard result to a typed error if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return errs.FromKind(r.Kind, r.Reason)
}

func invalid(format string, args ...any) GuardResult {
	return GuardResult{Reason: fmt.Sprintf(format, args...), Kind: errs.KindValidation}
}

func conflict(format string, args ...any) GuardResult {
	return GuardResult{Reason: fmt.Sprintf(format, args...), Kind: errs.KindConflict}
}

// CreateSprintContext provides context for sprint creation guards.
type CreateSprintContext struct {
	Name           string
	StartDate      time.Time
	EndDate        time.Time
	ActiveSprintID int64 // 0 when the partition has no active sprint
}

// EditSprintContext provides context for sprint field edits.
type EditSprintContext struct {
	SprintID  int64
	Name      string
	StartDate time.Time
	EndDate   time.Time
}

// ArchiveContext provides context for archiving the current sprint.
type ArchiveContext struct {
	ActiveSprintID int64
}

// MembershipContext provides context for add/remove guards.
type MembershipContext struct {
	ActiveSprintID   int64
	ActiveIsTutorial bool
	Item             backlog.Node
	ParentType       backlog.ItemType // empty when the item has no parent
}

// CanCreateSprint evaluates whether a sprint can be created.
// Rules:
// - Name must not be empty
// - End date must not precede start date
// - No sprint may be active in the partition
func CanCreateSprint(ctx CreateSprintContext) GuardResult {
	if r := checkFields(ctx.Name, ctx.StartDate, ctx.EndDate); !r.Allowed {
		return r
	}
	if ctx.ActiveSprintID != 0 {
		return conflict("sprint %d is already active; archive it before creating a new one", ctx.ActiveSprintID)
	}
	return GuardResult{Allowed: true}
}

// CanEditSprint evaluates a sprint field edit.
func CanEditSprint(ctx EditSprintContext) GuardResult {
	return checkFields(ctx.Name, ctx.StartDate, ctx.EndDate)
}

// CanArchiveSprint evaluates whether the current sprint can be archived.
// Rules:
// - A sprint must be active
func CanArchiveSprint(ctx ArchiveContext) GuardResult {
	if ctx.ActiveSprintID == 0 {
		return conflict("no active sprint to archive")
	}
	return GuardResult{Allowed: true}
}

// CanChangeMembership evaluates whether an item may be added to or removed
// from the active sprint directly.
// Rules:
// - A sprint must be active
// - Item must live in the sprint's partition
// - Epics are planned through their stories
// - Tasks/Bugs under a story follow the story
func CanChangeMembership(ctx MembershipContext) GuardResult {
	if ctx.ActiveSprintID == 0 {
		return conflict("no active sprint")
	}
	if ctx.Item.IsTutorial != ctx.ActiveIsTutorial {
		return invalid("item %d belongs to another partition", ctx.Item.ID)
	}
	if ctx.Item.Type == backlog.TypeEpic {
		return invalid("epic %d cannot join a sprint directly; add its stories instead", ctx.Item.ID)
	}
	if ctx.Item.Type.IsWorkItem() && ctx.ParentType == backlog.TypeStory {
		return invalid("%s %d follows its parent story %d; add or remove the story instead",
			strings.ToLower(ctx.Item.Type.Label()), ctx.Item.ID, *ctx.Item.ParentID)
	}
	return GuardResult{Allowed: true}
}

func checkFields(name string, start, end time.Time) GuardResult {
	if strings.TrimSpace(name) == "" {
		return invalid("sprint name must not be empty")
	}
	if end.Before(start) {
		return invalid("sprint end date %s is before start date %s",
			end.Format("2006-01-02"), start.Format("2006-01-02"))
	}
	return GuardResult{Allowed: true}
}
