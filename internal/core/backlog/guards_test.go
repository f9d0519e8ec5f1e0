package backlog

import (
	"errors"
	"testing"

	"github.com/example/taskly/internal/errs"
)

func TestCanCreateItem(t *testing.T) {
	tests := []struct {
		name        string
		ctx         CreateItemContext
		wantAllowed bool
		wantReason  string
	}{
		{
			name:        "can create epic without parent",
			ctx:         CreateItemContext{Title: "Checkout", Type: TypeEpic},
			wantAllowed: true,
		},
		{
			name: "can create story under epic",
			ctx: CreateItemContext{
				Title:  "Pay by card",
				Type:   TypeStory,
				Points: 5,
				Parent: &ParentSummary{ID: 1, Type: TypeEpic, Exists: true},
			},
			wantAllowed: true,
		},
		{
			name: "can create bug under story",
			ctx: CreateItemContext{
				Title:  "Card declined twice",
				Type:   TypeBug,
				Parent: &ParentSummary{ID: 2, Type: TypeStory, Exists: true},
			},
			wantAllowed: true,
		},
		{
			name:        "can create orphan task",
			ctx:         CreateItemContext{Title: "Tidy CI", Type: TypeTask},
			wantAllowed: true,
		},
		{
			name:        "cannot create with blank title",
			ctx:         CreateItemContext{Title: "   ", Type: TypeTask},
			wantAllowed: false,
			wantReason:  "title must not be empty",
		},
		{
			name:        "cannot create with negative points",
			ctx:         CreateItemContext{Title: "x", Type: TypeStory, Points: -1},
			wantAllowed: false,
			wantReason:  "story points must not be negative (got -1)",
		},
		{
			name:        "cannot create unknown type",
			ctx:         CreateItemContext{Title: "x", Type: ItemType("spike")},
			wantAllowed: false,
			wantReason:  `unknown item type "spike" (want epic, story, task or bug)`,
		},
		{
			name: "cannot create task under task",
			ctx: CreateItemContext{
				Title:  "Sub task",
				Type:   TypeTask,
				Parent: &ParentSummary{ID: 3, Type: TypeTask, Exists: true},
			},
			wantAllowed: false,
			wantReason:  "a Task cannot be a child of a Task",
		},
		{
			name: "cannot create task directly under epic",
			ctx: CreateItemContext{
				Title:  "Skip a level",
				Type:   TypeTask,
				Parent: &ParentSummary{ID: 1, Type: TypeEpic, Exists: true},
			},
			wantAllowed: false,
			wantReason:  "a Task cannot be a child of a Epic",
		},
		{
			name: "cannot give an epic a parent",
			ctx: CreateItemContext{
				Title:  "Nested epic",
				Type:   TypeEpic,
				Parent: &ParentSummary{ID: 1, Type: TypeEpic, Exists: true},
			},
			wantAllowed: false,
			wantReason:  "an Epic cannot have a parent",
		},
		{
			name: "cannot create under missing parent",
			ctx: CreateItemContext{
				Title:  "Lost",
				Type:   TypeStory,
				Parent: &ParentSummary{ID: 99},
			},
			wantAllowed: false,
			wantReason:  "parent item 99 not found",
		},
		{
			name: "cannot cross partitions",
			ctx: CreateItemContext{
				Title:      "Tutorial story",
				Type:       TypeStory,
				IsTutorial: true,
				Parent:     &ParentSummary{ID: 1, Type: TypeEpic, Exists: true},
			},
			wantAllowed: false,
			wantReason:  "parent item 1 belongs to another partition",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CanCreateItem(tt.ctx)
			if result.Allowed != tt.wantAllowed {
				t.Errorf("Allowed = %v, want %v", result.Allowed, tt.wantAllowed)
			}
			if !tt.wantAllowed && result.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", result.Reason, tt.wantReason)
			}
		})
	}
}

func TestCanUpdateItem(t *testing.T) {
	tests := []struct {
		name        string
		ctx         UpdateItemContext
		wantAllowed bool
		wantReason  string
	}{
		{
			name: "can move task to another story",
			ctx: UpdateItemContext{
				ItemID: 5, Title: "t", Type: TypeTask,
				Parent: &ParentSummary{ID: 3, Type: TypeStory, Exists: true},
			},
			wantAllowed: true,
		},
		{
			name: "cannot parent item to itself",
			ctx: UpdateItemContext{
				ItemID: 5, Title: "t", Type: TypeStory,
				Parent: &ParentSummary{ID: 5, Type: TypeStory, Exists: true},
			},
			wantAllowed: false,
			wantReason:  "item 5 cannot be its own parent",
		},
		{
			name: "cannot turn story with tasks into task",
			ctx: UpdateItemContext{
				ItemID: 2, Title: "s", Type: TypeTask,
				ChildTypes: []ItemType{TypeTask, TypeBug},
			},
			wantAllowed: false,
			wantReason:  "cannot change item 2 to Task: it has Task children",
		},
		{
			name: "can retitle story with children",
			ctx: UpdateItemContext{
				ItemID: 2, Title: "renamed", Type: TypeStory,
				Parent:     &ParentSummary{ID: 1, Type: TypeEpic, Exists: true},
				ChildTypes: []ItemType{TypeTask},
			},
			wantAllowed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CanUpdateItem(tt.ctx)
			if result.Allowed != tt.wantAllowed {
				t.Errorf("Allowed = %v, want %v", result.Allowed, tt.wantAllowed)
			}
			if !tt.wantAllowed && result.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", result.Reason, tt.wantReason)
			}
		})
	}
}

func TestStatusMoveGuards(t *testing.T) {
	tests := []struct {
		name        string
		ctx         StatusMoveContext
		advance     bool
		wantAllowed bool
	}{
		{"advance todo", StatusMoveContext{ItemID: 1, Status: StatusTodo, InSprint: true}, true, true},
		{"advance done", StatusMoveContext{ItemID: 1, Status: StatusDone, InSprint: true}, true, false},
		{"advance outside sprint", StatusMoveContext{ItemID: 1, Status: StatusTodo}, true, false},
		{"reverse done", StatusMoveContext{ItemID: 1, Status: StatusDone, InSprint: true}, false, true},
		{"reverse todo", StatusMoveContext{ItemID: 1, Status: StatusTodo, InSprint: true}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var result GuardResult
			if tt.advance {
				result = CanAdvanceStatus(tt.ctx)
			} else {
				result = CanReverseStatus(tt.ctx)
			}
			if result.Allowed != tt.wantAllowed {
				t.Errorf("Allowed = %v, want %v (%s)", result.Allowed, tt.wantAllowed, result.Reason)
			}
		})
	}
}

func TestGuardResultError(t *testing.T) {
	if err := (GuardResult{Allowed: true}).Error(); err != nil {
		t.Errorf("allowed result should have nil error, got %v", err)
	}
	err := CanCreateItem(CreateItemContext{Type: TypeEpic}).Error()
	if !errors.Is(err, errs.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}
