// Package backlog contains the pure domain model for backlog items:
// the Epic -> Story -> Task/Bug hierarchy, the status workflow and the
// derivations other layers rely on.
package backlog

import (
	"fmt"
	"sort"
	"strings"
)

// ItemType is the kind of a backlog item.
type ItemType string

const (
	TypeEpic  ItemType = "epic"
	TypeStory ItemType = "story"
	TypeTask  ItemType = "task"
	TypeBug   ItemType = "bug"
)

// Status is a step of the delivery workflow.
type Status string

const (
	StatusBacklog    Status = "backlog"
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusReview     Status = "review"
	StatusDone       Status = "done"
)

// Workflow lists every status in order.
var Workflow = []Status{StatusBacklog, StatusTodo, StatusInProgress, StatusReview, StatusDone}

// ParseType accepts "epic", "Story", "BUG", ...
func ParseType(s string) (ItemType, error) {
	switch t := ItemType(strings.ToLower(strings.TrimSpace(s))); t {
	case TypeEpic, TypeStory, TypeTask, TypeBug:
		return t, nil
	}
	return "", fmt.Errorf("unknown item type %q (want epic, story, task or bug)", s)
}

// ParseStatus accepts the stored form ("in_progress") and loose forms
// ("In Progress", "in-progress", "inprogress").
func ParseStatus(s string) (Status, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	if norm == "inprogress" {
		norm = string(StatusInProgress)
	}
	for _, st := range Workflow {
		if string(st) == norm {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// Label is the display form of a type.
func (t ItemType) Label() string {
	switch t {
	case TypeEpic:
		return "Epic"
	case TypeStory:
		return "Story"
	case TypeTask:
		return "Task"
	case TypeBug:
		return "Bug"
	}
	return string(t)
}

// Label is the display form of a status.
func (s Status) Label() string {
	switch s {
	case StatusBacklog:
		return "Backlog"
	case StatusTodo:
		return "Todo"
	case StatusInProgress:
		return "In Progress"
	case StatusReview:
		return "Review"
	case StatusDone:
		return "Done"
	}
	return string(s)
}

// IsWorkItem reports whether the type is a leaf (Task or Bug).
func (t ItemType) IsWorkItem() bool {
	return t == TypeTask || t == TypeBug
}

// Node is the minimal item shape the core reasons about.
type Node struct {
	ID         int64
	Type       ItemType
	Status     Status
	ParentID   *int64
	SprintID   *int64
	IsTutorial bool
	Points     int
}

// HasParent reports whether the node has a parent.
func (n Node) HasParent() bool { return n.ParentID != nil }

// IsInSprint reports whether the node holds sprint membership.
func IsInSprint(n Node) bool { return n.SprintID != nil }

// HierarchyDepth returns 0 for Epics, 1 for Stories and 2 for Tasks/Bugs.
func HierarchyDepth(t ItemType) int {
	switch t {
	case TypeEpic:
		return 0
	case TypeStory:
		return 1
	default:
		return 2
	}
}

// ValidParent reports whether parent may hold child directly.
func ValidParent(child, parent ItemType) bool {
	switch child {
	case TypeStory:
		return parent == TypeEpic
	case TypeTask, TypeBug:
		return parent == TypeStory
	}
	return false
}

// ChildrenOf returns the direct children of parentID, sorted by id.
func ChildrenOf(parentID int64, nodes []Node) []Node {
	var out []Node
	for _, n := range nodes {
		if n.ParentID != nil && *n.ParentID == parentID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// NextStatus is the board's "move right" step. Backlog and Done have no next step.
func NextStatus(s Status, reviewStage bool) (Status, bool) {
	switch s {
	case StatusTodo:
		return StatusInProgress, true
	case StatusInProgress:
		if reviewStage {
			return StatusReview, true
		}
		return StatusDone, true
	case StatusReview:
		return StatusDone, true
	}
	return s, false
}

// PrevStatus is the board's "move left" step. Todo never falls back to
// Backlog here; that transition belongs to sprint removal.
func PrevStatus(s Status, reviewStage bool) (Status, bool) {
	switch s {
	case StatusInProgress:
		return StatusTodo, true
	case StatusReview:
		return StatusInProgress, true
	case StatusDone:
		if reviewStage {
			return StatusReview, true
		}
		return StatusInProgress, true
	}
	return s, false
}

// SameID compares two optional ids.
func SameID(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// IDPtr returns a pointer to a copy of id.
func IDPtr(id int64) *int64 { return &id }
