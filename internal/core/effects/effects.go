// Package effects defines effect types as data structures representing store writes.
// This is the foundation of the Functional Core / Imperative Shell pattern.
// Effects are pure data - they describe what should happen, not how.
package effects

// Effect is the base interface for all effects.
type Effect interface {
	// EffectType returns a string identifier for the effect type.
	EffectType() string
}

// Entity names used by PersistEffect.
const (
	EntityItem   = "item"
	EntitySprint = "sprint"
)

// Operations used by PersistEffect.
const (
	OpPatch        = "patch"
	OpAddMember    = "add_member"
	OpRemoveMember = "remove_member"
	OpArchive      = "archive"
	OpUnarchive    = "unarchive"
	OpDelete       = "delete"
)

// LogEffect represents a logging operation.
type LogEffect struct {
	Level   string
	Message string
	Fields  map[string]any
}

func (e LogEffect) EffectType() string { return "log" }

// PersistEffect represents a database persistence operation.
type PersistEffect struct {
	Entity    string // EntityItem or EntitySprint
	Operation string // OpPatch, OpAddMember, ...
	Data      any    // ItemPatch, Membership, SprintRef or ItemRef
}

func (e PersistEffect) EffectType() string { return "persist" }

// ItemPatch changes selected fields of one backlog item.
// Only fields whose Set flag is true are written.
type ItemPatch struct {
	ItemID int64

	SetSprint bool
	SprintID  *int64

	SetStatus bool
	Status    string

	SetParent bool
	ParentID  *int64
}

// Membership adds or removes an item id in a sprint's item set.
type Membership struct {
	SprintID int64
	ItemID   int64
}

// SprintRef targets a whole sprint (archive/unarchive).
type SprintRef struct {
	SprintID int64
}

// ItemRef targets a whole item (delete).
type ItemRef struct {
	ItemID int64
}

// CompositeEffect holds multiple effects to be executed in sequence.
type CompositeEffect struct {
	Effects []Effect
}

func (e CompositeEffect) EffectType() string { return "composite" }

// NoEffect represents an operation that produces no side effects.
type NoEffect struct{}

func (e NoEffect) EffectType() string { return "none" }

// PatchItem is shorthand for an item patch effect.
func PatchItem(p ItemPatch) PersistEffect {
	return PersistEffect{Entity: EntityItem, Operation: OpPatch, Data: p}
}

// AddMember is shorthand for a sprint membership add.
func AddMember(sprintID, itemID int64) PersistEffect {
	return PersistEffect{Entity: EntitySprint, Operation: OpAddMember, Data: Membership{SprintID: sprintID, ItemID: itemID}}
}

// RemoveMember is shorthand for a sprint membership removal.
func RemoveMember(sprintID, itemID int64) PersistEffect {
	return PersistEffect{Entity: EntitySprint, Operation: OpRemoveMember, Data: Membership{SprintID: sprintID, ItemID: itemID}}
}

// ArchiveSprint is shorthand for flipping a sprint to archived.
func ArchiveSprint(sprintID int64) PersistEffect {
	return PersistEffect{Entity: EntitySprint, Operation: OpArchive, Data: SprintRef{SprintID: sprintID}}
}

// UnarchiveSprint is shorthand for flipping a sprint back to active.
func UnarchiveSprint(sprintID int64) PersistEffect {
	return PersistEffect{Entity: EntitySprint, Operation: OpUnarchive, Data: SprintRef{SprintID: sprintID}}
}

// DeleteSprint is shorthand for removing a sprint row.
func DeleteSprint(sprintID int64) PersistEffect {
	return PersistEffect{Entity: EntitySprint, Operation: OpDelete, Data: SprintRef{SprintID: sprintID}}
}

// DeleteItem is shorthand for removing an item row.
func DeleteItem(itemID int64) PersistEffect {
	return PersistEffect{Entity: EntityItem, Operation: OpDelete, Data: ItemRef{ItemID: itemID}}
}
