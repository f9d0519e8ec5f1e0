// Package app contains the application layer - service implementations and effect execution.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/example/taskly/internal/core/effects"
	coresprint "github.com/example/taskly/internal/core/sprint"
	"github.com/example/taskly/internal/ctxutil"
	"github.com/example/taskly/internal/ports/secondary"
)

// EffectExecutor interprets and executes effects.
// This is the "Imperative Shell" - the only place planned writes happen.
// Callers run it inside a Transactor so a plan lands all-or-nothing.
type EffectExecutor interface {
	Execute(ctx context.Context, effs []effects.Effect) error
}

// DefaultEffectExecutor implements EffectExecutor against the store repositories.
type DefaultEffectExecutor struct {
	items   secondary.BacklogItemRepository
	sprints secondary.SprintRepository
	logger  *slog.Logger
}

// NewEffectExecutor creates a new DefaultEffectExecutor.
func NewEffectExecutor(items secondary.BacklogItemRepository, sprints secondary.SprintRepository, logger *slog.Logger) *DefaultEffectExecutor {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultEffectExecutor{items: items, sprints: sprints, logger: logger}
}

// Execute processes a slice of effects, executing each in sequence.
func (e *DefaultEffectExecutor) Execute(ctx context.Context, effs []effects.Effect) error {
	for _, eff := range effs {
		if err := e.executeOne(ctx, eff); err != nil {
			return fmt.Errorf("failed to execute %s effect: %w", eff.EffectType(), err)
		}
	}
	return nil
}

func (e *DefaultEffectExecutor) executeOne(ctx context.Context, eff effects.Effect) error {
	switch typed := eff.(type) {
	case effects.PersistEffect:
		e.logger.DebugContext(ctx, "apply effect",
			"entity", typed.Entity, "op", typed.Operation, "origin", ctxutil.OriginFromContext(ctx), "data", fmt.Sprintf("%+v", typed.Data))
		return e.executePersist(ctx, typed)
	case effects.CompositeEffect:
		return e.Execute(ctx, typed.Effects)
	case effects.NoEffect:
		return nil
	case effects.LogEffect:
		e.logger.Log(ctx, parseLevel(typed.Level), typed.Message, fieldsToArgs(typed.Fields)...)
		return nil
	default:
		return fmt.Errorf("unknown effect type: %T", eff)
	}
}

func (e *DefaultEffectExecutor) executePersist(ctx context.Context, eff effects.PersistEffect) error {
	switch eff.Entity {
	case effects.EntityItem:
		return e.executeItemOp(ctx, eff)
	case effects.EntitySprint:
		return e.executeSprintOp(ctx, eff)
	default:
		return fmt.Errorf("unknown entity: %s", eff.Entity)
	}
}

func (e *DefaultEffectExecutor) executeItemOp(ctx context.Context, eff effects.PersistEffect) error {
	switch eff.Operation {
	case effects.OpPatch:
		patch, ok := eff.Data.(effects.ItemPatch)
		if !ok {
			return fmt.Errorf("invalid item patch data type: %T", eff.Data)
		}
		record, err := e.items.GetByID(ctx, patch.ItemID)
		if err != nil {
			return err
		}
		if patch.SetSprint {
			record.SprintID = copyID(patch.SprintID)
		}
		if patch.SetStatus {
			record.Status = patch.Status
		}
		if patch.SetParent {
			record.ParentID = copyID(patch.ParentID)
		}
		return e.items.Update(ctx, record)
	case effects.OpDelete:
		ref, ok := eff.Data.(effects.ItemRef)
		if !ok {
			return fmt.Errorf("invalid item delete data type: %T", eff.Data)
		}
		return e.items.Delete(ctx, ref.ItemID)
	default:
		return fmt.Errorf("unknown item operation: %s", eff.Operation)
	}
}

func (e *DefaultEffectExecutor) executeSprintOp(ctx context.Context, eff effects.PersistEffect) error {
	switch eff.Operation {
	case effects.OpAddMember, effects.OpRemoveMember:
		m, ok := eff.Data.(effects.Membership)
		if !ok {
			return fmt.Errorf("invalid sprint membership data type: %T", eff.Data)
		}
		record, err := e.sprints.GetByID(ctx, m.SprintID)
		if err != nil {
			return err
		}
		var changed bool
		if eff.Operation == effects.OpAddMember {
			record.ItemIDs, changed = coresprint.WithMember(record.ItemIDs, m.ItemID)
		} else {
			record.ItemIDs, changed = coresprint.WithoutMember(record.ItemIDs, m.ItemID)
		}
		if !changed {
			return nil
		}
		return e.sprints.Update(ctx, record)
	case effects.OpArchive, effects.OpUnarchive:
		ref, ok := eff.Data.(effects.SprintRef)
		if !ok {
			return fmt.Errorf("invalid sprint data type: %T", eff.Data)
		}
		record, err := e.sprints.GetByID(ctx, ref.SprintID)
		if err != nil {
			return err
		}
		record.IsArchived = eff.Operation == effects.OpArchive
		return e.sprints.Update(ctx, record)
	case effects.OpDelete:
		ref, ok := eff.Data.(effects.SprintRef)
		if !ok {
			return fmt.Errorf("invalid sprint data type: %T", eff.Data)
		}
		return e.sprints.Delete(ctx, ref.SprintID)
	default:
		return fmt.Errorf("unknown sprint operation: %s", eff.Operation)
	}
}

func copyID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func parseLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// fieldsToArgs flattens fields into slog args, sorted by key.
func fieldsToArgs(fields map[string]any) []any {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	args := make([]any, 0, len(fields)*2)
	for _, k := range keys {
		args = append(args, k, fields[k])
	}
	return args
}
