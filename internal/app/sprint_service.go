package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/taskly/internal/core/backlog"
	"github.com/example/taskly/internal/core/effects"
	coresprint "github.com/example/taskly/internal/core/sprint"
	"github.com/example/taskly/internal/errs"
	"github.com/example/taskly/internal/ports/primary"
	"github.com/example/taskly/internal/ports/secondary"
)

// SprintServiceImpl implements the SprintService interface.
type SprintServiceImpl struct {
	sprintRepo    secondary.SprintRepository
	itemRepo      secondary.BacklogItemRepository
	tx            secondary.Transactor
	executor      EffectExecutor
	logger        *slog.Logger
	defaultLength time.Duration
	now           func() time.Time
}

// NewSprintService creates a new SprintService with injected dependencies.
// defaultLength is used when a sprint is created without an end date.
func NewSprintService(
	sprintRepo secondary.SprintRepository,
	itemRepo secondary.BacklogItemRepository,
	tx secondary.Transactor,
	executor EffectExecutor,
	logger *slog.Logger,
	defaultLength time.Duration,
) *SprintServiceImpl {
	if logger == nil {
		logger = slog.Default()
	}
	if defaultLength <= 0 {
		defaultLength = 14 * 24 * time.Hour
	}
	return &SprintServiceImpl{
		sprintRepo:    sprintRepo,
		itemRepo:      itemRepo,
		tx:            tx,
		executor:      executor,
		logger:        logger,
		defaultLength: defaultLength,
		now:           time.Now,
	}
}

// CreateSprint creates a new active sprint.
func (s *SprintServiceImpl) CreateSprint(ctx context.Context, req primary.CreateSprintRequest) (*primary.Sprint, error) {
	start := req.StartDate
	if start.IsZero() {
		start = truncateDay(s.now())
	}
	end := req.EndDate
	if end.IsZero() {
		end = start.Add(s.defaultLength)
	}

	var created *secondary.SprintRecord
	err := s.tx.WithinTx(ctx, "sprint.create", func(ctx context.Context) error {
		active, err := s.sprintRepo.GetActive(ctx, req.IsTutorial)
		if err != nil {
			return err
		}

		guard := coresprint.CanCreateSprint(coresprint.CreateSprintContext{
			Name:           req.Name,
			StartDate:      start,
			EndDate:        end,
			ActiveSprintID: sprintIDOf(active),
		})
		if err := guard.Error(); err != nil {
			return err
		}

		record := &secondary.SprintRecord{
			Name:       req.Name,
			Goal:       req.Goal,
			StartDate:  start,
			EndDate:    end,
			ItemIDs:    []int64{},
			IsTutorial: req.IsTutorial,
		}
		if err := s.sprintRepo.Create(ctx, record); err != nil {
			return err
		}
		created, err = s.sprintRepo.GetByID(ctx, record.ID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create sprint: %w", err)
	}

	s.logger.InfoContext(ctx, "sprint created", "sprint_id", created.ID, "tutorial", created.IsTutorial)
	return recordToSprint(created), nil
}

// GetSprint retrieves a sprint by ID.
func (s *SprintServiceImpl) GetSprint(ctx context.Context, sprintID int64) (*primary.Sprint, error) {
	record, err := s.sprintRepo.GetByID(ctx, sprintID)
	if err != nil {
		return nil, err
	}
	return recordToSprint(record), nil
}

// GetActiveSprint returns the partition's active sprint, or nil when none is active.
func (s *SprintServiceImpl) GetActiveSprint(ctx context.Context, isTutorial bool) (*primary.Sprint, error) {
	record, err := s.sprintRepo.GetActive(ctx, isTutorial)
	if err != nil {
		return nil, fmt.Errorf("failed to get active sprint: %w", err)
	}
	if record == nil {
		return nil, nil
	}
	return recordToSprint(record), nil
}

// ListSprints lists sprints of one partition.
func (s *SprintServiceImpl) ListSprints(ctx context.Context, filters primary.SprintFilters) ([]*primary.Sprint, error) {
	records, err := s.sprintRepo.List(ctx, secondary.SprintFilters{
		IsTutorial: filters.IsTutorial,
		Archived:   filters.Archived,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list sprints: %w", err)
	}

	sprints := make([]*primary.Sprint, len(records))
	for i, r := range records {
		sprints[i] = recordToSprint(r)
	}
	return sprints, nil
}

// UpdateSprint edits a sprint's name, goal and dates.
func (s *SprintServiceImpl) UpdateSprint(ctx context.Context, req primary.UpdateSprintRequest) (*primary.Sprint, error) {
	var updated *secondary.SprintRecord
	err := s.tx.WithinTx(ctx, "sprint.update", func(ctx context.Context) error {
		record, err := s.sprintRepo.GetByID(ctx, req.SprintID)
		if err != nil {
			return err
		}
		if req.Name != nil {
			record.Name = *req.Name
		}
		if req.Goal != nil {
			record.Goal = *req.Goal
		}
		if req.StartDate != nil {
			record.StartDate = *req.StartDate
		}
		if req.EndDate != nil {
			record.EndDate = *req.EndDate
		}

		guard := coresprint.CanEditSprint(coresprint.EditSprintContext{
			SprintID:  record.ID,
			Name:      record.Name,
			StartDate: record.StartDate,
			EndDate:   record.EndDate,
		})
		if err := guard.Error(); err != nil {
			return err
		}

		if err := s.sprintRepo.Update(ctx, record); err != nil {
			return err
		}
		updated = record
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update sprint: %w", err)
	}
	return recordToSprint(updated), nil
}

// ArchiveCurrentSprint archives the partition's active sprint. Member items
// keep their status and sprint reference.
func (s *SprintServiceImpl) ArchiveCurrentSprint(ctx context.Context, isTutorial bool) (*primary.Sprint, error) {
	var archived *secondary.SprintRecord
	err := s.tx.WithinTx(ctx, "sprint.archive", func(ctx context.Context) error {
		active, err := s.sprintRepo.GetActive(ctx, isTutorial)
		if err != nil {
			return err
		}
		guard := coresprint.CanArchiveSprint(coresprint.ArchiveContext{ActiveSprintID: sprintIDOf(active)})
		if err := guard.Error(); err != nil {
			return err
		}

		if err := s.executor.Execute(ctx, []effects.Effect{effects.ArchiveSprint(active.ID)}); err != nil {
			return err
		}
		archived, err = s.sprintRepo.GetByID(ctx, active.ID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to archive sprint: %w", err)
	}

	s.logger.InfoContext(ctx, "sprint archived", "sprint_id", archived.ID)
	return recordToSprint(archived), nil
}

// RestoreSprint makes an archived sprint active again. Any other active
// sprint in the same partition is archived within the same transaction.
func (s *SprintServiceImpl) RestoreSprint(ctx context.Context, sprintID int64) (*primary.Sprint, error) {
	var restored *secondary.SprintRecord
	err := s.tx.WithinTx(ctx, "sprint.restore", func(ctx context.Context) error {
		target, err := s.sprintRepo.GetByID(ctx, sprintID)
		if err != nil {
			return err
		}
		active, err := s.sprintRepo.GetActive(ctx, target.IsTutorial)
		if err != nil {
			return err
		}

		plan := coresprint.GenerateRestorePlan(target.ID, sprintIDOf(active))
		if err := s.executor.Execute(ctx, plan); err != nil {
			return err
		}
		restored, err = s.sprintRepo.GetByID(ctx, target.ID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to restore sprint: %w", err)
	}
	return recordToSprint(restored), nil
}

// DeleteSprint deletes a sprint and resets every item that referenced it.
func (s *SprintServiceImpl) DeleteSprint(ctx context.Context, sprintID int64) error {
	err := s.tx.WithinTx(ctx, "sprint.delete", func(ctx context.Context) error {
		record, err := s.sprintRepo.GetByID(ctx, sprintID)
		if err != nil {
			return err
		}
		items, err := s.itemRepo.List(ctx, secondary.BacklogItemFilters{
			IsTutorial: record.IsTutorial,
			SprintID:   &record.ID,
		})
		if err != nil {
			return err
		}

		plan := coresprint.GenerateDeleteSprintPlan(record.ID, recordsToNodes(items))
		s.logger.DebugContext(ctx, "deleting sprint", "sprint_id", record.ID, "items_reset", len(plan)-1)
		return s.executor.Execute(ctx, plan)
	})
	if err != nil {
		return fmt.Errorf("failed to delete sprint: %w", err)
	}
	return nil
}

// AddItemToSprint adds an item to the active sprint of its partition.
// A Story brings its Tasks and Bugs along.
func (s *SprintServiceImpl) AddItemToSprint(ctx context.Context, itemID int64) (*primary.Sprint, error) {
	return s.changeMembership(ctx, "sprint.add_item", itemID, true)
}

// RemoveItemFromSprint removes an item from the active sprint of its
// partition. Removing an item that is not a member is a no-op.
func (s *SprintServiceImpl) RemoveItemFromSprint(ctx context.Context, itemID int64) (*primary.Sprint, error) {
	return s.changeMembership(ctx, "sprint.remove_item", itemID, false)
}

func (s *SprintServiceImpl) changeMembership(ctx context.Context, name string, itemID int64, assign bool) (*primary.Sprint, error) {
	var result *secondary.SprintRecord
	err := s.tx.WithinTx(ctx, name, func(ctx context.Context) error {
		record, err := s.itemRepo.GetByID(ctx, itemID)
		if err != nil {
			return err
		}
		item := recordToNode(record)

		active, err := s.sprintRepo.GetActive(ctx, item.IsTutorial)
		if err != nil {
			return err
		}

		var parentType backlog.ItemType
		if item.ParentID != nil {
			parent, err := s.itemRepo.GetByID(ctx, *item.ParentID)
			if err != nil && !errors.Is(err, errs.ErrNotFound) {
				return err
			}
			if parent != nil {
				parentType = backlog.ItemType(parent.Type)
			}
		}

		guard := coresprint.CanChangeMembership(coresprint.MembershipContext{
			ActiveSprintID:   sprintIDOf(active),
			ActiveIsTutorial: item.IsTutorial,
			Item:             item,
			ParentType:       parentType,
		})
		if err := guard.Error(); err != nil {
			return err
		}

		children, err := s.itemRepo.List(ctx, secondary.BacklogItemFilters{
			IsTutorial: item.IsTutorial,
			ParentID:   &item.ID,
		})
		if err != nil {
			return err
		}

		plan := coresprint.GenerateAssignmentPlan(coresprint.AssignmentInput{
			SprintID:      active.ID,
			SprintItemIDs: active.ItemIDs,
			Item:          item,
			Children:      recordsToNodes(children),
			Assign:        assign,
		})
		if plan.Empty() {
			s.logger.DebugContext(ctx, "membership unchanged", "item_id", item.ID, "sprint_id", active.ID)
		} else if err := s.executor.Execute(ctx, plan.Effects()); err != nil {
			return err
		}

		result, err = s.sprintRepo.GetByID(ctx, active.ID)
		return err
	})
	if err != nil {
		verb := "add item to"
		if !assign {
			verb = "remove item from"
		}
		return nil, fmt.Errorf("failed to %s sprint: %w", verb, err)
	}
	return recordToSprint(result), nil
}

// Helper methods

func sprintIDOf(r *secondary.SprintRecord) int64 {
	if r == nil {
		return 0
	}
	return r.ID
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func recordToSprint(r *secondary.SprintRecord) *primary.Sprint {
	return &primary.Sprint{
		ID:         r.ID,
		Name:       r.Name,
		Goal:       r.Goal,
		StartDate:  r.StartDate,
		EndDate:    r.EndDate,
		ItemIDs:    coresprint.NormalizeItemIDs(r.ItemIDs),
		IsArchived: r.IsArchived,
		IsTutorial: r.IsTutorial,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}
