package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/example/taskly/internal/core/backlog"
	coresprint "github.com/example/taskly/internal/core/sprint"
	"github.com/example/taskly/internal/errs"
	"github.com/example/taskly/internal/ports/primary"
	"github.com/example/taskly/internal/ports/secondary"
)

// BacklogServiceImpl implements the BacklogService interface.
type BacklogServiceImpl struct {
	itemRepo    secondary.BacklogItemRepository
	sprintRepo  secondary.SprintRepository
	tx          secondary.Transactor
	executor    EffectExecutor
	logger      *slog.Logger
	reviewStage bool
}

// NewBacklogService creates a new BacklogService with injected dependencies.
// reviewStage controls whether board moves pass through Review.
func NewBacklogService(
	itemRepo secondary.BacklogItemRepository,
	sprintRepo secondary.SprintRepository,
	tx secondary.Transactor,
	executor EffectExecutor,
	logger *slog.Logger,
	reviewStage bool,
) *BacklogServiceImpl {
	if logger == nil {
		logger = slog.Default()
	}
	return &BacklogServiceImpl{
		itemRepo:    itemRepo,
		sprintRepo:  sprintRepo,
		tx:          tx,
		executor:    executor,
		logger:      logger,
		reviewStage: reviewStage,
	}
}

// CreateItem creates a new backlog item.
func (s *BacklogServiceImpl) CreateItem(ctx context.Context, req primary.CreateItemRequest) (*primary.CreateItemResponse, error) {
	var created *secondary.BacklogItemRecord

	err := s.tx.WithinTx(ctx, "item.create", func(ctx context.Context) error {
		var (
			parentNode    *backlog.Node
			parentSummary *backlog.ParentSummary
		)
		if req.ParentID != nil {
			parent, err := s.itemRepo.GetByID(ctx, *req.ParentID)
			if err != nil {
				return err
			}
			n := recordToNode(parent)
			parentNode = &n
			parentSummary = &backlog.ParentSummary{ID: n.ID, Type: n.Type, IsTutorial: n.IsTutorial, Exists: true}
		}

		guard := backlog.CanCreateItem(backlog.CreateItemContext{
			Title:      req.Title,
			Type:       req.Type,
			Points:     req.StoryPoints,
			IsTutorial: req.IsTutorial,
			Parent:     parentSummary,
		})
		if err := guard.Error(); err != nil {
			return err
		}

		priority := req.Priority
		if priority == 0 {
			count, err := s.itemRepo.Count(ctx, req.IsTutorial)
			if err != nil {
				return err
			}
			priority = count + 1
		}

		initial := backlog.OnItemCreated(parentNode)
		record := &secondary.BacklogItemRecord{
			Title:       req.Title,
			Description: req.Description,
			StoryPoints: req.StoryPoints,
			Priority:    priority,
			Status:      string(initial.Status),
			Type:        string(req.Type),
			SprintID:    initial.SprintID,
			ParentID:    req.ParentID,
			IsTutorial:  req.IsTutorial,
		}
		if err := s.itemRepo.Create(ctx, record); err != nil {
			return err
		}
		if initial.SprintID != nil {
			s.logger.DebugContext(ctx, "item inherited sprint from parent",
				"item_id", record.ID, "parent_id", *req.ParentID, "sprint_id", *initial.SprintID)
		}

		var err error
		created, err = s.itemRepo.GetByID(ctx, record.ID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}

	return &primary.CreateItemResponse{
		ItemID: created.ID,
		Item:   recordToItem(created),
	}, nil
}

// GetItem retrieves an item by ID.
func (s *BacklogServiceImpl) GetItem(ctx context.Context, itemID int64) (*primary.BacklogItem, error) {
	record, err := s.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	return recordToItem(record), nil
}

// ListItems lists items of one partition with optional filters.
func (s *BacklogServiceImpl) ListItems(ctx context.Context, filters primary.ItemFilters) ([]*primary.BacklogItem, error) {
	records, err := s.itemRepo.List(ctx, secondary.BacklogItemFilters{
		IsTutorial: filters.IsTutorial,
		Type:       string(filters.Type),
		Status:     string(filters.Status),
		ParentID:   filters.ParentID,
		SprintID:   filters.SprintID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}

	items := make([]*primary.BacklogItem, len(records))
	for i, r := range records {
		items[i] = recordToItem(r)
	}
	return items, nil
}

// UpdateItem edits an item in place and re-derives its sprint membership
// when its type or parent changed.
func (s *BacklogServiceImpl) UpdateItem(ctx context.Context, req primary.UpdateItemRequest) (*primary.BacklogItem, error) {
	var updated *secondary.BacklogItemRecord

	err := s.tx.WithinTx(ctx, "item.update", func(ctx context.Context) error {
		record, err := s.itemRepo.GetByID(ctx, req.ItemID)
		if err != nil {
			return err
		}

		if req.Title != nil {
			record.Title = *req.Title
		}
		if req.Description != nil {
			record.Description = *req.Description
		}
		if req.Type != nil {
			record.Type = string(*req.Type)
		}
		if req.StoryPoints != nil {
			record.StoryPoints = *req.StoryPoints
		}
		if req.Priority != nil {
			record.Priority = *req.Priority
		}
		switch {
		case req.ClearParent:
			record.ParentID = nil
		case req.ParentID != nil:
			record.ParentID = copyID(req.ParentID)
		}

		var (
			parentNode    *backlog.Node
			parentSummary *backlog.ParentSummary
		)
		if record.ParentID != nil {
			if *record.ParentID == record.ID {
				parentSummary = &backlog.ParentSummary{ID: record.ID, Exists: true}
			} else {
				parent, err := s.itemRepo.GetByID(ctx, *record.ParentID)
				if err != nil {
					return err
				}
				n := recordToNode(parent)
				parentNode = &n
				parentSummary = &backlog.ParentSummary{ID: n.ID, Type: n.Type, IsTutorial: n.IsTutorial, Exists: true}
			}
		}

		children, err := s.itemRepo.List(ctx, secondary.BacklogItemFilters{
			IsTutorial: record.IsTutorial,
			ParentID:   &record.ID,
		})
		if err != nil {
			return err
		}
		childTypes := make([]backlog.ItemType, len(children))
		for i, c := range children {
			childTypes[i] = backlog.ItemType(c.Type)
		}

		guard := backlog.CanUpdateItem(backlog.UpdateItemContext{
			ItemID:     record.ID,
			Title:      record.Title,
			Type:       backlog.ItemType(record.Type),
			Points:     record.StoryPoints,
			IsTutorial: record.IsTutorial,
			Parent:     parentSummary,
			ChildTypes: childTypes,
		})
		if err := guard.Error(); err != nil {
			return err
		}

		if err := s.itemRepo.Update(ctx, record); err != nil {
			return err
		}

		listedIn, err := s.sprintsListing(ctx, record.ID, record.IsTutorial)
		if err != nil {
			return err
		}
		plan := backlog.GenerateAlignPlan(backlog.AlignInput{
			Item:     recordToNode(record),
			Parent:   parentNode,
			ListedIn: listedIn,
		})
		if len(plan) > 0 {
			s.logger.DebugContext(ctx, "realigning item membership", "item_id", record.ID, "effects", len(plan))
			if err := s.executor.Execute(ctx, plan); err != nil {
				return err
			}
		}

		updated, err = s.itemRepo.GetByID(ctx, record.ID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update item: %w", err)
	}

	return recordToItem(updated), nil
}

// SetItemStatus sets an item's status directly, skipping stages if asked to.
func (s *BacklogServiceImpl) SetItemStatus(ctx context.Context, itemID int64, status backlog.Status) (*primary.BacklogItem, error) {
	parsed, err := backlog.ParseStatus(string(status))
	if err != nil {
		return nil, errs.Validation("status", "%v", err)
	}
	return s.moveStatus(ctx, "item.status", itemID, func(n backlog.Node) (backlog.Status, error) {
		return parsed, nil
	})
}

// AdvanceItem moves an item one step right on the board.
func (s *BacklogServiceImpl) AdvanceItem(ctx context.Context, itemID int64) (*primary.BacklogItem, error) {
	return s.moveStatus(ctx, "item.advance", itemID, func(n backlog.Node) (backlog.Status, error) {
		guard := backlog.CanAdvanceStatus(backlog.StatusMoveContext{
			ItemID:      n.ID,
			Status:      n.Status,
			InSprint:    backlog.IsInSprint(n),
			ReviewStage: s.reviewStage,
		})
		if err := guard.Error(); err != nil {
			return "", err
		}
		next, _ := backlog.NextStatus(n.Status, s.reviewStage)
		return next, nil
	})
}

// ReverseItem moves an item one step left on the board.
func (s *BacklogServiceImpl) ReverseItem(ctx context.Context, itemID int64) (*primary.BacklogItem, error) {
	return s.moveStatus(ctx, "item.reverse", itemID, func(n backlog.Node) (backlog.Status, error) {
		guard := backlog.CanReverseStatus(backlog.StatusMoveContext{
			ItemID:      n.ID,
			Status:      n.Status,
			InSprint:    backlog.IsInSprint(n),
			ReviewStage: s.reviewStage,
		})
		if err := guard.Error(); err != nil {
			return "", err
		}
		prev, _ := backlog.PrevStatus(n.Status, s.reviewStage)
		return prev, nil
	})
}

func (s *BacklogServiceImpl) moveStatus(ctx context.Context, name string, itemID int64, next func(backlog.Node) (backlog.Status, error)) (*primary.BacklogItem, error) {
	var updated *secondary.BacklogItemRecord

	err := s.tx.WithinTx(ctx, name, func(ctx context.Context) error {
		record, err := s.itemRepo.GetByID(ctx, itemID)
		if err != nil {
			return err
		}
		status, err := next(recordToNode(record))
		if err != nil {
			return err
		}
		record.Status = string(status)
		if err := s.itemRepo.Update(ctx, record); err != nil {
			return err
		}
		updated = record
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to change item status: %w", err)
	}

	return recordToItem(updated), nil
}

// DeleteItem deletes an item. Children are orphaned; a Story's children
// also leave the sprint.
func (s *BacklogServiceImpl) DeleteItem(ctx context.Context, itemID int64) error {
	err := s.tx.WithinTx(ctx, "item.delete", func(ctx context.Context) error {
		record, err := s.itemRepo.GetByID(ctx, itemID)
		if err != nil {
			return err
		}

		children, err := s.itemRepo.List(ctx, secondary.BacklogItemFilters{
			IsTutorial: record.IsTutorial,
			ParentID:   &record.ID,
		})
		if err != nil {
			return err
		}

		sprints, err := s.sprintRepo.List(ctx, secondary.SprintFilters{IsTutorial: record.IsTutorial})
		if err != nil {
			return err
		}
		summaries := make([]backlog.SprintSummary, len(sprints))
		for i, sp := range sprints {
			summaries[i] = backlog.SprintSummary{ID: sp.ID, ItemIDs: sp.ItemIDs}
		}

		plan := backlog.GenerateDeletePlan(backlog.DeletePlanInput{
			Item:     recordToNode(record),
			Children: recordsToNodes(children),
			Sprints:  summaries,
		})
		s.logger.DebugContext(ctx, "deleting item",
			"item_id", itemID, "children", len(children), "memberships", len(plan.Memberships))

		return s.executor.Execute(ctx, plan.Effects())
	})
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	return nil
}

func (s *BacklogServiceImpl) sprintsListing(ctx context.Context, itemID int64, tutorial bool) ([]int64, error) {
	sprints, err := s.sprintRepo.List(ctx, secondary.SprintFilters{IsTutorial: tutorial})
	if err != nil {
		return nil, err
	}
	var out []int64
	for _, sp := range sprints {
		if coresprint.Contains(sp.ItemIDs, itemID) {
			out = append(out, sp.ID)
		}
	}
	return out, nil
}

// Helper methods

func recordToItem(r *secondary.BacklogItemRecord) *primary.BacklogItem {
	return &primary.BacklogItem{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		StoryPoints: r.StoryPoints,
		Priority:    r.Priority,
		Status:      backlog.Status(r.Status),
		Type:        backlog.ItemType(r.Type),
		SprintID:    copyID(r.SprintID),
		ParentID:    copyID(r.ParentID),
		IsTutorial:  r.IsTutorial,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func recordToNode(r *secondary.BacklogItemRecord) backlog.Node {
	return backlog.Node{
		ID:         r.ID,
		Type:       backlog.ItemType(r.Type),
		Status:     backlog.Status(r.Status),
		ParentID:   copyID(r.ParentID),
		SprintID:   copyID(r.SprintID),
		IsTutorial: r.IsTutorial,
		Points:     r.StoryPoints,
	}
}

func recordsToNodes(records []*secondary.BacklogItemRecord) []backlog.Node {
	nodes := make([]backlog.Node, len(records))
	for i, r := range records {
		nodes[i] = recordToNode(r)
	}
	return nodes
}
