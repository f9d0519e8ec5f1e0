package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/example/taskly/internal/core/backlog"
	"github.com/example/taskly/internal/db"
	"github.com/example/taskly/internal/ports/primary"
)

// SeedServiceImpl implements the SeedService interface.
type SeedServiceImpl struct {
	backlog primary.BacklogService
	sprints primary.SprintService
	logger  *slog.Logger
}

// NewSeedService creates a new SeedService.
func NewSeedService(backlogSvc primary.BacklogService, sprintSvc primary.SprintService, logger *slog.Logger) *SeedServiceImpl {
	if logger == nil {
		logger = slog.Default()
	}
	return &SeedServiceImpl{backlog: backlogSvc, sprints: sprintSvc, logger: logger}
}

// Seed creates every fixture item, then plans the ones marked in_sprint.
// Items go through the services one call at a time, so a failure part way
// leaves the items created so far in place.
func (s *SeedServiceImpl) Seed(ctx context.Context, fx *db.Fixtures, isTutorial bool) (*primary.SeedResult, error) {
	result := &primary.SeedResult{}
	var planned []int64

	if fx.Sprint != nil {
		active, err := s.sprints.GetActiveSprint(ctx, isTutorial)
		if err != nil {
			return nil, err
		}
		if active == nil {
			active, err = s.sprints.CreateSprint(ctx, primary.CreateSprintRequest{
				Name:       fx.Sprint.Name,
				Goal:       fx.Sprint.Goal,
				IsTutorial: isTutorial,
			})
			if err != nil {
				return nil, fmt.Errorf("failed to create fixture sprint: %w", err)
			}
			result.SprintCreated = true
		}
		result.SprintID = backlog.IDPtr(active.ID)
	}

	create := func(title, description string, typ backlog.ItemType, points int, parent *int64) (int64, error) {
		resp, err := s.backlog.CreateItem(ctx, primary.CreateItemRequest{
			Title:       title,
			Description: description,
			Type:        typ,
			StoryPoints: points,
			ParentID:    parent,
			IsTutorial:  isTutorial,
		})
		if err != nil {
			return 0, fmt.Errorf("failed to create %s %q: %w", typ, title, err)
		}
		result.Items++
		return resp.ItemID, nil
	}

	for _, epic := range fx.Epics {
		epicID, err := create(epic.Title, epic.Description, backlog.TypeEpic, 0, nil)
		if err != nil {
			return result, err
		}
		for _, story := range epic.Stories {
			storyID, err := create(story.Title, story.Description, backlog.TypeStory, story.Points, backlog.IDPtr(epicID))
			if err != nil {
				return result, err
			}
			for _, it := range story.Items {
				typ, err := backlog.ParseType(it.ItemType())
				if err != nil {
					return result, err
				}
				if _, err := create(it.Title, it.Description, typ, it.Points, backlog.IDPtr(storyID)); err != nil {
					return result, err
				}
			}
			if story.InSprint {
				planned = append(planned, storyID)
			}
		}
	}
	for _, it := range fx.Items {
		typ, err := backlog.ParseType(it.ItemType())
		if err != nil {
			return result, err
		}
		itemID, err := create(it.Title, it.Description, typ, it.Points, nil)
		if err != nil {
			return result, err
		}
		if it.InSprint {
			planned = append(planned, itemID)
		}
	}

	if result.SprintID != nil {
		for _, itemID := range planned {
			if _, err := s.sprints.AddItemToSprint(ctx, itemID); err != nil {
				return result, fmt.Errorf("failed to plan item %d: %w", itemID, err)
			}
			result.Planned++
		}
	}

	s.logger.InfoContext(ctx, "seeded backlog",
		"items", result.Items, "planned", result.Planned, "tutorial", isTutorial)
	return result, nil
}

var _ primary.SeedService = (*SeedServiceImpl)(nil)
