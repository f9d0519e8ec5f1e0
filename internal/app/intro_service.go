package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/example/taskly/internal/core/backlog"
	"github.com/example/taskly/internal/ports/primary"
)

// IntroServiceImpl implements the IntroService interface. Everything it
// creates lives in the tutorial partition.
type IntroServiceImpl struct {
	backlog     primary.BacklogService
	sprints     primary.SprintService
	settings    primary.SettingsService
	maintenance primary.MaintenanceService
	logger      *slog.Logger
}

// NewIntroService creates a new IntroService.
func NewIntroService(
	backlogSvc primary.BacklogService,
	sprintSvc primary.SprintService,
	settingsSvc primary.SettingsService,
	maintenanceSvc primary.MaintenanceService,
	logger *slog.Logger,
) *IntroServiceImpl {
	if logger == nil {
		logger = slog.Default()
	}
	return &IntroServiceImpl{
		backlog:     backlogSvc,
		sprints:     sprintSvc,
		settings:    settingsSvc,
		maintenance: maintenanceSvc,
		logger:      logger,
	}
}

var introTasks = []struct {
	title  string
	typ    backlog.ItemType
	points int
}{
	{"Create a sprint", backlog.TypeTask, 1},
	{"Add a story to the sprint", backlog.TypeTask, 1},
	{"Move a card across the board", backlog.TypeTask, 2},
	{"Squash the sample bug", backlog.TypeBug, 1},
}

// Run walks the tutorial: sprint, epic, story with children, plan the story
// so the cascade pulls its children in, start the first task, and record
// completion.
func (s *IntroServiceImpl) Run(ctx context.Context) (*primary.IntroResult, error) {
	done, err := s.settings.IntroductionCompleted(ctx)
	if err != nil {
		return nil, err
	}
	if done {
		return &primary.IntroResult{AlreadyCompleted: true}, nil
	}

	result := &primary.IntroResult{}
	step := func(format string, args ...any) {
		result.Steps = append(result.Steps, fmt.Sprintf(format, args...))
	}

	sprint, err := s.sprints.GetActiveSprint(ctx, true)
	if err != nil {
		return nil, err
	}
	if sprint == nil {
		sprint, err = s.sprints.CreateSprint(ctx, primary.CreateSprintRequest{
			Name:       "Tutorial Sprint",
			Goal:       "Learn how stories, tasks and sprints fit together",
			IsTutorial: true,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create tutorial sprint: %w", err)
		}
		step("Created sprint %q", sprint.Name)
	} else {
		step("Reusing sprint %q", sprint.Name)
	}

	epic, err := s.backlog.CreateItem(ctx, primary.CreateItemRequest{
		Title:      "Getting started",
		Type:       backlog.TypeEpic,
		IsTutorial: true,
	})
	if err != nil {
		return nil, err
	}
	step("Created epic #%d %q", epic.ItemID, epic.Item.Title)

	story, err := s.backlog.CreateItem(ctx, primary.CreateItemRequest{
		Title:       "Plan your first sprint",
		Type:        backlog.TypeStory,
		StoryPoints: 5,
		ParentID:    backlog.IDPtr(epic.ItemID),
		IsTutorial:  true,
	})
	if err != nil {
		return nil, err
	}
	step("Created story #%d under the epic", story.ItemID)
	result.StoryID = story.ItemID

	var firstTask int64
	for _, t := range introTasks {
		child, err := s.backlog.CreateItem(ctx, primary.CreateItemRequest{
			Title:       t.title,
			Type:        t.typ,
			StoryPoints: t.points,
			ParentID:    backlog.IDPtr(story.ItemID),
			IsTutorial:  true,
		})
		if err != nil {
			return nil, err
		}
		if firstTask == 0 {
			firstTask = child.ItemID
		}
	}
	step("Added %d tasks and bugs to the story", len(introTasks))

	sprint, err = s.sprints.AddItemToSprint(ctx, story.ItemID)
	if err != nil {
		return nil, fmt.Errorf("failed to plan tutorial story: %w", err)
	}
	step("Added the story to the sprint; its children followed")

	if _, err := s.backlog.AdvanceItem(ctx, firstTask); err != nil {
		return nil, fmt.Errorf("failed to start tutorial task: %w", err)
	}
	step("Started task #%d on the board", firstTask)

	if err := s.settings.SetIntroductionCompleted(ctx, true); err != nil {
		return nil, err
	}
	step("Introduction completed")

	result.Sprint = sprint
	s.logger.InfoContext(ctx, "introduction completed", "sprint_id", sprint.ID, "story_id", story.ItemID)
	return result, nil
}

// Reset clears the tutorial partition so the introduction can be replayed.
func (s *IntroServiceImpl) Reset(ctx context.Context) error {
	return s.maintenance.Clean(ctx, true)
}

var _ primary.IntroService = (*IntroServiceImpl)(nil)
