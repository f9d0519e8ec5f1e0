package view

import (
	"context"

	"github.com/example/taskly/internal/ports/primary"
)

// ServiceLoader reads view data through the primary ports.
type ServiceLoader struct {
	Backlog primary.BacklogService
	Sprints primary.SprintService
}

// NewServiceLoader creates a Loader over the backlog and sprint services.
func NewServiceLoader(backlog primary.BacklogService, sprints primary.SprintService) *ServiceLoader {
	return &ServiceLoader{Backlog: backlog, Sprints: sprints}
}

// Items lists every item of the partition.
func (l *ServiceLoader) Items(ctx context.Context, isTutorial bool) ([]*primary.BacklogItem, error) {
	return l.Backlog.ListItems(ctx, primary.ItemFilters{IsTutorial: isTutorial})
}

// CurrentSprint returns the active sprint, or nil.
func (l *ServiceLoader) CurrentSprint(ctx context.Context, isTutorial bool) (*primary.Sprint, error) {
	return l.Sprints.GetActiveSprint(ctx, isTutorial)
}

// ArchivedSprints lists archived sprints.
func (l *ServiceLoader) ArchivedSprints(ctx context.Context, isTutorial bool) ([]*primary.Sprint, error) {
	archived := true
	return l.Sprints.ListSprints(ctx, primary.SprintFilters{IsTutorial: isTutorial, Archived: &archived})
}

var _ Loader = (*ServiceLoader)(nil)
