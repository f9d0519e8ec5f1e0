package primary

import (
	"context"

	"github.com/example/taskly/internal/db"
)

// SeedService loads a fixture backlog through the backlog and sprint services.
type SeedService interface {
	// Seed creates the fixture items in one partition. An existing active
	// sprint is reused instead of creating the fixture sprint.
	Seed(ctx context.Context, fx *db.Fixtures, isTutorial bool) (*SeedResult, error)
}

// SeedResult summarizes a seed run.
type SeedResult struct {
	Items         int
	SprintID      *int64
	SprintCreated bool
	Planned       int // items added to the sprint directly
}

// IntroService drives the tutorial partition.
type IntroService interface {
	// Run builds the tutorial backlog and marks the introduction completed.
	// It does nothing when the introduction was already completed.
	Run(ctx context.Context) (*IntroResult, error)

	// Reset clears the tutorial partition and the completion flag.
	Reset(ctx context.Context) error
}

// IntroResult describes what the tutorial run did, step by step.
type IntroResult struct {
	AlreadyCompleted bool
	Steps            []string
	Sprint           *Sprint
	StoryID          int64
}
