package primary

import "context"

// SettingsService defines the primary port for app flags.
type SettingsService interface {
	// IntroductionCompleted reports whether the tutorial has been finished.
	IntroductionCompleted(ctx context.Context) (bool, error)

	// SetIntroductionCompleted records tutorial completion.
	SetIntroductionCompleted(ctx context.Context, done bool) error
}

// MaintenanceService defines the primary port for bulk resets.
type MaintenanceService interface {
	// Clean deletes all items and sprints, or only the tutorial partition.
	// Clearing the tutorial partition also resets the introduction flag.
	Clean(ctx context.Context, tutorialOnly bool) error
}
