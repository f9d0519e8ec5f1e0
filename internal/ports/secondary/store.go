package secondary

import "context"

// SettingsRepository defines the secondary port for app settings.
type SettingsRepository interface {
	// Get returns the value for key and whether it was set.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error
}

// MaintenanceRepository defines whole-store operations.
type MaintenanceRepository interface {
	// DeleteAll removes items and sprints. With tutorialOnly only the
	// tutorial partition is cleared.
	DeleteAll(ctx context.Context, tutorialOnly bool) error

	// Revision returns a counter that changes on every committed write.
	Revision(ctx context.Context) (int64, error)
}

// Transactor runs a unit of work atomically. Repositories called with the
// ctx passed to fn take part in the transaction.
type Transactor interface {
	WithinTx(ctx context.Context, name string, fn func(ctx context.Context) error) error
}

// ChangeFeed reports writes made by other processes.
type ChangeFeed interface {
	// Run blocks until ctx is done, calling onChange after each detected change.
	Run(ctx context.Context, onChange func()) error
}
