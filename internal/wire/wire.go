// Package wire provides dependency injection for Taskly. It opens the
// configured backend, builds the repositories and services on top of it,
// and picks the change feed that matches the backend.
package wire

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/example/taskly/internal/adapters/filesystem"
	"github.com/example/taskly/internal/adapters/poller"
	"github.com/example/taskly/internal/adapters/postgres"
	"github.com/example/taskly/internal/adapters/sqlite"
	"github.com/example/taskly/internal/app"
	"github.com/example/taskly/internal/config"
	"github.com/example/taskly/internal/db"
	"github.com/example/taskly/internal/eventbus"
	"github.com/example/taskly/internal/ports/primary"
	"github.com/example/taskly/internal/ports/secondary"
	"github.com/example/taskly/internal/telemetry"
	"github.com/example/taskly/internal/view"
)

// App holds the services of one process.
type App struct {
	Config *config.Config
	Logger *slog.Logger
	Bus    *eventbus.Bus

	Backlog     primary.BacklogService
	Sprints     primary.SprintService
	Settings    primary.SettingsService
	Maintenance primary.MaintenanceService
	Seed        primary.SeedService
	Intro       primary.IntroService

	// Feed reports writes made by other processes.
	Feed secondary.ChangeFeed

	close func()
}

// repositories is what a backend provides.
type repositories struct {
	items       secondary.BacklogItemRepository
	sprints     secondary.SprintRepository
	settings    secondary.SettingsRepository
	maintenance secondary.MaintenanceRepository
	tx          secondary.Transactor
	feed        secondary.ChangeFeed
	close       func()
}

// Build opens the configured backend and wires every service.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var (
		repos *repositories
		err   error
	)
	switch cfg.Backend {
	case config.BackendPostgres:
		repos, err = openPostgres(ctx, cfg, logger)
	default:
		repos, err = openSQLite(ctx, cfg, logger)
	}
	if err != nil {
		return nil, err
	}

	tx := telemetry.WrapTransactor(repos.tx, cfg.Telemetry.Enabled)
	executor := app.NewEffectExecutor(repos.items, repos.sprints, logger)

	backlogSvc := app.NewBacklogService(repos.items, repos.sprints, tx, executor, logger, cfg.Workflow.ReviewStage)
	sprintSvc := app.NewSprintService(repos.sprints, repos.items, tx, executor, logger, cfg.Sprint.DefaultLength)
	settingsSvc := app.NewSettingsService(repos.settings)
	maintenanceSvc := app.NewMaintenanceService(repos.maintenance, repos.settings, tx, logger)

	return &App{
		Config:      cfg,
		Logger:      logger,
		Bus:         eventbus.New(logger),
		Backlog:     backlogSvc,
		Sprints:     sprintSvc,
		Settings:    settingsSvc,
		Maintenance: maintenanceSvc,
		Seed:        app.NewSeedService(backlogSvc, sprintSvc, logger),
		Intro:       app.NewIntroService(backlogSvc, sprintSvc, settingsSvc, maintenanceSvc, logger),
		Feed:        repos.feed,
		close:       repos.close,
	}, nil
}

// NewView creates a view store over this App's services and bus. The store
// reads the configured partition.
func (a *App) NewView(name string, opts ...view.Option) *view.Store {
	return a.NewPartitionView(name, a.Config.Tutorial, opts...)
}

// NewPartitionView is NewView for an explicit partition.
func (a *App) NewPartitionView(name string, isTutorial bool, opts ...view.Option) *view.Store {
	opts = append([]view.Option{view.WithLogger(a.Logger)}, opts...)
	loader := view.NewServiceLoader(a.Backlog, a.Sprints)
	return view.NewStore(name, isTutorial, loader, a.Bus, opts...)
}

// Close releases the backend.
func (a *App) Close() {
	if a.close != nil {
		a.close()
	}
}

func openSQLite(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*repositories, error) {
	database, err := db.Open(ctx, cfg.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite store: %w", err)
	}
	maintenance := sqlite.NewMaintenanceRepository(database)
	return &repositories{
		items:       sqlite.NewBacklogItemRepository(database),
		sprints:     sqlite.NewSprintRepository(database),
		settings:    sqlite.NewSettingsRepository(database),
		maintenance: maintenance,
		tx:          sqlite.NewTransactor(database, lockPath(cfg.SQLitePath), logger),
		feed:        sqliteFeed(cfg, maintenance, logger),
		close:       func() { closeSQL(database, logger) },
	}, nil
}

func sqliteFeed(cfg *config.Config, revisions poller.RevisionSource, logger *slog.Logger) secondary.ChangeFeed {
	if cfg.Sync.Mode == config.SyncPoll || cfg.SQLitePath == db.MemoryPath {
		return poller.New(revisions, cfg.Sync.PollInterval, logger)
	}
	return filesystem.NewStoreWatcher(cfg.SQLitePath, cfg.Sync.Debounce, logger)
}

func lockPath(path string) string {
	if path == db.MemoryPath {
		return ""
	}
	return db.LockPath(path)
}

func closeSQL(database *sql.DB, logger *slog.Logger) {
	if err := database.Close(); err != nil {
		logger.Warn("failed to close sqlite store", "error", err)
	}
}

func openPostgres(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*repositories, error) {
	pool, err := postgres.Open(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres store: %w", err)
	}
	maintenance := postgres.NewMaintenanceRepository(pool)
	return &repositories{
		items:       postgres.NewBacklogItemRepository(pool),
		sprints:     postgres.NewSprintRepository(pool),
		settings:    postgres.NewSettingsRepository(pool),
		maintenance: maintenance,
		tx:          postgres.NewTransactor(pool, logger),
		feed:        postgresFeed(cfg, pool, maintenance, logger),
		close:       pool.Close,
	}, nil
}

func postgresFeed(cfg *config.Config, pool *pgxpool.Pool, revisions poller.RevisionSource, logger *slog.Logger) secondary.ChangeFeed {
	if cfg.Sync.Mode == config.SyncPoll {
		return poller.New(revisions, cfg.Sync.PollInterval, logger)
	}
	return postgres.NewListener(pool, logger)
}
