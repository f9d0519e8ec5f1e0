package postgres_test

import (
	"context"
	"errors"
	"os/exec"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/example/taskly/internal/adapters/postgres"
	"github.com/example/taskly/internal/app"
	"github.com/example/taskly/internal/core/backlog"
	"github.com/example/taskly/internal/errs"
	"github.com/example/taskly/internal/ports/primary"
	"github.com/example/taskly/internal/ports/secondary"
)

// dockerAvailable checks whether the Docker daemon is reachable.
// testcontainers-go panics when Docker is missing, so check for it up-front.
func dockerAvailable() bool {
	return exec.Command("docker", "info").Run() == nil
}

// newTestPool starts a PostgreSQL 16 container and returns a migrated pool.
// The test is skipped when Docker is not available.
func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if !dockerAvailable() {
		t.Skip("Docker not available, skipping PostgreSQL integration tests")
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("taskly"),
		tcpostgres.WithUsername("taskly"),
		tcpostgres.WithPassword("taskly"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Skipf("failed to start PostgreSQL container: %v", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	pool, err := postgres.Open(ctx, dsn)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

// reset clears data rows so subtests sharing a container start empty.
func reset(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	if _, err := pool.Exec(context.Background(), "TRUNCATE backlog_items, sprints RESTART IDENTITY CASCADE"); err != nil {
		t.Fatalf("failed to reset tables: %v", err)
	}
}

type services struct {
	backlog     *app.BacklogServiceImpl
	sprint      *app.SprintServiceImpl
	maintenance *app.MaintenanceServiceImpl
	settings    *app.SettingsServiceImpl
}

func newServices(pool *pgxpool.Pool) services {
	items := postgres.NewBacklogItemRepository(pool)
	sprints := postgres.NewSprintRepository(pool)
	settings := postgres.NewSettingsRepository(pool)
	tx := postgres.NewTransactor(pool, nil)
	executor := app.NewEffectExecutor(items, sprints, nil)
	return services{
		backlog:     app.NewBacklogService(items, sprints, tx, executor, nil, true),
		sprint:      app.NewSprintService(sprints, items, tx, executor, nil, 0),
		maintenance: app.NewMaintenanceService(postgres.NewMaintenanceRepository(pool), settings, tx, nil),
		settings:    app.NewSettingsService(settings),
	}
}

func create(t *testing.T, svc services, title string, typ backlog.ItemType, parent *int64) *primary.BacklogItem {
	t.Helper()
	resp, err := svc.backlog.CreateItem(context.Background(), primary.CreateItemRequest{Title: title, Type: typ, ParentID: parent})
	if err != nil {
		t.Fatalf("CreateItem(%s) failed: %v", title, err)
	}
	return resp.Item
}

func get(t *testing.T, svc services, id int64) *primary.BacklogItem {
	t.Helper()
	item, err := svc.backlog.GetItem(context.Background(), id)
	if err != nil {
		t.Fatalf("GetItem(%d) failed: %v", id, err)
	}
	return item
}

func TestPostgresStore(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()

	t.Run("schema is at latest version", func(t *testing.T) {
		version, err := postgres.CurrentVersion(ctx, pool)
		if err != nil {
			t.Fatalf("CurrentVersion failed: %v", err)
		}
		if version != postgres.LatestVersion() {
			t.Errorf("version = %d, want %d", version, postgres.LatestVersion())
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			t.Errorf("re-running migrations failed: %v", err)
		}
	})

	t.Run("item round trip and not found", func(t *testing.T) {
		reset(t, pool)
		repo := postgres.NewBacklogItemRepository(pool)

		record := &secondary.BacklogItemRecord{Title: "Login", Description: "oauth", StoryPoints: 3, Priority: 1, Status: "backlog", Type: "story"}
		if err := repo.Create(ctx, record); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if record.ID == 0 {
			t.Fatal("expected ID to be set")
		}

		got, err := repo.GetByID(ctx, record.ID)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if got.Title != "Login" || got.StoryPoints != 3 || got.SprintID != nil || got.ParentID != nil {
			t.Errorf("unexpected record: %+v", got)
		}

		if _, err := repo.GetByID(ctx, 9999); !errors.Is(err, errs.ErrNotFound) {
			t.Errorf("GetByID(missing) error = %v, want not found", err)
		}
		if err := repo.Delete(ctx, 9999); !errors.Is(err, errs.ErrNotFound) {
			t.Errorf("Delete(missing) error = %v, want not found", err)
		}
	})

	t.Run("sprint item set is stored sorted", func(t *testing.T) {
		reset(t, pool)
		repo := postgres.NewSprintRepository(pool)
		start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
		record := &secondary.SprintRecord{Name: "S1", StartDate: start, EndDate: start.AddDate(0, 0, 14), ItemIDs: []int64{7, 3, 7}}
		if err := repo.Create(ctx, record); err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		active, err := repo.GetActive(ctx, false)
		if err != nil {
			t.Fatalf("GetActive failed: %v", err)
		}
		if active == nil || active.ID != record.ID {
			t.Fatalf("GetActive = %+v, want sprint %d", active, record.ID)
		}
		if len(active.ItemIDs) != 2 || active.ItemIDs[0] != 3 || active.ItemIDs[1] != 7 {
			t.Errorf("ItemIDs = %v, want [3 7]", active.ItemIDs)
		}
		if !active.StartDate.Equal(start) {
			t.Errorf("StartDate = %v, want %v", active.StartDate, start)
		}

		none, err := repo.GetActive(ctx, true)
		if err != nil || none != nil {
			t.Errorf("GetActive(tutorial) = %+v, %v; want nil, nil", none, err)
		}
	})

	t.Run("story cascade through services", func(t *testing.T) {
		reset(t, pool)
		svc := newServices(pool)

		epic := create(t, svc, "E1", backlog.TypeEpic, nil)
		story := create(t, svc, "St1", backlog.TypeStory, &epic.ID)
		task := create(t, svc, "T1", backlog.TypeTask, &story.ID)

		sprint, err := svc.sprint.CreateSprint(ctx, primary.CreateSprintRequest{Name: "S1"})
		if err != nil {
			t.Fatalf("CreateSprint failed: %v", err)
		}
		if _, err := svc.sprint.AddItemToSprint(ctx, story.ID); err != nil {
			t.Fatalf("AddItemToSprint failed: %v", err)
		}

		got := get(t, svc, task.ID)
		if got.Status != backlog.StatusTodo || got.SprintID == nil || *got.SprintID != sprint.ID {
			t.Errorf("task after add = {%s, %v}, want {todo, %d}", got.Status, got.SprintID, sprint.ID)
		}

		if _, err := svc.sprint.RemoveItemFromSprint(ctx, story.ID); err != nil {
			t.Fatalf("RemoveItemFromSprint failed: %v", err)
		}
		got = get(t, svc, task.ID)
		if got.Status != backlog.StatusBacklog || got.SprintID != nil {
			t.Errorf("task after remove = {%s, %v}, want {backlog, nil}", got.Status, got.SprintID)
		}
	})

	t.Run("second active sprint conflicts", func(t *testing.T) {
		reset(t, pool)
		svc := newServices(pool)

		if _, err := svc.sprint.CreateSprint(ctx, primary.CreateSprintRequest{Name: "S1"}); err != nil {
			t.Fatalf("CreateSprint failed: %v", err)
		}
		_, err := svc.sprint.CreateSprint(ctx, primary.CreateSprintRequest{Name: "S2"})
		if !errors.Is(err, errs.ErrConflict) {
			t.Errorf("second CreateSprint error = %v, want conflict", err)
		}
		if _, err := svc.sprint.CreateSprint(ctx, primary.CreateSprintRequest{Name: "Tutorial", IsTutorial: true}); err != nil {
			t.Errorf("tutorial partition should be independent: %v", err)
		}
	})

	t.Run("restore archives the active sprint", func(t *testing.T) {
		reset(t, pool)
		svc := newServices(pool)

		s1, err := svc.sprint.CreateSprint(ctx, primary.CreateSprintRequest{Name: "S1"})
		if err != nil {
			t.Fatalf("CreateSprint failed: %v", err)
		}
		if _, err := svc.sprint.ArchiveCurrentSprint(ctx, false); err != nil {
			t.Fatalf("ArchiveCurrentSprint failed: %v", err)
		}
		s2, err := svc.sprint.CreateSprint(ctx, primary.CreateSprintRequest{Name: "S2"})
		if err != nil {
			t.Fatalf("CreateSprint failed: %v", err)
		}

		if _, err := svc.sprint.RestoreSprint(ctx, s1.ID); err != nil {
			t.Fatalf("RestoreSprint failed: %v", err)
		}
		active, err := svc.sprint.GetActiveSprint(ctx, false)
		if err != nil {
			t.Fatalf("GetActiveSprint failed: %v", err)
		}
		if active == nil || active.ID != s1.ID {
			t.Errorf("active = %+v, want sprint %d", active, s1.ID)
		}
		old, err := svc.sprint.GetSprint(ctx, s2.ID)
		if err != nil {
			t.Fatalf("GetSprint failed: %v", err)
		}
		if !old.IsArchived {
			t.Error("expected previously active sprint to be archived")
		}
	})

	t.Run("revision advances on writes", func(t *testing.T) {
		reset(t, pool)
		repo := postgres.NewMaintenanceRepository(pool)
		before, err := repo.Revision(ctx)
		if err != nil {
			t.Fatalf("Revision failed: %v", err)
		}
		create(t, newServices(pool), "E1", backlog.TypeEpic, nil)
		after, err := repo.Revision(ctx)
		if err != nil {
			t.Fatalf("Revision failed: %v", err)
		}
		if after <= before {
			t.Errorf("revision %d did not advance past %d", after, before)
		}
	})

	t.Run("listener reports writes", func(t *testing.T) {
		reset(t, pool)
		listenCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		changed := make(chan struct{}, 16)
		done := make(chan error, 1)
		go func() {
			done <- postgres.NewListener(pool, nil).Run(listenCtx, func() { changed <- struct{}{} })
		}()

		// LISTEN is registered asynchronously; keep writing until one lands.
		svc := newServices(pool)
		deadline := time.After(10 * time.Second)
		for received := false; !received; {
			if err := svc.settings.SetIntroductionCompleted(ctx, true); err != nil {
				t.Fatalf("SetIntroductionCompleted failed: %v", err)
			}
			select {
			case <-changed:
				received = true
			case <-time.After(200 * time.Millisecond):
			case <-deadline:
				t.Fatal("no change notification received")
			}
		}

		cancel()
		if err := <-done; err != nil {
			t.Errorf("Run returned %v after cancel, want nil", err)
		}
	})

	t.Run("clean tutorial partition only", func(t *testing.T) {
		reset(t, pool)
		svc := newServices(pool)
		create(t, svc, "Real", backlog.TypeEpic, nil)
		if _, err := svc.backlog.CreateItem(ctx, primary.CreateItemRequest{Title: "Demo", Type: backlog.TypeEpic, IsTutorial: true}); err != nil {
			t.Fatalf("CreateItem failed: %v", err)
		}
		if err := svc.settings.SetIntroductionCompleted(ctx, true); err != nil {
			t.Fatalf("SetIntroductionCompleted failed: %v", err)
		}

		if err := svc.maintenance.Clean(ctx, true); err != nil {
			t.Fatalf("Clean failed: %v", err)
		}

		regular, err := svc.backlog.ListItems(ctx, primary.ItemFilters{})
		if err != nil {
			t.Fatalf("ListItems failed: %v", err)
		}
		tutorial, err := svc.backlog.ListItems(ctx, primary.ItemFilters{IsTutorial: true})
		if err != nil {
			t.Fatalf("ListItems failed: %v", err)
		}
		if len(regular) != 1 || len(tutorial) != 0 {
			t.Errorf("after clean: %d real, %d tutorial; want 1, 0", len(regular), len(tutorial))
		}
		done, err := svc.settings.IntroductionCompleted(ctx)
		if err != nil {
			t.Fatalf("IntroductionCompleted failed: %v", err)
		}
		if done {
			t.Error("expected introduction flag to be reset")
		}
	})
}
