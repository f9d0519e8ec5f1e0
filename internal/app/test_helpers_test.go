package app

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/example/taskly/internal/core/backlog"
	"github.com/example/taskly/internal/errs"
	"github.com/example/taskly/internal/ports/primary"
	"github.com/example/taskly/internal/ports/secondary"
)

// Ensure mocks implement the interfaces
var (
	_ secondary.BacklogItemRepository = (*mockItemRepository)(nil)
	_ secondary.SprintRepository      = (*mockSprintRepository)(nil)
	_ secondary.SettingsRepository    = (*mockSettingsRepository)(nil)
	_ secondary.MaintenanceRepository = (*mockMaintenanceRepository)(nil)
	_ secondary.Transactor            = (*mockTransactor)(nil)
)

// mockItemRepository implements secondary.BacklogItemRepository in memory.
// Records are copied on the way in and out like a real store.
type mockItemRepository struct {
	items     map[int64]*secondary.BacklogItemRecord
	nextID    int64
	createErr error
	updateErr error
	listErr   error
}

func newMockItemRepository() *mockItemRepository {
	return &mockItemRepository{items: make(map[int64]*secondary.BacklogItemRecord), nextID: 1}
}

func cloneItem(r *secondary.BacklogItemRecord) *secondary.BacklogItemRecord {
	c := *r
	c.SprintID = copyID(r.SprintID)
	c.ParentID = copyID(r.ParentID)
	return &c
}

func (m *mockItemRepository) Create(ctx context.Context, item *secondary.BacklogItemRecord) error {
	if m.createErr != nil {
		return m.createErr
	}
	item.ID = m.nextID
	m.nextID++
	m.items[item.ID] = cloneItem(item)
	return nil
}

func (m *mockItemRepository) GetByID(ctx context.Context, id int64) (*secondary.BacklogItemRecord, error) {
	r, ok := m.items[id]
	if !ok {
		return nil, errs.NotFound("item", id)
	}
	return cloneItem(r), nil
}

func (m *mockItemRepository) List(ctx context.Context, f secondary.BacklogItemFilters) ([]*secondary.BacklogItemRecord, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*secondary.BacklogItemRecord
	for _, r := range m.items {
		if r.IsTutorial != f.IsTutorial {
			continue
		}
		if f.Type != "" && r.Type != f.Type {
			continue
		}
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		if f.ParentID != nil && !backlog.SameID(r.ParentID, f.ParentID) {
			continue
		}
		if f.SprintID != nil && !backlog.SameID(r.SprintID, f.SprintID) {
			continue
		}
		out = append(out, cloneItem(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockItemRepository) Update(ctx context.Context, item *secondary.BacklogItemRecord) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.items[item.ID]; !ok {
		return errs.NotFound("item", item.ID)
	}
	m.items[item.ID] = cloneItem(item)
	return nil
}

func (m *mockItemRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.items[id]; !ok {
		return errs.NotFound("item", id)
	}
	delete(m.items, id)
	return nil
}

func (m *mockItemRepository) Count(ctx context.Context, isTutorial bool) (int, error) {
	n := 0
	for _, r := range m.items {
		if r.IsTutorial == isTutorial {
			n++
		}
	}
	return n, nil
}

// mockSprintRepository implements secondary.SprintRepository in memory.
type mockSprintRepository struct {
	sprints map[int64]*secondary.SprintRecord
	nextID  int64
}

func newMockSprintRepository() *mockSprintRepository {
	return &mockSprintRepository{sprints: make(map[int64]*secondary.SprintRecord), nextID: 1}
}

func cloneSprint(r *secondary.SprintRecord) *secondary.SprintRecord {
	c := *r
	c.ItemIDs = append([]int64{}, r.ItemIDs...)
	return &c
}

func (m *mockSprintRepository) Create(ctx context.Context, sprint *secondary.SprintRecord) error {
	sprint.ID = m.nextID
	m.nextID++
	m.sprints[sprint.ID] = cloneSprint(sprint)
	return nil
}

func (m *mockSprintRepository) GetByID(ctx context.Context, id int64) (*secondary.SprintRecord, error) {
	r, ok := m.sprints[id]
	if !ok {
		return nil, errs.NotFound("sprint", id)
	}
	return cloneSprint(r), nil
}

func (m *mockSprintRepository) GetActive(ctx context.Context, isTutorial bool) (*secondary.SprintRecord, error) {
	for _, r := range m.sprints {
		if r.IsTutorial == isTutorial && !r.IsArchived {
			return cloneSprint(r), nil
		}
	}
	return nil, nil
}

func (m *mockSprintRepository) List(ctx context.Context, f secondary.SprintFilters) ([]*secondary.SprintRecord, error) {
	var out []*secondary.SprintRecord
	for _, r := range m.sprints {
		if r.IsTutorial != f.IsTutorial {
			continue
		}
		if f.Archived != nil && r.IsArchived != *f.Archived {
			continue
		}
		out = append(out, cloneSprint(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockSprintRepository) Update(ctx context.Context, sprint *secondary.SprintRecord) error {
	if _, ok := m.sprints[sprint.ID]; !ok {
		return errs.NotFound("sprint", sprint.ID)
	}
	m.sprints[sprint.ID] = cloneSprint(sprint)
	return nil
}

func (m *mockSprintRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.sprints[id]; !ok {
		return errs.NotFound("sprint", id)
	}
	delete(m.sprints, id)
	return nil
}

func (m *mockSprintRepository) activeCount(isTutorial bool) int {
	n := 0
	for _, r := range m.sprints {
		if r.IsTutorial == isTutorial && !r.IsArchived {
			n++
		}
	}
	return n
}

// mockSettingsRepository implements secondary.SettingsRepository in memory.
type mockSettingsRepository struct {
	values map[string]string
	getErr error
}

func newMockSettingsRepository() *mockSettingsRepository {
	return &mockSettingsRepository{values: make(map[string]string)}
}

func (m *mockSettingsRepository) Get(ctx context.Context, key string) (string, bool, error) {
	if m.getErr != nil {
		return "", false, m.getErr
	}
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *mockSettingsRepository) Set(ctx context.Context, key, value string) error {
	m.values[key] = value
	return nil
}

func (m *mockSettingsRepository) Delete(ctx context.Context, key string) error {
	delete(m.values, key)
	return nil
}

// mockMaintenanceRepository clears the in-memory item and sprint repos.
type mockMaintenanceRepository struct {
	items      *mockItemRepository
	sprints    *mockSprintRepository
	deleteErr  error
	revision   int64
	lastPruned *bool
}

func (m *mockMaintenanceRepository) DeleteAll(ctx context.Context, tutorialOnly bool) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.lastPruned = &tutorialOnly
	for id, r := range m.items.items {
		if !tutorialOnly || r.IsTutorial {
			delete(m.items.items, id)
		}
	}
	for id, r := range m.sprints.sprints {
		if !tutorialOnly || r.IsTutorial {
			delete(m.sprints.sprints, id)
		}
	}
	m.revision++
	return nil
}

func (m *mockMaintenanceRepository) Revision(ctx context.Context) (int64, error) {
	return m.revision, nil
}

// mockTransactor runs fn directly and records transaction names.
type mockTransactor struct {
	names []string
}

func (m *mockTransactor) WithinTx(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	m.names = append(m.names, name)
	return fn(ctx)
}

// testEnv wires the services against in-memory repositories.
type testEnv struct {
	items    *mockItemRepository
	sprints  *mockSprintRepository
	settings *mockSettingsRepository
	tx       *mockTransactor

	backlog     *BacklogServiceImpl
	sprint      *SprintServiceImpl
	maintenance *MaintenanceServiceImpl
	settingsSvc *SettingsServiceImpl
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	items := newMockItemRepository()
	sprints := newMockSprintRepository()
	settings := newMockSettingsRepository()
	tx := &mockTransactor{}
	exec := NewEffectExecutor(items, sprints, logger)

	env := &testEnv{
		items:       items,
		sprints:     sprints,
		settings:    settings,
		tx:          tx,
		backlog:     NewBacklogService(items, sprints, tx, exec, logger, true),
		sprint:      NewSprintService(sprints, items, tx, exec, logger, 14*24*time.Hour),
		settingsSvc: NewSettingsService(settings),
	}
	env.maintenance = NewMaintenanceService(
		&mockMaintenanceRepository{items: items, sprints: sprints},
		settings, tx, logger,
	)
	env.sprint.now = func() time.Time { return time.Date(2026, 3, 2, 15, 4, 5, 0, time.UTC) }
	return env
}

func (e *testEnv) createItem(t *testing.T, title string, typ backlog.ItemType, parent *int64) *primary.BacklogItem {
	t.Helper()
	resp, err := e.backlog.CreateItem(context.Background(), primary.CreateItemRequest{
		Title:    title,
		Type:     typ,
		ParentID: parent,
	})
	require.NoError(t, err)
	return resp.Item
}

func (e *testEnv) createSprint(t *testing.T, name string) *primary.Sprint {
	t.Helper()
	sp, err := e.sprint.CreateSprint(context.Background(), primary.CreateSprintRequest{Name: name})
	require.NoError(t, err)
	return sp
}

func (e *testEnv) item(t *testing.T, id int64) *secondary.BacklogItemRecord {
	t.Helper()
	r, err := e.items.GetByID(context.Background(), id)
	require.NoError(t, err)
	return r
}

// assertConsistent checks that every item's sprint reference agrees with
// the listing of its own sprint or of its parent story.
func (e *testEnv) assertConsistent(t *testing.T) {
	t.Helper()
	for _, it := range e.items.items {
		if it.SprintID == nil {
			for _, sp := range e.sprints.sprints {
				require.NotContains(t, sp.ItemIDs, it.ID, "item %d listed in sprint %d without a sprint id", it.ID, sp.ID)
			}
			continue
		}
		sp, ok := e.sprints.sprints[*it.SprintID]
		require.True(t, ok, "item %d references missing sprint %d", it.ID, *it.SprintID)
		listedID := it.ID
		if it.ParentID != nil {
			if parent, ok := e.items.items[*it.ParentID]; ok && parent.Type == string(backlog.TypeStory) {
				listedID = parent.ID
			}
		}
		require.Contains(t, sp.ItemIDs, listedID, "item %d not reachable from sprint %d", it.ID, sp.ID)
	}
	require.LessOrEqual(t, e.sprints.activeCount(false), 1)
	require.LessOrEqual(t, e.sprints.activeCount(true), 1)
}
