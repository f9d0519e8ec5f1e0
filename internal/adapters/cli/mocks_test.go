package cli

import (
	"context"
	"os"
	"testing"

	"github.com/fatih/color"

	"github.com/example/taskly/internal/core/backlog"
	"github.com/example/taskly/internal/errs"
	"github.com/example/taskly/internal/ports/primary"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

// mockBacklogService implements primary.BacklogService over a map.
type mockBacklogService struct {
	items map[int64]*primary.BacklogItem
	order []int64

	advanceErr error
	lastCreate primary.CreateItemRequest
	lastUpdate primary.UpdateItemRequest
	deleted    []int64
}

func newMockBacklogService(items ...*primary.BacklogItem) *mockBacklogService {
	m := &mockBacklogService{items: map[int64]*primary.BacklogItem{}}
	for _, it := range items {
		m.items[it.ID] = it
		m.order = append(m.order, it.ID)
	}
	return m
}

func (m *mockBacklogService) CreateItem(ctx context.Context, req primary.CreateItemRequest) (*primary.CreateItemResponse, error) {
	m.lastCreate = req
	id := int64(len(m.items) + 1)
	it := &primary.BacklogItem{ID: id, Title: req.Title, Type: req.Type, Status: backlog.StatusBacklog, ParentID: req.ParentID}
	m.items[id] = it
	m.order = append(m.order, id)
	return &primary.CreateItemResponse{ItemID: id, Item: it}, nil
}

func (m *mockBacklogService) GetItem(ctx context.Context, itemID int64) (*primary.BacklogItem, error) {
	it, ok := m.items[itemID]
	if !ok {
		return nil, errs.NotFound("item", itemID)
	}
	return it, nil
}

func (m *mockBacklogService) ListItems(ctx context.Context, filters primary.ItemFilters) ([]*primary.BacklogItem, error) {
	var out []*primary.BacklogItem
	for _, id := range m.order {
		if it, ok := m.items[id]; ok && it.IsTutorial == filters.IsTutorial {
			out = append(out, it)
		}
	}
	return out, nil
}

func (m *mockBacklogService) UpdateItem(ctx context.Context, req primary.UpdateItemRequest) (*primary.BacklogItem, error) {
	m.lastUpdate = req
	return m.GetItem(ctx, req.ItemID)
}

func (m *mockBacklogService) SetItemStatus(ctx context.Context, itemID int64, status backlog.Status) (*primary.BacklogItem, error) {
	it, err := m.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	it.Status = status
	return it, nil
}

func (m *mockBacklogService) AdvanceItem(ctx context.Context, itemID int64) (*primary.BacklogItem, error) {
	if m.advanceErr != nil {
		return nil, m.advanceErr
	}
	it, err := m.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	it.Status, _ = backlog.NextStatus(it.Status, true)
	return it, nil
}

func (m *mockBacklogService) ReverseItem(ctx context.Context, itemID int64) (*primary.BacklogItem, error) {
	it, err := m.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	it.Status, _ = backlog.PrevStatus(it.Status, true)
	return it, nil
}

func (m *mockBacklogService) DeleteItem(ctx context.Context, itemID int64) error {
	if _, ok := m.items[itemID]; !ok {
		return errs.NotFound("item", itemID)
	}
	delete(m.items, itemID)
	m.deleted = append(m.deleted, itemID)
	return nil
}

// mockSprintService implements primary.SprintService with canned results.
type mockSprintService struct {
	active   *primary.Sprint
	sprints  []*primary.Sprint
	added    []int64
	removed  []int64
	archived bool
	err      error
}

func (m *mockSprintService) CreateSprint(ctx context.Context, req primary.CreateSprintRequest) (*primary.Sprint, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.active = &primary.Sprint{ID: 1, Name: req.Name, Goal: req.Goal, StartDate: req.StartDate, EndDate: req.EndDate}
	return m.active, nil
}

func (m *mockSprintService) GetSprint(ctx context.Context, sprintID int64) (*primary.Sprint, error) {
	for _, sp := range m.sprints {
		if sp.ID == sprintID {
			return sp, nil
		}
	}
	return nil, errs.NotFound("sprint", sprintID)
}

func (m *mockSprintService) GetActiveSprint(ctx context.Context, isTutorial bool) (*primary.Sprint, error) {
	return m.active, m.err
}

func (m *mockSprintService) ListSprints(ctx context.Context, filters primary.SprintFilters) ([]*primary.Sprint, error) {
	return m.sprints, m.err
}

func (m *mockSprintService) UpdateSprint(ctx context.Context, req primary.UpdateSprintRequest) (*primary.Sprint, error) {
	return &primary.Sprint{ID: req.SprintID}, m.err
}

func (m *mockSprintService) ArchiveCurrentSprint(ctx context.Context, isTutorial bool) (*primary.Sprint, error) {
	if m.active == nil {
		return nil, errs.Conflict("no active sprint")
	}
	m.archived = true
	return m.active, nil
}

func (m *mockSprintService) RestoreSprint(ctx context.Context, sprintID int64) (*primary.Sprint, error) {
	return m.GetSprint(ctx, sprintID)
}

func (m *mockSprintService) DeleteSprint(ctx context.Context, sprintID int64) error {
	_, err := m.GetSprint(ctx, sprintID)
	return err
}

func (m *mockSprintService) AddItemToSprint(ctx context.Context, itemID int64) (*primary.Sprint, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.added = append(m.added, itemID)
	return m.active, nil
}

func (m *mockSprintService) RemoveItemFromSprint(ctx context.Context, itemID int64) (*primary.Sprint, error) {
	m.removed = append(m.removed, itemID)
	return m.active, nil
}

var (
	_ primary.BacklogService = (*mockBacklogService)(nil)
	_ primary.SprintService  = (*mockSprintService)(nil)
)
