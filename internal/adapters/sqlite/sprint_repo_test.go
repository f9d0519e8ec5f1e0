package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/example/taskly/internal/adapters/sqlite"
	"github.com/example/taskly/internal/errs"
	"github.com/example/taskly/internal/ports/secondary"
)

func TestSprintRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewSprintRepository(db)
	ctx := context.Background()

	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	record := &secondary.SprintRecord{
		Name:      "S1",
		Goal:      "Checkout",
		StartDate: start,
		EndDate:   start.AddDate(0, 0, 14),
		ItemIDs:   []int64{},
	}
	if err := repo.Create(ctx, record); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := repo.GetByID(ctx, record.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	opts := cmp.Options{
		cmpopts.IgnoreFields(secondary.SprintRecord{}, "CreatedAt", "UpdatedAt"),
		cmpopts.EquateEmpty(),
		cmp.Comparer(func(a, b time.Time) bool { return a.Equal(b) }),
	}
	if diff := cmp.Diff(record, got, opts); diff != "" {
		t.Errorf("sprint mismatch (-want +got):\n%s", diff)
	}
}

func TestSprintRepository_ItemIDsAreASortedSet(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewSprintRepository(db)
	ctx := context.Background()

	id := seedSprint(t, db, "S1", false, false)
	record, err := repo.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if len(record.ItemIDs) != 0 {
		t.Fatalf("expected empty members, got %v", record.ItemIDs)
	}

	record.ItemIDs = []int64{9, 3, 9, 5}
	if err := repo.Update(ctx, record); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, _ := repo.GetByID(ctx, id)
	if diff := cmp.Diff([]int64{3, 5, 9}, got.ItemIDs); diff != "" {
		t.Errorf("members mismatch (-want +got):\n%s", diff)
	}
}

func TestSprintRepository_GetActivePerPartition(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewSprintRepository(db)
	ctx := context.Background()

	active, err := repo.GetActive(ctx, false)
	if err != nil || active != nil {
		t.Fatalf("expected no active sprint, got %v, %v", active, err)
	}

	seedSprint(t, db, "old", true, false)
	current := seedSprint(t, db, "current", false, false)
	tutorial := seedSprint(t, db, "tutorial", false, true)

	active, err = repo.GetActive(ctx, false)
	if err != nil {
		t.Fatalf("GetActive failed: %v", err)
	}
	if active == nil || active.ID != current {
		t.Errorf("expected active sprint %d, got %+v", current, active)
	}

	active, _ = repo.GetActive(ctx, true)
	if active == nil || active.ID != tutorial {
		t.Errorf("expected tutorial sprint %d, got %+v", tutorial, active)
	}
}

func TestSprintRepository_ListArchivedFilter(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewSprintRepository(db)
	ctx := context.Background()

	a := seedSprint(t, db, "a", true, false)
	b := seedSprint(t, db, "b", true, false)
	c := seedSprint(t, db, "c", false, false)

	ids := func(filters secondary.SprintFilters) []int64 {
		t.Helper()
		sprints, err := repo.List(ctx, filters)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		var out []int64
		for _, s := range sprints {
			out = append(out, s.ID)
		}
		return out
	}

	archived, active := true, false
	if diff := cmp.Diff([]int64{a, b, c}, ids(secondary.SprintFilters{})); diff != "" {
		t.Errorf("all mismatch:\n%s", diff)
	}
	if diff := cmp.Diff([]int64{a, b}, ids(secondary.SprintFilters{Archived: &archived})); diff != "" {
		t.Errorf("archived mismatch:\n%s", diff)
	}
	if diff := cmp.Diff([]int64{c}, ids(secondary.SprintFilters{Archived: &active})); diff != "" {
		t.Errorf("active mismatch:\n%s", diff)
	}
}

func TestSprintRepository_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewSprintRepository(db)
	ctx := context.Background()

	id := seedSprint(t, db, "S1", false, false)
	if err := repo.Delete(ctx, id); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := repo.GetByID(ctx, id); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("expected NotFound after delete, got %v", err)
	}
	if err := repo.Delete(ctx, id); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("expected NotFound on second delete, got %v", err)
	}
}
