package db

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
)

func TestOpen_MigratesFreshStore(t *testing.T) {
	ctx := context.Background()
	database, err := Open(ctx, MemoryPath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer database.Close()

	version, err := CurrentVersion(ctx, database)
	if err != nil {
		t.Fatalf("CurrentVersion failed: %v", err)
	}
	if version != LatestVersion() {
		t.Errorf("expected version %d, got %d", LatestVersion(), version)
	}

	var value string
	if err := database.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = 'introduction_completed'").Scan(&value); err != nil {
		t.Fatalf("introduction flag missing: %v", err)
	}
	if value != "false" {
		t.Errorf("expected introduction flag 'false', got %q", value)
	}
}

func TestOpen_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "taskly.db")

	first, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("first Open failed: %v", err)
	}
	if _, err := first.ExecContext(ctx,
		"INSERT INTO sprints (name, start_date, end_date) VALUES ('S1', '2026-01-01', '2026-01-15')"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	first.Close()

	second, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("second Open failed: %v", err)
	}
	defer second.Close()

	var count int
	if err := second.QueryRowContext(ctx, "SELECT COUNT(*) FROM sprints").Scan(&count); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected data to survive reopen, got %d sprints", count)
	}
}

func TestSchemaBumpsRevision(t *testing.T) {
	ctx := context.Background()
	database, err := Open(ctx, MemoryPath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer database.Close()

	revision := func() int64 {
		var r int64
		if err := database.QueryRowContext(ctx, "SELECT revision FROM store_revision WHERE id = 1").Scan(&r); err != nil {
			t.Fatalf("revision query failed: %v", err)
		}
		return r
	}

	before := revision()
	if _, err := database.ExecContext(ctx,
		"INSERT INTO backlog_items (title, type) VALUES ('Login', 'story')"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if got := revision(); got != before+1 {
		t.Errorf("expected revision %d after insert, got %d", before+1, got)
	}
}

func TestDSN(t *testing.T) {
	mem := DSN(MemoryPath)
	if !strings.HasPrefix(mem, "file::memory:?") {
		t.Errorf("unexpected memory DSN %q", mem)
	}
	if strings.Contains(mem, "_journal_mode") {
		t.Errorf("memory DSN should not request WAL: %q", mem)
	}

	file := DSN("/tmp/taskly.db")
	for _, want := range []string{"file:/tmp/taskly.db?", "_txlock=immediate", "_foreign_keys=on", "_journal_mode=WAL"} {
		if !strings.Contains(file, want) {
			t.Errorf("DSN %q missing %q", file, want)
		}
	}
}
