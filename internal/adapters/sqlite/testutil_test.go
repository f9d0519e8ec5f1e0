// Package sqlite_test contains integration tests for SQLite repositories.
//
// # Schema Protection
//
// This file is the SINGLE POINT where the database schema is loaded for tests.
// All test setup functions use db.GetSchemaSQL() to ensure tests run against
// the authoritative schema, preventing drift between test and production.
//
// DO NOT hardcode CREATE TABLE statements in test files. Use setupTestDB()
// and the seed* helpers instead.
package sqlite_test

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/example/taskly/internal/db"
)

// setupTestDB creates an in-memory database with the authoritative schema.
// The pool is pinned to one connection because every :memory: connection
// is a separate database.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	testDB, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	testDB.SetMaxOpenConns(1)

	if _, err := testDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("failed to enable foreign keys: %v", err)
	}

	// Use the authoritative schema from schema.go
	if _, err := testDB.Exec(db.GetSchemaSQL()); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		testDB.Close()
	})

	return testDB
}

// seedItem inserts a backlog item and returns its ID.
func seedItem(t *testing.T, db *sql.DB, title, typ string, parentID *int64, tutorial bool) int64 {
	t.Helper()
	result, err := db.Exec(
		"INSERT INTO backlog_items (title, type, parent_id, is_tutorial) VALUES (?, ?, ?, ?)",
		title, typ, parentID, tutorial,
	)
	if err != nil {
		t.Fatalf("failed to seed item: %v", err)
	}
	id, _ := result.LastInsertId()
	return id
}

// seedSprint inserts a sprint and returns its ID.
func seedSprint(t *testing.T, db *sql.DB, name string, archived, tutorial bool) int64 {
	t.Helper()
	result, err := db.Exec(
		"INSERT INTO sprints (name, start_date, end_date, is_archived, is_tutorial) VALUES (?, '2026-03-02', '2026-03-16', ?, ?)",
		name, archived, tutorial,
	)
	if err != nil {
		t.Fatalf("failed to seed sprint: %v", err)
	}
	id, _ := result.LastInsertId()
	return id
}

func ptr(id int64) *int64 { return &id }
