// Package db opens the SQLite store and keeps its schema current.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// MemoryPath opens a private in-memory store.
const MemoryPath = ":memory:"

// Open opens (creating if needed) the SQLite store at path and migrates it.
// Write transactions start IMMEDIATE so a competing writer sees SQLITE_BUSY
// at BEGIN instead of mid-transaction.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	database, err := sql.Open("sqlite3", DSN(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if path == MemoryPath {
		// every connection would otherwise get its own empty database
		database.SetMaxOpenConns(1)
	}

	if err := database.PingContext(ctx); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := InitSchema(ctx, database); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return database, nil
}

// DSN builds the go-sqlite3 connection string for path.
func DSN(path string) string {
	q := url.Values{}
	q.Set("_foreign_keys", "on")
	q.Set("_busy_timeout", "5000")
	q.Set("_txlock", "immediate")
	if path == MemoryPath {
		return "file::memory:?" + q.Encode()
	}
	q.Set("_journal_mode", "WAL")
	return "file:" + path + "?" + q.Encode()
}

// InitSchema brings the store up to the latest schema version.
func InitSchema(ctx context.Context, database *sql.DB) error {
	return RunMigrations(ctx, database)
}

// DefaultPath returns the store location under the Taskly home directory.
func DefaultPath(home string) string {
	return filepath.Join(home, "taskly.db")
}

// LockPath returns the cross-process writer lock file for a store.
func LockPath(path string) string {
	return path + ".lock"
}
