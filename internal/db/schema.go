package db

// SchemaSQL is the complete schema for fresh Taskly stores.
//
// # Schema Drift Protection
//
// This is the SINGLE SOURCE OF TRUTH for the SQLite schema. Repository tests
// load it through GetSchemaSQL() and never declare their own tables, so a
// column referenced by repository code but missing here fails the tests with
// "no such column".
//
// The store_revision row is bumped by triggers on every write to the data
// tables. The change feed polls it to notice writes from other processes.
const SchemaSQL = `
CREATE TABLE IF NOT EXISTS sprints (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	goal TEXT NOT NULL DEFAULT '',
	start_date DATETIME NOT NULL,
	end_date DATETIME NOT NULL,
	item_ids TEXT NOT NULL DEFAULT '[]',
	is_archived INTEGER NOT NULL DEFAULT 0,
	is_tutorial INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_sprints_partition ON sprints(is_tutorial, is_archived);

CREATE TABLE IF NOT EXISTS backlog_items (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	story_points INTEGER NOT NULL DEFAULT 0 CHECK(story_points >= 0),
	priority INTEGER NOT NULL DEFAULT 0,
	status TEXT NOT NULL CHECK(status IN ('backlog', 'todo', 'in_progress', 'review', 'done')) DEFAULT 'backlog',
	type TEXT NOT NULL CHECK(type IN ('epic', 'story', 'task', 'bug')),
	sprint_id INTEGER,
	parent_id INTEGER,
	is_tutorial INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (sprint_id) REFERENCES sprints(id) ON DELETE SET NULL,
	FOREIGN KEY (parent_id) REFERENCES backlog_items(id) ON DELETE SET NULL
);

CREATE INDEX IF NOT EXISTS idx_backlog_items_partition ON backlog_items(is_tutorial);
CREATE INDEX IF NOT EXISTS idx_backlog_items_parent ON backlog_items(parent_id);
CREATE INDEX IF NOT EXISTS idx_backlog_items_sprint ON backlog_items(sprint_id);

CREATE TABLE IF NOT EXISTS settings (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS store_revision (
	id INTEGER PRIMARY KEY CHECK(id = 1),
	revision INTEGER NOT NULL DEFAULT 0
);

INSERT OR IGNORE INTO store_revision (id, revision) VALUES (1, 0);

CREATE TRIGGER IF NOT EXISTS trg_sprints_insert AFTER INSERT ON sprints
BEGIN UPDATE store_revision SET revision = revision + 1 WHERE id = 1; END;
CREATE TRIGGER IF NOT EXISTS trg_sprints_update AFTER UPDATE ON sprints
BEGIN UPDATE store_revision SET revision = revision + 1 WHERE id = 1; END;
CREATE TRIGGER IF NOT EXISTS trg_sprints_delete AFTER DELETE ON sprints
BEGIN UPDATE store_revision SET revision = revision + 1 WHERE id = 1; END;

CREATE TRIGGER IF NOT EXISTS trg_items_insert AFTER INSERT ON backlog_items
BEGIN UPDATE store_revision SET revision = revision + 1 WHERE id = 1; END;
CREATE TRIGGER IF NOT EXISTS trg_items_update AFTER UPDATE ON backlog_items
BEGIN UPDATE store_revision SET revision = revision + 1 WHERE id = 1; END;
CREATE TRIGGER IF NOT EXISTS trg_items_delete AFTER DELETE ON backlog_items
BEGIN UPDATE store_revision SET revision = revision + 1 WHERE id = 1; END;

CREATE TRIGGER IF NOT EXISTS trg_settings_insert AFTER INSERT ON settings
BEGIN UPDATE store_revision SET revision = revision + 1 WHERE id = 1; END;
CREATE TRIGGER IF NOT EXISTS trg_settings_update AFTER UPDATE ON settings
BEGIN UPDATE store_revision SET revision = revision + 1 WHERE id = 1; END;
CREATE TRIGGER IF NOT EXISTS trg_settings_delete AFTER DELETE ON settings
BEGIN UPDATE store_revision SET revision = revision + 1 WHERE id = 1; END;
`

// GetSchemaSQL returns the authoritative schema SQL for use by tests.
// Tests should use this instead of hardcoding their own schema to prevent drift.
func GetSchemaSQL() string {
	return SchemaSQL
}
