// ABOUTME: Database schema definitions
// ABOUTME: Handles SQLite table creation for sync state and run history
package db

import (
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS sync_state (
	service TEXT PRIMARY KEY,
	last_sync_time DATETIME,
	last_sync_token TEXT,
	status TEXT NOT NULL DEFAULT 'idle',
	error_message TEXT,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS sync_runs (
	id TEXT PRIMARY KEY,
	service TEXT NOT NULL,
	is_full_sync INTEGER NOT NULL DEFAULT 0,
	fetched INTEGER NOT NULL DEFAULT 0,
	upserted INTEGER NOT NULL DEFAULT 0,
	archived INTEGER NOT NULL DEFAULT 0,
	failed INTEGER NOT NULL DEFAULT 0,
	error_message TEXT,
	started_at DATETIME NOT NULL,
	finished_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_sync_runs_service ON sync_runs(service, started_at);
`

// InitSchema creates the tables if they do not exist.
func InitSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
