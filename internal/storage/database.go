// Package storage handles persistence of run and provider-call tracking
// records in SQLite.
package storage

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // Blank import: registers the SQLite driver.
)

// Schema is embedded directly in the binary — no migration files need to
// exist at runtime.
const schema = `
CREATE TABLE IF NOT EXISTS deck_runs (
    id           TEXT PRIMARY KEY,
    deck_id      TEXT NOT NULL,
    title        TEXT NOT NULL DEFAULT '',
    slide_count  INTEGER NOT NULL DEFAULT 0,
    topic_count  INTEGER NOT NULL DEFAULT 0,
    images_found INTEGER NOT NULL DEFAULT 0,
    status       TEXT NOT NULL DEFAULT 'running',
    created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS provider_calls (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id       TEXT NOT NULL,
    topic        TEXT NOT NULL,
    provider     TEXT NOT NULL,
    result_count INTEGER NOT NULL DEFAULT 0,
    success      BOOLEAN NOT NULL DEFAULT 0,
    duration_ms  INTEGER,
    created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_deck_runs_deck_id ON deck_runs(deck_id);
CREATE INDEX IF NOT EXISTS idx_deck_runs_status ON deck_runs(status);
CREATE INDEX IF NOT EXISTS idx_provider_calls_run_id ON provider_calls(run_id);
CREATE INDEX IF NOT EXISTS idx_provider_calls_provider ON provider_calls(provider);
`

// NewDatabase opens the SQLite database and runs migrations.
// The DSN configures SQLite pragmas:
//   - WAL mode: allows concurrent reads while writing
//   - busy_timeout: wait up to 5s instead of failing on lock contention
func NewDatabase(dbPath string) (*sqlx.DB, error) {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000", dbPath)

	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Ping actually opens the connection (Open is lazy in database/sql)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// SQLite performs best with a single writer connection
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return db, nil
}
