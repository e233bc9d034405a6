package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// Migrate runs all schema migrations. Every statement is idempotent so the
// full list is replayed on each open.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// Tolerate "duplicate column name" errors from ALTER TABLE
			// since the migration system re-runs all statements.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS sessions (
		session_id TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id)`,

	`CREATE TABLE IF NOT EXISTS interactions (
		id               INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id       TEXT NOT NULL REFERENCES sessions(session_id) ON DELETE CASCADE,
		user_id          TEXT NOT NULL,
		stage            TEXT NOT NULL,
		user_input       TEXT NOT NULL DEFAULT '',
		session_context  TEXT NOT NULL DEFAULT '{}',
		ai_response      TEXT NOT NULL DEFAULT '',
		input_tokens     INTEGER NOT NULL DEFAULT 0,
		output_tokens    INTEGER NOT NULL DEFAULT 0,
		cost_usd         REAL NOT NULL DEFAULT 0,
		status           TEXT NOT NULL DEFAULT 'ok'
		                 CHECK(status IN ('ok','error')),
		error_message    TEXT NOT NULL DEFAULT '',
		feedback_helpful INTEGER,
		created_at       TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_interactions_session ON interactions(session_id, stage)`,
	`CREATE INDEX IF NOT EXISTS idx_interactions_user_created ON interactions(user_id, created_at)`,
}
