package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	// _ "github.com/mattn/go-sqlite3" // better performance but requires gcc
	_ "modernc.org/sqlite"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT UNIQUE NOT NULL,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		email_confirmed INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS todos (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id),
		description TEXT NOT NULL,
		due_date TEXT NULL,
		labels TEXT NOT NULL DEFAULT '[]',
		is_completed INTEGER NOT NULL DEFAULT 0,
		completed_at TEXT NULL,
		priority INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS ix_todos_user ON todos (user_id)`,
	`CREATE TABLE IF NOT EXISTS outbox (
		id TEXT PRIMARY KEY,
		occurred_at TEXT NOT NULL,
		type TEXT NOT NULL,
		content TEXT NOT NULL,
		processed_at TEXT NULL,
		attempt INTEGER NOT NULL DEFAULT 0,
		error TEXT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS ix_outbox_processed_occurred ON outbox (processed_at, occurred_at)`,
}

// InitSchema crea las tablas users, todos y outbox si no existen.
func InitSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite schema: %w", err)
		}
	}
	return nil
}
