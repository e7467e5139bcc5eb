package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // Driver de PostgreSQL
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		email TEXT UNIQUE NOT NULL,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		email_confirmed BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS todos (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id),
		description TEXT NOT NULL,
		due_date TIMESTAMPTZ NULL,
		labels TEXT NOT NULL DEFAULT '[]',
		is_completed BOOLEAN NOT NULL DEFAULT FALSE,
		completed_at TIMESTAMPTZ NULL,
		priority INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS ix_todos_user ON todos (user_id)`,
	`CREATE TABLE IF NOT EXISTS outbox (
		id UUID PRIMARY KEY,
		occurred_at TIMESTAMPTZ NOT NULL,
		type TEXT NOT NULL,
		content TEXT NOT NULL,
		processed_at TIMESTAMPTZ NULL,
		attempt INTEGER NOT NULL DEFAULT 0,
		error TEXT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS ix_outbox_processed_occurred ON outbox (processed_at, occurred_at)`,
}

// InitSchema crea las tablas users, todos y outbox si no existen.
func InitSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("postgres schema: %w", err)
		}
	}
	return nil
}
