package store

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is applied on every Migrate; each statement must be idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS processes (
		seq        INTEGER PRIMARY KEY AUTOINCREMENT,
		name       TEXT NOT NULL,
		arrival    INTEGER NOT NULL,
		burst      INTEGER NOT NULL,
		priority   INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	)`,
}

func migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	return nil
}
