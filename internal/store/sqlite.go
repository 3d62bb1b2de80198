package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/me/schedsim/pkg/model"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and returns a Store.
// Use ":memory:" for an in-memory database (useful in tests).
func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}

	// Every connection to ":memory:" gets its own database.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	} else if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma wal: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		logger: logger.With("component", "store", "backend", "sqlite"),
	}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Migrate creates all required tables and indexes.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	s.logger.Debug("sql", "op", "migrate")
	return migrate(ctx, s.db)
}

func (s *SQLiteStore) AppendProcess(ctx context.Context, p model.Process) error {
	s.logger.Debug("sql", "op", "insert", "table", "processes", "name", p.Name)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO processes (name, arrival, burst, priority, created_at) VALUES (?, ?, ?, ?, ?)`,
		p.Name, p.Arrival, p.Burst, p.Priority, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert process: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListProcesses(ctx context.Context) ([]model.Process, error) {
	s.logger.Debug("sql", "op", "list", "table", "processes")

	rows, err := s.db.QueryContext(ctx,
		`SELECT name, arrival, burst, priority FROM processes ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}
	defer rows.Close()

	processes := []model.Process{}
	for rows.Next() {
		var p model.Process
		if err := rows.Scan(&p.Name, &p.Arrival, &p.Burst, &p.Priority); err != nil {
			return nil, fmt.Errorf("scan process: %w", err)
		}
		processes = append(processes, p)
	}
	return processes, rows.Err()
}

func (s *SQLiteStore) ClearProcesses(ctx context.Context) error {
	s.logger.Debug("sql", "op", "delete", "table", "processes")

	if _, err := s.db.ExecContext(ctx, `DELETE FROM processes`); err != nil {
		return fmt.Errorf("clear processes: %w", err)
	}
	return nil
}
