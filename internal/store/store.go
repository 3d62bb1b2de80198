package store

import (
	"context"

	"github.com/me/schedsim/pkg/model"
)

// Store defines the persistence layer for the process registry.
// Implementations must preserve insertion order and be safe for concurrent use.
type Store interface {
	// Process list
	AppendProcess(ctx context.Context, p model.Process) error
	ListProcesses(ctx context.Context) ([]model.Process, error)
	ClearProcesses(ctx context.Context) error

	// Lifecycle
	Close() error
	Migrate(ctx context.Context) error
}
