// Package registry holds the ordered list of processes submitted to the
// service. It is the only shared mutable state in the system.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/me/schedsim/internal/logging"
	"github.com/me/schedsim/internal/store"
	"github.com/me/schedsim/pkg/model"
)

// Registry serializes access to a process store. Add, List and Reset are
// atomic with respect to each other within one process.
type Registry struct {
	mu     sync.Mutex
	store  store.Store
	logger *slog.Logger
}

// New returns a Registry backed by st.
func New(st store.Store, logger *slog.Logger) *Registry {
	return &Registry{
		store:  st,
		logger: logging.Component(logger, "registry"),
	}
}

// Add validates and appends a process with the default priority and returns
// the full list in insertion order.
func (r *Registry) Add(ctx context.Context, name string, arrival, burst int) ([]model.Process, error) {
	return r.AddProcess(ctx, model.Process{Name: name, Arrival: arrival, Burst: burst})
}

// AddProcess validates and appends p and returns the full list. A rejected
// process leaves the registry unchanged.
func (r *Registry) AddProcess(ctx context.Context, p model.Process) ([]model.Process, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.store.AppendProcess(ctx, p); err != nil {
		return nil, fmt.Errorf("add process %q: %w", p.Name, err)
	}
	processes, err := r.store.ListProcesses(ctx)
	if err != nil {
		return nil, err
	}
	r.logger.Info("process added",
		"name", p.Name,
		"arrival", p.Arrival,
		"burst", p.Burst,
		"priority", p.Priority,
		"count", len(processes),
	)
	return processes, nil
}

// List returns a copy of the registered processes in insertion order.
func (r *Registry) List(ctx context.Context) ([]model.Process, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	processes, err := r.store.ListProcesses(ctx)
	if err != nil {
		return nil, err
	}
	return model.CopyProcesses(processes), nil
}

// Snapshot returns an immutable copy suitable as engine input. Later Add or
// Reset calls do not affect it.
func (r *Registry) Snapshot(ctx context.Context) ([]model.Process, error) {
	return r.List(ctx)
}

// Reset removes every process. Resetting an empty registry is a no-op.
func (r *Registry) Reset(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.store.ClearProcesses(ctx); err != nil {
		r.logger.Error("reset failed", "error", err)
		return fmt.Errorf("reset registry: %w", err)
	}
	r.logger.Info("registry reset")
	return nil
}

// Len returns the number of registered processes.
func (r *Registry) Len(ctx context.Context) (int, error) {
	processes, err := r.List(ctx)
	if err != nil {
		return 0, err
	}
	return len(processes), nil
}
