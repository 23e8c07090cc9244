// Package storage defines the Backend interface, the contract that any
// persistence backend must satisfy to hold student records, and Open,
// which picks one at startup from configuration.
//
// WHY AN INTERFACE?
// ─────────────────
// The repository (cache, degrade-to-memory, search) should not know or
// care whether records live in a JSON file, a SQLite database, or plain
// memory. By depending only on this interface:
//
//   - Switching backends = one config key (storage.driver). Zero
//     repository changes.
//
//   - Degrading = swapping the live backend for a memory one seeded with
//     the current records. The repository keeps working.
//
// The concrete backends live in sub-packages (jsonfile, memory, sqlite)
// and only import internal/types, so this package can import them
// without a cycle.
package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aanand-mishra/student-records/internal/config"
	"github.com/aanand-mishra/student-records/internal/storage/jsonfile"
	"github.com/aanand-mishra/student-records/internal/storage/memory"
	"github.com/aanand-mishra/student-records/internal/storage/sqlite"
	"github.com/aanand-mishra/student-records/internal/types"
)

// Driver identifies a storage backend.
type Driver string

const (
	DriverJSON   Driver = "json"
	DriverSQLite Driver = "sqlite"
	DriverMemory Driver = "memory"
)

// Backend is the persistence contract.
// Any concrete type that implements ALL of these methods automatically
// satisfies this interface.
type Backend interface {
	// Driver reports which backend this is (for logs and /healthz).
	Driver() string

	// List returns every record in insertion order.
	// Returns an empty slice (not nil) if there are none.
	List(ctx context.Context) ([]types.Student, error)

	// Get fetches one record by id. found=false is NOT an error.
	Get(ctx context.Context, id string) (student types.Student, found bool, err error)

	// Put inserts the record, or replaces the one with the same id in place.
	Put(ctx context.Context, student types.Student) error

	// Delete removes a record; existed=false when there was nothing to delete.
	Delete(ctx context.Context, id string) (existed bool, err error)

	// Replace overwrites the whole collection with students, in order.
	Replace(ctx context.Context, students []types.Student) error

	// Close releases files or connections held by the backend.
	Close() error
}

// Compile-time checks: the build breaks if a backend drifts from the contract.
var (
	_ Backend = (*jsonfile.Store)(nil)
	_ Backend = (*memory.Store)(nil)
	_ Backend = (*sqlite.SQLite)(nil)
)

// Result is what Open hands back: the backend to use and whether it is a
// memory fallback standing in for the configured one.
type Result struct {
	Backend  Backend
	Degraded bool
}

// ─────────────────────────────────────────────────────────────────────────────
// Open builds the backend named by cfg.Storage.Driver.
//
// If the configured backend cannot be opened (read-only filesystem, bad
// path, ...) and cfg.Storage.DegradeOnFailure() is true, Open logs a
// warning and returns an empty memory backend with Degraded=true.
// Otherwise the error is returned and the caller should refuse to start.
// ─────────────────────────────────────────────────────────────────────────────
func Open(ctx context.Context, cfg *config.Config, log *slog.Logger) (Result, error) {
	backend, err := openDriver(ctx, cfg)
	if err == nil {
		return Result{Backend: backend}, nil
	}

	if !cfg.Storage.DegradeOnFailure() {
		return Result{}, fmt.Errorf("storage.Open: %w", err)
	}

	log.Warn("storage unavailable, running in degraded in-memory mode",
		slog.String("driver", cfg.Storage.Driver),
		slog.String("path", cfg.Storage.Path),
		slog.String("error", err.Error()))

	return Result{Backend: memory.New(), Degraded: true}, nil
}

func openDriver(ctx context.Context, cfg *config.Config) (Backend, error) {
	switch Driver(cfg.Storage.Driver) {
	case DriverJSON, "":
		return jsonfile.New(ctx, cfg.Storage.Path)
	case DriverSQLite:
		return sqlite.New(cfg.Storage.Path)
	case DriverMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
