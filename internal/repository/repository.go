// Package repository owns the authoritative list of student records.
//
// It sits between the service and a storage.Backend and adds three
// things the backends know nothing about:
//
//   - a short-lived read cache, so a burst of calls inside one request
//     (uniqueness check, lookup, full list for the response) reads the
//     backend once
//   - search and filtering
//   - degraded mode: when the backend fails and degrading is enabled,
//     the repository swaps it for a memory backend seeded with the
//     current records and keeps serving
//
// Cache invalidation triggers:
//   - every local write replaces the cached list with the post-write list
//   - a read after the TTL has elapsed reloads from the backend
//
// Writes made by ANOTHER process sharing the same backing file are not
// seen until the TTL expires.
package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aanand-mishra/student-records/internal/merge"
	"github.com/aanand-mishra/student-records/internal/metrics"
	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/storage/memory"
	"github.com/aanand-mishra/student-records/internal/types"
	"github.com/google/uuid"
)

// DefaultCacheTTL is used when no TTL option is given.
const DefaultCacheTTL = 5 * time.Second

var (
	// ErrNotFound is returned by Update and Delete for an unknown id.
	ErrNotFound = errors.New("student not found")

	// ErrStorage wraps backend failures when degrading is disabled.
	ErrStorage = errors.New("storage failure")
)

// Filter narrows Search results. Zero value = no filtering.
type Filter struct {
	// Query is matched case-insensitively as a substring of the name,
	// registration number, or major (any of the three).
	Query string

	// MinGPA and MaxGPA are inclusive bounds; nil = unbounded.
	MinGPA *float64
	MaxGPA *float64
}

// Repository is safe for concurrent use within one process.
type Repository struct {
	mu sync.Mutex

	backend          storage.Backend
	degraded         bool
	degradeOnFailure bool

	ttl      time.Duration
	cache    []types.Student
	cachedAt time.Time

	now   func() time.Time
	newID func() string
	log   *slog.Logger
}

// Option configures a Repository.
type Option func(*Repository)

// WithCacheTTL sets how long a full read is reused. 0 disables the cache.
func WithCacheTTL(ttl time.Duration) Option {
	return func(r *Repository) { r.ttl = ttl }
}

// WithDegradeOnFailure controls whether backend failures switch the
// repository to memory (true) or surface as ErrStorage (false).
func WithDegradeOnFailure(enabled bool) Option {
	return func(r *Repository) { r.degradeOnFailure = enabled }
}

// WithDegraded marks the backend as already being a memory fallback,
// e.g. when storage.Open could not open the configured driver.
func WithDegraded(degraded bool) Option {
	return func(r *Repository) { r.degraded = degraded }
}

// WithClock overrides the clock used for cache expiry.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

// WithIDGenerator overrides how new record ids are made.
func WithIDGenerator(newID func() string) Option {
	return func(r *Repository) { r.newID = newID }
}

// New wraps backend. Defaults: 5s cache, degrade on failure, UUID v4 ids.
func New(backend storage.Backend, log *slog.Logger, opts ...Option) *Repository {
	r := &Repository{
		backend:          backend,
		degradeOnFailure: true,
		ttl:              DefaultCacheTTL,
		now:              time.Now,
		newID:            uuid.NewString,
		log:              log,
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.degraded {
		metrics.StoreDegraded.Set(1)
	} else {
		metrics.StoreDegraded.Set(0)
	}

	return r
}

// FindAll returns a copy of every record.
func (r *Repository) FindAll(ctx context.Context) ([]types.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.findAll(ctx)
}

// FindByID returns the record with id; found=false when there is none.
func (r *Repository) FindByID(ctx context.Context, id string) (types.Student, bool, error) {
	students, err := r.FindAll(ctx)
	if err != nil {
		return types.Student{}, false, err
	}
	for _, s := range students {
		if s.ID == id {
			return s, true, nil
		}
	}
	return types.Student{}, false, nil
}

// FindByRegistrationNumber returns the record holding value, if any.
func (r *Repository) FindByRegistrationNumber(ctx context.Context, value string) (types.Student, bool, error) {
	students, err := r.FindAll(ctx)
	if err != nil {
		return types.Student{}, false, err
	}
	for _, s := range students {
		if s.RegistrationNumber == value {
			return s, true, nil
		}
	}
	return types.Student{}, false, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Create assigns a fresh id to student (any id it carries is ignored),
// appends it, persists, and returns the stored record.
// ─────────────────────────────────────────────────────────────────────────────
func (r *Repository) Create(ctx context.Context, student types.Student) (types.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	students, err := r.findAll(ctx)
	if err != nil {
		return types.Student{}, err
	}

	student.ID = r.newID()
	next := append(students, student)

	err = r.persist(next, func(b storage.Backend) error {
		return b.Put(ctx, student)
	})
	if err != nil {
		return types.Student{}, fmt.Errorf("Create: %w", err)
	}

	return student, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Update merges the non-nil fields of patch over the record with id.
// The id itself is never overwritten.
// ─────────────────────────────────────────────────────────────────────────────
func (r *Repository) Update(ctx context.Context, id string, patch types.StudentInput) (types.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	students, err := r.findAll(ctx)
	if err != nil {
		return types.Student{}, err
	}

	i := indexOf(students, id)
	if i < 0 {
		return types.Student{}, fmt.Errorf("Update %s: %w", id, ErrNotFound)
	}

	updated := patch.ApplyTo(students[i])
	updated.ID = id
	students[i] = updated

	err = r.persist(students, func(b storage.Backend) error {
		return b.Put(ctx, updated)
	})
	if err != nil {
		return types.Student{}, fmt.Errorf("Update: %w", err)
	}

	return updated, nil
}

// Delete removes the record with id.
func (r *Repository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	students, err := r.findAll(ctx)
	if err != nil {
		return err
	}

	i := indexOf(students, id)
	if i < 0 {
		return fmt.Errorf("Delete %s: %w", id, ErrNotFound)
	}

	next := append(students[:i], students[i+1:]...)

	err = r.persist(next, func(b storage.Backend) error {
		_, err := b.Delete(ctx, id)
		return err
	})
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}

	return nil
}

// Search returns FindAll filtered by f.
func (r *Repository) Search(ctx context.Context, f Filter) ([]types.Student, error) {
	students, err := r.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	query := strings.ToLower(f.Query)
	out := make([]types.Student, 0, len(students))
	for _, s := range students {
		if query != "" &&
			!strings.Contains(strings.ToLower(s.Name), query) &&
			!strings.Contains(strings.ToLower(s.RegistrationNumber), query) &&
			!strings.Contains(strings.ToLower(s.Major), query) {
			continue
		}
		if f.MinGPA != nil && s.GPA < *f.MinGPA {
			continue
		}
		if f.MaxGPA != nil && s.GPA > *f.MaxGPA {
			continue
		}
		out = append(out, s)
	}

	return out, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// SyncWithClient merges a client snapshot into the store (see package
// merge) and reports what happened as one of the metrics.Sync* outcomes.
//
//	empty snapshot  → nothing to do
//	empty store     → the snapshot becomes the store outright
//	otherwise       → id-keyed merge, client wins; persisted only if
//	                  the merge changed something
// ─────────────────────────────────────────────────────────────────────────────
func (r *Repository) SyncWithClient(ctx context.Context, snapshot []types.Student) (string, error) {
	if len(snapshot) == 0 {
		return metrics.SyncEmpty, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	students, err := r.findAll(ctx)
	if err != nil {
		return "", err
	}

	outcome := metrics.SyncMerged
	if len(students) == 0 {
		outcome = metrics.SyncSeeded
	}

	merged, changed := merge.Students(students, snapshot)
	if !changed {
		return metrics.SyncUnchanged, nil
	}

	err = r.persist(merged, func(b storage.Backend) error {
		return b.Replace(ctx, merged)
	})
	if err != nil {
		return "", fmt.Errorf("SyncWithClient: %w", err)
	}

	return outcome, nil
}

// Degraded reports whether the repository is running on the memory fallback.
func (r *Repository) Degraded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.degraded
}

// Driver names the backend currently in use.
func (r *Repository) Driver() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.backend.Driver()
}

// Close closes the current backend.
func (r *Repository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.backend.Close()
}

// findAll must be called with r.mu held.
func (r *Repository) findAll(ctx context.Context) ([]types.Student, error) {
	if r.cache != nil && r.ttl > 0 && r.now().Sub(r.cachedAt) < r.ttl {
		metrics.CacheHits.Inc()
		return clone(r.cache), nil
	}
	metrics.CacheMisses.Inc()

	students, err := r.backend.List(ctx)
	if err != nil {
		if !r.degradeOnFailure {
			return nil, fmt.Errorf("%w: %w", ErrStorage, err)
		}
		// Last known good list, or empty if we never read one.
		students = clone(r.cache)
		r.degrade(students, err)
	}

	r.setCache(students)
	return clone(students), nil
}

// persist runs write against the backend and, on success, makes next
// the cached list. next must be what the backend holds after write.
// Must be called with r.mu held.
func (r *Repository) persist(next []types.Student, write func(storage.Backend) error) error {
	if err := write(r.backend); err != nil {
		metrics.StoreWriteErrors.WithLabelValues(r.backend.Driver()).Inc()
		if !r.degradeOnFailure {
			return fmt.Errorf("%w: %w", ErrStorage, err)
		}
		r.degrade(next, err)
	}

	r.setCache(next)
	return nil
}

// degrade swaps the backend for a memory store holding seed.
func (r *Repository) degrade(seed []types.Student, cause error) {
	previous := r.backend
	r.backend = memory.New(seed...)
	r.degraded = true
	metrics.StoreDegraded.Set(1)

	r.log.Warn("storage write failed, switched to in-memory storage; changes will not survive a restart",
		slog.String("driver", previous.Driver()),
		slog.String("error", cause.Error()))

	if err := previous.Close(); err != nil {
		r.log.Debug("closing failed backend", slog.String("error", err.Error()))
	}
}

func (r *Repository) setCache(students []types.Student) {
	r.cache = clone(students)
	r.cachedAt = r.now()
	metrics.StudentsTotal.Set(float64(len(students)))
}

func indexOf(students []types.Student, id string) int {
	for i := range students {
		if students[i].ID == id {
			return i
		}
	}
	return -1
}

func clone(in []types.Student) []types.Student {
	out := make([]types.Student, len(in))
	copy(out, in)
	return out
}
