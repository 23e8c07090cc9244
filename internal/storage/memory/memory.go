// Package memory implements a process-memory student store. Nothing
// survives a restart; it backs tests, the "memory" driver, and the
// degraded mode the repository falls back to when durable storage fails.
package memory

import (
	"context"
	"sync"

	"github.com/aanand-mishra/student-records/internal/types"
)

// Store keeps records in a slice to preserve insertion order.
type Store struct {
	mu       sync.RWMutex
	students []types.Student
}

// New returns a memory store seeded with a copy of seed.
func New(seed ...types.Student) *Store {
	return &Store{students: clone(seed)}
}

func (s *Store) Driver() string { return "memory" }

func (s *Store) List(_ context.Context) ([]types.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.students), nil
}

func (s *Store) Get(_ context.Context, id string) (types.Student, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.index(id); i >= 0 {
		return s.students[i], true, nil
	}
	return types.Student{}, false, nil
}

func (s *Store) Put(_ context.Context, student types.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.index(student.ID); i >= 0 {
		s.students[i] = student
		return nil
	}
	s.students = append(s.students, student)
	return nil
}

func (s *Store) Delete(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return false, nil
	}
	s.students = append(s.students[:i], s.students[i+1:]...)
	return true, nil
}

func (s *Store) Replace(_ context.Context, students []types.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.students = clone(students)
	return nil
}

func (s *Store) Close() error { return nil }

// index must be called with the lock held.
func (s *Store) index(id string) int {
	for i := range s.students {
		if s.students[i].ID == id {
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
