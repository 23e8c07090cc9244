// Package jsonfile persists students as a single pretty-printed JSON
// array on disk, e.g. data/students.json:
//
//	[
//	  {
//	    "id": "7b0c…",
//	    "name": "John Doe",
//	    ...
//	  }
//	]
//
// Every write rewrites the whole file. That is fine for the data sizes
// this service targets (an administrative tool, hundreds of records) and
// keeps the file human-editable.
package jsonfile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/aanand-mishra/student-records/internal/types"
	"github.com/goccy/go-json"
)

// DefaultPath is used when no path is configured.
const DefaultPath = "data/students.json"

// Store is a file-backed student store.
// The mutex serialises access from this process only; two processes
// sharing one file are not coordinated.
type Store struct {
	mu   sync.Mutex
	path string
}

// New prepares the file at path: the parent directory is created if
// missing, and a missing file is created holding an empty array. An
// existing file must contain a valid JSON array.
func New(_ context.Context, path string) (*Store, error) {
	if path == "" {
		path = DefaultPath
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("jsonfile.New: create dir: %w", err)
	}

	s := &Store{path: path}

	_, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := s.write(make([]types.Student, 0)); err != nil {
			return nil, fmt.Errorf("jsonfile.New: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("jsonfile.New: stat: %w", err)
	default:
		if _, err := s.read(); err != nil {
			return nil, fmt.Errorf("jsonfile.New: %w", err)
		}
	}

	return s, nil
}

func (s *Store) Driver() string { return "json" }

func (s *Store) List(_ context.Context) ([]types.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

func (s *Store) Get(_ context.Context, id string) (types.Student, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	students, err := s.read()
	if err != nil {
		return types.Student{}, false, err
	}
	for _, st := range students {
		if st.ID == id {
			return st, true, nil
		}
	}
	return types.Student{}, false, nil
}

func (s *Store) Put(_ context.Context, student types.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	students, err := s.read()
	if err != nil {
		return err
	}

	replaced := false
	for i := range students {
		if students[i].ID == student.ID {
			students[i] = student
			replaced = true
			break
		}
	}
	if !replaced {
		students = append(students, student)
	}

	return s.write(students)
}

func (s *Store) Delete(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	students, err := s.read()
	if err != nil {
		return false, err
	}

	for i := range students {
		if students[i].ID == id {
			students = append(students[:i], students[i+1:]...)
			return true, s.write(students)
		}
	}
	return false, nil
}

func (s *Store) Replace(_ context.Context, students []types.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if students == nil {
		students = make([]types.Student, 0)
	}
	return s.write(students)
}

func (s *Store) Close() error { return nil }

func (s *Store) read() ([]types.Student, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}

	students := make([]types.Student, 0)
	if err := json.Unmarshal(data, &students); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	return students, nil
}

// write replaces the file via a temp file + rename so a crash mid-write
// never leaves a truncated array behind.
func (s *Store) write(students []types.Student) error {
	data, err := json.MarshalIndent(students, "", "  ")
	if err != nil {
		return fmt.Errorf("encode students: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".students-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("rename into %s: %w", s.path, err)
	}
	return nil
}
