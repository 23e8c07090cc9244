// Package sqlite provides a SQLite-backed implementation of the
// storage.Backend interface using Go's standard database/sql package.
//
// WHY SQLite?
// ───────────
// SQLite stores everything in a single file on disk. There is no
// network, no separate server process, and no installation beyond the
// driver. Compared to the JSON file backend it gives real per-row
// updates and crash-safe transactions for the same zero-ops footprint.
//
// The blank import below registers the sqlite3 driver with database/sql.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aanand-mishra/student-records/internal/types"

	// Blank import: side-effect only (registers the "sqlite3" driver).
	_ "github.com/mattn/go-sqlite3"
)

// DefaultPath is used when no path is configured.
const DefaultPath = "data/students.db"

// SQLite is the concrete SQLite backend.
// It holds a *sql.DB which is a connection pool managed by database/sql.
type SQLite struct {
	Db *sql.DB
}

// New opens the SQLite database at path, creates the students table if it
// does not already exist, and returns a ready-to-use *SQLite.
func New(path string) (*SQLite, error) {
	if path == "" {
		path = DefaultPath
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("sqlite.New: create dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}

	// A single connection: ":memory:" databases are per-connection, and
	// SQLite serialises writers anyway.
	db.SetMaxOpenConns(1)

	// Schema:
	//   seq — insertion order; List returns rows ORDER BY seq so the
	//         order matches the JSON file backend
	//   id  — the opaque UUID the API exposes
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS students (
			seq                 INTEGER PRIMARY KEY AUTOINCREMENT,
			id                  TEXT    NOT NULL UNIQUE,
			name                TEXT    NOT NULL,
			registration_number TEXT    NOT NULL,
			major               TEXT    NOT NULL,
			dob                 TEXT    NOT NULL,
			gpa                 REAL    NOT NULL
		)
	`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite.New: create table: %w", err)
	}

	// Ping forces a real connection, so a read-only or missing directory
	// fails here (and the caller can degrade) rather than on first write.
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite.New: ping: %w", err)
	}

	return &SQLite{Db: db}, nil
}

func (s *SQLite) Driver() string { return "sqlite" }

// ─────────────────────────────────────────────────────────────────────────────
// List returns all rows in insertion order.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) List(ctx context.Context) ([]types.Student, error) {
	rows, err := s.Db.QueryContext(ctx,
		"SELECT id, name, registration_number, major, dob, gpa FROM students ORDER BY seq",
	)
	if err != nil {
		return nil, fmt.Errorf("List: query: %w", err)
	}
	defer rows.Close()

	// Returning [] instead of null in JSON is better API behaviour.
	students := make([]types.Student, 0)

	for rows.Next() {
		var student types.Student
		if err := rows.Scan(
			&student.ID,
			&student.Name,
			&student.RegistrationNumber,
			&student.Major,
			&student.DOB,
			&student.GPA,
		); err != nil {
			return nil, fmt.Errorf("List: scan row: %w", err)
		}
		students = append(students, student)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List: rows iteration: %w", err)
	}

	return students, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Get fetches exactly one row matched by id.
// sql.ErrNoRows is translated into found=false, not an error.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) Get(ctx context.Context, id string) (types.Student, bool, error) {
	var student types.Student

	err := s.Db.QueryRowContext(ctx,
		"SELECT id, name, registration_number, major, dob, gpa FROM students WHERE id = ? LIMIT 1",
		id,
	).Scan(
		&student.ID,
		&student.Name,
		&student.RegistrationNumber,
		&student.Major,
		&student.DOB,
		&student.GPA,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Student{}, false, nil
	}
	if err != nil {
		return types.Student{}, false, fmt.Errorf("Get: scan: %w", err)
	}

	return student, true, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Put inserts a row, or updates the existing row with the same id.
// ON CONFLICT ... DO UPDATE keeps the original seq, so an edited student
// does not jump to the end of the list.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) Put(ctx context.Context, student types.Student) error {
	if err := upsert(ctx, s.Db, student); err != nil {
		return fmt.Errorf("Put: %w", err)
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Delete removes a row by id.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) Delete(ctx context.Context, id string) (bool, error) {
	result, err := s.Db.ExecContext(ctx, "DELETE FROM students WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("Delete: exec: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("Delete: rows affected: %w", err)
	}

	return n > 0, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Replace swaps the whole table contents inside one transaction: either
// every row of the merged set lands, or none of them does.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) Replace(ctx context.Context, students []types.Student) (retErr error) {
	tx, err := s.Db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("Replace: begin: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, "DELETE FROM students"); err != nil {
		return fmt.Errorf("Replace: clear: %w", err)
	}
	for _, st := range students {
		if err := upsert(ctx, tx, st); err != nil {
			return fmt.Errorf("Replace: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("Replace: commit: %w", err)
	}
	return nil
}

func (s *SQLite) Close() error { return s.Db.Close() }

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// upsert uses ? placeholders: the driver sends the values separately from
// the SQL text, so user input is never parsed as SQL.
func upsert(ctx context.Context, db execer, st types.Student) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO students (id, name, registration_number, major, dob, gpa)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name                = excluded.name,
			registration_number = excluded.registration_number,
			major               = excluded.major,
			dob                 = excluded.dob,
			gpa                 = excluded.gpa
	`, st.ID, st.Name, st.RegistrationNumber, st.Major, st.DOB, st.GPA)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", st.ID, err)
	}
	return nil
}
