// Package service holds the student business rules: validation,
// uniqueness of registration numbers, input normalization, and the
// mapping of repository failures onto tagged *Error values.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/aanand-mishra/student-records/internal/metrics"
	"github.com/aanand-mishra/student-records/internal/repository"
	"github.com/aanand-mishra/student-records/internal/types"
	"github.com/aanand-mishra/student-records/internal/validation"
)

// Store is the part of *repository.Repository the service needs.
type Store interface {
	Search(ctx context.Context, f repository.Filter) ([]types.Student, error)
	FindByID(ctx context.Context, id string) (types.Student, bool, error)
	FindByRegistrationNumber(ctx context.Context, value string) (types.Student, bool, error)
	Create(ctx context.Context, s types.Student) (types.Student, error)
	Update(ctx context.Context, id string, patch types.StudentInput) (types.Student, error)
	Delete(ctx context.Context, id string) error
	SyncWithClient(ctx context.Context, snapshot []types.Student) (string, error)
}

// Service is safe for concurrent use if its Store is.
type Service struct {
	store     Store
	validator *validation.Validator
	log       *slog.Logger
}

// New returns a Service. A nil validator means validation.Default().
func New(store Store, v *validation.Validator, log *slog.Logger) *Service {
	if v == nil {
		v = validation.Default()
	}
	return &Service{store: store, validator: v, log: log}
}

// GetAllStudents returns every record matching f.
func (s *Service) GetAllStudents(ctx context.Context, f repository.Filter) ([]types.Student, error) {
	students, err := s.store.Search(ctx, f)
	if err != nil {
		return nil, internal("GetAllStudents", err)
	}
	return students, nil
}

// GetStudentByID returns the record with id or a KindNotFound error.
func (s *Service) GetStudentByID(ctx context.Context, id string) (types.Student, error) {
	student, found, err := s.store.FindByID(ctx, id)
	if err != nil {
		return types.Student{}, internal("GetStudentByID", err)
	}
	if !found {
		return types.Student{}, notFound(id, nil)
	}
	return student, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// CreateStudent:
//  1. validates in as a full record (raw, before trimming)
//  2. rejects a registration number that is already taken
//  3. trims the strings and rounds the GPA
//  4. stores it
// ─────────────────────────────────────────────────────────────────────────────
func (s *Service) CreateStudent(ctx context.Context, in types.StudentInput) (types.Student, error) {
	if errs := s.validator.Validate(in, false); len(errs) > 0 {
		return types.Student{}, validationFailed(errs)
	}

	// Validation passed, so every field is non-nil.
	regNo := strings.TrimSpace(*in.RegistrationNumber)

	_, taken, err := s.store.FindByRegistrationNumber(ctx, regNo)
	if err != nil {
		return types.Student{}, internal("CreateStudent", err)
	}
	if taken {
		return types.Student{}, duplicateRegistrationNumber()
	}

	student := normalize(in).ApplyTo(types.Student{})

	created, err := s.store.Create(ctx, student)
	if err != nil {
		return types.Student{}, internal("CreateStudent", err)
	}

	s.log.Info("student created", slog.String("id", created.ID))
	return created, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// UpdateStudent applies the fields present in patch to the record with id.
//
// The present fields are normalized first, then the WHOLE merged record
// is validated, so an update cannot smuggle in a value that would have
// failed on create. The registration number is only checked for
// collisions when it actually changes, which lets a client resend a
// record's own number.
// ─────────────────────────────────────────────────────────────────────────────
func (s *Service) UpdateStudent(ctx context.Context, id string, patch types.StudentInput) (types.Student, error) {
	existing, found, err := s.store.FindByID(ctx, id)
	if err != nil {
		return types.Student{}, internal("UpdateStudent", err)
	}
	if !found {
		return types.Student{}, notFound(id, nil)
	}

	patch = normalize(patch)
	merged := patch.ApplyTo(existing)

	if errs := s.validator.Validate(types.InputFrom(merged), true); len(errs) > 0 {
		return types.Student{}, validationFailed(errs)
	}

	if patch.RegistrationNumber != nil && *patch.RegistrationNumber != existing.RegistrationNumber {
		other, taken, err := s.store.FindByRegistrationNumber(ctx, *patch.RegistrationNumber)
		if err != nil {
			return types.Student{}, internal("UpdateStudent", err)
		}
		if taken && other.ID != id {
			return types.Student{}, duplicateRegistrationNumber()
		}
	}

	updated, err := s.store.Update(ctx, id, patch)
	if errors.Is(err, repository.ErrNotFound) {
		// Deleted between the lookup and the write.
		return types.Student{}, notFound(id, err)
	}
	if err != nil {
		return types.Student{}, internal("UpdateStudent", err)
	}

	s.log.Info("student updated", slog.String("id", id))
	return updated, nil
}

// DeleteStudent removes the record with id.
func (s *Service) DeleteStudent(ctx context.Context, id string) error {
	_, found, err := s.store.FindByID(ctx, id)
	if err != nil {
		return internal("DeleteStudent", err)
	}
	if !found {
		return notFound(id, nil)
	}

	err = s.store.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return notFound(id, err)
	}
	if err != nil {
		return internal("DeleteStudent", err)
	}

	s.log.Info("student deleted", slog.String("id", id))
	return nil
}

// SyncStudents merges a client snapshot into the store and counts the
// outcome. Callers are expected to ignore the returned error.
func (s *Service) SyncStudents(ctx context.Context, snapshot []types.Student) error {
	outcome, err := s.store.SyncWithClient(ctx, snapshot)
	if err != nil {
		metrics.SyncTotal.WithLabelValues(metrics.SyncIgnored).Inc()
		return internal("SyncStudents", err)
	}

	metrics.SyncTotal.WithLabelValues(outcome).Inc()
	if outcome == metrics.SyncMerged || outcome == metrics.SyncSeeded {
		s.log.Debug("client snapshot merged",
			slog.String("outcome", outcome),
			slog.Int("records", len(snapshot)))
	}
	return nil
}

// normalize trims the present string fields and rounds a present GPA.
// dob is left as sent.
func normalize(in types.StudentInput) types.StudentInput {
	trim := func(p *string) *string {
		if p == nil {
			return nil
		}
		v := strings.TrimSpace(*p)
		return &v
	}

	out := types.StudentInput{
		Name:               trim(in.Name),
		RegistrationNumber: trim(in.RegistrationNumber),
		Major:              trim(in.Major),
		DOB:                in.DOB,
	}
	if in.GPA != nil {
		gpa := validation.FormatGPA(*in.GPA)
		out.GPA = &gpa
	}
	return out
}
