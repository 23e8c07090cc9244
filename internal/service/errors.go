package service

import (
	"errors"

	"github.com/aanand-mishra/student-records/internal/types"
)

// Kind classifies a service failure. Handlers map a Kind to a status
// code and never look at the message text.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindValidationFailed
	KindDuplicateKey
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindValidationFailed:
		return "validation_failed"
	case KindDuplicateKey:
		return "duplicate_key"
	default:
		return "internal"
	}
}

// Error is the only error type the service returns.
type Error struct {
	Kind    Kind
	Message string

	// Fields holds per-field messages for KindValidationFailed and
	// KindDuplicateKey.
	Fields []types.FieldError

	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Kind == KindInternal {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind carried by err, or KindInternal when err is not
// (and does not wrap) a *Error.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}

func notFound(id string, cause error) *Error {
	return &Error{
		Kind:    KindNotFound,
		Message: "Student with id " + id + " not found",
		Err:     cause,
	}
}

func validationFailed(fields []types.FieldError) *Error {
	return &Error{
		Kind:    KindValidationFailed,
		Message: "Validation failed",
		Fields:  fields,
	}
}

func duplicateRegistrationNumber() *Error {
	return &Error{
		Kind:    KindDuplicateKey,
		Message: "Registration number already exists",
		Fields: []types.FieldError{{
			Field:   "registrationNumber",
			Message: "This registration number is already in use",
		}},
	}
}

func internal(op string, err error) *Error {
	return &Error{Kind: KindInternal, Message: op, Err: err}
}
