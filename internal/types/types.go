// Package types holds all shared data structures (models) used across
// the application. Keeping them in one place prevents import cycles:
// validation, storage, the repository, and the HTTP layer can all import
// types without depending on each other.
package types

// Student represents a student record in our system.
//
// The json:"..." tags match the field names the browser UI and the
// persisted students.json file use (camelCase, not snake_case).
type Student struct {
	ID                 string  `json:"id"`
	Name               string  `json:"name"`
	RegistrationNumber string  `json:"registrationNumber"`
	Major              string  `json:"major"`
	DOB                string  `json:"dob"`
	GPA                float64 `json:"gpa"`
}

// StudentInput is the payload for creating or updating a student.
//
// Every field is a pointer so "absent" (nil) can be told apart from the
// zero value. A create request must carry every field; an update request
// carries only the fields being changed.
type StudentInput struct {
	Name               *string  `json:"name,omitempty"`
	RegistrationNumber *string  `json:"registrationNumber,omitempty"`
	Major              *string  `json:"major,omitempty"`
	DOB                *string  `json:"dob,omitempty"`
	GPA                *float64 `json:"gpa,omitempty"`
}

// InputFrom returns a StudentInput with every field of s set.
func InputFrom(s Student) StudentInput {
	return StudentInput{
		Name:               &s.Name,
		RegistrationNumber: &s.RegistrationNumber,
		Major:              &s.Major,
		DOB:                &s.DOB,
		GPA:                &s.GPA,
	}
}

// ApplyTo copies the non-nil fields of in over s and returns the result.
// The identifier is never touched.
func (in StudentInput) ApplyTo(s Student) Student {
	if in.Name != nil {
		s.Name = *in.Name
	}
	if in.RegistrationNumber != nil {
		s.RegistrationNumber = *in.RegistrationNumber
	}
	if in.Major != nil {
		s.Major = *in.Major
	}
	if in.DOB != nil {
		s.DOB = *in.DOB
	}
	if in.GPA != nil {
		s.GPA = *in.GPA
	}
	return s
}

// FieldError is a single field-level validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// GroupFieldErrors folds a list of field errors into the
// {field: [messages...]} shape the API returns in "details".
func GroupFieldErrors(errs []FieldError) map[string][]string {
	out := make(map[string][]string, len(errs))
	for _, e := range errs {
		out[e.Field] = append(out[e.Field], e.Message)
	}
	return out
}
