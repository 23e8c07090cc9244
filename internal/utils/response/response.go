// Package response provides helpers for writing consistent JSON HTTP responses.
//
// Every handler in this application sends JSON back to the client.
// Rather than repeating the same three lines (set header, set status,
// encode JSON) in every handler, we centralise them here.
package response

import (
	"net/http"

	"github.com/aanand-mishra/student-records/internal/types"
	"github.com/goccy/go-json"
)

// ─────────────────────────────────────────────────────────────────────────────
// ErrorBody is the envelope returned for every error.
//
//	{ "error": "Student not found" }
//
// Validation and duplicate-key failures also carry per-field messages:
//
//	{ "error": "Validation failed",
//	  "details": { "gpa": ["GPA must be between 0.0 and 4.0"] } }
//
// ─────────────────────────────────────────────────────────────────────────────
type ErrorBody struct {
	Error   string              `json:"error"`
	Details map[string][]string `json:"details,omitempty"`
}

// Messages used across the student handlers.
const (
	MsgInvalidBody      = "Invalid request body"
	MsgValidationFailed = "Validation failed"
	MsgNotFound         = "Student not found"
	MsgFetchList        = "Failed to fetch students"
	MsgFetchOne         = "Failed to fetch student"
	MsgCreate           = "Failed to create student"
	MsgUpdate           = "Failed to update student"
	MsgDelete           = "Failed to delete student"
	MsgDeleted          = "Student deleted successfully"
)

// ─────────────────────────────────────────────────────────────────────────────
// WriteJSON writes data as JSON with the given HTTP status code.
//
// IMPORTANT ORDER: Header() → WriteHeader() → body writes.
// Once WriteHeader is called (or the first Write), headers are locked.
// ─────────────────────────────────────────────────────────────────────────────
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// Error builds a body with just a message.
func Error(message string) ErrorBody {
	return ErrorBody{Error: message}
}

// FieldErrors builds a body with message plus the field errors grouped
// as {field: [messages...]}.
func FieldErrors(message string, errs []types.FieldError) ErrorBody {
	return ErrorBody{
		Error:   message,
		Details: types.GroupFieldErrors(errs),
	}
}
