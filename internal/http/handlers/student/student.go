// Package student contains all HTTP handlers related to the Student resource.
//
// HANDLER PATTERN USED HERE — THE CLOSURE / FACTORY PATTERN:
// ────────────────────────────────────────────────────────────
// A router expects handler functions with the signature:
//
//	func(http.ResponseWriter, *http.Request)
//
// That signature has no room for extra parameters like the service.
// Each factory below accepts the dependencies once, at route
// registration, and returns the handler that runs on every request:
//
//	r.Post("/", student.New(svc, log))
package student

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/aanand-mishra/student-records/internal/repository"
	"github.com/aanand-mishra/student-records/internal/service"
	"github.com/aanand-mishra/student-records/internal/types"
	"github.com/aanand-mishra/student-records/internal/utils/response"
	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
)

// Service is what the handlers need from *service.Service.
type Service interface {
	GetAllStudents(ctx context.Context, f repository.Filter) ([]types.Student, error)
	GetStudentByID(ctx context.Context, id string) (types.Student, error)
	CreateStudent(ctx context.Context, in types.StudentInput) (types.Student, error)
	UpdateStudent(ctx context.Context, id string, patch types.StudentInput) (types.Student, error)
	DeleteStudent(ctx context.Context, id string) error
	SyncStudents(ctx context.Context, snapshot []types.Student) error
}

type listResponse struct {
	Students []types.Student `json:"students"`
}

type studentResponse struct {
	Student types.Student `json:"student"`
}

// Write responses carry the full list so the client can refresh its cache.
type writeResponse struct {
	Student     types.Student   `json:"student"`
	AllStudents []types.Student `json:"allStudents"`
}

type deleteResponse struct {
	Message     string          `json:"message"`
	AllStudents []types.Student `json:"allStudents"`
}

// ─────────────────────────────────────────────────────────────────────────────
// New handles POST /api/students
//
// Request body (JSON), every field required:
//
//	{ "name": "Ada Lovelace", "registrationNumber": "202401234",
//	  "major": "Mathematics", "dob": "2000-01-15", "gpa": 3.75 }
//
// Success response (201 Created):
//
//	{ "student": {...}, "allStudents": [...] }
//
// Error responses:
//
//	400 Bad Request  — malformed JSON or failed validation
//	409 Conflict     — registration number already in use
//	500 Internal     — storage error
//
// ─────────────────────────────────────────────────────────────────────────────
func New(svc Service, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Debug("creating a student")

		var in types.StudentInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.Error(response.MsgInvalidBody))
			return
		}

		student, err := svc.CreateStudent(r.Context(), in)
		if err != nil {
			writeServiceError(w, log, err, response.MsgCreate)
			return
		}

		all, err := svc.GetAllStudents(r.Context(), repository.Filter{})
		if err != nil {
			writeServiceError(w, log, err, response.MsgCreate)
			return
		}

		response.WriteJSON(w, http.StatusCreated, writeResponse{Student: student, AllStudents: all})
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// GetList handles GET /api/students
//
// Query parameters (all optional):
//
//	search  — substring of name, registration number or major
//	minGpa  — inclusive lower bound
//	maxGpa  — inclusive upper bound
//
// A bound that does not parse as a number is ignored.
//
// Success response (200 OK):
//
//	{ "students": [...] }
//
// ─────────────────────────────────────────────────────────────────────────────
func GetList(svc Service, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		filter := repository.Filter{
			Query:  q.Get("search"),
			MinGPA: parseBound(q.Get("minGpa")),
			MaxGPA: parseBound(q.Get("maxGpa")),
		}

		students, err := svc.GetAllStudents(r.Context(), filter)
		if err != nil {
			writeServiceError(w, log, err, response.MsgFetchList)
			return
		}

		response.WriteJSON(w, http.StatusOK, listResponse{Students: students})
	}
}

// GetByID handles GET /api/students/{id}.
//
//	200 { "student": {...} }
//	404 { "error": "Student not found" }
func GetByID(svc Service, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		student, err := svc.GetStudentByID(r.Context(), id)
		if err != nil {
			writeServiceError(w, log, err, response.MsgFetchOne)
			return
		}

		response.WriteJSON(w, http.StatusOK, studentResponse{Student: student})
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Update handles PUT /api/students/{id}
// Only the fields present in the body are changed:
//
//	{ "gpa": 3.9 }
//
// Success response (200 OK):
//
//	{ "student": {...}, "allStudents": [...] }
//
// Error responses: 400, 404, 409, 500 (same bodies as New).
// ─────────────────────────────────────────────────────────────────────────────
func Update(svc Service, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		log.Debug("updating a student", slog.String("id", id))

		var patch types.StudentInput
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.Error(response.MsgInvalidBody))
			return
		}

		student, err := svc.UpdateStudent(r.Context(), id, patch)
		if err != nil {
			writeServiceError(w, log, err, response.MsgUpdate)
			return
		}

		all, err := svc.GetAllStudents(r.Context(), repository.Filter{})
		if err != nil {
			writeServiceError(w, log, err, response.MsgUpdate)
			return
		}

		response.WriteJSON(w, http.StatusOK, writeResponse{Student: student, AllStudents: all})
	}
}

// Delete handles DELETE /api/students/{id}.
//
//	200 { "message": "Student deleted successfully", "allStudents": [...] }
//	404 { "error": "Student not found" }
func Delete(svc Service, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		log.Debug("deleting a student", slog.String("id", id))

		if err := svc.DeleteStudent(r.Context(), id); err != nil {
			writeServiceError(w, log, err, response.MsgDelete)
			return
		}

		all, err := svc.GetAllStudents(r.Context(), repository.Filter{})
		if err != nil {
			writeServiceError(w, log, err, response.MsgDelete)
			return
		}

		response.WriteJSON(w, http.StatusOK, deleteResponse{Message: response.MsgDeleted, AllStudents: all})
	}
}

// writeServiceError maps a service error Kind to a status code and body.
// Anything that is not a known Kind is logged and reported with fallback.
func writeServiceError(w http.ResponseWriter, log *slog.Logger, err error, fallback string) {
	var se *service.Error
	if errors.As(err, &se) {
		switch se.Kind {
		case service.KindNotFound:
			response.WriteJSON(w, http.StatusNotFound, response.Error(response.MsgNotFound))
			return
		case service.KindValidationFailed:
			response.WriteJSON(w, http.StatusBadRequest, response.FieldErrors(response.MsgValidationFailed, se.Fields))
			return
		case service.KindDuplicateKey:
			response.WriteJSON(w, http.StatusConflict, response.FieldErrors(se.Message, se.Fields))
			return
		}
	}

	log.Error(fallback, slog.String("error", err.Error()))
	response.WriteJSON(w, http.StatusInternalServerError, response.Error(fallback))
}

// parseBound returns nil for an empty or non-numeric value.
func parseBound(raw string) *float64 {
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) {
		return nil
	}
	return &v
}
