package student

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aanand-mishra/student-records/internal/repository"
	"github.com/aanand-mishra/student-records/internal/service"
	"github.com/aanand-mishra/student-records/internal/types"
	"github.com/go-chi/chi/v5"
)

// fakeService returns err from every call and records what it saw.
type fakeService struct {
	err        error
	lastFilter repository.Filter
	synced     []types.Student
}

func (f *fakeService) GetAllStudents(_ context.Context, filter repository.Filter) ([]types.Student, error) {
	f.lastFilter = filter
	return []types.Student{}, f.err
}

func (f *fakeService) GetStudentByID(context.Context, string) (types.Student, error) {
	return types.Student{}, f.err
}

func (f *fakeService) CreateStudent(context.Context, types.StudentInput) (types.Student, error) {
	return types.Student{}, f.err
}

func (f *fakeService) UpdateStudent(context.Context, string, types.StudentInput) (types.Student, error) {
	return types.Student{}, f.err
}

func (f *fakeService) DeleteStudent(context.Context, string) error { return f.err }

func (f *fakeService) SyncStudents(_ context.Context, snapshot []types.Student) error {
	f.synced = snapshot
	return f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func routes(svc Service) http.Handler {
	log := discardLogger()
	r := chi.NewRouter()
	r.Use(ClientSync(svc, log))
	r.Get("/students", GetList(svc, log))
	r.Post("/students", New(svc, log))
	r.Get("/students/{id}", GetByID(svc, log))
	r.Put("/students/{id}", Update(svc, log))
	r.Delete("/students/{id}", Delete(svc, log))
	return r
}

func TestStorageFailuresUseFallbackMessages(t *testing.T) {
	svc := &fakeService{err: errors.New("disk gone")}
	h := routes(svc)

	tests := []struct {
		method, path, body, want string
	}{
		{http.MethodGet, "/students", "", `{"error":"Failed to fetch students"}`},
		{http.MethodPost, "/students", `{}`, `{"error":"Failed to create student"}`},
		{http.MethodGet, "/students/1", "", `{"error":"Failed to fetch student"}`},
		{http.MethodPut, "/students/1", `{}`, `{"error":"Failed to update student"}`},
		{http.MethodDelete, "/students/1", "", `{"error":"Failed to delete student"}`},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("%s %s: status = %d, want 500", tt.method, tt.path, rec.Code)
		}
		if got := strings.TrimSpace(rec.Body.String()); got != tt.want {
			t.Errorf("%s %s: body = %s, want %s", tt.method, tt.path, got, tt.want)
		}
	}
}

func TestErrorKindsMapToStatus(t *testing.T) {
	tests := []struct {
		kind service.Kind
		want int
	}{
		{service.KindNotFound, http.StatusNotFound},
		{service.KindValidationFailed, http.StatusBadRequest},
		{service.KindDuplicateKey, http.StatusConflict},
		{service.KindInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		svc := &fakeService{err: &service.Error{Kind: tt.kind, Message: "x"}}
		req := httptest.NewRequest(http.MethodPut, "/students/1", strings.NewReader(`{}`))
		rec := httptest.NewRecorder()
		routes(svc).ServeHTTP(rec, req)

		if rec.Code != tt.want {
			t.Errorf("%v: status = %d, want %d", tt.kind, rec.Code, tt.want)
		}
	}
}

func TestGetListParsesQuery(t *testing.T) {
	svc := &fakeService{}
	req := httptest.NewRequest(http.MethodGet, "/students?search=ada&minGpa=2.5&maxGpa=oops", nil)
	routes(svc).ServeHTTP(httptest.NewRecorder(), req)

	f := svc.lastFilter
	if f.Query != "ada" {
		t.Errorf("Query = %q", f.Query)
	}
	if f.MinGPA == nil || *f.MinGPA != 2.5 {
		t.Errorf("MinGPA = %v", f.MinGPA)
	}
	if f.MaxGPA != nil {
		t.Errorf("unparsable maxGpa should be ignored, got %v", *f.MaxGPA)
	}
}

func TestClientSyncSkipsEmptyAndInvalidHeaders(t *testing.T) {
	for _, header := range []string{"", "[]", "not json", `{"id":"1"}`} {
		svc := &fakeService{}
		req := httptest.NewRequest(http.MethodGet, "/students", nil)
		if header != "" {
			req.Header.Set("x-client-data", header)
		}
		rec := httptest.NewRecorder()
		routes(svc).ServeHTTP(rec, req)

		if svc.synced != nil {
			t.Errorf("header %q: sync should not run, got %+v", header, svc.synced)
		}
		if rec.Code != http.StatusOK {
			t.Errorf("header %q: status = %d", header, rec.Code)
		}
	}
}

func TestClientSyncPassesSnapshot(t *testing.T) {
	svc := &fakeService{}
	req := httptest.NewRequest(http.MethodGet, "/students", nil)
	req.Header.Set("x-client-data", `[{"id":"1","name":"Ada"}]`)
	routes(svc).ServeHTTP(httptest.NewRecorder(), req)

	if len(svc.synced) != 1 || svc.synced[0].ID != "1" || svc.synced[0].Name != "Ada" {
		t.Fatalf("synced = %+v", svc.synced)
	}
}
