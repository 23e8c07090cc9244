package client

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aanand-mishra/student-records/internal/clientcache"
	"github.com/aanand-mishra/student-records/internal/config"
	"github.com/aanand-mishra/student-records/internal/http/router"
	"github.com/aanand-mishra/student-records/internal/repository"
	"github.com/aanand-mishra/student-records/internal/service"
	"github.com/aanand-mishra/student-records/internal/storage/memory"
	"github.com/aanand-mishra/student-records/internal/types"
	"github.com/aanand-mishra/student-records/internal/validation"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newAPI starts the real router over a memory store.
func newAPI(t *testing.T) (*httptest.Server, *repository.Repository) {
	t.Helper()
	log := discardLogger()
	repo := repository.New(memory.New(), log, repository.WithCacheTTL(0))
	v := validation.New(validation.WithClock(func() time.Time {
		return time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	}))
	svc := service.New(repo, v, log)
	h := router.New(config.HTTPServer{RateLimitDisabled: true}, svc, repo, log)

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv, repo
}

func newCache(t *testing.T) *clientcache.Cache {
	t.Helper()
	c := clientcache.Open("", discardLogger())
	if c == nil {
		t.Fatal("cache failed to open")
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func ptr[T any](v T) *T { return &v }

func ada() types.StudentInput {
	return types.StudentInput{
		Name:               ptr("Ada Lovelace"),
		RegistrationNumber: ptr("202401234"),
		Major:              ptr("Mathematics"),
		DOB:                ptr("2000-01-15"),
		GPA:                ptr(3.75),
	}
}

func TestWritesRefreshCache(t *testing.T) {
	ctx := context.Background()
	srv, _ := newAPI(t)
	cache := newCache(t)
	c := New(srv.URL+"/api", cache)

	created, err := c.Create(ctx, ada())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if cached := c.Cached(); len(cached) != 1 || cached[0].ID != created.ID {
		t.Fatalf("cache after Create = %+v", cached)
	}

	updated, err := c.Update(ctx, created.ID, types.StudentInput{GPA: ptr(3.9)})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if s, ok := c.CachedByID(created.ID); !ok || s.GPA != 3.9 || updated.GPA != 3.9 {
		t.Fatalf("cache after Update = %+v", s)
	}

	got, err := c.Get(ctx, created.ID)
	if err != nil || got != updated {
		t.Fatalf("Get = %+v, %v", got, err)
	}

	if err := c.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if cached := c.Cached(); len(cached) != 0 {
		t.Fatalf("cache after Delete = %+v", cached)
	}
}

func TestSyncPushesCacheToEmptyServer(t *testing.T) {
	ctx := context.Background()
	srv, repo := newAPI(t)
	cache := newCache(t)

	offline := types.Student{ID: "c1", Name: "Cached", RegistrationNumber: "202400077", Major: "Art", DOB: "2001-01-01", GPA: 3}
	cache.Save([]types.Student{offline})

	c := New(srv.URL+"/api", cache)
	list, err := c.Sync(ctx)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if len(list) != 1 || list[0] != offline {
		t.Fatalf("Sync = %+v", list)
	}
	if _, found, _ := repo.FindByID(ctx, "c1"); !found {
		t.Error("server did not receive the cached record")
	}
}

func TestFilteredListDoesNotOverwriteCache(t *testing.T) {
	ctx := context.Background()
	srv, _ := newAPI(t)
	cache := newCache(t)
	c := New(srv.URL+"/api", cache)

	c.Create(ctx, ada())
	other := ada()
	other.Name = ptr("Alan Turing")
	other.RegistrationNumber = ptr("202400002")
	c.Create(ctx, other)

	got, err := c.List(ctx, ListOptions{Search: "alan"})
	if err != nil || len(got) != 1 {
		t.Fatalf("List = %+v, %v", got, err)
	}
	if cached := c.Cached(); len(cached) != 2 {
		t.Errorf("filtered list replaced the cache: %+v", cached)
	}
}

func TestAPIErrors(t *testing.T) {
	ctx := context.Background()
	srv, _ := newAPI(t)
	c := New(srv.URL+"/api", nil)

	bad := ada()
	bad.GPA = ptr(4.1)
	_, err := c.Create(ctx, bad)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.Status != http.StatusBadRequest || apiErr.Message != "Validation failed" {
		t.Errorf("APIError = %+v", apiErr)
	}
	if msgs := apiErr.Details["gpa"]; len(msgs) != 1 || msgs[0] != "GPA must be between 0.0 and 4.0" {
		t.Errorf("details = %v", apiErr.Details)
	}

	_, err = c.Get(ctx, "ghost")
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusNotFound || apiErr.Message != "Student not found" {
		t.Errorf("Get(ghost) err = %v", err)
	}
}

func TestHeaderOnlySentWithNonEmptyCache(t *testing.T) {
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("x-client-data"))
		w.Write([]byte(`{"students":[]}`))
	}))
	defer srv.Close()

	cache := newCache(t)
	c := New(srv.URL, cache)

	// Empty cache: no header. The empty response is then cached as [].
	c.List(context.Background(), ListOptions{})
	c.List(context.Background(), ListOptions{})

	cache.Save([]types.Student{{ID: "1", Name: "Ada"}})
	c.List(context.Background(), ListOptions{Search: "x"})

	if len(seen) != 3 {
		t.Fatalf("requests = %d", len(seen))
	}
	if seen[0] != "" || seen[1] != "" {
		t.Errorf("header sent with an empty cache: %q", seen[:2])
	}
	if seen[2] != `[{"id":"1","name":"Ada","registrationNumber":"","major":"","dob":"","gpa":0}]` {
		t.Errorf("header = %q", seen[2])
	}
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url, nil).List(context.Background(), ListOptions{})
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("err = %v, want ErrNetwork", err)
	}
}
