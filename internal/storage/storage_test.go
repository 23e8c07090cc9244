package storage

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/aanand-mishra/student-records/internal/config"
	"github.com/aanand-mishra/student-records/internal/types"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(driver, path string) *config.Config {
	return &config.Config{
		Env:     "dev",
		Storage: config.Storage{Driver: driver, Path: path},
	}
}

func sample(id, reg string) types.Student {
	return types.Student{
		ID:                 id,
		Name:               "Student " + id,
		RegistrationNumber: reg,
		Major:              "Physics",
		DOB:                "2001-05-05",
		GPA:                3.5,
	}
}

// TestBackendContract runs the same scenario against every driver.
func TestBackendContract(t *testing.T) {
	drivers := []struct {
		driver string
		file   string
	}{
		{"memory", ""},
		{"json", "students.json"},
		{"sqlite", "students.db"},
	}

	for _, d := range drivers {
		t.Run(d.driver, func(t *testing.T) {
			ctx := context.Background()
			path := ""
			if d.file != "" {
				path = filepath.Join(t.TempDir(), "nested", d.file)
			}

			res, err := Open(ctx, testConfig(d.driver, path), discardLogger())
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			if res.Degraded {
				t.Fatal("backend unexpectedly degraded")
			}
			b := res.Backend
			defer b.Close()

			if b.Driver() != d.driver {
				t.Errorf("Driver() = %q, want %q", b.Driver(), d.driver)
			}

			list, err := b.List(ctx)
			if err != nil || list == nil || len(list) != 0 {
				t.Fatalf("List on empty store = %v, %v; want empty non-nil", list, err)
			}

			for _, s := range []types.Student{sample("a", "100000001"), sample("b", "100000002"), sample("c", "100000003")} {
				if err := b.Put(ctx, s); err != nil {
					t.Fatalf("Put %s: %v", s.ID, err)
				}
			}

			// Updating keeps the record's position.
			updated := sample("a", "100000001")
			updated.Major = "Chemistry"
			if err := b.Put(ctx, updated); err != nil {
				t.Fatalf("Put update: %v", err)
			}

			got, found, err := b.Get(ctx, "a")
			if err != nil || !found || got.Major != "Chemistry" {
				t.Fatalf("Get(a) = %+v, %v, %v", got, found, err)
			}
			if _, found, err := b.Get(ctx, "missing"); err != nil || found {
				t.Fatalf("Get(missing) found=%v err=%v", found, err)
			}

			list, _ = b.List(ctx)
			if ids := idsOf(list); ids != "abc" {
				t.Errorf("order after update = %s, want abc", ids)
			}

			existed, err := b.Delete(ctx, "b")
			if err != nil || !existed {
				t.Fatalf("Delete(b) = %v, %v", existed, err)
			}
			existed, err = b.Delete(ctx, "b")
			if err != nil || existed {
				t.Fatalf("second Delete(b) = %v, %v", existed, err)
			}

			if err := b.Replace(ctx, []types.Student{sample("z", "100000009"), sample("a", "100000001")}); err != nil {
				t.Fatalf("Replace: %v", err)
			}
			list, _ = b.List(ctx)
			if ids := idsOf(list); ids != "za" {
				t.Errorf("order after Replace = %s, want za", ids)
			}
		})
	}
}

func TestJSONFilePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "students.json")

	res, err := Open(ctx, testConfig("json", path), discardLogger())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := res.Backend.Put(ctx, sample("a", "100000001")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if len(raw) == 0 || raw[0] != '[' || raw[1] != '\n' {
		t.Errorf("file should hold a pretty-printed array, got %q", raw)
	}

	res2, err := Open(ctx, testConfig("json", path), discardLogger())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	list, err := res2.Backend.List(ctx)
	if err != nil || len(list) != 1 || list[0].ID != "a" {
		t.Fatalf("List after reopen = %v, %v", list, err)
	}
}

func TestOpenDegradesWhenPathUnusable(t *testing.T) {
	// A regular file where a directory is expected makes MkdirAll fail,
	// regardless of the user running the tests.
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(blocker, "data", "students.json")

	res, err := Open(context.Background(), testConfig("json", path), discardLogger())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !res.Degraded || res.Backend.Driver() != "memory" {
		t.Fatalf("expected degraded memory backend, got %s degraded=%v", res.Backend.Driver(), res.Degraded)
	}

	strict := testConfig("json", path)
	strict.Storage.Strict = true
	if _, err := Open(context.Background(), strict, discardLogger()); err == nil {
		t.Fatal("strict mode should fail instead of degrading")
	}
}

func TestOpenRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "students.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := Open(context.Background(), testConfig("json", path), discardLogger())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !res.Degraded {
		t.Fatal("a corrupt file should push the store into degraded mode")
	}

	// The corrupt file is left alone for an operator to inspect.
	raw, _ := os.ReadFile(path)
	if string(raw) != "{not json" {
		t.Errorf("corrupt file was rewritten: %q", raw)
	}
}

func idsOf(list []types.Student) string {
	out := ""
	for _, s := range list {
		out += s.ID
	}
	return out
}
