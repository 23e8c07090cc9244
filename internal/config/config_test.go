package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_YAML(t *testing.T) {
	path := writeConfig(t, `
env: "prod"
http_server:
  address: "0.0.0.0:9000"
  cors_allowed_origins: ["https://admin.example.edu"]
  rate_limit: 120
storage:
  driver: "sqlite"
  path: "/var/lib/students/students.db"
  strict: true
  cache_ttl: 2s
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Env != "prod" {
		t.Errorf("Env = %q, want prod", cfg.Env)
	}
	if cfg.Addr != "0.0.0.0:9000" {
		t.Errorf("Addr = %q", cfg.Addr)
	}
	if cfg.RateLimit != 120 {
		t.Errorf("RateLimit = %d, want 120", cfg.RateLimit)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "https://admin.example.edu" {
		t.Errorf("CORSAllowedOrigins = %v", cfg.CORSAllowedOrigins)
	}
	if cfg.Storage.Driver != "sqlite" || cfg.Storage.Path != "/var/lib/students/students.db" {
		t.Errorf("Storage = %+v", cfg.Storage)
	}
	if cfg.Storage.DegradeOnFailure() {
		t.Error("strict storage must not degrade")
	}
	if cfg.Storage.CacheTTL != 2*time.Second {
		t.Errorf("CacheTTL = %v, want 2s", cfg.Storage.CacheTTL)
	}
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "env: \"dev\"\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Addr != "localhost:8082" {
		t.Errorf("Addr = %q, want default", cfg.Addr)
	}
	if cfg.Storage.Driver != "json" || cfg.Storage.Path != "data/students.json" {
		t.Errorf("Storage = %+v, want json defaults", cfg.Storage)
	}
	if !cfg.Storage.DegradeOnFailure() {
		t.Error("storage should degrade by default")
	}
	if cfg.Storage.CacheTTL != 5*time.Second {
		t.Errorf("CacheTTL = %v, want 5s", cfg.Storage.CacheTTL)
	}
	if cfg.ReadTimeout != 10*time.Second || cfg.IdleTimeout != 60*time.Second {
		t.Errorf("timeouts = %v/%v", cfg.ReadTimeout, cfg.IdleTimeout)
	}
}

func TestLoad_EnvOnly(t *testing.T) {
	t.Setenv("ENV", "staging")
	t.Setenv("STORAGE_DRIVER", "memory")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Env != "staging" || cfg.Storage.Driver != "memory" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"bad env", "env: \"test\"\n", "env must be one of"},
		{"bad driver", "storage:\n  driver: \"postgres\"\n", "storage.driver must be one of"},
		{"negative ttl", "storage:\n  cache_ttl: -1s\n", "cache_ttl"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Load error = %v, want it to mention %q", err, tt.want)
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
