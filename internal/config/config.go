// Package config handles loading and parsing application configuration.
// It supports three sources (in priority order):
//  1. An environment variable:  CONFIG_PATH=/path/to/config.yaml
//  2. A command-line flag:      --config=/path/to/config.yaml
//  3. Neither: every value comes from env vars or the env-default tags.
//
// Individual values can always be overridden by the env var named in
// the field's env:"..." tag, even when a YAML file is used.
package config

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the root configuration structure.
// Every field maps to a key in the YAML file AND can be overridden
// by the corresponding environment variable (env:"...").
type Config struct {
	// Env controls log format and verbosity.
	// Valid values: "dev", "staging", "prod"
	Env string `yaml:"env" env:"ENV" env-default:"dev"`

	HTTPServer `yaml:"http_server"`

	Storage Storage `yaml:"storage"`
}

// HTTPServer holds settings specific to the HTTP server.
// Nested under http_server: in the YAML file.
type HTTPServer struct {
	// Addr is the TCP address the server listens on, e.g. "localhost:8082".
	Addr string `yaml:"address" env:"HTTP_SERVER_ADDR" env-default:"localhost:8082"`

	ReadTimeout  time.Duration `yaml:"read_timeout" env:"HTTP_SERVER_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"HTTP_SERVER_WRITE_TIMEOUT" env-default:"10s"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" env:"HTTP_SERVER_IDLE_TIMEOUT" env-default:"60s"`

	// CORSAllowedOrigins lists the browser origins allowed to call the API.
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins" env:"HTTP_SERVER_CORS_ORIGINS" env-separator:"," env-default:"http://localhost:3000"`

	// RateLimit is the number of requests per minute allowed per client IP.
	RateLimit         int  `yaml:"rate_limit" env:"HTTP_SERVER_RATE_LIMIT" env-default:"600"`
	RateLimitDisabled bool `yaml:"rate_limit_disabled" env:"HTTP_SERVER_RATE_LIMIT_DISABLED"`
}

// Storage selects and tunes the persistence backend.
type Storage struct {
	// Driver is one of "json", "sqlite", "memory".
	Driver string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"json"`

	// Path is the JSON file or SQLite database file.
	Path string `yaml:"path" env:"STORAGE_PATH" env-default:"data/students.json"`

	// Strict makes storage failures fatal. By default (false) the service
	// switches to in-memory storage, with a warning in the log, when the
	// backend cannot be opened or written.
	// An opt-in flag because cleanenv cannot tell an explicit "false" from
	// a missing key.
	Strict bool `yaml:"strict" env:"STORAGE_STRICT"`

	// CacheTTL is how long a full read of the backend is reused.
	CacheTTL time.Duration `yaml:"cache_ttl" env:"STORAGE_CACHE_TTL" env-default:"5s"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Load reads the configuration from path (YAML + env overrides), or from
// env vars and defaults alone when path is empty, and validates it.
// ─────────────────────────────────────────────────────────────────────────────
func Load(path string) (*Config, error) {
	var cfg Config

	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config.Load: read env: %w", err)
		}
	} else {
		// Verify the file exists before trying to read it, for a clearer
		// message than a bare "open: no such file".
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config.Load: config file does not exist: %s", path)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config.Load: read %s: %w", path, err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	return &cfg, nil
}

// MustLoad reads, validates, and returns the application config.
//
// The name "MustLoad" follows a Go convention: functions prefixed with
// "Must" are allowed to fatal on failure. If this function returns, the
// config is valid.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")

	if configPath == "" {
		flags := flag.String("config", "", "Path to the configuration YAML file")
		flag.Parse()
		configPath = *flags
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot read config: %s", err.Error())
	}

	return cfg
}

func (c *Config) validate() error {
	switch c.Env {
	case "dev", "staging", "prod":
	default:
		return fmt.Errorf("env must be one of dev, staging, prod (got %q)", c.Env)
	}

	switch c.Storage.Driver {
	case "json", "sqlite", "memory":
	default:
		return fmt.Errorf("storage.driver must be one of json, sqlite, memory (got %q)", c.Storage.Driver)
	}

	if c.Storage.CacheTTL < 0 {
		return errors.New("storage.cache_ttl must not be negative")
	}
	if c.HTTPServer.RateLimit <= 0 && !c.HTTPServer.RateLimitDisabled {
		return errors.New("http_server.rate_limit must be positive (set rate_limit_disabled to turn it off)")
	}

	return nil
}

// DegradeOnFailure reports whether storage failures fall back to memory.
func (s Storage) DegradeOnFailure() bool { return !s.Strict }
