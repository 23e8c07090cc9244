// Package clientcache keeps the client's last known student list on disk
// between runs, in a badger key-value store under a single key.
//
// The cache is best effort. Every failure (cannot open, cannot read,
// cannot decode, cannot write) is logged and treated as "no cache", and
// a nil *Cache behaves as an always-empty cache, so callers never branch
// on cache errors.
package clientcache

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/aanand-mishra/student-records/internal/types"
	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// Key is the slot holding the JSON-encoded list.
const Key = "edtech_students"

// Cache wraps a badger database.
type Cache struct {
	db  *badger.DB
	log *slog.Logger
}

// Open opens (or creates) the cache in dir. An empty dir keeps the cache
// in memory for the lifetime of the process.
//
// When the store cannot be opened, Open logs a warning and returns nil,
// which is a valid, always-empty cache.
func Open(dir string, log *slog.Logger) *Cache {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		log.Warn("client cache unavailable, continuing without it",
			slog.String("dir", dir),
			slog.String("error", err.Error()))
		return nil
	}

	return &Cache{db: db, log: log}
}

// Load returns the cached list, or nil when there is none.
func (c *Cache) Load() []types.Student {
	if c == nil {
		return nil
	}

	var students []types.Student
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(Key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &students)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil
	}
	if err != nil {
		c.log.Debug("client cache unreadable", slog.String("error", err.Error()))
		return nil
	}

	return students
}

// Save overwrites the cached list.
func (c *Cache) Save(students []types.Student) {
	if c == nil {
		return
	}

	if err := c.save(students); err != nil {
		c.log.Warn("client cache write failed", slog.String("error", err.Error()))
	}
}

func (c *Cache) save(students []types.Student) error {
	if students == nil {
		students = []types.Student{}
	}
	data, err := json.Marshal(students)
	if err != nil {
		return fmt.Errorf("marshal students: %w", err)
	}

	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(Key), data)
	})
}

// Clear removes the cached list.
func (c *Cache) Clear() {
	if c == nil {
		return
	}

	err := c.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete([]byte(Key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
	if err != nil {
		c.log.Warn("client cache clear failed", slog.String("error", err.Error()))
	}
}

// Close releases the underlying store.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.db.Close()
}
