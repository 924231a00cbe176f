package file

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

// Cache is a small file-backed key-value store with an explicit
// persistence step. It backs the location cache and the identifier
// cache: ad hoc JSON maps that live for the project, not the run.
type Cache[V any] struct {
	path    string
	entries map[string]V
}

// OpenCache loads a cache from path. A missing or corrupt file yields
// an empty cache with a warning, never an error.
func OpenCache[V any](path string) *Cache[V] {
	c := &Cache[V]{
		path:    path,
		entries: make(map[string]V),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("Could not load cache", "path", path, "error", err)
		}
		return c
	}

	if err := json.Unmarshal(data, &c.entries); err != nil {
		slog.Warn("Corrupt cache file, starting empty", "path", path, "error", err)
		c.entries = make(map[string]V)
	}
	return c
}

// Get returns the value for key.
func (c *Cache[V]) Get(key string) (V, bool) {
	v, ok := c.entries[key]
	return v, ok
}

// Put stores a value for key in memory. Call Persist to flush.
func (c *Cache[V]) Put(key string, value V) {
	c.entries[key] = value
}

// Len returns the number of entries.
func (c *Cache[V]) Len() int {
	return len(c.entries)
}

// Persist writes the full cache back to its file.
func (c *Cache[V]) Persist() error {
	data, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write cache %s: %w", c.path, err)
	}
	return nil
}
