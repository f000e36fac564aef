package localcache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"
)

// Cache is a synchronous key-value string store persisted as a single JSON
// file. It plays the role the browser's localStorage played for the web
// client: the backing store for anonymous sessions and a backup mirror of
// the authenticated watchlist.
//
// Reads and writes are synchronous; the file is rewritten on every Set.
// Device storage is assumed infallible in normal operation, but write
// errors are still returned so callers can log them.
type Cache struct {
	fs   afero.Fs
	path string

	mu   sync.Mutex
	data map[string]string
}

// New loads the cache file at path, creating an empty cache when the file
// does not exist yet.
func New(fs afero.Fs, path string) (*Cache, error) {
	c := &Cache{
		fs:   fs,
		path: path,
		data: make(map[string]string),
	}

	raw, err := afero.ReadFile(fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, fmt.Errorf("read cache file: %w", err)
	}

	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &c.data); err != nil {
			return nil, fmt.Errorf("decode cache file: %w", err)
		}
	}
	return c, nil
}

// Get returns the stored value for key and whether it was present.
func (c *Cache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok
}

// Set stores value under key and rewrites the backing file.
func (c *Cache) Set(key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return c.flushLocked()
}

// Delete removes key and rewrites the backing file. Deleting an absent key
// is a no-op.
func (c *Cache) Delete(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.data[key]; !ok {
		return nil
	}
	delete(c.data, key)
	return c.flushLocked()
}

func (c *Cache) flushLocked() error {
	raw, err := json.Marshal(c.data)
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}

	dir := filepath.Dir(c.path)
	if dir != "" && dir != "." {
		if err := c.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create cache directory: %w", err)
		}
	}

	if err := afero.WriteFile(c.fs, c.path, raw, 0o644); err != nil {
		return fmt.Errorf("write cache file: %w", err)
	}
	return nil
}
