package fs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/aretw0/notestate/pkg/core"
)

// indexEntry records the last content written to (or read from) one file.
type indexEntry struct {
	Digest       uint64    `json:"digest"`
	LastModified time.Time `json:"lastModified"`
}

// index represents the persistent cache state.
type index struct {
	Version int                    `json:"version"`
	Entries map[string]*indexEntry `json:"entries"` // Key is relative path (e.g. "r1/notes/n1.md")
	dirty   bool
	mu      sync.RWMutex
}

// cache lets Save skip unchanged work. It tracks two things:
// the repository pointers of the last committed snapshot (skip whole
// repositories) and a digest per file (skip identical rewrites).
type cache struct {
	Path  string // Path to .notestate/index.json
	index *index

	committed map[string]*core.Repository
}

// newCache initializes a cache at the given path.
func newCache(root, systemDir string) *cache {
	return &cache{
		Path: filepath.Join(root, systemDir, "index.json"),
		index: &index{
			Version: 1,
			Entries: make(map[string]*indexEntry),
		},
		committed: make(map[string]*core.Repository),
	}
}

func digest(data []byte) uint64 {
	return xxhash.Sum64(data)
}

// Load reads the cache from disk. A missing or corrupt file yields an empty index.
func (c *cache) Load() error {
	c.index.mu.Lock()
	defer c.index.mu.Unlock()

	data, err := os.ReadFile(c.Path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read cache: %w", err)
	}

	if err := json.Unmarshal(data, c.index); err != nil || c.index.Entries == nil {
		c.index.Entries = make(map[string]*indexEntry)
		return nil
	}

	c.index.dirty = false
	return nil
}

// Save persists the cache to disk if it's dirty.
func (c *cache) Save() error {
	c.index.mu.RLock()
	if !c.index.dirty {
		c.index.mu.RUnlock()
		return nil
	}
	data, err := json.MarshalIndent(c.index, "", "  ")
	c.index.mu.RUnlock()

	if err != nil {
		return err
	}

	if _, err := writeFileAtomic(c.Path, data, 0644); err != nil {
		return err
	}

	c.index.mu.Lock()
	c.index.dirty = false
	c.index.mu.Unlock()
	return nil
}

// Fresh reports whether relPath already holds content with the given digest.
// An entry only counts when the file's mtime still matches the recorded one,
// so edits made behind our back are never skipped.
func (c *cache) Fresh(relPath string, sum uint64, currentMtime time.Time) bool {
	c.index.mu.RLock()
	defer c.index.mu.RUnlock()

	entry, ok := c.index.Entries[relPath]
	if !ok {
		return false
	}
	return entry.Digest == sum && entry.LastModified.Equal(currentMtime)
}

// Set updates an entry in the cache.
func (c *cache) Set(relPath string, sum uint64, mtime time.Time) {
	c.index.mu.Lock()
	defer c.index.mu.Unlock()

	c.index.Entries[relPath] = &indexEntry{Digest: sum, LastModified: mtime}
	c.index.dirty = true
}

// Delete removes a single entry, or every entry below a directory when dir is set.
func (c *cache) Delete(relPath string, dir bool) {
	c.index.mu.Lock()
	defer c.index.mu.Unlock()

	prefix := relPath + "/"
	for p := range c.index.Entries {
		if p == relPath || (dir && strings.HasPrefix(p, prefix)) {
			delete(c.index.Entries, p)
			c.index.dirty = true
		}
	}
}

// Len returns the number of entries in the cache.
func (c *cache) Len() int {
	c.index.mu.RLock()
	defer c.index.mu.RUnlock()
	return len(c.index.Entries)
}

// Committed reports whether r is the exact repository value saved last under its key.
func (c *cache) Committed(r *core.Repository) bool {
	c.index.mu.RLock()
	defer c.index.mu.RUnlock()
	return c.committed[r.Key] == r
}

// SetCommitted remembers the repository pointers of a committed snapshot.
func (c *cache) SetCommitted(repos core.Repositories) {
	committed := make(map[string]*core.Repository, len(repos))
	for _, r := range repos {
		committed[r.Key] = r
	}
	c.index.mu.Lock()
	c.committed = committed
	c.index.mu.Unlock()
}
