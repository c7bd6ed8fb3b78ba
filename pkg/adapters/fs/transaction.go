package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

const commitMessage = "chore(state): commit snapshot"

// batch collects the file writes and removals of one Save and applies them
// together, followed by a single git commit when versioning is enabled.
type batch struct {
	storage *Storage
	writes  map[string][]byte // relPath -> content
	removes map[string]bool   // relPath -> is directory
}

func newBatch(s *Storage) *batch {
	return &batch{
		storage: s,
		writes:  make(map[string][]byte),
		removes: make(map[string]bool),
	}
}

// Write stages relPath for writing.
func (b *batch) Write(relPath string, data []byte) {
	b.writes[relPath] = data
	delete(b.removes, relPath)
}

// Remove stages a file (or directory tree) for removal.
func (b *batch) Remove(relPath string, dir bool) {
	b.removes[relPath] = dir
	delete(b.writes, relPath)
}

// Commit applies all staged changes. It returns the number of files
// actually written (unchanged content is skipped) and removed.
func (b *batch) Commit(ctx context.Context) (written, removed int, err error) {
	s := b.storage

	if s.config.Versioning {
		unlock, err := s.git.Lock(ctx)
		if err != nil {
			return 0, 0, fmt.Errorf("failed to acquire git lock: %w", err)
		}
		defer unlock()
	}

	paths := make([]string, 0, len(b.writes))
	for p := range b.writes {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, rel := range paths {
		if ctx.Err() != nil {
			return written, removed, ctx.Err()
		}
		data := b.writes[rel]
		full := filepath.Join(s.Path, rel)
		sum := digest(data)

		if info, err := os.Stat(full); err == nil && s.cache.Fresh(rel, sum, info.ModTime()) {
			continue
		}

		for dir := filepath.Dir(full); !exists(dir); dir = filepath.Dir(dir) {
			s.markOwnWrite(dir)
		}
		s.markOwnWrite(full)
		mtime, err := writeFileAtomic(full, data, 0644)
		if err != nil {
			return written, removed, fmt.Errorf("failed to write %s: %w", rel, err)
		}
		s.cache.Set(rel, sum, mtime)
		written++
	}

	for rel, dir := range b.removes {
		full := filepath.Join(s.Path, rel)
		s.markOwnWrite(full)
		if dir {
			err = os.RemoveAll(full)
		} else {
			err = os.Remove(full)
		}
		if err != nil && !os.IsNotExist(err) {
			return written, removed, fmt.Errorf("failed to remove %s: %w", rel, err)
		}
		s.cache.Delete(rel, dir)
		removed++
	}

	if err := s.cache.Save(); err != nil && s.config.Logger != nil {
		s.config.Logger.Warn("failed to persist cache", "error", err)
	}

	if s.config.Versioning && written+removed > 0 {
		if err := b.gitCommit(); err != nil {
			return written, removed, err
		}
	}
	return written, removed, nil
}

func (b *batch) gitCommit() error {
	g := b.storage.git
	if err := g.Add("."); err != nil {
		return fmt.Errorf("failed to git add: %w", err)
	}
	dirty, err := g.HasChanges()
	if err != nil {
		return fmt.Errorf("failed to read git status: %w", err)
	}
	if !dirty {
		return nil
	}
	if err := g.Commit(commitMessage); err != nil {
		return fmt.Errorf("failed to git commit: %w", err)
	}
	b.storage.recordCommit(time.Now())
	return nil
}

func exists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
