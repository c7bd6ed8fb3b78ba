package fs

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/fsnotify/fsnotify"
)

// Watch reports external changes to the state tree. Each value received
// means "reload". Writes made by this Storage are ignored for QuietPeriod;
// bursts are coalesced by a debouncer. The channel closes when ctx is done.
func (s *Storage) Watch(ctx context.Context) (<-chan struct{}, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := s.recursiveAdd(watcher); err != nil {
		_ = watcher.Close()
		return nil, err
	}
	_ = watcher.Add(filepath.Join(s.Path, ".git"))

	out := make(chan struct{}, 1)
	w := &watchWorker{
		storage:   s,
		watcher:   watcher,
		debouncer: newDebouncer(s.config.Debounce),
		out:       out,
	}
	s.setWatcherActive(true)

	lifecycle.Go(ctx, w.run, lifecycle.WithErrorHandler(func(err error) {
		s.reportError(fmt.Errorf("watcher panic: %w", err))
	}))
	return out, nil
}

type watchWorker struct {
	storage   *Storage
	watcher   *fsnotify.Watcher
	debouncer *debouncer
	out       chan struct{}
}

// run is the main event loop for the watcher worker.
func (w *watchWorker) run(ctx context.Context) (err error) {
	s := w.storage
	defer func() {
		if recovered := recover(); recovered != nil {
			panicErr := fmt.Errorf("watcher panic: %v", recovered)
			if s.config.Logger != nil && s.config.Logger.Enabled(ctx, slog.LevelDebug) {
				s.config.Logger.Error("watcher panic", "error", panicErr, "stack", string(debug.Stack()))
			} else {
				s.reportError(panicErr)
			}
		}
	}()
	defer close(w.out)
	// An in-flight notification must finish before out is closed.
	defer w.debouncer.stopAndWait(5 * time.Second)
	defer s.setWatcherActive(false)
	defer w.watcher.Close()

	var gitLocked bool
	return w.mainEventLoop(ctx, &gitLocked)
}

func (w *watchWorker) mainEventLoop(ctx context.Context, gitLocked *bool) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher events channel closed")
			}

			if handled, locked := w.handleGitLockEvent(event, *gitLocked); handled {
				*gitLocked = locked
				if !locked {
					// Git released the lock: whatever it touched needs a reload.
					w.notify()
				}
				continue
			}
			if *gitLocked {
				continue
			}
			w.processFilesystemEvent(event)

		case wErr, ok := <-w.watcher.Errors:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher errors channel closed")
			}
			w.storage.reportError(wErr)
		}
	}
}

// handleGitLockEvent tracks .git/index.lock so that checkouts and merges
// produce a single reload once git is done.
func (w *watchWorker) handleGitLockEvent(event fsnotify.Event, locked bool) (handled, lockedNow bool) {
	if filepath.Base(event.Name) != "index.lock" || filepath.Base(filepath.Dir(event.Name)) != ".git" {
		return false, locked
	}
	switch {
	case event.Has(fsnotify.Create):
		w.storage.debug("git operations detected, pausing watcher")
		return true, true
	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		w.storage.debug("git operations finished, reloading")
		return true, false
	}
	return true, locked
}

func (w *watchWorker) processFilesystemEvent(event fsnotify.Event) bool {
	s := w.storage

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !s.ignoredDir(event.Name) {
			_ = w.watcher.Add(event.Name)
		}
	}
	if s.shouldIgnore(event) {
		return false
	}

	s.debug("external change", "path", event.Name, "op", event.Op.String())
	w.notify()
	return true
}

// notify signals a reload once the current burst settles. The channel holds
// one pending signal; further ones collapse into it.
func (w *watchWorker) notify() {
	w.debouncer.trigger(func() {
		select {
		case w.out <- struct{}{}:
		default:
		}
	})
}

// recursiveAdd watches the root, every repository directory and every notes
// directory. The system directory and .git are skipped.
func (s *Storage) recursiveAdd(watcher *fsnotify.Watcher) error {
	return filepath.WalkDir(s.Path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != s.Path && s.ignoredDir(p) {
			return filepath.SkipDir
		}
		if err := watcher.Add(p); err != nil {
			return fmt.Errorf("failed to watch %s: %w", p, err)
		}
		return nil
	})
}

func (s *Storage) ignoredDir(p string) bool {
	base := filepath.Base(p)
	return base == ".git" || base == s.config.SystemDir || strings.HasPrefix(base, ".")
}

func (s *Storage) shouldIgnore(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return true
	}
	rel, err := filepath.Rel(s.Path, event.Name)
	if err != nil || strings.HasPrefix(rel, "..") {
		return true
	}
	rel = filepath.ToSlash(rel)
	first := strings.SplitN(rel, "/", 2)[0]
	if first == ".git" || first == s.config.SystemDir {
		return true
	}
	if isTempFile(event.Name) || filepath.Base(event.Name) == ".gitignore" {
		return true
	}
	if strings.HasSuffix(event.Name, "~") || strings.HasSuffix(event.Name, ".swp") {
		return true
	}
	return s.isOwnWrite(event.Name)
}

// markOwnWrite records that this process is about to write path.
func (s *Storage) markOwnWrite(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.ownWrites[filepath.Clean(path)] = now
	for p, at := range s.ownWrites {
		if now.Sub(at) > s.config.QuietPeriod {
			delete(s.ownWrites, p)
		}
	}
}

// isOwnWrite reports whether path, or a directory above it, was written or
// removed by this process within QuietPeriod.
func (s *Storage) isOwnWrite(path string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	root := filepath.Clean(s.Path)
	for p := filepath.Clean(path); p != root && p != filepath.Dir(p); p = filepath.Dir(p) {
		if at, ok := s.ownWrites[p]; ok && time.Since(at) <= s.config.QuietPeriod {
			return true
		}
	}
	return false
}

func (s *Storage) setWatcherActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watcherActive = active
}

func (s *Storage) reportError(err error) {
	if s.config.Logger != nil {
		s.config.Logger.Error("watcher error", "error", err)
	}
	if s.config.ErrorHandler != nil {
		s.config.ErrorHandler(err)
	}
}

func (s *Storage) debug(msg string, args ...any) {
	if s.config.Logger != nil {
		s.config.Logger.Debug(msg, args...)
	}
}
