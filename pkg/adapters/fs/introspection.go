package fs

import (
	"time"

	"github.com/aretw0/introspection"
)

// StorageState exposes internal state for observability.
type StorageState struct {
	Path          string     `json:"path"`
	SystemDir     string     `json:"system_dir"`
	CacheSize     int        `json:"cache_size"`
	Versioning    bool       `json:"versioning"`
	WatcherActive bool       `json:"watcher_active"`
	PendingQuiet  int        `json:"pending_quiet"`
	LastSave      *time.Time `json:"last_save,omitempty"`
	LastCommit    *time.Time `json:"last_commit,omitempty"`
}

// State implements introspection.Introspectable.
func (s *Storage) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return StorageState{
		Path:          s.Path,
		SystemDir:     s.config.SystemDir,
		CacheSize:     s.cache.Len(),
		Versioning:    s.config.Versioning,
		WatcherActive: s.watcherActive,
		PendingQuiet:  len(s.ownWrites),
		LastSave:      s.lastSave,
		LastCommit:    s.lastCommit,
	}
}

// ComponentType implements introspection.Component.
func (s *Storage) ComponentType() string {
	return "fs"
}

var _ introspection.Introspectable = (*Storage)(nil)
var _ introspection.Component = (*Storage)(nil)
