package badger

import (
	"time"

	"github.com/aretw0/introspection"
)

// StorageState exposes internal state for observability.
type StorageState struct {
	Path       string     `json:"path,omitempty"`
	InMemory   bool       `json:"in_memory"`
	Open       bool       `json:"open"`
	Committed  int        `json:"committed"`
	GCInterval string     `json:"gc_interval,omitempty"`
	LastSave   *time.Time `json:"last_save,omitempty"`
}

// State implements introspection.Introspectable.
func (s *Storage) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := StorageState{
		Path:      s.cfg.Path,
		InMemory:  s.cfg.InMemory,
		Open:      s.db != nil,
		Committed: len(s.committed),
		LastSave:  s.lastSave,
	}
	if s.cfg.GCInterval > 0 && !s.cfg.InMemory {
		st.GCInterval = s.cfg.GCInterval.String()
	}
	return st
}

// ComponentType implements introspection.Component.
func (s *Storage) ComponentType() string {
	return "badger"
}

var _ introspection.Introspectable = (*Storage)(nil)
var _ introspection.Component = (*Storage)(nil)
