package core

import (
	"github.com/aretw0/introspection"
)

// StoreState exposes internal state for observability.
type StoreState struct {
	Repositories    int    `json:"repositories"`
	Notes           int    `json:"notes"`
	Seq             uint64 `json:"seq"`
	HistoryDepth    int    `json:"history_depth"`
	HistoryLimit    int    `json:"history_limit"`
	Subscribers     int    `json:"subscribers"`
	EventBufferSize int    `json:"event_buffer_size"`
	StorageType     string `json:"storage_type"`
	Journaled       bool   `json:"journaled"`
	ReadOnly        bool   `json:"read_only"`
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	s.mu.RLock()
	notes := 0
	for _, r := range s.state.Repositories {
		notes += len(r.Notes)
	}
	st := StoreState{
		Repositories:    len(s.state.Repositories),
		Notes:           notes,
		Seq:             s.seq,
		HistoryDepth:    len(s.history),
		HistoryLimit:    s.historyLimit,
		EventBufferSize: s.eventBuffer,
		StorageType:     "none",
		Journaled:       s.journal != nil,
		ReadOnly:        s.readOnly,
	}
	s.mu.RUnlock()

	if s.storage != nil {
		st.StorageType = "storage"
		if comp, ok := s.storage.(introspection.Component); ok {
			st.StorageType = comp.ComponentType()
		}
	}

	s.subsMu.Lock()
	st.Subscribers = len(s.subs)
	s.subsMu.Unlock()

	return st
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string {
	return "store"
}

var _ introspection.Introspectable = (*Store)(nil)
var _ introspection.Component = (*Store)(nil)
