package core

import (
	"encoding/json"
	"sort"

	"gopkg.in/yaml.v3"
)

// StarSet is an immutable set of starred note keys.
// The zero value is an empty set. With and Without return new sets.
type StarSet struct {
	keys map[string]struct{}
}

// NewStarSet builds a set from keys; duplicates collapse.
func NewStarSet(keys ...string) StarSet {
	m := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		m[k] = struct{}{}
	}
	return StarSet{keys: m}
}

// Has reports whether key is in the set.
func (s StarSet) Has(key string) bool {
	_, ok := s.keys[key]
	return ok
}

// Len returns the number of keys.
func (s StarSet) Len() int {
	return len(s.keys)
}

// Keys returns the keys sorted, so output is deterministic.
func (s StarSet) Keys() []string {
	out := make([]string, 0, len(s.keys))
	for k := range s.keys {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// With returns a set containing key. The receiver is returned unchanged
// (and ok is false) when key is already present.
func (s StarSet) With(key string) (out StarSet, ok bool) {
	if s.Has(key) {
		return s, false
	}
	m := make(map[string]struct{}, len(s.keys)+1)
	for k := range s.keys {
		m[k] = struct{}{}
	}
	m[key] = struct{}{}
	return StarSet{keys: m}, true
}

// Without returns a set lacking key. The receiver is returned unchanged
// (and ok is false) when key is absent.
func (s StarSet) Without(key string) (out StarSet, ok bool) {
	if !s.Has(key) {
		return s, false
	}
	m := make(map[string]struct{}, len(s.keys))
	for k := range s.keys {
		if k != key {
			m[k] = struct{}{}
		}
	}
	return StarSet{keys: m}, true
}

// Equal reports whether both sets hold the same keys.
func (s StarSet) Equal(o StarSet) bool {
	if s.Len() != o.Len() {
		return false
	}
	for k := range s.keys {
		if !o.Has(k) {
			return false
		}
	}
	return true
}

func (s StarSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Keys())
}

func (s *StarSet) UnmarshalJSON(data []byte) error {
	var keys []string
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}
	*s = NewStarSet(keys...)
	return nil
}

func (s StarSet) MarshalYAML() (interface{}, error) {
	return s.Keys(), nil
}

func (s *StarSet) UnmarshalYAML(value *yaml.Node) error {
	var keys []string
	if err := value.Decode(&keys); err != nil {
		return err
	}
	*s = NewStarSet(keys...)
	return nil
}
