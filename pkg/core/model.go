// Package core holds the state model of notestate and the pure transition
// functions that compute one snapshot from another.
//
// Nothing in this package performs I/O. Storage, journaling and change
// notification are reached through the interfaces in repository.go and are
// driven by the Store.
package core

import "time"

// Status is the load status of a repository.
// It is tracked by whoever loads repositories; transitions pass it through.
type Status string

const (
	StatusIdle    Status = "IDLE"
	StatusLoading Status = "LOADING"
	StatusReady   Status = "READY"
	StatusError   Status = "ERROR"
)

// Folder groups notes inside a repository.
// Key is unique among the folders of one repository.
type Folder struct {
	Key   string `json:"key" yaml:"key"`
	Name  string `json:"name" yaml:"name"`
	Color string `json:"color,omitempty" yaml:"color,omitempty"`
}

// Note is a single note of a repository.
//
// Repository is the back-reference to the owning repository, kept as a key.
// It is recomputed by every transition that writes the note and is never
// serialized. Resolve it against a snapshot with Repositories.Owner.
type Note struct {
	Key       string    `json:"key" yaml:"key"`
	Title     string    `json:"title" yaml:"title"`
	Content   string    `json:"content" yaml:"content"`
	Folder    string    `json:"folder,omitempty" yaml:"folder,omitempty"`
	Tags      []string  `json:"tags,omitempty" yaml:"tags,omitempty"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updatedAt"`

	Repository string `json:"-" yaml:"-"`
}

// Repository owns an ordered list of folders, an ordered list of notes and
// the set of starred note keys.
type Repository struct {
	Key     string   `json:"key" yaml:"key"`
	Name    string   `json:"name" yaml:"name"`
	Path    string   `json:"path" yaml:"path"`
	Status  Status   `json:"status,omitempty" yaml:"status,omitempty"`
	Folders []Folder `json:"folders" yaml:"folders"`
	Notes   []Note   `json:"notes" yaml:"notes"`
	Starred StarSet  `json:"starred" yaml:"starred"`
}

// Repositories is one snapshot of the repository collection.
// Snapshots share untouched *Repository values; never modify one in place.
type Repositories []*Repository

// Find returns the first repository with the given key and its index,
// or (nil, -1).
func (rs Repositories) Find(key string) (*Repository, int) {
	for i, r := range rs {
		if r != nil && r.Key == key {
			return r, i
		}
	}
	return nil, -1
}

// Owner resolves the back-reference of n against this snapshot.
func (rs Repositories) Owner(n Note) (*Repository, bool) {
	if n.Repository == "" {
		return nil, false
	}
	r, i := rs.Find(n.Repository)
	return r, i >= 0
}

// Clone returns a deep copy of the snapshot.
// Callers that need a mutable working copy (loaders, tests) use it;
// transitions never need it.
func (rs Repositories) Clone() Repositories {
	if rs == nil {
		return nil
	}
	out := make(Repositories, len(rs))
	for i, r := range rs {
		if r == nil {
			continue
		}
		c := *r
		if r.Folders != nil {
			c.Folders = append([]Folder{}, r.Folders...)
		}
		if r.Notes != nil {
			c.Notes = make([]Note, len(r.Notes))
			for j, n := range r.Notes {
				if n.Tags != nil {
					n.Tags = append([]string{}, n.Tags...)
				}
				c.Notes[j] = n
			}
		}
		out[i] = &c
	}
	return out
}

// Folder returns the folder with the given key and its index, or -1.
func (r *Repository) Folder(key string) (Folder, int) {
	for i, f := range r.Folders {
		if f.Key == key {
			return f, i
		}
	}
	return Folder{}, -1
}

// Note returns the note with the given key and its index, or -1.
func (r *Repository) Note(key string) (Note, int) {
	for i, n := range r.Notes {
		if n.Key == key {
			return n, i
		}
	}
	return Note{}, -1
}

// StarredNotes returns the notes of r whose keys are starred, in note order.
func (r *Repository) StarredNotes() []Note {
	var out []Note
	for _, n := range r.Notes {
		if r.Starred.Has(n.Key) {
			out = append(out, n)
		}
	}
	return out
}

// State is the aggregate snapshot: repositories plus UI settings.
type State struct {
	Repositories Repositories `json:"repositories"`
	Config       Config       `json:"config"`
}
