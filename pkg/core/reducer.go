package core

import "time"

// Reducer computes snapshots from actions. It is a value type; the zero value
// uses the wall clock.
type Reducer struct {
	now func() time.Time
}

// ReducerOption configures a Reducer.
type ReducerOption func(*Reducer)

// WithClock sets the clock used to stamp saved notes.
func WithClock(now func() time.Time) ReducerOption {
	return func(r *Reducer) {
		r.now = now
	}
}

// NewReducer creates a Reducer.
func NewReducer(opts ...ReducerOption) Reducer {
	var r Reducer
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// At returns a copy of r whose clock is stopped at t.
func (r Reducer) At(t time.Time) Reducer {
	r.now = func() time.Time { return t }
	return r
}

func (r Reducer) clock() time.Time {
	if r.now == nil {
		return time.Now()
	}
	return r.now()
}

// Reduce routes a to both transition functions. The returned State is state
// itself when neither of them changed anything.
func (r Reducer) Reduce(state State, a Action) (State, bool) {
	repos, reposChanged := r.Repositories(state.Repositories, a)
	cfg, cfgChanged := r.Config(state.Config, a)
	if !reposChanged && !cfgChanged {
		return state, false
	}
	return State{Repositories: repos, Config: cfg}, true
}

// Repositories is the repository transition function.
//
// It never mutates state or anything reachable from it. When the action does
// not apply (unknown tag, missing repository, folder or note) it returns state
// and false.
func (r Reducer) Repositories(state Repositories, a Action) (Repositories, bool) {
	switch act := a.(type) {
	case InitAll:
		return initAll(act.Data), true

	case AddRepository:
		if act.Repository == nil {
			return state, false
		}
		next := make(Repositories, 0, len(state)+1)
		next = append(next, state...)
		return append(next, adopt(act.Repository)), true

	case RemoveRepository:
		_, i := state.Find(act.Key)
		if i < 0 {
			return state, false
		}
		return removeAt(state, i), true

	case AddFolder:
		return upsertFolder(state, act.Key, act.Folder)

	case EditFolder:
		return upsertFolder(state, act.Key, act.Folder)

	case RemoveFolder:
		return updateRepository(state, act.Repository, func(repo *Repository) bool {
			_, i := repo.Folder(act.Folder)
			if i < 0 {
				return false
			}
			repo.Folders = removeAt(repo.Folders, i)
			return true
		})

	case AddNote:
		return updateRepository(state, act.Repository, func(repo *Repository) bool {
			n := act.Note
			n.Repository = repo.Key
			repo.Notes = appendCopy(repo.Notes, n)
			return true
		})

	case SaveNote:
		return updateRepository(state, act.Repository, func(repo *Repository) bool {
			n := act.Note
			stamp := r.clock()
			if stamp.Before(n.UpdatedAt) {
				stamp = n.UpdatedAt
			}
			existing, i := repo.Note(n.Key)
			if i >= 0 && stamp.Before(existing.UpdatedAt) {
				stamp = existing.UpdatedAt
			}
			n.UpdatedAt = stamp
			n.Repository = repo.Key
			if i < 0 {
				repo.Notes = appendCopy(repo.Notes, n)
			} else {
				repo.Notes = replaceAt(repo.Notes, i, n)
			}
			return true
		})

	case StarNote:
		return updateRepository(state, act.Repository, func(repo *Repository) bool {
			if _, i := repo.Note(act.Note); i < 0 {
				return false
			}
			starred, ok := repo.Starred.With(act.Note)
			repo.Starred = starred
			return ok
		})

	case UnstarNote:
		return updateRepository(state, act.Repository, func(repo *Repository) bool {
			starred, ok := repo.Starred.Without(act.Note)
			repo.Starred = starred
			return ok
		})

	case SetSideNavFolded, SetZoom, SetListWidth, SetConfig, Unknown:
		return state, false
	}
	return state, false
}

// Config is the settings transition function. Every settings action yields a
// new record, even when the value is the same.
func (r Reducer) Config(state Config, a Action) (Config, bool) {
	switch act := a.(type) {
	case SetSideNavFolded:
		next := state
		next.IsSideNavFolded = act.IsFolded
		return next, true

	case SetZoom:
		next := state
		next.Zoom = act.Zoom
		return next, true

	case SetListWidth:
		next := state
		next.ListWidth = act.ListWidth
		return next, true

	case SetConfig:
		return state.Merge(act.Config), true

	case InitAll, AddRepository, RemoveRepository, AddFolder, EditFolder,
		RemoveFolder, AddNote, SaveNote, StarNote, UnstarNote, Unknown:
		return state, false
	}
	return state, false
}

// Reduce applies a to state using the wall clock.
func Reduce(state State, a Action) (State, bool) {
	return Reducer{}.Reduce(state, a)
}

// ReduceRepositories applies a to a repository snapshot using the wall clock.
func ReduceRepositories(state Repositories, a Action) (Repositories, bool) {
	return Reducer{}.Repositories(state, a)
}

// ReduceConfig applies a to a settings record.
func ReduceConfig(state Config, a Action) (Config, bool) {
	return Reducer{}.Config(state, a)
}

// initAll builds a fresh snapshot from data with every back-reference set.
// data is left untouched.
func initAll(data Repositories) Repositories {
	next := make(Repositories, 0, len(data))
	for _, repo := range data {
		if repo == nil {
			continue
		}
		next = append(next, adopt(repo))
	}
	return next
}

// adopt copies repo into a snapshot-owned value with every note's
// back-reference set. The caller keeps repo and may modify it freely.
func adopt(repo *Repository) *Repository {
	c := *repo
	if repo.Folders != nil {
		c.Folders = append([]Folder{}, repo.Folders...)
	}
	c.Notes = make([]Note, len(repo.Notes))
	for i, n := range repo.Notes {
		n.Repository = repo.Key
		c.Notes[i] = n
	}
	return &c
}

func upsertFolder(state Repositories, key string, f Folder) (Repositories, bool) {
	return updateRepository(state, key, func(repo *Repository) bool {
		if _, i := repo.Folder(f.Key); i >= 0 {
			repo.Folders = replaceAt(repo.Folders, i, f)
		} else {
			repo.Folders = appendCopy(repo.Folders, f)
		}
		return true
	})
}

// updateRepository copies the repository with key, hands the copy to fn and,
// when fn reports a change, returns a new list holding the copy in place of
// the original. fn must replace, never modify, the containers it touches.
func updateRepository(state Repositories, key string, fn func(*Repository) bool) (Repositories, bool) {
	repo, i := state.Find(key)
	if i < 0 {
		return state, false
	}
	c := *repo
	if !fn(&c) {
		return state, false
	}
	return replaceAt(state, i, &c), true
}

func appendCopy[T any](s []T, v T) []T {
	out := make([]T, 0, len(s)+1)
	out = append(out, s...)
	return append(out, v)
}

func replaceAt[T any](s []T, i int, v T) []T {
	out := make([]T, len(s))
	copy(out, s)
	out[i] = v
	return out
}

func removeAt[T any](s []T, i int) []T {
	out := make([]T, 0, len(s)-1)
	out = append(out, s[:i]...)
	return append(out, s[i+1:]...)
}
