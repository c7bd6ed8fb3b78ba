package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/lifecycle"
)

const (
	defaultEventBuffer = 100
	defaultHistory     = 50
)

// EventKind tells subscribers how a snapshot came to be.
type EventKind string

const (
	EventDispatch EventKind = "DISPATCH"
	EventUndo     EventKind = "UNDO"
	EventReload   EventKind = "RELOAD"
)

// Store owns the latest snapshot and serializes transitions against it.
//
// Snapshots handed out by Snapshot and Dispatch are immutable; readers may
// keep them for as long as they like while later transitions run.
type Store struct {
	mu      sync.RWMutex
	state   State
	seq     uint64
	history []State

	reducer       Reducer
	storage       Storage
	configStorage ConfigStorage
	journal       Journal
	logger        *slog.Logger
	historyLimit  int
	eventBuffer   int
	readOnly      bool

	subsMu  sync.Mutex
	subs    map[int]chan Event
	nextSub int
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithStorage sets the collaborator that loads and commits repositories.
func WithStorage(storage Storage) StoreOption {
	return func(s *Store) {
		s.storage = storage
	}
}

// WithConfigStorage sets the collaborator that commits settings.
func WithConfigStorage(cs ConfigStorage) StoreOption {
	return func(s *Store) {
		s.configStorage = cs
	}
}

// WithJournal records every applied action.
func WithJournal(j Journal) StoreOption {
	return func(s *Store) {
		s.journal = j
	}
}

// WithInitialConfig seeds the settings record.
func WithInitialConfig(cfg Config) StoreOption {
	return func(s *Store) {
		s.state.Config = cfg
	}
}

// WithInitialRepositories seeds the repository snapshot. Back-references are
// recomputed as if INIT_ALL had been dispatched.
func WithInitialRepositories(repos Repositories) StoreOption {
	return func(s *Store) {
		s.state.Repositories = initAll(repos)
	}
}

// WithReducer replaces the default reducer (e.g. to inject a clock).
func WithReducer(r Reducer) StoreOption {
	return func(s *Store) {
		s.reducer = r
	}
}

// WithStoreLogger sets the logger.
func WithStoreLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithHistory sets how many previous snapshots are kept for Undo.
// Zero disables undo.
func WithHistory(n int) StoreOption {
	return func(s *Store) {
		if n >= 0 {
			s.historyLimit = n
		}
	}
}

// WithEventBuffer sets the per-subscriber buffer size. Zero means default (100).
func WithEventBuffer(size int) StoreOption {
	return func(s *Store) {
		if size > 0 {
			s.eventBuffer = size
		}
	}
}

// WithReadOnly rejects Dispatch and Undo with ErrReadOnly.
func WithReadOnly(enabled bool) StoreOption {
	return func(s *Store) {
		s.readOnly = enabled
	}
}

// NewStore creates a Store. Without options it starts from an empty
// repository list and DefaultConfig.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		state:        State{Repositories: Repositories{}, Config: DefaultConfig()},
		logger:       slog.New(slog.DiscardHandler),
		historyLimit: defaultHistory,
		eventBuffer:  defaultEventBuffer,
		subs:         make(map[int]chan Event),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns the latest state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Load reads repositories from storage and replaces the current snapshot
// through INIT_ALL. History is cleared.
func (s *Store) Load(ctx context.Context) (State, error) {
	if s.storage == nil {
		return s.Snapshot(), ErrNoStorage
	}
	repos, err := s.storage.Load(ctx)
	if err != nil {
		return s.Snapshot(), fmt.Errorf("load repositories: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next, _ := s.reducer.Repositories(s.state.Repositories, InitAll{Data: repos})
	s.state = State{Repositories: next, Config: s.state.Config}
	s.history = nil
	s.logger.Debug("state loaded", "repositories", len(next))
	s.emit(EventReload, ActionInitAll)
	return s.state, nil
}

// Dispatch applies a. When a changes nothing the current snapshot is
// returned and no event is emitted. When the snapshot changes it is first
// committed to storage; a commit failure leaves the store untouched.
func (s *Store) Dispatch(ctx context.Context, a Action) (State, error) {
	if a == nil {
		return s.Snapshot(), fmt.Errorf("%w: nil action", ErrMalformedAction)
	}
	if s.readOnly {
		return s.Snapshot(), ErrReadOnly
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Debug("dispatch", "action", a.Type())

	prev := s.state
	repos, reposChanged := s.reducer.Repositories(prev.Repositories, a)
	cfg, cfgChanged := s.reducer.Config(prev.Config, a)
	if !reposChanged && !cfgChanged {
		s.logger.Debug("action changed nothing", "action", a.Type())
		return prev, nil
	}
	next := State{Repositories: repos, Config: cfg}

	if err := s.commit(ctx, next, reposChanged, cfgChanged); err != nil {
		return prev, err
	}

	s.pushHistory(prev)
	s.state = next
	e := s.emit(EventDispatch, a.Type())
	s.record(ctx, e, resolved(a, next))
	return next, nil
}

// Undo restores the snapshot preceding the last dispatch.
func (s *Store) Undo(ctx context.Context) (State, error) {
	if s.readOnly {
		return s.Snapshot(), ErrReadOnly
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.history) == 0 {
		return s.state, ErrNothingToUndo
	}
	prev := s.history[len(s.history)-1]

	reposChanged := !sameRepositories(prev.Repositories, s.state.Repositories)
	if err := s.commit(ctx, prev, reposChanged, true); err != nil {
		return s.state, err
	}

	s.history = s.history[:len(s.history)-1]
	s.state = prev
	s.logger.Debug("undo", "remaining", len(s.history))
	s.emit(EventUndo, "")
	return prev, nil
}

// HistoryLen returns how many snapshots Undo can restore.
func (s *Store) HistoryLen() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.history)
}

// Follow reloads the store whenever the storage reports an external change.
// It returns once watching has started.
func (s *Store) Follow(ctx context.Context) error {
	w, ok := s.storage.(Watchable)
	if !ok {
		return errors.New("storage does not support watching")
	}
	changes, err := w.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watch storage: %w", err)
	}

	lifecycle.Go(ctx, func(ctx context.Context) error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case _, ok := <-changes:
				if !ok {
					return nil
				}
				if _, err := s.Load(ctx); err != nil {
					s.logger.Error("reload after external change failed", "error", err)
				}
			}
		}
	}, lifecycle.WithErrorHandler(func(err error) {
		s.logger.Error("follow panic", "error", err)
	}))
	return nil
}

// Subscribe returns a channel receiving one Event per applied transition.
// The channel is buffered; a subscriber that falls behind misses events
// rather than blocking Dispatch. It is closed when ctx is done.
func (s *Store) Subscribe(ctx context.Context) <-chan Event {
	ch := make(chan Event, s.eventBuffer)

	s.subsMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.subsMu.Unlock()

	go func() {
		<-ctx.Done()
		s.subsMu.Lock()
		delete(s.subs, id)
		close(ch)
		s.subsMu.Unlock()
	}()
	return ch
}

func (s *Store) commit(ctx context.Context, next State, repos, cfg bool) error {
	if repos && s.storage != nil {
		if err := s.storage.Save(ctx, next.Repositories); err != nil {
			return fmt.Errorf("commit repositories: %w", err)
		}
	}
	if cfg && s.configStorage != nil {
		if err := s.configStorage.SaveConfig(ctx, next.Config); err != nil {
			return fmt.Errorf("commit config: %w", err)
		}
	}
	return nil
}

func (s *Store) pushHistory(prev State) {
	if s.historyLimit == 0 {
		return
	}
	s.history = append(s.history, prev)
	if over := len(s.history) - s.historyLimit; over > 0 {
		s.history = append([]State(nil), s.history[over:]...)
	}
}

// emit must be called with s.mu held.
func (s *Store) emit(kind EventKind, action ActionType) Event {
	s.seq++
	now := time.Now()
	e := Event{
		ID:        newEventID(now),
		Seq:       s.seq,
		Kind:      kind,
		Action:    action,
		Timestamp: now.Unix(),
	}

	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for id, ch := range s.subs {
		select {
		case ch <- e:
		default:
			s.logger.Warn("subscriber buffer full, event dropped", "subscriber", id, "seq", e.Seq)
		}
	}
	return e
}

func (s *Store) record(ctx context.Context, e Event, a Action) {
	if s.journal == nil {
		return
	}
	body, err := MarshalAction(a)
	if err != nil {
		s.logger.Error("journal encode failed", "action", a.Type(), "error", err)
		return
	}
	entry := JournalEntry{ID: e.ID, Seq: e.Seq, At: time.Unix(e.Timestamp, 0).UTC(), Action: body}
	if err := s.journal.Append(ctx, entry); err != nil {
		s.logger.Error("journal append failed", "seq", e.Seq, "error", err)
	}
}

// resolved returns a as it must be journaled for a replay to reach next.
// SAVE_NOTE is recorded with the stamp it received, not the one it asked for.
func resolved(a Action, next State) Action {
	sn, ok := a.(SaveNote)
	if !ok {
		return a
	}
	if r, _ := next.Repositories.Find(sn.Repository); r != nil {
		if n, i := r.Note(sn.Note.Key); i >= 0 {
			sn.Note.UpdatedAt = n.UpdatedAt
		}
	}
	return sn
}

// sameRepositories reports whether a and b hold the same repository pointers.
func sameRepositories(a, b Repositories) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
