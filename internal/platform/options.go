package platform

import (
	"log/slog"
	"time"

	"github.com/aretw0/notestate/pkg/core"
)

// Adapter names accepted by WithAdapter.
const (
	AdapterFS     = "fs"
	AdapterBadger = "badger"
	AdapterMemory = "memory"
)

// options holds the internal configuration for a notestate instance.
type options struct {
	storage      core.Storage
	logger       *slog.Logger
	adapter      string
	clock        func() time.Time
	history      int
	eventBuffer  int
	autoInit     bool
	versioning   *bool
	forceTemp    bool
	mustExist    bool
	readOnly     bool
	devSafety    bool
	systemDir    string
	errorHandler func(error)
}

// Option defines a functional option for configuring notestate.
type Option func(*options)

// defaultOptions returns the default configuration.
func defaultOptions() *options {
	return &options{
		adapter:   AdapterFS,
		devSafety: true,
	}
}

func buildOptions(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithAutoInit creates the state directory (and git repository) when missing.
func WithAutoInit(auto bool) Option {
	return func(o *options) {
		o.autoInit = auto
	}
}

// WithVersioning enables or disables git versioning for the fs adapter.
// When unset, versioning follows what is found on disk: an existing .git
// enables it, an existing unversioned state directory keeps it off, and a
// fresh directory created by AutoInit gets versioning.
func WithVersioning(enabled bool) Option {
	return func(o *options) {
		o.versioning = &enabled
	}
}

// WithForceTemp forces the state into a temporary directory (useful for testing).
func WithForceTemp(force bool) Option {
	return func(o *options) {
		o.forceTemp = force
	}
}

// WithMustExist ensures the state directory must already exist.
func WithMustExist(must bool) Option {
	return func(o *options) {
		o.mustExist = must
	}
}

// WithLogger sets the logger shared by the store and its storage.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithStorage injects a custom storage (e.g. a mock).
// If provided, the adapter selected by WithAdapter is skipped. A storage that
// also implements core.ConfigStorage or core.Journal is wired for those too.
func WithStorage(s core.Storage) Option {
	return func(o *options) {
		o.storage = s
	}
}

// WithAdapter selects the storage adapter by name: "fs" (default), "badger"
// or "memory".
func WithAdapter(name string) Option {
	return func(o *options) {
		o.adapter = name
	}
}

// WithSystemDir sets the hidden directory used by the fs adapter.
// Defaults to ".notestate".
func WithSystemDir(name string) Option {
	return func(o *options) {
		o.systemDir = name
	}
}

// WithEventBuffer sets the per-subscriber event buffer. Zero means default.
func WithEventBuffer(size int) Option {
	return func(o *options) {
		o.eventBuffer = size
	}
}

// WithHistory sets how many snapshots Undo can step back. Zero means default.
func WithHistory(n int) Option {
	return func(o *options) {
		o.history = n
	}
}

// WithClock overrides the clock used to stamp saved notes.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.clock = now
	}
}

// WithWatcherErrorHandler registers a callback for errors raised by the
// fs watcher loop, which are otherwise only logged.
func WithWatcherErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.errorHandler = fn
	}
}

// WithReadOnly enables read-only mode.
// In this mode:
// 1. Dispatch and Undo return core.ErrReadOnly.
// 2. Directory creation and git init are skipped.
// 3. The dev sandbox is bypassed (the real path is read).
func WithReadOnly(enabled bool) Option {
	return func(o *options) {
		o.readOnly = enabled
	}
}

// WithDevSafety controls the sandbox used when running via `go run` or
// `go test`. By default (true) state is redirected to a temporary directory
// to prevent accidental data loss.
//
// CAUTION: Only disable this if you are sure your code is safe.
func WithDevSafety(enabled bool) Option {
	return func(o *options) {
		o.devSafety = enabled
	}
}
