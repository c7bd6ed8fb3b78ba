package notestate

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/notestate/internal/platform"
	"github.com/aretw0/notestate/pkg/core"
)

// --- Types ---

// Instance is a loaded store together with its storage.
type Instance = platform.Instance

// Option defines a functional option for configuring notestate.
type Option = platform.Option

// Adapter names accepted by WithAdapter.
const (
	AdapterFS     = platform.AdapterFS
	AdapterBadger = platform.AdapterBadger
	AdapterMemory = platform.AdapterMemory
)

// --- Configuration ---

// WithAutoInit creates the state directory (and git repository) when missing.
func WithAutoInit(auto bool) Option {
	return platform.WithAutoInit(auto)
}

// WithVersioning enables or disables git versioning.
func WithVersioning(enabled bool) Option {
	return platform.WithVersioning(enabled)
}

// WithForceTemp forces the use of a temporary directory (useful for testing).
func WithForceTemp(force bool) Option {
	return platform.WithForceTemp(force)
}

// WithMustExist ensures the state directory must already exist.
func WithMustExist(must bool) Option {
	return platform.WithMustExist(must)
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithStorage injects a custom storage.
func WithStorage(s core.Storage) Option {
	return platform.WithStorage(s)
}

// WithAdapter selects the storage adapter by name.
func WithAdapter(name string) Option {
	return platform.WithAdapter(name)
}

// WithSystemDir sets the hidden directory name (e.g. ".notestate").
func WithSystemDir(name string) Option {
	return platform.WithSystemDir(name)
}

// WithEventBuffer sets the per-subscriber event buffer.
func WithEventBuffer(size int) Option {
	return platform.WithEventBuffer(size)
}

// WithHistory sets the undo depth.
func WithHistory(n int) Option {
	return platform.WithHistory(n)
}

// WithClock overrides the clock used to stamp saved notes.
func WithClock(now func() time.Time) Option {
	return platform.WithClock(now)
}

// WithWatcherErrorHandler registers a callback for watcher errors.
func WithWatcherErrorHandler(fn func(error)) Option {
	return platform.WithWatcherErrorHandler(fn)
}

// WithReadOnly enables read-only mode.
func WithReadOnly(enabled bool) Option {
	return platform.WithReadOnly(enabled)
}

// WithDevSafety controls the dev sandbox.
func WithDevSafety(enabled bool) Option {
	return platform.WithDevSafety(enabled)
}

// --- Factory ---

// New opens the state at uri and loads it into a store.
func New(ctx context.Context, uri string, opts ...Option) (*Instance, error) {
	return platform.New(ctx, uri, opts...)
}

// Init initializes the storage explicitly.
func Init(uri string, opts ...Option) (core.Storage, error) {
	return platform.Init(uri, opts...)
}

// --- Safety & Utils ---

// ResolveStatePath determines the actual state path based on safety rules.
func ResolveStatePath(userPath string, forceTemp bool) string {
	return platform.ResolveStatePath(userPath, forceTemp)
}

// IsDevRun checks if the current process is running via `go run` or `go test`.
func IsDevRun() bool {
	return platform.IsDevRun()
}

// FindRoot looks upwards for a state root.
func FindRoot(startDir string) (string, error) {
	return platform.FindRoot(startDir)
}
