// Package badger stores notestate snapshots and the action journal in an
// embedded Badger database.
//
// Key layout:
//
//	index            JSON array of repository keys, in snapshot order
//	repo/<key>       JSON repository record (notes included)
//	config           JSON settings record
//	journal/<ulid>   JSON journal entry; ULIDs sort in dispatch order
package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aretw0/lifecycle"
	dgbadger "github.com/dgraph-io/badger/v4"
)

// Config configures the database.
type Config struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path string

	// InMemory keeps everything in memory; nothing touches disk.
	InMemory bool

	// SyncWrites fsyncs every commit.
	SyncWrites bool

	// Logger receives Badger's internal logs. Nil silences them.
	Logger *slog.Logger

	// GCInterval runs value log GC periodically. Zero disables it.
	GCInterval time.Duration

	// GCDiscardRatio is passed to RunValueLogGC.
	GCDiscardRatio float64
}

// DefaultConfig returns settings for a persistent database at path.
func DefaultConfig(path string) Config {
	return Config{
		Path:           path,
		SyncWrites:     true,
		GCInterval:     5 * time.Minute,
		GCDiscardRatio: 0.5,
	}
}

// InMemoryConfig returns settings for an in-memory database, used in tests.
func InMemoryConfig() Config {
	return Config{InMemory: true}
}

// badgerLogger adapts slog to Badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func open(cfg Config) (*dgbadger.DB, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent database")
	}

	var opts dgbadger.Options
	if cfg.InMemory {
		opts = dgbadger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", cfg.Path, err)
		}
		opts = dgbadger.DefaultOptions(cfg.Path)
	}

	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := dgbadger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	return db, nil
}

// runGC reclaims value log space until ctx is done.
func runGC(ctx context.Context, db *dgbadger.DB, cfg Config) {
	lifecycle.Go(ctx, func(ctx context.Context) error {
		ticker := time.NewTicker(cfg.GCInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				err := db.RunValueLogGC(cfg.GCDiscardRatio)
				if err != nil && !errors.Is(err, dgbadger.ErrNoRewrite) && cfg.Logger != nil {
					cfg.Logger.Warn("badger value log GC error", "error", err)
				}
			}
		}
	}, lifecycle.WithErrorHandler(func(err error) {
		if cfg.Logger != nil {
			cfg.Logger.Error("badger GC panic", "error", err)
		}
	}))
}
