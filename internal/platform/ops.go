package platform

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/notestate/pkg/adapters/badger"
	"github.com/aretw0/notestate/pkg/adapters/fs"
	"github.com/aretw0/notestate/pkg/core"
)

// Init prepares the storage selected by the options and returns it.
// The uri argument is adapter-specific: a directory for "fs" and "badger",
// ignored for "memory".
func Init(uri string, opts ...Option) (core.Storage, error) {
	return initStorage(context.Background(), uri, buildOptions(opts))
}

func initStorage(ctx context.Context, uri string, o *options) (core.Storage, error) {
	if o.storage != nil {
		return o.storage, nil
	}

	var storage core.Storage
	switch o.adapter {
	case AdapterFS:
		storage = initFS(uri, o)
	case AdapterBadger:
		storage = initBadger(uri, o)
	case AdapterMemory:
		cfg := badger.InMemoryConfig()
		cfg.Logger = o.logger
		storage = badger.NewStorage(cfg)
	default:
		return nil, fmt.Errorf("unknown adapter: %s", o.adapter)
	}

	if err := storage.Initialize(ctx); err != nil {
		return nil, err
	}
	return storage, nil
}

// resolvePath applies the dev sandbox to the user path.
func resolvePath(path string, o *options) string {
	// Read-only access cannot damage anything, so it bypasses the sandbox.
	bypass := o.readOnly || !o.devSafety
	useTemp := o.forceTemp || (IsDevRun() && !bypass)
	resolved := ResolveStatePath(path, useTemp)

	if o.logger != nil {
		switch {
		case useTemp:
			o.logger.Warn("running in SAFE MODE (dev sandbox)", "original_path", path, "resolved_path", resolved)
		case IsDevRun() && o.readOnly:
			o.logger.Debug("running in READ-ONLY mode (bypassing dev sandbox)", "path", resolved)
		case IsDevRun():
			o.logger.Warn("running in UNSAFE mode (bypassing dev sandbox)", "path", resolved)
		}
	}
	return resolved
}

// initFS builds the filesystem storage.
func initFS(path string, o *options) *fs.Storage {
	resolved := resolvePath(path, o)

	systemDir := o.systemDir
	if systemDir == "" {
		systemDir = fs.DefaultSystemDir
	}

	versioning := detectVersioning(resolved, systemDir, o)

	return fs.NewStorage(fs.Config{
		Path:         resolved,
		AutoInit:     o.autoInit && !o.readOnly,
		Versioning:   versioning && !o.readOnly,
		MustExist:    o.mustExist || o.readOnly || !o.autoInit,
		ReadOnly:     o.readOnly,
		Logger:       o.logger,
		SystemDir:    systemDir,
		ErrorHandler: o.errorHandler,
	})
}

// detectVersioning decides whether git is used when WithVersioning was not
// given: an existing .git means yes; without one, an existing system dir
// marks an unversioned root, and a fresh root created by AutoInit gets git.
func detectVersioning(root, systemDir string, o *options) bool {
	if o.versioning != nil {
		return *o.versioning
	}
	if exists(filepath.Join(root, ".git")) {
		return true
	}

	versioning := o.autoInit && !exists(filepath.Join(root, systemDir))
	if !versioning && o.logger != nil {
		o.logger.Debug("auto-detected unversioned mode", "reason", ".git missing")
	}
	return versioning
}

// initBadger builds the badger storage rooted at path.
func initBadger(path string, o *options) *badger.Storage {
	resolved := resolvePath(path, o)
	cfg := badger.DefaultConfig(resolved)
	cfg.Logger = o.logger
	return badger.NewStorage(cfg)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
