package fs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/notestate/pkg/adapters/fs"
	"github.com/aretw0/notestate/pkg/core"
)

func receives(ch <-chan struct{}, within time.Duration) bool {
	select {
	case _, ok := <-ch:
		return ok
	case <-time.After(within):
		return false
	}
}

func TestWatch_ExternalChangeSignalsReload(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	storage, root := setupStorage(t, func(c *fs.Config) {
		c.Debounce = 20 * time.Millisecond
		c.QuietPeriod = 300 * time.Millisecond
	})
	require.NoError(t, storage.Save(ctx, sampleRepos()))

	changes, err := storage.Watch(ctx)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return storage.State().(fs.StorageState).WatcherActive
	}, time.Second, 10*time.Millisecond)

	// Let the quiet period of the initial save expire.
	time.Sleep(400 * time.Millisecond)

	// A burst of external writes collapses into one signal.
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(root, "r1", "notes", "n1.md"), []byte("edited"), 0644))
	}
	assert.True(t, receives(changes, 2*time.Second), "expected a reload signal")
	assert.False(t, receives(changes, 150*time.Millisecond), "burst must be debounced")

	// A new note in a brand new notes directory is picked up too.
	require.NoError(t, os.MkdirAll(filepath.Join(root, "r2", "notes"), 0755))
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(root, "r2", "notes", "new.md"), []byte("x"), 0644))
	assert.True(t, receives(changes, 2*time.Second), "expected a reload signal for new directory")

	cancel()
	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-changes:
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond, "channel closes on cancel")
}

func TestWatch_OwnWritesAreSuppressed(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	storage, _ := setupStorage(t, func(c *fs.Config) {
		c.Debounce = 20 * time.Millisecond
		c.QuietPeriod = 2 * time.Second
	})

	changes, err := storage.Watch(ctx)
	require.NoError(t, err)

	require.NoError(t, storage.Save(ctx, sampleRepos()))
	cfg := core.DefaultConfig()
	cfg.Zoom = 3
	require.NoError(t, storage.SaveConfig(ctx, cfg))

	assert.False(t, receives(changes, 300*time.Millisecond), "own writes must not signal a reload")
}

func TestWatch_FollowReloadsStore(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	storage, root := setupStorage(t, func(c *fs.Config) {
		c.Debounce = 20 * time.Millisecond
		c.QuietPeriod = 100 * time.Millisecond
	})
	store := core.NewStore(core.WithStorage(storage))

	_, err := store.Dispatch(ctx, core.AddRepository{Repository: &core.Repository{Key: "r1", Name: "Before"}})
	require.NoError(t, err)
	require.NoError(t, store.Follow(ctx))
	time.Sleep(200 * time.Millisecond)

	// Another process renames the repository.
	other := fs.NewStorage(fs.Config{Path: root})
	require.NoError(t, other.Save(ctx, core.Repositories{{Key: "r1", Name: "After"}}))

	assert.Eventually(t, func() bool {
		r, _ := store.Snapshot().Repositories.Find("r1")
		return r != nil && r.Name == "After"
	}, 3*time.Second, 20*time.Millisecond)
}
