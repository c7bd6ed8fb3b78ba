package platform_test

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/notestate/internal/platform"
	"github.com/aretw0/notestate/pkg/adapters/badger"
	"github.com/aretw0/notestate/pkg/adapters/fs"
	"github.com/aretw0/notestate/pkg/core"
)

func setGitIdentity(t *testing.T) {
	t.Helper()
	t.Setenv("GIT_AUTHOR_NAME", "notestate")
	t.Setenv("GIT_AUTHOR_EMAIL", "notestate@example.com")
	t.Setenv("GIT_COMMITTER_NAME", "notestate")
	t.Setenv("GIT_COMMITTER_EMAIL", "notestate@example.com")
}

func TestInit(t *testing.T) {
	t.Run("AutoInit Creates Directory and Git Repo", func(t *testing.T) {
		if _, err := exec.LookPath("git"); err != nil {
			t.Skip("git not installed")
		}
		setGitIdentity(t)
		path := filepath.Join(t.TempDir(), "state")

		storage, err := platform.Init(path, platform.WithAutoInit(true))
		require.NoError(t, err)

		fsStorage, ok := storage.(*fs.Storage)
		require.True(t, ok, "expected fs storage")
		assert.Equal(t, path, fsStorage.Path)
		assert.DirExists(t, filepath.Join(path, ".git"))
		assert.FileExists(t, filepath.Join(path, fs.IndexFile))
	})

	t.Run("Unversioned Does Not Initialize Git", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "state")

		_, err := platform.Init(path, platform.WithAutoInit(true), platform.WithVersioning(false))
		require.NoError(t, err)
		assert.DirExists(t, filepath.Join(path, fs.DefaultSystemDir))
		assert.NoDirExists(t, filepath.Join(path, ".git"))
	})

	t.Run("Existing Unversioned Root Stays Unversioned", func(t *testing.T) {
		path := t.TempDir()
		require.NoError(t, os.Mkdir(filepath.Join(path, fs.DefaultSystemDir), 0755))

		_, err := platform.Init(path, platform.WithAutoInit(true))
		require.NoError(t, err)
		assert.NoDirExists(t, filepath.Join(path, ".git"))
	})

	t.Run("Missing Directory Fails Without AutoInit", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing")

		_, err := platform.Init(path)
		assert.Error(t, err)
		assert.NoDirExists(t, path)
	})

	t.Run("Unknown Adapter", func(t *testing.T) {
		_, err := platform.Init(t.TempDir(), platform.WithAdapter("s3"))
		assert.ErrorContains(t, err, "unknown adapter")
	})

	t.Run("Injected Storage Is Returned As Is", func(t *testing.T) {
		injected := badger.NewStorage(badger.InMemoryConfig())
		storage, err := platform.Init("ignored", platform.WithStorage(injected))
		require.NoError(t, err)
		assert.Same(t, injected, storage)
	})
}

func TestNew_FilesystemRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := t.TempDir()
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	inst, err := platform.New(ctx, path,
		platform.WithAutoInit(true),
		platform.WithVersioning(false),
		platform.WithClock(func() time.Time { return fixed }),
	)
	require.NoError(t, err)

	actions := []core.Action{
		core.AddRepository{Repository: &core.Repository{Key: "r1", Name: "Notes", Path: "/tmp/r1"}},
		core.AddNote{Repository: "r1", Note: core.Note{Key: "n1", Title: "Hello", Content: "body"}},
		core.SaveNote{Repository: "r1", Note: core.Note{Key: "n1", Title: "Hello", Content: "edited"}},
		core.StarNote{Repository: "r1", Note: "n1"},
		core.SetZoom{Zoom: 1.5},
	}
	for _, a := range actions {
		_, err := inst.Dispatch(ctx, a)
		require.NoError(t, err)
	}
	require.NoError(t, inst.Close())

	reopened, err := platform.New(ctx, path, platform.WithVersioning(false))
	require.NoError(t, err)
	defer reopened.Close()

	st := reopened.Snapshot()
	assert.Equal(t, 1.5, st.Config.Zoom, "config is seeded from storage")
	require.Len(t, st.Repositories, 1)
	r := st.Repositories[0]
	assert.True(t, r.Starred.Has("n1"))
	n, i := r.Note("n1")
	require.GreaterOrEqual(t, i, 0)
	assert.Equal(t, "edited", n.Content)
	assert.True(t, fixed.Equal(n.UpdatedAt))
	assert.Equal(t, "r1", n.Repository)
}

func TestNew_MemoryWiresJournal(t *testing.T) {
	ctx := context.Background()

	inst, err := platform.New(ctx, "", platform.WithAdapter(platform.AdapterMemory), platform.WithHistory(1))
	require.NoError(t, err)
	defer inst.Close()

	_, err = inst.Dispatch(ctx, core.AddRepository{Repository: &core.Repository{Key: "r1"}})
	require.NoError(t, err)
	_, err = inst.Dispatch(ctx, core.SetListWidth{ListWidth: 300})
	require.NoError(t, err)

	db, ok := inst.Storage().(*badger.Storage)
	require.True(t, ok)
	entries, err := db.Entries(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.Equal(t, 1, inst.HistoryLen())
}

func TestNew_BadgerPersists(t *testing.T) {
	ctx := context.Background()
	path := t.TempDir()

	inst, err := platform.New(ctx, path, platform.WithAdapter(platform.AdapterBadger))
	require.NoError(t, err)
	_, err = inst.Dispatch(ctx, core.AddRepository{Repository: &core.Repository{Key: "r1", Name: "Kept"}})
	require.NoError(t, err)
	_, err = inst.Dispatch(ctx, core.SetSideNavFolded{IsFolded: true})
	require.NoError(t, err)
	require.NoError(t, inst.Close())

	reopened, err := platform.New(ctx, path, platform.WithAdapter(platform.AdapterBadger))
	require.NoError(t, err)
	defer reopened.Close()

	st := reopened.Snapshot()
	require.Len(t, st.Repositories, 1)
	assert.Equal(t, "Kept", st.Repositories[0].Name)
	assert.True(t, st.Config.IsSideNavFolded)
}

func TestNew_ReadOnly(t *testing.T) {
	ctx := context.Background()
	path := t.TempDir()

	inst, err := platform.New(ctx, path, platform.WithAutoInit(true), platform.WithVersioning(false))
	require.NoError(t, err)
	_, err = inst.Dispatch(ctx, core.AddRepository{Repository: &core.Repository{Key: "r1"}})
	require.NoError(t, err)

	ro, err := platform.New(ctx, path, platform.WithReadOnly(true))
	require.NoError(t, err)
	assert.Len(t, ro.Snapshot().Repositories, 1)

	_, err = ro.Dispatch(ctx, core.RemoveRepository{Key: "r1"})
	assert.ErrorIs(t, err, core.ErrReadOnly)

	t.Run("Missing Directory", func(t *testing.T) {
		_, err := platform.New(ctx, filepath.Join(path, "missing"), platform.WithReadOnly(true), platform.WithAutoInit(true))
		assert.Error(t, err)
	})
}
