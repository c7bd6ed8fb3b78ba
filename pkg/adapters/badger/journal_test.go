package badger_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/notestate/pkg/core"
)

func TestJournal_StoreRecordsAndReplays(t *testing.T) {
	ctx := context.Background()
	s := openInMemory(t)

	fixed := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	reducer := core.NewReducer(core.WithClock(func() time.Time { return fixed }))
	store := core.NewStore(
		core.WithStorage(s),
		core.WithConfigStorage(s),
		core.WithJournal(s),
		core.WithReducer(reducer),
	)

	actions := []core.Action{
		core.AddRepository{Repository: &core.Repository{Key: "r1", Name: "Notes"}},
		core.AddFolder{Key: "r1", Folder: core.Folder{Key: "f1", Name: "Work"}},
		core.AddNote{Repository: "r1", Note: core.Note{Key: "n1", Title: "Hello"}},
		core.StarNote{Repository: "r1", Note: "n1"},
		core.StarNote{Repository: "r1", Note: "ghost"}, // no-op, not journaled
		core.SetZoom{Zoom: 1.25},
	}
	for _, a := range actions {
		_, err := store.Dispatch(ctx, a)
		require.NoError(t, err)
	}

	entries, err := s.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 5)

	var types []core.ActionType
	for _, e := range entries {
		a, err := e.Decode()
		require.NoError(t, err)
		types = append(types, a.Type())
	}
	assert.Equal(t, []core.ActionType{
		core.ActionAddRepository,
		core.ActionAddFolder,
		core.ActionAddNote,
		core.ActionStarNote,
		core.ActionSetZoom,
	}, types)

	initial := core.State{Repositories: core.Repositories{}, Config: core.DefaultConfig()}
	rebuilt, err := s.Rebuild(ctx, reducer, initial)
	require.NoError(t, err)

	live := store.Snapshot()
	assert.Equal(t, live.Config, rebuilt.Config)
	require.Len(t, rebuilt.Repositories, 1)
	assert.Equal(t, live.Repositories[0].Folders, rebuilt.Repositories[0].Folders)
	assert.Equal(t, []string{"n1"}, rebuilt.Repositories[0].Starred.Keys())
	assert.Equal(t, "r1", rebuilt.Repositories[0].Notes[0].Repository)
}

func TestJournal_AppendRequiresID(t *testing.T) {
	s := openInMemory(t)
	err := s.Append(context.Background(), core.JournalEntry{Seq: 1})
	assert.Error(t, err)
}

func TestJournal_RebuildKeepsSaveStamps(t *testing.T) {
	ctx := context.Background()
	s := openInMemory(t)

	// Wall clock on both sides: replay runs later than the live dispatches.
	store := core.NewStore(core.WithStorage(s), core.WithJournal(s))
	actions := []core.Action{
		core.AddRepository{Repository: &core.Repository{Key: "r1"}},
		core.SaveNote{Repository: "r1", Note: core.Note{Key: "n1", Title: "First"}},
		core.SaveNote{Repository: "r1", Note: core.Note{Key: "n1", Title: "Second"}},
	}
	for _, a := range actions {
		_, err := store.Dispatch(ctx, a)
		require.NoError(t, err)
	}
	time.Sleep(20 * time.Millisecond)

	rebuilt, err := s.Rebuild(ctx, core.Reducer{}, core.State{Config: core.DefaultConfig()})
	require.NoError(t, err)

	live, _ := store.Snapshot().Repositories[0].Note("n1")
	require.Len(t, rebuilt.Repositories, 1)
	got, i := rebuilt.Repositories[0].Note("n1")
	require.GreaterOrEqual(t, i, 0)
	assert.Equal(t, "Second", got.Title)
	assert.True(t, live.UpdatedAt.Equal(got.UpdatedAt), "live=%s rebuilt=%s", live.UpdatedAt, got.UpdatedAt)
}
