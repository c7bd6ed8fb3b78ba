package notestate_test

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/aretw0/notestate"
	"github.com/aretw0/notestate/pkg/core"
)

// Example_basic opens a state directory, adds a repository with a note,
// stars it and reads the snapshot back.
func Example_basic() {
	tmpDir, err := os.MkdirTemp("", "notestate-example-*")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	ctx := context.Background()
	inst, err := notestate.New(ctx, tmpDir, notestate.WithAutoInit(true), notestate.WithVersioning(false))
	if err != nil {
		log.Fatal(err)
	}
	defer inst.Close()

	actions := []core.Action{
		core.AddRepository{Repository: &core.Repository{Key: "personal", Name: "Personal"}},
		core.AddNote{Repository: "personal", Note: core.Note{Key: "hello", Title: "Hello"}},
		core.StarNote{Repository: "personal", Note: "hello"},
	}
	for _, a := range actions {
		if _, err := inst.Dispatch(ctx, a); err != nil {
			log.Fatal(err)
		}
	}

	st := inst.Snapshot()
	for _, n := range st.Repositories[0].StarredNotes() {
		owner, _ := st.Repositories.Owner(n)
		fmt.Printf("starred: %s in %s\n", n.Title, owner.Name)
	}
	// Output:
	// starred: Hello in Personal
}

// Example_memory uses the in-memory adapter, which journals every action.
func Example_memory() {
	ctx := context.Background()
	inst, err := notestate.New(ctx, "", notestate.WithAdapter(notestate.AdapterMemory))
	if err != nil {
		log.Fatal(err)
	}
	defer inst.Close()

	st, err := inst.Dispatch(ctx, core.SetZoom{Zoom: 1.25})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("zoom:", st.Config.Zoom)
	// Output:
	// zoom: 1.25
}
