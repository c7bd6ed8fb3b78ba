// Package notestate is the composition root of notestate.
//
// It connects the state model in pkg/core with a storage adapter and hands
// back a ready Store.
//
// The state is a list of repositories, each owning folders, notes and a set
// of starred note keys, plus a small settings record. Every change is an
// action; a pure reducer computes the next snapshot and the Store commits it
// before publishing it.
//
// Adapters:
//
//   - fs (default): YAML records and Markdown notes in a directory tree,
//     optionally versioned with git and watched for external edits.
//   - badger: an embedded Badger database that also journals every action.
//   - memory: the badger adapter held in memory, for tests and scratch use.
//
// Usage:
//
//	inst, err := notestate.New(ctx, "./notes",
//		notestate.WithAutoInit(true),
//		notestate.WithLogger(logger),
//	)
//	defer inst.Close()
//
//	_, err = inst.Dispatch(ctx, core.AddRepository{Repository: &core.Repository{Key: "r1"}})
package notestate
