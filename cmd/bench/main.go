package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/notestate"
	"github.com/aretw0/notestate/pkg/core"
)

func main() {
	count := flag.Int("count", 1000, "Number of notes to generate")
	saves := flag.Int("saves", 200, "Number of SAVE_NOTE dispatches to time")
	adapter := flag.String("adapter", notestate.AdapterFS, "Adapter to time dispatches on (fs, badger)")
	keep := flag.Bool("keep", false, "Keep the benchmark directory after running")
	flag.Parse()

	benchDir, err := os.MkdirTemp("", "notestate_bench_")
	if err != nil {
		panic(err)
	}
	defer func() {
		if !*keep {
			os.RemoveAll(benchDir)
		} else {
			fmt.Printf("Keeping bench dir: %s\n", benchDir)
		}
	}()

	fmt.Printf("Generating %d notes in %s...\n", *count, benchDir)
	startGen := time.Now()
	if err := generate(benchDir, *count); err != nil {
		panic(err)
	}
	fmt.Printf("Generation took: %v\n", time.Since(startGen))

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
	ctx := context.Background()

	// Unversioned, so the numbers measure parsing and I/O rather than git.
	open := func(dir string, opts ...notestate.Option) *notestate.Instance {
		base := []notestate.Option{
			notestate.WithLogger(logger),
			notestate.WithAutoInit(true),
			notestate.WithVersioning(false),
		}
		inst, err := notestate.New(ctx, dir, append(base, opts...)...)
		if err != nil {
			panic(err)
		}
		return inst
	}

	// Run 1: cold, unlisted notes are discovered and the digest cache is built.
	start := time.Now()
	inst := open(benchDir)
	cold := time.Since(start)
	notes := len(inst.Snapshot().Repositories[0].Notes)
	fmt.Printf("Load (Run 1 - Cold): %v (Notes: %d)\n", cold, notes)

	// Run 2: a fresh instance, as a new CLI invocation would do.
	start = time.Now()
	inst = open(benchDir)
	warm := time.Since(start)
	fmt.Printf("Load (Run 2 - Warm): %v\n", warm)

	target := inst
	if *adapter != notestate.AdapterFS {
		target = open(filepath.Join(benchDir, "db"), notestate.WithAdapter(*adapter))
		defer target.Close()
		if _, err := target.Dispatch(ctx, core.InitAll{Data: inst.Snapshot().Repositories}); err != nil {
			panic(err)
		}
	}

	fmt.Printf("Dispatching %d SAVE_NOTE on %s...\n", *saves, *adapter)
	start = time.Now()
	for i := 0; i < *saves; i++ {
		note := core.Note{
			Key:     fmt.Sprintf("note_%d", i%*count),
			Title:   fmt.Sprintf("Note %d", i),
			Content: fmt.Sprintf("Revision %d", i),
		}
		if _, err := target.Dispatch(ctx, core.SaveNote{Repository: "bench", Note: note}); err != nil {
			panic(err)
		}
	}
	dispatch := time.Since(start)

	fmt.Printf("--------------------------------------------------\n")
	fmt.Printf("Benchmark Result (%d notes):\n", *count)
	fmt.Printf("  Cold load: %v\n", cold)
	fmt.Printf("  Warm load: %v\n", warm)
	fmt.Printf("  Dispatch:  %v (%v/op)\n", dispatch, dispatch/time.Duration(max(*saves, 1)))
	fmt.Printf("--------------------------------------------------\n")
}

// generate writes one repository with n notes directly to disk, the way
// an existing tree edited by hand would look. The notes are not listed in
// repository.yaml, so loading has to discover them.
func generate(dir string, n int) error {
	notesDir := filepath.Join(dir, "bench", "notes")
	if err := os.MkdirAll(notesDir, 0755); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, "index.yaml"), []byte("- bench\n"), 0644); err != nil {
		return err
	}
	record := "key: bench\nname: Benchmark\npath: " + dir + "\nfolders: []\nstarred: []\nnotes: []\n"
	if err := os.WriteFile(filepath.Join(dir, "bench", "repository.yaml"), []byte(record), 0644); err != nil {
		return err
	}

	stamp := time.Now().UTC().Format(time.RFC3339)
	for i := 0; i < n; i++ {
		content := fmt.Sprintf("---\nkey: note_%d\ntitle: Note %d\ntags: [benchmark, test]\ncreatedAt: %s\nupdatedAt: %s\n---\n# Benchmark Note %d\nThis is a test note.", i, i, stamp, stamp, i)
		if err := os.WriteFile(filepath.Join(notesDir, fmt.Sprintf("note_%d.md", i)), []byte(content), 0644); err != nil {
			return err
		}
	}
	return nil
}
