package fs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/notestate/pkg/core"
)

func TestCache_Load(t *testing.T) {
	t.Run("Starts Empty if File Missing", func(t *testing.T) {
		c := newCache(t.TempDir(), ".cache")

		if err := c.Load(); err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if c.Len() != 0 {
			t.Errorf("Expected empty entries, got %d", c.Len())
		}
	})

	t.Run("Self Heals Corrupt File", func(t *testing.T) {
		tmpDir := t.TempDir()
		os.MkdirAll(filepath.Join(tmpDir, ".cache"), 0755)
		os.WriteFile(filepath.Join(tmpDir, ".cache", "index.json"), []byte("{broken"), 0644)

		c := newCache(tmpDir, ".cache")
		if err := c.Load(); err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if c.Len() != 0 {
			t.Errorf("Expected empty entries, got %d", c.Len())
		}
	})
}

func TestCache_PersistsAcrossInstances(t *testing.T) {
	tmpDir := t.TempDir()
	mtime := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	c := newCache(tmpDir, ".notestate")
	c.Set("r1/repository.yaml", digest([]byte("a")), mtime)
	if err := c.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	reloaded := newCache(tmpDir, ".notestate")
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !reloaded.Fresh("r1/repository.yaml", digest([]byte("a")), mtime) {
		t.Error("expected persisted entry to be fresh")
	}
}

func TestCache_Fresh(t *testing.T) {
	c := newCache(t.TempDir(), ".notestate")
	mtime := time.Now()
	sum := digest([]byte("content"))
	c.Set("r1/notes/n1.md", sum, mtime)

	if !c.Fresh("r1/notes/n1.md", sum, mtime) {
		t.Error("same digest and mtime must be fresh")
	}
	if c.Fresh("r1/notes/n1.md", digest([]byte("other")), mtime) {
		t.Error("different content must not be fresh")
	}
	if c.Fresh("r1/notes/n1.md", sum, mtime.Add(time.Second)) {
		t.Error("touched file must not be fresh")
	}
	if c.Fresh("r1/notes/n2.md", sum, mtime) {
		t.Error("unknown file must not be fresh")
	}
}

func TestCache_DeleteDirectory(t *testing.T) {
	c := newCache(t.TempDir(), ".notestate")
	now := time.Now()
	c.Set("r1/repository.yaml", 1, now)
	c.Set("r1/notes/n1.md", 2, now)
	c.Set("r10/repository.yaml", 3, now)

	c.Delete("r1", true)

	if c.Len() != 1 {
		t.Fatalf("expected only r10 to remain, got %d entries", c.Len())
	}
	if !c.Fresh("r10/repository.yaml", 3, now) {
		t.Error("sibling with shared prefix must survive")
	}
}

func TestCache_Committed(t *testing.T) {
	c := newCache(t.TempDir(), ".notestate")
	r := &core.Repository{Key: "r1"}
	copyOfR := *r

	c.SetCommitted(core.Repositories{r})
	if !c.Committed(r) {
		t.Error("expected committed pointer to match")
	}
	if c.Committed(&copyOfR) {
		t.Error("an equal value at another address is not the committed one")
	}
}
