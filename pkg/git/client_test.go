package git

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestClient_Lock(t *testing.T) {
	tmpDir := t.TempDir()
	client := NewClient(tmpDir, "", nil)

	unlock, err := client.Lock(context.Background())
	if err != nil {
		t.Fatalf("Failed to acquire lock: %v", err)
	}

	lockPath := filepath.Join(tmpDir, DefaultLockName)
	if _, err := os.Stat(lockPath); os.IsNotExist(err) {
		t.Error("Lock file not created")
	}

	// A second acquisition gives up when its context expires.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := client.Lock(ctx); err == nil {
		t.Error("expected contended lock to fail after timeout")
	}

	unlock()

	if _, err := os.Stat(lockPath); !os.IsNotExist(err) {
		t.Error("Lock file not removed after unlock")
	}
}

func TestClient_InitAndCommit(t *testing.T) {
	if !IsInstalled() {
		t.Skip("git not installed")
	}

	tmpDir := t.TempDir()
	client := NewClient(tmpDir, "", nil)

	if err := client.Init(); err != nil {
		t.Fatalf("Failed to init: %v", err)
	}
	if !client.IsRepo() {
		t.Fatal("expected work tree after init")
	}
	t.Setenv("GIT_AUTHOR_NAME", "Test")
	t.Setenv("GIT_AUTHOR_EMAIL", "test@example.com")
	t.Setenv("GIT_COMMITTER_NAME", "Test")
	t.Setenv("GIT_COMMITTER_EMAIL", "test@example.com")

	if err := os.WriteFile(filepath.Join(tmpDir, "index.yaml"), []byte("[]\n"), 0644); err != nil {
		t.Fatal(err)
	}
	dirty, err := client.HasChanges()
	if err != nil || !dirty {
		t.Fatalf("expected changes, got %v (err %v)", dirty, err)
	}

	if err := client.Add("."); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := client.Commit("chore(state): commit snapshot"); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if head, err := client.Head(); err != nil || head == "" {
		t.Fatalf("expected HEAD, got %q (err %v)", head, err)
	}
}
