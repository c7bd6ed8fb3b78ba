package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/notestate/pkg/core"
)

// resetFlags restores every flag to its default; the command tree is a
// package-level singleton shared by all runs.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, args...)
	require.NoError(t, err, "notestate %s\n%s", strings.Join(args, " "), out)
	return out
}

func TestCLI_Filesystem(t *testing.T) {
	dir := t.TempDir()
	d := "--dir=" + dir

	out := mustRun(t, "init", d, "--gitless")
	assert.Contains(t, out, "Initialized empty notestate")
	assert.FileExists(t, filepath.Join(dir, "index.yaml"))

	assert.Equal(t, "r1\n", mustRun(t, "repo", "add", d, "--key", "r1", "--name", "Notes", "--path", "/srv/notes"))
	_, err := run(t, "repo", "add", d, "--key", "r1", "--name", "Again")
	assert.ErrorContains(t, err, "already exists")

	generated := strings.TrimSpace(mustRun(t, "repo", "add", d, "--name", "Scratch"))
	assert.Len(t, generated, 36, "generated keys are UUIDs")

	mustRun(t, "folder", "add", "r1", d, "--key", "f1", "--name", "Work")
	mustRun(t, "folder", "edit", "r1", "f1", d, "--name", "Job", "--color", "red")
	mustRun(t, "note", "add", "r1", d, "--key", "n1", "--title", "Hello", "--folder", "f1", "--tag", "a", "--tag", "b")
	mustRun(t, "note", "add", "r1", d, "--key", "n2", "--title", "Other")
	mustRun(t, "note", "save", "r1", "n2", d, "--content", "edited")
	mustRun(t, "note", "star", "r1", "n1", d)

	_, err = run(t, "note", "star", "r1", "ghost", d)
	assert.ErrorContains(t, err, "not found")

	out = mustRun(t, "note", "ls", "r1", d, "--starred")
	assert.Equal(t, "* n1\tHello\t[f1]\t#a #b\n", out)

	var notes []core.Note
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, "note", "ls", "r1", d, "--json")), &notes))
	require.Len(t, notes, 2)
	assert.Equal(t, "edited", notes[1].Content)
	assert.Equal(t, "Other", notes[1].Title, "save keeps fields that were not given")

	mustRun(t, "note", "unstar", "r1", "n1", d)
	assert.Empty(t, mustRun(t, "note", "ls", "r1", d, "--starred"))

	mustRun(t, "folder", "rm", "r1", "f1", d)

	var repos core.Repositories
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, "repo", "ls", d, "--json")), &repos))
	require.Len(t, repos, 2)
	assert.Equal(t, "r1", repos[0].Key)
	assert.Empty(t, repos[0].Folders)

	mustRun(t, "repo", "rm", generated, d)
	_, err = run(t, "repo", "rm", generated, d)
	assert.ErrorContains(t, err, "not found")
	assert.NoDirExists(t, filepath.Join(dir, generated))
}

func TestCLI_Config(t *testing.T) {
	dir := t.TempDir()
	d := "--dir=" + dir
	mustRun(t, "init", d, "--gitless")

	_, err := run(t, "config", "set", d)
	assert.ErrorContains(t, err, "nothing to set")

	mustRun(t, "config", "set", d, "--zoom", "1.5", "--extra", "theme=dark", "--extra", "spell=true")
	mustRun(t, "config", "set", d, "--list-width", "300")

	var cfg core.Config
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, "config", "show", d, "--json")), &cfg))
	assert.Equal(t, 1.5, cfg.Zoom, "earlier settings are kept")
	assert.Equal(t, 300, cfg.ListWidth)
	assert.False(t, cfg.IsSideNavFolded)
	assert.Equal(t, "dark", cfg.Extra["theme"])
	assert.Equal(t, true, cfg.Extra["spell"])
}

func TestCLI_ApplyAndJournal(t *testing.T) {
	dir := t.TempDir()
	d := "--dir=" + filepath.Join(dir, "db")
	script := filepath.Join(dir, "script.yaml")
	require.NoError(t, os.WriteFile(script, []byte(`
- type: ADD_REPOSITORY
  repository: {key: r1, name: Notes}
- type: ADD_NOTE
  repository: r1
  note: {key: n1, title: Hello}
- type: STAR_NOTE
  repository: r1
  note: n1
- type: SET_ZOOM
  zoom: 2
`), 0644))

	out := mustRun(t, "apply", script, d, "--adapter", "badger")
	assert.Equal(t, "Applied 4 actions.\n", out)

	out = mustRun(t, "note", "ls", "r1", d, "--adapter", "badger")
	assert.Equal(t, "* n1\tHello\n", out)

	var entries []core.JournalEntry
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, "journal", d, "--adapter", "badger", "--json")), &entries))
	require.Len(t, entries, 4)
	a, err := entries[3].Decode()
	require.NoError(t, err)
	assert.Equal(t, core.ActionSetZoom, a.Type())

	_, err = run(t, "journal", "--dir="+t.TempDir(), "--gitless")
	assert.ErrorContains(t, err, "keeps no journal")
}

func TestCLI_ApplyRejectsMalformedScript(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(script, []byte("- zoom: 2\n"), 0644))

	_, err := run(t, "apply", script, "--dir="+dir, "--adapter", "badger")
	assert.ErrorIs(t, err, core.ErrMalformedAction)
}

func TestCLI_Version(t *testing.T) {
	assert.Contains(t, mustRun(t, "version"), "notestate version 0.1.0")
}
