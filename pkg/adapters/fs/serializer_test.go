package fs

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/notestate/pkg/core"
)

func TestNoteSerializer(t *testing.T) {
	at := time.Date(2023, 7, 1, 9, 30, 0, 0, time.UTC)
	note := core.Note{
		Key:        "n1",
		Title:      "Groceries",
		Content:    "milk\neggs\n",
		Folder:     "f1",
		Tags:       []string{"home", "todo"},
		CreatedAt:  at,
		UpdatedAt:  at.Add(time.Hour),
		Repository: "r1",
	}

	data, err := encodeNote(note)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if !strings.HasPrefix(string(data), "---\nkey: n1\n") {
		t.Errorf("unexpected header:\n%s", data)
	}
	if strings.Contains(string(data), "r1") {
		t.Errorf("back-reference leaked into file:\n%s", data)
	}
	if !strings.HasSuffix(string(data), "---\nmilk\neggs\n") {
		t.Errorf("content must follow the closing delimiter verbatim:\n%s", data)
	}

	back, err := decodeNote(bytes.NewReader(data), "r1/notes/n1.md")
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if back.Key != "n1" || back.Title != "Groceries" || back.Folder != "f1" {
		t.Errorf("fields lost: %+v", back)
	}
	if back.Content != note.Content {
		t.Errorf("content: got %q want %q", back.Content, note.Content)
	}
	if len(back.Tags) != 2 || back.Tags[1] != "todo" {
		t.Errorf("tags: got %v", back.Tags)
	}
	if !back.UpdatedAt.Equal(note.UpdatedAt) || !back.CreatedAt.Equal(note.CreatedAt) {
		t.Errorf("timestamps: got %v / %v", back.CreatedAt, back.UpdatedAt)
	}
	if back.Repository != "" {
		t.Errorf("decoder must not invent a back-reference, got %q", back.Repository)
	}
}

func TestDecodeNote_Fallbacks(t *testing.T) {
	t.Run("Plain File", func(t *testing.T) {
		n, err := decodeNote(strings.NewReader("just text"), "r1/notes/idea.md")
		if err != nil {
			t.Fatal(err)
		}
		if n.Key != "idea" || n.Title != "idea" || n.Content != "just text" {
			t.Errorf("unexpected note %+v", n)
		}
	})

	t.Run("Key From Filename", func(t *testing.T) {
		n, err := decodeNote(strings.NewReader("---\ntitle: T\n---\nbody"), "r1/notes/fromname.md")
		if err != nil {
			t.Fatal(err)
		}
		if n.Key != "fromname" || n.Content != "body" {
			t.Errorf("unexpected note %+v", n)
		}
	})

	t.Run("Unterminated Frontmatter", func(t *testing.T) {
		_, err := decodeNote(strings.NewReader("---\ntitle: T\nbody"), "r1/notes/x.md")
		if !errors.Is(err, ErrInvalidRecord) {
			t.Errorf("expected ErrInvalidRecord, got %v", err)
		}
	})
}

func TestRepositorySerializer(t *testing.T) {
	repo := &core.Repository{
		Key:     "r1",
		Name:    "Notes",
		Path:    "/tmp/notes",
		Folders: []core.Folder{{Key: "f1", Name: "Work"}},
		Notes:   []core.Note{{Key: "b"}, {Key: "a"}},
		Starred: core.NewStarSet("a"),
	}

	data, err := encodeRepository(repo)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	back, keys, err := decodeRepository(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if back.Key != "r1" || back.Name != "Notes" || back.Path != "/tmp/notes" {
		t.Errorf("fields lost: %+v", back)
	}
	if len(keys) != 2 || keys[0] != "b" || keys[1] != "a" {
		t.Errorf("note order lost: %v", keys)
	}
	if !back.Starred.Equal(repo.Starred) {
		t.Errorf("starred: got %v", back.Starred.Keys())
	}
	if len(back.Notes) != 0 {
		t.Errorf("decoded repository must not carry notes yet")
	}
}

func TestRecordValidation(t *testing.T) {
	cases := []string{
		"key: r1\nfolders:\n  - name: no key\n",
		"key: r1\nnotes: [\"../escape\"]\n",
		"key: ../r1\n",
		"",
	}
	for _, in := range cases {
		if _, _, err := decodeRepository(strings.NewReader(in)); !errors.Is(err, ErrInvalidRecord) {
			t.Errorf("%q: expected ErrInvalidRecord, got %v", in, err)
		}
	}
}

func TestIndexAndConfig(t *testing.T) {
	data, err := encodeIndex(core.Repositories{{Key: "b"}, {Key: "a"}})
	if err != nil {
		t.Fatal(err)
	}
	keys, err := decodeIndex(data)
	if err != nil || len(keys) != 2 || keys[0] != "b" {
		t.Fatalf("index round trip: %v %v", keys, err)
	}
	if _, err := decodeIndex([]byte("- ok\n- a/b\n")); !errors.Is(err, ErrInvalidRecord) {
		t.Errorf("expected ErrInvalidRecord for path key, got %v", err)
	}

	cfg, err := decodeConfig([]byte("listWidth: 300\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ListWidth != 300 || cfg.Zoom != 1 {
		t.Errorf("defaults not preserved: %+v", cfg)
	}
	if _, err := decodeConfig([]byte("zoom: [")); err == nil {
		t.Error("expected error for broken yaml")
	}
}
