package fs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/aretw0/notestate/pkg/core"
	"github.com/aretw0/notestate/pkg/git"
)

const (
	// IndexFile lists repository keys in order and marks a state root.
	IndexFile      = "index.yaml"
	configFile     = "config.yaml"
	repositoryFile = "repository.yaml"
	notesDir       = "notes"
	noteExt        = ".md"

	// DefaultSystemDir holds the cache and marks a state root.
	DefaultSystemDir = ".notestate"
)

// ErrDuplicateKey is returned by Save when two repositories, or two notes of
// one repository, share a key and would map to the same path.
var ErrDuplicateKey = errors.New("duplicate key")

// Storage implements core.Storage, core.ConfigStorage and core.Watchable
// on a directory tree, optionally versioned with git.
//
// Layout:
//
//	<root>/index.yaml                  ordered repository keys
//	<root>/config.yaml                 settings
//	<root>/<repo>/repository.yaml      repository record
//	<root>/<repo>/notes/<note>.md      frontmatter + content
type Storage struct {
	Path   string
	git    *git.Client
	cache  *cache
	config Config

	mu            sync.RWMutex
	ownWrites     map[string]time.Time
	watcherActive bool
	lastSave      *time.Time
	lastCommit    *time.Time
}

// Config holds the configuration for the filesystem storage.
type Config struct {
	Path       string
	AutoInit   bool // create the directory (and git repository when versioning)
	Versioning bool // commit every Save to git
	MustExist  bool
	ReadOnly   bool // never write; Save returns core.ErrReadOnly
	Logger     *slog.Logger
	SystemDir  string // e.g. ".notestate"

	// QuietPeriod is how long the watcher ignores events on paths this
	// storage just wrote. Zero means 500ms.
	QuietPeriod time.Duration
	// Debounce coalesces bursts of external events. Zero means 50ms.
	Debounce time.Duration
	// ErrorHandler receives watcher errors. Optional.
	ErrorHandler func(error)
}

// NewStorage creates a new filesystem-backed storage.
func NewStorage(config Config) *Storage {
	if config.SystemDir == "" {
		config.SystemDir = DefaultSystemDir
	}
	if config.QuietPeriod <= 0 {
		config.QuietPeriod = 500 * time.Millisecond
	}
	if config.Debounce <= 0 {
		config.Debounce = 50 * time.Millisecond
	}
	return &Storage{
		Path:      config.Path,
		git:       git.NewClient(config.Path, git.DefaultLockName, config.Logger),
		config:    config,
		cache:     newCache(config.Path, config.SystemDir),
		ownWrites: make(map[string]time.Time),
	}
}

// Initialize performs the necessary setup (mkdir, git init, empty index).
func (s *Storage) Initialize(ctx context.Context) error {
	if s.config.MustExist {
		info, err := os.Stat(s.Path)
		if os.IsNotExist(err) {
			return fmt.Errorf("state path does not exist: %s", s.Path)
		}
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return fmt.Errorf("state path is not a directory: %s", s.Path)
		}
	} else if err := os.MkdirAll(s.Path, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	if s.config.ReadOnly {
		return s.cache.Load()
	}

	if err := os.MkdirAll(filepath.Join(s.Path, s.config.SystemDir), 0755); err != nil {
		return fmt.Errorf("failed to create system directory: %w", err)
	}

	indexPath := filepath.Join(s.Path, IndexFile)
	if _, err := os.Stat(indexPath); os.IsNotExist(err) {
		if _, err := writeFileAtomic(indexPath, []byte("[]\n"), 0644); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	if err := s.cache.Load(); err != nil && s.config.Logger != nil {
		s.config.Logger.Warn("cache unreadable, starting fresh", "error", err)
	}

	if s.config.Versioning {
		return s.initGit()
	}
	return nil
}

func (s *Storage) initGit() error {
	if !git.IsInstalled() {
		return git.ErrNotInstalled
	}

	wasNewRepo := false
	if !s.git.IsRepo() {
		if !s.config.AutoInit {
			return fmt.Errorf("path is not a git repository: %s", s.Path)
		}
		if err := s.git.Init(); err != nil {
			return fmt.Errorf("failed to git init: %w", err)
		}
		wasNewRepo = true
	}

	mod, err := s.ensureIgnore()
	if err != nil {
		return fmt.Errorf("failed to ensure .gitignore: %w", err)
	}
	if mod && wasNewRepo {
		if err := s.git.Add(".gitignore", IndexFile); err != nil {
			return fmt.Errorf("failed to add .gitignore: %w", err)
		}
		if err := s.git.Commit(fmt.Sprintf("chore: configure %s ignore", s.config.SystemDir)); err != nil {
			return fmt.Errorf("failed to commit .gitignore: %w", err)
		}
	}
	return nil
}

// ensureIgnore keeps the system directory and the git lock out of version control.
func (s *Storage) ensureIgnore() (bool, error) {
	ignorePath := filepath.Join(s.Path, ".gitignore")

	content, err := os.ReadFile(ignorePath)
	if err != nil && !os.IsNotExist(err) {
		return false, err
	}

	present := make(map[string]bool)
	for _, line := range strings.Split(string(content), "\n") {
		present[strings.TrimSpace(line)] = true
	}

	var missing []string
	for _, entry := range []string{s.config.SystemDir + "/", git.DefaultLockName} {
		if !present[entry] {
			missing = append(missing, entry)
		}
	}
	if len(missing) == 0 {
		return false, nil
	}

	f, err := os.OpenFile(ignorePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return false, err
	}
	defer f.Close()

	if len(content) > 0 && !strings.HasSuffix(string(content), "\n") {
		if _, err := f.WriteString("\n"); err != nil {
			return false, err
		}
	}
	if _, err := f.WriteString(strings.Join(missing, "\n") + "\n"); err != nil {
		return false, err
	}
	return true, nil
}

// Load reads every repository listed in index.yaml, followed by repository
// directories the index does not list (sorted by key). Within a repository,
// notes follow the order of repository.yaml; note files it does not list
// are appended sorted by key.
func (s *Storage) Load(ctx context.Context) (core.Repositories, error) {
	root := os.DirFS(s.Path)

	keys, err := s.readIndex()
	if err != nil {
		return nil, err
	}

	found, err := doublestar.Glob(root, "*/"+repositoryFile)
	if err != nil {
		return nil, fmt.Errorf("failed to scan repositories: %w", err)
	}
	listed := make(map[string]bool, len(keys))
	for _, k := range keys {
		listed[k] = true
	}
	var extra []string
	for _, m := range found {
		dir := path.Dir(m)
		if !listed[dir] && isPathKey(dir) {
			extra = append(extra, dir)
		}
	}
	sort.Strings(extra)
	keys = append(keys, extra...)

	repos := make(core.Repositories, 0, len(keys))
	for _, key := range keys {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		repo, err := s.loadRepository(root, key)
		if errors.Is(err, fs.ErrNotExist) {
			s.warn("indexed repository is missing", "key", key)
			continue
		}
		if err != nil {
			return nil, err
		}
		repos = append(repos, repo)
	}

	s.cache.SetCommitted(nil)
	return repos, nil
}

func (s *Storage) readIndex() ([]string, error) {
	data, err := os.ReadFile(filepath.Join(s.Path, IndexFile))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}
	return decodeIndex(data)
}

func (s *Storage) loadRepository(root fs.FS, key string) (*core.Repository, error) {
	recPath := path.Join(key, repositoryFile)
	data, err := fs.ReadFile(root, recPath)
	if err != nil {
		return nil, err
	}
	repo, noteKeys, err := decodeRepository(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", recPath, err)
	}
	if repo.Key != key {
		return nil, fmt.Errorf("%w: %s declares key %q", ErrInvalidRecord, recPath, repo.Key)
	}
	s.remember(recPath, data)

	seen := make(map[string]bool, len(noteKeys))
	for _, nk := range noteKeys {
		note, err := s.loadNote(root, key, nk)
		if errors.Is(err, fs.ErrNotExist) {
			s.warn("listed note is missing", "repository", key, "note", nk)
			continue
		}
		if err != nil {
			return nil, err
		}
		seen[note.Key] = true
		repo.Notes = append(repo.Notes, note)
	}

	files, err := doublestar.Glob(root, path.Join(key, notesDir, "*"+noteExt))
	if err != nil {
		return nil, fmt.Errorf("failed to scan notes of %s: %w", key, err)
	}
	var unlisted []core.Note
	for _, f := range files {
		nk := strings.TrimSuffix(path.Base(f), noteExt)
		if seen[nk] || !isPathKey(nk) {
			continue
		}
		note, err := s.loadNote(root, key, nk)
		if err != nil {
			return nil, err
		}
		if seen[note.Key] {
			continue
		}
		seen[note.Key] = true
		unlisted = append(unlisted, note)
	}
	sort.Slice(unlisted, func(i, j int) bool { return unlisted[i].Key < unlisted[j].Key })
	repo.Notes = append(repo.Notes, unlisted...)

	for i := range repo.Notes {
		repo.Notes[i].Repository = key
	}
	return repo, nil
}

func (s *Storage) loadNote(root fs.FS, repoKey, noteKey string) (core.Note, error) {
	rel := notePath(repoKey, noteKey)
	data, err := fs.ReadFile(root, rel)
	if err != nil {
		return core.Note{}, err
	}
	note, err := decodeNote(bytes.NewReader(data), rel)
	if err != nil {
		return core.Note{}, fmt.Errorf("failed to load %s: %w", rel, err)
	}
	s.remember(rel, data)
	return note, nil
}

// remember records the digest of a file just read, so an identical Save
// does not rewrite it.
func (s *Storage) remember(rel string, data []byte) {
	if info, err := os.Stat(filepath.Join(s.Path, filepath.FromSlash(rel))); err == nil {
		s.cache.Set(rel, digest(data), info.ModTime())
	}
}

// Save commits a snapshot. Repositories whose pointer equals the one saved
// last are skipped; others are re-encoded and only files whose content
// changed are written. Directories of removed repositories and files of
// removed notes are deleted.
func (s *Storage) Save(ctx context.Context, repos core.Repositories) error {
	if s.config.ReadOnly {
		return core.ErrReadOnly
	}
	if err := checkKeys(repos); err != nil {
		return err
	}

	b := newBatch(s)

	idx, err := encodeIndex(repos)
	if err != nil {
		return fmt.Errorf("failed to encode index: %w", err)
	}
	b.Write(IndexFile, idx)

	keep := make(map[string]bool, len(repos))
	for _, r := range repos {
		keep[r.Key] = true
		if s.cache.Committed(r) {
			continue
		}
		if err := s.stageRepository(b, r); err != nil {
			return err
		}
	}

	found, err := doublestar.Glob(os.DirFS(s.Path), "*/"+repositoryFile)
	if err != nil {
		return fmt.Errorf("failed to scan repositories: %w", err)
	}
	for _, m := range found {
		// Only directories Load could have produced belong to the snapshot.
		if dir := path.Dir(m); !keep[dir] && isPathKey(dir) {
			b.Remove(dir, true)
		}
	}

	written, removed, err := b.Commit(ctx)
	if err != nil {
		return err
	}

	s.cache.SetCommitted(repos)
	now := time.Now()
	s.mu.Lock()
	s.lastSave = &now
	s.mu.Unlock()

	if s.config.Logger != nil {
		s.config.Logger.Debug("snapshot saved", "repositories", len(repos), "written", written, "removed", removed)
	}
	return nil
}

func (s *Storage) stageRepository(b *batch, r *core.Repository) error {
	rec, err := encodeRepository(r)
	if err != nil {
		return err
	}
	b.Write(path.Join(r.Key, repositoryFile), rec)

	keep := make(map[string]bool, len(r.Notes))
	for _, n := range r.Notes {
		data, err := encodeNote(n)
		if err != nil {
			return err
		}
		rel := notePath(r.Key, n.Key)
		keep[rel] = true
		b.Write(rel, data)
	}

	files, err := doublestar.Glob(os.DirFS(s.Path), path.Join(r.Key, notesDir, "*"+noteExt))
	if err != nil {
		return fmt.Errorf("failed to scan notes of %s: %w", r.Key, err)
	}
	for _, f := range files {
		if !keep[f] {
			b.Remove(f, false)
		}
	}
	return nil
}

func checkKeys(repos core.Repositories) error {
	seen := make(map[string]bool, len(repos))
	for _, r := range repos {
		if r == nil {
			return fmt.Errorf("%w: nil repository", ErrInvalidRecord)
		}
		if seen[r.Key] {
			return fmt.Errorf("%w: repository %q", ErrDuplicateKey, r.Key)
		}
		seen[r.Key] = true

		notes := make(map[string]bool, len(r.Notes))
		for _, n := range r.Notes {
			if notes[n.Key] {
				return fmt.Errorf("%w: note %q in repository %q", ErrDuplicateKey, n.Key, r.Key)
			}
			notes[n.Key] = true
		}
	}
	return nil
}

func notePath(repoKey, noteKey string) string {
	return path.Join(repoKey, notesDir, noteKey+noteExt)
}

func (s *Storage) warn(msg string, args ...any) {
	if s.config.Logger != nil {
		s.config.Logger.Warn(msg, args...)
	}
}

func (s *Storage) recordCommit(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastCommit = &at
}
