package fs

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/notestate/pkg/core"
)

const frontmatterDelim = "---\n"

// ErrInvalidRecord is returned when a file on disk (or a snapshot about to be
// written) does not satisfy the record constraints.
var ErrInvalidRecord = errors.New("invalid record")

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// recordValidator returns the shared validator with the "pathkey" rule
// registered. Keys become file and directory names, so they must be a
// single non-special path segment.
func recordValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("pathkey", func(fl validator.FieldLevel) bool {
			return isPathKey(fl.Field().String())
		})
	})
	return validate
}

func isPathKey(key string) bool {
	if key == "" || key == "." || key == ".." {
		return false
	}
	if strings.ContainsAny(key, `/\`) || strings.HasPrefix(key, ".") {
		return false
	}
	return !isTempFile(key)
}

func validateRecord(what string, rec any) error {
	if err := recordValidator().Struct(rec); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidRecord, what, err)
	}
	return nil
}

// folderRecord is one folder entry of repository.yaml.
type folderRecord struct {
	Key   string `yaml:"key" validate:"required"`
	Name  string `yaml:"name"`
	Color string `yaml:"color,omitempty"`
}

// repositoryRecord is the on-disk shape of <repo>/repository.yaml.
// Notes lists note keys in order; note bodies live in notes/<key>.md.
type repositoryRecord struct {
	Key     string         `yaml:"key" validate:"required,pathkey"`
	Name    string         `yaml:"name"`
	Path    string         `yaml:"path"`
	Status  core.Status    `yaml:"status,omitempty"`
	Folders []folderRecord `yaml:"folders" validate:"dive"`
	Starred core.StarSet   `yaml:"starred"`
	Notes   []string       `yaml:"notes" validate:"dive,pathkey"`
}

// noteFrontmatter is the YAML header of a note file.
type noteFrontmatter struct {
	Key       string    `yaml:"key" validate:"required,pathkey"`
	Title     string    `yaml:"title"`
	Folder    string    `yaml:"folder,omitempty"`
	Tags      []string  `yaml:"tags,omitempty"`
	CreatedAt time.Time `yaml:"createdAt"`
	UpdatedAt time.Time `yaml:"updatedAt"`
}

func encodeRepository(r *core.Repository) ([]byte, error) {
	rec := repositoryRecord{
		Key:     r.Key,
		Name:    r.Name,
		Path:    r.Path,
		Status:  r.Status,
		Folders: make([]folderRecord, 0, len(r.Folders)),
		Starred: r.Starred,
		Notes:   make([]string, 0, len(r.Notes)),
	}
	for _, f := range r.Folders {
		rec.Folders = append(rec.Folders, folderRecord(f))
	}
	for _, n := range r.Notes {
		rec.Notes = append(rec.Notes, n.Key)
	}
	if err := validateRecord("repository "+r.Key, rec); err != nil {
		return nil, err
	}
	return yaml.Marshal(rec)
}

// decodeRepository parses repository.yaml. The returned repository has no
// notes; the caller attaches them in the order of the returned key list.
func decodeRepository(r io.Reader) (*core.Repository, []string, error) {
	var rec repositoryRecord
	if err := yaml.NewDecoder(r).Decode(&rec); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, fmt.Errorf("%w: empty repository file", ErrInvalidRecord)
		}
		return nil, nil, fmt.Errorf("invalid yaml: %w", err)
	}
	if err := validateRecord("repository "+rec.Key, rec); err != nil {
		return nil, nil, err
	}

	repo := &core.Repository{
		Key:     rec.Key,
		Name:    rec.Name,
		Path:    rec.Path,
		Status:  rec.Status,
		Folders: make([]core.Folder, 0, len(rec.Folders)),
		Notes:   []core.Note{},
		Starred: rec.Starred,
	}
	for _, f := range rec.Folders {
		repo.Folders = append(repo.Folders, core.Folder(f))
	}
	return repo, rec.Notes, nil
}

// encodeNote renders a note as YAML frontmatter followed by its content.
func encodeNote(n core.Note) ([]byte, error) {
	fm := noteFrontmatter{
		Key:       n.Key,
		Title:     n.Title,
		Folder:    n.Folder,
		Tags:      n.Tags,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
	if err := validateRecord("note "+n.Key, fm); err != nil {
		return nil, err
	}
	meta, err := yaml.Marshal(fm)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteString(frontmatterDelim)
	buf.Write(meta)
	buf.WriteString(frontmatterDelim)
	buf.WriteString(n.Content)
	return buf.Bytes(), nil
}

// decodeNote parses a note file. A file without frontmatter is taken as
// plain content; its key and title come from the file name.
func decodeNote(r io.Reader, filename string) (core.Note, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return core.Note{}, err
	}
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))

	text := string(data)
	if !strings.HasPrefix(text, frontmatterDelim) {
		return core.Note{Key: base, Title: base, Content: text}, nil
	}

	rest := text[len(frontmatterDelim):]
	end := strings.Index(rest, "\n"+frontmatterDelim)
	if end < 0 {
		return core.Note{}, fmt.Errorf("%w: %s: unterminated frontmatter", ErrInvalidRecord, filename)
	}

	var fm noteFrontmatter
	if err := yaml.Unmarshal([]byte(rest[:end+1]), &fm); err != nil {
		return core.Note{}, fmt.Errorf("invalid frontmatter in %s: %w", filename, err)
	}
	if fm.Key == "" {
		fm.Key = base
	}
	if err := validateRecord("note "+fm.Key, fm); err != nil {
		return core.Note{}, err
	}

	return core.Note{
		Key:       fm.Key,
		Title:     fm.Title,
		Content:   rest[end+1+len(frontmatterDelim):],
		Folder:    fm.Folder,
		Tags:      fm.Tags,
		CreatedAt: fm.CreatedAt,
		UpdatedAt: fm.UpdatedAt,
	}, nil
}

func encodeIndex(repos core.Repositories) ([]byte, error) {
	keys := make([]string, 0, len(repos))
	for _, r := range repos {
		keys = append(keys, r.Key)
	}
	return yaml.Marshal(keys)
}

func decodeIndex(data []byte) ([]string, error) {
	var keys []string
	if err := yaml.Unmarshal(data, &keys); err != nil {
		return nil, fmt.Errorf("invalid index: %w", err)
	}
	for _, k := range keys {
		if !isPathKey(k) {
			return nil, fmt.Errorf("%w: index key %q", ErrInvalidRecord, k)
		}
	}
	return keys, nil
}

// encodeConfig writes the settings record. Empty Extra maps are omitted.
func encodeConfig(cfg core.Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}

// decodeConfig overlays the file onto DefaultConfig so missing keys keep
// their defaults.
func decodeConfig(data []byte) (core.Config, error) {
	cfg := core.DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return core.DefaultConfig(), fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
