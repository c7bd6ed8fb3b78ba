package platform

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/aretw0/notestate/pkg/adapters/fs"
)

// ErrRootNotFound is returned by FindRoot when no marker is found.
var ErrRootNotFound = errors.New("state root not found")

// FindRoot walks up from startDir looking for a state root.
// Markers are the .notestate system directory or an index.yaml file.
func FindRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if hasFile(dir, fs.DefaultSystemDir) || hasFile(dir, fs.IndexFile) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrRootNotFound
		}
		dir = parent
	}
}

func hasFile(dir, name string) bool {
	_, err := os.Stat(filepath.Join(dir, name))
	return err == nil
}
