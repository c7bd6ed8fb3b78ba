package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/notestate/pkg/core"
)

// LoadConfig reads config.yaml. A missing file yields core.DefaultConfig.
func (s *Storage) LoadConfig(ctx context.Context) (core.Config, error) {
	data, err := os.ReadFile(filepath.Join(s.Path, configFile))
	if os.IsNotExist(err) {
		return core.DefaultConfig(), nil
	}
	if err != nil {
		return core.DefaultConfig(), fmt.Errorf("failed to read config: %w", err)
	}
	return decodeConfig(data)
}

// SaveConfig writes config.yaml through the same batch as Save, so it is
// versioned and suppressed from the watcher alike.
func (s *Storage) SaveConfig(ctx context.Context, cfg core.Config) error {
	if s.config.ReadOnly {
		return core.ErrReadOnly
	}
	data, err := encodeConfig(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	b := newBatch(s)
	b.Write(configFile, data)
	if _, _, err := b.Commit(ctx); err != nil {
		return err
	}
	return nil
}

var (
	_ core.Storage       = (*Storage)(nil)
	_ core.ConfigStorage = (*Storage)(nil)
	_ core.Watchable     = (*Storage)(nil)
)
