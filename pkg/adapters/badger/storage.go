package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	dgbadger "github.com/dgraph-io/badger/v4"
	"github.com/go-playground/validator/v10"

	"github.com/aretw0/notestate/pkg/core"
)

const (
	indexKey   = "index"
	configKey  = "config"
	repoPrefix = "repo/"
)

// ErrNotOpen is returned when the storage is used before Initialize or after Close.
var ErrNotOpen = errors.New("badger storage is not open")

// Storage implements core.Storage, core.ConfigStorage and core.Journal.
type Storage struct {
	cfg      Config
	validate *validator.Validate

	mu        sync.RWMutex
	db        *dgbadger.DB
	stopGC    context.CancelFunc
	committed map[string]*core.Repository
	lastSave  *time.Time
}

// NewStorage creates a storage. The database is opened by Initialize.
func NewStorage(cfg Config) *Storage {
	return &Storage{
		cfg:       cfg,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		committed: make(map[string]*core.Repository),
	}
}

// Initialize opens the database. Calling it again is a no-op.
func (s *Storage) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return nil
	}
	db, err := open(s.cfg)
	if err != nil {
		return err
	}
	s.db = db

	if s.cfg.GCInterval > 0 && !s.cfg.InMemory {
		gcCtx, cancel := context.WithCancel(context.Background())
		s.stopGC = cancel
		runGC(gcCtx, db, s.cfg)
	}
	return nil
}

// Close stops GC and closes the database.
func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	if s.stopGC != nil {
		s.stopGC()
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Storage) handle() (*dgbadger.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, ErrNotOpen
	}
	return s.db, nil
}

// Load returns the repositories in index order, back-references set.
func (s *Storage) Load(ctx context.Context) (core.Repositories, error) {
	db, err := s.handle()
	if err != nil {
		return nil, err
	}

	repos := core.Repositories{}
	err = db.View(func(txn *dgbadger.Txn) error {
		var keys []string
		if err := getJSON(txn, indexKey, &keys); err != nil {
			if errors.Is(err, dgbadger.ErrKeyNotFound) {
				return nil
			}
			return fmt.Errorf("read index: %w", err)
		}

		for _, key := range keys {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			var r core.Repository
			if err := getJSON(txn, repoPrefix+key, &r); err != nil {
				if errors.Is(err, dgbadger.ErrKeyNotFound) {
					s.warn("indexed repository is missing", "key", key)
					continue
				}
				return fmt.Errorf("read repository %s: %w", key, err)
			}
			if err := s.check(&r); err != nil {
				return err
			}
			for i := range r.Notes {
				r.Notes[i].Repository = r.Key
			}
			repos = append(repos, &r)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.committed = make(map[string]*core.Repository)
	s.mu.Unlock()
	return repos, nil
}

// Save writes the index plus every repository whose pointer differs from
// the last saved one, and deletes records of removed repositories, in one
// transaction.
func (s *Storage) Save(ctx context.Context, repos core.Repositories) error {
	db, err := s.handle()
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(repos))
	keep := make(map[string]bool, len(repos))
	for _, r := range repos {
		if r == nil {
			return fmt.Errorf("invalid repository: nil")
		}
		if err := s.check(r); err != nil {
			return err
		}
		if keep[r.Key] {
			return fmt.Errorf("duplicate repository key %q", r.Key)
		}
		keep[r.Key] = true
		keys = append(keys, r.Key)
	}

	s.mu.RLock()
	committed := s.committed
	s.mu.RUnlock()

	written := 0
	err = db.Update(func(txn *dgbadger.Txn) error {
		if err := setJSON(txn, indexKey, keys); err != nil {
			return err
		}
		for _, r := range repos {
			if committed[r.Key] == r {
				continue
			}
			if err := setJSON(txn, repoPrefix+r.Key, r); err != nil {
				return err
			}
			written++
		}

		stale, err := keysWithPrefix(txn, repoPrefix)
		if err != nil {
			return err
		}
		for _, k := range stale {
			if !keep[k[len(repoPrefix):]] {
				if err := txn.Delete([]byte(k)); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	next := make(map[string]*core.Repository, len(repos))
	for _, r := range repos {
		next[r.Key] = r
	}
	now := time.Now()
	s.mu.Lock()
	s.committed = next
	s.lastSave = &now
	s.mu.Unlock()

	if s.cfg.Logger != nil {
		s.cfg.Logger.Debug("snapshot saved", "repositories", len(repos), "written", written)
	}
	return nil
}

// LoadConfig returns the saved settings, or core.DefaultConfig.
func (s *Storage) LoadConfig(ctx context.Context) (core.Config, error) {
	db, err := s.handle()
	if err != nil {
		return core.DefaultConfig(), err
	}

	cfg := core.DefaultConfig()
	err = db.View(func(txn *dgbadger.Txn) error {
		return getJSON(txn, configKey, &cfg)
	})
	if errors.Is(err, dgbadger.ErrKeyNotFound) {
		return core.DefaultConfig(), nil
	}
	if err != nil {
		return core.DefaultConfig(), fmt.Errorf("read config: %w", err)
	}
	return cfg, nil
}

// SaveConfig stores the settings record.
func (s *Storage) SaveConfig(ctx context.Context, cfg core.Config) error {
	db, err := s.handle()
	if err != nil {
		return err
	}
	return db.Update(func(txn *dgbadger.Txn) error {
		return setJSON(txn, configKey, cfg)
	})
}

// check validates the keys of a record crossing the storage boundary.
func (s *Storage) check(r *core.Repository) error {
	if err := s.validate.Var(r.Key, "required"); err != nil {
		return fmt.Errorf("invalid repository key: %w", err)
	}
	for _, n := range r.Notes {
		if err := s.validate.Var(n.Key, "required"); err != nil {
			return fmt.Errorf("invalid note key in repository %s: %w", r.Key, err)
		}
	}
	for _, f := range r.Folders {
		if err := s.validate.Var(f.Key, "required"); err != nil {
			return fmt.Errorf("invalid folder key in repository %s: %w", r.Key, err)
		}
	}
	return nil
}

func (s *Storage) warn(msg string, args ...any) {
	if s.cfg.Logger != nil {
		s.cfg.Logger.Warn(msg, args...)
	}
}

func getJSON(txn *dgbadger.Txn, key string, v any) error {
	item, err := txn.Get([]byte(key))
	if err != nil {
		return err
	}
	data, err := item.ValueCopy(nil)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func setJSON(txn *dgbadger.Txn, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return txn.Set([]byte(key), data)
}

func keysWithPrefix(txn *dgbadger.Txn, prefix string) ([]string, error) {
	opts := dgbadger.DefaultIteratorOptions
	opts.PrefetchValues = false

	it := txn.NewIterator(opts)
	defer it.Close()

	var keys []string
	p := []byte(prefix)
	for it.Seek(p); it.ValidForPrefix(p); it.Next() {
		keys = append(keys, string(it.Item().KeyCopy(nil)))
	}
	return keys, nil
}

var (
	_ core.Storage       = (*Storage)(nil)
	_ core.ConfigStorage = (*Storage)(nil)
	_ core.Journal       = (*Storage)(nil)
)
