package platform

import (
	"context"
	"fmt"
	"io"

	"github.com/aretw0/notestate/pkg/core"
)

// Instance is a loaded store together with the storage backing it.
type Instance struct {
	*core.Store
	storage core.Storage
}

// Storage returns the storage backing the store.
func (i *Instance) Storage() core.Storage {
	return i.storage
}

// Close releases the storage when it holds resources (e.g. a database).
func (i *Instance) Close() error {
	if c, ok := i.storage.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// New initializes the storage, seeds the store with the saved settings and
// loads the repositories.
//
//	inst, err := notestate.New("./notes", notestate.WithVersioning(false))
func New(ctx context.Context, uri string, opts ...Option) (*Instance, error) {
	o := buildOptions(opts)

	storage, err := initStorage(ctx, uri, o)
	if err != nil {
		return nil, err
	}
	inst := &Instance{storage: storage}

	storeOpts := []core.StoreOption{
		core.WithStorage(storage),
		core.WithStoreLogger(o.logger),
		core.WithReadOnly(o.readOnly),
	}
	if o.clock != nil {
		storeOpts = append(storeOpts, core.WithReducer(core.NewReducer(core.WithClock(o.clock))))
	}
	if o.history > 0 {
		storeOpts = append(storeOpts, core.WithHistory(o.history))
	}
	if o.eventBuffer > 0 {
		storeOpts = append(storeOpts, core.WithEventBuffer(o.eventBuffer))
	}
	if j, ok := storage.(core.Journal); ok {
		storeOpts = append(storeOpts, core.WithJournal(j))
	}
	if cs, ok := storage.(core.ConfigStorage); ok {
		cfg, err := cs.LoadConfig(ctx)
		if err != nil {
			_ = inst.Close()
			return nil, fmt.Errorf("load config: %w", err)
		}
		storeOpts = append(storeOpts, core.WithConfigStorage(cs), core.WithInitialConfig(cfg))
	}

	inst.Store = core.NewStore(storeOpts...)
	if _, err := inst.Load(ctx); err != nil {
		_ = inst.Close()
		return nil, err
	}
	return inst, nil
}
