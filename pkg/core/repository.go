package core

import "context"

// Storage defines the contract for loading and committing repository
// snapshots. Adhering to this interface keeps the core independent of the
// underlying storage mechanism (filesystem, badger, memory).
type Storage interface {
	// Initialize ensures the underlying storage is ready (directories, git init, database open).
	Initialize(ctx context.Context) error

	// Load returns the persisted repositories with back-references set.
	Load(ctx context.Context) (Repositories, error)

	// Save commits a snapshot. Implementations must not retain or modify it
	// beyond what reading requires.
	Save(ctx context.Context, repos Repositories) error
}

// ConfigStorage persists the settings record.
type ConfigStorage interface {
	LoadConfig(ctx context.Context) (Config, error)
	SaveConfig(ctx context.Context, cfg Config) error
}

// Journal records every action that changed the state, in dispatch order.
type Journal interface {
	Append(ctx context.Context, e JournalEntry) error
}

// Watchable is implemented by storages that can report external changes.
// Each receive on the returned channel means "reload".
type Watchable interface {
	Watch(ctx context.Context) (<-chan struct{}, error)
}
