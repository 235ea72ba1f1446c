package domain

import "context"

// Database defines lifecycle operations for the underlying record store.
// Each implementation (SQLite, MongoDB, Firestore) owns its own schema
// strategy, keeping the whole persistence layer swappable.
type Database interface {
	Migrate(ctx context.Context) error
	Close() error
	Collections() CollectionRepository
	Photos() PhotoRepository
}
