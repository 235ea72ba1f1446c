// Package firestore implements the record store on Cloud Firestore.
package firestore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/msomdec/lensart-api/internal/domain"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	collectionsPath = "collections"
	photosPath      = "photos"
)

// DB wraps a Firestore client.
type DB struct {
	client *firestore.Client
}

var _ domain.Database = (*DB)(nil)

// New creates a Firestore client for projectID using Application Default
// Credentials, or the emulator when FIRESTORE_EMULATOR_HOST is set.
func New(ctx context.Context, projectID string) (*DB, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("create firestore client: %w", err)
	}
	return &DB{client: client}, nil
}

// Migrate is a no-op: Firestore is schemaless and the composite indexes the
// list queries need are declared on the project, not through the client.
func (d *DB) Migrate(ctx context.Context) error {
	slog.Debug("firestore needs no migrations")
	return nil
}

func (d *DB) Close() error {
	return d.client.Close()
}

func (d *DB) Collections() domain.CollectionRepository {
	return &CollectionRepository{client: d.client}
}

func (d *DB) Photos() domain.PhotoRepository {
	return &PhotoRepository{client: d.client}
}

// now returns the current time at the microsecond precision Firestore stores.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

// collect drains a document iterator, decoding every snapshot with decode.
func collect[T any](it *firestore.DocumentIterator, decode func(*firestore.DocumentSnapshot) (T, error)) ([]T, error) {
	defer it.Stop()

	out := []T{}
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		v, err := decode(snap)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
}
