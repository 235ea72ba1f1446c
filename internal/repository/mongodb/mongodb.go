// Package mongodb implements the record store on MongoDB.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/msomdec/lensart-api/internal/domain"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

const (
	collectionsName = "collections"
	photosName      = "photos"
)

// DB wraps a MongoDB client and the database holding the portfolio.
type DB struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ domain.Database = (*DB)(nil)

// New connects to the MongoDB deployment at uri and verifies it is reachable.
func New(ctx context.Context, uri, database string) (*DB, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	return &DB{client: client, db: client.Database(database)}, nil
}

// Migrate ensures the indexes the list queries and the filename
// uniqueness rely on. CreateMany is a no-op for existing indexes.
func (d *DB) Migrate(ctx context.Context) error {
	_, err := d.db.Collection(collectionsName).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "isPublished", Value: 1}, {Key: "sortOrder", Value: 1}, {Key: "createdAt", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("create collection indexes: %w", err)
	}

	_, err = d.db.Collection(photosName).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "filename", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "collectionName", Value: 1}, {Key: "isPublished", Value: 1}, {Key: "sortOrder", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("create photo indexes: %w", err)
	}
	return nil
}

// Close disconnects the client.
func (d *DB) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return d.client.Disconnect(ctx)
}

// Drop removes the whole database.
func (d *DB) Drop(ctx context.Context) error {
	return d.db.Drop(ctx)
}

func (d *DB) Collections() domain.CollectionRepository {
	return &CollectionRepository{coll: d.db.Collection(collectionsName)}
}

func (d *DB) Photos() domain.PhotoRepository {
	return &PhotoRepository{coll: d.db.Collection(photosName)}
}

// objectID parses a hex id. Malformed ids cannot name a document, so they
// map to domain.ErrNotFound.
func objectID(id string) (bson.ObjectID, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return bson.ObjectID{}, domain.ErrNotFound
	}
	return oid, nil
}

// now returns the current time at the millisecond precision MongoDB stores.
// List queries break createdAt ties on _id, which grows with insertion.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
