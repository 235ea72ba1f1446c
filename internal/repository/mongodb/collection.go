package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/msomdec/lensart-api/internal/domain"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type collectionDoc struct {
	ID          bson.ObjectID `bson:"_id,omitempty"`
	Name        string        `bson:"name"`
	Description string        `bson:"description"`
	CoverImage  string        `bson:"coverImage"`
	IsPublished bool          `bson:"isPublished"`
	SortOrder   int           `bson:"sortOrder"`
	CreatedAt   time.Time     `bson:"createdAt"`
	UpdatedAt   time.Time     `bson:"updatedAt"`
}

func (d collectionDoc) toDomain() domain.Collection {
	return domain.Collection{
		ID:          d.ID.Hex(),
		Name:        d.Name,
		Description: d.Description,
		CoverImage:  d.CoverImage,
		IsPublished: d.IsPublished,
		SortOrder:   d.SortOrder,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
}

// CollectionRepository implements domain.CollectionRepository on a MongoDB collection.
type CollectionRepository struct {
	coll *mongo.Collection
}

func (r *CollectionRepository) Create(ctx context.Context, c *domain.Collection) error {
	ts := now()
	doc := collectionDoc{
		ID:          bson.NewObjectID(),
		Name:        c.Name,
		Description: c.Description,
		CoverImage:  c.CoverImage,
		IsPublished: c.IsPublished,
		SortOrder:   c.SortOrder,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert collection: %w", err)
	}

	c.ID = doc.ID.Hex()
	c.CreatedAt = ts
	c.UpdatedAt = ts
	return nil
}

func (r *CollectionRepository) GetByID(ctx context.Context, id string) (*domain.Collection, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	var doc collectionDoc
	if err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get collection: %w", err)
	}
	c := doc.toDomain()
	return &c, nil
}

func (r *CollectionRepository) ListPublished(ctx context.Context) ([]domain.Collection, error) {
	return r.list(ctx, bson.D{{Key: "isPublished", Value: true}})
}

func (r *CollectionRepository) ListAll(ctx context.Context) ([]domain.Collection, error) {
	return r.list(ctx, bson.D{})
}

func (r *CollectionRepository) list(ctx context.Context, filter bson.D) ([]domain.Collection, error) {
	opts := options.Find().SetSort(bson.D{{Key: "sortOrder", Value: 1}, {Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}

	var docs []collectionDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode collections: %w", err)
	}

	collections := make([]domain.Collection, 0, len(docs))
	for _, d := range docs {
		collections = append(collections, d.toDomain())
	}
	return collections, nil
}

func (r *CollectionRepository) Update(ctx context.Context, id string, patch domain.CollectionPatch) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	set := bson.D{{Key: "updatedAt", Value: now()}}
	if patch.Name != nil {
		set = append(set, bson.E{Key: "name", Value: *patch.Name})
	}
	if patch.Description != nil {
		set = append(set, bson.E{Key: "description", Value: *patch.Description})
	}
	if patch.CoverImage != nil {
		set = append(set, bson.E{Key: "coverImage", Value: *patch.CoverImage})
	}
	if patch.IsPublished != nil {
		set = append(set, bson.E{Key: "isPublished", Value: *patch.IsPublished})
	}
	if patch.SortOrder != nil {
		set = append(set, bson.E{Key: "sortOrder", Value: *patch.SortOrder})
	}

	res, err := r.coll.UpdateOne(ctx, bson.D{{Key: "_id", Value: oid}}, bson.D{{Key: "$set", Value: set}})
	if err != nil {
		return fmt.Errorf("update collection: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *CollectionRepository) SetCoverImageIfUnset(ctx context.Context, id, filename string) (bool, error) {
	oid, err := objectID(id)
	if err != nil {
		return false, nil
	}

	filter := bson.D{
		{Key: "_id", Value: oid},
		{Key: "$or", Value: bson.A{
			bson.D{{Key: "coverImage", Value: ""}},
			bson.D{{Key: "coverImage", Value: bson.D{{Key: "$exists", Value: false}}}},
		}},
	}
	res, err := r.coll.UpdateOne(ctx, filter, bson.D{{Key: "$set", Value: bson.D{
		{Key: "coverImage", Value: filename},
		{Key: "updatedAt", Value: now()},
	}}})
	if err != nil {
		return false, fmt.Errorf("set cover image: %w", err)
	}
	return res.ModifiedCount > 0, nil
}

func (r *CollectionRepository) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}
