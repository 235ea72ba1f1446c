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

type settingsDoc struct {
	Aperture    string `bson:"aperture"`
	Shutter     string `bson:"shutter"`
	ISO         string `bson:"iso"`
	FocalLength string `bson:"focalLength"`
}

type photoDoc struct {
	ID           bson.ObjectID `bson:"_id,omitempty"`
	Title        string        `bson:"title"`
	Description  string        `bson:"description"`
	Filename     string        `bson:"filename"`
	OriginalName string        `bson:"originalName"`
	MimeType     string        `bson:"mimeType"`
	Size         int64         `bson:"size"`
	CollectionID bson.ObjectID `bson:"collectionName"`
	Tags         []string      `bson:"tags"`
	IsPublished  bool          `bson:"isPublished"`
	SortOrder    int           `bson:"sortOrder"`
	Camera       string        `bson:"camera"`
	Lens         string        `bson:"lens"`
	Settings     settingsDoc   `bson:"settings"`
	CreatedAt    time.Time     `bson:"createdAt"`
	UpdatedAt    time.Time     `bson:"updatedAt"`
}

// newPhotoDoc stores the collection reference as an ObjectID so documents
// can be joined against the collections collection.
func newPhotoDoc(p *domain.Photo) (photoDoc, error) {
	collectionID, err := bson.ObjectIDFromHex(p.CollectionID)
	if err != nil {
		return photoDoc{}, fmt.Errorf("%w: malformed collection id %q", domain.ErrInvalidInput, p.CollectionID)
	}
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	return photoDoc{
		Title:        p.Title,
		Description:  p.Description,
		Filename:     p.Filename,
		OriginalName: p.OriginalName,
		MimeType:     p.MimeType,
		Size:         p.Size,
		CollectionID: collectionID,
		Tags:         tags,
		IsPublished:  p.IsPublished,
		SortOrder:    p.SortOrder,
		Camera:       p.Camera,
		Lens:         p.Lens,
		Settings:     settingsDoc(p.Settings),
	}, nil
}

func (d photoDoc) toDomain() domain.Photo {
	tags := d.Tags
	if tags == nil {
		tags = []string{}
	}
	return domain.Photo{
		ID:           d.ID.Hex(),
		Title:        d.Title,
		Description:  d.Description,
		Filename:     d.Filename,
		OriginalName: d.OriginalName,
		MimeType:     d.MimeType,
		Size:         d.Size,
		CollectionID: d.CollectionID.Hex(),
		Tags:         tags,
		IsPublished:  d.IsPublished,
		SortOrder:    d.SortOrder,
		Camera:       d.Camera,
		Lens:         d.Lens,
		Settings:     domain.PhotoSettings(d.Settings),
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
}

// PhotoRepository implements domain.PhotoRepository on a MongoDB collection.
type PhotoRepository struct {
	coll *mongo.Collection
}

func (r *PhotoRepository) Create(ctx context.Context, p *domain.Photo) error {
	doc, err := newPhotoDoc(p)
	if err != nil {
		return err
	}
	ts := now()
	doc.ID = bson.NewObjectID()
	doc.CreatedAt = ts
	doc.UpdatedAt = ts

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("insert photo: filename %q already stored: %w", p.Filename, err)
		}
		return fmt.Errorf("insert photo: %w", err)
	}

	p.ID = doc.ID.Hex()
	p.CreatedAt = ts
	p.UpdatedAt = ts
	return nil
}

func (r *PhotoRepository) GetByID(ctx context.Context, id string) (*domain.Photo, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	var doc photoDoc
	if err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get photo: %w", err)
	}
	p := doc.toDomain()
	return &p, nil
}

func (r *PhotoRepository) ListPublishedByCollection(ctx context.Context, collectionID string) ([]domain.Photo, error) {
	oid, err := bson.ObjectIDFromHex(collectionID)
	if err != nil {
		return []domain.Photo{}, nil
	}
	return r.list(ctx,
		bson.D{{Key: "collectionName", Value: oid}, {Key: "isPublished", Value: true}},
		bson.D{{Key: "sortOrder", Value: 1}, {Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
}

func (r *PhotoRepository) ListByCollection(ctx context.Context, collectionID string) ([]domain.Photo, error) {
	oid, err := bson.ObjectIDFromHex(collectionID)
	if err != nil {
		return []domain.Photo{}, nil
	}
	return r.list(ctx,
		bson.D{{Key: "collectionName", Value: oid}},
		bson.D{{Key: "sortOrder", Value: 1}, {Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
}

func (r *PhotoRepository) ListAll(ctx context.Context) ([]domain.Photo, error) {
	return r.list(ctx, bson.D{}, bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
}

func (r *PhotoRepository) list(ctx context.Context, filter, sort bson.D) ([]domain.Photo, error) {
	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}

	var docs []photoDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode photos: %w", err)
	}

	photos := make([]domain.Photo, 0, len(docs))
	for _, d := range docs {
		photos = append(photos, d.toDomain())
	}
	return photos, nil
}

func (r *PhotoRepository) Update(ctx context.Context, id string, patch domain.PhotoPatch) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	set := bson.D{{Key: "updatedAt", Value: now()}}
	if patch.Title != nil {
		set = append(set, bson.E{Key: "title", Value: *patch.Title})
	}
	if patch.Description != nil {
		set = append(set, bson.E{Key: "description", Value: *patch.Description})
	}
	if patch.CollectionID != nil {
		collectionID, err := bson.ObjectIDFromHex(*patch.CollectionID)
		if err != nil {
			return fmt.Errorf("%w: malformed collection id %q", domain.ErrInvalidInput, *patch.CollectionID)
		}
		set = append(set, bson.E{Key: "collectionName", Value: collectionID})
	}
	if patch.Tags != nil {
		tags := *patch.Tags
		if tags == nil {
			tags = []string{}
		}
		set = append(set, bson.E{Key: "tags", Value: tags})
	}
	if patch.IsPublished != nil {
		set = append(set, bson.E{Key: "isPublished", Value: *patch.IsPublished})
	}
	if patch.SortOrder != nil {
		set = append(set, bson.E{Key: "sortOrder", Value: *patch.SortOrder})
	}
	if patch.Camera != nil {
		set = append(set, bson.E{Key: "camera", Value: *patch.Camera})
	}
	if patch.Lens != nil {
		set = append(set, bson.E{Key: "lens", Value: *patch.Lens})
	}
	if patch.Settings != nil {
		set = append(set, bson.E{Key: "settings", Value: settingsDoc(*patch.Settings)})
	}

	res, err := r.coll.UpdateOne(ctx, bson.D{{Key: "_id", Value: oid}}, bson.D{{Key: "$set", Value: set}})
	if err != nil {
		return fmt.Errorf("update photo: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PhotoRepository) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return fmt.Errorf("delete photo: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PhotoRepository) DeleteByCollection(ctx context.Context, collectionID string) (int64, error) {
	oid, err := bson.ObjectIDFromHex(collectionID)
	if err != nil {
		return 0, nil
	}
	res, err := r.coll.DeleteMany(ctx, bson.D{{Key: "collectionName", Value: oid}})
	if err != nil {
		return 0, fmt.Errorf("delete photos by collection: %w", err)
	}
	return res.DeletedCount, nil
}
