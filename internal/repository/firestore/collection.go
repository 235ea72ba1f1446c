package firestore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/msomdec/lensart-api/internal/domain"
)

type collectionDoc struct {
	Name        string    `firestore:"name"`
	Description string    `firestore:"description"`
	CoverImage  string    `firestore:"coverImage"`
	IsPublished bool      `firestore:"isPublished"`
	SortOrder   int       `firestore:"sortOrder"`
	CreatedAt   time.Time `firestore:"createdAt"`
	UpdatedAt   time.Time `firestore:"updatedAt"`
}

func decodeCollection(snap *firestore.DocumentSnapshot) (domain.Collection, error) {
	var d collectionDoc
	if err := snap.DataTo(&d); err != nil {
		return domain.Collection{}, fmt.Errorf("decode collection %s: %w", snap.Ref.ID, err)
	}
	return domain.Collection{
		ID:          snap.Ref.ID,
		Name:        d.Name,
		Description: d.Description,
		CoverImage:  d.CoverImage,
		IsPublished: d.IsPublished,
		SortOrder:   d.SortOrder,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}, nil
}

// CollectionRepository implements domain.CollectionRepository on Firestore.
type CollectionRepository struct {
	client *firestore.Client
}

func (r *CollectionRepository) col() *firestore.CollectionRef {
	return r.client.Collection(collectionsPath)
}

// doc returns the reference for id, or nil when id cannot name a document.
func (r *CollectionRepository) doc(id string) *firestore.DocumentRef {
	id = strings.TrimSpace(id)
	if id == "" || strings.Contains(id, "/") {
		return nil
	}
	return r.col().Doc(id)
}

func (r *CollectionRepository) Create(ctx context.Context, c *domain.Collection) error {
	ts := now()
	ref := r.col().NewDoc()
	_, err := ref.Create(ctx, collectionDoc{
		Name:        c.Name,
		Description: c.Description,
		CoverImage:  c.CoverImage,
		IsPublished: c.IsPublished,
		SortOrder:   c.SortOrder,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	})
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}

	c.ID = ref.ID
	c.CreatedAt = ts
	c.UpdatedAt = ts
	return nil
}

func (r *CollectionRepository) GetByID(ctx context.Context, id string) (*domain.Collection, error) {
	ref := r.doc(id)
	if ref == nil {
		return nil, domain.ErrNotFound
	}

	snap, err := ref.Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get collection: %w", err)
	}
	c, err := decodeCollection(snap)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CollectionRepository) ListPublished(ctx context.Context) ([]domain.Collection, error) {
	q := r.col().Where("isPublished", "==", true).
		OrderBy("sortOrder", firestore.Asc).
		OrderBy("createdAt", firestore.Desc)
	collections, err := collect(q.Documents(ctx), decodeCollection)
	if err != nil {
		return nil, fmt.Errorf("list published collections: %w", err)
	}
	return collections, nil
}

func (r *CollectionRepository) ListAll(ctx context.Context) ([]domain.Collection, error) {
	q := r.col().OrderBy("sortOrder", firestore.Asc).OrderBy("createdAt", firestore.Desc)
	collections, err := collect(q.Documents(ctx), decodeCollection)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	return collections, nil
}

func (r *CollectionRepository) Update(ctx context.Context, id string, patch domain.CollectionPatch) error {
	ref := r.doc(id)
	if ref == nil {
		return domain.ErrNotFound
	}

	updates := []firestore.Update{{Path: "updatedAt", Value: now()}}
	if patch.Name != nil {
		updates = append(updates, firestore.Update{Path: "name", Value: *patch.Name})
	}
	if patch.Description != nil {
		updates = append(updates, firestore.Update{Path: "description", Value: *patch.Description})
	}
	if patch.CoverImage != nil {
		updates = append(updates, firestore.Update{Path: "coverImage", Value: *patch.CoverImage})
	}
	if patch.IsPublished != nil {
		updates = append(updates, firestore.Update{Path: "isPublished", Value: *patch.IsPublished})
	}
	if patch.SortOrder != nil {
		updates = append(updates, firestore.Update{Path: "sortOrder", Value: *patch.SortOrder})
	}

	if _, err := ref.Update(ctx, updates); err != nil {
		if isNotFound(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("update collection: %w", err)
	}
	return nil
}

func (r *CollectionRepository) SetCoverImageIfUnset(ctx context.Context, id, filename string) (bool, error) {
	ref := r.doc(id)
	if ref == nil {
		return false, nil
	}

	var changed bool
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		changed = false
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}
		current, _ := snap.DataAt("coverImage")
		if s, _ := current.(string); s != "" {
			return nil
		}
		changed = true
		return tx.Update(ref, []firestore.Update{
			{Path: "coverImage", Value: filename},
			{Path: "updatedAt", Value: now()},
		})
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("set cover image: %w", err)
	}
	return changed, nil
}

func (r *CollectionRepository) Delete(ctx context.Context, id string) error {
	ref := r.doc(id)
	if ref == nil {
		return domain.ErrNotFound
	}

	if _, err := ref.Delete(ctx, firestore.Exists); err != nil {
		if isNotFound(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete collection: %w", err)
	}
	return nil
}
