package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/msomdec/lensart-api/internal/domain"
)

// CollectionInput carries the fields of a new collection. A nil
// IsPublished means published.
type CollectionInput struct {
	Name        string
	Description string
	CoverImage  string
	IsPublished *bool
	SortOrder   int
}

// CascadeResult reports what a collection delete removed alongside it.
type CascadeResult struct {
	PhotosRemoved int64
	BlobsRemoved  int
}

// CollectionService handles collection CRUD and the cascade to photos.
type CollectionService struct {
	collections domain.CollectionRepository
	photos      domain.PhotoRepository
	blobs       domain.BlobStore
}

// NewCollectionService creates a new CollectionService.
func NewCollectionService(collections domain.CollectionRepository, photos domain.PhotoRepository, blobs domain.BlobStore) *CollectionService {
	return &CollectionService{collections: collections, photos: photos, blobs: blobs}
}

// ListPublished returns the publicly visible collections.
func (s *CollectionService) ListPublished(ctx context.Context) ([]domain.Collection, error) {
	return s.collections.ListPublished(ctx)
}

// ListAll returns every collection regardless of visibility.
func (s *CollectionService) ListAll(ctx context.Context) ([]domain.Collection, error) {
	return s.collections.ListAll(ctx)
}

// Create validates and persists a new collection.
func (s *CollectionService) Create(ctx context.Context, in CollectionInput) (*domain.Collection, error) {
	c := &domain.Collection{
		Name:        in.Name,
		Description: in.Description,
		CoverImage:  in.CoverImage,
		IsPublished: true,
		SortOrder:   in.SortOrder,
	}
	if in.IsPublished != nil {
		c.IsPublished = *in.IsPublished
	}

	c.Normalize()
	if err := c.Validate(); err != nil {
		return nil, err
	}

	if err := s.collections.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	return c, nil
}

// Update merges patch into the stored collection and re-validates the
// result. Only the patched fields are written, so a cover image set by a
// concurrent upload survives.
func (s *CollectionService) Update(ctx context.Context, id string, patch domain.CollectionPatch) (*domain.Collection, error) {
	c, err := s.collections.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	patch.Apply(c)
	c.Normalize()
	if err := c.Validate(); err != nil {
		return nil, err
	}

	if err := s.collections.Update(ctx, id, patch.Resolve(c)); err != nil {
		return nil, fmt.Errorf("update collection: %w", err)
	}
	return s.collections.GetByID(ctx, id)
}

// Delete removes a collection together with its photos and their blobs.
// Blobs go first, then photo records, then the collection record, so an
// interruption leaves records without blobs rather than unreachable blobs.
// Blob failures are logged and do not stop the cascade.
func (s *CollectionService) Delete(ctx context.Context, id string) (CascadeResult, error) {
	var result CascadeResult

	if _, err := s.collections.GetByID(ctx, id); err != nil {
		return result, err
	}

	photos, err := s.photos.ListByCollection(ctx, id)
	if err != nil {
		return result, fmt.Errorf("list collection photos: %w", err)
	}

	for _, p := range photos {
		if err := s.blobs.Delete(ctx, p.Filename); err != nil {
			slog.Warn("failed to delete photo blob during cascade",
				"collection_id", id, "photo_id", p.ID, "filename", p.Filename, "error", err)
			continue
		}
		result.BlobsRemoved++
	}

	result.PhotosRemoved, err = s.photos.DeleteByCollection(ctx, id)
	if err != nil {
		return result, fmt.Errorf("delete collection photos: %w", err)
	}

	if err := s.collections.Delete(ctx, id); err != nil {
		return result, fmt.Errorf("delete collection: %w", err)
	}

	slog.Info("collection deleted",
		"collection_id", id, "photos_removed", result.PhotosRemoved, "blobs_removed", result.BlobsRemoved)
	return result, nil
}
