package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/msomdec/lensart-api/internal/domain"
)

// compensationTimeout bounds cleanup that must run even after the request
// context is done.
const compensationTimeout = 10 * time.Second

// UploadInput carries the metadata form fields of an upload. Tags is the
// raw comma-separated list.
type UploadInput struct {
	Title        string
	Description  string
	CollectionID string
	Tags         string
	Camera       string
	Lens         string
	Settings     domain.PhotoSettings
}

// FileUpload is an uploaded image as received from the client.
type FileUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// postCommitHook runs after a photo record has been committed. Its error is
// logged and never returned to the caller.
type postCommitHook struct {
	name string
	run  func(ctx context.Context, p *domain.Photo) error
}

// PhotoService orchestrates photo uploads, updates, listing, and deletion
// across the record store and the blob store.
type PhotoService struct {
	photos      domain.PhotoRepository
	collections domain.CollectionRepository
	blobs       domain.BlobStore
	afterCreate []postCommitHook
}

// NewPhotoService creates a new PhotoService.
func NewPhotoService(photos domain.PhotoRepository, collections domain.CollectionRepository, blobs domain.BlobStore) *PhotoService {
	s := &PhotoService{photos: photos, collections: collections, blobs: blobs}
	s.afterCreate = []postCommitHook{
		{name: "cover_image_backfill", run: s.backfillCoverImage},
	}
	return s
}

// ListByCollection returns the published photos of a collection, each with
// the collection's name attached.
func (s *PhotoService) ListByCollection(ctx context.Context, collectionID string) ([]domain.PhotoDetail, error) {
	photos, err := s.photos.ListPublishedByCollection(ctx, collectionID)
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}

	var parentName string
	if len(photos) > 0 {
		parentName, err = s.collectionName(ctx, collectionID)
		if err != nil {
			return nil, err
		}
	}

	details := make([]domain.PhotoDetail, 0, len(photos))
	for _, p := range photos {
		details = append(details, domain.PhotoDetail{Photo: p, ParentName: parentName})
	}
	return details, nil
}

// ListAll returns every photo, newest first, each with its collection's name.
func (s *PhotoService) ListAll(ctx context.Context) ([]domain.PhotoDetail, error) {
	photos, err := s.photos.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}

	collections, err := s.collections.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	names := make(map[string]string, len(collections))
	for _, c := range collections {
		names[c.ID] = c.Name
	}

	details := make([]domain.PhotoDetail, 0, len(photos))
	for _, p := range photos {
		details = append(details, domain.PhotoDetail{Photo: p, ParentName: names[p.CollectionID]})
	}
	return details, nil
}

// Upload validates the file and metadata, stores the blob, then the record.
// If the record cannot be stored the blob is removed again before returning.
func (s *PhotoService) Upload(ctx context.Context, in UploadInput, file FileUpload) (*domain.Photo, error) {
	size := int64(len(file.Data))
	if err := domain.CheckImageUpload(file.Filename, file.ContentType, size); err != nil {
		return nil, err
	}

	title := in.Title
	if title == "" {
		title = file.Filename
	}
	p := &domain.Photo{
		Title:        title,
		Description:  in.Description,
		OriginalName: file.Filename,
		MimeType:     file.ContentType,
		Size:         size,
		CollectionID: in.CollectionID,
		Tags:         domain.ParseTags(in.Tags),
		IsPublished:  true,
		Camera:       in.Camera,
		Lens:         in.Lens,
		Settings:     in.Settings,
	}

	filename, err := newBlobFilename(file.Filename)
	if err != nil {
		return nil, err
	}
	p.Filename = filename

	p.Normalize()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := s.requireCollection(ctx, p.CollectionID); err != nil {
		return nil, err
	}

	if err := s.blobs.Save(ctx, p.Filename, p.MimeType, file.Data); err != nil {
		return nil, fmt.Errorf("save blob: %w", err)
	}

	if err := s.photos.Create(ctx, p); err != nil {
		s.discardBlob(ctx, p.Filename)
		return nil, fmt.Errorf("create photo: %w", err)
	}

	for _, h := range s.afterCreate {
		if err := h.run(ctx, p); err != nil {
			slog.Warn("post-commit hook failed", "hook", h.name, "photo_id", p.ID, "error", err)
		}
	}

	return p, nil
}

// Update merges patch into the stored photo and re-validates the result.
// Moving a photo requires the target collection to exist.
func (s *PhotoService) Update(ctx context.Context, id string, patch domain.PhotoPatch) (*domain.PhotoDetail, error) {
	p, err := s.photos.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	previousCollection := p.CollectionID

	patch.Apply(p)
	p.Normalize()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.CollectionID != previousCollection {
		if err := s.requireCollection(ctx, p.CollectionID); err != nil {
			return nil, err
		}
	}

	if err := s.photos.Update(ctx, id, patch.Resolve(p)); err != nil {
		return nil, fmt.Errorf("update photo: %w", err)
	}
	if p, err = s.photos.GetByID(ctx, id); err != nil {
		return nil, err
	}

	name, err := s.collectionName(ctx, p.CollectionID)
	if err != nil {
		return nil, err
	}
	return &domain.PhotoDetail{Photo: *p, ParentName: name}, nil
}

// Delete removes the photo's blob and then its record. An absent blob is
// fine; other blob failures are logged and the record is still removed.
func (s *PhotoService) Delete(ctx context.Context, id string) error {
	p, err := s.photos.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.blobs.Delete(ctx, p.Filename); err != nil {
		slog.Warn("failed to delete photo blob", "photo_id", p.ID, "filename", p.Filename, "error", err)
	}

	if err := s.photos.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete photo: %w", err)
	}
	return nil
}

// backfillCoverImage makes the photo its collection's cover when the
// collection has none yet.
func (s *PhotoService) backfillCoverImage(ctx context.Context, p *domain.Photo) error {
	changed, err := s.collections.SetCoverImageIfUnset(ctx, p.CollectionID, p.Filename)
	if err != nil {
		return err
	}
	if changed {
		slog.Info("collection cover image set", "collection_id", p.CollectionID, "filename", p.Filename)
	}
	return nil
}

// discardBlob is the compensation for a failed record write. It runs on a
// context detached from the request so a cancelled upload is still cleaned up.
func (s *PhotoService) discardBlob(ctx context.Context, filename string) {
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	if err := s.blobs.Delete(cleanupCtx, filename); err != nil {
		slog.Error("failed to remove blob after record write failed", "filename", filename, "error", err)
	}
}

func (s *PhotoService) requireCollection(ctx context.Context, id string) error {
	if _, err := s.collections.GetByID(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: collection %q does not exist", domain.ErrInvalidInput, id)
		}
		return fmt.Errorf("get collection: %w", err)
	}
	return nil
}

// collectionName returns the name of a collection, or "" if it is gone.
func (s *PhotoService) collectionName(ctx context.Context, id string) (string, error) {
	c, err := s.collections.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("get collection: %w", err)
	}
	return c.Name, nil
}

// newBlobFilename combines a time-ordered UUIDv7 with the original extension.
func newBlobFilename(original string) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate filename: %w", err)
	}
	return id.String() + filepath.Ext(original), nil
}
