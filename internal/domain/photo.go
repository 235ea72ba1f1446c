package domain

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Photo holds metadata about a single uploaded image.
type Photo struct {
	ID           string
	Title        string
	Description  string
	Filename     string // Blob store key
	OriginalName string // Original upload filename
	MimeType     string
	Size         int64
	CollectionID string // Parent collection, the only reference between records
	Tags         []string
	IsPublished  bool
	SortOrder    int
	Camera       string
	Lens         string
	Settings     PhotoSettings
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PhotoSettings is the optional capture metadata of a photo.
type PhotoSettings struct {
	Aperture    string
	Shutter     string
	ISO         string
	FocalLength string
}

// PhotoDetail pairs a photo with the display name of its parent collection.
// ParentName is empty when the collection no longer exists.
type PhotoDetail struct {
	Photo
	ParentName string
}

// PhotoPatch carries the fields of a partial update. Nil fields are left unchanged.
// The file provenance fields (Filename, OriginalName, MimeType, Size) are not patchable.
type PhotoPatch struct {
	Title        *string
	Description  *string
	CollectionID *string
	Tags         *[]string
	IsPublished  *bool
	SortOrder    *int
	Camera       *string
	Lens         *string
	Settings     *PhotoSettings
}

// Apply merges the patch into p. Validation is the caller's job.
func (pp PhotoPatch) Apply(p *Photo) {
	if pp.Title != nil {
		p.Title = *pp.Title
	}
	if pp.Description != nil {
		p.Description = *pp.Description
	}
	if pp.CollectionID != nil {
		p.CollectionID = *pp.CollectionID
	}
	if pp.Tags != nil {
		p.Tags = *pp.Tags
	}
	if pp.IsPublished != nil {
		p.IsPublished = *pp.IsPublished
	}
	if pp.SortOrder != nil {
		p.SortOrder = *pp.SortOrder
	}
	if pp.Camera != nil {
		p.Camera = *pp.Camera
	}
	if pp.Lens != nil {
		p.Lens = *pp.Lens
	}
	if pp.Settings != nil {
		p.Settings = *pp.Settings
	}
}

// Resolve returns a patch that sets the same fields as pp, holding the
// values p has for them.
func (pp PhotoPatch) Resolve(p *Photo) PhotoPatch {
	var out PhotoPatch
	if pp.Title != nil {
		out.Title = &p.Title
	}
	if pp.Description != nil {
		out.Description = &p.Description
	}
	if pp.CollectionID != nil {
		out.CollectionID = &p.CollectionID
	}
	if pp.Tags != nil {
		out.Tags = &p.Tags
	}
	if pp.IsPublished != nil {
		out.IsPublished = &p.IsPublished
	}
	if pp.SortOrder != nil {
		out.SortOrder = &p.SortOrder
	}
	if pp.Camera != nil {
		out.Camera = &p.Camera
	}
	if pp.Lens != nil {
		out.Lens = &p.Lens
	}
	if pp.Settings != nil {
		out.Settings = &p.Settings
	}
	return out
}

// Normalize trims the fields that are stored trimmed and drops empty tags.
func (p *Photo) Normalize() {
	p.Title = strings.TrimSpace(p.Title)
	p.Camera = strings.TrimSpace(p.Camera)
	p.Lens = strings.TrimSpace(p.Lens)
	p.CollectionID = strings.TrimSpace(p.CollectionID)

	tags := make([]string, 0, len(p.Tags))
	for _, t := range p.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	p.Tags = tags
}

// Validate checks the required and max-length constraints.
func (p *Photo) Validate() error {
	if p.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(p.Title) > MaxNameLength {
		return fmt.Errorf("%w: title must be %d characters or fewer", ErrInvalidInput, MaxNameLength)
	}
	if utf8.RuneCountInString(p.Description) > MaxDescriptionLength {
		return fmt.Errorf("%w: description must be %d characters or fewer", ErrInvalidInput, MaxDescriptionLength)
	}
	if p.Filename == "" || p.OriginalName == "" || p.MimeType == "" {
		return fmt.Errorf("%w: filename, original name, and mime type are required", ErrInvalidInput)
	}
	if p.Size <= 0 {
		return fmt.Errorf("%w: size is required", ErrInvalidInput)
	}
	if p.CollectionID == "" {
		return fmt.Errorf("%w: collection is required", ErrInvalidInput)
	}
	return nil
}

// ParseTags splits a comma-separated tag list into trimmed, non-empty tags.
// An empty input yields an empty, non-nil slice.
func ParseTags(raw string) []string {
	tags := []string{}
	if strings.TrimSpace(raw) == "" {
		return tags
	}
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// PhotoRepository defines persistence operations for photos.
type PhotoRepository interface {
	Create(ctx context.Context, photo *Photo) error
	GetByID(ctx context.Context, id string) (*Photo, error)
	// ListPublishedByCollection orders by sort order ascending, then newest first.
	ListPublishedByCollection(ctx context.Context, collectionID string) ([]Photo, error)
	// ListByCollection returns every photo of a collection regardless of visibility.
	ListByCollection(ctx context.Context, collectionID string) ([]Photo, error)
	// ListAll orders newest first.
	ListAll(ctx context.Context) ([]Photo, error)
	// Update writes only the fields the patch sets, plus the update time.
	Update(ctx context.Context, id string, patch PhotoPatch) error
	Delete(ctx context.Context, id string) error
	// DeleteByCollection removes every photo record of a collection and
	// returns the number removed.
	DeleteByCollection(ctx context.Context, collectionID string) (int64, error)
}
