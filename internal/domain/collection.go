package domain

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MaxNameLength        = 100
	MaxDescriptionLength = 500
)

// Collection is a named, orderable group of photos with its own visibility flag.
type Collection struct {
	ID          string
	Name        string
	Description string
	CoverImage  string // Blob filename; empty until backfilled
	IsPublished bool
	SortOrder   int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CollectionPatch carries the fields of a partial update. Nil fields are left unchanged.
type CollectionPatch struct {
	Name        *string
	Description *string
	CoverImage  *string
	IsPublished *bool
	SortOrder   *int
}

// Apply merges the patch into c. Validation is the caller's job.
func (p CollectionPatch) Apply(c *Collection) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.CoverImage != nil {
		c.CoverImage = *p.CoverImage
	}
	if p.IsPublished != nil {
		c.IsPublished = *p.IsPublished
	}
	if p.SortOrder != nil {
		c.SortOrder = *p.SortOrder
	}
}

// Resolve returns a patch that sets the same fields as p, holding the
// values c has for them. Applied after Normalize, it yields the normalized
// values to write back.
func (p CollectionPatch) Resolve(c *Collection) CollectionPatch {
	var out CollectionPatch
	if p.Name != nil {
		out.Name = &c.Name
	}
	if p.Description != nil {
		out.Description = &c.Description
	}
	if p.CoverImage != nil {
		out.CoverImage = &c.CoverImage
	}
	if p.IsPublished != nil {
		out.IsPublished = &c.IsPublished
	}
	if p.SortOrder != nil {
		out.SortOrder = &c.SortOrder
	}
	return out
}

// Normalize trims the fields that are stored trimmed.
func (c *Collection) Normalize() {
	c.Name = strings.TrimSpace(c.Name)
}

// Validate checks the required and max-length constraints.
func (c *Collection) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(c.Name) > MaxNameLength {
		return fmt.Errorf("%w: name must be %d characters or fewer", ErrInvalidInput, MaxNameLength)
	}
	if utf8.RuneCountInString(c.Description) > MaxDescriptionLength {
		return fmt.Errorf("%w: description must be %d characters or fewer", ErrInvalidInput, MaxDescriptionLength)
	}
	return nil
}

// CollectionRepository defines persistence operations for collections.
// List methods return collections ordered by sort order ascending, then
// newest first.
type CollectionRepository interface {
	Create(ctx context.Context, collection *Collection) error
	GetByID(ctx context.Context, id string) (*Collection, error)
	ListPublished(ctx context.Context) ([]Collection, error)
	ListAll(ctx context.Context) ([]Collection, error)
	// Update writes only the fields the patch sets, plus the update time.
	Update(ctx context.Context, id string, patch CollectionPatch) error
	// SetCoverImageIfUnset atomically sets the cover image only when none is set.
	// It reports whether the collection was changed.
	SetCoverImageIfUnset(ctx context.Context, id, filename string) (bool, error)
	Delete(ctx context.Context, id string) error
}
