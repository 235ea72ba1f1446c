// Package repotest holds behaviour checks shared by every record store
// backend. Each backend's tests call Run with a factory for a fresh,
// migrated, empty database.
package repotest

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/msomdec/lensart-api/internal/domain"
)

// Run exercises the repositories of the databases produced by newDB.
func Run(t *testing.T, newDB func(t *testing.T) domain.Database) {
	t.Helper()

	t.Run("CollectionLifecycle", func(t *testing.T) { collectionLifecycle(t, newDB(t)) })
	t.Run("CollectionOrdering", func(t *testing.T) { collectionOrdering(t, newDB(t)) })
	t.Run("CoverImageSetOnce", func(t *testing.T) { coverImageSetOnce(t, newDB(t)) })
	t.Run("PartialUpdate", func(t *testing.T) { partialUpdate(t, newDB(t)) })
	t.Run("PhotoLifecycle", func(t *testing.T) { photoLifecycle(t, newDB(t)) })
	t.Run("PhotoVisibility", func(t *testing.T) { photoVisibility(t, newDB(t)) })
	t.Run("DeleteByCollection", func(t *testing.T) { deleteByCollection(t, newDB(t)) })
	t.Run("UnknownIDs", func(t *testing.T) { unknownIDs(t, newDB(t)) })
}

func mustCreateCollection(t *testing.T, db domain.Database, c *domain.Collection) {
	t.Helper()
	if err := db.Collections().Create(context.Background(), c); err != nil {
		t.Fatalf("create collection %q: %v", c.Name, err)
	}
}

func mustCreatePhoto(t *testing.T, db domain.Database, p *domain.Photo) {
	t.Helper()
	if err := db.Photos().Create(context.Background(), p); err != nil {
		t.Fatalf("create photo %q: %v", p.Filename, err)
	}
}

// parent creates a collection for photos to reference and returns its id.
func parent(t *testing.T, db domain.Database, name string) string {
	t.Helper()
	c := &domain.Collection{Name: name, IsPublished: true}
	mustCreateCollection(t, db, c)
	return c.ID
}

func photo(collectionID, filename string, published bool) *domain.Photo {
	return &domain.Photo{
		Title:        filename,
		Filename:     filename,
		OriginalName: filename,
		MimeType:     "image/jpeg",
		Size:         10,
		CollectionID: collectionID,
		Tags:         []string{"a", "b"},
		IsPublished:  published,
	}
}

func collectionLifecycle(t *testing.T, db domain.Database) {
	ctx := context.Background()
	repo := db.Collections()

	c := &domain.Collection{Name: "Street", Description: "City life", IsPublished: true}
	mustCreateCollection(t, db, c)
	if c.ID == "" || c.CreatedAt.IsZero() {
		t.Fatalf("create did not populate id/timestamps: %+v", c)
	}

	got, err := repo.GetByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Name != "Street" || got.Description != "City life" || !got.IsPublished {
		t.Fatalf("unexpected collection: %+v", got)
	}

	if err := repo.Update(ctx, c.ID, domain.CollectionPatch{Name: ptr("Streets"), IsPublished: ptr(false)}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	again, err := repo.GetByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetByID after update: %v", err)
	}
	if again.Name != "Streets" || again.IsPublished || again.Description != "City life" {
		t.Fatalf("update not persisted: %+v", again)
	}

	if err := repo.Delete(ctx, c.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, c.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func collectionOrdering(t *testing.T, db domain.Database) {
	ctx := context.Background()

	mustCreateCollection(t, db, &domain.Collection{Name: "b-old", SortOrder: 1, IsPublished: true})
	mustCreateCollection(t, db, &domain.Collection{Name: "a", SortOrder: 0, IsPublished: true})
	mustCreateCollection(t, db, &domain.Collection{Name: "b-new", SortOrder: 1, IsPublished: true})
	mustCreateCollection(t, db, &domain.Collection{Name: "draft", SortOrder: 0, IsPublished: false})

	published, err := db.Collections().ListPublished(ctx)
	if err != nil {
		t.Fatalf("ListPublished: %v", err)
	}
	var names []string
	for _, c := range published {
		names = append(names, c.Name)
	}
	if !slices.Equal(names, []string{"a", "b-new", "b-old"}) {
		t.Fatalf("unexpected published order: %v", names)
	}

	all, err := db.Collections().ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 collections, got %d", len(all))
	}
}

func coverImageSetOnce(t *testing.T, db domain.Database) {
	ctx := context.Background()
	c := &domain.Collection{Name: "Covers", IsPublished: true}
	mustCreateCollection(t, db, c)

	changed, err := db.Collections().SetCoverImageIfUnset(ctx, c.ID, "one.jpg")
	if err != nil || !changed {
		t.Fatalf("first SetCoverImageIfUnset: changed=%v err=%v", changed, err)
	}
	changed, err = db.Collections().SetCoverImageIfUnset(ctx, c.ID, "two.jpg")
	if err != nil || changed {
		t.Fatalf("second SetCoverImageIfUnset: changed=%v err=%v", changed, err)
	}

	got, err := db.Collections().GetByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.CoverImage != "one.jpg" {
		t.Fatalf("expected cover one.jpg, got %q", got.CoverImage)
	}
}

// partialUpdate checks that Update leaves fields outside the patch as
// stored, including a cover image set after the caller last read the record.
func partialUpdate(t *testing.T, db domain.Database) {
	ctx := context.Background()

	c := &domain.Collection{Name: "Portraits", Description: "Faces", IsPublished: true, SortOrder: 3}
	mustCreateCollection(t, db, c)
	if _, err := db.Collections().SetCoverImageIfUnset(ctx, c.ID, "cover.jpg"); err != nil {
		t.Fatalf("SetCoverImageIfUnset: %v", err)
	}
	if err := db.Collections().Update(ctx, c.ID, domain.CollectionPatch{Name: ptr("People")}); err != nil {
		t.Fatalf("Update collection: %v", err)
	}
	got, err := db.Collections().GetByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Name != "People" || got.CoverImage != "cover.jpg" || got.Description != "Faces" || got.SortOrder != 3 || !got.IsPublished {
		t.Fatalf("unpatched collection fields changed: %+v", got)
	}

	p := photo(c.ID, "partial.jpg", true)
	p.Camera = "X100V"
	mustCreatePhoto(t, db, p)
	if err := db.Photos().Update(ctx, p.ID, domain.PhotoPatch{SortOrder: ptr(7)}); err != nil {
		t.Fatalf("Update photo: %v", err)
	}
	gotPhoto, err := db.Photos().GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetByID photo: %v", err)
	}
	if gotPhoto.SortOrder != 7 || gotPhoto.Camera != "X100V" || gotPhoto.Title != "partial.jpg" ||
		!slices.Equal(gotPhoto.Tags, []string{"a", "b"}) || gotPhoto.CollectionID != c.ID {
		t.Fatalf("unpatched photo fields changed: %+v", gotPhoto)
	}

	if err := db.Collections().Update(ctx, c.ID, domain.CollectionPatch{}); err != nil {
		t.Fatalf("empty patch: %v", err)
	}
}

func photoLifecycle(t *testing.T, db domain.Database) {
	ctx := context.Background()
	repo := db.Photos()

	p := photo(parent(t, db, "c1"), "life.jpg", true)
	p.Settings = domain.PhotoSettings{Aperture: "f/8", ISO: "100"}
	mustCreatePhoto(t, db, p)

	got, err := repo.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Filename != "life.jpg" || !slices.Equal(got.Tags, []string{"a", "b"}) || got.Settings != p.Settings {
		t.Fatalf("unexpected photo: %+v", got)
	}

	if err := repo.Update(ctx, p.ID, domain.PhotoPatch{Title: ptr("Renamed"), Tags: ptr([]string{})}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	again, err := repo.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetByID after update: %v", err)
	}
	if again.Title != "Renamed" || len(again.Tags) != 0 || again.Filename != "life.jpg" || again.Settings != p.Settings {
		t.Fatalf("update not persisted: %+v", again)
	}

	if err := repo.Delete(ctx, p.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, p.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func photoVisibility(t *testing.T, db domain.Database) {
	ctx := context.Background()
	c1, c2 := parent(t, db, "c1"), parent(t, db, "c2")

	mustCreatePhoto(t, db, photo(c1, "pub.jpg", true))
	mustCreatePhoto(t, db, photo(c1, "draft.jpg", false))
	mustCreatePhoto(t, db, photo(c2, "elsewhere.jpg", true))

	published, err := db.Photos().ListPublishedByCollection(ctx, c1)
	if err != nil {
		t.Fatalf("ListPublishedByCollection: %v", err)
	}
	if len(published) != 1 || published[0].Filename != "pub.jpg" {
		t.Fatalf("expected only pub.jpg, got %+v", published)
	}

	all, err := db.Photos().ListByCollection(ctx, c1)
	if err != nil {
		t.Fatalf("ListByCollection: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 photos in c1, got %d", len(all))
	}

	everything, err := db.Photos().ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(everything) != 3 || everything[0].Filename != "elsewhere.jpg" {
		t.Fatalf("expected 3 photos newest first, got %+v", everything)
	}
}

func deleteByCollection(t *testing.T, db domain.Database) {
	ctx := context.Background()
	c1, c2 := parent(t, db, "c1"), parent(t, db, "c2")

	mustCreatePhoto(t, db, photo(c1, "x.jpg", true))
	mustCreatePhoto(t, db, photo(c1, "y.jpg", false))
	mustCreatePhoto(t, db, photo(c2, "z.jpg", true))

	n, err := db.Photos().DeleteByCollection(ctx, c1)
	if err != nil {
		t.Fatalf("DeleteByCollection: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 removed, got %d", n)
	}

	rest, err := db.Photos().ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(rest) != 1 || rest[0].Filename != "z.jpg" {
		t.Fatalf("unexpected survivors: %+v", rest)
	}
}

func unknownIDs(t *testing.T, db domain.Database) {
	ctx := context.Background()

	for _, id := range []string{"does-not-exist", "000000000000000000000000"} {
		if _, err := db.Collections().GetByID(ctx, id); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("collection %q: expected ErrNotFound, got %v", id, err)
		}
		if _, err := db.Photos().GetByID(ctx, id); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("photo %q: expected ErrNotFound, got %v", id, err)
		}
		if err := db.Photos().Delete(ctx, id); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("delete photo %q: expected ErrNotFound, got %v", id, err)
		}
		if err := db.Collections().Delete(ctx, id); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("delete collection %q: expected ErrNotFound, got %v", id, err)
		}
	}
}

func ptr[T any](v T) *T { return &v }
