package sqlite_test

import (
	"context"
	"errors"
	"testing"

	"github.com/msomdec/lensart-api/internal/domain"
)

func TestCollectionRepository_CreateAndGet(t *testing.T) {
	db := newTestDB(t)
	repo := db.Collections()
	ctx := context.Background()

	c := &domain.Collection{Name: "Landscapes", Description: "Wide open", IsPublished: true, SortOrder: 2}
	if err := repo.Create(ctx, c); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if c.ID == "" {
		t.Fatal("expected ID to be set after create")
	}
	if c.CreatedAt.IsZero() || !c.CreatedAt.Equal(c.UpdatedAt) {
		t.Fatalf("expected equal non-zero timestamps, got %v / %v", c.CreatedAt, c.UpdatedAt)
	}

	got, err := repo.GetByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Name != "Landscapes" || got.Description != "Wide open" || !got.IsPublished || got.SortOrder != 2 {
		t.Fatalf("unexpected collection: %+v", got)
	}
	if got.CoverImage != "" {
		t.Fatalf("expected empty cover image, got %q", got.CoverImage)
	}
	if !got.CreatedAt.Equal(c.CreatedAt) {
		t.Fatalf("CreatedAt round trip: got %v, want %v", got.CreatedAt, c.CreatedAt)
	}
}

func TestCollectionRepository_GetByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Collections().GetByID(context.Background(), "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCollectionRepository_ListOrdering(t *testing.T) {
	db := newTestDB(t)
	repo := db.Collections()
	ctx := context.Background()

	mk := func(name string, order int, published bool) {
		t.Helper()
		if err := repo.Create(ctx, &domain.Collection{Name: name, SortOrder: order, IsPublished: published}); err != nil {
			t.Fatalf("Create %s: %v", name, err)
		}
	}
	mk("first-older", 1, true)
	mk("zero", 0, true)
	mk("first-newer", 1, true)
	mk("hidden", 0, false)

	published, err := repo.ListPublished(ctx)
	if err != nil {
		t.Fatalf("ListPublished: %v", err)
	}
	want := []string{"zero", "first-newer", "first-older"}
	if len(published) != len(want) {
		t.Fatalf("expected %d published, got %d", len(want), len(published))
	}
	for i, name := range want {
		if published[i].Name != name {
			t.Fatalf("position %d: got %q, want %q", i, published[i].Name, name)
		}
	}

	all, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 collections, got %d", len(all))
	}
	if all[0].Name != "hidden" {
		t.Fatalf("expected newest sort-order-0 collection first, got %q", all[0].Name)
	}
}

func TestCollectionRepository_ListEmpty(t *testing.T) {
	db := newTestDB(t)

	all, err := db.Collections().ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if all == nil || len(all) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", all)
	}
}

func TestCollectionRepository_Update(t *testing.T) {
	db := newTestDB(t)
	repo := db.Collections()
	ctx := context.Background()

	c := &domain.Collection{Name: "Before", IsPublished: true}
	if err := repo.Create(ctx, c); err != nil {
		t.Fatalf("Create: %v", err)
	}
	created := c.UpdatedAt

	patch := domain.CollectionPatch{Name: ptr("After"), IsPublished: ptr(false), CoverImage: ptr("cover.jpg")}
	if err := repo.Update(ctx, c.ID, patch); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := repo.GetByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Name != "After" || got.IsPublished || got.CoverImage != "cover.jpg" {
		t.Fatalf("update not persisted: %+v", got)
	}
	if got.UpdatedAt.Before(created) {
		t.Fatalf("UpdatedAt went backwards: %v < %v", got.UpdatedAt, created)
	}

	if err := repo.Update(ctx, "missing", domain.CollectionPatch{Name: ptr("x")}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound updating missing collection, got %v", err)
	}
}

func TestCollectionRepository_SetCoverImageIfUnset(t *testing.T) {
	db := newTestDB(t)
	repo := db.Collections()
	ctx := context.Background()

	c := &domain.Collection{Name: "Portraits", IsPublished: true}
	if err := repo.Create(ctx, c); err != nil {
		t.Fatalf("Create: %v", err)
	}

	changed, err := repo.SetCoverImageIfUnset(ctx, c.ID, "first.jpg")
	if err != nil {
		t.Fatalf("SetCoverImageIfUnset: %v", err)
	}
	if !changed {
		t.Fatal("expected first call to set the cover")
	}

	changed, err = repo.SetCoverImageIfUnset(ctx, c.ID, "second.jpg")
	if err != nil {
		t.Fatalf("SetCoverImageIfUnset: %v", err)
	}
	if changed {
		t.Fatal("expected second call to leave the cover alone")
	}

	got, _ := repo.GetByID(ctx, c.ID)
	if got.CoverImage != "first.jpg" {
		t.Fatalf("expected cover first.jpg, got %q", got.CoverImage)
	}
}

func TestCollectionRepository_Delete(t *testing.T) {
	db := newTestDB(t)
	repo := db.Collections()
	ctx := context.Background()

	c := &domain.Collection{Name: "Gone"}
	if err := repo.Create(ctx, c); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Delete(ctx, c.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, c.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := repo.Delete(ctx, c.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}
