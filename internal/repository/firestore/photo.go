package firestore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/msomdec/lensart-api/internal/domain"
)

type settingsDoc struct {
	Aperture    string `firestore:"aperture"`
	Shutter     string `firestore:"shutter"`
	ISO         string `firestore:"iso"`
	FocalLength string `firestore:"focalLength"`
}

type photoDoc struct {
	Title        string      `firestore:"title"`
	Description  string      `firestore:"description"`
	Filename     string      `firestore:"filename"`
	OriginalName string      `firestore:"originalName"`
	MimeType     string      `firestore:"mimeType"`
	Size         int64       `firestore:"size"`
	CollectionID string      `firestore:"collectionId"`
	Tags         []string    `firestore:"tags"`
	IsPublished  bool        `firestore:"isPublished"`
	SortOrder    int         `firestore:"sortOrder"`
	Camera       string      `firestore:"camera"`
	Lens         string      `firestore:"lens"`
	Settings     settingsDoc `firestore:"settings"`
	CreatedAt    time.Time   `firestore:"createdAt"`
	UpdatedAt    time.Time   `firestore:"updatedAt"`
}

func decodePhoto(snap *firestore.DocumentSnapshot) (domain.Photo, error) {
	var d photoDoc
	if err := snap.DataTo(&d); err != nil {
		return domain.Photo{}, fmt.Errorf("decode photo %s: %w", snap.Ref.ID, err)
	}
	tags := d.Tags
	if tags == nil {
		tags = []string{}
	}
	return domain.Photo{
		ID:           snap.Ref.ID,
		Title:        d.Title,
		Description:  d.Description,
		Filename:     d.Filename,
		OriginalName: d.OriginalName,
		MimeType:     d.MimeType,
		Size:         d.Size,
		CollectionID: d.CollectionID,
		Tags:         tags,
		IsPublished:  d.IsPublished,
		SortOrder:    d.SortOrder,
		Camera:       d.Camera,
		Lens:         d.Lens,
		Settings:     domain.PhotoSettings(d.Settings),
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}, nil
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

// PhotoRepository implements domain.PhotoRepository on Firestore.
type PhotoRepository struct {
	client *firestore.Client
}

func (r *PhotoRepository) col() *firestore.CollectionRef {
	return r.client.Collection(photosPath)
}

func (r *PhotoRepository) doc(id string) *firestore.DocumentRef {
	id = strings.TrimSpace(id)
	if id == "" || strings.Contains(id, "/") {
		return nil
	}
	return r.col().Doc(id)
}

func (r *PhotoRepository) Create(ctx context.Context, p *domain.Photo) error {
	ts := now()
	ref := r.col().NewDoc()
	_, err := ref.Create(ctx, photoDoc{
		Title:        p.Title,
		Description:  p.Description,
		Filename:     p.Filename,
		OriginalName: p.OriginalName,
		MimeType:     p.MimeType,
		Size:         p.Size,
		CollectionID: p.CollectionID,
		Tags:         tagsOrEmpty(p.Tags),
		IsPublished:  p.IsPublished,
		SortOrder:    p.SortOrder,
		Camera:       p.Camera,
		Lens:         p.Lens,
		Settings:     settingsDoc(p.Settings),
		CreatedAt:    ts,
		UpdatedAt:    ts,
	})
	if err != nil {
		return fmt.Errorf("create photo: %w", err)
	}

	p.ID = ref.ID
	p.CreatedAt = ts
	p.UpdatedAt = ts
	return nil
}

func (r *PhotoRepository) GetByID(ctx context.Context, id string) (*domain.Photo, error) {
	ref := r.doc(id)
	if ref == nil {
		return nil, domain.ErrNotFound
	}

	snap, err := ref.Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get photo: %w", err)
	}
	p, err := decodePhoto(snap)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PhotoRepository) ListPublishedByCollection(ctx context.Context, collectionID string) ([]domain.Photo, error) {
	q := r.col().
		Where("collectionId", "==", collectionID).
		Where("isPublished", "==", true).
		OrderBy("sortOrder", firestore.Asc).
		OrderBy("createdAt", firestore.Desc)
	photos, err := collect(q.Documents(ctx), decodePhoto)
	if err != nil {
		return nil, fmt.Errorf("list published photos: %w", err)
	}
	return photos, nil
}

func (r *PhotoRepository) ListByCollection(ctx context.Context, collectionID string) ([]domain.Photo, error) {
	q := r.col().
		Where("collectionId", "==", collectionID).
		OrderBy("sortOrder", firestore.Asc).
		OrderBy("createdAt", firestore.Desc)
	photos, err := collect(q.Documents(ctx), decodePhoto)
	if err != nil {
		return nil, fmt.Errorf("list collection photos: %w", err)
	}
	return photos, nil
}

func (r *PhotoRepository) ListAll(ctx context.Context) ([]domain.Photo, error) {
	photos, err := collect(r.col().OrderBy("createdAt", firestore.Desc).Documents(ctx), decodePhoto)
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}
	return photos, nil
}

func (r *PhotoRepository) Update(ctx context.Context, id string, patch domain.PhotoPatch) error {
	ref := r.doc(id)
	if ref == nil {
		return domain.ErrNotFound
	}

	updates := []firestore.Update{{Path: "updatedAt", Value: now()}}
	if patch.Title != nil {
		updates = append(updates, firestore.Update{Path: "title", Value: *patch.Title})
	}
	if patch.Description != nil {
		updates = append(updates, firestore.Update{Path: "description", Value: *patch.Description})
	}
	if patch.CollectionID != nil {
		updates = append(updates, firestore.Update{Path: "collectionId", Value: *patch.CollectionID})
	}
	if patch.Tags != nil {
		updates = append(updates, firestore.Update{Path: "tags", Value: tagsOrEmpty(*patch.Tags)})
	}
	if patch.IsPublished != nil {
		updates = append(updates, firestore.Update{Path: "isPublished", Value: *patch.IsPublished})
	}
	if patch.SortOrder != nil {
		updates = append(updates, firestore.Update{Path: "sortOrder", Value: *patch.SortOrder})
	}
	if patch.Camera != nil {
		updates = append(updates, firestore.Update{Path: "camera", Value: *patch.Camera})
	}
	if patch.Lens != nil {
		updates = append(updates, firestore.Update{Path: "lens", Value: *patch.Lens})
	}
	if patch.Settings != nil {
		updates = append(updates, firestore.Update{Path: "settings", Value: settingsDoc(*patch.Settings)})
	}

	if _, err := ref.Update(ctx, updates); err != nil {
		if isNotFound(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("update photo: %w", err)
	}
	return nil
}

func (r *PhotoRepository) Delete(ctx context.Context, id string) error {
	ref := r.doc(id)
	if ref == nil {
		return domain.ErrNotFound
	}

	if _, err := ref.Delete(ctx, firestore.Exists); err != nil {
		if isNotFound(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete photo: %w", err)
	}
	return nil
}

func (r *PhotoRepository) DeleteByCollection(ctx context.Context, collectionID string) (int64, error) {
	refs, err := collect(r.col().Where("collectionId", "==", collectionID).Documents(ctx),
		func(snap *firestore.DocumentSnapshot) (*firestore.DocumentRef, error) { return snap.Ref, nil })
	if err != nil {
		return 0, fmt.Errorf("find collection photos: %w", err)
	}
	if len(refs) == 0 {
		return 0, nil
	}

	bw := r.client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(refs))
	for _, ref := range refs {
		job, err := bw.Delete(ref)
		if err != nil {
			bw.End()
			return 0, fmt.Errorf("queue photo delete: %w", err)
		}
		jobs = append(jobs, job)
	}
	bw.End()

	var removed int64
	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			return removed, fmt.Errorf("delete photo: %w", err)
		}
		removed++
	}
	return removed, nil
}
