package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/msomdec/lensart-api/internal/domain"
)

var photoColumns = []string{
	"id", "title", "description", "filename", "original_name", "mime_type", "size",
	"collection_id", "tags", "is_published", "sort_order", "camera", "lens",
	"aperture", "shutter", "iso", "focal_length", "created_at", "updated_at",
}

// PhotoRepository implements domain.PhotoRepository using SQLite.
// Tags are stored as a JSON array in a TEXT column.
type PhotoRepository struct {
	db *sql.DB
}

// NewPhotoRepository creates a new SQLite-backed PhotoRepository.
func NewPhotoRepository(db *DB) *PhotoRepository {
	return &PhotoRepository{db: db.SqlDB}
}

func (r *PhotoRepository) Create(ctx context.Context, p *domain.Photo) error {
	tags, err := encodeTags(p.Tags)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	id := uuid.NewString()

	query, args, err := psql.Insert("photos").
		Columns(photoColumns...).
		Values(id, p.Title, p.Description, p.Filename, p.OriginalName, p.MimeType, p.Size,
			p.CollectionID, tags, p.IsPublished, p.SortOrder, p.Camera, p.Lens,
			p.Settings.Aperture, p.Settings.Shutter, p.Settings.ISO, p.Settings.FocalLength,
			now.UnixNano(), now.UnixNano()).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert photo: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("insert photo: filename %q already stored: %w", p.Filename, err)
		}
		return fmt.Errorf("insert photo: %w", err)
	}

	p.ID = id
	p.CreatedAt = now
	p.UpdatedAt = now
	return nil
}

func (r *PhotoRepository) GetByID(ctx context.Context, id string) (*domain.Photo, error) {
	query, args, err := psql.Select(photoColumns...).
		From("photos").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get photo: %w", err)
	}

	p, err := scanPhoto(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get photo: %w", err)
	}
	return p, nil
}

func (r *PhotoRepository) ListPublishedByCollection(ctx context.Context, collectionID string) ([]domain.Photo, error) {
	return r.list(ctx, psql.Select(photoColumns...).
		From("photos").
		Where(sq.Eq{"collection_id": collectionID, "is_published": true}).
		OrderBy("sort_order ASC", "created_at DESC"))
}

func (r *PhotoRepository) ListByCollection(ctx context.Context, collectionID string) ([]domain.Photo, error) {
	return r.list(ctx, psql.Select(photoColumns...).
		From("photos").
		Where(sq.Eq{"collection_id": collectionID}).
		OrderBy("sort_order ASC", "created_at DESC"))
}

func (r *PhotoRepository) ListAll(ctx context.Context) ([]domain.Photo, error) {
	return r.list(ctx, psql.Select(photoColumns...).
		From("photos").
		OrderBy("created_at DESC"))
}

func (r *PhotoRepository) list(ctx context.Context, b sq.SelectBuilder) ([]domain.Photo, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list photos: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}
	defer rows.Close()

	photos := []domain.Photo{}
	for rows.Next() {
		p, err := scanPhoto(rows)
		if err != nil {
			return nil, fmt.Errorf("scan photo: %w", err)
		}
		photos = append(photos, *p)
	}
	return photos, rows.Err()
}

func (r *PhotoRepository) Update(ctx context.Context, id string, patch domain.PhotoPatch) error {
	set := map[string]any{"updated_at": time.Now().UTC().UnixNano()}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.CollectionID != nil {
		set["collection_id"] = *patch.CollectionID
	}
	if patch.Tags != nil {
		tags, err := encodeTags(*patch.Tags)
		if err != nil {
			return err
		}
		set["tags"] = tags
	}
	if patch.IsPublished != nil {
		set["is_published"] = *patch.IsPublished
	}
	if patch.SortOrder != nil {
		set["sort_order"] = *patch.SortOrder
	}
	if patch.Camera != nil {
		set["camera"] = *patch.Camera
	}
	if patch.Lens != nil {
		set["lens"] = *patch.Lens
	}
	if s := patch.Settings; s != nil {
		set["aperture"] = s.Aperture
		set["shutter"] = s.Shutter
		set["iso"] = s.ISO
		set["focal_length"] = s.FocalLength
	}

	query, args, err := psql.Update("photos").
		SetMap(set).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update photo: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update photo: %w", err)
	}
	return requireAffected(result)
}

func (r *PhotoRepository) Delete(ctx context.Context, id string) error {
	query, args, err := psql.Delete("photos").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete photo: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete photo: %w", err)
	}
	return requireAffected(result)
}

func (r *PhotoRepository) DeleteByCollection(ctx context.Context, collectionID string) (int64, error) {
	query, args, err := psql.Delete("photos").Where(sq.Eq{"collection_id": collectionID}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete photos: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete photos by collection: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

func scanPhoto(row rowScanner) (*domain.Photo, error) {
	var p domain.Photo
	var tags string
	var createdAt, updatedAt int64
	if err := row.Scan(&p.ID, &p.Title, &p.Description, &p.Filename, &p.OriginalName,
		&p.MimeType, &p.Size, &p.CollectionID, &tags, &p.IsPublished, &p.SortOrder,
		&p.Camera, &p.Lens, &p.Settings.Aperture, &p.Settings.Shutter, &p.Settings.ISO,
		&p.Settings.FocalLength, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tags), &p.Tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	p.CreatedAt = time.Unix(0, createdAt).UTC()
	p.UpdatedAt = time.Unix(0, updatedAt).UTC()
	return &p, nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encode tags: %w", err)
	}
	return string(b), nil
}
