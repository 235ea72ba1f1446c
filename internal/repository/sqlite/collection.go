package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/msomdec/lensart-api/internal/domain"
)

var collectionColumns = []string{
	"id", "name", "description", "cover_image", "is_published", "sort_order", "created_at", "updated_at",
}

// CollectionRepository implements domain.CollectionRepository using SQLite.
type CollectionRepository struct {
	db *sql.DB
}

// NewCollectionRepository creates a new SQLite-backed CollectionRepository.
func NewCollectionRepository(db *DB) *CollectionRepository {
	return &CollectionRepository{db: db.SqlDB}
}

func (r *CollectionRepository) Create(ctx context.Context, c *domain.Collection) error {
	now := time.Now().UTC()
	id := uuid.NewString()

	query, args, err := psql.Insert("collections").
		Columns(collectionColumns...).
		Values(id, c.Name, c.Description, c.CoverImage, c.IsPublished, c.SortOrder, now.UnixNano(), now.UnixNano()).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert collection: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert collection: %w", err)
	}

	c.ID = id
	c.CreatedAt = now
	c.UpdatedAt = now
	return nil
}

func (r *CollectionRepository) GetByID(ctx context.Context, id string) (*domain.Collection, error) {
	query, args, err := psql.Select(collectionColumns...).
		From("collections").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get collection: %w", err)
	}

	c, err := scanCollection(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get collection: %w", err)
	}
	return c, nil
}

func (r *CollectionRepository) ListPublished(ctx context.Context) ([]domain.Collection, error) {
	return r.list(ctx, sq.Eq{"is_published": true})
}

func (r *CollectionRepository) ListAll(ctx context.Context) ([]domain.Collection, error) {
	return r.list(ctx, nil)
}

func (r *CollectionRepository) list(ctx context.Context, filter sq.Sqlizer) ([]domain.Collection, error) {
	b := psql.Select(collectionColumns...).
		From("collections").
		OrderBy("sort_order ASC", "created_at DESC")
	if filter != nil {
		b = b.Where(filter)
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list collections: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	defer rows.Close()

	collections := []domain.Collection{}
	for rows.Next() {
		c, err := scanCollection(rows)
		if err != nil {
			return nil, fmt.Errorf("scan collection: %w", err)
		}
		collections = append(collections, *c)
	}
	return collections, rows.Err()
}

func (r *CollectionRepository) Update(ctx context.Context, id string, patch domain.CollectionPatch) error {
	set := map[string]any{"updated_at": time.Now().UTC().UnixNano()}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.CoverImage != nil {
		set["cover_image"] = *patch.CoverImage
	}
	if patch.IsPublished != nil {
		set["is_published"] = *patch.IsPublished
	}
	if patch.SortOrder != nil {
		set["sort_order"] = *patch.SortOrder
	}

	query, args, err := psql.Update("collections").
		SetMap(set).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update collection: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update collection: %w", err)
	}
	return requireAffected(result)
}

func (r *CollectionRepository) SetCoverImageIfUnset(ctx context.Context, id, filename string) (bool, error) {
	query, args, err := psql.Update("collections").
		Set("cover_image", filename).
		Set("updated_at", time.Now().UTC().UnixNano()).
		Where(sq.Eq{"id": id, "cover_image": ""}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build set cover image: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("set cover image: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (r *CollectionRepository) Delete(ctx context.Context, id string) error {
	query, args, err := psql.Delete("collections").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete collection: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	return requireAffected(result)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCollection(row rowScanner) (*domain.Collection, error) {
	var c domain.Collection
	var createdAt, updatedAt int64
	if err := row.Scan(&c.ID, &c.Name, &c.Description, &c.CoverImage,
		&c.IsPublished, &c.SortOrder, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	c.CreatedAt = time.Unix(0, createdAt).UTC()
	c.UpdatedAt = time.Unix(0, updatedAt).UTC()
	return &c, nil
}

// requireAffected maps a write that touched no rows to domain.ErrNotFound.
func requireAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
