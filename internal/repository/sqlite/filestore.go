package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/msomdec/lensart-api/internal/domain"
)

// fileStore implements domain.BlobStore using SQLite BLOBs. It suits
// single-node deployments where the database file is the only volume.
type fileStore struct {
	db *sql.DB
}

func (s *fileStore) Save(ctx context.Context, key, contentType string, data []byte) error {
	query, args, err := psql.Insert("file_blobs").
		Columns("storage_key", "content_type", "data", "created_at").
		Values(key, contentType, data, time.Now().UTC().UnixNano()).
		ToSql()
	if err != nil {
		return fmt.Errorf("build save file blob: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save file blob: %w", err)
	}
	return nil
}

func (s *fileStore) Get(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT data FROM file_blobs WHERE storage_key = ?", key,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get file blob: %w", err)
	}
	return data, nil
}

func (s *fileStore) Exists(ctx context.Context, key string) (bool, error) {
	query, args, err := psql.Select("COUNT(*)").
		From("file_blobs").
		Where(sq.Eq{"storage_key": key}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build file blob exists: %w", err)
	}

	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return false, fmt.Errorf("check file blob: %w", err)
	}
	return n > 0, nil
}

func (s *fileStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM file_blobs WHERE storage_key = ?", key,
	)
	if err != nil {
		return fmt.Errorf("delete file blob: %w", err)
	}
	return nil
}
