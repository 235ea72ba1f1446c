// Package local stores image blobs as files in a single directory.
package local

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/msomdec/lensart-api/internal/domain"
)

// Store implements domain.BlobStore on the local filesystem.
type Store struct {
	basePath string
}

var _ domain.BlobStore = (*Store)(nil)

// New creates the base directory if needed and returns a store rooted there.
func New(basePath string) (*Store, error) {
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("invalid uploads path %q: %w", basePath, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads directory %q: %w", abs, err)
	}

	slog.Info("local blob store ready", "path", abs)
	return &Store{basePath: abs}, nil
}

// path resolves key inside the base directory. Keys are flat file names.
func (s *Store) path(key string) (string, bool) {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) {
		return "", false
	}
	return filepath.Join(s.basePath, key), true
}

// Save writes to a temporary file and renames it into place so readers
// never observe a partial image.
func (s *Store) Save(ctx context.Context, key, contentType string, data []byte) error {
	p, ok := s.path(key)
	if !ok {
		return fmt.Errorf("%w: invalid blob key %q", domain.ErrInvalidInput, key)
	}

	tmp, err := os.CreateTemp(s.basePath, ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", key, err)
	}
	if err := os.Rename(tmpName, p); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("move %s into place: %w", key, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	p, ok := s.path(key)
	if !ok {
		return nil, domain.ErrNotFound
	}

	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	p, ok := s.path(key)
	if !ok {
		return false, nil
	}

	if _, err := os.Stat(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", key, err)
	}
	return true, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	p, ok := s.path(key)
	if !ok {
		return nil
	}

	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}
