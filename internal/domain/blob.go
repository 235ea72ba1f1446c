package domain

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// MaxUploadSize is the largest accepted image payload.
const MaxUploadSize = 50 << 20 // 50MiB

// allowedImageTypes maps accepted file extensions to their media subtype.
var allowedImageTypes = map[string]bool{
	"jpeg": true,
	"jpg":  true,
	"png":  true,
	"gif":  true,
	"webp": true,
}

// BlobStore abstracts raw image byte storage, keyed by generated filename.
// Implementations exist for the local filesystem, SQLite BLOBs, S3 and GCS.
type BlobStore interface {
	Save(ctx context.Context, key, contentType string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
	// Delete removes the blob. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// CheckImageUpload enforces the upload acceptance policy: the filename
// extension and the declared media type must both name an allowed image
// format, and the payload must be non-empty and within MaxUploadSize.
func CheckImageUpload(filename, mimeType string, size int64) error {
	if size <= 0 {
		return fmt.Errorf("%w: no file uploaded", ErrInvalidInput)
	}
	if size > MaxUploadSize {
		return fmt.Errorf("%w: file exceeds the 50MB limit", ErrInvalidInput)
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if !allowedImageTypes[ext] {
		return fmt.Errorf("%w: only image files are allowed", ErrInvalidInput)
	}

	mediaType := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = strings.TrimSpace(mediaType[:i])
	}
	sub, ok := strings.CutPrefix(mediaType, "image/")
	if !ok || !allowedImageTypes[sub] {
		return fmt.Errorf("%w: only image files are allowed", ErrInvalidInput)
	}
	return nil
}
