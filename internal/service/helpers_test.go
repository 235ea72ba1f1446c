package service_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/msomdec/lensart-api/internal/domain"
	"github.com/msomdec/lensart-api/internal/repository/sqlite"
	"github.com/msomdec/lensart-api/internal/service"
	"github.com/msomdec/lensart-api/internal/storage/local"
)

// jpegBytes is enough of a JPEG for the upload path, which does not decode.
var jpegBytes = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F'}

type testEnv struct {
	db          *sqlite.DB
	blobs       *recordingBlobStore
	collections *service.CollectionService
	photos      *service.PhotoService
}

func newTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New DB: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestBlobs(t *testing.T) *recordingBlobStore {
	t.Helper()
	store, err := local.New(filepath.Join(t.TempDir(), "uploads"))
	if err != nil {
		t.Fatalf("local.New: %v", err)
	}
	return &recordingBlobStore{BlobStore: store}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)
	blobs := newTestBlobs(t)
	return &testEnv{
		db:          db,
		blobs:       blobs,
		collections: service.NewCollectionService(db.Collections(), db.Photos(), blobs),
		photos:      service.NewPhotoService(db.Photos(), db.Collections(), blobs),
	}
}

func (e *testEnv) createCollection(t *testing.T, name string) *domain.Collection {
	t.Helper()
	c, err := e.collections.Create(context.Background(), service.CollectionInput{Name: name})
	if err != nil {
		t.Fatalf("create collection %q: %v", name, err)
	}
	return c
}

func (e *testEnv) upload(t *testing.T, collectionID, filename string) *domain.Photo {
	t.Helper()
	p, err := e.photos.Upload(context.Background(),
		service.UploadInput{CollectionID: collectionID},
		service.FileUpload{Filename: filename, ContentType: "image/jpeg", Data: jpegBytes},
	)
	if err != nil {
		t.Fatalf("upload %q: %v", filename, err)
	}
	return p
}

// recordingBlobStore counts writes so tests can assert that nothing was stored.
type recordingBlobStore struct {
	domain.BlobStore

	mu    sync.Mutex
	saves int
}

func (r *recordingBlobStore) Save(ctx context.Context, key, contentType string, data []byte) error {
	r.mu.Lock()
	r.saves++
	r.mu.Unlock()
	return r.BlobStore.Save(ctx, key, contentType, data)
}

func (r *recordingBlobStore) saveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saves
}

func (r *recordingBlobStore) exists(t *testing.T, key string) bool {
	t.Helper()
	ok, err := r.Exists(context.Background(), key)
	if err != nil {
		t.Fatalf("Exists(%q): %v", key, err)
	}
	return ok
}

var errStoreDown = errors.New("store unavailable")

// failingPhotoRepo rejects every Create, remembering the filename it was given.
type failingPhotoRepo struct {
	domain.PhotoRepository
	attempted string
}

func (f *failingPhotoRepo) Create(ctx context.Context, p *domain.Photo) error {
	f.attempted = p.Filename
	return errStoreDown
}

// failingCoverRepo fails the cover-image backfill.
type failingCoverRepo struct {
	domain.CollectionRepository
}

func (failingCoverRepo) SetCoverImageIfUnset(context.Context, string, string) (bool, error) {
	return false, errStoreDown
}

// failingDeleteBlobs refuses to delete anything.
type failingDeleteBlobs struct {
	domain.BlobStore
}

func (failingDeleteBlobs) Delete(context.Context, string) error {
	return errStoreDown
}
