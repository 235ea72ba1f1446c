// Package blobtest holds behaviour checks shared by every blob store.
package blobtest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/msomdec/lensart-api/internal/domain"
)

// Run exercises store with keys unique to this invocation, so it is safe
// against shared buckets.
func Run(t *testing.T, store domain.BlobStore) {
	t.Helper()
	ctx := context.Background()
	prefix := fmt.Sprintf("blobtest-%d", time.Now().UnixNano())

	t.Run("RoundTrip", func(t *testing.T) {
		key := prefix + "-round.jpg"
		data := []byte{0xFF, 0xD8, 0xFF, 0xDB, 0x00, 0x43}
		if err := store.Save(ctx, key, "image/jpeg", data); err != nil {
			t.Fatalf("Save: %v", err)
		}
		t.Cleanup(func() { store.Delete(context.Background(), key) })

		got, err := store.Get(ctx, key)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if !bytes.Equal(got, data) {
			t.Fatalf("Get returned %x, want %x", got, data)
		}
		if ok, err := store.Exists(ctx, key); err != nil || !ok {
			t.Fatalf("Exists: ok=%v err=%v", ok, err)
		}
	})

	t.Run("MissingKey", func(t *testing.T) {
		key := prefix + "-missing.png"
		if _, err := store.Get(ctx, key); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("Get: expected ErrNotFound, got %v", err)
		}
		if ok, err := store.Exists(ctx, key); err != nil || ok {
			t.Fatalf("Exists: ok=%v err=%v", ok, err)
		}
		if err := store.Delete(ctx, key); err != nil {
			t.Fatalf("Delete of absent key: %v", err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		key := prefix + "-delete.webp"
		if err := store.Save(ctx, key, "image/webp", []byte("RIFF")); err != nil {
			t.Fatalf("Save: %v", err)
		}
		if err := store.Delete(ctx, key); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if ok, err := store.Exists(ctx, key); err != nil || ok {
			t.Fatalf("Exists after delete: ok=%v err=%v", ok, err)
		}
	})
}
