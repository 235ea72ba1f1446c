package handler

import (
	"mime"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/msomdec/lensart-api/internal/domain"
)

// UploadsHandler serves stored image bytes read-only.
type UploadsHandler struct {
	blobs domain.BlobStore
}

// NewUploadsHandler creates a new UploadsHandler.
func NewUploadsHandler(blobs domain.BlobStore) *UploadsHandler {
	return &UploadsHandler{blobs: blobs}
}

// HandleServe serves image bytes with a Content-Type derived from the extension.
// GET /api/uploads/{filename}
func (h *UploadsHandler) HandleServe(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	if filename == "" || filename != filepath.Base(filename) {
		writeError(w, http.StatusNotFound, "File not found")
		return
	}

	data, err := h.blobs.Get(r.Context(), filename)
	if err != nil {
		writeServiceError(w, "serve upload", err, "File not found")
		return
	}

	contentType := mime.TypeByExtension(filepath.Ext(filename))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=86400, immutable")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
