package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/msomdec/lensart-api/internal/service"
)

const collectionNotFound = "Collection not found"

// CollectionHandler handles collection listing and admin CRUD.
type CollectionHandler struct {
	collections *service.CollectionService
}

// NewCollectionHandler creates a new CollectionHandler.
func NewCollectionHandler(collections *service.CollectionService) *CollectionHandler {
	return &CollectionHandler{collections: collections}
}

// HandleListPublished returns the published collections.
// GET /api/collections
func (h *CollectionHandler) HandleListPublished(w http.ResponseWriter, r *http.Request) {
	collections, err := h.collections.ListPublished(r.Context())
	if err != nil {
		writeServiceError(w, "list published collections", err, collectionNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toCollectionDTOs(collections))
}

// HandleListAll returns every collection, published or not.
// GET /api/collections/admin
func (h *CollectionHandler) HandleListAll(w http.ResponseWriter, r *http.Request) {
	collections, err := h.collections.ListAll(r.Context())
	if err != nil {
		writeServiceError(w, "list collections", err, collectionNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toCollectionDTOs(collections))
}

// HandleCreate creates a collection.
// POST /api/collections
// Request:  {"name":"...","description":"...","isPublished":true,"sortOrder":0}
// Response: 201 {collection}
func (h *CollectionHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req collectionRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	c, err := h.collections.Create(r.Context(), req.input())
	if err != nil {
		writeServiceError(w, "create collection", err, collectionNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, toCollectionDTO(c))
}

// HandleUpdate applies a partial update to a collection.
// PUT /api/collections/{id}
func (h *CollectionHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req collectionRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	c, err := h.collections.Update(r.Context(), chi.URLParam(r, "id"), req.patch())
	if err != nil {
		writeServiceError(w, "update collection", err, collectionNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toCollectionDTO(c))
}

// HandleDelete deletes a collection together with its photos and their blobs.
// DELETE /api/collections/{id}
func (h *CollectionHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	result, err := h.collections.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, "delete collection", err, collectionNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":       "Collection and associated photos deleted",
		"photosRemoved": result.PhotosRemoved,
		"blobsRemoved":  result.BlobsRemoved,
	})
}
