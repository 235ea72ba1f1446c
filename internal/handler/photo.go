package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/msomdec/lensart-api/internal/domain"
	"github.com/msomdec/lensart-api/internal/service"
)

const (
	photoNotFound = "Photo not found"

	// multipartOverhead is the allowance for form fields and part headers
	// on top of the image itself.
	multipartOverhead = 1 << 20
	// multipartMemory is how much of a multipart body is held in memory
	// before parts spill to temporary files.
	multipartMemory = 32 << 20
)

// PhotoHandler handles photo listing, upload, and admin edits.
type PhotoHandler struct {
	photos *service.PhotoService
}

// NewPhotoHandler creates a new PhotoHandler.
func NewPhotoHandler(photos *service.PhotoService) *PhotoHandler {
	return &PhotoHandler{photos: photos}
}

// HandleListByCollection returns the published photos of one collection.
// GET /api/photos/collection/{collectionId}
func (h *PhotoHandler) HandleListByCollection(w http.ResponseWriter, r *http.Request) {
	photos, err := h.photos.ListByCollection(r.Context(), chi.URLParam(r, "collectionId"))
	if err != nil {
		writeServiceError(w, "list collection photos", err, collectionNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toPhotoDetailDTOs(photos))
}

// HandleListAll returns every photo, newest first.
// GET /api/photos/admin
func (h *PhotoHandler) HandleListAll(w http.ResponseWriter, r *http.Request) {
	photos, err := h.photos.ListAll(r.Context())
	if err != nil {
		writeServiceError(w, "list photos", err, photoNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toPhotoDetailDTOs(photos))
}

// HandleUpload stores an uploaded image and its metadata.
// POST /api/photos/upload (multipart/form-data, file field "photo")
// Response: 201 {photo}
func (h *PhotoHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, domain.MaxUploadSize+multipartOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusBadRequest, "File exceeds the 50MB limit")
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("photo")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	// One byte past the limit is enough for the service to reject it.
	data, err := io.ReadAll(io.LimitReader(file, domain.MaxUploadSize+1))
	if err != nil {
		slog.Error("read upload", "error", err)
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	in := service.UploadInput{
		Title:        r.FormValue("title"),
		Description:  r.FormValue("description"),
		CollectionID: r.FormValue("collection"),
		Tags:         r.FormValue("tags"),
		Camera:       r.FormValue("camera"),
		Lens:         r.FormValue("lens"),
		Settings: domain.PhotoSettings{
			Aperture:    r.FormValue("aperture"),
			Shutter:     r.FormValue("shutter"),
			ISO:         r.FormValue("iso"),
			FocalLength: r.FormValue("focalLength"),
		},
	}
	upload := service.FileUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}

	p, err := h.photos.Upload(r.Context(), in, upload)
	if err != nil {
		writeServiceError(w, "upload photo", err, photoNotFound)
		return
	}
	slog.Info("photo uploaded", "photo_id", p.ID, "filename", p.Filename, "size", p.Size)
	writeJSON(w, http.StatusCreated, toPhotoDTO(p))
}

// HandleUpdate applies a partial update to a photo's metadata.
// PUT /api/photos/{id}
func (h *PhotoHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req photoUpdateRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	p, err := h.photos.Update(r.Context(), chi.URLParam(r, "id"), req.patch())
	if err != nil {
		writeServiceError(w, "update photo", err, photoNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toPhotoDetailDTO(p))
}

// HandleDelete deletes a photo and its blob.
// DELETE /api/photos/{id}
func (h *PhotoHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.photos.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, "delete photo", err, photoNotFound)
		return
	}
	writeMessage(w, "Photo deleted successfully")
}
