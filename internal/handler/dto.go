package handler

import (
	"time"

	"github.com/msomdec/lensart-api/internal/domain"
	"github.com/msomdec/lensart-api/internal/service"
)

// Response and request shapes keep the field names of the public frontend,
// including "_id" for identifiers and "collectionName" for a photo's parent.

// CollectionDTO is the JSON representation of a collection.
type CollectionDTO struct {
	ID          string `json:"_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	CoverImage  string `json:"coverImage"`
	IsPublished bool   `json:"isPublished"`
	SortOrder   int    `json:"sortOrder"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

func toCollectionDTO(c *domain.Collection) CollectionDTO {
	return CollectionDTO{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		CoverImage:  c.CoverImage,
		IsPublished: c.IsPublished,
		SortOrder:   c.SortOrder,
		CreatedAt:   c.CreatedAt.Format(time.RFC3339Nano),
		UpdatedAt:   c.UpdatedAt.Format(time.RFC3339Nano),
	}
}

func toCollectionDTOs(collections []domain.Collection) []CollectionDTO {
	dtos := make([]CollectionDTO, len(collections))
	for i := range collections {
		dtos[i] = toCollectionDTO(&collections[i])
	}
	return dtos
}

// SettingsDTO is the JSON representation of a photo's capture settings.
type SettingsDTO struct {
	Aperture    string `json:"aperture"`
	Shutter     string `json:"shutter"`
	ISO         string `json:"iso"`
	FocalLength string `json:"focalLength"`
}

// CollectionRefDTO is a photo's parent collection with its display name.
type CollectionRefDTO struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

// PhotoDTO is the JSON representation of a photo. CollectionName holds the
// parent id as a string, or a CollectionRefDTO when the name is attached.
type PhotoDTO struct {
	ID             string      `json:"_id"`
	Title          string      `json:"title"`
	Description    string      `json:"description"`
	Filename       string      `json:"filename"`
	OriginalName   string      `json:"originalName"`
	MimeType       string      `json:"mimeType"`
	Size           int64       `json:"size"`
	CollectionName any         `json:"collectionName"`
	Tags           []string    `json:"tags"`
	IsPublished    bool        `json:"isPublished"`
	SortOrder      int         `json:"sortOrder"`
	Camera         string      `json:"camera"`
	Lens           string      `json:"lens"`
	Settings       SettingsDTO `json:"settings"`
	CreatedAt      string      `json:"createdAt"`
	UpdatedAt      string      `json:"updatedAt"`
}

func toPhotoDTO(p *domain.Photo) PhotoDTO {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	return PhotoDTO{
		ID:             p.ID,
		Title:          p.Title,
		Description:    p.Description,
		Filename:       p.Filename,
		OriginalName:   p.OriginalName,
		MimeType:       p.MimeType,
		Size:           p.Size,
		CollectionName: p.CollectionID,
		Tags:           tags,
		IsPublished:    p.IsPublished,
		SortOrder:      p.SortOrder,
		Camera:         p.Camera,
		Lens:           p.Lens,
		Settings: SettingsDTO{
			Aperture:    p.Settings.Aperture,
			Shutter:     p.Settings.Shutter,
			ISO:         p.Settings.ISO,
			FocalLength: p.Settings.FocalLength,
		},
		CreatedAt: p.CreatedAt.Format(time.RFC3339Nano),
		UpdatedAt: p.UpdatedAt.Format(time.RFC3339Nano),
	}
}

func toPhotoDetailDTO(d *domain.PhotoDetail) PhotoDTO {
	dto := toPhotoDTO(&d.Photo)
	dto.CollectionName = CollectionRefDTO{ID: d.CollectionID, Name: d.ParentName}
	return dto
}

func toPhotoDetailDTOs(details []domain.PhotoDetail) []PhotoDTO {
	dtos := make([]PhotoDTO, len(details))
	for i := range details {
		dtos[i] = toPhotoDetailDTO(&details[i])
	}
	return dtos
}

// collectionRequest is the body of collection create and update. Absent
// fields decode to nil and are left unchanged on update.
type collectionRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	CoverImage  *string `json:"coverImage"`
	IsPublished *bool   `json:"isPublished"`
	SortOrder   *int    `json:"sortOrder"`
}

func (req collectionRequest) input() service.CollectionInput {
	in := service.CollectionInput{IsPublished: req.IsPublished}
	if req.Name != nil {
		in.Name = *req.Name
	}
	if req.Description != nil {
		in.Description = *req.Description
	}
	if req.CoverImage != nil {
		in.CoverImage = *req.CoverImage
	}
	if req.SortOrder != nil {
		in.SortOrder = *req.SortOrder
	}
	return in
}

func (req collectionRequest) patch() domain.CollectionPatch {
	return domain.CollectionPatch{
		Name:        req.Name,
		Description: req.Description,
		CoverImage:  req.CoverImage,
		IsPublished: req.IsPublished,
		SortOrder:   req.SortOrder,
	}
}

// photoUpdateRequest is the body of a photo update. The file provenance
// fields are not accepted.
type photoUpdateRequest struct {
	Title          *string      `json:"title"`
	Description    *string      `json:"description"`
	CollectionName *string      `json:"collectionName"`
	Tags           *[]string    `json:"tags"`
	IsPublished    *bool        `json:"isPublished"`
	SortOrder      *int         `json:"sortOrder"`
	Camera         *string      `json:"camera"`
	Lens           *string      `json:"lens"`
	Settings       *SettingsDTO `json:"settings"`
}

func (req photoUpdateRequest) patch() domain.PhotoPatch {
	p := domain.PhotoPatch{
		Title:        req.Title,
		Description:  req.Description,
		CollectionID: req.CollectionName,
		Tags:         req.Tags,
		IsPublished:  req.IsPublished,
		SortOrder:    req.SortOrder,
		Camera:       req.Camera,
		Lens:         req.Lens,
	}
	if req.Settings != nil {
		p.Settings = &domain.PhotoSettings{
			Aperture:    req.Settings.Aperture,
			Shutter:     req.Settings.Shutter,
			ISO:         req.Settings.ISO,
			FocalLength: req.Settings.FocalLength,
		}
	}
	return p
}
