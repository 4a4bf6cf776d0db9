// internal/domain/upload/entity.go
package upload

import (
	"io"
	"time"
)

// ImageUploadRequest represents an image upload request
type ImageUploadRequest struct {
	File       io.Reader
	Filename   string
	Size       int64
	UploadedBy string
}

// UploadedImage describes a stored image. URL is what sellers put in a product's image_url.
type UploadedImage struct {
	URL         string    `json:"url"`
	Key         string    `json:"key"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	UploadedAt  time.Time `json:"uploaded_at"`
}
