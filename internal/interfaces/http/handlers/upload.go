// internal/interfaces/http/handlers/upload.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/marketplace-backend/internal/domain/shared"
	"github.com/your-org/marketplace-backend/internal/domain/upload"
	"github.com/your-org/marketplace-backend/internal/interfaces/http/middleware"
)

// UploadHandler handles product image uploads
type UploadHandler struct {
	uploads *upload.Service
	logger  *logrus.Logger
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(uploads *upload.Service, logger *logrus.Logger) *UploadHandler {
	return &UploadHandler{uploads: uploads, logger: logger}
}

// UploadImage handles POST /uploads/images with a multipart "image" field
func (h *UploadHandler) UploadImage(c *gin.Context) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		respondError(c, h.logger, shared.ErrUnauthorized)
		return
	}

	header, err := c.FormFile("image")
	if err != nil {
		respondError(c, h.logger, shared.NewValidationError("no image file provided",
			shared.FieldError{Field: "image", Rule: "required", Message: "image is required"}))
		return
	}
	file, err := header.Open()
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	defer file.Close()

	image, err := h.uploads.UploadImage(c.Request.Context(), &upload.ImageUploadRequest{
		File:       file,
		Filename:   header.Filename,
		Size:       header.Size,
		UploadedBy: p.ID,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusCreated, "Image uploaded successfully", image)
}
