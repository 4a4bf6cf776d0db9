// internal/domain/upload/service.go
package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/your-org/marketplace-backend/internal/config"
	"github.com/your-org/marketplace-backend/internal/domain/shared"
	"github.com/your-org/marketplace-backend/internal/infrastructure/storage"
)

// sniffLen is how much of the file http.DetectContentType looks at
const sniffLen = 512

// Service handles file upload business logic
type Service struct {
	storage storage.ObjectStorage
	maxSize int64
	allowed map[string]bool
	logger  *logrus.Logger
	now     func() time.Time
}

// NewService creates a new upload service
func NewService(store storage.ObjectStorage, cfg *config.Config, logger *logrus.Logger) *Service {
	allowed := make(map[string]bool, len(cfg.Upload.AllowedExtensions))
	for _, ext := range cfg.Upload.AllowedExtensions {
		allowed[strings.ToLower(strings.TrimPrefix(ext, "."))] = true
	}
	return &Service{
		storage: store,
		maxSize: cfg.Upload.MaxSize,
		allowed: allowed,
		logger:  logger,
		now:     time.Now,
	}
}

// UploadImage validates and stores a product image
func (s *Service) UploadImage(ctx context.Context, req *ImageUploadRequest) (*UploadedImage, error) {
	ext, err := s.validateImageFile(req)
	if err != nil {
		return nil, err
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(req.File, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	head = head[:n]

	contentType := http.DetectContentType(head)
	if !strings.HasPrefix(contentType, "image/") {
		return nil, imageError("content", "file content is not an image")
	}

	key := s.generateKey(ext)
	url, err := s.storage.Put(ctx, key, contentType, io.MultiReader(bytes.NewReader(head), req.File), req.Size)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"key":         key,
		"size":        req.Size,
		"uploaded_by": req.UploadedBy,
	}).Info("Image uploaded")

	return &UploadedImage{
		URL:         url,
		Key:         key,
		ContentType: contentType,
		Size:        req.Size,
		UploadedAt:  s.now().UTC(),
	}, nil
}

func (s *Service) validateImageFile(req *ImageUploadRequest) (string, error) {
	if req.File == nil || req.Size <= 0 {
		return "", imageError("required", "image is required")
	}
	if s.maxSize > 0 && req.Size > s.maxSize {
		return "", imageError("max", fmt.Sprintf("image must be at most %d bytes", s.maxSize))
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(req.Filename), "."))
	if !s.allowed[ext] {
		return "", imageError("extension", fmt.Sprintf("file type %q is not allowed", ext))
	}
	return ext, nil
}

// generateKey lays images out as products/yyyy/mm/<uuid>.<ext>
func (s *Service) generateKey(ext string) string {
	now := s.now().UTC()
	return fmt.Sprintf("products/%04d/%02d/%s.%s", now.Year(), int(now.Month()), uuid.NewString(), ext)
}

func imageError(rule, message string) error {
	return shared.NewValidationError("invalid image", shared.FieldError{
		Field:   "image",
		Rule:    rule,
		Message: message,
	})
}
