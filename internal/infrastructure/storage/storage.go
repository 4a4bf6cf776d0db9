// Package storage provides object storage for uploaded product images.
package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/your-org/marketplace-backend/internal/config"
)

// ObjectStorage stores objects under a key and returns their public URL
type ObjectStorage interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
	Delete(ctx context.Context, key string) error
}

// New builds the storage backend selected by STORAGE_PROVIDER
func New(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (ObjectStorage, error) {
	switch cfg.Storage.Provider {
	case config.StorageProviderLocal:
		return NewLocalStorage(cfg.Storage.LocalPath, cfg.Storage.LocalURL)
	case config.StorageProviderS3:
		return NewS3Storage(ctx, &cfg.Storage, WithLogger(logger))
	default:
		return nil, fmt.Errorf("unsupported storage provider %q", cfg.Storage.Provider)
	}
}
