package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/marketplace-backend/internal/config"
	"github.com/your-org/marketplace-backend/internal/pkg/logger"
)

func TestLocalStorage(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store, err := NewLocalStorage(root, "/uploads/")
	require.NoError(t, err)

	url, err := store.Put(ctx, "products/2026/01/a.png", "image/png", strings.NewReader("png-bytes"), 9)
	require.NoError(t, err)
	assert.Equal(t, "/uploads/products/2026/01/a.png", url)

	data, err := os.ReadFile(filepath.Join(root, "products", "2026", "01", "a.png"))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	require.NoError(t, store.Delete(ctx, "products/2026/01/a.png"))
	_, err = os.Stat(filepath.Join(root, "products", "2026", "01", "a.png"))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, store.Delete(ctx, "products/2026/01/a.png"), "deleting twice is fine")

	t.Run("rejects keys escaping the root", func(t *testing.T) {
		_, err := store.Put(ctx, "../evil.png", "image/png", strings.NewReader("x"), 1)
		assert.Error(t, err)
	})
}

type fakeS3 struct {
	puts      []*s3.PutObjectInput
	bodies    []string
	deletes   []string
	deleteErr error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, _ := io.ReadAll(in.Body)
	f.puts = append(f.puts, in)
	f.bodies = append(f.bodies, string(body))
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deletes = append(f.deletes, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, f.deleteErr
}

func TestS3Storage(t *testing.T) {
	ctx := context.Background()

	t.Run("uploads and returns the public URL", func(t *testing.T) {
		client := &fakeS3{}
		store, err := NewS3Storage(ctx, &config.StorageConfig{S3Bucket: "images", S3Region: "eu-west-1"},
			WithClient(client), WithLogger(logger.Discard()))
		require.NoError(t, err)

		url, err := store.Put(ctx, "products/a.jpg", "image/jpeg", strings.NewReader("jpeg"), 4)
		require.NoError(t, err)
		assert.Equal(t, "https://images.s3.eu-west-1.amazonaws.com/products/a.jpg", url)

		require.Len(t, client.puts, 1)
		assert.Equal(t, "images", aws.ToString(client.puts[0].Bucket))
		assert.Equal(t, "image/jpeg", aws.ToString(client.puts[0].ContentType))
		assert.EqualValues(t, 4, aws.ToInt64(client.puts[0].ContentLength))
		assert.Equal(t, "jpeg", client.bodies[0])
	})

	t.Run("prefers the CDN, then the custom endpoint", func(t *testing.T) {
		cdn := &config.StorageConfig{S3Bucket: "images", S3Endpoint: "http://minio:9000", CDNBaseURL: "https://cdn.example.com/"}
		assert.Equal(t, "https://cdn.example.com", publicBaseURL(cdn, "us-east-1"))

		minio := &config.StorageConfig{S3Bucket: "images", S3Endpoint: "http://minio:9000/"}
		assert.Equal(t, "http://minio:9000/images", publicBaseURL(minio, "us-east-1"))
	})

	t.Run("missing objects delete cleanly", func(t *testing.T) {
		client := &fakeS3{deleteErr: &types.NoSuchKey{}}
		store, err := NewS3Storage(ctx, &config.StorageConfig{S3Bucket: "images"}, WithClient(client))
		require.NoError(t, err)

		assert.NoError(t, store.Delete(ctx, "gone.png"))
		assert.Equal(t, []string{"gone.png"}, client.deletes)

		client.deleteErr = errors.New("access denied")
		assert.Error(t, store.Delete(ctx, "other.png"))
	})

	t.Run("bucket is required", func(t *testing.T) {
		_, err := NewS3Storage(ctx, &config.StorageConfig{})
		assert.Error(t, err)
	})
}

func TestNew_UnknownProvider(t *testing.T) {
	cfg := &config.Config{}
	cfg.Storage.Provider = "ftp"
	_, err := New(context.Background(), cfg, logger.Discard())
	assert.Error(t, err)
}
