package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/sirupsen/logrus"
	"github.com/your-org/marketplace-backend/internal/config"
)

// s3API is the part of the S3 client the storage uses
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Storage stores objects in an S3 compatible bucket (AWS S3, MinIO, ...)
type S3Storage struct {
	client  s3API
	bucket  string
	baseURL string
	logger  *logrus.Logger
}

// S3Option is a functional option for configuring S3Storage
type S3Option func(*S3Storage)

// WithLogger sets a custom logger
func WithLogger(logger *logrus.Logger) S3Option {
	return func(s *S3Storage) {
		s.logger = logger
	}
}

// WithClient replaces the S3 client
func WithClient(client s3API) S3Option {
	return func(s *S3Storage) {
		s.client = client
	}
}

// NewS3Storage creates an S3Storage from configuration. Static credentials
// are used when configured, otherwise the default AWS credential chain.
func NewS3Storage(ctx context.Context, cfg *config.StorageConfig, opts ...S3Option) (*S3Storage, error) {
	if cfg == nil || cfg.S3Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}

	region := cfg.S3Region
	if region == "" {
		region = "us-east-1"
	}

	storage := &S3Storage{
		bucket:  cfg.S3Bucket,
		baseURL: publicBaseURL(cfg, region),
		logger:  logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(storage)
	}
	if storage.client != nil {
		return storage, nil
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.S3AccessKey != "" && cfg.S3SecretKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	storage.client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.S3PathStyle
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		}
	})

	return storage, nil
}

// publicBaseURL picks the URL prefix objects are served from
func publicBaseURL(cfg *config.StorageConfig, region string) string {
	switch {
	case cfg.CDNBaseURL != "":
		return strings.TrimRight(cfg.CDNBaseURL, "/")
	case cfg.S3Endpoint != "":
		return strings.TrimRight(cfg.S3Endpoint, "/") + "/" + cfg.S3Bucket
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.S3Bucket, region)
	}
}

// Put implements ObjectStorage
func (s *S3Storage) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	if key == "" {
		return "", errors.New("storage key is required")
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
		CacheControl:  aws.String("public, max-age=31536000"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object: %w", err)
	}

	s.logger.WithFields(logrus.Fields{"bucket": s.bucket, "key": key}).Debug("Object uploaded")
	return s.baseURL + "/" + key, nil
}

// Delete implements ObjectStorage. Missing objects are not an error.
func (s *S3Storage) Delete(ctx context.Context, key string) error {
	if key == "" {
		return errors.New("storage key is required")
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	var noSuchKey *types.NoSuchKey
	if err != nil && !errors.As(err, &noSuchKey) {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}
