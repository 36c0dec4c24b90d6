package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"eventplanner/internal/domain"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// DefaultURLExpiry is how long a presigned image URL stays valid.
const DefaultURLExpiry = 24 * time.Hour

// ErrInvalidKey is returned for object keys that are empty, absolute or contain "..".
var ErrInvalidKey = errors.New("invalid object key")

// MinioConfig holds connection settings for an S3-compatible object store.
type MinioConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Region          string
	UseSSL          bool
	URLExpiry       time.Duration
}

// MinioStore is a domain.BlobStore on a MinIO/S3 bucket.
type MinioStore struct {
	client    *minio.Client
	bucket    string
	urlExpiry time.Duration
}

// NewMinioStore connects lazily: the bucket is not
// touched until EnsureBucket or the first upload.
func NewMinioStore(cfg MinioConfig) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	expiry := cfg.URLExpiry
	if expiry <= 0 {
		expiry = DefaultURLExpiry
	}
	return &MinioStore{client: client, bucket: cfg.Bucket, urlExpiry: expiry}, nil
}

// EnsureBucket creates the bucket if it does not exist.
func (s *MinioStore) EnsureBucket(ctx context.Context, region string) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: region}); err != nil {
		return fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}
	return nil
}

func validateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

// Upload stores body under key and returns the key as the reference.
func (s *MinioStore) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	_, err := s.client.PutObject(ctx, s.bucket, key, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload object: %w", err)
	}
	return key, nil
}

// URL returns a presigned GET URL for ref.
func (s *MinioStore) URL(ctx context.Context, ref string) (string, error) {
	if err := validateKey(ref); err != nil {
		return "", err
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucket, ref, s.urlExpiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign object: %w", err)
	}
	return u.String(), nil
}

func (s *MinioStore) Delete(ctx context.Context, ref string) error {
	if err := validateKey(ref); err != nil {
		return err
	}
	if err := s.client.RemoveObject(ctx, s.bucket, ref, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object: %w", err)
	}
	return nil
}

var _ domain.BlobStore = (*MinioStore)(nil)
