package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Config holds the connection details for the S3-compatible image store.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// MinioStore is an ImageStore backed by an S3-compatible object store.
type MinioStore struct {
	client *minio.Client
	cfg    Config
}

// NewMinioStore connects to the object store and ensures the image bucket
// exists.
func NewMinioStore(ctx context.Context, cfg Config) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to object store: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.Bucket, err)
		}
	}

	return &MinioStore{client: client, cfg: cfg}, nil
}

// Upload stores the image under a generated unique name and returns it.
func (s *MinioStore) Upload(ctx context.Context, originalName, contentType string, r io.Reader, size int64) (string, error) {
	imageName := NewImageName(originalName)
	_, err := s.client.PutObject(ctx, s.cfg.Bucket, imageName, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload image %s: %w", imageName, err)
	}
	return imageName, nil
}

// URL resolves a stored image name to its public URL.
func (s *MinioStore) URL(imageName string) string {
	scheme := "http"
	if s.cfg.UseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.cfg.Endpoint, s.cfg.Bucket, imageName)
}

// Delete removes a stored image. Removing an absent object succeeds.
func (s *MinioStore) Delete(ctx context.Context, imageName string) error {
	err := s.client.RemoveObject(ctx, s.cfg.Bucket, imageName, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to delete image %s: %w", imageName, err)
	}
	return nil
}
