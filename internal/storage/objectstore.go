/**
 * MinIO object store adapter
 *
 * Stores raw image bytes under <bucket>/<image_id>.jpg with a fixed JPEG
 * content type. Bucket creation is idempotent and tolerates a concurrent
 * create racing ahead of ours.
 */

package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const imageContentType = "image/jpeg"

// MinioStore is the MinIO-backed ObjectStore.
type MinioStore struct {
	client *minio.Client
	bucket string
}

// MinioConfig holds object store configuration
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// NewMinioStore creates a new MinIO-backed object store
func NewMinioStore(cfg *MinioConfig) (*MinioStore, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("MinIO endpoint is required")
	}

	if cfg.Bucket == "" {
		return nil, fmt.Errorf("MinIO bucket is required")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	return &MinioStore{client: client, bucket: cfg.Bucket}, nil
}

// EnsureBucket creates the destination bucket if it does not exist yet.
func (s *MinioStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}

	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		// another writer may have created it between the check and the create
		if exists, checkErr := s.client.BucketExists(ctx, s.bucket); checkErr == nil && exists {
			return nil
		}
		return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
	}

	return nil
}

// Store writes the image bytes and returns "bucket/<image_id>.jpg".
func (s *MinioStore) Store(ctx context.Context, data []byte, imageID string) (string, error) {
	if imageID == "" {
		return "", fmt.Errorf("image ID is required")
	}

	if err := s.EnsureBucket(ctx); err != nil {
		return "", err
	}

	key := ObjectKey(imageID)
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: imageContentType})
	if err != nil {
		return "", fmt.Errorf("failed to store object %s/%s: %w", s.bucket, key, err)
	}

	return s.bucket + "/" + key, nil
}

// Fetch reads back the stored bytes for an image id.
func (s *MinioStore) Fetch(ctx context.Context, imageID string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, ObjectKey(imageID), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch object %s: %w", imageID, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", imageID, err)
	}

	return data, nil
}

// ObjectKey derives the object key for an image id.
func ObjectKey(imageID string) string {
	return imageID + ".jpg"
}

// StoragePath derives the "bucket/key" path an image will be stored under.
// The ingest handler computes this before the upload task runs.
func StoragePath(bucket, imageID string) string {
	return bucket + "/" + ObjectKey(imageID)
}
