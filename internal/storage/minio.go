// Package storage uploads tracking snapshots to MinIO or any
// S3-compatible bucket.
package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/joshijeet02/Career-huntin/internal/config"
)

// Client wraps a MinIO client behind the small surface the tracking
// exporter needs.
type Client struct {
	client *minio.Client
	bucket string
}

// NewClient initializes the MinIO client and makes sure the snapshot
// bucket exists.
func NewClient(cfg config.MinIOConfig) (*Client, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %q: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("make bucket %q: %w", cfg.Bucket, err)
		}
	}

	return &Client{client: client, bucket: cfg.Bucket}, nil
}

// UploadSnapshot stores one exported snapshot under objectName,
// overwriting any previous object with the same name.
func (c *Client) UploadSnapshot(ctx context.Context, objectName string, reader io.Reader, size int64) error {
	opts := minio.PutObjectOptions{ContentType: "text/csv"}
	if _, err := c.client.PutObject(ctx, c.bucket, objectName, reader, size, opts); err != nil {
		return fmt.Errorf("put object %q: %w", objectName, err)
	}
	return nil
}

// PresignedSnapshotURL returns a time-limited download link for a
// previously uploaded snapshot.
func (c *Client) PresignedSnapshotURL(ctx context.Context, objectName string, duration time.Duration) (string, error) {
	u, err := c.client.PresignedGetObject(ctx, c.bucket, objectName, duration, nil)
	if err != nil {
		return "", fmt.Errorf("presign object %q: %w", objectName, err)
	}
	return u.String(), nil
}
