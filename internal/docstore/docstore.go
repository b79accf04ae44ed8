// Package docstore serves FDD files from S3-compatible object storage.
package docstore

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Client wraps a MinIO connection to the FDD bucket.
type Client struct {
	mc     *minio.Client
	bucket string
	ttl    time.Duration
}

func New(endpoint, accessKey, secretKey, bucket string, useSSL bool, ttl time.Duration) (*Client, error) {
	mc, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Client{mc: mc, bucket: bucket, ttl: ttl}, nil
}

// PresignedDownloadURL returns a time-limited URL for the object, forcing
// an attachment download under the given filename.
func (c *Client) PresignedDownloadURL(ctx context.Context, objectKey, filename string) (string, error) {
	params := make(url.Values)
	if filename != "" {
		params.Set("response-content-disposition", fmt.Sprintf("attachment; filename=%q", filename))
	}
	u, err := c.mc.PresignedGetObject(ctx, c.bucket, objectKey, c.ttl, params)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", objectKey, err)
	}
	return u.String(), nil
}
