package storage

import (
	"context"
	"time"
)

// UploadResult reports where the stored object ended up.
type UploadResult struct {
	URL  string
	Size int64
}

// Storage abstracts the blob backend archived documents live in.
// Implementations exist for the local filesystem (demo/tests) and can
// be added for S3-compatible object stores without touching the
// archive service.
type Storage interface {
	Upload(ctx context.Context, bucket, path string, data []byte) (*UploadResult, error)
	Download(ctx context.Context, bucket, path string) ([]byte, error)
	Delete(ctx context.Context, bucket, path string) error
	Exists(ctx context.Context, bucket, path string) (bool, error)

	// GetSignedURL returns a time-limited URL for downloading the object
	// without further authentication.
	GetSignedURL(ctx context.Context, bucket, path string, ttl time.Duration) (string, error)
}
