package storage

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LocalStorage implements Storage on the local filesystem. Buckets map
// to subdirectories of the root; signed URLs point at the ops HTTP
// server which serves them back. Meant for demo and test deployments.
type LocalStorage struct {
	root    string
	baseURL string
}

func NewLocalStorage(root, baseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &LocalStorage{root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *LocalStorage) objectPath(bucket, path string) (string, error) {
	if bucket == "" || path == "" {
		return "", fmt.Errorf("bucket and path are required")
	}
	full := filepath.Join(s.root, bucket, filepath.FromSlash(path))
	// Object paths are derived by the archive service; reject anything
	// escaping the root regardless.
	if !strings.HasPrefix(full, filepath.Clean(s.root)+string(os.PathSeparator)) {
		return "", fmt.Errorf("invalid object path %q", path)
	}
	return full, nil
}

func (s *LocalStorage) Upload(ctx context.Context, bucket, path string, data []byte) (*UploadResult, error) {
	full, err := s.objectPath(bucket, path)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create object directory: %w", err)
	}
	// Write-then-rename so a crash never leaves a truncated object.
	tmp := full + "." + uuid.New().String() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write object: %w", err)
	}
	if err := os.Rename(tmp, full); err != nil {
		os.Remove(tmp)
		return nil, fmt.Errorf("failed to finalize object: %w", err)
	}
	return &UploadResult{
		URL:  fmt.Sprintf("%s/storage/%s/%s", s.baseURL, bucket, path),
		Size: int64(len(data)),
	}, nil
}

func (s *LocalStorage) Download(ctx context.Context, bucket, path string) ([]byte, error) {
	full, err := s.objectPath(bucket, path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s/%s: %w", bucket, path, err)
	}
	return data, nil
}

func (s *LocalStorage) Delete(ctx context.Context, bucket, path string) error {
	full, err := s.objectPath(bucket, path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil {
		return fmt.Errorf("failed to delete object %s/%s: %w", bucket, path, err)
	}
	return nil
}

func (s *LocalStorage) Exists(ctx context.Context, bucket, path string) (bool, error) {
	full, err := s.objectPath(bucket, path)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(full); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *LocalStorage) GetSignedURL(ctx context.Context, bucket, path string, ttl time.Duration) (string, error) {
	if _, err := s.objectPath(bucket, path); err != nil {
		return "", err
	}
	// The object key travels in a query parameter so the download
	// handler does not need to parse nested paths out of the route.
	token := uuid.New().String()
	expires := time.Now().Add(ttl).Unix()
	return fmt.Sprintf("%s/storage/download?bucket=%s&key=%s&token=%s&expires=%d",
		s.baseURL, url.QueryEscape(bucket), url.QueryEscape(path), token, expires), nil
}
