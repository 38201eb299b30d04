package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(t.TempDir(), "http://localhost:8081/")
	require.NoError(t, err)

	t.Run("UploadDownloadRoundTrip", func(t *testing.T) {
		res, err := s.Upload(ctx, "contracts", "tenant-1/2026/08/c-1.pdf", []byte("document"))
		require.NoError(t, err)
		assert.Equal(t, int64(8), res.Size)

		data, err := s.Download(ctx, "contracts", "tenant-1/2026/08/c-1.pdf")
		require.NoError(t, err)
		assert.Equal(t, []byte("document"), data)
	})

	t.Run("UploadOverwritesExisting", func(t *testing.T) {
		_, err := s.Upload(ctx, "contracts", "tenant-1/drafts/c-2.pdf", []byte("v1"))
		require.NoError(t, err)
		_, err = s.Upload(ctx, "contracts", "tenant-1/drafts/c-2.pdf", []byte("v2"))
		require.NoError(t, err)

		data, err := s.Download(ctx, "contracts", "tenant-1/drafts/c-2.pdf")
		require.NoError(t, err)
		assert.Equal(t, []byte("v2"), data)
	})

	t.Run("ExistsAndDelete", func(t *testing.T) {
		_, err := s.Upload(ctx, "contracts", "tenant-1/drafts/c-3.pdf", []byte("x"))
		require.NoError(t, err)

		ok, err := s.Exists(ctx, "contracts", "tenant-1/drafts/c-3.pdf")
		require.NoError(t, err)
		assert.True(t, ok)

		require.NoError(t, s.Delete(ctx, "contracts", "tenant-1/drafts/c-3.pdf"))

		ok, err = s.Exists(ctx, "contracts", "tenant-1/drafts/c-3.pdf")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("DownloadMissingFails", func(t *testing.T) {
		_, err := s.Download(ctx, "contracts", "tenant-1/none.pdf")
		assert.Error(t, err)
	})

	t.Run("PathTraversalRejected", func(t *testing.T) {
		_, err := s.Upload(ctx, "contracts", "../../etc/passwd", []byte("nope"))
		assert.Error(t, err)
		_, err = s.Download(ctx, "..", "passwd")
		assert.Error(t, err)
	})

	t.Run("EmptyBucketOrPathRejected", func(t *testing.T) {
		_, err := s.Upload(ctx, "", "a.pdf", []byte("x"))
		assert.Error(t, err)
		_, err = s.Upload(ctx, "contracts", "", []byte("x"))
		assert.Error(t, err)
	})

	t.Run("SignedURLCarriesKeyAndExpiry", func(t *testing.T) {
		url, err := s.GetSignedURL(ctx, "contracts", "tenant-1/2026/08/c-1.pdf", 15*time.Minute)
		require.NoError(t, err)
		assert.Contains(t, url, "http://localhost:8081/storage/download?")
		assert.Contains(t, url, "bucket=contracts")
		assert.Contains(t, url, "key=tenant-1%2F2026%2F08%2Fc-1.pdf")
		assert.Contains(t, url, "expires=")
	})
}
