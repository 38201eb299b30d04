package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/storage"
)

func mustDate(t *testing.T, value string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", value)
	require.NoError(t, err)
	return d
}

// MockArchiveRepo
type MockArchiveRepo struct {
	mock.Mock
}

func (m *MockArchiveRepo) Create(ctx context.Context, a *domain.ArchivedContract) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}
func (m *MockArchiveRepo) GetByID(ctx context.Context, tenantID, id string) (*domain.ArchivedContract, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ArchivedContract), args.Error(1)
}
func (m *MockArchiveRepo) GetByContractID(ctx context.Context, tenantID, contractID string) (*domain.ArchivedContract, error) {
	args := m.Called(ctx, tenantID, contractID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ArchivedContract), args.Error(1)
}
func (m *MockArchiveRepo) Update(ctx context.Context, a *domain.ArchivedContract) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}
func (m *MockArchiveRepo) Delete(ctx context.Context, tenantID, id string) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}
func (m *MockArchiveRepo) ListByTenant(ctx context.Context, tenantID string) ([]domain.ArchivedContract, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).([]domain.ArchivedContract), args.Error(1)
}
func (m *MockArchiveRepo) ListExpired(ctx context.Context, tenantID string, at time.Time) ([]domain.ArchivedContract, error) {
	args := m.Called(ctx, tenantID, at)
	return args.Get(0).([]domain.ArchivedContract), args.Error(1)
}

// memStorage is a map-backed Storage for tests.
type memStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemStorage() *memStorage {
	return &memStorage{objects: map[string][]byte{}}
}

func (s *memStorage) key(bucket, path string) string {
	return bucket + "/" + path
}

func (s *memStorage) Upload(ctx context.Context, bucket, path string, data []byte) (*storage.UploadResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	s.objects[s.key(bucket, path)] = cp
	return &storage.UploadResult{URL: "mem://" + s.key(bucket, path), Size: int64(len(data))}, nil
}

func (s *memStorage) Download(ctx context.Context, bucket, path string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[s.key(bucket, path)]
	if !ok {
		return nil, fmt.Errorf("object %s not found", s.key(bucket, path))
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

func (s *memStorage) Delete(ctx context.Context, bucket, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[s.key(bucket, path)]; !ok {
		return fmt.Errorf("object %s not found", s.key(bucket, path))
	}
	delete(s.objects, s.key(bucket, path))
	return nil
}

func (s *memStorage) Exists(ctx context.Context, bucket, path string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[s.key(bucket, path)]
	return ok, nil
}

func (s *memStorage) GetSignedURL(ctx context.Context, bucket, path string, ttl time.Duration) (string, error) {
	return fmt.Sprintf("mem://%s?expires=%d", s.key(bucket, path), time.Now().Add(ttl).Unix()), nil
}

// corrupt replaces a stored object's bytes, simulating tampering.
func (s *memStorage) corrupt(bucket, path string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[s.key(bucket, path)] = data
}
