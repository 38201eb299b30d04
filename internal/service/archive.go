package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/logger"
	"equiprent-backend/internal/repository"
	"equiprent-backend/internal/storage"
)

// DefaultRetentionYears applies when an archive request does not name a
// retention period.
const DefaultRetentionYears = 10

type archiveService struct {
	archiveRepo repository.ArchiveRepository
	store       storage.Storage
	bucket      string
}

func NewArchiveService(archiveRepo repository.ArchiveRepository, store storage.Storage, bucket string) ArchiveService {
	return &archiveService{
		archiveRepo: archiveRepo,
		store:       store,
		bucket:      bucket,
	}
}

func contentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// archivePath derives the storage location: tenantId/year/month/contractId.pdf.
func archivePath(tenantID, contractID string, at time.Time) string {
	return fmt.Sprintf("%s/%d/%02d/%s.pdf", tenantID, at.Year(), int(at.Month()), contractID)
}

// ArchiveContract persists the final document bytes with a verifiable
// content hash. The contract must be SIGNED and must not already have
// an archive record; both violations are hard errors, not overwrites.
func (s *archiveService) ArchiveContract(ctx context.Context, c *domain.Contract, document []byte, opts ArchiveOptions) (*domain.ArchivedContract, error) {
	if c.Status != domain.ContractStatusSigned {
		return nil, domain.NewStateConflictError("archive contract", c.Status, domain.ContractStatusSigned)
	}
	if len(document) == 0 {
		return nil, domain.NewValidationError("document is empty")
	}
	if existing, err := s.archiveRepo.GetByContractID(ctx, c.TenantID, c.ID); err == nil && existing != nil {
		return nil, domain.NewValidationError(fmt.Sprintf("contract %s is already archived as %s", c.ID, existing.ID))
	}

	retention := opts.RetentionYears
	if retention <= 0 {
		retention = DefaultRetentionYears
	}

	now := time.Now().UTC()
	path := archivePath(c.TenantID, c.ID, now)

	if _, err := s.store.Upload(ctx, s.bucket, path, document); err != nil {
		return nil, fmt.Errorf("failed to upload archive document: %w", err)
	}

	archive := &domain.ArchivedContract{
		ID:                  uuid.New().String(),
		TenantID:            c.TenantID,
		ContractID:          c.ID,
		StorageBucket:       s.bucket,
		StoragePath:         path,
		FileSize:            int64(len(document)),
		ContentHash:         contentHash(document),
		ArchivedAt:          now,
		RetentionYears:      retention,
		ScheduledDeletionAt: now.AddDate(retention, 0, 0),
	}

	if err := s.archiveRepo.Create(ctx, archive); err != nil {
		return nil, fmt.Errorf("failed to create archive record: %w", err)
	}

	logger.Info("Contract archived", "tenant_id", c.TenantID, "contract_id", c.ID, "archive_id", archive.ID, "path", path, "retention_years", retention)
	return archive, nil
}

// DownloadArchive returns the stored bytes after recomputing their
// content hash. A mismatch is a hard integrity failure on every read,
// not an on-demand check.
func (s *archiveService) DownloadArchive(ctx context.Context, tenantID, id string) ([]byte, *domain.ArchivedContract, error) {
	archive, err := s.archiveRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, nil, err
	}

	data, err := s.store.Download(ctx, archive.StorageBucket, archive.StoragePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to download archive %s: %w", id, err)
	}

	actual := contentHash(data)
	if actual != archive.ContentHash {
		logger.Error("Archive integrity failure on read", "tenant_id", tenantID, "archive_id", id, "expected", archive.ContentHash, "actual", actual)
		return nil, nil, &domain.IntegrityError{
			Subject:  "archive " + id,
			Expected: archive.ContentHash,
			Actual:   actual,
		}
	}

	return data, archive, nil
}

// VerifyArchiveIntegrity performs the same recomputation as download
// but reports instead of failing, for the operational audit job.
func (s *archiveService) VerifyArchiveIntegrity(ctx context.Context, tenantID, id string) (*IntegrityReport, error) {
	archive, err := s.archiveRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	report := &IntegrityReport{ExpectedHash: archive.ContentHash}

	data, err := s.store.Download(ctx, archive.StorageBucket, archive.StoragePath)
	if err != nil {
		report.Error = fmt.Sprintf("download failed: %v", err)
		return report, nil
	}

	report.ActualHash = contentHash(data)
	if report.ActualHash == archive.ContentHash {
		report.IsValid = true
	} else {
		report.Error = "content hash mismatch"
	}
	return report, nil
}

// CleanupExpiredArchives deletes every archive whose retention has run
// out. A failure on one record is collected and the sweep continues.
func (s *archiveService) CleanupExpiredArchives(ctx context.Context, tenantID string) (*CleanupResult, error) {
	expired, err := s.archiveRepo.ListExpired(ctx, tenantID, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to list expired archives: %w", err)
	}

	result := &CleanupResult{}
	for _, archive := range expired {
		if err := s.store.Delete(ctx, archive.StorageBucket, archive.StoragePath); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("archive %s: failed to delete blob: %v", archive.ID, err))
			continue
		}
		if err := s.archiveRepo.Delete(ctx, tenantID, archive.ID); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("archive %s: failed to delete record: %v", archive.ID, err))
			continue
		}
		result.DeletedCount++
		result.DeletedIDs = append(result.DeletedIDs, archive.ID)
		logger.Info("Expired archive deleted", "tenant_id", tenantID, "archive_id", archive.ID, "scheduled_deletion_at", archive.ScheduledDeletionAt)
	}
	return result, nil
}

// UpdateRetentionPeriod recomputes the scheduled deletion from the
// original ArchivedAt, not from now, so repeated extensions stay
// anchored to the archive date.
func (s *archiveService) UpdateRetentionPeriod(ctx context.Context, tenantID, id string, years int) (*domain.ArchivedContract, error) {
	if years <= 0 {
		return nil, domain.NewValidationError("retention period must be at least one year")
	}
	archive, err := s.archiveRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	archive.RetentionYears = years
	archive.ScheduledDeletionAt = archive.ArchivedAt.AddDate(years, 0, 0)
	if err := s.archiveRepo.Update(ctx, archive); err != nil {
		return nil, fmt.Errorf("failed to update retention period: %w", err)
	}

	logger.Info("Archive retention updated", "tenant_id", tenantID, "archive_id", id, "retention_years", years, "scheduled_deletion_at", archive.ScheduledDeletionAt)
	return archive, nil
}

func (s *archiveService) GetArchiveSignedURL(ctx context.Context, tenantID, id string, ttl time.Duration) (string, error) {
	archive, err := s.archiveRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return "", err
	}
	return s.store.GetSignedURL(ctx, archive.StorageBucket, archive.StoragePath, ttl)
}

func (s *archiveService) ListArchives(ctx context.Context, tenantID string) ([]domain.ArchivedContract, error) {
	return s.archiveRepo.ListByTenant(ctx, tenantID)
}
