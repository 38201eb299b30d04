package jobs

import (
	"context"

	"equiprent-backend/internal/logger"
)

// CleanupExpiredArchives deletes archives whose retention period has
// elapsed, tenant by tenant. A failing tenant does not stop the sweep.
func (jr *JobRunner) CleanupExpiredArchives() {
	jr.runWithRecovery("CleanupExpiredArchives", func() {
		ctx := context.Background()

		tenants, err := jr.tenantIDs(ctx)
		if err != nil {
			logger.Error("Failed to list tenants for archive cleanup", "error", err)
			return
		}

		total := 0
		for _, tenantID := range tenants {
			result, err := jr.services.Archive.CleanupExpiredArchives(ctx, tenantID)
			if err != nil {
				logger.Error("Archive cleanup failed for tenant", "tenant_id", tenantID, "error", err)
				continue
			}
			for _, msg := range result.Errors {
				logger.Warn("Archive cleanup skipped a record", "tenant_id", tenantID, "reason", msg)
			}
			if result.DeletedCount > 0 {
				logger.Info("Deleted expired archives",
					"tenant_id", tenantID,
					"count", result.DeletedCount,
					"archive_ids", result.DeletedIDs)
			}
			total += result.DeletedCount
		}

		logger.Info("Archive cleanup finished", "tenants", len(tenants), "deleted", total)
	})
}

// AuditArchiveIntegrity recomputes the content hash of every stored
// archive and reports mismatches. Corruption is logged as a security
// incident, never silently noted.
func (jr *JobRunner) AuditArchiveIntegrity() {
	jr.runWithRecovery("AuditArchiveIntegrity", func() {
		ctx := context.Background()

		tenants, err := jr.tenantIDs(ctx)
		if err != nil {
			logger.Error("Failed to list tenants for integrity audit", "error", err)
			return
		}

		checked, corrupted := 0, 0
		for _, tenantID := range tenants {
			archives, err := jr.services.Archive.ListArchives(ctx, tenantID)
			if err != nil {
				logger.Error("Failed to list archives for audit", "tenant_id", tenantID, "error", err)
				continue
			}

			for _, a := range archives {
				report, err := jr.services.Archive.VerifyArchiveIntegrity(ctx, tenantID, a.ID)
				if err != nil {
					logger.Error("Integrity check failed to run",
						"tenant_id", tenantID, "archive_id", a.ID, "error", err)
					continue
				}
				checked++
				if !report.IsValid {
					corrupted++
					logger.SecurityIncident("Archive content hash mismatch",
						"tenant_id", tenantID,
						"archive_id", a.ID,
						"contract_id", a.ContractID,
						"expected_hash", report.ExpectedHash,
						"actual_hash", report.ActualHash,
						"detail", report.Error)
				}
			}
		}

		logger.Info("Archive integrity audit finished", "checked", checked, "corrupted", corrupted)
	})
}
