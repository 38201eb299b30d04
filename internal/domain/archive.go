package domain

import "time"

// ArchivedContract records where a finished document is stored and the
// content hash it must still match years later. ContentHash must always
// equal the hash of whatever bytes storage currently returns for the
// path; any mismatch is a hard integrity failure.
type ArchivedContract struct {
	ID                  string    `json:"id"`
	TenantID            string    `json:"tenant_id"`
	ContractID          string    `json:"contract_id"`
	StorageBucket       string    `json:"storage_bucket"`
	StoragePath         string    `json:"storage_path"`
	FileSize            int64     `json:"file_size"`
	ContentHash         string    `json:"content_hash"`
	ArchivedAt          time.Time `json:"archived_at"`
	RetentionYears      int       `json:"retention_years"`
	ScheduledDeletionAt time.Time `json:"scheduled_deletion_at"`
}
