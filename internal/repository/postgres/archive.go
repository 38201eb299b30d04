package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/repository"
)

type archiveRepository struct {
	db *sql.DB
}

func NewArchiveRepository(db *sql.DB) repository.ArchiveRepository {
	return &archiveRepository{db: db}
}

const archiveColumns = `id, tenant_id, contract_id, storage_bucket, storage_path, file_size, content_hash, archived_at, retention_years, scheduled_deletion_at`

func (r *archiveRepository) Create(ctx context.Context, a *domain.ArchivedContract) error {
	query := `INSERT INTO archived_contracts (` + archiveColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.db.ExecContext(ctx, query, a.ID, a.TenantID, a.ContractID, a.StorageBucket,
		a.StoragePath, a.FileSize, a.ContentHash, a.ArchivedAt, a.RetentionYears, a.ScheduledDeletionAt)
	if err != nil {
		return fmt.Errorf("insert archive record: %w", err)
	}
	return nil
}

func (r *archiveRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.ArchivedContract, error) {
	query := `SELECT ` + archiveColumns + ` FROM archived_contracts WHERE id = $1 AND tenant_id = $2`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id, tenantID), id)
}

func (r *archiveRepository) GetByContractID(ctx context.Context, tenantID, contractID string) (*domain.ArchivedContract, error) {
	query := `SELECT ` + archiveColumns + ` FROM archived_contracts WHERE contract_id = $1 AND tenant_id = $2`
	return r.scanOne(r.db.QueryRowContext(ctx, query, contractID, tenantID), contractID)
}

func (r *archiveRepository) scanOne(row *sql.Row, key string) (*domain.ArchivedContract, error) {
	a := &domain.ArchivedContract{}
	err := row.Scan(&a.ID, &a.TenantID, &a.ContractID, &a.StorageBucket, &a.StoragePath,
		&a.FileSize, &a.ContentHash, &a.ArchivedAt, &a.RetentionYears, &a.ScheduledDeletionAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Entity: "archived contract", ID: key}
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *archiveRepository) Update(ctx context.Context, a *domain.ArchivedContract) error {
	query := `UPDATE archived_contracts SET retention_years = $1, scheduled_deletion_at = $2
	          WHERE id = $3 AND tenant_id = $4`
	res, err := r.db.ExecContext(ctx, query, a.RetentionYears, a.ScheduledDeletionAt, a.ID, a.TenantID)
	if err != nil {
		return fmt.Errorf("update archive record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &domain.NotFoundError{Entity: "archived contract", ID: a.ID}
	}
	return nil
}

func (r *archiveRepository) Delete(ctx context.Context, tenantID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM archived_contracts WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	if err != nil {
		return fmt.Errorf("delete archive record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &domain.NotFoundError{Entity: "archived contract", ID: id}
	}
	return nil
}

func (r *archiveRepository) ListByTenant(ctx context.Context, tenantID string) ([]domain.ArchivedContract, error) {
	query := `SELECT ` + archiveColumns + ` FROM archived_contracts WHERE tenant_id = $1 ORDER BY archived_at DESC`
	return r.list(ctx, query, tenantID)
}

func (r *archiveRepository) ListExpired(ctx context.Context, tenantID string, at time.Time) ([]domain.ArchivedContract, error) {
	query := `SELECT ` + archiveColumns + ` FROM archived_contracts
	          WHERE tenant_id = $1 AND scheduled_deletion_at <= $2 ORDER BY scheduled_deletion_at`
	return r.list(ctx, query, tenantID, at)
}

func (r *archiveRepository) list(ctx context.Context, query string, args ...interface{}) ([]domain.ArchivedContract, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ArchivedContract
	for rows.Next() {
		var a domain.ArchivedContract
		if err := rows.Scan(&a.ID, &a.TenantID, &a.ContractID, &a.StorageBucket, &a.StoragePath,
			&a.FileSize, &a.ContentHash, &a.ArchivedAt, &a.RetentionYears, &a.ScheduledDeletionAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
