package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/repository"
)

type contractRepository struct {
	db *sql.DB
}

func NewContractRepository(db *sql.DB) repository.ContractRepository {
	return &contractRepository{db: db}
}

const contractColumns = `c.id, c.tenant_id, c.template_id, c.rental_id, c.contract_number, c.status, c.variables, c.pdf_path, c.pdf_generated_at, c.created_on, c.updated_on`

func (r *contractRepository) Create(ctx context.Context, c *domain.Contract) error {
	variables, err := json.Marshal(c.Variables)
	if err != nil {
		return fmt.Errorf("marshal variables: %w", err)
	}
	query := `INSERT INTO contracts (id, tenant_id, template_id, rental_id, contract_number, status, variables, pdf_path, pdf_generated_at, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err = r.db.ExecContext(ctx, query, c.ID, c.TenantID, c.TemplateID, c.RentalID, c.ContractNumber,
		c.Status, variables, nullString(c.PDFPath), c.PDFGeneratedAt, c.CreatedOn, c.UpdatedOn)
	if err != nil {
		return fmt.Errorf("insert contract: %w", err)
	}
	return nil
}

func (r *contractRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.Contract, error) {
	query := `SELECT ` + contractColumns + ` FROM contracts c WHERE c.id = $1 AND c.tenant_id = $2`
	return r.getOne(ctx, query, id, tenantID)
}

func (r *contractRepository) GetByRentalID(ctx context.Context, tenantID, rentalID string) (*domain.Contract, error) {
	query := `SELECT ` + contractColumns + ` FROM contracts c WHERE c.rental_id = $1 AND c.tenant_id = $2`
	return r.getOne(ctx, query, rentalID, tenantID)
}

func (r *contractRepository) getOne(ctx context.Context, query string, key, tenantID string) (*domain.Contract, error) {
	c := &domain.Contract{}
	var variables []byte
	var pdfPath sql.NullString
	err := r.db.QueryRowContext(ctx, query, key, tenantID).Scan(
		&c.ID, &c.TenantID, &c.TemplateID, &c.RentalID, &c.ContractNumber,
		&c.Status, &variables, &pdfPath, &c.PDFGeneratedAt, &c.CreatedOn, &c.UpdatedOn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Entity: "contract", ID: key}
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(variables, &c.Variables); err != nil {
		return nil, fmt.Errorf("unmarshal variables: %w", err)
	}
	c.PDFPath = pdfPath.String

	sig, err := r.getSignature(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	c.Signature = sig
	return c, nil
}

func (r *contractRepository) getSignature(ctx context.Context, contractID string) (*domain.ContractSignature, error) {
	query := `SELECT id, contract_id, type, image_data, signer_name, signer_email, signed_at, ip_address, user_agent, signature_hash
	          FROM contract_signatures WHERE contract_id = $1`
	s := &domain.ContractSignature{}
	err := r.db.QueryRowContext(ctx, query, contractID).Scan(
		&s.ID, &s.ContractID, &s.Type, &s.ImageData, &s.SignerName, &s.SignerEmail,
		&s.SignedAt, &s.IPAddress, &s.UserAgent, &s.SignatureHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Update applies a state transition as one transaction: the current
// status is read under a row lock, the edge checked, and the status,
// snapshot and any new signature written together. The loser of a race
// observes a state conflict instead of overwriting.
func (r *contractRepository) Update(ctx context.Context, c *domain.Contract) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var current domain.ContractStatus
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM contracts WHERE id = $1 AND tenant_id = $2 FOR UPDATE`,
		c.ID, c.TenantID).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.NotFoundError{Entity: "contract", ID: c.ID}
	}
	if err != nil {
		return err
	}
	if current != c.Status && !domain.CanTransition(current, c.Status) {
		return domain.NewStateConflictError("update contract", current, c.Status)
	}

	variables, err := json.Marshal(c.Variables)
	if err != nil {
		return fmt.Errorf("marshal variables: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE contracts SET status = $1, variables = $2, pdf_path = $3, pdf_generated_at = $4, updated_on = $5
		 WHERE id = $6 AND tenant_id = $7`,
		c.Status, variables, nullString(c.PDFPath), c.PDFGeneratedAt, c.UpdatedOn, c.ID, c.TenantID)
	if err != nil {
		return fmt.Errorf("update contract: %w", err)
	}

	if c.Signature != nil {
		s := c.Signature
		_, err = tx.ExecContext(ctx,
			`INSERT INTO contract_signatures (id, contract_id, type, image_data, signer_name, signer_email, signed_at, ip_address, user_agent, signature_hash)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			 ON CONFLICT (contract_id) DO NOTHING`,
			s.ID, s.ContractID, s.Type, s.ImageData, s.SignerName, s.SignerEmail,
			s.SignedAt, s.IPAddress, s.UserAgent, s.SignatureHash)
		if err != nil {
			return fmt.Errorf("insert signature: %w", err)
		}
	}

	return tx.Commit()
}

func (r *contractRepository) ListByTenant(ctx context.Context, tenantID string, status domain.ContractStatus) ([]domain.Contract, error) {
	query := `SELECT ` + contractColumns + ` FROM contracts c WHERE c.tenant_id = $1`
	args := []interface{}{tenantID}
	if status != "" {
		query += ` AND c.status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY c.created_on DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Contract
	for rows.Next() {
		var c domain.Contract
		var variables []byte
		var pdfPath sql.NullString
		if err := rows.Scan(&c.ID, &c.TenantID, &c.TemplateID, &c.RentalID, &c.ContractNumber,
			&c.Status, &variables, &pdfPath, &c.PDFGeneratedAt, &c.CreatedOn, &c.UpdatedOn); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(variables, &c.Variables); err != nil {
			return nil, fmt.Errorf("unmarshal variables: %w", err)
		}
		c.PDFPath = pdfPath.String
		out = append(out, c)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
