package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/repository"
)

type templateRepository struct {
	db *sql.DB
}

func NewTemplateRepository(db *sql.DB) repository.TemplateRepository {
	return &templateRepository{db: db}
}

const templateColumns = `id, tenant_id, name, type, content, available_variables, version, is_active, created_on, updated_on`

func (r *templateRepository) Create(ctx context.Context, t *domain.ContractTemplate) error {
	query := `INSERT INTO contract_templates (id, tenant_id, name, type, content, available_variables, version, is_active, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.db.ExecContext(ctx, query, t.ID, t.TenantID, t.Name, t.Type, t.Content,
		pq.Array(t.AvailableVariables), t.Version, t.IsActive, t.CreatedOn, t.UpdatedOn)
	if err != nil {
		return fmt.Errorf("insert template: %w", err)
	}
	return nil
}

func (r *templateRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.ContractTemplate, error) {
	query := `SELECT ` + templateColumns + ` FROM contract_templates WHERE id = $1 AND tenant_id = $2`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id, tenantID), id)
}

func (r *templateRepository) GetActiveByType(ctx context.Context, tenantID string, t domain.ContractType) (*domain.ContractTemplate, error) {
	query := `SELECT ` + templateColumns + ` FROM contract_templates
	          WHERE tenant_id = $1 AND type = $2 AND is_active ORDER BY version DESC LIMIT 1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, tenantID, t), string(t))
}

func (r *templateRepository) scanOne(row *sql.Row, id string) (*domain.ContractTemplate, error) {
	t := &domain.ContractTemplate{}
	var vars pq.StringArray
	err := row.Scan(&t.ID, &t.TenantID, &t.Name, &t.Type, &t.Content, &vars, &t.Version, &t.IsActive, &t.CreatedOn, &t.UpdatedOn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Entity: "template", ID: id}
	}
	if err != nil {
		return nil, err
	}
	t.AvailableVariables = vars
	return t, nil
}

func (r *templateRepository) Update(ctx context.Context, t *domain.ContractTemplate) error {
	query := `UPDATE contract_templates SET is_active = $1, updated_on = $2 WHERE id = $3 AND tenant_id = $4`
	res, err := r.db.ExecContext(ctx, query, t.IsActive, time.Now(), t.ID, t.TenantID)
	if err != nil {
		return fmt.Errorf("update template: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &domain.NotFoundError{Entity: "template", ID: t.ID}
	}
	return nil
}

func (r *templateRepository) ListByTenant(ctx context.Context, tenantID string) ([]domain.ContractTemplate, error) {
	query := `SELECT ` + templateColumns + ` FROM contract_templates WHERE tenant_id = $1 ORDER BY type, version DESC`
	rows, err := r.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ContractTemplate
	for rows.Next() {
		var t domain.ContractTemplate
		var vars pq.StringArray
		if err := rows.Scan(&t.ID, &t.TenantID, &t.Name, &t.Type, &t.Content, &vars, &t.Version, &t.IsActive, &t.CreatedOn, &t.UpdatedOn); err != nil {
			return nil, err
		}
		t.AvailableVariables = vars
		out = append(out, t)
	}
	return out, rows.Err()
}
