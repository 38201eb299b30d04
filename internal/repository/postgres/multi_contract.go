package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/repository"
)

type multiContractRepository struct {
	db *sql.DB
}

func NewMultiEquipmentContractRepository(db *sql.DB) repository.MultiEquipmentContractRepository {
	return &multiContractRepository{db: db}
}

func (r *multiContractRepository) Create(ctx context.Context, c *domain.MultiEquipmentContract) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO multi_equipment_contracts (id, tenant_id, contract_number, status, total_deposit_amount, deposit_rate, is_fully_returned, created_on, updated_on)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		c.ID, c.TenantID, c.ContractNumber, c.Status, c.TotalDepositAmount, c.DepositRate,
		c.IsFullyReturned, c.CreatedOn, c.UpdatedOn)
	if err != nil {
		return fmt.Errorf("insert multi-equipment contract: %w", err)
	}

	for _, it := range c.Items {
		if err := insertItem(ctx, tx, c.ID, it); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func insertItem(ctx context.Context, tx *sql.Tx, contractID string, it domain.RentalContractItem) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO rental_contract_items (id, contract_id, equipment_id, equipment_name, serial_number, equipment_value, daily_rate, status, rented_at, returned_at, returned_by, return_notes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		it.ID, contractID, it.EquipmentID, it.EquipmentName, nullString(it.SerialNumber),
		it.EquipmentValue, it.DailyRate, it.Status, it.RentedAt, it.ReturnedAt,
		nullString(it.ReturnedBy), nullString(it.ReturnNotes))
	if err != nil {
		return fmt.Errorf("insert contract item: %w", err)
	}
	return nil
}

func (r *multiContractRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.MultiEquipmentContract, error) {
	c := &domain.MultiEquipmentContract{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, tenant_id, contract_number, status, total_deposit_amount, deposit_rate, is_fully_returned, created_on, updated_on
		 FROM multi_equipment_contracts WHERE id = $1 AND tenant_id = $2`, id, tenantID).Scan(
		&c.ID, &c.TenantID, &c.ContractNumber, &c.Status, &c.TotalDepositAmount,
		&c.DepositRate, &c.IsFullyReturned, &c.CreatedOn, &c.UpdatedOn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Entity: "multi-equipment contract", ID: id}
	}
	if err != nil {
		return nil, err
	}

	items, err := r.loadItems(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	c.Items = items
	return c, nil
}

func (r *multiContractRepository) loadItems(ctx context.Context, contractID string) ([]domain.RentalContractItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, equipment_id, equipment_name, serial_number, equipment_value, daily_rate, status, rented_at, returned_at, returned_by, return_notes
		 FROM rental_contract_items WHERE contract_id = $1 ORDER BY rented_at, id`, contractID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.RentalContractItem
	for rows.Next() {
		var it domain.RentalContractItem
		var serial, returnedBy, notes sql.NullString
		if err := rows.Scan(&it.ID, &it.EquipmentID, &it.EquipmentName, &serial,
			&it.EquipmentValue, &it.DailyRate, &it.Status, &it.RentedAt,
			&it.ReturnedAt, &returnedBy, &notes); err != nil {
			return nil, err
		}
		it.SerialNumber = serial.String
		it.ReturnedBy = returnedBy.String
		it.ReturnNotes = notes.String
		items = append(items, it)
	}
	return items, rows.Err()
}

// Update rewrites the contract row and every item row in one
// transaction, guarding against a closed contract being reopened.
func (r *multiContractRepository) Update(ctx context.Context, c *domain.MultiEquipmentContract) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var fullyReturned bool
	err = tx.QueryRowContext(ctx,
		`SELECT is_fully_returned FROM multi_equipment_contracts WHERE id = $1 AND tenant_id = $2 FOR UPDATE`,
		c.ID, c.TenantID).Scan(&fullyReturned)
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.NotFoundError{Entity: "multi-equipment contract", ID: c.ID}
	}
	if err != nil {
		return err
	}
	if fullyReturned && !c.IsFullyReturned {
		return domain.NewStateConflictError("update multi-equipment contract", domain.ContractStatusCompleted, c.Status)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE multi_equipment_contracts SET status = $1, total_deposit_amount = $2, deposit_rate = $3, is_fully_returned = $4, updated_on = $5
		 WHERE id = $6 AND tenant_id = $7`,
		c.Status, c.TotalDepositAmount, c.DepositRate, c.IsFullyReturned, c.UpdatedOn, c.ID, c.TenantID)
	if err != nil {
		return fmt.Errorf("update multi-equipment contract: %w", err)
	}

	for _, it := range c.Items {
		_, err = tx.ExecContext(ctx,
			`UPDATE rental_contract_items SET status = $1, returned_at = $2, returned_by = $3, return_notes = $4
			 WHERE id = $5 AND contract_id = $6`,
			it.Status, it.ReturnedAt, nullString(it.ReturnedBy), nullString(it.ReturnNotes), it.ID, c.ID)
		if err != nil {
			return fmt.Errorf("update contract item: %w", err)
		}
	}
	return tx.Commit()
}

func (r *multiContractRepository) ListByTenant(ctx context.Context, tenantID string) ([]domain.MultiEquipmentContract, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, tenant_id, contract_number, status, total_deposit_amount, deposit_rate, is_fully_returned, created_on, updated_on
		 FROM multi_equipment_contracts WHERE tenant_id = $1 ORDER BY created_on DESC`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.MultiEquipmentContract
	for rows.Next() {
		var c domain.MultiEquipmentContract
		if err := rows.Scan(&c.ID, &c.TenantID, &c.ContractNumber, &c.Status, &c.TotalDepositAmount,
			&c.DepositRate, &c.IsFullyReturned, &c.CreatedOn, &c.UpdatedOn); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		items, err := r.loadItems(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Items = items
	}
	return out, nil
}
