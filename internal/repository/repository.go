package repository

import (
	"context"
	"time"

	"equiprent-backend/internal/domain"
)

// All lookups are tenant-scoped: an id belonging to another tenant
// behaves exactly like a missing id.

type TemplateRepository interface {
	Create(ctx context.Context, tmpl *domain.ContractTemplate) error
	GetByID(ctx context.Context, tenantID, id string) (*domain.ContractTemplate, error)
	GetActiveByType(ctx context.Context, tenantID string, t domain.ContractType) (*domain.ContractTemplate, error)
	Update(ctx context.Context, tmpl *domain.ContractTemplate) error
	ListByTenant(ctx context.Context, tenantID string) ([]domain.ContractTemplate, error)
}

type ContractRepository interface {
	Create(ctx context.Context, c *domain.Contract) error
	GetByID(ctx context.Context, tenantID, id string) (*domain.Contract, error)
	GetByRentalID(ctx context.Context, tenantID, rentalID string) (*domain.Contract, error)
	// Update must apply the whole state transition (status plus any
	// sub-record, e.g. signature attach) as one atomic unit so that two
	// racing writers cannot both succeed.
	Update(ctx context.Context, c *domain.Contract) error
	ListByTenant(ctx context.Context, tenantID string, status domain.ContractStatus) ([]domain.Contract, error)
}

type ArchiveRepository interface {
	Create(ctx context.Context, a *domain.ArchivedContract) error
	GetByID(ctx context.Context, tenantID, id string) (*domain.ArchivedContract, error)
	GetByContractID(ctx context.Context, tenantID, contractID string) (*domain.ArchivedContract, error)
	Update(ctx context.Context, a *domain.ArchivedContract) error
	Delete(ctx context.Context, tenantID, id string) error
	ListByTenant(ctx context.Context, tenantID string) ([]domain.ArchivedContract, error)
	// ListExpired returns archives whose scheduled deletion is at or
	// before the given instant.
	ListExpired(ctx context.Context, tenantID string, at time.Time) ([]domain.ArchivedContract, error)
}

type MultiEquipmentContractRepository interface {
	Create(ctx context.Context, c *domain.MultiEquipmentContract) error
	GetByID(ctx context.Context, tenantID, id string) (*domain.MultiEquipmentContract, error)
	Update(ctx context.Context, c *domain.MultiEquipmentContract) error
	ListByTenant(ctx context.Context, tenantID string) ([]domain.MultiEquipmentContract, error)
}

// SequenceRepository hands out the tenant-scoped sequential part of
// contract numbers. Injected so tests control determinism without
// global counters.
type SequenceRepository interface {
	Next(ctx context.Context, tenantID string, year int) (int, error)
}
