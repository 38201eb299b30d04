// Package memory holds map-backed repository implementations used by
// tests and local demos. They honor the same tenant-scoping and
// single-writer rules the SQL implementations get from the database.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/repository"
)

type Store struct {
	repository.TemplateRepository
	repository.ContractRepository
	repository.ArchiveRepository
	repository.MultiEquipmentContractRepository
	repository.SequenceRepository
}

func NewStore() *Store {
	return &Store{
		TemplateRepository:               NewTemplateRepository(),
		ContractRepository:               NewContractRepository(),
		ArchiveRepository:                NewArchiveRepository(),
		MultiEquipmentContractRepository: NewMultiEquipmentContractRepository(),
		SequenceRepository:               NewSequenceRepository(),
	}
}

// templateRepository

type templateRepository struct {
	mu        sync.RWMutex
	templates map[string]domain.ContractTemplate
}

func NewTemplateRepository() repository.TemplateRepository {
	return &templateRepository{templates: map[string]domain.ContractTemplate{}}
}

func (r *templateRepository) Create(ctx context.Context, tmpl *domain.ContractTemplate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates[tmpl.ID] = cloneTemplate(tmpl)
	return nil
}

func (r *templateRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.ContractTemplate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tmpl, ok := r.templates[id]
	if !ok || tmpl.TenantID != tenantID {
		return nil, &domain.NotFoundError{Entity: "template", ID: id}
	}
	out := cloneTemplate(&tmpl)
	return &out, nil
}

func (r *templateRepository) GetActiveByType(ctx context.Context, tenantID string, t domain.ContractType) (*domain.ContractTemplate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, tmpl := range r.templates {
		if tmpl.TenantID == tenantID && tmpl.Type == t && tmpl.IsActive {
			out := cloneTemplate(&tmpl)
			return &out, nil
		}
	}
	return nil, &domain.NotFoundError{Entity: "active template", ID: string(t)}
}

func (r *templateRepository) Update(ctx context.Context, tmpl *domain.ContractTemplate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.templates[tmpl.ID]
	if !ok || existing.TenantID != tmpl.TenantID {
		return &domain.NotFoundError{Entity: "template", ID: tmpl.ID}
	}
	r.templates[tmpl.ID] = cloneTemplate(tmpl)
	return nil
}

func (r *templateRepository) ListByTenant(ctx context.Context, tenantID string) ([]domain.ContractTemplate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.ContractTemplate
	for _, tmpl := range r.templates {
		if tmpl.TenantID == tenantID {
			out = append(out, cloneTemplate(&tmpl))
		}
	}
	return out, nil
}

// contractRepository

type contractRepository struct {
	mu        sync.RWMutex
	contracts map[string]domain.Contract
}

func NewContractRepository() repository.ContractRepository {
	return &contractRepository{contracts: map[string]domain.Contract{}}
}

func (r *contractRepository) Create(ctx context.Context, c *domain.Contract) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.contracts {
		if existing.TenantID == c.TenantID && existing.ContractNumber == c.ContractNumber {
			return domain.NewValidationError("duplicate contract number " + c.ContractNumber)
		}
	}
	r.contracts[c.ID] = cloneContract(c)
	return nil
}

func (r *contractRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.Contract, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.contracts[id]
	if !ok || c.TenantID != tenantID {
		return nil, &domain.NotFoundError{Entity: "contract", ID: id}
	}
	out := cloneContract(&c)
	return &out, nil
}

func (r *contractRepository) GetByRentalID(ctx context.Context, tenantID, rentalID string) (*domain.Contract, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.contracts {
		if c.TenantID == tenantID && c.RentalID == rentalID {
			out := cloneContract(&c)
			return &out, nil
		}
	}
	return nil, &domain.NotFoundError{Entity: "contract", ID: rentalID}
}

// Update applies the whole transition atomically under the lock. A
// status change must be a legal edge from the currently stored status,
// so the loser of a racing transition observes a state conflict.
func (r *contractRepository) Update(ctx context.Context, c *domain.Contract) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.contracts[c.ID]
	if !ok || existing.TenantID != c.TenantID {
		return &domain.NotFoundError{Entity: "contract", ID: c.ID}
	}
	if existing.Status != c.Status && !domain.CanTransition(existing.Status, c.Status) {
		return domain.NewStateConflictError("update contract", existing.Status, c.Status)
	}
	r.contracts[c.ID] = cloneContract(c)
	return nil
}

func (r *contractRepository) ListByTenant(ctx context.Context, tenantID string, status domain.ContractStatus) ([]domain.Contract, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Contract
	for _, c := range r.contracts {
		if c.TenantID != tenantID {
			continue
		}
		if status != "" && c.Status != status {
			continue
		}
		out = append(out, cloneContract(&c))
	}
	return out, nil
}

// archiveRepository

type archiveRepository struct {
	mu       sync.RWMutex
	archives map[string]domain.ArchivedContract
}

func NewArchiveRepository() repository.ArchiveRepository {
	return &archiveRepository{archives: map[string]domain.ArchivedContract{}}
}

func (r *archiveRepository) Create(ctx context.Context, a *domain.ArchivedContract) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.archives {
		if existing.TenantID == a.TenantID && existing.ContractID == a.ContractID {
			return domain.NewValidationError("contract " + a.ContractID + " already archived")
		}
	}
	r.archives[a.ID] = *a
	return nil
}

func (r *archiveRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.ArchivedContract, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.archives[id]
	if !ok || a.TenantID != tenantID {
		return nil, &domain.NotFoundError{Entity: "archive", ID: id}
	}
	out := a
	return &out, nil
}

func (r *archiveRepository) GetByContractID(ctx context.Context, tenantID, contractID string) (*domain.ArchivedContract, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.archives {
		if a.TenantID == tenantID && a.ContractID == contractID {
			out := a
			return &out, nil
		}
	}
	return nil, &domain.NotFoundError{Entity: "archive", ID: contractID}
}

func (r *archiveRepository) Update(ctx context.Context, a *domain.ArchivedContract) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.archives[a.ID]
	if !ok || existing.TenantID != a.TenantID {
		return &domain.NotFoundError{Entity: "archive", ID: a.ID}
	}
	r.archives[a.ID] = *a
	return nil
}

func (r *archiveRepository) Delete(ctx context.Context, tenantID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.archives[id]
	if !ok || a.TenantID != tenantID {
		return &domain.NotFoundError{Entity: "archive", ID: id}
	}
	delete(r.archives, id)
	return nil
}

func (r *archiveRepository) ListByTenant(ctx context.Context, tenantID string) ([]domain.ArchivedContract, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.ArchivedContract
	for _, a := range r.archives {
		if a.TenantID == tenantID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *archiveRepository) ListExpired(ctx context.Context, tenantID string, at time.Time) ([]domain.ArchivedContract, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.ArchivedContract
	for _, a := range r.archives {
		if a.TenantID == tenantID && !a.ScheduledDeletionAt.After(at) {
			out = append(out, a)
		}
	}
	return out, nil
}

// multiEquipmentContractRepository

type multiEquipmentContractRepository struct {
	mu        sync.RWMutex
	contracts map[string]domain.MultiEquipmentContract
}

func NewMultiEquipmentContractRepository() repository.MultiEquipmentContractRepository {
	return &multiEquipmentContractRepository{contracts: map[string]domain.MultiEquipmentContract{}}
}

func (r *multiEquipmentContractRepository) Create(ctx context.Context, c *domain.MultiEquipmentContract) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.contracts[c.ID] = cloneMultiContract(c)
	return nil
}

func (r *multiEquipmentContractRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.MultiEquipmentContract, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.contracts[id]
	if !ok || c.TenantID != tenantID {
		return nil, &domain.NotFoundError{Entity: "multi-equipment contract", ID: id}
	}
	out := cloneMultiContract(&c)
	return &out, nil
}

func (r *multiEquipmentContractRepository) Update(ctx context.Context, c *domain.MultiEquipmentContract) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.contracts[c.ID]
	if !ok || existing.TenantID != c.TenantID {
		return &domain.NotFoundError{Entity: "multi-equipment contract", ID: c.ID}
	}
	// Closure is irreversible.
	if existing.IsFullyReturned && !c.IsFullyReturned {
		return domain.NewStateConflictError("update multi-equipment contract", existing.Status, c.Status)
	}
	r.contracts[c.ID] = cloneMultiContract(c)
	return nil
}

func (r *multiEquipmentContractRepository) ListByTenant(ctx context.Context, tenantID string) ([]domain.MultiEquipmentContract, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.MultiEquipmentContract
	for _, c := range r.contracts {
		if c.TenantID == tenantID {
			out = append(out, cloneMultiContract(&c))
		}
	}
	return out, nil
}

// sequenceRepository

type sequenceRepository struct {
	mu   sync.Mutex
	next map[string]int
}

func NewSequenceRepository() repository.SequenceRepository {
	return &sequenceRepository{next: map[string]int{}}
}

func (r *sequenceRepository) Next(ctx context.Context, tenantID string, year int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := fmt.Sprintf("%s/%d", tenantID, year)
	r.next[key]++
	return r.next[key], nil
}

// clone helpers keep stored state isolated from caller mutation.

func cloneTemplate(t *domain.ContractTemplate) domain.ContractTemplate {
	out := *t
	out.AvailableVariables = append([]string(nil), t.AvailableVariables...)
	return out
}

func cloneContract(c *domain.Contract) domain.Contract {
	out := *c
	if c.Variables != nil {
		out.Variables = make(map[string]string, len(c.Variables))
		for k, v := range c.Variables {
			out.Variables[k] = v
		}
	}
	if c.Signature != nil {
		sig := *c.Signature
		out.Signature = &sig
	}
	if c.PDFGeneratedAt != nil {
		at := *c.PDFGeneratedAt
		out.PDFGeneratedAt = &at
	}
	return out
}

func cloneMultiContract(c *domain.MultiEquipmentContract) domain.MultiEquipmentContract {
	out := *c
	out.Items = make([]domain.RentalContractItem, len(c.Items))
	for i, it := range c.Items {
		item := it
		if it.ReturnedAt != nil {
			at := *it.ReturnedAt
			item.ReturnedAt = &at
		}
		out.Items[i] = item
	}
	return out
}
