package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/logger"
	"equiprent-backend/internal/render"
	"equiprent-backend/internal/repository"
	"equiprent-backend/internal/storage"
)

// contractService owns the single-equipment contract state machine:
// DRAFT -> PENDING_SIGNATURE -> SIGNED -> ARCHIVED, with DRAFT and
// PENDING_SIGNATURE also cancellable. Transition operations are
// deliberately not idempotent: re-running one against the wrong prior
// state fails, which enforces exactly-once document generation.
type contractService struct {
	contractRepo repository.ContractRepository
	templateRepo repository.TemplateRepository
	seqRepo      repository.SequenceRepository
	templateSvc  TemplateService
	signatureSvc SignatureService
	archiveSvc   ArchiveService
	renderer     render.DocumentRenderer
	store        storage.Storage
	bucket       string
}

func NewContractService(
	contractRepo repository.ContractRepository,
	templateRepo repository.TemplateRepository,
	seqRepo repository.SequenceRepository,
	templateSvc TemplateService,
	signatureSvc SignatureService,
	archiveSvc ArchiveService,
	renderer render.DocumentRenderer,
	store storage.Storage,
	bucket string,
) ContractService {
	return &contractService{
		contractRepo: contractRepo,
		templateRepo: templateRepo,
		seqRepo:      seqRepo,
		templateSvc:  templateSvc,
		signatureSvc: signatureSvc,
		archiveSvc:   archiveSvc,
		renderer:     renderer,
		store:        store,
		bucket:       bucket,
	}
}

// draftPath is where the provisional document lives between generation
// and archival.
func draftPath(tenantID, contractID string) string {
	return fmt.Sprintf("%s/drafts/%s.pdf", tenantID, contractID)
}

// GenerateContract creates a DRAFT contract with a fresh contract
// number and an immutable variable snapshot rendered from the active
// template of the requested type.
func (s *contractService) GenerateContract(ctx context.Context, tenantID string, req GenerateContractRequest) (*domain.Contract, error) {
	if req.Rental == nil || req.Partner == nil || req.Equipment == nil || req.Tenant == nil {
		return nil, domain.NewValidationError("rental, partner, equipment and tenant data are required")
	}

	tmpl, err := s.templateRepo.GetActiveByType(ctx, tenantID, req.TemplateType)
	if err != nil {
		return nil, fmt.Errorf("no active template of type %s: %w", req.TemplateType, err)
	}
	if !tmpl.IsActive {
		return nil, domain.NewValidationError(fmt.Sprintf("template %s is inactive", tmpl.ID))
	}

	// One contract per rental.
	if existing, err := s.contractRepo.GetByRentalID(ctx, tenantID, req.Rental.ID); err == nil && existing != nil {
		return nil, domain.NewValidationError(fmt.Sprintf("rental %s already has contract %s", req.Rental.ID, existing.ContractNumber))
	}

	number, err := s.nextContractNumber(ctx, tenantID, req.Tenant.ContractPrefix)
	if err != nil {
		return nil, err
	}

	variables := s.templateSvc.BuildDefaultVariables(req.Rental, req.Partner, req.Equipment, req.Tenant, number, req.DepositAmount)
	for k, v := range req.ExtraVariables {
		if strings.HasPrefix(k, "_") {
			// Reserved administrative keys cannot be injected by callers.
			continue
		}
		variables[k] = v
	}

	now := time.Now()
	contract := &domain.Contract{
		ID:             uuid.New().String(),
		TenantID:       tenantID,
		TemplateID:     tmpl.ID,
		RentalID:       req.Rental.ID,
		ContractNumber: number,
		Status:         domain.ContractStatusDraft,
		Variables:      variables,
		CreatedOn:      now,
		UpdatedOn:      now,
	}

	if err := s.contractRepo.Create(ctx, contract); err != nil {
		return nil, fmt.Errorf("failed to create contract: %w", err)
	}

	logger.Info("Contract generated", "tenant_id", tenantID, "contract_id", contract.ID, "contract_number", number, "template_id", tmpl.ID)
	return contract, nil
}

func (s *contractService) nextContractNumber(ctx context.Context, tenantID, prefix string) (string, error) {
	if prefix == "" {
		return "", domain.NewValidationError("tenant contract prefix is required")
	}
	year := time.Now().Year()
	seq, err := s.seqRepo.Next(ctx, tenantID, year)
	if err != nil {
		return "", fmt.Errorf("failed to allocate contract number: %w", err)
	}
	return fmt.Sprintf("%s-%d-%05d", prefix, year, seq), nil
}

// GeneratePDF renders the frozen template with the contract's variable
// snapshot, produces the document and moves the contract to
// PENDING_SIGNATURE. Re-invoking on a non-DRAFT contract fails.
func (s *contractService) GeneratePDF(ctx context.Context, tenantID, contractID string, opts render.Options) (*domain.Contract, error) {
	contract, err := s.contractRepo.GetByID(ctx, tenantID, contractID)
	if err != nil {
		return nil, err
	}
	if contract.Status != domain.ContractStatusDraft {
		return nil, domain.NewStateConflictError("generate document", contract.Status, domain.ContractStatusDraft)
	}

	tmpl, err := s.templateRepo.GetByID(ctx, tenantID, contract.TemplateID)
	if err != nil {
		return nil, fmt.Errorf("template %s referenced by contract is missing: %w", contract.TemplateID, err)
	}

	text := s.templateSvc.RenderTemplate(tmpl, contract.Variables)
	meta := render.Metadata{
		Title:   contract.ContractNumber,
		Author:  contract.Variables["tenant_name"],
		Subject: string(tmpl.Type),
		Creator: "equiprent-backend",
	}
	document, err := s.renderer.Render(text, meta, opts)
	if err != nil {
		return nil, fmt.Errorf("document rendering failed: %w", err)
	}

	path := draftPath(tenantID, contract.ID)
	if _, err := s.store.Upload(ctx, s.bucket, path, document); err != nil {
		return nil, fmt.Errorf("failed to store provisional document: %w", err)
	}

	now := time.Now()
	contract.Status = domain.ContractStatusPendingSignature
	contract.PDFPath = path
	contract.PDFGeneratedAt = &now
	contract.UpdatedOn = now
	if err := s.contractRepo.Update(ctx, contract); err != nil {
		return nil, fmt.Errorf("failed to update contract: %w", err)
	}

	logger.Info("Contract document generated", "tenant_id", tenantID, "contract_id", contract.ID, "path", path)
	return contract, nil
}

// SignContract delegates validation and hashing to the signature
// service and attaches the resulting record. Delegated validation
// errors propagate unchanged.
func (s *contractService) SignContract(ctx context.Context, tenantID, contractID string, req SignatureRequest) (*domain.Contract, error) {
	contract, err := s.contractRepo.GetByID(ctx, tenantID, contractID)
	if err != nil {
		return nil, err
	}

	sig, err := s.signatureSvc.RecordSignature(ctx, contract, req, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	contract.Signature = sig
	contract.Status = domain.ContractStatusSigned
	contract.UpdatedOn = time.Now()
	if err := s.contractRepo.Update(ctx, contract); err != nil {
		return nil, fmt.Errorf("failed to attach signature: %w", err)
	}

	logger.Info("Contract signed", "tenant_id", tenantID, "contract_id", contractID, "signer", req.SignerName)
	return contract, nil
}

// ArchiveContract hands the final bytes to the archive service and
// repoints the contract at the archive location.
func (s *contractService) ArchiveContract(ctx context.Context, tenantID, contractID string, opts ArchiveOptions) (*domain.Contract, *domain.ArchivedContract, error) {
	contract, err := s.contractRepo.GetByID(ctx, tenantID, contractID)
	if err != nil {
		return nil, nil, err
	}
	if contract.Status != domain.ContractStatusSigned {
		return nil, nil, domain.NewStateConflictError("archive contract", contract.Status, domain.ContractStatusSigned)
	}
	if contract.PDFPath == "" {
		return nil, nil, domain.NewValidationError("contract has no generated document")
	}

	document, err := s.store.Download(ctx, s.bucket, contract.PDFPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read provisional document: %w", err)
	}

	archive, err := s.archiveSvc.ArchiveContract(ctx, contract, document, opts)
	if err != nil {
		return nil, nil, err
	}

	provisionalPath := contract.PDFPath
	contract.Status = domain.ContractStatusArchived
	contract.PDFPath = archive.StoragePath
	contract.UpdatedOn = time.Now()
	if err := s.contractRepo.Update(ctx, contract); err != nil {
		return nil, nil, fmt.Errorf("failed to update contract: %w", err)
	}

	// The provisional copy is redundant once archived. Best effort.
	if err := s.store.Delete(ctx, s.bucket, provisionalPath); err != nil {
		logger.Warn("Failed to delete provisional document", "tenant_id", tenantID, "contract_id", contractID, "path", provisionalPath, "error", err)
	}

	logger.Info("Contract archived", "tenant_id", tenantID, "contract_id", contractID, "archive_id", archive.ID)
	return contract, archive, nil
}

// CancelContract is allowed from DRAFT or PENDING_SIGNATURE only. The
// reason is recorded in the variable snapshot under reserved keys and
// never removed.
func (s *contractService) CancelContract(ctx context.Context, tenantID, contractID, reason string) (*domain.Contract, error) {
	contract, err := s.contractRepo.GetByID(ctx, tenantID, contractID)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransition(contract.Status, domain.ContractStatusCancelled) {
		return nil, domain.NewStateConflictError("cancel contract", contract.Status,
			domain.ContractStatusDraft, domain.ContractStatusPendingSignature)
	}

	now := time.Now()
	if contract.Variables == nil {
		contract.Variables = map[string]string{}
	}
	contract.Variables[domain.VarKeyCancellationReason] = reason
	contract.Variables[domain.VarKeyCancelledAt] = now.UTC().Format(time.RFC3339)
	contract.Status = domain.ContractStatusCancelled
	contract.UpdatedOn = now
	if err := s.contractRepo.Update(ctx, contract); err != nil {
		return nil, fmt.Errorf("failed to cancel contract: %w", err)
	}

	logger.Info("Contract cancelled", "tenant_id", tenantID, "contract_id", contractID, "reason", reason)
	return contract, nil
}

func (s *contractService) GetContract(ctx context.Context, tenantID, contractID string) (*domain.Contract, error) {
	return s.contractRepo.GetByID(ctx, tenantID, contractID)
}

func (s *contractService) ListContracts(ctx context.Context, tenantID string, status domain.ContractStatus) ([]domain.Contract, error) {
	return s.contractRepo.ListByTenant(ctx, tenantID, status)
}
