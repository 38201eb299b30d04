package service

import (
	"context"
	"time"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/render"
)

// TemplateValidationResult is reported as data, not as an error, so the
// lifecycle service can aggregate problems into one user-facing error.
type TemplateValidationResult struct {
	IsValid                  bool
	Errors                   []string
	Warnings                 []string
	FoundVariables           []string
	MissingRequiredVariables []string
}

type TemplateService interface {
	CreateTemplate(ctx context.Context, tenantID, name string, ctype domain.ContractType, content string) (*domain.ContractTemplate, error)
	// UpdateTemplateContent creates a new template id and version and
	// deactivates the prior one; it never mutates frozen content.
	UpdateTemplateContent(ctx context.Context, tenantID, templateID, content string) (*domain.ContractTemplate, error)
	GetTemplate(ctx context.Context, tenantID, id string) (*domain.ContractTemplate, error)
	ListTemplates(ctx context.Context, tenantID string) ([]domain.ContractTemplate, error)

	ValidateTemplateContent(content string, ctype domain.ContractType) TemplateValidationResult
	RenderTemplate(tmpl *domain.ContractTemplate, variables map[string]string) string
	BuildDefaultVariables(r *domain.Rental, p *domain.Partner, e *domain.Equipment, t *domain.Tenant, contractNumber string, deposit *int64) map[string]string
}

// SignatureImageValidation accumulates every problem with a signature
// image; Errors empty means the image is acceptable.
type SignatureImageValidation struct {
	IsValid     bool
	Errors      []string
	ImageSize   int64
	ImageFormat string
}

// SignatureRequest carries the caller-supplied signing data.
type SignatureRequest struct {
	Type        domain.SignatureType
	Image       string
	SignerName  string
	SignerEmail string
	IPAddress   string
	UserAgent   string
}

type SignatureService interface {
	ValidateSignatureImage(image string) SignatureImageValidation
	GenerateSignatureHash(contractID, image string, signedAt time.Time, signerName string) string
	VerifySignatureIntegrity(sig *domain.ContractSignature, originalImage string) error
	TimingSafeCompare(a, b string) bool
	// ValidateContractForSigning is a pure state check. When signing is
	// not permitted the returned reason names why.
	ValidateContractForSigning(c *domain.Contract) (bool, string)
	RecordSignature(ctx context.Context, c *domain.Contract, req SignatureRequest, signedAt time.Time) (*domain.ContractSignature, error)
}

// ArchiveOptions tune a single archive operation.
type ArchiveOptions struct {
	// RetentionYears of zero means the configured default.
	RetentionYears int
}

// IntegrityReport is the non-throwing form of the archive corruption
// check, used by the audit job.
type IntegrityReport struct {
	IsValid      bool
	ExpectedHash string
	ActualHash   string
	Error        string
}

// CleanupResult collects the outcome of an expired-archive sweep.
// A failure on one record never aborts the others.
type CleanupResult struct {
	DeletedCount int
	DeletedIDs   []string
	Errors       []string
}

type ArchiveService interface {
	ArchiveContract(ctx context.Context, c *domain.Contract, document []byte, opts ArchiveOptions) (*domain.ArchivedContract, error)
	DownloadArchive(ctx context.Context, tenantID, id string) ([]byte, *domain.ArchivedContract, error)
	VerifyArchiveIntegrity(ctx context.Context, tenantID, id string) (*IntegrityReport, error)
	CleanupExpiredArchives(ctx context.Context, tenantID string) (*CleanupResult, error)
	UpdateRetentionPeriod(ctx context.Context, tenantID, id string, years int) (*domain.ArchivedContract, error)
	GetArchiveSignedURL(ctx context.Context, tenantID, id string, ttl time.Duration) (string, error)
	ListArchives(ctx context.Context, tenantID string) ([]domain.ArchivedContract, error)
}

// GenerateContractRequest assembles everything the generation step
// snapshots into the contract's variable map.
type GenerateContractRequest struct {
	TemplateType domain.ContractType
	Rental       *domain.Rental
	Partner      *domain.Partner
	Equipment    *domain.Equipment
	Tenant       *domain.Tenant
	// DepositAmount is optional; nil means no deposit placeholder.
	DepositAmount *int64
	// ExtraVariables are merged over the defaults, letting callers pin
	// ad hoc placeholders at generation time.
	ExtraVariables map[string]string
}

type ContractService interface {
	GenerateContract(ctx context.Context, tenantID string, req GenerateContractRequest) (*domain.Contract, error)
	GeneratePDF(ctx context.Context, tenantID, contractID string, opts render.Options) (*domain.Contract, error)
	SignContract(ctx context.Context, tenantID, contractID string, req SignatureRequest) (*domain.Contract, error)
	ArchiveContract(ctx context.Context, tenantID, contractID string, opts ArchiveOptions) (*domain.Contract, *domain.ArchivedContract, error)
	CancelContract(ctx context.Context, tenantID, contractID, reason string) (*domain.Contract, error)
	GetContract(ctx context.Context, tenantID, contractID string) (*domain.Contract, error)
	ListContracts(ctx context.Context, tenantID string, status domain.ContractStatus) ([]domain.Contract, error)
}

// EquipmentItemInput describes one piece of equipment going into a
// multi-equipment contract.
type EquipmentItemInput struct {
	EquipmentID    string
	EquipmentName  string
	SerialNumber   string
	EquipmentValue int64
	DailyRate      int64
}

// DepositBreakdownItem is one item's independently rounded share.
// Contributions may not sum exactly to the rounded total; that is an
// accepted rounding tolerance.
type DepositBreakdownItem struct {
	EquipmentID   string
	DepositAmount int64
}

type DepositCalculation struct {
	TotalEquipmentValue int64
	DepositRate         float64
	DepositAmount       int64
	ItemBreakdown       []DepositBreakdownItem
}

// ReturnItemResult reports the contract-wide consequences of a single
// item return.
type ReturnItemResult struct {
	Contract            *domain.MultiEquipmentContract
	ReturnedItem        *domain.RentalContractItem
	IsContractClosed    bool
	RemainingItemsCount int
	// DepositToRelease is set only when the return closed the contract.
	DepositToRelease *int64
}

type MultiEquipmentService interface {
	CreateMultiEquipmentContract(ctx context.Context, tenant *domain.Tenant, items []EquipmentItemInput, startDate time.Time, depositRate *float64) (*domain.MultiEquipmentContract, error)
	CalculateDeposit(items []EquipmentItemInput, rate float64) DepositCalculation
	ReturnItem(ctx context.Context, tenantID, contractID, itemID, returnedBy, notes string) (*ReturnItemResult, error)
	GetRemainingItems(ctx context.Context, tenantID, contractID string) ([]domain.RentalContractItem, error)
	GetContract(ctx context.Context, tenantID, contractID string) (*domain.MultiEquipmentContract, error)
}
