package domain

import "time"

type ContractStatus string

const (
	ContractStatusDraft            ContractStatus = "DRAFT"
	ContractStatusPendingSignature ContractStatus = "PENDING_SIGNATURE"
	ContractStatusSigned           ContractStatus = "SIGNED"
	ContractStatusArchived         ContractStatus = "ARCHIVED"
	ContractStatusCancelled        ContractStatus = "CANCELLED"
	// ContractStatusCompleted is the terminal state of a multi-equipment
	// contract once every item has been returned. It is distinct from
	// ARCHIVED (single-contract terminal) and from time-based expiry.
	ContractStatusCompleted ContractStatus = "COMPLETED"
)

// Reserved variable keys. Administrative fields are written into the
// variable snapshot under a "_" prefix and never removed.
const (
	VarKeyCancellationReason = "_cancellation_reason"
	VarKeyCancelledAt        = "_cancelled_at"
)

// Contract is a single-equipment rental contract. Status and
// PDFGeneratedAt change together and only through the lifecycle
// service's transition operations.
type Contract struct {
	ID             string         `json:"id"`
	TenantID       string         `json:"tenant_id"`
	TemplateID     string         `json:"template_id"`
	RentalID       string         `json:"rental_id"`
	ContractNumber string         `json:"contract_number"`
	Status         ContractStatus `json:"status"`
	// Variables is the immutable snapshot of placeholder values captured
	// at generation time. Documents are reproducible from it alone.
	Variables      map[string]string  `json:"variables"`
	PDFPath        string             `json:"pdf_path,omitempty"`
	PDFGeneratedAt *time.Time         `json:"pdf_generated_at,omitempty"`
	Signature      *ContractSignature `json:"signature,omitempty"`
	CreatedOn      time.Time          `json:"created_on"`
	UpdatedOn      time.Time          `json:"updated_on"`
}

// transitions is the closed edge set of the contract state machine.
// No other edges exist.
var transitions = map[ContractStatus][]ContractStatus{
	ContractStatusDraft:            {ContractStatusPendingSignature, ContractStatusCancelled},
	ContractStatusPendingSignature: {ContractStatusSigned, ContractStatusCancelled},
	ContractStatusSigned:           {ContractStatusArchived},
	ContractStatusArchived:         {},
	ContractStatusCancelled:        {},
	ContractStatusCompleted:        {},
}

// CanTransition reports whether the state machine permits from -> to.
func CanTransition(from, to ContractStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminalStatus reports whether no transition leaves the status.
func IsTerminalStatus(s ContractStatus) bool {
	return len(transitions[s]) == 0
}
