package domain

import "time"

type ContractType string

const (
	ContractTypeRentalStandard   ContractType = "RENTAL_STANDARD"
	ContractTypeRentalLongTerm   ContractType = "RENTAL_LONG_TERM"
	ContractTypeRentalCorporate  ContractType = "RENTAL_CORPORATE"
	ContractTypeDepositAgreement ContractType = "DEPOSIT_AGREEMENT"
)

// ContractTemplate holds the placeholder text a contract is rendered
// from. Updating content creates a new template id and version and
// deactivates the prior one; contracts keep referencing the frozen
// version so already-generated documents stay reproducible.
type ContractTemplate struct {
	ID                 string       `json:"id"`
	TenantID           string       `json:"tenant_id"`
	Name               string       `json:"name"`
	Type               ContractType `json:"type"`
	Content            string       `json:"content"`
	AvailableVariables []string     `json:"available_variables"`
	Version            int          `json:"version"`
	IsActive           bool         `json:"is_active"`
	CreatedOn          time.Time    `json:"created_on"`
	UpdatedOn          time.Time    `json:"updated_on"`
}

// requiredVariables lists the placeholders a template of each type must
// contain. Validation checks this table exhaustively.
var requiredVariables = map[ContractType][]string{
	ContractTypeRentalStandard:   {"contract_number", "partner_name", "equipment_name", "rental_start_date", "rental_end_date", "daily_rate"},
	ContractTypeRentalLongTerm:   {"contract_number", "partner_name", "equipment_name", "rental_start_date", "monthly_rate", "duration_months"},
	ContractTypeRentalCorporate:  {"contract_number", "partner_name", "company_reg_number", "equipment_name", "rental_start_date", "daily_rate"},
	ContractTypeDepositAgreement: {"contract_number", "partner_name", "equipment_name", "equipment_value", "deposit_amount"},
}

// knownVariables is the global list of recognized placeholder names.
// A found variable outside this list is a warning, not an error.
var knownVariables = []string{
	"contract_number",
	"partner_name",
	"partner_address",
	"partner_email",
	"partner_tax_number",
	"company_reg_number",
	"equipment_name",
	"equipment_serial",
	"equipment_value",
	"rental_start_date",
	"rental_end_date",
	"daily_rate",
	"monthly_rate",
	"duration_months",
	"deposit_amount",
	"tenant_name",
	"tenant_address",
	"notes",
}

// RequiredVariablesFor returns the required placeholder set for a
// contract type. Unknown types have no requirements.
func RequiredVariablesFor(t ContractType) []string {
	return requiredVariables[t]
}

// IsKnownVariable reports whether name appears in the global
// known-variable list.
func IsKnownVariable(name string) bool {
	for _, v := range knownVariables {
		if v == name {
			return true
		}
	}
	return false
}

func IsValidContractType(t ContractType) bool {
	switch t {
	case ContractTypeRentalStandard, ContractTypeRentalLongTerm, ContractTypeRentalCorporate, ContractTypeDepositAgreement:
		return true
	default:
		return false
	}
}
