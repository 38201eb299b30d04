package domain

import "time"

type ItemStatus string

const (
	ItemStatusRented   ItemStatus = "RENTED"
	ItemStatusReturned ItemStatus = "RETURNED"
	ItemStatusOverdue  ItemStatus = "OVERDUE"
)

// DefaultDepositRate is the fraction of total equipment value held as a
// refundable deposit when the caller does not specify one.
const DefaultDepositRate = 0.30

// RentalContractItem is one piece of equipment inside a multi-equipment
// contract, returnable independently of its siblings.
type RentalContractItem struct {
	ID             string     `json:"id"`
	EquipmentID    string     `json:"equipment_id"`
	EquipmentName  string     `json:"equipment_name"`
	SerialNumber   string     `json:"serial_number,omitempty"`
	EquipmentValue int64      `json:"equipment_value"`
	DailyRate      int64      `json:"daily_rate"`
	Status         ItemStatus `json:"status"`
	RentedAt       time.Time  `json:"rented_at"`
	ReturnedAt     *time.Time `json:"returned_at,omitempty"`
	ReturnedBy     string     `json:"returned_by,omitempty"`
	ReturnNotes    string     `json:"return_notes,omitempty"`
}

// MultiEquipmentContract covers several equipment items as one legal
// instrument. It is fully returned iff no item has status RENTED;
// closure is irreversible.
type MultiEquipmentContract struct {
	ID                 string               `json:"id"`
	TenantID           string               `json:"tenant_id"`
	ContractNumber     string               `json:"contract_number"`
	Status             ContractStatus       `json:"status"`
	Items              []RentalContractItem `json:"items"`
	TotalDepositAmount int64                `json:"total_deposit_amount"`
	DepositRate        float64              `json:"deposit_rate"`
	IsFullyReturned    bool                 `json:"is_fully_returned"`
	CreatedOn          time.Time            `json:"created_on"`
	UpdatedOn          time.Time            `json:"updated_on"`
}

// RemainingItems returns the items still out, i.e. with status RENTED.
// OVERDUE items are out too but tracked separately by reporting.
func (c *MultiEquipmentContract) RemainingItems() []RentalContractItem {
	var out []RentalContractItem
	for _, it := range c.Items {
		if it.Status == ItemStatusRented {
			out = append(out, it)
		}
	}
	return out
}
