package domain

import "time"

// Rental is the external rental a contract references. Only the fields
// the contract engine snapshots into placeholder variables live here;
// scheduling and billing belong to the rental subsystem.
type Rental struct {
	ID             string     `json:"id"`
	StartDate      time.Time  `json:"start_date"`
	EndDate        *time.Time `json:"end_date,omitempty"`
	DailyRate      int64      `json:"daily_rate"`
	MonthlyRate    int64      `json:"monthly_rate"`
	DurationMonths int        `json:"duration_months"`
	Notes          string     `json:"notes,omitempty"`
}

type Partner struct {
	Name             string `json:"name"`
	Address          string `json:"address,omitempty"`
	Email            string `json:"email,omitempty"`
	TaxNumber        string `json:"tax_number,omitempty"`
	CompanyRegNumber string `json:"company_reg_number,omitempty"`
}

type Equipment struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	SerialNumber string `json:"serial_number,omitempty"`
	Value        int64  `json:"value"`
}

// Tenant is the isolation boundary. ContractPrefix derives the tenant
// part of contract numbers (PREFIX-YYYY-NNNNN).
type Tenant struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Address        string `json:"address,omitempty"`
	ContractPrefix string `json:"contract_prefix"`
}
