package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/logger"
	"equiprent-backend/internal/repository"
)

// multiEquipmentService manages contracts covering several equipment
// items as one legal instrument. It parallels the single-equipment
// lifecycle up to activation but closes by completion-of-returns
// instead of a sign/archive action.
type multiEquipmentService struct {
	contractRepo repository.MultiEquipmentContractRepository
	seqRepo      repository.SequenceRepository
}

func NewMultiEquipmentService(contractRepo repository.MultiEquipmentContractRepository, seqRepo repository.SequenceRepository) MultiEquipmentService {
	return &multiEquipmentService{
		contractRepo: contractRepo,
		seqRepo:      seqRepo,
	}
}

func (s *multiEquipmentService) CreateMultiEquipmentContract(ctx context.Context, tenant *domain.Tenant, items []EquipmentItemInput, startDate time.Time, depositRate *float64) (*domain.MultiEquipmentContract, error) {
	if tenant == nil || tenant.ContractPrefix == "" {
		return nil, domain.NewValidationError("tenant with contract prefix is required")
	}
	if len(items) == 0 {
		return nil, domain.NewValidationError("equipment item list is empty")
	}

	rate := domain.DefaultDepositRate
	if depositRate != nil {
		if *depositRate <= 0 || *depositRate > 1 {
			return nil, domain.NewValidationError(fmt.Sprintf("deposit rate %.2f out of range (0, 1]", *depositRate))
		}
		rate = *depositRate
	}

	deposit := s.CalculateDeposit(items, rate)

	year := startDate.Year()
	seq, err := s.seqRepo.Next(ctx, tenant.ID, year)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate contract number: %w", err)
	}

	now := time.Now()
	contract := &domain.MultiEquipmentContract{
		ID:                 uuid.New().String(),
		TenantID:           tenant.ID,
		ContractNumber:     fmt.Sprintf("%s-%d-%05d", tenant.ContractPrefix, year, seq),
		Status:             domain.ContractStatusDraft,
		Items:              make([]domain.RentalContractItem, 0, len(items)),
		TotalDepositAmount: deposit.DepositAmount,
		DepositRate:        rate,
		CreatedOn:          now,
		UpdatedOn:          now,
	}
	for _, in := range items {
		contract.Items = append(contract.Items, domain.RentalContractItem{
			ID:             uuid.New().String(),
			EquipmentID:    in.EquipmentID,
			EquipmentName:  in.EquipmentName,
			SerialNumber:   in.SerialNumber,
			EquipmentValue: in.EquipmentValue,
			DailyRate:      in.DailyRate,
			Status:         domain.ItemStatusRented,
			RentedAt:       startDate,
		})
	}

	if err := s.contractRepo.Create(ctx, contract); err != nil {
		return nil, fmt.Errorf("failed to create multi-equipment contract: %w", err)
	}

	logger.Info("Multi-equipment contract created", "tenant_id", tenant.ID, "contract_id", contract.ID,
		"contract_number", contract.ContractNumber, "items", len(items), "deposit", contract.TotalDepositAmount)
	return contract, nil
}

// CalculateDeposit computes the aggregate deposit: round(sum * rate),
// with each item's contribution independently rounded. Contributions
// may not sum exactly to the total; that is accepted rounding
// tolerance, not a bug. Empty input yields all-zero output.
func (s *multiEquipmentService) CalculateDeposit(items []EquipmentItemInput, rate float64) DepositCalculation {
	calc := DepositCalculation{DepositRate: rate}
	for _, it := range items {
		calc.TotalEquipmentValue += it.EquipmentValue
		calc.ItemBreakdown = append(calc.ItemBreakdown, DepositBreakdownItem{
			EquipmentID:   it.EquipmentID,
			DepositAmount: int64(math.Round(float64(it.EquipmentValue) * rate)),
		})
	}
	calc.DepositAmount = int64(math.Round(float64(calc.TotalEquipmentValue) * rate))
	return calc
}

// ReturnItem marks one item returned. Returns are not idempotent: a
// second return of the same item is an explicit error. When the last
// rented item comes back the contract closes irreversibly and the full
// deposit becomes releasable.
func (s *multiEquipmentService) ReturnItem(ctx context.Context, tenantID, contractID, itemID, returnedBy, notes string) (*ReturnItemResult, error) {
	contract, err := s.contractRepo.GetByID(ctx, tenantID, contractID)
	if err != nil {
		return nil, err
	}

	var item *domain.RentalContractItem
	for i := range contract.Items {
		if contract.Items[i].ID == itemID {
			item = &contract.Items[i]
			break
		}
	}
	if item == nil {
		return nil, &domain.NotFoundError{Entity: "contract item", ID: itemID}
	}
	if item.Status == domain.ItemStatusReturned {
		return nil, domain.NewValidationError(fmt.Sprintf("item %s already returned", itemID))
	}

	now := time.Now()
	item.Status = domain.ItemStatusReturned
	item.ReturnedAt = &now
	item.ReturnedBy = returnedBy
	item.ReturnNotes = notes

	remaining := len(contract.RemainingItems())
	result := &ReturnItemResult{
		ReturnedItem:        item,
		RemainingItemsCount: remaining,
	}

	if remaining == 0 {
		contract.IsFullyReturned = true
		contract.Status = domain.ContractStatusCompleted
		result.IsContractClosed = true
		deposit := contract.TotalDepositAmount
		result.DepositToRelease = &deposit
	} else if contract.Status == domain.ContractStatusDraft {
		// First return activates a contract still sitting in draft.
		contract.Status = domain.ContractStatusSigned
	}

	contract.UpdatedOn = now
	if err := s.contractRepo.Update(ctx, contract); err != nil {
		return nil, fmt.Errorf("failed to record item return: %w", err)
	}

	result.Contract = contract
	logger.Info("Contract item returned", "tenant_id", tenantID, "contract_id", contractID, "item_id", itemID,
		"remaining", remaining, "closed", result.IsContractClosed)
	return result, nil
}

func (s *multiEquipmentService) GetRemainingItems(ctx context.Context, tenantID, contractID string) ([]domain.RentalContractItem, error) {
	contract, err := s.contractRepo.GetByID(ctx, tenantID, contractID)
	if err != nil {
		return nil, err
	}
	return contract.RemainingItems(), nil
}

func (s *multiEquipmentService) GetContract(ctx context.Context, tenantID, contractID string) (*domain.MultiEquipmentContract, error) {
	return s.contractRepo.GetByID(ctx, tenantID, contractID)
}
