package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/repository/memory"
)

func threeItems() []EquipmentItemInput {
	return []EquipmentItemInput{
		{EquipmentID: "e-1", EquipmentName: "Excavator", EquipmentValue: 100000, DailyRate: 4000},
		{EquipmentID: "e-2", EquipmentName: "Generator", EquipmentValue: 200000, DailyRate: 2500},
		{EquipmentID: "e-3", EquipmentName: "Scaffolding", EquipmentValue: 50000, DailyRate: 1000},
	}
}

func newMultiFixture() (MultiEquipmentService, *domain.Tenant) {
	store := memory.NewStore()
	svc := NewMultiEquipmentService(store.MultiEquipmentContractRepository, store.SequenceRepository)
	return svc, &domain.Tenant{ID: "tenant-1", Name: "Acme Kft.", ContractPrefix: "ACME"}
}

func TestMultiEquipmentService_CalculateDeposit(t *testing.T) {
	svc, _ := newMultiFixture()

	t.Run("DefaultRateBreakdown", func(t *testing.T) {
		items := []EquipmentItemInput{
			{EquipmentID: "e-1", EquipmentValue: 100000},
			{EquipmentID: "e-2", EquipmentValue: 200000},
		}
		calc := svc.CalculateDeposit(items, domain.DefaultDepositRate)
		assert.Equal(t, int64(300000), calc.TotalEquipmentValue)
		assert.Equal(t, int64(90000), calc.DepositAmount)
		require.Len(t, calc.ItemBreakdown, 2)
		assert.Equal(t, int64(30000), calc.ItemBreakdown[0].DepositAmount)
		assert.Equal(t, int64(60000), calc.ItemBreakdown[1].DepositAmount)
	})

	t.Run("RoundingIsPerItem", func(t *testing.T) {
		items := []EquipmentItemInput{
			{EquipmentID: "e-1", EquipmentValue: 3},
			{EquipmentID: "e-2", EquipmentValue: 3},
		}
		calc := svc.CalculateDeposit(items, 0.5)
		// Each item rounds independently; the sum of contributions may
		// differ from the rounded total.
		assert.Equal(t, int64(3), calc.DepositAmount)
		assert.Equal(t, int64(2), calc.ItemBreakdown[0].DepositAmount)
		assert.Equal(t, int64(2), calc.ItemBreakdown[1].DepositAmount)
	})

	t.Run("EmptyInputYieldsZero", func(t *testing.T) {
		calc := svc.CalculateDeposit(nil, domain.DefaultDepositRate)
		assert.Zero(t, calc.TotalEquipmentValue)
		assert.Zero(t, calc.DepositAmount)
		assert.Empty(t, calc.ItemBreakdown)
	})
}

func TestMultiEquipmentService_CreateMultiEquipmentContract(t *testing.T) {
	svc, tenant := newMultiFixture()
	ctx := context.Background()
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	t.Run("CreatesDraftWithRentedItems", func(t *testing.T) {
		c, err := svc.CreateMultiEquipmentContract(ctx, tenant, threeItems(), start, nil)
		require.NoError(t, err)
		assert.Equal(t, domain.ContractStatusDraft, c.Status)
		assert.Equal(t, fmt.Sprintf("ACME-%d-00001", start.Year()), c.ContractNumber)
		assert.Equal(t, int64(105000), c.TotalDepositAmount)
		assert.Equal(t, domain.DefaultDepositRate, c.DepositRate)
		require.Len(t, c.Items, 3)
		for _, it := range c.Items {
			assert.Equal(t, domain.ItemStatusRented, it.Status)
			assert.Equal(t, start, it.RentedAt)
		}
	})

	t.Run("EmptyItemListRejected", func(t *testing.T) {
		_, err := svc.CreateMultiEquipmentContract(ctx, tenant, nil, start, nil)
		var ve *domain.ValidationError
		assert.ErrorAs(t, err, &ve)
	})

	t.Run("DepositRateOutOfRangeRejected", func(t *testing.T) {
		for _, rate := range []float64{0, -0.1, 1.5} {
			r := rate
			_, err := svc.CreateMultiEquipmentContract(ctx, tenant, threeItems(), start, &r)
			var ve *domain.ValidationError
			assert.ErrorAs(t, err, &ve, "rate %v", rate)
		}
	})

	t.Run("CustomRateApplied", func(t *testing.T) {
		rate := 0.5
		c, err := svc.CreateMultiEquipmentContract(ctx, tenant, threeItems(), start, &rate)
		require.NoError(t, err)
		assert.Equal(t, int64(175000), c.TotalDepositAmount)
	})
}

func TestMultiEquipmentService_ReturnItem(t *testing.T) {
	svc, tenant := newMultiFixture()
	ctx := context.Background()
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	c, err := svc.CreateMultiEquipmentContract(ctx, tenant, threeItems(), start, nil)
	require.NoError(t, err)

	t.Run("FirstReturnActivatesContract", func(t *testing.T) {
		res, err := svc.ReturnItem(ctx, tenant.ID, c.ID, c.Items[0].ID, "warehouse-a", "minor scratches")
		require.NoError(t, err)
		assert.False(t, res.IsContractClosed)
		assert.Equal(t, 2, res.RemainingItemsCount)
		assert.Nil(t, res.DepositToRelease)
		assert.Equal(t, domain.ContractStatusSigned, res.Contract.Status)
		assert.Equal(t, domain.ItemStatusReturned, res.ReturnedItem.Status)
		assert.Equal(t, "warehouse-a", res.ReturnedItem.ReturnedBy)
	})

	t.Run("DoubleReturnRejected", func(t *testing.T) {
		_, err := svc.ReturnItem(ctx, tenant.ID, c.ID, c.Items[0].ID, "warehouse-a", "")
		var ve *domain.ValidationError
		assert.ErrorAs(t, err, &ve)
	})

	t.Run("UnknownItemNotFound", func(t *testing.T) {
		_, err := svc.ReturnItem(ctx, tenant.ID, c.ID, "no-such-item", "warehouse-a", "")
		var nf *domain.NotFoundError
		assert.ErrorAs(t, err, &nf)
	})

	t.Run("LastReturnClosesContractAndReleasesDeposit", func(t *testing.T) {
		_, err := svc.ReturnItem(ctx, tenant.ID, c.ID, c.Items[1].ID, "warehouse-a", "")
		require.NoError(t, err)

		res, err := svc.ReturnItem(ctx, tenant.ID, c.ID, c.Items[2].ID, "warehouse-b", "all good")
		require.NoError(t, err)
		assert.True(t, res.IsContractClosed)
		assert.Equal(t, 0, res.RemainingItemsCount)
		assert.True(t, res.Contract.IsFullyReturned)
		assert.Equal(t, domain.ContractStatusCompleted, res.Contract.Status)
		require.NotNil(t, res.DepositToRelease)
		assert.Equal(t, int64(105000), *res.DepositToRelease)
	})

	t.Run("ClosedContractRejectsFurtherReturns", func(t *testing.T) {
		_, err := svc.ReturnItem(ctx, tenant.ID, c.ID, c.Items[2].ID, "warehouse-b", "")
		assert.Error(t, err)
	})
}

func TestMultiEquipmentService_GetRemainingItems(t *testing.T) {
	svc, tenant := newMultiFixture()
	ctx := context.Background()
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	c, err := svc.CreateMultiEquipmentContract(ctx, tenant, threeItems(), start, nil)
	require.NoError(t, err)

	items, err := svc.GetRemainingItems(ctx, tenant.ID, c.ID)
	require.NoError(t, err)
	assert.Len(t, items, 3)

	_, err = svc.ReturnItem(ctx, tenant.ID, c.ID, c.Items[1].ID, "warehouse-a", "")
	require.NoError(t, err)

	items, err = svc.GetRemainingItems(ctx, tenant.ID, c.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	for _, it := range items {
		assert.NotEqual(t, c.Items[1].ID, it.ID)
	}

	t.Run("TenantScoped", func(t *testing.T) {
		_, err := svc.GetRemainingItems(ctx, "tenant-2", c.ID)
		var nf *domain.NotFoundError
		assert.ErrorAs(t, err, &nf)
	})
}
