package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/repository/memory"
)

const standardTemplate = `RENTAL AGREEMENT {{contract_number}}
Partner: {{partner_name}}
Equipment: {{equipment_name}}
From {{rental_start_date}} to {{rental_end_date}}
Daily rate: {{daily_rate}} HUF`

func TestTemplateService_ValidateTemplateContent(t *testing.T) {
	svc := NewTemplateService(memory.NewTemplateRepository(), "en")

	t.Run("ValidTemplate", func(t *testing.T) {
		res := svc.ValidateTemplateContent(standardTemplate, domain.ContractTypeRentalStandard)
		assert.True(t, res.IsValid)
		assert.Empty(t, res.Errors)
		assert.Len(t, res.FoundVariables, 5)
	})

	t.Run("MissingRequiredVariable", func(t *testing.T) {
		content := `Agreement {{contract_number}} for {{partner_name}}`
		res := svc.ValidateTemplateContent(content, domain.ContractTypeRentalStandard)
		assert.False(t, res.IsValid)
		assert.Contains(t, res.MissingRequiredVariables, "equipment_name")
		assert.Contains(t, res.MissingRequiredVariables, "daily_rate")
	})

	t.Run("WhitespaceInsidePlaceholderIsMalformed", func(t *testing.T) {
		res := svc.ValidateTemplateContent(standardTemplate+" {{bad name}}", domain.ContractTypeRentalStandard)
		assert.False(t, res.IsValid)
		assert.Contains(t, res.Errors[0], "whitespace inside braces")
	})

	t.Run("UnknownVariableIsWarningOnly", func(t *testing.T) {
		res := svc.ValidateTemplateContent(standardTemplate+" {{custom_clause}}", domain.ContractTypeRentalStandard)
		assert.True(t, res.IsValid)
		require.Len(t, res.Warnings, 1)
		assert.Contains(t, res.Warnings[0], "custom_clause")
	})

	t.Run("DuplicatePlaceholderCountedOnce", func(t *testing.T) {
		res := svc.ValidateTemplateContent(standardTemplate+" again {{partner_name}}", domain.ContractTypeRentalStandard)
		assert.True(t, res.IsValid)
		assert.Len(t, res.FoundVariables, 5)
	})
}

func TestTemplateService_RenderTemplate(t *testing.T) {
	svc := NewTemplateService(memory.NewTemplateRepository(), "en")
	tmpl := &domain.ContractTemplate{
		Content:            standardTemplate,
		AvailableVariables: []string{"contract_number", "partner_name", "equipment_name", "rental_start_date", "rental_end_date", "daily_rate"},
	}

	t.Run("SubstitutesAllVariables", func(t *testing.T) {
		out := svc.RenderTemplate(tmpl, map[string]string{
			"contract_number":   "ACME-2026-00001",
			"partner_name":      "Smith Rentals",
			"equipment_name":    "Excavator",
			"rental_start_date": "2026-08-01",
			"rental_end_date":   "2026-08-31",
			"daily_rate":        "45000",
		})
		assert.Contains(t, out, "ACME-2026-00001")
		assert.Contains(t, out, "Smith Rentals")
		assert.NotContains(t, out, "{{")
	})

	t.Run("IntegerValuesGetThousandsGrouping", func(t *testing.T) {
		out := svc.RenderTemplate(tmpl, map[string]string{"daily_rate": "1234567"})
		assert.Contains(t, out, "1,234,567")
	})

	t.Run("TextValuesAreEscaped", func(t *testing.T) {
		out := svc.RenderTemplate(tmpl, map[string]string{"partner_name": `<b>"Smith & Sons"</b>`})
		assert.Contains(t, out, "&lt;b&gt;&quot;Smith &amp; Sons&quot;&lt;&#x2F;b&gt;")
		assert.NotContains(t, out, "<b>")
	})

	t.Run("UndefinedVariableRendersEmpty", func(t *testing.T) {
		out := svc.RenderTemplate(tmpl, map[string]string{"contract_number": "X-2026-00001"})
		assert.Contains(t, out, "Partner: \n")
		assert.NotContains(t, out, "{{partner_name}}")
	})
}

func TestTemplateService_CreateTemplate(t *testing.T) {
	repo := memory.NewTemplateRepository()
	svc := NewTemplateService(repo, "en")
	ctx := context.Background()

	t.Run("FirstVersionIsOne", func(t *testing.T) {
		tmpl, err := svc.CreateTemplate(ctx, "tenant-1", "Standard", domain.ContractTypeRentalStandard, standardTemplate)
		require.NoError(t, err)
		assert.Equal(t, 1, tmpl.Version)
		assert.True(t, tmpl.IsActive)
	})

	t.Run("NewTemplateSupersedesActiveOne", func(t *testing.T) {
		tmpl, err := svc.CreateTemplate(ctx, "tenant-1", "Standard v2", domain.ContractTypeRentalStandard, standardTemplate+"\nExtra clause.")
		require.NoError(t, err)
		assert.Equal(t, 2, tmpl.Version)

		active, err := repo.GetActiveByType(ctx, "tenant-1", domain.ContractTypeRentalStandard)
		require.NoError(t, err)
		assert.Equal(t, tmpl.ID, active.ID)
	})

	t.Run("InvalidContentRejected", func(t *testing.T) {
		_, err := svc.CreateTemplate(ctx, "tenant-1", "Broken", domain.ContractTypeRentalStandard, "no placeholders at all")
		var ve *domain.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.NotEmpty(t, ve.Problems)
	})

	t.Run("UnknownContractTypeRejected", func(t *testing.T) {
		_, err := svc.CreateTemplate(ctx, "tenant-1", "X", domain.ContractType("SALE"), standardTemplate)
		var ve *domain.ValidationError
		assert.ErrorAs(t, err, &ve)
	})
}

func TestTemplateService_UpdateTemplateContent(t *testing.T) {
	repo := memory.NewTemplateRepository()
	svc := NewTemplateService(repo, "en")
	ctx := context.Background()

	v1, err := svc.CreateTemplate(ctx, "tenant-1", "Standard", domain.ContractTypeRentalStandard, standardTemplate)
	require.NoError(t, err)

	t.Run("CreatesNewVersionAndDeactivatesOld", func(t *testing.T) {
		v2, err := svc.UpdateTemplateContent(ctx, "tenant-1", v1.ID, standardTemplate+"\nRevised terms.")
		require.NoError(t, err)
		assert.NotEqual(t, v1.ID, v2.ID)
		assert.Equal(t, v1.Version+1, v2.Version)

		old, err := repo.GetByID(ctx, "tenant-1", v1.ID)
		require.NoError(t, err)
		assert.False(t, old.IsActive)
		assert.Equal(t, standardTemplate, old.Content)
	})

	t.Run("OtherTenantCannotSeeTemplate", func(t *testing.T) {
		_, err := svc.UpdateTemplateContent(ctx, "tenant-2", v1.ID, standardTemplate)
		var nf *domain.NotFoundError
		assert.ErrorAs(t, err, &nf)
	})
}

func TestTemplateService_BuildDefaultVariables(t *testing.T) {
	svc := NewTemplateService(memory.NewTemplateRepository(), "en")

	rental := &domain.Rental{ID: "r-1", StartDate: mustDate(t, "2026-08-01"), DailyRate: 45000}
	partner := &domain.Partner{Name: "Smith Rentals", TaxNumber: "12345678-2-42"}
	equipment := &domain.Equipment{ID: "e-1", Name: "Excavator", Value: 9000000}
	tenant := &domain.Tenant{ID: "tenant-1", Name: "Acme Kft.", ContractPrefix: "ACME"}

	t.Run("IncludesRequiredAndPresentOptionalFields", func(t *testing.T) {
		vars := svc.BuildDefaultVariables(rental, partner, equipment, tenant, "ACME-2026-00007", nil)
		assert.Equal(t, "ACME-2026-00007", vars["contract_number"])
		assert.Equal(t, "Smith Rentals", vars["partner_name"])
		assert.Equal(t, "2026-08-01", vars["rental_start_date"])
		assert.Equal(t, "45000", vars["daily_rate"])
		assert.Equal(t, "12345678-2-42", vars["partner_tax_number"])
	})

	t.Run("AbsentOptionalFieldsProduceNoKey", func(t *testing.T) {
		vars := svc.BuildDefaultVariables(rental, partner, equipment, tenant, "ACME-2026-00007", nil)
		_, hasEnd := vars["rental_end_date"]
		assert.False(t, hasEnd)
		_, hasDeposit := vars["deposit_amount"]
		assert.False(t, hasDeposit)
	})

	t.Run("DepositIncludedWhenSet", func(t *testing.T) {
		deposit := int64(2700000)
		vars := svc.BuildDefaultVariables(rental, partner, equipment, tenant, "ACME-2026-00007", &deposit)
		assert.Equal(t, "2700000", vars["deposit_amount"])
	})
}
