package service

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/logger"
	"equiprent-backend/internal/repository"
)

// rePlaceholder matches any {{...}} token; the inner text is validated
// separately so malformed placeholders can be reported precisely.
var (
	rePlaceholder = regexp.MustCompile(`\{\{([^{}]*)\}\}`)
	reIdentifier  = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	reInteger     = regexp.MustCompile(`^-?\d+$`)
)

// htmlEscaper neutralizes the characters that matter when rendered text
// is later embedded into a document. Substituted values are untrusted.
var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
	"/", "&#x2F;",
)

type templateService struct {
	templateRepo repository.TemplateRepository
	printer      *message.Printer
}

func NewTemplateService(templateRepo repository.TemplateRepository, locale string) TemplateService {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	return &templateService{
		templateRepo: templateRepo,
		printer:      message.NewPrinter(tag),
	}
}

func (s *templateService) CreateTemplate(ctx context.Context, tenantID, name string, ctype domain.ContractType, content string) (*domain.ContractTemplate, error) {
	if !domain.IsValidContractType(ctype) {
		return nil, domain.NewValidationError(fmt.Sprintf("unknown contract type %q", ctype))
	}
	res := s.ValidateTemplateContent(content, ctype)
	if !res.IsValid {
		return nil, &domain.ValidationError{Problems: res.Errors}
	}

	now := time.Now()
	tmpl := &domain.ContractTemplate{
		ID:                 uuid.New().String(),
		TenantID:           tenantID,
		Name:               name,
		Type:               ctype,
		Content:            content,
		AvailableVariables: res.FoundVariables,
		Version:            1,
		IsActive:           true,
		CreatedOn:          now,
		UpdatedOn:          now,
	}

	// A newly created template supersedes the currently active one of
	// the same type, if any.
	if prev, err := s.templateRepo.GetActiveByType(ctx, tenantID, ctype); err == nil && prev != nil {
		tmpl.Version = prev.Version + 1
		prev.IsActive = false
		prev.UpdatedOn = now
		if err := s.templateRepo.Update(ctx, prev); err != nil {
			return nil, fmt.Errorf("failed to deactivate previous template: %w", err)
		}
	}

	if err := s.templateRepo.Create(ctx, tmpl); err != nil {
		return nil, fmt.Errorf("failed to create template: %w", err)
	}
	logger.Info("Template created", "tenant_id", tenantID, "template_id", tmpl.ID, "type", ctype, "version", tmpl.Version)
	return tmpl, nil
}

func (s *templateService) UpdateTemplateContent(ctx context.Context, tenantID, templateID, content string) (*domain.ContractTemplate, error) {
	prev, err := s.templateRepo.GetByID(ctx, tenantID, templateID)
	if err != nil {
		return nil, err
	}

	res := s.ValidateTemplateContent(content, prev.Type)
	if !res.IsValid {
		return nil, &domain.ValidationError{Problems: res.Errors}
	}

	now := time.Now()
	next := &domain.ContractTemplate{
		ID:                 uuid.New().String(),
		TenantID:           tenantID,
		Name:               prev.Name,
		Type:               prev.Type,
		Content:            content,
		AvailableVariables: res.FoundVariables,
		Version:            prev.Version + 1,
		IsActive:           true,
		CreatedOn:          now,
		UpdatedOn:          now,
	}

	// The prior version is frozen, never rewritten: contracts that
	// reference it must stay reproducible.
	prev.IsActive = false
	prev.UpdatedOn = now
	if err := s.templateRepo.Update(ctx, prev); err != nil {
		return nil, fmt.Errorf("failed to deactivate template %s: %w", prev.ID, err)
	}
	if err := s.templateRepo.Create(ctx, next); err != nil {
		return nil, fmt.Errorf("failed to create template version %d: %w", next.Version, err)
	}

	logger.Info("Template content updated", "tenant_id", tenantID, "previous_id", prev.ID, "template_id", next.ID, "version", next.Version)
	return next, nil
}

func (s *templateService) GetTemplate(ctx context.Context, tenantID, id string) (*domain.ContractTemplate, error) {
	return s.templateRepo.GetByID(ctx, tenantID, id)
}

func (s *templateService) ListTemplates(ctx context.Context, tenantID string) ([]domain.ContractTemplate, error) {
	return s.templateRepo.ListByTenant(ctx, tenantID)
}

// ValidateTemplateContent scans content for {{name}} tokens and checks
// them against the required set of the contract type. Failures are
// data, not errors, so callers can aggregate them.
func (s *templateService) ValidateTemplateContent(content string, ctype domain.ContractType) TemplateValidationResult {
	res := TemplateValidationResult{}

	found := map[string]bool{}
	for _, match := range rePlaceholder.FindAllStringSubmatch(content, -1) {
		inner := match[1]
		if strings.ContainsAny(inner, " \t\r\n") {
			res.Errors = append(res.Errors, fmt.Sprintf("malformed placeholder {{%s}}: whitespace inside braces", inner))
			continue
		}
		if !reIdentifier.MatchString(inner) {
			res.Errors = append(res.Errors, fmt.Sprintf("malformed placeholder {{%s}}: not a valid identifier", inner))
			continue
		}
		if !found[inner] {
			found[inner] = true
			res.FoundVariables = append(res.FoundVariables, inner)
		}
	}

	for _, required := range domain.RequiredVariablesFor(ctype) {
		if !found[required] {
			res.MissingRequiredVariables = append(res.MissingRequiredVariables, required)
			res.Errors = append(res.Errors, fmt.Sprintf("missing required variable {{%s}}", required))
		}
	}

	for _, name := range res.FoundVariables {
		if !domain.IsKnownVariable(name) {
			res.Warnings = append(res.Warnings, fmt.Sprintf("unknown variable {{%s}}", name))
		}
	}

	res.IsValid = len(res.Errors) == 0
	return res
}

// RenderTemplate substitutes every occurrence of each variable the
// template declares. Numeric values get locale-correct thousands
// grouping; textual values are HTML-escaped; undefined values render as
// empty string. Rendering never fails.
func (s *templateService) RenderTemplate(tmpl *domain.ContractTemplate, variables map[string]string) string {
	text := tmpl.Content
	for _, name := range tmpl.AvailableVariables {
		placeholder := "{{" + name + "}}"
		value, ok := variables[name]
		if !ok {
			text = strings.ReplaceAll(text, placeholder, "")
			continue
		}
		text = strings.ReplaceAll(text, placeholder, s.formatValue(value))
	}
	return text
}

func (s *templateService) formatValue(value string) string {
	if reInteger.MatchString(value) {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return s.printer.Sprintf("%d", n)
		}
	}
	return htmlEscaper.Replace(value)
}

// BuildDefaultVariables assembles the standard placeholder snapshot.
// Optional fields are included only when present; a genuinely absent
// value produces no key rather than an empty placeholder.
func (s *templateService) BuildDefaultVariables(r *domain.Rental, p *domain.Partner, e *domain.Equipment, t *domain.Tenant, contractNumber string, deposit *int64) map[string]string {
	vars := map[string]string{
		"contract_number":   contractNumber,
		"partner_name":      p.Name,
		"equipment_name":    e.Name,
		"rental_start_date": r.StartDate.Format("2006-01-02"),
		"tenant_name":       t.Name,
	}

	if p.Address != "" {
		vars["partner_address"] = p.Address
	}
	if p.Email != "" {
		vars["partner_email"] = p.Email
	}
	if p.TaxNumber != "" {
		vars["partner_tax_number"] = p.TaxNumber
	}
	if p.CompanyRegNumber != "" {
		vars["company_reg_number"] = p.CompanyRegNumber
	}
	if e.SerialNumber != "" {
		vars["equipment_serial"] = e.SerialNumber
	}
	if e.Value > 0 {
		vars["equipment_value"] = strconv.FormatInt(e.Value, 10)
	}
	if r.EndDate != nil {
		vars["rental_end_date"] = r.EndDate.Format("2006-01-02")
	}
	if r.DailyRate > 0 {
		vars["daily_rate"] = strconv.FormatInt(r.DailyRate, 10)
	}
	if r.MonthlyRate > 0 {
		vars["monthly_rate"] = strconv.FormatInt(r.MonthlyRate, 10)
	}
	if r.DurationMonths > 0 {
		vars["duration_months"] = strconv.Itoa(r.DurationMonths)
	}
	if r.Notes != "" {
		vars["notes"] = r.Notes
	}
	if t.Address != "" {
		vars["tenant_address"] = t.Address
	}
	if deposit != nil {
		vars["deposit_amount"] = strconv.FormatInt(*deposit, 10)
	}

	return vars
}
