package provider

import (
	"context"
	"time"

	"github.com/sells-group/lead-enrich-cli/internal/model"
	"github.com/sells-group/lead-enrich-cli/pkg/clearbit"
)

// Clearbit is the company-enrichment specialist provider.
type Clearbit struct {
	*Runtime
	client clearbit.Client
}

// NewClearbit creates the Clearbit provider over the given API client.
func NewClearbit(cfg Config, client clearbit.Client) *Clearbit {
	return &Clearbit{Runtime: NewRuntime(cfg), client: client}
}

func (c *Clearbit) Supports(t model.EnrichmentType) bool {
	return t == model.TypeCompanyEnrichment
}

func (c *Clearbit) ValidateEmail(ctx context.Context, email string) EmailResult {
	return EmailResult{Envelope: c.NotSupported(model.TypeEmailValidation)}
}

func (c *Clearbit) EnrichCompany(ctx context.Context, domain string) CompanyResult {
	env, ok := c.Begin()
	if !ok {
		return CompanyResult{Envelope: env}
	}

	start := time.Now()
	company, err := c.client.FindCompany(ctx, CleanDomain(domain))
	env = c.Finish(start, err)
	if !env.Success {
		return CompanyResult{Envelope: env}
	}

	return CompanyResult{Envelope: env, Data: normalizeCompany(company)}
}

func (c *Clearbit) EnrichPerson(ctx context.Context, email string) PersonResult {
	return PersonResult{Envelope: c.NotSupported(model.TypePersonEnrichment)}
}

// normalizeCompany maps the Clearbit record onto the canonical profile.
// Size prefers the exact employee count bracketed to the canonical scale,
// falling back to Clearbit's own range string.
func normalizeCompany(cc *clearbit.Company) *CompanyProfile {
	size := SizeBracket(cc.Metrics.Employees)
	if size == "" {
		size = cc.Metrics.EmployeesRange
	}

	industry := cc.Category.Industry
	if industry == "" {
		industry = cc.Category.Sector
	}

	profile := &CompanyProfile{
		Name:     cc.Name,
		Domain:   cc.Domain,
		Website:  cc.Domain,
		Size:     size,
		Industry: industry,
		City:     cc.Geo.City,
		State:    cc.Geo.State,
		Country:  cc.Geo.Country,
		Timezone: cc.TimeZone,
		Phone:    cc.Phone,
	}
	if cc.LinkedIn.Handle != "" {
		profile.LinkedInURL = "https://linkedin.com/" + cc.LinkedIn.Handle
	}

	extras := make(map[string]any)
	if cc.FoundedYear > 0 {
		extras["founded_year"] = cc.FoundedYear
	}
	if cc.Metrics.EstimatedAnnualRevenue != "" {
		extras["revenue"] = cc.Metrics.EstimatedAnnualRevenue
	}
	if cc.Metrics.Employees > 0 {
		extras["employee_count"] = cc.Metrics.Employees
	}
	if cc.Description != "" {
		extras["description"] = cc.Description
	}
	if cc.Logo != "" {
		extras["logo"] = cc.Logo
	}
	if len(extras) > 0 {
		profile.Extras = extras
	}

	return profile
}
