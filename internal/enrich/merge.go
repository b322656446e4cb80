package enrich

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/lead-enrich-cli/internal/model"
	"github.com/sells-group/lead-enrich-cli/internal/provider"
)

var nameCaser = cases.Title(language.English, cases.NoLower)

// applyEmailValidation writes the validation outcome onto the lead.
// Validation fields are enrichment-owned, so a fresh result always
// replaces the previous one.
func applyEmailValidation(lead *model.Lead, v *provider.EmailValidation) {
	lead.IsEmailValid = v.Valid
	lead.EmailValidationScore = v.Score
	lead.EmailValidationDetails = v.Details
	if len(v.Suggestions) > 0 {
		lead.SetMeta("email_suggestions", strings.Join(v.Suggestions, "; "))
	}
}

// applyPerson merges a person profile into the lead. Contact fields are
// owned by whoever entered the lead, so the merge only fills gaps and
// never replaces an existing value.
func applyPerson(lead *model.Lead, p *provider.PersonProfile) {
	fillString(&lead.FirstName, titleCase(p.FirstName))
	fillString(&lead.LastName, titleCase(p.LastName))
	fillString(&lead.FullName, p.FullName)
	fillString(&lead.JobTitle, p.JobTitle)
	fillString(&lead.Company, p.Company)
	fillString(&lead.City, p.City)
	fillString(&lead.State, p.State)
	fillString(&lead.Country, p.Country)
	fillString(&lead.Timezone, p.Timezone)
	fillString(&lead.Language, p.Language)
	fillString(&lead.LinkedInURL, p.LinkedInURL)

	for k, v := range p.Extras {
		lead.SetMeta(k, v)
	}
}

// applyCompany merges a company profile into the lead. Firmographic
// fields (size, industry, location, timezone) are enrichment-owned and
// take any non-empty response value; identity fields (name, website,
// phone) only fill gaps. A non-empty lead field is never cleared.
func applyCompany(lead *model.Lead, c *provider.CompanyProfile) {
	setString(&lead.CompanySize, c.Size)
	setString(&lead.Industry, c.Industry)
	setString(&lead.City, c.City)
	setString(&lead.State, c.State)
	setString(&lead.Country, c.Country)
	setString(&lead.Timezone, c.Timezone)

	fillString(&lead.Company, c.Name)
	fillString(&lead.Website, c.Website)
	fillString(&lead.Phone, c.Phone)

	lead.SetMeta("company_linkedin_url", c.LinkedInURL)
	for k, v := range c.Extras {
		lead.SetMeta(k, v)
	}
}

// setString overwrites dst with src unless src is empty.
func setString(dst *string, src string) {
	if src != "" {
		*dst = src
	}
}

// fillString writes src into dst only when dst is empty.
func fillString(dst *string, src string) {
	if *dst == "" && src != "" {
		*dst = src
	}
}

// titleCase normalizes provider-supplied names ("jane" -> "Jane")
// without lowering already-cased input like "McAllister".
func titleCase(s string) string {
	if s == "" {
		return ""
	}
	return nameCaser.String(s)
}
