package provider

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/sells-group/lead-enrich-cli/internal/model"
	"github.com/sells-group/lead-enrich-cli/pkg/apollo"
)

// Apollo email validation sub-score weights. Additive, sum to 100.
const (
	apolloFormatWeight     = 25
	apolloVerifiedWeight   = 50
	apolloNotBouncedWeight = 15
	apolloSourcesWeight    = 10
)

// Apollo validates emails and enriches person data from its people graph.
type Apollo struct {
	*Runtime
	client apollo.Client
}

// NewApollo creates the Apollo provider over the given API client.
func NewApollo(cfg Config, client apollo.Client) *Apollo {
	return &Apollo{Runtime: NewRuntime(cfg), client: client}
}

func (a *Apollo) Supports(t model.EnrichmentType) bool {
	return t == model.TypeEmailValidation || t == model.TypePersonEnrichment
}

func (a *Apollo) ValidateEmail(ctx context.Context, email string) EmailResult {
	env, ok := a.Begin()
	if !ok {
		return EmailResult{Envelope: env}
	}

	start := time.Now()
	p, err := a.client.MatchPerson(ctx, email)
	env = a.Finish(start, err)
	if !env.Success {
		return EmailResult{Envelope: env}
	}

	return EmailResult{Envelope: env, Data: normalizeEmailStatus(email, p)}
}

func (a *Apollo) EnrichCompany(ctx context.Context, domain string) CompanyResult {
	return CompanyResult{Envelope: a.NotSupported(model.TypeCompanyEnrichment)}
}

func (a *Apollo) EnrichPerson(ctx context.Context, email string) PersonResult {
	env, ok := a.Begin()
	if !ok {
		return PersonResult{Envelope: env}
	}

	start := time.Now()
	p, err := a.client.MatchPerson(ctx, email)
	env = a.Finish(start, err)
	if !env.Success {
		return PersonResult{Envelope: env}
	}

	return PersonResult{Envelope: env, Data: normalizePerson(p)}
}

// normalizeEmailStatus converts Apollo's match into the canonical
// validation shape with the documented additive sub-score.
func normalizeEmailStatus(email string, p *apollo.Person) *EmailValidation {
	score := 0

	if _, err := mail.ParseAddress(email); err == nil {
		score += apolloFormatWeight
	}
	if p.EmailStatus == "verified" {
		score += apolloVerifiedWeight
	}
	if p.EmailStatus != "bounced" {
		score += apolloNotBouncedWeight
	}
	if p.LinkedinURL != "" || p.Organization != nil {
		score += apolloSourcesWeight
	}

	if score > 100 {
		score = 100
	}

	var suggestions []string
	switch p.EmailStatus {
	case "guessed":
		suggestions = append(suggestions, "address is inferred: confirm before outreach")
	case "bounced":
		suggestions = append(suggestions, "address previously bounced: remove from sequences")
	case "unavailable":
		suggestions = append(suggestions, "no verification sources found for this address")
	}

	return &EmailValidation{
		Valid:       p.EmailStatus == "verified",
		Score:       score,
		Details:     fmt.Sprintf("email_status=%s", p.EmailStatus),
		Suggestions: suggestions,
	}
}

// normalizePerson maps the Apollo person onto the canonical profile.
func normalizePerson(p *apollo.Person) *PersonProfile {
	profile := &PersonProfile{
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		FullName:    p.Name,
		JobTitle:    p.Title,
		City:        p.City,
		State:       p.State,
		Country:     p.Country,
		Timezone:    p.TimeZone,
		LinkedInURL: p.LinkedinURL,
	}
	if p.Organization != nil {
		profile.Company = p.Organization.Name
	}

	extras := make(map[string]any)
	if p.Seniority != "" {
		extras["seniority"] = p.Seniority
	}
	if p.Headline != "" {
		extras["bio"] = p.Headline
	}
	if p.PhotoURL != "" {
		extras["avatar"] = p.PhotoURL
	}
	if len(extras) > 0 {
		profile.Extras = extras
	}

	return profile
}
