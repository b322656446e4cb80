package provider

import (
	"context"
	"strings"
	"time"

	"github.com/sells-group/lead-enrich-cli/internal/model"
	"github.com/sells-group/lead-enrich-cli/pkg/hunter"
)

// Hunter email validation sub-score weights. Each signal contributes a
// fixed number of points; the weights are additive and sum to 100.
const (
	hunterFormatWeight        = 20
	hunterMXWeight            = 25
	hunterSMTPWeight          = 35
	hunterNotAcceptAllWeight  = 10
	hunterNotDisposableWeight = 10
)

// Hunter is the email-validation specialist provider.
type Hunter struct {
	*Runtime
	client hunter.Client
}

// NewHunter creates the Hunter provider over the given API client.
func NewHunter(cfg Config, client hunter.Client) *Hunter {
	return &Hunter{Runtime: NewRuntime(cfg), client: client}
}

func (h *Hunter) Supports(t model.EnrichmentType) bool {
	return t == model.TypeEmailValidation
}

func (h *Hunter) ValidateEmail(ctx context.Context, email string) EmailResult {
	env, ok := h.Begin()
	if !ok {
		return EmailResult{Envelope: env}
	}

	start := time.Now()
	v, err := h.client.VerifyEmail(ctx, email)
	env = h.Finish(start, err)
	if !env.Success {
		return EmailResult{Envelope: env}
	}

	return EmailResult{Envelope: env, Data: normalizeVerification(v)}
}

func (h *Hunter) EnrichCompany(ctx context.Context, domain string) CompanyResult {
	return CompanyResult{Envelope: h.NotSupported(model.TypeCompanyEnrichment)}
}

func (h *Hunter) EnrichPerson(ctx context.Context, email string) PersonResult {
	return PersonResult{Envelope: h.NotSupported(model.TypePersonEnrichment)}
}

// normalizeVerification maps Hunter's raw signals onto the canonical
// validation shape with the documented additive sub-score.
func normalizeVerification(v *hunter.Verification) *EmailValidation {
	score := 0
	var details []string

	if v.Regexp {
		score += hunterFormatWeight
		details = append(details, "format ok")
	} else {
		details = append(details, "format invalid")
	}
	if v.MXRecords {
		score += hunterMXWeight
		details = append(details, "mx records found")
	} else {
		details = append(details, "no mx records")
	}
	if v.SMTPCheck {
		score += hunterSMTPWeight
		details = append(details, "smtp verified")
	} else {
		details = append(details, "smtp unverified")
	}
	if !v.AcceptAll {
		score += hunterNotAcceptAllWeight
	} else {
		details = append(details, "accept-all domain")
	}
	if !v.Disposable {
		score += hunterNotDisposableWeight
	} else {
		details = append(details, "disposable address")
	}

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}

	var suggestions []string
	if v.Disposable {
		suggestions = append(suggestions, "disposable address: collect a work email before outreach")
	}
	if v.AcceptAll {
		suggestions = append(suggestions, "catch-all domain: delivery cannot be confirmed")
	}
	if v.Webmail {
		suggestions = append(suggestions, "webmail address: prefer a corporate address for scoring")
	}
	if v.Gibberish {
		suggestions = append(suggestions, "mailbox name looks auto-generated")
	}
	if v.Block {
		suggestions = append(suggestions, "smtp server blocks verification; result may be incomplete")
	}
	if len(v.Sources) == 0 && v.Result != "deliverable" {
		suggestions = append(suggestions, "no public sources found for this address")
	}

	return &EmailValidation{
		Valid:       v.Result == "deliverable",
		Score:       score,
		Details:     strings.Join(details, "; "),
		Suggestions: suggestions,
	}
}
