// Package model defines the core domain types for lead enrichment.
package model

import (
	"strings"
	"time"
)

// LeadStatus represents the lifecycle state of a lead.
type LeadStatus string

const (
	LeadStatusNew         LeadStatus = "new"
	LeadStatusEnriched    LeadStatus = "enriched"
	LeadStatusValidated   LeadStatus = "validated"
	LeadStatusPrioritized LeadStatus = "prioritized"
)

// LeadSource describes how a lead entered the system.
type LeadSource string

const (
	LeadSourceManual  LeadSource = "manual"
	LeadSourceImport  LeadSource = "import"
	LeadSourceWebhook LeadSource = "webhook"
	LeadSourceAPI     LeadSource = "api"
)

// Lead is the subject of enrichment. Email is set at creation and never
// empty; Score and Priority are derived by the scoring engine only.
type Lead struct {
	ID    string `json:"id"`
	Email string `json:"email"`

	// Contact fields.
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	FullName    string `json:"full_name,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Company     string `json:"company,omitempty"`
	JobTitle    string `json:"job_title,omitempty"`
	Website     string `json:"website,omitempty"`
	LinkedInURL string `json:"linkedin_url,omitempty"`

	// Enrichment-derived fields.
	CompanySize string `json:"company_size,omitempty"`
	Industry    string `json:"industry,omitempty"`
	City        string `json:"city,omitempty"`
	State       string `json:"state,omitempty"`
	Country     string `json:"country,omitempty"`
	Timezone    string `json:"timezone,omitempty"`
	Language    string `json:"language,omitempty"`

	// Email validation fields.
	IsEmailValid           bool   `json:"is_email_valid"`
	EmailValidationScore   int    `json:"email_validation_score,omitempty"`
	EmailValidationDetails string `json:"email_validation_details,omitempty"`

	// Scoring fields.
	Score          int            `json:"score"`
	Priority       int            `json:"priority"`
	ScoringFactors map[string]int `json:"scoring_factors,omitempty"`

	// Lifecycle.
	Status      LeadStatus `json:"status"`
	Source      LeadSource `json:"source"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	EnrichedAt  *time.Time `json:"enriched_at,omitempty"`
	ValidatedAt *time.Time `json:"validated_at,omitempty"`

	// Provider-specific extras (revenue, employee count, bio, avatar, ...).
	Metadata map[string]any `json:"metadata,omitempty"`
}

// EmailDomain returns the domain part of the lead's email, lowercased.
// Returns "" if the email has no @.
func (l *Lead) EmailDomain() string {
	at := strings.LastIndex(l.Email, "@")
	if at < 0 || at == len(l.Email)-1 {
		return ""
	}
	return strings.ToLower(l.Email[at+1:])
}

// SetMeta writes a key into the lead's metadata bag, allocating it on
// first use. Nil and empty-string values are dropped.
func (l *Lead) SetMeta(key string, value any) {
	if value == nil {
		return
	}
	if s, ok := value.(string); ok && s == "" {
		return
	}
	if l.Metadata == nil {
		l.Metadata = make(map[string]any)
	}
	l.Metadata[key] = value
}
