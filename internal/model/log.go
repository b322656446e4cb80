package model

import "time"

// EnrichmentType identifies one provider capability.
type EnrichmentType string

const (
	TypeEmailValidation   EnrichmentType = "email_validation"
	TypeCompanyEnrichment EnrichmentType = "company_enrichment"
	TypePersonEnrichment  EnrichmentType = "person_enrichment"
)

// AllEnrichmentTypes returns every capability in default cascade order.
func AllEnrichmentTypes() []EnrichmentType {
	return []EnrichmentType{TypeEmailValidation, TypeCompanyEnrichment, TypePersonEnrichment}
}

// LogStatus represents the state of a single provider attempt.
type LogStatus string

const (
	LogStatusPending     LogStatus = "pending"
	LogStatusInProgress  LogStatus = "in_progress"
	LogStatusSuccess     LogStatus = "success"
	LogStatusFailed      LogStatus = "failed"
	LogStatusRateLimited LogStatus = "rate_limited"
)

// EnrichmentLog is one append-only record per provider attempt, including
// attempts that fail or are skipped due to rate limiting. Immutable once
// CompletedAt is set.
type EnrichmentLog struct {
	ID             string         `json:"id"`
	LeadID         string         `json:"lead_id"`
	Type           EnrichmentType `json:"type"`
	Status         LogStatus      `json:"status"`
	Provider       string         `json:"provider"`
	Request        string         `json:"request,omitempty"`
	Response       string         `json:"response,omitempty"`
	ErrorMessage   string         `json:"error_message,omitempty"`
	ResponseTimeMs int64          `json:"response_time_ms"`
	Cost           float64        `json:"cost"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	CompletedAt    *time.Time     `json:"completed_at,omitempty"`
}
