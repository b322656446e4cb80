// Package store provides lead and enrichment-log persistence over
// SQLite or PostgreSQL backends.
package store

import (
	"context"
	"time"

	"github.com/sells-group/lead-enrich-cli/internal/model"
)

// LeadFilter specifies criteria for listing leads.
type LeadFilter struct {
	Status   model.LeadStatus `json:"status,omitempty"`
	MinScore int              `json:"min_score,omitempty"`
	Limit    int              `json:"limit,omitempty"`
	Offset   int              `json:"offset,omitempty"`
}

// Store defines the persistence interface for lead enrichment.
// Lookups return (nil, nil) when the row does not exist; callers decide
// whether absence is an error.
type Store interface {
	// Leads
	CreateLead(ctx context.Context, lead *model.Lead) error
	GetLead(ctx context.Context, id string) (*model.Lead, error)
	GetLeadByEmail(ctx context.Context, email string) (*model.Lead, error)
	SaveLead(ctx context.Context, lead *model.Lead) error
	ImportLeads(ctx context.Context, leads []*model.Lead) (int64, error)
	ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error)
	CountLeadsByStatus(ctx context.Context) (map[model.LeadStatus]int, error)

	// Enrichment logs
	AppendEnrichmentLogs(ctx context.Context, logs []model.EnrichmentLog) error
	ListLogs(ctx context.Context, leadID string) ([]model.EnrichmentLog, error)
	ListRecentLogs(ctx context.Context, since time.Time) ([]model.EnrichmentLog, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
