// Package monitoring aggregates enrichment activity into point-in-time
// metric snapshots.
package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-enrich-cli/internal/model"
	"github.com/sells-group/lead-enrich-cli/internal/store"
)

// ProviderMetrics aggregates attempts for one provider in the window.
type ProviderMetrics struct {
	Attempts       int     `json:"attempts"`
	Success        int     `json:"success"`
	Failed         int     `json:"failed"`
	RateLimited    int     `json:"rate_limited"`
	CostUSD        float64 `json:"cost_usd"`
	AvgResponseMs  int64   `json:"avg_response_ms"`
	SuccessRate    float64 `json:"success_rate"`
}

// MetricsSnapshot holds a point-in-time view of enrichment health.
type MetricsSnapshot struct {
	// Attempt metrics (within lookback window).
	AttemptsTotal    int     `json:"attempts_total"`
	AttemptsSuccess  int     `json:"attempts_success"`
	AttemptsFailed   int     `json:"attempts_failed"`
	AttemptsLimited  int     `json:"attempts_rate_limited"`
	AttemptFailRate  float64 `json:"attempt_fail_rate"`
	TotalCostUSD     float64 `json:"total_cost_usd"`

	Providers map[string]*ProviderMetrics `json:"providers"`

	// Lead counts across the whole store, not windowed.
	LeadCounts map[model.LeadStatus]int `json:"lead_counts"`

	// Metadata.
	LookbackHours int       `json:"lookback_hours"`
	CollectedAt   time.Time `json:"collected_at"`
}

// Collector gathers metrics from the store.
type Collector struct {
	store store.Store
}

// NewCollector creates a new metrics collector.
func NewCollector(st store.Store) *Collector {
	return &Collector{store: st}
}

// Collect gathers a snapshot of enrichment metrics over the given
// lookback window.
func (c *Collector) Collect(ctx context.Context, lookbackHours int) (*MetricsSnapshot, error) {
	snap := &MetricsSnapshot{
		Providers:     make(map[string]*ProviderMetrics),
		LookbackHours: lookbackHours,
		CollectedAt:   time.Now().UTC(),
	}

	cutoff := time.Now().UTC().Add(-time.Duration(lookbackHours) * time.Hour)

	logs, err := c.store.ListRecentLogs(ctx, cutoff)
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list recent logs")
	}

	responseTotals := make(map[string]int64)
	for _, log := range logs {
		snap.AttemptsTotal++

		pm := snap.Providers[log.Provider]
		if pm == nil {
			pm = &ProviderMetrics{}
			snap.Providers[log.Provider] = pm
		}
		pm.Attempts++
		pm.CostUSD += log.Cost
		responseTotals[log.Provider] += log.ResponseTimeMs
		snap.TotalCostUSD += log.Cost

		switch log.Status {
		case model.LogStatusSuccess:
			snap.AttemptsSuccess++
			pm.Success++
		case model.LogStatusRateLimited:
			snap.AttemptsLimited++
			pm.RateLimited++
		case model.LogStatusFailed:
			snap.AttemptsFailed++
			pm.Failed++
		}
	}

	if snap.AttemptsTotal > 0 {
		snap.AttemptFailRate = float64(snap.AttemptsFailed+snap.AttemptsLimited) / float64(snap.AttemptsTotal)
	}
	for name, pm := range snap.Providers {
		if pm.Attempts > 0 {
			pm.AvgResponseMs = responseTotals[name] / int64(pm.Attempts)
			pm.SuccessRate = float64(pm.Success) / float64(pm.Attempts)
		}
	}

	counts, err := c.store.CountLeadsByStatus(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: count leads")
	}
	snap.LeadCounts = counts

	return snap, nil
}
