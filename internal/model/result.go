package model

// EnrichmentResult is the aggregate outcome of enriching a single lead.
type EnrichmentResult struct {
	LeadID      string          `json:"lead_id"`
	Success     bool            `json:"success"`
	Lead        *Lead           `json:"lead,omitempty"`
	Logs        []EnrichmentLog `json:"logs,omitempty"`
	TotalCost   float64         `json:"total_cost"`
	TotalTimeMs int64           `json:"total_time_ms"`
	Error       string          `json:"error,omitempty"`
}
