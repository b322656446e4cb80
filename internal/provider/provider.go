// Package provider defines the capability contract for enrichment data
// providers and the shared runtime that wraps their outbound calls.
package provider

import (
	"context"
	"sort"
	"sync"

	"github.com/sells-group/lead-enrich-cli/internal/model"
)

// Provider is implemented by every enrichment source. A provider that
// cannot perform a capability still implements the method and returns a
// not-supported envelope rather than failing, so callers never need to
// type-check capability support.
type Provider interface {
	// Name returns the provider identifier used in logs and config.
	Name() string
	// Priority returns the cascade rank; lower ranks are tried first.
	Priority() int
	// Supports reports whether the provider implements the capability.
	Supports(t model.EnrichmentType) bool

	ValidateEmail(ctx context.Context, email string) EmailResult
	EnrichCompany(ctx context.Context, domain string) CompanyResult
	EnrichPerson(ctx context.Context, email string) PersonResult

	// IsActive reports whether a credential is present and the provider is
	// not administratively disabled.
	IsActive() bool
	// IsRateLimited reports whether the local request budget is exhausted.
	IsRateLimited() bool
	// RemainingRequests returns the requests left in the current window.
	RemainingRequests() int
	// CostEstimate returns the cost of one request.
	CostEstimate() float64
	// ResetRateLimit clears the local window counter.
	ResetRateLimit()
}

// Registry holds the providers available to the orchestrator, constructed
// once at startup and injected rather than kept as a global.
type Registry struct {
	mu        sync.RWMutex
	providers []Provider
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a provider, keeping the set ordered by ascending priority.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers = append(r.providers, p)
	sort.SliceStable(r.providers, func(i, j int) bool {
		return r.providers[i].Priority() < r.providers[j].Priority()
	})
}

// Get returns a provider by name, or nil if not registered.
func (r *Registry) Get(name string) Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.providers {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// All returns every registered provider in priority order.
func (r *Registry) All() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Provider, len(r.providers))
	copy(out, r.providers)
	return out
}

// ForType returns the providers supporting the capability, in priority order.
func (r *Registry) ForType(t model.EnrichmentType) []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Provider
	for _, p := range r.providers {
		if p.Supports(t) {
			out = append(out, p)
		}
	}
	return out
}
