package provider

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sells-group/lead-enrich-cli/internal/model"
	"github.com/sells-group/lead-enrich-cli/internal/resilience"
	"github.com/sells-group/lead-enrich-cli/pkg/apollo"
	"github.com/sells-group/lead-enrich-cli/pkg/clearbit"
	"github.com/sells-group/lead-enrich-cli/pkg/hunter"
)

// Config is the static configuration for one concrete provider.
type Config struct {
	Name           string
	APIKey         string
	Disabled       bool
	Priority       int
	RateLimit      int
	RateWindow     time.Duration
	CostPerRequest float64
}

// Runtime carries the shared behavior every concrete provider composes:
// the sliding-window rate counter, activity checks, and cost accounting.
//
// The window is an approximation, not a true rolling window: the counter
// resets to zero whenever the time since the last request exceeds the
// window duration, so bursts at window boundaries are accepted.
type Runtime struct {
	cfg Config

	mu           sync.Mutex
	requestCount int
	lastRequest  time.Time
	now          func() time.Time
}

// NewRuntime creates a provider runtime from static configuration.
func NewRuntime(cfg Config) *Runtime {
	return &Runtime{cfg: cfg, now: time.Now}
}

// WithNow sets the clock source, for testing window expiry.
func (r *Runtime) WithNow(now func() time.Time) *Runtime {
	r.now = now
	return r
}

// Name returns the provider identifier.
func (r *Runtime) Name() string {
	return r.cfg.Name
}

// Priority returns the cascade rank.
func (r *Runtime) Priority() int {
	return r.cfg.Priority
}

// CostEstimate returns the per-request cost.
func (r *Runtime) CostEstimate() float64 {
	return r.cfg.CostPerRequest
}

// IsActive reports whether a credential is configured and the provider has
// not been administratively disabled.
func (r *Runtime) IsActive() bool {
	return r.cfg.APIKey != "" && !r.cfg.Disabled
}

// IsRateLimited reports whether the current window's budget is exhausted.
func (r *Runtime) IsRateLimited() bool {
	if r.cfg.RateLimit <= 0 {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refreshWindowLocked()
	return r.requestCount >= r.cfg.RateLimit
}

// RemainingRequests returns how many requests are left in the window.
func (r *Runtime) RemainingRequests() int {
	if r.cfg.RateLimit <= 0 {
		return -1
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refreshWindowLocked()
	remaining := r.cfg.RateLimit - r.requestCount
	if remaining < 0 {
		return 0
	}
	return remaining
}

// ResetRateLimit clears the window counter.
func (r *Runtime) ResetRateLimit() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requestCount = 0
	r.lastRequest = time.Time{}
}

// refreshWindowLocked resets the counter once the window has gone stale.
// Callers must hold r.mu.
func (r *Runtime) refreshWindowLocked() {
	if !r.lastRequest.IsZero() && r.now().Sub(r.lastRequest) > r.cfg.RateWindow {
		r.requestCount = 0
	}
}

// Begin runs the pre-dispatch checks. When ok is false the returned
// envelope is final and no network call may be made.
func (r *Runtime) Begin() (Envelope, bool) {
	if !r.IsActive() {
		return Envelope{Error: fmt.Sprintf("provider %s is not active", r.cfg.Name)}, false
	}
	if r.IsRateLimited() {
		return Envelope{
			RateLimited: true,
			Error:       fmt.Sprintf("provider %s rate limit exhausted", r.cfg.Name),
		}, false
	}
	return Envelope{}, true
}

// Finish converts the outcome of a dispatched call into an envelope. On
// success the window counter is advanced and the per-request cost charged.
// A 429 from the provider maps to a rate-limited envelope regardless of
// the local counter state.
func (r *Runtime) Finish(start time.Time, err error) Envelope {
	elapsed := time.Since(start).Milliseconds()

	if err == nil {
		r.mu.Lock()
		r.refreshWindowLocked()
		r.requestCount++
		r.lastRequest = r.now()
		r.mu.Unlock()
		return Envelope{
			Success:        true,
			Cost:           r.cfg.CostPerRequest,
			ResponseTimeMs: elapsed,
		}
	}

	status := httpStatus(err)
	if status == 429 {
		return Envelope{
			RateLimited:    true,
			Transient:      true,
			Error:          err.Error(),
			ResponseTimeMs: elapsed,
		}
	}

	return Envelope{
		Error:          err.Error(),
		Transient:      resilience.IsTransient(err) || resilience.IsTransientHTTPStatus(status),
		ResponseTimeMs: elapsed,
	}
}

// NotSupported returns the envelope for a capability this provider does
// not implement. No network call is made and nothing is charged.
func (r *Runtime) NotSupported(t model.EnrichmentType) Envelope {
	return Envelope{Error: fmt.Sprintf("%s not supported by %s", t, r.cfg.Name)}
}

// httpStatus extracts the HTTP status code from a provider client error.
func httpStatus(err error) int {
	var he *hunter.APIError
	if errors.As(err, &he) {
		return he.StatusCode
	}
	var ae *apollo.APIError
	if errors.As(err, &ae) {
		return ae.StatusCode
	}
	var ce *clearbit.APIError
	if errors.As(err, &ce) {
		return ce.StatusCode
	}
	return 0
}
