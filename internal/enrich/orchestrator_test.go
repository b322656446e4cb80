package enrich

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-enrich-cli/internal/model"
	"github.com/sells-group/lead-enrich-cli/internal/provider"
	"github.com/sells-group/lead-enrich-cli/internal/scoring"
	"github.com/sells-group/lead-enrich-cli/internal/store"
)

// stubProvider implements provider.Provider with canned results so
// cascade behavior can be tested without HTTP clients.
type stubProvider struct {
	name     string
	priority int
	types    []model.EnrichmentType

	email   provider.EmailResult
	company provider.CompanyResult
	person  provider.PersonResult

	calls       []string
	seenDomains []string
}

func (s *stubProvider) Name() string  { return s.name }
func (s *stubProvider) Priority() int { return s.priority }

func (s *stubProvider) Supports(t model.EnrichmentType) bool {
	for _, st := range s.types {
		if st == t {
			return true
		}
	}
	return false
}

func (s *stubProvider) ValidateEmail(ctx context.Context, email string) provider.EmailResult {
	s.calls = append(s.calls, "email")
	return s.email
}

func (s *stubProvider) EnrichCompany(ctx context.Context, domain string) provider.CompanyResult {
	s.calls = append(s.calls, "company")
	s.seenDomains = append(s.seenDomains, domain)
	return s.company
}

func (s *stubProvider) EnrichPerson(ctx context.Context, email string) provider.PersonResult {
	s.calls = append(s.calls, "person")
	return s.person
}

func (s *stubProvider) IsActive() bool          { return true }
func (s *stubProvider) IsRateLimited() bool     { return false }
func (s *stubProvider) RemainingRequests() int  { return -1 }
func (s *stubProvider) CostEstimate() float64   { return 0.01 }
func (s *stubProvider) ResetRateLimit()         {}

func successEmail(valid bool, score int) provider.EmailResult {
	return provider.EmailResult{
		Envelope: provider.Envelope{Success: true, Cost: 0.01, ResponseTimeMs: 50},
		Data:     &provider.EmailValidation{Valid: valid, Score: score, Details: "ok"},
	}
}

func failedEmail(msg string) provider.EmailResult {
	return provider.EmailResult{Envelope: provider.Envelope{Error: msg}}
}

func rateLimitedEmail(msg string) provider.EmailResult {
	return provider.EmailResult{Envelope: provider.Envelope{RateLimited: true, Error: msg}}
}

func newTestOrchestrator(t *testing.T, providers ...provider.Provider) (*Orchestrator, store.Store) {
	t.Helper()

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { st.Close() })

	registry := provider.NewRegistry()
	for _, p := range providers {
		registry.Register(p)
	}

	return NewOrchestrator(st, registry, scoring.DefaultWeights(), time.Millisecond), st
}

func createLead(t *testing.T, st store.Store, lead *model.Lead) *model.Lead {
	t.Helper()
	require.NoError(t, st.CreateLead(context.Background(), lead))
	return lead
}

func TestEnrichLead_NotFound(t *testing.T) {
	o, _ := newTestOrchestrator(t)

	_, err := o.EnrichLead(context.Background(), "ghost", nil)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrLeadNotFound))
}

func TestEnrichLead_CascadeStopsAtFirstSuccess(t *testing.T) {
	first := &stubProvider{
		name: "hunter", priority: 1,
		types: []model.EnrichmentType{model.TypeEmailValidation},
		email: failedEmail("upstream 500"),
	}
	second := &stubProvider{
		name: "apollo", priority: 2,
		types: []model.EnrichmentType{model.TypeEmailValidation},
		email: successEmail(true, 100),
	}
	third := &stubProvider{
		name: "backup", priority: 3,
		types: []model.EnrichmentType{model.TypeEmailValidation},
		email: successEmail(true, 100),
	}
	o, st := newTestOrchestrator(t, first, second, third)
	lead := createLead(t, st, &model.Lead{Email: "jane@acme.com"})

	res, err := o.EnrichLead(context.Background(), lead.ID, []model.EnrichmentType{model.TypeEmailValidation})
	require.NoError(t, err)

	assert.True(t, res.Success)
	require.Len(t, res.Logs, 2)
	assert.Equal(t, "hunter", res.Logs[0].Provider)
	assert.Equal(t, model.LogStatusFailed, res.Logs[0].Status)
	assert.Equal(t, "upstream 500", res.Logs[0].ErrorMessage)
	assert.Equal(t, "apollo", res.Logs[1].Provider)
	assert.Equal(t, model.LogStatusSuccess, res.Logs[1].Status)

	// The cascade never reached the third provider.
	assert.Empty(t, third.calls)

	// Lead state was merged and persisted.
	saved, err := st.GetLead(context.Background(), lead.ID)
	require.NoError(t, err)
	assert.True(t, saved.IsEmailValid)
	assert.Equal(t, 100, saved.EmailValidationScore)
}

func TestEnrichLead_SkippedAttemptsAreLogged(t *testing.T) {
	inactive := &stubProvider{
		name: "hunter", priority: 1,
		types: []model.EnrichmentType{model.TypeEmailValidation},
		email: failedEmail("provider hunter is not active"),
	}
	limited := &stubProvider{
		name: "apollo", priority: 2,
		types: []model.EnrichmentType{model.TypeEmailValidation},
		email: rateLimitedEmail("provider apollo rate limit exhausted"),
	}
	o, st := newTestOrchestrator(t, inactive, limited)
	lead := createLead(t, st, &model.Lead{Email: "jane@acme.com"})

	res, err := o.EnrichLead(context.Background(), lead.ID, []model.EnrichmentType{model.TypeEmailValidation})
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.Equal(t, "all provider attempts failed", res.Error)
	require.Len(t, res.Logs, 2)
	assert.Equal(t, model.LogStatusFailed, res.Logs[0].Status)
	assert.Equal(t, model.LogStatusRateLimited, res.Logs[1].Status)
	assert.Equal(t, "provider apollo rate limit exhausted", res.Logs[1].ErrorMessage)

	// Skipped attempts cost nothing.
	assert.Equal(t, 0.0, res.TotalCost)

	// Logs are persisted even when nothing succeeded.
	stored, err := st.ListLogs(context.Background(), lead.ID)
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestEnrichLead_DefaultsToAllTypes(t *testing.T) {
	p := &stubProvider{
		name: "omni", priority: 1,
		types: model.AllEnrichmentTypes(),
		email: successEmail(true, 100),
		company: provider.CompanyResult{
			Envelope: provider.Envelope{Success: true, Cost: 0.02},
			Data:     &provider.CompanyProfile{Name: "Acme", Size: "201-500", Industry: "Software"},
		},
		person: provider.PersonResult{
			Envelope: provider.Envelope{Success: true, Cost: 0.01},
			Data:     &provider.PersonProfile{FirstName: "Jane", JobTitle: "CTO"},
		},
	}
	o, st := newTestOrchestrator(t, p)
	lead := createLead(t, st, &model.Lead{Email: "jane@acme.com"})

	res, err := o.EnrichLead(context.Background(), lead.ID, nil)
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, []string{"email", "company", "person"}, p.calls)
	require.Len(t, res.Logs, 3)

	// Company lookups use the email domain.
	assert.Equal(t, []string{"acme.com"}, p.seenDomains)

	// Costs accumulate across types.
	assert.InDelta(t, 0.04, res.TotalCost, 1e-9)
}

func TestEnrichLead_CompanyDomainFallsBackToWebsite(t *testing.T) {
	p := &stubProvider{
		name: "clearbit", priority: 1,
		types: []model.EnrichmentType{model.TypeCompanyEnrichment},
		company: provider.CompanyResult{
			Envelope: provider.Envelope{Success: true},
			Data:     &provider.CompanyProfile{Name: "Acme"},
		},
	}
	o, st := newTestOrchestrator(t, p)
	// Malformed email means no derivable domain.
	lead := createLead(t, st, &model.Lead{Email: "janeacme.com", Website: "acme.com"})

	_, err := o.EnrichLead(context.Background(), lead.ID, []model.EnrichmentType{model.TypeCompanyEnrichment})
	require.NoError(t, err)
	assert.Equal(t, []string{"acme.com"}, p.seenDomains)
}

func TestEnrichLead_NoProvidersForType(t *testing.T) {
	o, st := newTestOrchestrator(t)
	lead := createLead(t, st, &model.Lead{Email: "jane@acme.com"})

	res, err := o.EnrichLead(context.Background(), lead.ID, []model.EnrichmentType{model.TypeCompanyEnrichment})
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.Empty(t, res.Logs)
	assert.Equal(t, "no providers available for requested enrichment types", res.Error)
}

func TestEnrichLead_StatusProgression(t *testing.T) {
	p := &stubProvider{
		name: "omni", priority: 1,
		types: model.AllEnrichmentTypes(),
		email: successEmail(true, 100),
		company: provider.CompanyResult{
			Envelope: provider.Envelope{Success: true},
			Data: &provider.CompanyProfile{
				Name: "Acme", Size: "1000+", Industry: "Software", Country: "United States",
			},
		},
		person: provider.PersonResult{
			Envelope: provider.Envelope{Success: true},
			Data:     &provider.PersonProfile{FirstName: "Jane", JobTitle: "CTO"},
		},
	}
	o, st := newTestOrchestrator(t, p)
	lead := createLead(t, st, &model.Lead{Email: "jane@acme.com"})

	res, err := o.EnrichLead(context.Background(), lead.ID, nil)
	require.NoError(t, err)

	// Valid email + strong firmographics put the lead over the
	// prioritization floor.
	assert.Equal(t, model.LeadStatusPrioritized, res.Lead.Status)
	assert.GreaterOrEqual(t, res.Lead.Score, 80)
	assert.NotNil(t, res.Lead.EnrichedAt)
	assert.NotNil(t, res.Lead.ValidatedAt)
}

func TestEnrichLead_EnrichedWithoutValidation(t *testing.T) {
	p := &stubProvider{
		name: "clearbit", priority: 1,
		types: []model.EnrichmentType{model.TypeCompanyEnrichment},
		company: provider.CompanyResult{
			Envelope: provider.Envelope{Success: true},
			Data:     &provider.CompanyProfile{Name: "Acme", Size: "11-50"},
		},
	}
	o, st := newTestOrchestrator(t, p)
	lead := createLead(t, st, &model.Lead{Email: "jane@acme.com"})

	res, err := o.EnrichLead(context.Background(), lead.ID, []model.EnrichmentType{model.TypeCompanyEnrichment})
	require.NoError(t, err)

	assert.Equal(t, model.LeadStatusEnriched, res.Lead.Status)
	assert.Nil(t, res.Lead.ValidatedAt)
}

func TestEnrichLead_StatusNeverRegresses(t *testing.T) {
	p := &stubProvider{
		name: "hunter", priority: 1,
		types: []model.EnrichmentType{model.TypeEmailValidation},
		email: failedEmail("upstream 500"),
	}
	o, st := newTestOrchestrator(t, p)
	lead := createLead(t, st, &model.Lead{
		Email:  "jane@acme.com",
		Status: model.LeadStatusPrioritized,
		Score:  80,
	})

	res, err := o.EnrichLead(context.Background(), lead.ID, []model.EnrichmentType{model.TypeEmailValidation})
	require.NoError(t, err)
	assert.Equal(t, model.LeadStatusPrioritized, res.Lead.Status)
}

func TestBulkEnrich_IsolatesFailures(t *testing.T) {
	p := &stubProvider{
		name: "apollo", priority: 1,
		types: []model.EnrichmentType{model.TypeEmailValidation},
		email: successEmail(true, 100),
	}
	o, st := newTestOrchestrator(t, p)

	a := createLead(t, st, &model.Lead{Email: "a@x.com"})
	b := createLead(t, st, &model.Lead{Email: "b@x.com"})

	ids := []string{a.ID, "ghost", b.ID}
	results, err := o.BulkEnrich(context.Background(), ids, []model.EnrichmentType{model.TypeEmailValidation})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.True(t, results[0].Success)
	assert.Equal(t, a.ID, results[0].LeadID)

	assert.False(t, results[1].Success)
	assert.Equal(t, "ghost", results[1].LeadID)
	assert.Contains(t, results[1].Error, "lead not found")

	assert.True(t, results[2].Success)
	assert.Equal(t, b.ID, results[2].LeadID)
}

func TestBulkEnrich_ContextCancellation(t *testing.T) {
	p := &stubProvider{
		name: "apollo", priority: 1,
		types: []model.EnrichmentType{model.TypeEmailValidation},
		email: successEmail(true, 100),
	}
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { st.Close() })

	registry := provider.NewRegistry()
	registry.Register(p)
	o := NewOrchestrator(st, registry, scoring.DefaultWeights(), time.Hour)

	a := createLead(t, st, &model.Lead{Email: "a@x.com"})
	b := createLead(t, st, &model.Lead{Email: "b@x.com"})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	// The second lead waits an hour behind the limiter, so cancellation
	// returns after the first completes.
	results, err := o.BulkEnrich(ctx, []string{a.ID, b.ID}, []model.EnrichmentType{model.TypeEmailValidation})
	require.Error(t, err)
	assert.Len(t, results, 1)
}
