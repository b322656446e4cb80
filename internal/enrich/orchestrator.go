// Package enrich orchestrates the provider cascade for single and bulk
// lead enrichment.
package enrich

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/lead-enrich-cli/internal/model"
	"github.com/sells-group/lead-enrich-cli/internal/provider"
	"github.com/sells-group/lead-enrich-cli/internal/scoring"
	"github.com/sells-group/lead-enrich-cli/internal/store"
)

// ErrLeadNotFound is returned when the requested lead does not exist.
// It is the only error EnrichLead surfaces for a lead that was found;
// provider failures are absorbed into the result and its logs.
var ErrLeadNotFound = eris.New("lead not found")

// prioritizeScoreFloor is the score a validated lead needs before it is
// promoted to prioritized.
const prioritizeScoreFloor = 80

// DefaultBulkDelay is the pause between consecutive leads in a bulk run.
const DefaultBulkDelay = time.Second

// Orchestrator coordinates providers, scoring and persistence for lead
// enrichment. Safe for use from a single goroutine; bulk runs are
// strictly sequential.
type Orchestrator struct {
	store     store.Store
	registry  *provider.Registry
	weights   scoring.Weights
	bulkDelay time.Duration
}

// NewOrchestrator creates an orchestrator. A non-positive bulkDelay
// falls back to DefaultBulkDelay.
func NewOrchestrator(st store.Store, registry *provider.Registry, weights scoring.Weights, bulkDelay time.Duration) *Orchestrator {
	if bulkDelay <= 0 {
		bulkDelay = DefaultBulkDelay
	}
	return &Orchestrator{
		store:     st,
		registry:  registry,
		weights:   weights,
		bulkDelay: bulkDelay,
	}
}

// EnrichLead runs the requested enrichment types against the lead,
// cascading through providers in priority order for each type. Every
// provider attempt is recorded in an append-only log, including
// attempts skipped because the provider was inactive or rate limited.
// The lead and logs are persisted before returning.
func (o *Orchestrator) EnrichLead(ctx context.Context, leadID string, types []model.EnrichmentType) (*model.EnrichmentResult, error) {
	started := time.Now()

	lead, err := o.store.GetLead(ctx, leadID)
	if err != nil {
		return nil, eris.Wrapf(err, "enrich: load lead %s", leadID)
	}
	if lead == nil {
		return nil, eris.Wrapf(ErrLeadNotFound, "enrich: lead %s", leadID)
	}

	if len(types) == 0 {
		types = model.AllEnrichmentTypes()
	}

	result := &model.EnrichmentResult{LeadID: leadID}
	var logs []model.EnrichmentLog
	attempted := 0

	for _, t := range types {
		if t == model.TypeCompanyEnrichment && lead.EmailDomain() == "" && lead.Website == "" {
			zap.L().Debug("enrich: no derivable domain, skipping company enrichment",
				zap.String("lead_id", leadID),
			)
			continue
		}

		ok, typeLogs := o.runCascade(ctx, lead, t)
		logs = append(logs, typeLogs...)
		attempted += len(typeLogs)
		if ok {
			result.Success = true
		} else if t == model.TypeEmailValidation && len(typeLogs) > 0 {
			// An exhausted validation cascade marks the email unverified;
			// the previous score and details are left in place.
			lead.IsEmailValid = false
		}
	}

	for i := range logs {
		result.TotalCost += logs[i].Cost
	}

	card := scoring.Score(lead, o.weights)
	scoring.Apply(lead, card)
	o.recomputeStatus(lead, result.Success)

	if err := o.store.SaveLead(ctx, lead); err != nil {
		return nil, eris.Wrapf(err, "enrich: save lead %s", leadID)
	}
	if err := o.store.AppendEnrichmentLogs(ctx, logs); err != nil {
		return nil, eris.Wrapf(err, "enrich: append logs for lead %s", leadID)
	}

	if !result.Success {
		if attempted == 0 {
			result.Error = "no providers available for requested enrichment types"
		} else {
			result.Error = "all provider attempts failed"
		}
	}

	result.Lead = lead
	result.Logs = logs
	result.TotalTimeMs = time.Since(started).Milliseconds()

	zap.L().Info("enrich: lead processed",
		zap.String("lead_id", leadID),
		zap.Bool("success", result.Success),
		zap.Int("attempts", attempted),
		zap.Float64("cost", result.TotalCost),
		zap.Int("score", lead.Score),
		zap.String("status", string(lead.Status)),
	)

	return result, nil
}

// BulkEnrich processes leads strictly sequentially with a fixed pause
// between consecutive leads. One lead failing, or not existing, never
// stops the run; its result carries the error instead.
func (o *Orchestrator) BulkEnrich(ctx context.Context, leadIDs []string, types []model.EnrichmentType) ([]model.EnrichmentResult, error) {
	limiter := rate.NewLimiter(rate.Every(o.bulkDelay), 1)
	results := make([]model.EnrichmentResult, 0, len(leadIDs))

	for _, id := range leadIDs {
		if err := limiter.Wait(ctx); err != nil {
			return results, eris.Wrap(err, "enrich: bulk wait")
		}

		res, err := o.EnrichLead(ctx, id, types)
		if err != nil {
			zap.L().Warn("enrich: bulk lead failed",
				zap.String("lead_id", id),
				zap.Error(err),
			)
			results = append(results, model.EnrichmentResult{
				LeadID: id,
				Error:  err.Error(),
			})
			continue
		}
		results = append(results, *res)
	}

	return results, nil
}

// runCascade tries each provider supporting the type in priority order,
// stopping at the first success. Returns whether any provider succeeded
// and one log per attempt.
func (o *Orchestrator) runCascade(ctx context.Context, lead *model.Lead, t model.EnrichmentType) (bool, []model.EnrichmentLog) {
	providers := o.registry.ForType(t)
	if len(providers) == 0 {
		zap.L().Warn("enrich: no providers for type",
			zap.String("lead_id", lead.ID),
			zap.String("type", string(t)),
		)
		return false, nil
	}

	var logs []model.EnrichmentLog
	for _, p := range providers {
		env, request, merged := o.attempt(ctx, lead, p, t)
		logs = append(logs, buildLog(lead.ID, t, p.Name(), request, env, merged))

		if env.Success {
			return true, logs
		}

		zap.L().Debug("enrich: provider attempt failed",
			zap.String("lead_id", lead.ID),
			zap.String("type", string(t)),
			zap.String("provider", p.Name()),
			zap.Bool("rate_limited", env.RateLimited),
			zap.String("error", env.Error),
		)
	}
	return false, logs
}

// attempt dispatches one capability call and merges its data into the
// lead on success. Returns the envelope, the request payload recorded
// in the log, and the marshaled response data.
func (o *Orchestrator) attempt(ctx context.Context, lead *model.Lead, p provider.Provider, t model.EnrichmentType) (provider.Envelope, string, []byte) {
	switch t {
	case model.TypeEmailValidation:
		res := p.ValidateEmail(ctx, lead.Email)
		if res.Success && res.Data != nil {
			applyEmailValidation(lead, res.Data)
		}
		return res.Envelope, requestJSON("email", lead.Email), responseJSON(res.Data)

	case model.TypeCompanyEnrichment:
		domain := lead.EmailDomain()
		if domain == "" {
			domain = lead.Website
		}
		res := p.EnrichCompany(ctx, domain)
		if res.Success && res.Data != nil {
			applyCompany(lead, res.Data)
		}
		return res.Envelope, requestJSON("domain", domain), responseJSON(res.Data)

	case model.TypePersonEnrichment:
		res := p.EnrichPerson(ctx, lead.Email)
		if res.Success && res.Data != nil {
			applyPerson(lead, res.Data)
		}
		return res.Envelope, requestJSON("email", lead.Email), responseJSON(res.Data)
	}

	return provider.Envelope{Error: "unknown enrichment type: " + string(t)}, "", nil
}

// recomputeStatus advances the lead along its lifecycle. Status only
// moves forward; re-running enrichment never demotes a lead.
func (o *Orchestrator) recomputeStatus(lead *model.Lead, anySuccess bool) {
	now := time.Now().UTC()

	if anySuccess {
		upgradeStatus(lead, model.LeadStatusEnriched)
		if lead.EnrichedAt == nil {
			lead.EnrichedAt = &now
		}
	}
	if lead.IsEmailValid {
		upgradeStatus(lead, model.LeadStatusValidated)
		if lead.ValidatedAt == nil {
			lead.ValidatedAt = &now
		}
	}
	if lead.IsEmailValid && lead.Score >= prioritizeScoreFloor {
		upgradeStatus(lead, model.LeadStatusPrioritized)
	}
}

var statusRank = map[model.LeadStatus]int{
	model.LeadStatusNew:         0,
	model.LeadStatusEnriched:    1,
	model.LeadStatusValidated:   2,
	model.LeadStatusPrioritized: 3,
}

func upgradeStatus(lead *model.Lead, to model.LeadStatus) {
	if statusRank[to] > statusRank[lead.Status] {
		lead.Status = to
	}
}

// buildLog converts one provider attempt into its audit record.
func buildLog(leadID string, t model.EnrichmentType, providerName, request string, env provider.Envelope, response []byte) model.EnrichmentLog {
	now := time.Now().UTC()
	log := model.EnrichmentLog{
		LeadID:         leadID,
		Type:           t,
		Provider:       providerName,
		Request:        request,
		ResponseTimeMs: env.ResponseTimeMs,
		Cost:           env.Cost,
		CreatedAt:      now,
		CompletedAt:    &now,
	}

	switch {
	case env.Success:
		log.Status = model.LogStatusSuccess
		log.Response = string(response)
	case env.RateLimited:
		log.Status = model.LogStatusRateLimited
		log.ErrorMessage = env.Error
	default:
		log.Status = model.LogStatusFailed
		log.ErrorMessage = env.Error
	}

	if env.Transient {
		log.Metadata = map[string]any{"transient": true}
	}
	return log
}

func requestJSON(key, value string) string {
	data, err := json.Marshal(map[string]string{key: value})
	if err != nil {
		return ""
	}
	return string(data)
}

func responseJSON(v any) []byte {
	if v == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}
