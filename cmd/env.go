package main

import (
	"context"
	"net/http"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-enrich-cli/internal/config"
	"github.com/sells-group/lead-enrich-cli/internal/enrich"
	"github.com/sells-group/lead-enrich-cli/internal/monitoring"
	"github.com/sells-group/lead-enrich-cli/internal/provider"
	"github.com/sells-group/lead-enrich-cli/internal/scoring"
	"github.com/sells-group/lead-enrich-cli/internal/store"
	"github.com/sells-group/lead-enrich-cli/pkg/apollo"
	"github.com/sells-group/lead-enrich-cli/pkg/clearbit"
	"github.com/sells-group/lead-enrich-cli/pkg/hunter"
)

// appEnv bundles the wired subsystems commands operate on.
type appEnv struct {
	Store        store.Store
	Registry     *provider.Registry
	Orchestrator *enrich.Orchestrator
	Collector    *monitoring.Collector
}

// initEnv wires the store, providers, scoring and orchestrator from the
// loaded config.
func initEnv(ctx context.Context) (*appEnv, error) {
	st, err := openStore(ctx)
	if err != nil {
		return nil, err
	}

	weights, err := loadWeights()
	if err != nil {
		st.Close()
		return nil, err
	}

	registry := buildRegistry()

	return &appEnv{
		Store:        st,
		Registry:     registry,
		Orchestrator: enrich.NewOrchestrator(st, registry, weights, cfg.Enrich.BulkDelay()),
		Collector:    monitoring.NewCollector(st),
	}, nil
}

func (e *appEnv) Close() {
	if err := e.Store.Close(); err != nil {
		zap.L().Warn("store close failed", zap.Error(err))
	}
}

func openStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		return store.NewSQLite(cfg.Store.DatabaseURL)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, cfg.Store.Pool)
	default:
		return nil, eris.Errorf("unknown store driver: %s", cfg.Store.Driver)
	}
}

func loadWeights() (scoring.Weights, error) {
	if cfg.Scoring.WeightsPath == "" {
		return scoring.DefaultWeights(), nil
	}
	w, err := scoring.LoadWeights(cfg.Scoring.WeightsPath)
	if err != nil {
		return scoring.Weights{}, err
	}
	if err := w.Validate(); err != nil {
		return scoring.Weights{}, err
	}
	return w, nil
}

func buildRegistry() *provider.Registry {
	hc := &http.Client{Timeout: cfg.Enrich.RequestTimeout()}

	registry := provider.NewRegistry()
	registry.Register(provider.NewHunter(
		providerConfig("hunter", cfg.Hunter),
		hunter.NewClient(cfg.Hunter.Key, hunter.WithBaseURL(cfg.Hunter.BaseURL), hunter.WithHTTPClient(hc)),
	))
	registry.Register(provider.NewApollo(
		providerConfig("apollo", cfg.Apollo),
		apollo.NewClient(cfg.Apollo.Key, apollo.WithBaseURL(cfg.Apollo.BaseURL), apollo.WithHTTPClient(hc)),
	))
	registry.Register(provider.NewClearbit(
		providerConfig("clearbit", cfg.Clearbit),
		clearbit.NewClient(cfg.Clearbit.Key, clearbit.WithBaseURL(cfg.Clearbit.BaseURL), clearbit.WithHTTPClient(hc)),
	))
	return registry
}

func providerConfig(name string, pc config.ProviderConfig) provider.Config {
	return provider.Config{
		Name:           name,
		APIKey:         pc.Key,
		Disabled:       pc.Disabled,
		Priority:       pc.Priority,
		RateLimit:      pc.RateLimit,
		RateWindow:     pc.RateWindow(),
		CostPerRequest: pc.CostPerRequest,
	}
}
