// Package config loads application configuration from file and
// environment and initializes logging.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/lead-enrich-cli/internal/store"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Hunter   ProviderConfig `yaml:"hunter" mapstructure:"hunter"`
	Apollo   ProviderConfig `yaml:"apollo" mapstructure:"apollo"`
	Clearbit ProviderConfig `yaml:"clearbit" mapstructure:"clearbit"`
	Enrich   EnrichConfig   `yaml:"enrich" mapstructure:"enrich"`
	Scoring  ScoringConfig  `yaml:"scoring" mapstructure:"scoring"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string            `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string            `yaml:"database_url" mapstructure:"database_url"`
	Pool        *store.PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// ProviderConfig holds one enrichment provider's credentials and limits.
type ProviderConfig struct {
	Key            string  `yaml:"key" mapstructure:"key"`
	BaseURL        string  `yaml:"base_url" mapstructure:"base_url"`
	Disabled       bool    `yaml:"disabled" mapstructure:"disabled"`
	Priority       int     `yaml:"priority" mapstructure:"priority"`
	RateLimit      int     `yaml:"rate_limit" mapstructure:"rate_limit"`
	RateWindowSecs int     `yaml:"rate_window_secs" mapstructure:"rate_window_secs"`
	CostPerRequest float64 `yaml:"cost_per_request" mapstructure:"cost_per_request"`
}

// RateWindow returns the rate window as a duration.
func (p ProviderConfig) RateWindow() time.Duration {
	return time.Duration(p.RateWindowSecs) * time.Second
}

// EnrichConfig configures orchestrator behavior.
type EnrichConfig struct {
	BulkDelaySecs      float64 `yaml:"bulk_delay_secs" mapstructure:"bulk_delay_secs"`
	RequestTimeoutSecs int     `yaml:"request_timeout_secs" mapstructure:"request_timeout_secs"`
}

// BulkDelay returns the pause between bulk leads as a duration.
func (e EnrichConfig) BulkDelay() time.Duration {
	return time.Duration(e.BulkDelaySecs * float64(time.Second))
}

// RequestTimeout returns the per-request provider timeout.
func (e EnrichConfig) RequestTimeout() time.Duration {
	return time.Duration(e.RequestTimeoutSecs) * time.Second
}

// ScoringConfig configures the scoring engine.
type ScoringConfig struct {
	// WeightsPath points to an optional YAML weight override file.
	WeightsPath string `yaml:"weights_path" mapstructure:"weights_path"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LEADENRICH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "leads.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("enrich.bulk_delay_secs", 1.0)
	v.SetDefault("enrich.request_timeout_secs", 10)
	v.SetDefault("hunter.base_url", "https://api.hunter.io/v2")
	v.SetDefault("hunter.priority", 1)
	v.SetDefault("hunter.rate_limit", 500)
	v.SetDefault("hunter.rate_window_secs", 60)
	v.SetDefault("hunter.cost_per_request", 0.01)
	v.SetDefault("apollo.base_url", "https://api.apollo.io/v1")
	v.SetDefault("apollo.priority", 2)
	v.SetDefault("apollo.rate_limit", 200)
	v.SetDefault("apollo.rate_window_secs", 60)
	v.SetDefault("apollo.cost_per_request", 0.02)
	v.SetDefault("clearbit.base_url", "https://company.clearbit.com/v2")
	v.SetDefault("clearbit.priority", 3)
	v.SetDefault("clearbit.rate_limit", 600)
	v.SetDefault("clearbit.rate_window_secs", 60)
	v.SetDefault("clearbit.cost_per_request", 0.05)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
