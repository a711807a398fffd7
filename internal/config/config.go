package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Google    GoogleConfig    `yaml:"google" mapstructure:"google"`
	Hunter    HunterConfig    `yaml:"hunter" mapstructure:"hunter"`
	Airtable  AirtableConfig  `yaml:"airtable" mapstructure:"airtable"`
	Notion    NotionConfig    `yaml:"notion" mapstructure:"notion"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	CRM       CRMConfig       `yaml:"crm" mapstructure:"crm"`
	Discovery DiscoveryConfig `yaml:"discovery" mapstructure:"discovery"`
	Retry     RetryConfig     `yaml:"retry" mapstructure:"retry"`
	Circuit   CircuitConfig   `yaml:"circuit" mapstructure:"circuit"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// GoogleConfig holds Google Places credentials.
type GoogleConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// HunterConfig holds Hunter.io credentials. An empty key disables email lookups.
type HunterConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// AirtableConfig points at the lead table.
type AirtableConfig struct {
	Token   string `yaml:"token" mapstructure:"token"`
	BaseID  string `yaml:"base_id" mapstructure:"base_id"`
	Table   string `yaml:"table" mapstructure:"table"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// NotionConfig holds Notion credentials for the notion CRM driver.
type NotionConfig struct {
	Token  string `yaml:"token" mapstructure:"token"`
	LeadDB string `yaml:"lead_db" mapstructure:"lead_db"`
}

// AnthropicConfig configures the optional LLM chat responder.
type AnthropicConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	Model       string `yaml:"model" mapstructure:"model"`
	MaxTokens   int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// CRMConfig selects where leads are written.
type CRMConfig struct {
	// Driver is one of "airtable", "notion" or "none".
	Driver string `yaml:"driver" mapstructure:"driver"`
}

// DiscoveryConfig configures the discovery pipeline.
type DiscoveryConfig struct {
	TimeoutMs          int     `yaml:"timeout_ms" mapstructure:"timeout_ms"`
	DefaultRadiusMiles float64 `yaml:"default_radius_miles" mapstructure:"default_radius_miles"`
	DefaultMaxResults  int     `yaml:"default_max_results" mapstructure:"default_max_results"`
	// Platform "serverless" applies the stricter result cap.
	Platform          string  `yaml:"platform" mapstructure:"platform"`
	PlacesRateLimit   float64 `yaml:"places_rate_limit" mapstructure:"places_rate_limit"`
	ScoringPolicyPath string  `yaml:"scoring_policy_path" mapstructure:"scoring_policy_path"`
}

// RetryConfig bounds retries of transient upstream failures.
type RetryConfig struct {
	MaxAttempts      int `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
}

// CircuitConfig configures per-service circuit breakers.
type CircuitConfig struct {
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
	// Env "production" hides error details from API responses.
	Env         string   `yaml:"env" mapstructure:"env"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// IsProduction reports whether the server runs in production.
func (s ServerConfig) IsProduction() bool {
	return strings.EqualFold(s.Env, "production")
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// legacyEnv maps config keys to the environment variable names the site
// deployment already sets.
var legacyEnv = map[string]string{
	"google.key":       "GOOGLE_PLACES_API_KEY",
	"hunter.key":       "HUNTER_API_KEY",
	"airtable.token":   "AIRTABLE_API_KEY",
	"airtable.base_id": "AIRTABLE_BASE_ID",
	"anthropic.key":    "ANTHROPIC_API_KEY",
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("DISCOVERY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, legacy := range legacyEnv {
		prefixed := "DISCOVERY_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return nil, eris.Wrapf(err, "config: bind env %s", key)
		}
	}

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.env", "development")
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("crm.driver", "airtable")
	v.SetDefault("airtable.table", "Leads")
	v.SetDefault("airtable.base_url", "https://api.airtable.com/v0")
	v.SetDefault("google.base_url", "https://maps.googleapis.com/maps/api/place")
	v.SetDefault("hunter.base_url", "https://api.hunter.io/v2")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 400)
	v.SetDefault("anthropic.timeout_secs", 10)
	v.SetDefault("discovery.timeout_ms", 8000)
	v.SetDefault("discovery.default_radius_miles", 5)
	v.SetDefault("discovery.default_max_results", 20)
	v.SetDefault("discovery.places_rate_limit", 10)
	v.SetDefault("retry.max_attempts", 2)
	v.SetDefault("retry.initial_backoff_ms", 200)
	v.SetDefault("retry.max_backoff_ms", 2000)
	v.SetDefault("circuit.failure_threshold", 5)
	v.SetDefault("circuit.reset_timeout_secs", 30)

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

	// Vercel sets VERCEL=1 on every function invocation.
	if cfg.Discovery.Platform == "" && os.Getenv("VERCEL") != "" {
		cfg.Discovery.Platform = "serverless"
	}

	return &cfg, nil
}

// MissingCredentials lists the credentials a discovery request cannot run
// without, given the configured CRM driver.
func (c *Config) MissingCredentials() []string {
	var missing []string
	if c.Google.Key == "" {
		missing = append(missing, "google.key")
	}
	switch c.CRM.Driver {
	case "airtable":
		if c.Airtable.Token == "" {
			missing = append(missing, "airtable.token")
		}
		if c.Airtable.BaseID == "" {
			missing = append(missing, "airtable.base_id")
		}
	case "notion":
		if c.Notion.Token == "" {
			missing = append(missing, "notion.token")
		}
		if c.Notion.LeadDB == "" {
			missing = append(missing, "notion.lead_db")
		}
	}
	return missing
}

// Validate checks the configuration for the given command mode: "serve",
// "discovery" or "chat". Serve does not require credentials; requests fail
// with a configuration error instead.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be > 0 and <= 65535")
		}
		errs = append(errs, c.validateDiscovery()...)
	case "discovery":
		for _, m := range c.MissingCredentials() {
			errs = append(errs, m+" is required")
		}
		errs = append(errs, c.validateDiscovery()...)
	case "chat":
		if c.Anthropic.Key != "" && c.Anthropic.Model == "" {
			errs = append(errs, "anthropic.model is required when anthropic.key is set")
		}
	default:
		return eris.New(fmt.Sprintf("config: unknown mode %q", mode))
	}

	if len(errs) > 0 {
		return eris.New("config: " + strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateDiscovery() []string {
	var errs []string
	d := c.Discovery
	if d.TimeoutMs <= 0 {
		errs = append(errs, "discovery.timeout_ms must be > 0")
	}
	if d.DefaultRadiusMiles <= 0 {
		errs = append(errs, "discovery.default_radius_miles must be > 0")
	}
	if d.DefaultMaxResults < 1 || d.DefaultMaxResults > 20 {
		errs = append(errs, "discovery.default_max_results must be between 1 and 20")
	}
	if d.Platform != "" && d.Platform != "serverless" && d.Platform != "server" {
		errs = append(errs, fmt.Sprintf("discovery.platform %q must be \"server\" or \"serverless\"", d.Platform))
	}
	if d.PlacesRateLimit < 0 {
		errs = append(errs, "discovery.places_rate_limit must be >= 0")
	}
	switch c.CRM.Driver {
	case "airtable", "notion", "none":
	default:
		errs = append(errs, fmt.Sprintf("crm.driver %q must be airtable, notion or none", c.CRM.Driver))
	}
	if c.Retry.MaxAttempts < 1 || c.Retry.MaxAttempts > 5 {
		errs = append(errs, "retry.max_attempts must be between 1 and 5")
	}
	return errs
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
