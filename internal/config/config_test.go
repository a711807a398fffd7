package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)
	t.Setenv("VERCEL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "development", cfg.Server.Env)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "airtable", cfg.CRM.Driver)
	assert.Equal(t, "Leads", cfg.Airtable.Table)
	assert.Equal(t, 8000, cfg.Discovery.TimeoutMs)
	assert.InDelta(t, 5.0, cfg.Discovery.DefaultRadiusMiles, 0.001)
	assert.Equal(t, 20, cfg.Discovery.DefaultMaxResults)
	assert.Empty(t, cfg.Discovery.Platform)
	assert.Equal(t, 2, cfg.Retry.MaxAttempts)
	assert.Equal(t, 5, cfg.Circuit.FailureThreshold)
	assert.Equal(t, "claude-haiku-4-5-20251001", cfg.Anthropic.Model)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
log:
  level: debug
  format: console
server:
  port: 9090
  env: production
crm:
  driver: notion
notion:
  token: secret_abc
  lead_db: db-123
discovery:
  timeout_ms: 5000
  platform: serverless
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.True(t, cfg.Server.IsProduction())
	assert.Equal(t, "notion", cfg.CRM.Driver)
	assert.Equal(t, "db-123", cfg.Notion.LeadDB)
	assert.Equal(t, 5000, cfg.Discovery.TimeoutMs)
	assert.Equal(t, "serverless", cfg.Discovery.Platform)
}

func TestLoadEnvOverride(t *testing.T) {
	chdirTemp(t)
	t.Setenv("DISCOVERY_SERVER_PORT", "3000")
	t.Setenv("DISCOVERY_GOOGLE_KEY", "gkey")
	t.Setenv("DISCOVERY_DISCOVERY_DEFAULT_MAX_RESULTS", "7")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "gkey", cfg.Google.Key)
	assert.Equal(t, 7, cfg.Discovery.DefaultMaxResults)
}

func TestLoadLegacyEnv(t *testing.T) {
	chdirTemp(t)
	t.Setenv("GOOGLE_PLACES_API_KEY", "places")
	t.Setenv("HUNTER_API_KEY", "hunter")
	t.Setenv("AIRTABLE_API_KEY", "pat")
	t.Setenv("AIRTABLE_BASE_ID", "appX")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "places", cfg.Google.Key)
	assert.Equal(t, "hunter", cfg.Hunter.Key)
	assert.Equal(t, "pat", cfg.Airtable.Token)
	assert.Equal(t, "appX", cfg.Airtable.BaseID)
	assert.Empty(t, cfg.MissingCredentials())
}

func TestLoadPrefixedEnvWinsOverLegacy(t *testing.T) {
	chdirTemp(t)
	t.Setenv("GOOGLE_PLACES_API_KEY", "legacy")
	t.Setenv("DISCOVERY_GOOGLE_KEY", "prefixed")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "prefixed", cfg.Google.Key)
}

func TestLoadVercelPlatform(t *testing.T) {
	chdirTemp(t)
	t.Setenv("VERCEL", "1")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "serverless", cfg.Discovery.Platform)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server: [unclosed"), 0o644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func validConfig() *Config {
	return &Config{
		Google:   GoogleConfig{Key: "g"},
		Airtable: AirtableConfig{Token: "t", BaseID: "app"},
		CRM:      CRMConfig{Driver: "airtable"},
		Discovery: DiscoveryConfig{
			TimeoutMs:          8000,
			DefaultRadiusMiles: 5,
			DefaultMaxResults:  20,
		},
		Retry:  RetryConfig{MaxAttempts: 2},
		Server: ServerConfig{Port: 8080},
	}
}

func TestMissingCredentials(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   []string
	}{
		{name: "complete", mutate: func(*Config) {}},
		{
			name:   "no google key",
			mutate: func(c *Config) { c.Google.Key = "" },
			want:   []string{"google.key"},
		},
		{
			name:   "airtable missing both",
			mutate: func(c *Config) { c.Airtable = AirtableConfig{} },
			want:   []string{"airtable.token", "airtable.base_id"},
		},
		{
			name:   "notion driver ignores airtable",
			mutate: func(c *Config) { c.CRM.Driver = "notion"; c.Airtable = AirtableConfig{} },
			want:   []string{"notion.token", "notion.lead_db"},
		},
		{
			name:   "none driver needs only google",
			mutate: func(c *Config) { c.CRM.Driver = "none"; c.Airtable = AirtableConfig{} },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.Equal(t, tt.want, cfg.MissingCredentials())
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mode    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "serve ok", mode: "serve", mutate: func(*Config) {}},
		{name: "discovery ok", mode: "discovery", mutate: func(*Config) {}},
		{name: "chat ok", mode: "chat", mutate: func(*Config) {}},
		{
			name:    "serve bad port",
			mode:    "serve",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "server.port must be > 0",
		},
		{
			name:   "serve does not need credentials",
			mode:   "serve",
			mutate: func(c *Config) { c.Google.Key = "" },
		},
		{
			name:    "discovery missing google key",
			mode:    "discovery",
			mutate:  func(c *Config) { c.Google.Key = "" },
			wantErr: "google.key is required",
		},
		{
			name:    "max results above cap",
			mode:    "discovery",
			mutate:  func(c *Config) { c.Discovery.DefaultMaxResults = 21 },
			wantErr: "default_max_results must be between 1 and 20",
		},
		{
			name:    "unknown platform",
			mode:    "serve",
			mutate:  func(c *Config) { c.Discovery.Platform = "lambda" },
			wantErr: "discovery.platform",
		},
		{
			name:    "unknown crm driver",
			mode:    "serve",
			mutate:  func(c *Config) { c.CRM.Driver = "hubspot" },
			wantErr: "crm.driver",
		},
		{
			name:    "zero timeout",
			mode:    "discovery",
			mutate:  func(c *Config) { c.Discovery.TimeoutMs = 0 },
			wantErr: "discovery.timeout_ms must be > 0",
		},
		{
			name:    "chat model required with key",
			mode:    "chat",
			mutate:  func(c *Config) { c.Anthropic.Key = "k" },
			wantErr: "anthropic.model is required",
		},
		{
			name:    "unknown mode",
			mode:    "bogus",
			mutate:  func(*Config) {},
			wantErr: "unknown mode",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate(tt.mode)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestInitLogger(t *testing.T) {
	orig := zap.L()
	t.Cleanup(func() { zap.ReplaceGlobals(orig) })

	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.True(t, zap.L().Core().Enabled(zap.DebugLevel))

	require.NoError(t, InitLogger(LogConfig{Level: "warn", Format: "json"}))
	assert.False(t, zap.L().Core().Enabled(zap.InfoLevel))

	err := InitLogger(LogConfig{Level: "loud"})
	require.Error(t, err)
}
