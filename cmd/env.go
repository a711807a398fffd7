package main

import (
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/discovery-api/internal/chat"
	"github.com/sells-group/discovery-api/internal/config"
	"github.com/sells-group/discovery-api/internal/crm"
	"github.com/sells-group/discovery-api/internal/discovery"
	"github.com/sells-group/discovery-api/internal/resilience"
	"github.com/sells-group/discovery-api/internal/scoring"
	"github.com/sells-group/discovery-api/pkg/airtable"
	anthropicpkg "github.com/sells-group/discovery-api/pkg/anthropic"
	"github.com/sells-group/discovery-api/pkg/google"
	"github.com/sells-group/discovery-api/pkg/hunter"
	"github.com/sells-group/discovery-api/pkg/notion"
)

// discoveryEnv holds the wired services used by the serve, discover and
// chat commands.
type discoveryEnv struct {
	Service *discovery.Service
	Chat    chat.Responder
	// Missing lists credentials absent from the config. Discovery requests
	// fail with a configuration error while it is non-empty.
	Missing []string
}

// initDiscovery builds every upstream client and the discovery service from
// c. Clients whose credentials are missing are left out.
func initDiscovery(c *config.Config) (*discoveryEnv, error) {
	policy := scoring.DefaultPolicy()
	if c.Discovery.ScoringPolicyPath != "" {
		p, err := scoring.LoadPolicy(c.Discovery.ScoringPolicyPath)
		if err != nil {
			return nil, eris.Wrap(err, "load scoring policy")
		}
		policy = p
		zap.L().Info("scoring policy loaded", zap.String("path", c.Discovery.ScoringPolicyPath))
	}

	retry := resilience.FromConfig(c.Retry.MaxAttempts, c.Retry.InitialBackoffMs, c.Retry.MaxBackoffMs)
	breakers := resilience.NewBreakers(breakerConfig(c.Circuit))

	var searcher *discovery.Searcher
	if c.Google.Key != "" {
		opts := []google.Option{google.WithRateLimit(c.Discovery.PlacesRateLimit)}
		if c.Google.BaseURL != "" {
			opts = append(opts, google.WithBaseURL(c.Google.BaseURL))
		}
		places := google.NewClient(c.Google.Key, opts...)
		searcher = discovery.NewSearcher(places, c.Discovery.Platform, retry)
	} else {
		zap.L().Warn("DISCOVERY_GOOGLE_KEY not set, discovery requests will fail")
	}

	var email *discovery.EmailFinder
	if c.Hunter.Key != "" {
		var opts []hunter.Option
		if c.Hunter.BaseURL != "" {
			opts = append(opts, hunter.WithBaseURL(c.Hunter.BaseURL))
		}
		hc := hunter.NewClient(c.Hunter.Key, opts...)
		email = discovery.NewEmailFinder(hc, breakers.Get("hunter"), retry)
		zap.L().Info("hunter email lookup enabled")
	} else {
		zap.L().Debug("DISCOVERY_HUNTER_KEY not set, email lookup disabled")
	}

	sink, err := buildSink(c, breakers, retry)
	if err != nil {
		return nil, err
	}

	svc := discovery.NewService(searcher, email, sink, discovery.Options{
		Timeout:            time.Duration(c.Discovery.TimeoutMs) * time.Millisecond,
		DefaultRadiusMiles: c.Discovery.DefaultRadiusMiles,
		DefaultMaxResults:  c.Discovery.DefaultMaxResults,
		Policy:             policy,
	})

	return &discoveryEnv{
		Service: svc,
		Chat:    buildResponder(c),
		Missing: c.MissingCredentials(),
	}, nil
}

// buildSink picks the CRM sink for crm.driver. A driver whose credentials
// are missing yields no sink; the request-time check reports it.
func buildSink(c *config.Config, breakers *resilience.Breakers, retry resilience.RetryConfig) (crm.Sink, error) {
	switch c.CRM.Driver {
	case "airtable":
		if c.Airtable.Token == "" || c.Airtable.BaseID == "" {
			return nil, nil
		}
		var opts []airtable.Option
		if c.Airtable.BaseURL != "" {
			opts = append(opts, airtable.WithBaseURL(c.Airtable.BaseURL))
		}
		client := airtable.NewClient(c.Airtable.Token, c.Airtable.BaseID, opts...)
		return crm.NewAirtableSink(client, c.Airtable.Table, breakers.Get("airtable"), retry), nil
	case "notion":
		if c.Notion.Token == "" || c.Notion.LeadDB == "" {
			return nil, nil
		}
		return crm.NewNotionSink(notion.NewClient(c.Notion.Token), c.Notion.LeadDB, breakers.Get("notion")), nil
	case "none", "":
		return crm.Discard{}, nil
	default:
		return nil, eris.Errorf("unknown crm driver %q", c.CRM.Driver)
	}
}

func buildResponder(c *config.Config) chat.Responder {
	rules := chat.NewRuleResponder(chat.DefaultRules, chat.DefaultFallback)
	if c.Anthropic.Key == "" {
		return rules
	}
	client := anthropicpkg.NewClient(c.Anthropic.Key)
	timeout := time.Duration(c.Anthropic.TimeoutSecs) * time.Second
	zap.L().Info("llm chat responder enabled", zap.String("model", c.Anthropic.Model))
	return chat.NewLLMResponder(client, c.Anthropic.Model, c.Anthropic.MaxTokens, timeout, rules)
}

func breakerConfig(c config.CircuitConfig) resilience.BreakerConfig {
	bc := resilience.DefaultBreakerConfig()
	if c.FailureThreshold > 0 {
		bc.FailureThreshold = c.FailureThreshold
	}
	if c.ResetTimeoutSecs > 0 {
		bc.ResetTimeout = time.Duration(c.ResetTimeoutSecs) * time.Second
	}
	return bc
}
