package discovery

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/discovery-api/internal/model"
	"github.com/sells-group/discovery-api/internal/resilience"
	"github.com/sells-group/discovery-api/pkg/hunter"
)

// preferredPrefixes ranks generic inboxes, best first.
var preferredPrefixes = []string{"info@", "contact@", "hello@"}

// EmailResult is the outcome of an email lookup. Source is
// model.EmailSourceNone when no address was found.
type EmailResult struct {
	Email  string
	Source model.EmailSource
}

// EmailFinder looks up a contact address for a business through Hunter.io.
// A nil client disables lookups.
type EmailFinder struct {
	client  hunter.Client
	breaker *resilience.Breaker
	retry   resilience.RetryConfig
}

// NewEmailFinder creates an EmailFinder. client may be nil when no API key
// is configured; breaker may be nil to call Hunter unguarded.
func NewEmailFinder(client hunter.Client, breaker *resilience.Breaker, retry resilience.RetryConfig) *EmailFinder {
	return &EmailFinder{client: client, breaker: breaker, retry: retry}
}

// Enabled reports whether lookups will reach Hunter.
func (f *EmailFinder) Enabled() bool {
	return f != nil && f.client != nil
}

// Find returns the best contact email for domain, falling back to a
// company-name search when the domain is empty or yields nothing. It never
// returns an error: every failure degrades to EmailSourceNone.
func (f *EmailFinder) Find(ctx context.Context, domain, company string) EmailResult {
	none := EmailResult{Source: model.EmailSourceNone}
	if !f.Enabled() {
		return none
	}

	log := zap.L().With(zap.String("domain", domain), zap.String("company", company))

	if d := NormalizeDomain(domain); d != "" {
		resp, err := call(ctx, f, "domain_search", func(ctx context.Context) (*hunter.DomainSearchResponse, error) {
			return f.client.DomainSearch(ctx, d)
		})
		if err != nil {
			log.Debug("hunter domain search failed", zap.Error(err))
			stepFailures.WithLabelValues(StepEmail).Inc()
			return none
		}
		if email := PreferredEmail(resp.Data.Emails); email != "" {
			return EmailResult{Email: email, Source: model.EmailSourceHunter}
		}
	}

	if strings.TrimSpace(company) == "" {
		return none
	}

	resp, err := call(ctx, f, "email_finder", func(ctx context.Context) (*hunter.EmailFinderResponse, error) {
		return f.client.FindByCompany(ctx, company)
	})
	if err != nil {
		log.Debug("hunter email finder failed", zap.Error(err))
		stepFailures.WithLabelValues(StepEmail).Inc()
		return none
	}
	if resp.Data.Email == "" {
		return none
	}
	return EmailResult{Email: resp.Data.Email, Source: model.EmailSourceHunter}
}

// call runs fn with retries inside the finder's circuit breaker.
func call[T any](ctx context.Context, f *EmailFinder, op string, fn func(context.Context) (T, error)) (T, error) {
	cfg := f.retry
	cfg.OnRetry = resilience.RetryLogger("hunter", op)
	attempt := func(ctx context.Context) (T, error) {
		return resilience.DoVal(ctx, cfg, fn)
	}
	if f.breaker == nil {
		return attempt(ctx)
	}
	return resilience.Call(ctx, f.breaker, attempt)
}

// NormalizeDomain strips the scheme, any path and a trailing slash from a
// website URL.
func NormalizeDomain(website string) string {
	d := strings.TrimSpace(website)
	if i := strings.Index(d, "://"); i >= 0 {
		d = d[i+3:]
	}
	if i := strings.IndexAny(d, "/?#"); i >= 0 {
		d = d[:i]
	}
	return strings.ToLower(d)
}

// PreferredEmail picks info@, then contact@, then hello@, else the first
// non-empty address.
func PreferredEmail(emails []hunter.Email) string {
	for _, prefix := range preferredPrefixes {
		for _, e := range emails {
			if strings.HasPrefix(strings.ToLower(e.Value), prefix) {
				return e.Value
			}
		}
	}
	for _, e := range emails {
		if e.Value != "" {
			return e.Value
		}
	}
	return ""
}
