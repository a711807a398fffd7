// Package hunter provides a client for the Hunter.io email discovery API.
package hunter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://api.hunter.io/v2"

// Client defines the Hunter.io operations used for lead enrichment.
type Client interface {
	// DomainSearch lists the email addresses Hunter knows for a domain.
	DomainSearch(ctx context.Context, domain string) (*DomainSearchResponse, error)
	// FindByCompany asks Hunter for the most likely address at a company.
	FindByCompany(ctx context.Context, company string) (*EmailFinderResponse, error)
}

// DomainSearchResponse is the parsed /domain-search response.
type DomainSearchResponse struct {
	Data DomainSearchData `json:"data"`
}

// DomainSearchData holds the domain and its known addresses.
type DomainSearchData struct {
	Domain       string  `json:"domain"`
	Organization string  `json:"organization"`
	Emails       []Email `json:"emails"`
}

// Email is one address returned by a domain search.
type Email struct {
	Value      string `json:"value"`
	Type       string `json:"type"`
	Confidence int    `json:"confidence"`
}

// EmailFinderResponse is the parsed /email-finder response.
type EmailFinderResponse struct {
	Data EmailFinderData `json:"data"`
}

// EmailFinderData holds the best-guess address.
type EmailFinderData struct {
	Email  string `json:"email"`
	Score  int    `json:"score"`
	Domain string `json:"domain"`
}

// StatusError is returned for non-200 responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("hunter: unexpected status %d: %s", e.StatusCode, e.Body)
}

// Temporary reports whether the call may succeed on retry.
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a Hunter.io API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) DomainSearch(ctx context.Context, domain string) (*DomainSearchResponse, error) {
	params := url.Values{
		"domain":  {domain},
		"limit":   {"10"},
		"api_key": {c.apiKey},
	}

	var result DomainSearchResponse
	if err := c.get(ctx, "/domain-search", params, &result); err != nil {
		return nil, eris.Wrapf(err, "hunter: domain search %s", domain)
	}
	return &result, nil
}

func (c *httpClient) FindByCompany(ctx context.Context, company string) (*EmailFinderResponse, error) {
	params := url.Values{
		"company": {company},
		"api_key": {c.apiKey},
	}

	var result EmailFinderResponse
	if err := c.get(ctx, "/email-finder", params, &result); err != nil {
		return nil, eris.Wrapf(err, "hunter: email finder %q", company)
	}
	return &result, nil
}

func (c *httpClient) get(ctx context.Context, path string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return eris.Wrap(redactKey(err), "create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(redactKey(err), "send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "read response")
	}

	if resp.StatusCode != http.StatusOK {
		return &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrap(err, "unmarshal response")
	}
	return nil
}

// redactKey replaces the API key in the URL that net/http errors carry.
func redactKey(err error) error {
	var ue *url.Error
	if !errors.As(err, &ue) {
		return err
	}
	redacted := "redacted-url"
	if u, perr := url.Parse(ue.URL); perr == nil {
		q := u.Query()
		if q.Has("api_key") {
			q.Set("api_key", "REDACTED")
		}
		u.RawQuery = q.Encode()
		redacted = u.String()
	}
	return &url.Error{Op: ue.Op, URL: redacted, Err: ue.Err}
}
