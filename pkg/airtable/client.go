// Package airtable provides a minimal client for the Airtable REST API.
package airtable

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://api.airtable.com/v0"

// Client writes records to an Airtable base.
type Client interface {
	// CreateRecord inserts one row into table and returns the new record ID.
	CreateRecord(ctx context.Context, table string, fields map[string]any) (string, error)
}

type createRequest struct {
	Fields   map[string]any `json:"fields"`
	Typecast bool           `json:"typecast"`
}

type createResponse struct {
	ID          string         `json:"id"`
	CreatedTime string         `json:"createdTime"`
	Fields      map[string]any `json:"fields"`
}

// APIError is returned for non-2xx responses.
type APIError struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("airtable: status %d: %s: %s", e.StatusCode, e.Type, e.Message)
	}
	return fmt.Sprintf("airtable: status %d: %s", e.StatusCode, e.Message)
}

// Temporary reports whether the request may succeed on retry.
func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = strings.TrimSuffix(u, "/")
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit caps requests per second. Airtable allows 5 per base.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		} else {
			c.limiter = nil
		}
	}
}

type httpClient struct {
	token   string
	baseID  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates an Airtable client bound to one base.
func NewClient(token, baseID string, opts ...Option) Client {
	c := &httpClient{
		token:   token,
		baseID:  baseID,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 5 * time.Second,
		},
		limiter: rate.NewLimiter(5, 1),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) CreateRecord(ctx context.Context, table string, fields map[string]any) (string, error) {
	if table == "" {
		return "", eris.New("airtable: table name is required")
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", eris.Wrap(err, "airtable: rate limit wait")
		}
	}

	payload, err := json.Marshal(createRequest{Fields: fields, Typecast: true})
	if err != nil {
		return "", eris.Wrap(err, "airtable: marshal record")
	}

	endpoint := fmt.Sprintf("%s/%s/%s", c.baseURL, url.PathEscape(c.baseID), url.PathEscape(table))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", eris.Wrap(err, "airtable: create request")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "airtable: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", eris.Wrap(err, "airtable: read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", parseAPIError(resp.StatusCode, body)
	}

	var out createResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", eris.Wrap(err, "airtable: unmarshal response")
	}
	if out.ID == "" {
		return "", eris.New("airtable: response missing record id")
	}
	return out.ID, nil
}

// parseAPIError handles both error shapes Airtable uses:
// {"error":"NOT_FOUND"} and {"error":{"type":"...","message":"..."}}.
func parseAPIError(status int, body []byte) error {
	apiErr := &APIError{StatusCode: status, Message: strings.TrimSpace(string(body))}

	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if json.Unmarshal(body, &envelope) != nil || len(envelope.Error) == 0 {
		return apiErr
	}

	var detail struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}
	if json.Unmarshal(envelope.Error, &detail) == nil && (detail.Type != "" || detail.Message != "") {
		apiErr.Type = detail.Type
		apiErr.Message = detail.Message
		return apiErr
	}

	var code string
	if json.Unmarshal(envelope.Error, &code) == nil {
		apiErr.Type = code
		apiErr.Message = ""
	}
	return apiErr
}
