package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://maps.googleapis.com/maps/api/place"

// Places API response statuses.
const (
	StatusOK             = "OK"
	StatusZeroResults    = "ZERO_RESULTS"
	StatusOverQueryLimit = "OVER_QUERY_LIMIT"
	StatusRequestDenied  = "REQUEST_DENIED"
	StatusInvalidRequest = "INVALID_REQUEST"
	StatusNotFound       = "NOT_FOUND"
	StatusUnknownError   = "UNKNOWN_ERROR"
)

// DetailsFields is the fixed field set requested for every place.
var DetailsFields = []string{
	"name",
	"formatted_address",
	"address_components",
	"formatted_phone_number",
	"website",
	"rating",
	"user_ratings_total",
	"types",
}

// Client performs Google Places API operations.
type Client interface {
	TextSearch(ctx context.Context, req TextSearchRequest) (*TextSearchResponse, error)
	PlaceDetails(ctx context.Context, placeID string) (*PlaceDetails, error)
}

// TextSearchRequest is a free-text place search.
type TextSearchRequest struct {
	Query        string
	RadiusMeters int
}

// TextSearchResponse is the response from the Text Search endpoint.
type TextSearchResponse struct {
	Status       string        `json:"status"`
	ErrorMessage string        `json:"error_message,omitempty"`
	Results      []SearchPlace `json:"results"`
}

// SearchPlace is one Text Search hit.
type SearchPlace struct {
	PlaceID          string   `json:"place_id"`
	Name             string   `json:"name"`
	FormattedAddress string   `json:"formatted_address"`
	Rating           *float64 `json:"rating,omitempty"`
	UserRatingsTotal *int     `json:"user_ratings_total,omitempty"`
	Types            []string `json:"types"`
}

// AddressComponent is one element of a place's structured address.
type AddressComponent struct {
	LongName  string   `json:"long_name"`
	ShortName string   `json:"short_name"`
	Types     []string `json:"types"`
}

// PlaceDetails is the result of a Place Details lookup.
type PlaceDetails struct {
	PlaceID           string             `json:"place_id"`
	Name              string             `json:"name"`
	FormattedAddress  string             `json:"formatted_address"`
	AddressComponents []AddressComponent `json:"address_components"`
	PhoneNumber       string             `json:"formatted_phone_number,omitempty"`
	Website           string             `json:"website,omitempty"`
	Rating            *float64           `json:"rating,omitempty"`
	UserRatingsTotal  *int               `json:"user_ratings_total,omitempty"`
	Types             []string           `json:"types"`
}

type detailsResponse struct {
	Status       string       `json:"status"`
	ErrorMessage string       `json:"error_message,omitempty"`
	Result       PlaceDetails `json:"result"`
}

// StatusError is returned when the API answers with a status other than OK
// (or ZERO_RESULTS for searches).
type StatusError struct {
	Operation string
	Status    string
	Message   string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("google: %s returned %s: %s", e.Operation, e.Status, e.Message)
	}
	return fmt.Sprintf("google: %s returned %s", e.Operation, e.Status)
}

// Temporary reports whether retrying the call may succeed.
func (e *StatusError) Temporary() bool {
	return e.Status == StatusOverQueryLimit || e.Status == StatusUnknownError
}

// HTTPError is returned for non-200 HTTP responses.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("google: unexpected status %d: %s", e.StatusCode, e.Body)
}

// Temporary reports whether the HTTP status is retryable.
func (e *HTTPError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = strings.TrimSuffix(url, "/")
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit caps outgoing requests per second. Zero disables throttling.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		} else {
			c.limiter = nil
		}
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a Google Places API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
		limiter: rate.NewLimiter(10, 10),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) TextSearch(ctx context.Context, req TextSearchRequest) (*TextSearchResponse, error) {
	params := url.Values{
		"query": {req.Query},
		"key":   {c.apiKey},
	}
	if req.RadiusMeters > 0 {
		params.Set("radius", strconv.Itoa(req.RadiusMeters))
	}

	var result TextSearchResponse
	if err := c.get(ctx, "/textsearch/json", params, &result); err != nil {
		return nil, eris.Wrap(err, "google: text search")
	}

	switch result.Status {
	case StatusOK, StatusZeroResults:
		return &result, nil
	default:
		return nil, &StatusError{Operation: "text search", Status: result.Status, Message: result.ErrorMessage}
	}
}

func (c *httpClient) PlaceDetails(ctx context.Context, placeID string) (*PlaceDetails, error) {
	if placeID == "" {
		return nil, eris.New("google: place id is required")
	}

	params := url.Values{
		"place_id": {placeID},
		"fields":   {strings.Join(DetailsFields, ",")},
		"key":      {c.apiKey},
	}

	var result detailsResponse
	if err := c.get(ctx, "/details/json", params, &result); err != nil {
		return nil, eris.Wrapf(err, "google: place details %s", placeID)
	}

	if result.Status != StatusOK {
		return nil, &StatusError{Operation: "place details", Status: result.Status, Message: result.ErrorMessage}
	}

	details := result.Result
	if details.PlaceID == "" {
		details.PlaceID = placeID
	}
	return &details, nil
}

func (c *httpClient) get(ctx context.Context, path string, params url.Values, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return eris.Wrap(err, "rate limit wait")
		}
	}

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
		return &HTTPError{StatusCode: resp.StatusCode, Body: string(body)}
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
		if q.Has("key") {
			q.Set("key", "REDACTED")
		}
		u.RawQuery = q.Encode()
		redacted = u.String()
	}
	return &url.Error{Op: ue.Op, URL: redacted, Err: ue.Err}
}
