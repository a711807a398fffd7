package discovery

import (
	"context"
	"fmt"
	"math"

	"github.com/sells-group/discovery-api/internal/resilience"
	"github.com/sells-group/discovery-api/pkg/google"
)

const (
	metersPerMile = 1609.34
	// Places Text Search rejects radii above 50 km.
	maxRadiusMeters = 50000

	// PlatformServerless selects the stricter result cap.
	PlatformServerless = "serverless"

	defaultResultCap    = 20
	serverlessResultCap = 10
)

// PlatformCap returns the most places one request may enrich on platform.
func PlatformCap(platform string) int {
	if platform == PlatformServerless {
		return serverlessResultCap
	}
	return defaultResultCap
}

// MilesToMeters converts a search radius to whole meters, bounded by the
// Places API maximum.
func MilesToMeters(miles float64) int {
	if miles <= 0 {
		return 0
	}
	return min(int(math.Round(miles*metersPerMile)), maxRadiusMeters)
}

// Query builds the free-text Places query for an industry and location.
func Query(industry, location string) string {
	return fmt.Sprintf("%s in %s", industry, location)
}

// Searcher wraps the Places client with retries and the platform cap.
type Searcher struct {
	places google.Client
	retry  resilience.RetryConfig
	cap    int
}

// NewSearcher creates a Searcher. platform selects the result cap.
func NewSearcher(places google.Client, platform string, retry resilience.RetryConfig) *Searcher {
	return &Searcher{
		places: places,
		retry:  retry,
		cap:    PlatformCap(platform),
	}
}

// Cap returns the per-request result ceiling.
func (s *Searcher) Cap() int { return s.cap }

// Search runs a text search and returns at most min(maxResults, cap)
// places with duplicate place IDs removed. ZERO_RESULTS yields an empty
// slice. Any other API status is returned as a StepError.
func (s *Searcher) Search(ctx context.Context, industry, location string, radiusMiles float64, maxResults int) ([]google.SearchPlace, error) {
	limit := s.cap
	if maxResults > 0 && maxResults < limit {
		limit = maxResults
	}

	req := google.TextSearchRequest{
		Query:        Query(industry, location),
		RadiusMeters: MilesToMeters(radiusMiles),
	}

	cfg := s.retry
	cfg.OnRetry = resilience.RetryLogger("google", "text_search")
	resp, err := resilience.DoVal(ctx, cfg, func(ctx context.Context) (*google.TextSearchResponse, error) {
		return s.places.TextSearch(ctx, req)
	})
	if err != nil {
		return nil, &StepError{Step: StepSearch, Kind: KindUpstreamHard, Err: err}
	}

	seen := make(map[string]struct{}, len(resp.Results))
	out := make([]google.SearchPlace, 0, min(len(resp.Results), limit))
	for _, p := range resp.Results {
		if len(out) == limit {
			break
		}
		if p.PlaceID == "" {
			continue
		}
		if _, dup := seen[p.PlaceID]; dup {
			continue
		}
		seen[p.PlaceID] = struct{}{}
		out = append(out, p)
	}
	return out, nil
}

// Details fetches the fixed details field set for one place. Failures are
// hard for that place only.
func (s *Searcher) Details(ctx context.Context, placeID string) (*google.PlaceDetails, error) {
	cfg := s.retry
	cfg.OnRetry = resilience.RetryLogger("google", "place_details")
	d, err := resilience.DoVal(ctx, cfg, func(ctx context.Context) (*google.PlaceDetails, error) {
		return s.places.PlaceDetails(ctx, placeID)
	})
	if err != nil {
		return nil, &StepError{Step: StepDetails, Kind: KindUpstreamHard, PlaceID: placeID, Err: err}
	}
	return d, nil
}
