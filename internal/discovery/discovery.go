// Package discovery finds businesses for an industry and location, enriches
// them with contact details and lead scores, and records each one in the CRM.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/discovery-api/internal/crm"
	"github.com/sells-group/discovery-api/internal/model"
	"github.com/sells-group/discovery-api/internal/scoring"
)

// TimeoutNote is appended to Response.Errors when the batch deadline cuts
// enrichment short.
const TimeoutNote = "Request processed partially due to timeout"

const (
	DefaultTimeout     = 8 * time.Second
	DefaultRadiusMiles = 5.0
)

// Request is one discovery query.
type Request struct {
	Industry   string  `json:"industry" validate:"required"`
	Location   string  `json:"location" validate:"required"`
	Radius     float64 `json:"radius,omitempty" validate:"omitempty,gt=0"`
	MaxResults int     `json:"maxResults,omitempty" validate:"omitempty,gt=0"`
}

// Validate checks the fields the pipeline cannot run without.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Industry) == "" {
		return &ValidationError{Field: "industry", Reason: "is required"}
	}
	if strings.TrimSpace(r.Location) == "" {
		return &ValidationError{Field: "location", Reason: "is required"}
	}
	if r.Radius < 0 {
		return &ValidationError{Field: "radius", Reason: "must be positive"}
	}
	if r.MaxResults < 0 {
		return &ValidationError{Field: "maxResults", Reason: "must be positive"}
	}
	return nil
}

// Response is the outcome of a discovery run. Businesses holds every place
// that finished enrichment, in completion order.
type Response struct {
	Success         bool                       `json:"success"`
	BatchID         string                     `json:"batchId"`
	Businesses      []model.DiscoveredBusiness `json:"businesses"`
	TotalFound      int                        `json:"totalFound"`
	SavedToAirtable int                        `json:"savedToAirtable"`
	Errors          []string                   `json:"errors,omitempty"`
	TimedOut        bool                       `json:"-"`
}

// Options configures a Service.
type Options struct {
	// Timeout bounds the whole enrichment fan-out. Zero means DefaultTimeout.
	Timeout            time.Duration
	DefaultRadiusMiles float64
	DefaultMaxResults  int
	Policy             scoring.Policy
}

// Service runs discovery requests.
type Service struct {
	search   *Searcher
	email    *EmailFinder
	sink     crm.Sink
	policy   scoring.Policy
	timeout  time.Duration
	radius   float64
	maxCount int
}

// NewService wires a Service. email may be nil to skip email lookups and
// sink may be nil to skip persistence.
func NewService(search *Searcher, email *EmailFinder, sink crm.Sink, opts Options) *Service {
	if sink == nil {
		sink = crm.Discard{}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.DefaultRadiusMiles <= 0 {
		opts.DefaultRadiusMiles = DefaultRadiusMiles
	}
	return &Service{
		search:   search,
		email:    email,
		sink:     sink,
		policy:   opts.Policy,
		timeout:  opts.Timeout,
		radius:   opts.DefaultRadiusMiles,
		maxCount: opts.DefaultMaxResults,
	}
}

// Discover searches for places, enriches each concurrently and returns what
// settled before the batch deadline. It returns an error only for an
// invalid request, missing configuration or a failed search; every
// per-place failure is reported in Response.Errors instead.
func (s *Service) Discover(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	defer func() { requestDuration.Observe(time.Since(start).Seconds()) }()

	if err := req.Validate(); err != nil {
		requestsTotal.WithLabelValues(outcomeInvalid).Inc()
		return nil, err
	}
	if s.search == nil {
		requestsTotal.WithLabelValues(outcomeConfig).Inc()
		return nil, &ConfigError{Missing: []string{"google.key"}}
	}
	if req.Radius == 0 {
		req.Radius = s.radius
	}
	if req.MaxResults == 0 {
		req.MaxResults = s.maxCount
	}

	batchID := uuid.NewString()
	log := zap.L().With(
		zap.String("batch_id", batchID),
		zap.String("industry", req.Industry),
		zap.String("location", req.Location),
	)

	places, err := s.search.Search(ctx, req.Industry, req.Location, req.Radius, req.MaxResults)
	if err != nil {
		stepFailures.WithLabelValues(StepSearch).Inc()
		requestsTotal.WithLabelValues(outcomeSearch).Inc()
		log.Error("place search failed", zap.Error(err))
		return nil, err
	}
	log.Info("places found", zap.Int("count", len(places)))

	// The batch deadline bounds enrichment only and starts once the search
	// has returned.
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	b := &batch{}
	var g errgroup.Group
	for _, place := range places {
		g.Go(func() error {
			activeEnrichments.Inc()
			defer activeEnrichments.Dec()

			res := s.enrichPlace(ctx, req, place)
			// A place still in flight at the deadline has not settled.
			if res.Err != nil && ctx.Err() != nil {
				b.abandon()
				return nil
			}
			if res.Err != nil {
				var se *StepError
				if errors.As(res.Err, &se) {
					stepFailures.WithLabelValues(se.Step).Inc()
				}
				log.Warn("place dropped", zap.String("place_id", place.PlaceID), zap.Error(res.Err))
				b.add(nil, []string{fmt.Sprintf("Failed to process %s: %v", firstNonEmpty(place.Name, place.PlaceID), res.Err)})
				return nil
			}
			b.add(res.Business, res.Notes)
			return nil
		})
	}

	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(done)
	}()

	timedOut := false
	select {
	case <-done:
	case <-ctx.Done():
		b.seal()
		timedOut = errors.Is(ctx.Err(), context.DeadlineExceeded)
	}
	businesses, errs, abandoned := b.snapshot()
	if !timedOut && abandoned > 0 && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		// The deadline fired while the last places were winding down.
		timedOut = true
	}
	if timedOut {
		timeoutsTotal.Inc()
		errs = append(errs, TimeoutNote)
		log.Warn("discovery batch timed out",
			zap.Int("settled", len(businesses)),
			zap.Int("launched", len(places)),
			zap.Duration("timeout", s.timeout),
		)
	}

	if businesses == nil {
		businesses = []model.DiscoveredBusiness{}
	}
	resp := &Response{
		Success:    true,
		BatchID:    batchID,
		Businesses: businesses,
		TotalFound: len(businesses),
		Errors:     errs,
		TimedOut:   timedOut,
	}
	for _, biz := range businesses {
		if biz.CRMRecordID != "" {
			resp.SavedToAirtable++
		}
	}

	outcome := outcomeSuccess
	if timedOut || len(errs) > 0 {
		outcome = outcomePartial
	}
	requestsTotal.WithLabelValues(outcome).Inc()
	log.Info("discovery complete",
		zap.Int("businesses", resp.TotalFound),
		zap.Int("saved", resp.SavedToAirtable),
		zap.Int("errors", len(errs)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return resp, nil
}

// batch collects settled places. Once sealed it ignores late arrivals.
type batch struct {
	mu         sync.Mutex
	sealed     bool
	businesses []model.DiscoveredBusiness
	errors     []string
	abandoned  int
}

func (b *batch) add(biz *model.DiscoveredBusiness, errs []string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sealed {
		return
	}
	if biz != nil {
		b.businesses = append(b.businesses, *biz)
	}
	b.errors = append(b.errors, errs...)
}

// abandon records a place cut off by the deadline.
func (b *batch) abandon() {
	b.mu.Lock()
	b.abandoned++
	b.mu.Unlock()
}

func (b *batch) seal() {
	b.mu.Lock()
	b.sealed = true
	b.mu.Unlock()
}

func (b *batch) snapshot() ([]model.DiscoveredBusiness, []string, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	businesses := make([]model.DiscoveredBusiness, len(b.businesses))
	copy(businesses, b.businesses)
	var errs []string
	if len(b.errors) > 0 {
		errs = make([]string, len(b.errors))
		copy(errs, b.errors)
	}
	return businesses, errs, b.abandoned
}
