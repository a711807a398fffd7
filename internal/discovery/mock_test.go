package discovery

import (
	"context"
	"sync"
	"time"

	"github.com/sells-group/discovery-api/internal/crm"
	"github.com/sells-group/discovery-api/pkg/google"
	"github.com/sells-group/discovery-api/pkg/hunter"
)

// fakePlaces implements google.Client.
type fakePlaces struct {
	search    *google.TextSearchResponse
	searchErr error
	// searchDelay holds TextSearch before it answers.
	searchDelay time.Duration
	lastQuery   google.TextSearchRequest

	mu         sync.Mutex
	details    map[string]*google.PlaceDetails
	detailsErr map[string]error
	// stall blocks PlaceDetails until ctx is done.
	stall map[string]bool
	// hang blocks PlaceDetails until the channel closes, ignoring ctx.
	hang        map[string]chan struct{}
	detailCalls map[string]int
}

func (f *fakePlaces) TextSearch(ctx context.Context, req google.TextSearchRequest) (*google.TextSearchResponse, error) {
	f.lastQuery = req
	if f.searchDelay > 0 {
		select {
		case <-time.After(f.searchDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.search, nil
}

func (f *fakePlaces) PlaceDetails(ctx context.Context, placeID string) (*google.PlaceDetails, error) {
	f.mu.Lock()
	if f.detailCalls == nil {
		f.detailCalls = make(map[string]int)
	}
	f.detailCalls[placeID]++
	stall := f.stall[placeID]
	hang := f.hang[placeID]
	err := f.detailsErr[placeID]
	d := f.details[placeID]
	f.mu.Unlock()

	if stall {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if hang != nil {
		<-hang
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

// fakeHunter implements hunter.Client.
type fakeHunter struct {
	mu          sync.Mutex
	domains     map[string][]hunter.Email
	companies   map[string]string
	domainErr   error
	finderErr   error
	domainCalls []string
	finderCalls []string
}

func (f *fakeHunter) DomainSearch(_ context.Context, domain string) (*hunter.DomainSearchResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.domainCalls = append(f.domainCalls, domain)
	if f.domainErr != nil {
		return nil, f.domainErr
	}
	return &hunter.DomainSearchResponse{Data: hunter.DomainSearchData{Domain: domain, Emails: f.domains[domain]}}, nil
}

func (f *fakeHunter) FindByCompany(_ context.Context, company string) (*hunter.EmailFinderResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finderCalls = append(f.finderCalls, company)
	if f.finderErr != nil {
		return nil, f.finderErr
	}
	return &hunter.EmailFinderResponse{Data: hunter.EmailFinderData{Email: f.companies[company]}}, nil
}

// fakeSink implements crm.Sink.
type fakeSink struct {
	mu    sync.Mutex
	leads []crm.Lead
	fail  map[string]error
	panic bool
}

func (f *fakeSink) Name() string { return "airtable" }

func (f *fakeSink) Save(_ context.Context, l crm.Lead) (string, error) {
	if f.panic {
		panic("sink exploded")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail[l.Business.PlaceID]; err != nil {
		return "", err
	}
	f.leads = append(f.leads, l)
	return "rec-" + l.Business.PlaceID, nil
}

func ptrF(v float64) *float64 { return &v }
func ptrI(v int) *int         { return &v }
