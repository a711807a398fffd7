package crm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/discovery-api/internal/model"
	"github.com/sells-group/discovery-api/internal/resilience"
	"github.com/sells-group/discovery-api/internal/scoring"
	"github.com/sells-group/discovery-api/pkg/airtable"
)

func ptrF(v float64) *float64 { return &v }
func ptrI(v int) *int         { return &v }

func sampleLead() Lead {
	return Lead{
		Business: model.DiscoveredBusiness{
			PlaceID:         "p1",
			Name:            "Acme Plumbing",
			Address:         "123 Main St, Amarillo, TX 79101, USA",
			Phone:           "(806) 555-0100",
			Rating:          ptrF(3.5),
			ReviewCount:     ptrI(120),
			Types:           []string{"plumber"},
			EmailSource:     model.EmailSourceNone,
			AutomationScore: 100,
			PainPoints:      []string{"no_website", "reputation_management", "high_volume_inquiries"},
			LeadScore:       60,
			ParsedAddress: &model.ParsedAddress{
				Address: "123 Main Street",
				City:    "Amarillo",
				State:   "TX",
				ZipCode: "79101",
			},
		},
		Industry: "plumber",
		Location: "Amarillo, TX",
		Signals: []scoring.Signal{
			{Name: "base", Points: 30},
			{Name: "automation score above 70", Points: 20},
			{Name: "more than 2 pain points", Points: 10},
		},
	}
}

func TestBuildFields(t *testing.T) {
	f := BuildFields(sampleLead())

	assert.Equal(t, "Acme Plumbing", f[FieldBusinessName])
	assert.Equal(t, IndustryHomeServices, f[FieldIndustry])
	assert.Equal(t, "Amarillo, TX", f[FieldLocation])
	assert.Equal(t, "Amarillo", f[FieldCity])
	assert.Equal(t, "TX", f[FieldState])
	assert.Equal(t, "79101", f[FieldZipCode])
	assert.Equal(t, "none", f[FieldEmailSource])
	assert.Equal(t, 3.5, f[FieldRating])
	assert.Equal(t, 120, f[FieldReviewCount])
	assert.Equal(t, 100, f[FieldAutomationScore])
	assert.Equal(t, 60, f[FieldLeadScore])
	assert.Equal(t, "no_website, reputation_management, high_volume_inquiries", f[FieldPainPoints])
	assert.Equal(t, "Business Discovery", f[FieldLeadSource])
	assert.Equal(t, "New", f[FieldStatus])
	assert.Equal(t, "p1", f[FieldGooglePlaceID])

	assert.NotContains(t, f, FieldWebsite)
	assert.NotContains(t, f, FieldEmail)
}

func TestBuildFields_NoParsedAddressOrRating(t *testing.T) {
	l := sampleLead()
	l.Business.ParsedAddress = nil
	l.Business.Rating = nil
	l.Business.ReviewCount = nil
	l.Business.PainPoints = []string{}

	f := BuildFields(l)
	assert.NotContains(t, f, FieldCity)
	assert.NotContains(t, f, FieldRating)
	assert.NotContains(t, f, FieldReviewCount)
	assert.NotContains(t, f, FieldPainPoints)
}

func TestNotes(t *testing.T) {
	notes := Notes(sampleLead())

	assert.Contains(t, notes, "Found by Business Discovery: Plumber in Amarillo, TX")
	assert.Contains(t, notes, "Lead score 60/100:")
	assert.Contains(t, notes, "+30 base\n+20 automation score above 70\n+10 more than 2 pain points")
	assert.Contains(t, notes, "Google rating 3.5 from 120 reviews")
	assert.Contains(t, notes, "Pain points: no_website")
}

func TestAnalysis(t *testing.T) {
	a := Analysis(sampleLead())
	assert.Contains(t, a, "Automation potential: High (100/100)")
	assert.Contains(t, a, "automated review requests")
	assert.Contains(t, a, "Contact: phone only, (806) 555-0100")

	l := sampleLead()
	l.Business.SetEmail("info@acme.com", model.EmailSourceHunter)
	l.Business.AutomationScore = 55
	l.Business.PainPoints = nil
	a = Analysis(l)
	assert.Contains(t, a, "Automation potential: Low (55/100)")
	assert.Contains(t, a, "Contact: info@acme.com (via hunter)")
	assert.NotContains(t, a, "Opportunities")
}

func TestPotentialTier(t *testing.T) {
	assert.Equal(t, "High", PotentialTier(80))
	assert.Equal(t, "Medium", PotentialTier(79))
	assert.Equal(t, "Medium", PotentialTier(60))
	assert.Equal(t, "Low", PotentialTier(59))
}

func TestDisplayIndustry(t *testing.T) {
	assert.Equal(t, "Roofing Contractor", DisplayIndustry("roofing_contractor"))
	assert.Equal(t, "Hvac Repair", DisplayIndustry("HVAC repair"))
}

func TestNormalizeIndustry(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plumber", IndustryHomeServices},
		{"Plumbing", IndustryHomeServices},
		{"lawn care", IndustryHomeServices},
		{"general_contractor", IndustryConstruction},
		{"dentist", IndustryHealthcare},
		{"Family Law Attorney", IndustryLegal},
		{"independent insurance agency", IndustryFinancialServices},
		{"real_estate_agency", IndustryRealEstate},
		{"Italian restaurant", IndustryRestaurant},
		{"hair salon", IndustryBeautyWellness},
		{"auto body", IndustryAutomotive},
		{"marketing agency", IndustryProfessionalServices},
		{"day spa", IndustryBeautyWellness},
		{"auto_repair", IndustryAutomotive},
		{"tax preparation", IndustryFinancialServices},
		{"law firm", IndustryLegal},
		{"spanish restaurant", IndustryRestaurant},
		{"automation consulting", IndustryProfessionalServices},
		{"", FallbackIndustry},
		{"  ", FallbackIndustry},
		{"underwater basket weaving", FallbackIndustry},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeIndustry(tt.in))
		})
	}
}

func TestNormalizeIndustry_KeywordsMatchWordStarts(t *testing.T) {
	assert.NotEqual(t, IndustryBeautyWellness, NormalizeIndustry("spanish restaurant"))
	assert.NotEqual(t, IndustryAutomotive, NormalizeIndustry("automation consulting"))
	assert.NotEqual(t, IndustryFinancialServices, NormalizeIndustry("taxi"))
	assert.NotEqual(t, IndustryLegal, NormalizeIndustry("lawnmower repair"))
	assert.Equal(t, FallbackIndustry, NormalizeIndustry("taxi"))
}

func TestAirtableSink_Save(t *testing.T) {
	client := &fakeAirtable{id: "recXYZ"}
	sink := NewAirtableSink(client, "Leads", nil, resilience.RetryConfig{MaxAttempts: 1})

	id, err := sink.Save(context.Background(), sampleLead())
	require.NoError(t, err)
	assert.Equal(t, "recXYZ", id)
	assert.Equal(t, "Leads", client.table)
	assert.Equal(t, "Acme Plumbing", client.fields[FieldBusinessName])
	assert.Equal(t, "airtable", sink.Name())
}

func TestAirtableSink_RetriesOnlyRateLimit(t *testing.T) {
	retry := resilience.RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond}

	client := &fakeAirtable{id: "rec1", errs: []error{&airtable.APIError{StatusCode: 429}}}
	id, err := NewAirtableSink(client, "Leads", nil, retry).Save(context.Background(), sampleLead())
	require.NoError(t, err)
	assert.Equal(t, "rec1", id)
	assert.Equal(t, 2, client.calls)

	client = &fakeAirtable{id: "rec1", errs: []error{&airtable.APIError{StatusCode: 503}}}
	_, err = NewAirtableSink(client, "Leads", nil, retry).Save(context.Background(), sampleLead())
	require.Error(t, err)
	assert.Equal(t, 1, client.calls)
	assert.Contains(t, err.Error(), "crm: save p1 to airtable")
}

func TestAirtableSink_BreakerOpens(t *testing.T) {
	breaker := resilience.NewBreaker("airtable", resilience.BreakerConfig{FailureThreshold: 2, ResetTimeout: time.Hour})
	client := &fakeAirtable{errs: []error{errors.New("boom"), errors.New("boom"), errors.New("boom")}}
	sink := NewAirtableSink(client, "Leads", breaker, resilience.RetryConfig{MaxAttempts: 1})

	for range 2 {
		_, err := sink.Save(context.Background(), sampleLead())
		require.Error(t, err)
	}
	_, err := sink.Save(context.Background(), sampleLead())
	require.Error(t, err)
	assert.True(t, errors.Is(err, resilience.ErrCircuitOpen))
	assert.Equal(t, 2, client.calls)
}

func TestNotionSink_Save(t *testing.T) {
	client := &fakeNotion{page: &notionapi.Page{ID: "page-1"}}
	sink := NewNotionSink(client, "db-1", nil)

	id, err := sink.Save(context.Background(), sampleLead())
	require.NoError(t, err)
	assert.Equal(t, "page-1", id)
	assert.Equal(t, "notion", sink.Name())

	require.NotNil(t, client.req)
	assert.Equal(t, notionapi.DatabaseID("db-1"), client.req.Parent.DatabaseID)
	title, ok := client.req.Properties[FieldBusinessName].(notionapi.TitleProperty)
	require.True(t, ok)
	assert.Equal(t, "Acme Plumbing", title.Title[0].Text.Content)
}

func TestNotionSink_Error(t *testing.T) {
	sink := NewNotionSink(&fakeNotion{err: errors.New("validation_error")}, "db-1", nil)
	_, err := sink.Save(context.Background(), sampleLead())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "crm: save p1 to notion")
}

func TestDiscard(t *testing.T) {
	var s Sink = Discard{}
	id, err := s.Save(context.Background(), sampleLead())
	require.NoError(t, err)
	assert.Empty(t, id)
	assert.Equal(t, "discard", s.Name())
}
