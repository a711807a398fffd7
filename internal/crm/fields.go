// Package crm maps discovered businesses onto the lead table of the
// downstream CRM and writes them through a pluggable Sink.
package crm

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/discovery-api/internal/model"
	"github.com/sells-group/discovery-api/internal/scoring"
)

// CRM field names on the lead table.
const (
	FieldBusinessName    = "Business Name"
	FieldIndustry        = "Industry"
	FieldLocation        = "Location"
	FieldAddress         = "Address"
	FieldCity            = "City"
	FieldState           = "State"
	FieldZipCode         = "Zip Code"
	FieldPhone           = "Phone"
	FieldWebsite         = "Website"
	FieldEmail           = "Email"
	FieldEmailSource     = "Email Source"
	FieldRating          = "Rating"
	FieldReviewCount     = "Review Count"
	FieldGooglePlaceID   = "Google Place ID"
	FieldAutomationScore = "Automation Score"
	FieldLeadScore       = "Lead Score"
	FieldPainPoints      = "Pain Points"
	FieldLeadSource      = "Lead Source"
	FieldStatus          = "Status"
	FieldNotes           = "Notes"
	FieldAIAnalysis      = "AI Analysis"
)

const (
	leadSource = "Business Discovery"
	statusNew  = "New"
)

// Lead is one business ready to be written, together with the search that
// found it and the lead-score breakdown that explains it.
type Lead struct {
	Business model.DiscoveredBusiness
	Industry string
	Location string
	Signals  []scoring.Signal
}

// BuildFields maps a lead onto CRM field names. Empty optional values are
// left out so typed CRM columns never receive blank strings.
func BuildFields(l Lead) map[string]any {
	b := l.Business
	f := map[string]any{
		FieldBusinessName:    b.Name,
		FieldIndustry:        NormalizeIndustry(l.Industry),
		FieldLocation:        l.Location,
		FieldEmailSource:     string(b.EmailSource),
		FieldGooglePlaceID:   b.PlaceID,
		FieldAutomationScore: b.AutomationScore,
		FieldLeadScore:       b.LeadScore,
		FieldLeadSource:      leadSource,
		FieldStatus:          statusNew,
		FieldNotes:           Notes(l),
		FieldAIAnalysis:      Analysis(l),
	}

	setString(f, FieldAddress, b.Address)
	setString(f, FieldPhone, b.Phone)
	setString(f, FieldWebsite, b.Website)
	setString(f, FieldEmail, b.Email)
	if b.ParsedAddress != nil {
		setString(f, FieldCity, b.ParsedAddress.City)
		setString(f, FieldState, b.ParsedAddress.State)
		setString(f, FieldZipCode, b.ParsedAddress.ZipCode)
	}
	if b.Rating != nil {
		f[FieldRating] = *b.Rating
	}
	if b.ReviewCount != nil {
		f[FieldReviewCount] = *b.ReviewCount
	}
	if len(b.PainPoints) > 0 {
		f[FieldPainPoints] = strings.Join(b.PainPoints, ", ")
	}
	return f
}

func setString(f map[string]any, key, val string) {
	if val != "" {
		f[key] = val
	}
}

// Notes is the multi-line audit trail of how the lead score was reached.
func Notes(l Lead) string {
	b := l.Business
	var sb strings.Builder
	fmt.Fprintf(&sb, "Found by Business Discovery: %s in %s\n", DisplayIndustry(l.Industry), l.Location)
	fmt.Fprintf(&sb, "Lead score %d/100:\n", b.LeadScore)
	if len(l.Signals) > 0 {
		sb.WriteString(scoring.Explain(l.Signals))
		sb.WriteString("\n")
	}
	if b.Rating != nil {
		reviews := 0
		if b.ReviewCount != nil {
			reviews = *b.ReviewCount
		}
		fmt.Fprintf(&sb, "Google rating %.1f from %d reviews\n", *b.Rating, reviews)
	}
	if len(b.PainPoints) > 0 {
		fmt.Fprintf(&sb, "Pain points: %s\n", strings.Join(b.PainPoints, ", "))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// Analysis summarizes automation potential and the opportunities to pitch.
func Analysis(l Lead) string {
	b := l.Business
	lines := []string{
		fmt.Sprintf("Automation potential: %s (%d/100)", PotentialTier(b.AutomationScore), b.AutomationScore),
	}

	if opps := opportunities(b.PainPoints); len(opps) > 0 {
		lines = append(lines, "Opportunities: "+strings.Join(opps, "; "))
	}

	switch {
	case b.Email != "":
		lines = append(lines, fmt.Sprintf("Contact: %s (via %s)", b.Email, b.EmailSource))
	case b.Phone != "":
		lines = append(lines, "Contact: phone only, "+b.Phone)
	default:
		lines = append(lines, "Contact: none found")
	}
	return strings.Join(lines, "\n")
}

// PotentialTier buckets an automation score.
func PotentialTier(score int) string {
	switch {
	case score >= 80:
		return "High"
	case score >= 60:
		return "Medium"
	default:
		return "Low"
	}
}

var opportunityText = map[string]string{
	model.PainNoWebsite:             "build a web presence with online booking",
	model.PainReputationManagement:  "automated review requests and responses",
	model.PainHighVolumeInquiries:   "AI intake for high inquiry volume",
	model.PainAppointmentScheduling: "self-serve appointment scheduling",
	model.PainLeadFollowUp:          "automatic lead follow-up",
	model.PainQuoteGeneration:       "instant quote generation",
}

func opportunities(pains []string) []string {
	out := make([]string, 0, len(pains))
	for _, p := range pains {
		if text, ok := opportunityText[p]; ok {
			out = append(out, text)
		}
	}
	return out
}

// DisplayIndustry renders a free-text or Places-type industry for humans,
// e.g. "roofing_contractor" becomes "Roofing Contractor".
func DisplayIndustry(industry string) string {
	s := strings.TrimSpace(strings.ReplaceAll(industry, "_", " "))
	return cases.Title(language.English).String(s)
}
