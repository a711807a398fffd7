// Package model defines the shared types passed between discovery, scoring and CRM persistence.
package model

// EmailSource records where a business's contact email came from.
type EmailSource string

const (
	EmailSourceHunter EmailSource = "hunter"
	EmailSourceManual EmailSource = "manual"
	EmailSourceNone   EmailSource = "none"
)

// Pain-point tags attached to discovered businesses.
const (
	PainNoWebsite             = "no_website"
	PainReputationManagement  = "reputation_management"
	PainHighVolumeInquiries   = "high_volume_inquiries"
	PainAppointmentScheduling = "appointment_scheduling"
	PainLeadFollowUp          = "lead_follow_up"
	PainQuoteGeneration       = "quote_generation"
)

// ParsedAddress is the structured form of a place's address components.
type ParsedAddress struct {
	StreetNumber string `json:"streetNumber"`
	StreetName   string `json:"streetName"`
	Address      string `json:"address"`
	City         string `json:"city"`
	State        string `json:"state"`
	ZipCode      string `json:"zipCode"`
	Country      string `json:"country"`
}

// DiscoveredBusiness is a single enriched lead produced by a discovery run.
type DiscoveredBusiness struct {
	PlaceID         string         `json:"placeId"`
	Name            string         `json:"name"`
	Address         string         `json:"address"`
	Phone           string         `json:"phone,omitempty"`
	Website         string         `json:"website,omitempty"`
	Rating          *float64       `json:"rating,omitempty"`
	ReviewCount     *int           `json:"reviewCount,omitempty"`
	Types           []string       `json:"types"`
	Email           string         `json:"email,omitempty"`
	EmailSource     EmailSource    `json:"emailSource"`
	AutomationScore int            `json:"automationScore"`
	PainPoints      []string       `json:"painPoints"`
	LeadScore       int            `json:"leadScore"`
	ParsedAddress   *ParsedAddress `json:"parsedAddress,omitempty"`
	CRMRecordID     string         `json:"airtableRecordId,omitempty"`
}

// SetEmail assigns the email together with its source. An empty email always
// records EmailSourceNone.
func (b *DiscoveredBusiness) SetEmail(email string, source EmailSource) {
	if email == "" {
		b.Email = ""
		b.EmailSource = EmailSourceNone
		return
	}
	if source == "" || source == EmailSourceNone {
		source = EmailSourceManual
	}
	b.Email = email
	b.EmailSource = source
}

// HasWebsite reports whether the business lists a website.
func (b *DiscoveredBusiness) HasWebsite() bool {
	return b.Website != ""
}
