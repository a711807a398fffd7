package crm

import (
	"strings"
	"unicode"
)

// Industry options accepted by the CRM's single-select column.
const (
	IndustryHomeServices         = "Home Services"
	IndustryConstruction         = "Construction"
	IndustryHealthcare           = "Healthcare"
	IndustryLegal                = "Legal"
	IndustryFinancialServices    = "Financial Services"
	IndustryRealEstate           = "Real Estate"
	IndustryRestaurant           = "Restaurant"
	IndustryBeautyWellness       = "Beauty & Wellness"
	IndustryAutomotive           = "Automotive"
	IndustryRetail               = "Retail"
	IndustryProfessionalServices = "Professional Services"
)

// FallbackIndustry is used when no keyword matches. Every unrecognized
// industry lands in this one bucket; see DESIGN.md.
const FallbackIndustry = IndustryHomeServices

// industryKeywords is checked in order; the first matching keyword wins.
// A keyword matches whole words of the input; a stem also matches any word
// it begins. Underscores and punctuation separate words.
var industryKeywords = []struct {
	keyword  string
	stem     bool
	industry string
}{
	{"plumb", true, IndustryHomeServices},
	{"electric", true, IndustryHomeServices},
	{"hvac", false, IndustryHomeServices},
	{"roof", true, IndustryHomeServices},
	{"landscap", true, IndustryHomeServices},
	{"lawn", false, IndustryHomeServices},
	{"clean", true, IndustryHomeServices},
	{"pest", false, IndustryHomeServices},
	{"locksmith", true, IndustryHomeServices},
	{"painter", true, IndustryHomeServices},
	{"moving", false, IndustryHomeServices},
	{"handyman", false, IndustryHomeServices},
	{"contractor", true, IndustryConstruction},
	{"construction", false, IndustryConstruction},
	{"dentist", true, IndustryHealthcare},
	{"dental", false, IndustryHealthcare},
	{"doctor", true, IndustryHealthcare},
	{"medical", false, IndustryHealthcare},
	{"clinic", true, IndustryHealthcare},
	{"chiropract", true, IndustryHealthcare},
	{"physio", true, IndustryHealthcare},
	{"veterinar", true, IndustryHealthcare},
	{"lawyer", true, IndustryLegal},
	{"attorney", true, IndustryLegal},
	{"law", false, IndustryLegal},
	{"account", true, IndustryFinancialServices},
	{"cpa", false, IndustryFinancialServices},
	{"tax", false, IndustryFinancialServices},
	{"taxes", false, IndustryFinancialServices},
	{"insurance", false, IndustryFinancialServices},
	{"financ", true, IndustryFinancialServices},
	{"real estate", false, IndustryRealEstate},
	{"realtor", true, IndustryRealEstate},
	{"restaurant", true, IndustryRestaurant},
	{"cafe", true, IndustryRestaurant},
	{"bakery", false, IndustryRestaurant},
	{"salon", true, IndustryBeautyWellness},
	{"spa", false, IndustryBeautyWellness},
	{"beauty", false, IndustryBeautyWellness},
	{"hair", true, IndustryBeautyWellness},
	{"barber", true, IndustryBeautyWellness},
	{"auto", false, IndustryAutomotive},
	{"automotive", false, IndustryAutomotive},
	{"car repair", false, IndustryAutomotive},
	{"mechanic", true, IndustryAutomotive},
	{"retail", true, IndustryRetail},
	{"store", true, IndustryRetail},
	{"consult", true, IndustryProfessionalServices},
	{"agency", false, IndustryProfessionalServices},
	{"marketing", false, IndustryProfessionalServices},
}

// NormalizeIndustry maps free-text industry input onto a CRM industry
// option, defaulting to FallbackIndustry.
func NormalizeIndustry(industry string) string {
	words := strings.FieldsFunc(strings.ToLower(industry), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(words) == 0 {
		return FallbackIndustry
	}
	text := " " + strings.Join(words, " ") + " "
	for _, k := range industryKeywords {
		needle := " " + k.keyword
		if !k.stem {
			needle += " "
		}
		if strings.Contains(text, needle) {
			return k.industry
		}
	}
	return FallbackIndustry
}
