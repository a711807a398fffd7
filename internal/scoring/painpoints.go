package scoring

import (
	"strings"

	"github.com/sells-group/discovery-api/internal/model"
)

// PainPoints derives the pain-point tags for a business. Tags are returned in
// a fixed order; the three trade tags are always added together.
func (p Policy) PainPoints(a Attributes) []string {
	r := p.PainPointRules
	tags := make([]string, 0, 6)

	if a.Website == "" {
		tags = append(tags, model.PainNoWebsite)
	}
	if a.Rating != nil && *a.Rating < r.LowRatingBelow {
		tags = append(tags, model.PainReputationManagement)
	}
	if a.ReviewCount != nil && *a.ReviewCount > r.HighVolumeReviewsAbove {
		tags = append(tags, model.PainHighVolumeInquiries)
	}
	if p.isTrade(a.Types) {
		tags = append(tags,
			model.PainAppointmentScheduling,
			model.PainLeadFollowUp,
			model.PainQuoteGeneration,
		)
	}

	return tags
}

func (p Policy) isTrade(types []string) bool {
	for _, t := range types {
		for _, kw := range p.PainPointRules.TradeKeywords {
			if kw != "" && strings.Contains(t, kw) {
				return true
			}
		}
	}
	return false
}
