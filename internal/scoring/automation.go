package scoring

// Attributes are the business properties the automation-fit scorer and the
// pain-point identifier look at. Nil pointers mean "not reported".
type Attributes struct {
	Types       []string
	Website     string
	Rating      *float64
	ReviewCount *int
}

// AutomationScore estimates how much a business would benefit from
// automation. The result is always within [0, 100].
func (p Policy) AutomationScore(a Attributes) int {
	w := p.Automation
	score := w.Base

	if p.isHighPotential(a.Types) {
		score += w.HighPotentialIndustry
	}
	if a.Website == "" {
		score += w.NoWebsite
	}
	if a.Rating != nil && *a.Rating < w.LowRatingBelow {
		score += w.LowRating
	}
	if a.ReviewCount != nil && *a.ReviewCount > w.HighReviewVolumeAbove {
		score += w.HighReviewVolume
	}

	return clamp(score)
}

func (p Policy) isHighPotential(types []string) bool {
	for _, t := range types {
		for _, industry := range p.HighPotentialIndustries {
			if t == industry {
				return true
			}
		}
	}
	return false
}
