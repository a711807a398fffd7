// Package scoring implements the additive lead-scoring heuristics applied to discovered businesses.
package scoring

import (
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// MaxScore is the ceiling for every score produced by this package.
const MaxScore = 100

// Policy holds every weight, threshold and keyword table used by the scorers.
// Scorers never read package-level tables; callers inject a Policy.
type Policy struct {
	Automation              AutomationWeights `yaml:"automation"`
	Lead                    LeadWeights       `yaml:"lead"`
	PainPointRules          PainPointRules    `yaml:"pain_points"`
	HighPotentialIndustries []string          `yaml:"high_potential_industries"`
}

// AutomationWeights configures the automation-fit score.
type AutomationWeights struct {
	Base                  int     `yaml:"base"`
	HighPotentialIndustry int     `yaml:"high_potential_industry"`
	NoWebsite             int     `yaml:"no_website"`
	LowRating             int     `yaml:"low_rating"`
	LowRatingBelow        float64 `yaml:"low_rating_below"`
	HighReviewVolume      int     `yaml:"high_review_volume"`
	HighReviewVolumeAbove int     `yaml:"high_review_volume_above"`
}

// LeadWeights configures the sales-worthiness score.
type LeadWeights struct {
	Base                   int     `yaml:"base"`
	HasEmail               int     `yaml:"has_email"`
	HighAutomationFit      int     `yaml:"high_automation_fit"`
	HighAutomationFitAbove int     `yaml:"high_automation_fit_above"`
	HasWebsite             int     `yaml:"has_website"`
	GoodRating             int     `yaml:"good_rating"`
	GoodRatingAtLeast      float64 `yaml:"good_rating_at_least"`
	ManyPainPoints         int     `yaml:"many_pain_points"`
	ManyPainPointsAbove    int     `yaml:"many_pain_points_above"`
}

// PainPointRules configures which attributes trigger each pain-point tag.
type PainPointRules struct {
	LowRatingBelow         float64  `yaml:"low_rating_below"`
	HighVolumeReviewsAbove int      `yaml:"high_volume_reviews_above"`
	TradeKeywords          []string `yaml:"trade_keywords"`
}

// DefaultPolicy returns the production scoring policy.
func DefaultPolicy() Policy {
	return Policy{
		Automation: AutomationWeights{
			Base:                  50,
			HighPotentialIndustry: 20,
			NoWebsite:             15,
			LowRating:             10,
			LowRatingBelow:        4.0,
			HighReviewVolume:      10,
			HighReviewVolumeAbove: 50,
		},
		Lead: LeadWeights{
			Base:                   30,
			HasEmail:               20,
			HighAutomationFit:      20,
			HighAutomationFitAbove: 70,
			HasWebsite:             10,
			GoodRating:             10,
			GoodRatingAtLeast:      4.0,
			ManyPainPoints:         10,
			ManyPainPointsAbove:    2,
		},
		PainPointRules: PainPointRules{
			LowRatingBelow:         4.0,
			HighVolumeReviewsAbove: 100,
			TradeKeywords:          []string{"contractor", "plumber"},
		},
		// Contractors, trades, personal and professional services.
		HighPotentialIndustries: []string{
			"plumber",
			"electrician",
			"roofing_contractor",
			"general_contractor",
			"painter",
			"locksmith",
			"moving_company",
			"car_repair",
			"beauty_salon",
			"hair_care",
			"spa",
			"dentist",
			"lawyer",
			"accounting",
			"real_estate_agency",
			"insurance_agency",
			"veterinary_care",
			"physiotherapist",
		},
	}
}

// LoadPolicy reads a scoring policy from a YAML file. Keys absent from the
// file keep their DefaultPolicy values.
func LoadPolicy(path string) (Policy, error) {
	p := DefaultPolicy()

	data, err := os.ReadFile(path)
	if err != nil {
		return p, eris.Wrapf(err, "scoring: read policy %s", path)
	}

	// The YAML has a top-level "scoring" key.
	wrapper := struct {
		Scoring *Policy `yaml:"scoring"`
	}{Scoring: &p}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return DefaultPolicy(), eris.Wrap(err, "scoring: parse policy")
	}

	if err := p.Validate(); err != nil {
		return DefaultPolicy(), err
	}
	return p, nil
}

// Validate checks that a Policy is internally consistent.
func (p Policy) Validate() error {
	var errs []string

	weights := map[string]int{
		"automation.base":                    p.Automation.Base,
		"automation.high_potential_industry": p.Automation.HighPotentialIndustry,
		"automation.no_website":              p.Automation.NoWebsite,
		"automation.low_rating":              p.Automation.LowRating,
		"automation.high_review_volume":      p.Automation.HighReviewVolume,
		"lead.base":                          p.Lead.Base,
		"lead.has_email":                     p.Lead.HasEmail,
		"lead.high_automation_fit":           p.Lead.HighAutomationFit,
		"lead.has_website":                   p.Lead.HasWebsite,
		"lead.good_rating":                   p.Lead.GoodRating,
		"lead.many_pain_points":              p.Lead.ManyPainPoints,
	}
	for name, w := range weights {
		if w < 0 {
			errs = append(errs, fmt.Sprintf("%s must be >= 0", name))
		}
	}

	for name, r := range map[string]float64{
		"automation.low_rating_below":  p.Automation.LowRatingBelow,
		"lead.good_rating_at_least":    p.Lead.GoodRatingAtLeast,
		"pain_points.low_rating_below": p.PainPointRules.LowRatingBelow,
	} {
		if r < 0 || r > 5 {
			errs = append(errs, fmt.Sprintf("%s must be between 0 and 5", name))
		}
	}

	if len(errs) > 0 {
		return eris.Errorf("scoring: policy validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// clamp bounds a score to [0, MaxScore].
func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}
