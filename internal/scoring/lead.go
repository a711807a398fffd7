package scoring

import (
	"fmt"
	"strings"
)

// LeadSignals are the inputs to the lead score. AutomationScore and
// PainPoints must already be computed.
type LeadSignals struct {
	HasEmail        bool
	HasWebsite      bool
	Rating          *float64
	AutomationScore int
	PainPoints      []string
}

// Signal is one contribution to a lead score.
type Signal struct {
	Name   string
	Points int
}

// LeadScore rates how worthwhile a business is as a sales lead. The result is
// always within [0, 100].
func (p Policy) LeadScore(s LeadSignals) int {
	score := 0
	for _, sig := range p.LeadBreakdown(s) {
		score += sig.Points
	}
	return clamp(score)
}

// LeadBreakdown lists every signal that contributed to the lead score, base
// first. The sum of Points before clamping equals the raw score.
func (p Policy) LeadBreakdown(s LeadSignals) []Signal {
	w := p.Lead
	out := []Signal{{Name: "base", Points: w.Base}}

	if s.HasEmail {
		out = append(out, Signal{Name: "email available", Points: w.HasEmail})
	}
	if s.AutomationScore > w.HighAutomationFitAbove {
		out = append(out, Signal{
			Name:   fmt.Sprintf("automation score above %d", w.HighAutomationFitAbove),
			Points: w.HighAutomationFit,
		})
	}
	if s.HasWebsite {
		out = append(out, Signal{Name: "has website", Points: w.HasWebsite})
	}
	if s.Rating != nil && *s.Rating >= w.GoodRatingAtLeast {
		out = append(out, Signal{
			Name:   fmt.Sprintf("rating %.1f or better", w.GoodRatingAtLeast),
			Points: w.GoodRating,
		})
	}
	if len(s.PainPoints) > w.ManyPainPointsAbove {
		out = append(out, Signal{
			Name:   fmt.Sprintf("more than %d pain points", w.ManyPainPointsAbove),
			Points: w.ManyPainPoints,
		})
	}

	return out
}

// Explain renders a breakdown as human-readable lines, e.g. "+20 email available".
func Explain(signals []Signal) string {
	lines := make([]string, 0, len(signals))
	for _, s := range signals {
		lines = append(lines, fmt.Sprintf("%+d %s", s.Points, s.Name))
	}
	return strings.Join(lines, "\n")
}
