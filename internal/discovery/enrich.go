package discovery

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/discovery-api/internal/crm"
	"github.com/sells-group/discovery-api/internal/model"
	"github.com/sells-group/discovery-api/internal/scoring"
	"github.com/sells-group/discovery-api/pkg/google"
)

// placeResult is what one place's pipeline hands back to the batch.
// Business is nil when the place was dropped. Notes are soft failures that
// did not cost the place its slot.
type placeResult struct {
	Business *model.DiscoveredBusiness
	Err      error
	Notes    []string
}

// enrichPlace runs details, email, address, scoring and CRM persistence for
// one place. Steps run strictly in order; each returns a value or a
// StepError and the pipeline decides whether to continue.
func (s *Service) enrichPlace(ctx context.Context, req Request, place google.SearchPlace) (res placeResult) {
	log := zap.L().With(zap.String("place_id", place.PlaceID))

	defer func() {
		if r := recover(); r != nil {
			log.Error("enrichment panicked", zap.Any("panic", r))
			res = placeResult{Err: &StepError{
				Step:    StepEnrich,
				Kind:    KindInternal,
				PlaceID: place.PlaceID,
				Err:     eris.Errorf("panic: %v", r),
			}}
		}
	}()

	details, err := s.search.Details(ctx, place.PlaceID)
	if err != nil {
		return placeResult{Err: err}
	}

	biz := model.DiscoveredBusiness{
		PlaceID:     place.PlaceID,
		Name:        firstNonEmpty(details.Name, place.Name),
		Address:     firstNonEmpty(details.FormattedAddress, place.FormattedAddress),
		Phone:       details.PhoneNumber,
		Website:     details.Website,
		Rating:      details.Rating,
		ReviewCount: details.UserRatingsTotal,
		Types:       details.Types,
	}
	if biz.Rating == nil {
		biz.Rating = place.Rating
	}
	if biz.ReviewCount == nil {
		biz.ReviewCount = place.UserRatingsTotal
	}
	if len(biz.Types) == 0 {
		biz.Types = place.Types
	}
	if biz.Types == nil {
		biz.Types = []string{}
	}

	email := EmailResult{Source: model.EmailSourceNone}
	if biz.HasWebsite() {
		email = s.email.Find(ctx, biz.Website, biz.Name)
	}
	biz.SetEmail(email.Email, email.Source)

	addr, err := parseAddress(details.AddressComponents)
	if err != nil {
		stepFailures.WithLabelValues(StepAddress).Inc()
		log.Warn("address parse failed", zap.Error(err))
	}
	biz.ParsedAddress = &addr

	attrs := scoring.Attributes{
		Types:       biz.Types,
		Website:     biz.Website,
		Rating:      biz.Rating,
		ReviewCount: biz.ReviewCount,
	}
	biz.AutomationScore = s.policy.AutomationScore(attrs)
	biz.PainPoints = s.policy.PainPoints(attrs)

	signals := scoring.LeadSignals{
		HasEmail:        biz.Email != "",
		HasWebsite:      biz.HasWebsite(),
		Rating:          biz.Rating,
		AutomationScore: biz.AutomationScore,
		PainPoints:      biz.PainPoints,
	}
	biz.LeadScore = s.policy.LeadScore(signals)

	// Every lead is saved regardless of score.
	var notes []string
	id, err := s.sink.Save(ctx, crm.Lead{
		Business: biz,
		Industry: req.Industry,
		Location: req.Location,
		Signals:  s.policy.LeadBreakdown(signals),
	})
	if err != nil {
		crmWrites.WithLabelValues("error").Inc()
		stepErr := &StepError{Step: StepCRM, Kind: KindUpstreamSoft, PlaceID: biz.PlaceID, Err: err}
		log.Warn("crm write failed", zap.String("sink", s.sink.Name()), zap.Error(stepErr))
		notes = append(notes, fmt.Sprintf("Failed to save %s to %s: %v", biz.Name, s.sink.Name(), err))
	} else if id != "" {
		crmWrites.WithLabelValues("success").Inc()
		biz.CRMRecordID = id
	}

	return placeResult{Business: &biz, Notes: notes}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
