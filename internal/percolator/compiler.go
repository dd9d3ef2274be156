package percolator

import "github.com/Ke1ly/haloop-match-service/internal/model"

// ValidationError wraps a user-facing validation message. It is reported
// synchronously to the subscription owner and never enters the async
// pipeline.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }

// Compile converts a stored filter into a Predicate. A filter with zero
// effective constraints is rejected: indexing it would silently match every
// posting.
func Compile(subscriptionID, helperProfileID string, f model.Filter) (*Predicate, error) {
	p := &Predicate{
		SubscriptionID:   subscriptionID,
		HelperProfileID:  helperProfileID,
		City:             f.City,
		StartDate:        f.StartDate,
		EndDate:          f.EndDate,
		ApplicantCount:   f.ApplicantCount,
		AverageWorkHours: f.AverageWorkHours,
		MinDuration:      f.MinDuration,
		TagClauses:       map[Category][]string{},
	}

	for cat, values := range map[Category][]string{
		CategoryPositions:      f.PositionCategories,
		CategoryAccommodations: f.Accommodations,
		CategoryMeals:          f.Meals,
		CategoryExperiences:    f.Experiences,
		CategoryEnvironments:   f.Environments,
	} {
		if len(values) > 0 {
			p.TagClauses[cat] = values
		}
	}

	if p.City == nil && p.StartDate == nil && p.EndDate == nil &&
		p.ApplicantCount == nil && p.AverageWorkHours == nil &&
		p.MinDuration == nil && len(p.TagClauses) == 0 {
		return nil, &ValidationError{Msg: "filter must set at least one condition"}
	}

	return p, nil
}
