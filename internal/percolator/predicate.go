// Package percolator maintains the reverse-search index: every stored
// subscription is compiled into a predicate, and each newly published
// document is evaluated against all of them.
//
// Predicate semantics:
//
//	hard clauses (dates, city, numeric thresholds)     → ALL must hold
//	tag clauses (the five multi-select categories)     → at least one of
//	  the categories the subscriber actually specified must intersect the
//	  document; a predicate with no tag clauses passes vacuously
//
// The hard-AND / specified-tag-OR combination is deliberate: collapsing it
// to a pure AND changes which subscribers get notified.
package percolator

import (
	"time"

	"github.com/Ke1ly/haloop-match-service/internal/model"
)

// Category identifies one of the five multi-select tag sets shared by
// filters and documents.
type Category string

const (
	CategoryPositions      Category = "positionCategories"
	CategoryAccommodations Category = "accommodations"
	CategoryMeals          Category = "meals"
	CategoryExperiences    Category = "experiences"
	CategoryEnvironments   Category = "environments"
)

// Categories lists every tag category in a fixed order.
var Categories = []Category{
	CategoryPositions,
	CategoryAccommodations,
	CategoryMeals,
	CategoryExperiences,
	CategoryEnvironments,
}

// Predicate is the compiled, indexable form of a subscription filter.
// Derived from the stored Filter; rebuilt whenever the filter changes.
type Predicate struct {
	SubscriptionID  string
	HelperProfileID string

	City             *string
	StartDate        *time.Time
	EndDate          *time.Time
	ApplicantCount   *int
	AverageWorkHours *int
	MinDuration      *int

	// TagClauses holds only the categories the subscriber specified with a
	// non-empty value set.
	TagClauses map[Category][]string
}

// Matches reports whether doc satisfies the predicate.
func (p *Predicate) Matches(doc model.WorkDocument) bool {
	// Date overlap: the posting window must intersect the requested window.
	if p.EndDate != nil && doc.StartDate.After(*p.EndDate) {
		return false
	}
	if p.StartDate != nil && doc.EndDate.Before(*p.StartDate) {
		return false
	}

	if p.City != nil && doc.City != *p.City {
		return false
	}
	if p.ApplicantCount != nil && doc.RecruitCount < *p.ApplicantCount {
		return false
	}
	if p.AverageWorkHours != nil && doc.AverageWorkHours > *p.AverageWorkHours {
		return false
	}
	if p.MinDuration != nil && doc.MinDuration > *p.MinDuration {
		return false
	}

	if len(p.TagClauses) == 0 {
		return true // no tag category specified — vacuously satisfied
	}
	for cat, wanted := range p.TagClauses {
		if intersects(wanted, docTags(doc, cat)) {
			return true
		}
	}
	return false
}

// docTags returns the document's value set for a tag category.
func docTags(doc model.WorkDocument, cat Category) []string {
	switch cat {
	case CategoryPositions:
		return doc.PositionCategories
	case CategoryAccommodations:
		return doc.Accommodations
	case CategoryMeals:
		return doc.Meals
	case CategoryExperiences:
		return doc.Experiences
	case CategoryEnvironments:
		return doc.Environments
	}
	return nil
}

func intersects(wanted, have []string) bool {
	if len(wanted) == 0 || len(have) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(wanted))
	for _, w := range wanted {
		set[w] = struct{}{}
	}
	for _, h := range have {
		if _, ok := set[h]; ok {
			return true
		}
	}
	return false
}
