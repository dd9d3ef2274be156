// Package document converts relational posting records into flat matching
// documents. It is the single source of truth for field projection: the
// percolator index, the recommendation scorer and the corpus loader all
// consume its output, so filter fields and document fields always agree.
package document

import (
	"time"

	"github.com/Ke1ly/haloop-match-service/internal/model"
)

// Transform flattens a RawWorkPost into a WorkDocument. Pure function:
// missing tag relations become empty slices, never nil dereferences.
func Transform(post model.RawWorkPost) model.WorkDocument {
	return model.WorkDocument{
		ID:                 post.ID,
		PositionName:       post.PositionName,
		UnitName:           post.Unit.UnitName,
		City:               post.Unit.City,
		StartDate:          derefTime(post.StartDate),
		EndDate:            derefTime(post.EndDate),
		AverageWorkHours:   post.AverageWorkHours,
		MinDuration:        post.MinDuration,
		RecruitCount:       post.RecruitCount,
		PositionCategories: tagNames(post.PositionCategories),
		Accommodations:     tagNames(post.Accommodations),
		Meals:              tagNames(post.Meals),
		Experiences:        tagNames(post.Experiences),
		Environments:       tagNames(post.Environments),
	}
}

func tagNames(tags []model.NamedTag) []string {
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		if t.Name == "" {
			continue
		}
		names = append(names, t.Name)
	}
	return names
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
