package document_test

import (
	"testing"
	"time"

	"github.com/Ke1ly/haloop-match-service/internal/document"
	"github.com/Ke1ly/haloop-match-service/internal/model"
)

func TestTransform_ProjectsAllFields(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)

	post := model.RawWorkPost{
		ID:               "post-1",
		PositionName:     "果園幫手",
		AverageWorkHours: 5,
		MinDuration:      14,
		RecruitCount:     3,
		StartDate:        &start,
		EndDate:          &end,
		PositionCategories: []model.NamedTag{
			{Name: "農作"}, {Name: "採果"},
		},
		Accommodations: []model.NamedTag{{Name: "單人房"}},
		Meals:          []model.NamedTag{{Name: "供三餐"}},
		Experiences:    []model.NamedTag{{Name: "可無經驗"}},
		Environments:   []model.NamedTag{{Name: "鄉村"}},
		Unit: model.Unit{
			ID:       "unit-1",
			UnitName: "山上果園",
			City:     "臺中市",
		},
	}

	doc := document.Transform(post)

	if doc.ID != "post-1" {
		t.Errorf("ID = %q, want %q", doc.ID, "post-1")
	}
	if doc.City != "臺中市" {
		t.Errorf("City = %q, want %q", doc.City, "臺中市")
	}
	if doc.UnitName != "山上果園" {
		t.Errorf("UnitName = %q, want %q", doc.UnitName, "山上果園")
	}
	if !doc.StartDate.Equal(start) || !doc.EndDate.Equal(end) {
		t.Errorf("dates = %v/%v, want %v/%v", doc.StartDate, doc.EndDate, start, end)
	}
	if doc.AverageWorkHours != 5 || doc.MinDuration != 14 || doc.RecruitCount != 3 {
		t.Errorf("numerics = %d/%d/%d, want 5/14/3",
			doc.AverageWorkHours, doc.MinDuration, doc.RecruitCount)
	}
	if len(doc.PositionCategories) != 2 || doc.PositionCategories[0] != "農作" {
		t.Errorf("PositionCategories = %v, want [農作 採果]", doc.PositionCategories)
	}
	if len(doc.Meals) != 1 || doc.Meals[0] != "供三餐" {
		t.Errorf("Meals = %v, want [供三餐]", doc.Meals)
	}
}

func TestTransform_MissingRelationsBecomeEmptySlices(t *testing.T) {
	doc := document.Transform(model.RawWorkPost{ID: "bare"})

	for name, tags := range map[string][]string{
		"PositionCategories": doc.PositionCategories,
		"Accommodations":     doc.Accommodations,
		"Meals":              doc.Meals,
		"Experiences":        doc.Experiences,
		"Environments":       doc.Environments,
	} {
		if tags == nil {
			t.Errorf("%s is nil, want empty slice", name)
		}
		if len(tags) != 0 {
			t.Errorf("%s = %v, want empty", name, tags)
		}
	}

	if !doc.StartDate.IsZero() || !doc.EndDate.IsZero() {
		t.Errorf("dates should be zero when absent, got %v/%v", doc.StartDate, doc.EndDate)
	}
}

func TestTransform_DropsEmptyTagNames(t *testing.T) {
	doc := document.Transform(model.RawWorkPost{
		ID:    "p",
		Meals: []model.NamedTag{{Name: ""}, {Name: "供午餐"}},
	})
	if len(doc.Meals) != 1 || doc.Meals[0] != "供午餐" {
		t.Errorf("Meals = %v, want [供午餐]", doc.Meals)
	}
}
