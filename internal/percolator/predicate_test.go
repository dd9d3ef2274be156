package percolator_test

import (
	"errors"
	"testing"
	"time"

	"github.com/Ke1ly/haloop-match-service/internal/model"
	"github.com/Ke1ly/haloop-match-service/internal/percolator"
)

func strPtr(s string) *string       { return &s }
func intPtr(i int) *int             { return &i }
func timePtr(t time.Time) *time.Time { return &t }

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func taipeiDoc() model.WorkDocument {
	return model.WorkDocument{
		ID:                 "post-1",
		City:               "臺北市",
		StartDate:          date(2026, 4, 1),
		EndDate:            date(2026, 8, 31),
		AverageWorkHours:   5,
		MinDuration:        14,
		RecruitCount:       5,
		PositionCategories: []string{},
		Accommodations:     []string{},
		Meals:              []string{},
		Experiences:        []string{},
		Environments:       []string{},
	}
}

func compile(t *testing.T, f model.Filter) *percolator.Predicate {
	t.Helper()
	p, err := percolator.Compile("sub-1", "helper-1", f)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return p
}

// Hard filters pass and no tag category was specified at all: the tag-OR
// clause is vacuously true.
func TestMatches_HardFiltersOnly_NoTagClauses(t *testing.T) {
	p := compile(t, model.Filter{
		City:           strPtr("臺北市"),
		ApplicantCount: intPtr(2),
	})

	doc := taipeiDoc() // recruitCount 5 >= 2, city equal, no tags anywhere
	if !p.Matches(doc) {
		t.Error("expected match: hard filters pass, no tag constraint specified")
	}
}

// A specified tag category with no overlap fails the match when no other
// specified category overlaps either.
func TestMatches_SpecifiedCategoryWithoutOverlap(t *testing.T) {
	p := compile(t, model.Filter{
		City:               strPtr("臺北市"),
		PositionCategories: []string{"農作"},
	})

	doc := taipeiDoc()
	doc.PositionCategories = []string{"民宿打掃"}
	if p.Matches(doc) {
		t.Error("expected no match: only specified tag category has no overlap")
	}
}

// One overlapping category is enough even when another specified category
// has no overlap — OR across specified tag categories, not AND.
func TestMatches_TagCategoriesAreDisjunctive(t *testing.T) {
	p := compile(t, model.Filter{
		PositionCategories: []string{"農作"},
		Meals:              []string{"供三餐"},
	})

	doc := taipeiDoc()
	doc.PositionCategories = []string{"民宿打掃"} // no overlap
	doc.Meals = []string{"供三餐"}               // overlap
	if !p.Matches(doc) {
		t.Error("expected match: one specified tag category overlaps")
	}
}

// Hard filters stay conjunctive: a tag overlap cannot rescue a failed city
// clause.
func TestMatches_HardFiltersAreConjunctive(t *testing.T) {
	p := compile(t, model.Filter{
		City:  strPtr("高雄市"),
		Meals: []string{"供三餐"},
	})

	doc := taipeiDoc()
	doc.Meals = []string{"供三餐"}
	if p.Matches(doc) {
		t.Error("expected no match: city clause fails")
	}
}

func TestMatches_DateOverlap(t *testing.T) {
	cases := []struct {
		name       string
		start, end *time.Time
		want       bool
	}{
		{"no bounds", nil, nil, true},
		{"inside window", timePtr(date(2026, 3, 1)), timePtr(date(2026, 12, 31)), true},
		{"posting starts after filter end", timePtr(date(2026, 1, 1)), timePtr(date(2026, 3, 1)), false},
		{"posting ends before filter start", timePtr(date(2026, 9, 15)), nil, false},
		{"open-ended start bound satisfied", timePtr(date(2026, 5, 1)), nil, true},
		{"open-ended end bound satisfied", nil, timePtr(date(2026, 4, 1)), true},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			p := compile(t, model.Filter{StartDate: c.start, EndDate: c.end})
			if got := p.Matches(taipeiDoc()); got != c.want {
				t.Errorf("Matches = %v, want %v", got, c.want)
			}
		})
	}
}

func TestMatches_NumericThresholds(t *testing.T) {
	doc := taipeiDoc() // recruit 5, hours 5, duration 14

	cases := []struct {
		name   string
		filter model.Filter
		want   bool
	}{
		{"applicant count satisfied", model.Filter{ApplicantCount: intPtr(5)}, true},
		{"applicant count too high", model.Filter{ApplicantCount: intPtr(6)}, false},
		{"work hours cap satisfied", model.Filter{AverageWorkHours: intPtr(5)}, true},
		{"work hours over cap", model.Filter{AverageWorkHours: intPtr(4)}, false},
		{"duration cap satisfied", model.Filter{MinDuration: intPtr(20)}, true},
		{"duration over cap", model.Filter{MinDuration: intPtr(7)}, false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			p := compile(t, c.filter)
			if got := p.Matches(doc); got != c.want {
				t.Errorf("Matches = %v, want %v", got, c.want)
			}
		})
	}
}

func TestCompile_RejectsEmptyFilter(t *testing.T) {
	_, err := percolator.Compile("sub-1", "helper-1", model.Filter{})
	if err == nil {
		t.Fatal("Compile(empty filter) expected error, got nil")
	}
	var vErr *percolator.ValidationError
	if !errors.As(err, &vErr) {
		t.Errorf("error type = %T, want *ValidationError", err)
	}
}

func TestCompile_EmptyTagSlicesAreWildcards(t *testing.T) {
	_, err := percolator.Compile("sub-1", "helper-1", model.Filter{
		PositionCategories: []string{},
		Meals:              []string{},
	})
	if err == nil {
		t.Error("filter with only empty tag slices should be rejected as empty")
	}
}
