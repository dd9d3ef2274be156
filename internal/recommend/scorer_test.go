package recommend_test

import (
	"testing"
	"time"

	"github.com/Ke1ly/haloop-match-service/internal/model"
	"github.com/Ke1ly/haloop-match-service/internal/recommend"
)

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func hualienDoc() model.WorkDocument {
	return model.WorkDocument{
		ID:                 "post-1",
		PositionName:       "農場幫手",
		UnitName:           "山居農場",
		City:               "花蓮縣",
		StartDate:          time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		EndDate:            time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
		AverageWorkHours:   4,
		MinDuration:        14,
		RecruitCount:       2,
		PositionCategories: []string{"農場", "民宿"},
		Accommodations:     []string{"獨立房間"},
		Meals:              []string{"三餐提供"},
		Experiences:        []string{"可帶寵物"},
		Environments:       []string{"靠海"},
	}
}

func TestScoreNoPreferencesIsPerfect(t *testing.T) {
	s := recommend.NewScorer()
	if got := s.Score(model.Filter{}, hualienDoc()); got != 1.0 {
		t.Fatalf("Score with empty profile = %v, want 1.0", got)
	}
}

func TestScoreExactProfileIsPerfect(t *testing.T) {
	s := recommend.NewScorer()
	profile := model.Filter{
		City:               strPtr("花蓮縣"),
		ApplicantCount:     intPtr(2),
		AverageWorkHours:   intPtr(4),
		MinDuration:        intPtr(14),
		PositionCategories: []string{"農場"},
		Accommodations:     []string{"獨立房間"},
	}
	if got := s.Score(profile, hualienDoc()); got != 1.0 {
		t.Fatalf("Score with exactly-matching profile = %v, want 1.0", got)
	}
}

func TestScoreWorkHoursOneSided(t *testing.T) {
	s := recommend.NewScorer()
	profile := model.Filter{AverageWorkHours: intPtr(4)}

	under := hualienDoc()
	under.AverageWorkHours = 2
	if got := s.Score(profile, under); got != 1.0 {
		t.Errorf("hours below ceiling scored %v, want 1.0", got)
	}

	at := hualienDoc()
	at.AverageWorkHours = 4
	if got := s.Score(profile, at); got != 1.0 {
		t.Errorf("hours at ceiling scored %v, want 1.0", got)
	}

	over := hualienDoc()
	over.AverageWorkHours = 8
	got := s.Score(profile, over)
	if got >= 1.0 || got <= 0 {
		t.Errorf("hours above ceiling scored %v, want a value in (0,1)", got)
	}

	far := hualienDoc()
	far.AverageWorkHours = 12
	if s.Score(profile, far) >= got {
		t.Errorf("score should keep decreasing as hours grow past the ceiling")
	}
}

func TestScoreRecruitCountSymmetric(t *testing.T) {
	s := recommend.NewScorer()
	profile := model.Filter{ApplicantCount: intPtr(4)}

	exact := hualienDoc()
	exact.RecruitCount = 4
	if got := s.Score(profile, exact); got != 1.0 {
		t.Errorf("exact recruit count scored %v, want 1.0", got)
	}

	below := hualienDoc()
	below.RecruitCount = 1
	above := hualienDoc()
	above.RecruitCount = 7
	if got := s.Score(profile, below); got >= 1.0 {
		t.Errorf("recruit count below ideal scored %v, want < 1.0", got)
	}
	if got := s.Score(profile, above); got >= 1.0 {
		t.Errorf("recruit count above ideal scored %v, want < 1.0", got)
	}
}

func TestScoreTagOverlapIsProportional(t *testing.T) {
	s := recommend.NewScorer()

	full := model.Filter{PositionCategories: []string{"農場"}}
	half := model.Filter{PositionCategories: []string{"農場", "咖啡廳"}}
	none := model.Filter{PositionCategories: []string{"咖啡廳", "酒吧"}}

	doc := hualienDoc()
	a, b, c := s.Score(full, doc), s.Score(half, doc), s.Score(none, doc)
	if !(a > b && b > c) {
		t.Fatalf("want full > half > none overlap, got %v, %v, %v", a, b, c)
	}
	if a != 1.0 {
		t.Errorf("full overlap scored %v, want 1.0", a)
	}
}

func TestScoreCityTiersOrder(t *testing.T) {
	s := recommend.NewScorer()
	profile := model.Filter{City: strPtr("臺北市")}

	score := func(city string) float64 {
		doc := hualienDoc()
		doc.City = city
		return s.Score(profile, doc)
	}
	exact, adjacent, near, far := score("臺北市"), score("新北市"), score("桃園市"), score("高雄市")
	if !(exact > adjacent && adjacent > near && near > far) {
		t.Fatalf("want exact > adjacent > near > far, got %v, %v, %v, %v",
			exact, adjacent, near, far)
	}
}

func TestRankOrdersByScoreThenRecency(t *testing.T) {
	s := recommend.NewScorer()
	profile := model.Filter{City: strPtr("花蓮縣")}

	local := hualienDoc()
	local.ID = "local"

	remote := hualienDoc()
	remote.ID = "remote"
	remote.City = "高雄市"

	localNewer := hualienDoc()
	localNewer.ID = "local-newer"
	localNewer.StartDate = local.StartDate.AddDate(0, 1, 0)

	ranked := s.Rank(profile, []model.WorkDocument{remote, local, localNewer})
	gotOrder := []string{ranked[0].Doc.ID, ranked[1].Doc.ID, ranked[2].Doc.ID}
	wantOrder := []string{"local-newer", "local", "remote"}
	for i := range wantOrder {
		if gotOrder[i] != wantOrder[i] {
			t.Fatalf("rank order = %v, want %v", gotOrder, wantOrder)
		}
	}
}
