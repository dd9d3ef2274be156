package recommend

import (
	"math"
	"sort"

	"github.com/Ke1ly/haloop-match-service/internal/model"
)

// Gaussian decay constants. Spread/offset factors are per category; the
// shared decay value means a posting one spread away from the acceptable
// band scores 0.2.
const (
	decayValue        = 0.2
	workHoursSpread   = 1.5
	minDurationSpread = 1.2
	recruitSpread     = 1.5
)

// Scorer computes soft relevance scores for documents against a single
// preference profile.
type Scorer struct {
	cities CitySimilarity
}

// NewScorer returns a Scorer with the fixed region similarity matrix.
func NewScorer() *Scorer {
	return &Scorer{cities: BuildCitySimilarity()}
}

// Score returns the [0,1] relevance of doc for the profile: the equal-
// weight average of every contributing sub-score. Scalar fields contribute
// only when specified; the five tag categories always contribute, scoring
// 1.0 when the subscriber expressed no preference. A profile with nothing
// specified therefore scores 1.0 for every document.
func (s *Scorer) Score(profile model.Filter, doc model.WorkDocument) float64 {
	var total, weight float64

	if profile.City != nil {
		total += s.cities.Score(*profile.City, doc.City)
		weight++
	}
	if profile.ApplicantCount != nil {
		ideal := float64(*profile.ApplicantCount)
		total += gaussDecay(float64(doc.RecruitCount), ideal, 0, recruitSpread*ideal)
		weight++
	}
	if profile.AverageWorkHours != nil {
		// One-sided: anything at or under the stated ceiling is ideal,
		// hours above it decay smoothly instead of dropping to zero.
		ideal := float64(*profile.AverageWorkHours)
		total += gaussDecay(float64(doc.AverageWorkHours), 0, ideal, workHoursSpread*ideal)
		weight++
	}
	if profile.MinDuration != nil {
		ideal := float64(*profile.MinDuration)
		total += gaussDecay(float64(doc.MinDuration), 0, ideal, minDurationSpread*ideal)
		weight++
	}

	for _, pair := range [][2][]string{
		{profile.PositionCategories, doc.PositionCategories},
		{profile.Accommodations, doc.Accommodations},
		{profile.Meals, doc.Meals},
		{profile.Experiences, doc.Experiences},
		{profile.Environments, doc.Environments},
	} {
		total += overlapRatio(pair[0], pair[1])
		weight++
	}

	return total / weight
}

// gaussDecay is the Elasticsearch-style decay curve: 1.0 anywhere within
// `offset` of the origin, then exp(ln(decay)·(d/scale)²) beyond it.
func gaussDecay(value, origin, offset, scale float64) float64 {
	if scale <= 0 {
		if math.Abs(value-origin) <= offset {
			return 1
		}
		return 0
	}
	d := math.Abs(value-origin) - offset
	if d <= 0 {
		return 1
	}
	return math.Exp(math.Log(decayValue) * (d / scale) * (d / scale))
}

// overlapRatio is |filter ∩ doc| / |filter|; an unspecified filter set
// scores full marks.
func overlapRatio(wanted, have []string) float64 {
	if len(wanted) == 0 {
		return 1
	}
	set := make(map[string]struct{}, len(have))
	for _, h := range have {
		set[h] = struct{}{}
	}
	matched := 0
	for _, w := range wanted {
		if _, ok := set[w]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(wanted))
}

// ScoredDocument pairs a document with its relevance score.
type ScoredDocument struct {
	Doc   model.WorkDocument
	Score float64
}

// Rank scores every document and orders them best-first: score descending,
// ties broken by start date descending (more recent first).
func (s *Scorer) Rank(profile model.Filter, docs []model.WorkDocument) []ScoredDocument {
	scored := make([]ScoredDocument, 0, len(docs))
	for _, doc := range docs {
		scored = append(scored, ScoredDocument{Doc: doc, Score: s.Score(profile, doc)})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Doc.StartDate.After(scored[j].Doc.StartDate)
	})
	return scored
}
