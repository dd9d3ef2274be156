// Package recommend computes periodic, per-subscriber ranked shortlists of
// postings from a single soft preference profile. Unlike the percolator,
// nothing here is a hard cutoff: every field contributes a bounded [0,1]
// sub-score.
package recommend

// Tiered similarity scores between administrative regions. Fixed adjacency
// tables, not geodesic distance.
const (
	simExact    = 1.0
	simAdjacent = 0.8
	simNear     = 0.3
)

var cityList = []string{
	"基隆市", "臺北市", "新北市", "桃園市", "新竹市", "新竹縣", "苗栗縣",
	"臺中市", "彰化縣", "南投縣", "雲林縣", "嘉義縣", "嘉義市", "臺南市",
	"高雄市", "屏東縣", "宜蘭縣", "花蓮縣", "臺東縣", "澎湖縣", "金門縣", "連江縣",
}

// adjacentPairs are directly neighbouring regions (similarity 0.8).
var adjacentPairs = [][2]string{
	{"基隆市", "新北市"}, {"基隆市", "臺北市"}, {"臺北市", "新北市"},
	{"新北市", "桃園市"}, {"新北市", "宜蘭縣"},
	{"桃園市", "新竹縣"}, {"桃園市", "新竹市"},
	{"新竹縣", "新竹市"}, {"新竹縣", "苗栗縣"}, {"新竹市", "苗栗縣"},
	{"苗栗縣", "臺中市"},
	{"臺中市", "彰化縣"}, {"臺中市", "南投縣"},
	{"彰化縣", "南投縣"}, {"彰化縣", "雲林縣"}, {"南投縣", "雲林縣"},
	{"雲林縣", "嘉義縣"}, {"雲林縣", "嘉義市"}, {"嘉義縣", "嘉義市"},
	{"嘉義縣", "臺南市"}, {"嘉義市", "臺南市"},
	{"臺南市", "高雄市"}, {"高雄市", "屏東縣"}, {"屏東縣", "臺東縣"},
	{"宜蘭縣", "花蓮縣"}, {"花蓮縣", "臺東縣"},
	{"金門縣", "連江縣"},
}

// nearPairs are one region removed (similarity 0.3).
var nearPairs = [][2]string{
	{"基隆市", "宜蘭縣"}, {"基隆市", "桃園市"},
	{"臺北市", "宜蘭縣"}, {"臺北市", "桃園市"},
	{"桃園市", "苗栗縣"}, {"新竹縣", "臺中市"}, {"新竹市", "臺中市"},
	{"苗栗縣", "彰化縣"}, {"苗栗縣", "南投縣"},
	{"臺中市", "雲林縣"},
	{"彰化縣", "嘉義縣"}, {"彰化縣", "嘉義市"},
	{"南投縣", "嘉義縣"}, {"南投縣", "嘉義市"},
	{"雲林縣", "臺南市"},
	{"嘉義縣", "高雄市"}, {"嘉義市", "高雄市"},
	{"臺南市", "屏東縣"}, {"屏東縣", "花蓮縣"},
	{"金門縣", "澎湖縣"}, {"連江縣", "澎湖縣"},
}

// CitySimilarity holds the full pairwise similarity matrix.
type CitySimilarity map[string]map[string]float64

// BuildCitySimilarity expands the adjacency tables into a symmetric matrix.
func BuildCitySimilarity() CitySimilarity {
	sim := make(CitySimilarity, len(cityList))
	for _, city := range cityList {
		sim[city] = make(map[string]float64, len(cityList))
		sim[city][city] = simExact
	}
	for _, pair := range adjacentPairs {
		sim[pair[0]][pair[1]] = simAdjacent
		sim[pair[1]][pair[0]] = simAdjacent
	}
	for _, pair := range nearPairs {
		sim[pair[0]][pair[1]] = simNear
		sim[pair[1]][pair[0]] = simNear
	}
	return sim
}

// Score returns the similarity between two regions; unrelated or unknown
// regions score zero.
func (s CitySimilarity) Score(want, have string) float64 {
	return s[want][have]
}
