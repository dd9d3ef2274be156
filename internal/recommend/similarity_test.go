package recommend_test

import (
	"testing"

	"github.com/Ke1ly/haloop-match-service/internal/recommend"
)

func TestCitySimilarityTiers(t *testing.T) {
	sim := recommend.BuildCitySimilarity()

	tests := []struct {
		name string
		want string
		have string
		exp  float64
	}{
		{"same region", "臺北市", "臺北市", 1.0},
		{"adjacent regions", "臺北市", "新北市", 0.8},
		{"near regions", "臺北市", "桃園市", 0.3},
		{"unrelated regions", "臺北市", "高雄市", 0.0},
		{"unknown region", "臺北市", "火星市", 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sim.Score(tt.want, tt.have); got != tt.exp {
				t.Errorf("Score(%s, %s) = %v, want %v", tt.want, tt.have, got, tt.exp)
			}
		})
	}
}

func TestCitySimilaritySymmetry(t *testing.T) {
	sim := recommend.BuildCitySimilarity()
	pairs := [][2]string{
		{"基隆市", "新北市"},
		{"桃園市", "苗栗縣"},
		{"金門縣", "澎湖縣"},
	}
	for _, p := range pairs {
		if a, b := sim.Score(p[0], p[1]), sim.Score(p[1], p[0]); a != b {
			t.Errorf("asymmetric similarity %s/%s: %v vs %v", p[0], p[1], a, b)
		}
	}
}
