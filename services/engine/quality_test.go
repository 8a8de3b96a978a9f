package engine

import (
	"math"
	"testing"
)

func TestScoreQualityStaysInUnitInterval(t *testing.T) {
	windows := [][]Candle{
		trendingWindow(40),
		flatBars(40, 100),
		trendingWindow(5),
		{{Open: 100, High: 101, Low: 99, Close: math.NaN(), Volume: 1000}},
		append(trendingWindow(30), Candle{Open: 100, High: math.NaN(), Low: 99, Close: 100, Volume: 1000}),
	}
	for i, w := range windows {
		q := ScoreQuality(w, 13, 34, 10)
		for name, v := range map[string]float64{
			"trend":    q.TrendStrength,
			"pullback": q.PullbackScore,
			"volume":   q.VolumeScore,
			"total":    q.Total,
		} {
			if math.IsNaN(v) || v < 0 || v > 1 {
				t.Fatalf("window %d: %s score = %v, out of [0,1]", i, name, v)
			}
		}
	}
}

func TestScoreQualityFlatWindowBlocksEntry(t *testing.T) {
	q := ScoreQuality(flatBars(40, 100), 13, 34, 10)
	if q.PullbackScore != 0 {
		t.Fatalf("flat window pullback score = %v, want 0", q.PullbackScore)
	}
	if q.TrendStrength != 0 {
		t.Fatalf("flat window trend strength = %v, want 0", q.TrendStrength)
	}
	// Only the neutral volume component remains, well under every regime's
	// minimum quality bar.
	if q.Total >= 0.4 {
		t.Fatalf("flat window total = %v, should stay below the strictest threshold", q.Total)
	}
}

func TestScoreQualityVolumeExpansion(t *testing.T) {
	w := flatBars(40, 100)
	w[len(w)-1].Volume = 4000 // 4x the baseline, ratio capped at 1
	q := ScoreQuality(w, 13, 34, 10)
	if q.VolumeScore != 1 {
		t.Fatalf("volume score on 4x expansion = %v, want 1", q.VolumeScore)
	}

	short := flatBars(10, 100)
	q = ScoreQuality(short, 5, 8, 5)
	if q.VolumeScore != neutralVolumeScore {
		t.Fatalf("volume score without baseline = %v, want %v", q.VolumeScore, neutralVolumeScore)
	}
}
