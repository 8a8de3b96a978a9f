package engine

import "math"

// Quality score weights. The three components are each clamped to [0,1] and
// the weights sum to one, so the composite is a fraction as well.
const (
	qualityTrendWeight    = 0.4
	qualityPullbackWeight = 0.4
	qualityVolumeWeight   = 0.2

	volumeBaselineBars = 20
	neutralVolumeScore = 0.5
)

// QualityBreakdown itemizes the composite entry quality score.
type QualityBreakdown struct {
	TrendStrength float64
	PullbackScore float64
	VolumeScore   float64
	Total         float64
}

// ScoreQuality rates an entry candidate from trend separation, pullback depth
// and volume expansion. swingBars is the trailing swing window used for the
// pullback depth. Unusable inputs zero out the affected component instead of
// leaking NaN into the composite, so the total stays in [0,1] for any input.
func ScoreQuality(window []Candle, fastPeriod, slowPeriod, swingBars int) QualityBreakdown {
	var q QualityBreakdown
	if len(window) == 0 {
		return q
	}
	closes := Closes(window)
	cur := closes[len(closes)-1]

	fast := EMA(closes, fastPeriod)
	slow := EMA(closes, slowPeriod)
	if !math.IsNaN(fast) && !math.IsNaN(slow) && slow > 0 {
		q.TrendStrength = math.Min(math.Abs(fast-slow)/slow*200, 1.0)
	}

	// Triangular depth profile: a retracement near half the recent swing
	// scores best, extremes score zero.
	hi, lo := SwingRange(window, swingBars)
	if rng := hi - lo; rng > 0 && !math.IsNaN(cur) {
		depth := math.Max((hi-cur)/rng, (cur-lo)/rng)
		if depth <= 0.5 {
			q.PullbackScore = depth * 2
		} else {
			q.PullbackScore = math.Max(0, 1-(depth-0.5)*2)
		}
	}

	q.VolumeScore = neutralVolumeScore
	if len(window) >= volumeBaselineBars {
		base := window[len(window)-volumeBaselineBars : len(window)-1]
		sum := 0.0
		for _, c := range base {
			sum += c.Volume
		}
		mean := sum / float64(len(base))
		if last := window[len(window)-1].Volume; mean > 0 && last >= 0 {
			q.VolumeScore = math.Min(last/mean/2, 1.0)
		}
	}

	q.Total = qualityTrendWeight*q.TrendStrength +
		qualityPullbackWeight*q.PullbackScore +
		qualityVolumeWeight*q.VolumeScore
	return q
}
