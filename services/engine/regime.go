package engine

import "math"

// RegimeLabel names the classified market condition.
type RegimeLabel string

const (
	RegimeTrending RegimeLabel = "TRENDING"
	RegimeNormal   RegimeLabel = "NORMAL"
	RegimeChoppy   RegimeLabel = "CHOPPY"
)

// ADX band edges for the regime split.
const (
	adxTrendingMin = 25.0
	adxNormalMin   = 15.0
)

// Regime is the classification of one lookback window plus the adaptive
// thresholds it implies for the downstream gates. A non-trading regime
// carries zero thresholds; they are never consulted.
type Regime struct {
	Label       RegimeLabel
	ADX         float64
	ShouldTrade bool

	MinTrendSlope           float64
	MinQualityScore         float64
	MinFirstHourATRFraction float64
}

// ClassifyRegime maps the window's ADX reading onto a trading permission and
// threshold set. A window too short for ADX classifies as CHOPPY with a NaN
// reading: unavailable trend strength is never a licence to trade.
func ClassifyRegime(window []Candle, adxPeriod int) Regime {
	adx := ADX(window, adxPeriod)
	switch {
	case adx >= adxTrendingMin:
		return Regime{
			Label:                   RegimeTrending,
			ADX:                     adx,
			ShouldTrade:             true,
			MinTrendSlope:           0.005,
			MinQualityScore:         0.4,
			MinFirstHourATRFraction: 0.3,
		}
	case adx >= adxNormalMin:
		return Regime{
			Label:                   RegimeNormal,
			ADX:                     adx,
			ShouldTrade:             true,
			MinTrendSlope:           0.002,
			MinQualityScore:         0.6,
			MinFirstHourATRFraction: 0.25,
		}
	default:
		// NaN lands here too: both comparisons above fail.
		return Regime{Label: RegimeChoppy, ADX: adx}
	}
}

// Available reports whether the ADX reading behind the label existed.
func (r Regime) Available() bool {
	return !math.IsNaN(r.ADX)
}
