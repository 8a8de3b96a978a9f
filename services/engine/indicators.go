package engine

import "math"

// Indicator kernels. Every function returns math.NaN() when the input window
// is too short or contains an unusable bar. NaN fails every ordered
// comparison, so a gate fed an unavailable reading refuses to trade instead
// of trading on garbage.

// EMA computes an exponential moving average seeded with the simple mean of
// the first period values, then smoothed with 2/(period+1).
func EMA(values []float64, period int) float64 {
	if period <= 0 || len(values) < period {
		return math.NaN()
	}
	sum := 0.0
	for i := 0; i < period; i++ {
		sum += values[i]
	}
	ema := sum / float64(period)
	k := 2.0 / float64(period+1)
	for i := period; i < len(values); i++ {
		ema += k * (values[i] - ema)
	}
	return ema
}

// trueRange is Wilder's true range for cur given the previous bar's close.
func trueRange(cur, prev Candle) float64 {
	if !cur.Sane() || !prev.Sane() {
		return math.NaN()
	}
	tr := cur.High - cur.Low
	if v := math.Abs(cur.High - prev.Close); v > tr {
		tr = v
	}
	if v := math.Abs(cur.Low - prev.Close); v > tr {
		tr = v
	}
	return tr
}

// ATR averages the last period true ranges of the window. With fewer ranges
// available it averages what exists; with fewer than two bars there is no
// range at all and the result is NaN.
func ATR(candles []Candle, period int) float64 {
	if period <= 0 || len(candles) < 2 {
		return math.NaN()
	}
	trs := make([]float64, 0, len(candles)-1)
	for i := 1; i < len(candles); i++ {
		trs = append(trs, trueRange(candles[i], candles[i-1]))
	}
	if len(trs) > period {
		trs = trs[len(trs)-period:]
	}
	sum := 0.0
	for _, tr := range trs {
		sum += tr
	}
	return sum / float64(len(trs))
}

// wilder smooths xs with Wilder's method: seed with the simple mean of the
// first period values, then S = (S*(period-1) + x) / period. One output per
// input from index period-1 on; nil when xs is too short.
func wilder(xs []float64, period int) []float64 {
	if len(xs) < period {
		return nil
	}
	sum := 0.0
	for i := 0; i < period; i++ {
		sum += xs[i]
	}
	s := sum / float64(period)
	out := make([]float64, 0, len(xs)-period+1)
	out = append(out, s)
	for i := period; i < len(xs); i++ {
		s = (s*float64(period-1) + xs[i]) / float64(period)
		out = append(out, s)
	}
	return out
}

// ADX computes the average directional index over the window via double
// Wilder smoothing: directional movement and true range first, the resulting
// DX series second. The latest smoothed value is returned. The window must
// supply at least 2*period true ranges.
func ADX(candles []Candle, period int) float64 {
	if period <= 0 || len(candles) < 2*period+1 {
		return math.NaN()
	}
	n := len(candles) - 1
	tr := make([]float64, n)
	plusDM := make([]float64, n)
	minusDM := make([]float64, n)
	for i := 1; i < len(candles); i++ {
		cur, prev := candles[i], candles[i-1]
		tr[i-1] = trueRange(cur, prev)
		upMove := cur.High - prev.High
		downMove := prev.Low - cur.Low
		if upMove > downMove && upMove > 0 {
			plusDM[i-1] = upMove
		}
		if downMove > upMove && downMove > 0 {
			minusDM[i-1] = downMove
		}
	}

	smTR := wilder(tr, period)
	smPlus := wilder(plusDM, period)
	smMinus := wilder(minusDM, period)
	dx := make([]float64, len(smTR))
	for i := range smTR {
		if smTR[i] == 0 {
			continue // no range, no directionality
		}
		plusDI := 100 * smPlus[i] / smTR[i]
		minusDI := 100 * smMinus[i] / smTR[i]
		if den := plusDI + minusDI; den != 0 {
			dx[i] = math.Abs(plusDI-minusDI) / den * 100
		} else {
			dx[i] = plusDI + minusDI // carries NaN through, stays 0 otherwise
		}
	}

	adx := wilder(dx, period)
	if len(adx) == 0 {
		return math.NaN()
	}
	return adx[len(adx)-1]
}

// TrendSlope is the fractional change of the period-EMA of closes over the
// last lag bars: (EMA_now - EMA_lag_ago) / EMA_lag_ago.
func TrendSlope(closes []float64, period, lag int) float64 {
	if lag <= 0 || len(closes) < period+lag {
		return math.NaN()
	}
	cur := EMA(closes, period)
	past := EMA(closes[:len(closes)-lag], period)
	if past == 0 {
		return math.NaN()
	}
	return (cur - past) / past
}
