package engine

// TrendDirection is the EMA-cross trend reading at a decision point.
type TrendDirection int

const (
	TrendNeutral TrendDirection = iota
	TrendUp
	TrendDown
)

func (d TrendDirection) String() string {
	switch d {
	case TrendUp:
		return "UP"
	case TrendDown:
		return "DOWN"
	default:
		return "NEUTRAL"
	}
}

// Signal bundles the trend context computed from one lookback window.
// Pullback reports whether the decision close has retraced strictly between
// the two averages, which is the only place an entry is considered.
type Signal struct {
	Direction TrendDirection
	FastEMA   float64
	SlowEMA   float64
	Close     float64
	Pullback  bool
}

// DetectSignal classifies trend direction and pullback context from the
// window's closes. The decision close is the window's last bar. NaN averages
// fail every comparison and leave the signal neutral.
func DetectSignal(window []Candle, fastPeriod, slowPeriod int) Signal {
	if len(window) == 0 {
		return Signal{}
	}
	closes := Closes(window)
	c := closes[len(closes)-1]
	sig := Signal{
		FastEMA: EMA(closes, fastPeriod),
		SlowEMA: EMA(closes, slowPeriod),
		Close:   c,
	}
	switch {
	case sig.FastEMA > sig.SlowEMA && c > sig.SlowEMA:
		sig.Direction = TrendUp
		sig.Pullback = c < sig.FastEMA
	case sig.FastEMA < sig.SlowEMA && c < sig.SlowEMA:
		sig.Direction = TrendDown
		sig.Pullback = c > sig.FastEMA
	}
	return sig
}

// Confirms reports whether the decision bar resumes the trend: it must break
// the previous bar's extreme in the trend direction with an agreeing body.
func Confirms(dir TrendDirection, decision, prev Candle) bool {
	switch dir {
	case TrendUp:
		return decision.Close > prev.High && decision.Close > decision.Open
	case TrendDown:
		return decision.Close < prev.Low && decision.Close < decision.Open
	default:
		return false
	}
}
