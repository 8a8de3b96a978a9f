package engine

// RiskGovernor holds the two capital circuit breakers: the rolling-drawdown
// kill-switch that pauses whole trading days, and the intraday realized-loss
// breaker that stops new entries for the rest of a day.
//
// The governor is per-simulation state and is not safe for concurrent use;
// each symbol run owns its own instance.
type RiskGovernor struct {
	drawdownFraction float64
	pauseDays        int
	dailyLossFrac    float64

	rollingPeak float64
	paused      bool
	resumeDay   int
}

func NewRiskGovernor(drawdownFraction float64, pauseDays int, dailyLossFraction, initialEquity float64) *RiskGovernor {
	return &RiskGovernor{
		drawdownFraction: drawdownFraction,
		pauseDays:        pauseDays,
		dailyLossFrac:    dailyLossFraction,
		rollingPeak:      initialEquity,
	}
}

// StartDay runs the kill-switch check for day dayIdx before any intraday
// processing. It reports whether the day may trade at all and whether this
// call tripped the switch. The triggering day itself is paused, as are the
// following pauseDays-1 days. The rolling peak only advances on days that do
// not trigger; a pause therefore resumes against the pre-crash peak and
// re-trips immediately unless equity has recovered.
func (g *RiskGovernor) StartDay(dayIdx int, equity float64) (trade, tripped bool) {
	if g.paused {
		if dayIdx < g.resumeDay {
			return false, false
		}
		g.paused = false
	}
	if g.rollingPeak > 0 {
		if dd := (g.rollingPeak - equity) / g.rollingPeak; dd >= g.drawdownFraction {
			g.paused = true
			g.resumeDay = dayIdx + g.pauseDays
			return false, true
		}
	}
	if equity > g.rollingPeak {
		g.rollingPeak = equity
	}
	return true, false
}

// DailyLossBreached reports whether the day's realized pnl has exhausted the
// daily loss budget measured against current equity.
func (g *RiskGovernor) DailyLossBreached(dayPnl, equity float64) bool {
	return dayPnl <= -(equity * g.dailyLossFrac)
}

// Paused reports whether the kill-switch pause window is active.
func (g *RiskGovernor) Paused() bool { return g.paused }

// RollingPeak exposes the current rolling equity peak.
func (g *RiskGovernor) RollingPeak() float64 { return g.rollingPeak }
