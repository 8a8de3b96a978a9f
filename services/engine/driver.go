package engine

import (
	"math"

	"github.com/rs/zerolog"
)

// decision is the mutable context threaded through the gate chain for one
// candidate decision point. Earlier gates fill fields later gates read.
type decision struct {
	series *Series
	day    []Candle
	window []Candle
	global int // index into series.Candles
	local  int // index into day

	regime  Regime
	signal  Signal
	quality QualityBreakdown
}

// gate is one predicate in the ordered per-decision-point chain. Gates run in
// a fixed order and short-circuit on the first refusal; count, when set, is
// the skip counter bumped for that refusal.
type gate struct {
	name  string
	count func(*RiskMetrics)
	admit func(*Driver, *decision) bool
}

// Driver walks one symbol's history bar by bar, feeding every candidate
// decision point through the gate chain and the exit simulator while the
// risk governor supervises equity. A Driver holds no per-run state and may
// be shared across goroutines.
type Driver struct {
	cfg   *Config
	log   zerolog.Logger
	gates []gate
}

func NewDriver(cfg *Config, log zerolog.Logger) (*Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	d := &Driver{cfg: cfg, log: log}
	d.gates = buildGates(cfg)
	return d, nil
}

// buildGates assembles the decision-point chain. Regime and signal always
// run; the optional filters drop out when disabled, leaving the minimal
// trend-plus-pullback variant.
func buildGates(cfg *Config) []gate {
	gates := []gate{{
		name:  "regime",
		count: func(m *RiskMetrics) { m.TrendGateSkips++ },
		admit: func(d *Driver, ctx *decision) bool {
			ctx.regime = ClassifyRegime(ctx.window, d.cfg.ADXPeriod)
			return ctx.regime.ShouldTrade
		},
	}}
	if !cfg.DisableTrendGate {
		gates = append(gates, gate{
			name:  "trend_slope",
			count: func(m *RiskMetrics) { m.TrendGateSkips++ },
			admit: func(d *Driver, ctx *decision) bool {
				slope := TrendSlope(Closes(ctx.window), d.cfg.TrendEMAPeriod, d.cfg.SlopeLookbackBars)
				return math.Abs(slope) >= ctx.regime.MinTrendSlope
			},
		})
	}
	gates = append(gates, gate{
		name: "signal",
		admit: func(d *Driver, ctx *decision) bool {
			ctx.signal = DetectSignal(ctx.window, d.cfg.EMAFastPeriod, d.cfg.EMASlowPeriod)
			return ctx.signal.Direction != TrendNeutral && ctx.signal.Pullback
		},
	})
	if !cfg.DisableConfirmationGate {
		gates = append(gates, gate{
			name:  "confirmation",
			count: func(m *RiskMetrics) { m.EntryConfirmationSkips++ },
			admit: func(d *Driver, ctx *decision) bool {
				if ctx.global == 0 {
					return false
				}
				prev := ctx.series.Candles[ctx.global-1]
				return Confirms(ctx.signal.Direction, ctx.day[ctx.local], prev)
			},
		})
	}
	if !cfg.DisableQualityGate {
		gates = append(gates, gate{
			name:  "quality",
			count: func(m *RiskMetrics) { m.QualityScoreSkips++ },
			admit: func(d *Driver, ctx *decision) bool {
				ctx.quality = ScoreQuality(ctx.window, d.cfg.EMAFastPeriod, d.cfg.EMASlowPeriod, d.cfg.SwingLookbackBars)
				return ctx.quality.Total >= ctx.regime.MinQualityScore
			},
		})
	}
	return gates
}

// RunSymbol simulates the full history of one symbol and returns its ledger.
// Returns nil for an absent or empty series.
func (d *Driver) RunSymbol(series *Series) *PerformanceRecord {
	if series == nil || len(series.Days) == 0 {
		return nil
	}
	cfg := d.cfg
	gov := NewRiskGovernor(cfg.KillSwitchDrawdownFraction, cfg.KillSwitchPauseDays,
		cfg.MaxDailyLossFraction, cfg.InitialCapital)

	equity := cfg.InitialCapital
	peak := equity
	maxDD := 0.0
	totalR := 0.0
	rec := &PerformanceRecord{Symbol: series.Symbol}

	for dayIdx, bounds := range series.Days {
		day := series.Candles[bounds.Start:bounds.End]

		ok, tripped := gov.StartDay(dayIdx, equity)
		if tripped {
			rec.RiskMetrics.KillSwitchTriggers++
			d.log.Warn().
				Str("symbol", series.Symbol).
				Str("day", bounds.Key).
				Float64("equity", equity).
				Float64("rolling_peak", gov.RollingPeak()).
				Msg("kill switch tripped, pausing")
		}
		if !ok {
			continue
		}

		if !cfg.DisableVolatilityGate && d.lowVolatilityDay(series, bounds, day) {
			rec.RiskMetrics.VolatilitySkips++
			continue
		}

		dayPnl := 0.0
		dayTrades := 0
		// Decision points run from the end of the opening range to the
		// penultimate bar; the final bar is reserved for forced closes.
		for local := cfg.FirstHourBars; local < len(day)-1; local++ {
			if dayTrades >= cfg.MaxTradesPerDay {
				break
			}
			if gov.DailyLossBreached(dayPnl, equity) {
				rec.RiskMetrics.DailyLossBreaches++
				break
			}

			ctx := decision{
				series: series,
				day:    day,
				global: bounds.Start + local,
				local:  local,
			}
			ctx.window = series.Lookback(ctx.global, cfg.RegimeWindowBars)
			if !d.admit(&ctx, &rec.RiskMetrics) {
				continue
			}

			dir := Long
			if ctx.signal.Direction == TrendDown {
				dir = Short
			}
			pos, entered := PlanEntry(cfg, dir, ctx.window, equity)
			if !entered {
				continue
			}
			exit := WalkExit(cfg, &pos, day, local)
			trade := CloseTrade(cfg, series.Symbol, bounds.Key, pos, exit)

			// Equity mutates strictly in trade-completion order.
			equity += trade.NetPnl
			dayPnl += trade.NetPnl
			dayTrades++
			totalR += trade.RMultiple
			rec.Trades++
			if trade.NetPnl > 0 {
				rec.Wins++
				rec.GrossProfit += trade.NetPnl
			} else {
				rec.GrossLoss += -trade.NetPnl
			}
			if equity > peak {
				peak = equity
			}
			if dd := (peak - equity) / peak; dd > maxDD {
				maxDD = dd
			}
			rec.TradeLog = append(rec.TradeLog, trade)

			d.log.Debug().
				Str("symbol", series.Symbol).
				Str("day", bounds.Key).
				Str("direction", trade.Direction).
				Float64("net_pnl", trade.NetPnl).
				Float64("r", trade.RMultiple).
				Bool("forced_eod", trade.ForcedEOD).
				Msg("trade closed")

			// One open position at a time: the walk consumed bars up to
			// the exit, so scanning resumes after it.
			if exit.ExitIndex > local {
				local = exit.ExitIndex
			}
		}
		if dayTrades > 0 {
			rec.TradingDaysWithActivity++
		}
	}

	rec.NetPnl = equity - cfg.InitialCapital
	rec.FinalEquity = equity
	rec.TotalReturn = rec.NetPnl / cfg.InitialCapital
	rec.MaxDrawdown = maxDD
	if rec.Trades > 0 {
		rec.WinRate = float64(rec.Wins) / float64(rec.Trades)
		rec.AvgTrade = rec.NetPnl / float64(rec.Trades)
		rec.AvgRMultiple = totalR / float64(rec.Trades)
	}
	return rec
}

func (d *Driver) admit(ctx *decision, metrics *RiskMetrics) bool {
	for _, g := range d.gates {
		if g.admit(d, ctx) {
			continue
		}
		if g.count != nil {
			g.count(metrics)
		}
		return false
	}
	return true
}

// lowVolatilityDay applies the opening-range filter: the first hour's range
// must reach a regime-dependent fraction of the day's ATR. The threshold
// regime is classified at the last bar of the first hour; a non-trading
// regime there supplies no fraction and the filter stands aside, leaving the
// refusal to the per-bar regime gate. Unavailable range or ATR means the day
// cannot be judged and is skipped.
func (d *Driver) lowVolatilityDay(series *Series, bounds DayBounds, day []Candle) bool {
	cfg := d.cfg
	if len(day) < cfg.FirstHourBars {
		return false
	}
	regime := ClassifyRegime(
		series.Lookback(bounds.Start+cfg.FirstHourBars-1, cfg.RegimeWindowBars),
		cfg.ADXPeriod)
	if !regime.ShouldTrade {
		return false
	}
	hi, lo := SwingRange(day[:cfg.FirstHourBars], cfg.FirstHourBars)
	dayATR := ATR(day, cfg.ATRPeriod)
	if math.IsNaN(hi) || math.IsNaN(dayATR) || dayATR <= 0 {
		return true
	}
	return hi-lo < dayATR*regime.MinFirstHourATRFraction
}
