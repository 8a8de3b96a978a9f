package engine

import "math"

// Direction of a position.
type Direction int

const (
	Long Direction = iota
	Short
)

func (d Direction) String() string {
	if d == Short {
		return "SHORT"
	}
	return "LONG"
}

// Position is an open trade between entry and exit. The stop only ever moves
// in the position's favor; TrailDistance is frozen at entry so later
// volatility cannot loosen the trail.
type Position struct {
	Direction   Direction
	EntryPrice  float64
	Quantity    int64
	InitialStop float64
	Stop        float64
	RiskPerUnit float64
	RiskAmount  float64 // capital staked, denominator of the r-multiple

	TrailDistance float64
	BreakEvenDone bool
}

// PlanEntry prices an entry at the decision bar's close shifted against the
// trader by the slippage fraction, stops it beyond the recent swing extreme
// padded by a fraction of ATR, and sizes it so the stop distance risks the
// configured fraction of current equity. A non-positive stop distance or a
// size that floors to zero is a no-trade event, not an error.
func PlanEntry(cfg *Config, dir Direction, window []Candle, equity float64) (Position, bool) {
	last := window[len(window)-1]
	if !last.Sane() {
		return Position{}, false
	}
	atr := ATR(window, cfg.ATRPeriod)
	if math.IsNaN(atr) {
		return Position{}, false
	}
	hi, lo := SwingRange(window, cfg.SwingLookbackBars)

	var entry, stop float64
	if dir == Long {
		entry = last.Close * (1 + cfg.SlippageFraction)
		stop = lo - atr*cfg.StopATRFraction
	} else {
		entry = last.Close * (1 - cfg.SlippageFraction)
		stop = hi + atr*cfg.StopATRFraction
	}
	risk := math.Abs(entry - stop)
	if !(risk > 0) {
		return Position{}, false
	}
	riskAmount := equity * cfg.RiskPerTradeFraction
	qty := int64(riskAmount / risk)
	if qty <= 0 {
		return Position{}, false
	}
	return Position{
		Direction:     dir,
		EntryPrice:    entry,
		Quantity:      qty,
		InitialStop:   stop,
		Stop:          stop,
		RiskPerUnit:   risk,
		RiskAmount:    riskAmount,
		TrailDistance: atr * cfg.TrailingATRMultiple,
	}, true
}

// ExitOutcome describes how the exit walk resolved.
type ExitOutcome struct {
	ExitPrice float64
	ExitIndex int // day-local index of the exit bar
	Forced    bool
}

// WalkExit simulates the bar-by-bar exit path inside the day. dayCandles is
// the whole trading day and entryIdx the day-local decision bar; the walk
// covers at most cfg.ExitWalkBars bars after it. Per bar, in order: the
// one-time break-even lock at one full risk unit of intrabar excursion, the
// trailing ratchet, then the stop test. A stopped exit fills at the worse of
// stop and bar open, shifted by slippage. If nothing triggers the position is
// force-closed at the day's final raw close.
func WalkExit(cfg *Config, pos *Position, dayCandles []Candle, entryIdx int) ExitOutcome {
	end := entryIdx + 1 + cfg.ExitWalkBars
	if end > len(dayCandles) {
		end = len(dayCandles)
	}
	for j := entryIdx + 1; j < end; j++ {
		c := dayCandles[j]
		if pos.Direction == Long {
			if !pos.BreakEvenDone && c.High >= pos.EntryPrice+pos.RiskPerUnit {
				pos.BreakEvenDone = true
				if be := pos.EntryPrice * (1 + cfg.BreakEvenBufferFraction); be > pos.Stop {
					pos.Stop = be
				}
			}
			if c.High > pos.EntryPrice+pos.TrailDistance {
				if t := c.High - pos.TrailDistance; t > pos.Stop {
					pos.Stop = t
				}
			}
			if c.Low <= pos.Stop {
				fill := math.Min(pos.Stop, c.Open)
				return ExitOutcome{ExitPrice: fill * (1 - cfg.SlippageFraction), ExitIndex: j}
			}
		} else {
			if !pos.BreakEvenDone && c.Low <= pos.EntryPrice-pos.RiskPerUnit {
				pos.BreakEvenDone = true
				if be := pos.EntryPrice * (1 - cfg.BreakEvenBufferFraction); be < pos.Stop {
					pos.Stop = be
				}
			}
			if c.Low < pos.EntryPrice-pos.TrailDistance {
				if t := c.Low + pos.TrailDistance; t < pos.Stop {
					pos.Stop = t
				}
			}
			if c.High >= pos.Stop {
				fill := math.Max(pos.Stop, c.Open)
				return ExitOutcome{ExitPrice: fill * (1 + cfg.SlippageFraction), ExitIndex: j}
			}
		}
	}
	last := len(dayCandles) - 1
	return ExitOutcome{ExitPrice: dayCandles[last].Close, ExitIndex: last, Forced: true}
}

// CloseTrade settles a walked-out position into an immutable trade record.
// Costs are the fixed per-trade charge plus the transaction tax on the
// sell-leg turnover: the exit leg for longs, the entry leg for shorts.
func CloseTrade(cfg *Config, symbol, dayKey string, pos Position, exit ExitOutcome) TradeRecord {
	qty := float64(pos.Quantity)
	var gross, sellTurnover float64
	if pos.Direction == Long {
		gross = (exit.ExitPrice - pos.EntryPrice) * qty
		sellTurnover = exit.ExitPrice * qty
	} else {
		gross = (pos.EntryPrice - exit.ExitPrice) * qty
		sellTurnover = pos.EntryPrice * qty
	}
	costs := cfg.FixedCostPerTrade + sellTurnover*cfg.SellSideTaxFraction
	net := gross - costs

	r := 0.0
	if pos.RiskAmount > 0 {
		r = net / pos.RiskAmount
	}
	return TradeRecord{
		Symbol:    symbol,
		Day:       dayKey,
		Direction: pos.Direction.String(),
		Entry:     pos.EntryPrice,
		Exit:      exit.ExitPrice,
		Quantity:  pos.Quantity,
		GrossPnl:  gross,
		Costs:     costs,
		NetPnl:    net,
		RMultiple: r,
		ForcedEOD: exit.Forced,
	}
}
