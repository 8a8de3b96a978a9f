package engine

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/rs/zerolog"
)

func testConfig() *Config {
	return &Config{
		InitialCapital:             500000,
		RiskPerTradeFraction:       0.003,
		MaxTradesPerDay:            2,
		MaxDailyLossFraction:       0.01,
		KillSwitchDrawdownFraction: 0.05,
		KillSwitchPauseDays:        5,
		EMAFastPeriod:              6,
		EMASlowPeriod:              13,
		ATRPeriod:                  5,
		ADXPeriod:                  5,
		TrailingATRMultiple:        1.5,
		SlippageFraction:           0.0005,
		FixedCostPerTrade:          40,
		SellSideTaxFraction:        0.001,
		RegimeWindowBars:           40,
		TrendEMAPeriod:             13,
		SlopeLookbackBars:          5,
		SwingLookbackBars:          5,
		ExitWalkBars:               40,
		FirstHourBars:              3,
		MinBarsPerDay:              5,
		StopATRFraction:            0.5,
		BreakEvenBufferFraction:    0.001,
	}
}

// breakoutSeries is a hand-built two-day history: a flat warm-up day followed
// by a day with a clean rise, a two-bar pullback, a confirming breakout bar
// and a rally that ratchets the trail. It produces exactly one long trade.
func breakoutSeries() *Series {
	b := func(o, h, l, c, v float64) Candle {
		return Candle{Open: o, High: h, Low: l, Close: c, Volume: v}
	}
	day2 := make([]Candle, 0, 16)
	price := 100.0
	for i := 0; i < 10; i++ { // steady rise, half a point per bar
		day2 = append(day2, b(price, price+0.6, price-0.1, price+0.5, 1000))
		price += 0.5
	}
	day2 = append(day2,
		b(105.0, 105.05, 103.2, 103.3, 1000),  // pullback bar one
		b(103.3, 103.35, 102.8, 103.0, 1000),  // pullback bar two
		b(103.1, 103.45, 103.0, 103.42, 1500), // confirming breakout, entry here
		b(103.42, 104.4, 103.3, 104.3, 1000),
		b(104.3, 105.5, 104.2, 105.4, 1000), // +1R and trail ratchet, stop-out
		b(105.4, 105.5, 105.2, 105.3, 1000),
	)
	return BuildSeries("RELIANCE", map[string][]Candle{
		"2025-01-01": flatBars(30, 100),
		"2025-01-02": day2,
	}, 5)
}

func TestRunSymbolBreakoutScenario(t *testing.T) {
	d, err := NewDriver(testConfig(), zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	rec := d.RunSymbol(breakoutSeries())
	if rec == nil {
		t.Fatal("expected a record")
	}
	if rec.Trades != 1 || len(rec.TradeLog) != 1 {
		t.Fatalf("got %d trades (%d logged), want exactly 1", rec.Trades, len(rec.TradeLog))
	}
	trade := rec.TradeLog[0]
	if trade.Direction != "LONG" {
		t.Fatalf("direction = %s, want LONG", trade.Direction)
	}
	if trade.Day != "2025-01-02" {
		t.Fatalf("trade day = %s", trade.Day)
	}
	if !(trade.RMultiple > 0) {
		t.Fatalf("r-multiple = %v, want > 0", trade.RMultiple)
	}
	if trade.ForcedEOD {
		t.Fatal("trade should stop out on the trail, not at the close")
	}
	// The two pullback bars fail confirmation before the breakout bar passes.
	if rec.RiskMetrics.EntryConfirmationSkips != 2 {
		t.Fatalf("confirmation skips = %d, want 2", rec.RiskMetrics.EntryConfirmationSkips)
	}
	if rec.Wins != 1 || rec.WinRate != 1 {
		t.Fatalf("wins = %d, win rate = %v", rec.Wins, rec.WinRate)
	}
	if rec.TradingDaysWithActivity != 1 {
		t.Fatalf("active days = %d, want 1", rec.TradingDaysWithActivity)
	}
}

func TestRunSymbolEquityIdentity(t *testing.T) {
	d, _ := NewDriver(testConfig(), zerolog.Nop())
	rec := d.RunSymbol(breakoutSeries())
	sum := 0.0
	for _, tr := range rec.TradeLog {
		sum += tr.NetPnl
	}
	if math.Abs(sum-(rec.FinalEquity-testConfig().InitialCapital)) > 1e-6 {
		t.Fatalf("sum of trade pnl %v != final equity delta %v", sum, rec.FinalEquity-testConfig().InitialCapital)
	}
	if math.Abs(rec.TotalReturn-rec.NetPnl/testConfig().InitialCapital) > 1e-12 {
		t.Fatalf("total return %v inconsistent with net pnl %v", rec.TotalReturn, rec.NetPnl)
	}
	if rec.MaxDrawdown < 0 || rec.MaxDrawdown > 1 {
		t.Fatalf("max drawdown = %v, outside [0,1]", rec.MaxDrawdown)
	}
}

func TestRunSymbolChoppyDayNeverTrades(t *testing.T) {
	osc := func(n int) []Candle {
		out := make([]Candle, n)
		for i := range out {
			if i%2 == 0 {
				out[i] = Candle{Open: 100.0, High: 100.3, Low: 99.9, Close: 100.2, Volume: 1000}
			} else {
				out[i] = Candle{Open: 100.2, High: 100.3, Low: 99.9, Close: 100.0, Volume: 1000}
			}
		}
		return out
	}
	s := BuildSeries("INFY", map[string][]Candle{
		"2025-01-01": osc(30),
		"2025-01-02": osc(30),
	}, 5)
	d, _ := NewDriver(testConfig(), zerolog.Nop())
	rec := d.RunSymbol(s)
	if rec.Trades != 0 {
		t.Fatalf("choppy series produced %d trades", rec.Trades)
	}
	if rec.RiskMetrics.TrendGateSkips == 0 {
		t.Fatal("expected refused decision points to be counted")
	}
	if rec.FinalEquity != testConfig().InitialCapital {
		t.Fatalf("equity moved without trades: %v", rec.FinalEquity)
	}
}

func TestRunSymbolKillSwitchBlocksEveryDay(t *testing.T) {
	cfg := testConfig()
	cfg.KillSwitchDrawdownFraction = 0 // any drawdown, including zero, trips
	d, err := NewDriver(cfg, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	rec := d.RunSymbol(breakoutSeries())
	if rec.Trades != 0 {
		t.Fatalf("paused governor still produced %d trades", rec.Trades)
	}
	if rec.RiskMetrics.KillSwitchTriggers == 0 {
		t.Fatal("expected at least one kill-switch trigger")
	}
}

func TestRunSymbolDeterministic(t *testing.T) {
	d, _ := NewDriver(testConfig(), zerolog.Nop())
	a := d.RunSymbol(breakoutSeries())
	b := d.RunSymbol(breakoutSeries())
	aj, _ := json.Marshal(a)
	bj, _ := json.Marshal(b)
	if string(aj) != string(bj) {
		t.Fatalf("two identical runs diverged:\n%s\n%s", aj, bj)
	}
}

func TestRunSymbolNilSeries(t *testing.T) {
	d, _ := NewDriver(testConfig(), zerolog.Nop())
	if rec := d.RunSymbol(nil); rec != nil {
		t.Fatalf("nil series must yield nil record, got %+v", rec)
	}
}

func TestMinimalVariantDisablesOptionalGates(t *testing.T) {
	cfg := testConfig()
	cfg.DisableVolatilityGate = true
	cfg.DisableTrendGate = true
	cfg.DisableConfirmationGate = true
	cfg.DisableQualityGate = true
	d, err := NewDriver(cfg, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	rec := d.RunSymbol(breakoutSeries())
	// With confirmation off the first pullback bar already enters.
	if rec.Trades == 0 {
		t.Fatal("minimal variant should trade at least once")
	}
	m := rec.RiskMetrics
	if m.VolatilitySkips != 0 || m.EntryConfirmationSkips != 0 || m.QualityScoreSkips != 0 {
		t.Fatalf("disabled gates still counted skips: %+v", m)
	}
}

func TestRunAllMergesSortedResults(t *testing.T) {
	series := map[string]*Series{
		"TCS":      breakoutSeries(),
		"RELIANCE": breakoutSeries(),
		"ABSENT":   nil,
	}
	series["TCS"].Symbol = "TCS"
	recs, err := RunAll(testConfig(), series, 4, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	if recs[0].Symbol != "RELIANCE" || recs[1].Symbol != "TCS" {
		t.Fatalf("records not sorted: %s, %s", recs[0].Symbol, recs[1].Symbol)
	}
	if recs[0].Trades != recs[1].Trades || recs[0].NetPnl != recs[1].NetPnl {
		t.Fatal("identical inputs produced different ledgers")
	}
}

func TestRunAllRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.InitialCapital = -1
	if _, err := RunAll(cfg, nil, 1, zerolog.Nop()); err == nil {
		t.Fatal("expected a validation error")
	}
}

func TestPerformanceRecordRoundTrip(t *testing.T) {
	d, _ := NewDriver(testConfig(), zerolog.Nop())
	rec := d.RunSymbol(breakoutSeries())
	blob, err := json.Marshal(rec)
	if err != nil {
		t.Fatal(err)
	}
	var back PerformanceRecord
	if err := json.Unmarshal(blob, &back); err != nil {
		t.Fatal(err)
	}
	if back.Trades != rec.Trades || len(back.TradeLog) != len(rec.TradeLog) {
		t.Fatalf("trade counts diverged after round trip: %d vs %d", back.Trades, rec.Trades)
	}
	if math.Abs(back.NetPnl-rec.NetPnl) > 1e-6 {
		t.Fatalf("net pnl diverged after round trip: %v vs %v", back.NetPnl, rec.NetPnl)
	}
}
