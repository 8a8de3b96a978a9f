package engine

import "fmt"

// Config carries every externally supplied simulation parameter. Defaulting
// lives at the configuration boundary; the engine only refuses values that
// would poison a whole run.
type Config struct {
	InitialCapital             float64
	RiskPerTradeFraction       float64
	MaxTradesPerDay            int
	MaxDailyLossFraction       float64
	KillSwitchDrawdownFraction float64
	KillSwitchPauseDays        int

	EMAFastPeriod int
	EMASlowPeriod int
	ATRPeriod     int
	ADXPeriod     int

	TrailingATRMultiple float64
	SlippageFraction    float64
	FixedCostPerTrade   float64
	SellSideTaxFraction float64

	RegimeWindowBars        int
	TrendEMAPeriod          int
	SlopeLookbackBars       int
	SwingLookbackBars       int
	ExitWalkBars            int
	FirstHourBars           int
	MinBarsPerDay           int
	StopATRFraction         float64
	BreakEvenBufferFraction float64

	// Optional gate stages. All enabled is the full filter chain; all
	// disabled leaves the minimal trend-plus-pullback machine.
	DisableVolatilityGate   bool
	DisableTrendGate        bool
	DisableConfirmationGate bool
	DisableQualityGate      bool
}

// Validate fails fast on parameters that have no sane interpretation.
func (c *Config) Validate() error {
	if c.InitialCapital <= 0 {
		return fmt.Errorf("initial capital must be positive, got %v", c.InitialCapital)
	}
	counts := []struct {
		name string
		v    int
	}{
		{"max_trades_per_day", c.MaxTradesPerDay},
		{"kill_switch_pause_days", c.KillSwitchPauseDays},
		{"ema_fast_period", c.EMAFastPeriod},
		{"ema_slow_period", c.EMASlowPeriod},
		{"atr_period", c.ATRPeriod},
		{"adx_period", c.ADXPeriod},
		{"regime_window_bars", c.RegimeWindowBars},
		{"trend_ema_period", c.TrendEMAPeriod},
		{"slope_lookback_bars", c.SlopeLookbackBars},
		{"swing_lookback_bars", c.SwingLookbackBars},
		{"exit_walk_bars", c.ExitWalkBars},
		{"first_hour_bars", c.FirstHourBars},
		{"min_bars_per_day", c.MinBarsPerDay},
	}
	for _, p := range counts {
		if p.v <= 0 {
			return fmt.Errorf("%s must be positive, got %d", p.name, p.v)
		}
	}
	fractions := []struct {
		name string
		v    float64
	}{
		{"risk_per_trade_fraction", c.RiskPerTradeFraction},
		{"max_daily_loss_fraction", c.MaxDailyLossFraction},
		{"kill_switch_drawdown_fraction", c.KillSwitchDrawdownFraction},
		{"slippage_fraction", c.SlippageFraction},
		{"sell_side_tax_fraction", c.SellSideTaxFraction},
		{"break_even_buffer_fraction", c.BreakEvenBufferFraction},
	}
	for _, p := range fractions {
		if p.v < 0 || p.v > 1 {
			return fmt.Errorf("%s must be a fraction in [0,1], got %v", p.name, p.v)
		}
	}
	if c.RiskPerTradeFraction == 0 {
		return fmt.Errorf("risk_per_trade_fraction must be positive")
	}
	if c.EMAFastPeriod >= c.EMASlowPeriod {
		return fmt.Errorf("ema_fast_period (%d) must be shorter than ema_slow_period (%d)",
			c.EMAFastPeriod, c.EMASlowPeriod)
	}
	if c.TrailingATRMultiple <= 0 {
		return fmt.Errorf("trailing_atr_multiple must be positive, got %v", c.TrailingATRMultiple)
	}
	if c.StopATRFraction < 0 {
		return fmt.Errorf("stop_atr_fraction must be non-negative, got %v", c.StopATRFraction)
	}
	if c.FixedCostPerTrade < 0 {
		return fmt.Errorf("fixed_cost_per_trade must be non-negative, got %v", c.FixedCostPerTrade)
	}
	return nil
}
