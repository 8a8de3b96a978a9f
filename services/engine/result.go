package engine

// TradeRecord is the immutable result of one closed position.
type TradeRecord struct {
	Symbol    string  `json:"symbol"`
	Day       string  `json:"day"`
	Direction string  `json:"direction"`
	Entry     float64 `json:"entry"`
	Exit      float64 `json:"exit"`
	Quantity  int64   `json:"quantity"`
	GrossPnl  float64 `json:"gross_pnl"`
	Costs     float64 `json:"costs"`
	NetPnl    float64 `json:"net_pnl"`
	RMultiple float64 `json:"r_multiple"`
	ForcedEOD bool    `json:"forced_eod"`
}

// RiskMetrics counts why decision points and days were refused.
type RiskMetrics struct {
	VolatilitySkips        int `json:"volatility_skips"`
	TrendGateSkips         int `json:"trend_gate_skips"`
	EntryConfirmationSkips int `json:"entry_confirmation_skips"`
	QualityScoreSkips      int `json:"quality_score_skips"`
	DailyLossBreaches      int `json:"daily_loss_breaches"`
	KillSwitchTriggers     int `json:"kill_switch_triggers"`
}

// PerformanceRecord is the per-symbol result of a full simulation.
// win_rate, total_return and max_drawdown are fractions, not percentages.
type PerformanceRecord struct {
	Symbol                  string      `json:"symbol"`
	Trades                  int         `json:"trades"`
	Wins                    int         `json:"wins"`
	WinRate                 float64     `json:"win_rate"`
	NetPnl                  float64     `json:"net_pnl"`
	GrossProfit             float64     `json:"gross_profit"`
	GrossLoss               float64     `json:"gross_loss"`
	TotalReturn             float64     `json:"total_return"`
	MaxDrawdown             float64     `json:"max_drawdown"`
	AvgTrade                float64     `json:"avg_trade"`
	AvgRMultiple            float64     `json:"avg_r_multiple"`
	TradingDaysWithActivity int         `json:"trading_days_with_activity"`
	FinalEquity             float64     `json:"final_equity"`
	RiskMetrics             RiskMetrics `json:"risk_metrics"`
	TradeLog                []TradeRecord `json:"trade_log,omitempty"`
}
