package config

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"intraday-validator/services/engine"
)

var validate = validator.New()

// Config is the full file-level configuration for a validation run.
type Config struct {
	Data      DataConfig     `yaml:"data"`
	Strategy  StrategyConfig `yaml:"strategy"`
	Workers   int            `yaml:"workers" validate:"gte=0"`
	Log       LogConfig      `yaml:"log"`
	Portfolio []Allocation   `yaml:"portfolio" validate:"dive"`
}

type DataConfig struct {
	Source     string           `yaml:"source" default:"json" validate:"oneof=json csv clickhouse"`
	Dir        string           `yaml:"dir" default:"data/tv_data"`
	Symbols    []string         `yaml:"symbols"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
}

type ClickHouseConfig struct {
	Addr         string `yaml:"addr" default:"localhost:9000"`
	Database     string `yaml:"database" default:"backtest"`
	Table        string `yaml:"table" default:"data"`
	ResultsTable string `yaml:"results_table" default:"intraday_results"`
	User         string `yaml:"user" default:"default"`
	Password     string `yaml:"password"`
	Interval     string `yaml:"interval" default:"5m"`
	FromMs       int64  `yaml:"from_ms"`
	ToMs         int64  `yaml:"to_ms"`
}

type LogConfig struct {
	Level  string `yaml:"level" default:"info"`
	Format string `yaml:"format" default:"console" validate:"oneof=console json"`
}

// Allocation is one portfolio sleeve: a named slice of the capital.
type Allocation struct {
	Name     string  `yaml:"name" validate:"required"`
	Fraction float64 `yaml:"fraction" validate:"gt=0,lte=1"`
}

// StrategyConfig mirrors engine.Config with yaml, default and validation
// tags. Defaults follow the NSE 5-minute setup the validator was built
// around: 75 bars per session, first hour of 12 bars.
type StrategyConfig struct {
	InitialCapital             float64 `yaml:"initial_capital" default:"500000" validate:"gt=0"`
	RiskPerTradeFraction       float64 `yaml:"risk_per_trade_fraction" default:"0.003" validate:"gt=0,lte=1"`
	MaxTradesPerDay            int     `yaml:"max_trades_per_day" default:"2" validate:"gt=0"`
	MaxDailyLossFraction       float64 `yaml:"max_daily_loss_fraction" default:"0.01" validate:"gt=0,lte=1"`
	KillSwitchDrawdownFraction float64 `yaml:"kill_switch_drawdown_fraction" default:"0.05" validate:"gte=0,lte=1"`
	KillSwitchPauseDays        int     `yaml:"kill_switch_pause_days" default:"5" validate:"gt=0"`

	EMAFastPeriod int `yaml:"ema_fast_period" default:"13" validate:"gt=0"`
	EMASlowPeriod int `yaml:"ema_slow_period" default:"34" validate:"gt=0"`
	ATRPeriod     int `yaml:"atr_period" default:"14" validate:"gt=0"`
	ADXPeriod     int `yaml:"adx_period" default:"14" validate:"gt=0"`

	TrailingATRMultiple float64 `yaml:"trailing_atr_multiple" default:"1.5" validate:"gt=0"`
	SlippageFraction    float64 `yaml:"slippage_fraction" default:"0.0005" validate:"gte=0,lte=1"`
	FixedCostPerTrade   float64 `yaml:"fixed_cost_per_trade" default:"40" validate:"gte=0"`
	SellSideTaxFraction float64 `yaml:"sell_side_tax_fraction" default:"0.001" validate:"gte=0,lte=1"`

	RegimeWindowBars        int     `yaml:"regime_window_bars" default:"60" validate:"gt=0"`
	TrendEMAPeriod          int     `yaml:"trend_ema_period" default:"25" validate:"gt=0"`
	SlopeLookbackBars       int     `yaml:"slope_lookback_bars" default:"10" validate:"gt=0"`
	SwingLookbackBars       int     `yaml:"swing_lookback_bars" default:"10" validate:"gt=0"`
	ExitWalkBars            int     `yaml:"exit_walk_bars" default:"40" validate:"gt=0"`
	FirstHourBars           int     `yaml:"first_hour_bars" default:"12" validate:"gt=0"`
	MinBarsPerDay           int     `yaml:"min_bars_per_day" default:"20" validate:"gt=0"`
	StopATRFraction         float64 `yaml:"stop_atr_fraction" default:"0.5" validate:"gte=0"`
	BreakEvenBufferFraction float64 `yaml:"break_even_buffer_fraction" default:"0.001" validate:"gte=0,lte=1"`

	DisableVolatilityGate   bool `yaml:"disable_volatility_gate"`
	DisableTrendGate        bool `yaml:"disable_trend_gate"`
	DisableConfirmationGate bool `yaml:"disable_confirmation_gate"`
	DisableQualityGate      bool `yaml:"disable_quality_gate"`
}

// Engine converts the file-level strategy section into the engine's config.
func (s StrategyConfig) Engine() engine.Config {
	return engine.Config{
		InitialCapital:             s.InitialCapital,
		RiskPerTradeFraction:       s.RiskPerTradeFraction,
		MaxTradesPerDay:            s.MaxTradesPerDay,
		MaxDailyLossFraction:       s.MaxDailyLossFraction,
		KillSwitchDrawdownFraction: s.KillSwitchDrawdownFraction,
		KillSwitchPauseDays:        s.KillSwitchPauseDays,
		EMAFastPeriod:              s.EMAFastPeriod,
		EMASlowPeriod:              s.EMASlowPeriod,
		ATRPeriod:                  s.ATRPeriod,
		ADXPeriod:                  s.ADXPeriod,
		TrailingATRMultiple:        s.TrailingATRMultiple,
		SlippageFraction:           s.SlippageFraction,
		FixedCostPerTrade:          s.FixedCostPerTrade,
		SellSideTaxFraction:        s.SellSideTaxFraction,
		RegimeWindowBars:           s.RegimeWindowBars,
		TrendEMAPeriod:             s.TrendEMAPeriod,
		SlopeLookbackBars:          s.SlopeLookbackBars,
		SwingLookbackBars:          s.SwingLookbackBars,
		ExitWalkBars:               s.ExitWalkBars,
		FirstHourBars:              s.FirstHourBars,
		MinBarsPerDay:              s.MinBarsPerDay,
		StopATRFraction:            s.StopATRFraction,
		BreakEvenBufferFraction:    s.BreakEvenBufferFraction,
		DisableVolatilityGate:      s.DisableVolatilityGate,
		DisableTrendGate:           s.DisableTrendGate,
		DisableConfirmationGate:    s.DisableConfirmationGate,
		DisableQualityGate:         s.DisableQualityGate,
	}
}

// Load reads the YAML file at path (an empty path means defaults only),
// applies struct defaults on top of whatever the file left unset, then env
// overrides, and validates the result. A missing .env is fine; the explicit
// environment always wins for credentials.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		blob, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(blob, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	if err := defaults.Set(&cfg); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	applyEnv(&cfg)

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	if err := validatePortfolio(cfg.Portfolio); err != nil {
		return nil, err
	}
	ec := cfg.Strategy.Engine()
	if err := ec.Validate(); err != nil {
		return nil, fmt.Errorf("strategy config: %w", err)
	}
	return &cfg, nil
}

func validatePortfolio(allocs []Allocation) error {
	if len(allocs) == 0 {
		return nil
	}
	sum := 0.0
	for _, a := range allocs {
		sum += a.Fraction
	}
	if math.Abs(sum-1) > 1e-9 {
		return fmt.Errorf("portfolio fractions sum to %v, want 1", sum)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("CLICKHOUSE_ADDR"); v != "" {
		cfg.Data.ClickHouse.Addr = v
	}
	if v := os.Getenv("CLICKHOUSE_DB"); v != "" {
		cfg.Data.ClickHouse.Database = v
	}
	if v := os.Getenv("CLICKHOUSE_USER"); v != "" {
		cfg.Data.ClickHouse.User = v
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		cfg.Data.ClickHouse.Password = v
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Data.Dir = v
	}
	if v := os.Getenv("SYMBOLS"); v != "" {
		parts := strings.Split(v, ",")
		cfg.Data.Symbols = cfg.Data.Symbols[:0]
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				cfg.Data.Symbols = append(cfg.Data.Symbols, p)
			}
		}
	}
}
