package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"intraday-validator/pkg/config"
	"intraday-validator/pkg/logger"
	"intraday-validator/services/engine"
	"intraday-validator/services/marketdata"
	"intraday-validator/services/report"
)

// Capital-split portfolio runner: each configured sleeve gets its fraction of
// the initial capital and a full independent simulation over the same data,
// then the per-sleeve summaries roll up into a combined total.
func main() {
	cfgPath := flag.String("config", "", "Path to YAML config (must carry a portfolio section)")
	dataDir := flag.String("data", "", "Override the data directory")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *dataDir != "" {
		cfg.Data.Dir = *dataDir
	}
	if len(cfg.Portfolio) == 0 {
		fmt.Fprintln(os.Stderr, "portfolio allocations required; add a portfolio section to the config")
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := run(context.Background(), cfg, log); err != nil {
		log.Error().Err(err).Msg("portfolio run failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	bySymbol, err := loadDays(cfg)
	if err != nil {
		return err
	}
	if len(bySymbol) == 0 {
		return fmt.Errorf("no candle data found in %s", cfg.Data.Dir)
	}

	base := cfg.Strategy.Engine()
	series := make(map[string]*engine.Series, len(bySymbol))
	for sym, days := range bySymbol {
		series[sym] = engine.BuildSeries(sym, days, base.MinBarsPerDay)
	}

	p := message.NewPrinter(language.English)
	combined := decimal.Zero
	for _, alloc := range cfg.Portfolio {
		sleeve := base
		sleeve.InitialCapital = base.InitialCapital * alloc.Fraction

		log.Info().
			Str("sleeve", alloc.Name).
			Float64("fraction", alloc.Fraction).
			Float64("capital", sleeve.InitialCapital).
			Msg("running sleeve")

		recs, err := engine.RunAll(&sleeve, series, cfg.Workers, log)
		if err != nil {
			return fmt.Errorf("sleeve %s: %w", alloc.Name, err)
		}
		sum := report.Aggregate(recs)
		combined = combined.Add(sum.NetPnl)

		p.Printf("\n======== sleeve: %s (%.0f%% of capital) ========\n",
			alloc.Name, alloc.Fraction*100)
		report.Render(os.Stdout, sum, recs)
	}

	p.Printf("\n======== combined ========\n")
	p.Printf("Portfolio net P&L: ₹%.0f on ₹%.0f capital (%.2f%%)\n",
		combined.InexactFloat64(),
		base.InitialCapital,
		combined.InexactFloat64()/base.InitialCapital*100)
	return nil
}

func loadDays(cfg *config.Config) (map[string]map[string][]engine.Candle, error) {
	switch cfg.Data.Source {
	case "clickhouse":
		return nil, fmt.Errorf("portfolio runs read day files; use the json or csv source")
	case "csv":
		return marketdata.LoadCSVDir(cfg.Data.Dir)
	default:
		return marketdata.LoadDir(cfg.Data.Dir)
	}
}
