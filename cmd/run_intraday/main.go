package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"intraday-validator/pkg/config"
	"intraday-validator/pkg/logger"
	"intraday-validator/services/engine"
	"intraday-validator/services/marketdata"
	"intraday-validator/services/report"
)

func main() {
	cfgPath := flag.String("config", "", "Path to YAML config (defaults apply when empty)")
	dataDir := flag.String("data", "", "Override the data directory for json/csv sources")
	tradesOut := flag.String("trades", "", "Write every logged trade to this CSV file")
	saveResults := flag.Bool("save-results", false, "Write per-symbol records back to ClickHouse")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *dataDir != "" {
		cfg.Data.Dir = *dataDir
	}

	log, err := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := run(context.Background(), cfg, log, *tradesOut, *saveResults); err != nil {
		log.Error().Err(err).Msg("run failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger, tradesOut string, saveResults bool) error {
	ecfg := cfg.Strategy.Engine()

	bySymbol, store, err := loadData(ctx, cfg, log)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}
	if len(bySymbol) == 0 {
		return fmt.Errorf("no candle data found for source %q", cfg.Data.Source)
	}

	series := make(map[string]*engine.Series, len(bySymbol))
	for sym, days := range bySymbol {
		series[sym] = engine.BuildSeries(sym, days, ecfg.MinBarsPerDay)
	}
	log.Info().
		Int("symbols", len(series)).
		Str("source", cfg.Data.Source).
		Int("workers", cfg.Workers).
		Msg("starting validation")

	recs, err := engine.RunAll(&ecfg, series, cfg.Workers, log)
	if err != nil {
		return err
	}

	report.Render(os.Stdout, report.Aggregate(recs), recs)

	if tradesOut != "" {
		f, err := os.Create(tradesOut)
		if err != nil {
			return fmt.Errorf("create trades file: %w", err)
		}
		defer f.Close()
		if err := report.WriteTradesCSV(f, recs); err != nil {
			return err
		}
		log.Info().Str("path", tradesOut).Msg("trade log exported")
	}

	if saveResults {
		if store == nil {
			return fmt.Errorf("-save-results needs the clickhouse data source")
		}
		if err := store.EnsureResultsTable(ctx); err != nil {
			return err
		}
		if err := store.SaveRecords(ctx, recs); err != nil {
			return err
		}
		log.Info().Int("records", len(recs)).Msg("results saved to clickhouse")
	}
	return nil
}

// loadData fetches day-partitioned candles for every configured symbol. For
// the clickhouse source the opened store is returned too so the caller can
// write results back over the same connection.
func loadData(ctx context.Context, cfg *config.Config, log zerolog.Logger) (map[string]map[string][]engine.Candle, *marketdata.CandleStore, error) {
	switch cfg.Data.Source {
	case "clickhouse":
		ch := cfg.Data.ClickHouse
		store, err := marketdata.OpenStore(ctx, marketdata.StoreConfig{
			Addr:         ch.Addr,
			Database:     ch.Database,
			Table:        ch.Table,
			ResultsTable: ch.ResultsTable,
			User:         ch.User,
			Password:     ch.Password,
			Interval:     ch.Interval,
		})
		if err != nil {
			return nil, nil, err
		}
		if len(cfg.Data.Symbols) == 0 {
			store.Close()
			return nil, nil, fmt.Errorf("clickhouse source needs data.symbols")
		}
		out := make(map[string]map[string][]engine.Candle, len(cfg.Data.Symbols))
		for _, sym := range cfg.Data.Symbols {
			days, err := store.LoadDays(ctx, sym, ch.FromMs, ch.ToMs)
			if err != nil {
				store.Close()
				return nil, nil, err
			}
			if len(days) == 0 {
				log.Warn().Str("symbol", sym).Msg("no candles in range")
				continue
			}
			out[sym] = days
		}
		return out, store, nil

	case "csv":
		out, err := marketdata.LoadCSVDir(cfg.Data.Dir)
		return filterSymbols(out, cfg.Data.Symbols), nil, err

	default: // json
		out, err := marketdata.LoadDir(cfg.Data.Dir)
		return filterSymbols(out, cfg.Data.Symbols), nil, err
	}
}

// filterSymbols trims a loaded universe down to an explicit symbol list.
// An empty list means everything found on disk.
func filterSymbols(all map[string]map[string][]engine.Candle, symbols []string) map[string]map[string][]engine.Candle {
	if len(symbols) == 0 || all == nil {
		return all
	}
	out := make(map[string]map[string][]engine.Candle, len(symbols))
	for _, sym := range symbols {
		if days, ok := all[sym]; ok {
			out[sym] = days
		}
	}
	return out
}
