package marketdata

import (
	"context"
	"fmt"
	"time"

	clickhouse "github.com/ClickHouse/clickhouse-go/v2"
	chdriver "github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/shopspring/decimal"

	"intraday-validator/services/engine"
)

// StoreConfig holds the ClickHouse connection and table naming.
type StoreConfig struct {
	Addr         string
	Database     string
	Table        string
	ResultsTable string
	User         string
	Password     string
	Interval     string // bar interval stored in the candle table, e.g. "5m"
}

// CandleStore reads day-partitioned candles from ClickHouse and writes run
// results back. Prices arrive as decimal strings and convert at this
// boundary; the engine consumes plain float64 candles.
type CandleStore struct {
	cfg  StoreConfig
	conn chdriver.Conn
}

func OpenStore(ctx context.Context, cfg StoreConfig) (*CandleStore, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.User,
			Password: cfg.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 120,
		},
		DialTimeout: 10 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("clickhouse open: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("clickhouse ping %s: %w", cfg.Addr, err)
	}
	return &CandleStore{cfg: cfg, conn: conn}, nil
}

func (s *CandleStore) Close() error { return s.conn.Close() }

// LoadDays loads the [fromMs, toMs) bars of one symbol and buckets them into
// UTC calendar days keyed YYYY-MM-DD. Rows that fail decimal parsing are
// dropped; a malformed row never aborts a run.
func (s *CandleStore) LoadDays(ctx context.Context, symbol string, fromMs, toMs int64) (map[string][]engine.Candle, error) {
	query := fmt.Sprintf(`
SELECT open_time_ms,
       toString(open), toString(high), toString(low), toString(close), toString(volume)
FROM %s.%s
WHERE symbol = ? AND interval = ? AND open_time_ms >= ? AND open_time_ms < ?
ORDER BY open_time_ms`, s.cfg.Database, s.cfg.Table)

	rows, err := s.conn.Query(ctx, query, symbol, s.cfg.Interval, fromMs, toMs)
	if err != nil {
		return nil, fmt.Errorf("query candles for %s: %w", symbol, err)
	}
	defer rows.Close()

	days := make(map[string][]engine.Candle)
	for rows.Next() {
		var (
			ts            uint64
			o, h, l, c, v string
		)
		if err := rows.Scan(&ts, &o, &h, &l, &c, &v); err != nil {
			return nil, fmt.Errorf("scan candle row for %s: %w", symbol, err)
		}
		bar, err := parseBar(int64(ts), o, h, l, c, v)
		if err != nil {
			continue
		}
		key := time.UnixMilli(bar.Timestamp).UTC().Format("2006-01-02")
		days[key] = append(days[key], bar)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candles for %s: %w", symbol, err)
	}
	sortDays(days)
	return days, nil
}

func parseBar(ts int64, o, h, l, c, v string) (engine.Candle, error) {
	fields := [5]string{o, h, l, c, v}
	var out [5]float64
	for i, f := range fields {
		d, err := decimal.NewFromString(f)
		if err != nil {
			return engine.Candle{}, fmt.Errorf("bad decimal %q: %w", f, err)
		}
		out[i] = d.InexactFloat64()
	}
	return engine.Candle{
		Timestamp: ts,
		Open:      out[0],
		High:      out[1],
		Low:       out[2],
		Close:     out[3],
		Volume:    out[4],
	}, nil
}

// EnsureResultsTable creates the results table when missing.
func (s *CandleStore) EnsureResultsTable(ctx context.Context) error {
	ddl := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s.%s (
    run_at               DateTime DEFAULT now(),
    symbol               String,
    trades               UInt32,
    wins                 UInt32,
    win_rate             Float64,
    net_pnl              Float64,
    total_return         Float64,
    max_drawdown         Float64,
    avg_r_multiple       Float64,
    final_equity         Float64,
    kill_switch_triggers UInt32
) ENGINE = MergeTree
ORDER BY (symbol, run_at)`, s.cfg.Database, s.cfg.ResultsTable)
	if err := s.conn.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ensure results table: %w", err)
	}
	return nil
}

// SaveRecords batch-inserts one run's per-symbol records.
func (s *CandleStore) SaveRecords(ctx context.Context, recs []*engine.PerformanceRecord) error {
	if len(recs) == 0 {
		return nil
	}
	stmt := fmt.Sprintf(`INSERT INTO %s.%s
(symbol, trades, wins, win_rate, net_pnl, total_return, max_drawdown, avg_r_multiple, final_equity, kill_switch_triggers)`,
		s.cfg.Database, s.cfg.ResultsTable)
	batch, err := s.conn.PrepareBatch(ctx, stmt)
	if err != nil {
		return fmt.Errorf("prepare results batch: %w", err)
	}
	for _, r := range recs {
		err := batch.Append(
			r.Symbol,
			uint32(r.Trades),
			uint32(r.Wins),
			r.WinRate,
			r.NetPnl,
			r.TotalReturn,
			r.MaxDrawdown,
			r.AvgRMultiple,
			r.FinalEquity,
			uint32(r.RiskMetrics.KillSwitchTriggers),
		)
		if err != nil {
			return fmt.Errorf("append result for %s: %w", r.Symbol, err)
		}
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("send results batch: %w", err)
	}
	return nil
}
