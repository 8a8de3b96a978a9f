package marketdata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"intraday-validator/services/engine"
)

// Per-symbol JSON day files: candles pre-partitioned by trading day under a
// top-level "days" object. Timestamps appear either as unix millis/seconds or
// as ISO-style strings depending on which exporter produced the file.
type dayFile struct {
	Symbol string                     `json:"symbol"`
	Days   map[string][]dayFileCandle `json:"days"`
}

type dayFileCandle struct {
	Timestamp int64
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

var dayFileTimeLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

func (c *dayFileCandle) UnmarshalJSON(b []byte) error {
	var raw struct {
		Timestamp json.RawMessage `json:"timestamp"`
		Open      float64         `json:"open"`
		High      float64         `json:"high"`
		Low       float64         `json:"low"`
		Close     float64         `json:"close"`
		Volume    float64         `json:"volume"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	c.Open, c.High, c.Low, c.Close, c.Volume = raw.Open, raw.High, raw.Low, raw.Close, raw.Volume

	ts, err := parseTimestamp(raw.Timestamp)
	if err != nil {
		return err
	}
	c.Timestamp = ts
	return nil
}

func parseTimestamp(raw json.RawMessage) (int64, error) {
	if len(raw) == 0 {
		return 0, nil
	}
	s := strings.Trim(string(raw), `"`)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return normalizeMillis(n), nil
	}
	for _, layout := range dayFileTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UnixMilli(), nil
		}
	}
	return 0, fmt.Errorf("unrecognized timestamp %q", s)
}

// normalizeMillis upgrades second-precision stamps to millis.
func normalizeMillis(n int64) int64 {
	if n > 0 && n < 100_000_000_000 {
		return n * 1000
	}
	return n
}

// LoadDayFile reads one symbol's day file.
func LoadDayFile(path string) (map[string][]engine.Candle, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f dayFile
	if err := json.Unmarshal(blob, &f); err != nil {
		return nil, fmt.Errorf("parse day file: %w", err)
	}
	days := make(map[string][]engine.Candle, len(f.Days))
	for key, cs := range f.Days {
		out := make([]engine.Candle, len(cs))
		for i, c := range cs {
			out[i] = engine.Candle{
				Timestamp: c.Timestamp,
				Open:      c.Open,
				High:      c.High,
				Low:       c.Low,
				Close:     c.Close,
				Volume:    c.Volume,
			}
		}
		days[key] = out
	}
	sortDays(days)
	return days, nil
}

// Aggregate files that live next to the per-symbol exports.
var skipDataFiles = map[string]bool{
	"summary.json":     true,
	"all_symbols.json": true,
}

// LoadDir reads every per-symbol day file in dir, keyed by the file's base
// name. Aggregate files are ignored and a symbol whose file yields no days
// simply has no entry; absence of data is not an error here.
func LoadDir(dir string) (map[string]map[string][]engine.Candle, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read data dir: %w", err)
	}
	out := make(map[string]map[string][]engine.Candle)
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") || skipDataFiles[name] {
			continue
		}
		days, err := LoadDayFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", name, err)
		}
		if len(days) > 0 {
			out[strings.TrimSuffix(name, ".json")] = days
		}
	}
	return out, nil
}

// sortDays orders every day's candles by open time.
func sortDays(days map[string][]engine.Candle) {
	for _, cs := range days {
		sort.Slice(cs, func(i, j int) bool { return cs[i].Timestamp < cs[j].Timestamp })
	}
}
