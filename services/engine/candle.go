package engine

import (
	"math"
	"sort"
)

// Candle is one intraday OHLCV bar. Prices stay plain float64 inside the
// engine; decimal handling lives at the storage and report boundaries.
type Candle struct {
	Timestamp int64 // unix millis, bar open time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// Sane reports whether the bar is usable for indicator math.
func (c Candle) Sane() bool {
	for _, v := range [5]float64{c.Open, c.High, c.Low, c.Close, c.Volume} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return c.High >= c.Low && c.Volume >= 0
}

// DayBounds marks one trading day inside the flat candle sequence.
// The half-open range [Start, End) indexes Series.Candles.
type DayBounds struct {
	Start int
	End   int
	Key   string // YYYY-MM-DD
}

// Series is one symbol's full history: every surviving trading day
// concatenated into a single globally indexed candle sequence plus the day
// boundary table. The flat layout makes trailing lookback slicing O(1) even
// when the window crosses day edges, while day-scoped logic walks the bounds.
type Series struct {
	Symbol  string
	Candles []Candle
	Days    []DayBounds
}

// BuildSeries flattens day-partitioned candles into a Series. Day keys are
// processed in ascending lexicographic order, which for YYYY-MM-DD keys is
// chronological order. Days carrying fewer than minBars candles are dropped,
// not errored: a holiday half-session is routine, not exceptional.
// Returns nil when no day survives.
func BuildSeries(symbol string, days map[string][]Candle, minBars int) *Series {
	keys := make([]string, 0, len(days))
	for k := range days {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	s := &Series{Symbol: symbol}
	for _, k := range keys {
		cs := days[k]
		if len(cs) < minBars {
			continue
		}
		start := len(s.Candles)
		s.Candles = append(s.Candles, cs...)
		s.Days = append(s.Days, DayBounds{Start: start, End: len(s.Candles), Key: k})
	}
	if len(s.Days) == 0 {
		return nil
	}
	return s
}

// Lookback returns the trailing window ending at global index g inclusive,
// at most n bars long. The window freely crosses day boundaries; near the
// start of history it is simply shorter.
func (s *Series) Lookback(g, n int) []Candle {
	lo := g + 1 - n
	if lo < 0 {
		lo = 0
	}
	return s.Candles[lo : g+1]
}

// Day returns the candles of trading day d.
func (s *Series) Day(d int) []Candle {
	b := s.Days[d]
	return s.Candles[b.Start:b.End]
}

// Closes extracts the close column from a window.
func Closes(cs []Candle) []float64 {
	out := make([]float64, len(cs))
	for i, c := range cs {
		out[i] = c.Close
	}
	return out
}

// SwingRange returns the highest high and lowest low of the trailing n bars
// of the window. Any unusable bar poisons the whole range to NaN.
func SwingRange(window []Candle, n int) (hi, lo float64) {
	if len(window) == 0 || n <= 0 {
		return math.NaN(), math.NaN()
	}
	if len(window) > n {
		window = window[len(window)-n:]
	}
	hi, lo = math.Inf(-1), math.Inf(1)
	for _, c := range window {
		if !c.Sane() {
			return math.NaN(), math.NaN()
		}
		if c.High > hi {
			hi = c.High
		}
		if c.Low < lo {
			lo = c.Low
		}
	}
	return hi, lo
}
