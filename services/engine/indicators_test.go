package engine

import (
	"math"
	"testing"
)

func constClose(n int, price float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = price
	}
	return out
}

func TestEMAConstantSeries(t *testing.T) {
	got := EMA(constClose(40, 123.45), 14)
	if got != 123.45 {
		t.Fatalf("EMA of constant series = %v, want 123.45", got)
	}
}

func TestEMAKnownValue(t *testing.T) {
	// seed = mean(1,2,3) = 2, k = 0.5, then 2 + 0.5*(4-2) = 3
	got := EMA([]float64{1, 2, 3, 4}, 3)
	if got != 3 {
		t.Fatalf("EMA = %v, want 3", got)
	}
}

func TestEMAInsufficientData(t *testing.T) {
	if got := EMA([]float64{1, 2}, 3); !math.IsNaN(got) {
		t.Fatalf("EMA on short input = %v, want NaN", got)
	}
	if got := EMA(nil, 5); !math.IsNaN(got) {
		t.Fatalf("EMA on nil input = %v, want NaN", got)
	}
}

func TestATRConstantTrueRange(t *testing.T) {
	// Every bar spans exactly one point and opens inside the prior range,
	// so the true range is 1 throughout.
	var candles []Candle
	for i := 0; i < 20; i++ {
		candles = append(candles, Candle{Open: 100.2, High: 101, Low: 100, Close: 100.5, Volume: 1000})
	}
	if got := ATR(candles, 14); got != 1 {
		t.Fatalf("ATR of constant-range series = %v, want 1", got)
	}
}

func TestATRShortWindowAveragesAvailable(t *testing.T) {
	candles := []Candle{
		{Open: 100, High: 101, Low: 100, Close: 100.5, Volume: 1},
		{Open: 100.5, High: 102, Low: 100, Close: 101, Volume: 1},
	}
	// one true range available: high-low = 2
	if got := ATR(candles, 14); got != 2 {
		t.Fatalf("ATR = %v, want 2", got)
	}
}

func TestATRUnavailable(t *testing.T) {
	if got := ATR([]Candle{{Open: 1, High: 2, Low: 1, Close: 1}}, 14); !math.IsNaN(got) {
		t.Fatalf("ATR on single bar = %v, want NaN", got)
	}
}

func TestATRMalformedBarPoisons(t *testing.T) {
	candles := []Candle{
		{Open: 100, High: 101, Low: 100, Close: 100.5, Volume: 1},
		{Open: 100, High: 99, Low: 100, Close: 100, Volume: 1}, // high below low
		{Open: 100, High: 101, Low: 100, Close: 100.5, Volume: 1},
	}
	if got := ATR(candles, 14); !math.IsNaN(got) {
		t.Fatalf("ATR over malformed bar = %v, want NaN", got)
	}
}

func TestADXUnavailableOnShortWindow(t *testing.T) {
	var candles []Candle
	for i := 0; i < 20; i++ {
		candles = append(candles, Candle{Open: 100, High: 101, Low: 99, Close: 100, Volume: 1})
	}
	if got := ADX(candles, 14); !math.IsNaN(got) {
		t.Fatalf("ADX on 20 bars with period 14 = %v, want NaN", got)
	}
}

func TestADXStrongTrendReadsHigh(t *testing.T) {
	var candles []Candle
	price := 100.0
	for i := 0; i < 60; i++ {
		candles = append(candles, Candle{
			Open: price, High: price + 0.6, Low: price - 0.1, Close: price + 0.5, Volume: 1000,
		})
		price += 0.5
	}
	got := ADX(candles, 14)
	if math.IsNaN(got) || got < adxTrendingMin {
		t.Fatalf("ADX of a clean uptrend = %v, want >= %v", got, adxTrendingMin)
	}
}

func TestADXFlatSeriesReadsZero(t *testing.T) {
	var candles []Candle
	for i := 0; i < 60; i++ {
		candles = append(candles, Candle{Open: 100, High: 100, Low: 100, Close: 100, Volume: 1000})
	}
	if got := ADX(candles, 14); got != 0 {
		t.Fatalf("ADX of a flat series = %v, want 0", got)
	}
}

func TestTrendSlope(t *testing.T) {
	if got := TrendSlope(constClose(40, 100), 13, 5); got != 0 {
		t.Fatalf("slope of constant closes = %v, want 0", got)
	}
	rising := make([]float64, 40)
	for i := range rising {
		rising[i] = 100 + float64(i)
	}
	if got := TrendSlope(rising, 13, 5); !(got > 0) {
		t.Fatalf("slope of rising closes = %v, want > 0", got)
	}
	if got := TrendSlope(constClose(10, 100), 13, 5); !math.IsNaN(got) {
		t.Fatalf("slope on short input = %v, want NaN", got)
	}
}
