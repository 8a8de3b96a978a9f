package engine

import "testing"

func trendingWindow(n int) []Candle {
	var out []Candle
	price := 100.0
	for i := 0; i < n; i++ {
		out = append(out, Candle{Open: price, High: price + 0.6, Low: price - 0.1, Close: price + 0.5, Volume: 1000})
		price += 0.5
	}
	return out
}

func TestClassifyRegimeTrending(t *testing.T) {
	r := ClassifyRegime(trendingWindow(60), 14)
	if r.Label != RegimeTrending || !r.ShouldTrade {
		t.Fatalf("got %v (trade=%v), want TRENDING", r.Label, r.ShouldTrade)
	}
	if r.MinTrendSlope != 0.005 || r.MinQualityScore != 0.4 || r.MinFirstHourATRFraction != 0.3 {
		t.Fatalf("trending thresholds wrong: %+v", r)
	}
}

func TestClassifyRegimeChoppyOnFlat(t *testing.T) {
	r := ClassifyRegime(flatBars(60, 100), 14)
	if r.Label != RegimeChoppy || r.ShouldTrade {
		t.Fatalf("got %v (trade=%v), want CHOPPY with no trading", r.Label, r.ShouldTrade)
	}
	if !r.Available() {
		t.Fatal("flat window has a real ADX reading, should be available")
	}
}

func TestClassifyRegimeUnavailable(t *testing.T) {
	r := ClassifyRegime(flatBars(10, 100), 14)
	if r.Label != RegimeChoppy || r.ShouldTrade {
		t.Fatalf("short window must classify CHOPPY, got %v", r.Label)
	}
	if r.Available() {
		t.Fatal("short window cannot have an ADX reading")
	}
}

func TestClassifyRegimeDeterministic(t *testing.T) {
	w := trendingWindow(60)
	a := ClassifyRegime(w, 14)
	b := ClassifyRegime(w, 14)
	if a != b {
		t.Fatalf("same window classified differently: %+v vs %+v", a, b)
	}
}
