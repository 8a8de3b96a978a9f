package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"intraday-validator/services/engine"
)

// Summary aggregates per-symbol performance records into run-level totals.
// Money totals accumulate as decimals so a large universe of symbols does not
// smear cents across the report.
type Summary struct {
	Symbols       int
	Trades        int
	Wins          int
	WinRate       float64
	NetPnl        decimal.Decimal
	GrossProfit   decimal.Decimal
	GrossLoss     decimal.Decimal
	ProfitFactor  decimal.Decimal
	AvgRMultiple  float64
	WorstDrawdown float64
	Risk          engine.RiskMetrics
}

func Aggregate(recs []*engine.PerformanceRecord) Summary {
	var sum Summary
	totalR := 0.0
	for _, r := range recs {
		if r == nil {
			continue
		}
		sum.Symbols++
		sum.Trades += r.Trades
		sum.Wins += r.Wins
		sum.NetPnl = sum.NetPnl.Add(decimal.NewFromFloat(r.NetPnl))
		sum.GrossProfit = sum.GrossProfit.Add(decimal.NewFromFloat(r.GrossProfit))
		sum.GrossLoss = sum.GrossLoss.Add(decimal.NewFromFloat(r.GrossLoss))
		totalR += r.AvgRMultiple * float64(r.Trades)
		if r.MaxDrawdown > sum.WorstDrawdown {
			sum.WorstDrawdown = r.MaxDrawdown
		}
		sum.Risk.VolatilitySkips += r.RiskMetrics.VolatilitySkips
		sum.Risk.TrendGateSkips += r.RiskMetrics.TrendGateSkips
		sum.Risk.EntryConfirmationSkips += r.RiskMetrics.EntryConfirmationSkips
		sum.Risk.QualityScoreSkips += r.RiskMetrics.QualityScoreSkips
		sum.Risk.DailyLossBreaches += r.RiskMetrics.DailyLossBreaches
		sum.Risk.KillSwitchTriggers += r.RiskMetrics.KillSwitchTriggers
	}
	if sum.Trades > 0 {
		sum.WinRate = float64(sum.Wins) / float64(sum.Trades)
		sum.AvgRMultiple = totalR / float64(sum.Trades)
	}
	if sum.GrossLoss.IsPositive() {
		sum.ProfitFactor = sum.GrossProfit.Div(sum.GrossLoss).Round(2)
	}
	return sum
}

const topPerformers = 5

// Render writes the human-readable run report: aggregate block, gate skip
// counters, and the top performers table. Amounts print with Indian-market
// grouping via the locale-aware printer.
func Render(w io.Writer, sum Summary, recs []*engine.PerformanceRecord) {
	p := message.NewPrinter(language.English)

	p.Fprintf(w, "==== INTRADAY VALIDATION ====\n")
	p.Fprintf(w, "Symbols:            %d\n", sum.Symbols)
	p.Fprintf(w, "Trades:             %d (%d wins, %.1f%% win rate)\n",
		sum.Trades, sum.Wins, sum.WinRate*100)
	p.Fprintf(w, "Net P&L:            ₹%.0f\n", sum.NetPnl.InexactFloat64())
	p.Fprintf(w, "Gross profit/loss:  ₹%.0f / ₹%.0f\n",
		sum.GrossProfit.InexactFloat64(), sum.GrossLoss.InexactFloat64())
	if sum.ProfitFactor.IsPositive() {
		p.Fprintf(w, "Profit factor:      %s\n", sum.ProfitFactor)
	}
	p.Fprintf(w, "Avg R multiple:     %.2f\n", sum.AvgRMultiple)
	p.Fprintf(w, "Worst drawdown:     %.2f%%\n", sum.WorstDrawdown*100)

	p.Fprintf(w, "\n---- gate skips ----\n")
	p.Fprintf(w, "volatility: %d  trend: %d  confirmation: %d  quality: %d\n",
		sum.Risk.VolatilitySkips, sum.Risk.TrendGateSkips,
		sum.Risk.EntryConfirmationSkips, sum.Risk.QualityScoreSkips)
	p.Fprintf(w, "daily-loss breaks: %d  kill-switch triggers: %d\n",
		sum.Risk.DailyLossBreaches, sum.Risk.KillSwitchTriggers)

	top := TopBy(recs, topPerformers, func(r *engine.PerformanceRecord) float64 { return r.NetPnl })
	if len(top) > 0 {
		p.Fprintf(w, "\n---- top performers ----\n")
		for i, r := range top {
			p.Fprintf(w, "%d. %-12s trades=%-4d win=%.0f%%  pnl=₹%.0f  r=%.2f\n",
				i+1, r.Symbol, r.Trades, r.WinRate*100, r.NetPnl, r.AvgRMultiple)
		}
	}
}

// TopBy returns the n highest records by score, leaving recs untouched.
func TopBy(recs []*engine.PerformanceRecord, n int, score func(*engine.PerformanceRecord) float64) []*engine.PerformanceRecord {
	out := make([]*engine.PerformanceRecord, 0, len(recs))
	for _, r := range recs {
		if r != nil {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return score(out[i]) > score(out[j]) })
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// WriteTradesCSV exports every logged trade as one CSV row.
func WriteTradesCSV(w io.Writer, recs []*engine.PerformanceRecord) error {
	cw := csv.NewWriter(w)
	header := []string{"symbol", "day", "direction", "entry", "exit", "quantity",
		"gross_pnl", "costs", "net_pnl", "r_multiple", "forced_eod"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range recs {
		if r == nil {
			continue
		}
		for _, tr := range r.TradeLog {
			row := []string{
				tr.Symbol,
				tr.Day,
				tr.Direction,
				strconv.FormatFloat(tr.Entry, 'f', 4, 64),
				strconv.FormatFloat(tr.Exit, 'f', 4, 64),
				strconv.FormatInt(tr.Quantity, 10),
				strconv.FormatFloat(tr.GrossPnl, 'f', 2, 64),
				strconv.FormatFloat(tr.Costs, 'f', 2, 64),
				strconv.FormatFloat(tr.NetPnl, 'f', 2, 64),
				strconv.FormatFloat(tr.RMultiple, 'f', 3, 64),
				strconv.FormatBool(tr.ForcedEOD),
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("write trade row: %w", err)
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
