package backtest

import (
	"fmt"
	"io"
	"time"

	"github.com/rustyeddy/backtest/sim"
)

// EquityPoint is one observation of account equity, taken once per tick.
type EquityPoint struct {
	Time   time.Time
	Equity float64
}

// Result is everything a run produces: the closed-trade ledger in close
// order, the equity curve, and the derived metrics.
type Result struct {
	Start time.Time
	End   time.Time

	Trades      []sim.ClosedTrade
	EquityCurve []EquityPoint
	Metrics     Metrics
}

// PrintSummary writes a human-readable block of the run's headline numbers.
func PrintSummary(w io.Writer, strategy string, r *Result) {
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Backtest Result")
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintf(w, "Strategy:      %s\n", strategy)
	fmt.Fprintf(w, "Start:         %s\n", r.Start.Format(time.RFC3339))
	fmt.Fprintf(w, "End:           %s\n", r.End.Format(time.RFC3339))

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Trade Statistics")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Trades:        %d\n", r.Metrics.TotalTrades)
	fmt.Fprintf(w, "Wins:          %d\n", r.Metrics.WinningTrades)
	fmt.Fprintf(w, "Losses:        %d\n", r.Metrics.LosingTrades)
	fmt.Fprintf(w, "Win Rate:      %.2f%%\n", r.Metrics.WinRate*100)
	fmt.Fprintf(w, "Profit Factor: %.2f\n", r.Metrics.ProfitFactor)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Performance")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "ROI:           %.2f%%\n", r.Metrics.ROI*100)
	fmt.Fprintf(w, "CAGR:          %.2f%%\n", r.Metrics.CAGR*100)
	fmt.Fprintf(w, "Max Drawdown:  %.2f%%\n", r.Metrics.MaxDrawdown*100)
	fmt.Fprintf(w, "Sharpe:        %.2f\n", r.Metrics.Sharpe)
}
