package backtest

import (
	"math"

	"github.com/rustyeddy/backtest/sim"
)

// Metrics are the headline statistics derived from a finished run. An empty
// ledger or a degenerate equity curve produces zero values, never a panic.
type Metrics struct {
	ROI          float64 `json:"roi"`
	CAGR         float64 `json:"cagr"`
	WinRate      float64 `json:"win_rate"`
	ProfitFactor float64 `json:"profit_factor"`
	MaxDrawdown  float64 `json:"max_drawdown"`
	Sharpe       float64 `json:"sharpe"`

	TotalTrades   int `json:"total_trades"`
	WinningTrades int `json:"winning_trades"`
	LosingTrades  int `json:"losing_trades"`
}

func computeMetrics(initial float64, curve []EquityPoint, trades []sim.ClosedTrade) Metrics {
	var m Metrics

	final := initial
	if len(curve) > 0 {
		final = curve[len(curve)-1].Equity
	}
	if initial > 0 {
		m.ROI = (final - initial) / initial
	}
	m.CAGR = cagr(initial, final, curve)

	m.TotalTrades = len(trades)
	sumProfit, sumLoss := 0.0, 0.0
	for _, tr := range trades {
		if tr.ProfitLoss > 0 {
			m.WinningTrades++
			sumProfit += tr.ProfitLoss
		} else {
			m.LosingTrades++
			sumLoss -= tr.ProfitLoss
		}
	}
	if m.TotalTrades > 0 {
		m.WinRate = float64(m.WinningTrades) / float64(m.TotalTrades)
		m.ProfitFactor = profitFactor(m.WinningTrades, m.LosingTrades, sumProfit, sumLoss)
	}

	m.MaxDrawdown = maxDrawdown(curve)
	m.Sharpe = sharpe(curve)
	return m
}

func cagr(initial, final float64, curve []EquityPoint) float64 {
	if initial <= 0 || final <= 0 || len(curve) < 2 {
		return 0
	}
	days := int(curve[len(curve)-1].Time.Sub(curve[0].Time).Hours() / 24)
	if days <= 0 {
		return 0
	}
	return math.Pow(final/initial, 365/float64(days)) - 1
}

// profitFactor is average profit over average loss, not total over total.
func profitFactor(wins, losses int, sumProfit, sumLoss float64) float64 {
	avgProfit := 0.0
	if wins > 0 {
		avgProfit = sumProfit / float64(wins)
	}
	avgLoss := 0.0
	if losses > 0 {
		avgLoss = sumLoss / float64(losses)
	}
	if avgLoss == 0 {
		if avgProfit > 0 {
			return math.Inf(1)
		}
		return 0
	}
	return avgProfit / avgLoss
}

func maxDrawdown(curve []EquityPoint) float64 {
	peak, worst := 0.0, 0.0
	for _, p := range curve {
		if p.Equity > peak {
			peak = p.Equity
		}
		if peak > 0 {
			dd := (peak - p.Equity) / peak
			if dd > worst {
				worst = dd
			}
		}
	}
	return worst
}

// sharpe annualizes per-tick equity returns with the stock-market day count
// regardless of tick spacing, matching the reference statistics.
func sharpe(curve []EquityPoint) float64 {
	if len(curve) < 2 {
		return 0
	}

	returns := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Equity
		if prev == 0 {
			continue
		}
		returns = append(returns, (curve[i].Equity-prev)/prev)
	}
	if len(returns) < 2 {
		return 0
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	std := math.Sqrt(variance / float64(len(returns)))
	if std == 0 {
		return 0
	}
	return mean / std * math.Sqrt(252)
}
