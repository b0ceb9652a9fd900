package backtest

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rustyeddy/backtest/sim"
)

func curveOf(start time.Time, step time.Duration, equities ...float64) []EquityPoint {
	curve := make([]EquityPoint, len(equities))
	for i, eq := range equities {
		curve[i] = EquityPoint{Time: start.Add(time.Duration(i) * step), Equity: eq}
	}
	return curve
}

func TestMetricsWinLossScenario(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	curve := curveOf(start, 24*time.Hour, 10000, 10500, 10300)
	trades := []sim.ClosedTrade{
		{ProfitLoss: 500},
		{ProfitLoss: -200},
	}

	m := computeMetrics(10000, curve, trades)
	assert.InDelta(t, 0.03, m.ROI, 1e-9)
	assert.Equal(t, 0.5, m.WinRate)
	assert.InDelta(t, 2.5, m.ProfitFactor, 1e-9)
	assert.Equal(t, 2, m.TotalTrades)
	assert.Equal(t, 1, m.WinningTrades)
	assert.Equal(t, 1, m.LosingTrades)
	// Peak 10500 down to 10300.
	assert.InDelta(t, 200.0/10500.0, m.MaxDrawdown, 1e-9)
}

func TestMetricsEmptyLedger(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	m := computeMetrics(10000, curveOf(start, time.Minute, 10000), nil)
	assert.Zero(t, m.WinRate)
	assert.Zero(t, m.ProfitFactor)
	assert.Zero(t, m.Sharpe)
	assert.Zero(t, m.ROI)
	assert.Zero(t, m.TotalTrades)

	// No curve at all degrades the same way.
	m = computeMetrics(10000, nil, nil)
	assert.Zero(t, m.ROI)
	assert.Zero(t, m.CAGR)
	assert.Zero(t, m.MaxDrawdown)
}

func TestMetricsProfitFactorNoLosses(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	curve := curveOf(start, 24*time.Hour, 10000, 10500)

	m := computeMetrics(10000, curve, []sim.ClosedTrade{{ProfitLoss: 500}})
	assert.True(t, math.IsInf(m.ProfitFactor, 1))
	assert.Equal(t, 1.0, m.WinRate)
}

func TestMetricsCAGR(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	// Doubling over exactly one year.
	curve := curveOf(start, 365*24*time.Hour, 10000, 20000)
	m := computeMetrics(10000, curve, nil)
	assert.InDelta(t, 1.0, m.CAGR, 1e-9)

	// Same-day curve: zero days spanned, CAGR collapses to 0.
	curve = curveOf(start, time.Minute, 10000, 10100)
	m = computeMetrics(10000, curve, nil)
	assert.Zero(t, m.CAGR)
}

func TestMetricsSharpe(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	// Flat equity: zero deviation, sharpe must be 0 rather than NaN.
	m := computeMetrics(10000, curveOf(start, time.Hour, 10000, 10000, 10000), nil)
	assert.Zero(t, m.Sharpe)

	// Steadily alternating returns give a finite positive or negative value.
	m = computeMetrics(10000, curveOf(start, time.Hour, 10000, 10100, 10050, 10150), nil)
	assert.False(t, math.IsNaN(m.Sharpe))
	assert.False(t, math.IsInf(m.Sharpe, 0))
}
