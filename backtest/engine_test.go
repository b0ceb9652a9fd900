package backtest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/backtest/market"
	"github.com/rustyeddy/backtest/risk"
	"github.com/rustyeddy/backtest/sim"
	"github.com/rustyeddy/backtest/strategies"
)

const enginePair = "BTC/USDT"

var engineT0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// openOnce emits a single fixed signal on the first tick and stays quiet
// afterwards.
type openOnce struct {
	sig  strategies.Signal
	done bool
}

func (o *openOnce) Name() string { return "open-once" }

func (o *openOnce) GenerateSignals(now time.Time, snap *market.Snapshot) []strategies.Signal {
	if o.done {
		return nil
	}
	o.done = true
	return []strategies.Signal{o.sig}
}

func dataWithCloses(closes []float64) *market.SeriesSet {
	bars := make([]market.Bar, len(closes))
	for i, c := range closes {
		bars[i] = market.Bar{
			Time:   engineT0.Add(time.Duration(i) * 5 * time.Minute),
			Open:   c,
			High:   c,
			Low:    c,
			Close:  c,
			Volume: 1,
		}
	}
	set := market.NewSeriesSet()
	set.Add(market.NewSeries(enginePair, "5m", bars))
	return set
}

func testRisk() risk.Params {
	return risk.Params{
		MaxRiskPerTrade:      0.01,
		MaxPositionSizePct:   0.02,
		MaxTotalExposure:     0.70,
		MaxConsecutiveLosses: 3,
		MaxDrawdownPct:       0.10,
	}
}

func testOptions(data *market.SeriesSet, strat strategies.Strategy, ticks int) Options {
	return Options{
		InitialCapital:      10000,
		Start:               engineT0,
		End:                 engineT0.Add(time.Duration(ticks) * 5 * time.Minute),
		PrimaryTimeframe:    "5m",
		MaxPositionDuration: 48 * time.Hour,
		Risk:                testRisk(),
		Data:                data,
		Strategy:            strat,
	}
}

func longSignal(entry, stopPct, tpPct, trailingPct float64) strategies.Signal {
	return strategies.Signal{
		Pair:            enginePair,
		Side:            market.Long,
		EntryPrice:      entry,
		StopLoss:        entry * (1 - stopPct),
		TakeProfit1:     entry * (1 + tpPct),
		TakeProfit2:     entry * (1 + 2*tpPct),
		TrailingStopPct: trailingPct,
	}
}

func TestNewEngineRejectsBadOptions(t *testing.T) {
	t.Parallel()

	data := dataWithCloses([]float64{100})

	cases := map[string]func(*Options){
		"no data":         func(o *Options) { o.Data = nil },
		"no strategy":     func(o *Options) { o.Strategy = nil },
		"no capital":      func(o *Options) { o.InitialCapital = 0 },
		"no timeframe":    func(o *Options) { o.PrimaryTimeframe = "" },
		"inverted window": func(o *Options) { o.End = o.Start.Add(-time.Hour) },
		"no trade risk":   func(o *Options) { o.Risk.MaxRiskPerTrade = 0 },
		"no loss limit":   func(o *Options) { o.Risk.MaxConsecutiveLosses = 0 },
		"no drawdown cap": func(o *Options) { o.Risk.MaxDrawdownPct = 0 },
		"no exposure cap": func(o *Options) { o.Risk.MaxTotalExposure = 0 },
		"negative hold":   func(o *Options) { o.MaxPositionDuration = -time.Hour },
		"no size cap":     func(o *Options) { o.Risk.MaxPositionSizePct = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			opts := testOptions(data, strategies.Noop{}, 10)
			mutate(&opts)
			_, err := NewEngine(opts)
			assert.ErrorIs(t, err, ErrConfig)
		})
	}

	_, err := NewEngine(testOptions(data, strategies.Noop{}, 10))
	assert.NoError(t, err)
}

func TestRunEquityCurveIsOrderedAndBounded(t *testing.T) {
	t.Parallel()

	data := dataWithCloses([]float64{100, 101, 102, 103, 104, 105})
	opts := testOptions(data, strategies.Noop{}, 10)

	engine, err := NewEngine(opts)
	require.NoError(t, err)
	res := engine.Run(context.Background())

	require.NotEmpty(t, res.EquityCurve)
	for i, p := range res.EquityCurve {
		assert.False(t, p.Time.Before(opts.Start))
		assert.False(t, p.Time.After(opts.End))
		if i > 0 {
			assert.True(t, res.EquityCurve[i-1].Time.Before(p.Time))
		}
	}
}

func TestRunForcedCloseAtEnd(t *testing.T) {
	t.Parallel()

	// Constant price: no stop, target, or trailing level is ever crossed.
	data := dataWithCloses([]float64{100, 100, 100, 100, 100, 100, 100, 100, 100, 100})
	strat := &openOnce{sig: longSignal(100, 0.05, 0.05, 0)}

	engine, err := NewEngine(testOptions(data, strat, 10))
	require.NoError(t, err)
	res := engine.Run(context.Background())

	require.Len(t, res.Trades, 1)
	tr := res.Trades[0]
	assert.Equal(t, sim.ReasonEndOfBacktest, tr.ExitReason)
	assert.Equal(t, engineT0.Add(45*time.Minute), tr.ExitTime)
	assert.False(t, tr.ExitTime.Before(tr.EntryTime))
	assert.Equal(t, 0.0, tr.ProfitLoss)
}

func TestRunTrailingStopScenario(t *testing.T) {
	t.Parallel()

	// Entry at 100, run-up to 110 arms the trailing stop at 110*0.99,
	// and the drop to exactly that level exits.
	data := dataWithCloses([]float64{100, 105, 110, 108.9, 120})
	strat := &openOnce{sig: longSignal(100, 0.5, 2.0, 0.01)}

	engine, err := NewEngine(testOptions(data, strat, 10))
	require.NoError(t, err)
	res := engine.Run(context.Background())

	require.Len(t, res.Trades, 1)
	tr := res.Trades[0]
	assert.Equal(t, sim.ReasonTrailingStop, tr.ExitReason)
	assert.Equal(t, 108.9, tr.ExitPrice)
	assert.Equal(t, engineT0.Add(15*time.Minute), tr.ExitTime)
}

func TestRunIsDeterministic(t *testing.T) {
	t.Parallel()

	data := dataWithCloses([]float64{100, 104, 96, 101, 99, 103, 97, 105, 100, 98})

	run := func() *Result {
		strat := &openOnce{sig: longSignal(100, 0.03, 0.04, 0.01)}
		engine, err := NewEngine(testOptions(data, strat, 10))
		require.NoError(t, err)
		return engine.Run(context.Background())
	}

	first := run()
	second := run()

	assert.Equal(t, first.Trades, second.Trades)
	assert.Equal(t, first.EquityCurve, second.EquityCurve)
	assert.Equal(t, first.Metrics, second.Metrics)
}

func TestRunCancelledContext(t *testing.T) {
	t.Parallel()

	data := dataWithCloses([]float64{100, 101, 102})
	strat := &openOnce{sig: longSignal(100, 0.05, 0.05, 0)}

	engine, err := NewEngine(testOptions(data, strat, 10))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := engine.Run(ctx)

	// No ticks processed, only the seed equity point survives.
	require.Len(t, res.EquityCurve, 1)
	assert.Equal(t, 10000.0, res.EquityCurve[0].Equity)
	assert.Empty(t, res.Trades)
}

func TestRunRejectsAfterConsecutiveLosses(t *testing.T) {
	t.Parallel()

	// Each entry is stopped out two ticks later; after three losses the
	// gate must refuse the fourth signal.
	closes := []float64{100, 94, 100, 94, 100, 94, 100, 94, 100, 94}
	data := dataWithCloses(closes)

	strat := &everyRecovery{}
	opts := testOptions(data, strat, 10)
	// Keep the drawdown rule out of the way so only the loss streak gates.
	opts.Risk.MaxDrawdownPct = 0.90
	engine, err := NewEngine(opts)
	require.NoError(t, err)
	res := engine.Run(context.Background())

	require.Len(t, res.Trades, 3)
	for _, tr := range res.Trades {
		assert.Equal(t, sim.ReasonStopLoss, tr.ExitReason)
		assert.LessOrEqual(t, tr.ProfitLoss, 0.0)
	}
}

// everyRecovery signals a long every time price is back at 100 and no
// position is open, entering straight into the next stop-out.
type everyRecovery struct {
	open bool
}

func (s *everyRecovery) Name() string { return "every-recovery" }

func (s *everyRecovery) GenerateSignals(now time.Time, snap *market.Snapshot) []strategies.Signal {
	price := snap.ClosePrice(enginePair)
	if price == 100 && !s.open {
		s.open = true
		return []strategies.Signal{longSignal(100, 0.05, 0.5, 0)}
	}
	if price != 100 {
		s.open = false
	}
	return nil
}
