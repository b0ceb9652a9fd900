// Package backtest drives the chronological replay loop: build the merged
// timeline, snapshot the market at each tick, evaluate exits, solicit
// strategy signals, admit entries through the risk gate, and record equity.
// One run is a single deterministic pass over the timeline.
package backtest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/backtest/market"
	"github.com/rustyeddy/backtest/risk"
	"github.com/rustyeddy/backtest/sim"
	"github.com/rustyeddy/backtest/strategies"
)

// ErrConfig marks options the engine refuses to start with. It is fatal
// before the loop runs; nothing mid-loop returns it.
var ErrConfig = errors.New("backtest: invalid configuration")

// Options fully describes one run.
type Options struct {
	InitialCapital float64
	Start          time.Time
	End            time.Time

	// PrimaryTimeframe is the series used to price open positions.
	PrimaryTimeframe string

	// MaxPositionDuration force-closes positions held longer than this.
	// Zero disables the time limit.
	MaxPositionDuration time.Duration

	Risk     risk.Params
	Data     *market.SeriesSet
	Strategy strategies.Strategy
	Logger   *zap.Logger
}

func (o *Options) validate() error {
	switch {
	case o.Data == nil:
		return fmt.Errorf("%w: market data is required", ErrConfig)
	case o.Strategy == nil:
		return fmt.Errorf("%w: strategy is required", ErrConfig)
	case o.InitialCapital <= 0:
		return fmt.Errorf("%w: initial capital must be positive, got %v", ErrConfig, o.InitialCapital)
	case o.PrimaryTimeframe == "":
		return fmt.Errorf("%w: primary timeframe is required", ErrConfig)
	case o.End.Before(o.Start):
		return fmt.Errorf("%w: end %s before start %s", ErrConfig, o.End.Format(time.RFC3339), o.Start.Format(time.RFC3339))
	case o.MaxPositionDuration < 0:
		return fmt.Errorf("%w: max position duration must not be negative", ErrConfig)
	case o.Risk.MaxRiskPerTrade <= 0:
		return fmt.Errorf("%w: max_risk_per_trade must be positive", ErrConfig)
	case o.Risk.MaxPositionSizePct <= 0:
		return fmt.Errorf("%w: max_position_size_pct must be positive", ErrConfig)
	case o.Risk.MaxTotalExposure <= 0:
		return fmt.Errorf("%w: max_total_exposure must be positive", ErrConfig)
	case o.Risk.MaxConsecutiveLosses <= 0:
		return fmt.Errorf("%w: max_consecutive_losses must be positive", ErrConfig)
	case o.Risk.MaxDrawdownPct <= 0:
		return fmt.Errorf("%w: max_drawdown_pct must be positive", ErrConfig)
	}
	return nil
}

// Engine replays the data window through the strategy. Each Run builds
// fresh simulator and gate state, so one engine can run repeatedly with
// identical results.
type Engine struct {
	opts Options
	log  *zap.Logger
}

func NewEngine(opts Options) (*Engine, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{opts: opts, log: log}, nil
}

// Run executes the full loop. Cancelling the context stops the timeline
// early; positions open at that point are still force-closed and the result
// up to the cancellation point is returned.
func (e *Engine) Run(ctx context.Context) *Result {
	o := e.opts

	provider := market.NewSnapshotProvider(o.Data, o.PrimaryTimeframe, e.log)
	gate := risk.NewGate(o.Risk, e.log)
	simulator := sim.NewSimulator(o.InitialCapital, o.MaxPositionDuration, e.log)

	timeline := BuildTimeline(o.Data, o.Start, o.End)
	e.log.Info("starting run",
		zap.String("strategy", o.Strategy.Name()),
		zap.Int("ticks", len(timeline)),
		zap.Time("start", o.Start),
		zap.Time("end", o.End))

	curve := []EquityPoint{{Time: o.Start, Equity: o.InitialCapital}}
	gate.ObserveEquity(o.InitialCapital)

	lastTick := o.Start
	var lastSnap *market.Snapshot

	for _, tick := range timeline {
		if ctx.Err() != nil {
			e.log.Info("run cancelled", zap.Time("at", tick))
			break
		}

		snap := provider.At(tick)
		lastTick, lastSnap = tick, snap

		for _, tr := range simulator.EvaluateExits(snap, tick) {
			gate.RecordClose(tr.ProfitLoss)
		}

		equity := simulator.Equity(snap)
		for _, sig := range o.Strategy.GenerateSignals(tick, snap) {
			e.tryOpen(gate, simulator, sig, equity, tick)
		}

		equity = simulator.Equity(snap)
		if n := len(curve); curve[n-1].Time.Equal(tick) {
			curve[n-1].Equity = equity
		} else {
			curve = append(curve, EquityPoint{Time: tick, Equity: equity})
		}
		gate.ObserveEquity(equity)
	}

	if lastSnap == nil {
		lastSnap = provider.At(lastTick)
	}
	for _, tr := range simulator.CloseAll(lastSnap, lastTick, sim.ReasonEndOfBacktest) {
		gate.RecordClose(tr.ProfitLoss)
	}

	trades := simulator.Ledger()
	e.log.Info("run finished",
		zap.Int("trades", len(trades)),
		zap.Float64("final_equity", curve[len(curve)-1].Equity))

	return &Result{
		Start:       o.Start,
		End:         o.End,
		Trades:      trades,
		EquityCurve: curve,
		Metrics:     computeMetrics(o.InitialCapital, curve, trades),
	}
}

func (e *Engine) tryOpen(gate *risk.Gate, simulator *sim.Simulator, sig strategies.Signal, equity float64, now time.Time) {
	if !sig.Side.Valid() || sig.EntryPrice <= 0 {
		e.log.Warn("dropping malformed signal",
			zap.String("pair", sig.Pair),
			zap.String("side", string(sig.Side)),
			zap.Float64("entry", sig.EntryPrice))
		return
	}

	if !gate.CanOpen(simulator.Exposures(), equity) {
		return
	}

	size := gate.PositionSize(equity, sig.EntryPrice, sig.StopLoss)
	if size <= 0 {
		return
	}

	simulator.Open(sig.Pair, sig.Side, sig.EntryPrice, size,
		sig.StopLoss, sig.TakeProfit1, sig.TakeProfit2, sig.TrailingStopPct, now)
}
