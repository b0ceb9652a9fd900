// Package risk decides whether new positions may open and how large they
// may be. The gate is stateful: it tracks the consecutive-loss streak and
// the equity peak observed so far, and rejects entries once any configured
// limit is breached.
package risk

import (
	"go.uber.org/zap"
)

// Params are the gate's limits. All percentages are fractions (0.10 = 10%).
type Params struct {
	MaxRiskPerTrade      float64 `json:"max_risk_per_trade" yaml:"max_risk_per_trade"`
	MaxPositionSizePct   float64 `json:"max_position_size_pct" yaml:"max_position_size_pct"`
	MaxTotalExposure     float64 `json:"max_total_exposure" yaml:"max_total_exposure"`
	MaxConsecutiveLosses int     `json:"max_consecutive_losses" yaml:"max_consecutive_losses"`
	MaxDrawdownPct       float64 `json:"max_drawdown_pct" yaml:"max_drawdown_pct"`
}

// State is the gate's mutable risk state, updated after every trade close
// and every equity observation.
type State struct {
	ConsecutiveLosses int
	PeakEquity        float64
	CurrentDrawdown   float64
}

// OpenPosition is the read-only view of an open position the gate needs for
// exposure accounting.
type OpenPosition struct {
	EntryPrice float64
	Size       float64
}

// Notional returns the position's notional value in quote currency.
func (p OpenPosition) Notional() float64 { return p.EntryPrice * p.Size }

// Gate evaluates admission rules for new positions.
type Gate struct {
	params Params
	state  State
	log    *zap.Logger
}

// NewGate returns a gate with zeroed state. A nil logger is replaced with a
// no-op logger.
func NewGate(params Params, log *zap.Logger) *Gate {
	if log == nil {
		log = zap.NewNop()
	}
	return &Gate{params: params, log: log}
}

// State returns a copy of the current risk state.
func (g *Gate) State() State { return g.state }

// ObserveEquity records one equity observation, raising the running peak and
// recomputing the current drawdown.
func (g *Gate) ObserveEquity(equity float64) {
	if equity > g.state.PeakEquity {
		g.state.PeakEquity = equity
	}
	if g.state.PeakEquity > 0 {
		g.state.CurrentDrawdown = (g.state.PeakEquity - equity) / g.state.PeakEquity
	}
}

// RecordClose updates the consecutive-loss streak for a closed trade:
// a non-positive P&L extends the streak, a win resets it.
func (g *Gate) RecordClose(profitLoss float64) {
	if profitLoss <= 0 {
		g.state.ConsecutiveLosses++
		return
	}
	g.state.ConsecutiveLosses = 0
}

// CanOpen reports whether a new position may open given the open-position
// exposure and the current equity. Any single breached limit rejects.
func (g *Gate) CanOpen(open []OpenPosition, currentEquity float64) bool {
	if g.state.ConsecutiveLosses >= g.params.MaxConsecutiveLosses {
		g.log.Info("rejecting entry: consecutive loss limit reached",
			zap.Int("consecutive_losses", g.state.ConsecutiveLosses),
			zap.Int("max", g.params.MaxConsecutiveLosses))
		return false
	}

	if g.state.PeakEquity > 0 {
		drawdown := (g.state.PeakEquity - currentEquity) / g.state.PeakEquity
		if drawdown > g.params.MaxDrawdownPct {
			g.log.Info("rejecting entry: drawdown limit exceeded",
				zap.Float64("drawdown", drawdown),
				zap.Float64("max", g.params.MaxDrawdownPct))
			return false
		}
	}

	var exposure float64
	for _, p := range open {
		exposure += p.Notional()
	}
	if exposure >= currentEquity*g.params.MaxTotalExposure {
		g.log.Info("rejecting entry: exposure limit reached",
			zap.Float64("exposure", exposure),
			zap.Float64("limit", currentEquity*g.params.MaxTotalExposure))
		return false
	}

	return true
}

// PositionSize computes risk-based sizing: the fraction of capital risked if
// the stop is hit caps the raw size, and the result is further capped by the
// maximum position size. Degenerate inputs (zero entry, zero stop, zero stop
// distance) yield size 0 with a warning; callers must not open on size 0.
func (g *Gate) PositionSize(capital, entryPrice, stopLoss float64) float64 {
	if entryPrice == 0 || stopLoss == 0 {
		g.log.Warn("cannot size position: entry price or stop loss is zero",
			zap.Float64("entry", entryPrice),
			zap.Float64("stop", stopLoss))
		return 0
	}

	riskedFraction := abs(entryPrice-stopLoss) / entryPrice
	if riskedFraction == 0 {
		g.log.Warn("cannot size position: zero stop distance",
			zap.Float64("entry", entryPrice))
		return 0
	}

	size := (capital * g.params.MaxRiskPerTrade) / riskedFraction

	if max := capital * g.params.MaxPositionSizePct; size > max {
		size = max
	}
	return size
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
