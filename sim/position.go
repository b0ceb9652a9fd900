// Package sim owns the lifecycle of simulated positions: entry, per-tick
// exit evaluation against a single authoritative price stream, and realized
// P&L on close. The simulator is the only writer of position state.
package sim

import (
	"time"

	"github.com/rustyeddy/backtest/market"
)

// ExitReason identifies which rule closed a position.
type ExitReason string

const (
	ReasonStopLoss      ExitReason = "STOP_LOSS"
	ReasonTakeProfit1   ExitReason = "TAKE_PROFIT1"
	ReasonTakeProfit2   ExitReason = "TAKE_PROFIT2"
	ReasonTrailingStop  ExitReason = "TRAILING_STOP"
	ReasonTimeLimit     ExitReason = "TIME_LIMIT"
	ReasonEndOfBacktest ExitReason = "END_OF_BACKTEST"
)

// Position is one open position. It is mutable only by the Simulator.
type Position struct {
	ID         string
	Pair       string
	Side       market.Side
	EntryPrice float64
	EntryTime  time.Time
	Size       float64

	StopLoss        float64
	TakeProfit1     float64
	TakeProfit2     float64
	TrailingStopPct float64

	// Trailing state. TrailingStop is meaningful only once TrailingActive.
	TrailingStop   float64
	TrailingActive bool
	HighestPrice   float64
	LowestPrice    float64

	TP1Hit bool
	TP2Hit bool
}

// Notional returns the position's entry notional value.
func (p *Position) Notional() float64 { return p.EntryPrice * p.Size }

// ProfitLoss returns the P&L of closing the full position at price.
func (p *Position) ProfitLoss(price float64) float64 {
	pl := (price - p.EntryPrice) / p.EntryPrice * p.Size * p.EntryPrice
	if p.Side == market.Short {
		return -pl
	}
	return pl
}

// ClosedTrade is the immutable ledger entry for a closed position.
type ClosedTrade struct {
	ID         string
	Pair       string
	Side       market.Side
	Size       float64
	EntryPrice float64
	EntryTime  time.Time
	ExitPrice  float64
	ExitTime   time.Time
	ExitReason ExitReason
	ProfitLoss float64
}
