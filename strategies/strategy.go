// Package strategies holds the signal generators driven by the backtest
// loop. A strategy never touches positions directly: it reads the market
// snapshot for one tick and emits entry signals, which the engine sizes,
// risk-checks, and opens.
package strategies

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/backtest/market"
)

// Signal is an entry request carrying the full exit plan. Sizing is left to
// the engine's risk gate.
type Signal struct {
	Pair            string
	Side            market.Side
	EntryPrice      float64
	StopLoss        float64
	TakeProfit1     float64
	TakeProfit2     float64
	TrailingStopPct float64
}

// Strategy is the interface the engine calls once per tick.
type Strategy interface {
	Name() string

	// GenerateSignals inspects the snapshot and returns zero or more entry
	// signals for this tick. It must only read history visible at now.
	GenerateSignals(now time.Time, snap *market.Snapshot) []Signal
}

// ByName builds a strategy from its config-file name.
func ByName(name string, cfg *Config, log *zap.Logger) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "noop", "none":
		return Noop{}, nil

	case "scalping":
		return NewScalping(cfg, log), nil

	default:
		return nil, fmt.Errorf("unknown strategy %q (supported: noop, scalping)", name)
	}
}
