package strategies

import (
	"time"

	"github.com/rustyeddy/backtest/market"
)

// Noop emits no signals. Useful for exercising the loop, exits, and metrics
// without entry logic in the way.
type Noop struct{}

func (Noop) Name() string { return "noop" }

func (Noop) GenerateSignals(now time.Time, snap *market.Snapshot) []Signal {
	_ = now
	_ = snap
	return nil
}
