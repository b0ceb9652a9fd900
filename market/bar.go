// Package market holds the historical market data model shared by the
// backtest engine: OHLCV bars, per-pair/timeframe series, and the
// no-look-ahead snapshot views handed to strategies and the simulator.
package market

import (
	"errors"
	"time"
)

// ErrNoData indicates that no bars exist for a pair/timeframe at a queried
// time. It is non-fatal: callers downgrade to "cannot be valued" and move on.
var ErrNoData = errors.New("market: no data")

// Bar is a single OHLCV candle.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Side is the direction of a position or signal.
type Side string

const (
	Long  Side = "LONG"
	Short Side = "SHORT"
)

// Valid reports whether s is one of the two known sides.
func (s Side) Valid() bool { return s == Long || s == Short }
