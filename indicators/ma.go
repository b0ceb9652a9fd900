// Package indicators provides technical analysis indicators for trading.
//
// All functions are pure: they read a window of closed bars and return the
// latest indicator value, with an explicit error when the window is too
// short for the requested period.
package indicators

import (
	"fmt"

	"github.com/rustyeddy/backtest/market"
)

// SMA calculates the Simple Moving Average of the close over the given period.
func SMA(bars []market.Bar, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("period must be positive, got %d", period)
	}
	if len(bars) < period {
		return 0, fmt.Errorf("not enough bars: need %d, got %d", period, len(bars))
	}

	sum := 0.0
	for i := len(bars) - period; i < len(bars); i++ {
		sum += bars[i].Close
	}
	return sum / float64(period), nil
}

// EMA calculates the Exponential Moving Average of the close for the given
// period, seeded with the SMA of the first period bars.
func EMA(bars []market.Bar, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("period must be positive, got %d", period)
	}
	if len(bars) < period {
		return 0, fmt.Errorf("not enough bars: need %d, got %d", period, len(bars))
	}

	series := emaSeries(closes(bars), period)
	return series[len(series)-1], nil
}

// emaSeries computes the full EMA series over prices. The first period-1
// slots hold the seed SMA, matching how the strategy's reference values are
// produced.
func emaSeries(prices []float64, period int) []float64 {
	out := make([]float64, len(prices))

	seed := 0.0
	for i := 0; i < period; i++ {
		seed += prices[i]
	}
	seed /= float64(period)
	for i := 0; i < period; i++ {
		out[i] = seed
	}

	alpha := 2.0 / float64(period+1)
	for i := period; i < len(prices); i++ {
		out[i] = prices[i]*alpha + out[i-1]*(1-alpha)
	}
	return out
}

func closes(bars []market.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}
