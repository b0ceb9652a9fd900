package indicators

import (
	"fmt"
	"math"

	"github.com/rustyeddy/backtest/market"
)

// Bollinger calculates the Bollinger bands of the close at the latest bar:
// a simple moving average plus and minus numStd population standard
// deviations.
func Bollinger(bars []market.Bar, period int, numStd float64) (upper, middle, lower float64, err error) {
	if period <= 0 {
		return 0, 0, 0, fmt.Errorf("period must be positive, got %d", period)
	}
	if len(bars) < period {
		return 0, 0, 0, fmt.Errorf("not enough bars: need %d, got %d", period, len(bars))
	}

	window := bars[len(bars)-period:]
	mean := 0.0
	for _, b := range window {
		mean += b.Close
	}
	mean /= float64(period)

	variance := 0.0
	for _, b := range window {
		d := b.Close - mean
		variance += d * d
	}
	std := math.Sqrt(variance / float64(period))

	return mean + numStd*std, mean, mean - numStd*std, nil
}

// ATR calculates the Average True Range for the given period using Wilder's
// smoothing, seeded with the mean of the first period true ranges.
func ATR(bars []market.Bar, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("period must be positive, got %d", period)
	}
	if len(bars) < period+1 {
		return 0, fmt.Errorf("not enough bars: need %d, got %d", period+1, len(bars))
	}

	trs := make([]float64, 0, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		trs = append(trs, trueRange(bars[i], bars[i-1]))
	}

	atr := 0.0
	for i := 0; i < period; i++ {
		atr += trs[i]
	}
	atr /= float64(period)

	for i := period; i < len(trs); i++ {
		atr = (atr*float64(period-1) + trs[i]) / float64(period)
	}
	return atr, nil
}

func trueRange(current, previous market.Bar) float64 {
	highLow := current.High - current.Low
	highClose := math.Abs(current.High - previous.Close)
	lowClose := math.Abs(current.Low - previous.Close)
	return math.Max(highLow, math.Max(highClose, lowClose))
}
