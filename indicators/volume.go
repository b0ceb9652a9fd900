package indicators

import (
	"fmt"

	"github.com/rustyeddy/backtest/market"
)

// NormalizedVolume calculates the latest volume divided by its simple moving
// average over the given period. Values above 1 mean above-average activity.
// Returns 0 when the average volume in the window is zero.
func NormalizedVolume(bars []market.Bar, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("period must be positive, got %d", period)
	}
	if len(bars) < period {
		return 0, fmt.Errorf("not enough bars: need %d, got %d", period, len(bars))
	}

	mean := 0.0
	for i := len(bars) - period; i < len(bars); i++ {
		mean += bars[i].Volume
	}
	mean /= float64(period)
	if mean == 0 {
		return 0, nil
	}

	return bars[len(bars)-1].Volume / mean, nil
}
