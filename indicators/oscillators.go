package indicators

import (
	"fmt"
	"math"

	"github.com/rustyeddy/backtest/market"
)

// RSI calculates the Relative Strength Index of the close using Wilder's
// smoothing. Returns 100 when the window contains no losses.
func RSI(bars []market.Bar, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("period must be positive, got %d", period)
	}
	if len(bars) < period+1 {
		return 0, fmt.Errorf("not enough bars: need %d, got %d", period+1, len(bars))
	}

	prices := closes(bars)

	up, down := 0.0, 0.0
	for i := 1; i <= period; i++ {
		delta := prices[i] - prices[i-1]
		if delta >= 0 {
			up += delta
		} else {
			down -= delta
		}
	}
	up /= float64(period)
	down /= float64(period)

	for i := period + 1; i < len(prices); i++ {
		delta := prices[i] - prices[i-1]
		upval, downval := 0.0, 0.0
		if delta > 0 {
			upval = delta
		} else {
			downval = -delta
		}
		up = (up*float64(period-1) + upval) / float64(period)
		down = (down*float64(period-1) + downval) / float64(period)
	}

	if down == 0 {
		return 100, nil
	}
	rs := up / down
	return 100 - 100/(1+rs), nil
}

// MACD calculates the Moving Average Convergence Divergence of the close:
// the MACD line, its signal line, and the histogram (line minus signal),
// all at the latest bar.
func MACD(bars []market.Bar, fastPeriod, slowPeriod, signalPeriod int) (line, signal, histogram float64, err error) {
	hist, err := MACDHistogram(bars, fastPeriod, slowPeriod, signalPeriod)
	if err != nil {
		return 0, 0, 0, err
	}

	prices := closes(bars)
	macd := macdLine(prices, fastPeriod, slowPeriod)
	last := len(bars) - 1
	return macd[last], macd[last] - hist[last], hist[last], nil
}

// MACDHistogram returns the full MACD histogram series, one value per bar.
// Strategies use the trailing values to detect rising momentum.
func MACDHistogram(bars []market.Bar, fastPeriod, slowPeriod, signalPeriod int) ([]float64, error) {
	if fastPeriod <= 0 || slowPeriod <= 0 || signalPeriod <= 0 {
		return nil, fmt.Errorf("periods must be positive, got %d/%d/%d", fastPeriod, slowPeriod, signalPeriod)
	}
	if fastPeriod >= slowPeriod {
		return nil, fmt.Errorf("fast period %d must be below slow period %d", fastPeriod, slowPeriod)
	}
	need := slowPeriod + signalPeriod
	if len(bars) < need {
		return nil, fmt.Errorf("not enough bars: need %d, got %d", need, len(bars))
	}

	prices := closes(bars)
	macd := macdLine(prices, fastPeriod, slowPeriod)
	signal := emaSeries(macd, signalPeriod)

	hist := make([]float64, len(bars))
	for i := range hist {
		hist[i] = macd[i] - signal[i]
	}
	return hist, nil
}

func macdLine(prices []float64, fastPeriod, slowPeriod int) []float64 {
	fast := emaSeries(prices, fastPeriod)
	slow := emaSeries(prices, slowPeriod)

	out := make([]float64, len(prices))
	for i := range out {
		out[i] = fast[i] - slow[i]
	}
	return out
}

// Stochastic calculates the stochastic oscillator %K and %D at the latest
// bar. %K is 50 when the window has no range.
func Stochastic(bars []market.Bar, kPeriod, dPeriod int) (k, d float64, err error) {
	if kPeriod <= 0 || dPeriod <= 0 {
		return 0, 0, fmt.Errorf("periods must be positive, got %d/%d", kPeriod, dPeriod)
	}
	need := kPeriod + dPeriod - 1
	if len(bars) < need {
		return 0, 0, fmt.Errorf("not enough bars: need %d, got %d", need, len(bars))
	}

	kAt := func(end int) float64 {
		hi, lo := math.Inf(-1), math.Inf(1)
		for i := end - kPeriod + 1; i <= end; i++ {
			hi = math.Max(hi, bars[i].High)
			lo = math.Min(lo, bars[i].Low)
		}
		if hi == lo {
			return 50
		}
		return 100 * (bars[end].Close - lo) / (hi - lo)
	}

	last := len(bars) - 1
	k = kAt(last)

	sum := 0.0
	for i := last - dPeriod + 1; i <= last; i++ {
		sum += kAt(i)
	}
	return k, sum / float64(dPeriod), nil
}
