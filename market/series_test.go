package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bar(t time.Time, close float64) Bar {
	return Bar{Time: t, Open: close, High: close, Low: close, Close: close, Volume: 1}
}

func TestNewSeriesSortsAndDeduplicates(t *testing.T) {
	t.Parallel()

	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	s := NewSeries("BTC/USDT", "5m", []Bar{
		bar(t0.Add(10*time.Minute), 3),
		bar(t0, 1),
		bar(t0.Add(5*time.Minute), 2),
		bar(t0, 99), // duplicate timestamp, first occurrence wins
	})

	require.Equal(t, 3, s.Len())
	assert.Equal(t, 1.0, s.Bars[0].Close)
	assert.Equal(t, 2.0, s.Bars[1].Close)
	assert.Equal(t, 3.0, s.Bars[2].Close)

	for i := 1; i < s.Len(); i++ {
		assert.True(t, s.Bars[i].Time.After(s.Bars[i-1].Time))
	}
}

func TestSeriesClip(t *testing.T) {
	t.Parallel()

	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var bars []Bar
	for i := 0; i < 10; i++ {
		bars = append(bars, bar(t0.Add(time.Duration(i)*time.Hour), float64(i)))
	}
	s := NewSeries("ETH/USDT", "1h", bars)

	clipped := s.Clip(t0.Add(2*time.Hour), t0.Add(5*time.Hour))
	require.Equal(t, 4, clipped.Len())
	assert.Equal(t, 2.0, clipped.Bars[0].Close)
	assert.Equal(t, 5.0, clipped.Bars[3].Close)

	empty := s.Clip(t0.Add(time.Hour).Add(time.Second), t0.Add(time.Hour).Add(2*time.Second))
	assert.Equal(t, 0, empty.Len())
}

func TestSeriesUpToExcludesFutureBars(t *testing.T) {
	t.Parallel()

	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewSeries("BTC/USDT", "5m", []Bar{
		bar(t0, 100),
		bar(t0.Add(5*time.Minute), 101),
		bar(t0.Add(10*time.Minute), 102),
	})

	assert.Len(t, s.UpTo(t0.Add(7*time.Minute)), 2)
	assert.Len(t, s.UpTo(t0.Add(5*time.Minute)), 2) // inclusive
	assert.Len(t, s.UpTo(t0.Add(-time.Second)), 0)
}

func TestSeriesCloseAt(t *testing.T) {
	t.Parallel()

	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewSeries("BTC/USDT", "5m", []Bar{
		bar(t0, 100),
		bar(t0.Add(5*time.Minute), 101),
	})

	px, ok := s.CloseAt(t0.Add(time.Hour))
	require.True(t, ok)
	assert.Equal(t, 101.0, px)

	px, ok = s.CloseAt(t0)
	require.True(t, ok)
	assert.Equal(t, 100.0, px)

	_, ok = s.CloseAt(t0.Add(-time.Minute))
	assert.False(t, ok)
}

func TestSeriesSetLookup(t *testing.T) {
	t.Parallel()

	set := NewSeriesSet()
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	set.Add(NewSeries("BTC/USDT", "5m", []Bar{bar(t0, 100)}))
	set.Add(NewSeries("ETH/USDT", "1h", []Bar{bar(t0, 10)}))

	_, ok := set.Get("BTC/USDT", "5m")
	assert.True(t, ok)
	_, ok = set.Get("BTC/USDT", "1h")
	assert.False(t, ok)
	_, ok = set.Get("SOL/USDT", "5m")
	assert.False(t, ok)

	assert.Equal(t, []string{"BTC/USDT", "ETH/USDT"}, set.Pairs())
	assert.Len(t, set.Timestamps(), 2)
}
