package market

import (
	"sort"
	"time"
)

// Series is an ordered, duplicate-free sequence of bars for one
// (pair, timeframe). Timestamps are strictly increasing.
type Series struct {
	Pair      string
	Timeframe string
	Bars      []Bar
}

// NewSeries builds a Series from bars in any order. Bars are sorted by time
// and duplicates (same timestamp) collapse to the first occurrence, matching
// how dataset files are normalized on load.
func NewSeries(pair, timeframe string, bars []Bar) Series {
	out := make([]Bar, len(bars))
	copy(out, bars)

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Time.Before(out[j].Time)
	})

	dedup := out[:0]
	for _, b := range out {
		if len(dedup) > 0 && dedup[len(dedup)-1].Time.Equal(b.Time) {
			continue
		}
		dedup = append(dedup, b)
	}

	return Series{Pair: pair, Timeframe: timeframe, Bars: dedup}
}

// Clip returns the sub-series with start <= bar time <= end.
func (s Series) Clip(start, end time.Time) Series {
	lo := sort.Search(len(s.Bars), func(i int) bool {
		return !s.Bars[i].Time.Before(start)
	})
	hi := sort.Search(len(s.Bars), func(i int) bool {
		return s.Bars[i].Time.After(end)
	})
	return Series{Pair: s.Pair, Timeframe: s.Timeframe, Bars: s.Bars[lo:hi]}
}

// UpTo returns all bars with timestamp <= t. The returned slice aliases the
// series and must be treated as read-only.
func (s Series) UpTo(t time.Time) []Bar {
	hi := sort.Search(len(s.Bars), func(i int) bool {
		return s.Bars[i].Time.After(t)
	})
	return s.Bars[:hi]
}

// CloseAt returns the close of the latest bar at or before t. The second
// return is false when no bar exists that early.
func (s Series) CloseAt(t time.Time) (float64, bool) {
	bars := s.UpTo(t)
	if len(bars) == 0 {
		return 0, false
	}
	return bars[len(bars)-1].Close, true
}

// Len returns the number of bars.
func (s Series) Len() int { return len(s.Bars) }

// SeriesSet indexes series by pair and timeframe.
type SeriesSet struct {
	byPair map[string]map[string]Series
}

func NewSeriesSet() *SeriesSet {
	return &SeriesSet{byPair: make(map[string]map[string]Series)}
}

// Add stores a series, replacing any previous series for the same
// (pair, timeframe).
func (ss *SeriesSet) Add(s Series) {
	tfs, ok := ss.byPair[s.Pair]
	if !ok {
		tfs = make(map[string]Series)
		ss.byPair[s.Pair] = tfs
	}
	tfs[s.Timeframe] = s
}

// Get looks up the series for (pair, timeframe). The second return is false
// when the set holds nothing for that key.
func (ss *SeriesSet) Get(pair, timeframe string) (Series, bool) {
	tfs, ok := ss.byPair[pair]
	if !ok {
		return Series{}, false
	}
	s, ok := tfs[timeframe]
	return s, ok
}

// Pairs returns the tracked pair names in sorted order.
func (ss *SeriesSet) Pairs() []string {
	out := make([]string, 0, len(ss.byPair))
	for p := range ss.byPair {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Timestamps returns every bar timestamp across all series, unsorted and
// with duplicates. The timeline builder owns merging.
func (ss *SeriesSet) Timestamps() []time.Time {
	var out []time.Time
	for _, tfs := range ss.byPair {
		for _, s := range tfs {
			for _, b := range s.Bars {
				out = append(out, b.Time)
			}
		}
	}
	return out
}
