package backtest

import (
	"sort"
	"time"

	"github.com/rustyeddy/backtest/market"
)

// BuildTimeline merges the bar timestamps of every series in the set into
// one strictly increasing sequence clipped to [start, end], both ends
// inclusive. An empty set (or a window containing no bars) yields an empty
// timeline.
func BuildTimeline(set *market.SeriesSet, start, end time.Time) []time.Time {
	stamps := set.Timestamps()
	sort.Slice(stamps, func(i, j int) bool { return stamps[i].Before(stamps[j]) })

	out := make([]time.Time, 0, len(stamps))
	for _, ts := range stamps {
		if ts.Before(start) || ts.After(end) {
			continue
		}
		if n := len(out); n > 0 && out[n-1].Equal(ts) {
			continue
		}
		out = append(out, ts)
	}
	return out
}
