package market

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// SnapshotProvider produces point-in-time views over a SeriesSet. Pricing
// always uses the primary timeframe; history is available on any timeframe.
type SnapshotProvider struct {
	set     *SeriesSet
	primary string
	log     *zap.Logger
}

// NewSnapshotProvider wraps set with the given primary timeframe. A nil
// logger is replaced with a no-op logger.
func NewSnapshotProvider(set *SeriesSet, primaryTimeframe string, log *zap.Logger) *SnapshotProvider {
	if log == nil {
		log = zap.NewNop()
	}
	return &SnapshotProvider{set: set, primary: primaryTimeframe, log: log}
}

// At returns the market view as of t. Nothing after t is visible through the
// returned snapshot.
func (p *SnapshotProvider) At(t time.Time) *Snapshot {
	return &Snapshot{provider: p, at: t}
}

// Snapshot is a read-only view of the market at a fixed timestamp.
type Snapshot struct {
	provider *SnapshotProvider
	at       time.Time
}

// Time returns the snapshot timestamp.
func (s *Snapshot) Time() time.Time { return s.at }

// Price returns the close of the latest primary-timeframe bar at or before
// the snapshot time. The error wraps ErrNoData when the pair has no bar
// that early.
func (s *Snapshot) Price(pair string) (float64, error) {
	series, ok := s.provider.set.Get(pair, s.provider.primary)
	if !ok || series.Len() == 0 {
		return 0, fmt.Errorf("%w: %s %s", ErrNoData, pair, s.provider.primary)
	}

	close, ok := series.CloseAt(s.at)
	if !ok {
		return 0, fmt.Errorf("%w: %s has no bar at or before %s",
			ErrNoData, pair, s.at.Format(time.RFC3339))
	}
	return close, nil
}

// ClosePrice is the zero-on-missing form of Price for callers that treat 0
// as "cannot be valued".
func (s *Snapshot) ClosePrice(pair string) float64 {
	close, err := s.Price(pair)
	if err != nil {
		s.provider.log.Warn("no price for pair",
			zap.String("pair", pair),
			zap.Time("at", s.at),
			zap.Error(err))
		return 0
	}
	return close
}

// History returns all bars for (pair, timeframe) with timestamp at or before
// the snapshot time. The slice is shared and read-only.
func (s *Snapshot) History(pair, timeframe string) []Bar {
	series, ok := s.provider.set.Get(pair, timeframe)
	if !ok {
		return nil
	}
	return series.UpTo(s.at)
}
