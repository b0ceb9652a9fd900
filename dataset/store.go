// Package dataset loads historical OHLCV series from per (pair, timeframe)
// CSV files under a data directory. Files are named with the pair's slash
// replaced by an underscore, e.g. BTC_USDT_5m.csv, and may be xz-compressed
// (BTC_USDT_5m.csv.xz). A missing file yields an empty series, not an
// error; a backtest tolerates absent pairs.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ulikunitz/xz"
	"github.com/xyproto/unzip"
	"go.uber.org/zap"

	"github.com/rustyeddy/backtest/market"
)

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

type Store struct {
	dir string
	log *zap.Logger
}

func NewStore(dir string, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{dir: dir, log: log}
}

// Filename returns the plain CSV path for a pair and timeframe.
func (s *Store) Filename(pair, timeframe string) string {
	safe := strings.ReplaceAll(pair, "/", "_")
	return filepath.Join(s.dir, fmt.Sprintf("%s_%s.csv", safe, timeframe))
}

// Load reads one series clipped to [start, end]. Rows are sorted and
// deduplicated; a file that does not exist in either plain or .xz form
// returns an empty series and no error.
func (s *Store) Load(pair, timeframe string, start, end time.Time) (market.Series, error) {
	name := s.Filename(pair, timeframe)

	r, closeFn, err := s.open(name)
	if os.IsNotExist(err) {
		s.log.Warn("no dataset file",
			zap.String("pair", pair),
			zap.String("timeframe", timeframe),
			zap.String("file", name))
		return market.NewSeries(pair, timeframe, nil), nil
	}
	if err != nil {
		return market.Series{}, fmt.Errorf("dataset: open %s: %w", name, err)
	}
	defer closeFn()

	bars, err := readBars(r)
	if err != nil {
		return market.Series{}, fmt.Errorf("dataset: read %s: %w", name, err)
	}

	series := market.NewSeries(pair, timeframe, bars).Clip(start, end)
	s.log.Info("loaded series",
		zap.String("pair", pair),
		zap.String("timeframe", timeframe),
		zap.Int("bars", series.Len()))
	return series, nil
}

// LoadAll loads every (pair, timeframe) combination into one set.
func (s *Store) LoadAll(pairs, timeframes []string, start, end time.Time) (*market.SeriesSet, error) {
	set := market.NewSeriesSet()
	for _, pair := range pairs {
		for _, tf := range timeframes {
			series, err := s.Load(pair, tf, start, end)
			if err != nil {
				return nil, err
			}
			set.Add(series)
		}
	}
	return set, nil
}

// open tries the plain file first, then the .xz variant.
func (s *Store) open(name string) (io.Reader, func() error, error) {
	if f, err := os.Open(name); err == nil {
		return f, f.Close, nil
	} else if !os.IsNotExist(err) {
		return nil, nil, err
	}

	f, err := os.Open(name + ".xz")
	if err != nil {
		return nil, nil, err
	}
	r, err := xz.NewReader(f)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return r, f.Close, nil
}

// ExtractArchive unpacks a zip bundle of dataset CSVs into dir, creating it
// if needed.
func ExtractArchive(archive, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return unzip.Extract(archive, dir)
}

// readBars parses timestamp,open,high,low,close,volume rows. A leading
// header row is skipped when its first field is not a timestamp.
func readBars(r io.Reader) ([]market.Bar, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	var bars []market.Bar
	row := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		row++

		if len(rec) < 6 {
			return nil, fmt.Errorf("row %d: want 6 columns, got %d", row, len(rec))
		}

		ts, err := parseTime(rec[0])
		if err != nil {
			if row == 1 {
				continue // header
			}
			return nil, fmt.Errorf("row %d: %w", row, err)
		}

		var b market.Bar
		b.Time = ts
		fields := []*float64{&b.Open, &b.High, &b.Low, &b.Close, &b.Volume}
		for i, dst := range fields {
			v, err := strconv.ParseFloat(rec[i+1], 64)
			if err != nil {
				return nil, fmt.Errorf("row %d col %d: %w", row, i+2, err)
			}
			*dst = v
		}
		bars = append(bars, b)
	}
	return bars, nil
}

// parseTime accepts the common text layouts plus unix epoch values, in
// milliseconds when the magnitude makes seconds implausible.
func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), nil
		}
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n > 1e12 {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
