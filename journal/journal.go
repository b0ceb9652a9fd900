// Package journal persists what a run produced: the closed-trade ledger,
// the equity curve, and the per-run summary. CSV output is for spreadsheets
// and quick diffs, SQLite for querying across runs.
package journal

import (
	"time"

	"github.com/rustyeddy/backtest/backtest"
	"github.com/rustyeddy/backtest/sim"
)

type TradeRecord struct {
	TradeID    string
	Pair       string
	Direction  string
	Size       float64
	EntryPrice float64
	ExitPrice  float64
	EntryTime  time.Time
	ExitTime   time.Time
	ProfitLoss float64
	Reason     string
}

type EquityRecord struct {
	Time   time.Time
	Equity float64
}

// Run is the persisted summary row for one backtest.
type Run struct {
	RunID    string
	Created  time.Time
	Strategy string
	Pairs    string

	Start time.Time
	End   time.Time

	InitialCapital float64
	FinalEquity    float64

	Trades int
	Wins   int
	Losses int

	ROI          float64
	CAGR         float64
	WinRate      float64
	ProfitFactor float64
	MaxDrawdown  float64
	Sharpe       float64
}

type Journal interface {
	RecordTrade(TradeRecord) error
	RecordEquity(EquityRecord) error
	Close() error
}

func TradeFromClosed(tr sim.ClosedTrade) TradeRecord {
	return TradeRecord{
		TradeID:    tr.ID,
		Pair:       tr.Pair,
		Direction:  string(tr.Side),
		Size:       tr.Size,
		EntryPrice: tr.EntryPrice,
		ExitPrice:  tr.ExitPrice,
		EntryTime:  tr.EntryTime,
		ExitTime:   tr.ExitTime,
		ProfitLoss: tr.ProfitLoss,
		Reason:     string(tr.ExitReason),
	}
}

// RecordResult writes a whole run's ledger and equity curve through j.
func RecordResult(j Journal, res *backtest.Result) error {
	for _, tr := range res.Trades {
		if err := j.RecordTrade(TradeFromClosed(tr)); err != nil {
			return err
		}
	}
	for _, p := range res.EquityCurve {
		if err := j.RecordEquity(EquityRecord{Time: p.Time, Equity: p.Equity}); err != nil {
			return err
		}
	}
	return nil
}
