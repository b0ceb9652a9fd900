package journal

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/backtest/backtest"
	"github.com/rustyeddy/backtest/market"
	"github.com/rustyeddy/backtest/sim"
)

func newTestCSV(t *testing.T) (*CSVJournal, string, string) {
	t.Helper()

	dir := t.TempDir()
	tradesPath := filepath.Join(dir, "trades.csv")
	equityPath := filepath.Join(dir, "equity.csv")

	j, err := NewCSV(tradesPath, equityPath)
	require.NoError(t, err)
	return j, tradesPath, equityPath
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	rows, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCSVJournalHeaders(t *testing.T) {
	t.Parallel()

	j, tradesPath, equityPath := newTestCSV(t)
	require.NoError(t, j.Close())

	trades := readCSV(t, tradesPath)
	require.Len(t, trades, 1)
	assert.Equal(t, []string{"trade_id", "pair", "direction", "size", "entry_price", "exit_price", "entry_time", "exit_time", "profit_loss", "reason"}, trades[0])

	equity := readCSV(t, equityPath)
	require.Len(t, equity, 1)
	assert.Equal(t, []string{"time", "equity"}, equity[0])
}

func TestCSVJournalRecordTrade(t *testing.T) {
	t.Parallel()

	j, tradesPath, _ := newTestCSV(t)

	exit := time.Date(2024, 1, 2, 4, 0, 0, 0, time.UTC)
	require.NoError(t, j.RecordTrade(TradeRecord{
		TradeID:    "T1",
		Pair:       "BTC/USDT",
		Direction:  "SHORT",
		Size:       150,
		EntryPrice: 100,
		ExitPrice:  95,
		EntryTime:  exit.Add(-2 * time.Hour),
		ExitTime:   exit,
		ProfitLoss: 750,
		Reason:     "TAKE_PROFIT1",
	}))
	require.NoError(t, j.Close())

	rows := readCSV(t, tradesPath)
	require.Len(t, rows, 2)
	assert.Equal(t, "T1", rows[1][0])
	assert.Equal(t, "BTC/USDT", rows[1][1])
	assert.Equal(t, "SHORT", rows[1][2])
	assert.Equal(t, "750", rows[1][8])
	assert.Equal(t, "TAKE_PROFIT1", rows[1][9])
}

func TestRecordResult(t *testing.T) {
	t.Parallel()

	j, tradesPath, equityPath := newTestCSV(t)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	res := &backtest.Result{
		Start: start,
		End:   start.Add(time.Hour),
		Trades: []sim.ClosedTrade{
			{
				ID:         "01HTEST",
				Pair:       "BTC/USDT",
				Side:       market.Long,
				Size:       200,
				EntryPrice: 100,
				EntryTime:  start,
				ExitPrice:  105,
				ExitTime:   start.Add(30 * time.Minute),
				ExitReason: sim.ReasonTakeProfit1,
				ProfitLoss: 1000,
			},
		},
		EquityCurve: []backtest.EquityPoint{
			{Time: start, Equity: 10000},
			{Time: start.Add(30 * time.Minute), Equity: 11000},
		},
	}

	require.NoError(t, RecordResult(j, res))
	require.NoError(t, j.Close())

	trades := readCSV(t, tradesPath)
	require.Len(t, trades, 2)
	assert.Equal(t, "01HTEST", trades[1][0])
	assert.Equal(t, "LONG", trades[1][2])
	assert.Equal(t, "TAKE_PROFIT1", trades[1][9])

	equity := readCSV(t, equityPath)
	require.Len(t, equity, 3)
	assert.Equal(t, "11000", equity[2][1])
}
