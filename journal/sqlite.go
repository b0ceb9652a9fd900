package journal

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordTrade(t TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(trade_id, pair, direction, size, entry_price, exit_price, entry_time, exit_time, profit_loss, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TradeID, t.Pair, t.Direction, t.Size, t.EntryPrice,
		t.ExitPrice, t.EntryTime, t.ExitTime, t.ProfitLoss, t.Reason,
	)
	return err
}

func (j *SQLite) RecordEquity(e EquityRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO equity (time, equity) VALUES (?, ?)`,
		e.Time, e.Equity,
	)
	return err
}

func (j *SQLite) RecordRun(r Run) error {
	_, err := j.db.Exec(`
		INSERT INTO runs
		(run_id, created, strategy, pairs, start, end, initial_capital, final_equity,
		 trades, wins, losses, roi, cagr, win_rate, profit_factor, max_drawdown, sharpe)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Created, r.Strategy, r.Pairs, r.Start, r.End,
		r.InitialCapital, r.FinalEquity, r.Trades, r.Wins, r.Losses,
		r.ROI, r.CAGR, r.WinRate, r.ProfitFactor, r.MaxDrawdown, r.Sharpe,
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
