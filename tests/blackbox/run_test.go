//go:build blackbox

package blackbox

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

func writeCandlesCSV(t *testing.T, path string, start time.Time, step time.Duration, closes []float64) {
	t.Helper()

	var b strings.Builder
	b.WriteString("timestamp,open,high,low,close,volume\n")
	for i, c := range closes {
		ts := start.Add(time.Duration(i) * step)
		fmt.Fprintf(&b, "%s,%.2f,%.2f,%.2f,%.2f,10\n",
			ts.Format(time.RFC3339), c, c+1, c-1, c)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestRunJournalsToSQLite(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "backtest.sqlite")

	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	closes := make([]float64, 50)
	for i := range closes {
		closes[i] = 100
	}
	writeCandlesCSV(t, filepath.Join(dir, "BTC_USDT_5m.csv"), start, 5*time.Minute, closes)

	cfgPath := filepath.Join(dir, "config.yaml")
	cfg := fmt.Sprintf(`
backtest:
  pairs: ["BTC/USDT"]
  start_date: "2023-01-01"
  end_date: "2023-01-02"
  data_dir: %q
  timeframes:
    primary: 5m
risk_management:
  initial_capital: 10000
  max_risk_per_trade: 0.01
  max_position_size_pct: 0.02
  max_total_exposure: 0.70
  max_consecutive_losses: 3
  max_drawdown_pct: 0.10
  max_position_duration_hours: 48
strategy:
  name: noop
journal:
  type: sqlite
  db_path: %q
logging:
  level: error
`, dir, dbPath)
	if err := os.WriteFile(cfgPath, []byte(cfg), 0644); err != nil {
		t.Fatal(err)
	}

	out := run(t, "run", "--config", cfgPath)
	if !strings.Contains(out, "Backtest Result") {
		t.Fatalf("expected summary in output, got:\n%s", out)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	var runs int
	if err := db.QueryRow("SELECT COUNT(*) FROM runs").Scan(&runs); err != nil {
		t.Fatal(err)
	}
	if runs != 1 {
		t.Fatalf("expected 1 run row, got %d", runs)
	}

	// One equity row per tick; the first tick lands on the window start and
	// replaces the seed point.
	var equity int
	if err := db.QueryRow("SELECT COUNT(*) FROM equity").Scan(&equity); err != nil {
		t.Fatal(err)
	}
	if equity != len(closes) {
		t.Fatalf("expected %d equity rows, got %d", len(closes), equity)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "backtest.yaml")

	out := run(t, "config", "init", "--output", cfgPath)
	if !strings.Contains(out, "Created default configuration") {
		t.Fatalf("unexpected init output:\n%s", out)
	}

	out = run(t, "config", "validate", "--file", cfgPath)
	if !strings.Contains(out, "Configuration valid") {
		t.Fatalf("unexpected validate output:\n%s", out)
	}
}
