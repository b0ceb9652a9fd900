package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "backtest",
	Short: "A multi-asset backtest engine for crypto trading strategies",
	Long: `Backtest replays historical candle data through a trading strategy and
reports what would have happened.

It provides tools for:
  - Running multi-pair, multi-timeframe backtests from CSV candle data
  - Scalping strategy with RSI, Bollinger, MACD and volume filters
  - Risk-gated position sizing with exposure and drawdown limits
  - Multi-tier exits (stop loss, take profits, trailing stop, time limit)
  - Journaling trades and equity curves to CSV or SQLite

Complete documentation is available at https://github.com/rustyeddy/backtest`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}
