package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rustyeddy/backtest/backtest"
	"github.com/rustyeddy/backtest/config"
	"github.com/rustyeddy/backtest/dataset"
	"github.com/rustyeddy/backtest/internal/logging"
	"github.com/rustyeddy/backtest/journal"
	"github.com/rustyeddy/backtest/strategies"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a backtest from a configuration file",
	Long: `Run loads historical candles, replays them through the configured
strategy and prints a performance summary.

Example:
  backtest run --config backtest.yaml`,
	RunE: runBacktest,
}

var (
	runConfigPath  string
	runExtractPath string
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "c", "", "path to config file (required)")
	runCmd.Flags().StringVar(&runExtractPath, "extract", "", "zip bundle to unpack into the data directory before loading")
	runCmd.MarkFlagRequired("config")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(runConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logging.New(cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	defer log.Sync()

	start, end, err := cfg.Backtest.Window()
	if err != nil {
		return err
	}

	archive := cfg.Backtest.Archive
	if runExtractPath != "" {
		archive = runExtractPath
	}
	if archive != "" {
		log.Info("extracting data archive",
			zap.String("archive", archive),
			zap.String("dir", cfg.Backtest.DataDir))
		if err := dataset.ExtractArchive(archive, cfg.Backtest.DataDir); err != nil {
			return fmt.Errorf("extract archive: %w", err)
		}
	}

	store := dataset.NewStore(cfg.Backtest.DataDir, log)
	set, err := store.LoadAll(cfg.Backtest.Pairs, cfg.Backtest.Timeframes.All(), start, end)
	if err != nil {
		return fmt.Errorf("load data: %w", err)
	}

	strat, err := strategies.ByName(cfg.Strategy.Name, cfg.StrategyParams(), log)
	if err != nil {
		return fmt.Errorf("strategy: %w", err)
	}

	engine, err := backtest.NewEngine(backtest.Options{
		InitialCapital:      cfg.Risk.InitialCapital,
		Start:               start,
		End:                 end,
		PrimaryTimeframe:    cfg.Backtest.Timeframes.Primary,
		MaxPositionDuration: cfg.Risk.MaxPositionDuration(),
		Risk:                cfg.Risk.Params(),
		Data:                set,
		Strategy:            strat,
		Logger:              log,
	})
	if err != nil {
		return fmt.Errorf("engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("Running backtest with strategy: %s\n", cfg.Strategy.Name)
	fmt.Printf("  Pairs: %s\n", strings.Join(cfg.Backtest.Pairs, ", "))
	fmt.Printf("  Window: %s to %s\n\n", cfg.Backtest.StartDate, cfg.Backtest.EndDate)

	result := engine.Run(ctx)

	backtest.PrintSummary(os.Stdout, cfg.Strategy.Name, result)

	if err := persist(cfg, result); err != nil {
		return fmt.Errorf("journal: %w", err)
	}
	return nil
}

func persist(cfg *config.Config, result *backtest.Result) error {
	switch cfg.Journal.Type {
	case "csv":
		j, err := journal.NewCSV(cfg.Journal.TradesFile, cfg.Journal.EquityFile)
		if err != nil {
			return err
		}
		defer j.Close()
		return journal.RecordResult(j, result)

	case "sqlite":
		j, err := journal.NewSQLite(cfg.Journal.DBPath)
		if err != nil {
			return err
		}
		defer j.Close()
		if err := journal.RecordResult(j, result); err != nil {
			return err
		}
		return j.RecordRun(runSummary(cfg, result))

	default:
		return nil
	}
}

func runSummary(cfg *config.Config, result *backtest.Result) journal.Run {
	final := cfg.Risk.InitialCapital
	if n := len(result.EquityCurve); n > 0 {
		final = result.EquityCurve[n-1].Equity
	}
	return journal.Run{
		RunID:          ulid.Make().String(),
		Created:        time.Now().UTC(),
		Strategy:       cfg.Strategy.Name,
		Pairs:          strings.Join(cfg.Backtest.Pairs, ","),
		Start:          result.Start,
		End:            result.End,
		InitialCapital: cfg.Risk.InitialCapital,
		FinalEquity:    final,
		Trades:         result.Metrics.TotalTrades,
		Wins:           result.Metrics.WinningTrades,
		Losses:         result.Metrics.LosingTrades,
		ROI:            result.Metrics.ROI,
		CAGR:           result.Metrics.CAGR,
		WinRate:        result.Metrics.WinRate,
		ProfitFactor:   result.Metrics.ProfitFactor,
		MaxDrawdown:    result.Metrics.MaxDrawdown,
		Sharpe:         result.Metrics.Sharpe,
	}
}
