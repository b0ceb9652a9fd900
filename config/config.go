package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rustyeddy/backtest/risk"
	"github.com/rustyeddy/backtest/strategies"
	"gopkg.in/yaml.v3"
)

// Config represents the complete backtest configuration
type Config struct {
	Backtest BacktestConfig `json:"backtest" yaml:"backtest"`
	Risk     RiskConfig     `json:"risk_management" yaml:"risk_management"`
	Strategy StrategyConfig `json:"strategy" yaml:"strategy"`
	Journal  JournalConfig  `json:"journal" yaml:"journal"`
	Logging  LoggingConfig  `json:"logging" yaml:"logging"`
}

// BacktestConfig contains the run window, instruments and data location
type BacktestConfig struct {
	Pairs      []string         `json:"pairs" yaml:"pairs"`
	StartDate  string           `json:"start_date" yaml:"start_date"`
	EndDate    string           `json:"end_date" yaml:"end_date"`
	DataDir    string           `json:"data_dir" yaml:"data_dir"`
	Archive    string           `json:"archive,omitempty" yaml:"archive,omitempty"`
	Timeframes TimeframesConfig `json:"timeframes" yaml:"timeframes"`
}

// TimeframesConfig names the candle resolutions the engine loads
type TimeframesConfig struct {
	Primary   string `json:"primary" yaml:"primary"`
	Secondary string `json:"secondary" yaml:"secondary"`
	Tertiary  string `json:"tertiary,omitempty" yaml:"tertiary,omitempty"`
}

// All returns the configured timeframes, skipping empty entries.
func (t TimeframesConfig) All() []string {
	var tfs []string
	for _, tf := range []string{t.Primary, t.Secondary, t.Tertiary} {
		if tf != "" {
			tfs = append(tfs, tf)
		}
	}
	return tfs
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date: %q", s)
}

// Window parses the configured start and end dates.
func (b BacktestConfig) Window() (start, end time.Time, err error) {
	start, err = parseDate(b.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("start_date: %w", err)
	}
	end, err = parseDate(b.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("end_date: %w", err)
	}
	return start, end, nil
}

// RiskConfig contains capital and risk gate parameters
type RiskConfig struct {
	InitialCapital           float64 `json:"initial_capital" yaml:"initial_capital"`
	MaxRiskPerTrade          float64 `json:"max_risk_per_trade" yaml:"max_risk_per_trade"`
	MaxPositionSizePct       float64 `json:"max_position_size_pct" yaml:"max_position_size_pct"`
	MaxTotalExposure         float64 `json:"max_total_exposure" yaml:"max_total_exposure"`
	MaxConsecutiveLosses     int     `json:"max_consecutive_losses" yaml:"max_consecutive_losses"`
	MaxDrawdownPct           float64 `json:"max_drawdown_pct" yaml:"max_drawdown_pct"`
	MaxPositionDurationHours int     `json:"max_position_duration_hours" yaml:"max_position_duration_hours"`
}

// Params converts the config block into the gate's parameter set.
func (r RiskConfig) Params() risk.Params {
	return risk.Params{
		MaxRiskPerTrade:      r.MaxRiskPerTrade,
		MaxPositionSizePct:   r.MaxPositionSizePct,
		MaxTotalExposure:     r.MaxTotalExposure,
		MaxConsecutiveLosses: r.MaxConsecutiveLosses,
		MaxDrawdownPct:       r.MaxDrawdownPct,
	}
}

// MaxPositionDuration returns the maximum holding time, zero meaning no limit.
func (r RiskConfig) MaxPositionDuration() time.Duration {
	return time.Duration(r.MaxPositionDurationHours) * time.Hour
}

// StrategyConfig selects a strategy and carries its parameters
type StrategyConfig struct {
	Name              string `json:"name" yaml:"name"`
	strategies.Config `yaml:",inline"`
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "csv", "sqlite" or "none"
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// LoggingConfig contains logging parameters
type LoggingConfig struct {
	Level string `json:"level,omitempty" yaml:"level,omitempty"`
}

// LoadFromFile loads configuration from a file (JSON or YAML based on extension)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	// Determine format by extension
	if (len(path) > 5 && path[len(path)-5:] == ".yaml") || (len(path) > 4 && path[len(path)-4:] == ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}

	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if len(c.Backtest.Pairs) == 0 {
		return fmt.Errorf("backtest.pairs is required")
	}
	start, end, err := c.Backtest.Window()
	if err != nil {
		return fmt.Errorf("backtest window: %w", err)
	}
	if !end.After(start) {
		return fmt.Errorf("backtest.end_date must be after start_date")
	}
	if c.Backtest.DataDir == "" {
		return fmt.Errorf("backtest.data_dir is required")
	}
	if c.Backtest.Timeframes.Primary == "" {
		return fmt.Errorf("backtest.timeframes.primary is required")
	}
	if c.Risk.InitialCapital <= 0 {
		return fmt.Errorf("risk_management.initial_capital must be positive")
	}
	if c.Risk.MaxRiskPerTrade <= 0 || c.Risk.MaxRiskPerTrade > 1 {
		return fmt.Errorf("risk_management.max_risk_per_trade must be between 0 and 1")
	}
	if c.Risk.MaxPositionSizePct <= 0 || c.Risk.MaxPositionSizePct > 1 {
		return fmt.Errorf("risk_management.max_position_size_pct must be between 0 and 1")
	}
	if c.Risk.MaxTotalExposure <= 0 || c.Risk.MaxTotalExposure > 1 {
		return fmt.Errorf("risk_management.max_total_exposure must be between 0 and 1")
	}
	if c.Risk.MaxConsecutiveLosses <= 0 {
		return fmt.Errorf("risk_management.max_consecutive_losses must be positive")
	}
	if c.Risk.MaxDrawdownPct <= 0 || c.Risk.MaxDrawdownPct > 1 {
		return fmt.Errorf("risk_management.max_drawdown_pct must be between 0 and 1")
	}
	if c.Risk.MaxPositionDurationHours < 0 {
		return fmt.Errorf("risk_management.max_position_duration_hours must not be negative")
	}
	if c.Strategy.Name == "" {
		return fmt.Errorf("strategy.name is required")
	}
	switch c.Journal.Type {
	case "csv":
		if c.Journal.TradesFile == "" || c.Journal.EquityFile == "" {
			return fmt.Errorf("journal trades_file and equity_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	case "none", "":
	default:
		return fmt.Errorf("journal.type must be 'csv', 'sqlite' or 'none'")
	}
	return nil
}

// StrategyParams returns the strategy parameter block with the pairs and
// timeframes from the backtest section filled in.
func (c *Config) StrategyParams() *strategies.Config {
	params := c.Strategy.Config
	params.Pairs = c.Backtest.Pairs
	params.PrimaryTimeframe = c.Backtest.Timeframes.Primary
	params.SecondaryTimeframe = c.Backtest.Timeframes.Secondary
	return &params
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Backtest: BacktestConfig{
			Pairs:     []string{"BTC/USDT", "ETH/USDT"},
			StartDate: "2023-01-01T00:00:00",
			EndDate:   "2023-12-31T23:59:59",
			DataDir:   "data/historical",
			Timeframes: TimeframesConfig{
				Primary:   "5m",
				Secondary: "1h",
				Tertiary:  "15m",
			},
		},
		Risk: RiskConfig{
			InitialCapital:           10000,
			MaxRiskPerTrade:          0.01,
			MaxPositionSizePct:       0.02,
			MaxTotalExposure:         0.70,
			MaxConsecutiveLosses:     3,
			MaxDrawdownPct:           0.10,
			MaxPositionDurationHours: 48,
		},
		Strategy: StrategyConfig{
			Name:   "scalping",
			Config: *strategies.DefaultConfig(),
		},
		Journal: JournalConfig{
			Type:       "csv",
			TradesFile: "./trades.csv",
			EquityFile: "./equity.csv",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
