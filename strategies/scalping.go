package strategies

import (
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/backtest/indicators"
	"github.com/rustyeddy/backtest/market"
)

type trend int

const (
	trendNeutral trend = iota
	trendBullish
	trendBearish
)

// Config carries the scalping strategy's tunables. Zero values are filled
// from DefaultConfig by NewScalping.
type Config struct {
	Pairs              []string `json:"pairs" yaml:"pairs"`
	PrimaryTimeframe   string   `json:"primary_timeframe" yaml:"primary_timeframe"`
	SecondaryTimeframe string   `json:"secondary_timeframe" yaml:"secondary_timeframe"`

	RSIPeriod     int     `json:"rsi_period" yaml:"rsi_period"`
	RSIOversold   float64 `json:"rsi_oversold" yaml:"rsi_oversold"`
	RSIOverbought float64 `json:"rsi_overbought" yaml:"rsi_overbought"`

	BBPeriod int     `json:"bb_period" yaml:"bb_period"`
	BBStd    float64 `json:"bb_std" yaml:"bb_std"`

	MACDFast   int `json:"macd_fast" yaml:"macd_fast"`
	MACDSlow   int `json:"macd_slow" yaml:"macd_slow"`
	MACDSignal int `json:"macd_signal" yaml:"macd_signal"`

	VolumePeriod    int     `json:"volume_period" yaml:"volume_period"`
	VolumeThreshold float64 `json:"volume_threshold" yaml:"volume_threshold"`

	TrendFastPeriod int `json:"trend_fast_period" yaml:"trend_fast_period"`
	TrendSlowPeriod int `json:"trend_slow_period" yaml:"trend_slow_period"`

	StopLossPct     float64 `json:"stop_loss_pct" yaml:"stop_loss_pct"`
	TakeProfit1Pct  float64 `json:"take_profit1_pct" yaml:"take_profit1_pct"`
	TakeProfit2Pct  float64 `json:"take_profit2_pct" yaml:"take_profit2_pct"`
	TrailingStopPct float64 `json:"trailing_stop_pct" yaml:"trailing_stop_pct"`
}

func DefaultConfig() *Config {
	return &Config{
		PrimaryTimeframe:   "5m",
		SecondaryTimeframe: "1h",
		RSIPeriod:          14,
		RSIOversold:        30,
		RSIOverbought:      70,
		BBPeriod:           20,
		BBStd:              2.0,
		MACDFast:           12,
		MACDSlow:           26,
		MACDSignal:         9,
		VolumePeriod:       20,
		VolumeThreshold:    1.2,
		TrendFastPeriod:    50,
		TrendSlowPeriod:    100,
		StopLossPct:        0.015,
		TakeProfit1Pct:     0.005,
		TakeProfit2Pct:     0.01,
		TrailingStopPct:    0.003,
	}
}

// Scalping is a mean-reversion entry inside a higher-timeframe trend: the
// secondary timeframe's EMA pair sets the direction, the primary timeframe
// has to show an oversold pullback to the lower Bollinger band with rising
// MACD momentum and above-average volume (mirrored for shorts).
type Scalping struct {
	cfg *Config
	log *zap.Logger
}

func NewScalping(cfg *Config, log *zap.Logger) *Scalping {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Scalping{cfg: cfg, log: log}
}

func (s *Scalping) Name() string { return "scalping" }

func (s *Scalping) GenerateSignals(now time.Time, snap *market.Snapshot) []Signal {
	var signals []Signal
	for _, pair := range s.cfg.Pairs {
		if sig, ok := s.evaluate(pair, snap); ok {
			signals = append(signals, sig)
		}
	}
	return signals
}

func (s *Scalping) evaluate(pair string, snap *market.Snapshot) (Signal, bool) {
	secondary := snap.History(pair, s.cfg.SecondaryTimeframe)
	primary := snap.History(pair, s.cfg.PrimaryTimeframe)
	if len(secondary) == 0 || len(primary) == 0 {
		s.log.Debug("no data for pair", zap.String("pair", pair))
		return Signal{}, false
	}

	switch s.determineTrend(secondary) {
	case trendBullish:
		return s.findEntry(pair, primary, market.Long)
	case trendBearish:
		return s.findEntry(pair, primary, market.Short)
	default:
		return Signal{}, false
	}
}

// determineTrend reads the higher timeframe: price above a rising EMA stack
// is bullish, below a falling stack bearish, anything else neutral.
func (s *Scalping) determineTrend(bars []market.Bar) trend {
	fast, err := indicators.EMA(bars, s.cfg.TrendFastPeriod)
	if err != nil {
		return trendNeutral
	}
	slow, err := indicators.EMA(bars, s.cfg.TrendSlowPeriod)
	if err != nil {
		return trendNeutral
	}

	last := bars[len(bars)-1].Close
	switch {
	case last > fast && fast > slow:
		return trendBullish
	case last < fast && fast < slow:
		return trendBearish
	default:
		return trendNeutral
	}
}

func (s *Scalping) findEntry(pair string, bars []market.Bar, side market.Side) (Signal, bool) {
	rsi, err := indicators.RSI(bars, s.cfg.RSIPeriod)
	if err != nil {
		return Signal{}, false
	}
	bbUpper, _, bbLower, err := indicators.Bollinger(bars, s.cfg.BBPeriod, s.cfg.BBStd)
	if err != nil {
		return Signal{}, false
	}
	hist, err := indicators.MACDHistogram(bars, s.cfg.MACDFast, s.cfg.MACDSlow, s.cfg.MACDSignal)
	if err != nil || len(hist) < 2 {
		return Signal{}, false
	}
	volume, err := indicators.NormalizedVolume(bars, s.cfg.VolumePeriod)
	if err != nil {
		return Signal{}, false
	}

	last := bars[len(bars)-1].Close
	momentumUp := hist[len(hist)-1] > hist[len(hist)-2]

	var entry bool
	switch side {
	case market.Long:
		// Pullback, not capitulation: RSI off the floor but still weak.
		entry = rsi > s.cfg.RSIOversold && rsi < 40 &&
			last <= bbLower &&
			momentumUp &&
			volume > s.cfg.VolumeThreshold
	case market.Short:
		entry = rsi < s.cfg.RSIOverbought && rsi > 60 &&
			last >= bbUpper &&
			!momentumUp &&
			volume > s.cfg.VolumeThreshold
	}
	if !entry {
		return Signal{}, false
	}

	s.log.Debug("entry signal",
		zap.String("pair", pair),
		zap.String("side", string(side)),
		zap.Float64("price", last),
		zap.Float64("rsi", rsi))

	return s.signalAt(pair, side, last), true
}

// signalAt derives the exit plan from the entry price and the configured
// percentages.
func (s *Scalping) signalAt(pair string, side market.Side, entry float64) Signal {
	sig := Signal{
		Pair:            pair,
		Side:            side,
		EntryPrice:      entry,
		TrailingStopPct: s.cfg.TrailingStopPct,
	}
	switch side {
	case market.Long:
		sig.StopLoss = entry * (1 - s.cfg.StopLossPct)
		sig.TakeProfit1 = entry * (1 + s.cfg.TakeProfit1Pct)
		sig.TakeProfit2 = entry * (1 + s.cfg.TakeProfit2Pct)
	case market.Short:
		sig.StopLoss = entry * (1 + s.cfg.StopLossPct)
		sig.TakeProfit1 = entry * (1 - s.cfg.TakeProfit1Pct)
		sig.TakeProfit2 = entry * (1 - s.cfg.TakeProfit2Pct)
	}
	return sig
}
