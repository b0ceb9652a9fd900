package sim

import (
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/backtest/internal/id"
	"github.com/rustyeddy/backtest/market"
	"github.com/rustyeddy/backtest/risk"
)

// Simulator owns all open positions and the closed-trade ledger. It is
// single-writer by design: the backtest loop is the only goroutine that
// touches it, so no locking is needed.
type Simulator struct {
	maxDuration time.Duration
	ids         *id.Generator
	log         *zap.Logger

	open     map[string]*Position
	order    []string // insertion order, keeps iteration deterministic
	ledger   []ClosedTrade
	baseline float64 // initial capital plus realized P&L
}

// NewSimulator returns a simulator with the given cash baseline and maximum
// position duration (0 disables the time limit). A nil logger is replaced
// with a no-op logger.
func NewSimulator(initialCapital float64, maxDuration time.Duration, log *zap.Logger) *Simulator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Simulator{
		maxDuration: maxDuration,
		ids:         id.NewGenerator(1),
		log:         log,
		open:        make(map[string]*Position),
		baseline:    initialCapital,
	}
}

// Open creates a new position. The caller is responsible for risk admission
// and for ensuring size > 0.
func (s *Simulator) Open(pair string, side market.Side, entryPrice, size, stopLoss, tp1, tp2, trailingPct float64, now time.Time) *Position {
	p := &Position{
		ID:              s.ids.At(now),
		Pair:            pair,
		Side:            side,
		EntryPrice:      entryPrice,
		EntryTime:       now,
		Size:            size,
		StopLoss:        stopLoss,
		TakeProfit1:     tp1,
		TakeProfit2:     tp2,
		TrailingStopPct: trailingPct,
		HighestPrice:    entryPrice,
		LowestPrice:     entryPrice,
	}
	s.open[p.ID] = p
	s.order = append(s.order, p.ID)

	s.log.Debug("opened position",
		zap.String("id", p.ID),
		zap.String("pair", pair),
		zap.String("side", string(side)),
		zap.Float64("entry", entryPrice),
		zap.Float64("size", size))
	return p
}

// EvaluateExits runs the per-tick exit checks for every open position using
// the snapshot's close prices, closing matched positions. Positions that
// cannot be valued (no visible bar) are skipped this tick. It returns the trades
// closed on this tick in position-open order.
func (s *Simulator) EvaluateExits(snap *market.Snapshot, now time.Time) []ClosedTrade {
	var closed []ClosedTrade

	for _, pid := range s.order {
		p, ok := s.open[pid]
		if !ok {
			continue
		}

		price, err := snap.Price(p.Pair)
		if err != nil {
			s.log.Warn("position cannot be valued this tick",
				zap.String("id", p.ID),
				zap.String("pair", p.Pair),
				zap.Time("at", now),
				zap.Error(err))
			continue
		}

		if reason, hit := s.checkExit(p, price, now); hit {
			closed = append(closed, s.close(p, price, now, reason))
		}
	}
	return closed
}

// checkExit evaluates the exit rules in priority order; the first match wins
// and no further rule is checked this tick. When nothing matches, the
// trailing stop is ratcheted.
func (s *Simulator) checkExit(p *Position, price float64, now time.Time) (ExitReason, bool) {
	long := p.Side == market.Long

	// 1. Stop loss always wins.
	if (long && price <= p.StopLoss) || (!long && price >= p.StopLoss) {
		return ReasonStopLoss, true
	}

	// 2. First take-profit tier. The whole position closes here; the flag is
	// recorded for the ledger.
	if !p.TP1Hit {
		if (long && price >= p.TakeProfit1) || (!long && price <= p.TakeProfit1) {
			p.TP1Hit = true
			return ReasonTakeProfit1, true
		}
	}

	// 3. Second tier fires only after tier one has been hit. With tier one
	// closing the full position this branch stays dormant; it is kept so the
	// ledger reasons stay exhaustive if tier one ever becomes a partial exit.
	if p.TP1Hit && !p.TP2Hit {
		if (long && price >= p.TakeProfit2) || (!long && price <= p.TakeProfit2) {
			p.TP2Hit = true
			return ReasonTakeProfit2, true
		}
	}

	// 4. Trailing stop, once activated by a favorable move.
	if p.TrailingActive {
		if (long && price <= p.TrailingStop) || (!long && price >= p.TrailingStop) {
			return ReasonTrailingStop, true
		}
	}

	// 5. Maximum holding time.
	if s.maxDuration > 0 && now.Sub(p.EntryTime) > s.maxDuration {
		return ReasonTimeLimit, true
	}

	s.updateTrailing(p, price)
	return "", false
}

// updateTrailing ratchets the trailing stop: it only ever moves in the
// position's favor.
func (s *Simulator) updateTrailing(p *Position, price float64) {
	if p.TrailingStopPct <= 0 {
		return
	}

	switch p.Side {
	case market.Long:
		if price > p.HighestPrice {
			p.HighestPrice = price
			p.TrailingStop = price * (1 - p.TrailingStopPct)
			p.TrailingActive = true
		}
	case market.Short:
		if price < p.LowestPrice {
			p.LowestPrice = price
			p.TrailingStop = price * (1 + p.TrailingStopPct)
			p.TrailingActive = true
		}
	}
}

// CloseAll force-closes every open position at the snapshot's prices with
// the given reason. A position with no visible price closes at its entry
// price with zero P&L rather than at a fictitious zero price.
func (s *Simulator) CloseAll(snap *market.Snapshot, now time.Time, reason ExitReason) []ClosedTrade {
	var closed []ClosedTrade

	for _, pid := range s.order {
		p, ok := s.open[pid]
		if !ok {
			continue
		}

		price, err := snap.Price(p.Pair)
		if err != nil {
			s.log.Warn("force-closing unvaluable position at entry price",
				zap.String("id", p.ID),
				zap.String("pair", p.Pair),
				zap.Error(err))
			price = p.EntryPrice
		}
		closed = append(closed, s.close(p, price, now, reason))
	}
	return closed
}

func (s *Simulator) close(p *Position, price float64, now time.Time, reason ExitReason) ClosedTrade {
	pl := p.ProfitLoss(price)

	trade := ClosedTrade{
		ID:         p.ID,
		Pair:       p.Pair,
		Side:       p.Side,
		Size:       p.Size,
		EntryPrice: p.EntryPrice,
		EntryTime:  p.EntryTime,
		ExitPrice:  price,
		ExitTime:   now,
		ExitReason: reason,
		ProfitLoss: pl,
	}
	s.ledger = append(s.ledger, trade)
	s.baseline += pl
	delete(s.open, p.ID)

	s.log.Debug("closed position",
		zap.String("id", p.ID),
		zap.String("pair", p.Pair),
		zap.String("reason", string(reason)),
		zap.Float64("exit", price),
		zap.Float64("pl", pl))
	return trade
}

// Equity returns the cash baseline plus the unrealized P&L of all open
// positions at the snapshot's prices. Unvaluable positions contribute
// nothing this tick.
func (s *Simulator) Equity(snap *market.Snapshot) float64 {
	equity := s.baseline
	for _, pid := range s.order {
		p, ok := s.open[pid]
		if !ok {
			continue
		}
		price, err := snap.Price(p.Pair)
		if err != nil {
			continue
		}
		equity += p.ProfitLoss(price)
	}
	return equity
}

// Exposures returns the read-only exposure view of open positions for the
// risk gate.
func (s *Simulator) Exposures() []risk.OpenPosition {
	out := make([]risk.OpenPosition, 0, len(s.open))
	for _, pid := range s.order {
		if p, ok := s.open[pid]; ok {
			out = append(out, risk.OpenPosition{EntryPrice: p.EntryPrice, Size: p.Size})
		}
	}
	return out
}

// OpenCount returns the number of open positions.
func (s *Simulator) OpenCount() int { return len(s.open) }

// Ledger returns the closed-trade ledger in close order.
func (s *Simulator) Ledger() []ClosedTrade { return s.ledger }
