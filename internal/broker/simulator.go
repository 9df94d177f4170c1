package broker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"goldcross/internal/domain"
)

// Compile-time interface check.
var _ Broker = (*Simulator)(nil)

// Simulator is the order engine used for backtesting. It holds a virtual
// cash account, fills every submitted order at the close of the next bar it
// sees for that symbol (market-order semantics, no slippage, no partial
// fills), and reports outcomes through the configured OrderSink. Buys that
// exceed the remaining cash come back margin-rejected; a reject hook lets
// tests force arbitrary failure outcomes.
type Simulator struct {
	mu        sync.Mutex
	cash      float64
	lastClose map[string]float64
	holdings  map[string]int
	basis     map[basisKey]*costBasis
	pending   []*domain.Order
	trades    []domain.Trade
	sink      OrderSink
	rejectFn  func(domain.Order) (domain.OrderStatus, bool)
	log       *slog.Logger
}

type basisKey struct {
	strategyID string
	symbol     string
}

// costBasis tracks the average entry price for one instance's position in
// one symbol, for realized P&L on the closing sell.
type costBasis struct {
	qty      int
	avgPrice float64
	openedAt time.Time
}

// NewSimulator creates a simulator holding initialCash of virtual money.
func NewSimulator(initialCash float64) *Simulator {
	return &Simulator{
		cash:      initialCash,
		lastClose: make(map[string]float64),
		holdings:  make(map[string]int),
		basis:     make(map[basisKey]*costBasis),
		log:       slog.Default().With("broker", "simulator"),
	}
}

// SetSink wires the notification target. Must be called before the first
// Advance; it is separate from the constructor because the engine and the
// simulator reference each other.
func (s *Simulator) SetSink(sink OrderSink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sink = sink
}

// SetRejectFunc installs a hook consulted before each fill. When it returns
// a status and true, the order resolves with that failure status instead of
// completing.
func (s *Simulator) SetRejectFunc(fn func(domain.Order) (domain.OrderStatus, bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejectFn = fn
}

// Name returns "simulator".
func (s *Simulator) Name() string { return "simulator" }

// SubmitOrder queues the order for resolution on the next Advance that
// carries a bar for its symbol.
func (s *Simulator) SubmitOrder(_ context.Context, order *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	queued := *order
	queued.Status = domain.OrderStatusAccepted
	s.pending = append(s.pending, &queued)
	return nil
}

// Account returns the virtual account snapshot: free cash plus all holdings
// valued at their last seen close.
func (s *Simulator) Account(_ context.Context) (domain.AccountInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.AccountInfo{Equity: s.equityLocked(), Cash: s.cash}, nil
}

// FreeCash implements funds.CashSource.
func (s *Simulator) FreeCash() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cash
}

// Trades returns a copy of all closed round trips so far.
func (s *Simulator) Trades() []domain.Trade {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Trade, len(s.trades))
	copy(out, s.trades)
	return out
}

func (s *Simulator) equityLocked() float64 {
	equity := s.cash
	for symbol, qty := range s.holdings {
		equity += float64(qty) * s.lastClose[symbol]
	}
	return equity
}

// Advance marks the new closes and resolves every pending order whose
// symbol has a bar in this time step. Orders for symbols without a bar stay
// pending. Notifications are dispatched after the internal state settles,
// in submission order, so the sink can safely read Account and FreeCash.
func (s *Simulator) Advance(ctx context.Context, bars []domain.Bar) error {
	s.mu.Lock()
	if s.sink == nil {
		s.mu.Unlock()
		return fmt.Errorf("simulator: no sink configured")
	}

	current := make(map[string]domain.Bar, len(bars))
	for _, b := range bars {
		s.lastClose[b.Symbol] = b.Close
		current[b.Symbol] = b
	}

	type resolution struct {
		order domain.Order
		trade *domain.Trade
	}
	var (
		resolved  []resolution
		remaining []*domain.Order
	)
	for _, order := range s.pending {
		bar, ok := current[order.Symbol]
		if !ok {
			remaining = append(remaining, order)
			continue
		}
		result, trade := s.resolveLocked(order, bar)
		resolved = append(resolved, resolution{order: result, trade: trade})
		if trade != nil {
			s.trades = append(s.trades, *trade)
		}
	}
	s.pending = remaining
	sink := s.sink
	s.mu.Unlock()

	for _, r := range resolved {
		if err := sink.OnOrderUpdate(ctx, r.order); err != nil {
			return fmt.Errorf("notifying order %s: %w", r.order.ID, err)
		}
		if r.trade != nil {
			if err := sink.OnTradeClose(ctx, *r.trade); err != nil {
				return fmt.Errorf("notifying trade close for %s: %w", r.order.Symbol, err)
			}
		}
	}
	return nil
}

// resolveLocked settles one order against the bar and returns the terminal
// order plus, for a completed sell that closed the position, the round
// trip. Caller holds the mutex.
func (s *Simulator) resolveLocked(order *domain.Order, bar domain.Bar) (domain.Order, *domain.Trade) {
	order.ResolvedAt = bar.Timestamp

	if s.rejectFn != nil {
		if status, reject := s.rejectFn(*order); reject {
			order.Status = status
			s.log.Debug("order rejected by hook", "id", order.ID, "status", status)
			return *order, nil
		}
	}

	price := bar.Close
	value := float64(order.Qty) * price

	switch order.Side {
	case domain.SideBuy:
		if value > s.cash {
			order.Status = domain.OrderStatusMarginRejected
			s.log.Debug("buy margin-rejected",
				"id", order.ID, "symbol", order.Symbol, "cost", value, "cash", s.cash)
			return *order, nil
		}
		s.cash -= value
		s.holdings[order.Symbol] += order.Qty

		key := basisKey{order.StrategyID, order.Symbol}
		b, ok := s.basis[key]
		if !ok || b.qty == 0 {
			s.basis[key] = &costBasis{qty: order.Qty, avgPrice: price, openedAt: bar.Timestamp}
		} else {
			total := b.avgPrice*float64(b.qty) + value
			b.qty += order.Qty
			b.avgPrice = total / float64(b.qty)
		}

	case domain.SideSell:
		if s.holdings[order.Symbol] < order.Qty {
			order.Status = domain.OrderStatusRejected
			s.log.Warn("sell exceeds holdings",
				"id", order.ID, "symbol", order.Symbol, "qty", order.Qty)
			return *order, nil
		}
		s.cash += value
		s.holdings[order.Symbol] -= order.Qty
	}

	order.Status = domain.OrderStatusCompleted
	order.FilledQty = order.Qty
	order.FilledPrice = price
	order.FilledValue = value

	if order.Side == domain.SideSell {
		key := basisKey{order.StrategyID, order.Symbol}
		if b, ok := s.basis[key]; ok && b.qty >= order.Qty {
			b.qty -= order.Qty
			trade := &domain.Trade{
				StrategyID: order.StrategyID,
				Symbol:     order.Symbol,
				Qty:        order.Qty,
				PnL:        float64(order.Qty) * (price - b.avgPrice),
				OpenedAt:   b.openedAt,
				ClosedAt:   bar.Timestamp,
			}
			return *order, trade
		}
	}
	return *order, nil
}
