// Package engine contains the strategy execution core: the per-bar decision
// driver that turns signals into sized orders, and the reconciler that
// settles terminal order outcomes against the position ledgers and the
// shared funds guard.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"goldcross/internal/audit"
	"goldcross/internal/broker"
	"goldcross/internal/domain"
	"goldcross/internal/funds"
	"goldcross/internal/store"
	"goldcross/internal/strategy"
)

var (
	// ErrDuplicateResolution signals a second terminal notification for an
	// order that was already reconciled. Ledger and guard mutations are not
	// idempotent, so this aborts the run instead of re-applying.
	ErrDuplicateResolution = errors.New("engine: order already resolved")

	// ErrUnknownOrder signals a notification for an order this engine never
	// submitted.
	ErrUnknownOrder = errors.New("engine: order not tracked")
)

// Compile-time interface check.
var _ broker.OrderSink = (*Engine)(nil)

// Engine drives any number of strategy instances over a shared bar feed.
// All instances size their buys against one funds guard; each keeps its own
// ledger. The engine is single-threaded: OnBar, OnOrderUpdate, and
// OnTradeClose are never called concurrently (the guard itself is still
// lock-protected for the shared-cash check).
type Engine struct {
	broker broker.Broker
	guard  *funds.Guard
	audit  *audit.Log
	orders store.OrderStore // optional
	trades store.TradeStore // optional
	log    *slog.Logger

	instances []*Instance
	byID      map[string]*Instance

	open     map[string]*domain.Order // submitted, not yet resolved
	resolved map[string]struct{}      // IDs of reconciled orders
}

// New creates an Engine. The order and trade stores may be nil, in which
// case nothing is persisted beyond the audit log.
func New(b broker.Broker, guard *funds.Guard, auditLog *audit.Log, orders store.OrderStore, trades store.TradeStore) *Engine {
	return &Engine{
		broker:   b,
		guard:    guard,
		audit:    auditLog,
		orders:   orders,
		trades:   trades,
		log:      slog.Default().With("component", "engine"),
		byID:     make(map[string]*Instance),
		open:     make(map[string]*domain.Order),
		resolved: make(map[string]struct{}),
	}
}

// AddInstance registers a strategy instance built from the evaluator, with
// its own empty ledger. Evaluator names must be unique within the engine.
func (e *Engine) AddInstance(ev strategy.Evaluator, fraction float64) (*Instance, error) {
	inst, err := NewInstance(ev, fraction)
	if err != nil {
		return nil, err
	}
	if _, exists := e.byID[inst.ID()]; exists {
		return nil, fmt.Errorf("engine: duplicate strategy instance %q", inst.ID())
	}
	e.instances = append(e.instances, inst)
	e.byID[inst.ID()] = inst
	return inst, nil
}

// Instances returns the registered instances in registration order.
func (e *Engine) Instances() []*Instance { return e.instances }

// OpenOrderCount returns the number of submitted orders still awaiting a
// terminal notification.
func (e *Engine) OpenOrderCount() int { return len(e.open) }

// ---------------------------------------------------------------------------
// Per-bar decision driver
// ---------------------------------------------------------------------------

// OnBar advances every instance over one time step. bars holds one bar per
// asset, in the data feed's fixed order; decisions are made asset by asset
// in that order. Entry is only evaluated while flat and exit only while
// positioned, which is what makes the evaluators' implicit-crossing
// contract sound.
func (e *Engine) OnBar(ctx context.Context, bars []domain.Bar) error {
	for _, inst := range e.instances {
		for _, bar := range bars {
			inst.evaluator.Observe(bar)
			held := inst.ledger.Units(bar.Symbol)
			switch {
			case held == 0 && inst.evaluator.ShouldEnter(bar.Symbol):
				if err := e.submitBuy(ctx, inst, bar); err != nil {
					return err
				}
			case held > 0 && inst.evaluator.ShouldExit(bar.Symbol):
				// Sell exactly what this instance holds: never more, never
				// less. This keeps the ledger non-negative and liquidates
				// only self-acquired units.
				if err := e.submitSell(ctx, inst, bar, held); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// submitBuy sizes an entry as floor(equity*fraction/close) units and
// submits it if the guard accepts the reservation. A zero size or an
// insufficient-funds refusal is not an error: no order is submitted and
// the run continues.
func (e *Engine) submitBuy(ctx context.Context, inst *Instance, bar domain.Bar) error {
	acct, err := e.broker.Account(ctx)
	if err != nil {
		return fmt.Errorf("reading account: %w", err)
	}

	invest := acct.Equity * inst.fraction
	size := int(invest / bar.Close)
	if size <= 0 {
		return nil
	}
	cost := float64(size) * bar.Close
	if !e.guard.Reserve(invest, cost) {
		e.log.Debug("entry skipped, insufficient available cash",
			"strategy", inst.id, "symbol", bar.Symbol, "invest", invest)
		return nil
	}

	order := &domain.Order{
		ID:          e.nextID(),
		StrategyID:  inst.id,
		Symbol:      bar.Symbol,
		Side:        domain.SideBuy,
		Qty:         size,
		SubmitClose: bar.Close,
		Reserved:    cost,
		Status:      domain.OrderStatusSubmitted,
		SubmittedAt: bar.Timestamp,
	}
	if err := e.submit(ctx, order, bar); err != nil {
		// The order never left the process; the reservation must not leak.
		if relErr := e.guard.Release(order.Reserved); relErr != nil {
			return errors.Join(err, relErr)
		}
		return err
	}
	return nil
}

// submitSell liquidates the instance's full tracked position in the asset.
func (e *Engine) submitSell(ctx context.Context, inst *Instance, bar domain.Bar, held int) error {
	order := &domain.Order{
		ID:          e.nextID(),
		StrategyID:  inst.id,
		Symbol:      bar.Symbol,
		Side:        domain.SideSell,
		Qty:         held,
		SubmitClose: bar.Close,
		Status:      domain.OrderStatusSubmitted,
		SubmittedAt: bar.Timestamp,
	}
	return e.submit(ctx, order, bar)
}

// submit hands the order to the broker, then registers and records it.
func (e *Engine) submit(ctx context.Context, order *domain.Order, bar domain.Bar) error {
	if err := e.broker.SubmitOrder(ctx, order); err != nil {
		return fmt.Errorf("submitting %s order for %s: %w", order.Side, order.Symbol, err)
	}
	e.open[order.ID] = order

	if e.orders != nil {
		if err := e.orders.SaveOrder(ctx, order); err != nil {
			return fmt.Errorf("persisting order %s: %w", order.ID, err)
		}
	}
	if err := e.audit.Record(bar.Timestamp,
		"%s ORDER SUBMITTED, STRATEGY: %s, ID: %s, ASSET: %s, PRICE: %.2f, SIZE: %d",
		strings.ToUpper(string(order.Side)), order.StrategyID, order.ID,
		order.Symbol, bar.Close, order.Qty); err != nil {
		return err
	}
	return nil
}

// nextID mints a globally unique order ID. IDs outlive the process: they
// are the SQLite primary key and the broker's client order ID, both of
// which reject reuse across runs.
func (e *Engine) nextID() string {
	return uuid.NewString()
}

// ---------------------------------------------------------------------------
// Order reconciliation
// ---------------------------------------------------------------------------

// OnOrderUpdate reconciles one order notification against the owning
// instance's ledger and the shared guard. Non-terminal statuses are an
// explicit no-op; each terminal status is accepted exactly once.
func (e *Engine) OnOrderUpdate(ctx context.Context, order domain.Order) error {
	switch order.Status {
	case domain.OrderStatusSubmitted, domain.OrderStatusAccepted:
		// Still in flight; nothing to reconcile.
		return nil
	default:
		if !order.Status.Terminal() {
			return fmt.Errorf("engine: unhandled order status %q for order %s", order.Status, order.ID)
		}
	}

	if _, done := e.resolved[order.ID]; done {
		return fmt.Errorf("%w: order %s reported %s twice", ErrDuplicateResolution, order.ID, order.Status)
	}
	submitted, ok := e.open[order.ID]
	if !ok {
		return fmt.Errorf("%w: order %s", ErrUnknownOrder, order.ID)
	}
	inst, ok := e.byID[submitted.StrategyID]
	if !ok {
		return fmt.Errorf("engine: order %s references unknown instance %q", order.ID, submitted.StrategyID)
	}

	var err error
	if order.Status.Failed() {
		err = e.applyFailed(inst, submitted, order)
	} else {
		err = e.applyCompleted(inst, submitted, order)
	}
	if err != nil {
		return err
	}

	e.resolved[order.ID] = struct{}{}
	delete(e.open, order.ID)

	if e.orders != nil {
		final := *submitted
		final.Status = order.Status
		final.FilledQty = order.FilledQty
		final.FilledPrice = order.FilledPrice
		final.FilledValue = order.FilledValue
		final.ResolvedAt = order.ResolvedAt
		if err := e.orders.UpdateOrder(ctx, &final); err != nil {
			return fmt.Errorf("persisting resolution of order %s: %w", order.ID, err)
		}
	}
	return nil
}

// applyCompleted settles a fill: a buy releases its reservation and credits
// the ledger; a sell debits the ledger and never touches the guard, because
// sells reserve nothing.
func (e *Engine) applyCompleted(inst *Instance, submitted *domain.Order, order domain.Order) error {
	switch submitted.Side {
	case domain.SideBuy:
		if err := e.guard.Release(submitted.Reserved); err != nil {
			return fmt.Errorf("settling buy %s: %w", order.ID, err)
		}
		inst.ledger.Add(submitted.Symbol, order.FilledQty)
		return e.audit.Record(order.ResolvedAt,
			"BUY EXECUTED, STRATEGY: %s, ID: %s, ASSET: %s, PRICE: %.2f, COST: %.2f, SIZE: %d, %.2f%% OF PORTFOLIO USED",
			inst.id, order.ID, submitted.Symbol, order.FilledPrice, order.FilledValue,
			order.FilledQty, inst.fraction*100)

	case domain.SideSell:
		if err := inst.ledger.Remove(submitted.Symbol, order.FilledQty); err != nil {
			return fmt.Errorf("settling sell %s: %w", order.ID, err)
		}
		return e.audit.Record(order.ResolvedAt,
			"SELL EXECUTED, STRATEGY: %s, ID: %s, ASSET: %s, PRICE: %.2f, VALUE: %.2f, SIZE: %d",
			inst.id, order.ID, submitted.Symbol, order.FilledPrice, order.FilledValue, order.FilledQty)
	}
	return fmt.Errorf("engine: order %s has unknown side %q", order.ID, submitted.Side)
}

// applyFailed settles a canceled, margin-rejected, or rejected order. All
// three share one treatment: a failed buy frees its reserved cash; a failed
// sell mutates nothing because its units were never removed pre-emptively.
func (e *Engine) applyFailed(inst *Instance, submitted *domain.Order, order domain.Order) error {
	status := strings.ToUpper(string(order.Status))
	if submitted.Side == domain.SideBuy {
		if err := e.guard.Release(submitted.Reserved); err != nil {
			return fmt.Errorf("settling failed buy %s: %w", order.ID, err)
		}
		return e.audit.Record(order.ResolvedAt,
			"ORDER %s, STRATEGY: %s, ID: %s, ASSET: %s, RESERVED FUNDS RELEASED: %.2f",
			status, inst.id, order.ID, submitted.Symbol, submitted.Reserved)
	}
	return e.audit.Record(order.ResolvedAt,
		"ORDER %s, STRATEGY: %s, ID: %s, ASSET: %s",
		status, inst.id, order.ID, submitted.Symbol)
}

// OnTradeClose records a closed round trip's realized P&L along with the
// resulting portfolio value. Read-only: no ledger or guard mutation.
func (e *Engine) OnTradeClose(ctx context.Context, trade domain.Trade) error {
	acct, err := e.broker.Account(ctx)
	if err != nil {
		return fmt.Errorf("reading account: %w", err)
	}
	if e.trades != nil {
		if err := e.trades.SaveTrade(ctx, &trade); err != nil {
			return fmt.Errorf("persisting trade for %s: %w", trade.Symbol, err)
		}
	}
	return e.audit.Record(trade.ClosedAt,
		"TRADE CLOSED, STRATEGY: %s, ASSET: %s, PROFIT: %.2f, PORTFOLIO VALUE: %.2f",
		trade.StrategyID, trade.Symbol, trade.PnL, acct.Equity)
}
