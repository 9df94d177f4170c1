// Package broker defines the order-engine boundary: submitting orders is
// fire-and-forget, and outcomes come back later through an OrderSink. The
// package provides a backtest Simulator and a live Alpaca implementation.
package broker

import (
	"context"

	"goldcross/internal/domain"
)

// Broker abstracts the external order engine. Submission carries no
// synchronous result beyond transport errors; the terminal outcome arrives
// later on the OrderSink, possibly many bars after submission.
type Broker interface {
	// Name returns the broker identifier (e.g. "alpaca", "simulator").
	Name() string

	// SubmitOrder hands an order to the engine for execution. A returned
	// error means the order never left the process; it will produce no
	// notification.
	SubmitOrder(ctx context.Context, order *domain.Order) error

	// Account returns a snapshot of total portfolio value and free cash.
	Account(ctx context.Context) (domain.AccountInfo, error)
}

// OrderSink receives asynchronous notifications from the order engine.
// Notifications are delivered one at a time, in the order the events
// occurred, and exactly once per order.
type OrderSink interface {
	// OnOrderUpdate delivers an order's status. Non-terminal statuses may
	// be delivered any number of times; a terminal status exactly once.
	OnOrderUpdate(ctx context.Context, order domain.Order) error

	// OnTradeClose delivers a closed round trip with its realized P&L.
	OnTradeClose(ctx context.Context, trade domain.Trade) error
}
