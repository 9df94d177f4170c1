// Package domain defines the core types shared across the goldcross
// platform: bars, orders, closed trades, and account snapshots.
package domain

import "time"

// Side identifies the direction of an order.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// OrderStatus is the lifecycle state of an order as reported by the order
// engine. Submitted and Accepted are non-terminal; the other four are final
// and immutable.
type OrderStatus string

const (
	OrderStatusSubmitted      OrderStatus = "submitted"
	OrderStatusAccepted       OrderStatus = "accepted"
	OrderStatusCompleted      OrderStatus = "completed"
	OrderStatusCanceled       OrderStatus = "canceled"
	OrderStatusMarginRejected OrderStatus = "margin_rejected"
	OrderStatusRejected       OrderStatus = "rejected"
)

// Terminal reports whether the status is a final outcome. An order with a
// terminal status never changes again.
func (s OrderStatus) Terminal() bool {
	switch s {
	case OrderStatusCompleted, OrderStatusCanceled, OrderStatusMarginRejected, OrderStatusRejected:
		return true
	default:
		return false
	}
}

// Failed reports whether the status is a terminal failure. All three failure
// outcomes receive identical handling downstream.
func (s OrderStatus) Failed() bool {
	switch s {
	case OrderStatusCanceled, OrderStatusMarginRejected, OrderStatusRejected:
		return true
	default:
		return false
	}
}

// Bar is one OHLCV observation for a symbol at a single time step. Bars are
// immutable once produced by the data feed.
type Bar struct {
	Symbol     string
	Timestamp  time.Time
	Open       float64
	High       float64
	Low        float64
	Close      float64
	Volume     int64
	TradeCount int64
	VWAP       float64
}

// Order is a request to buy or sell a whole number of units of one symbol,
// owned by a single strategy instance. Reserved carries the cash earmarked
// for a buy at submission time; the reconciler releases exactly that amount
// when the order reaches a terminal status.
type Order struct {
	ID          string
	StrategyID  string
	Symbol      string
	Side        Side
	Qty         int
	SubmitClose float64 // close price at submission time
	Reserved    float64 // cash reserved for a buy; 0 for sells
	Status      OrderStatus

	// Execution details, populated on completion.
	FilledQty   int
	FilledPrice float64
	FilledValue float64

	SubmittedAt time.Time
	ResolvedAt  time.Time
}

// Trade is a closed round trip (open plus close) on one symbol, produced by
// the order engine. It is read-only to the execution core and used only for
// realized profit reporting.
type Trade struct {
	StrategyID string
	Symbol     string
	Qty        int
	PnL        float64
	OpenedAt   time.Time
	ClosedAt   time.Time
}

// AccountInfo is a snapshot of the broker account's financial state.
type AccountInfo struct {
	Equity float64 // total portfolio value: cash plus holdings at market
	Cash   float64 // free cash, before pending reservations
}
