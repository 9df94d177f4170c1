// Package store defines storage interfaces for bars, orders, and closed
// trades, with Parquet, CSV, and SQLite implementations.
package store

import (
	"context"
	"time"

	"goldcross/internal/domain"
)

// BarStore persists and retrieves OHLCV bar data.
type BarStore interface {
	// WriteBars persists a batch of bars to storage.
	WriteBars(ctx context.Context, bars []domain.Bar) error

	// ReadBars returns bars for the given symbol within [start, end],
	// sorted by timestamp.
	ReadBars(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error)

	// ListSymbols returns all distinct symbols available, sorted.
	ListSymbols(ctx context.Context) ([]string, error)
}

// OrderStore persists order records: once at submission and once more when
// the order resolves.
type OrderStore interface {
	// SaveOrder inserts a new order into storage.
	SaveOrder(ctx context.Context, order *domain.Order) error

	// UpdateOrder persists an order's terminal state.
	UpdateOrder(ctx context.Context, order *domain.Order) error

	// ListOrders returns all orders matching the given status, in
	// submission order.
	ListOrders(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error)
}

// TradeStore persists closed round trips.
type TradeStore interface {
	// SaveTrade inserts a closed trade.
	SaveTrade(ctx context.Context, trade *domain.Trade) error

	// ListTrades returns the closed trades for one strategy instance, in
	// close order. An empty strategyID returns all trades.
	ListTrades(ctx context.Context, strategyID string) ([]domain.Trade, error)
}
