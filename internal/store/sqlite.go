package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"goldcross/internal/domain"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface checks.
var _ OrderStore = (*SQLiteStore)(nil)
var _ TradeStore = (*SQLiteStore)(nil)

// SQLiteStore implements OrderStore and TradeStore backed by a SQLite
// database. It is the queryable twin of the audit log: every order is
// written at submission and again at resolution, every closed trade once.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS orders (
	id            TEXT PRIMARY KEY,
	strategy_id   TEXT NOT NULL,
	symbol        TEXT NOT NULL,
	side          TEXT NOT NULL,
	qty           INTEGER NOT NULL,
	submit_close  REAL NOT NULL,
	reserved      REAL NOT NULL,
	status        TEXT NOT NULL,
	filled_qty    INTEGER NOT NULL DEFAULT 0,
	filled_price  REAL NOT NULL DEFAULT 0,
	filled_value  REAL NOT NULL DEFAULT 0,
	submitted_at  INTEGER NOT NULL,
	resolved_at   INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status);

CREATE TABLE IF NOT EXISTS trades (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	strategy_id TEXT NOT NULL,
	symbol      TEXT NOT NULL,
	qty         INTEGER NOT NULL,
	pnl         REAL NOT NULL,
	opened_at   INTEGER NOT NULL,
	closed_at   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_trades_strategy ON trades(strategy_id);
`

// NewSQLiteStore opens (or creates) a SQLite database at dbPath, creates
// the schema if needed, and returns a ready-to-use store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ---------------------------------------------------------------------------
// OrderStore implementation
// ---------------------------------------------------------------------------

// SaveOrder inserts a newly submitted order.
func (s *SQLiteStore) SaveOrder(ctx context.Context, o *domain.Order) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO orders
			(id, strategy_id, symbol, side, qty, submit_close, reserved, status,
			 filled_qty, filled_price, filled_value, submitted_at, resolved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.StrategyID, o.Symbol, string(o.Side), o.Qty, o.SubmitClose,
		o.Reserved, string(o.Status), o.FilledQty, o.FilledPrice, o.FilledValue,
		o.SubmittedAt.UnixMilli(), o.ResolvedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("inserting order %s: %w", o.ID, err)
	}
	return nil
}

// UpdateOrder persists an order's terminal state.
func (s *SQLiteStore) UpdateOrder(ctx context.Context, o *domain.Order) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE orders
		SET status = ?, filled_qty = ?, filled_price = ?, filled_value = ?, resolved_at = ?
		WHERE id = ?`,
		string(o.Status), o.FilledQty, o.FilledPrice, o.FilledValue,
		o.ResolvedAt.UnixMilli(), o.ID)
	if err != nil {
		return fmt.Errorf("updating order %s: %w", o.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("updating order %s: not found", o.ID)
	}
	return nil
}

// ListOrders returns all orders with the given status, in submission order.
func (s *SQLiteStore) ListOrders(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, strategy_id, symbol, side, qty, submit_close, reserved, status,
		       filled_qty, filled_price, filled_value, submitted_at, resolved_at
		FROM orders WHERE status = ? ORDER BY submitted_at, id`,
		string(status))
	if err != nil {
		return nil, fmt.Errorf("querying orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var (
			o                      domain.Order
			side, st               string
			submittedMs, resolvedMs int64
		)
		if err := rows.Scan(&o.ID, &o.StrategyID, &o.Symbol, &side, &o.Qty,
			&o.SubmitClose, &o.Reserved, &st, &o.FilledQty, &o.FilledPrice,
			&o.FilledValue, &submittedMs, &resolvedMs); err != nil {
			return nil, fmt.Errorf("scanning order row: %w", err)
		}
		o.Side = domain.Side(side)
		o.Status = domain.OrderStatus(st)
		o.SubmittedAt = time.UnixMilli(submittedMs)
		o.ResolvedAt = time.UnixMilli(resolvedMs)
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// ---------------------------------------------------------------------------
// TradeStore implementation
// ---------------------------------------------------------------------------

// SaveTrade inserts a closed round trip.
func (s *SQLiteStore) SaveTrade(ctx context.Context, t *domain.Trade) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO trades (strategy_id, symbol, qty, pnl, opened_at, closed_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		t.StrategyID, t.Symbol, t.Qty, t.PnL,
		t.OpenedAt.UnixMilli(), t.ClosedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("inserting trade for %s: %w", t.Symbol, err)
	}
	return nil
}

// ListTrades returns closed trades for the strategy, oldest first. An empty
// strategyID returns every trade.
func (s *SQLiteStore) ListTrades(ctx context.Context, strategyID string) ([]domain.Trade, error) {
	query := `
		SELECT strategy_id, symbol, qty, pnl, opened_at, closed_at
		FROM trades`
	args := []any{}
	if strategyID != "" {
		query += ` WHERE strategy_id = ?`
		args = append(args, strategyID)
	}
	query += ` ORDER BY closed_at, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying trades: %w", err)
	}
	defer rows.Close()

	var trades []domain.Trade
	for rows.Next() {
		var (
			t                  domain.Trade
			openedMs, closedMs int64
		)
		if err := rows.Scan(&t.StrategyID, &t.Symbol, &t.Qty, &t.PnL, &openedMs, &closedMs); err != nil {
			return nil, fmt.Errorf("scanning trade row: %w", err)
		}
		t.OpenedAt = time.UnixMilli(openedMs)
		t.ClosedAt = time.UnixMilli(closedMs)
		trades = append(trades, t)
	}
	return trades, rows.Err()
}
