package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"goldcross/internal/domain"
)

func day(d int) time.Time {
	return time.Date(2021, 1, d, 0, 0, 0, 0, time.UTC)
}

func TestParquetStoreRoundTrip(t *testing.T) {
	s := NewParquetStore(t.TempDir())
	ctx := context.Background()

	bars := []domain.Bar{
		{Symbol: "AAPL", Timestamp: day(4), Open: 99, High: 101, Low: 98, Close: 100, Volume: 1000},
		{Symbol: "AAPL", Timestamp: day(5), Open: 100, High: 103, Low: 99, Close: 102, Volume: 1100},
		{Symbol: "MSFT", Timestamp: day(4), Open: 210, High: 212, Low: 209, Close: 211, Volume: 900},
	}
	if err := s.WriteBars(ctx, bars); err != nil {
		t.Fatalf("WriteBars failed: %v", err)
	}

	got, err := s.ReadBars(ctx, "AAPL", day(1), day(31))
	if err != nil {
		t.Fatalf("ReadBars failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 AAPL bars, got %d", len(got))
	}
	if got[0].Close != 100 || got[1].Close != 102 {
		t.Errorf("bars out of order or corrupted: %+v", got)
	}

	symbols, err := s.ListSymbols(ctx)
	if err != nil {
		t.Fatalf("ListSymbols failed: %v", err)
	}
	if len(symbols) != 2 || symbols[0] != "AAPL" || symbols[1] != "MSFT" {
		t.Errorf("expected [AAPL MSFT], got %v", symbols)
	}
}

func TestParquetStoreMergeDeduplicates(t *testing.T) {
	s := NewParquetStore(t.TempDir())
	ctx := context.Background()

	first := []domain.Bar{{Symbol: "AAPL", Timestamp: day(4), Close: 100}}
	if err := s.WriteBars(ctx, first); err != nil {
		t.Fatalf("WriteBars failed: %v", err)
	}
	// Rewrite the same day with a corrected close; incoming wins.
	second := []domain.Bar{{Symbol: "AAPL", Timestamp: day(4), Close: 101}}
	if err := s.WriteBars(ctx, second); err != nil {
		t.Fatalf("WriteBars failed: %v", err)
	}

	got, err := s.ReadBars(ctx, "AAPL", day(1), day(31))
	if err != nil {
		t.Fatalf("ReadBars failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 bar after dedup, got %d", len(got))
	}
	if got[0].Close != 101 {
		t.Errorf("expected incoming record to win, got close %v", got[0].Close)
	}
}

func TestParquetStoreReadRangeFilter(t *testing.T) {
	s := NewParquetStore(t.TempDir())
	ctx := context.Background()

	var bars []domain.Bar
	for d := 1; d <= 20; d++ {
		bars = append(bars, domain.Bar{Symbol: "AAPL", Timestamp: day(d), Close: float64(d)})
	}
	if err := s.WriteBars(ctx, bars); err != nil {
		t.Fatalf("WriteBars failed: %v", err)
	}

	got, err := s.ReadBars(ctx, "AAPL", day(5), day(10))
	if err != nil {
		t.Fatalf("ReadBars failed: %v", err)
	}
	if len(got) != 6 {
		t.Errorf("expected 6 bars in [5,10], got %d", len(got))
	}
}

func TestSQLiteStoreOrders(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "goldcross.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer s.Close()
	ctx := context.Background()

	order := &domain.Order{
		ID:          "1",
		StrategyID:  "sma-cross(10)",
		Symbol:      "AAPL",
		Side:        domain.SideBuy,
		Qty:         100,
		SubmitClose: 100,
		Reserved:    10000,
		Status:      domain.OrderStatusSubmitted,
		SubmittedAt: day(4),
	}
	if err := s.SaveOrder(ctx, order); err != nil {
		t.Fatalf("SaveOrder failed: %v", err)
	}

	open, err := s.ListOrders(ctx, domain.OrderStatusSubmitted)
	if err != nil {
		t.Fatalf("ListOrders failed: %v", err)
	}
	if len(open) != 1 || open[0].ID != "1" || open[0].Reserved != 10000 {
		t.Fatalf("unexpected open orders: %+v", open)
	}

	order.Status = domain.OrderStatusCompleted
	order.FilledQty = 100
	order.FilledPrice = 101
	order.FilledValue = 10100
	order.ResolvedAt = day(5)
	if err := s.UpdateOrder(ctx, order); err != nil {
		t.Fatalf("UpdateOrder failed: %v", err)
	}

	done, err := s.ListOrders(ctx, domain.OrderStatusCompleted)
	if err != nil {
		t.Fatalf("ListOrders failed: %v", err)
	}
	if len(done) != 1 || done[0].FilledPrice != 101 {
		t.Fatalf("unexpected completed orders: %+v", done)
	}
	if remaining, _ := s.ListOrders(ctx, domain.OrderStatusSubmitted); len(remaining) != 0 {
		t.Errorf("order still listed as submitted after update")
	}
}

func TestSQLiteStoreUpdateUnknownOrder(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "goldcross.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer s.Close()

	err = s.UpdateOrder(context.Background(), &domain.Order{ID: "missing"})
	if err == nil {
		t.Fatal("expected error updating unknown order")
	}
}

func TestSQLiteStoreTrades(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "goldcross.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer s.Close()
	ctx := context.Background()

	trades := []domain.Trade{
		{StrategyID: "sma-cross(10)", Symbol: "AAPL", Qty: 100, PnL: 250.5, OpenedAt: day(4), ClosedAt: day(10)},
		{StrategyID: "golden-death(10,30)", Symbol: "MSFT", Qty: 40, PnL: -80, OpenedAt: day(6), ClosedAt: day(12)},
	}
	for i := range trades {
		if err := s.SaveTrade(ctx, &trades[i]); err != nil {
			t.Fatalf("SaveTrade failed: %v", err)
		}
	}

	all, err := s.ListTrades(ctx, "")
	if err != nil {
		t.Fatalf("ListTrades failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(all))
	}

	mine, err := s.ListTrades(ctx, "sma-cross(10)")
	if err != nil {
		t.Fatalf("ListTrades failed: %v", err)
	}
	if len(mine) != 1 || mine[0].PnL != 250.5 {
		t.Errorf("unexpected trades for strategy: %+v", mine)
	}
}
