package ledger

import (
	"errors"
	"testing"
)

func TestLedgerDefaultsToZero(t *testing.T) {
	l := New()
	if got := l.Units("AAPL"); got != 0 {
		t.Errorf("expected 0 units for unknown symbol, got %d", got)
	}
}

func TestLedgerAddRemove(t *testing.T) {
	l := New()
	l.Add("AAPL", 100)
	if got := l.Units("AAPL"); got != 100 {
		t.Fatalf("expected 100 units, got %d", got)
	}

	if err := l.Remove("AAPL", 40); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := l.Units("AAPL"); got != 60 {
		t.Errorf("expected 60 units, got %d", got)
	}

	if err := l.Remove("AAPL", 60); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := l.Units("AAPL"); got != 0 {
		t.Errorf("expected 0 units after full removal, got %d", got)
	}
}

func TestLedgerRemoveUnderflow(t *testing.T) {
	l := New()
	l.Add("MSFT", 10)

	err := l.Remove("MSFT", 11)
	if !errors.Is(err, ErrInvalidOperation) {
		t.Fatalf("expected ErrInvalidOperation, got %v", err)
	}

	// A rejected removal must not mutate the ledger.
	if got := l.Units("MSFT"); got != 10 {
		t.Errorf("expected 10 units after rejected removal, got %d", got)
	}
}

func TestLedgerRemoveUnknownSymbol(t *testing.T) {
	l := New()
	if err := l.Remove("GOOG", 1); !errors.Is(err, ErrInvalidOperation) {
		t.Errorf("expected ErrInvalidOperation for unknown symbol, got %v", err)
	}
}

func TestLedgerNeverNegative(t *testing.T) {
	// Any interleaving of adds and valid removes keeps every count >= 0.
	l := New()
	ops := []struct {
		add int
		rm  int
	}{
		{add: 5}, {rm: 3}, {add: 7}, {rm: 9}, {add: 1}, {rm: 1},
	}
	for _, op := range ops {
		if op.add > 0 {
			l.Add("X", op.add)
		}
		if op.rm > 0 {
			if err := l.Remove("X", op.rm); err != nil {
				t.Fatalf("remove %d with %d held: %v", op.rm, l.Units("X"), err)
			}
		}
		if l.Units("X") < 0 {
			t.Fatalf("ledger went negative: %d", l.Units("X"))
		}
	}
	if got := l.Units("X"); got != 0 {
		t.Errorf("expected 0 at end, got %d", got)
	}
}

func TestLedgerSymbols(t *testing.T) {
	l := New()
	l.Add("MSFT", 1)
	l.Add("AAPL", 2)

	got := l.Symbols()
	if len(got) != 2 || got[0] != "AAPL" || got[1] != "MSFT" {
		t.Errorf("expected sorted [AAPL MSFT], got %v", got)
	}
}
