// Package ledger tracks, per strategy instance, how many units of each
// symbol were acquired through that instance. Only self-acquired holdings
// are ever liquidated, so the ledger is the single source of truth for how
// much an instance may sell.
package ledger

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInvalidOperation is returned when a removal would take a symbol's unit
// count below zero. This is a contract violation by the caller, not an
// operational condition: the driver always sells exactly what the ledger
// holds, so a correct run never triggers it.
var ErrInvalidOperation = errors.New("ledger: removal exceeds held units")

// Ledger maps symbols to non-negative unit counts. A missing symbol means
// no open position through this instance. The ledger is owned exclusively
// by one strategy instance and is not safe for concurrent use.
type Ledger struct {
	units map[string]int
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{units: make(map[string]int)}
}

// Units returns the number of units currently held for symbol, or 0.
func (l *Ledger) Units(symbol string) int {
	return l.units[symbol]
}

// Add credits n units of symbol to the ledger. n must be positive.
func (l *Ledger) Add(symbol string, n int) {
	if n <= 0 {
		return
	}
	l.units[symbol] += n
}

// Remove debits n units of symbol. It returns ErrInvalidOperation if n
// exceeds the held amount; the ledger is left unchanged in that case.
func (l *Ledger) Remove(symbol string, n int) error {
	held := l.units[symbol]
	if n > held {
		return fmt.Errorf("%w: %s holds %d, removing %d", ErrInvalidOperation, symbol, held, n)
	}
	remaining := held - n
	if remaining == 0 {
		delete(l.units, symbol)
		return nil
	}
	l.units[symbol] = remaining
	return nil
}

// Symbols returns the symbols with open positions, sorted.
func (l *Ledger) Symbols() []string {
	symbols := make([]string, 0, len(l.units))
	for s := range l.units {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}
