// Package funds provides the shared reservation guard over the broker's
// free cash. Every strategy instance in a run sizes its buys against the
// same cash pool; the guard earmarks cash for in-flight buy orders so two
// not-yet-confirmed buys cannot spend the same money twice.
package funds

import (
	"errors"
	"fmt"
	"sync"
)

// ErrInvalidRelease is returned when a release exceeds the pending total.
// Reserves and releases are paired one-to-one per order, so an over-release
// is a contract violation, never clamped away.
var ErrInvalidRelease = errors.New("funds: release exceeds pending reservations")

// CashSource reports the broker's free cash before pending reservations.
type CashSource interface {
	FreeCash() float64
}

// Guard is the process-wide pending-funds counter. It is constructed once
// per run and injected into every strategy instance, making the shared
// ownership explicit. All methods are safe for concurrent use; in the
// current single-threaded bar loop the lock simply guarantees that the
// sufficiency check and the reservation in Reserve stay one operation.
type Guard struct {
	mu      sync.Mutex
	cash    CashSource
	pending float64
}

// NewGuard creates a guard reading free cash from src.
func NewGuard(src CashSource) *Guard {
	return &Guard{cash: src}
}

// Available returns the free cash not yet promised to pending buy orders.
func (g *Guard) Available() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cash.FreeCash() - g.pending
}

// Pending returns the total cash currently reserved for in-flight buys.
func (g *Guard) Pending() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pending
}

// Reserve earmarks cost for a buy order if invest does not exceed the
// currently available cash. It reports whether the reservation was made.
// The check and the mutation happen under one lock, so a competing
// reservation cannot slip between them.
//
// invest is the intended notional (fraction of portfolio value); cost is
// the exact amount to reserve (unit count times close price). The caller
// must later pair a successful Reserve with exactly one Release of cost.
func (g *Guard) Reserve(invest, cost float64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if invest > g.cash.FreeCash()-g.pending {
		return false
	}
	g.pending += cost
	return true
}

// Release returns amount to the free pool after the matching buy order
// reached a terminal status. Releasing more than is pending fails with
// ErrInvalidRelease and leaves the guard unchanged.
func (g *Guard) Release(amount float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if amount > g.pending+floatSlack {
		return fmt.Errorf("%w: pending %.2f, releasing %.2f", ErrInvalidRelease, g.pending, amount)
	}
	g.pending -= amount
	if g.pending < floatSlack && g.pending > -floatSlack {
		g.pending = 0
	}
	return nil
}

// floatSlack absorbs the rounding noise of summing many float money
// amounts; it is far below one cent.
const floatSlack = 1e-6
