package engine

import (
	"fmt"

	"goldcross/internal/ledger"
	"goldcross/internal/strategy"
)

// Instance binds one signal evaluator to its own position ledger and sizing
// fraction. The ledger is owned exclusively by the instance; the funds
// guard is deliberately not here — it lives on the Engine, shared by every
// instance in the run.
type Instance struct {
	id        string
	evaluator strategy.Evaluator
	ledger    *ledger.Ledger
	fraction  float64
}

// NewInstance creates a strategy instance with an empty ledger. fraction is
// the share of total portfolio value committed per entry and must be in
// (0, 1].
func NewInstance(evaluator strategy.Evaluator, fraction float64) (*Instance, error) {
	if fraction <= 0 || fraction > 1 {
		return nil, fmt.Errorf("engine: investment fraction must be in (0, 1], got %v", fraction)
	}
	return &Instance{
		id:        evaluator.Name(),
		evaluator: evaluator,
		ledger:    ledger.New(),
		fraction:  fraction,
	}, nil
}

// ID returns the instance identifier (the evaluator name).
func (i *Instance) ID() string { return i.id }

// Ledger exposes the instance's position ledger, mainly for tests and
// reporting.
func (i *Instance) Ledger() *ledger.Ledger { return i.ledger }
