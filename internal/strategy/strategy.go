// Package strategy defines the signal Evaluator contract and the built-in
// moving-average evaluators.
package strategy

import "goldcross/internal/domain"

// Evaluator answers, for one asset at the current bar, whether to enter or
// exit a position. Observe feeds it bars; ShouldEnter and ShouldExit are
// pure reads over the indicator state Observe maintains.
//
// The driver only asks ShouldEnter while flat and ShouldExit while
// positioned, so a crossing is implicit in the inequality: on the bar the
// condition first holds, the previous relationship must have been the
// opposite (otherwise the position state would already have flipped). The
// evaluators therefore never compare against the previous bar themselves.
type Evaluator interface {
	// Name returns a human-readable identifier including the parameters,
	// e.g. "sma-cross(10)". Names appear in audit records and must be
	// unique within a run.
	Name() string

	// Observe updates indicator state with the asset's current bar. It is
	// called exactly once per asset per time step, before any signal read
	// for that asset.
	Observe(bar domain.Bar)

	// ShouldEnter reports whether to open a position in symbol. Only
	// meaningful while flat. False until the indicators have warmed up.
	ShouldEnter(symbol string) bool

	// ShouldExit reports whether to close the position in symbol. Only
	// meaningful while positioned. False until the indicators have warmed
	// up.
	ShouldExit(symbol string) bool
}
