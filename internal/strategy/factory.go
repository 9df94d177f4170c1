package strategy

import (
	"fmt"

	"goldcross/internal/config"
)

// FromSpec builds the evaluator described by a config strategy block. The
// spec is assumed to have passed config validation; unknown types are still
// rejected here for callers constructing specs by hand.
func FromSpec(spec config.StrategySpec) (Evaluator, error) {
	switch spec.Type {
	case "sma-cross":
		return NewSMACross(spec.Period), nil
	case "golden-death":
		return NewGoldenDeathCross(spec.ShortPeriod, spec.LongPeriod), nil
	default:
		return nil, fmt.Errorf("strategy: unknown type %q", spec.Type)
	}
}
