package strategy

import (
	"fmt"

	"goldcross/internal/domain"
	"goldcross/internal/indicator"
)

// Compile-time interface check.
var _ Evaluator = (*GoldenDeathCross)(nil)

// GoldenDeathCross enters on a golden cross (short-period SMA above the
// long-period SMA) and exits on a death cross (short below long). Both
// comparisons are strict: an exact equality fires neither signal.
type GoldenDeathCross struct {
	shortPeriod int
	longPeriod  int
	shortSMAs   map[string]*indicator.SMA
	longSMAs    map[string]*indicator.SMA
}

// NewGoldenDeathCross creates the dual-average evaluator. shortPeriod must
// be less than longPeriod.
func NewGoldenDeathCross(shortPeriod, longPeriod int) *GoldenDeathCross {
	if shortPeriod < 1 || shortPeriod >= longPeriod {
		panic("strategy: GoldenDeathCross requires 0 < shortPeriod < longPeriod")
	}
	return &GoldenDeathCross{
		shortPeriod: shortPeriod,
		longPeriod:  longPeriod,
		shortSMAs:   make(map[string]*indicator.SMA),
		longSMAs:    make(map[string]*indicator.SMA),
	}
}

// Name returns "golden-death(<short>,<long>)".
func (s *GoldenDeathCross) Name() string {
	return fmt.Sprintf("golden-death(%d,%d)", s.shortPeriod, s.longPeriod)
}

// Observe folds the bar's close into both of the symbol's SMAs.
func (s *GoldenDeathCross) Observe(bar domain.Bar) {
	short, ok := s.shortSMAs[bar.Symbol]
	if !ok {
		short = indicator.NewSMA(s.shortPeriod)
		s.shortSMAs[bar.Symbol] = short
	}
	long, ok := s.longSMAs[bar.Symbol]
	if !ok {
		long = indicator.NewSMA(s.longPeriod)
		s.longSMAs[bar.Symbol] = long
	}
	short.Observe(bar.Close)
	long.Observe(bar.Close)
}

// ShouldEnter reports short SMA > long SMA once both windows are full.
func (s *GoldenDeathCross) ShouldEnter(symbol string) bool {
	short, long, ok := s.ready(symbol)
	if !ok {
		return false
	}
	return short > long
}

// ShouldExit reports short SMA < long SMA once both windows are full.
func (s *GoldenDeathCross) ShouldExit(symbol string) bool {
	short, long, ok := s.ready(symbol)
	if !ok {
		return false
	}
	return short < long
}

func (s *GoldenDeathCross) ready(symbol string) (short, long float64, ok bool) {
	shortSMA, okShort := s.shortSMAs[symbol]
	longSMA, okLong := s.longSMAs[symbol]
	if !okShort || !okLong || !shortSMA.Ready() || !longSMA.Ready() {
		return 0, 0, false
	}
	return shortSMA.Value(), longSMA.Value(), true
}
