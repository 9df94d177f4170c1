package strategy

import (
	"fmt"

	"goldcross/internal/domain"
	"goldcross/internal/indicator"
)

// Compile-time interface check.
var _ Evaluator = (*SMACross)(nil)

// SMACross enters when the close price is above its simple moving average
// and exits when it is below. One SMA is kept per symbol, created lazily on
// the first bar observed for that symbol.
type SMACross struct {
	period    int
	smas      map[string]*indicator.SMA
	lastClose map[string]float64
}

// NewSMACross creates an SMACross evaluator with the given SMA period.
func NewSMACross(period int) *SMACross {
	if period < 1 {
		panic("strategy: SMACross period must be at least 1")
	}
	return &SMACross{
		period:    period,
		smas:      make(map[string]*indicator.SMA),
		lastClose: make(map[string]float64),
	}
}

// Name returns "sma-cross(<period>)".
func (s *SMACross) Name() string {
	return fmt.Sprintf("sma-cross(%d)", s.period)
}

// Observe folds the bar's close into the symbol's SMA.
func (s *SMACross) Observe(bar domain.Bar) {
	sma, ok := s.smas[bar.Symbol]
	if !ok {
		sma = indicator.NewSMA(s.period)
		s.smas[bar.Symbol] = sma
	}
	sma.Observe(bar.Close)
	s.lastClose[bar.Symbol] = bar.Close
}

// ShouldEnter reports close > SMA. Strict inequality: an exact touch fires
// nothing.
func (s *SMACross) ShouldEnter(symbol string) bool {
	sma, ok := s.smas[symbol]
	if !ok || !sma.Ready() {
		return false
	}
	return s.lastClose[symbol] > sma.Value()
}

// ShouldExit reports close < SMA.
func (s *SMACross) ShouldExit(symbol string) bool {
	sma, ok := s.smas[symbol]
	if !ok || !sma.Ready() {
		return false
	}
	return s.lastClose[symbol] < sma.Value()
}
